package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkpress/inkpress-go/internal/dependencies/clock"
	"github.com/inkpress/inkpress-go/internal/services/auth"
	"github.com/inkpress/inkpress-go/internal/session"
	"github.com/inkpress/inkpress-go/internal/storage/memory"
)

func newAuthCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Account and session commands",
	}

	cmd.PersistentFlags().BoolVar(&local, "local", false,
		"Offline demo mode: authenticate against an in-process store with artificial latency; state lasts only for this invocation")

	cmd.AddCommand(newAuthSignUpCmd(&local))
	cmd.AddCommand(newAuthSignInCmd(&local))
	cmd.AddCommand(newAuthSignOutCmd(&local))
	cmd.AddCommand(newAuthMeCmd(&local))

	return cmd
}

// newSessionManager builds the session manager the auth commands drive.
// Remote mode talks to the identity API and persists the token in the token
// file, so the session carries across invocations; local mode runs the whole
// exchange against a fresh in-process store that dies with the process.
func newSessionManager(local bool) *session.Manager {
	logger := cliLogger()

	var provider auth.Provider
	if local {
		provider = auth.NewLocalProvider(memory.New(), clock.New(), auth.DefaultLocalConfig(), logger)
	} else {
		tokens := auth.NewFileTokenStore(cfg.TokenFile)
		provider = auth.NewRemoteProvider(cfg.ServerURL, tokens, logger)
	}

	manager := session.NewManager(provider, logger)
	manager.Restore(context.Background())
	return manager
}

// authResultFromState converts the manager's state for display
func authResultFromState(state session.State) AuthResult {
	result := AuthResult{}
	if state.User != nil {
		result.User = User{
			ID:        string(state.User.ID),
			Email:     state.User.Email,
			CreatedAt: state.User.CreatedAt,
		}
	}
	if state.Session != nil {
		result.SessionToken = state.Session.Token
		result.ExpiresAt = state.Session.ExpiresAt
	}
	return result
}

func newAuthSignUpCmd(local *bool) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(*local)

			if err := manager.SignUp(cmd.Context(), email, password); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(authResultFromState(manager.State()))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAuthSignInCmd(local *bool) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "signin",
		Short: "Sign in to an existing account",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(*local)

			if err := manager.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(authResultFromState(manager.State()))
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (required)")
	cmd.Flags().StringVar(&password, "password", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func newAuthSignOutCmd(local *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "signout",
		Short: "Sign out and discard the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(*local)
			manager.SignOut(cmd.Context())

			NewOutput(cfg.Output).PrintMessage("Signed out")
			return nil
		},
	}
}

func newAuthMeCmd(local *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "me",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			manager := newSessionManager(*local)

			state := manager.State()
			if !state.SignedIn() {
				return fmt.Errorf("not signed in")
			}

			out := NewOutput(cfg.Output)
			out.Print(User{
				ID:        string(state.User.ID),
				Email:     state.User.Email,
				CreatedAt: state.User.CreatedAt,
			})
			return nil
		},
	}
}
