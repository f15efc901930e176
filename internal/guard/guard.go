// Package guard decides what a protected surface should render for the
// current session state. The decision is pure: evaluating a gate never
// triggers sign-in attempts or retries. The only way out of the sign-in
// prompt is a successful sign-in updating the session manager.
package guard

import (
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/session"
)

// State is the outcome of evaluating a gate
type State int

const (
	// StateLoading means the session is still being resolved; render a
	// placeholder, not the prompt
	StateLoading State = iota
	// StateSignInPrompt means no user is signed in and the gate has no
	// fallback; the decision carries an open-auth request for the hub
	StateSignInPrompt
	// StateFallback means no user is signed in and the gate was built
	// with a fallback surface
	StateFallback
	// StateProtected means a user is signed in; render the protected
	// content
	StateProtected
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateSignInPrompt:
		return "sign_in_prompt"
	case StateFallback:
		return "fallback"
	case StateProtected:
		return "protected"
	default:
		return "unknown"
	}
}

// Decision is what the gate resolved to for a given session snapshot.
// Prompt is non-nil only in StateSignInPrompt; User only in StateProtected.
type Decision struct {
	State  State
	Prompt *model.OpenAuthPayload
	User   *model.User
}

// Gate guards one protected surface. A gate with a fallback yields
// StateFallback for signed-out sessions instead of prompting.
type Gate struct {
	manager  *session.Manager
	fallback bool
}

// Option configures a Gate
type Option func(*Gate)

// WithFallback makes the gate resolve signed-out sessions to StateFallback
// instead of the sign-in prompt
func WithFallback() Option {
	return func(g *Gate) {
		g.fallback = true
	}
}

// NewGate creates a gate over the given session manager
func NewGate(manager *session.Manager, opts ...Option) *Gate {
	g := &Gate{manager: manager}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Evaluate resolves the gate against the manager's current snapshot
func (g *Gate) Evaluate() Decision {
	state := g.manager.State()

	switch {
	case state.Loading:
		return Decision{State: StateLoading}
	case state.SignedIn():
		return Decision{State: StateProtected, User: state.User}
	case g.fallback:
		return Decision{State: StateFallback}
	default:
		return Decision{
			State:  StateSignInPrompt,
			Prompt: &model.OpenAuthPayload{Mode: model.AuthModeSignIn},
		}
	}
}
