package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkpress/inkpress-go/internal/dependencies/clock"
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/storage"
)

// DefaultLocalLatency emulates the round trip of a real identity backend so
// the demo behaves like the production integration.
const DefaultLocalLatency = 300 * time.Millisecond

// LocalConfig holds configuration for the local provider
type LocalConfig struct {
	// Latency is the artificial delay applied to every operation.
	// Zero disables the delay (useful in tests).
	Latency time.Duration

	// SessionDuration bounds the lifetime of issued sessions
	SessionDuration time.Duration
}

// DefaultLocalConfig returns default local provider configuration
func DefaultLocalConfig() LocalConfig {
	return LocalConfig{
		Latency:         DefaultLocalLatency,
		SessionDuration: 24 * time.Hour,
	}
}

// LocalProvider implements Provider directly against the credential store.
// It is the demo-mode stand-in for the real identity backend: same contract,
// same shapes, but everything stays on this machine and each call settles
// after a fixed artificial delay.
//
// The provider owns at most one active session per process; the persisted
// active-user snapshot is what CurrentUser restores after a restart.
type LocalProvider struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger
	cfg     LocalConfig

	notifier notifier
}

// Ensure LocalProvider implements Provider
var _ Provider = (*LocalProvider)(nil)

// NewLocalProvider creates a credential-store backed provider
func NewLocalProvider(store storage.Storage, clk clock.Clock, cfg LocalConfig, logger *slog.Logger) *LocalProvider {
	if cfg.SessionDuration == 0 {
		cfg.SessionDuration = DefaultLocalConfig().SessionDuration
	}
	return &LocalProvider{
		storage: store,
		clock:   clk,
		logger:  logger.With(slog.String("component", "auth-local")),
		cfg:     cfg,
	}
}

// SignUp creates an account and marks it as the active session holder
func (p *LocalProvider) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	if err := p.simulateLatency(ctx); err != nil {
		return nil, err
	}

	// Duplicate check happens before any write
	_, err := p.storage.GetAccountByEmail(ctx, email)
	if err == nil {
		return nil, ErrDuplicateAccount
	}
	if !errors.Is(err, model.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	account := &model.Account{
		ID:           model.AccountID(uuid.NewString()),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    p.clock.Now(),
	}

	if err := p.storage.SaveAccount(ctx, account); err != nil {
		return nil, err
	}

	return p.activate(ctx, account)
}

// SignIn authenticates against the store and marks the account active
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	if err := p.simulateLatency(ctx); err != nil {
		return nil, err
	}

	account, err := p.storage.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrAccountNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return p.activate(ctx, account)
}

// SignOut clears the active session marker. Storage failures are logged and
// swallowed: there is no recovery smaller than clearing the session anyway.
func (p *LocalProvider) SignOut(ctx context.Context) error {
	if err := p.simulateLatency(ctx); err != nil {
		return err
	}

	if err := p.storage.ClearActiveUser(ctx); err != nil {
		p.logger.Warn("failed to clear active user", slog.Any("error", err))
	}

	p.notifier.notify(nil)
	return nil
}

// CurrentUser restores the persisted active session's user, or (nil, nil)
// when nobody is signed in
func (p *LocalProvider) CurrentUser(ctx context.Context) (*model.User, error) {
	user, err := p.storage.GetActiveUser(ctx)
	if err != nil {
		if errors.Is(err, model.ErrSessionNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// Subscribe registers an auth state change callback
func (p *LocalProvider) Subscribe(fn func(*model.Session)) func() {
	return p.notifier.subscribe(fn)
}

// activate persists the active-user snapshot and builds the session
func (p *LocalProvider) activate(ctx context.Context, account *model.Account) (*model.Session, error) {
	user := account.PublicUser()

	if err := p.storage.SaveActiveUser(ctx, user); err != nil {
		return nil, err
	}

	now := p.clock.Now()
	session := &model.Session{
		Token:     generateToken("local_"),
		User:      *user,
		CreatedAt: now,
		ExpiresAt: now.Add(p.cfg.SessionDuration),
	}

	p.notifier.notify(session)
	return session, nil
}

// simulateLatency blocks for the configured artificial delay, aborting early
// if the context is cancelled
func (p *LocalProvider) simulateLatency(ctx context.Context) error {
	if p.cfg.Latency <= 0 {
		return nil
	}

	timer := time.NewTimer(p.cfg.Latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
