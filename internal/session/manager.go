package session

import (
	"context"
	"log/slog"
	"sync"

	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/services/auth"
)

// State is the session context's published state. User and Session are
// always both set or both nil; partial states cannot be constructed.
type State struct {
	User    *model.User
	Session *model.Session
	Loading bool
}

// SignedIn reports whether a user is currently signed in
func (s State) SignedIn() bool {
	return s.User != nil
}

// Manager is the process-wide session holder: it orchestrates calls to an
// auth.Provider and republishes the resulting {user, session, loading} state
// to subscribers. It is explicitly constructed and passed down (via
// NewContext or plain dependency injection), never a package-level singleton.
//
// Concurrency: the Manager does not serialize auth calls by default. If a
// caller starts a second operation before the first settles, both run and
// the last one to settle determines the final state. Each operation is
// tagged with a monotonically increasing generation so the race is explicit
// and observable; callers that need strict ordering opt in via
// WithSequencing.
type Manager struct {
	provider auth.Provider
	logger   *slog.Logger

	sequencing bool
	seqMu      sync.Mutex

	mu         sync.Mutex
	state      State
	inflight   int
	nextGen    uint64
	settledGen uint64 // generation of the call whose result the state reflects

	restoreOnce sync.Once

	subs    map[int]func(State)
	nextSub int
}

// Option configures a Manager
type Option func(*Manager)

// WithSequencing makes the manager serialize auth operations: a second call
// blocks until the first settles. Without it, overlapping calls race and the
// last to settle wins.
func WithSequencing() Option {
	return func(m *Manager) {
		m.sequencing = true
	}
}

// NewManager creates a session manager over the given provider.
// The manager starts in the loading state until Restore settles.
func NewManager(provider auth.Provider, logger *slog.Logger, opts ...Option) *Manager {
	m := &Manager{
		provider: provider,
		logger:   logger.With(slog.String("component", "session")),
		state:    State{Loading: true},
		subs:     make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current session state
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers a callback invoked with a state snapshot on every
// change. Callbacks run on the goroutine that caused the change, after the
// manager's lock is released. The returned function unsubscribes.
func (m *Manager) Subscribe(fn func(State)) (unsubscribe func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// Restore loads the persisted session, once, at startup. Any failure
// degrades silently to the signed-out state; Loading becomes false on every
// path. Subsequent calls are no-ops.
func (m *Manager) Restore(ctx context.Context) {
	m.restoreOnce.Do(func() {
		user, err := m.provider.CurrentUser(ctx)

		m.mu.Lock()
		if err != nil {
			m.logger.Warn("session restore failed, starting signed out", slog.Any("error", err))
		} else if user != nil {
			// Reconstruct the session wrapper around the restored user.
			// The token is unknown here for local restores; consumers key
			// off User, not the token.
			m.state.User = user
			m.state.Session = &model.Session{User: *user}
		}
		m.state.Loading = m.inflight > 0
		notify := m.notifierLocked()
		m.mu.Unlock()

		notify()
	})
}

// SignUp creates an account and signs it in. On failure the error is
// returned to the caller and user/session are left untouched.
func (m *Manager) SignUp(ctx context.Context, email, password string) error {
	return m.run(ctx, func(ctx context.Context) (*model.Session, error) {
		return m.provider.SignUp(ctx, email, password)
	})
}

// SignIn authenticates an existing account. On failure the error is
// returned to the caller and user/session are left untouched.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	return m.run(ctx, func(ctx context.Context) (*model.Session, error) {
		return m.provider.SignIn(ctx, email, password)
	})
}

// SignOut clears the session. Provider failures are logged, never
// propagated: the caller always ends up signed out.
func (m *Manager) SignOut(ctx context.Context) {
	if err := m.provider.SignOut(ctx); err != nil {
		m.logger.Warn("sign-out failed, clearing session anyway", slog.Any("error", err))
	}

	m.mu.Lock()
	m.state.User = nil
	m.state.Session = nil
	notify := m.notifierLocked()
	m.mu.Unlock()

	notify()
}

// run executes one auth operation with loading bookkeeping and
// last-settle-wins application
func (m *Manager) run(ctx context.Context, op func(context.Context) (*model.Session, error)) error {
	if m.sequencing {
		m.seqMu.Lock()
		defer m.seqMu.Unlock()
	}

	gen := m.begin()
	defer m.settle()

	session, err := op(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	if gen < m.settledGen {
		// An older call settled after a newer one already applied. Last to
		// settle still wins; the overwrite is only worth a trace.
		m.logger.Debug("out-of-order auth settlement",
			slog.Uint64("generation", gen),
			slog.Uint64("overwritten", m.settledGen))
	}
	m.state.User = &session.User
	m.state.Session = session
	m.settledGen = gen
	notify := m.notifierLocked()
	m.mu.Unlock()

	notify()
	return nil
}

// begin marks an operation in flight and assigns its generation
func (m *Manager) begin() uint64 {
	m.mu.Lock()
	m.nextGen++
	gen := m.nextGen
	m.inflight++
	notify := func() {}
	if !m.state.Loading {
		m.state.Loading = true
		notify = m.notifierLocked()
	}
	m.mu.Unlock()

	notify()
	return gen
}

// settle marks an operation finished; Loading drops when nothing is in
// flight, regardless of how the operation ended
func (m *Manager) settle() {
	m.mu.Lock()
	m.inflight--
	notify := func() {}
	if m.inflight == 0 && m.state.Loading {
		m.state.Loading = false
		notify = m.notifierLocked()
	}
	m.mu.Unlock()

	notify()
}

// notifierLocked captures the current snapshot and subscriber set and
// returns a function that delivers the notification. Callers must hold
// m.mu when calling it and must invoke the result after releasing the lock,
// so callbacks can safely call back into the manager.
func (m *Manager) notifierLocked() func() {
	snapshot := m.state
	fns := make([]func(State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	return func() {
		for _, fn := range fns {
			fn(snapshot)
		}
	}
}
