package session

import "context"

type contextKey struct{}

// NewContext returns a context carrying the session manager. The application
// attaches the manager at its root scope; anything below it can retrieve the
// manager with FromContext.
func NewContext(ctx context.Context, m *Manager) context.Context {
	return context.WithValue(ctx, contextKey{}, m)
}

// FromContext returns the session manager attached to the context, if any
func FromContext(ctx context.Context) (*Manager, bool) {
	m, ok := ctx.Value(contextKey{}).(*Manager)
	return m, ok
}

// MustFromContext returns the session manager or panics with a descriptive
// error. Calling it outside a NewContext scope is a programming error, not a
// recoverable runtime condition, so it fails fast at the point of use.
func MustFromContext(ctx context.Context) *Manager {
	m, ok := FromContext(ctx)
	if !ok {
		panic("session: no manager in context - was NewContext applied at the root scope?")
	}
	return m
}
