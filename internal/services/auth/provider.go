package auth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"sync"

	"github.com/inkpress/inkpress-go/internal/model"
)

// Errors
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateAccount   = errors.New("account already exists")
	ErrInvalidSession     = errors.New("invalid or expired session")
)

// Provider is the client-facing authentication capability. Two implementations
// exist: LocalProvider (credential-store backed, with artificial latency to
// emulate network round trips) and RemoteProvider (backed by the real identity
// API). Session consumers are written against this interface so the two are
// interchangeable.
type Provider interface {
	// SignUp creates an account and signs it in.
	// Fails with ErrDuplicateAccount if the email is already registered,
	// leaving stored state untouched.
	SignUp(ctx context.Context, email, password string) (*model.Session, error)

	// SignIn authenticates an existing account.
	// Fails with ErrInvalidCredentials on unknown email or wrong password;
	// the two cases are deliberately indistinguishable.
	SignIn(ctx context.Context, email, password string) (*model.Session, error)

	// SignOut clears the active session. Always succeeds from the caller's
	// perspective; internal failures are logged by the provider.
	SignOut(ctx context.Context) error

	// CurrentUser returns the persisted active session's user, or (nil, nil)
	// when nobody is signed in. Used once at process start to restore the
	// session across restarts.
	CurrentUser(ctx context.Context) (*model.User, error)

	// Subscribe registers a callback invoked on every auth state change:
	// with the new session after sign-in/sign-up, with nil after sign-out.
	// The returned function unsubscribes.
	Subscribe(fn func(*model.Session)) (unsubscribe func())
}

// notifier fans auth state changes out to subscribers. Both providers embed
// it; notifications fire synchronously on the calling goroutine.
type notifier struct {
	mu   sync.Mutex
	subs map[int]func(*model.Session)
	next int
}

func (n *notifier) subscribe(fn func(*model.Session)) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.subs == nil {
		n.subs = make(map[int]func(*model.Session))
	}
	id := n.next
	n.next++
	n.subs[id] = fn

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs, id)
	}
}

func (n *notifier) notify(session *model.Session) {
	n.mu.Lock()
	fns := make([]func(*model.Session), 0, len(n.subs))
	for _, fn := range n.subs {
		fns = append(fns, fn)
	}
	n.mu.Unlock()

	for _, fn := range fns {
		fn(session)
	}
}

// generateToken generates a random token with a prefix
func generateToken(prefix string) string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return prefix + base64.RawURLEncoding.EncodeToString(b)
}
