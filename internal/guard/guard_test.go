package guard

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-go/internal/dependencies/mocks"
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/services/auth"
	"github.com/inkpress/inkpress-go/internal/session"
	"github.com/inkpress/inkpress-go/internal/storage/memory"
	"github.com/inkpress/inkpress-go/internal/testutil"
)

func newManager(t *testing.T) *session.Manager {
	t.Helper()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))

	cfg := auth.DefaultLocalConfig()
	cfg.Latency = 0
	provider := auth.NewLocalProvider(memory.New(), clk, cfg, testutil.NopLogger())
	return session.NewManager(provider, testutil.NopLogger())
}

func TestEvaluateWhileLoading(t *testing.T) {
	m := newManager(t)
	// Restore has not run yet, so the manager is still loading

	decision := NewGate(m).Evaluate()
	assert.Equal(t, StateLoading, decision.State)
	assert.Nil(t, decision.Prompt)
	assert.Nil(t, decision.User)
}

func TestEvaluateSignedOutPrompts(t *testing.T) {
	m := newManager(t)
	m.Restore(context.Background())

	decision := NewGate(m).Evaluate()
	assert.Equal(t, StateSignInPrompt, decision.State)
	require.NotNil(t, decision.Prompt)
	assert.Equal(t, model.AuthModeSignIn, decision.Prompt.Mode)
}

func TestEvaluateSignedOutWithFallback(t *testing.T) {
	m := newManager(t)
	m.Restore(context.Background())

	decision := NewGate(m, WithFallback()).Evaluate()
	assert.Equal(t, StateFallback, decision.State)
	assert.Nil(t, decision.Prompt)
}

func TestEvaluateSignedIn(t *testing.T) {
	m := newManager(t)
	ctx := context.Background()
	m.Restore(ctx)
	require.NoError(t, m.SignUp(ctx, "alice@example.com", "supersecret"))

	decision := NewGate(m).Evaluate()
	assert.Equal(t, StateProtected, decision.State)
	require.NotNil(t, decision.User)
	assert.Equal(t, "alice@example.com", decision.User.Email)
}

// Walks the full gate lifecycle: loading spinner, prompt for the signed-out
// visitor, protected content after the sign-in settles, prompt again after
// sign-out.
func TestGateScenario(t *testing.T) {
	m := newManager(t)
	gate := NewGate(m)
	ctx := context.Background()

	assert.Equal(t, StateLoading, gate.Evaluate().State)

	m.Restore(ctx)
	decision := gate.Evaluate()
	require.Equal(t, StateSignInPrompt, decision.State)
	require.NotNil(t, decision.Prompt)

	// The prompt's only exit is a successful sign-in on the manager
	require.NoError(t, m.SignUp(ctx, "alice@example.com", "supersecret"))
	assert.Equal(t, StateProtected, gate.Evaluate().State)

	m.SignOut(ctx)
	assert.Equal(t, StateSignInPrompt, gate.Evaluate().State)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "sign_in_prompt", StateSignInPrompt.String())
	assert.Equal(t, "fallback", StateFallback.String())
	assert.Equal(t, "protected", StateProtected.String())
}
