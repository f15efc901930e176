package api_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress-go/internal/api"
	"github.com/inkpress/inkpress-go/internal/api/response"
	"github.com/inkpress/inkpress-go/internal/factory"
	"github.com/inkpress/inkpress-go/internal/model"
	"github.com/inkpress/inkpress-go/internal/services/pipeline"
	"github.com/inkpress/inkpress-go/internal/storage/memory"
)

// testServer creates a test server with all dependencies
type testServer struct {
	handler http.Handler
	app     *factory.App
	storage *memory.Storage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

	// API tests are integration tests - use the production factory with a
	// fast pipeline so demo jobs finish within the test
	app, err := factory.New(factory.Config{
		PipelineConfig: pipeline.Config{StageDelay: time.Millisecond},
	})
	require.NoError(t, err)
	t.Cleanup(app.HubManager.Shutdown)

	router := api.NewRouter(api.RouterConfig{
		Logger:          logger,
		AuthService:     app.AuthService,
		PipelineService: app.PipelineService,
		HubManager:      app.HubManager,
		Broadcaster:     app.Broadcaster,
	})

	return &testServer{
		handler: router,
		app:     app,
		storage: app.Storage.(*memory.Storage),
	}
}

func (ts *testServer) request(method, path string, body any, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		b, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(b)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)
	return rr
}

func (ts *testServer) signUp(t *testing.T, email, password string) response.AuthResponse {
	t.Helper()
	rr := ts.request(http.MethodPost, "/api/v1/auth/signup",
		map[string]string{"email": email, "password": password}, "")
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func errorCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp.Error.Code
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "ok")
}

func TestSignUp(t *testing.T) {
	ts := newTestServer(t)

	resp := ts.signUp(t, "alice@example.com", "supersecret")
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.User.ID)
	assert.NotEmpty(t, resp.SessionToken)
	assert.False(t, resp.ExpiresAt.IsZero())
}

func TestSignUpDuplicate(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "alice@example.com", "supersecret")

	rr := ts.request(http.MethodPost, "/api/v1/auth/signup",
		map[string]string{"email": "alice@example.com", "password": "other"}, "")

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "DUPLICATE_ACCOUNT", errorCode(t, rr))
}

func TestSignUpValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/auth/signup",
		map[string]string{"email": "alice@example.com"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rr))

	rr = ts.request(http.MethodPost, "/api/v1/auth/signup",
		map[string]string{"password": "supersecret"}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignIn(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "alice@example.com", "supersecret")

	rr := ts.request(http.MethodPost, "/api/v1/auth/signin",
		map[string]string{"email": "alice@example.com", "password": "supersecret"}, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var resp response.AuthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.NotEmpty(t, resp.SessionToken)
}

func TestSignInWrongPassword(t *testing.T) {
	ts := newTestServer(t)
	ts.signUp(t, "alice@example.com", "supersecret")

	rr := ts.request(http.MethodPost, "/api/v1/auth/signin",
		map[string]string{"email": "alice@example.com", "password": "wrongpass"}, "")

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "INVALID_CREDENTIALS", errorCode(t, rr))
}

func TestMe(t *testing.T) {
	ts := newTestServer(t)
	signedUp := ts.signUp(t, "alice@example.com", "supersecret")

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, signedUp.SessionToken)
	require.Equal(t, http.StatusOK, rr.Code)

	var user response.User
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &user))
	assert.Equal(t, signedUp.User.ID, user.ID)
}

func TestMeRequiresAuth(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rr))

	rr = ts.request(http.MethodGet, "/api/v1/auth/me", nil, "sess_bogus")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSignOutInvalidatesSession(t *testing.T) {
	ts := newTestServer(t)
	signedUp := ts.signUp(t, "alice@example.com", "supersecret")

	rr := ts.request(http.MethodPost, "/api/v1/auth/signout", nil, signedUp.SessionToken)
	assert.Equal(t, http.StatusNoContent, rr.Code)

	// The token is dead now
	rr = ts.request(http.MethodGet, "/api/v1/auth/me", nil, signedUp.SessionToken)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCookieAuth(t *testing.T) {
	ts := newTestServer(t)
	signedUp := ts.signUp(t, "alice@example.com", "supersecret")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "session", Value: signedUp.SessionToken})
	rr := httptest.NewRecorder()
	ts.handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestSubmitDemoJob(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/demo/jobs",
		map[string]any{"title": "My Novel", "word_count": 80000}, "")
	require.Equal(t, http.StatusAccepted, rr.Code)

	var job response.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, string(model.StageReceived), job.Stage)

	// The job runs to completion on its own
	ts.app.PipelineService.Wait()

	rr = ts.request(http.MethodGet, "/api/v1/demo/jobs/"+job.ID, nil, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var finished response.Job
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &finished))
	assert.Equal(t, string(model.StageDone), finished.Stage)
	assert.Equal(t, 100, finished.Progress)
}

func TestSubmitDemoJobValidation(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodPost, "/api/v1/demo/jobs",
		map[string]any{"word_count": 80000}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = ts.request(http.MethodPost, "/api/v1/demo/jobs",
		map[string]any{"title": "My Novel", "word_count": 0}, "")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestDemoRoutesTolerateAnyToken(t *testing.T) {
	ts := newTestServer(t)

	// Auth on the demo routes is optional: a bogus token never blocks a visitor
	rr := ts.request(http.MethodPost, "/api/v1/demo/jobs",
		map[string]any{"title": "My Novel", "word_count": 80000}, "sess_bogus")
	assert.Equal(t, http.StatusAccepted, rr.Code)

	// A real session is accepted on the same routes
	signedUp := ts.signUp(t, "alice@example.com", "supersecret")
	rr = ts.request(http.MethodPost, "/api/v1/demo/jobs",
		map[string]any{"title": "Sequel", "word_count": 90000}, signedUp.SessionToken)
	assert.Equal(t, http.StatusAccepted, rr.Code)

	ts.app.PipelineService.Wait()
}

func TestGetUnknownJob(t *testing.T) {
	ts := newTestServer(t)

	rr := ts.request(http.MethodGet, "/api/v1/demo/jobs/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "JOB_NOT_FOUND", errorCode(t, rr))
}

// Streams the auth topic over a real connection and checks the signup nudge
// arrives when a demo job completes.
func TestEventStreamDeliversSignupNudge(t *testing.T) {
	ts := newTestServer(t)

	server := httptest.NewServer(ts.handler)
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/events/auth")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	// Submitting a demo job ends with an open_auth broadcast on the auth topic
	rr := ts.request(http.MethodPost, "/api/v1/demo/jobs",
		map[string]any{"title": "My Novel", "word_count": 80000}, "")
	require.Equal(t, http.StatusAccepted, rr.Code)

	found := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if strings.HasPrefix(scanner.Text(), "event: open_auth") {
				close(found)
				return
			}
		}
	}()

	select {
	case <-found:
	case <-time.After(5 * time.Second):
		t.Fatal("open_auth event never arrived on the auth topic")
	}
}
