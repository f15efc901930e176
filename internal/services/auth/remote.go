package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/inkpress/inkpress-go/internal/model"
)

// RemoteProvider implements Provider against the inkpress identity API.
// It holds the session token through a TokenStore so CurrentUser can restore
// the session after a restart, mirroring how a browser client restores from
// local storage.
type RemoteProvider struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	logger     *slog.Logger

	notifier notifier
}

// Ensure RemoteProvider implements Provider
var _ Provider = (*RemoteProvider)(nil)

// NewRemoteProvider creates a provider talking to the identity API at baseURL
func NewRemoteProvider(baseURL string, tokens TokenStore, logger *slog.Logger) *RemoteProvider {
	return &RemoteProvider{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth-remote")),
	}
}

// Wire types matching the identity API contract

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userPayload struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	User         userPayload `json:"user"`
	SessionToken string      `json:"session_token"`
	ExpiresAt    time.Time   `json:"expires_at"`
}

type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SignUp registers a new account with the identity backend
func (p *RemoteProvider) SignUp(ctx context.Context, email, password string) (*model.Session, error) {
	return p.authenticate(ctx, "/api/v1/auth/signup", email, password)
}

// SignIn authenticates an existing account with the identity backend
func (p *RemoteProvider) SignIn(ctx context.Context, email, password string) (*model.Session, error) {
	return p.authenticate(ctx, "/api/v1/auth/signin", email, password)
}

// SignOut invalidates the backend session and drops the stored token.
// The token is dropped even when the backend call fails: the caller always
// ends up signed out.
func (p *RemoteProvider) SignOut(ctx context.Context) error {
	token, err := p.tokens.Load()
	if err == nil && token != "" {
		if err := p.do(ctx, http.MethodPost, "/api/v1/auth/signout", token, nil, nil); err != nil {
			p.logger.Warn("remote sign-out failed", slog.Any("error", err))
		}
	}

	if err := p.tokens.Clear(); err != nil {
		p.logger.Warn("failed to clear stored token", slog.Any("error", err))
	}

	p.notifier.notify(nil)
	return nil
}

// CurrentUser restores the session from the stored token, or (nil, nil) when
// no token is stored or the backend no longer accepts it
func (p *RemoteProvider) CurrentUser(ctx context.Context) (*model.User, error) {
	token, err := p.tokens.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}

	var payload userPayload
	if err := p.do(ctx, http.MethodGet, "/api/v1/auth/me", token, nil, &payload); err != nil {
		if isAuthRejection(err) {
			// Stale token: degrade to signed out
			_ = p.tokens.Clear()
			return nil, nil
		}
		return nil, err
	}

	user := userFromPayload(payload)
	return &user, nil
}

// Subscribe registers an auth state change callback
func (p *RemoteProvider) Subscribe(fn func(*model.Session)) func() {
	return p.notifier.subscribe(fn)
}

// authenticate performs a sign-up or sign-in call and stores the token
func (p *RemoteProvider) authenticate(ctx context.Context, path, email, password string) (*model.Session, error) {
	var resp authResponse
	req := credentialsRequest{Email: email, Password: password}
	if err := p.do(ctx, http.MethodPost, path, "", req, &resp); err != nil {
		return nil, err
	}

	if err := p.tokens.Save(resp.SessionToken); err != nil {
		return nil, fmt.Errorf("failed to persist session token: %w", err)
	}

	session := &model.Session{
		Token:     resp.SessionToken,
		User:      userFromPayload(resp.User),
		CreatedAt: resp.User.CreatedAt,
		ExpiresAt: resp.ExpiresAt,
	}

	p.notifier.notify(session)
	return session, nil
}

// do performs an HTTP request against the identity API, mapping error
// envelopes back to the provider's sentinel errors
func (p *RemoteProvider) do(ctx context.Context, method, path, token string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return p.mapError(resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
	}

	return nil
}

// mapError converts API error envelopes to sentinel errors
func (p *RemoteProvider) mapError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		switch envelope.Error.Code {
		case "DUPLICATE_ACCOUNT":
			return ErrDuplicateAccount
		case "INVALID_CREDENTIALS":
			return ErrInvalidCredentials
		case "UNAUTHORIZED":
			return ErrInvalidSession
		default:
			return fmt.Errorf("%s (%s)", envelope.Error.Message, envelope.Error.Code)
		}
	}
	return fmt.Errorf("HTTP %d: %s", status, string(body))
}

func isAuthRejection(err error) bool {
	return errors.Is(err, ErrInvalidSession) || errors.Is(err, ErrInvalidCredentials)
}

func userFromPayload(p userPayload) model.User {
	return model.User{
		ID:        model.AccountID(p.ID),
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
	}
}
