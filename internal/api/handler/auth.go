package handler

import (
	"encoding/json"
	"net/http"

	"github.com/inkpress/inkpress-go/internal/api/middleware"
	"github.com/inkpress/inkpress-go/internal/api/request"
	"github.com/inkpress/inkpress-go/internal/api/response"
	"github.com/inkpress/inkpress-go/internal/events"
	"github.com/inkpress/inkpress-go/internal/services/auth"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService *auth.Service
	broadcaster *events.Broadcaster
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *auth.Service, broadcaster *events.Broadcaster) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		broadcaster: broadcaster,
	}
}

// SignUp handles POST /api/v1/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req request.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.broadcaster.AuthChanged(&session.User)
	response.JSON(w, http.StatusCreated, response.AuthResponseFromSession(session))
}

// SignIn handles POST /api/v1/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req request.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("invalid request body"))
		return
	}

	if req.Email == "" {
		WriteError(w, NewInvalidRequestError("email is required"))
		return
	}
	if req.Password == "" {
		WriteError(w, NewInvalidRequestError("password is required"))
		return
	}

	session, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		WriteError(w, err)
		return
	}

	h.broadcaster.AuthChanged(&session.User)
	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// SignOut handles POST /api/v1/auth/signout
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session := middleware.GetSession(r.Context())

	if err := h.authService.InvalidateSession(r.Context(), session.Token); err != nil {
		WriteError(w, err)
		return
	}

	h.broadcaster.AuthChanged(nil)
	response.NoContent(w)
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.MustGetUser(r.Context())
	response.JSON(w, http.StatusOK, response.UserFromModel(user))
}
