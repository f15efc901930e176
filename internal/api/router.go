package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/inkpress/inkpress-go/internal/api/handler"
	"github.com/inkpress/inkpress-go/internal/api/middleware"
	"github.com/inkpress/inkpress-go/internal/events"
	"github.com/inkpress/inkpress-go/internal/services/auth"
	"github.com/inkpress/inkpress-go/internal/services/pipeline"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger          *slog.Logger
	AuthService     *auth.Service
	PipelineService *pipeline.Service
	HubManager      *events.HubManager
	Broadcaster     *events.Broadcaster
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	authHandler := handler.NewAuthHandler(cfg.AuthService, cfg.Broadcaster)
	demoHandler := handler.NewDemoHandler(cfg.PipelineService)
	eventsHandler := handler.NewEventsHandler(cfg.HubManager)

	authMiddleware := middleware.Auth(cfg.AuthService)
	optionalAuthMiddleware := middleware.OptionalAuth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Auth routes (signup/signin need no auth)
	api.HandleFunc("/auth/signup", authHandler.SignUp).Methods(http.MethodPost)
	api.HandleFunc("/auth/signin", authHandler.SignIn).Methods(http.MethodPost)

	// Protected auth routes
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(authMiddleware)
	authProtected.HandleFunc("/signout", authHandler.SignOut).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", authHandler.Me).Methods(http.MethodGet)

	// Demo pipeline routes: open to unauthenticated visitors, but signed-in
	// visitors get identified when they carry a token
	demo := api.PathPrefix("/demo").Subrouter()
	demo.Use(optionalAuthMiddleware)
	demo.HandleFunc("/jobs", demoHandler.Submit).Methods(http.MethodPost)
	demo.HandleFunc("/jobs/{id}", demoHandler.Get).Methods(http.MethodGet)

	// Event stream
	api.HandleFunc("/events/{topic}", eventsHandler.Stream).Methods(http.MethodGet)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
