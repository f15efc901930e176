package middleware

import (
	"log/slog"
	"net/http"

	"github.com/inkpress/inkpress-go/internal/middleware"
)

// Logging creates logging middleware for the API
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Logging(logger)
}
