package response

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
)

// logger returns the default logger tagged with the chi request ID, if any.
func logger(r *http.Request) *slog.Logger {
	if id := middleware.GetReqID(r.Context()); id != "" {
		return slog.Default().With("request_id", id)
	}
	return slog.Default()
}
