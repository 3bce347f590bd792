package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"

	"github.com/rezkam/awe/internal/infrastructure/http/response"
)

// MaxBodyBytes rejects request bodies larger than maxBytes with 413.
// A declared Content-Length over the limit is refused before reading; chunked
// or mislabelled bodies are refused once the read crosses the limit.
func MaxBodyBytes(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				tooLarge(w, r, maxBytes)
				return
			}
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			buf, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBytes))
			if err != nil {
				tooLarge(w, r, maxBytes)
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(buf))
			next.ServeHTTP(w, r)
		})
	}
}

func tooLarge(w http.ResponseWriter, r *http.Request, limit int64) {
	slog.WarnContext(r.Context(), "Request body size limit exceeded",
		"method", r.Method,
		"path", r.URL.Path,
		"content_length", r.ContentLength,
		"limit", limit)
	response.Error(w, "PAYLOAD_TOO_LARGE", "request body exceeds size limit", http.StatusRequestEntityTooLarge)
}
