package response

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// encodeFailedJSON is written when a payload cannot be marshaled.
const encodeFailedJSON = `{"error":{"code":"INTERNAL_ERROR","message":"failed to encode response","details":[]}}`

// OK sends a 200 OK response with JSON data.
func OK(w http.ResponseWriter, data any) {
	write(w, http.StatusOK, data)
}

// Created sends a 201 Created response with JSON data.
func Created(w http.ResponseWriter, data any) {
	write(w, http.StatusCreated, data)
}

// Accepted sends a 202 Accepted response with JSON data.
func Accepted(w http.ResponseWriter, data any) {
	write(w, http.StatusAccepted, data)
}

// NoContent sends a 204 No Content response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// write marshals before touching the response so an encoding failure can still
// become a 500.
func write(w http.ResponseWriter, status int, data any) {
	body, err := json.Marshal(data)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		slog.Error("Failed to encode response", "error", err, "status", status)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(encodeFailedJSON))
		return
	}
	w.WriteHeader(status)
	body = append(body, '\n')
	if _, err := w.Write(body); err != nil {
		slog.Debug("Failed to write response", "error", err)
	}
}
