package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, http.StatusOK, response)
}

// formatsHandler lists the supported export formats.
func (s *Server) formatsHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	all := export.AllFormats()
	list := make([]FormatInfo, len(all))
	for i, f := range all {
		list[i] = FormatInfo{
			Tag:         f.String(),
			Extension:   f.Extension(),
			ContentType: f.ContentType(),
			Label:       f.Label(),
		}
	}
	writeJSON(w, http.StatusOK, FormatsResponse{Formats: list, Count: len(list)})
}

// statusForError maps export error types onto HTTP status codes. Problems with
// the request are the client's fault; failing to write the artifact is ours.
func statusForError(errorType string) int {
	switch errorType {
	case "empty_queue", "decode_error", "unsupported_format", "invalid_request":
		return http.StatusBadRequest
	case "upload_too_large":
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message, errorType, requestID string) {
	writeJSON(w, statusForError(errorType), ErrorResponse{
		Success:   false,
		Error:     message,
		ErrorType: errorType,
		RequestID: requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Log error, but can't send another response
		slog.Error("Error encoding response", "error", err)
	}
}
