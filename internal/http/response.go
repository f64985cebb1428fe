package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"devfolio-backend-go/internal/services"
)

// Envelope wraps every JSON response.
type Envelope struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func WriteData(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, Envelope{Success: true, Data: data})
}

func WriteOK(w http.ResponseWriter) {
	WriteJSON(w, http.StatusOK, Envelope{Success: true})
}

// WriteError is for failures detected before any service call.
func WriteError(w http.ResponseWriter, status int, message string) {
	kind := services.KindUnknown
	switch status {
	case http.StatusBadRequest:
		kind = services.KindValidation
	case http.StatusUnauthorized:
		kind = services.KindAuthentication
	case http.StatusForbidden:
		kind = services.KindAuthorization
	case http.StatusNotFound:
		kind = services.KindNotFound
	case http.StatusTooManyRequests:
		kind = services.KindRateLimit
	}
	WriteJSON(w, status, Envelope{Success: false, Error: message, Code: kind.Code()})
}

// WriteServiceError classifies err and writes the failure envelope. Server-side
// failures are logged, and their cause is only exposed outside production.
func (s *Server) WriteServiceError(w http.ResponseWriter, r *http.Request, err error) {
	svcErr := services.AsServiceError(err)
	message := svcErr.Message
	details := svcErr.Details
	if svcErr.Status >= http.StatusInternalServerError {
		slog.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "code", svcErr.Kind.Code(), "error", err.Error())
		if s.Config.Production() {
			message = "Internal server error"
			details = nil
		} else if svcErr.Err != nil {
			details = cloneDetails(details)
			details["cause"] = svcErr.Err.Error()
		}
	}
	if svcErr.Kind == services.KindRateLimit {
		if seconds, ok := details["retryAfterSeconds"].(int); ok {
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
		}
	}
	WriteJSON(w, svcErr.Status, Envelope{
		Success: false,
		Error:   message,
		Code:    svcErr.Kind.Code(),
		Details: details,
	})
}

func cloneDetails(details map[string]any) map[string]any {
	cloned := make(map[string]any, len(details)+1)
	for key, value := range details {
		cloned[key] = value
	}
	return cloned
}

const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON document and rejects unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(target); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return services.ErrValidation("Request body is too large", nil)
		case errors.Is(err, io.EOF):
			return services.ErrValidation("Request body is required", nil)
		case strings.HasPrefix(err.Error(), "json: unknown field"):
			field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
			return services.ErrValidation("Unknown field "+field, map[string]string{field: "Unknown field"})
		}
		return services.ErrValidation("Invalid JSON body", nil)
	}
	return nil
}
