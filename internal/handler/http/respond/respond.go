// Package respond writes JSON responses for the status server. Error
// responses are filtered so upstream failures never reach the client
// verbatim.
package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"postlabor-feed/internal/domain/entity"
)

// JSON writes v as a JSON body with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			// headers are already sent
			slog.Default().Error("failed to encode JSON response",
				slog.Int("status_code", code),
				slog.Any("error", err))
		}
	}
}

// Error writes {"error": err.Error()} unfiltered.
func Error(w http.ResponseWriter, code int, err error) {
	JSON(w, code, map[string]string{"error": err.Error()})
}

// safePhrases mark messages written for the client.
var safePhrases = []string{
	"required",
	"invalid",
	"not found",
	"must be",
	"cannot be",
	"too many requests",
}

// IsSafe reports whether err may be shown to a client as-is.
// Domain validation and lookup errors are safe; anything with a 5xx code
// is not.
func IsSafe(code int, err error) bool {
	if err == nil || code >= 500 {
		return false
	}
	if errors.Is(err, entity.ErrNotFound) ||
		errors.Is(err, entity.ErrInvalidInput) ||
		errors.Is(err, entity.ErrValidationFailed) {
		return true
	}
	lower := strings.ToLower(err.Error())
	for _, p := range safePhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// SafeError writes err when IsSafe allows it. Otherwise the sanitized
// error is logged and the client gets "internal server error".
func SafeError(w http.ResponseWriter, code int, err error) {
	if err == nil {
		return
	}
	if IsSafe(code, err) {
		JSON(w, code, map[string]string{"error": err.Error()})
		return
	}
	slog.Default().Error("internal server error",
		slog.String("status", http.StatusText(code)),
		slog.Int("code", code),
		slog.String("error", SanitizeError(err)))
	JSON(w, code, map[string]string{"error": "internal server error"})
}
