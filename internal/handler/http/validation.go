package http

import (
	"net/http"

	"postlabor-feed/internal/handler/http/respond"
)

const (
	maxPathLength  = 2048
	maxQueryLength = 2048
	// The status API takes no request bodies.
	maxBodyBytes = 1 << 10
)

// InputValidation rejects oversized paths and query strings and caps the
// request body.
func InputValidation() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(r.URL.Path) > maxPathLength {
				respond.JSON(w, http.StatusRequestURITooLong, map[string]string{"error": "URI too long"})
				return
			}
			if len(r.URL.RawQuery) > maxQueryLength {
				respond.JSON(w, http.StatusRequestURITooLong, map[string]string{"error": "query too long"})
				return
			}
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
			next.ServeHTTP(w, r)
		})
	}
}
