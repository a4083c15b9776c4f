package http

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"
)

// Timeout answers 504 when the handler has not written a response within
// d. The request context is canceled at the same moment so the handler
// can stop early. Writes after the deadline fail with
// http.ErrHandlerTimeout.
func Timeout(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			tw := &timeoutWriter{ResponseWriter: w, ctx: ctx}
			done := make(chan struct{})
			go func() {
				defer close(done)
				next.ServeHTTP(tw, r.WithContext(ctx))
			}()

			select {
			case <-done:
			case <-ctx.Done():
			}

			tw.mu.Lock()
			defer tw.mu.Unlock()
			if errors.Is(ctx.Err(), context.DeadlineExceeded) && !tw.wroteHeader {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusGatewayTimeout)
				_, _ = w.Write([]byte(`{"error":"request timeout"}` + "\n"))
				tw.wroteHeader = true
			}
		})
	}
}

type timeoutWriter struct {
	http.ResponseWriter

	ctx         context.Context
	mu          sync.Mutex
	wroteHeader bool
}

// expired reports whether the request context ended. Callers hold mu.
func (w *timeoutWriter) expired() bool {
	return w.ctx.Err() != nil
}

func (w *timeoutWriter) WriteHeader(code int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.wroteHeader || w.expired() {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *timeoutWriter) Write(b []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.expired() {
		return 0, http.ErrHandlerTimeout
	}
	if !w.wroteHeader {
		w.wroteHeader = true
		w.ResponseWriter.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}
