// Package responsewriter records what a handler wrote so middleware can log
// and measure it after the fact.
package responsewriter

import "net/http"

// ResponseWriter remembers the status code and body size of a response.
type ResponseWriter struct {
	http.ResponseWriter
	status  int
	written int
	sent    bool
}

// Wrap returns a recorder around w. The status reads 200 until the handler
// says otherwise.
func Wrap(w http.ResponseWriter) *ResponseWriter {
	return &ResponseWriter{ResponseWriter: w, status: http.StatusOK}
}

// WriteHeader forwards the first status code and drops the rest.
func (w *ResponseWriter) WriteHeader(code int) {
	if w.sent {
		return
	}
	w.status, w.sent = code, true
	w.ResponseWriter.WriteHeader(code)
}

func (w *ResponseWriter) Write(b []byte) (int, error) {
	if !w.sent {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.written += n
	return n, err
}

// Flush forwards to the underlying writer when it supports flushing.
func (w *ResponseWriter) Flush() {
	if !w.sent {
		w.WriteHeader(http.StatusOK)
	}
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *ResponseWriter) StatusCode() int   { return w.status }
func (w *ResponseWriter) BytesWritten() int { return w.written }

// HeaderSent reports whether the status line has gone out.
func (w *ResponseWriter) HeaderSent() bool { return w.sent }

// Unwrap lets http.ResponseController reach the wrapped writer.
func (w *ResponseWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }
