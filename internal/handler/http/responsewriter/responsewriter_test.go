package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseWriter_Records(t *testing.T) {
	tests := []struct {
		name       string
		handler    http.HandlerFunc
		wantStatus int
		wantBytes  int
	}{
		{
			name:       "implicit 200",
			handler:    func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("hello")) },
			wantStatus: http.StatusOK,
			wantBytes:  5,
		},
		{
			name: "explicit status and several writes",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				_, _ = w.Write([]byte(`{"status":`))
				_, _ = w.Write([]byte(`"refresh scheduled"}`))
			},
			wantStatus: http.StatusAccepted,
			wantBytes:  30,
		},
		{
			name: "second WriteHeader ignored",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
				w.WriteHeader(http.StatusInternalServerError)
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "nothing written",
			handler:    func(w http.ResponseWriter, r *http.Request) {},
			wantStatus: http.StatusOK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			rw := Wrap(rec)
			tt.handler(rw, httptest.NewRequest(http.MethodGet, "/feed", nil))

			assert.Equal(t, tt.wantStatus, rw.StatusCode())
			assert.Equal(t, tt.wantBytes, rw.BytesWritten())
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestResponseWriter_HeaderSent(t *testing.T) {
	rw := Wrap(httptest.NewRecorder())
	assert.False(t, rw.HeaderSent())
	_, _ = rw.Write([]byte("x"))
	assert.True(t, rw.HeaderSent())
}

func TestResponseWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)
	rw.Flush()

	assert.True(t, rec.Flushed)
	assert.True(t, rw.HeaderSent())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Same(t, rec, Wrap(rec).Unwrap())
}
