package respond

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"postlabor-feed/internal/domain/entity"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name           string
		code           int
		data           any
		expectedCode   int
		expectedBody   string
		expectedHeader string
	}{
		{
			name:           "success with map",
			code:           http.StatusOK,
			data:           map[string]string{"message": "success"},
			expectedCode:   http.StatusOK,
			expectedBody:   `{"message":"success"}`,
			expectedHeader: "application/json",
		},
		{
			name:           "success with struct",
			code:           http.StatusCreated,
			data:           struct{ ID int }{ID: 123},
			expectedCode:   http.StatusCreated,
			expectedBody:   `{"ID":123}`,
			expectedHeader: "application/json",
		},
		{
			name:           "success with nil",
			code:           http.StatusNoContent,
			data:           nil,
			expectedCode:   http.StatusNoContent,
			expectedBody:   "",
			expectedHeader: "application/json",
		},
		{
			name:           "error status",
			code:           http.StatusBadRequest,
			data:           map[string]string{"error": "bad request"},
			expectedCode:   http.StatusBadRequest,
			expectedBody:   `{"error":"bad request"}`,
			expectedHeader: "application/json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)

			if w.Code != tt.expectedCode {
				t.Errorf("Code = %v, want %v", w.Code, tt.expectedCode)
			}

			if ct := w.Header().Get("Content-Type"); ct != tt.expectedHeader {
				t.Errorf("Content-Type = %v, want %v", ct, tt.expectedHeader)
			}

			body := strings.TrimSpace(w.Body.String())
			if tt.expectedBody != "" && body != tt.expectedBody {
				t.Errorf("Body = %v, want %v", body, tt.expectedBody)
			}
		})
	}
}

func TestJSON_EncodingError(t *testing.T) {
	// Create a value that cannot be JSON-encoded
	invalidData := make(chan int)

	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, invalidData)

	// Should still set headers and status code
	if w.Code != http.StatusOK {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusOK)
	}

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %v, want %v", ct, "application/json")
	}
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name        string
		code        int
		err         error
		expectedMsg string
	}{
		{
			name:        "invalid id",
			code:        http.StatusBadRequest,
			err:         errors.New("invalid id"),
			expectedMsg: "invalid id",
		},
		{
			name:        "wrapped not found sentinel",
			code:        http.StatusNotFound,
			err:         fmt.Errorf("item 7: %w", entity.ErrNotFound),
			expectedMsg: "item 7: entity not found",
		},
		{
			name:        "validation error",
			code:        http.StatusBadRequest,
			err:         &entity.ValidationError{Field: "id", Message: "must be positive"},
			expectedMsg: (&entity.ValidationError{Field: "id", Message: "must be positive"}).Error(),
		},
		{
			name:        "rate limited",
			code:        http.StatusTooManyRequests,
			err:         errors.New("too many requests"),
			expectedMsg: "too many requests",
		},
		{
			name:        "upstream failure",
			code:        http.StatusBadGateway,
			err:         errors.New("research backend returned status 503"),
			expectedMsg: "internal server error",
		},
		{
			name:        "5xx is never safe",
			code:        http.StatusInternalServerError,
			err:         errors.New("webhook url is invalid: https://discord.com/api/webhooks/1/secret"),
			expectedMsg: "internal server error",
		},
		{
			name:        "unknown 4xx error",
			code:        http.StatusConflict,
			err:         errors.New("boom"),
			expectedMsg: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)

			if w.Code != tt.code {
				t.Errorf("Code = %v, want %v", w.Code, tt.code)
			}

			var body map[string]string
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("Failed to decode response: %v", err)
			}
			if body["error"] != tt.expectedMsg {
				t.Errorf("Error message = %v, want %v", body["error"], tt.expectedMsg)
			}
			if strings.Contains(w.Body.String(), "secret") {
				t.Errorf("response leaked secret: %s", w.Body.String())
			}
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, nil)
	if w.Body.Len() != 0 {
		t.Errorf("Expected no body for nil error, but got: %v", w.Body.String())
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusServiceUnavailable, errors.New("feed not ready"))

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Code = %v, want %v", w.Code, http.StatusServiceUnavailable)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if body["error"] != "feed not ready" {
		t.Errorf("Error message = %v, want %v", body["error"], "feed not ready")
	}
}
