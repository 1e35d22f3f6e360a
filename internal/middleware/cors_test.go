package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/family-trip/internal/middleware"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSHandler(t *testing.T) {
	const web = "http://localhost:5173"

	tests := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		preflight  string // Access-Control-Request-Method, empty for a simple request
		reqHeaders string
		wantOrigin string
	}{
		{
			name:       "simple GET from configured origin",
			allowed:    []string{web},
			method:     http.MethodGet,
			origin:     web,
			wantOrigin: web,
		},
		{
			name:       "simple GET from unknown origin gets no header",
			allowed:    []string{web},
			method:     http.MethodGet,
			origin:     "http://elsewhere.example",
			wantOrigin: "",
		},
		{
			// Browsers send request header names lowercased.
			name:       "JSON POST preflight from configured origin",
			allowed:    []string{web},
			method:     http.MethodOptions,
			origin:     web,
			preflight:  http.MethodPost,
			reqHeaders: "content-type",
			wantOrigin: web,
		},
		{
			name:       "PATCH preflight with no configured origins",
			allowed:    nil,
			method:     http.MethodOptions,
			origin:     "http://phone.local:8081",
			preflight:  http.MethodPatch,
			wantOrigin: "*",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.NewCORSHandler(tc.allowed)(okHandler)

			req := httptest.NewRequest(tc.method, "/api/trip", nil)
			req.Header.Set("Origin", tc.origin)
			if tc.preflight != "" {
				req.Header.Set("Access-Control-Request-Method", tc.preflight)
			}
			if tc.reqHeaders != "" {
				req.Header.Set("Access-Control-Request-Headers", tc.reqHeaders)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			if tc.preflight != "" {
				assert.Less(t, rec.Code, 300, "preflight status")
				assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), tc.preflight)
			}
		})
	}
}

func TestCORSHandler_ExposesExtractionMode(t *testing.T) {
	h := middleware.NewCORSHandler(nil)(okHandler)

	req := httptest.NewRequest(http.MethodPost, "/api/parse", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Contains(t, rec.Header().Get("Access-Control-Expose-Headers"), "X-Extraction-Mode")
}
