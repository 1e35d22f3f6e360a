package middleware_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/family-trip/internal/middleware"
)

// drainBody stands in for the JSON handlers: it reads the whole body and
// reports a MaxBytesError as 413, like readBody in the handler package.
var drainBody = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	if _, err := io.ReadAll(r.Body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
})

func TestMaxBodySizeHandler(t *testing.T) {
	const limit = 64

	tests := []struct {
		name          string
		size          int
		contentLength int64 // -1 means streamed without a length
		wantStatus    int
		wantJSON      bool
	}{
		{name: "under limit", size: 32, contentLength: 32, wantStatus: http.StatusOK},
		{name: "exactly at limit", size: limit, contentLength: limit, wantStatus: http.StatusOK},
		{name: "declared length over limit", size: 128, contentLength: 128, wantStatus: http.StatusRequestEntityTooLarge, wantJSON: true},
		{name: "streamed body over limit", size: 128, contentLength: -1, wantStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := middleware.NewMaxBodySizeHandler(limit)(drainBody)

			req := httptest.NewRequest(http.MethodPost, "/api/parse", strings.NewReader(strings.Repeat("a", tc.size)))
			req.ContentLength = tc.contentLength
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			require.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantJSON {
				// Rejected up front by the middleware itself.
				assert.JSONEq(t, `{"error":"Request body too large"}`, rec.Body.String())
			}
		})
	}
}
