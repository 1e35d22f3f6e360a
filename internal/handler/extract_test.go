package handler_test

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/handler"
	"github.com/pkordes/family-trip/internal/llm"
	"github.com/pkordes/family-trip/internal/pdftext"
	"github.com/pkordes/family-trip/internal/service"
)

type mockExtractServicer struct {
	parsePDF   func(ctx context.Context, pdf []byte) (service.Extraction, error)
	parseImage func(ctx context.Context, imageBase64, mimeType string) (service.Extraction, error)
}

func (m *mockExtractServicer) ParsePDF(ctx context.Context, pdf []byte) (service.Extraction, error) {
	return m.parsePDF(ctx, pdf)
}
func (m *mockExtractServicer) ParseImage(ctx context.Context, imageBase64, mimeType string) (service.Extraction, error) {
	return m.parseImage(ctx, imageBase64, mimeType)
}

var _ handler.ExtractServicer = (*mockExtractServicer)(nil)

// ---- helpers ---------------------------------------------------------------

func newExtractHTTPHandler(svc handler.ExtractServicer, perMinute int) http.Handler {
	return handler.NewServer(nil, svc, nil, nil).Router(handler.RouterOptions{ExtractPerMinute: perMinute})
}

func pdfFailing(err error) *mockExtractServicer {
	return &mockExtractServicer{
		parsePDF: func(context.Context, []byte) (service.Extraction, error) { return service.Extraction{}, err },
	}
}

var samplePDF = base64.StdEncoding.EncodeToString([]byte("%PDF-1.4 sample"))

// ---- POST /parse -----------------------------------------------------------

func TestPostParse_200_Heuristic(t *testing.T) {
	svc := &mockExtractServicer{
		parsePDF: func(_ context.Context, pdf []byte) (service.Extraction, error) {
			assert.Equal(t, "%PDF-1.4 sample", string(pdf))
			return service.Extraction{
				Partial: domain.Partial{TripStartDate: domain.String("2026-07-10")},
				Mode:    service.ModeHeuristic,
			}, nil
		},
	}

	for _, path := range []string{"/parse", "/api/parse"} {
		t.Run(path, func(t *testing.T) {
			rec := serve(newExtractHTTPHandler(svc, 0), http.MethodPost, path,
				`{"pdfBase64":"`+samplePDF+`","fileName":"itinerary.pdf"}`)

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "heuristic", rec.Header().Get("X-Extraction-Mode"))
			assert.JSONEq(t, `{"tripStartDate":"2026-07-10"}`, rec.Body.String())
		})
	}
}

func TestPostParse_AcceptsDataURL(t *testing.T) {
	svc := &mockExtractServicer{
		parsePDF: func(_ context.Context, pdf []byte) (service.Extraction, error) {
			assert.Equal(t, "%PDF-1.4 sample", string(pdf))
			return service.Extraction{Mode: service.ModeLLM}, nil
		},
	}

	rec := serve(newExtractHTTPHandler(svc, 0), http.MethodPost, "/parse",
		`{"pdfBase64":"data:application/pdf;base64,`+samplePDF+`"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPostParse_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"bad json", `{`, nil, http.StatusBadRequest, "Invalid JSON body"},
		{"missing pdf", `{}`, nil, http.StatusBadRequest, "Missing pdfBase64 in body"},
		{"bad base64", `{"pdfBase64":"%%%"}`, nil, http.StatusBadRequest, "Invalid base64 in PDF data."},
		{
			"unreadable", "", fmt.Errorf("svc: %w", fmt.Errorf("pdftext: %w: bad xref", pdftext.ErrUnreadable)),
			http.StatusBadRequest, "Could not read the PDF. It may be corrupted, password-protected, or image-only (scanned). Try exporting as text or copying the text into the paste box.",
		},
		{
			"no text", "", fmt.Errorf("svc: %w", service.ErrNoPDFText),
			http.StatusBadRequest, "No text could be extracted from the PDF (maybe scanned images?). Try pasting the text or using an image of the page with Import.",
		},
		{
			"bad key", "", fmt.Errorf("svc: %w", &llm.APIError{Status: 401, Body: "nope"}),
			http.StatusInternalServerError, "Invalid or missing OPENAI_API_KEY. Check your server environment.",
		},
		{
			"model failure", "", fmt.Errorf("service.ExtractionService.ParsePDF: %w", errors.New("schema validation failed")),
			http.StatusInternalServerError, "Extraction failed: schema validation failed",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := tt.body
			if body == "" {
				body = `{"pdfBase64":"` + samplePDF + `"}`
			}
			rec := serve(newExtractHTTPHandler(pdfFailing(tt.err), 0), http.MethodPost, "/parse", body)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.msg), rec.Body.String())
		})
	}
}

// ---- POST /ocr -------------------------------------------------------------

func TestPostOCR_200(t *testing.T) {
	svc := &mockExtractServicer{
		parseImage: func(_ context.Context, b64, mime string) (service.Extraction, error) {
			assert.Equal(t, "aGVsbG8=", b64)
			assert.Equal(t, "image/jpeg", mime)
			return service.Extraction{
				Partial: domain.Partial{GettingAround: domain.String("bus")},
				Mode:    service.ModeLLM,
			}, nil
		},
	}

	rec := serve(newExtractHTTPHandler(svc, 0), http.MethodPost, "/api/ocr", `{"imageBase64":"aGVsbG8="}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "llm", rec.Header().Get("X-Extraction-Mode"))
	assert.JSONEq(t, `{"gettingAround":"bus"}`, rec.Body.String())
}

func TestPostOCR_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		msg    string
	}{
		{"missing image", `{"mimeType":"image/png"}`, nil, http.StatusBadRequest, "Missing imageBase64 in body"},
		{"no model", `{"imageBase64":"aGk="}`, service.ErrExtractionUnavailable, http.StatusServiceUnavailable, "OPENAI_API_KEY is required to extract text from images."},
		{"no text", `{"imageBase64":"aGk="}`, service.ErrNoImageText, http.StatusBadRequest, "No text could be extracted from the image."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockExtractServicer{
				parseImage: func(context.Context, string, string) (service.Extraction, error) {
					return service.Extraction{}, fmt.Errorf("svc: %w", tt.err)
				},
			}
			rec := serve(newExtractHTTPHandler(svc, 0), http.MethodPost, "/ocr", tt.body)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.msg), rec.Body.String())
		})
	}
}

// ---- rate limit ------------------------------------------------------------

func TestExtractRoutes_RateLimited(t *testing.T) {
	svc := &mockExtractServicer{
		parseImage: func(context.Context, string, string) (service.Extraction, error) {
			return service.Extraction{Mode: service.ModeLLM}, nil
		},
	}
	h := newExtractHTTPHandler(svc, 2)

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, serve(h, http.MethodPost, "/ocr", `{"imageBase64":"aGk="}`).Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
