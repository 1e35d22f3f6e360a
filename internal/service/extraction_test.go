package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/service"
)

type mockTripExtractor struct {
	extractTrip func(ctx context.Context, text string, families []domain.Family) ([]byte, error)
	imageText   func(ctx context.Context, imageBase64, mimeType string) (string, error)
}

func (m *mockTripExtractor) ExtractTrip(ctx context.Context, text string, families []domain.Family) ([]byte, error) {
	return m.extractTrip(ctx, text, families)
}
func (m *mockTripExtractor) ImageText(ctx context.Context, imageBase64, mimeType string) (string, error) {
	return m.imageText(ctx, imageBase64, mimeType)
}

var _ service.TripExtractor = (*mockTripExtractor)(nil)

type mockPDFTexter struct {
	text func(ctx context.Context, pdf []byte) (string, error)
}

func (m *mockPDFTexter) Text(ctx context.Context, pdf []byte) (string, error) {
	return m.text(ctx, pdf)
}

var _ service.PDFTexter = (*mockPDFTexter)(nil)

// ---- helpers ---------------------------------------------------------------

func pdfReturning(text string, err error) *mockPDFTexter {
	return &mockPDFTexter{text: func(context.Context, []byte) (string, error) { return text, err }}
}

const itinerary = "Trip 2026-07-10 to 2026-07-20\nSmith flight AA100 departs JFK\n"

// ---- ParsePDF --------------------------------------------------------------

func TestExtractionService_ParsePDF_HeuristicWithoutModel(t *testing.T) {
	obs := &mockObserver{}
	svc := service.NewExtractionService(nil, pdfReturning(itinerary, nil), families(), obs, nil)

	ex, err := svc.ParsePDF(context.Background(), []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, service.ModeHeuristic, ex.Mode)
	require.NotNil(t, ex.Partial.TripStartDate)
	assert.Equal(t, "2026-07-10", *ex.Partial.TripStartDate)
	assert.Equal(t, "2026-07-20", *ex.Partial.TripEndDate)
	assert.Contains(t, ex.Partial.Flights, "smith")
	assert.Equal(t, []string{"pdf/heuristic/ok"}, obs.extractions)
	assert.False(t, svc.ModelConfigured())
}

func TestExtractionService_ParsePDF_WithModel(t *testing.T) {
	var gotText string
	model := &mockTripExtractor{
		extractTrip: func(_ context.Context, text string, fs []domain.Family) ([]byte, error) {
			gotText = text
			assert.Len(t, fs, 2)
			return []byte(`{"tripStartDate":"2026-07-09","gettingAround":"rental car"}`), nil
		},
	}
	svc := service.NewExtractionService(model, pdfReturning(itinerary, nil), families(), nil, nil)

	ex, err := svc.ParsePDF(context.Background(), []byte("%PDF"))

	require.NoError(t, err)
	assert.Equal(t, itinerary, gotText)
	assert.Equal(t, service.ModeLLM, ex.Mode)
	assert.Equal(t, "2026-07-09", *ex.Partial.TripStartDate)
	assert.Equal(t, "rental car", *ex.Partial.GettingAround)
	assert.True(t, svc.ModelConfigured())
}

func TestExtractionService_ParsePDF_Unreadable(t *testing.T) {
	boom := errors.New("pdftotext exit 1")
	obs := &mockObserver{}
	svc := service.NewExtractionService(nil, pdfReturning("", boom), families(), obs, nil)

	_, err := svc.ParsePDF(context.Background(), []byte("junk"))

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"pdf/heuristic/error"}, obs.extractions)
}

func TestExtractionService_ParsePDF_NoText(t *testing.T) {
	svc := service.NewExtractionService(nil, pdfReturning(" \n\f ", nil), families(), nil, nil)
	_, err := svc.ParsePDF(context.Background(), []byte("%PDF"))
	assert.ErrorIs(t, err, service.ErrNoPDFText)
}

func TestExtractionService_ParsePDF_ModelError(t *testing.T) {
	boom := errors.New("openai status 401")
	model := &mockTripExtractor{
		extractTrip: func(context.Context, string, []domain.Family) ([]byte, error) { return nil, boom },
	}
	svc := service.NewExtractionService(model, pdfReturning(itinerary, nil), families(), nil, nil)

	_, err := svc.ParsePDF(context.Background(), []byte("%PDF"))
	assert.ErrorIs(t, err, boom)
}

// ---- ParseImage ------------------------------------------------------------

func TestExtractionService_ParseImage_RequiresModel(t *testing.T) {
	svc := service.NewExtractionService(nil, pdfReturning("", nil), families(), nil, nil)
	_, err := svc.ParseImage(context.Background(), "aGVsbG8=", "image/png")
	assert.ErrorIs(t, err, service.ErrExtractionUnavailable)
}

func TestExtractionService_ParseImage_NoText(t *testing.T) {
	model := &mockTripExtractor{
		imageText: func(context.Context, string, string) (string, error) { return "", nil },
	}
	obs := &mockObserver{}
	svc := service.NewExtractionService(model, nil, families(), obs, nil)

	_, err := svc.ParseImage(context.Background(), "aGVsbG8=", "image/png")

	assert.ErrorIs(t, err, service.ErrNoImageText)
	assert.Equal(t, []string{"image/llm/error"}, obs.extractions)
}

func TestExtractionService_ParseImage_ParsesVisionText(t *testing.T) {
	model := &mockTripExtractor{
		imageText: func(_ context.Context, b64, mime string) (string, error) {
			assert.Equal(t, "aGVsbG8=", b64)
			assert.Equal(t, "image/png", mime)
			return "Hotel check-in 2026-07-11", nil
		},
		extractTrip: func(_ context.Context, text string, _ []domain.Family) ([]byte, error) {
			assert.Equal(t, "Hotel check-in 2026-07-11", text)
			return []byte(`{"accommodations":{"all":[{"checkIn":"2026-07-11","details":"Oia"}]}}`), nil
		},
	}
	svc := service.NewExtractionService(model, nil, families(), nil, nil)

	ex, err := svc.ParseImage(context.Background(), "aGVsbG8=", "image/png")

	require.NoError(t, err)
	assert.Equal(t, service.ModeLLM, ex.Mode)
	assert.Equal(t, "Oia", ex.Partial.Accommodations[domain.AllFamilies][0].Details)
}
