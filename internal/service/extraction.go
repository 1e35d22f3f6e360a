package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/normalize"
	"github.com/pkordes/family-trip/internal/textscan"
)

// Extraction modes, reported to clients in the X-Extraction-Mode header.
const (
	ModeLLM       = "llm"
	ModeHeuristic = "heuristic"
)

var (
	// ErrExtractionUnavailable means the operation needs the language model
	// and none is configured.
	ErrExtractionUnavailable = errors.New("extraction model not configured")

	// ErrNoPDFText means the PDF was readable but held no text layer.
	ErrNoPDFText = errors.New("no text in PDF")

	// ErrNoImageText means the vision model found no text in the image.
	ErrNoImageText = errors.New("no text in image")
)

// TripExtractor is the language model collaborator. *llm.Client satisfies it.
type TripExtractor interface {
	ExtractTrip(ctx context.Context, text string, families []domain.Family) ([]byte, error)
	ImageText(ctx context.Context, imageBase64, mimeType string) (string, error)
}

// PDFTexter turns PDF bytes into plain text. *pdftext.Extractor satisfies it.
type PDFTexter interface {
	Text(ctx context.Context, pdf []byte) (string, error)
}

// Extraction is the structured result of one document.
type Extraction struct {
	Partial domain.Partial
	Mode    string
}

// ExtractionService turns uploaded documents into partial trips.
type ExtractionService struct {
	llm      TripExtractor
	pdf      PDFTexter
	families []domain.Family
	obs      Observer
	log      *slog.Logger
}

// NewExtractionService wires the collaborators. model may be nil, in which
// case text is scanned heuristically and images are refused.
func NewExtractionService(model TripExtractor, pdf PDFTexter, families []domain.Family, obs Observer, logger *slog.Logger) *ExtractionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExtractionService{
		llm:      model,
		pdf:      pdf,
		families: domain.CloneFamilies(families),
		obs:      observerOrNop(obs),
		log:      logger,
	}
}

// ModelConfigured reports whether a language model is available.
func (s *ExtractionService) ModelConfigured() bool {
	return s.llm != nil
}

// ParsePDF extracts the text layer of pdf and parses it.
func (s *ExtractionService) ParsePDF(ctx context.Context, pdf []byte) (Extraction, error) {
	text, err := s.pdf.Text(ctx, pdf)
	if err != nil {
		s.obs.ObserveExtraction("pdf", s.mode(), err)
		return Extraction{}, fmt.Errorf("service.ExtractionService.ParsePDF: %w", err)
	}
	if strings.TrimSpace(text) == "" {
		s.obs.ObserveExtraction("pdf", s.mode(), ErrNoPDFText)
		return Extraction{}, fmt.Errorf("service.ExtractionService.ParsePDF: %w", ErrNoPDFText)
	}

	ex, err := s.parseText(ctx, text)
	s.obs.ObserveExtraction("pdf", s.mode(), err)
	if err != nil {
		return Extraction{}, fmt.Errorf("service.ExtractionService.ParsePDF: %w", err)
	}
	return ex, nil
}

// ParseImage reads the text in an image with the vision model and parses it.
func (s *ExtractionService) ParseImage(ctx context.Context, imageBase64, mimeType string) (Extraction, error) {
	if s.llm == nil {
		return Extraction{}, fmt.Errorf("service.ExtractionService.ParseImage: %w", ErrExtractionUnavailable)
	}

	text, err := s.llm.ImageText(ctx, imageBase64, mimeType)
	if err == nil && strings.TrimSpace(text) == "" {
		err = ErrNoImageText
	}
	if err != nil {
		s.obs.ObserveExtraction("image", ModeLLM, err)
		return Extraction{}, fmt.Errorf("service.ExtractionService.ParseImage: %w", err)
	}

	ex, err := s.parseText(ctx, text)
	s.obs.ObserveExtraction("image", ModeLLM, err)
	if err != nil {
		return Extraction{}, fmt.Errorf("service.ExtractionService.ParseImage: %w", err)
	}
	return ex, nil
}

func (s *ExtractionService) parseText(ctx context.Context, text string) (Extraction, error) {
	if s.llm == nil {
		p := textscan.Extract(text, s.families)
		s.log.Info("extract.heuristic", "text_len", len(text), "empty", p.IsEmpty())
		return Extraction{Partial: p, Mode: ModeHeuristic}, nil
	}

	raw, err := s.llm.ExtractTrip(ctx, text, s.families)
	if err != nil {
		return Extraction{}, err
	}
	p, err := normalize.DecodePartial(raw)
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{Partial: p, Mode: ModeLLM}, nil
}

func (s *ExtractionService) mode() string {
	if s.llm == nil {
		return ModeHeuristic
	}
	return ModeLLM
}
