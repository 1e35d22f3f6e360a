// Package importer runs the client's import flows: a picked file or pasted
// text goes through extraction and is merged into the trip store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"regexp"
	"strings"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/extract"
	"github.com/pkordes/family-trip/internal/textscan"
)

var (
	// ErrEmptyInput is returned for blank pasted text or an empty file.
	ErrEmptyInput = errors.New("nothing to import")
	// ErrNoExtractor is returned for PDFs and images when no parser server is configured.
	ErrNoExtractor = errors.New("no parser server configured")
)

// Extractor turns a PDF or image into a partial trip record.
type Extractor interface {
	ParseFile(ctx context.Context, name string, data []byte) (domain.Partial, error)
}

// Target is where imported data ends up; *store.Store satisfies it.
type Target interface {
	Snapshot() domain.TripRecord
	MergeFromImport(ctx context.Context, p domain.Partial) error
	AddImportedImage(ctx context.Context, name string, data []byte) error
}

// Result describes what an import changed.
type Result struct {
	// Kind is "text", "pdf" or "image".
	Kind string
	// ImageSaved is set when the picked image was stored, which happens before
	// extraction and so survives an extraction failure.
	ImageSaved bool
	// Partial is what was merged. It is empty when extraction failed.
	Partial domain.Partial
}

// Importer is safe for concurrent use when its Target is.
type Importer struct {
	target    Target
	extractor Extractor
	log       *slog.Logger
}

// New returns an Importer. extractor may be nil, in which case only text
// imports work and images are saved without extraction.
func New(target Target, extractor Extractor, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{target: target, extractor: extractor, log: logger}
}

// ImportText scans pasted text (plain or HTML) for trip dates and family
// flight lines and merges what it finds. It returns extract.ErrNoData when
// nothing was recognised.
func (i *Importer) ImportText(ctx context.Context, text string) (Result, error) {
	content := cleanText(text)
	if content == "" {
		return Result{}, fmt.Errorf("importer.Importer.ImportText: %w", ErrEmptyInput)
	}

	p := textscan.Extract(content, i.target.Snapshot().Families)
	if p.IsEmpty() {
		return Result{Kind: "text"}, fmt.Errorf("importer.Importer.ImportText: %w", extract.ErrNoData)
	}
	if err := i.target.MergeFromImport(ctx, p); err != nil {
		return Result{Kind: "text"}, fmt.Errorf("importer.Importer.ImportText: %w", err)
	}
	i.log.Info("import.text", "chars", len(content), "families", len(p.Flights))
	return Result{Kind: "text", Partial: p}, nil
}

// ImportFile imports a picked file. Text files are scanned locally; PDFs and
// images go to the extraction service. An image is first saved to the trip so
// it is kept even when extraction fails.
func (i *Importer) ImportFile(ctx context.Context, name string, data []byte) (Result, error) {
	if len(data) == 0 {
		return Result{}, fmt.Errorf("importer.Importer.ImportFile: %w", ErrEmptyInput)
	}

	mt := extract.DetectType(name, data)
	switch {
	case extract.IsImage(mt):
		return i.importImage(ctx, name, data)
	case mt == extract.MimePDF:
		return i.importDocument(ctx, "pdf", name, data, Result{Kind: "pdf"})
	case strings.HasPrefix(mt, "text/"):
		return i.ImportText(ctx, string(data))
	default:
		return Result{}, fmt.Errorf("importer.Importer.ImportFile: %w: %s", extract.ErrUnsupportedType, mt)
	}
}

func (i *Importer) importImage(ctx context.Context, name string, data []byte) (Result, error) {
	res := Result{Kind: "image"}
	if err := i.target.AddImportedImage(ctx, name, data); err != nil {
		return res, fmt.Errorf("importer.Importer.ImportFile: save image: %w", err)
	}
	res.ImageSaved = true
	return i.importDocument(ctx, "image", name, data, res)
}

func (i *Importer) importDocument(ctx context.Context, kind, name string, data []byte, res Result) (Result, error) {
	if i.extractor == nil {
		return res, fmt.Errorf("importer.Importer.ImportFile: %w", ErrNoExtractor)
	}
	p, err := i.extractor.ParseFile(ctx, name, data)
	if err != nil {
		i.log.Warn("import.extract_failed", "kind", kind, "file", name, "error", err)
		return res, fmt.Errorf("importer.Importer.ImportFile: %w", err)
	}
	if err := i.target.MergeFromImport(ctx, p); err != nil {
		return res, fmt.Errorf("importer.Importer.ImportFile: %w", err)
	}
	i.log.Info("import.file", "kind", kind, "file", name, "bytes", len(data))
	res.Partial = p
	return res, nil
}

var (
	reBlockTag = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/tr|/li|/h[1-6])\b[^>]*>`)
	reTag      = regexp.MustCompile(`<[^>]+>`)
	reSpaces   = regexp.MustCompile(`[ \t\f\v]+`)
)

// cleanText turns pasted HTML into plain lines and squeezes runs of spaces.
// Line breaks are kept because family lines are matched one line at a time.
func cleanText(text string) string {
	if reTag.MatchString(text) {
		text = reBlockTag.ReplaceAllString(text, "\n")
		text = reTag.ReplaceAllString(text, " ")
		text = html.UnescapeString(text)
	}
	text = reSpaces.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
