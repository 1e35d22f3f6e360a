// Package pdftext extracts the text layer of a PDF with poppler's pdftotext.
package pdftext

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"
)

// ErrUnreadable means pdftotext could not read the document: it is
// corrupted, encrypted, or not a PDF.
var ErrUnreadable = errors.New("could not read the PDF")

// Runner lets tests stub the external command.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct {
	Log *slog.Logger
}

func (r ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	log := r.Log
	if log == nil {
		log = slog.Default()
	}
	start := time.Now()

	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb

	err := cmd.Run()
	if err != nil {
		log.Error("pdftext.exec_failed",
			"cmd", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"error", err,
			"stderr", truncate(errb.String(), 8<<10),
		)
	} else {
		log.Debug("pdftext.exec_ok",
			"cmd", name,
			"duration_ms", time.Since(start).Milliseconds(),
			"stdout_bytes", out.Len(),
		)
	}
	return out.Bytes(), errb.Bytes(), err
}

// Extractor converts PDF bytes to plain text.
type Extractor struct {
	bin    string
	runner Runner
}

// New returns an Extractor that runs bin (default "pdftotext") through runner
// (default ExecRunner).
func New(bin string, runner Runner) *Extractor {
	if bin == "" {
		bin = "pdftotext"
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Extractor{bin: bin, runner: runner}
}

// Text returns the text of pdf with layout preserved and pages separated by
// form feeds. Text from an image-only PDF is empty, not an error.
func (e *Extractor) Text(ctx context.Context, pdf []byte) (string, error) {
	f, err := os.CreateTemp("", "trip-*.pdf")
	if err != nil {
		return "", fmt.Errorf("pdftext.Extractor.Text: %w", err)
	}
	defer os.Remove(f.Name())

	_, werr := f.Write(pdf)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", fmt.Errorf("pdftext.Extractor.Text: %w", werr)
	}

	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.bin, "-layout", "-enc", "UTF-8", "-eol", "unix", f.Name(), "-")
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("pdftext.Extractor.Text: %w: %s", ErrUnreadable, strings.TrimSpace(string(errb)))
		}
		return "", fmt.Errorf("pdftext.Extractor.Text: %w", err)
	}
	return string(out), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "...(truncated)"
}
