// Package extract is the client side of the document extraction service:
// it posts a PDF or an image to the parser server and turns the reply into a
// normalized partial trip record.
package extract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/normalize"
)

var (
	// ErrRequestFailed means the service could not be reached or answered
	// with something other than a JSON document.
	ErrRequestFailed = errors.New("extraction request failed")
	// ErrNoData means the service answered but nothing usable was in it.
	ErrNoData = errors.New("no trip data detected")
	// ErrUnsupportedType is returned by ParseFile for files that are neither
	// a PDF nor a JPEG/PNG image.
	ErrUnsupportedType = errors.New("unsupported file type")
)

// ServiceError is a non-2xx reply from the extraction service.
type ServiceError struct {
	Status  int
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("extraction service: %d: %s", e.Status, e.Message)
}

// Supported upload types.
const (
	MimePDF  = "application/pdf"
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
)

// Client calls POST {base}/parse and POST {base}/ocr.
type Client struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// New returns a Client for the service at baseURL. A nil httpClient gets a
// client with a 60s timeout; a nil logger uses slog.Default().
func New(baseURL string, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logger,
	}
}

type parseRequest struct {
	PDFBase64 string `json:"pdfBase64"`
	FileName  string `json:"fileName"`
}

type ocrRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
}

// ParsePDF sends a PDF document for extraction.
func (c *Client) ParsePDF(ctx context.Context, pdf []byte, fileName string) (domain.Partial, error) {
	p, err := c.post(ctx, "/parse", parseRequest{
		PDFBase64: base64.StdEncoding.EncodeToString(pdf),
		FileName:  fileName,
	})
	if err != nil {
		return domain.Partial{}, fmt.Errorf("extract.Client.ParsePDF: %w", err)
	}
	return p, nil
}

// ParseImage sends an image for OCR and extraction. An empty mimeType is
// sent as image/jpeg.
func (c *Client) ParseImage(ctx context.Context, img []byte, mimeType string) (domain.Partial, error) {
	if mimeType == "" {
		mimeType = MimeJPEG
	}
	p, err := c.post(ctx, "/ocr", ocrRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(img),
		MimeType:    mimeType,
	})
	if err != nil {
		return domain.Partial{}, fmt.Errorf("extract.Client.ParseImage: %w", err)
	}
	return p, nil
}

// ParseFile picks ParsePDF or ParseImage from the file's content type.
func (c *Client) ParseFile(ctx context.Context, name string, data []byte) (domain.Partial, error) {
	switch mt := DetectType(name, data); mt {
	case MimePDF:
		return c.ParsePDF(ctx, data, name)
	case MimeJPEG, MimePNG:
		return c.ParseImage(ctx, data, mt)
	default:
		return domain.Partial{}, fmt.Errorf("extract.Client.ParseFile: %w: %s", ErrUnsupportedType, mt)
	}
}

// DetectType sniffs the content type of an upload, falling back to the file
// extension when the content is not conclusive.
func DetectType(name string, data []byte) string {
	mt, _, _ := strings.Cut(http.DetectContentType(data), ";")
	switch mt {
	case MimePDF, MimeJPEG, MimePNG:
		return mt
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return MimePDF
	case ".jpg", ".jpeg":
		return MimeJPEG
	case ".png":
		return MimePNG
	}
	return mt
}

// IsImage reports whether mimeType is an image type the service can OCR.
func IsImage(mimeType string) bool {
	return mimeType == MimeJPEG || mimeType == MimePNG
}

func (c *Client) post(ctx context.Context, path string, body any) (domain.Partial, error) {
	reqID := uuid.New().String()
	start := time.Now()
	url := c.baseURL + path

	b, err := json.Marshal(body)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return domain.Partial{}, fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", reqID)

	c.log.Info("extract.request", "req_id", reqID, "url", url, "content_length", len(b))

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Error("extract.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return domain.Partial{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			c.log.Warn("extract.response_body_close_error", "req_id", reqID, "error", err)
		}
	}(resp.Body)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("%w: read response: %v", ErrRequestFailed, err)
	}

	c.log.Info("extract.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"mode", resp.Header.Get("X-Extraction-Mode"),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return domain.Partial{}, serviceError(resp.StatusCode, raw)
	}

	p, err := normalize.DecodePartial(raw)
	if err != nil {
		return domain.Partial{}, fmt.Errorf("%w: %v", ErrRequestFailed, err)
	}
	if p.IsEmpty() {
		return domain.Partial{}, ErrNoData
	}
	return p, nil
}

// serviceError builds the error for a non-2xx reply, preferring the server's
// {"error": "..."} message over the HTTP status text.
func serviceError(status int, raw []byte) *ServiceError {
	var body struct {
		Error string `json:"error"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		msg = body.Error
	}
	if msg == "" {
		msg = "extraction request failed"
	}
	return &ServiceError{Status: status, Message: msg}
}
