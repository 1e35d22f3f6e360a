package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/family-trip/internal/domain"
)

// tripPath is the trip document resource on the API server.
const tripPath = "/api/trip"

// RemoteError is a non-2xx reply from the API server.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("server replied %d: %s", e.Status, e.Message)
}

// remoteError prefers the server's {"error"} or {"message"} text over the
// HTTP status text.
func remoteError(status int, raw []byte) *RemoteError {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	msg := http.StatusText(status)
	if json.Unmarshal(raw, &body) == nil {
		switch {
		case body.Error != "":
			msg = body.Error
		case body.Message != "":
			msg = body.Message
		}
	}
	return &RemoteError{Status: status, Message: msg}
}

// HTTPRemote is a Remote backed by GET/PUT {base}/api/trip.
type HTTPRemote struct {
	baseURL string
	http    *http.Client
	log     *slog.Logger
}

// NewHTTPRemote returns an HTTPRemote for the API server at baseURL.
func NewHTTPRemote(baseURL string, httpClient *http.Client, logger *slog.Logger) *HTTPRemote {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPRemote{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient, log: logger}
}

// Load fetches the stored trip document. A 404 means nothing has been saved
// yet and is reported as domain.ErrNotFound.
func (r *HTTPRemote) Load(ctx context.Context) ([]byte, error) {
	body, status, err := r.do(ctx, http.MethodGet, nil)
	if err != nil {
		return nil, fmt.Errorf("store.HTTPRemote.Load: %w", err)
	}
	switch {
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("store.HTTPRemote.Load: %w", domain.ErrNotFound)
	case status/100 != 2:
		return nil, fmt.Errorf("store.HTTPRemote.Load: %w", remoteError(status, body))
	}
	return body, nil
}

// Save replaces the stored trip document with doc.
func (r *HTTPRemote) Save(ctx context.Context, doc []byte) error {
	body, status, err := r.do(ctx, http.MethodPut, doc)
	if err != nil {
		return fmt.Errorf("store.HTTPRemote.Save: %w", err)
	}
	if status/100 != 2 {
		return fmt.Errorf("store.HTTPRemote.Save: %w", remoteError(status, body))
	}
	return nil
}

func (r *HTTPRemote) do(ctx context.Context, method string, body []byte) ([]byte, int, error) {
	reqID := uuid.New().String()
	start := time.Now()

	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.baseURL+tripPath, rd)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("X-Request-ID", reqID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := r.http.Do(req)
	if err != nil {
		r.log.Warn("store.remote.send_error", "req_id", reqID, "method", method, "error", err)
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	r.log.Debug("store.remote.response",
		"req_id", reqID,
		"method", method,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return raw, resp.StatusCode, nil
}
