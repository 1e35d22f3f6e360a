// Package llm talks to an OpenAI-compatible chat completions API to pull
// trip data out of document text and to read the text in an image.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pkordes/family-trip/internal/domain"
)

// ErrEmptyResponse means the API answered without any message content.
var ErrEmptyResponse = errors.New("no response from OpenAI")

// Config for the Client.
type Config struct {
	APIKey      string
	BaseURL     string        // default https://api.openai.com/v1
	Model       string        // default gpt-4o-mini
	Temperature float32       // used for JSON extraction
	Timeout     time.Duration // http client timeout, default 45s
	// MaxTextChars bounds the document text sent for extraction.
	MaxTextChars int
}

// Client implements trip extraction and image text reading.
type Client struct {
	cfg  Config
	http *http.Client
	log  *slog.Logger
}

// NewClient fills in Config defaults and returns a Client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 45 * time.Second
	}
	if cfg.MaxTextChars <= 0 {
		cfg.MaxTextChars = 12000
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger,
	}
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractTrip asks the model for the trip data in text and returns a JSON
// object that validates against BuildTripJSONSchema. A reply that does not
// validate is sanitized once and re-validated.
func (c *Client) ExtractTrip(ctx context.Context, text string, families []domain.Family) ([]byte, error) {
	rid := uuid.New().String()
	start := time.Now()
	ids := domain.FamilyIDs(families)

	c.log.Info("llm.extract.start", "req_id", rid, "model", c.cfg.Model, "text_len", len(text), "families", len(ids))

	if len(text) > c.cfg.MaxTextChars {
		text = text[:c.cfg.MaxTextChars]
	}
	schema := BuildTripJSONSchema(ids)
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(families)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
			{"role": "user", "content": "Extract trip data from this text:\n\n" + text},
		},
	}

	content, err := c.complete(ctx, body)
	if err != nil {
		c.log.Error("llm.extract.failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	raw := []byte(content)

	if err := ValidateJSONAgainstSchema(schema, raw); err != nil {
		cleaned, dropped, sErr := SanitizeTripJSON(raw, ids)
		if sErr != nil {
			c.log.Error("llm.extract.sanitize_failed", "req_id", rid, "error", sErr)
			return nil, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateJSONAgainstSchema(schema, cleaned); vErr != nil {
			c.log.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", vErr, "content", content)
			return nil, fmt.Errorf("schema validation failed: %w", vErr)
		}
		c.log.Warn("llm.extract.lenient_sanitize_applied", "req_id", rid, "dropped", dropped)
		raw = cleaned
	} else if cleaned, dropped, sErr := SanitizeTripJSON(raw, ids); sErr == nil {
		if len(dropped) > 0 {
			c.log.Debug("llm.extract.blank_fields_dropped", "req_id", rid, "dropped", dropped)
		}
		raw = cleaned
	}

	c.log.Info("llm.extract.ok", "req_id", rid, "bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds())
	return raw, nil
}

// ImageText returns all text visible in the image, or "" when the model
// reports there is none.
func (c *Client) ImageText(ctx context.Context, imageBase64, mimeType string) (string, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	body := map[string]any{
		"model":      c.cfg.Model,
		"max_tokens": 4096,
		"messages": []map[string]any{{
			"role": "user",
			"content": []map[string]any{
				{"type": "text", "text": visionPrompt},
				{"type": "image_url", "image_url": map[string]any{
					"url": "data:" + mimeType + ";base64," + imageBase64,
				}},
			},
		}},
	}

	content, err := c.complete(ctx, body)
	if errors.Is(err, ErrEmptyResponse) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	if content == noText {
		return "", nil
	}
	return content, nil
}

// complete posts a chat completion and returns the first message content.
func (c *Client) complete(ctx context.Context, body map[string]any) (string, error) {
	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	raw, err := SendJSON(ctx, c.http, endpoint, body, map[string]string{
		"Authorization": "Bearer " + c.cfg.APIKey,
	}, c.log)
	if err != nil {
		return "", err
	}

	var cc chatResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode openai response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
