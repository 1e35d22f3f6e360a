// Package config loads and validates application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the API server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of allowed cross-origin request origins.
	// Empty (the default) allows any origin, which the mobile app needs.
	// Set CORS_ORIGINS to a comma-separated list to restrict it.
	CORSOrigins []string

	// DatabaseURL is the Postgres connection string. Optional: when empty the
	// trip document is kept in the sqlite file at DataPath.
	DatabaseURL string

	// DataPath is the sqlite file used without DATABASE_URL.
	DataPath string

	// OpenAI settings. Without an API key PDFs are scanned heuristically and
	// image extraction is unavailable.
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	OpenAITimeout time.Duration

	// PDFToTextPath is the pdftotext binary (poppler-utils).
	PDFToTextPath string

	// RosterPath is a YAML roster file; empty uses the built-in roster.
	RosterPath string

	// MaxBodyBytes caps request bodies. Base64 PDFs and photos are large.
	MaxBodyBytes int64

	// ExtractRatePerMin limits /parse and /ocr per client IP. 0 disables it.
	ExtractRatePerMin int

	// WebRoot is an optional directory with the built web app.
	WebRoot string
}

// ClientConfig holds the settings of the tripctl command line client.
type ClientConfig struct {
	// TripAPIURL is the trip server base URL. Empty means local only.
	TripAPIURL string

	// ParserURL serves /parse and /ocr. Defaults to TripAPIURL, then to
	// http://localhost:8080.
	ParserURL string

	// LocalDBPath is the sqlite file holding the local copy of the trip.
	LocalDBPath string

	// SaveDebounce is the quiet period before a change is pushed.
	SaveDebounce time.Duration

	RosterPath string
	LogLevel   string
}

// Load reads configuration from environment variables and returns a Config.
// Every malformed value is reported in one error.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(os.Getenv("CORS_ORIGINS")),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		DataPath:      getEnv("DATA_PATH", "data/trip.db"),
		OpenAIAPIKey:  os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		PDFToTextPath: getEnv("PDFTOTEXT_PATH", "pdftotext"),
		RosterPath:    os.Getenv("ROSTER_PATH"),
		WebRoot:       os.Getenv("WEB_ROOT"),
	}

	var p parser
	cfg.OpenAITimeout = p.duration("OPENAI_TIMEOUT", 45*time.Second)
	cfg.MaxBodyBytes = int64(p.positiveInt("MAX_BODY_BYTES", 20<<20))
	cfg.ExtractRatePerMin = p.nonNegativeInt("EXTRACT_RATE_PER_MIN", 10)
	if err := checkLogLevel(cfg.LogLevel); err != nil {
		p.errs = append(p.errs, err)
	}

	if err := p.err(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadClient reads the tripctl configuration.
func LoadClient() (ClientConfig, error) {
	cfg := ClientConfig{
		TripAPIURL:  strings.TrimRight(os.Getenv("TRIP_API_URL"), "/"),
		LocalDBPath: getEnv("LOCAL_DB_PATH", "data/local.db"),
		RosterPath:  os.Getenv("ROSTER_PATH"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
	}
	cfg.ParserURL = strings.TrimRight(getEnv("PARSER_URL", cfg.TripAPIURL), "/")
	if cfg.ParserURL == "" {
		cfg.ParserURL = "http://localhost:8080"
	}

	var p parser
	cfg.SaveDebounce = p.duration("SAVE_DEBOUNCE", 1200*time.Millisecond)
	if err := checkLogLevel(cfg.LogLevel); err != nil {
		p.errs = append(p.errs, err)
	}

	if err := p.err(); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

// parser collects every invalid value instead of stopping at the first.
type parser struct {
	errs []error
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not a positive duration", key, v))
		return fallback
	}
	return d
}

func (p *parser) positiveInt(key string, fallback int) int {
	n, ok := p.integer(key, fallback)
	if ok && n <= 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must be greater than zero", key))
		return fallback
	}
	return n
}

func (p *parser) nonNegativeInt(key string, fallback int) int {
	n, ok := p.integer(key, fallback)
	if ok && n < 0 {
		p.errs = append(p.errs, fmt.Errorf("%s: must not be negative", key))
		return fallback
	}
	return n
}

func (p *parser) integer(key string, fallback int) (int, bool) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("%s: %q is not an integer", key, v))
		return fallback, false
	}
	return n, true
}

func (p *parser) err() error {
	if len(p.errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", errors.Join(p.errs...))
}

func checkLogLevel(level string) error {
	switch strings.ToLower(level) {
	case "debug", "info", "warn", "error":
		return nil
	}
	return fmt.Errorf("LOG_LEVEL: %q must be one of debug, info, warn, error", level)
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
