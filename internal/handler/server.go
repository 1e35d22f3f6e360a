// Package handler implements the HTTP API of the trip server.
// All handlers are methods on Server. Methods are split into files by
// resource (health.go, trip.go, extract.go, export.go) and share the same
// Server struct so they can reach its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/metrics"
	"github.com/pkordes/family-trip/internal/middleware"
	"github.com/pkordes/family-trip/internal/service"
)

// TripServicer defines the trip document operations the handlers depend on.
// It lives here, in the consumer package, so tests can inject a mock without
// touching storage.
type TripServicer interface {
	Get(ctx context.Context) ([]byte, error)
	Put(ctx context.Context, doc []byte) error
	Patch(ctx context.Context, body []byte) (domain.TripRecord, error)
	Day(ctx context.Context, date string) (domain.DaySchedule, error)
	PutDay(ctx context.Context, date string, day domain.DaySchedule) (domain.DaySchedule, error)
}

// ExtractServicer turns uploaded documents into partial trips.
type ExtractServicer interface {
	ParsePDF(ctx context.Context, pdf []byte) (service.Extraction, error)
	ParseImage(ctx context.Context, imageBase64, mimeType string) (service.Extraction, error)
}

// ExportServicer flattens the trip for download.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// Server holds the dependencies of every handler.
type Server struct {
	trips   TripServicer
	extract ExtractServicer
	export  ExportServicer
	log     *slog.Logger
}

// NewServer constructs the Server. Any service may be nil when a test only
// exercises the routes of the others.
func NewServer(trips TripServicer, extract ExtractServicer, export ExportServicer, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{trips: trips, extract: extract, export: export, log: logger}
}

// RouterOptions configures the middleware stack built by Router.
type RouterOptions struct {
	CORSOrigins []string

	// MaxBodyBytes caps request bodies. Zero means no limit.
	MaxBodyBytes int64

	// ExtractPerMinute rate limits /parse and /ocr per client IP.
	// Zero disables the limit.
	ExtractPerMinute int

	// Metrics, when set, instruments every route and serves /metrics.
	Metrics *metrics.Metrics

	// OpenAPI is served as-is at /openapi.yaml when non-empty.
	OpenAPI []byte

	// WebRoot is a directory holding the built web app. When set, unknown
	// GET paths outside /api fall back to its index.html.
	WebRoot string
}

// Router builds the complete HTTP handler.
//
// Middleware order: RequestID, RealIP, metrics, request log, Recoverer, CORS,
// body limit. The trip routes are mounted both at the root and under /api so
// older clients keep working.
func (s *Server) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	if opts.Metrics != nil {
		r.Use(opts.Metrics.Middleware)
	}
	r.Use(middleware.NewSlogLogger(s.log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(opts.CORSOrigins))
	if opts.MaxBodyBytes > 0 {
		r.Use(middleware.NewMaxBodySizeHandler(opts.MaxBodyBytes))
	}

	r.Get("/healthz", s.GetHealth)
	r.Get("/health", s.GetLegacyHealth)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	if len(opts.OpenAPI) > 0 {
		r.Get("/openapi.yaml", serveBytes("application/yaml", opts.OpenAPI))
	}

	limit := func(h http.Handler) http.Handler { return h }
	if opts.ExtractPerMinute > 0 {
		limit = middleware.NewRateLimiter(opts.ExtractPerMinute, opts.ExtractPerMinute).Limit
	}

	tripRoutes := func(r chi.Router) {
		r.Get("/trip", s.GetTrip)
		r.Put("/trip", s.PutTrip)
		r.Patch("/trip", s.PatchTrip)
		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/parse", s.PostParse)
			r.Post("/ocr", s.PostOCR)
		})
	}
	r.Group(tripRoutes)
	r.Route("/api", func(r chi.Router) {
		tripRoutes(r)
		r.Get("/trip/days/{date}", s.GetTripDay)
		r.Put("/trip/days/{date}", s.PutTripDay)
		r.Get("/export", s.GetExport)
	})

	if opts.WebRoot != "" {
		r.NotFound(spaHandler(opts.WebRoot))
	}
	return r
}

func serveBytes(contentType string, b []byte) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(b)
	}
}
