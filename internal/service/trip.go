// Package service contains the business logic behind the trip API.
// Services validate inputs, enforce business rules, and orchestrate repo calls.
// No SQL lives here: services depend on repo interfaces, not implementations.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/merge"
	"github.com/pkordes/family-trip/internal/normalize"
	"github.com/pkordes/family-trip/internal/repo"
)

// Observer receives counters for the operations services perform.
// *metrics.Metrics satisfies it; nil means nothing is recorded.
type Observer interface {
	ObserveTripWrite(op string)
	ObserveExtraction(source, mode string, err error)
}

type nopObserver struct{}

func (nopObserver) ObserveTripWrite(string)                 {}
func (nopObserver) ObserveExtraction(string, string, error) {}

func observerOrNop(o Observer) Observer {
	if o == nil {
		return nopObserver{}
	}
	return o
}

// TripService implements the shared trip document operations.
type TripService struct {
	repo     repo.TripRepo
	families []domain.Family
	obs      Observer
	log      *slog.Logger

	// mu serializes read-merge-write cycles issued through this process.
	mu sync.Mutex
}

// NewTripService constructs a TripService. families is the roster used when
// no document has been stored yet.
func NewTripService(r repo.TripRepo, families []domain.Family, obs Observer, logger *slog.Logger) *TripService {
	if logger == nil {
		logger = slog.Default()
	}
	return &TripService{
		repo:     r,
		families: domain.CloneFamilies(families),
		obs:      observerOrNop(obs),
		log:      logger,
	}
}

// Get returns the stored document as it was written.
// It returns domain.ErrNotFound when nothing has been saved yet.
func (s *TripService) Get(ctx context.Context) ([]byte, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.TripService.Get: %w", err)
	}
	return doc, nil
}

// Put replaces the stored document. doc must be a JSON object; anything else
// is rejected with domain.ErrValidation and nothing is written.
func (s *TripService) Put(ctx context.Context, doc []byte) error {
	doc = bytes.TrimSpace(doc)
	if len(doc) == 0 || doc[0] != '{' || !json.Valid(doc) {
		return fmt.Errorf("service.TripService.Put: %w: body must be a JSON object", domain.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.repo.Put(ctx, doc); err != nil {
		return fmt.Errorf("service.TripService.Put: %w", err)
	}
	s.obs.ObserveTripWrite("put")
	s.log.Info("trip.put", "bytes", len(doc))
	return nil
}

// Record returns the stored document normalized into a full record.
// It returns domain.ErrNotFound when nothing has been saved yet.
func (s *TripService) Record(ctx context.Context) (domain.TripRecord, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("service.TripService.Record: %w", err)
	}
	return rec, nil
}

// Patch merges body, a partial trip document, into the stored record field
// by field and stores the result. With nothing stored the defaults are the
// merge base.
func (s *TripService) Patch(ctx context.Context, body []byte) (domain.TripRecord, error) {
	p, err := normalize.DecodePartial(body)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("service.TripService.Patch: %w", err)
	}
	rec, err := s.apply(ctx, "patch", p)
	if err != nil {
		return domain.TripRecord{}, fmt.Errorf("service.TripService.Patch: %w", err)
	}
	return rec, nil
}

// Day returns the manual schedule stored for one date key.
func (s *TripService) Day(ctx context.Context, date string) (domain.DaySchedule, error) {
	rec, err := s.load(ctx)
	if err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.TripService.Day: %w", err)
	}
	day, ok := rec.ScheduleByDay[date]
	if !ok {
		return domain.DaySchedule{}, fmt.Errorf("service.TripService.Day: %w", domain.ErrNotFound)
	}
	return day, nil
}

// PutDay replaces the manual schedule of one date key and returns it as stored.
func (s *TripService) PutDay(ctx context.Context, date string, day domain.DaySchedule) (domain.DaySchedule, error) {
	if date == "" {
		return domain.DaySchedule{}, fmt.Errorf("service.TripService.PutDay: %w: date is required", domain.ErrValidation)
	}
	p := domain.Partial{ScheduleByDay: map[string]domain.DaySchedule{date: day}}
	rec, err := s.apply(ctx, "put_day", p)
	if err != nil {
		return domain.DaySchedule{}, fmt.Errorf("service.TripService.PutDay: %w", err)
	}
	return rec.ScheduleByDay[date], nil
}

func (s *TripService) apply(ctx context.Context, op string, p domain.Partial) (domain.TripRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.load(ctx)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		current = domain.DefaultTrip(s.families)
	case err != nil:
		return domain.TripRecord{}, err
	}

	next := merge.Merge(current, p)
	next.Backfill(domain.FamilyIDs(next.Families))

	doc, err := json.Marshal(next)
	if err != nil {
		return domain.TripRecord{}, err
	}
	if err := s.repo.Put(ctx, doc); err != nil {
		return domain.TripRecord{}, err
	}
	s.obs.ObserveTripWrite(op)
	s.log.Info("trip.merged", "op", op, "bytes", len(doc))
	return next, nil
}

func (s *TripService) load(ctx context.Context) (domain.TripRecord, error) {
	doc, err := s.repo.Get(ctx)
	if err != nil {
		return domain.TripRecord{}, err
	}
	return normalize.Record(doc, s.families)
}
