// Package store holds the client's single in-memory trip record and keeps it
// persisted: every change is written to the local store at once and pushed to
// the API server after a quiet period.
package store

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/internal/merge"
	"github.com/pkordes/family-trip/internal/normalize"
)

// LocalKey is the key the trip document is stored under locally.
const LocalKey = "karens_greece_trip"

// DefaultSaveDelay is the quiet period before a remote save.
const DefaultSaveDelay = 1200 * time.Millisecond

// remoteSaveTimeout bounds a debounced remote save.
const remoteSaveTimeout = 30 * time.Second

var (
	// ErrNotReady is returned by mutations before Load has completed.
	ErrNotReady = errors.New("trip store is still loading")
	// ErrNoRemote is returned by explicit sync calls when no server is configured.
	ErrNoRemote = errors.New("no trip server configured")
)

// State is the store's lifecycle state.
type State int

const (
	StateLoading State = iota
	StateReady
)

func (s State) String() string {
	if s == StateReady {
		return "ready"
	}
	return "loading"
}

// LocalStore is durable key/value storage on the device.
// Get returns domain.ErrNotFound for a key that was never set.
type LocalStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Remote is the shared trip document on the API server.
// Load returns domain.ErrNotFound when nothing has been saved yet.
type Remote interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, doc []byte) error
}

// Options configures a Store. Only Local is required.
type Options struct {
	Families  []domain.Family
	Local     LocalStore
	Remote    Remote        // nil disables remote sync
	SaveDelay time.Duration // 0 means DefaultSaveDelay
	Logger    *slog.Logger
}

// Store is safe for concurrent use.
type Store struct {
	local    LocalStore
	remote   Remote
	families []domain.Family
	saver    *Debouncer
	log      *slog.Logger

	mu      sync.Mutex
	state   State
	rec     domain.TripRecord
	version uint64
	subs    map[int]func(domain.TripRecord)
	nextSub int

	// writeMu orders local writes; written is the last version persisted.
	writeMu sync.Mutex
	written uint64

	// notifyMu serializes deliveries; notified is the last version delivered.
	notifyMu sync.Mutex
	notified uint64
}

// New returns a Store in StateLoading holding the default trip for the roster.
func New(opts Options) *Store {
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{
		local:    opts.Local,
		remote:   opts.Remote,
		families: domain.CloneFamilies(opts.Families),
		saver:    NewDebouncer(opts.SaveDelay),
		log:      opts.Logger,
		rec:      domain.DefaultTrip(opts.Families),
		subs:     map[int]func(domain.TripRecord){},
	}
}

// Load reads the local copy, then the server copy, merging each over the
// defaults, and moves the store to StateReady. Read failures are logged and
// the store becomes ready with whatever it could read.
func (s *Store) Load(ctx context.Context) {
	rec := domain.DefaultTrip(s.families)

	raw, err := s.local.Get(ctx, LocalKey)
	switch {
	case err == nil:
		if local, err := normalize.Record(raw, s.families); err == nil {
			rec = local
		} else {
			s.log.Warn("store.local_decode_failed", "error", err)
		}
	case !errors.Is(err, domain.ErrNotFound):
		s.log.Warn("store.local_read_failed", "error", err)
	}

	if s.remote != nil {
		if p, err := s.fetchRemote(ctx); err == nil {
			rec = merge.Merge(rec, p)
		} else if !errors.Is(err, domain.ErrNotFound) {
			s.log.Warn("store.remote_read_failed", "error", err)
		}
	}
	rec.Backfill(domain.FamilyIDs(rec.Families))

	s.mu.Lock()
	s.rec = rec
	s.state = StateReady
	s.version++
	version, snap := s.version, rec.Clone()
	s.mu.Unlock()

	s.log.Info("store.loaded", "families", len(snap.Families))
	s.persistLocal(ctx, version, snap)
	s.notify(version, snap)
}

// State returns the current lifecycle state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Snapshot returns a copy of the current record.
func (s *Store) Snapshot() domain.TripRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec.Clone()
}

// Subscribe registers fn to receive a snapshot after every change.
// fn runs on the goroutine that made the change, one delivery at a time and
// never with an older record than one it has already seen. fn must not change
// the store itself. The returned func unsubscribes.
func (s *Store) Subscribe(fn func(domain.TripRecord)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
	}
}

// UpdateField applies a manual edit of one top-level field, e.g.
// UpdateField("gettingAround", "Rent a car").
func (s *Store) UpdateField(ctx context.Context, name string, value any) error {
	p, err := normalize.FieldPartial(name, value)
	if err != nil {
		return fmt.Errorf("store.Store.UpdateField: %w", err)
	}
	return s.apply(ctx, "update_field", func(domain.TripRecord) domain.Partial { return p })
}

// Update merges a partial record from a manual edit.
func (s *Store) Update(ctx context.Context, p domain.Partial) error {
	return s.apply(ctx, "update", func(domain.TripRecord) domain.Partial { return p })
}

// UpdateDaySchedule replaces the manual schedule of one day.
func (s *Store) UpdateDaySchedule(ctx context.Context, date string, day domain.DaySchedule) error {
	p := domain.Partial{ScheduleByDay: map[string]domain.DaySchedule{date: day}}
	return s.apply(ctx, "update_day", func(domain.TripRecord) domain.Partial { return p })
}

// MergeFromImport merges the result of a document or text import.
func (s *Store) MergeFromImport(ctx context.Context, p domain.Partial) error {
	return s.apply(ctx, "import", func(domain.TripRecord) domain.Partial { return p })
}

// AddImportedImage appends a picked image to the saved images.
func (s *Store) AddImportedImage(ctx context.Context, name string, data []byte) error {
	img := domain.ImportedImage{Name: name, Base64: base64.StdEncoding.EncodeToString(data)}
	return s.apply(ctx, "add_image", func(cur domain.TripRecord) domain.Partial {
		imgs := append(slices.Clone(cur.ImportedImages), img)
		return domain.Partial{ImportedImages: &imgs}
	})
}

// SaveToServer pushes the current record now, replacing any pending save.
func (s *Store) SaveToServer(ctx context.Context) error {
	if s.remote == nil {
		return fmt.Errorf("store.Store.SaveToServer: %w", ErrNoRemote)
	}
	s.saver.Cancel()
	if err := s.pushRemote(ctx); err != nil {
		return fmt.Errorf("store.Store.SaveToServer: %w", err)
	}
	return nil
}

// LoadFromServer fetches the server copy and merges it into the record.
// It returns domain.ErrNotFound when the server has no data yet.
func (s *Store) LoadFromServer(ctx context.Context) error {
	if s.remote == nil {
		return fmt.Errorf("store.Store.LoadFromServer: %w", ErrNoRemote)
	}
	p, err := s.fetchRemote(ctx)
	if err != nil {
		return fmt.Errorf("store.Store.LoadFromServer: %w", err)
	}

	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return fmt.Errorf("store.Store.LoadFromServer: %w", ErrNotReady)
	}
	s.rec = merge.Merge(s.rec, p)
	s.rec.Backfill(domain.FamilyIDs(s.rec.Families))
	s.version++
	version, snap := s.version, s.rec.Clone()
	s.mu.Unlock()

	s.persistLocal(ctx, version, snap)
	s.notify(version, snap)
	return nil
}

// Close runs a pending remote save now, if any.
func (s *Store) Close(ctx context.Context) error {
	if s.remote == nil || !s.saver.Pending() {
		return nil
	}
	s.saver.Cancel()
	if err := s.pushRemote(ctx); err != nil {
		return fmt.Errorf("store.Store.Close: %w", err)
	}
	return nil
}

// apply merges the partial built from the current record, then persists and
// notifies. build runs under the store lock.
func (s *Store) apply(ctx context.Context, op string, build func(domain.TripRecord) domain.Partial) error {
	s.mu.Lock()
	if s.state != StateReady {
		s.mu.Unlock()
		return ErrNotReady
	}
	s.rec = merge.Merge(s.rec, build(s.rec))
	s.rec.Backfill(domain.FamilyIDs(s.rec.Families))
	s.version++
	version, snap := s.version, s.rec.Clone()
	s.mu.Unlock()

	s.log.Debug("store.changed", "op", op, "version", version)
	s.persistLocal(ctx, version, snap)
	if s.remote != nil {
		s.saver.Schedule(s.debouncedSave)
	}
	s.notify(version, snap)
	return nil
}

// persistLocal writes rec unless a newer version has already been written.
func (s *Store) persistLocal(ctx context.Context, version uint64, rec domain.TripRecord) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if version <= s.written {
		return
	}
	doc, err := json.Marshal(rec)
	if err == nil {
		err = s.local.Set(context.WithoutCancel(ctx), LocalKey, doc)
	}
	if err != nil {
		s.log.Warn("store.persist_local_failed", "version", version, "error", err)
		return
	}
	s.written = version
}

func (s *Store) debouncedSave() {
	ctx, cancel := context.WithTimeout(context.Background(), remoteSaveTimeout)
	defer cancel()
	if err := s.pushRemote(ctx); err != nil {
		s.log.Warn("store.persist_remote_failed", "error", err)
	}
}

func (s *Store) pushRemote(ctx context.Context) error {
	doc, err := json.Marshal(s.Snapshot())
	if err != nil {
		return err
	}
	return s.remote.Save(ctx, doc)
}

func (s *Store) fetchRemote(ctx context.Context) (domain.Partial, error) {
	raw, err := s.remote.Load(ctx)
	if err != nil {
		return domain.Partial{}, err
	}
	return normalize.DecodePartial(raw)
}

// notify delivers rec to subscribers unless a newer version already went out.
func (s *Store) notify(version uint64, rec domain.TripRecord) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if version <= s.notified {
		return
	}
	s.notified = version

	s.mu.Lock()
	subs := make([]func(domain.TripRecord), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(rec.Clone())
	}
}
