package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver for database/sql

	"github.com/pkordes/family-trip/internal/domain"
	"github.com/pkordes/family-trip/migrations"
)

// tripBlobKey is the key of the trip document in a server-side BlobStore.
const tripBlobKey = "trip"

// OpenSQLite opens (creating if needed) the SQLite database at path and
// applies the SQLite migrations.
func OpenSQLite(ctx context.Context, path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("repo.OpenSQLite: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("repo.OpenSQLite: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)

	if err := Migrate(ctx, DialectSQLite, db, migrations.SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("repo.OpenSQLite: %w", err)
	}
	return db, nil
}

// BlobStore is a key/value store of byte blobs in SQLite. It is the
// client's local store and, through NewBlobTripRepo, the server's file store.
type BlobStore struct {
	db *sql.DB
}

// NewBlobStore wraps a migrated SQLite database.
func NewBlobStore(db *sql.DB) *BlobStore {
	return &BlobStore{db: db}
}

// Get returns the value for key, or domain.ErrNotFound.
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM blobs WHERE key = ?`

	var v []byte
	if err := s.db.QueryRowContext(ctx, q, key).Scan(&v); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("repo.BlobStore.Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.BlobStore.Get: %w", err)
	}
	return v, nil
}

// Set stores value under key, replacing any previous value.
func (s *BlobStore) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO blobs (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, q, key, value, time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("repo.BlobStore.Set: %w", err)
	}
	return nil
}

// blobTripRepo is a TripRepo on top of a BlobStore.
type blobTripRepo struct {
	blobs *BlobStore
}

// NewBlobTripRepo returns a TripRepo that keeps the document in blobs.
func NewBlobTripRepo(blobs *BlobStore) TripRepo {
	return &blobTripRepo{blobs: blobs}
}

func (r *blobTripRepo) Get(ctx context.Context) ([]byte, error) {
	return r.blobs.Get(ctx, tripBlobKey)
}

func (r *blobTripRepo) Put(ctx context.Context, doc []byte) error {
	return r.blobs.Set(ctx, tripBlobKey, doc)
}
