// Package repo contains all storage access for the trip API and the sync
// client. The trip is persisted as one JSON document; each backend has its
// own file. No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pkordes/family-trip/internal/domain"
)

// DefaultTripID is the id of the single shared trip document.
const DefaultTripID = "default"

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Integration tests pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TripRepo stores the shared trip document. The service layer depends on
// this interface, not on a concrete backend.
type TripRepo interface {
	// Get returns the stored document, or domain.ErrNotFound if nothing has
	// been saved yet.
	Get(ctx context.Context) ([]byte, error)

	// Put replaces the stored document with doc, a JSON object.
	Put(ctx context.Context, doc []byte) error
}

// pgTripRepo is the Postgres implementation of TripRepo.
type pgTripRepo struct {
	db db
	id string
}

// NewTripRepo constructs a TripRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTripRepo(db db) TripRepo {
	return &pgTripRepo{db: db, id: DefaultTripID}
}

// Get reads the document.
func (r *pgTripRepo) Get(ctx context.Context) ([]byte, error) {
	const q = `SELECT doc FROM trip_documents WHERE id = @id`

	var doc []byte
	err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": r.id}).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("repo.TripRepo.Get: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("repo.TripRepo.Get: %w", err)
	}
	return doc, nil
}

// Put upserts the document.
func (r *pgTripRepo) Put(ctx context.Context, doc []byte) error {
	const q = `
		INSERT INTO trip_documents (id, doc)
		VALUES (@id, @doc)
		ON CONFLICT (id) DO UPDATE
		SET doc        = EXCLUDED.doc,
		    updated_at = now()`

	args := pgx.NamedArgs{
		"id":  r.id,
		"doc": string(doc), // text is cast to jsonb by the column type
	}
	if _, err := r.db.Exec(ctx, q, args); err != nil {
		return fmt.Errorf("repo.TripRepo.Put: %w", err)
	}
	return nil
}
