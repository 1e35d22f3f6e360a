// Package testutil holds database fixtures shared by the repo and migration
// tests.
//
// Postgres fixtures read TEST_DATABASE_URL and skip the calling test when it
// is unset. SQLite fixtures live in t.TempDir and always run.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib" // "pgx" database/sql driver

	"github.com/pkordes/family-trip/internal/repo"
)

const dsnEnv = "TEST_DATABASE_URL"

// NewPool connects to the Postgres test database. The pool is closed in
// t.Cleanup.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, postgresDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewPool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}
	t.Cleanup(pool.Close)
	return pool
}

// NewTripRepoTx returns a Postgres TripRepo whose writes run inside a
// transaction that is rolled back when the test ends, so the singleton trip
// document never leaks between tests.
func NewTripRepoTx(t *testing.T) repo.TripRepo {
	t.Helper()

	tx, err := NewPool(t).Begin(context.Background())
	if err != nil {
		t.Fatalf("testutil.NewTripRepoTx: begin: %v", err)
	}
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })
	return repo.NewTripRepo(tx)
}

// NewSQLDB is the database/sql view of the Postgres test database, for goose.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := openPgx(postgresDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// MustOpenSQLDB is NewSQLDB for TestMain, where there is no *testing.T.
// The caller closes the returned handle.
func MustOpenSQLDB(dsn string) *sql.DB {
	db, err := openPgx(dsn)
	if err != nil {
		panic("testutil.MustOpenSQLDB: " + err.Error())
	}
	return db
}

// NewSQLite opens a migrated SQLite file under t.TempDir, the same way the
// api server and tripctl open their local databases.
func NewSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := repo.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "trip.db"))
	if err != nil {
		t.Fatalf("testutil.NewSQLite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// NewBlobStore is a BlobStore over NewSQLite.
func NewBlobStore(t *testing.T) *repo.BlobStore {
	t.Helper()
	return repo.NewBlobStore(NewSQLite(t))
}

func openPgx(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func postgresDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv(dsnEnv)
	if dsn == "" {
		t.Skip(dsnEnv + " not set; skipping Postgres test")
	}
	return dsn
}
