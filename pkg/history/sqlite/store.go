// Package sqlite stores run history in a local SQLite database.
//
// The schema is managed by golang-migrate from migrations embedded in the
// binary; Open applies any pending ones.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"github.com/matzehuels/tokendeck/pkg/errors"
	"github.com/matzehuels/tokendeck/pkg/history"
)

// timeFormat is fixed width so created_at sorts as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Store is a history.Store backed by SQLite.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database at path and migrates it to
// the latest schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "create history directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "open history database")
	}
	// one writer; avoids SQLITE_BUSY between pooled connections
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "configure history database")
	}
	if err := migrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func migrateUp(db *sql.DB) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("load migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	// m is not closed: that would close db.
	if err := m.Up(); err != nil && !stderrors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate history database: %w", err)
	}
	return nil
}

// Version reports the applied schema version.
func (s *Store) Version() (uint, error) {
	var v uint
	err := s.db.QueryRow("SELECT version FROM schema_migrations LIMIT 1").Scan(&v)
	return v, err
}

// Record implements history.Store.
func (s *Store) Record(ctx context.Context, run history.Run) error {
	if err := run.Validate(); err != nil {
		return err
	}
	images, err := json.Marshal(nonNil(run.Images))
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, model, images, groups_n, tokens_n, output, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.CreatedAt.UTC().Format(timeFormat), run.Model, string(images),
		run.Groups, run.Tokens, run.Output, string(run.Status), run.Error)
	if err != nil {
		return fmt.Errorf("record run %s: %w", run.ID, err)
	}
	return nil
}

const selectRuns = `SELECT id, created_at, model, images, groups_n, tokens_n, output, status, error FROM runs`

// List implements history.Store.
func (s *Store) List(ctx context.Context, limit int) ([]history.Run, error) {
	rows, err := s.db.QueryContext(ctx, selectRuns+` ORDER BY created_at DESC, rowid DESC LIMIT ?`, history.Limit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []history.Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get implements history.Store.
func (s *Store) Get(ctx context.Context, id string) (*history.Run, error) {
	run, err := scanRun(s.db.QueryRowContext(ctx, selectRuns+` WHERE id = ?`, id))
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, history.ErrNotFound
	}
	return run, err
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*history.Run, error) {
	var (
		run           history.Run
		created, imgs string
		status        string
	)
	if err := sc.Scan(&run.ID, &created, &run.Model, &imgs, &run.Groups, &run.Tokens, &run.Output, &status, &run.Error); err != nil {
		return nil, err
	}
	t, err := time.Parse(timeFormat, created)
	if err != nil {
		return nil, fmt.Errorf("run %s: bad created_at %q: %w", run.ID, created, err)
	}
	run.CreatedAt = t
	run.Status = history.Status(status)
	if err := json.Unmarshal([]byte(imgs), &run.Images); err != nil {
		return nil, fmt.Errorf("run %s: bad images: %w", run.ID, err)
	}
	return &run, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var _ history.Store = (*Store)(nil)
