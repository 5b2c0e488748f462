package storage

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"patrimonio/internal/core"
	"patrimonio/internal/sources"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores raw documents by name. It is both a document
// source and the mirror target of the worker.
type SQLiteRepository struct {
	db            *sql.DB
	schemaVersion uint
}

// MirrorRun summarises one pass of the mirror worker.
type MirrorRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	Scanned    int
	Changed    int
	Removed    int
	Err        string
}

var (
	_ sources.DocumentSource = (*SQLiteRepository)(nil)
	_ sources.DocumentLister = (*SQLiteRepository)(nil)
)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	version, err := RunMigrations(dbPath)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteRepository{db: db, schemaVersion: version}, nil
}

// SchemaVersion is the migration version the store was opened at.
func (r *SQLiteRepository) SchemaVersion() uint {
	return r.schemaVersion
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) FetchDocument(ctx context.Context, name string) ([]byte, bool, error) {
	var body []byte
	err := r.db.QueryRowContext(ctx, `SELECT body FROM documents WHERE name = ?`, name).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("select document %s: %w", name, err)
	}
	return body, true, nil
}

func (r *SQLiteRepository) ListNames(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM documents ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan document name: %w", err)
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

func (r *SQLiteRepository) ListAvailable(ctx context.Context) ([]core.Entry, error) {
	names, err := r.ListNames(ctx)
	if err != nil {
		return nil, err
	}
	return core.EntriesFromNames(names), nil
}

// Put stores body under name and reports whether the stored body changed.
func (r *SQLiteRepository) Put(ctx context.Context, name string, body []byte) (bool, error) {
	sum := checksum(body)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var current string
	err = tx.QueryRowContext(ctx, `SELECT checksum FROM documents WHERE name = ?`, name).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("select checksum %s: %w", name, err)
	case current == sum:
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (name, body, checksum, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET body = excluded.body, checksum = excluded.checksum, updated_at = excluded.updated_at`,
		name, body, sum, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("upsert document %s: %w", name, err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

// Delete removes name and reports whether it existed.
func (r *SQLiteRepository) Delete(ctx context.Context, name string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete document %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *SQLiteRepository) RecordMirrorRun(ctx context.Context, run MirrorRun) error {
	var errText sql.NullString
	if run.Err != "" {
		errText = sql.NullString{String: run.Err, Valid: true}
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO mirror_runs (started_at, finished_at, scanned, changed, removed, error) VALUES (?, ?, ?, ?, ?, ?)`,
		run.StartedAt.UTC(), run.FinishedAt.UTC(), run.Scanned, run.Changed, run.Removed, errText)
	if err != nil {
		return fmt.Errorf("insert mirror run: %w", err)
	}
	return nil
}

// LastMirrorRun returns the most recent run, or false if none was recorded.
func (r *SQLiteRepository) LastMirrorRun(ctx context.Context) (MirrorRun, bool, error) {
	var (
		run     MirrorRun
		errText sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT started_at, finished_at, scanned, changed, removed, error FROM mirror_runs ORDER BY id DESC LIMIT 1`).
		Scan(&run.StartedAt, &run.FinishedAt, &run.Scanned, &run.Changed, &run.Removed, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return MirrorRun{}, false, nil
	}
	if err != nil {
		return MirrorRun{}, false, fmt.Errorf("select mirror run: %w", err)
	}
	run.Err = errText.String
	return run, true, nil
}

func checksum(body []byte) string {
	h := sha256.Sum256(body)
	return hex.EncodeToString(h[:])
}
