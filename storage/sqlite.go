// Package storage provides SQLite history storage.
//
// Information Hiding:
// - SQLite connection management hidden behind interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/richinex/calcflow/model"
)

// SqliteHistory implements HistoryStore using SQLite.
// Stores calculation history in a SQLite database file.
type SqliteHistory struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteHistory, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	return initSqlite(db)
}

// NewSqliteInMemory creates an in-memory database (useful for testing).
func NewSqliteInMemory() (*SqliteHistory, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}
	// Every connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)
	return initSqlite(db)
}

func initSqlite(db *sql.DB) (*SqliteHistory, error) {
	s := &SqliteHistory{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *SqliteHistory) Close() error {
	return s.db.Close()
}

func (s *SqliteHistory) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS calculations (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			kind TEXT NOT NULL,
			summary TEXT NOT NULL,
			request TEXT NOT NULL,
			result TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_calculations_created
		ON calculations(created_at DESC);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Record appends an entry.
func (s *SqliteHistory) Record(ctx context.Context, entry Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO calculations (id, kind, summary, request, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Kind.String(),
		entry.Summary,
		string(entry.Request),
		string(entry.Result),
		entry.CreatedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record calculation: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *SqliteHistory) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, summary, request, result, created_at
		FROM calculations
		ORDER BY seq DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query calculations: %w", err)
	}
	defer rows.Close()

	entries := []Entry{} // Start with empty slice, not nil
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating calculations: %w", err)
	}
	return entries, nil
}

// Get returns the entry with the given ID.
// Returns nil, nil if not found.
func (s *SqliteHistory) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, kind, summary, request, result, created_at
		FROM calculations WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// Clear deletes every entry.
func (s *SqliteHistory) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM calculations"); err != nil {
		return fmt.Errorf("failed to clear calculations: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		entry     Entry
		kind      string
		req, res  string
		createdAt int64
	)
	err := row.Scan(&entry.ID, &kind, &entry.Summary, &req, &res, &createdAt)
	if err == sql.ErrNoRows {
		return Entry{}, err
	}
	if err != nil {
		return Entry{}, fmt.Errorf("failed to scan calculation: %w", err)
	}
	entry.Kind = model.Kind(kind)
	entry.Request = []byte(req)
	entry.Result = []byte(res)
	entry.CreatedAt = time.Unix(0, createdAt).UTC()
	return entry, nil
}

// Verify SqliteHistory implements HistoryStore
var _ HistoryStore = (*SqliteHistory)(nil)
