package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// ErrStorage marks history store failures. The run loop treats them as
// fatal: without a working history every item would download again.
var ErrStorage = errors.New("history storage")

// Row is one recorded download.
type Row struct {
	Date  time.Time
	Feed  string
	URL   string
	Title string
}

// Store is the append-only download history backed by SQLite. Rows are
// inserted after successful downloads and never updated or deleted.
type Store struct {
	db *sql.DB
}

// Open opens or creates the history database at dbPath and ensures the
// schema exists. The parent directory is created if missing.
func Open(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create directory: %w", ErrStorage, err)
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=foreign_keys(ON)", dbPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrStorage, dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: init schema: %w", ErrStorage, err)
	}
	return &Store{db: db}, nil
}

// Has returns the most recent recorded download time for the exact
// (feed, title) pair. Titles are compared as stored, without normalization.
func (s *Store) Has(ctx context.Context, feed, title string) (time.Time, bool, error) {
	var date string
	err := s.db.QueryRowContext(ctx,
		`SELECT date FROM history WHERE feed = ? AND title = ? ORDER BY date DESC LIMIT 1`,
		feed, title).Scan(&date)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: lookup %q: %w", ErrStorage, title, err)
	}
	at, err := time.Parse(time.RFC3339, date)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: bad date %q: %w", ErrStorage, date, err)
	}
	return at, true, nil
}

// Record appends a download stamped with the current UTC time. The insert
// is committed before Record returns.
func (s *Store) Record(ctx context.Context, feed, url, title string) error {
	date := time.Now().UTC().Format(time.RFC3339)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO history (date, feed, url, title) VALUES (?, ?, ?, ?)`,
		date, feed, url, title)
	if err != nil {
		return fmt.Errorf("%w: record %q: %w", ErrStorage, title, err)
	}
	return nil
}

// Recent returns the newest downloads first, optionally limited to one feed.
func (s *Store) Recent(ctx context.Context, feed string, limit int) ([]Row, error) {
	q := `SELECT date, feed, url, title FROM history`
	args := []any{}
	if feed != "" {
		q += ` WHERE feed = ?`
		args = append(args, feed)
	}
	q += ` ORDER BY date DESC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStorage, err)
	}
	defer rows.Close()
	var out []Row
	for rows.Next() {
		var r Row
		var date string
		if err := rows.Scan(&date, &r.Feed, &r.URL, &r.Title); err != nil {
			return nil, fmt.Errorf("%w: scan: %w", ErrStorage, err)
		}
		if at, err := time.Parse(time.RFC3339, date); err == nil {
			r.Date = at
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrStorage, err)
	}
	return out, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
