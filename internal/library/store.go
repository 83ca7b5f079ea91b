package library

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Record is one indexed summary.
type Record struct {
	ID           int64
	BVID         string
	Title        string
	Category     string
	RelativePath string
	AuthorName   string
	AuthorUID    int64
	Duration     int
	HasSubtitle  bool
	CreatedAt    time.Time
}

// Store manages the summary index backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the index database and applies
// migrations.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure db directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert records a summary, replacing any previous entry for the same
// video in the same category.
func (s *Store) Upsert(ctx context.Context, rec Record) error {
	if rec.BVID == "" {
		return fmt.Errorf("upsert summary: empty bvid")
	}
	if rec.Category == "" {
		rec.Category = "standalone"
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO summaries (
            bvid, title, category, relative_path,
            author_name, author_uid, duration, has_subtitle, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (bvid, category) DO UPDATE SET
            title = excluded.title,
            relative_path = excluded.relative_path,
            author_name = excluded.author_name,
            author_uid = excluded.author_uid,
            duration = excluded.duration,
            has_subtitle = excluded.has_subtitle,
            created_at = excluded.created_at`,
		rec.BVID,
		rec.Title,
		rec.Category,
		rec.RelativePath,
		rec.AuthorName,
		rec.AuthorUID,
		rec.Duration,
		rec.HasSubtitle,
		createdAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("upsert summary: %w", err)
	}
	return nil
}

// Has reports whether a summary for the video exists in the category.
func (s *Store) Has(ctx context.Context, bvid, category string) (bool, error) {
	if category == "" {
		category = "standalone"
	}
	var count int
	row := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM summaries WHERE bvid = ? AND category = ?", bvid, category)
	if err := row.Scan(&count); err != nil {
		return false, fmt.Errorf("check summary: %w", err)
	}
	return count > 0, nil
}

// List returns indexed summaries, newest first. An empty category selects
// every record.
func (s *Store) List(ctx context.Context, category string) ([]Record, error) {
	query := `SELECT id, bvid, title, category, relative_path,
        author_name, author_uid, duration, has_subtitle, created_at
        FROM summaries`
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list summaries: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var createdAt string
		if err := rows.Scan(
			&rec.ID, &rec.BVID, &rec.Title, &rec.Category, &rec.RelativePath,
			&rec.AuthorName, &rec.AuthorUID, &rec.Duration, &rec.HasSubtitle, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if ts, parseErr := time.Parse(time.RFC3339Nano, createdAt); parseErr == nil {
			rec.CreatedAt = ts
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate summaries: %w", err)
	}
	return records, nil
}

// Remove drops the index entry for a video in a category. Removing a
// missing entry is not an error.
func (s *Store) Remove(ctx context.Context, bvid, category string) error {
	if category == "" {
		category = "standalone"
	}
	if _, err := s.db.ExecContext(ctx,
		"DELETE FROM summaries WHERE bvid = ? AND category = ?", bvid, category); err != nil {
		return fmt.Errorf("remove summary: %w", err)
	}
	return nil
}

// Count returns the total number of indexed summaries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM summaries")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count summaries: %w", err)
	}
	return count, nil
}
