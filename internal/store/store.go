// Package store keeps a history of generated sitemaps in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/amosWeiskopf/sitemapsmith/internal/models"
)

// ErrNotFound is returned when no generation matches a lookup.
var ErrNotFound = errors.New("generation not found")

// timeLayout has a fixed width so created_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store records sitemap generations. It holds no crawl state.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?mode=rwc")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}
	if err := s.createTables(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.dbPath }

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createTables(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS generations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		root_url TEXT NOT NULL,
		filename TEXT NOT NULL UNIQUE,
		path TEXT NOT NULL,
		url_count INTEGER NOT NULL,
		compressed INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_generations_created ON generations(created_at);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Record inserts g and sets its ID. Re-recording a filename replaces the row.
func (s *Store) Record(ctx context.Context, g *models.Generation) error {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (root_url, filename, path, url_count, compressed, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(filename) DO UPDATE SET
			root_url = excluded.root_url,
			path = excluded.path,
			url_count = excluded.url_count,
			compressed = excluded.compressed,
			created_at = excluded.created_at`,
		g.RootURL, g.Filename, g.Path, g.URLCount, g.Compressed, g.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil && id > 0 {
		g.ID = id
	}
	return nil
}

// List returns up to limit generations, newest first. A limit of zero or
// less returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]models.Generation, error) {
	query := `SELECT id, root_url, filename, path, url_count, compressed, created_at
		FROM generations ORDER BY created_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	var out []models.Generation
	for rows.Next() {
		g, err := scanGeneration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate generations: %w", err)
	}
	return out, nil
}

// Get looks a generation up by filename.
func (s *Store) Get(ctx context.Context, filename string) (*models.Generation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, root_url, filename, path, url_count, compressed, created_at
		FROM generations WHERE filename = ?`, filename)
	g, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return g, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGeneration(sc scanner) (*models.Generation, error) {
	var (
		g       models.Generation
		created string
	)
	if err := sc.Scan(&g.ID, &g.RootURL, &g.Filename, &g.Path, &g.URLCount, &g.Compressed, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan generation: %w", err)
	}
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return nil, fmt.Errorf("failed to parse created_at %q: %w", created, err)
	}
	g.CreatedAt = t
	return &g, nil
}
