// Package sqlite implements store.Store on an embedded SQLite database
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pixelhoard/gallery/internal/store"
)

// Store is a SQLite-backed metadata store.
type Store struct {
	db *sql.DB
}

// Open opens (and creates if needed) the database at path and runs
// migrations. Use ":memory:" for an ephemeral database.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// The driver opens lazily; ping to surface bad paths early.
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	// A single writer avoids SQLITE_BUSY under concurrent pipeline writes.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	createImages := `
		CREATE TABLE IF NOT EXISTS images (
			file_path        TEXT PRIMARY KEY,
			mtime            TEXT NOT NULL,
			size             INTEGER NOT NULL,
			location         TEXT NOT NULL DEFAULT 'Unknown',
			tags             TEXT NOT NULL DEFAULT '',
			detailed_caption TEXT NOT NULL DEFAULT '',
			embedding        BLOB
		)
	`
	if _, err := s.db.ExecContext(ctx, createImages); err != nil {
		return fmt.Errorf("failed to create images table: %w", err)
	}

	createFaces := `
		CREATE TABLE IF NOT EXISTS faces (
			file_path TEXT NOT NULL,
			encoding  BLOB NOT NULL,
			name      TEXT,
			top       INTEGER NOT NULL DEFAULT 0,
			"right"   INTEGER NOT NULL DEFAULT 0,
			bottom    INTEGER NOT NULL DEFAULT 0,
			"left"    INTEGER NOT NULL DEFAULT 0
		)
	`
	if _, err := s.db.ExecContext(ctx, createFaces); err != nil {
		return fmt.Errorf("failed to create faces table: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `
		CREATE INDEX IF NOT EXISTS faces_file_path_idx ON faces(file_path)
	`); err != nil {
		return fmt.Errorf("failed to create faces index: %w", err)
	}

	return nil
}

// Get retrieves a photo record by path, returns nil if not found.
func (s *Store) Get(ctx context.Context, path string) (*store.Photo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT file_path, mtime, size, location, tags, detailed_caption, embedding
		FROM images WHERE file_path = ?
	`, path)

	photo, err := scanPhoto(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get photo %s: %w", path, err)
	}
	return photo, nil
}

// GetAll returns a snapshot of all stored photo records.
func (s *Store) GetAll(ctx context.Context) ([]store.Photo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, mtime, size, location, tags, detailed_caption, embedding
		FROM images
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query photos: %w", err)
	}
	defer rows.Close()

	var photos []store.Photo
	for rows.Next() {
		photo, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo row: %w", err)
		}
		photos = append(photos, *photo)
	}
	return photos, rows.Err()
}

// Put upserts a photo record keyed by path.
func (s *Store) Put(ctx context.Context, photo *store.Photo) error {
	var emb []byte
	if len(photo.Embedding) > 0 {
		emb = store.MarshalVector(photo.Embedding)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO images (file_path, mtime, size, location, tags, detailed_caption, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, photo.Path, photo.ModTime.UTC().Format(time.RFC3339Nano), photo.Size,
		photo.Location, photo.Tags, photo.Caption, emb)
	if err != nil {
		return fmt.Errorf("failed to upsert photo %s: %w", photo.Path, err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPhoto(row rowScanner) (*store.Photo, error) {
	var photo store.Photo
	var mtime string
	var emb []byte
	if err := row.Scan(&photo.Path, &mtime, &photo.Size, &photo.Location,
		&photo.Tags, &photo.Caption, &emb); err != nil {
		return nil, err
	}

	t, err := time.Parse(time.RFC3339Nano, mtime)
	if err != nil {
		return nil, fmt.Errorf("invalid mtime %q: %w", mtime, err)
	}
	photo.ModTime = t

	if len(emb) > 0 {
		vec, err := store.UnmarshalVector(emb)
		if err != nil {
			return nil, fmt.Errorf("invalid embedding for %s: %w", photo.Path, err)
		}
		photo.Embedding = vec
	}
	return &photo, nil
}
