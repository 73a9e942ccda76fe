// Package postgres implements store.Store on PostgreSQL with pgvector for
// caption embeddings. Intended for shared deployments; the sqlite backend
// remains the default for a single machine.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/pixelhoard/gallery/internal/store"
)

// EmbeddingDim is the fixed dimension of caption embeddings stored in the
// vector column.
const EmbeddingDim = 768

// Store is a PostgreSQL-backed metadata store.
type Store struct {
	db *sql.DB
}

// Open connects to the database at url and runs migrations.
func Open(ctx context.Context, url string) (*Store, error) {
	if url == "" {
		return nil, fmt.Errorf("DATABASE_URL not set")
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	// mtime is kept as unix nanoseconds; a timestamptz column truncates to
	// microseconds and freshness checks compare the exact stat mtime.
	createImages := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS images (
			file_path        TEXT PRIMARY KEY,
			mtime_ns         BIGINT NOT NULL,
			size             BIGINT NOT NULL,
			location         TEXT NOT NULL DEFAULT 'Unknown',
			tags             TEXT NOT NULL DEFAULT '',
			detailed_caption TEXT NOT NULL DEFAULT '',
			embedding        vector(%d)
		)
	`, EmbeddingDim)
	if _, err := s.db.ExecContext(ctx, createImages); err != nil {
		return fmt.Errorf("failed to create images table: %w", err)
	}

	createFaces := `
		CREATE TABLE IF NOT EXISTS faces (
			id        BIGSERIAL PRIMARY KEY,
			file_path TEXT NOT NULL,
			encoding  BYTEA NOT NULL,
			name      TEXT,
			top_px    INTEGER NOT NULL DEFAULT 0,
			right_px  INTEGER NOT NULL DEFAULT 0,
			bottom_px INTEGER NOT NULL DEFAULT 0,
			left_px   INTEGER NOT NULL DEFAULT 0
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
		SELECT file_path, mtime_ns, size, location, tags, detailed_caption, embedding
		FROM images WHERE file_path = $1
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
		SELECT file_path, mtime_ns, size, location, tags, detailed_caption, embedding
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
	var emb any
	if len(photo.Embedding) == EmbeddingDim {
		emb = pgvector.NewVector(photo.Embedding)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images (file_path, mtime_ns, size, location, tags, detailed_caption, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (file_path) DO UPDATE SET
			mtime_ns = EXCLUDED.mtime_ns,
			size = EXCLUDED.size,
			location = EXCLUDED.location,
			tags = EXCLUDED.tags,
			detailed_caption = EXCLUDED.detailed_caption,
			embedding = EXCLUDED.embedding
	`, photo.Path, photo.ModTime.UnixNano(), photo.Size, photo.Location, photo.Tags, photo.Caption, emb)
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
	var mtimeNanos int64
	var vec *pgvector.Vector
	if err := row.Scan(&photo.Path, &mtimeNanos, &photo.Size,
		&photo.Location, &photo.Tags, &photo.Caption, &vec); err != nil {
		return nil, err
	}
	photo.ModTime = time.Unix(0, mtimeNanos)
	if vec != nil {
		photo.Embedding = vec.Slice()
	}
	return &photo, nil
}
