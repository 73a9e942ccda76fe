package postgres

import (
	"context"
	"fmt"

	"github.com/pixelhoard/gallery/internal/store"
)

// AddFace appends a face record for a photo.
func (s *Store) AddFace(ctx context.Context, face store.Face) error {
	var name any
	if face.Name != "" {
		name = face.Name
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO faces (file_path, encoding, name, top_px, right_px, bottom_px, left_px)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, face.Path, store.MarshalVector(face.Encoding), name,
		face.Box.Top, face.Box.Right, face.Box.Bottom, face.Box.Left)
	if err != nil {
		return fmt.Errorf("failed to add face for %s: %w", face.Path, err)
	}
	return nil
}

// GetFaces retrieves all faces stored for a photo.
func (s *Store) GetFaces(ctx context.Context, path string) ([]store.Face, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT file_path, encoding, name, top_px, right_px, bottom_px, left_px
		FROM faces WHERE file_path = $1 ORDER BY id
	`, path)
	if err != nil {
		return nil, fmt.Errorf("failed to query faces for %s: %w", path, err)
	}
	defer rows.Close()

	var faces []store.Face
	for rows.Next() {
		var face store.Face
		var enc []byte
		var name *string
		if err := rows.Scan(&face.Path, &enc, &name,
			&face.Box.Top, &face.Box.Right, &face.Box.Bottom, &face.Box.Left); err != nil {
			return nil, fmt.Errorf("failed to scan face row: %w", err)
		}
		vec, err := store.UnmarshalVector(enc)
		if err != nil {
			return nil, fmt.Errorf("invalid face encoding for %s: %w", path, err)
		}
		face.Encoding = vec
		if name != nil {
			face.Name = *name
		}
		faces = append(faces, face)
	}
	return faces, rows.Err()
}

// RenameFace assigns a name to the face matching path and the exact encoding
// bytes.
func (s *Store) RenameFace(ctx context.Context, path string, encoding []float32, name string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE faces SET name = $1 WHERE file_path = $2 AND encoding = $3
	`, name, path, store.MarshalVector(encoding))
	if err != nil {
		return fmt.Errorf("failed to rename face for %s: %w", path, err)
	}
	return nil
}

// ClearFaces removes all face records for a photo.
func (s *Store) ClearFaces(ctx context.Context, path string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM faces WHERE file_path = $1`, path)
	if err != nil {
		return fmt.Errorf("failed to clear faces for %s: %w", path, err)
	}
	return nil
}
