// Package store defines the metadata persistence layer shared by the
// indexing pipelines and the query resolver. Photo and face records are
// exclusively owned by the store; the in-memory collection used for display
// is a read-derived cache rebuilt on every folder load.
package store

import (
	"context"
)

// PhotoReader provides read-only access to photo records.
type PhotoReader interface {
	// Get retrieves a photo record by path, returns nil if not found.
	Get(ctx context.Context, path string) (*Photo, error)
	// GetAll returns a snapshot of all stored photo records.
	GetAll(ctx context.Context) ([]Photo, error)
}

// PhotoWriter provides write access to photo records.
type PhotoWriter interface {
	PhotoReader

	// Put upserts a photo record keyed by path.
	Put(ctx context.Context, photo *Photo) error
}

// FaceReader provides read-only access to face records.
type FaceReader interface {
	// GetFaces retrieves all faces stored for a photo.
	GetFaces(ctx context.Context, path string) ([]Face, error)
}

// FaceWriter provides write access to face records.
type FaceWriter interface {
	FaceReader

	// AddFace appends a face record. Duplicate detections across repeated
	// runs are not deduplicated at write time; callers clear a photo's
	// faces before re-detecting.
	AddFace(ctx context.Context, face Face) error
	// RenameFace assigns a name to the face matching path and the exact
	// encoding bytes.
	RenameFace(ctx context.Context, path string, encoding []float32, name string) error
	// ClearFaces removes all face records for a photo.
	ClearFaces(ctx context.Context, path string) error
}

// Store combines photo and face persistence. Implementations must serialize
// concurrent writes to the same logical record; readers may observe stale
// data but never a partially written record.
type Store interface {
	PhotoWriter
	FaceWriter

	Close() error
}
