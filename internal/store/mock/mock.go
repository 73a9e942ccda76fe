// Package mock provides an in-memory implementation of store.Store for
// testing, with error injection fields.
package mock

import (
	"bytes"
	"context"
	"sync"

	"github.com/pixelhoard/gallery/internal/store"
)

// Store is an in-memory metadata store. The zero value is not usable; call
// New.
type Store struct {
	mu     sync.RWMutex
	photos map[string]store.Photo
	faces  map[string][]store.Face

	// Error injection
	GetError    error
	GetAllError error
	PutError    error
	FaceError   error

	// PutCalls records the paths written via Put, in order.
	PutCalls []string
}

// New creates an empty mock store.
func New() *Store {
	return &Store{
		photos: make(map[string]store.Photo),
		faces:  make(map[string][]store.Face),
	}
}

// Get retrieves a photo record by path, returns nil if not found.
func (m *Store) Get(ctx context.Context, path string) (*store.Photo, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	photo, ok := m.photos[path]
	if !ok {
		return nil, nil
	}
	return &photo, nil
}

// GetAll returns a snapshot of all stored photo records.
func (m *Store) GetAll(ctx context.Context) ([]store.Photo, error) {
	if m.GetAllError != nil {
		return nil, m.GetAllError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	photos := make([]store.Photo, 0, len(m.photos))
	for _, photo := range m.photos {
		photos = append(photos, photo)
	}
	return photos, nil
}

// Put upserts a photo record keyed by path.
func (m *Store) Put(ctx context.Context, photo *store.Photo) error {
	if m.PutError != nil {
		return m.PutError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.photos[photo.Path] = *photo
	m.PutCalls = append(m.PutCalls, photo.Path)
	return nil
}

// AddFace appends a face record.
func (m *Store) AddFace(ctx context.Context, face store.Face) error {
	if m.FaceError != nil {
		return m.FaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.faces[face.Path] = append(m.faces[face.Path], face)
	return nil
}

// GetFaces retrieves all faces stored for a photo.
func (m *Store) GetFaces(ctx context.Context, path string) ([]store.Face, error) {
	if m.FaceError != nil {
		return nil, m.FaceError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	faces := make([]store.Face, len(m.faces[path]))
	copy(faces, m.faces[path])
	return faces, nil
}

// RenameFace assigns a name to the face matching path and the exact encoding
// bytes.
func (m *Store) RenameFace(ctx context.Context, path string, encoding []float32, name string) error {
	if m.FaceError != nil {
		return m.FaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	want := store.MarshalVector(encoding)
	for i, face := range m.faces[path] {
		if bytes.Equal(store.MarshalVector(face.Encoding), want) {
			m.faces[path][i].Name = name
		}
	}
	return nil
}

// ClearFaces removes all face records for a photo.
func (m *Store) ClearFaces(ctx context.Context, path string) error {
	if m.FaceError != nil {
		return m.FaceError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.faces, path)
	return nil
}

// Close is a no-op.
func (m *Store) Close() error {
	return nil
}
