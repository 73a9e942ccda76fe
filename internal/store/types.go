package store

import (
	"time"
)

// Photo represents the persisted metadata record for a single image file.
// The absolute file path is the record's identity; writes are upserts keyed
// by path.
type Photo struct {
	Path     string
	ModTime  time.Time
	Size     int64
	Location string // GPS location string, "Unknown" when not resolvable
	Tags     string // comma-separated free-text tags
	Caption  string // detailed caption, empty until generated on demand

	// Embedding of the caption/tag text, used for semantic search.
	// May be empty when no embedding has been computed yet.
	Embedding []float32
}

// Fresh reports whether the stored record is still valid for a file with the
// given modification time. Staleness triggers recomputation of derived
// fields.
func (p *Photo) Fresh(modTime time.Time) bool {
	return p.ModTime.Equal(modTime)
}

// SearchText returns the text that represents this photo for semantic
// search. The detailed caption wins over tags when present.
func (p *Photo) SearchText() string {
	if p.Caption != "" {
		return p.Caption
	}
	return p.Tags
}

// Box is a face bounding box in pixel coordinates of the original,
// un-scaled image.
type Box struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// IsZero reports whether the box is unset. A detection with all-zero
// coordinates is treated as invalid.
func (b Box) IsZero() bool {
	return b.Top == 0 && b.Right == 0 && b.Bottom == 0 && b.Left == 0
}

// Face represents one detected face in a photo. The (path, encoding) pair is
// conceptually unique; encoding equality is exact-bytes comparison, not
// distance-based.
type Face struct {
	Path     string
	Encoding []float32
	Name     string // empty until assigned by the user
	Box      Box
}
