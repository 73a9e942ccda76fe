// Package ai provides vision-model backends that turn an image into tags or
// a detailed caption. Backends are opaque to the rest of the system; a
// backend that fails to initialize degrades to placeholder output instead of
// propagating errors into the pipelines.
package ai

import "context"

// CaptionProvider defines the interface for caption/tag backends. All calls
// are potentially long-running and must execute off the foreground thread.
type CaptionProvider interface {
	Name() string
	// Tags produces a short comma-separated tag list describing the image.
	Tags(ctx context.Context, imageData []byte) (string, error)
	// Caption produces a detailed natural-language caption for the image.
	Caption(ctx context.Context, imageData []byte) (string, error)
}

// Placeholder values stored when no caption backend is available. They keep
// pipelines running instead of failing on every photo.
const (
	TagsUnavailable    = "tags unavailable"
	CaptionUnavailable = "caption unavailable"
)

// Unavailable is the degraded backend used when no provider could be
// initialized. It returns placeholder values and never errors.
type Unavailable struct{}

func (Unavailable) Name() string { return "unavailable" }

func (Unavailable) Tags(ctx context.Context, imageData []byte) (string, error) {
	return TagsUnavailable, nil
}

func (Unavailable) Caption(ctx context.Context, imageData []byte) (string, error) {
	return CaptionUnavailable, nil
}
