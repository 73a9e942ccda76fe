package pipeline

import (
	"context"
	"fmt"
	"os"

	"github.com/pixelhoard/gallery/internal/store"
)

// CaptionFor returns the detailed caption for a single photo with
// produce-or-fetch-cached semantics: a stored caption for an unchanged file
// is served directly with no model call; otherwise the caption is generated
// once and persisted. Intended to run on the dedicated on-demand caption
// worker, never on the foreground thread.
func (e *Enricher) CaptionFor(ctx context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat %s: %w", path, err)
	}

	record, err := e.store.Get(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to read record for %s: %w", path, err)
	}
	if record != nil && record.Fresh(info.ModTime()) && record.Caption != "" {
		return record.Caption, nil
	}

	imageData, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image %s: %w", path, err)
	}

	caption, err := e.captions.Caption(ctx, imageData)
	if err != nil {
		return "", fmt.Errorf("failed to generate caption for %s: %w", path, err)
	}

	if record == nil {
		record = &store.Photo{
			Path:     path,
			Location: "Unknown",
		}
	}
	record.ModTime = info.ModTime()
	record.Size = info.Size()
	record.Caption = caption

	if err := e.store.Put(ctx, record); err != nil {
		return "", fmt.Errorf("failed to store caption for %s: %w", path, err)
	}
	return caption, nil
}
