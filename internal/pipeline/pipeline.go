// Package pipeline runs the asynchronous enrichment workers that augment
// stored photo records with derived data (tags, location, caption
// embeddings, faces) without blocking the foreground photo list.
//
// Each pipeline run is tagged with the load generation it was started for.
// Writes are discarded once a newer folder load supersedes that generation,
// so a stale in-flight run can never contaminate a freshly loaded view.
package pipeline

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pixelhoard/gallery/internal/ai"
	"github.com/pixelhoard/gallery/internal/embed"
	"github.com/pixelhoard/gallery/internal/exif"
	"github.com/pixelhoard/gallery/internal/face"
	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/store"
)

// Name identifies one of the enrichment pipelines.
type Name string

const (
	Metadata Name = "metadata"
	Faces    Name = "faces"
)

// Event is one progress or completion message emitted by a pipeline run.
// Events are consumed by the foreground loop; a consumer must re-read the
// store after the final event for a consistent view.
type Event struct {
	Pipeline   Name
	Generation uint64
	Processed  int
	Total      int
	Path       string
	Err        error // per-photo error, recovered; the run continues
	Done       bool  // final event of the run
	Stale      bool  // run was superseded by a newer load and stopped early
}

// Options tags a pipeline run with its load generation. Current reports the
// latest generation; when it moves past Generation the run stops writing.
type Options struct {
	Generation uint64
	Current    func() uint64
}

func (o Options) stale() bool {
	return o.Current != nil && o.Current() != o.Generation
}

// Enricher owns the collaborator handles shared by all pipeline runs. It is
// constructed once at application start.
type Enricher struct {
	store    store.Store
	captions ai.CaptionProvider
	embedder embed.Provider // may be nil when the embedding server is down
	detector face.Detector  // may be nil when face detection is unavailable
}

// New creates an enricher. captions must be non-nil (use ai.Unavailable for
// the degraded mode); embedder and detector may be nil.
func New(st store.Store, captions ai.CaptionProvider, embedder embed.Provider, detector face.Detector) *Enricher {
	return &Enricher{
		store:    st,
		captions: captions,
		embedder: embedder,
		detector: detector,
	}
}

// HasDetector reports whether a face detection backend is configured.
func (e *Enricher) HasDetector() bool {
	return e.detector != nil
}

// RunMetadata starts the metadata/caption pipeline over the resolved
// collection and returns its event channel. Photos are processed strictly in
// collection order; a per-photo failure is logged and the run continues.
// Photos whose stored record was reused verbatim are skipped without a model
// call, which makes a re-run over an unchanged folder a no-op.
func (e *Enricher) RunMetadata(ctx context.Context, photos []gallery.Summary, opts Options) <-chan Event {
	events := make(chan Event, len(photos)+1)

	go func() {
		defer close(events)
		total := len(photos)

		for i, photo := range photos {
			if opts.stale() {
				events <- Event{Pipeline: Metadata, Generation: opts.Generation, Processed: i, Total: total, Done: true, Stale: true}
				return
			}
			if ctx.Err() != nil {
				events <- Event{Pipeline: Metadata, Generation: opts.Generation, Processed: i, Total: total, Done: true, Err: ctx.Err()}
				return
			}

			var err error
			if photo.NeedsRefresh {
				err = e.enrichPhoto(ctx, photo, opts)
				if err != nil {
					log.Printf("metadata pipeline: %s: %v", photo.Path, err)
				}
			}

			events <- Event{
				Pipeline:   Metadata,
				Generation: opts.Generation,
				Processed:  i + 1,
				Total:      total,
				Path:       photo.Path,
				Err:        err,
			}
		}

		events <- Event{Pipeline: Metadata, Generation: opts.Generation, Processed: total, Total: total, Done: true}
	}()

	return events
}

// enrichPhoto computes location, tags and the search embedding for one photo
// and writes the combined record back.
func (e *Enricher) enrichPhoto(ctx context.Context, photo gallery.Summary, opts Options) error {
	imageData, err := os.ReadFile(photo.Path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	location := exif.Location(photo.Path)

	tags, err := e.captions.Tags(ctx, imageData)
	if err != nil {
		return fmt.Errorf("failed to generate tags: %w", err)
	}

	record := &store.Photo{
		Path:     photo.Path,
		ModTime:  photo.ModTime,
		Size:     photo.Size,
		Location: location,
		Tags:     tags,
		Caption:  photo.Caption,
	}

	if e.embedder != nil {
		if text := record.SearchText(); text != "" && text != ai.TagsUnavailable {
			vec, err := e.embedder.EncodeText(ctx, text)
			if err != nil {
				// The embedding only feeds similarity search; the record
				// is still worth persisting without it.
				log.Printf("metadata pipeline: %s: embedding failed: %v", photo.Path, err)
			} else {
				record.Embedding = vec
			}
		}
	}

	// The generation may have moved while the model calls were in flight.
	if opts.stale() {
		return nil
	}
	if err := e.store.Put(ctx, record); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// RunFaces starts the face detection pipeline over the resolved collection
// and returns its event channel. Duplicate detections across repeated runs
// on the same photo are not deduplicated at write time; callers that re-open
// a photo's detail view clear its faces first.
func (e *Enricher) RunFaces(ctx context.Context, photos []gallery.Summary, opts Options) <-chan Event {
	events := make(chan Event, len(photos)+1)

	go func() {
		defer close(events)
		total := len(photos)

		if e.detector == nil {
			events <- Event{Pipeline: Faces, Generation: opts.Generation, Total: total, Done: true}
			return
		}

		for i, photo := range photos {
			if opts.stale() {
				events <- Event{Pipeline: Faces, Generation: opts.Generation, Processed: i, Total: total, Done: true, Stale: true}
				return
			}
			if ctx.Err() != nil {
				events <- Event{Pipeline: Faces, Generation: opts.Generation, Processed: i, Total: total, Done: true, Err: ctx.Err()}
				return
			}

			err := e.detectFaces(ctx, photo.Path, opts)
			if err != nil {
				log.Printf("face pipeline: %s: %v", photo.Path, err)
			}

			events <- Event{
				Pipeline:   Faces,
				Generation: opts.Generation,
				Processed:  i + 1,
				Total:      total,
				Path:       photo.Path,
				Err:        err,
			}
		}

		events <- Event{Pipeline: Faces, Generation: opts.Generation, Processed: total, Total: total, Done: true}
	}()

	return events
}

// detectFaces runs detection for one photo and appends a face record per
// detection that carries an encoding.
func (e *Enricher) detectFaces(ctx context.Context, path string, opts Options) error {
	imageData, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	detections, err := e.detector.Detect(ctx, imageData)
	if err != nil {
		return fmt.Errorf("face detection failed: %w", err)
	}

	for _, d := range detections {
		if opts.stale() {
			return nil
		}
		err := e.store.AddFace(ctx, store.Face{
			Path:     path,
			Encoding: d.Encoding,
			Box:      d.Box,
		})
		if err != nil {
			return fmt.Errorf("failed to store face: %w", err)
		}
	}
	return nil
}
