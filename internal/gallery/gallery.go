// Package gallery holds the resolved in-memory photo collection for one
// loaded folder and decides, per photo, whether cached metadata can be
// reused or must be recomputed.
package gallery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/pixelhoard/gallery/internal/scanner"
	"github.com/pixelhoard/gallery/internal/store"
)

// EmptyFolderError reports a scan that matched no image files. This is a
// distinct condition from "still loading" and is surfaced to the user.
type EmptyFolderError struct {
	Path string
}

func (e *EmptyFolderError) Error() string {
	return fmt.Sprintf("no images found in folder: %s", e.Path)
}

// SortMode selects the display order of the resolved collection.
type SortMode int

const (
	SortByDate SortMode = iota // modification time, most recent first
	SortBySize                 // byte size, largest first
	SortByName                 // path, ascending case-insensitive
)

// ParseSortMode maps a user-supplied sort name to a SortMode.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(s) {
	case "date":
		return SortByDate, nil
	case "size":
		return SortBySize, nil
	case "name":
		return SortByName, nil
	}
	return 0, fmt.Errorf("unknown sort mode: %s (supported: date, size, name)", s)
}

func (m SortMode) String() string {
	switch m {
	case SortByDate:
		return "date"
	case SortBySize:
		return "size"
	case SortByName:
		return "name"
	}
	return "unknown"
}

// Summary is one resolved photo in the display collection.
type Summary struct {
	Path     string
	ModTime  time.Time
	Size     int64
	Location string
	Tags     string
	Caption  string

	// NeedsRefresh marks photos on the recompute branch: no stored record
	// existed, the stored mtime differed from the filesystem's, or the
	// record carried no tags. Derived fields are cleared pending
	// asynchronous enrichment.
	NeedsRefresh bool
}

// Gallery owns the resolved collection. It is intended for use from a single
// foreground goroutine; background pipelines communicate through the store
// and completion events, never by mutating the collection directly.
type Gallery struct {
	store      store.Store
	photos     []Summary
	sortMode   SortMode
	folder     string
	generation atomic.Uint64
}

// New creates a gallery over the given store. The initial sort mode is by
// date.
func New(st store.Store) *Gallery {
	return &Gallery{store: st, sortMode: SortByDate}
}

// Load scans folder, reconciles each file against a one-shot store snapshot
// and replaces the resolved collection. It returns the new load generation;
// pipeline writes tagged with an older generation must be discarded.
//
// Photos on the recompute branch are immediately present in the collection
// with placeholder fields, so the caller is never blocked on model latency.
func (g *Gallery) Load(ctx context.Context, folder string) (uint64, error) {
	entries, err := scanner.Scan(folder)
	if err != nil {
		return g.generation.Load(), err
	}
	if len(entries) == 0 {
		// The folder itself was readable, so the empty view replaces any
		// previously loaded collection.
		g.folder = folder
		g.photos = nil
		return g.generation.Add(1), &EmptyFolderError{Path: folder}
	}

	// One snapshot per load; per-path Get calls would race with in-flight
	// pipeline writes from a previous load.
	stored, err := g.store.GetAll(ctx)
	if err != nil {
		return g.generation.Load(), fmt.Errorf("failed to read store snapshot: %w", err)
	}
	byPath := make(map[string]store.Photo, len(stored))
	for _, photo := range stored {
		byPath[photo.Path] = photo
	}

	photos := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		photos = append(photos, reconcile(entry, byPath))
	}

	g.folder = folder
	g.photos = photos
	g.sortPhotos()
	return g.generation.Add(1), nil
}

// reconcile resolves one scanned file against the store snapshot.
func reconcile(entry scanner.Entry, stored map[string]store.Photo) Summary {
	if rec, ok := stored[entry.Path]; ok && rec.Fresh(entry.ModTime) {
		if rec.Tags != "" {
			return Summary{
				Path:     entry.Path,
				ModTime:  entry.ModTime,
				Size:     entry.Size,
				Location: rec.Location,
				Tags:     rec.Tags,
				Caption:  rec.Caption,
			}
		}
		// Caption-only record, written by an on-demand caption request for
		// a photo that was never indexed. The file is unchanged, so the
		// caption survives while tags and location still get computed.
		return Summary{
			Path:         entry.Path,
			ModTime:      entry.ModTime,
			Size:         entry.Size,
			Location:     "Unknown",
			Caption:      rec.Caption,
			NeedsRefresh: true,
		}
	}
	return Summary{
		Path:         entry.Path,
		ModTime:      entry.ModTime,
		Size:         entry.Size,
		Location:     "Unknown",
		NeedsRefresh: true,
	}
}

// SetSort changes the sort mode and re-applies it to the current collection.
// The mode persists across reloads.
func (g *Gallery) SetSort(mode SortMode) {
	g.sortMode = mode
	g.sortPhotos()
}

// SortMode returns the current sort mode.
func (g *Gallery) SortMode() SortMode {
	return g.sortMode
}

func (g *Gallery) sortPhotos() {
	switch g.sortMode {
	case SortByDate:
		sort.SliceStable(g.photos, func(i, j int) bool {
			return g.photos[i].ModTime.After(g.photos[j].ModTime)
		})
	case SortBySize:
		sort.SliceStable(g.photos, func(i, j int) bool {
			return g.photos[i].Size > g.photos[j].Size
		})
	case SortByName:
		sort.SliceStable(g.photos, func(i, j int) bool {
			return strings.ToLower(g.photos[i].Path) < strings.ToLower(g.photos[j].Path)
		})
	}
}

// Photos returns a copy of the resolved collection in display order. The
// copy stays valid after later SetSort or Refresh calls, so it is safe to
// hand to a background pipeline while the foreground keeps re-sorting.
func (g *Gallery) Photos() []Summary {
	return append([]Summary(nil), g.photos...)
}

// Folder returns the folder of the last successful load.
func (g *Gallery) Folder() string {
	return g.folder
}

// Generation returns the current load generation.
func (g *Gallery) Generation() uint64 {
	return g.generation.Load()
}

// Refresh re-reads the store snapshot and merges enriched fields into the
// collection, preserving order and sort mode. Call after a pipeline
// completion signal; early reads during an in-flight pipeline may be stale.
func (g *Gallery) Refresh(ctx context.Context) error {
	stored, err := g.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to read store snapshot: %w", err)
	}
	byPath := make(map[string]store.Photo, len(stored))
	for _, photo := range stored {
		byPath[photo.Path] = photo
	}

	for i := range g.photos {
		rec, ok := byPath[g.photos[i].Path]
		if !ok || !rec.Fresh(g.photos[i].ModTime) {
			continue
		}
		g.photos[i].Location = rec.Location
		g.photos[i].Tags = rec.Tags
		g.photos[i].Caption = rec.Caption
		g.photos[i].NeedsRefresh = false
	}
	return nil
}
