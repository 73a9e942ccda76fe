// Package scanner enumerates candidate image files under a directory root.
package scanner

import (
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Reason classifies why a directory cannot be scanned.
type Reason int

const (
	NotFound Reason = iota
	NotADirectory
	PermissionDenied
)

func (r Reason) String() string {
	switch r {
	case NotFound:
		return "folder not found"
	case NotADirectory:
		return "path is not a directory"
	case PermissionDenied:
		return "permission denied"
	}
	return "unknown"
}

// DirectoryError reports an unusable scan root. The three conditions are
// checked before any traversal and surfaced distinctly to the user.
type DirectoryError struct {
	Path   string
	Reason Reason
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Path)
}

// Entry is one scanned image file with its filesystem stat info.
type Entry struct {
	Path    string
	ModTime time.Time
	Size    int64
}

// imageExts is the fixed allow-list of image extensions, matched
// case-insensitively.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
}

// IsImage reports whether the file name has an allowed image extension.
func IsImage(name string) bool {
	return imageExts[strings.ToLower(filepath.Ext(name))]
}

// Scan walks root recursively and returns an entry for every image file.
// Traversal order is filesystem-dependent; sorting is the caller's job.
// Unreadable individual files are logged and skipped, never fatal.
func Scan(root string) ([]Entry, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &DirectoryError{Path: root, Reason: NotFound}
		}
		if os.IsPermission(err) {
			return nil, &DirectoryError{Path: root, Reason: PermissionDenied}
		}
		return nil, fmt.Errorf("failed to stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, &DirectoryError{Path: root, Reason: NotADirectory}
	}
	if f, err := os.Open(root); err != nil {
		if os.IsPermission(err) {
			return nil, &DirectoryError{Path: root, Reason: PermissionDenied}
		}
		return nil, fmt.Errorf("failed to open %s: %w", root, err)
	} else {
		f.Close()
	}

	var entries []Entry
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsImage(d.Name()) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Printf("skipping %s: %v", path, err)
			return nil
		}
		entries = append(entries, Entry{
			Path:    path,
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	return entries, nil
}
