package scanner

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsImage(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
	}{
		{"photo.jpg", true},
		{"photo.JPG", true},
		{"photo.jpeg", true},
		{"photo.png", true},
		{"photo.gif", true},
		{"photo.bmp", false},
		{"photo.txt", false},
		{"photo", false},
		{"jpg", false},
		{"archive.jpg.zip", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsImage(tc.name); got != tc.expected {
				t.Errorf("IsImage(%q) = %v; want %v", tc.name, got, tc.expected)
			}
		})
	}
}

func TestScanRecursive(t *testing.T) {
	dir := t.TempDir()

	mustWrite(t, filepath.Join(dir, "a.jpg"), "aaa")
	mustWrite(t, filepath.Join(dir, "notes.txt"), "not an image")
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	mustWrite(t, filepath.Join(sub, "b.PNG"), "bbbbb")

	entries, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Scan found %d entries; want 2", len(entries))
	}

	byPath := make(map[string]Entry)
	for _, e := range entries {
		byPath[e.Path] = e
	}
	a, ok := byPath[filepath.Join(dir, "a.jpg")]
	if !ok {
		t.Fatal("a.jpg not found in scan results")
	}
	if a.Size != 3 {
		t.Errorf("a.jpg size = %d; want 3", a.Size)
	}
	if a.ModTime.IsZero() {
		t.Error("a.jpg mtime is zero")
	}
	if _, ok := byPath[filepath.Join(sub, "b.PNG")]; !ok {
		t.Error("b.PNG in subdirectory not found in scan results")
	}
}

func TestScanDirectoryErrors(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "plain.jpg")
	mustWrite(t, file, "x")

	tests := []struct {
		name   string
		path   string
		reason Reason
	}{
		{"missing folder", filepath.Join(dir, "does-not-exist"), NotFound},
		{"file instead of folder", file, NotADirectory},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Scan(tc.path)
			var dirErr *DirectoryError
			if !errors.As(err, &dirErr) {
				t.Fatalf("Scan(%q) error = %v; want DirectoryError", tc.path, err)
			}
			if dirErr.Reason != tc.reason {
				t.Errorf("reason = %v; want %v", dirErr.Reason, tc.reason)
			}
			if dirErr.Path != tc.path {
				t.Errorf("path = %q; want %q", dirErr.Path, tc.path)
			}
		})
	}
}

func TestScanEmptyFolder(t *testing.T) {
	dir := t.TempDir()
	mustWrite(t, filepath.Join(dir, "readme.md"), "no images here")

	entries, err := Scan(dir)
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Scan found %d entries; want 0", len(entries))
	}
}

func TestReasonString(t *testing.T) {
	tests := []struct {
		reason   Reason
		expected string
	}{
		{NotFound, "folder not found"},
		{NotADirectory, "path is not a directory"},
		{PermissionDenied, "permission denied"},
		{Reason(99), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.reason.String(); got != tc.expected {
			t.Errorf("Reason(%d).String() = %q; want %q", tc.reason, got, tc.expected)
		}
	}
}

func mustWrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
