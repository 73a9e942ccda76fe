package exif

import (
	"bytes"
	"image"
	"image/jpeg"
	"os"
	"path/filepath"
	"testing"
)

func TestLocationMissingFile(t *testing.T) {
	if got := Location(filepath.Join(t.TempDir(), "gone.jpg")); got != UnknownLocation {
		t.Errorf("Location for missing file = %q; want %q", got, UnknownLocation)
	}
}

func TestLocationNotAnImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jpg")
	if err := os.WriteFile(path, []byte("not a jpeg at all"), 0o644); err != nil {
		t.Fatal(err)
	}
	if got := Location(path); got != UnknownLocation {
		t.Errorf("Location for non-image = %q; want %q", got, UnknownLocation)
	}
}

func TestLocationJPEGWithoutExif(t *testing.T) {
	// A JPEG encoded by the standard library carries no EXIF block at all.
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8)), nil); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "noexif.jpg")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	if got := Location(path); got != UnknownLocation {
		t.Errorf("Location for EXIF-less JPEG = %q; want %q", got, UnknownLocation)
	}
}
