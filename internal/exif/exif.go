// Package exif extracts GPS location metadata from image files.
package exif

import (
	"fmt"
	"os"

	"github.com/rwcarlsen/goexif/exif"
)

// UnknownLocation is stored when a photo carries no usable GPS data.
const UnknownLocation = "Unknown"

// Location returns the photo's GPS position formatted as "lat, lng", or
// UnknownLocation when the file has no EXIF block or no GPS tags. Missing
// GPS data is the normal case, not an error.
func Location(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return UnknownLocation
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return UnknownLocation
	}

	lat, lng, err := x.LatLong()
	if err != nil {
		return UnknownLocation
	}

	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
