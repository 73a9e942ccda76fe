// Package face detects faces in photos through a sidecar detection server.
// Each detection carries a bounding box in native pixel coordinates of the
// original image and a fixed-length encoding vector.
package face

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/pixelhoard/gallery/internal/store"
)

const defaultDetectURL = "http://localhost:8100"

// Detection is one detected face.
type Detection struct {
	Box      store.Box
	Encoding []float32
}

// Detector finds faces in an image. Calls are potentially long-running and
// must execute off the foreground thread.
type Detector interface {
	Detect(ctx context.Context, imageData []byte) ([]Detection, error)
}

// Client detects faces using the detection server.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a new face detection client.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultDetectURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  &http.Client{},
	}
}

// detectResponse represents the response from the detection server.
type detectResponse struct {
	Faces []struct {
		Top      int       `json:"top"`
		Right    int       `json:"right"`
		Bottom   int       `json:"bottom"`
		Left     int       `json:"left"`
		Encoding []float32 `json:"encoding"`
	} `json:"faces"`
}

// Detect posts the image to the detection server and returns all detected
// faces. Detections without an encoding are dropped.
func (c *Client) Detect(ctx context.Context, imageData []byte) ([]Detection, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", "image.jpg")
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/detect", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var parsed detectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	detections := make([]Detection, 0, len(parsed.Faces))
	for _, f := range parsed.Faces {
		if len(f.Encoding) == 0 {
			continue
		}
		detections = append(detections, Detection{
			Box:      store.Box{Top: f.Top, Right: f.Right, Bottom: f.Bottom, Left: f.Left},
			Encoding: f.Encoding,
		})
	}
	return detections, nil
}
