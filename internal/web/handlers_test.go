package web

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pixelhoard/gallery/internal/ai"
	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/pipeline"
	"github.com/pixelhoard/gallery/internal/search"
	"github.com/pixelhoard/gallery/internal/store"
	"github.com/pixelhoard/gallery/internal/store/mock"
)

func newTestServer(t *testing.T, st *mock.Store) *Server {
	t.Helper()
	g := gallery.New(st)
	e := pipeline.New(st, ai.Unavailable{}, nil, nil)
	r := search.NewResolver(st, nil)
	return NewServer("127.0.0.1", 0, st, g, e, r)
}

func doJSON(t *testing.T, s *Server, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestServer(t, mock.New())
	rec := doJSON(t, s, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d; want 200", rec.Code)
	}
}

func TestLoadEndpoint(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, mock.New())
	rec := doJSON(t, s, http.MethodPost, "/api/v1/load", map[string]string{"folder": dir})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d; want 202: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		JobID      string `json:"job_id"`
		Generation uint64 `json:"generation"`
		Count      int    `json:"count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 1 || resp.JobID == "" {
		t.Errorf("response = %+v", resp)
	}

	// Poll the job until the background pipelines finish.
	deadline := time.Now().Add(10 * time.Second)
	for {
		status := doJSON(t, s, http.MethodGet, "/api/v1/jobs/"+resp.JobID, nil)
		if status.Code != http.StatusOK {
			t.Fatalf("job status = %d: %s", status.Code, status.Body.String())
		}
		var job JobStatus
		if err := json.Unmarshal(status.Body.Bytes(), &job); err != nil {
			t.Fatal(err)
		}
		if job.Done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job never completed: %s", status.Body.String())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestLoadEndpointBadFolder(t *testing.T) {
	s := newTestServer(t, mock.New())

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing folder", map[string]string{}},
		{"nonexistent folder", map[string]string{"folder": "/does/not/exist"}},
		{"empty folder", map[string]string{"folder": t.TempDir()}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, s, http.MethodPost, "/api/v1/load", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d; want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestJobStatusUnknown(t *testing.T) {
	s := newTestServer(t, mock.New())
	rec := doJSON(t, s, http.MethodGet, "/api/v1/jobs/unknown-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404", rec.Code)
	}
}

func TestPhotosEndpointSorting(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local)
	for i, name := range []string{"c.jpg", "a.jpg", "b.jpg"} {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("xxx"), 0o644); err != nil {
			t.Fatal(err)
		}
		mtime := base.Add(time.Duration(i) * time.Hour)
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
	}

	s := newTestServer(t, mock.New())
	if rec := doJSON(t, s, http.MethodPost, "/api/v1/load", map[string]string{"folder": dir}); rec.Code != http.StatusAccepted {
		t.Fatalf("load failed: %s", rec.Body.String())
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/photos?sort=name", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}

	var photos []photoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &photos); err != nil {
		t.Fatal(err)
	}
	if len(photos) != 3 {
		t.Fatalf("photos = %d; want 3", len(photos))
	}
	for i, want := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if filepath.Base(photos[i].Path) != want {
			t.Errorf("photos[%d] = %s; want %s", i, filepath.Base(photos[i].Path), want)
		}
	}

	if rec := doJSON(t, s, http.MethodGet, "/api/v1/photos?sort=bogus", nil); rec.Code != http.StatusBadRequest {
		t.Errorf("bogus sort status = %d; want 400", rec.Code)
	}
}

func TestSearchEndpointEmptyQuery(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.jpg"), []byte("aaa"), 0o644); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, mock.New())
	if rec := doJSON(t, s, http.MethodPost, "/api/v1/load", map[string]string{"folder": dir}); rec.Code != http.StatusAccepted {
		t.Fatalf("load failed: %s", rec.Body.String())
	}

	rec := doJSON(t, s, http.MethodGet, "/api/v1/search?q=", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var photos []photoResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &photos); err != nil {
		t.Fatal(err)
	}
	if len(photos) != 1 {
		t.Errorf("empty query returned %d photos; want the full collection", len(photos))
	}
}

func TestFacesEndpoints(t *testing.T) {
	st := mock.New()
	ctx := context.Background()
	encoding := []float32{0.1, 0.2, 0.3}
	if err := st.AddFace(ctx, store.Face{
		Path:     "/photos/a.jpg",
		Encoding: encoding,
		Box:      store.Box{Top: 1, Right: 2, Bottom: 3, Left: 4},
	}); err != nil {
		t.Fatal(err)
	}

	s := newTestServer(t, st)

	rec := doJSON(t, s, http.MethodGet, "/api/v1/photos/faces?path=/photos/a.jpg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get faces status = %d: %s", rec.Code, rec.Body.String())
	}
	var faces []faceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &faces); err != nil {
		t.Fatal(err)
	}
	if len(faces) != 1 || faces[0].Name != "" {
		t.Fatalf("faces = %+v", faces)
	}

	// Rename using the encoding exactly as the API returned it.
	rec = doJSON(t, s, http.MethodPost, "/api/v1/photos/faces/rename", map[string]string{
		"path":     "/photos/a.jpg",
		"encoding": faces[0].Encoding,
		"name":     "Tina",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("rename status = %d: %s", rec.Code, rec.Body.String())
	}

	renamed, err := st.GetFaces(ctx, "/photos/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if renamed[0].Name != "Tina" {
		t.Errorf("face name = %q; want Tina", renamed[0].Name)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/v1/photos/faces?path=/photos/a.jpg", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clear status = %d: %s", rec.Code, rec.Body.String())
	}
	cleared, err := st.GetFaces(ctx, "/photos/a.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared) != 0 {
		t.Errorf("faces after clear = %d; want 0", len(cleared))
	}
}

func TestRenameFaceBadEncoding(t *testing.T) {
	s := newTestServer(t, mock.New())

	rec := doJSON(t, s, http.MethodPost, "/api/v1/photos/faces/rename", map[string]string{
		"path":     "/photos/a.jpg",
		"encoding": "%%% not base64 %%%",
		"name":     "Tina",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}

	// Valid base64 but not a multiple of four bytes.
	bad := base64.StdEncoding.EncodeToString([]byte{1, 2, 3})
	rec = doJSON(t, s, http.MethodPost, "/api/v1/photos/faces/rename", map[string]string{
		"path":     "/photos/a.jpg",
		"encoding": bad,
		"name":     "Tina",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d; want 400", rec.Code)
	}
}

func TestSimilarEndpointUnknownPhoto(t *testing.T) {
	s := newTestServer(t, mock.New())
	rec := doJSON(t, s, http.MethodPost, "/api/v1/photos/similar", map[string]any{"path": "/photos/a.jpg"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d; want 404: %s", rec.Code, rec.Body.String())
	}
}
