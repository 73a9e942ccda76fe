package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/pipeline"
	"github.com/pixelhoard/gallery/internal/scanner"
	"github.com/pixelhoard/gallery/internal/store"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type loadRequest struct {
	Folder string `json:"folder"`
	Sort   string `json:"sort,omitempty"`
}

type loadResponse struct {
	JobID      string `json:"job_id"`
	Generation uint64 `json:"generation"`
	Count      int    `json:"count"`
}

// handleLoad scans a folder, reconciles it into the collection and starts
// the enrichment pipelines as a background job. The response returns before
// enrichment completes; poll the job for progress.
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Folder == "" {
		writeError(w, http.StatusBadRequest, "folder is required")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if req.Sort != "" {
		mode, err := gallery.ParseSortMode(req.Sort)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.gallery.SetSort(mode)
	}

	gen, err := s.gallery.Load(r.Context(), req.Folder)
	if err != nil {
		var dirErr *scanner.DirectoryError
		var emptyErr *gallery.EmptyFolderError
		switch {
		case errors.As(err, &dirErr):
			writeError(w, http.StatusBadRequest, dirErr.Error())
		case errors.As(err, &emptyErr):
			writeError(w, http.StatusBadRequest, emptyErr.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	photos := s.gallery.Photos()
	opts := pipeline.Options{Generation: gen, Current: s.gallery.Generation}

	jobID := s.jobs.Create(req.Folder, gen, pipeline.Metadata, pipeline.Faces)

	// Pipelines outlive the request; they stop on their own when a newer
	// load supersedes this generation.
	bg := context.Background()
	metaEvents := s.enricher.RunMetadata(bg, photos, opts)
	faceEvents := s.enricher.RunFaces(bg, photos, opts)

	go s.drain(jobID, metaEvents, true)
	go s.drain(jobID, faceEvents, false)

	writeJSON(w, http.StatusAccepted, loadResponse{
		JobID:      jobID,
		Generation: gen,
		Count:      len(photos),
	})
}

// drain folds pipeline events into the job. After the metadata pipeline
// finishes, the collection and the similar-photo index are refreshed from
// the store.
func (s *Server) drain(jobID string, events <-chan pipeline.Event, rebuildIndex bool) {
	for ev := range events {
		s.jobs.Apply(jobID, ev)
	}
	if !rebuildIndex {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.gallery.Refresh(ctx); err != nil {
		log.Printf("failed to refresh collection: %v", err)
	}
	stored, err := s.store.GetAll(ctx)
	if err != nil {
		log.Printf("failed to rebuild similar index: %v", err)
		return
	}
	s.similar.Build(stored)
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job := s.jobs.Get(chi.URLParam(r, "jobID"))
	if job == nil {
		writeError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

type photoResponse struct {
	Path     string    `json:"path"`
	ModTime  time.Time `json:"mod_time"`
	Size     int64     `json:"size"`
	Location string    `json:"location"`
	Tags     string    `json:"tags"`
	Caption  string    `json:"caption,omitempty"`
	Pending  bool      `json:"pending,omitempty"`
}

func toPhotoResponses(photos []gallery.Summary) []photoResponse {
	out := make([]photoResponse, len(photos))
	for i, p := range photos {
		out[i] = photoResponse{
			Path:     p.Path,
			ModTime:  p.ModTime,
			Size:     p.Size,
			Location: p.Location,
			Tags:     p.Tags,
			Caption:  p.Caption,
			Pending:  p.NeedsRefresh,
		}
	}
	return out
}

// handlePhotos returns the resolved collection in display order. An
// optional sort parameter switches the sort mode first.
func (s *Server) handlePhotos(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sortParam := r.URL.Query().Get("sort"); sortParam != "" {
		mode, err := gallery.ParseSortMode(sortParam)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.gallery.SetSort(mode)
	}

	if err := s.gallery.Refresh(r.Context()); err != nil {
		log.Printf("failed to refresh collection: %v", err)
	}
	writeJSON(w, http.StatusOK, toPhotoResponses(s.gallery.Photos()))
}

// handleSearch resolves a query against the current collection.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.gallery.Refresh(r.Context()); err != nil {
		log.Printf("failed to refresh collection: %v", err)
	}

	results, err := s.resolver.Resolve(r.Context(), s.gallery.Photos(), query)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toPhotoResponses(results))
}

// handleCaption returns the detailed caption for one photo, generating and
// persisting it on first request.
func (s *Server) handleCaption(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	caption, err := s.enricher.CaptionFor(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"path": path, "caption": caption})
}

type similarRequest struct {
	Path  string `json:"path"`
	Limit int    `json:"limit,omitempty"`
}

// handleSimilar returns stored photos whose captions embed closest to the
// given photo's caption.
func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	var req similarRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	query := s.similar.Embedding(req.Path)
	if query == nil {
		writeError(w, http.StatusNotFound, "no embedding stored for photo; run indexing first")
		return
	}

	matches, err := s.similar.Nearest(query, req.Limit, req.Path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, matches)
}

type faceResponse struct {
	Path     string    `json:"path"`
	Name     string    `json:"name,omitempty"`
	Box      store.Box `json:"box"`
	Encoding string    `json:"encoding"` // base64 little-endian float32
}

func (s *Server) handleGetFaces(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	faces, err := s.store.GetFaces(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	out := make([]faceResponse, len(faces))
	for i, f := range faces {
		out[i] = faceResponse{
			Path:     f.Path,
			Name:     f.Name,
			Box:      f.Box,
			Encoding: base64.StdEncoding.EncodeToString(store.MarshalVector(f.Encoding)),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

type renameFaceRequest struct {
	Path     string `json:"path"`
	Encoding string `json:"encoding"` // base64, as returned by the faces endpoint
	Name     string `json:"name"`
}

func (s *Server) handleRenameFace(w http.ResponseWriter, r *http.Request) {
	var req renameFaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Path == "" || req.Encoding == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "path, encoding and name are required")
		return
	}

	raw, err := base64.StdEncoding.DecodeString(req.Encoding)
	if err != nil {
		writeError(w, http.StatusBadRequest, "encoding is not valid base64")
		return
	}
	vec, err := store.UnmarshalVector(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.store.RenameFace(r.Context(), req.Path, vec, req.Name); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClearFaces(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "path is required")
		return
	}

	if err := s.store.ClearFaces(r.Context(), path); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
