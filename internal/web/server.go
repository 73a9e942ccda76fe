// Package web exposes the gallery over an HTTP API: folder loading with
// asynchronous enrichment jobs, sorted browsing, hybrid search and face
// management.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/pixelhoard/gallery/internal/gallery"
	"github.com/pixelhoard/gallery/internal/pipeline"
	"github.com/pixelhoard/gallery/internal/search"
	"github.com/pixelhoard/gallery/internal/store"
)

// Server serves the gallery API.
type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	jobs       *JobManager

	// mu guards the gallery and similar index; the HTTP server is the
	// foreground here and requests arrive concurrently.
	mu       sync.Mutex
	store    store.Store
	gallery  *gallery.Gallery
	enricher *pipeline.Enricher
	resolver *search.Resolver
	similar  *search.SimilarIndex
}

// NewServer creates the API server.
func NewServer(host string, port int, st store.Store, g *gallery.Gallery, e *pipeline.Enricher, r *search.Resolver) *Server {
	router := chi.NewRouter()

	s := &Server{
		router:   router,
		jobs:     NewJobManager(),
		store:    st,
		gallery:  g,
		enricher: e,
		resolver: r,
		similar:  search.NewSimilarIndex(),
	}

	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(chiMiddleware.Timeout(5 * time.Minute))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // model calls can be slow
		IdleTimeout:  60 * time.Second,
	}

	return s
}

func (s *Server) setupRoutes() {
	s.router.Get("/api/v1/health", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/load", s.handleLoad)
		r.Get("/jobs/{jobID}", s.handleJobStatus)

		r.Get("/photos", s.handlePhotos)
		r.Get("/search", s.handleSearch)
		r.Get("/photos/caption", s.handleCaption)
		r.Post("/photos/similar", s.handleSimilar)

		r.Get("/photos/faces", s.handleGetFaces)
		r.Post("/photos/faces/rename", s.handleRenameFace)
		r.Delete("/photos/faces", s.handleClearFaces)
	})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting web server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down web server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
