package cmd

import (
	"context"
	"fmt"

	"github.com/pixelhoard/gallery/internal/ai"
	"github.com/pixelhoard/gallery/internal/config"
	"github.com/pixelhoard/gallery/internal/embed"
	"github.com/pixelhoard/gallery/internal/face"
	"github.com/pixelhoard/gallery/internal/pipeline"
	"github.com/pixelhoard/gallery/internal/store"
	"github.com/pixelhoard/gallery/internal/store/postgres"
	"github.com/pixelhoard/gallery/internal/store/sqlite"
)

// openStore connects to PostgreSQL when DATABASE_URL is set, otherwise it
// opens (and creates if needed) the local SQLite database.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.URL != "" {
		st, err := postgres.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		return st, nil
	}

	st, err := sqlite.Open(ctx, cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Database.Path, err)
	}
	return st, nil
}

// newCaptionProvider picks the first configured caption backend: OpenAI,
// then Gemini. Without credentials it degrades to placeholder output so
// indexing still records file metadata and location.
func newCaptionProvider(ctx context.Context, cfg *config.Config) ai.CaptionProvider {
	if cfg.OpenAI.Token != "" {
		return ai.NewOpenAIProvider(cfg.OpenAI.Token, cfg.Defaults.Caption.OpenAIModel)
	}
	if cfg.Gemini.APIKey != "" {
		provider, err := ai.NewGeminiProvider(ctx, cfg.Gemini.APIKey, cfg.Defaults.Caption.GeminiModel)
		if err == nil {
			return provider
		}
		fmt.Printf("Warning: failed to create Gemini provider: %v\n", err)
	}
	fmt.Println("Warning: no caption backend configured (set OPENAI_TOKEN or GEMINI_API_KEY), tags will be unavailable")
	return ai.Unavailable{}
}

// newEnricher wires the enrichment pipelines against the store and the
// configured backends.
func newEnricher(ctx context.Context, cfg *config.Config, st store.Store) *pipeline.Enricher {
	captions := newCaptionProvider(ctx, cfg)

	var embedder embed.Provider
	if cfg.Embedding.URL != "" {
		embedder = embed.NewClient(cfg.Embedding.URL)
	}

	var detector face.Detector
	if cfg.FaceDetect.URL != "" {
		detector = face.NewClient(cfg.FaceDetect.URL)
	}

	return pipeline.New(st, captions, embedder, detector)
}
