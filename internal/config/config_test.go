package config

import (
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"OPENAI_TOKEN", "GEMINI_API_KEY", "EMBEDDING_URL", "EMBEDDING_DIM",
		"FACE_DETECT_URL", "GALLERY_DB", "DATABASE_URL",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Embedding.URL != "http://localhost:8000" {
		t.Errorf("embedding URL = %q", cfg.Embedding.URL)
	}
	if cfg.FaceDetect.URL != "http://localhost:8100" {
		t.Errorf("face detect URL = %q", cfg.FaceDetect.URL)
	}
	if cfg.Database.Path != "gallery.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
	if cfg.Database.URL != "" {
		t.Errorf("database URL = %q; want empty", cfg.Database.URL)
	}
}

func TestLoadEmbeddedDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Defaults.Search.Threshold != 0.3 {
		t.Errorf("search threshold = %v; want 0.3", cfg.Defaults.Search.Threshold)
	}
	if cfg.Defaults.Search.Limit != 10 {
		t.Errorf("search limit = %d; want 10", cfg.Defaults.Search.Limit)
	}
	if cfg.Defaults.Caption.OpenAIModel == "" || cfg.Defaults.Caption.GeminiModel == "" {
		t.Error("caption model defaults missing")
	}
	if cfg.Defaults.Embedding.Dim != 768 {
		t.Errorf("embedding dim = %d; want 768", cfg.Defaults.Embedding.Dim)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("EMBEDDING_URL", "http://embeddings:9000")
	t.Setenv("EMBEDDING_DIM", "512")
	t.Setenv("GALLERY_DB", "/data/photos.db")

	cfg := Load()

	if cfg.Embedding.URL != "http://embeddings:9000" {
		t.Errorf("embedding URL = %q", cfg.Embedding.URL)
	}
	if cfg.Embedding.Dim != 512 {
		t.Errorf("embedding dim = %d; want 512", cfg.Embedding.Dim)
	}
	if cfg.Database.Path != "/data/photos.db" {
		t.Errorf("database path = %q", cfg.Database.Path)
	}
}

func TestEnvIntInvalid(t *testing.T) {
	t.Setenv("EMBEDDING_DIM", "not-a-number")
	cfg := Load()
	if cfg.Embedding.Dim != cfg.Defaults.Embedding.Dim {
		t.Errorf("invalid EMBEDDING_DIM not ignored: %d", cfg.Embedding.Dim)
	}
}
