package config

import (
	_ "embed"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	Embedding  EmbeddingConfig
	FaceDetect FaceDetectConfig
	Database   DatabaseConfig
	Defaults   DefaultsConfig
}

type OpenAIConfig struct {
	Token string
}

type GeminiConfig struct {
	APIKey string
}

type EmbeddingConfig struct {
	URL string // embedding server, defaults to http://localhost:8000
	Dim int    // defaults to the embedded value (768)
}

type FaceDetectConfig struct {
	URL string // face detection server, defaults to http://localhost:8100
}

type DatabaseConfig struct {
	Path string // SQLite database path, defaults to gallery.db
	URL  string // optional PostgreSQL URL; takes precedence when set
}

// DefaultsConfig holds compile-time defaults loaded from the embedded
// defaults.yaml.
type DefaultsConfig struct {
	Search struct {
		Threshold float64 `yaml:"threshold"`
		Limit     int     `yaml:"limit"`
	} `yaml:"search"`
	Caption struct {
		OpenAIModel string `yaml:"openai_model"`
		GeminiModel string `yaml:"gemini_model"`
	} `yaml:"caption"`
	Embedding struct {
		Dim int `yaml:"dim"`
	} `yaml:"embedding"`
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

func Load() *Config {
	var defaults DefaultsConfig
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	return &Config{
		OpenAI: OpenAIConfig{
			Token: os.Getenv("OPENAI_TOKEN"),
		},
		Gemini: GeminiConfig{
			APIKey: os.Getenv("GEMINI_API_KEY"),
		},
		Embedding: EmbeddingConfig{
			URL: envString("EMBEDDING_URL", "http://localhost:8000"),
			Dim: envInt("EMBEDDING_DIM", defaults.Embedding.Dim),
		},
		FaceDetect: FaceDetectConfig{
			URL: envString("FACE_DETECT_URL", "http://localhost:8100"),
		},
		Database: DatabaseConfig{
			Path: envString("GALLERY_DB", "gallery.db"),
			URL:  os.Getenv("DATABASE_URL"),
		},
		Defaults: defaults,
	}
}
