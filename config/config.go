// Package config reads process settings from the environment and optional
// .env files.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/poiesic/driftlens/ai"
	"github.com/poiesic/driftlens/storage/atlas"
)

// Prefix is the environment variable prefix, e.g. DRIFTLENS_BACKEND.
const Prefix = "DRIFTLENS"

// Backend names accepted by Settings.Backend.
const (
	BackendBadger = "badger"
	BackendAtlas  = "atlas"
)

var (
	// ErrUnknownBackend is returned for a backend other than badger or atlas.
	ErrUnknownBackend = errors.New("unknown storage backend")

	// ErrMongoURIRequired is returned when the atlas backend has no URI.
	ErrMongoURIRequired = errors.New("mongo URI required for the atlas backend")
)

// Settings holds process configuration.
type Settings struct {
	Backend  string `envconfig:"BACKEND" default:"badger"`
	DataPath string `envconfig:"DATA_PATH" default:"driftlens.db"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	MongoURI        string `envconfig:"MONGODB_URI"`
	MongoDatabase   string `envconfig:"MONGODB_DB_NAME" default:"medical_research"`
	MongoCollection string `envconfig:"MONGODB_COLLECTION" default:"medical_conditions"`
	VectorIndex     string `envconfig:"VECTOR_INDEX" default:"vector_index"`
	TextIndex       string `envconfig:"TEXT_INDEX" default:"text_index"`

	EmbeddingHost  string  `envconfig:"EMBEDDING_HOST" default:"http://localhost:11434/v1"`
	GeneratorHost  string  `envconfig:"GENERATOR_HOST" default:"http://localhost:11434/v1"`
	EmbeddingModel string  `envconfig:"EMBEDDING_MODEL" default:"embeddinggemma"`
	GeneratorModel string  `envconfig:"GENERATOR_MODEL" default:"qwen2.5:7b"`
	APIToken       string  `envconfig:"API_TOKEN"`
	Temperature    float64 `envconfig:"TEMPERATURE" default:"0.1"`

	TopK              int           `envconfig:"TOP_K" default:"5"`
	StageTimeout      time.Duration `envconfig:"STAGE_TIMEOUT" default:"30s"`
	Workers           int           `envconfig:"WORKERS"`
	EmbeddingCache    int           `envconfig:"EMBEDDING_CACHE" default:"1024"`
	ConditionCacheTTL time.Duration `envconfig:"CONDITION_CACHE_TTL" default:"10m"`
	Fusion            bool          `envconfig:"FUSION" default:"true"`
}

// Load reads the given .env files, then the environment. Variables already
// set in the environment win over file values. Missing files are skipped;
// with no files, ".env" is tried. Callers apply their own overrides and
// then call Validate.
func Load(files ...string) (*Settings, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var s Settings
	if err := envconfig.Process(Prefix, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// Validate checks cross-field constraints.
func (s *Settings) Validate() error {
	switch s.Backend {
	case BackendBadger:
	case BackendAtlas:
		if s.MongoURI == "" {
			return ErrMongoURIRequired
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, s.Backend)
	}
	return nil
}

// AIConfig builds the AI provider configuration.
func (s *Settings) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(s.EmbeddingHost),
		ai.WithGeneratorHost(s.GeneratorHost),
		ai.WithEmbeddingModel(s.EmbeddingModel),
		ai.WithGeneratorModel(s.GeneratorModel),
		ai.WithToken(s.APIToken),
		ai.WithTemperature(s.Temperature),
	)
}

// AtlasConfig builds the MongoDB Atlas repository configuration.
func (s *Settings) AtlasConfig() atlas.Config {
	cfg := atlas.DefaultConfig(s.MongoURI)
	cfg.Database = s.MongoDatabase
	cfg.Collection = s.MongoCollection
	cfg.VectorIndex = s.VectorIndex
	cfg.TextIndex = s.TextIndex
	return cfg
}
