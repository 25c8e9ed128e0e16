// Package config provides configuration loading and structs for the precedent tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/precedent/internal/ranking"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool                  `yaml:"debug"`
	Server    ServerConfig          `yaml:"server"`
	Corpus    CorpusConfig          `yaml:"corpus"`
	Artifacts ArtifactsConfig       `yaml:"artifacts"`
	Embedding EmbeddingConfig       `yaml:"embedding"`
	Indexing  IndexingConfig        `yaml:"indexing"`
	Vector    VectorConfig          `yaml:"vector"`
	Retrieval RetrievalConfig       `yaml:"retrieval"`
	Ranking   ranking.RankingConfig `yaml:"ranking"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// Watch reloads the engine when a new index generation is written.
	Watch bool `yaml:"watch"`
}

// CorpusConfig locates the JSONL corpus.
type CorpusConfig struct {
	Path          string `yaml:"path"`
	MaxTextLength int    `yaml:"max_text_length"`
}

// ArtifactsConfig names the durable index artifacts. File names are relative to Dir.
type ArtifactsConfig struct {
	Dir            string `yaml:"dir"`
	VectorsFile    string `yaml:"vectors_file"`
	MetadataFile   string `yaml:"metadata_file"`
	CheckpointFile string `yaml:"checkpoint_file"`
	IndexFile      string `yaml:"index_file"`
	LockFile       string `yaml:"lock_file"`
}

// EmbeddingConfig selects and tunes the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of mock, onnx, openai.
	Provider      string       `yaml:"provider"`
	ModelPath     string       `yaml:"model_path"`
	Dimensions    int          `yaml:"dimensions"`
	MaxTokens     int          `yaml:"max_tokens"`
	CacheSize     int          `yaml:"cache_size"`
	QueryPrefix   *string      `yaml:"query_prefix"`
	PassagePrefix string       `yaml:"passage_prefix"`
	OpenAI        OpenAIConfig `yaml:"openai"`
	Redis         RedisConfig  `yaml:"redis"`
	// RequestsPerSecond paces remote providers; 0 disables pacing.
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Burst             int     `yaml:"burst"`
}

// QueryPrefixOrDefault returns the query-side prefix; defaults to "query: " when unset.
func (e *EmbeddingConfig) QueryPrefixOrDefault() string {
	if e.QueryPrefix != nil {
		return *e.QueryPrefix
	}
	return "query: "
}

// OpenAIConfig holds settings for an OpenAI-compatible embeddings endpoint.
type OpenAIConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	APIKeyEnv string `yaml:"api_key_env"`
}

// APIKey reads the key from the configured environment variable.
func (o *OpenAIConfig) APIKey() string {
	if o.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(o.APIKeyEnv)
}

// RedisConfig enables the shared embedding cache when Addrs is non-empty.
type RedisConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	TTL      string   `yaml:"ttl"`
}

// IndexingConfig tunes the indexing pipeline.
type IndexingConfig struct {
	CheckpointInterval int `yaml:"checkpoint_interval"`
	Workers            int `yaml:"workers"`
}

// VectorConfig selects the vector index implementation.
type VectorConfig struct {
	// IndexType is memory or faiss.
	IndexType string `yaml:"index_type"`
}

// RetrievalConfig holds candidate retrieval and filter settings.
type RetrievalConfig struct {
	DefaultK          int      `yaml:"default_k"`
	MaxK              int      `yaml:"max_k"`
	Oversample        int      `yaml:"oversample"`
	MinCandidates     int      `yaml:"min_candidates"`
	MinTextLength     int      `yaml:"min_text_length"`
	ProceduralPhrases []string `yaml:"procedural_phrases"`
	SimilarOversample int      `yaml:"similar_oversample"`
	SampleSize        int      `yaml:"sample_size"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(cfg)

	configDir := filepath.Dir(path)
	cfg.Corpus.Path = expandPath(cfg.Corpus.Path, configDir)
	cfg.Artifacts.Dir = expandPath(cfg.Artifacts.Dir, configDir)
	if cfg.Embedding.ModelPath != "" {
		cfg.Embedding.ModelPath = expandPath(cfg.Embedding.ModelPath, configDir)
	}

	return cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// ArtifactPath joins name onto the artifacts directory unless name is already absolute.
func (c *Config) ArtifactPath(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Artifacts.Dir, name)
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
