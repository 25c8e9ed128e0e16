package config

import "github.com/hyperjump/precedent/internal/ranking"

// DefaultProceduralPhrases mark decisions that dispose of a case without reaching the merits.
func DefaultProceduralPhrases() []string {
	return []string{
		"motion denied",
		"motion to dismiss",
		"appeal dismissed",
		"appeal denied",
		"motion for leave",
		"summary order",
		"order affirmed",
		"order reversed",
		"reargument denied",
		"dismissed on procedural grounds",
		"petition denied",
		"leave to appeal denied",
	}
}

// Default returns a config with every default applied and no file behind it. Load decodes the
// file over it, so keys absent from the file keep these values and explicit zeros survive.
func Default() *Config {
	cfg := &Config{
		Retrieval: RetrievalConfig{MinTextLength: 800},
		Ranking:   *ranking.DefaultRankingConfig(),
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults sets default values for zero values that have no meaning of their own. Tunables
// where zero disables something (ranking weights, min_text_length) are only set by Default.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Corpus.Path == "" {
		cfg.Corpus.Path = "./data/corpus.jsonl"
	}
	if cfg.Corpus.MaxTextLength == 0 {
		cfg.Corpus.MaxTextLength = 10000
	}
	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "./data/artifacts"
	}
	if cfg.Artifacts.VectorsFile == "" {
		cfg.Artifacts.VectorsFile = "embeddings.npy"
	}
	if cfg.Artifacts.MetadataFile == "" {
		cfg.Artifacts.MetadataFile = "metadata.db"
	}
	if cfg.Artifacts.CheckpointFile == "" {
		cfg.Artifacts.CheckpointFile = "checkpoint.json"
	}
	if cfg.Artifacts.IndexFile == "" {
		cfg.Artifacts.IndexFile = "vectors.index"
	}
	if cfg.Artifacts.LockFile == "" {
		cfg.Artifacts.LockFile = ".lock"
	}
	if cfg.Embedding.Provider == "" {
		cfg.Embedding.Provider = "mock"
	}
	if cfg.Embedding.Dimensions == 0 {
		cfg.Embedding.Dimensions = 384
	}
	if cfg.Embedding.MaxTokens == 0 {
		cfg.Embedding.MaxTokens = 256
	}
	if cfg.Embedding.CacheSize == 0 {
		cfg.Embedding.CacheSize = 10000
	}
	if cfg.Embedding.OpenAI.APIKeyEnv == "" {
		cfg.Embedding.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
	}
	if cfg.Embedding.Burst == 0 {
		cfg.Embedding.Burst = 1
	}
	if cfg.Indexing.CheckpointInterval == 0 {
		cfg.Indexing.CheckpointInterval = 100
	}
	if cfg.Indexing.Workers == 0 {
		cfg.Indexing.Workers = 4
	}
	if cfg.Vector.IndexType == "" {
		cfg.Vector.IndexType = "memory"
	}
	if cfg.Retrieval.DefaultK == 0 {
		cfg.Retrieval.DefaultK = 5
	}
	if cfg.Retrieval.MaxK == 0 {
		cfg.Retrieval.MaxK = 100
	}
	if cfg.Retrieval.Oversample == 0 {
		cfg.Retrieval.Oversample = 10
	}
	if cfg.Retrieval.MinCandidates == 0 {
		cfg.Retrieval.MinCandidates = 200
	}
	if cfg.Retrieval.ProceduralPhrases == nil {
		cfg.Retrieval.ProceduralPhrases = DefaultProceduralPhrases()
	}
	if cfg.Retrieval.SimilarOversample == 0 {
		cfg.Retrieval.SimilarOversample = 20
	}
	if cfg.Retrieval.SampleSize == 0 {
		cfg.Retrieval.SampleSize = 2000
	}
	cfg.Ranking.ApplyDefaults()
}
