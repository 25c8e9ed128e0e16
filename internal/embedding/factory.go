package embedding

import (
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/config"
)

// Provider names accepted in configuration.
const (
	ProviderMock   = "mock"
	ProviderONNX   = "onnx"
	ProviderOpenAI = "openai"
)

// ErrProviderUnavailable is returned when the configured provider cannot be started, for example
// an ONNX model that fails to load. Vectors from a substitute provider would be indistinguishable
// on disk, so there is no fallback.
var ErrProviderUnavailable = errors.New("embedding provider unavailable")

// New builds the base embedder described by cfg, without input prefixes (see ForPassages and
// ForQueries). When kv is non-nil embeddings are cached
// there; otherwise an in-process LRU of cfg.CacheSize entries is used.
func New(cfg config.EmbeddingConfig, kv KVStore, logger *zap.Logger) (Embedder, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var base Embedder
	switch cfg.Provider {
	case ProviderMock, "":
		base = NewMockEmbedder(cfg.Dimensions)
	case ProviderONNX:
		onnx, err := NewONNXEmbedder(cfg.ModelPath, cfg.Dimensions, cfg.MaxTokens)
		if err != nil {
			return nil, fmt.Errorf("%w: onnx model %s: %v", ErrProviderUnavailable, cfg.ModelPath, err)
		}
		base = onnx
	case ProviderOpenAI:
		oa, err := NewOpenAIEmbedder(OpenAIConfig{
			APIKey:     cfg.OpenAI.APIKey(),
			BaseURL:    cfg.OpenAI.BaseURL,
			Model:      cfg.OpenAI.Model,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		})
		if err != nil {
			return nil, err
		}
		base = NewRateLimitedEmbedder(oa, cfg.RequestsPerSecond, cfg.Burst)
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: mock, onnx, openai)", cfg.Provider)
	}

	if kv != nil {
		scope := cfg.Provider + ":" + cfg.OpenAI.Model + ":" + strconv.Itoa(cfg.Dimensions)
		base = NewCachedEmbedder(base, NewKVCache(kv, scope, logger), "redis")
	} else if cfg.CacheSize > 0 {
		base = NewCachedEmbedder(base, NewEmbeddingCache(cfg.CacheSize), "lru")
	}

	logger.Info("embedder initialized",
		zap.String("provider", cfg.Provider),
		zap.Int("dimensions", base.Dimensions()),
		zap.Bool("shared_cache", kv != nil))
	return base, nil
}

// ForPassages wraps base with the corpus-side input prefix.
func ForPassages(base Embedder, cfg config.EmbeddingConfig) Embedder {
	return WithPrefix(base, cfg.PassagePrefix)
}

// ForQueries wraps base with the query-side input prefix ("query: " unless configured).
func ForQueries(base Embedder, cfg config.EmbeddingConfig) Embedder {
	return WithPrefix(base, cfg.QueryPrefixOrDefault())
}
