package embedding

import (
	"context"

	"github.com/hyperjump/precedent/internal/metrics"
)

// CachedEmbedder consults a VectorCache before calling the inner embedder.
type CachedEmbedder struct {
	inner Embedder
	cache VectorCache
	name  string
}

// NewCachedEmbedder wraps inner with cache. name labels the hit/miss metric.
func NewCachedEmbedder(inner Embedder, cache VectorCache, name string) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: cache, name: name}
}

// Embed returns the cached vector or embeds and caches it. Vectors of the wrong width are never cached.
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := c.cache.Get(ctx, text); ok && len(vec) == c.inner.Dimensions() {
		metrics.EmbeddingCacheTotal.WithLabelValues(c.name, "hit").Inc()
		return vec, nil
	}
	metrics.EmbeddingCacheTotal.WithLabelValues(c.name, "miss").Inc()

	vec, err := c.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	if len(vec) == c.inner.Dimensions() {
		c.cache.Set(ctx, text, vec)
	}
	return vec, nil
}

// Dimensions returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimensions() int {
	return c.inner.Dimensions()
}

// Close closes the inner embedder.
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}
