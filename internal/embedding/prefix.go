package embedding

import "context"

// DefaultQueryPrefix marks query-side input for instruction-tuned retrieval models.
const DefaultQueryPrefix = "query: "

// PrefixedEmbedder prepends a fixed string to every input.
type PrefixedEmbedder struct {
	inner  Embedder
	prefix string
}

// WithPrefix returns inner unchanged when prefix is empty.
func WithPrefix(inner Embedder, prefix string) Embedder {
	if prefix == "" {
		return inner
	}
	return &PrefixedEmbedder{inner: inner, prefix: prefix}
}

// Embed embeds prefix+text.
func (p *PrefixedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return p.inner.Embed(ctx, p.prefix+text)
}

// Dimensions returns the inner embedder's dimension.
func (p *PrefixedEmbedder) Dimensions() int {
	return p.inner.Dimensions()
}

// Close closes the inner embedder.
func (p *PrefixedEmbedder) Close() error {
	return p.inner.Close()
}
