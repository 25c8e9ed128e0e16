// Package retrieval turns a query into a deduplicated, filtered candidate list from the vector
// index. Scoring and truncation to k happen in package ranking.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/metrics"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/vector"
	"github.com/hyperjump/precedent/pkg/utils"
)

var (
	// ErrIndexNotBuilt is returned when no vector index is loaded.
	ErrIndexNotBuilt = errors.New("vector index not built")
	// ErrIndexInconsistent is returned when the index and the corpus disagree on row count.
	ErrIndexInconsistent = errors.New("vector index inconsistent with corpus")
)

// Searcher answers nearest-neighbor queries. vector.Index satisfies it.
type Searcher interface {
	Search(ctx context.Context, query []float32, k int) ([]vector.Neighbor, error)
	Size() int
	Dimensions() int
}

// Config holds the oversampling and hard-filter settings.
type Config struct {
	Oversample        int
	MinCandidates     int
	MinTextLength     int
	ProceduralPhrases []string
	SimilarOversample int
	SampleSize        int
}

// Stats counts what the scan kept and dropped.
type Stats struct {
	Requested  int `json:"requested"`
	Scanned    int `json:"scanned"`
	Padding    int `json:"padding"`
	MissingID  int `json:"missing_id"`
	Duplicates int `json:"duplicates"`
	TooShort   int `json:"too_short"`
	Procedural int `json:"procedural"`
	Kept       int `json:"kept"`
}

// Retriever is read-only after construction and safe for concurrent queries.
type Retriever struct {
	embedder   embedding.Embedder
	searcher   Searcher
	snapshot   *corpus.Snapshot
	lengths    []int
	cfg        Config
	procedural []string
	logger     *zap.Logger
}

// Option configures a Retriever.
type Option func(*Retriever)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Retriever) { r.logger = l }
}

// WithTextLengths supplies precomputed per-row text lengths (from the metadata artifact) for the
// minimum length filter.
func WithTextLengths(lengths []int) Option {
	return func(r *Retriever) { r.lengths = lengths }
}

// New creates a retriever. The embedder is expected to apply the query-side input prefix.
func New(embedder embedding.Embedder, searcher Searcher, snapshot *corpus.Snapshot, cfg Config, opts ...Option) *Retriever {
	if cfg.Oversample <= 0 {
		cfg.Oversample = 10
	}
	if cfg.SimilarOversample <= 0 {
		cfg.SimilarOversample = 20
	}
	r := &Retriever{
		embedder: embedder,
		searcher: searcher,
		snapshot: snapshot,
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
	for _, p := range cfg.ProceduralPhrases {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			r.procedural = append(r.procedural, p)
		}
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = zap.NewNop()
	}
	return r
}

// Check reports whether the retriever can serve queries.
func (r *Retriever) Check() error {
	if r.searcher == nil || r.searcher.Size() == 0 {
		return ErrIndexNotBuilt
	}
	if n := r.snapshot.Len(); r.searcher.Size() != n {
		return fmt.Errorf("%w: index has %d rows, corpus has %d", ErrIndexInconsistent, r.searcher.Size(), n)
	}
	if r.lengths != nil && len(r.lengths) != r.snapshot.Len() {
		return fmt.Errorf("%w: metadata has %d rows, corpus has %d", ErrIndexInconsistent, len(r.lengths), r.snapshot.Len())
	}
	return nil
}

// Candidates returns the filtered, deduplicated neighbors of query in similarity order, not yet
// cut to k.
func (r *Retriever) Candidates(ctx context.Context, query string, k int) ([]*models.Candidate, Stats, error) {
	return r.scan(ctx, query, max(k*r.cfg.Oversample, r.cfg.MinCandidates), true)
}

// Similar returns the k nearest distinct cases to query with no hard filters applied.
func (r *Retriever) Similar(ctx context.Context, query string, k int) ([]*models.Candidate, Stats, error) {
	cands, stats, err := r.scan(ctx, query, max(k*r.cfg.SimilarOversample, r.cfg.MinCandidates), false)
	if err != nil {
		return nil, stats, err
	}
	if k > 0 && len(cands) > k {
		cands = cands[:k]
	}
	for i, c := range cands {
		c.Rank = i + 1
	}
	return cands, stats, nil
}

func (r *Retriever) scan(ctx context.Context, query string, n int, filter bool) ([]*models.Candidate, Stats, error) {
	stats := Stats{Requested: n}
	if strings.TrimSpace(query) == "" {
		return nil, stats, models.ErrEmptyQuery
	}
	if err := r.Check(); err != nil {
		return nil, stats, err
	}

	q, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, stats, fmt.Errorf("embed query: %w", err)
	}
	if err := embedding.CheckDimensions(q, r.searcher.Dimensions(), -1); err != nil {
		return nil, stats, err
	}

	neighbors, err := r.searcher.Search(ctx, q, n)
	if err != nil {
		return nil, stats, fmt.Errorf("search index: %w", err)
	}

	total := r.snapshot.Len()
	seen := make(map[string]struct{}, len(neighbors))
	out := make([]*models.Candidate, 0, len(neighbors))
	for _, nb := range neighbors {
		stats.Scanned++
		if nb.Row < 0 || nb.Row >= total {
			stats.Padding++
			continue
		}
		rec := r.snapshot.At(nb.Row)
		if rec.CaseID == "" {
			stats.MissingID++
			continue
		}
		if _, dup := seen[rec.CaseID]; dup {
			stats.Duplicates++
			continue
		}
		seen[rec.CaseID] = struct{}{}

		text := corpus.LongText(rec)
		if filter {
			if r.textLen(nb.Row, text) < r.cfg.MinTextLength {
				stats.TooShort++
				continue
			}
			if r.isProcedural(text) {
				stats.Procedural++
				continue
			}
		}

		out = append(out, &models.Candidate{
			Row:        nb.Row,
			CaseID:     rec.CaseID,
			Title:      rec.Title,
			Court:      rec.Court,
			Date:       rec.Date,
			Similarity: nb.Score,
			Sample:     utils.Truncate(text, r.cfg.SampleSize),
		})
	}
	stats.Kept = len(out)
	stats.record()

	r.logger.Debug("candidate scan",
		zap.Int("requested", stats.Requested),
		zap.Int("scanned", stats.Scanned),
		zap.Int("kept", stats.Kept),
		zap.Int("duplicates", stats.Duplicates),
		zap.Int("too_short", stats.TooShort),
		zap.Int("procedural", stats.Procedural),
	)
	return out, stats, nil
}

func (r *Retriever) textLen(row int, text string) int {
	if r.lengths != nil {
		return r.lengths[row]
	}
	return corpus.TextLen(text)
}

// isProcedural reports a case-insensitive match of any procedural phrase.
func (r *Retriever) isProcedural(text string) bool {
	if len(r.procedural) == 0 {
		return false
	}
	lower := strings.ToLower(text)
	for _, p := range r.procedural {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

func (s Stats) record() {
	for reason, n := range map[string]int{
		"padding":    s.Padding,
		"missing_id": s.MissingID,
		"duplicate":  s.Duplicates,
		"too_short":  s.TooShort,
		"procedural": s.Procedural,
	} {
		if n > 0 {
			metrics.RetrievalDroppedTotal.WithLabelValues(reason).Add(float64(n))
		}
	}
}
