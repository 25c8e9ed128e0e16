// Package search is the retrieval API: it runs candidate retrieval, multi-factor ranking and
// explanation over one loaded index generation.
package search

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/explain"
	"github.com/hyperjump/precedent/internal/metrics"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/ranking"
	"github.com/hyperjump/precedent/internal/retrieval"
)

var (
	ErrIndexNotBuilt     = retrieval.ErrIndexNotBuilt
	ErrIndexInconsistent = retrieval.ErrIndexInconsistent
)

// Engine serves queries against an immutable corpus snapshot and index. Safe for concurrent use.
type Engine struct {
	retriever   *retrieval.Retriever
	ranker      *ranking.Ranker
	snapshot    *corpus.Snapshot
	searcher    retrieval.Searcher
	defaultK    int
	maxK        int
	fingerprint string
	loadedAt    time.Time
	logger      *zap.Logger
	lengths     []int
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithTextLengths supplies per-row text lengths from the metadata artifact.
func WithTextLengths(lengths []int) Option {
	return func(e *Engine) { e.lengths = lengths }
}

// NewEngine creates an engine. queryEmbedder must apply the query-side input prefix.
func NewEngine(
	snapshot *corpus.Snapshot,
	queryEmbedder embedding.Embedder,
	searcher retrieval.Searcher,
	cfg *config.Config,
	opts ...Option,
) *Engine {
	e := &Engine{
		snapshot:    snapshot,
		searcher:    searcher,
		defaultK:    cfg.Retrieval.DefaultK,
		maxK:        cfg.Retrieval.MaxK,
		fingerprint: snapshot.Fingerprint(),
		loadedAt:    time.Now(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = zap.NewNop()
	}

	rc := cfg.Retrieval
	ropts := []retrieval.Option{retrieval.WithLogger(e.logger)}
	if e.lengths != nil {
		ropts = append(ropts, retrieval.WithTextLengths(e.lengths))
	}
	e.retriever = retrieval.New(queryEmbedder, searcher, snapshot, retrieval.Config{
		Oversample:        rc.Oversample,
		MinCandidates:     rc.MinCandidates,
		MinTextLength:     rc.MinTextLength,
		ProceduralPhrases: rc.ProceduralPhrases,
		SimilarOversample: rc.SimilarOversample,
		SampleSize:        rc.SampleSize,
	}, ropts...)

	rankCfg := cfg.Ranking
	e.ranker = ranking.NewRanker(&rankCfg)
	return e
}

// Check fails fast when the index is missing or does not match the corpus.
func (e *Engine) Check() error {
	return e.retriever.Check()
}

// Retrieve returns up to q.K ranked candidates for q.Query.
func (e *Engine) Retrieve(ctx context.Context, q *models.RetrieveQuery) (resp *models.RetrieveResponse, err error) {
	start := time.Now()
	defer func() { observe("retrieve", start, err) }()

	if err := q.Validate(e.defaultK, e.maxK); err != nil {
		return nil, err
	}
	cands, _, err := e.retriever.Candidates(ctx, q.Query, q.K)
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		e.ranker.Score(c, corpus.LongText(e.snapshot.At(c.Row)))
	}
	ranked := ranking.Rank(cands, q.K)

	return &models.RetrieveResponse{
		Query:     q.Query,
		K:         q.K,
		Results:   ranked,
		Total:     len(cands),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// ExplainTop retrieves for q and explains the top-ranked candidate. An empty result is not an
// error: the precedent carries no candidate and the fixed "no suitable precedent" text.
func (e *Engine) ExplainTop(ctx context.Context, q *models.RetrieveQuery) (*models.Precedent, error) {
	resp, err := e.Retrieve(ctx, q)
	if err != nil {
		return nil, err
	}
	return explain.ExplainTop(resp.Results), nil
}

// Similar returns the nearest distinct cases to q.Query without hard filters or re-ranking.
func (e *Engine) Similar(ctx context.Context, q *models.RetrieveQuery) (resp *models.RetrieveResponse, err error) {
	start := time.Now()
	defer func() { observe("similar", start, err) }()

	if err := q.Validate(e.defaultK, e.maxK); err != nil {
		return nil, err
	}
	cands, _, err := e.retriever.Similar(ctx, q.Query, q.K)
	if err != nil {
		return nil, err
	}
	for _, c := range cands {
		c.Score = c.Similarity
	}
	return &models.RetrieveResponse{
		Query:     q.Query,
		K:         q.K,
		Results:   cands,
		Total:     len(cands),
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Breakdown returns the weighted factor contributions behind c's score.
func (e *Engine) Breakdown(c *models.Candidate) *ranking.ScoreBreakdown {
	return e.ranker.Breakdown(c.Similarity, corpus.LongText(e.snapshot.At(c.Row)))
}

// Status describes the loaded generation.
type Status struct {
	Corpus      int       `json:"corpus_records"`
	Fingerprint string    `json:"fingerprint"`
	IndexType   string    `json:"index_type"`
	Rows        int       `json:"index_rows"`
	Dimensions  int       `json:"dimensions"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// Status reports the loaded corpus and index.
func (e *Engine) Status() *Status {
	s := &Status{
		Corpus:      e.snapshot.Len(),
		Fingerprint: e.fingerprint,
		LoadedAt:    e.loadedAt,
	}
	if e.searcher != nil {
		s.Rows = e.searcher.Size()
		s.Dimensions = e.searcher.Dimensions()
		if t, ok := e.searcher.(interface{ Type() string }); ok {
			s.IndexType = t.Type()
		}
	}
	return s
}

// Close releases the index.
func (e *Engine) Close() error {
	if c, ok := e.searcher.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func observe(op string, start time.Time, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, models.ErrEmptyQuery):
		status = "invalid"
	case errors.Is(err, ErrIndexNotBuilt), errors.Is(err, ErrIndexInconsistent):
		status = "unavailable"
	default:
		status = "error"
	}
	metrics.RetrievalRequestsTotal.WithLabelValues(op, status).Inc()
	metrics.RetrievalDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
