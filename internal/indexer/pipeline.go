// Package indexer embeds the corpus into a positional vector array with checkpointed,
// resumable progress.
package indexer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/metrics"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/storage"
	"github.com/hyperjump/precedent/internal/vector"
)

const (
	DefaultCheckpointInterval = 100
	DefaultWorkers            = 4
)

// Pipeline owns the vector array, metadata and checkpoint of one artifact set for a run.
type Pipeline struct {
	snapshot *corpus.Snapshot
	embedder embedding.Embedder
	meta     storage.MetadataStore
	paths    artifact.Paths

	interval      int
	workers       int
	maxTextLength int
	logger        *zap.Logger
	runID         string
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger for progress and correction events.
func WithLogger(l *zap.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithCheckpointInterval sets how many rows are embedded between durable saves.
func WithCheckpointInterval(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.interval = n
		}
	}
}

// WithWorkers bounds concurrent embedding requests within a window.
func WithWorkers(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.workers = n
		}
	}
}

// WithMaxTextLength caps the canonical text sent to the embedder, in runes.
func WithMaxTextLength(n int) Option {
	return func(p *Pipeline) { p.maxTextLength = n }
}

// NewPipeline creates a pipeline over snapshot writing to paths.
func NewPipeline(
	snapshot *corpus.Snapshot,
	embedder embedding.Embedder,
	meta storage.MetadataStore,
	paths artifact.Paths,
	opts ...Option,
) *Pipeline {
	p := &Pipeline{
		snapshot:      snapshot,
		embedder:      embedder,
		meta:          meta,
		paths:         paths,
		interval:      DefaultCheckpointInterval,
		workers:       DefaultWorkers,
		maxTextLength: corpus.DefaultMaxTextLength,
		logger:        zap.NewNop(),
		runID:         uuid.New().String(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = zap.NewNop()
	}
	return p
}

// Result summarizes a completed run.
type Result struct {
	RunID      string `json:"run_id"`
	Total      int    `json:"total"`
	Dimensions int    `json:"dimensions"`
	Start      int    `json:"start"`
	Embedded   int    `json:"embedded"`
	Corrected  bool   `json:"corrected"`
	Rebuilt    bool   `json:"rebuilt"`
	// Dropped counts trailing rows discarded because the corpus got shorter.
	Dropped int            `json:"dropped,omitempty"`
	Paths   artifact.Paths `json:"paths"`
	Elapsed time.Duration  `json:"elapsed"`
}

// state is the in-memory artifact set of a run.
type state struct {
	matrix   *vector.Matrix
	metadata []models.RowMetadata
	rebuilt  bool
	dropped  int
	resume   Resume
}

// Run embeds every row not yet durably saved, checkpointing after each window. A dimension
// mismatch aborts the run and leaves the last saved checkpoint in place.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	log := p.logger.With(zap.String("run_id", p.runID))

	if p.paths.Lock != "" {
		lock, err := artifact.AcquireLock(p.paths.Lock)
		if err != nil {
			return nil, err
		}
		defer lock.Release()
	}

	st, err := p.prepare(ctx, log)
	if err != nil {
		return nil, err
	}

	total := p.snapshot.Len()
	log.Info("indexing started",
		zap.Int("total", total),
		zap.Int("start", st.resume.Start),
		zap.Int("dimensions", st.matrix.Dim),
		zap.Int("checkpoint_interval", p.interval),
		zap.Int("workers", p.workers),
	)

	embedded := 0
	for lo := st.resume.Start; lo < total; {
		hi := min((lo/p.interval+1)*p.interval, total)
		if err := p.embedWindow(ctx, log, st, lo, hi); err != nil {
			return nil, err
		}
		if err := p.save(ctx, st, hi); err != nil {
			return nil, err
		}
		embedded += hi - lo
		metrics.IndexingRowsTotal.Add(float64(hi - lo))
		rate, eta := progress(embedded, total-hi, time.Since(start))
		log.Info("checkpoint saved",
			zap.Int("done", hi),
			zap.Int("total", total),
			zap.Float64("rows_per_sec", rate),
			zap.Duration("eta", eta),
		)
		lo = hi
	}

	// Final save with done == total, also persisting a resize when nothing was left to embed.
	if embedded == 0 {
		if err := p.save(ctx, st, total); err != nil {
			return nil, err
		}
	}

	res := &Result{
		RunID:      p.runID,
		Total:      total,
		Dimensions: st.matrix.Dim,
		Start:      st.resume.Start,
		Embedded:   embedded,
		Corrected:  st.resume.Corrected,
		Rebuilt:    st.rebuilt,
		Dropped:    st.dropped,
		Paths:      p.paths,
		Elapsed:    time.Since(start),
	}
	log.Info("indexing complete",
		zap.Int("rows", total),
		zap.Int("dimensions", res.Dimensions),
		zap.Int("embedded", embedded),
		zap.String("vectors", p.paths.Vectors),
		zap.String("metadata", p.paths.Metadata),
		zap.String("checkpoint", p.paths.Checkpoint),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}

// prepare loads prior artifacts, validates them against the snapshot and the embedder, and
// reconciles the resume point.
func (p *Pipeline) prepare(ctx context.Context, log *zap.Logger) (*state, error) {
	total := p.snapshot.Len()
	dim := p.embedder.Dimensions()
	ids := p.snapshot.CaseIDs()

	old, err := artifact.ReadMatrix(p.paths.Vectors)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	if old != nil && old.Rows > 0 && old.Dim != dim {
		return nil, &embedding.DimensionMismatchError{Row: -1, Expected: dim, Actual: old.Dim}
	}

	stored, err := p.meta.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}

	cp, err := artifact.LoadCheckpoint(p.paths.Checkpoint)
	if err != nil {
		log.Warn("checkpoint unreadable, treating as empty", zap.String("path", p.paths.Checkpoint), zap.Error(err))
	}

	st := &state{matrix: vector.NewMatrix(total, dim)}
	if old != nil && old.Rows > 0 {
		switch {
		case old.Rows > total:
			st.dropped = old.Rows - total
			log.Warn("corpus shorter than vector array, dropping trailing rows",
				zap.Int("old_rows", old.Rows), zap.Int("rows", total), zap.Int("dropped", st.dropped))
		case old.Rows < total:
			log.Info("growing vector array", zap.Int("old_rows", old.Rows), zap.Int("rows", total))
		}
		st.matrix = old.Resize(total)
	}

	if row := snapshotMismatch(stored, ids); row >= 0 {
		log.Warn("corpus snapshot changed since last run, rebuilding from scratch",
			zap.Int("row", row),
			zap.String("stored_case_id", stored[row].CaseID),
			zap.String("corpus_case_id", ids[row]),
		)
		metrics.IndexingCorrectionsTotal.WithLabelValues("snapshot").Inc()
		st.matrix = vector.NewMatrix(total, dim)
		stored = nil
		cp.Done = 0
		st.rebuilt = true
		st.dropped = 0
	}

	verified := min(st.matrix.NonZeroPrefix(), confirmedPrefix(stored, ids))
	st.resume = Reconcile(total, cp.Done, verified)
	if st.resume.Disagrees() {
		log.Warn("checkpoint disagrees with verified rows, resuming from the smaller",
			zap.Int("checkpoint", st.resume.Checkpoint),
			zap.Int("verified", st.resume.Verified),
			zap.Int("start", st.resume.Start),
		)
		if st.resume.Corrected {
			metrics.IndexingCorrectionsTotal.WithLabelValues("checkpoint").Inc()
		}
	}

	// Rows past the resume point are re-embedded; clear them so a failed window never leaves
	// stale vectors that a later verification would count.
	for i := st.resume.Start; i < total; i++ {
		if !st.matrix.IsZeroRow(i) {
			clear(st.matrix.Row(i))
		}
	}

	st.metadata = make([]models.RowMetadata, total)
	for i := 0; i < st.resume.Start; i++ {
		st.metadata[i] = rowMetadata(p.snapshot.At(i))
	}
	return st, nil
}

// embedWindow embeds rows [lo, hi) with bounded parallelism. Wait is the barrier before a save.
func (p *Pipeline) embedWindow(ctx context.Context, log *zap.Logger, st *state, lo, hi int) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	dim := st.matrix.Dim

	for i := lo; i < hi; i++ {
		g.Go(func() error {
			rec := p.snapshot.At(i)
			text := corpus.CanonicalText(rec, p.maxTextLength)
			if text == "" {
				log.Debug("empty canonical text", zap.Int("row", i), zap.String("case_id", rec.CaseID))
			}
			vec, err := p.embedder.Embed(gctx, text)
			if err != nil {
				return fmt.Errorf("embed row %d (%s): %w", i, rec.CaseID, err)
			}
			if err := embedding.CheckDimensions(vec, dim, i); err != nil {
				return err
			}
			if err := st.matrix.SetRow(i, vec); err != nil {
				return err
			}
			if st.matrix.IsZeroRow(i) {
				log.Warn("embedder returned a zero vector", zap.Int("row", i), zap.String("case_id", rec.CaseID))
			}
			st.metadata[i] = rowMetadata(rec)
			return nil
		})
	}
	return g.Wait()
}

// save writes vectors, then metadata, then the checkpoint.
func (p *Pipeline) save(ctx context.Context, st *state, done int) error {
	if err := artifact.WriteMatrix(p.paths.Vectors, st.matrix); err != nil {
		return fmt.Errorf("save vectors: %w", err)
	}
	if err := p.meta.Save(ctx, st.metadata); err != nil {
		return fmt.Errorf("save metadata: %w", err)
	}
	if err := artifact.SaveCheckpoint(p.paths.Checkpoint, models.Checkpoint{Done: done}); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	metrics.IndexingCheckpointsTotal.Inc()
	return nil
}

// progress returns the embedding rate so far and the time left for remaining rows at that rate.
func progress(embedded, remaining int, elapsed time.Duration) (float64, time.Duration) {
	if embedded <= 0 || elapsed <= 0 {
		return 0, 0
	}
	rate := float64(embedded) / elapsed.Seconds()
	eta := time.Duration(float64(remaining) / rate * float64(time.Second)).Round(time.Second)
	return rate, eta
}

func rowMetadata(rec *models.CaseRecord) models.RowMetadata {
	if rec == nil {
		return models.RowMetadata{}
	}
	return models.RowMetadata{
		CaseID:  rec.CaseID,
		TextLen: corpus.TextLen(corpus.LongText(rec)),
	}
}
