package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/storage"
	"github.com/hyperjump/precedent/internal/vector"
)

var (
	// ErrIncomplete is returned when building an index from an artifact set that is not fully embedded.
	ErrIncomplete = errors.New("embedding artifacts incomplete")
	// ErrIndexTypeUnavailable is returned when the requested index type is not compiled in.
	ErrIndexTypeUnavailable = errors.New("index type not available in this build")
)

// BuildResult describes a saved vector index.
type BuildResult struct {
	Path       string        `json:"path"`
	Type       string        `json:"type"`
	Rows       int           `json:"rows"`
	Dimensions int           `json:"dimensions"`
	Elapsed    time.Duration `json:"elapsed"`
}

// BuildIndex builds the vector index from a complete vector array and saves it to paths.Index.
func BuildIndex(
	ctx context.Context,
	snapshot *corpus.Snapshot,
	meta storage.MetadataStore,
	paths artifact.Paths,
	indexType string,
	logger *zap.Logger,
) (*BuildResult, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	start := time.Now()

	if vector.IndexType(indexType) == vector.IndexTypeFAISS && !vector.IsFAISSAvailable() {
		return nil, fmt.Errorf("%w: faiss (rebuild with -tags=faiss)", ErrIndexTypeUnavailable)
	}

	if paths.Lock != "" {
		lock, err := artifact.AcquireLock(paths.Lock)
		if err != nil {
			return nil, err
		}
		defer lock.Release()
	}

	v, err := Verify(ctx, snapshot, meta, paths)
	if err != nil {
		return nil, err
	}
	if !v.Complete {
		return nil, fmt.Errorf("%w: %d of %d rows verified (checkpoint %d, consistent %t); run embed first",
			ErrIncomplete, v.Verified, v.Total, v.Checkpoint, v.Consistent)
	}

	m, err := artifact.ReadMatrix(paths.Vectors)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	idx, err := vector.Build(indexType, m)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	defer idx.Close()

	if err := idx.Save(paths.Index); err != nil {
		return nil, fmt.Errorf("save index: %w", err)
	}

	res := &BuildResult{
		Path:       paths.Index,
		Type:       idx.Type(),
		Rows:       idx.Size(),
		Dimensions: idx.Dimensions(),
		Elapsed:    time.Since(start),
	}
	logger.Info("vector index built",
		zap.String("path", res.Path),
		zap.String("type", res.Type),
		zap.Int("rows", res.Rows),
		zap.Int("dimensions", res.Dimensions),
		zap.Duration("elapsed", res.Elapsed),
	)
	return res, nil
}
