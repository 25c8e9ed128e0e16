package search

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/storage"
	"github.com/hyperjump/precedent/internal/vector"
)

// Open loads the index generation described by cfg for snapshot. base is the unprefixed
// embedder; the query prefix is applied here.
func Open(ctx context.Context, cfg *config.Config, snapshot *corpus.Snapshot, base embedding.Embedder, logger *zap.Logger) (*Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	paths := artifact.PathsFromConfig(cfg)

	idx, err := vector.Open(cfg.Vector.IndexType, paths.Index, cfg.Embedding.Dimensions)
	if err != nil {
		if vector.IsNotBuilt(err) {
			return nil, fmt.Errorf("%w: no index at %s (run build-index)", ErrIndexNotBuilt, paths.Index)
		}
		return nil, err
	}

	lengths, err := loadLengths(ctx, paths.Metadata, snapshot)
	if err != nil {
		idx.Close()
		return nil, err
	}

	e := NewEngine(snapshot, embedding.ForQueries(base, cfg.Embedding), idx, cfg,
		WithLogger(logger), WithTextLengths(lengths))
	if err := e.Check(); err != nil {
		idx.Close()
		return nil, err
	}

	logger.Info("search engine loaded",
		zap.String("index", paths.Index),
		zap.String("index_type", idx.Type()),
		zap.Int("rows", idx.Size()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.String("fingerprint", e.fingerprint),
	)
	return e, nil
}

// loadLengths reads the metadata artifact and checks it row by row against the snapshot.
func loadLengths(ctx context.Context, path string, snapshot *corpus.Snapshot) ([]int, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no metadata at %s (run embed)", ErrIndexNotBuilt, path)
		}
		return nil, err
	}
	store, err := storage.NewSQLiteMetadataStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()

	rows, err := store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: metadata at %s is empty", ErrIndexNotBuilt, path)
	}
	if len(rows) != snapshot.Len() {
		return nil, fmt.Errorf("%w: metadata has %d rows, corpus has %d", ErrIndexInconsistent, len(rows), snapshot.Len())
	}

	lengths := make([]int, len(rows))
	for i, row := range rows {
		if id := snapshot.At(i).CaseID; row.CaseID != id {
			return nil, fmt.Errorf("%w: row %d is %q in metadata, %q in corpus", ErrIndexInconsistent, i, row.CaseID, id)
		}
		lengths[i] = row.TextLen
	}
	return lengths, nil
}
