package indexer

import (
	"context"
	"fmt"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/storage"
)

// Verification is the on-disk progress of an artifact set checked against a snapshot.
type Verification struct {
	Total        int  `json:"total"`
	Rows         int  `json:"rows"`
	Dimensions   int  `json:"dimensions"`
	Checkpoint   int  `json:"checkpoint"`
	Verified     int  `json:"verified"`
	Embedded     int  `json:"embedded"`
	MetadataRows int  `json:"metadata_rows"`
	Consistent   bool `json:"consistent"`
	Complete     bool `json:"complete"`
}

// Verify inspects the artifacts at paths without modifying them.
func Verify(ctx context.Context, snapshot *corpus.Snapshot, meta storage.MetadataStore, paths artifact.Paths) (*Verification, error) {
	v := &Verification{Total: snapshot.Len()}

	m, err := artifact.ReadMatrix(paths.Vectors)
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	stored, err := meta.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load metadata: %w", err)
	}
	cp, err := artifact.LoadCheckpoint(paths.Checkpoint)
	if err != nil {
		return nil, err
	}

	ids := snapshot.CaseIDs()
	v.Checkpoint = cp.Done
	v.MetadataRows = len(stored)
	v.Consistent = snapshotMismatch(stored, ids) < 0
	if m != nil {
		v.Rows = m.Rows
		v.Dimensions = m.Dim
		v.Verified = min(m.NonZeroPrefix(), confirmedPrefix(stored, ids))
		v.Embedded = m.NonZeroRows()
	}
	v.Complete = v.Consistent &&
		v.Rows == v.Total &&
		v.MetadataRows == v.Total &&
		v.Verified == v.Total &&
		v.Checkpoint == v.Total
	return v, nil
}
