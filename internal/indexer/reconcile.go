package indexer

import "github.com/hyperjump/precedent/internal/models"

// Resume is the reconciled starting point of a run.
type Resume struct {
	// Start is the first row to embed.
	Start int
	// Checkpoint and Verified are the inputs after clamping to [0, total].
	Checkpoint int
	Verified   int
	// Corrected is set when the checkpoint claimed more rows than could be verified.
	Corrected bool
}

// Disagrees reports whether the checkpoint and the verified row count differ.
func (r Resume) Disagrees() bool {
	return r.Checkpoint != r.Verified
}

// Reconcile chooses where a run resumes. The stored checkpoint is never trusted past the rows
// verified by inspecting the array, so the start is the smaller of the two.
func Reconcile(total, checkpointDone, verified int) Resume {
	clamp := func(v int) int {
		return max(0, min(v, total))
	}
	r := Resume{
		Checkpoint: clamp(checkpointDone),
		Verified:   clamp(verified),
	}
	r.Start = min(r.Checkpoint, r.Verified)
	r.Corrected = r.Checkpoint > r.Verified
	return r
}

// confirmedPrefix counts leading rows whose stored metadata names the case at the same corpus
// position. Rows saved as pending carry no case id and stop the count.
func confirmedPrefix(stored []models.RowMetadata, ids []string) int {
	n := min(len(stored), len(ids))
	for i := 0; i < n; i++ {
		if stored[i].CaseID != ids[i] {
			return i
		}
	}
	return n
}

// snapshotMismatch returns the first row whose stored case id differs from the corpus record at
// that position, or -1 when every stored row agrees.
func snapshotMismatch(stored []models.RowMetadata, ids []string) int {
	for i, meta := range stored {
		if meta.CaseID == "" {
			continue
		}
		if i >= len(ids) {
			// Rows past the end of a shrunken corpus are dropped by the resize.
			return -1
		}
		if meta.CaseID != ids[i] {
			return i
		}
	}
	return -1
}
