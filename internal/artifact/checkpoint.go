package artifact

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/pkg/utils"
)

// LoadCheckpoint reads the progress checkpoint. A missing file yields {done: 0} with a nil error;
// an unreadable one yields {done: 0} and the parse error so callers can log it.
func LoadCheckpoint(path string) (models.Checkpoint, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.Checkpoint{}, nil
		}
		return models.Checkpoint{}, fmt.Errorf("read checkpoint: %w", err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return models.Checkpoint{}, fmt.Errorf("parse checkpoint: %w", err)
	}
	if cp.Done < 0 {
		cp.Done = 0
	}
	return cp, nil
}

// SaveCheckpoint overwrites the checkpoint file atomically.
func SaveCheckpoint(path string, cp models.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
}
