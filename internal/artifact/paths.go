// Package artifact reads and writes the durable index artifacts: the embedding array, the
// progress checkpoint, and the single-writer lock.
package artifact

import "github.com/hyperjump/precedent/internal/config"

// Paths locates every artifact of one index.
type Paths struct {
	Dir        string
	Vectors    string
	Metadata   string
	Checkpoint string
	Index      string
	Lock       string
}

// PathsFromConfig resolves artifact file names against the configured directory.
func PathsFromConfig(cfg *config.Config) Paths {
	return Paths{
		Dir:        cfg.Artifacts.Dir,
		Vectors:    cfg.ArtifactPath(cfg.Artifacts.VectorsFile),
		Metadata:   cfg.ArtifactPath(cfg.Artifacts.MetadataFile),
		Checkpoint: cfg.ArtifactPath(cfg.Artifacts.CheckpointFile),
		Index:      cfg.ArtifactPath(cfg.Artifacts.IndexFile),
		Lock:       cfg.ArtifactPath(cfg.Artifacts.LockFile),
	}
}
