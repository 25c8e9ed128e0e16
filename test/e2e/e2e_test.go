package e2e

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/indexer"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/search"
	"github.com/hyperjump/precedent/internal/storage"
)

const (
	e2eCases      = 100
	e2eDimensions = 32
	e2eInterval   = 16
)

// flakyEmbedder fails every input containing failOn.
type flakyEmbedder struct {
	embedding.Embedder
	failOn string
}

func (f *flakyEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.Contains(text, f.failOn) {
		return nil, errors.New("provider unavailable")
	}
	return f.Embedder.Embed(ctx, text)
}

func e2eConfig(dir string) *config.Config {
	cfg := config.Default()
	cfg.Corpus.Path = filepath.Join(dir, "cases.jsonl")
	cfg.Artifacts.Dir = filepath.Join(dir, "artifacts")
	cfg.Embedding.Dimensions = e2eDimensions
	noPrefix := ""
	cfg.Embedding.QueryPrefix = &noPrefix
	cfg.Indexing.CheckpointInterval = e2eInterval
	return cfg
}

func TestE2E_InterruptedIndexingThenRetrieval(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	cfg := e2eConfig(dir)
	c := BuildCorpus(e2eCases)

	data, err := c.JSONL()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(cfg.Corpus.Path, data, 0600); err != nil {
		t.Fatal(err)
	}
	snap, err := corpus.Load(ctx, cfg.Corpus.Path)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != c.TotalCases {
		t.Fatalf("loaded %d records, want %d", snap.Len(), c.TotalCases)
	}

	paths := artifact.PathsFromConfig(cfg)
	meta, err := storage.NewSQLiteMetadataStore(paths.Metadata)
	if err != nil {
		t.Fatal(err)
	}
	defer meta.Close()

	base := embedding.NewMockEmbedder(e2eDimensions)
	passages := embedding.ForPassages(base, cfg.Embedding)

	// Row 39 sits in the third window; the first two must survive the failure.
	flaky := &flakyEmbedder{Embedder: passages, failOn: "matter number 40,"}
	if _, err := indexer.NewPipeline(snap, flaky, meta, paths,
		indexer.WithCheckpointInterval(e2eInterval)).Run(ctx); err == nil {
		t.Fatal("expected the first run to fail")
	}
	cp, err := artifact.LoadCheckpoint(paths.Checkpoint)
	if err != nil {
		t.Fatal(err)
	}
	if cp.Done != 2*e2eInterval {
		t.Fatalf("checkpoint after failure = %d, want %d", cp.Done, 2*e2eInterval)
	}

	if _, err := search.Open(ctx, cfg, snap, base, nil); !errors.Is(err, search.ErrIndexNotBuilt) {
		t.Fatalf("open before build: err = %v, want ErrIndexNotBuilt", err)
	}
	if _, err := indexer.BuildIndex(ctx, snap, meta, paths, cfg.Vector.IndexType, nil); !errors.Is(err, indexer.ErrIncomplete) {
		t.Fatalf("build on partial artifacts: err = %v, want ErrIncomplete", err)
	}

	res, err := indexer.NewPipeline(snap, passages, meta, paths,
		indexer.WithCheckpointInterval(e2eInterval)).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Start != 2*e2eInterval {
		t.Errorf("resumed at %d, want %d", res.Start, 2*e2eInterval)
	}
	if res.Embedded != c.TotalCases-2*e2eInterval {
		t.Errorf("embedded %d rows on resume, want %d", res.Embedded, c.TotalCases-2*e2eInterval)
	}

	v, err := indexer.Verify(ctx, snap, meta, paths)
	if err != nil {
		t.Fatal(err)
	}
	if !v.Complete {
		t.Fatalf("artifacts not complete after resume: %+v", v)
	}

	if _, err := indexer.BuildIndex(ctx, snap, meta, paths, cfg.Vector.IndexType, nil); err != nil {
		t.Fatal(err)
	}
	engine, err := search.Open(ctx, cfg, snap, base, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	t.Run("scenarios find their case", func(t *testing.T) {
		for _, tc := range c.TestCases {
			resp, err := engine.Similar(ctx, &models.RetrieveQuery{Query: tc.Scenario, K: 1})
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Results) != 1 || resp.Results[0].CaseID != tc.ExpectedCaseID {
				t.Errorf("%s: got %v", tc.Description, ids(resp.Results))
			}
		}
	})

	t.Run("retrieval honours filters", func(t *testing.T) {
		excluded := c.Excluded()
		for _, tc := range c.TestCases {
			resp, err := engine.Retrieve(ctx, &models.RetrieveQuery{Query: tc.Scenario, K: 20})
			if err != nil {
				t.Fatal(err)
			}
			if len(resp.Results) == 0 {
				t.Fatalf("%q: no results", tc.ExpectedCaseID)
			}
			seen := make(map[string]bool)
			for i, cand := range resp.Results {
				if excluded[cand.CaseID] {
					t.Errorf("filtered case %s returned", cand.CaseID)
				}
				if seen[cand.CaseID] {
					t.Errorf("duplicate case %s returned", cand.CaseID)
				}
				seen[cand.CaseID] = true
				if cand.Rank != i+1 {
					t.Errorf("rank %d at position %d", cand.Rank, i)
				}
				if i > 0 && cand.Score > resp.Results[i-1].Score {
					t.Errorf("results not sorted: %v after %v", cand.Score, resp.Results[i-1].Score)
				}
			}
		}
	})

	t.Run("explanation names the top case", func(t *testing.T) {
		tc := c.TestCases[0]
		p, err := engine.ExplainTop(ctx, &models.RetrieveQuery{Query: tc.Scenario, K: 5})
		if err != nil {
			t.Fatal(err)
		}
		if p.Candidate == nil {
			t.Fatalf("no precedent selected: %s", p.Explanation)
		}
		header := "Case " + p.Candidate.CaseID + " is selected as the strongest precedent because:"
		if !strings.HasPrefix(p.Explanation, header) {
			t.Errorf("explanation = %q", p.Explanation)
		}
		if !strings.HasSuffix(p.Explanation, "this case had the highest overall score.") {
			t.Errorf("explanation missing closing line: %q", p.Explanation)
		}
	})
}

func TestE2E_RerunIsNoOp(t *testing.T) {
	ctx := context.Background()
	cfg := e2eConfig(t.TempDir())
	c := BuildCorpus(30)
	snap := &corpus.Snapshot{Records: c.Records}

	paths := artifact.PathsFromConfig(cfg)
	meta, err := storage.NewSQLiteMetadataStore(paths.Metadata)
	if err != nil {
		t.Fatal(err)
	}
	defer meta.Close()
	embedder := embedding.NewMockEmbedder(e2eDimensions)

	if _, err := indexer.NewPipeline(snap, embedder, meta, paths).Run(ctx); err != nil {
		t.Fatal(err)
	}
	first, err := os.ReadFile(paths.Vectors)
	if err != nil {
		t.Fatal(err)
	}

	res, err := indexer.NewPipeline(snap, embedder, meta, paths).Run(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if res.Embedded != 0 || res.Start != snap.Len() {
		t.Errorf("rerun embedded %d rows from %d, want none", res.Embedded, res.Start)
	}
	second, err := os.ReadFile(paths.Vectors)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) {
		t.Error("vectors changed on a no-op rerun")
	}
}

func ids(cands []*models.Candidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.CaseID
	}
	return out
}
