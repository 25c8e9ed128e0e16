// Package integration provides end-to-end tests across the indexing pipeline, the engine and the HTTP API.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/embedding"
	"github.com/hyperjump/precedent/internal/explain"
	"github.com/hyperjump/precedent/internal/indexer"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/search"
	"github.com/hyperjump/precedent/internal/server"
	"github.com/hyperjump/precedent/internal/storage"
)

func post(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func TestIntegration_ServeAfterReload(t *testing.T) {
	ctx := context.Background()
	cfg := config.Default()
	cfg.Artifacts.Dir = t.TempDir()
	cfg.Embedding.Dimensions = 16
	cfg.Retrieval.MinTextLength = 50

	snap := &corpus.Snapshot{}
	for i := 0; i < 40; i++ {
		snap.Records = append(snap.Records, &models.CaseRecord{
			CaseID: fmt.Sprintf("case-%02d", i),
			Court:  []string{"Supreme Court", "High Court", "District Court"}[i%3],
			Summary: fmt.Sprintf("In dispute %d the court held that use of the registered trademark "+
				"on identical goods was infringement and granted an injunction.", i),
		})
	}
	snap.Records = append(snap.Records, &models.CaseRecord{
		CaseID:  "proc-1",
		Court:   "Supreme Court",
		Summary: "Appeal dismissed. " + strings.Repeat("No question of law arises for decision in this trademark matter. ", 3),
	})
	base := embedding.NewMockEmbedder(cfg.Embedding.Dimensions)

	holder := search.NewHolder(nil)
	reload := func(ctx context.Context) error {
		e, err := search.Open(ctx, cfg, snap, base, nil)
		if err != nil {
			return err
		}
		if old := holder.Swap(e); old != nil {
			_ = old.Close()
		}
		return nil
	}
	srv := server.NewServer(holder, cfg, nil, server.WithReload(reload))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer func() {
		if e := holder.Swap(nil); e != nil {
			_ = e.Close()
		}
	}()

	query := models.RetrieveQuery{Query: "trademark infringement on identical goods", K: 5}

	resp := post(t, ts.URL+"/api/v1/retrieve", query)
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("retrieve before build = %d, want 503", resp.StatusCode)
	}
	resp = post(t, ts.URL+"/api/v1/reload", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("reload before build = %d, want 503", resp.StatusCode)
	}

	paths := artifact.PathsFromConfig(cfg)
	meta, err := storage.NewSQLiteMetadataStore(paths.Metadata)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := indexer.NewPipeline(snap, embedding.ForPassages(base, cfg.Embedding), meta, paths,
		indexer.WithCheckpointInterval(8)).Run(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := indexer.BuildIndex(ctx, snap, meta, paths, cfg.Vector.IndexType, nil); err != nil {
		t.Fatal(err)
	}
	if err := meta.Close(); err != nil {
		t.Fatal(err)
	}

	resp = post(t, ts.URL+"/api/v1/reload", struct{}{})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reload = %d, want 200", resp.StatusCode)
	}

	resp = post(t, ts.URL+"/api/v1/retrieve", query)
	var retrieved models.RetrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&retrieved); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("retrieve = %d, want 200", resp.StatusCode)
	}
	if len(retrieved.Results) != 5 {
		t.Fatalf("got %d results, want 5", len(retrieved.Results))
	}
	for _, c := range retrieved.Results {
		if c.CaseID == "proc-1" {
			t.Error("procedural case returned")
		}
	}

	resp = post(t, ts.URL+"/api/v1/explain", query)
	var p models.Precedent
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if p.Candidate == nil {
		t.Fatal("no precedent selected")
	}
	if p.Candidate.CaseID != retrieved.Results[0].CaseID {
		t.Errorf("explained %s, top ranked %s", p.Candidate.CaseID, retrieved.Results[0].CaseID)
	}
	if p.Explanation != explain.Explain(p.Candidate) {
		t.Errorf("explanation mismatch:\n%s\nwant\n%s", p.Explanation, explain.Explain(p.Candidate))
	}

	resp = post(t, ts.URL+"/api/v1/retrieve", models.RetrieveQuery{Query: "   "})
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("blank query = %d, want 400", resp.StatusCode)
	}

	statusResp, err := http.Get(ts.URL + "/api/v1/status")
	if err != nil {
		t.Fatal(err)
	}
	defer statusResp.Body.Close()
	if statusResp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", statusResp.StatusCode)
	}
}
