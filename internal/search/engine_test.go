package search

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/explain"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/vector"
)

type fixedEmbedder struct{ vec []float32 }

func (e fixedEmbedder) Embed(context.Context, string) ([]float32, error) { return e.vec, nil }
func (e fixedEmbedder) Dimensions() int                                  { return len(e.vec) }
func (e fixedEmbedder) Close() error                                     { return nil }

type fixedSearcher struct {
	size      int
	neighbors []vector.Neighbor
}

func (s *fixedSearcher) Search(context.Context, []float32, int) ([]vector.Neighbor, error) {
	return s.neighbors, nil
}
func (s *fixedSearcher) Size() int       { return s.size }
func (s *fixedSearcher) Dimensions() int { return 2 }

// pad extends s with filler to exactly n runes.
func pad(s string, n int) string {
	return s + strings.Repeat("z", n-len([]rune(s)))
}

func scenarioConfig() *config.Config {
	cfg := config.Default()
	cfg.Retrieval.MinTextLength = 100
	return cfg
}

func scenarioSnapshot() *corpus.Snapshot {
	return &corpus.Snapshot{Records: []*models.CaseRecord{
		{CaseID: "A", Title: "Alpha v. Beta", RawText: pad("trademark opinion of the court, we hold for plaintiff, supreme court ", 120)},
		{CaseID: "B", RawText: pad("motion denied ", 20)},
		{CaseID: "C", RawText: pad("the district court entered judgment for the defendant ", 900)},
	}}
}

func TestRetrieveScenario(t *testing.T) {
	searcher := &fixedSearcher{size: 3, neighbors: []vector.Neighbor{
		{Row: 1, Score: 0.90},
		{Row: 2, Score: 0.85},
		{Row: 0, Score: 0.80},
	}}
	e := NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, searcher, scenarioConfig())

	resp, err := e.Retrieve(context.Background(), &models.RetrieveQuery{Query: "trademark infringement dispute.", K: 5})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, 2, resp.Total)

	a, c := resp.Results[0], resp.Results[1]
	assert.Equal(t, "A", a.CaseID)
	assert.Equal(t, 1, a.Rank)
	assert.InDelta(t, 5.0, a.Authority, 1e-9)
	assert.InDelta(t, 6.5, a.Depth, 1e-9)
	assert.InDelta(t, 1.0, a.KeywordBonus, 1e-9)
	assert.InDelta(t, 2.875, a.Score, 1e-9)

	assert.Equal(t, "C", c.CaseID)
	assert.Equal(t, 2, c.Rank)
	assert.InDelta(t, 1.5, c.Authority, 1e-9)
	assert.InDelta(t, 0.0, c.Depth, 1e-9)
	assert.InDelta(t, 0.0, c.KeywordBonus, 1e-9)
	assert.InDelta(t, 1.15, c.Score, 1e-9)

	p, err := e.ExplainTop(context.Background(), &models.RetrieveQuery{Query: "trademark infringement dispute.", K: 5})
	require.NoError(t, err)
	require.NotNil(t, p.Candidate)
	assert.Equal(t, "A", p.Candidate.CaseID)
	assert.Contains(t, p.Explanation, "highly authoritative court (score 5.00)")
	assert.Contains(t, p.Explanation, "substantial judicial reasoning (depth 6.50)")
	assert.Contains(t, p.Explanation, "semantic similarity 0.800")
	assert.Contains(t, p.Explanation, "trademark-related")

	b := e.Breakdown(a)
	assert.InDelta(t, a.Score, b.FinalScore, 1e-9)
}

func TestRetrieveEmptyScenario(t *testing.T) {
	searcher := &fixedSearcher{size: 3, neighbors: []vector.Neighbor{
		{Row: vector.PaddingRow}, {Row: 3}, {Row: 42},
	}}
	e := NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, searcher, scenarioConfig())

	resp, err := e.Retrieve(context.Background(), &models.RetrieveQuery{Query: "trademark infringement dispute.", K: 5})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Total)

	p, err := e.ExplainTop(context.Background(), &models.RetrieveQuery{Query: "trademark infringement dispute.", K: 5})
	require.NoError(t, err)
	assert.Nil(t, p.Candidate)
	assert.Equal(t, explain.NoPrecedent, p.Explanation)
}

func TestRetrieveTiesKeepScanOrder(t *testing.T) {
	snap := &corpus.Snapshot{Records: []*models.CaseRecord{
		{CaseID: "X", RawText: pad("plain text ", 200)},
		{CaseID: "Y", RawText: pad("plain text ", 200)},
		{CaseID: "Z", RawText: pad("plain text ", 200)},
	}}
	searcher := &fixedSearcher{size: 3, neighbors: []vector.Neighbor{
		{Row: 2, Score: 0.5}, {Row: 0, Score: 0.5}, {Row: 1, Score: 0.5},
	}}
	e := NewEngine(snap, fixedEmbedder{vec: []float32{1, 0}}, searcher, scenarioConfig())

	for i := 0; i < 5; i++ {
		resp, err := e.Retrieve(context.Background(), &models.RetrieveQuery{Query: "q", K: 2})
		require.NoError(t, err)
		require.Len(t, resp.Results, 2)
		assert.Equal(t, "Z", resp.Results[0].CaseID)
		assert.Equal(t, "X", resp.Results[1].CaseID)
		assert.Equal(t, 3, resp.Total)
	}
}

func TestRetrieveValidation(t *testing.T) {
	e := NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, &fixedSearcher{size: 3}, scenarioConfig())
	_, err := e.Retrieve(context.Background(), &models.RetrieveQuery{Query: "  "})
	assert.ErrorIs(t, err, models.ErrEmptyQuery)

	e = NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, nil, scenarioConfig())
	_, err = e.Retrieve(context.Background(), &models.RetrieveQuery{Query: "q"})
	assert.ErrorIs(t, err, ErrIndexNotBuilt)
}

func TestSimilar(t *testing.T) {
	searcher := &fixedSearcher{size: 3, neighbors: []vector.Neighbor{
		{Row: 1, Score: 0.90}, {Row: 2, Score: 0.85}, {Row: 0, Score: 0.80},
	}}
	e := NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, searcher, scenarioConfig())

	resp, err := e.Similar(context.Background(), &models.RetrieveQuery{Query: "q", K: 2})
	require.NoError(t, err)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "B", resp.Results[0].CaseID, "similar applies no hard filters")
	assert.InDelta(t, 0.90, resp.Results[0].Score, 1e-9)
}

func TestHolderSwap(t *testing.T) {
	h := NewHolder(nil)
	assert.Nil(t, h.Engine())

	first := NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, &fixedSearcher{size: 3}, scenarioConfig())
	second := NewEngine(scenarioSnapshot(), fixedEmbedder{vec: []float32{1, 0}}, &fixedSearcher{size: 3}, scenarioConfig())

	assert.Nil(t, h.Swap(first))
	assert.Same(t, first, h.Engine())
	assert.Same(t, first, h.Swap(second))
	assert.Same(t, second, h.Engine())
}
