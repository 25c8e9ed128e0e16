package ranking

import (
	"math"
	"testing"

	"github.com/hyperjump/precedent/internal/models"
)

const eps = 1e-9

func TestNewRanker(t *testing.T) {
	ranker := NewRanker(nil)
	if ranker.config == nil {
		t.Fatal("Expected non-nil config")
	}
	if ranker.config.AuthorityWeight != 0.20 {
		t.Errorf("AuthorityWeight = %v, want 0.20", ranker.config.AuthorityWeight)
	}

	ranker = NewRanker(&RankingConfig{DepthWeight: 0.5})
	if ranker.config.DepthWeight != 0.5 {
		t.Errorf("DepthWeight = %v, want 0.5", ranker.config.DepthWeight)
	}
	if len(ranker.config.Courts) != 6 {
		t.Errorf("expected default court table, got %d entries", len(ranker.config.Courts))
	}
}

func TestRanker_zeroWeightsDisableFactors(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.AuthorityWeight = 0
	cfg.KeywordWeight = 0
	r := NewRanker(cfg)

	c := &models.Candidate{Similarity: 0.5}
	r.Score(c, "The Supreme Court found trademark infringement.")
	if c.Authority != 5.0 || c.KeywordBonus != 1.0 {
		t.Errorf("factors = authority %v keyword %v, want 5 and 1", c.Authority, c.KeywordBonus)
	}
	if math.Abs(c.Score-0.5) > eps {
		t.Errorf("Score = %v, want 0.5 with authority and keyword weights at 0", c.Score)
	}
}

func TestPhraseScorer_sumsAllMatches(t *testing.T) {
	s := NewPhraseScorer("authority", DefaultCourts())
	tests := []struct {
		text string
		want float64
	}{
		{"no courts mentioned", 0},
		{"Decided by the SUPREME COURT", 5.0},
		{"supreme court reversed the court of appeals", 9.0},
		{"district court, then circuit court, then supreme court", 9.0},
		{"trial court", 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := s.Score(NewScoringContext(tt.text)); math.Abs(got-tt.want) > eps {
				t.Errorf("Score = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPhraseScorer_repeatedPhraseCountsOnce(t *testing.T) {
	s := NewPhraseScorer("depth", DefaultReasoning())
	got := s.Score(NewScoringContext("we hold ... we hold ... we hold"))
	if got != 2.5 {
		t.Errorf("Score = %v, want 2.5", got)
	}
}

func TestKeywordScorer(t *testing.T) {
	s := NewKeywordScorer([]string{"trademark"}, 1.0)
	if got := s.Score(NewScoringContext("A Trademark dispute")); got != 1.0 {
		t.Errorf("Score = %v, want 1", got)
	}
	if got := s.Score(NewScoringContext("a patent dispute")); got != 0 {
		t.Errorf("Score = %v, want 0", got)
	}
}

func TestRanker_Score(t *testing.T) {
	r := NewRanker(nil)
	c := &models.Candidate{CaseID: "A", Similarity: 0.80}
	r.Score(c, "trademark opinion of the court, we hold for plaintiff, supreme court")

	if c.Authority != 5.0 {
		t.Errorf("Authority = %v, want 5", c.Authority)
	}
	if c.Depth != 6.5 {
		t.Errorf("Depth = %v, want 6.5", c.Depth)
	}
	if c.KeywordBonus != 1.0 {
		t.Errorf("KeywordBonus = %v, want 1", c.KeywordBonus)
	}
	if math.Abs(c.Score-2.875) > eps {
		t.Errorf("Score = %v, want 2.875", c.Score)
	}
}

func TestRanker_topicsFollowConfig(t *testing.T) {
	cfg := DefaultRankingConfig()
	cfg.TopicKeywords = []string{"Patent", "trademark"}
	r := NewRanker(cfg)

	c := &models.Candidate{Similarity: 0.5}
	r.Score(c, "A patent claim construction dispute")
	if c.KeywordBonus != 1.0 {
		t.Errorf("KeywordBonus = %v, want 1", c.KeywordBonus)
	}
	if len(c.Topics) != 1 || c.Topics[0] != "patent" {
		t.Errorf("Topics = %v, want [patent]", c.Topics)
	}

	b := r.Breakdown(0.5, "A patent and trademark dispute")
	if got := b.Matched[FactorKeyword]; len(got) != 2 || got[0] != "patent" || got[1] != "trademark" {
		t.Errorf("Matched[keyword] = %v", got)
	}
}

func TestRanker_Breakdown(t *testing.T) {
	r := NewRanker(nil)
	b := r.Breakdown(0.5, "The district court; as a matter of law")
	if math.Abs(b.Contributions["authority"]-0.3) > eps {
		t.Errorf("authority contribution = %v", b.Contributions["authority"])
	}
	if math.Abs(b.FinalScore-(0.5+0.3+0.225)) > eps {
		t.Errorf("FinalScore = %v", b.FinalScore)
	}
	if len(b.Matched["depth"]) != 1 || b.Matched["depth"][0] != "as a matter of law" {
		t.Errorf("Matched[depth] = %v", b.Matched["depth"])
	}
}

func TestRank_stableTieBreak(t *testing.T) {
	cands := []*models.Candidate{
		{CaseID: "first", Score: 1.0},
		{CaseID: "high", Score: 2.0},
		{CaseID: "second", Score: 1.0},
		{CaseID: "third", Score: 1.0},
	}
	for run := 0; run < 5; run++ {
		got := Rank(cands, 0)
		want := []string{"high", "first", "second", "third"}
		for i, c := range got {
			if c.CaseID != want[i] {
				t.Fatalf("run %d: position %d = %s, want %s", run, i, c.CaseID, want[i])
			}
			if c.Rank != i+1 {
				t.Errorf("Rank = %d, want %d", c.Rank, i+1)
			}
		}
	}
	if cands[0].CaseID != "first" {
		t.Error("input slice must not be reordered")
	}
}

func TestRank_truncatesToK(t *testing.T) {
	cands := []*models.Candidate{{CaseID: "a", Score: 3}, {CaseID: "b", Score: 2}, {CaseID: "c", Score: 1}}
	if got := Rank(cands, 2); len(got) != 2 || got[1].CaseID != "b" {
		t.Errorf("Rank(k=2) = %v", got)
	}
	if got := Rank(cands, 10); len(got) != 3 {
		t.Errorf("Rank(k=10) len = %d", len(got))
	}
	if got := Rank(nil, 5); len(got) != 0 {
		t.Errorf("Rank(nil) len = %d", len(got))
	}
}
