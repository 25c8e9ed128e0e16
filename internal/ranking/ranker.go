package ranking

import (
	"sort"

	"github.com/hyperjump/precedent/internal/models"
)

// weighted pairs a factor scorer with its weight in the composite.
type weighted struct {
	scorer Scorer
	weight float64
}

// Ranker scores candidates with its factor scorers and orders them.
// It holds no mutable state and is safe for concurrent use.
type Ranker struct {
	config  *RankingConfig
	scorers []weighted
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *RankingConfig) *Ranker {
	if config == nil {
		config = DefaultRankingConfig()
	}
	config.ApplyDefaults()

	return &Ranker{
		config: config,
		scorers: []weighted{
			{NewPhraseScorer(FactorAuthority, config.Courts), config.AuthorityWeight},
			{NewPhraseScorer(FactorDepth, config.Reasoning), config.DepthWeight},
			{NewKeywordScorer(config.TopicKeywords, config.KeywordBonus), config.KeywordWeight},
		},
	}
}

// Config returns the effective configuration.
func (r *Ranker) Config() *RankingConfig {
	return r.config
}

// factors runs every scorer over ctx, keyed by scorer name.
func (r *Ranker) factors(ctx *ScoringContext) map[string]float64 {
	out := make(map[string]float64, len(r.scorers))
	for _, w := range r.scorers {
		out[w.scorer.Name()] = w.scorer.Score(ctx)
	}
	return out
}

// composite is the similarity term plus every weighted factor.
func (r *Ranker) composite(similarity float64, factors map[string]float64) float64 {
	score := similarity * r.config.SimilarityWeight
	for _, w := range r.scorers {
		score += factors[w.scorer.Name()] * w.weight
	}
	return score
}

// Score fills c's factor scores, topics and composite from text. c.Similarity must already be set.
func (r *Ranker) Score(c *models.Candidate, text string) {
	ctx := NewScoringContext(text)
	f := r.factors(ctx)
	c.Authority = f[FactorAuthority]
	c.Depth = f[FactorDepth]
	c.KeywordBonus = f[FactorKeyword]
	c.Topics = r.matches(ctx)[FactorKeyword]
	c.Score = r.composite(c.Similarity, f)
}

func (r *Ranker) matches(ctx *ScoringContext) map[string][]string {
	out := make(map[string][]string, len(r.scorers))
	for _, w := range r.scorers {
		if m, ok := w.scorer.(Matcher); ok {
			out[w.scorer.Name()] = m.Matches(ctx)
		}
	}
	return out
}

// Breakdown returns the weighted contributions and matched phrases for text at the given similarity.
func (r *Ranker) Breakdown(similarity float64, text string) *ScoreBreakdown {
	ctx := NewScoringContext(text)
	f := r.factors(ctx)
	b := &ScoreBreakdown{
		Similarity:    similarity,
		Authority:     f[FactorAuthority],
		Depth:         f[FactorDepth],
		KeywordBonus:  f[FactorKeyword],
		Matched:       r.matches(ctx),
		Contributions: map[string]float64{"similarity": similarity * r.config.SimilarityWeight},
	}
	for _, w := range r.scorers {
		b.Contributions[w.scorer.Name()] = f[w.scorer.Name()] * w.weight
	}
	b.FinalScore = r.composite(similarity, f)
	return b
}

// Rank orders candidates by composite score, descending. Equal scores keep their input order,
// which is the order they were met during the similarity scan. The result is cut to k
// (k <= 0 keeps all) and ranks are assigned from 1. The input slice is not modified.
func Rank(candidates []*models.Candidate, k int) []*models.Candidate {
	out := make([]*models.Candidate, len(candidates))
	copy(out, candidates)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	for i, c := range out {
		c.Rank = i + 1
	}
	return out
}
