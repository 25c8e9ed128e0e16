package ranking

// PhraseWeight pairs a case-insensitive phrase with the weight it contributes when present.
type PhraseWeight struct {
	Phrase string  `yaml:"phrase" json:"phrase"`
	Weight float64 `yaml:"weight" json:"weight"`
}

// RankingConfig holds the composite-score weights and the phrase tables the factor scorers use.
// A zero weight switches its factor off; start from DefaultRankingConfig to get the defaults.
type RankingConfig struct {
	// Composite = Similarity*SimilarityWeight + Authority*AuthorityWeight + Depth*DepthWeight + Keyword*KeywordWeight
	SimilarityWeight float64 `yaml:"similarity_weight"` // default: 1.0
	AuthorityWeight  float64 `yaml:"authority_weight"`  // default: 0.20
	DepthWeight      float64 `yaml:"depth_weight"`      // default: 0.15
	KeywordWeight    float64 `yaml:"keyword_weight"`    // default: 0.10

	// KeywordBonus is awarded once when any topic keyword appears.
	KeywordBonus  float64  `yaml:"keyword_bonus"`  // default: 1.0
	TopicKeywords []string `yaml:"topic_keywords"` // default: ["trademark"]

	// Courts are summed, not maxed: text naming several tiers accumulates every weight.
	Courts    []PhraseWeight `yaml:"courts"`
	Reasoning []PhraseWeight `yaml:"reasoning"`
}

// DefaultCourts is the court-tier table, in evaluation order.
func DefaultCourts() []PhraseWeight {
	return []PhraseWeight{
		{"supreme court", 5.0},
		{"court of appeals", 4.0},
		{"appellate division", 3.0},
		{"circuit court", 2.5},
		{"district court", 1.5},
		{"trial court", 1.0},
	}
}

// DefaultReasoning is the reasoning-depth phrase table, in evaluation order.
func DefaultReasoning() []PhraseWeight {
	return []PhraseWeight{
		{"opinion of the court", 4.0},
		{"we hold", 2.5},
		{"the issue is", 2.0},
		{"the question before the court", 2.0},
		{"in this action", 1.5},
		{"as a matter of law", 1.5},
		{"reasoning", 2.0},
		{"analysis", 1.5},
	}
}

// DefaultRankingConfig returns the default ranking configuration.
func DefaultRankingConfig() *RankingConfig {
	return &RankingConfig{
		SimilarityWeight: 1.0,
		AuthorityWeight:  0.20,
		DepthWeight:      0.15,
		KeywordWeight:    0.10,
		KeywordBonus:     1.0,
		TopicKeywords:    []string{"trademark"},
		Courts:           DefaultCourts(),
		Reasoning:        DefaultReasoning(),
	}
}

// ApplyDefaults fills in tables that were never set. Weights are left as given, zero included.
func (c *RankingConfig) ApplyDefaults() {
	defaults := DefaultRankingConfig()

	if c.TopicKeywords == nil {
		c.TopicKeywords = defaults.TopicKeywords
	}
	if c.Courts == nil {
		c.Courts = defaults.Courts
	}
	if c.Reasoning == nil {
		c.Reasoning = defaults.Reasoning
	}
}
