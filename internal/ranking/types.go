// Package ranking computes the explainable composite score for retrieval candidates and orders them.
package ranking

import "strings"

// ScoringContext carries the text a candidate is scored on. Lower is computed once and shared
// by every scorer.
type ScoringContext struct {
	Text  string
	Lower string
}

// NewScoringContext prepares text for case-insensitive matching.
func NewScoringContext(text string) *ScoringContext {
	return &ScoringContext{Text: text, Lower: strings.ToLower(text)}
}

// Factor names, shared by scorers, breakdown keys and configuration.
const (
	FactorAuthority = "authority"
	FactorDepth     = "depth"
	FactorKeyword   = "keyword"
)

// Scorer is the interface for all factor scorers.
type Scorer interface {
	// Score returns the factor value for the context's text.
	Score(ctx *ScoringContext) float64
	// Name returns the name of the scorer for debugging/logging.
	Name() string
}

// Matcher is implemented by scorers that can report which of their phrases fired.
type Matcher interface {
	Matches(ctx *ScoringContext) []string
}

// ScoreBreakdown shows how a composite score was assembled.
type ScoreBreakdown struct {
	Similarity   float64 `json:"similarity"`
	Authority    float64 `json:"authority"`
	Depth        float64 `json:"depth"`
	KeywordBonus float64 `json:"keyword_bonus"`
	// Contributions are the weighted terms, keyed by factor name.
	Contributions map[string]float64 `json:"contributions"`
	// Matched lists the phrases that fired, keyed by scorer name.
	Matched    map[string][]string `json:"matched"`
	FinalScore float64             `json:"final_score"`
}
