package ranking

import "strings"

// PhraseScorer sums the weight of every table phrase found in the text.
type PhraseScorer struct {
	name    string
	phrases []PhraseWeight
}

// NewPhraseScorer creates a scorer over phrases. Phrases are matched lower-cased.
func NewPhraseScorer(name string, phrases []PhraseWeight) *PhraseScorer {
	lowered := make([]PhraseWeight, 0, len(phrases))
	for _, p := range phrases {
		if p.Phrase == "" {
			continue
		}
		lowered = append(lowered, PhraseWeight{Phrase: strings.ToLower(p.Phrase), Weight: p.Weight})
	}
	return &PhraseScorer{name: name, phrases: lowered}
}

// Name returns the scorer name.
func (s *PhraseScorer) Name() string {
	return s.name
}

// Score returns the sum of weights of matching phrases; each phrase counts at most once.
func (s *PhraseScorer) Score(ctx *ScoringContext) float64 {
	var total float64
	for _, p := range s.phrases {
		if strings.Contains(ctx.Lower, p.Phrase) {
			total += p.Weight
		}
	}
	return total
}

// Matches returns the phrases found in the text, in table order.
func (s *PhraseScorer) Matches(ctx *ScoringContext) []string {
	var out []string
	for _, p := range s.phrases {
		if strings.Contains(ctx.Lower, p.Phrase) {
			out = append(out, p.Phrase)
		}
	}
	return out
}

// KeywordScorer awards a fixed bonus when any topic keyword appears.
type KeywordScorer struct {
	keywords []string
	bonus    float64
}

// NewKeywordScorer creates a scorer for the given topic keywords.
func NewKeywordScorer(keywords []string, bonus float64) *KeywordScorer {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k != "" {
			lowered = append(lowered, strings.ToLower(k))
		}
	}
	return &KeywordScorer{keywords: lowered, bonus: bonus}
}

// Name returns the scorer name.
func (s *KeywordScorer) Name() string {
	return FactorKeyword
}

// Score returns the bonus if any keyword is present, else 0.
func (s *KeywordScorer) Score(ctx *ScoringContext) float64 {
	for _, k := range s.keywords {
		if strings.Contains(ctx.Lower, k) {
			return s.bonus
		}
	}
	return 0
}

// Matches returns the keywords found in the text, in configured order.
func (s *KeywordScorer) Matches(ctx *ScoringContext) []string {
	var out []string
	for _, k := range s.keywords {
		if strings.Contains(ctx.Lower, k) {
			out = append(out, k)
		}
	}
	return out
}
