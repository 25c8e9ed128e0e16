// Package explain narrates why a candidate was ranked first, using a fixed decision tree over
// its factor scores.
package explain

import (
	"fmt"
	"strings"

	"github.com/hyperjump/precedent/internal/models"
)

// NoPrecedent is the explanation returned when no candidate survives filtering.
const NoPrecedent = "No suitable precedent found after applying filters."

const (
	highAuthority    = 4.0
	substantialDepth = 3.0
)

// Explain returns the justification for c as the top-ranked precedent.
func Explain(c *models.Candidate) string {
	if c == nil {
		return NoPrecedent
	}
	lines := []string{
		fmt.Sprintf("Case %s is selected as the strongest precedent because:", c.CaseID),
		authorityLine(c.Authority),
		depthLine(c.Depth),
		fmt.Sprintf("- It is closely related to the input scenario (semantic similarity %.3f).", c.Similarity),
	}
	if c.KeywordBonus > 0 {
		lines = append(lines, topicLine(c.Topics))
	}
	lines = append(lines, "- After filtering procedural cases and re-ranking, this case had the highest overall score.")
	return strings.Join(lines, "\n")
}

func topicLine(topics []string) string {
	topic := "topic"
	if len(topics) > 0 {
		topic = strings.Join(topics, "/")
	}
	return fmt.Sprintf("- It discusses %s-related matters, aligning with the query topic.", topic)
}

func authorityLine(score float64) string {
	switch {
	case score >= highAuthority:
		return fmt.Sprintf("- It originates from a highly authoritative court (score %.2f).", score)
	case score > 0:
		return fmt.Sprintf("- It comes from a moderately authoritative court (score %.2f).", score)
	default:
		return fmt.Sprintf("- Although court authority is low (%.2f), other factors compensate.", score)
	}
}

func depthLine(score float64) string {
	switch {
	case score >= substantialDepth:
		return fmt.Sprintf("- The case contains substantial judicial reasoning (depth %.2f).", score)
	case score > 0:
		return fmt.Sprintf("- The case includes some relevant legal reasoning (depth %.2f).", score)
	default:
		return "- It lacks explicit reasoning phrases but remains legally relevant."
	}
}

// ExplainTop explains the first of ranked. An empty list yields a Precedent with no candidate.
func ExplainTop(ranked []*models.Candidate) *models.Precedent {
	if len(ranked) == 0 {
		return &models.Precedent{Explanation: NoPrecedent}
	}
	return &models.Precedent{Candidate: ranked[0], Explanation: Explain(ranked[0])}
}
