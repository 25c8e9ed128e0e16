package corpus

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hyperjump/precedent/internal/models"
)

// DefaultMaxTextLength caps the canonical text handed to the embedder, in runes.
const DefaultMaxTextLength = 10000

// Normalize trims text and collapses every whitespace run into a single space.
func Normalize(text string) string {
	text = strings.TrimSpace(text)
	var b strings.Builder
	b.Grow(len(text))
	wasSpace := false
	for _, r := range text {
		if unicode.IsSpace(r) {
			if !wasSpace {
				b.WriteRune(' ')
				wasSpace = true
			}
		} else {
			b.WriteRune(r)
			wasSpace = false
		}
	}
	return b.String()
}

// firstText returns the first non-blank of summary, case_summary, facts, raw_text.
func firstText(rec *models.CaseRecord) string {
	if rec == nil {
		return ""
	}
	for _, s := range []string{rec.Summary, rec.CaseSummary, rec.Facts, rec.RawText} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// CanonicalText is the text embedded for rec: the first populated field in priority order,
// whitespace-collapsed and cut to maxLen runes. maxLen <= 0 disables the cut.
func CanonicalText(rec *models.CaseRecord, maxLen int) string {
	return truncateRunes(Normalize(firstText(rec)), maxLen)
}

// LongText is the text filters and factor scores inspect: the full opinion when present,
// otherwise the uncut canonical text.
func LongText(rec *models.CaseRecord) string {
	if rec == nil {
		return ""
	}
	if strings.TrimSpace(rec.RawText) != "" {
		return rec.RawText
	}
	return Normalize(firstText(rec))
}

// TextLen is the length of s in runes.
func TextLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncateRunes(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i]
		}
		n++
	}
	return s
}
