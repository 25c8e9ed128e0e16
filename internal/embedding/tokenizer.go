package embedding

import (
	"hash/fnv"
	"strings"
	"unicode"
)

// BERT special tokens and the hashed vocabulary range.
const (
	clsTokenID     = 101
	sepTokenID     = 102
	vocabSize      = 30000
	firstHashedID  = 1000
	defaultMaxToks = 256
)

// Encoding is a fixed-length input for BERT-style encoders.
type Encoding struct {
	InputIDs      []int64
	AttentionMask []int64
	TokenTypeIDs  []int64
	// Tokens counts the positions holding input, special tokens included.
	Tokens int
}

// Tokenizer encodes text into exactly maxTokens positions.
type Tokenizer interface {
	Encode(text string, maxTokens int) Encoding
}

// HashTokenizer maps each word into the vocabulary by hash. Used when the model ships without
// a vocabulary file; overlong input is cut at maxTokens.
type HashTokenizer struct{}

// Encode lays out [CLS] words... [SEP] followed by padding.
func (HashTokenizer) Encode(text string, maxTokens int) Encoding {
	if maxTokens < 2 {
		maxTokens = defaultMaxToks
	}
	enc := Encoding{
		InputIDs:      make([]int64, maxTokens),
		AttentionMask: make([]int64, maxTokens),
		TokenTypeIDs:  make([]int64, maxTokens),
	}
	enc.InputIDs[0] = clsTokenID
	enc.AttentionMask[0] = 1

	pos := 1
	for _, w := range Words(text) {
		if pos >= maxTokens-1 {
			break
		}
		enc.InputIDs[pos] = firstHashedID + int64(HashString(w)%(vocabSize-firstHashedID))
		enc.AttentionMask[pos] = 1
		pos++
	}
	enc.InputIDs[pos] = sepTokenID
	enc.AttentionMask[pos] = 1
	enc.Tokens = pos + 1
	return enc
}

// Words lowercases text and returns its runs of letters and digits. Punctuation such as
// section signs, periods in citations and hyphens separates words.
func Words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// HashString is a deterministic non-negative hash of s (FNV-1a, 32 bit).
func HashString(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32())
}
