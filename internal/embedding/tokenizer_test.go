package embedding

import (
	"reflect"
	"strings"
	"testing"
)

func TestHashTokenizer_Encode(t *testing.T) {
	enc := HashTokenizer{}.Encode("The court held", 10)
	if len(enc.InputIDs) != 10 || len(enc.AttentionMask) != 10 || len(enc.TokenTypeIDs) != 10 {
		t.Fatalf("lengths = %d/%d/%d, want 10", len(enc.InputIDs), len(enc.AttentionMask), len(enc.TokenTypeIDs))
	}
	if enc.InputIDs[0] != clsTokenID {
		t.Errorf("expected CLS %d, got %d", clsTokenID, enc.InputIDs[0])
	}
	if enc.InputIDs[4] != sepTokenID {
		t.Errorf("expected SEP after three words, got %d", enc.InputIDs[4])
	}
	if enc.Tokens != 5 {
		t.Errorf("tokens = %d, want 5", enc.Tokens)
	}
	for i := 1; i < 4; i++ {
		if id := enc.InputIDs[i]; id < firstHashedID || id >= vocabSize {
			t.Errorf("word id %d out of range", id)
		}
	}
	for i := 5; i < 10; i++ {
		if enc.AttentionMask[i] != 0 {
			t.Errorf("padding position %d is attended", i)
		}
	}
}

func TestHashTokenizer_Truncates(t *testing.T) {
	enc := HashTokenizer{}.Encode(strings.Repeat("word ", 50), 8)
	if enc.Tokens != 8 {
		t.Errorf("tokens = %d, want 8", enc.Tokens)
	}
	if enc.InputIDs[7] != sepTokenID {
		t.Errorf("last position = %d, want SEP", enc.InputIDs[7])
	}
}

func TestHashTokenizer_CaseInsensitive(t *testing.T) {
	a := HashTokenizer{}.Encode("Supreme Court", 6)
	b := HashTokenizer{}.Encode("supreme court", 6)
	if !reflect.DeepEqual(a.InputIDs, b.InputIDs) {
		t.Errorf("ids differ by case: %v vs %v", a.InputIDs, b.InputIDs)
	}
}

func TestWords(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"  a  b  c  ", []string{"a", "b", "c"}},
		{"", []string{}},
		{"Section 43(2) of the Act.", []string{"section", "43", "2", "of", "the", "act"}},
		{"well-settled", []string{"well", "settled"}},
	}
	for _, tt := range tests {
		if got := Words(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Words(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHashString(t *testing.T) {
	if HashString("abc") != HashString("abc") {
		t.Error("hash should be deterministic")
	}
	if HashString("abc") == HashString("abd") {
		t.Error("distinct inputs should hash apart")
	}
	if HashString("") < 0 {
		t.Error("hash should be non-negative")
	}
}
