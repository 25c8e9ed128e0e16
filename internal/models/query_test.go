package models

import (
	"errors"
	"testing"
)

func TestRetrieveQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *RetrieveQuery
		wantK   int
		wantErr error
	}{
		{"empty query", &RetrieveQuery{Query: ""}, 0, ErrEmptyQuery},
		{"blank query", &RetrieveQuery{Query: " \t\n"}, 0, ErrEmptyQuery},
		{"sets default k", &RetrieveQuery{Query: "x"}, 5, nil},
		{"negative k uses default", &RetrieveQuery{Query: "x", K: -3}, 5, nil},
		{"keeps explicit k", &RetrieveQuery{Query: "x", K: 7}, 7, nil},
		{"caps k at max", &RetrieveQuery{Query: "x", K: 500}, 100, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate(5, 100)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && tt.query.K != tt.wantK {
				t.Errorf("K = %d, want %d", tt.query.K, tt.wantK)
			}
		})
	}
}
