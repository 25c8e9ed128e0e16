package models

import (
	"errors"
	"strings"
)

// ErrEmptyQuery is returned when a retrieval request carries no query text.
var ErrEmptyQuery = errors.New("query cannot be empty")

// RetrieveQuery is a retrieval request: a free-text scenario and the number of results wanted.
type RetrieveQuery struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate rejects an empty query and normalizes K into [1, maxK], using defaultK when unset.
func (q *RetrieveQuery) Validate(defaultK, maxK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if q.Query == "" {
		return ErrEmptyQuery
	}
	if q.K <= 0 {
		q.K = defaultK
	}
	if maxK > 0 && q.K > maxK {
		q.K = maxK
	}
	return nil
}
