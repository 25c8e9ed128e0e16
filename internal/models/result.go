package models

// Candidate is a corpus row that survived retrieval filtering, annotated with its factor scores.
// Score is the composite used for ranking.
type Candidate struct {
	Row          int     `json:"-"`
	CaseID       string  `json:"case_id"`
	Title        string  `json:"title,omitempty"`
	Court        string  `json:"court,omitempty"`
	Date         string  `json:"date,omitempty"`
	Similarity   float64 `json:"similarity"`
	Authority    float64 `json:"precedent_strength"`
	Depth        float64 `json:"reasoning_depth"`
	KeywordBonus float64 `json:"keyword_bonus"`
	// Topics are the topic keywords found in the case text.
	Topics []string `json:"topics,omitempty"`
	Score  float64  `json:"final_score"`
	// Sample is a short excerpt of the case text for display.
	Sample string `json:"sample,omitempty"`
	// Rank is 1-based after ranking; zero before.
	Rank int `json:"rank,omitempty"`
}

// Precedent is the top ranked candidate with its explanation. Candidate is nil when nothing survived.
type Precedent struct {
	Candidate   *Candidate `json:"candidate,omitempty"`
	Explanation string     `json:"explanation"`
}

// RetrieveResponse is the response for a retrieval request.
type RetrieveResponse struct {
	Query     string       `json:"query"`
	K         int          `json:"k"`
	Results   []*Candidate `json:"results"`
	Total     int          `json:"total"`
	QueryTime int64        `json:"query_time_ms"`
}
