// Package models defines core data structures for case records, index artifacts, and retrieval results.
package models

// CaseRecord is one judicial decision from the corpus. Every text field may be empty.
type CaseRecord struct {
	CaseID      string `json:"case_id"`
	Title       string `json:"title,omitempty"`
	Court       string `json:"court,omitempty"`
	Date        string `json:"date,omitempty"`
	Summary     string `json:"summary,omitempty"`
	CaseSummary string `json:"case_summary,omitempty"`
	Facts       string `json:"facts,omitempty"`
	RawText     string `json:"raw_text,omitempty"`
}

// RowMetadata is stored per embedding row, in corpus order.
type RowMetadata struct {
	CaseID  string `json:"case_id"`
	TextLen int    `json:"text_len"`
}

// Checkpoint records how many leading rows were embedded and saved.
type Checkpoint struct {
	Done int `json:"done"`
}
