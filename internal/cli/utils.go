// Package cli renders retrieval results and pipeline reports for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/hyperjump/precedent/internal/indexer"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/ranking"
	"github.com/hyperjump/precedent/pkg/utils"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

const rule = "─────────────────────────────────────────────────────────\n"

// ParseFormat maps a flag value to an OutputFormat; anything but "json" is text.
func ParseFormat(s string) OutputFormat {
	if s == string(OutputJSON) {
		return OutputJSON
	}
	return OutputText
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteResults writes ranked candidates to w in the given format.
func WriteResults(w io.Writer, response *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, response)
	}
	fmt.Fprintf(w, "\nFound %d candidates in %dms, showing top %d\n\n",
		response.Total, response.QueryTime, len(response.Results))
	for _, c := range response.Results {
		writeCandidate(w, c)
	}
	return nil
}

func writeCandidate(w io.Writer, c *models.Candidate) {
	fmt.Fprint(w, rule)
	fmt.Fprintf(w, "Rank: %d | Score: %.4f (Similarity: %.4f, Authority: %.2f, Depth: %.2f, Keyword: %.1f)\n",
		c.Rank, c.Score, c.Similarity, c.Authority, c.Depth, c.KeywordBonus)
	fmt.Fprintf(w, "Case: %s\n", c.CaseID)
	if c.Title != "" {
		fmt.Fprintf(w, "Title: %s\n", c.Title)
	}
	if c.Court != "" || c.Date != "" {
		fmt.Fprintf(w, "Court: %s  Date: %s\n", c.Court, c.Date)
	}
	if c.Sample != "" {
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(c.Sample, 200))
	}
	fmt.Fprintln(w)
}

// WritePrecedent writes the top precedent and its explanation. breakdown may be nil.
func WritePrecedent(w io.Writer, p *models.Precedent, breakdown *ranking.ScoreBreakdown, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, struct {
			*models.Precedent
			Breakdown *ranking.ScoreBreakdown `json:"breakdown,omitempty"`
		}{p, breakdown})
	}
	if p.Candidate != nil {
		writeCandidate(w, p.Candidate)
	}
	fmt.Fprintln(w, p.Explanation)
	if breakdown != nil {
		fmt.Fprintln(w)
		keys := make([]string, 0, len(breakdown.Contributions))
		for k := range breakdown.Contributions {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "  %-10s %+.4f\n", k, breakdown.Contributions[k])
		}
		fmt.Fprintf(w, "  %-10s %.4f\n", "total", breakdown.FinalScore)
	}
	return nil
}

// WriteRunResult reports a finished indexing run.
func WriteRunResult(w io.Writer, res *indexer.Result, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, res)
	}
	fmt.Fprintf(w, "Embedded %d rows (resumed at %d) in %s\n", res.Embedded, res.Start, res.Elapsed.Round(1e6))
	if res.Corrected {
		fmt.Fprintln(w, "Checkpoint was ahead of the verified rows and has been corrected.")
	}
	if res.Rebuilt {
		fmt.Fprintln(w, "Corpus order changed since the last run; vectors were rebuilt.")
	}
	fmt.Fprintf(w, "Vectors:    %s (%d x %d)\n", res.Paths.Vectors, res.Total, res.Dimensions)
	fmt.Fprintf(w, "Metadata:   %s\n", res.Paths.Metadata)
	fmt.Fprintf(w, "Checkpoint: %s\n", res.Paths.Checkpoint)
	return nil
}

// WriteVerification reports on-disk progress.
func WriteVerification(w io.Writer, v *indexer.Verification, diskBytes int64, format OutputFormat) error {
	if format == OutputJSON {
		return WriteJSON(w, struct {
			*indexer.Verification
			DiskUsageBytes int64 `json:"disk_usage_bytes"`
		}{v, diskBytes})
	}
	fmt.Fprintf(w, "Corpus records:  %d\n", v.Total)
	fmt.Fprintf(w, "Vector array:    %d x %d\n", v.Rows, v.Dimensions)
	fmt.Fprintf(w, "Metadata rows:   %d\n", v.MetadataRows)
	fmt.Fprintf(w, "Checkpoint:      %d\n", v.Checkpoint)
	fmt.Fprintf(w, "Verified rows:   %d\n", v.Verified)
	fmt.Fprintf(w, "Embedded rows:   %d\n", v.Embedded)
	fmt.Fprintf(w, "Consistent:      %t\n", v.Consistent)
	fmt.Fprintf(w, "Complete:        %t\n", v.Complete)
	fmt.Fprintf(w, "Disk usage:      %d bytes\n", diskBytes)
	return nil
}
