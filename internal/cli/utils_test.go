package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/precedent/internal/artifact"
	"github.com/hyperjump/precedent/internal/explain"
	"github.com/hyperjump/precedent/internal/indexer"
	"github.com/hyperjump/precedent/internal/models"
	"github.com/hyperjump/precedent/internal/ranking"
)

func testResponse() *models.RetrieveResponse {
	return &models.RetrieveResponse{
		Query:     "trademark infringement dispute",
		K:         5,
		Total:     2,
		QueryTime: 42,
		Results: []*models.Candidate{
			{CaseID: "A", Title: "Alpha v. Beta", Court: "Supreme Court", Similarity: 0.8, Authority: 5, Depth: 6.5, KeywordBonus: 1, Score: 2.875, Rank: 1, Sample: "opinion of the court"},
			{CaseID: "C", Similarity: 0.85, Authority: 1.5, Score: 1.15, Rank: 2},
		},
	}
}

func TestWriteResults_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, testResponse(), OutputJSON); err != nil {
		t.Fatalf("WriteResults(json): %v", err)
	}
	var decoded models.RetrieveResponse
	if err := json.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded.Query != "trademark infringement dispute" || decoded.QueryTime != 42 {
		t.Errorf("decoded = %+v", decoded)
	}
	if len(decoded.Results) != 2 || decoded.Results[0].CaseID != "A" || decoded.Results[0].Score != 2.875 {
		t.Errorf("decoded results = %+v", decoded.Results)
	}
}

func TestWriteResults_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteResults(&buf, testResponse(), OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"Found 2 candidates in 42ms",
		"Rank: 1 | Score: 2.8750",
		"Case: A",
		"Title: Alpha v. Beta",
		"Court: Supreme Court",
		"Case: C",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in output:\n%s", want, out)
		}
	}
}

func TestWritePrecedent(t *testing.T) {
	resp := testResponse()
	p := explain.ExplainTop(resp.Results)
	b := &ranking.ScoreBreakdown{
		FinalScore:    2.875,
		Contributions: map[string]float64{"similarity": 0.8, "authority": 1.0, "depth": 0.975, "keyword": 0.1},
	}

	var buf bytes.Buffer
	if err := WritePrecedent(&buf, p, b, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, "Case A is selected as the strongest precedent because:") {
		t.Errorf("missing explanation:\n%s", out)
	}
	if !strings.Contains(out, "total      2.8750") {
		t.Errorf("missing breakdown total:\n%s", out)
	}

	buf.Reset()
	if err := WritePrecedent(&buf, explain.ExplainTop(nil), nil, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded struct {
		Candidate   *models.Candidate `json:"candidate"`
		Explanation string            `json:"explanation"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Candidate != nil || decoded.Explanation != explain.NoPrecedent {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestWriteRunResultAndVerification(t *testing.T) {
	res := &indexer.Result{
		Total: 600, Dimensions: 384, Start: 300, Embedded: 300, Corrected: true,
		Paths:   artifact.Paths{Vectors: "/a/embeddings.npy", Metadata: "/a/metadata.db", Checkpoint: "/a/checkpoint.json"},
		Elapsed: 1500 * time.Millisecond,
	}
	var buf bytes.Buffer
	if err := WriteRunResult(&buf, res, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Embedded 300 rows (resumed at 300)", "corrected", "/a/embeddings.npy (600 x 384)"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}

	buf.Reset()
	v := &indexer.Verification{Total: 10, Rows: 10, Dimensions: 8, Checkpoint: 10, Verified: 10, MetadataRows: 10, Consistent: true, Complete: true}
	if err := WriteVerification(&buf, v, 2048, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded["complete"] != true || decoded["disk_usage_bytes"].(float64) != 2048 {
		t.Errorf("decoded = %v", decoded)
	}
}

func TestParseFormat(t *testing.T) {
	if ParseFormat("json") != OutputJSON || ParseFormat("text") != OutputText || ParseFormat("") != OutputText {
		t.Error("ParseFormat mismatch")
	}
}
