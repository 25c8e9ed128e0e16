package e2e

import (
	"bytes"
	"context"
	"testing"

	"github.com/hyperjump/precedent/internal/corpus"
)

func TestBuildCorpus_RecordCount(t *testing.T) {
	c := BuildCorpus(100)
	// 100 substantive, 3 short, 3 procedural, 1 duplicate id
	if c.TotalCases != 107 {
		t.Errorf("expected 107 records, got %d", c.TotalCases)
	}
	if len(c.Records) != c.TotalCases {
		t.Errorf("len(Records) = %d, want %d", len(c.Records), c.TotalCases)
	}
}

func TestBuildCorpus_ScenarioTestCasesExist(t *testing.T) {
	c := BuildCorpus(100)
	if len(c.TestCases) != 10 {
		t.Fatalf("expected 10 scenario test cases, got %d", len(c.TestCases))
	}
	for i, tc := range c.TestCases {
		if tc.Scenario == "" {
			t.Errorf("test case %d: empty scenario", i)
		}
		if tc.ExpectedCaseID == "" || tc.ExpectedCaseID == c.DuplicateID {
			t.Errorf("test case %d: bad expected id %q", i, tc.ExpectedCaseID)
		}
	}
}

func TestCorpus_JSONLRoundTrip(t *testing.T) {
	c := BuildCorpus(20)
	data, err := c.JSONL()
	if err != nil {
		t.Fatal(err)
	}
	snap, err := corpus.Read(context.Background(), bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != c.TotalCases {
		t.Fatalf("read %d records, want %d", snap.Len(), c.TotalCases)
	}
	for i, rec := range c.Records {
		if snap.At(i).CaseID != rec.CaseID {
			t.Errorf("row %d: case_id %q, want %q", i, snap.At(i).CaseID, rec.CaseID)
		}
	}
}

func TestCorpus_Excluded(t *testing.T) {
	c := BuildCorpus(10)
	ex := c.Excluded()
	if len(ex) != 6 {
		t.Errorf("excluded = %d ids, want 6", len(ex))
	}
	if ex[c.Records[0].CaseID] {
		t.Error("substantive case should not be excluded")
	}
}
