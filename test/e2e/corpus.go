// Package e2e provides end-to-end tests with a generated case corpus and multiple scenarios.
package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hyperjump/precedent/internal/corpus"
	"github.com/hyperjump/precedent/internal/models"
)

// ScenarioTestCase defines a scenario and the case that must be its nearest neighbour.
type ScenarioTestCase struct {
	Scenario       string
	ExpectedCaseID string
	Description    string
}

// Corpus holds generated case records and scenario test cases for E2E tests.
type Corpus struct {
	Records     []*models.CaseRecord
	TestCases   []ScenarioTestCase
	TotalCases  int
	Short       []string
	Procedural  []string
	DuplicateID string
}

// BuildCorpus returns a corpus of n substantive cases plus a few records every retrieval must
// drop: short ones, procedural dispositions and a repeated case_id.
// Each substantive case has its own fact pattern so scenarios can assert the right case comes back.
func BuildCorpus(n int) *Corpus {
	c := &Corpus{}
	c.Records = buildCases(n)
	c.TestCases = buildScenarioTestCases(c.Records)

	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("short-%d", i)
		c.Short = append(c.Short, id)
		c.Records = append(c.Records, &models.CaseRecord{
			CaseID:  id,
			Court:   "District Court",
			Summary: "Brief order.",
		})
	}
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("procedural-%d", i)
		c.Procedural = append(c.Procedural, id)
		c.Records = append(c.Records, &models.CaseRecord{
			CaseID:  id,
			Court:   "Court of Appeals",
			Summary: "Motion denied. " + strings.Repeat("The applicant sought an extension of time to file the record on appeal. ", 20),
		})
	}

	// Same id as the first case with different text; the earlier row wins.
	c.DuplicateID = c.Records[0].CaseID
	c.Records = append(c.Records, &models.CaseRecord{
		CaseID:  c.DuplicateID,
		Court:   "Supreme Court",
		Summary: strings.Repeat("A restated copy of an earlier decision with the same docket identifier. ", 20),
	})

	c.TotalCases = len(c.Records)
	return c
}

var (
	courts = []string{"Supreme Court", "High Court", "Court of Appeals", "District Court", "Tribunal"}
	topics = []struct {
		subject string
		facts   string
	}{
		{"trademark", "the defendant sold goods bearing a mark confusingly similar to the registered trademark of the plaintiff"},
		{"copyright", "the defendant reproduced substantial portions of the plaintiff's software without a licence"},
		{"patent", "the defendant manufactured a device that practised every element of the asserted patent claim"},
		{"contract", "the supplier failed to deliver the goods by the date fixed in the written agreement"},
		{"employment", "the employee was dismissed without the notice required by the employment contract"},
		{"tenancy", "the landlord withheld the security deposit after the tenant vacated the premises"},
		{"negligence", "the contractor left an unguarded excavation into which the plaintiff fell at night"},
		{"insurance", "the insurer refused indemnity relying on an exclusion clause not disclosed at inception"},
		{"defamation", "the newspaper published an article alleging the plaintiff had falsified accounts"},
		{"competition", "two distributors agreed to allocate customers between themselves in the regional market"},
	}
	reasoning = []string{
		"The court held that the conduct amounted to a breach.",
		"We are of the opinion that the statutory test is satisfied.",
		"It is well settled that the burden lies on the claimant.",
		"In our view the findings below cannot be sustained.",
		"The court observed that the precedent applies with full force.",
	}
)

func buildCases(n int) []*models.CaseRecord {
	out := make([]*models.CaseRecord, 0, n)
	for i := 0; i < n; i++ {
		t := topics[i%len(topics)]
		var b strings.Builder
		fmt.Fprintf(&b, "In matter number %d, a %s dispute, %s. ", i+1, t.subject, t.facts)
		for j := 0; j <= i%len(reasoning); j++ {
			b.WriteString(reasoning[(i+j)%len(reasoning)])
			b.WriteByte(' ')
		}
		b.WriteString(strings.Repeat("The parties filed detailed submissions on liability and remedy. ", 12))
		out = append(out, &models.CaseRecord{
			CaseID:  fmt.Sprintf("case-%04d", i+1),
			Title:   fmt.Sprintf("%s matter %d", strings.ToUpper(t.subject[:1])+t.subject[1:], i+1),
			Court:   courts[i%len(courts)],
			Date:    fmt.Sprintf("20%02d-01-15", i%25),
			Summary: b.String(),
		})
	}
	return out
}

// buildScenarioTestCases uses every tenth case's canonical text as a scenario. With no input
// prefixes the scenario embeds to exactly that case's stored vector.
func buildScenarioTestCases(records []*models.CaseRecord) []ScenarioTestCase {
	var cases []ScenarioTestCase
	for i := 1; i < len(records); i += 10 {
		rec := records[i]
		cases = append(cases, ScenarioTestCase{
			Scenario:       corpus.CanonicalText(rec, corpus.DefaultMaxTextLength),
			ExpectedCaseID: rec.CaseID,
			Description:    fmt.Sprintf("scenario from %s should return %s first", rec.Title, rec.CaseID),
		})
	}
	return cases
}

// JSONL renders the corpus in the on-disk line format.
func (c *Corpus) JSONL() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range c.Records {
		if err := enc.Encode(rec); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// Excluded returns the ids no filtered retrieval may return.
func (c *Corpus) Excluded() map[string]bool {
	out := make(map[string]bool)
	for _, id := range c.Short {
		out[id] = true
	}
	for _, id := range c.Procedural {
		out[id] = true
	}
	return out
}
