package report

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

func sampleResult() conflicts.Result {
	day := func(d int) time.Time { return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC) }

	confirmed := conflicts.ConflictRecord{
		BeneficiaryName:         "ABC Services Inc.",
		ContributorName:         "ABC Services",
		TotalContributionAmount: 51000,
		ContributionCount:       2,
		Contributions: []conflicts.Contribution{
			{ID: 1, Name: "ABC Services", Amount: 50000, Date: day(2), TransactionType: "Monetary"},
			{ID: 7, Name: "ABC Services", Amount: 1000, Date: day(8)},
		},
		VoteOccurrences: []conflicts.Beneficiary{
			{ID: 1, Name: "ABC Services Inc.", VoteDate: day(1), Item: "Janitorial contract", Vote: conflicts.VoteAye, Outcome: conflicts.OutcomePassed},
		},
		BestMatch: conflicts.MatchCandidate{Breakdown: conflicts.SimilarityBreakdown{
			AlgorithmScores:   map[string]float64{conflicts.AlgorithmFullRatio: 100, conflicts.AlgorithmSubstring: 100},
			NameComposite:     100,
			WeightedComposite: 100,
			BeneficiaryForm:   conflicts.Form{Kind: conflicts.FormCanonical, Text: "abc services"},
			ContributorForm:   conflicts.Form{Kind: conflicts.FormCanonical, Text: "abc services"},
			MatchedOn:         conflicts.MatchedName,
		}},
		Validation: &conflicts.Verdict{SameEntity: true, Reason: "same company", Confidence: conflicts.ConfidenceHigh},
		Status:     conflicts.StatusConfirmed,
	}

	unvalidated := conflicts.ConflictRecord{
		BeneficiaryName:         "Bob Jones of XYZ Enterprises",
		ContributorName:         "Jones John",
		ContributorEmployer:     "XYZ Enterprises",
		TotalContributionAmount: 250000,
		ContributionCount:       1,
		Contributions: []conflicts.Contribution{
			{ID: 3, Name: "Jones John", Employer: "XYZ Enterprises", Amount: 250000, Date: day(4)},
		},
		BestMatch: conflicts.MatchCandidate{Breakdown: conflicts.SimilarityBreakdown{
			NameComposite:     59.82,
			EmployerScore:     100,
			EmployerBonus:     10,
			WeightedComposite: 69.82,
		}},
		Status:          conflicts.StatusUnvalidated,
		ValidationError: "rate limited",
	}

	return conflicts.Result{
		Conflicts: []conflicts.ConflictRecord{confirmed, unvalidated},
		Metadata: conflicts.RunMetadata{
			RunID:                           "run-1",
			Politician:                      "Maria Cervantes",
			ThresholdUsed:                   65,
			TotalCandidatesBeforeValidation: 3,
			RejectedCount:                   1,
			UnvalidatedCount:                1,
			ConfidenceDistribution:          map[string]int{"high": 1, "low": 1},
			RunTimestamp:                    time.Date(2024, time.April, 1, 9, 30, 0, 0, time.UTC),
		},
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleResult())

	assert.Equal(t, "Maria Cervantes", s.Politician)
	assert.Equal(t, 2, s.TotalConflicts)
	assert.Equal(t, conflicts.Cents(301000), s.TotalAmount)
	assert.Equal(t, 1, s.Unvalidated)

	require.Len(t, s.ConflictsByAmount, 2)
	assert.Equal(t, "Jones John", s.ConflictsByAmount[0].Contributor)
	assert.Equal(t, "ABC Services", s.ConflictsByAmount[1].Contributor)

	require.Len(t, s.TopContributions, 3)
	assert.Equal(t, []int{3, 1, 7}, []int{s.TopContributions[0].ID, s.TopContributions[1].ID, s.TopContributions[2].ID})

	empty := Summarize(conflicts.Result{})
	assert.Zero(t, empty.TotalConflicts)
	assert.Empty(t, empty.TopContributions)
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSummary(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "Politician: Maria Cervantes")
	assert.Contains(t, out, "Generated: 2024-04-01 09:30:00")
	assert.Contains(t, out, "not determinations of wrongdoing.")
	assert.Contains(t, out, "Total potential conflicts: 2")
	assert.Contains(t, out, "Total contribution amount: $3,010.00")
	assert.Contains(t, out, "Unvalidated (verdict unavailable): 1")
	assert.Contains(t, out, "Verdict confidence: high=1 low=1")
	assert.Contains(t, out, "ABC Services Inc.")
	assert.Contains(t, out, "Jones John (XYZ Enterprises)")
	assert.Contains(t, out, "69.8%")
	assert.Contains(t, out, "UNVALIDATED")
}

func TestWriteSummaryEmpty(t *testing.T) {
	var buf bytes.Buffer
	result := conflicts.Result{Metadata: conflicts.RunMetadata{Politician: "Lee"}}
	require.NoError(t, WriteSummary(&buf, result))
	assert.Contains(t, buf.String(), "No potential conflicts of interest found.")
	assert.NotContains(t, buf.String(), "SUMMARY:")
}

func TestWriteDetailed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDetailed(&buf, sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "CONFLICT #1")
	assert.Contains(t, out, "CONFLICT #2")
	assert.Contains(t, out, `Matched forms: canonical "abc services" <> canonical "abc services"`)
	assert.Contains(t, out, "Algorithm scores: full_ratio=100.0 substring=100.0")
	assert.Contains(t, out, "Validation: confirmed (high)")
	assert.Contains(t, out, "  Reason: same company")
	assert.Contains(t, out, "Employer bonus: +10.0 (employer similarity 100.0%)")
	assert.Contains(t, out, "  Error: rate limited")
	assert.Contains(t, out, "  • 2024-03-01: AYE vote")
	assert.Contains(t, out, "    Amount: $500.00")
	assert.Contains(t, out, "    Type: Monetary")
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleResult()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, CSVHeader, rows[0])
	assert.Equal(t, []string{
		"Maria Cervantes", "ABC Services Inc.", "ABC Services", "",
		"500.00", "2024-03-02", "Monetary", "100.00",
		"confirmed", "high", "510.00", "2", "1", "name", "",
	}, rows[1])
	assert.Equal(t, "unvalidated", rows[3][8])
	assert.Equal(t, "", rows[3][9])

	buf.Reset()
	require.NoError(t, WriteCSV(&buf, conflicts.Result{}))
	assert.Equal(t, strings.Join(CSVHeader, ",")+"\n", buf.String())
}

func TestReportsShowNormalizationWarnings(t *testing.T) {
	result := sampleResult()
	result.Conflicts[1].BestMatch.Beneficiary = conflicts.NormalizedEntity{
		OriginalName: "Bob Jones of XYZ Enterprises dba",
		Warnings:     []string{"DBA marker without an operating name"},
	}
	result.Conflicts[1].BestMatch.Breakdown.MatchedOn = conflicts.MatchedEmployer
	for i := range 12 {
		result.Warnings = append(result.Warnings,
			errors.NewNormalizationWarning(fmt.Sprintf("Name %02d Inc", i), "name consists only of a business suffix"))
	}

	var summary bytes.Buffer
	require.NoError(t, WriteSummary(&summary, result))
	assert.Contains(t, summary.String(), "NORMALIZATION WARNINGS (12 names")
	assert.Contains(t, summary.String(), "  • Name 00 Inc: name consists only of a business suffix")
	assert.Contains(t, summary.String(), "... and 2 more")
	assert.NotContains(t, summary.String(), "Name 11 Inc")

	var detailed bytes.Buffer
	require.NoError(t, WriteDetailed(&detailed, result))
	assert.Contains(t, detailed.String(), "Name 11 Inc")
	assert.Contains(t, detailed.String(),
		"Name warnings: Bob Jones of XYZ Enterprises dba (DBA marker without an operating name)")
	assert.Contains(t, detailed.String(), "Matched on: employer (contributor name similarity 59.8%)")

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, result))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	last := rows[3]
	assert.Equal(t, "employer", last[len(last)-2])
	assert.Contains(t, last[len(last)-1], "DBA marker without an operating name")

	var empty bytes.Buffer
	require.NoError(t, WriteSummary(&empty, conflicts.Result{Warnings: result.Warnings[:1]}))
	assert.Contains(t, empty.String(), "No potential conflicts of interest found.")
	assert.Contains(t, empty.String(), "Name 00 Inc")
}

func TestWriteAll(t *testing.T) {
	dir := t.TempDir() + "/reports"
	files, err := WriteAll(dir, sampleResult())
	require.NoError(t, err)

	assert.Equal(t, dir+"/maria_cervantes_conflicts_summary.txt", files.Summary)
	assert.Equal(t, dir+"/maria_cervantes_conflicts_detailed.txt", files.Detailed)
	assert.Equal(t, dir+"/maria_cervantes_conflicts.csv", files.CSV)
	for _, p := range []string{files.Summary, files.Detailed, files.CSV} {
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestFileStem(t *testing.T) {
	assert.Equal(t, "maria_cervantes", FileStem("  Maria  Cervantes "))
	assert.Equal(t, "o_brien_jr", FileStem("O'Brien, Jr."))
	assert.Equal(t, "unknown", FileStem("---"))
}
