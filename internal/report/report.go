// Package report renders analysis results as plain-text summaries, detailed
// listings and CSV exports.
//
// Reports describe patterns that warrant further investigation. Every text
// report opens with a scope statement saying so.
package report

import (
	"cmp"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// TopContributionLimit bounds Summary.TopContributions.
const TopContributionLimit = 10

// Scope is printed at the top of every text report.
var Scope = []string{
	"This analysis identifies potential conflicts of interest by systematically",
	"examining overlapping relationships between vote beneficiaries and campaign",
	"contributors. Results represent patterns that warrant further investigation,",
	"not determinations of wrongdoing.",
}

// ConflictAmount is one row of Summary.ConflictsByAmount.
type ConflictAmount struct {
	Beneficiary string          `json:"beneficiary" yaml:"beneficiary"`
	Contributor string          `json:"contributor" yaml:"contributor"`
	Amount      conflicts.Cents `json:"amount_cents" yaml:"amount_cents"`
	Count       int             `json:"contribution_count" yaml:"contribution_count"`
}

// Summary condenses a result for dashboards and the CLI.
type Summary struct {
	Politician        string                   `json:"politician" yaml:"politician"`
	TotalConflicts    int                      `json:"total_conflicts" yaml:"total_conflicts"`
	TotalAmount       conflicts.Cents          `json:"total_amount_cents" yaml:"total_amount_cents"`
	Threshold         float64                  `json:"threshold" yaml:"threshold"`
	Unvalidated       int                      `json:"unvalidated" yaml:"unvalidated"`
	ConflictsByAmount []ConflictAmount         `json:"conflicts_by_amount" yaml:"conflicts_by_amount"`
	TopContributions  []conflicts.Contribution `json:"top_contributions" yaml:"top_contributions"`
}

// Summarize orders conflicts by total amount and picks the largest
// individual contributions. Ties keep result order.
func Summarize(result conflicts.Result) Summary {
	s := Summary{
		Politician:     result.Metadata.Politician,
		TotalConflicts: len(result.Conflicts),
		TotalAmount:    result.TotalContributionAmount(),
		Threshold:      result.Metadata.ThresholdUsed,
		Unvalidated:    len(result.Unvalidated()),
	}

	var all []conflicts.Contribution
	for _, c := range result.Conflicts {
		s.ConflictsByAmount = append(s.ConflictsByAmount, ConflictAmount{
			Beneficiary: c.BeneficiaryName,
			Contributor: c.ContributorName,
			Amount:      c.TotalContributionAmount,
			Count:       c.ContributionCount,
		})
		all = append(all, c.Contributions...)
	}
	slices.SortStableFunc(s.ConflictsByAmount, func(a, b ConflictAmount) int {
		return cmp.Compare(b.Amount, a.Amount)
	})
	slices.SortStableFunc(all, func(a, b conflicts.Contribution) int {
		return cmp.Compare(b.Amount, a.Amount)
	})
	if len(all) > TopContributionLimit {
		all = all[:TopContributionLimit]
	}
	s.TopContributions = all
	return s
}

// Files are the paths written by WriteAll.
type Files struct {
	Summary  string `json:"summary" yaml:"summary"`
	Detailed string `json:"detailed" yaml:"detailed"`
	CSV      string `json:"csv" yaml:"csv"`
}

// WriteAll writes the summary, detailed and CSV reports into dir, creating
// it if needed. File names start with the politician's name.
func WriteAll(dir string, result conflicts.Result) (Files, error) {
	if err := os.MkdirAll(dir, constants.DirPermissions); err != nil {
		return Files{}, errors.WrapIO("create", dir, err)
	}
	base := FileStem(result.Metadata.Politician)
	files := Files{
		Summary:  filepath.Join(dir, base+"_conflicts_summary.txt"),
		Detailed: filepath.Join(dir, base+"_conflicts_detailed.txt"),
		CSV:      filepath.Join(dir, base+"_conflicts.csv"),
	}

	writers := []struct {
		path  string
		write func(*os.File) error
	}{
		{files.Summary, func(f *os.File) error { return WriteSummary(f, result) }},
		{files.Detailed, func(f *os.File) error { return WriteDetailed(f, result) }},
		{files.CSV, func(f *os.File) error { return WriteCSV(f, result) }},
	}
	for _, w := range writers {
		if err := writeFile(w.path, w.write); err != nil {
			return Files{}, err
		}
	}
	return files, nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions) //nolint:gosec // path built from output dir
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	return errors.WrapIO("close", path, f.Close())
}

// FileStem turns a politician's name into a safe lowercase file prefix.
func FileStem(politician string) string {
	var b strings.Builder
	underscore := false
	for _, r := range strings.ToLower(strings.TrimSpace(politician)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			underscore = false
			continue
		}
		if !underscore && b.Len() > 0 {
			b.WriteByte('_')
			underscore = true
		}
	}
	stem := strings.TrimSuffix(b.String(), "_")
	if stem == "" {
		return constants.DefaultPolitician
	}
	return stem
}
