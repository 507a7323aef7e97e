package output

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/pkg/conflicts"
)

// ConflictsData converts conflict records to table data, one row per record.
func ConflictsData(records []conflicts.ConflictRecord) Data {
	d := Data{
		Headers: []string{"#", "Beneficiary", "Contributor", "Similarity", "Total", "Contributions", "Votes", "Status"},
		ColumnAlignment: []Align{
			AlignRight, AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight, AlignLeft,
		},
	}
	for i, r := range records {
		d.Rows = append(d.Rows, []string{
			fmt.Sprintf("%d", i+1),
			r.BeneficiaryName,
			r.ContributorName,
			fmt.Sprintf("%.1f%%", r.Score()),
			r.TotalContributionAmount.String(),
			fmt.Sprintf("%d", r.ContributionCount),
			fmt.Sprintf("%d", len(r.VoteOccurrences)),
			string(r.Status),
		})
	}
	return d
}

// BreakdownData converts a similarity breakdown to a property table.
// Algorithm scores are listed in name order.
func BreakdownData(bd conflicts.SimilarityBreakdown) Data {
	caser := cases.Title(language.English)
	d := Data{
		Headers:         []string{"Measure", "Value"},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, name := range slices.Sorted(maps.Keys(bd.AlgorithmScores)) {
		d.Rows = append(d.Rows, []string{
			caser.String(strings.ReplaceAll(name, "_", " ")), fmt.Sprintf("%.2f", bd.AlgorithmScores[name]),
		})
	}
	d.Rows = append(d.Rows,
		[]string{"Name Composite", fmt.Sprintf("%.2f", bd.NameComposite)},
		[]string{"Employer Score", fmt.Sprintf("%.2f", bd.EmployerScore)},
		[]string{"Employer Bonus", fmt.Sprintf("%.2f", bd.EmployerBonus)},
		[]string{"Weighted Composite", fmt.Sprintf("%.2f", bd.WeightedComposite)},
		[]string{"Matched On", matchedOn(bd.MatchedOn)},
		[]string{"Beneficiary Form", formLabel(bd.BeneficiaryForm)},
		[]string{"Contributor Form", formLabel(bd.ContributorForm)},
	)
	return d
}

func matchedOn(side conflicts.MatchSide) string {
	if side == "" {
		return string(conflicts.MatchedName)
	}
	return string(side)
}

// ProviderRow is the serializable readiness of one provider.
type ProviderRow struct {
	ID           string `json:"id" yaml:"id"`
	Name         string `json:"name" yaml:"name"`
	DefaultModel string `json:"default_model" yaml:"default_model"`
	Status       string `json:"status" yaml:"status"`
}

// ProviderRows flattens a provider readiness report.
func ProviderRows(report *llm.ProviderReport) []ProviderRow {
	var rows []ProviderRow
	add := func(statuses []llm.ProviderStatus, label string) {
		for _, s := range statuses {
			rows = append(rows, ProviderRow{
				ID:           string(s.Provider.ID),
				Name:         s.Provider.Name,
				DefaultModel: s.Provider.DefaultModel,
				Status:       label,
			})
		}
	}
	add(report.Configured, "configured")
	add(report.Missing, "missing key")
	add(report.Optional, "no key required")
	return rows
}

// ProvidersData converts a provider readiness report to table data.
func ProvidersData(report *llm.ProviderReport) Data {
	d := Data{Headers: []string{"Provider", "Name", "Default Model", "Status"}}
	for _, r := range ProviderRows(report) {
		d.Rows = append(d.Rows, []string{r.ID, r.Name, r.DefaultModel, r.Status})
	}
	return d
}

// Write formats value with the formatter for format. Table output renders
// table; structured formats serialize raw.
func Write(w io.Writer, format Format, table Data, raw any) error {
	formatter := NewFormatter(format)
	if format == FormatTable || format == "" {
		return formatter.Format(w, table)
	}
	return formatter.Format(w, raw)
}

func formLabel(f conflicts.Form) string {
	if f.Kind == "" {
		return f.Text
	}
	return fmt.Sprintf("%s (%s)", f.Text, f.Kind)
}
