package report

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
)

const timestampFormat = "2006-01-02 15:04:05"

func header(w *bufio.Writer, title string, result conflicts.Result, rule int) {
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "Politician: %s\n", result.Metadata.Politician)
	fmt.Fprintf(w, "Generated: %s\n", result.Metadata.RunTimestamp.Format(timestampFormat))
	if result.Metadata.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", result.Metadata.RunID)
	}
	fmt.Fprintln(w, strings.Repeat("=", rule))
	fmt.Fprintln(w)
	fmt.Fprintln(w, "ANALYSIS SCOPE:")
	for _, line := range Scope {
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
}

// WriteSummary writes the overview report: totals, run statistics and a
// table of conflicts in result order.
func WriteSummary(out io.Writer, result conflicts.Result) error {
	w := bufio.NewWriter(out)
	header(w, "Political Potential Conflict of Interest Analysis Report", result, 60)

	if len(result.Conflicts) == 0 {
		fmt.Fprintln(w, "No potential conflicts of interest found.")
		warnings(w, result.Warnings, summaryWarningLimit)
		return w.Flush()
	}

	md := result.Metadata
	fmt.Fprintln(w, "SUMMARY:")
	fmt.Fprintf(w, "Total potential conflicts: %d\n", len(result.Conflicts))
	fmt.Fprintf(w, "Total contribution amount: %s\n", result.TotalContributionAmount())
	fmt.Fprintf(w, "Analysis threshold: %.1f\n", md.ThresholdUsed)
	fmt.Fprintf(w, "Candidates before validation: %d\n", md.TotalCandidatesBeforeValidation)
	fmt.Fprintf(w, "Rejected by validation: %d\n", md.RejectedCount)
	if md.UnvalidatedCount > 0 {
		fmt.Fprintf(w, "Unvalidated (verdict unavailable): %d\n", md.UnvalidatedCount)
	}
	if len(md.ConfidenceDistribution) > 0 {
		fmt.Fprintf(w, "Verdict confidence: %s\n", distribution(md.ConfidenceDistribution))
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "TOP CONFLICTS:")
	if err := ConflictTable(w, result.Conflicts); err != nil {
		return err
	}
	warnings(w, result.Warnings, summaryWarningLimit)
	return w.Flush()
}

// summaryWarningLimit caps the names listed in the summary; the detailed
// report lists all of them.
const summaryWarningLimit = 10

func warnings(w *bufio.Writer, list []*errors.NormalizationWarning, limit int) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "NORMALIZATION WARNINGS (%d names matched on a best-effort basis):\n", len(list))
	for i, nw := range list {
		if limit > 0 && i == limit {
			fmt.Fprintf(w, "  ... and %d more (see the detailed report)\n", len(list)-limit)
			break
		}
		fmt.Fprintf(w, "  • %s: %s\n", nw.Name, nw.Reason)
	}
}

// ConflictTable renders one row per conflict.
func ConflictTable(w io.Writer, records []conflicts.ConflictRecord) error {
	cfg := tablewriter.Config{}
	cfg.Row.Alignment = tw.CellAlignment{PerColumn: []tw.Align{
		tw.AlignRight, tw.AlignLeft, tw.AlignLeft, tw.AlignRight,
		tw.AlignRight, tw.AlignRight, tw.AlignRight, tw.AlignLeft,
	}}
	table := tablewriter.NewTable(w, tablewriter.WithConfig(cfg))
	table.Header("#", "Beneficiary", "Contributor", "Similarity", "Total", "Contributions", "Votes", "Status")
	for i, r := range records {
		if err := table.Append(
			fmt.Sprint(i+1),
			r.BeneficiaryName,
			contributorLabel(r),
			fmt.Sprintf("%.1f%%", r.Score()),
			r.TotalContributionAmount.String(),
			fmt.Sprint(r.ContributionCount),
			fmt.Sprint(len(r.VoteOccurrences)),
			StatusLabel(r),
		); err != nil {
			return err
		}
	}
	return table.Render()
}

// WriteDetailed writes every conflict with its similarity breakdown,
// verdict, contributions and votes.
func WriteDetailed(out io.Writer, result conflicts.Result) error {
	w := bufio.NewWriter(out)
	header(w, "Detailed Political Potential Conflict of Interest Analysis Report", result, 80)

	if len(result.Conflicts) == 0 {
		fmt.Fprintln(w, "No potential conflicts of interest found.")
		warnings(w, result.Warnings, 0)
		return w.Flush()
	}

	for i, r := range result.Conflicts {
		bd := r.BestMatch.Breakdown
		fmt.Fprintf(w, "CONFLICT #%d\n", i+1)
		fmt.Fprintln(w, strings.Repeat("-", 50))
		fmt.Fprintf(w, "Entity: %s\n", r.BeneficiaryName)
		fmt.Fprintf(w, "Contributor: %s\n", contributorLabel(r))
		fmt.Fprintf(w, "Similarity: %.1f%%\n", bd.WeightedComposite)
		if bd.MatchedOn == conflicts.MatchedEmployer {
			fmt.Fprintf(w, "Matched on: employer (contributor name similarity %.1f%%)\n", bd.NameComposite)
		}
		fmt.Fprintf(w, "Matched forms: %s %q <> %s %q\n",
			bd.BeneficiaryForm.Kind, bd.BeneficiaryForm.Text,
			bd.ContributorForm.Kind, bd.ContributorForm.Text)
		fmt.Fprintf(w, "Algorithm scores: %s\n", algorithms(bd.AlgorithmScores))
		if nw := NameWarnings(r); nw != "" {
			fmt.Fprintf(w, "Name warnings: %s\n", nw)
		}
		if bd.EmployerBonus > 0 {
			fmt.Fprintf(w, "Employer bonus: +%.1f (employer similarity %.1f%%)\n", bd.EmployerBonus, bd.EmployerScore)
		}
		fmt.Fprintf(w, "Total Contributions: %s\n", r.TotalContributionAmount)
		fmt.Fprintf(w, "Validation: %s\n", StatusLabel(r))
		switch {
		case r.Validation != nil:
			fmt.Fprintf(w, "  Reason: %s\n", r.Validation.Reason)
			if len(r.Validation.KeyFactors) > 0 {
				fmt.Fprintf(w, "  Key factors: %s\n", strings.Join(r.Validation.KeyFactors, "; "))
			}
		case r.ValidationError != "":
			fmt.Fprintf(w, "  Error: %s\n", r.ValidationError)
		}
		fmt.Fprintln(w)

		if len(r.Contributions) > 0 {
			fmt.Fprintln(w, "CONTRIBUTION DETAILS:")
			for _, c := range r.Contributions {
				employer := ""
				if c.Employer != "" {
					employer = " (" + c.Employer + ")"
				}
				fmt.Fprintf(w, "  • %s%s\n", c.Name, employer)
				fmt.Fprintf(w, "    Amount: %s\n", c.Amount)
				fmt.Fprintf(w, "    Date: %s\n", c.Date.Format(constants.DateFormat))
				if c.TransactionType != "" {
					fmt.Fprintf(w, "    Type: %s\n", c.TransactionType)
				}
				fmt.Fprintln(w)
			}
		}

		if len(r.VoteOccurrences) > 0 {
			fmt.Fprintln(w, "VOTING DETAILS:")
			for _, v := range r.VoteOccurrences {
				fmt.Fprintf(w, "  • %s: %s vote\n", v.VoteDate.Format(constants.DateFormat), v.Vote)
				fmt.Fprintf(w, "    Item: %s\n", v.Item)
				fmt.Fprintf(w, "    Outcome: %s\n", v.Outcome)
				fmt.Fprintf(w, "    Beneficiary: %s\n", v.Name)
				fmt.Fprintln(w)
			}
		}

		fmt.Fprintln(w, strings.Repeat("=", 80))
		fmt.Fprintln(w)
	}
	warnings(w, result.Warnings, 0)
	return w.Flush()
}

// NameWarnings joins the normalization warnings of the best match's
// beneficiary and contributor, or returns "" when both parsed cleanly.
func NameWarnings(r conflicts.ConflictRecord) string {
	var parts []string
	add := func(e conflicts.NormalizedEntity) {
		if len(e.Warnings) > 0 {
			parts = append(parts, fmt.Sprintf("%s (%s)", e.OriginalName, strings.Join(e.Warnings, ", ")))
		}
	}
	add(r.BestMatch.Beneficiary)
	add(r.BestMatch.Contributor)
	return strings.Join(parts, "; ")
}

// StatusLabel describes a record's validation state for humans.
func StatusLabel(r conflicts.ConflictRecord) string {
	switch r.Status {
	case conflicts.StatusConfirmed:
		if r.Validation != nil {
			return "confirmed (" + string(r.Validation.Confidence) + ")"
		}
		return "confirmed"
	case conflicts.StatusUnvalidated:
		return "UNVALIDATED"
	case conflicts.StatusSkipped:
		return "not validated"
	}
	return string(r.Status)
}

func contributorLabel(r conflicts.ConflictRecord) string {
	if r.ContributorEmployer == "" {
		return r.ContributorName
	}
	return r.ContributorName + " (" + r.ContributorEmployer + ")"
}

func algorithms(scores map[string]float64) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%.1f", name, scores[name])
	}
	return strings.Join(parts, " ")
}

func distribution(d map[string]int) string {
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, d[k])
	}
	return strings.Join(parts, " ")
}
