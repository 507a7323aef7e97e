package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
)

// CSVHeader is the column order of WriteCSV.
var CSVHeader = []string{
	"Politician", "Beneficiary", "Contributor", "Employer",
	"Amount", "Date", "Transaction_Type", "Similarity",
	"Status", "Confidence", "Total_Contributions", "Contribution_Count", "Vote_Count",
	"Matched_On", "Name_Warnings",
}

// WriteCSV writes one row per contribution of every conflict. An empty
// result still produces the header row.
func WriteCSV(out io.Writer, result conflicts.Result) error {
	w := csv.NewWriter(out)
	if err := w.Write(CSVHeader); err != nil {
		return err
	}
	for _, r := range result.Conflicts {
		confidence := ""
		if r.Validation != nil {
			confidence = string(r.Validation.Confidence)
		}
		for _, c := range r.Contributions {
			row := []string{
				result.Metadata.Politician,
				r.BeneficiaryName,
				c.Name,
				c.Employer,
				fmt.Sprintf("%.2f", c.Amount.Dollars()),
				c.Date.Format(constants.DateFormat),
				c.TransactionType,
				fmt.Sprintf("%.2f", r.Score()),
				string(r.Status),
				confidence,
				fmt.Sprintf("%.2f", r.TotalContributionAmount.Dollars()),
				fmt.Sprint(r.ContributionCount),
				fmt.Sprint(len(r.VoteOccurrences)),
				string(r.BestMatch.Breakdown.MatchedOn),
				NameWarnings(r),
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	return w.Error()
}
