// Package ingest reads council-minutes and campaign-finance CSV exports into
// typed records.
//
// Headers are matched case-insensitively and several spellings are accepted
// for each column, so exports from different clerks load without editing.
// Rows missing a field the pipeline needs are skipped and logged at debug;
// a file missing a required column is rejected outright.
package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
	"github.com/agentstation/conflictmap/pkg/logging"
)

// Canonical column names.
const (
	ColDate            = "date"
	ColPolitician      = "politician"
	ColVote            = "vote"
	ColItem            = "item"
	ColOutcome         = "outcome"
	ColBeneficiary     = "beneficiary"
	ColContributor     = "contributor"
	ColEmployer        = "employer"
	ColAmount          = "amount"
	ColTransactionType = "transaction type"
)

// BeneficiarySeparator splits a cell naming several beneficiaries.
const BeneficiarySeparator = ";"

var voteAliases = map[string]string{
	"meeting date":     ColDate,
	"date":             ColDate,
	"vote date":        ColDate,
	"politician":       ColPolitician,
	"council member":   ColPolitician,
	"vote":             ColVote,
	"item description": ColItem,
	"item":             ColItem,
	"agenda item":      ColItem,
	"vote outcome":     ColOutcome,
	"outcome":          ColOutcome,
	"result":           ColOutcome,
	"beneficiary":      ColBeneficiary,
	"beneficiaries":    ColBeneficiary,
}

var contributionAliases = map[string]string{
	"contributor name":     ColContributor,
	"contributor":          ColContributor,
	"name":                 ColContributor,
	"contributor employer": ColEmployer,
	"employer":             ColEmployer,
	"amount":               ColAmount,
	"start date":           ColDate,
	"date":                 ColDate,
	"transaction date":     ColDate,
	"transaction type":     ColTransactionType,
	"type":                 ColTransactionType,
}

var (
	requiredVoteColumns         = []string{ColDate, ColVote, ColItem, ColBeneficiary}
	requiredContributionColumns = []string{ColContributor, ColAmount, ColDate}
)

// dateLayouts are tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"1/2/06",
	"Jan 2, 2006",
}

// ParseDate parses the date formats seen in clerk and filing exports.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// header maps canonical column names to field indexes.
type header struct {
	index map[string]int

	// politician is taken from a "<Name> Vote" column when the file has no
	// politician column.
	politician string
}

func (h header) get(row []string, col string) string {
	i, ok := h.index[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (h header) missing(required []string) []string {
	var out []string
	for _, col := range required {
		if _, ok := h.index[col]; !ok {
			out = append(out, col)
		}
	}
	return out
}

func cleanHeader(s string) string {
	s = strings.TrimPrefix(s, "\ufeff")
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

func mapHeader(fields []string, aliases map[string]string, votes bool) header {
	h := header{index: make(map[string]int, len(fields))}
	for i, f := range fields {
		name := cleanHeader(f)
		col, ok := aliases[name]
		if !ok && votes && strings.HasSuffix(name, " vote") {
			// "Cervantes Vote" names both the vote column and the politician.
			col, ok = ColVote, true
			h.politician = strings.TrimSpace(strings.TrimPrefix(f, "\ufeff"))
			h.politician = strings.TrimSpace(h.politician[:len(h.politician)-len(" vote")])
		}
		if !ok {
			continue
		}
		if _, dup := h.index[col]; !dup {
			h.index[col] = i
		}
	}
	return h
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	return cr
}

// readAll returns the mapped header and data rows of a CSV stream.
func readAll(r io.Reader, aliases map[string]string, required []string, votes bool) (header, [][]string, error) {
	rows, err := newCSVReader(r).ReadAll()
	if err != nil {
		return header{}, nil, errors.WrapParse("csv", "", err)
	}
	if len(rows) == 0 {
		return header{}, nil, errors.NewValidationError("header", nil, "file is empty")
	}
	h := mapHeader(rows[0], aliases, votes)
	if missing := h.missing(required); len(missing) > 0 {
		return header{}, nil, errors.NewValidationError("header", rows[0],
			"missing required columns: "+strings.Join(missing, ", "))
	}
	return h, rows[1:], nil
}

// LoadVotes reads a council-minutes CSV file.
func LoadVotes(ctx context.Context, path string) ([]conflicts.Beneficiary, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	votes, err := ReadVotes(ctx, f)
	return votes, withFile(err, path)
}

// ReadVotes reads council-minutes CSV from r. A cell naming several
// beneficiaries separated by ";" yields one record per beneficiary. Record
// IDs are 1-based in output order.
func ReadVotes(ctx context.Context, r io.Reader) ([]conflicts.Beneficiary, error) {
	logger := logging.FromContext(ctx)

	h, rows, err := readAll(r, voteAliases, requiredVoteColumns, true)
	if err != nil {
		return nil, err
	}

	var out []conflicts.Beneficiary
	skipped := 0
	for i, row := range rows {
		line := i + 2
		beneficiaries := h.get(row, ColBeneficiary)
		voteText := h.get(row, ColVote)
		item := h.get(row, ColItem)
		if beneficiaries == "" || voteText == "" || item == "" {
			logger.Debug().Int("line", line).Msg("Skipping minutes row with missing beneficiary, vote or item")
			skipped++
			continue
		}
		date, err := ParseDate(h.get(row, ColDate))
		if err != nil {
			logger.Debug().Int("line", line).Err(err).Msg("Skipping minutes row")
			skipped++
			continue
		}
		vote, err := conflicts.ParseVoteType(voteText)
		if err != nil {
			logger.Debug().Int("line", line).Err(err).Msg("Skipping minutes row")
			skipped++
			continue
		}

		politician := h.get(row, ColPolitician)
		if politician == "" {
			politician = h.politician
		}
		if politician == "" {
			politician = constants.DefaultPolitician
		}
		outcome := conflicts.ParseVoteOutcome(h.get(row, ColOutcome))

		for _, name := range strings.Split(beneficiaries, BeneficiarySeparator) {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			out = append(out, conflicts.Beneficiary{
				ID:         len(out) + 1,
				Name:       name,
				VoteDate:   date,
				Item:       item,
				Vote:       vote,
				Outcome:    outcome,
				Politician: politician,
			})
		}
	}

	logger.Info().
		Int("records", len(out)).
		Int("skipped", skipped).
		Msg("Loaded council minutes")
	return out, nil
}

// LoadContributions reads a campaign-finance CSV file.
func LoadContributions(ctx context.Context, path string) ([]conflicts.Contribution, error) {
	f, err := os.Open(path) //nolint:gosec // operator supplied path
	if err != nil {
		return nil, errors.WrapIO("open", path, err)
	}
	defer f.Close()

	contributions, err := ReadContributions(ctx, f)
	return contributions, withFile(err, path)
}

// ReadContributions reads campaign-finance CSV from r. Amounts may carry "$"
// and thousands separators; negative amounts are skipped. Record IDs are
// 1-based in output order.
func ReadContributions(ctx context.Context, r io.Reader) ([]conflicts.Contribution, error) {
	logger := logging.FromContext(ctx)

	h, rows, err := readAll(r, contributionAliases, requiredContributionColumns, false)
	if err != nil {
		return nil, err
	}

	var out []conflicts.Contribution
	skipped := 0
	for i, row := range rows {
		line := i + 2
		name := h.get(row, ColContributor)
		amountText := h.get(row, ColAmount)
		dateText := h.get(row, ColDate)
		if name == "" || amountText == "" || dateText == "" {
			logger.Debug().Int("line", line).Msg("Skipping contribution row with missing contributor, amount or date")
			skipped++
			continue
		}
		amount, err := conflicts.ParseCents(amountText)
		if err != nil {
			logger.Debug().Int("line", line).Err(err).Msg("Skipping contribution row")
			skipped++
			continue
		}
		date, err := ParseDate(dateText)
		if err != nil {
			logger.Debug().Int("line", line).Err(err).Msg("Skipping contribution row")
			skipped++
			continue
		}

		out = append(out, conflicts.Contribution{
			ID:              len(out) + 1,
			Name:            name,
			Employer:        h.get(row, ColEmployer),
			Amount:          amount,
			Date:            date,
			TransactionType: h.get(row, ColTransactionType),
		})
	}

	logger.Info().
		Int("records", len(out)).
		Int("skipped", skipped).
		Msg("Loaded campaign finance")
	return out, nil
}

func withFile(err error, path string) error {
	if err == nil {
		return nil
	}
	var pe *errors.ParseError
	if errors.As(err, &pe) && pe.File == "" {
		pe.File = path
	}
	var ve *errors.ValidationError
	if errors.As(err, &ve) {
		ve.Message = path + ": " + ve.Message
	}
	return err
}
