package conflicts

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Cents is an exact monetary amount in US cents.
type Cents int64

// ParseCents parses a currency string such as "$1,250.50" or "300".
// Negative amounts and more than two decimal places are rejected.
func ParseCents(s string) (Cents, error) {
	clean := strings.TrimSpace(s)
	clean = strings.ReplaceAll(clean, "$", "")
	clean = strings.ReplaceAll(clean, ",", "")
	clean = strings.TrimSpace(clean)
	if clean == "" {
		return 0, fmt.Errorf("empty amount")
	}
	if strings.HasPrefix(clean, "-") || strings.HasPrefix(clean, "(") {
		return 0, fmt.Errorf("negative amount %q", s)
	}

	whole, frac, hasFrac := strings.Cut(clean, ".")
	if whole == "" {
		whole = "0"
	}
	if !digits(whole) || (hasFrac && frac != "" && !digits(frac)) {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	if dollars > (math.MaxInt64-99)/100 {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	var cents int64
	if hasFrac {
		switch len(frac) {
		case 0:
		case 1:
			frac += "0"
			fallthrough
		case 2:
			cents, err = strconv.ParseInt(frac, 10, 64)
			if err != nil {
				return 0, fmt.Errorf("invalid amount %q: %w", s, err)
			}
		default:
			return 0, fmt.Errorf("invalid amount %q: more than two decimal places", s)
		}
	}
	return Cents(dollars*100 + cents), nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}

// Dollars returns the amount as a float for display and JSON consumers.
func (c Cents) Dollars() float64 {
	return float64(c) / 100
}

// String formats the amount as "$1,234.56".
func (c Cents) String() string {
	neg := c < 0
	if neg {
		c = -c
	}
	whole := strconv.FormatInt(int64(c)/100, 10)
	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	fmt.Fprintf(&b, ".%02d", int64(c)%100)
	return b.String()
}

// VoteType is the position a politician took on an agenda item.
type VoteType string

// Vote positions.
const (
	VoteAye     VoteType = "AYE"
	VoteNay     VoteType = "NAY"
	VoteAbstain VoteType = "ABSTAIN"
	VoteAbsent  VoteType = "ABSENT"
	VoteRecused VoteType = "RECUSED"
)

// ParseVoteType maps common spellings onto a VoteType.
func ParseVoteType(s string) (VoteType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "AYE", "YES", "Y", "YEA":
		return VoteAye, nil
	case "NAY", "NO", "N":
		return VoteNay, nil
	case "ABSTAIN", "ABSTAINED":
		return VoteAbstain, nil
	case "ABSENT":
		return VoteAbsent, nil
	case "RECUSED", "RECUSE":
		return VoteRecused, nil
	}
	return "", fmt.Errorf("unknown vote %q", s)
}

// VoteOutcome is the result of the vote on an agenda item.
type VoteOutcome string

// Vote outcomes. Unknown is used when the source leaves it blank.
const (
	OutcomePassed  VoteOutcome = "PASSED"
	OutcomeFailed  VoteOutcome = "FAILED"
	OutcomeUnknown VoteOutcome = "UNKNOWN"
)

// ParseVoteOutcome maps common spellings onto a VoteOutcome.
func ParseVoteOutcome(s string) VoteOutcome {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "PASSED", "PASS", "APPROVED", "ADOPTED", "CARRIED":
		return OutcomePassed
	case "FAILED", "FAIL", "DENIED", "REJECTED":
		return OutcomeFailed
	}
	return OutcomeUnknown
}

// Beneficiary is one vote record naming a party that benefits from an agenda item.
type Beneficiary struct {
	ID         int         `json:"id" yaml:"id"`
	Name       string      `json:"name" yaml:"name"`
	VoteDate   time.Time   `json:"vote_date" yaml:"vote_date"`
	Item       string      `json:"item" yaml:"item"`
	Vote       VoteType    `json:"vote" yaml:"vote"`
	Outcome    VoteOutcome `json:"outcome" yaml:"outcome"`
	Politician string      `json:"politician,omitempty" yaml:"politician,omitempty"`
}

// Raw returns the record's name as a raw entity.
func (b Beneficiary) Raw() RawEntity {
	return RawEntity{Name: b.Name, Source: SourceBeneficiary}
}

// Contribution is one campaign-finance record.
type Contribution struct {
	ID              int       `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	Employer        string    `json:"employer,omitempty" yaml:"employer,omitempty"`
	Amount          Cents     `json:"amount_cents" yaml:"amount_cents"`
	Date            time.Time `json:"date" yaml:"date"`
	TransactionType string    `json:"transaction_type,omitempty" yaml:"transaction_type,omitempty"`
}

// Raw returns the record's name and employer as a raw entity.
func (c Contribution) Raw() RawEntity {
	return RawEntity{Name: c.Name, Employer: c.Employer, Source: SourceContributor}
}
