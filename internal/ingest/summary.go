package ingest

import (
	"time"

	"github.com/agentstation/conflictmap/pkg/conflicts"
)

// VoteSummary describes a loaded minutes dataset.
type VoteSummary struct {
	Records             int                           `json:"records" yaml:"records"`
	UniqueBeneficiaries int                           `json:"unique_beneficiaries" yaml:"unique_beneficiaries"`
	UniqueItems         int                           `json:"unique_items" yaml:"unique_items"`
	Votes               map[conflicts.VoteType]int    `json:"votes" yaml:"votes"`
	Outcomes            map[conflicts.VoteOutcome]int `json:"outcomes" yaml:"outcomes"`
	First               time.Time                     `json:"first" yaml:"first"`
	Last                time.Time                     `json:"last" yaml:"last"`
}

// ContributionSummary describes a loaded campaign-finance dataset.
type ContributionSummary struct {
	Records            int             `json:"records" yaml:"records"`
	UniqueContributors int             `json:"unique_contributors" yaml:"unique_contributors"`
	Total              conflicts.Cents `json:"total_cents" yaml:"total_cents"`
	Min                conflicts.Cents `json:"min_cents" yaml:"min_cents"`
	Max                conflicts.Cents `json:"max_cents" yaml:"max_cents"`
	Average            conflicts.Cents `json:"average_cents" yaml:"average_cents"`
	First              time.Time       `json:"first" yaml:"first"`
	Last               time.Time       `json:"last" yaml:"last"`
}

// SummarizeVotes computes statistics over vote records.
func SummarizeVotes(votes []conflicts.Beneficiary) VoteSummary {
	s := VoteSummary{
		Records:  len(votes),
		Votes:    make(map[conflicts.VoteType]int),
		Outcomes: make(map[conflicts.VoteOutcome]int),
	}
	names := make(map[string]struct{})
	items := make(map[string]struct{})
	for _, v := range votes {
		names[v.Name] = struct{}{}
		items[v.Item] = struct{}{}
		s.Votes[v.Vote]++
		s.Outcomes[v.Outcome]++
		s.First, s.Last = widen(s.First, s.Last, v.VoteDate)
	}
	s.UniqueBeneficiaries = len(names)
	s.UniqueItems = len(items)
	return s
}

// SummarizeContributions computes statistics over contribution records.
// The average is rounded down to the cent.
func SummarizeContributions(contributions []conflicts.Contribution) ContributionSummary {
	s := ContributionSummary{Records: len(contributions)}
	names := make(map[string]struct{})
	for i, c := range contributions {
		names[c.Name] = struct{}{}
		s.Total += c.Amount
		if i == 0 || c.Amount < s.Min {
			s.Min = c.Amount
		}
		if i == 0 || c.Amount > s.Max {
			s.Max = c.Amount
		}
		s.First, s.Last = widen(s.First, s.Last, c.Date)
	}
	s.UniqueContributors = len(names)
	if s.Records > 0 {
		s.Average = s.Total / conflicts.Cents(s.Records)
	}
	return s
}

func widen(first, last, t time.Time) (time.Time, time.Time) {
	if first.IsZero() || t.Before(first) {
		first = t
	}
	if last.IsZero() || t.After(last) {
		last = t
	}
	return first, last
}
