// Package consolidate folds match candidates into one conflict record per
// (contributor, beneficiary) pair.
package consolidate

import (
	"github.com/agentstation/conflictmap/pkg/conflicts"
)

// Consolidate groups candidates by their normalized contributor and
// beneficiary. Records appear in the order their first candidate appears.
func Consolidate(candidates []conflicts.MatchCandidate) []conflicts.ConflictRecord {
	singles := make([]conflicts.ConflictRecord, len(candidates))
	for i, c := range candidates {
		singles[i] = Single(c)
	}
	return Merge(singles)
}

// Single wraps one candidate as a conflict record of its own.
func Single(c conflicts.MatchCandidate) conflicts.ConflictRecord {
	return conflicts.ConflictRecord{
		Key:                     c.Key(),
		BeneficiaryName:         c.Vote.Name,
		ContributorName:         c.Contribution.Name,
		ContributorEmployer:     c.Contribution.Employer,
		TotalContributionAmount: c.Contribution.Amount,
		ContributionCount:       1,
		Contributions:           []conflicts.Contribution{c.Contribution},
		VoteOccurrences:         []conflicts.Beneficiary{c.Vote},
		BestMatch:               c,
		Status:                  conflicts.StatusPending,
	}
}

// Merge combines records that share a key. Contributions and vote occurrences
// are deduplicated by value with insertion order preserved, and totals are
// recomputed from the distinct contributions. Merge is idempotent.
func Merge(records []conflicts.ConflictRecord) []conflicts.ConflictRecord {
	var out []conflicts.ConflictRecord
	index := make(map[conflicts.GroupKey]int)
	seenContribs := make(map[conflicts.GroupKey]map[conflicts.Contribution]struct{})
	seenVotes := make(map[conflicts.GroupKey]map[conflicts.Beneficiary]struct{})

	for _, r := range records {
		i, ok := index[r.Key]
		if !ok {
			i = len(out)
			index[r.Key] = i
			seenContribs[r.Key] = make(map[conflicts.Contribution]struct{})
			seenVotes[r.Key] = make(map[conflicts.Beneficiary]struct{})

			first := r.Clone()
			first.Contributions = nil
			first.VoteOccurrences = nil
			out = append(out, first)
		} else if better(r.BestMatch, out[i].BestMatch) {
			out[i].BestMatch = r.BestMatch
		}

		rec := &out[i]
		for _, c := range r.Contributions {
			if _, dup := seenContribs[r.Key][c]; dup {
				continue
			}
			seenContribs[r.Key][c] = struct{}{}
			rec.Contributions = append(rec.Contributions, c)
		}
		for _, v := range r.VoteOccurrences {
			if _, dup := seenVotes[r.Key][v]; dup {
				continue
			}
			seenVotes[r.Key][v] = struct{}{}
			rec.VoteOccurrences = append(rec.VoteOccurrences, v)
		}
		if rec.Validation == nil && r.Validation != nil {
			rec.Validation = r.Clone().Validation
			rec.Status = r.Status
		}
	}

	for i := range out {
		out[i].TotalContributionAmount = 0
		for _, c := range out[i].Contributions {
			out[i].TotalContributionAmount += c.Amount
		}
		out[i].ContributionCount = len(out[i].Contributions)
	}
	return out
}

// better reports whether a should replace b as a group's best match: a higher
// score wins, then the more recent contribution.
func better(a, b conflicts.MatchCandidate) bool {
	if a.Score() != b.Score() {
		return a.Score() > b.Score()
	}
	return a.Contribution.Date.After(b.Contribution.Date)
}
