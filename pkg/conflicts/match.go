package conflicts

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/conflictmap/pkg/errors"
)

// Algorithm names used as keys of SimilarityBreakdown.AlgorithmScores.
const (
	AlgorithmFullRatio = "full_ratio"
	AlgorithmSubstring = "substring"
	AlgorithmTokenSort = "token_sort"
	AlgorithmTokenSet  = "token_set"
	AlgorithmEdit      = "edit"
)

// MatchSide names the contributor field that produced a match.
type MatchSide string

// Match sides.
const (
	MatchedName     MatchSide = "name"
	MatchedEmployer MatchSide = "employer"
)

// SimilarityBreakdown records how a composite score was reached.
type SimilarityBreakdown struct {
	AlgorithmScores map[string]float64 `json:"algorithm_scores" yaml:"algorithm_scores"`

	// NameComposite is the weighted name score before any employer bonus.
	NameComposite float64 `json:"name_composite" yaml:"name_composite"`

	// EmployerScore is the best similarity of the contributor's employer to the beneficiary.
	EmployerScore float64 `json:"employer_score" yaml:"employer_score"`

	// EmployerBonus is the amount added to NameComposite because of EmployerScore.
	EmployerBonus float64 `json:"employer_bonus" yaml:"employer_bonus"`

	// WeightedComposite is what thresholds apply to. For name matches it is
	// min(100, NameComposite+EmployerBonus); for employer matches it is
	// EmployerScore.
	WeightedComposite float64 `json:"weighted_composite" yaml:"weighted_composite"`

	// MatchedOn tells whether the contributor's name or its employer matched.
	MatchedOn MatchSide `json:"matched_on" yaml:"matched_on"`

	BeneficiaryForm Form `json:"beneficiary_form" yaml:"beneficiary_form"`
	ContributorForm Form `json:"contributor_form" yaml:"contributor_form"`
}

// MatchCandidate is one scored (vote record, contribution record) pair whose
// composite met the run's threshold.
type MatchCandidate struct {
	Beneficiary  NormalizedEntity    `json:"beneficiary" yaml:"beneficiary"`
	Contributor  NormalizedEntity    `json:"contributor" yaml:"contributor"`
	Employer     NormalizedEntity    `json:"employer" yaml:"employer"`
	Breakdown    SimilarityBreakdown `json:"breakdown" yaml:"breakdown"`
	Vote         Beneficiary         `json:"vote" yaml:"vote"`
	Contribution Contribution        `json:"contribution" yaml:"contribution"`
}

// Score returns the candidate's weighted composite.
func (m MatchCandidate) Score() float64 {
	return m.Breakdown.WeightedComposite
}

// Key returns the consolidation key of the candidate.
func (m MatchCandidate) Key() GroupKey {
	return GroupKey{
		Contributor: m.Contributor.CanonicalForm,
		Beneficiary: m.Beneficiary.CanonicalForm,
	}
}

// GroupKey identifies one conflict: a normalized contributor paired with a
// normalized beneficiary.
type GroupKey struct {
	Contributor string `json:"contributor" yaml:"contributor"`
	Beneficiary string `json:"beneficiary" yaml:"beneficiary"`
}

// String renders the key for logs and cache keys.
func (k GroupKey) String() string {
	return k.Contributor + " <> " + k.Beneficiary
}

// Confidence is the reasoner's self-reported certainty.
type Confidence string

// Confidence levels.
const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// ParseConfidence accepts any casing of high, medium or low.
func ParseConfidence(s string) (Confidence, error) {
	switch c := Confidence(strings.ToLower(strings.TrimSpace(s))); c {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
		return c, nil
	}
	return "", fmt.Errorf("unknown confidence %q", s)
}

// Verdict is the AI validator's judgment on one conflict.
type Verdict struct {
	SameEntity bool       `json:"same_entity" yaml:"same_entity"`
	Reason     string     `json:"reason" yaml:"reason"`
	Confidence Confidence `json:"confidence" yaml:"confidence"`
	KeyFactors []string   `json:"key_factors,omitempty" yaml:"key_factors,omitempty"`
}

// ValidationStatus tracks where a conflict record stands in AI validation.
type ValidationStatus string

// Validation statuses.
const (
	StatusPending     ValidationStatus = "pending"
	StatusConfirmed   ValidationStatus = "confirmed"
	StatusUnvalidated ValidationStatus = "unvalidated"
	StatusSkipped     ValidationStatus = "skipped"
)

// ConflictRecord is one consolidated conflict between a contributor and a beneficiary.
type ConflictRecord struct {
	Key                     GroupKey         `json:"key" yaml:"key"`
	BeneficiaryName         string           `json:"beneficiary_name" yaml:"beneficiary_name"`
	ContributorName         string           `json:"contributor_name" yaml:"contributor_name"`
	ContributorEmployer     string           `json:"contributor_employer,omitempty" yaml:"contributor_employer,omitempty"`
	TotalContributionAmount Cents            `json:"total_contribution_cents" yaml:"total_contribution_cents"`
	ContributionCount       int              `json:"contribution_count" yaml:"contribution_count"`
	Contributions           []Contribution   `json:"contributions" yaml:"contributions"`
	VoteOccurrences         []Beneficiary    `json:"vote_occurrences" yaml:"vote_occurrences"`
	BestMatch               MatchCandidate   `json:"best_match" yaml:"best_match"`
	Validation              *Verdict         `json:"validation,omitempty" yaml:"validation,omitempty"`
	Status                  ValidationStatus `json:"status" yaml:"status"`
	ValidationError         string           `json:"validation_error,omitempty" yaml:"validation_error,omitempty"`
}

// Score returns the best match's weighted composite.
func (r ConflictRecord) Score() float64 {
	return r.BestMatch.Breakdown.WeightedComposite
}

// Clone returns a copy whose slices and verdict are not shared with r.
func (r ConflictRecord) Clone() ConflictRecord {
	out := r
	out.Contributions = append([]Contribution(nil), r.Contributions...)
	out.VoteOccurrences = append([]Beneficiary(nil), r.VoteOccurrences...)
	if r.Validation != nil {
		v := *r.Validation
		v.KeyFactors = append([]string(nil), r.Validation.KeyFactors...)
		out.Validation = &v
	}
	return out
}

// RunMetadata describes one analysis run.
type RunMetadata struct {
	RunID                           string         `json:"run_id" yaml:"run_id"`
	Politician                      string         `json:"politician" yaml:"politician"`
	ThresholdUsed                   float64        `json:"threshold_used" yaml:"threshold_used"`
	TotalCandidatesBeforeValidation int            `json:"total_candidates_before_validation" yaml:"total_candidates_before_validation"`
	TotalCandidatesAfterValidation  int            `json:"total_candidates_after_validation" yaml:"total_candidates_after_validation"`
	RejectedCount                   int            `json:"rejected_count" yaml:"rejected_count"`
	UnvalidatedCount                int            `json:"unvalidated_count" yaml:"unvalidated_count"`
	NormalizationWarnings           int            `json:"normalization_warnings" yaml:"normalization_warnings"`
	ExcludedEntities                int            `json:"excluded_entities" yaml:"excluded_entities"`
	PairsScored                     int            `json:"pairs_scored" yaml:"pairs_scored"`
	ConfidenceDistribution          map[string]int `json:"confidence_distribution,omitempty" yaml:"confidence_distribution,omitempty"`
	RunTimestamp                    time.Time      `json:"run_timestamp" yaml:"run_timestamp"`
	Duration                        time.Duration  `json:"duration" yaml:"duration"`
}

// Result is the output of an analysis run.
type Result struct {
	Conflicts []ConflictRecord `json:"conflicts" yaml:"conflicts"`
	Metadata  RunMetadata      `json:"metadata" yaml:"metadata"`

	// Warnings lists the names that normalized only on a best-effort basis.
	Warnings []*errors.NormalizationWarning `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// TotalContributionAmount sums the totals of every conflict.
func (r Result) TotalContributionAmount() Cents {
	var total Cents
	for _, c := range r.Conflicts {
		total += c.TotalContributionAmount
	}
	return total
}

// Unvalidated returns the conflicts that carry no verdict because validation failed.
func (r Result) Unvalidated() []ConflictRecord {
	var out []ConflictRecord
	for _, c := range r.Conflicts {
		if c.Status == StatusUnvalidated {
			out = append(out, c)
		}
	}
	return out
}
