package validation

import (
	"github.com/agentstation/conflictmap/pkg/conflicts"
)

// Stats summarizes one validation pass.
type Stats struct {
	Total       int `json:"total"`
	Confirmed   int `json:"confirmed"`
	Rejected    int `json:"rejected"`
	Unvalidated int `json:"unvalidated"`
	Skipped     int `json:"skipped"`

	// ConfidenceDistribution counts verdicts by confidence, rejected ones included.
	ConfidenceDistribution map[conflicts.Confidence]int `json:"confidence_distribution,omitempty"`
}

// Rate returns the percentage of judged records that were confirmed.
func (s Stats) Rate() float64 {
	judged := s.Confirmed + s.Rejected
	if judged == 0 {
		return 0
	}
	return 100 * float64(s.Confirmed) / float64(judged)
}

// Distribution returns the confidence counts keyed by name.
func (s Stats) Distribution() map[string]int {
	if len(s.ConfidenceDistribution) == 0 {
		return nil
	}
	out := make(map[string]int, len(s.ConfidenceDistribution))
	for k, v := range s.ConfidenceDistribution {
		out[string(k)] = v
	}
	return out
}
