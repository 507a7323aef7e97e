// Package similarity scores how likely two normalized names are to refer to
// the same party.
//
// A Scorer combines several string-similarity algorithms into a weighted
// composite in [0,100]. Every form of both entities is compared and the
// best-scoring pair of forms wins. Scoring is a total function: entities with
// no canonical form score zero.
package similarity

import (
	"strings"

	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
)

// Scorer computes weighted composite similarities for one configuration.
// A Scorer is immutable and safe for concurrent use.
type Scorer struct {
	weights           config.Weights
	bonusMax          float64
	employerThreshold float64
	wratio            bool
	matchEmployers    bool
}

// New returns a Scorer using the weights and employer settings of cfg.
// cfg is expected to be validated already.
func New(cfg config.Config) *Scorer {
	return &Scorer{
		weights:           cfg.Weights,
		bonusMax:          cfg.EmployerBonusMax,
		employerThreshold: cfg.EmployerThreshold,
		wratio:            cfg.FullAlgorithm == config.FullWRatio,
		matchEmployers:    cfg.MatchEmployers,
	}
}

// Weights returns the algorithm weights in use.
func (s *Scorer) Weights() config.Weights {
	return s.weights
}

// Score compares two entities by name only.
func (s *Scorer) Score(a, b conflicts.NormalizedEntity) conflicts.SimilarityBreakdown {
	bd := s.bestForms(a, b)
	bd.WeightedComposite = bd.NameComposite
	return bd
}

// ScoreWithEmployer compares a beneficiary with a contributor and adds the
// employer bonus when the contributor's employer resembles the beneficiary.
func (s *Scorer) ScoreWithEmployer(beneficiary, contributor, employer conflicts.NormalizedEntity) conflicts.SimilarityBreakdown {
	bd := s.bestForms(beneficiary, contributor)
	if !beneficiary.Matchable() || !contributor.Matchable() {
		return bd
	}

	if employer.Matchable() {
		bd.EmployerScore = s.bestForms(beneficiary, employer).NameComposite
		if bd.EmployerScore >= s.employerThreshold {
			bd.EmployerBonus = s.bonusMax * bd.EmployerScore / constants.MaxScore
		}
	}
	bd.WeightedComposite = min(constants.MaxScore, bd.NameComposite+bd.EmployerBonus)
	return bd
}

// Match scores a contribution against a beneficiary the way candidate
// generation does. The contributor's name is tried first; when it misses
// threshold and employer matching is enabled, the employer is scored as an
// entity of its own and wins if it does better.
func (s *Scorer) Match(beneficiary, contributor, employer conflicts.NormalizedEntity, threshold float64) conflicts.SimilarityBreakdown {
	bd := s.ScoreWithEmployer(beneficiary, contributor, employer)
	if bd.WeightedComposite >= threshold || !s.matchEmployers ||
		!employer.Matchable() || !contributor.Matchable() {
		return bd
	}

	eb := s.bestForms(beneficiary, employer)
	if eb.NameComposite <= bd.WeightedComposite {
		return bd
	}
	bd.AlgorithmScores = eb.AlgorithmScores
	bd.BeneficiaryForm = eb.BeneficiaryForm
	bd.ContributorForm = eb.ContributorForm
	bd.EmployerScore = eb.NameComposite
	bd.EmployerBonus = 0
	bd.WeightedComposite = eb.NameComposite
	bd.MatchedOn = conflicts.MatchedEmployer
	return bd
}

// bestForms scores every form pair and keeps the highest name composite.
// Ties keep the earlier pair, so canonical forms win over alternates.
func (s *Scorer) bestForms(a, b conflicts.NormalizedEntity) conflicts.SimilarityBreakdown {
	best := conflicts.SimilarityBreakdown{AlgorithmScores: zeroScores(), MatchedOn: conflicts.MatchedName}
	if !a.Matchable() || !b.Matchable() {
		return best
	}

	first := true
	for _, fa := range a.Forms {
		for _, fb := range b.Forms {
			scores := s.Algorithms(fa, fb)
			composite := s.composite(scores)
			if first || composite > best.NameComposite {
				best.AlgorithmScores = scores
				best.NameComposite = composite
				best.BeneficiaryForm = fa
				best.ContributorForm = fb
				first = false
			}
		}
	}
	return best
}

// Algorithms runs every algorithm over one pair of forms.
func (s *Scorer) Algorithms(a, b conflicts.Form) map[string]float64 {
	ta, tb := formTokens(a), formTokens(b)
	full := Ratio(a.Text, b.Text)
	if s.wratio {
		full = WRatio(a.Text, b.Text)
	}
	return map[string]float64{
		conflicts.AlgorithmFullRatio: full,
		conflicts.AlgorithmSubstring: PartialRatio(a.Text, b.Text),
		conflicts.AlgorithmTokenSort: TokenSortRatio(ta, tb),
		conflicts.AlgorithmTokenSet:  TokenSetRatio(ta, tb),
		conflicts.AlgorithmEdit:      EditRatio(a.Text, b.Text),
	}
}

func (s *Scorer) composite(scores map[string]float64) float64 {
	w := s.weights
	c := w.Full*scores[conflicts.AlgorithmFullRatio] +
		w.Substring*scores[conflicts.AlgorithmSubstring] +
		w.TokenSort*scores[conflicts.AlgorithmTokenSort] +
		w.TokenSet*scores[conflicts.AlgorithmTokenSet] +
		w.Edit*scores[conflicts.AlgorithmEdit]
	return min(constants.MaxScore, max(0, c))
}

// UpperBound returns a value no smaller than the WeightedComposite that Match
// could produce for these entities. It depends only on form lengths, so it is
// cheap enough to run before full scoring.
func (s *Scorer) UpperBound(beneficiary, contributor, employer conflicts.NormalizedEntity) float64 {
	if !beneficiary.Matchable() || !contributor.Matchable() {
		return 0
	}
	bound := s.formsBound(beneficiary, contributor)
	if employer.Matchable() {
		bound += s.bonusMax
		if s.matchEmployers {
			bound = max(bound, s.formsBound(beneficiary, employer))
		}
	}
	return min(constants.MaxScore, bound)
}

func (s *Scorer) formsBound(a, b conflicts.NormalizedEntity) float64 {
	w := s.weights
	bound := 0.0
	for _, fa := range a.Forms {
		la := len([]rune(fa.Text))
		for _, fb := range b.Forms {
			lb := len([]rune(fb.Text))
			short, long := min(la, lb), max(la, lb)
			if long == 0 {
				continue
			}
			// Indel ratio cannot exceed 2*min/(la+lb); token sort keeps the
			// text length, and edit similarity cannot exceed min/max. The
			// weighted ratio has no length bound.
			lenRatio := 200 * float64(short) / float64(la+lb)
			editRatio := 100 * float64(short) / float64(long)
			full := lenRatio
			if s.wratio {
				full = constants.MaxScore
			}
			pair := w.Full*full + w.Substring*100 + w.TokenSort*lenRatio +
				w.TokenSet*100 + w.Edit*editRatio
			bound = max(bound, pair)
		}
	}
	return min(constants.MaxScore, bound)
}

func formTokens(f conflicts.Form) []string {
	if f.Tokens != nil {
		return f.Tokens
	}
	return strings.Fields(f.Text)
}

func zeroScores() map[string]float64 {
	return map[string]float64{
		conflicts.AlgorithmFullRatio: 0,
		conflicts.AlgorithmSubstring: 0,
		conflicts.AlgorithmTokenSort: 0,
		conflicts.AlgorithmTokenSet:  0,
		conflicts.AlgorithmEdit:      0,
	}
}
