// Package candidates cross-joins beneficiaries with contributors and keeps the
// pairs whose weighted composite reaches a threshold.
//
// Unique names are normalized once, unique name pairs are scored on a bounded
// worker pool, and every retained name pair is expanded into one candidate per
// (vote record, contribution record). The output order is fixed by a final
// sort, never by scheduling.
package candidates

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync/atomic"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/conflictmap/internal/classify"
	"github.com/agentstation/conflictmap/internal/normalize"
	"github.com/agentstation/conflictmap/internal/similarity"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
	"github.com/agentstation/conflictmap/pkg/logging"
)

// boundSlack absorbs floating point rounding between UpperBound and a real score.
const boundSlack = 1e-9

// Stats counts what happened during one Generate call.
type Stats struct {
	Votes         int `json:"votes"`
	Contributions int `json:"contributions"`
	OutsideWindow int `json:"outside_window"`

	UniqueBeneficiaries int `json:"unique_beneficiaries"`
	UniqueContributors  int `json:"unique_contributors"`

	// Excluded counts unique names dropped by classification before scoring.
	ExcludedBeneficiaries int `json:"excluded_beneficiaries"`
	ExcludedContributors  int `json:"excluded_contributors"`

	PairsScored      int `json:"pairs_scored"`
	PairsPrefiltered int `json:"pairs_prefiltered"`
	PairsRetained    int `json:"pairs_retained"`
	Candidates       int `json:"candidates"`
}

// Excluded returns the number of unique names dropped by classification.
func (s Stats) Excluded() int {
	return s.ExcludedBeneficiaries + s.ExcludedContributors
}

// Generator produces match candidates for one configuration.
type Generator struct {
	cfg        config.Config
	normalizer *normalize.Normalizer
	scorer     *similarity.Scorer
	logger     *zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger used for stage summaries.
func WithLogger(l *zerolog.Logger) Option {
	return func(g *Generator) {
		g.logger = l
	}
}

// New returns a Generator. The normalizer is shared so its cache can be
// reused by later stages of the same run.
func New(cfg config.Config, n *normalize.Normalizer, s *similarity.Scorer, opts ...Option) *Generator {
	g := &Generator{
		cfg:        cfg,
		normalizer: n,
		scorer:     s,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type beneficiaryGroup struct {
	entity  conflicts.NormalizedEntity
	records []int
}

type contributorGroup struct {
	entity   conflicts.NormalizedEntity
	employer conflicts.NormalizedEntity
	records  []int
}

type hit struct {
	contributor int
	breakdown   conflicts.SimilarityBreakdown
}

// Generate scores every non-excluded (beneficiary, contributor) pair and
// returns the candidates whose weighted composite is at least threshold,
// ordered by descending score, then beneficiary input order, then contributor
// input order.
func (g *Generator) Generate(
	ctx context.Context,
	votes []conflicts.Beneficiary,
	contributions []conflicts.Contribution,
	threshold float64,
) ([]conflicts.MatchCandidate, Stats, error) {
	var stats Stats
	if math.IsNaN(threshold) || threshold < 0 || threshold > constants.MaxScore {
		return nil, stats, errors.NewConfigError("threshold",
			fmt.Sprintf("threshold %.2f outside [0, %.0f]", threshold, constants.MaxScore), nil)
	}

	logger := g.logger
	if logger == nil {
		logger = logging.FromContext(ctx)
	}

	bens, cons := g.group(logger, votes, contributions, &stats)

	hits := make([][]hit, len(bens))
	var scored, skipped atomic.Int64

	eg, egctx := errgroup.WithContext(ctx)
	eg.SetLimit(g.cfg.WorkerCount())
	for i := range bens {
		eg.Go(func() error {
			if err := egctx.Err(); err != nil {
				return err
			}
			ben := bens[i].entity
			for j, con := range cons {
				if g.scorer.UpperBound(ben, con.entity, con.employer)+boundSlack < threshold {
					skipped.Add(1)
					continue
				}
				scored.Add(1)
				bd := g.scorer.Match(ben, con.entity, con.employer, threshold)
				if bd.WeightedComposite >= threshold {
					hits[i] = append(hits[i], hit{contributor: j, breakdown: bd})
				}
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, stats, err
	}
	stats.PairsScored = int(scored.Load())
	stats.PairsPrefiltered = int(skipped.Load())

	type ordered struct {
		candidate conflicts.MatchCandidate
		vote      int
		contrib   int
	}
	var out []ordered
	for i, ben := range bens {
		for _, h := range hits[i] {
			stats.PairsRetained++
			con := cons[h.contributor]
			for _, vi := range ben.records {
				for _, ci := range con.records {
					out = append(out, ordered{
						candidate: conflicts.MatchCandidate{
							Beneficiary:  ben.entity,
							Contributor:  con.entity,
							Employer:     con.employer,
							Breakdown:    h.breakdown,
							Vote:         votes[vi],
							Contribution: contributions[ci],
						},
						vote:    vi,
						contrib: ci,
					})
				}
			}
		}
	}

	sort.SliceStable(out, func(a, b int) bool {
		sa, sb := out[a].candidate.Score(), out[b].candidate.Score()
		if sa != sb {
			return sa > sb
		}
		if out[a].vote != out[b].vote {
			return out[a].vote < out[b].vote
		}
		return out[a].contrib < out[b].contrib
	})

	candidates := make([]conflicts.MatchCandidate, len(out))
	for i, o := range out {
		candidates[i] = o.candidate
	}
	stats.Candidates = len(candidates)

	logger.Info().
		Int("unique_beneficiaries", stats.UniqueBeneficiaries).
		Int("unique_contributors", stats.UniqueContributors).
		Int("excluded", stats.Excluded()).
		Int("pairs_scored", stats.PairsScored).
		Int("pairs_prefiltered", stats.PairsPrefiltered).
		Int("candidates", stats.Candidates).
		Float64("threshold", threshold).
		Msg("Generated match candidates")

	return candidates, stats, nil
}

// group collapses records onto unique names, applies the analysis window and
// drops unmatchable and excluded names. Every exclusion is logged with the
// marker that caused it.
func (g *Generator) group(
	logger *zerolog.Logger,
	votes []conflicts.Beneficiary,
	contributions []conflicts.Contribution,
	stats *Stats,
) ([]beneficiaryGroup, []contributorGroup) {
	stats.Votes = len(votes)
	stats.Contributions = len(contributions)

	var bens []beneficiaryGroup
	benIndex := make(map[string]int)
	excludedBens := make(map[string]bool)
	for i, v := range votes {
		if !g.cfg.Window.Contains(v.VoteDate) {
			stats.OutsideWindow++
			continue
		}
		if idx, ok := benIndex[v.Name]; ok {
			bens[idx].records = append(bens[idx].records, i)
			continue
		}
		if excludedBens[v.Name] {
			continue
		}
		e := g.normalizer.Normalize(v.Name)
		if !e.Matchable() {
			excludedBens[v.Name] = true
			continue
		}
		if g.cfg.ExcludeGovernmentBeneficiaries && e.Classification.Excluded() {
			excludedBens[v.Name] = true
			stats.ExcludedBeneficiaries++
			logger.Debug().
				Str("beneficiary", v.Name).
				Stringer("class", e.Classification).
				Str("marker", g.reason(e)).
				Msg("Excluding beneficiary")
			continue
		}
		benIndex[v.Name] = len(bens)
		bens = append(bens, beneficiaryGroup{entity: e, records: []int{i}})
	}

	type conKey struct{ name, employer string }
	var cons []contributorGroup
	conIndex := make(map[conKey]int)
	excludedCons := make(map[conKey]bool)
	for i, c := range contributions {
		if !g.cfg.Window.Contains(c.Date) {
			stats.OutsideWindow++
			continue
		}
		key := conKey{c.Name, c.Employer}
		if idx, ok := conIndex[key]; ok {
			cons[idx].records = append(cons[idx].records, i)
			continue
		}
		if excludedCons[key] {
			continue
		}
		e := g.normalizer.Normalize(c.Name)
		emp := g.normalizer.Normalize(c.Employer)
		if !e.Matchable() {
			excludedCons[key] = true
			continue
		}
		if classify.Excluded(e, emp) {
			excludedCons[key] = true
			stats.ExcludedContributors++
			by, marker := "name", g.reason(e)
			if !e.Classification.Excluded() {
				by, marker = "employer", g.reason(emp)
			}
			logger.Debug().
				Str("contributor", c.Name).
				Str("employer", c.Employer).
				Str("excluded_by", by).
				Str("marker", marker).
				Msg("Excluding contributor")
			continue
		}
		conIndex[key] = len(cons)
		cons = append(cons, contributorGroup{entity: e, employer: emp, records: []int{i}})
	}

	stats.UniqueBeneficiaries = len(bens)
	stats.UniqueContributors = len(cons)
	return bens, cons
}

func (g *Generator) reason(e conflicts.NormalizedEntity) string {
	return g.normalizer.Classifier().Reason(e.CanonicalForm)
}
