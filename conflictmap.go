// Package conflictmap flags potential conflicts of interest by matching the
// beneficiaries named in legislative vote records against the contributors
// named in campaign-finance records.
//
// An Analyzer runs the pipeline end to end:
//
//	normalize -> classify -> generate candidates -> consolidate -> validate
//
// Configuration is an immutable config.Config value passed in at
// construction, so several Analyzers with different settings can run side
// by side in one process.
//
// Example:
//
//	a, err := conflictmap.New(
//	    conflictmap.WithThreshold(80),
//	    conflictmap.WithReasoner(reasoner),
//	)
//	if err != nil {
//	    return err
//	}
//	result, err := a.Analyze(ctx, votes, contributions)
package conflictmap

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agentstation/conflictmap/internal/candidates"
	"github.com/agentstation/conflictmap/internal/consolidate"
	"github.com/agentstation/conflictmap/internal/normalize"
	"github.com/agentstation/conflictmap/internal/similarity"
	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/logging"
)

// Analyzer runs conflict analyses with one configuration.
type Analyzer struct {
	cfg            config.Config
	scorer         *similarity.Scorer
	reasoner       validation.Reasoner
	skipValidation bool
	logger         *zerolog.Logger
	now            func() time.Time
	politician     string

	*hooks
}

// New creates an Analyzer. The configuration is validated here, so a bad
// threshold or weight set fails before any data is read.
func New(opts ...Option) (*Analyzer, error) {
	a := &Analyzer{
		cfg:   config.Default(),
		now:   time.Now,
		hooks: newHooks(),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, err
	}
	a.scorer = similarity.New(a.cfg)
	return a, nil
}

// Config returns a copy of the Analyzer's configuration.
func (a *Analyzer) Config() config.Config {
	return a.cfg.Clone()
}

// Validating reports whether Analyze will call a reasoner.
func (a *Analyzer) Validating() bool {
	return a.reasoner != nil && !a.skipValidation
}

// Analyze runs the full pipeline. Only configuration problems and
// cancellation during candidate generation return an error; validation
// failures leave records in the result marked unvalidated.
func (a *Analyzer) Analyze(
	ctx context.Context,
	votes []conflicts.Beneficiary,
	contributions []conflicts.Contribution,
) (conflicts.Result, error) {
	start := a.now()
	runID := uuid.NewString()

	if a.logger != nil {
		ctx = logging.WithLogger(ctx, a.logger)
	}
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	// A fresh normalizer per run keeps the memo table and warning count run-scoped.
	normalizer, err := normalize.New(a.cfg)
	if err != nil {
		return conflicts.Result{}, err
	}

	logger.Info().
		Int("votes", len(votes)).
		Int("contributions", len(contributions)).
		Float64("threshold", a.cfg.Threshold).
		Msg("Starting conflict analysis")

	stageStart := time.Now()
	gen := candidates.New(a.cfg, normalizer, a.scorer)
	cands, cstats, err := gen.Generate(logging.WithStage(ctx, StageCandidates), votes, contributions, a.cfg.Threshold)
	if err != nil {
		return conflicts.Result{}, fmt.Errorf("generating candidates: %w", err)
	}
	a.triggerStage(StageEvent{RunID: runID, Stage: StageCandidates, Count: len(cands), Duration: time.Since(stageStart)})

	stageStart = time.Now()
	records := consolidate.Consolidate(cands)
	a.triggerStage(StageEvent{RunID: runID, Stage: StageConsolidate, Count: len(records), Duration: time.Since(stageStart)})

	stageStart = time.Now()
	var (
		final  []conflicts.ConflictRecord
		vstats validation.Stats
	)
	if a.Validating() {
		v := validation.New(a.reasoner, a.cfg.AI)
		final, vstats = v.Validate(logging.WithStage(ctx, StageValidate), records)
	} else {
		final, vstats = validation.Skip(records)
		logger.Info().Int("records", len(records)).Msg("Validation skipped")
	}
	a.triggerStage(StageEvent{RunID: runID, Stage: StageValidate, Count: len(final), Duration: time.Since(stageStart)})

	result := conflicts.Result{
		Conflicts: final,
		Metadata: conflicts.RunMetadata{
			RunID:                           runID,
			Politician:                      a.politicianFor(votes),
			ThresholdUsed:                   a.cfg.Threshold,
			TotalCandidatesBeforeValidation: len(records),
			TotalCandidatesAfterValidation:  len(final),
			RejectedCount:                   vstats.Rejected,
			UnvalidatedCount:                vstats.Unvalidated,
			NormalizationWarnings:           normalizer.Warnings(),
			ExcludedEntities:                cstats.Excluded(),
			PairsScored:                     cstats.PairsScored,
			ConfidenceDistribution:          vstats.Distribution(),
			RunTimestamp:                    start,
			Duration:                        a.now().Sub(start),
		},
		Warnings: normalizer.Issues(),
	}
	a.triggerConflicts(final)

	for _, w := range result.Warnings {
		logger.Debug().Err(w).Msg("Name normalized with warnings")
	}

	logger.Info().
		Int("conflicts", len(final)).
		Int("rejected", vstats.Rejected).
		Int("unvalidated", vstats.Unvalidated).
		Int("normalization_warnings", len(result.Warnings)).
		Str("total", result.TotalContributionAmount().String()).
		Dur("duration", result.Metadata.Duration).
		Msg("Conflict analysis complete")

	return result, nil
}

// Score compares a beneficiary name with a contributor name and optional
// employer exactly as candidate generation would at the configured threshold.
func (a *Analyzer) Score(beneficiary, contributor, employer string) (conflicts.SimilarityBreakdown, error) {
	n, err := normalize.New(a.cfg)
	if err != nil {
		return conflicts.SimilarityBreakdown{}, err
	}
	return a.scorer.Match(n.Normalize(beneficiary), n.Normalize(contributor), n.Normalize(employer), a.cfg.Threshold), nil
}

func (a *Analyzer) politicianFor(votes []conflicts.Beneficiary) string {
	if a.politician != "" {
		return a.politician
	}
	for _, v := range votes {
		if v.Politician != "" && v.Politician != constants.DefaultPolitician {
			return v.Politician
		}
	}
	return constants.DefaultPolitician
}
