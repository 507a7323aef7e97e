package analyze

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/agentstation/conflictmap"
	"github.com/agentstation/conflictmap/internal/cmd/application"
	"github.com/agentstation/conflictmap/internal/cmd/output"
	"github.com/agentstation/conflictmap/internal/ingest"
	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/internal/report"
	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/internal/verdictcache"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/logging"
)

// Run executes an analysis with the given flags and writes the result to w.
// thresholdSet reports whether --threshold was given explicitly; otherwise
// the pipeline configuration's threshold is kept.
func Run(ctx context.Context, app application.Application, flags *Flags, thresholdSet bool, w io.Writer) error {
	logger := app.Logger()
	ctx = logging.WithLogger(ctx, logger)

	format := output.DetectFormat(app.OutputFormat())

	cfg := config.Default()
	if flags.PipelineConfig != "" {
		loaded, err := config.Load(flags.PipelineConfig)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	votes, err := ingest.LoadVotes(ctx, flags.Minutes)
	if err != nil {
		return err
	}
	contributions, err := ingest.LoadContributions(ctx, flags.CampaignFinance)
	if err != nil {
		return err
	}
	logSummaries(ctx, votes, contributions)

	opts := []conflictmap.Option{conflictmap.WithConfig(cfg)}
	if thresholdSet {
		opts = append(opts, conflictmap.WithThreshold(flags.Threshold))
	}
	if flags.Politician != "" {
		opts = append(opts, conflictmap.WithPolitician(flags.Politician))
	}

	if !flags.SkipValidation {
		reasoner, closeCache, err := buildReasoner(ctx, app, flags)
		if err != nil {
			return err
		}
		defer closeCache()
		if reasoner != nil {
			opts = append(opts, conflictmap.WithReasoner(reasoner))
		}
	}

	analyzer, err := app.Analyzer(opts...)
	if err != nil {
		return err
	}
	analyzer.OnStage(func(e conflictmap.StageEvent) {
		logger.Debug().
			Str("stage", e.Stage).
			Int("count", e.Count).
			Dur("duration", e.Duration).
			Msg("Stage complete")
	})
	if !analyzer.Validating() {
		logger.Warn().Msg("AI validation disabled; every candidate is reported unconfirmed")
	}

	result, err := analyzer.Analyze(ctx, votes, contributions)
	if err != nil {
		return err
	}

	if !flags.NoReports {
		files, err := report.WriteAll(flags.OutputDir, result)
		if err != nil {
			return err
		}
		logger.Info().
			Str("summary", files.Summary).
			Str("detailed", files.Detailed).
			Str("csv", files.CSV).
			Msg("Reports written")
	}

	if format == output.FormatTable || format == "" {
		return report.WriteSummary(w, result)
	}
	return output.Write(w, format, output.ConflictsData(result.Conflicts), result)
}

// buildReasoner resolves the validation backend and, when --cache-db is set,
// wraps it in the SQLite verdict cache. The returned func closes the cache.
func buildReasoner(ctx context.Context, app application.Application, flags *Flags) (validation.Reasoner, func(), error) {
	noop := func() {}

	reasoner, err := app.Reasoner(ctx, llm.Options{
		Provider: flags.Provider,
		Model:    flags.Model,
		BaseURL:  flags.BaseURL,
	})
	if err != nil {
		return nil, noop, err
	}
	if reasoner == nil || flags.CacheDB == "" {
		return reasoner, noop, nil
	}

	store, err := verdictcache.Open(flags.CacheDB)
	if err != nil {
		return nil, noop, err
	}
	closeStore := func() {
		if err := store.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: closing verdict cache: %v\n", err)
		}
	}
	return verdictcache.Wrap(reasoner, store).WithLogger(app.Logger()), closeStore, nil
}

func logSummaries(ctx context.Context, votes []conflicts.Beneficiary, contributions []conflicts.Contribution) {
	logger := logging.FromContext(ctx)

	vs := ingest.SummarizeVotes(votes)
	logger.Info().
		Int("records", vs.Records).
		Int("beneficiaries", vs.UniqueBeneficiaries).
		Int("items", vs.UniqueItems).
		Time("first", vs.First).
		Time("last", vs.Last).
		Msg("Vote data summary")

	cs := ingest.SummarizeContributions(contributions)
	logger.Info().
		Int("records", cs.Records).
		Int("contributors", cs.UniqueContributors).
		Str("total", cs.Total.String()).
		Str("average", cs.Average.String()).
		Msg("Contribution data summary")
}
