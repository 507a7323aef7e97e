// Package validation filters consolidated conflicts through an external
// reasoner that decides whether both names refer to the same party.
//
// The stage is a pure filter. A record is dropped when its verdict says the
// names are different parties, kept with the verdict attached otherwise, and
// kept unvalidated when no verdict could be obtained. Amounts and vote lists
// are never touched.
package validation

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
	"github.com/agentstation/conflictmap/pkg/logging"
)

// Validator runs records through a Reasoner in bounded batches.
type Validator struct {
	reasoner Reasoner
	cfg      config.AI
	logger   *zerolog.Logger
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger used for retries and verdicts.
func WithLogger(l *zerolog.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// New returns a Validator using r and the AI settings of cfg.
func New(r Reasoner, cfg config.AI, opts ...Option) *Validator {
	v := &Validator{reasoner: r, cfg: cfg}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type outcome struct {
	verdict conflicts.Verdict
	err     error
	judged  bool
}

// Validate judges every record and returns the survivors in input order.
// Cancelling ctx stops new calls; calls already in flight finish or time out
// on their own, and records that were never judged are kept as unvalidated.
func (v *Validator) Validate(ctx context.Context, records []conflicts.ConflictRecord) ([]conflicts.ConflictRecord, Stats) {
	logger := v.log(ctx)
	results := make([]outcome, len(records))

	batch := max(1, v.cfg.BatchSize)
	for start := 0; start < len(records); start += batch {
		if ctx.Err() != nil {
			break
		}
		end := min(start+batch, len(records))

		var eg errgroup.Group
		eg.SetLimit(max(1, v.cfg.Concurrency))
		for i := start; i < end; i++ {
			eg.Go(func() error {
				if ctx.Err() != nil {
					return nil
				}
				verdict, err := v.ValidateOne(ctx, records[i])
				results[i] = outcome{verdict: verdict, err: err, judged: true}
				return nil
			})
		}
		_ = eg.Wait()

		logger.Debug().Int("from", start).Int("to", end).Msg("Validated batch")
	}

	stats := Stats{Total: len(records), ConfidenceDistribution: make(map[conflicts.Confidence]int)}
	out := make([]conflicts.ConflictRecord, 0, len(records))
	for i, r := range records {
		rec := r.Clone()
		res := results[i]
		switch {
		case !res.judged:
			rec.Status = conflicts.StatusUnvalidated
			rec.Validation = nil
			rec.ValidationError = errors.NewValidationAPIError(r.BeneficiaryName, r.ContributorName, 0,
				errors.ErrCanceled).Error()
			stats.Unvalidated++
		case res.err != nil:
			rec.Status = conflicts.StatusUnvalidated
			rec.Validation = nil
			rec.ValidationError = res.err.Error()
			stats.Unvalidated++
		case !res.verdict.SameEntity:
			stats.Rejected++
			stats.ConfidenceDistribution[res.verdict.Confidence]++
			logger.Debug().
				Str("beneficiary", r.BeneficiaryName).
				Str("contributor", r.ContributorName).
				Str("reason", res.verdict.Reason).
				Msg("Rejected conflict")
			continue
		default:
			verdict := res.verdict
			rec.Validation = &verdict
			rec.Status = conflicts.StatusConfirmed
			rec.ValidationError = ""
			stats.Confirmed++
			stats.ConfidenceDistribution[verdict.Confidence]++
		}
		out = append(out, rec)
	}

	logger.Info().
		Str("reasoner", v.reasoner.Name()).
		Int("total", stats.Total).
		Int("confirmed", stats.Confirmed).
		Int("rejected", stats.Rejected).
		Int("unvalidated", stats.Unvalidated).
		Float64("rate", stats.Rate()).
		Msg("Validation complete")

	return out, stats
}

// ValidateOne obtains a verdict for a single record. Transient failures are
// retried with exponential backoff up to the retry limit; authentication
// failures and cancellation are not. Each attempt runs under its own timeout
// and is not interrupted by cancellation of ctx.
func (v *Validator) ValidateOne(ctx context.Context, r conflicts.ConflictRecord) (conflicts.Verdict, error) {
	logger := v.log(ctx)
	req := NewRequest(r)
	attempts := 0

	op := func() (conflicts.Verdict, error) {
		if err := ctx.Err(); err != nil {
			return conflicts.Verdict{}, backoff.Permanent(errors.ErrCanceled)
		}
		attempts++
		verdict, err := v.judge(ctx, req)
		if err != nil && errors.IsAPIKeyError(err) {
			return verdict, backoff.Permanent(err)
		}
		return verdict, err
	}
	notify := func(err error, wait time.Duration) {
		logger.Warn().
			Err(err).
			Int("attempt", attempts).
			Dur("retry_in", wait).
			Str("beneficiary", r.BeneficiaryName).
			Str("contributor", r.ContributorName).
			Msg("Validation attempt failed")
	}

	verdict, err := backoff.RetryNotifyWithData(op, v.backOff(ctx), notify)
	if err != nil {
		if ctx.Err() != nil && attempts == 0 {
			err = errors.ErrCanceled
		}
		return conflicts.Verdict{}, errors.NewValidationAPIError(r.BeneficiaryName, r.ContributorName, attempts, err)
	}
	return verdict, nil
}

// judge runs one reasoner call under the per-call timeout. The call context
// keeps ctx's values but not its cancellation.
func (v *Validator) judge(ctx context.Context, req Request) (conflicts.Verdict, error) {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), v.cfg.Timeout)
	defer cancel()

	type reply struct {
		verdict conflicts.Verdict
		err     error
	}
	done := make(chan reply, 1)
	go func() {
		verdict, err := v.reasoner.Judge(callCtx, req)
		done <- reply{verdict, err}
	}()

	select {
	case r := <-done:
		if r.err != nil && callCtx.Err() != nil {
			return conflicts.Verdict{}, errors.NewTimeoutError("validate", v.cfg.Timeout.String(), r.err.Error())
		}
		return r.verdict, r.err
	case <-callCtx.Done():
		return conflicts.Verdict{}, errors.NewTimeoutError("validate", v.cfg.Timeout.String(), "reasoner did not answer")
	}
}

func (v *Validator) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	if v.cfg.BackoffInitial > 0 {
		eb.InitialInterval = v.cfg.BackoffInitial
	}
	if v.cfg.BackoffMax > 0 {
		eb.MaxInterval = v.cfg.BackoffMax
	}
	eb.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(eb, uint64(max(0, v.cfg.RetryLimit))), ctx)
}

func (v *Validator) log(ctx context.Context) *zerolog.Logger {
	if v.logger != nil {
		return v.logger
	}
	return logging.FromContext(ctx)
}

// Skip marks every record as skipped without calling a reasoner.
func Skip(records []conflicts.ConflictRecord) ([]conflicts.ConflictRecord, Stats) {
	out := make([]conflicts.ConflictRecord, len(records))
	for i, r := range records {
		out[i] = r.Clone()
		out[i].Status = conflicts.StatusSkipped
	}
	return out, Stats{Total: len(records), Skipped: len(records)}
}
