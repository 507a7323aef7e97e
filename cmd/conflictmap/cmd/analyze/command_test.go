package analyze

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/internal/cmd/application"
	"github.com/agentstation/conflictmap/internal/llm"
	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

const minutes = "Meeting Date,Item Description,Cervantes Vote,Vote Outcome,Beneficiary\n" +
	"2024-03-05,Approve janitorial contract,Aye,Passed,ABC Services Inc.\n" +
	"2024-03-12,Library grant,No,Failed,University of California\n"

const finance = "Contributor Name,Contributor Employer,Amount,Start Date,Transaction Type\n" +
	"ABC Services,,$500.00,2024-02-01,Monetary\n" +
	"ABC Services,,$10.00,2024-02-15,Monetary\n" +
	"City of Springfield,,\"$1,000.00\",2024-02-20,Monetary\n"

type confirming struct{ calls int }

func (c *confirming) Name() string { return "confirming" }

func (c *confirming) Judge(_ context.Context, _ validation.Request) (conflicts.Verdict, error) {
	c.calls++
	return conflicts.Verdict{SameEntity: true, Reason: "same company", Confidence: conflicts.ConfidenceHigh}, nil
}

func writeInputs(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	m := filepath.Join(dir, "minutes.csv")
	f := filepath.Join(dir, "finance.csv")
	require.NoError(t, os.WriteFile(m, []byte(minutes), 0o600))
	require.NoError(t, os.WriteFile(f, []byte(finance), 0o600))
	return m, f
}

func execute(t *testing.T, app application.Application, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	m, f := writeInputs(t)
	outDir := filepath.Join(t.TempDir(), "reports")
	reasoner := &confirming{}
	var gotOpts llm.Options
	app := &application.Mock{
		OutputFormatFunc: func() string { return "json" },
		ReasonerFunc: func(_ context.Context, opts llm.Options) (validation.Reasoner, error) {
			gotOpts = opts
			return reasoner, nil
		},
	}

	out, err := execute(t, app,
		"--minutes", m, "--campaign-finance", f,
		"--output-dir", outDir, "--provider", "openai", "--model", "gpt-test")
	require.NoError(t, err)

	assert.Equal(t, llm.Options{Provider: "openai", Model: "gpt-test"}, gotOpts)
	assert.Equal(t, 1, reasoner.calls)

	var result conflicts.Result
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	require.Len(t, result.Conflicts, 1)
	c := result.Conflicts[0]
	assert.Equal(t, "ABC Services Inc.", c.BeneficiaryName)
	assert.Equal(t, conflicts.Cents(51000), c.TotalContributionAmount)
	assert.Equal(t, conflicts.StatusConfirmed, c.Status)
	assert.Equal(t, "Cervantes", result.Metadata.Politician)

	for _, name := range []string{"cervantes_conflicts_summary.txt", "cervantes_conflicts_detailed.txt", "cervantes_conflicts.csv"} {
		assert.FileExists(t, filepath.Join(outDir, name))
	}
}

func TestAnalyzeCommandSkipValidation(t *testing.T) {
	m, f := writeInputs(t)
	outDir := t.TempDir()
	app := &application.Mock{
		ReasonerFunc: func(context.Context, llm.Options) (validation.Reasoner, error) {
			t.Fatal("reasoner must not be built when validation is skipped")
			return nil, nil
		},
	}

	out, err := execute(t, app,
		"--minutes", m, "--campaign-finance", f,
		"--output-dir", outDir, "--skip-validation", "--no-reports", "--politician", "Lee")
	require.NoError(t, err)

	assert.Contains(t, out, "ABC Services Inc.")
	assert.Contains(t, out, "not validated")
	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAnalyzeCommandCache(t *testing.T) {
	m, f := writeInputs(t)
	cache := filepath.Join(t.TempDir(), "verdicts.db")
	reasoner := &confirming{}
	app := &application.Mock{
		OutputFormatFunc: func() string { return "json" },
		ReasonerFunc: func(context.Context, llm.Options) (validation.Reasoner, error) {
			return reasoner, nil
		},
	}

	for range 2 {
		_, err := execute(t, app,
			"--minutes", m, "--campaign-finance", f,
			"--no-reports", "--cache-db", cache)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, reasoner.calls)
}

func TestAnalyzeCommandErrors(t *testing.T) {
	m, f := writeInputs(t)
	noReasoner := &application.Mock{
		ReasonerFunc: func(context.Context, llm.Options) (validation.Reasoner, error) { return nil, nil },
	}

	t.Run("missing required flag", func(t *testing.T) {
		_, err := execute(t, noReasoner, "--minutes", m)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := execute(t, noReasoner, "--minutes", filepath.Join(t.TempDir(), "nope.csv"), "--campaign-finance", f, "--no-reports")
		require.Error(t, err)
		var ioErr *errors.IOError
		assert.True(t, errors.As(err, &ioErr))
	})

	t.Run("bad threshold", func(t *testing.T) {
		_, err := execute(t, noReasoner, "--minutes", m, "--campaign-finance", f, "--no-reports", "--threshold", "150")
		assert.True(t, errors.IsConfigError(err))
	})

	t.Run("reasoner error", func(t *testing.T) {
		app := &application.Mock{
			ReasonerFunc: func(context.Context, llm.Options) (validation.Reasoner, error) {
				return nil, errors.NewAuthenticationError("anthropic", "api_key", "not set", errors.ErrAPIKeyRequired)
			},
		}
		_, err := execute(t, app, "--minutes", m, "--campaign-finance", f, "--no-reports")
		assert.ErrorIs(t, err, errors.ErrAPIKeyRequired)
	})
}
