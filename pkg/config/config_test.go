package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := config.Default()
	require.NoError(t, cfg.Validate())

	assert.InDelta(t, 85.0, cfg.Threshold, 1e-9)
	assert.InDelta(t, 1.0, cfg.Weights.Sum(), 1e-9)
	assert.True(t, cfg.ExcludeGovernmentBeneficiaries)
	assert.Contains(t, cfg.Markers.Government, "city of")
	assert.Equal(t, "service employees international union", cfg.Markers.UnionAliases["seiu"])
	assert.Equal(t, config.FullIndel, cfg.FullAlgorithm)
	assert.True(t, cfg.MatchEmployers)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*config.Config)
		component string
	}{
		{name: "threshold below zero", mutate: func(c *config.Config) { c.Threshold = -1 }, component: "threshold"},
		{name: "threshold above 100", mutate: func(c *config.Config) { c.Threshold = 100.5 }, component: "threshold"},
		{name: "weights do not sum to one", mutate: func(c *config.Config) { c.Weights.TokenSet = 0.2 }, component: "weights"},
		{name: "negative weight", mutate: func(c *config.Config) {
			c.Weights = config.Weights{Full: 1.2, Substring: -0.2}
		}, component: "weights"},
		{name: "zero batch", mutate: func(c *config.Config) { c.AI.BatchSize = 0 }, component: "ai.batch_size"},
		{name: "zero concurrency", mutate: func(c *config.Config) { c.AI.Concurrency = 0 }, component: "ai.concurrency"},
		{name: "zero timeout", mutate: func(c *config.Config) { c.AI.Timeout = 0 }, component: "ai.timeout"},
		{name: "unknown full algorithm", mutate: func(c *config.Config) { c.FullAlgorithm = "jaro" }, component: "full_algorithm"},
		{name: "empty full algorithm", mutate: func(c *config.Config) { c.FullAlgorithm = "" }, component: "full_algorithm"},
		{name: "inverted window", mutate: func(c *config.Config) {
			c.Window = config.Window{
				Start: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			}
		}, component: "window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsConfigError(err))

			var ce *errors.ConfigError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.component, ce.Component)
		})
	}
}

func TestThresholdBoundsAreInclusive(t *testing.T) {
	assert.NoError(t, config.Default().WithThreshold(0).Validate())
	assert.NoError(t, config.Default().WithThreshold(100).Validate())
}

func TestWithThresholdDoesNotMutate(t *testing.T) {
	base := config.Default()
	changed := base.WithThreshold(60)

	assert.InDelta(t, 85.0, base.Threshold, 1e-9)
	assert.InDelta(t, 60.0, changed.Threshold, 1e-9)

	changed.Markers.Government[0] = "mutated"
	assert.Equal(t, "city of", base.Markers.Government[0])
}

func TestParse(t *testing.T) {
	t.Run("overrides layer over defaults", func(t *testing.T) {
		cfg, err := config.Parse([]byte(`
threshold: 75
weights:
  full: 0.5
  substring: 0.3
  token_sort: 0.1
  token_set: 0.1
ai:
  batch_size: 5
  concurrency: 2
  retry_limit: 1
  timeout: 10s
`))
		require.NoError(t, err)
		assert.InDelta(t, 75.0, cfg.Threshold, 1e-9)
		assert.InDelta(t, 0.5, cfg.Weights.Full, 1e-9)
		assert.Equal(t, 5, cfg.AI.BatchSize)
		assert.Equal(t, 10*time.Second, cfg.AI.Timeout)
		assert.InDelta(t, 10.0, cfg.EmployerBonusMax, 1e-9, "unset fields keep defaults")
		assert.NotEmpty(t, cfg.Markers.BusinessSuffixes)
	})

	t.Run("matching options", func(t *testing.T) {
		cfg, err := config.Parse([]byte("full_algorithm: wratio\nmatch_employers: false\n"))
		require.NoError(t, err)
		assert.Equal(t, config.FullWRatio, cfg.FullAlgorithm)
		assert.False(t, cfg.MatchEmployers)

		_, err = config.Parse([]byte("full_algorithm: cosine\n"))
		assert.True(t, errors.IsConfigError(err))
	})

	t.Run("invalid values are rejected", func(t *testing.T) {
		_, err := config.Parse([]byte("threshold: 150\n"))
		assert.True(t, errors.IsConfigError(err))
	})

	t.Run("malformed yaml", func(t *testing.T) {
		_, err := config.Parse([]byte("threshold: [unclosed\n"))
		var pe *errors.ParseError
		assert.True(t, errors.As(err, &pe))
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pipeline.yaml")
	require.NoError(t, os.WriteFile(path, []byte("threshold: 90\nworkers: 3\n"), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.InDelta(t, 90.0, cfg.Threshold, 1e-9)
	assert.Equal(t, 3, cfg.WorkerCount())

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	var ioErr *errors.IOError
	assert.True(t, errors.As(err, &ioErr))
}

func TestWindowContains(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }

	open := config.Window{}
	assert.True(t, open.Contains(day(1)))

	w := config.Window{Start: day(5), End: day(10)}
	assert.False(t, w.Contains(day(4)))
	assert.True(t, w.Contains(day(5)))
	assert.True(t, w.Contains(day(10)))
	assert.False(t, w.Contains(day(11)))
}
