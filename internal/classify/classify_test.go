package classify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/internal/classify"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

func TestClassify(t *testing.T) {
	c, err := classify.New(config.Default())
	require.NoError(t, err)

	tests := []struct {
		name string
		want conflicts.Classification
	}{
		{"city of springfield", conflicts.Government},
		{"county of riverside", conflicts.Government},
		{"springfield unified school district", conflicts.Government},
		{"university of california", conflicts.Academic},
		{"riverside community college", conflicts.Academic},
		{"service employees international union local 721", conflicts.Union},
		{"seiu local 721", conflicts.Union},
		{"ibew 47", conflicts.Union},
		{"athens services", conflicts.Ordinary},
		{"velocity offices", conflicts.Ordinary},
		{"", conflicts.Ordinary},
		// government wins over union when both markers are present
		{"city of la employees union", conflicts.Government},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.name))
		})
	}
}

func TestReason(t *testing.T) {
	c, err := classify.New(config.Default())
	require.NoError(t, err)

	assert.Equal(t, "city of", c.Reason("city of springfield"))
	assert.Equal(t, "university", c.Reason("stanford university"))
	assert.Empty(t, c.Reason("acme"))
}

func TestCustomMarkers(t *testing.T) {
	cfg := config.Default()
	cfg.Markers.Government = []string{"  Port   Authority "}
	cfg.Markers.Academic = nil

	c, err := classify.New(cfg)
	require.NoError(t, err)

	assert.Equal(t, conflicts.Government, c.Classify("harbor port authority"))
	assert.Equal(t, conflicts.Ordinary, c.Classify("state university"))
}

func TestInvalidMarker(t *testing.T) {
	cfg := config.Default()
	cfg.Markers.Union = []string{"(unclosed"}

	_, err := classify.New(cfg)
	assert.True(t, errors.IsConfigError(err))
}

func TestExcluded(t *testing.T) {
	ordinary := conflicts.NormalizedEntity{CanonicalForm: "jane doe"}
	gov := conflicts.NormalizedEntity{CanonicalForm: "city of springfield", Classification: conflicts.Government}
	acad := conflicts.NormalizedEntity{CanonicalForm: "ucla", Classification: conflicts.Academic}

	assert.False(t, classify.Excluded(ordinary, conflicts.NormalizedEntity{}))
	assert.True(t, classify.Excluded(gov, conflicts.NormalizedEntity{}))
	assert.True(t, classify.Excluded(ordinary, acad), "employer classification also excludes")
}
