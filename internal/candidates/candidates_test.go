package candidates_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/internal/candidates"
	"github.com/agentstation/conflictmap/internal/normalize"
	"github.com/agentstation/conflictmap/internal/similarity"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
	"github.com/agentstation/conflictmap/pkg/logging"
)

func newGenerator(t *testing.T, cfg config.Config) *candidates.Generator {
	t.Helper()
	n, err := normalize.New(cfg)
	require.NoError(t, err)
	return candidates.New(cfg, n, similarity.New(cfg), candidates.WithLogger(logging.NewNopLogger()))
}

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 0, 0, 0, 0, time.UTC)
}

func vote(id int, name string) conflicts.Beneficiary {
	return conflicts.Beneficiary{ID: id, Name: name, VoteDate: day(1), Item: "item", Vote: conflicts.VoteAye}
}

func contribution(id int, name, employer string, cents conflicts.Cents) conflicts.Contribution {
	return conflicts.Contribution{ID: id, Name: name, Employer: employer, Amount: cents, Date: day(id%28 + 1)}
}

func fixture() ([]conflicts.Beneficiary, []conflicts.Contribution) {
	votes := []conflicts.Beneficiary{
		vote(1, "ABC Services Inc."),
		vote(2, "Riverside County Black Chamber"),
		vote(3, "Bob Jones of XYZ Enterprises"),
		vote(4, "Athens Services"),
		vote(5, "ABC Services Inc."),
	}
	contribs := []conflicts.Contribution{
		contribution(1, "ABC Services", "", 50000),
		contribution(2, "Greater Riverside Chamber", "", 10000),
		contribution(3, "Jones John", "XYZ Enterprises", 25000),
		contribution(4, "City of Springfield", "", 99900),
		contribution(5, "Athens Services", "", 20000),
		contribution(6, "Jane Doe", "University of California", 10000),
		contribution(7, "ABC Services", "", 1000),
	}
	return votes, contribs
}

func TestGenerateScenario(t *testing.T) {
	g := newGenerator(t, config.Default())
	votes, contribs := fixture()

	got, stats, err := g.Generate(context.Background(), votes, contribs, 85)
	require.NoError(t, err)

	// ABC: 2 votes x 2 contributions; Athens: 1 x 1; Jones John through
	// his employer XYZ Enterprises: 1 x 1
	require.Len(t, got, 6)
	for _, c := range got {
		assert.GreaterOrEqual(t, c.Score(), 85.0)
		assert.NotEqual(t, "Greater Riverside Chamber", c.Contribution.Name)
	}

	// equal scores fall back to vote order, then contribution order
	var order [][2]int
	for _, c := range got {
		order = append(order, [2]int{c.Vote.ID, c.Contribution.ID})
	}
	assert.Equal(t, [][2]int{{1, 1}, {1, 7}, {3, 3}, {4, 5}, {5, 1}, {5, 7}}, order)
	assert.Equal(t, conflicts.MatchedEmployer, got[2].Breakdown.MatchedOn)
	assert.Equal(t, conflicts.MatchedName, got[0].Breakdown.MatchedOn)

	assert.Equal(t, 2, stats.ExcludedContributors)
	assert.Equal(t, 4, stats.UniqueBeneficiaries)
	assert.Equal(t, 4, stats.UniqueContributors)
	assert.Equal(t, 3, stats.PairsRetained)
	assert.Equal(t, 16, stats.PairsScored+stats.PairsPrefiltered)
}

func TestGeneratePersonOfCompany(t *testing.T) {
	g := newGenerator(t, config.Default())
	votes, contribs := fixture()

	got, _, err := g.Generate(context.Background(), votes, contribs, 65)
	require.NoError(t, err)

	var found bool
	for _, c := range got {
		if c.Contribution.Name == "Jones John" {
			found = true
			assert.Equal(t, conflicts.FormPerson, c.Breakdown.BeneficiaryForm.Kind)
			assert.Equal(t, conflicts.MatchedName, c.Breakdown.MatchedOn)
			assert.Positive(t, c.Breakdown.EmployerBonus)
		}
	}
	assert.True(t, found)
}

func TestGenerateDBAWithGovernmentOperatingName(t *testing.T) {
	g := newGenerator(t, config.Default())
	votes := []conflicts.Beneficiary{vote(1, "Joe's Diner")}
	contribs := []conflicts.Contribution{contribution(1, "Joe's Diner dba City of Angels Cafe", "", 2500)}

	got, stats, err := g.Generate(context.Background(), votes, contribs, 85)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Zero(t, stats.Excluded())
	assert.Equal(t, 100.0, got[0].Score())
}

func TestGenerateEmployerEntity(t *testing.T) {
	votes := []conflicts.Beneficiary{vote(1, "Joe's Diner")}
	contribs := []conflicts.Contribution{contribution(1, "John Smith", "Joe's Diner", 2500)}

	t.Run("employer matches the beneficiary", func(t *testing.T) {
		got, _, err := newGenerator(t, config.Default()).Generate(context.Background(), votes, contribs, 85)
		require.NoError(t, err)
		require.Len(t, got, 1)

		bd := got[0].Breakdown
		assert.Equal(t, conflicts.MatchedEmployer, bd.MatchedOn)
		assert.Equal(t, "joes diner", bd.ContributorForm.Text)
		assert.Equal(t, 100.0, bd.WeightedComposite)
		assert.Zero(t, bd.EmployerBonus)
		assert.Less(t, bd.NameComposite, 85.0)
		assert.Equal(t, "john smith", got[0].Key().Contributor)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.MatchEmployers = false
		got, _, err := newGenerator(t, cfg).Generate(context.Background(), votes, contribs, 85)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestGenerateLogsExclusions(t *testing.T) {
	cfg := config.Default()
	n, err := normalize.New(cfg)
	require.NoError(t, err)
	tl := logging.NewTestLogger(t)
	g := candidates.New(cfg, n, similarity.New(cfg), candidates.WithLogger(tl.Logger))

	votes := []conflicts.Beneficiary{vote(1, "Riverside Community College"), vote(2, "Acme")}
	contribs := []conflicts.Contribution{
		contribution(1, "City of Springfield", "", 100),
		contribution(2, "Jane Doe", "University of California", 100),
	}
	_, stats, err := g.Generate(context.Background(), votes, contribs, 85)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Excluded())

	tl.AssertContains(t, `"beneficiary":"Riverside Community College"`)
	tl.AssertContains(t, `"marker":"college"`)
	tl.AssertContains(t, `"contributor":"City of Springfield"`)
	tl.AssertContains(t, `"marker":"city of"`)
	tl.AssertContains(t, `"excluded_by":"employer"`)
	tl.AssertContains(t, `"marker":"university"`)
	tl.AssertContains(t, "Excluding contributor")
	tl.AssertNotContains(t, `"beneficiary":"Acme"`)
}

func TestGenerateThresholdMonotonic(t *testing.T) {
	g := newGenerator(t, config.Default())
	votes, contribs := fixture()

	prev := -1
	for _, threshold := range []float64{0, 20, 40, 60, 65, 70, 85, 95, 100} {
		got, _, err := g.Generate(context.Background(), votes, contribs, threshold)
		require.NoError(t, err)
		if prev >= 0 {
			assert.LessOrEqual(t, len(got), prev, "threshold %.0f", threshold)
		}
		prev = len(got)
	}
}

func TestGenerateExcludesGovernmentContributors(t *testing.T) {
	g := newGenerator(t, config.Default())
	votes := []conflicts.Beneficiary{vote(1, "City of Springfield"), vote(2, "Springfield Parks Foundation")}
	contribs := []conflicts.Contribution{contribution(1, "City of Springfield", "", 100)}

	for _, threshold := range []float64{0, 50, 85, 100} {
		got, _, err := g.Generate(context.Background(), votes, contribs, threshold)
		require.NoError(t, err)
		assert.Empty(t, got)
	}
}

func TestGenerateGovernmentBeneficiaryOption(t *testing.T) {
	cfg := config.Default()
	votes := []conflicts.Beneficiary{vote(1, "County of Riverside")}
	contribs := []conflicts.Contribution{contribution(1, "Jane Doe", "County of Riverside Parks", 100)}

	got, stats, err := newGenerator(t, cfg).Generate(context.Background(), votes, contribs, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, stats.ExcludedBeneficiaries)

	cfg.ExcludeGovernmentBeneficiaries = false
	contribs = []conflicts.Contribution{contribution(1, "Riverside County", "", 100)}
	got, _, err = newGenerator(t, cfg).Generate(context.Background(), votes, contribs, 0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestGenerateWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Window = config.Window{Start: day(5), End: day(6)}
	votes := []conflicts.Beneficiary{{ID: 1, Name: "ABC Services", VoteDate: day(5)}}
	contribs := []conflicts.Contribution{
		{ID: 1, Name: "ABC Services", Amount: 100, Date: day(4)},
		{ID: 2, Name: "ABC Services", Amount: 100, Date: day(5)},
		{ID: 3, Name: "ABC Services", Amount: 100, Date: day(7)},
	}

	got, stats, err := newGenerator(t, cfg).Generate(context.Background(), votes, contribs, 85)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0].Contribution.ID)
	assert.Equal(t, 2, stats.OutsideWindow)
}

func TestGenerateInvalidThreshold(t *testing.T) {
	g := newGenerator(t, config.Default())

	for _, threshold := range []float64{-1, 100.5} {
		_, _, err := g.Generate(context.Background(), nil, nil, threshold)
		assert.True(t, errors.IsConfigError(err), "threshold %v", threshold)
	}
}

func TestGenerateCanceled(t *testing.T) {
	g := newGenerator(t, config.Default())
	votes, contribs := fixture()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := g.Generate(ctx, votes, contribs, 85)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateDeterministicAcrossWorkers(t *testing.T) {
	votes, contribs := fixture()

	var runs [][]conflicts.MatchCandidate
	for _, workers := range []int{1, 3, 8} {
		cfg := config.Default()
		cfg.Workers = workers
		got, _, err := newGenerator(t, cfg).Generate(context.Background(), votes, contribs, 40)
		require.NoError(t, err)
		runs = append(runs, got)
	}
	assert.Equal(t, runs[0], runs[1])
	assert.Equal(t, runs[0], runs[2])
}
