package similarity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/internal/normalize"
	"github.com/agentstation/conflictmap/internal/similarity"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
)

func setup(t *testing.T) (*normalize.Normalizer, *similarity.Scorer) {
	t.Helper()
	cfg := config.Default()
	n, err := normalize.New(cfg)
	require.NoError(t, err)
	return n, similarity.New(cfg)
}

func TestRatio(t *testing.T) {
	assert.Equal(t, 100.0, similarity.Ratio("abc", "abc"))
	assert.Equal(t, 100.0, similarity.Ratio("", ""))
	assert.Equal(t, 0.0, similarity.Ratio("abc", ""))
	assert.InDelta(t, 66.667, similarity.Ratio("abc", "abd"), 0.01)
	assert.InDelta(t, 61.538, similarity.Ratio("kitten", "sitting"), 0.01)
	assert.Equal(t, similarity.Ratio("kitten", "sitting"), similarity.Ratio("sitting", "kitten"))
}

func TestPartialRatioBothDirections(t *testing.T) {
	assert.Equal(t, 100.0, similarity.PartialRatio("jones", "bob jones of xyz"))
	assert.Equal(t, 100.0, similarity.PartialRatio("bob jones of xyz", "jones"))
	assert.Equal(t, 0.0, similarity.PartialRatio("", "jones"))
}

func TestTokenRatios(t *testing.T) {
	assert.Equal(t, 100.0, similarity.TokenSortRatio([]string{"john", "jones"}, []string{"jones", "john"}))
	assert.Equal(t, 100.0, similarity.TokenSetRatio(
		[]string{"abc", "services"}, []string{"abc", "services", "group"}))
	assert.Equal(t, 0.0, similarity.TokenSetRatio(nil, []string{"abc"}))
	assert.Less(t, similarity.TokenSetRatio([]string{"alpha", "beta"}, []string{"gamma", "delta"}), 50.0)
}

func TestEditRatio(t *testing.T) {
	assert.Equal(t, 100.0, similarity.EditRatio("acme", "acme"))
	assert.InDelta(t, 57.14, similarity.EditRatio("kitten", "sitting"), 0.01)
	assert.Equal(t, 0.0, similarity.EditRatio("", "acme"))
}

func TestScoreEmptyIsZero(t *testing.T) {
	n, s := setup(t)

	for _, pair := range [][2]string{{"", "ABC Services"}, {"ABC Services", "   "}, {"???", "???"}} {
		bd := s.Score(n.Normalize(pair[0]), n.Normalize(pair[1]))
		assert.Zero(t, bd.WeightedComposite, pair)
		assert.Len(t, bd.AlgorithmScores, 5)
	}
}

func TestScoreSymmetric(t *testing.T) {
	n, s := setup(t)

	pairs := [][2]string{
		{"Riverside County Black Chamber", "Greater Riverside Chamber"},
		{"ABC Services Inc.", "ABC Services"},
		{"Bob Jones of XYZ Enterprises", "Jones John"},
		{"Acme Holdings dba Roadrunner", "Roadrunner Supply"},
	}
	for _, p := range pairs {
		a, b := n.Normalize(p[0]), n.Normalize(p[1])
		assert.InDelta(t, s.Score(a, b).WeightedComposite, s.Score(b, a).WeightedComposite, 1e-9, p)
	}
}

func TestScoreScenarios(t *testing.T) {
	n, s := setup(t)

	t.Run("suffix variants match", func(t *testing.T) {
		bd := s.Score(n.Normalize("ABC Services Inc."), n.Normalize("ABC Services"))
		assert.Equal(t, 100.0, bd.WeightedComposite)
	})

	t.Run("shared words are not enough", func(t *testing.T) {
		bd := s.Score(n.Normalize("Riverside County Black Chamber"), n.Normalize("Greater Riverside Chamber"))
		assert.InDelta(t, 61.04, bd.WeightedComposite, 0.05)
		assert.Less(t, bd.WeightedComposite, 85.0)
	})

	t.Run("person form dominates", func(t *testing.T) {
		ben := n.Normalize("Bob Jones of XYZ Enterprises")
		con := n.Normalize("Jones John")
		emp := n.Normalize("XYZ Enterprises")

		bd := s.ScoreWithEmployer(ben, con, emp)
		assert.Equal(t, conflicts.FormPerson, bd.BeneficiaryForm.Kind)
		assert.Equal(t, "bob jones", bd.BeneficiaryForm.Text)
		assert.InDelta(t, 59.82, bd.NameComposite, 0.05)
		assert.Equal(t, 100.0, bd.EmployerScore)
		assert.Equal(t, 10.0, bd.EmployerBonus)
		assert.InDelta(t, 69.82, bd.WeightedComposite, 0.05)
	})
}

func TestEmployerBonus(t *testing.T) {
	n, s := setup(t)
	ben := n.Normalize("Athens Services")
	con := n.Normalize("Jane Doe")

	t.Run("below employer threshold", func(t *testing.T) {
		bd := s.ScoreWithEmployer(ben, con, n.Normalize("Velocity Offices"))
		assert.Zero(t, bd.EmployerBonus)
		assert.Equal(t, bd.NameComposite, bd.WeightedComposite)
	})

	t.Run("no employer", func(t *testing.T) {
		bd := s.ScoreWithEmployer(ben, con, n.Normalize(""))
		assert.Zero(t, bd.EmployerScore)
		assert.Zero(t, bd.EmployerBonus)
	})

	t.Run("capped at 100", func(t *testing.T) {
		bd := s.ScoreWithEmployer(ben, n.Normalize("Athens Services Inc"), n.Normalize("Athens Services"))
		assert.Equal(t, 10.0, bd.EmployerBonus)
		assert.Equal(t, 100.0, bd.WeightedComposite)
	})

	t.Run("employer alone does not score an empty contributor", func(t *testing.T) {
		bd := s.ScoreWithEmployer(ben, n.Normalize(""), n.Normalize("Athens Services"))
		assert.Zero(t, bd.WeightedComposite)
	})
}

func TestCustomWeights(t *testing.T) {
	cfg := config.Default()
	cfg.Weights = config.Weights{Edit: 1}
	require.NoError(t, cfg.Validate())

	n, err := normalize.New(cfg)
	require.NoError(t, err)
	s := similarity.New(cfg)

	bd := s.Score(n.Normalize("kitten"), n.Normalize("sitting"))
	assert.InDelta(t, 57.14, bd.WeightedComposite, 0.01)
	assert.Equal(t, cfg.Weights, s.Weights())
}

func TestUpperBoundNeverBelowScore(t *testing.T) {
	n, s := setup(t)

	names := []string{
		"ABC Services Inc.",
		"ABC Services",
		"Riverside County Black Chamber",
		"Greater Riverside Chamber",
		"Bob Jones of XYZ Enterprises",
		"Jones John",
		"SEIU Local 721",
		"Service Employees International Union Local 721",
		"Acme Holdings dba Roadrunner Supply",
		"Roadrunner",
		"A",
		"Athens Services",
	}
	employer := n.Normalize("XYZ Enterprises")

	none := n.Normalize("")
	wr := wratioScorer(t)

	for _, a := range names {
		for _, b := range names {
			ea, eb := n.Normalize(a), n.Normalize(b)
			msg := a + " / " + b
			assert.GreaterOrEqual(t, s.UpperBound(ea, eb, none)+1e-9, s.Score(ea, eb).WeightedComposite, msg)
			assert.GreaterOrEqual(t, s.UpperBound(ea, eb, employer)+1e-9,
				s.ScoreWithEmployer(ea, eb, employer).WeightedComposite, msg)
			assert.GreaterOrEqual(t, s.UpperBound(ea, eb, employer)+1e-9,
				s.Match(ea, eb, employer, 100).WeightedComposite, msg)
			assert.GreaterOrEqual(t, wr.UpperBound(ea, eb, employer)+1e-9,
				wr.Match(ea, eb, employer, 100).WeightedComposite, msg)
		}
	}

	// very different lengths are provably far apart
	assert.Less(t, s.UpperBound(n.Normalize("A"), n.Normalize("Service Employees International Union Local 721"), none), 85.0)
}

func wratioScorer(t *testing.T) *similarity.Scorer {
	t.Helper()
	cfg := config.Default()
	cfg.FullAlgorithm = config.FullWRatio
	require.NoError(t, cfg.Validate())
	return similarity.New(cfg)
}

func TestMatch(t *testing.T) {
	n, s := setup(t)
	ben := n.Normalize("Bob Jones of XYZ Enterprises")
	con := n.Normalize("Jones John")
	emp := n.Normalize("XYZ Enterprises")

	t.Run("name side wins when it meets threshold", func(t *testing.T) {
		bd := s.Match(ben, con, emp, 65)
		assert.Equal(t, conflicts.MatchedName, bd.MatchedOn)
		assert.Equal(t, conflicts.FormPerson, bd.BeneficiaryForm.Kind)
		assert.InDelta(t, 69.82, bd.WeightedComposite, 0.05)
		assert.Equal(t, s.ScoreWithEmployer(ben, con, emp), bd)
	})

	t.Run("employer entity wins below threshold", func(t *testing.T) {
		bd := s.Match(ben, con, emp, 85)
		assert.Equal(t, conflicts.MatchedEmployer, bd.MatchedOn)
		assert.Equal(t, conflicts.FormOrganization, bd.BeneficiaryForm.Kind)
		assert.Equal(t, "xyz enterprises", bd.ContributorForm.Text)
		assert.Equal(t, 100.0, bd.WeightedComposite)
		assert.Equal(t, 100.0, bd.EmployerScore)
		assert.Zero(t, bd.EmployerBonus)
		assert.InDelta(t, 59.82, bd.NameComposite, 0.05)
	})

	t.Run("unrelated employer keeps the name score", func(t *testing.T) {
		bd := s.Match(ben, con, n.Normalize("Velocity Offices"), 85)
		assert.Equal(t, conflicts.MatchedName, bd.MatchedOn)
		assert.Equal(t, bd.NameComposite, bd.WeightedComposite)
	})

	t.Run("empty contributor never matches on employer", func(t *testing.T) {
		bd := s.Match(ben, n.Normalize(""), emp, 85)
		assert.Zero(t, bd.WeightedComposite)
		assert.Equal(t, conflicts.MatchedName, bd.MatchedOn)
	})

	t.Run("disabled", func(t *testing.T) {
		cfg := config.Default()
		cfg.MatchEmployers = false
		off := similarity.New(cfg)

		bd := off.Match(ben, con, emp, 85)
		assert.Equal(t, conflicts.MatchedName, bd.MatchedOn)
		assert.InDelta(t, 69.82, bd.WeightedComposite, 0.05)
		assert.Less(t, off.UpperBound(n.Normalize("A"), n.Normalize("Service Employees International Union Local 721"), n.Normalize("A")), 85.0)
	})
}

func TestWRatio(t *testing.T) {
	assert.Equal(t, 100.0, similarity.WRatio("acme", "acme"))
	assert.Equal(t, 0.0, similarity.WRatio("", "acme"))
	assert.InDelta(t, 95.0, similarity.WRatio("john jones", "jones john"), 1e-9)
	assert.InDelta(t, 90.0, similarity.WRatio("jones", "bob jones of xyz enterprises"), 1e-9)
	assert.InDelta(t, 60.0, similarity.WRatio("ab", "ab cdefghijklmnop"), 1e-9)
	assert.Equal(t, similarity.WRatio("jones", "bob jones"), similarity.WRatio("bob jones", "jones"))
}

func TestPartialTokenRatio(t *testing.T) {
	assert.Equal(t, 100.0, similarity.PartialTokenRatio([]string{"bob", "jones"}, []string{"jones", "inc"}))
	assert.Equal(t, 100.0, similarity.PartialTokenRatio([]string{"abc"}, []string{"xabcx"}))
	assert.Equal(t, 0.0, similarity.PartialTokenRatio(nil, []string{"abc"}))
	assert.Equal(t, 0.0, similarity.PartialTokenRatio([]string{"abc"}, []string{"xyz"}))
}

func TestFullAlgorithm(t *testing.T) {
	_, indel := setup(t)
	wr := wratioScorer(t)
	a := conflicts.Form{Kind: conflicts.FormCanonical, Text: "john jones"}
	b := conflicts.Form{Kind: conflicts.FormCanonical, Text: "jones john"}

	assert.InDelta(t, 70.0, indel.Algorithms(a, b)[conflicts.AlgorithmFullRatio], 1e-9)
	assert.InDelta(t, 95.0, wr.Algorithms(a, b)[conflicts.AlgorithmFullRatio], 1e-9)
	assert.Equal(t, indel.Algorithms(a, b)[conflicts.AlgorithmSubstring], wr.Algorithms(a, b)[conflicts.AlgorithmSubstring])
}
