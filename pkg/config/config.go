// Package config defines the immutable configuration value of a conflict
// analysis run. A Config is built once (from defaults, a YAML file, or
// both), validated, and passed by value into every pipeline component.
package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"slices"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Weights are the per-algorithm weights of the composite name score.
type Weights struct {
	Full      float64 `yaml:"full" json:"full"`
	Substring float64 `yaml:"substring" json:"substring"`
	TokenSort float64 `yaml:"token_sort" json:"token_sort"`
	TokenSet  float64 `yaml:"token_set" json:"token_set"`

	// Edit weights the Levenshtein similarity. It defaults to zero, so the
	// edit score is reported but does not move the composite.
	Edit float64 `yaml:"edit" json:"edit"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Full + w.Substring + w.TokenSort + w.TokenSet + w.Edit
}

// Full-string algorithms selectable with Config.FullAlgorithm.
const (
	// FullIndel scores the whole strings with the plain Indel ratio.
	FullIndel = "indel"
	// FullWRatio scores the whole strings with the weighted ratio, which mixes
	// in scaled token and substring comparisons.
	FullWRatio = "wratio"
)

// Markers are the closed vocabularies used by normalization and classification.
type Markers struct {
	Government           []string          `yaml:"government" json:"government"`
	Academic             []string          `yaml:"academic" json:"academic"`
	Union                []string          `yaml:"union" json:"union"`
	UnionNoise           []string          `yaml:"union_noise" json:"union_noise"`
	UnionAliases         map[string]string `yaml:"union_aliases" json:"union_aliases"`
	BusinessSuffixes     []string          `yaml:"business_suffixes" json:"business_suffixes"`
	DBA                  []string          `yaml:"dba" json:"dba"`
	PersonPrepositions   []string          `yaml:"person_prepositions" json:"person_prepositions"`
	OrganizationKeywords []string          `yaml:"organization_keywords" json:"organization_keywords"`
}

// Window restricts an analysis to contributions and votes inside a date range.
// A zero bound is open.
type Window struct {
	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// Contains reports whether t falls inside the window (inclusive).
func (w Window) Contains(t time.Time) bool {
	if !w.Start.IsZero() && t.Before(w.Start) {
		return false
	}
	if !w.End.IsZero() && t.After(w.End) {
		return false
	}
	return true
}

// AI configures the validation stage.
type AI struct {
	BatchSize      int           `yaml:"batch_size" json:"batch_size"`
	Concurrency    int           `yaml:"concurrency" json:"concurrency"`
	RetryLimit     int           `yaml:"retry_limit" json:"retry_limit"`
	Timeout        time.Duration `yaml:"timeout" json:"timeout"`
	BackoffInitial time.Duration `yaml:"backoff_initial" json:"backoff_initial"`
	BackoffMax     time.Duration `yaml:"backoff_max" json:"backoff_max"`
}

// Config is the full configuration surface of a run.
type Config struct {
	// Threshold is the minimum weighted composite (0-100) for a pair to be retained.
	Threshold float64 `yaml:"threshold" json:"threshold"`

	Weights Weights `yaml:"weights" json:"weights"`

	// EmployerBonusMax is the most an employer match adds to a composite.
	EmployerBonusMax float64 `yaml:"employer_bonus_max" json:"employer_bonus_max"`

	// EmployerThreshold is the employer similarity below which no bonus applies.
	EmployerThreshold float64 `yaml:"employer_threshold" json:"employer_threshold"`

	// FullAlgorithm picks the full-string component: FullIndel or FullWRatio.
	FullAlgorithm string `yaml:"full_algorithm" json:"full_algorithm"`

	// MatchEmployers also scores the contributor's employer as an entity of its
	// own. The employer side is used only when the contributor's name misses
	// the threshold.
	MatchEmployers bool `yaml:"match_employers" json:"match_employers"`

	Markers Markers `yaml:"markers" json:"markers"`

	// ExcludeGovernmentBeneficiaries drops government and academic beneficiaries
	// before scoring.
	ExcludeGovernmentBeneficiaries bool `yaml:"exclude_government_beneficiaries" json:"exclude_government_beneficiaries"`

	// Workers bounds the candidate scoring pool. Zero means GOMAXPROCS.
	Workers int `yaml:"workers" json:"workers"`

	Window Window `yaml:"window" json:"window"`

	AI AI `yaml:"ai" json:"ai"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Threshold: constants.DefaultThreshold,
		Weights: Weights{
			Full:      constants.DefaultFullRatioWeight,
			Substring: constants.DefaultSubstringWeight,
			TokenSort: constants.DefaultTokenSortWeight,
			TokenSet:  constants.DefaultTokenSetWeight,
		},
		EmployerBonusMax:               constants.DefaultEmployerBonusMax,
		EmployerThreshold:              constants.DefaultEmployerThreshold,
		FullAlgorithm:                  FullIndel,
		MatchEmployers:                 true,
		Markers:                        DefaultMarkers(),
		ExcludeGovernmentBeneficiaries: true,
		AI: AI{
			BatchSize:      constants.DefaultAIBatchSize,
			Concurrency:    constants.DefaultAIConcurrency,
			RetryLimit:     constants.DefaultAIRetryLimit,
			Timeout:        constants.DefaultAITimeout,
			BackoffInitial: constants.RetryBackoff,
			BackoffMax:     constants.MaxRetryBackoff,
		},
	}
}

// DefaultMarkers returns a fresh copy of the built-in vocabularies.
func DefaultMarkers() Markers {
	return Markers{
		Government: []string{
			"city of", "county of", "state of", "town of", "village of",
			"department of", "dept of", "school district", "unified school district",
			"water district", "sanitation district", "transit authority",
			"housing authority", "port of", "board of supervisors",
		},
		Academic: []string{
			"university", "college", "community college", "institute of technology",
			"school of medicine", "board of regents",
		},
		Union: []string{
			"union", "brotherhood", "teamsters", "seiu", "afscme", "ibew",
			"uaw", "afl cio", "labor council", "trades council",
		},
		UnionNoise: []string{
			"small contributor committee", "candidate pac", "refuse unit",
			"healthcare workers west", "interns and resident physician",
			`local \d+`, `\d+rn`, `\d+`, "international", "local", "pac",
			"committee", "state", "ctw", "clc", "afl cio", "union",
		},
		UnionAliases: map[string]string{
			"seiu":   "service employees international union",
			"afscme": "american federation of state county and municipal employees",
			"ibew":   "international brotherhood of electrical workers",
			"uaw":    "united auto workers",
			"aft":    "american federation of teachers",
			"nea":    "national education association",
		},
		BusinessSuffixes: []string{
			"inc", "incorporated", "corp", "corporation", "co", "company",
			"llc", "ltd", "limited", "lp", "llp", "pllc", "plc", "pc",
		},
		DBA: []string{
			"doing business as", "dba", "aka", "also known as",
			"operating as", "trading as", "fka", "formerly known as",
		},
		PersonPrepositions: []string{"of", "from", "at"},
		OrganizationKeywords: []string{
			"inc", "corp", "llc", "company", "group", "services", "enterprises",
			"association", "union", "committee", "council", "foundation", "bank",
			"city", "county", "state", "department", "university", "college",
			"church", "center", "fund", "trust", "partners", "holdings",
			"chamber", "club", "society", "league", "alliance", "coalition",
			"friends", "board", "agency", "district", "institute", "museum",
			"international", "brotherhood", "local", "workers", "employees",
			"federation", "national", "united",
		},
	}
}

// Load reads a YAML configuration file layered over Default and validates it.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // operator supplied path
	if err != nil {
		return Config{}, errors.WrapIO("read", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.File = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.NewParseError("yaml", "", err.Error(), err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg.Clone(), nil
}

// Validate rejects configurations that cannot produce a meaningful run.
// Out-of-range values are reported, never clamped.
func (c Config) Validate() error {
	if math.IsNaN(c.Threshold) || c.Threshold < 0 || c.Threshold > constants.MaxScore {
		return errors.NewConfigError("threshold",
			fmt.Sprintf("threshold %.2f outside [0, %.0f]", c.Threshold, constants.MaxScore), nil)
	}
	for name, w := range map[string]float64{
		"full": c.Weights.Full, "substring": c.Weights.Substring,
		"token_sort": c.Weights.TokenSort, "token_set": c.Weights.TokenSet,
		"edit": c.Weights.Edit,
	} {
		if w < 0 || math.IsNaN(w) {
			return errors.NewConfigError("weights", fmt.Sprintf("weight %s is negative", name), nil)
		}
	}
	if sum := c.Weights.Sum(); math.Abs(sum-1) > constants.WeightSumTolerance {
		return errors.NewConfigError("weights", fmt.Sprintf("weights sum to %.4f, want 1.0", sum), nil)
	}
	if c.EmployerBonusMax < 0 || c.EmployerBonusMax > constants.MaxScore {
		return errors.NewConfigError("employer_bonus_max", "must be within [0, 100]", nil)
	}
	if c.EmployerThreshold < 0 || c.EmployerThreshold > constants.MaxScore {
		return errors.NewConfigError("employer_threshold", "must be within [0, 100]", nil)
	}
	switch c.FullAlgorithm {
	case FullIndel, FullWRatio:
	default:
		return errors.NewConfigError("full_algorithm",
			fmt.Sprintf("unknown algorithm %q, want %s or %s", c.FullAlgorithm, FullIndel, FullWRatio), nil)
	}
	if c.Workers < 0 {
		return errors.NewConfigError("workers", "must not be negative", nil)
	}
	if !c.Window.Start.IsZero() && !c.Window.End.IsZero() && c.Window.End.Before(c.Window.Start) {
		return errors.NewConfigError("window", "end precedes start", nil)
	}
	if c.AI.BatchSize < 1 {
		return errors.NewConfigError("ai.batch_size", "must be at least 1", nil)
	}
	if c.AI.Concurrency < 1 {
		return errors.NewConfigError("ai.concurrency", "must be at least 1", nil)
	}
	if c.AI.RetryLimit < 0 {
		return errors.NewConfigError("ai.retry_limit", "must not be negative", nil)
	}
	if c.AI.Timeout <= 0 {
		return errors.NewConfigError("ai.timeout", "must be positive", nil)
	}
	return nil
}

// WithThreshold returns a copy of c using threshold t.
func (c Config) WithThreshold(t float64) Config {
	out := c.Clone()
	out.Threshold = t
	return out
}

// WorkerCount resolves the effective scoring pool size.
func (c Config) WorkerCount() int {
	if c.Workers > 0 {
		return c.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// Clone returns a deep copy so callers cannot mutate shared vocabularies.
func (c Config) Clone() Config {
	out := c
	out.Markers = Markers{
		Government:           slices.Clone(c.Markers.Government),
		Academic:             slices.Clone(c.Markers.Academic),
		Union:                slices.Clone(c.Markers.Union),
		UnionNoise:           slices.Clone(c.Markers.UnionNoise),
		BusinessSuffixes:     slices.Clone(c.Markers.BusinessSuffixes),
		DBA:                  slices.Clone(c.Markers.DBA),
		PersonPrepositions:   slices.Clone(c.Markers.PersonPrepositions),
		OrganizationKeywords: slices.Clone(c.Markers.OrganizationKeywords),
	}
	if c.Markers.UnionAliases != nil {
		out.Markers.UnionAliases = make(map[string]string, len(c.Markers.UnionAliases))
		for k, v := range c.Markers.UnionAliases {
			out.Markers.UnionAliases[k] = v
		}
	}
	return out
}
