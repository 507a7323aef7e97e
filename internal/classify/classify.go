// Package classify tags normalized names as government, academic, union or
// ordinary. Government and academic entities are excluded from matching
// before any scoring happens.
package classify

import (
	"github.com/agentstation/conflictmap/internal/matcher"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Classifier runs ordered, rule-based checks over a canonical name.
// It is immutable and safe for concurrent use.
type Classifier struct {
	government *matcher.MultiMatcher
	academic   *matcher.MultiMatcher
	union      *matcher.MultiMatcher
}

// New compiles the marker vocabularies of cfg.
func New(cfg config.Config) (*Classifier, error) {
	gov, err := matcher.NewMultiMatcher(matcher.FoldPatterns(cfg.Markers.Government), matcher.Auto)
	if err != nil {
		return nil, errors.NewConfigError("markers.government", err.Error(), err)
	}
	acad, err := matcher.NewMultiMatcher(matcher.FoldPatterns(cfg.Markers.Academic), matcher.Auto)
	if err != nil {
		return nil, errors.NewConfigError("markers.academic", err.Error(), err)
	}
	union, err := matcher.NewMultiMatcher(matcher.FoldPatterns(cfg.Markers.Union), matcher.Auto)
	if err != nil {
		return nil, errors.NewConfigError("markers.union", err.Error(), err)
	}
	return &Classifier{government: gov, academic: acad, union: union}, nil
}

// Classify checks government markers, then academic markers, then union
// markers, and falls back to Ordinary. The input must already be case
// folded with whitespace collapsed.
func (c *Classifier) Classify(canonical string) conflicts.Classification {
	switch {
	case canonical == "":
		return conflicts.Ordinary
	case c.government.Match(canonical):
		return conflicts.Government
	case c.academic.Match(canonical):
		return conflicts.Academic
	case c.union.Match(canonical):
		return conflicts.Union
	default:
		return conflicts.Ordinary
	}
}

// Reason returns the marker that produced a Government or Academic tag,
// for audit logs. It is empty for other classes.
func (c *Classifier) Reason(canonical string) string {
	if p, ok := c.government.First(canonical); ok {
		return p
	}
	if p, ok := c.academic.First(canonical); ok {
		return p
	}
	return ""
}

// Excluded reports whether a contributor must be dropped before scoring.
// The contributor's own classification and that of its employer both count,
// since a public employee's personal contribution is not a conflict.
func Excluded(contributor, employer conflicts.NormalizedEntity) bool {
	return contributor.Classification.Excluded() || employer.Classification.Excluded()
}
