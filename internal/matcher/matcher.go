// Package matcher provides whole-word phrase and regex matching over
// normalized names. It backs the marker vocabularies used by normalization
// (business suffixes, DBA markers, union noise) and classification
// (government, academic and union markers).
package matcher

import (
	"fmt"
	"regexp"
	"strings"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Phrase matches a whole-word token sequence such as "city of".
	Phrase PatternType = iota
	// Regex matches a regular expression anchored on word boundaries.
	Regex
	// Auto attempts to detect the pattern type.
	Auto
)

// String returns a string representation of the PatternType.
func (pt PatternType) String() string {
	switch pt {
	case Phrase:
		return "phrase"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher is the main interface for pattern matching operations.
type Matcher interface {
	// Match checks if the input contains the pattern as whole words.
	Match(input string) bool
	// Find returns the byte span of the first occurrence.
	Find(input string) (start, end int, ok bool)
	// Strip removes every occurrence and collapses the remaining whitespace.
	Strip(input string) string
	// Pattern returns the original pattern string.
	Pattern() string
	// Type returns the pattern type being used.
	Type() PatternType
}

// matcher is the concrete implementation of the Matcher interface.
// It is immutable after construction and safe for concurrent use.
type matcher struct {
	pattern     string
	patternType PatternType
	compiled    *regexp.Regexp
	tokens      []string
}

// New creates a new Matcher with the specified pattern and type.
// Patterns are expected in normalized (case-folded) form.
func New(patternType PatternType, pattern string) (Matcher, error) {
	m := &matcher{
		pattern:     pattern,
		patternType: patternType,
	}

	if patternType == Auto {
		m.patternType = detectPatternType(pattern)
	}

	if err := m.compile(); err != nil {
		return nil, fmt.Errorf("failed to compile pattern: %w", err)
	}

	return m, nil
}

// MustNew creates a new Matcher and panics if there's an error.
func MustNew(patternType PatternType, pattern string) Matcher {
	m, err := New(patternType, pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// compile prepares the pattern for matching.
func (m *matcher) compile() error {
	switch m.patternType {
	case Phrase:
		m.tokens = strings.Fields(m.pattern)
		if len(m.tokens) == 0 {
			return fmt.Errorf("empty phrase pattern")
		}
	case Regex:
		compiled, err := regexp.Compile(`(?:^|\s)(?:` + m.pattern + `)(?:\s|$)`)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		m.compiled = compiled
	default:
		return fmt.Errorf("unsupported pattern type: %v", m.patternType)
	}
	return nil
}

// Match checks if the input contains the pattern.
func (m *matcher) Match(input string) bool {
	_, _, ok := m.Find(input)
	return ok
}

// Find returns the byte span of the first whole-word occurrence.
func (m *matcher) Find(input string) (int, int, bool) {
	switch m.patternType {
	case Phrase:
		return findPhrase(input, m.tokens)
	case Regex:
		loc := m.compiled.FindStringIndex(input)
		if loc == nil {
			return 0, 0, false
		}
		start, end := loc[0], loc[1]
		for start < end && input[start] == ' ' {
			start++
		}
		for end > start && input[end-1] == ' ' {
			end--
		}
		return start, end, true
	}
	return 0, 0, false
}

// Strip removes every occurrence of the pattern.
func (m *matcher) Strip(input string) string {
	out := input
	for {
		start, end, ok := m.Find(out)
		if !ok || start == end {
			break
		}
		out = out[:start] + " " + out[end:]
	}
	return strings.Join(strings.Fields(out), " ")
}

// Pattern returns the original pattern string.
func (m *matcher) Pattern() string {
	return m.pattern
}

// Type returns the pattern type being used.
func (m *matcher) Type() PatternType {
	return m.patternType
}

// findPhrase locates tokens as a contiguous run of space-separated words.
func findPhrase(input string, tokens []string) (int, int, bool) {
	type span struct{ start, end int }
	var words []span
	start := -1
	for i := 0; i <= len(input); i++ {
		if i == len(input) || input[i] == ' ' {
			if start >= 0 {
				words = append(words, span{start, i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}

	for i := 0; i+len(tokens) <= len(words); i++ {
		hit := true
		for j, tok := range tokens {
			w := words[i+j]
			if input[w.start:w.end] != tok {
				hit = false
				break
			}
		}
		if hit {
			return words[i].start, words[i+len(tokens)-1].end, true
		}
	}
	return 0, 0, false
}

// detectPatternType treats a pattern as a regex when it carries regex metacharacters.
func detectPatternType(pattern string) PatternType {
	regexIndicators := []string{
		"^", "$", "\\d", "\\w", "\\s", "\\b",
		"(?:", "(?i)", "[", "]", "{", "}", "+", "*", "?", "|", "(", ")",
	}

	for _, indicator := range regexIndicators {
		if strings.Contains(pattern, indicator) {
			return Regex
		}
	}
	return Phrase
}

// IsRegexPattern reports whether a pattern would be compiled as a regex.
func IsRegexPattern(pattern string) bool {
	return detectPatternType(pattern) == Regex
}

// MultiMatcher handles multiple patterns simultaneously.
// Patterns are tried in the order given.
type MultiMatcher struct {
	matchers []Matcher
}

// NewMultiMatcher creates a matcher with multiple patterns.
func NewMultiMatcher(patterns []string, patternType PatternType) (*MultiMatcher, error) {
	mm := &MultiMatcher{
		matchers: make([]Matcher, 0, len(patterns)),
	}

	for _, pattern := range patterns {
		if strings.TrimSpace(pattern) == "" {
			continue
		}
		m, err := New(patternType, pattern)
		if err != nil {
			return nil, fmt.Errorf("failed to create matcher for pattern %q: %w", pattern, err)
		}
		mm.matchers = append(mm.matchers, m)
	}

	return mm, nil
}

// Match returns true if any pattern matches.
func (mm *MultiMatcher) Match(input string) bool {
	_, ok := mm.First(input)
	return ok
}

// First returns the first pattern (in configured order) found in input.
func (mm *MultiMatcher) First(input string) (string, bool) {
	for _, m := range mm.matchers {
		if m.Match(input) {
			return m.Pattern(), true
		}
	}
	return "", false
}

// Earliest returns the pattern whose occurrence starts first in input,
// preferring the longest occurrence at the same position.
func (mm *MultiMatcher) Earliest(input string) (pattern string, start, end int, ok bool) {
	for _, m := range mm.matchers {
		s, e, hit := m.Find(input)
		if !hit {
			continue
		}
		if !ok || s < start || (s == start && e > end) {
			pattern, start, end, ok = m.Pattern(), s, e, true
		}
	}
	return pattern, start, end, ok
}

// Strip removes every occurrence of every pattern.
func (mm *MultiMatcher) Strip(input string) string {
	out := input
	for _, m := range mm.matchers {
		out = m.Strip(out)
	}
	return out
}

// FoldPatterns lowercases phrase patterns and collapses their whitespace so
// they line up with normalized names. Regex patterns are kept verbatim.
func FoldPatterns(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if IsRegexPattern(s) {
			out = append(out, s)
			continue
		}
		if f := strings.Join(strings.Fields(strings.ToLower(s)), " "); f != "" {
			out = append(out, f)
		}
	}
	return out
}
