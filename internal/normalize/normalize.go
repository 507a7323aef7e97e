// Package normalize turns raw beneficiary, contributor and employer names
// into comparison-ready entities.
//
// Normalization is a pure function of the raw string. Results are memoized
// in a concurrent-safe table keyed by the raw name; racing workers may
// compute the same entry twice, which is harmless because both values are
// identical.
package normalize

import (
	"slices"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/conflictmap/internal/classify"
	"github.com/agentstation/conflictmap/internal/matcher"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

const slashToken = "/"

// Warning reasons attached to NormalizedEntity.Warnings.
const (
	WarnNoAlphanumeric   = "no letters or digits"
	WarnOnlySuffix       = "name consists only of a business suffix"
	WarnDanglingDBA      = "DBA marker without an operating name"
	WarnMissingLegalName = "DBA marker without a legal name"
	WarnEmptySlash       = "slash with an empty segment"
)

// Normalizer canonicalizes names using the vocabularies of one configuration.
type Normalizer struct {
	classifier   *classify.Classifier
	suffixes     map[string]struct{}
	dba          *matcher.MultiMatcher
	unionNoise   *matcher.MultiMatcher
	aliases      map[string]string
	prepositions map[string]struct{}
	orgKeywords  map[string]struct{}

	cache sync.Map // raw name -> conflicts.NormalizedEntity

	mu     sync.Mutex
	issues []*errors.NormalizationWarning
}

// New builds a Normalizer from cfg.
func New(cfg config.Config) (*Normalizer, error) {
	cls, err := classify.New(cfg)
	if err != nil {
		return nil, err
	}
	dba, err := matcher.NewMultiMatcher(matcher.FoldPatterns(cfg.Markers.DBA), matcher.Auto)
	if err != nil {
		return nil, errors.NewConfigError("markers.dba", err.Error(), err)
	}
	noise, err := matcher.NewMultiMatcher(matcher.FoldPatterns(cfg.Markers.UnionNoise), matcher.Auto)
	if err != nil {
		return nil, errors.NewConfigError("markers.union_noise", err.Error(), err)
	}

	n := &Normalizer{
		classifier:   cls,
		suffixes:     toSet(cfg.Markers.BusinessSuffixes),
		dba:          dba,
		unionNoise:   noise,
		aliases:      make(map[string]string, len(cfg.Markers.UnionAliases)),
		prepositions: toSet(cfg.Markers.PersonPrepositions),
		orgKeywords:  toSet(cfg.Markers.OrganizationKeywords),
	}
	for k, v := range cfg.Markers.UnionAliases {
		n.aliases[Fold(k)] = Fold(v)
	}
	return n, nil
}

// Classifier returns the classifier used to tag entities.
func (n *Normalizer) Classifier() *classify.Classifier {
	return n.classifier
}

// Warnings returns how many distinct names produced normalization warnings.
func (n *Normalizer) Warnings() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.issues)
}

// Issues returns one NormalizationWarning per distinct warned name, sorted by
// name.
func (n *Normalizer) Issues() []*errors.NormalizationWarning {
	n.mu.Lock()
	out := slices.Clone(n.issues)
	n.mu.Unlock()
	slices.SortFunc(out, func(a, b *errors.NormalizationWarning) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Normalize returns the cached normalized entity for raw, computing it on first use.
func (n *Normalizer) Normalize(raw string) conflicts.NormalizedEntity {
	if v, ok := n.cache.Load(raw); ok {
		return v.(conflicts.NormalizedEntity)
	}
	e := n.normalize(raw)
	if _, loaded := n.cache.LoadOrStore(raw, e); !loaded && len(e.Warnings) > 0 {
		n.mu.Lock()
		n.issues = append(n.issues, errors.NewNormalizationWarning(raw, strings.Join(e.Warnings, "; ")))
		n.mu.Unlock()
	}
	return e
}

func (n *Normalizer) normalize(raw string) conflicts.NormalizedEntity {
	e := conflicts.NormalizedEntity{OriginalName: raw}
	if strings.TrimSpace(raw) == "" {
		return e
	}

	folded := Fold(raw)
	if folded == "" {
		e.Warnings = append(e.Warnings, WarnNoAlphanumeric)
		return e
	}

	tokens, onlySuffix := n.stripAffixes(strings.Fields(folded))
	if onlySuffix {
		e.Warnings = append(e.Warnings, WarnOnlySuffix)
	}

	legal, operating, warns := n.splitDBA(tokens)
	e.Warnings = append(e.Warnings, warns...)
	if len(legal) == 0 {
		e.Warnings = append(e.Warnings, WarnNoAlphanumeric)
		return e
	}

	// Operating names never change the class: only the legal name counts.
	e.CanonicalForm = strings.Join(legal, " ")
	e.Classification = n.classifier.Classify(e.CanonicalForm)
	e.Tokens = legal
	e.Forms = append(e.Forms, newForm(conflicts.FormCanonical, legal))
	for _, op := range operating {
		e.Forms = appendForm(e.Forms, newForm(conflicts.FormOperating, op))
	}

	if e.Classification == conflicts.Union {
		if core := n.unionCore(legal); len(core) > 0 {
			e.Forms = appendForm(e.Forms, newForm(conflicts.FormUnion, core))
		}
		return e
	}

	if person, org, ok := n.splitPerson(legal); ok {
		e.Forms = appendForm(e.Forms, newForm(conflicts.FormPerson, person))
		e.Forms = appendForm(e.Forms, newForm(conflicts.FormOrganization, org))
	}
	return e
}

// stripAffixes drops trailing business suffixes and a leading "the" until
// neither applies. It never empties the name; onlySuffix reports that the
// last remaining token is itself a suffix.
func (n *Normalizer) stripAffixes(tokens []string) ([]string, bool) {
	for {
		changed := false
		if len(tokens) > 1 {
			if _, ok := n.suffixes[tokens[len(tokens)-1]]; ok {
				tokens = tokens[:len(tokens)-1]
				changed = true
			}
		}
		if len(tokens) > 1 && tokens[0] == "the" {
			tokens = tokens[1:]
			changed = true
		}
		if !changed {
			break
		}
	}
	onlySuffix := false
	if len(tokens) == 1 {
		_, onlySuffix = n.suffixes[tokens[0]]
	}
	return tokens, onlySuffix
}

// splitDBA splits on every DBA marker phrase and slash. The first non-empty
// segment is the legal name; the others are operating names.
func (n *Normalizer) splitDBA(tokens []string) (legal []string, operating [][]string, warns []string) {
	var segments [][]string
	rest := strings.Join(tokens, " ")
	for {
		_, start, end, ok := n.dba.Earliest(rest)
		slash := strings.Index(" "+rest+" ", " "+slashToken+" ")
		if slash >= 0 && (!ok || slash < start) {
			start, end, ok = slash, slash+len(slashToken), true
			if len(strings.Fields(rest[:start])) == 0 || len(strings.Fields(rest[end:])) == 0 {
				warns = appendWarning(warns, WarnEmptySlash)
			}
		} else if ok {
			if len(strings.Fields(rest[:start])) == 0 && len(segments) == 0 {
				warns = appendWarning(warns, WarnMissingLegalName)
			}
			if len(strings.Fields(rest[end:])) == 0 {
				warns = appendWarning(warns, WarnDanglingDBA)
			}
		}
		if !ok {
			segments = append(segments, strings.Fields(rest))
			break
		}
		segments = append(segments, strings.Fields(rest[:start]))
		rest = rest[end:]
	}

	for _, seg := range segments {
		seg, _ = n.stripAffixes(seg)
		if len(seg) == 0 {
			continue
		}
		if legal == nil {
			legal = seg
			continue
		}
		operating = append(operating, seg)
	}
	return legal, operating, warns
}

// splitPerson recognizes "<2-3 personal tokens> <preposition> <organization>".
func (n *Normalizer) splitPerson(tokens []string) (person, org []string, ok bool) {
	for i := 2; i <= 3 && i < len(tokens)-1; i++ {
		if _, prep := n.prepositions[tokens[i]]; !prep {
			continue
		}
		for _, t := range tokens[:i] {
			if !isAlpha(t) {
				return nil, nil, false
			}
			if _, kw := n.orgKeywords[t]; kw {
				return nil, nil, false
			}
		}
		org, _ = n.stripAffixes(tokens[i+1:])
		return tokens[:i], org, true
	}
	return nil, nil, false
}

// unionCore expands aliases and strips noise, leaving the affiliation name.
func (n *Normalizer) unionCore(tokens []string) []string {
	expanded := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if full, ok := n.aliases[t]; ok {
			expanded = append(expanded, full)
			continue
		}
		expanded = append(expanded, t)
	}
	return strings.Fields(n.unionNoise.Strip(strings.Join(expanded, " ")))
}

// Fold applies Unicode compatibility normalization, removes diacritics,
// case-folds, drops apostrophes and periods, turns every other non
// alphanumeric rune except '&' into a space, isolates '/' as its own token,
// and collapses whitespace. Fold is idempotent.
func Fold(s string) string {
	s = norm.NFKC.String(s)
	if stripped, _, err := transform.String(diacritics, s); err == nil {
		s = stripped
	}
	s = cases.Fold().String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '&':
			b.WriteRune(r)
		case r == '\'' || r == '.' || r == '’' || r == '‘' || r == '`':
		case r == '/':
			b.WriteString(" / ")
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

var diacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func newForm(kind conflicts.FormKind, tokens []string) conflicts.Form {
	return conflicts.Form{Kind: kind, Text: strings.Join(tokens, " "), Tokens: tokens}
}

// appendForm skips forms whose text duplicates an existing form.
func appendForm(forms []conflicts.Form, f conflicts.Form) []conflicts.Form {
	if f.Text == "" {
		return forms
	}
	for _, existing := range forms {
		if existing.Text == f.Text {
			return forms
		}
	}
	return append(forms, f)
}

func appendWarning(warns []string, w string) []string {
	for _, existing := range warns {
		if existing == w {
			return warns
		}
	}
	return append(warns, w)
}

func isAlpha(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return s != ""
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		if f := Fold(s); f != "" {
			set[f] = struct{}{}
		}
	}
	return set
}
