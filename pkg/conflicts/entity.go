// Package conflicts holds the typed records that flow through a conflict
// analysis: raw and normalized entities, vote and contribution records,
// scored candidates, consolidated conflicts, and AI verdicts.
//
// All values are owned by a single analysis run. Relationships point forward
// only (record to candidate to entity), so nothing here needs back-references.
package conflicts

import (
	"fmt"
	"strings"
)

// Source identifies which dataset an entity came from.
type Source string

// Sources of raw entities.
const (
	SourceBeneficiary Source = "beneficiary"
	SourceContributor Source = "contributor"
)

// RawEntity is a name exactly as it appears in an input record.
type RawEntity struct {
	Name     string `json:"name" yaml:"name"`
	Employer string `json:"employer,omitempty" yaml:"employer,omitempty"`
	Source   Source `json:"source" yaml:"source"`
}

// Classification categorizes an entity for exclusion and union handling.
type Classification int

// Entity classifications, in the order they are checked.
const (
	Ordinary Classification = iota
	Government
	Academic
	Union
)

var classificationNames = map[Classification]string{
	Ordinary:   "ordinary",
	Government: "government",
	Academic:   "academic",
	Union:      "union",
}

// String returns the lowercase classification name.
func (c Classification) String() string {
	if s, ok := classificationNames[c]; ok {
		return s
	}
	return fmt.Sprintf("classification(%d)", int(c))
}

// MarshalText implements encoding.TextMarshaler.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Classification) UnmarshalText(b []byte) error {
	s := strings.ToLower(string(b))
	for k, v := range classificationNames {
		if v == s {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("unknown classification %q", s)
}

// Excluded reports whether entities of this class are never matched.
func (c Classification) Excluded() bool {
	return c == Government || c == Academic
}

// FormKind names the rendering a Form represents.
type FormKind string

// Form kinds produced by normalization.
const (
	FormCanonical    FormKind = "canonical"
	FormOperating    FormKind = "operating"
	FormPerson       FormKind = "person"
	FormOrganization FormKind = "organization"
	FormUnion        FormKind = "union"
)

// Form is one matching-only rendering of a name. Forms are never displayed;
// reports always show the original name.
type Form struct {
	Kind   FormKind `json:"kind" yaml:"kind"`
	Text   string   `json:"text" yaml:"text"`
	Tokens []string `json:"-" yaml:"-"`
}

// NormalizedEntity is the canonical representation of a raw name.
type NormalizedEntity struct {
	OriginalName   string         `json:"original_name" yaml:"original_name"`
	CanonicalForm  string         `json:"canonical_form" yaml:"canonical_form"`
	Tokens         []string       `json:"tokens" yaml:"tokens"`
	Forms          []Form         `json:"forms" yaml:"forms"`
	Classification Classification `json:"classification" yaml:"classification"`
	Warnings       []string       `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// Matchable reports whether the entity can take part in scoring.
func (e NormalizedEntity) Matchable() bool {
	return e.CanonicalForm != ""
}

// Form returns the first form of the given kind.
func (e NormalizedEntity) Form(kind FormKind) (Form, bool) {
	for _, f := range e.Forms {
		if f.Kind == kind {
			return f, true
		}
	}
	return Form{}, false
}
