package validation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Reasoner judges whether the two names of a request refer to the same party.
// Implementations must be safe for concurrent use. A Reasoner must not keep
// state between calls that would let one verdict depend on another.
type Reasoner interface {
	Judge(ctx context.Context, req Request) (conflicts.Verdict, error)
	Name() string
}

// Request is the versioned input sent to a reasoner.
type Request struct {
	SchemaVersion       string `json:"schema_version"`
	BeneficiaryName     string `json:"beneficiary_name"`
	ContributorName     string `json:"contributor_name"`
	ContributorEmployer string `json:"contributor_employer,omitempty"`
	ContextNotes        string `json:"context_notes,omitempty"`
}

// Response is the wire shape a reasoner answers with.
type Response struct {
	SameEntity *bool    `json:"same_entity"`
	Reason     string   `json:"reason"`
	Confidence string   `json:"confidence"`
	KeyFactors []string `json:"key_factors,omitempty"`
}

// NewRequest builds the request for a conflict record. The context notes list
// the vote items and contributions so the reasoner sees what was matched.
func NewRequest(r conflicts.ConflictRecord) Request {
	var notes []string
	for _, v := range r.VoteOccurrences {
		notes = append(notes, fmt.Sprintf("Vote %s on %s: %s",
			v.Vote, v.VoteDate.Format(constants.DateFormat), v.Item))
	}
	for _, c := range r.Contributions {
		line := fmt.Sprintf("Contribution of %s from %s on %s", c.Amount, c.Name, c.Date.Format(constants.DateFormat))
		if c.Employer != "" {
			line += fmt.Sprintf(" (employer: %s)", c.Employer)
		}
		notes = append(notes, line)
	}
	bd := r.BestMatch.Breakdown
	notes = append(notes, fmt.Sprintf("Name similarity %.1f (matched %q as %s form against %q as %s form)",
		bd.WeightedComposite,
		bd.BeneficiaryForm.Text, bd.BeneficiaryForm.Kind,
		bd.ContributorForm.Text, bd.ContributorForm.Kind))

	return Request{
		SchemaVersion:       constants.SchemaVersion,
		BeneficiaryName:     r.BeneficiaryName,
		ContributorName:     r.ContributorName,
		ContributorEmployer: r.ContributorEmployer,
		ContextNotes:        strings.Join(notes, "\n"),
	}
}

// Verdict checks the response against the schema.
func (r Response) Verdict() (conflicts.Verdict, error) {
	if r.SameEntity == nil {
		return conflicts.Verdict{}, malformed("missing field same_entity", nil)
	}
	if strings.TrimSpace(r.Reason) == "" {
		return conflicts.Verdict{}, malformed("missing field reason", nil)
	}
	conf, err := conflicts.ParseConfidence(r.Confidence)
	if err != nil {
		return conflicts.Verdict{}, malformed(err.Error(), err)
	}
	return conflicts.Verdict{
		SameEntity: *r.SameEntity,
		Reason:     strings.TrimSpace(r.Reason),
		Confidence: conf,
		KeyFactors: r.KeyFactors,
	}, nil
}

// ParseResponse extracts the JSON object from a model's reply and converts it
// to a verdict. Surrounding prose and code fences are ignored.
func ParseResponse(text string) (conflicts.Verdict, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end < start {
		return conflicts.Verdict{}, malformed("no JSON object in response", nil)
	}

	var resp Response
	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return conflicts.Verdict{}, malformed(err.Error(), err)
	}
	return resp.Verdict()
}

func malformed(msg string, err error) error {
	if err != nil {
		err = fmt.Errorf("%w: %w", errors.ErrMalformedResponse, err)
	} else {
		err = errors.ErrMalformedResponse
	}
	return errors.NewParseError("json", "", msg, err)
}

// Prompt renders the instruction text for language-model reasoners.
func Prompt(req Request) string {
	var b strings.Builder
	b.WriteString(promptPreamble)
	b.WriteString("\n<input_data>\n")
	fmt.Fprintf(&b, "Schema version: %s\n", req.SchemaVersion)
	fmt.Fprintf(&b, "Beneficiary: %s\n", req.BeneficiaryName)
	fmt.Fprintf(&b, "Contributor: %s\n", req.ContributorName)
	if req.ContributorEmployer != "" {
		fmt.Fprintf(&b, "Contributor employer: %s\n", req.ContributorEmployer)
	}
	if req.ContextNotes != "" {
		fmt.Fprintf(&b, "Context:\n%s\n", req.ContextNotes)
	}
	b.WriteString("</input_data>\n")
	b.WriteString(promptOutput)
	return b.String()
}

const promptPreamble = `<task>
You are reviewing a potential conflict of interest between a beneficiary of a
legislative vote and a campaign contributor. Decide whether the two names refer
to the SAME organizational entity, or to a person who owns or controls it.
Results mark patterns worth investigating, not wrongdoing.
</task>

<rules>
Apply these rules in order:
1. Government and academic employees: if the contributor works for a city,
   county, state, college or university, answer same_entity=false.
2. Labor unions: a union, local or union PAC representing the same worker group
   as the beneficiary union is the same entity.
3. Organizational identity: same legal entity, subsidiary or parent, a
   doing-business-as name, or an individual who owns the beneficiary.
Similar names, shared geography or related industries alone do not make two
entities the same. Timing of votes and contributions is irrelevant.
</rules>
`

const promptOutput = `
Respond with only a JSON object:
{"same_entity": true|false, "reason": "short explanation", "confidence": "high"|"medium"|"low", "key_factors": ["..."]}
`
