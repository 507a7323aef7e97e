package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

func TestParseResponse(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		want    conflicts.Verdict
		wantErr bool
	}{
		{
			name: "plain",
			text: `{"same_entity": true, "reason": "dba of the same company", "confidence": "high"}`,
			want: conflicts.Verdict{SameEntity: true, Reason: "dba of the same company", Confidence: conflicts.ConfidenceHigh},
		},
		{
			name: "fenced with prose",
			text: "Here is my analysis:\n```json\n{\"same_entity\": false, \"reason\": \"different\", \"confidence\": \"Medium\", \"key_factors\": [\"geography\"]}\n```",
			want: conflicts.Verdict{Reason: "different", Confidence: conflicts.ConfidenceMedium, KeyFactors: []string{"geography"}},
		},
		{name: "no json", text: "I cannot answer", wantErr: true},
		{name: "missing same_entity", text: `{"reason": "x", "confidence": "high"}`, wantErr: true},
		{name: "missing reason", text: `{"same_entity": true, "confidence": "high"}`, wantErr: true},
		{name: "bad confidence", text: `{"same_entity": true, "reason": "x", "confidence": "certain"}`, wantErr: true},
		{name: "broken json", text: `{"same_entity": tru}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseResponse(tt.text)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsMalformedResponse(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRequestAndPrompt(t *testing.T) {
	r := conflicts.ConflictRecord{
		BeneficiaryName:     "Bob Jones of XYZ Enterprises",
		ContributorName:     "Jones John",
		ContributorEmployer: "XYZ Enterprises",
		Contributions: []conflicts.Contribution{{
			Name: "Jones John", Employer: "XYZ Enterprises", Amount: 25000,
			Date: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC),
		}},
		VoteOccurrences: []conflicts.Beneficiary{{
			Name: "Bob Jones of XYZ Enterprises", Item: "Paving contract", Vote: conflicts.VoteAye,
			VoteDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		}},
	}

	req := NewRequest(r)
	assert.Equal(t, "v1", req.SchemaVersion)
	assert.Equal(t, "XYZ Enterprises", req.ContributorEmployer)
	assert.Contains(t, req.ContextNotes, "Paving contract")
	assert.Contains(t, req.ContextNotes, "2024-01-05")

	prompt := Prompt(req)
	assert.Contains(t, prompt, "Beneficiary: Bob Jones of XYZ Enterprises")
	assert.Contains(t, prompt, "Contributor employer: XYZ Enterprises")
	assert.Contains(t, prompt, `"same_entity"`)
}
