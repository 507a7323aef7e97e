package llm

import (
	"context"

	"google.golang.org/genai"

	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Gemini is a Reasoner backed by the Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini API client using an AI Studio key.
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, &errors.AuthenticationError{
			Provider: string(ProviderGemini),
			Method:   "api_key",
			Message:  "API key required for the Gemini API",
			Err:      errors.ErrAPIKeyRequired,
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: client, model: model}, nil
}

// Name returns gemini/model.
func (g *Gemini) Name() string {
	return string(ProviderGemini) + "/" + g.model
}

// Judge asks Gemini for a JSON verdict.
func (g *Gemini) Judge(ctx context.Context, req validation.Request) (conflicts.Verdict, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(validation.Prompt(req)),
		&genai.GenerateContentConfig{
			Temperature:      genai.Ptr[float32](0),
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		return conflicts.Verdict{}, classify(ProviderGemini, err)
	}
	return validation.ParseResponse(resp.Text())
}
