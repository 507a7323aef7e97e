// Package llm provides validation.Reasoner implementations backed by hosted
// and local language models.
//
// Claude, OpenAI and Ollama are reached through langchaingo; Gemini through
// the Google GenAI SDK. Every backend renders the same prompt and parses the
// same versioned JSON verdict, so they are interchangeable.
package llm

import (
	"fmt"
	"slices"
	"strings"

	"github.com/agentstation/conflictmap/internal/config"
	"github.com/agentstation/conflictmap/pkg/constants"
)

// ProviderID names a reasoning backend.
type ProviderID string

// Supported providers.
const (
	ProviderAnthropic ProviderID = "anthropic"
	ProviderOpenAI    ProviderID = "openai"
	ProviderOllama    ProviderID = "ollama"
	ProviderGemini    ProviderID = "gemini"
	ProviderNone      ProviderID = "none"
)

// Provider describes a backend and how to authenticate with it.
type Provider struct {
	ID           ProviderID
	Name         string
	DefaultModel string
	APIKey       config.APIKey
}

var providers = []Provider{
	{
		ID:           ProviderAnthropic,
		Name:         "Anthropic Claude",
		DefaultModel: constants.DefaultAnthropicModel,
		APIKey:       config.APIKey{Names: []string{"ANTHROPIC_API_KEY"}, Pattern: `^sk-ant-`, Required: true},
	},
	{
		ID:           ProviderOpenAI,
		Name:         "OpenAI",
		DefaultModel: constants.DefaultOpenAIModel,
		APIKey:       config.APIKey{Names: []string{"OPENAI_API_KEY"}, Required: true},
	},
	{
		ID:           ProviderGemini,
		Name:         "Google Gemini",
		DefaultModel: constants.DefaultGeminiModel,
		APIKey:       config.APIKey{Names: []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}, Required: true},
	},
	{
		ID:           ProviderOllama,
		Name:         "Ollama (local)",
		DefaultModel: constants.DefaultOllamaModel,
	},
}

// Providers returns every supported backend.
func Providers() []Provider {
	return slices.Clone(providers)
}

// Lookup finds a provider by ID, ignoring case.
func Lookup(id string) (Provider, error) {
	want := ProviderID(strings.ToLower(strings.TrimSpace(id)))
	for _, p := range providers {
		if p.ID == want {
			return p, nil
		}
	}
	return Provider{}, fmt.Errorf("unknown provider %q", id)
}

// Model returns model when set and the provider's default otherwise.
func (p Provider) Model(model string) string {
	if model != "" {
		return model
	}
	return p.DefaultModel
}
