package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/conflicts"
	"github.com/agentstation/conflictmap/pkg/constants"
)

// LangChain is a Reasoner backed by a langchaingo model.
type LangChain struct {
	provider ProviderID
	model    string
	llm      llms.Model
}

// NewLangChain creates a reasoner for the Anthropic, OpenAI or Ollama backends.
func NewLangChain(provider ProviderID, model, apiKey, baseURL string) (*LangChain, error) {
	var m llms.Model
	var err error

	switch provider {
	case ProviderAnthropic:
		m, err = anthropic.New(
			anthropic.WithToken(apiKey),
			anthropic.WithModel(model),
		)
	case ProviderOpenAI:
		opts := []openai.Option{openai.WithToken(apiKey), openai.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, openai.WithBaseURL(baseURL))
		}
		m, err = openai.New(opts...)
	case ProviderOllama:
		opts := []ollama.Option{ollama.WithModel(model)}
		if baseURL != "" {
			opts = append(opts, ollama.WithServerURL(baseURL))
		}
		m, err = ollama.New(opts...)
	default:
		return nil, fmt.Errorf("provider %s is not served by langchaingo", provider)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s model: %w", provider, err)
	}
	return NewLangChainModel(provider, model, m), nil
}

// NewLangChainModel wraps an existing langchaingo model.
func NewLangChainModel(provider ProviderID, model string, m llms.Model) *LangChain {
	return &LangChain{provider: provider, model: model, llm: m}
}

// Name returns provider/model.
func (l *LangChain) Name() string {
	return string(l.provider) + "/" + l.model
}

// Judge renders the prompt, calls the model and parses its verdict.
func (l *LangChain) Judge(ctx context.Context, req validation.Request) (conflicts.Verdict, error) {
	text, err := llms.GenerateFromSinglePrompt(ctx, l.llm, validation.Prompt(req),
		llms.WithTemperature(0),
		llms.WithMaxTokens(constants.MaxResponseTokens),
	)
	if err != nil {
		return conflicts.Verdict{}, classify(l.provider, err)
	}
	return validation.ParseResponse(text)
}
