package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/agentstation/conflictmap/internal/config"
	"github.com/agentstation/conflictmap/internal/validation"
	"github.com/agentstation/conflictmap/pkg/constants"
	"github.com/agentstation/conflictmap/pkg/errors"
)

// Options selects and configures a backend.
type Options struct {
	Provider string
	Model    string

	// APIKey overrides the key resolved from the environment.
	APIKey string

	// BaseURL overrides the server address (Ollama or OpenAI-compatible servers).
	BaseURL string
}

// New builds the reasoner for opts.Provider.
func New(ctx context.Context, opts Options) (validation.Reasoner, error) {
	p, err := Lookup(opts.Provider)
	if err != nil {
		return nil, errors.NewConfigError("provider", err.Error(), err)
	}

	key := opts.APIKey
	if key == "" {
		if key, err = config.GetAPIKey(string(p.ID), p.APIKey); err != nil {
			return nil, err
		}
	}
	model := p.Model(opts.Model)

	switch p.ID {
	case ProviderGemini:
		return NewGemini(ctx, key, model)
	default:
		return NewLangChain(p.ID, model, key, opts.BaseURL)
	}
}

// classify maps a backend error onto the typed errors the validator
// understands. SDK errors rarely expose status codes, so the message is
// inspected for the usual markers.
func classify(provider ProviderID, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errors.NewTimeoutError(string(provider), "", err.Error())
	}

	msg := strings.ToLower(err.Error())
	status := 0
	switch {
	case strings.Contains(msg, "401") || strings.Contains(msg, "unauthorized") ||
		strings.Contains(msg, "invalid x-api-key") || strings.Contains(msg, "api key not valid"):
		return errors.NewAuthenticationError(string(provider), "api_key", err.Error(), errors.ErrAPIKeyInvalid)
	case strings.Contains(msg, "403") || strings.Contains(msg, "permission"):
		status = http.StatusForbidden
	case strings.Contains(msg, "429") || strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "overloaded"):
		status = http.StatusTooManyRequests
	case strings.Contains(msg, "500") || strings.Contains(msg, "502") ||
		strings.Contains(msg, "503") || strings.Contains(msg, "unavailable"):
		status = http.StatusServiceUnavailable
	}
	return errors.WrapAPI(string(provider), status, err)
}

// Ping sends a fixed, obviously matching request through r and checks that a
// well-formed verdict comes back.
func Ping(ctx context.Context, r validation.Reasoner) error {
	req := validation.Request{
		SchemaVersion:   constants.SchemaVersion,
		BeneficiaryName: "Acme Paving Inc. dba Acme Roads",
		ContributorName: "Acme Roads",
		ContextNotes:    "Connectivity check.",
	}
	verdict, err := r.Judge(ctx, req)
	if err != nil {
		return fmt.Errorf("ping %s: %w", r.Name(), err)
	}
	if verdict.Reason == "" {
		return fmt.Errorf("ping %s: %w", r.Name(), errors.ErrMalformedResponse)
	}
	return nil
}
