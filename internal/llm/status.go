package llm

import (
	"fmt"
	"io"

	"github.com/agentstation/conflictmap/internal/config"
)

// ProviderStatus represents the status of a provider's API key configuration.
type ProviderStatus struct {
	Provider     Provider
	HasAPIKey    bool
	IsRequired   bool
	IsConfigured bool
	Error        error
}

// ProviderReport groups providers by readiness.
type ProviderReport struct {
	Configured []ProviderStatus // Providers with a valid API key
	Missing    []ProviderStatus // Providers missing a required API key
	Optional   []ProviderStatus // Providers that need no API key
}

// CheckProviders inspects the credentials of every supported provider.
func CheckProviders() *ProviderReport {
	report := &ProviderReport{}

	for _, p := range providers {
		status := ProviderStatus{
			Provider:   p,
			HasAPIKey:  config.HasAPIKey(p.APIKey),
			IsRequired: p.APIKey.Required,
		}
		_, status.Error = config.GetAPIKey(string(p.ID), p.APIKey)

		switch {
		case !status.IsRequired:
			status.IsConfigured = true
			report.Optional = append(report.Optional, status)
		case status.HasAPIKey && status.Error == nil:
			status.IsConfigured = true
			report.Configured = append(report.Configured, status)
		default:
			report.Missing = append(report.Missing, status)
		}
	}
	return report
}

// PrintProviderReport writes a human-readable readiness report to w.
func PrintProviderReport(w io.Writer, report *ProviderReport) {
	if len(report.Configured) > 0 {
		fmt.Fprintln(w, "\n✅ Configured providers (ready to use):")
		for _, s := range report.Configured {
			fmt.Fprintf(w, "  - %s (%s)\n", s.Provider.Name, s.Provider.ID)
		}
	}

	if len(report.Missing) > 0 {
		fmt.Fprintln(w, "\n❌ Missing required API keys:")
		for _, s := range report.Missing {
			fmt.Fprintf(w, "  - %s: set %s\n", s.Provider.Name, s.Provider.APIKey.Names[0])
			if s.HasAPIKey && s.Error != nil {
				fmt.Fprintf(w, "    Error: %v\n", s.Error)
			}
		}
	}

	if len(report.Optional) > 0 {
		fmt.Fprintln(w, "\n⚪ No API key required:")
		for _, s := range report.Optional {
			fmt.Fprintf(w, "  - %s (%s)\n", s.Provider.Name, s.Provider.ID)
		}
	}
}
