// Package checkapi provides the check-api command implementation.
package checkapi

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/conflictmap/internal/cmd/application"
	"github.com/agentstation/conflictmap/internal/cmd/output"
	"github.com/agentstation/conflictmap/internal/llm"
)

// Flags holds the check-api command flags.
type Flags struct {
	Provider string
	Model    string
	BaseURL  string
	NoPing  bool
}

// NewCommand creates the check-api command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "check-api",
		GroupID: "management",
		Short:   "Check reasoning provider credentials and connectivity",
		Args:    cobra.NoArgs,
		Long: `Check-api lists every reasoning provider with the state of its API key,
then sends a fixed, obviously matching test request through the selected
provider and checks that a well-formed verdict comes back.`,
		Example: `  conflictmap check-api
  conflictmap check-api --provider ollama --base-url http://localhost:11434
  conflictmap check-api --no-ping -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), app, flags, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.Provider, "provider", "", "provider to check (default from configuration)")
	cmd.Flags().StringVar(&flags.Model, "model", "", "model to check (default depends on provider)")
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", "", "server address for ollama or OpenAI-compatible providers")
	cmd.Flags().BoolVar(&flags.NoPing, "no-ping", false, "only report credential status")

	return cmd
}

// Run prints the provider report and pings the selected provider.
func Run(ctx context.Context, app application.Application, flags *Flags, w io.Writer) error {
	logger := app.Logger()
	report := llm.CheckProviders()

	format := output.DetectFormat(app.OutputFormat())
	if format == output.FormatTable {
		llm.PrintProviderReport(w, report)
		fmt.Fprintln(w)
	} else if err := output.Write(w, format, output.ProvidersData(report), output.ProviderRows(report)); err != nil {
		return err
	}

	if flags.NoPing {
		return nil
	}

	reasoner, err := app.Reasoner(ctx, llm.Options{
		Provider: flags.Provider,
		Model:    flags.Model,
		BaseURL:  flags.BaseURL,
	})
	if err != nil {
		return err
	}
	if reasoner == nil {
		logger.Info().Msg("Provider is none; nothing to ping")
		return nil
	}

	logger.Info().Str("reasoner", reasoner.Name()).Msg("Testing API connection")
	if err := llm.Ping(ctx, reasoner); err != nil {
		logger.Error().Err(err).Msg("API connection failed")
		return err
	}
	logger.Info().Str("reasoner", reasoner.Name()).Msg("API connection successful")
	return nil
}
