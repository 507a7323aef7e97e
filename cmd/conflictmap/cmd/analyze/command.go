// Package analyze provides the analyze command implementation.
package analyze

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/conflictmap/internal/cmd/application"
	"github.com/agentstation/conflictmap/pkg/constants"
)

// Flags holds the analyze command flags.
type Flags struct {
	Minutes         string
	CampaignFinance string
	Threshold       float64
	PipelineConfig  string
	OutputDir       string
	Provider        string
	Model           string
	BaseURL         string
	CacheDB         string
	Politician      string
	SkipValidation  bool
	NoReports       bool
}

// NewCommand creates the analyze command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "analyze",
		GroupID: "core",
		Short:   "Match vote beneficiaries against campaign contributors",
		Args:    cobra.NoArgs,
		Long: `Analyze loads a council minutes CSV and a campaign finance CSV, scores
every beneficiary against every contributor, and keeps the pairs whose
weighted similarity reaches the threshold.

The command will:
• Normalize names (case, punctuation, business suffixes, DBA clauses)
• Drop government and academic entities
• Score pairs with several fuzzy measures plus an employer bonus
• Group matches per contributor and beneficiary, summing contributions
• Ask a language model whether each group is really the same party
• Write summary, detailed and CSV reports to --output-dir

Results represent patterns that warrant further investigation, not
determinations of wrongdoing.`,
		Example: `  conflictmap analyze --minutes minutes.csv --campaign-finance finance.csv
  conflictmap analyze --minutes m.csv --campaign-finance f.csv --threshold 80
  conflictmap analyze --minutes m.csv --campaign-finance f.csv --provider none
  conflictmap analyze --minutes m.csv --campaign-finance f.csv --cache-db verdicts.db -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return Run(cmd.Context(), app, flags, cmd.Flags().Changed("threshold"), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.Minutes, "minutes", "", "path to the council minutes CSV file")
	cmd.Flags().StringVar(&flags.CampaignFinance, "campaign-finance", "", "path to the campaign finance CSV file")
	cmd.Flags().Float64Var(&flags.Threshold, "threshold", constants.DefaultThreshold, "similarity threshold for matching (0-100)")
	cmd.Flags().StringVar(&flags.PipelineConfig, "config", "", "pipeline configuration YAML (weights, markers, AI settings)")
	cmd.Flags().StringVar(&flags.OutputDir, "output-dir", constants.DefaultOutputDir, "output directory for reports")
	cmd.Flags().StringVar(&flags.Provider, "provider", "", "reasoning provider: anthropic, openai, gemini, ollama, none")
	cmd.Flags().StringVar(&flags.Model, "model", "", "model name (default depends on provider)")
	cmd.Flags().StringVar(&flags.BaseURL, "base-url", "", "server address for ollama or OpenAI-compatible providers")
	cmd.Flags().StringVar(&flags.CacheDB, "cache-db", "", "SQLite file caching verdicts between runs")
	cmd.Flags().StringVar(&flags.Politician, "politician", "", "official the run is about (default from the minutes)")
	cmd.Flags().BoolVar(&flags.SkipValidation, "skip-validation", false, "report every candidate without AI validation")
	cmd.Flags().BoolVar(&flags.NoReports, "no-reports", false, "print results without writing report files")

	_ = cmd.MarkFlagRequired("minutes")
	_ = cmd.MarkFlagRequired("campaign-finance")

	return cmd
}
