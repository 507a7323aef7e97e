// Package score provides the score command implementation.
package score

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/agentstation/conflictmap"
	"github.com/agentstation/conflictmap/internal/cmd/application"
	"github.com/agentstation/conflictmap/internal/cmd/output"
	"github.com/agentstation/conflictmap/pkg/config"
	"github.com/agentstation/conflictmap/pkg/conflicts"
)

// Flags holds the score command flags.
type Flags struct {
	Employer       string
	PipelineConfig string
}

// NewCommand creates the score command using app context.
func NewCommand(app application.Application) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "score BENEFICIARY CONTRIBUTOR",
		GroupID: "core",
		Short:   "Show how two names score against each other",
		Args:    cobra.ExactArgs(2),
		Long: `Score normalizes both names and prints every similarity measure, the
employer bonus and the weighted composite exactly as analyze computes them.
When the contributor's name misses the threshold, the employer is scored as
an entity of its own and the "Matched On" row says which side won.`,
		Example: `  conflictmap score "ABC Services Inc." "ABC Services"
  conflictmap score "Bob Jones of XYZ Enterprises" "Jones John" --employer "XYZ Enterprises"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return Run(app, flags, args[0], args[1], cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&flags.Employer, "employer", "", "contributor's employer")
	cmd.Flags().StringVar(&flags.PipelineConfig, "config", "", "pipeline configuration YAML")

	return cmd
}

// Run scores beneficiary against contributor and writes the breakdown to w.
func Run(app application.Application, flags *Flags, beneficiary, contributor string, w io.Writer) error {
	var opts []conflictmap.Option
	if flags.PipelineConfig != "" {
		cfg, err := config.Load(flags.PipelineConfig)
		if err != nil {
			return err
		}
		opts = append(opts, conflictmap.WithConfig(cfg))
	}

	analyzer, err := app.Analyzer(opts...)
	if err != nil {
		return err
	}

	bd, err := analyzer.Score(beneficiary, contributor, flags.Employer)
	if err != nil {
		return err
	}

	format := output.DetectFormat(app.OutputFormat())
	if err := output.Write(w, format, output.BreakdownData(bd), bd); err != nil {
		return err
	}
	if format == output.FormatTable {
		fmt.Fprintln(w, verdictLine(bd, analyzer.Config().Threshold))
	}
	return nil
}

func verdictLine(bd conflicts.SimilarityBreakdown, threshold float64) string {
	if bd.WeightedComposite >= threshold {
		return fmt.Sprintf("%.2f meets the threshold of %.1f", bd.WeightedComposite, threshold)
	}
	return fmt.Sprintf("%.2f is below the threshold of %.1f", bd.WeightedComposite, threshold)
}
