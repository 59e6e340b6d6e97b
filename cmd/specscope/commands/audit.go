package commands

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
)

// ErrAuditFindings is returned by audit --strict when any finding exists.
var ErrAuditFindings = errors.New("dataset has integrity findings")

func newAuditCommand(flags *rootFlags) *cobra.Command {
	var (
		format string
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Check dataset integrity",
		Long: `Check the invariants the engine relies on: ascending epochs, epoch and
date agreement, unique identifiers, totals equal to the numstat sums, and
numstat agreeing with the patch. Findings never block loading.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			outFormat, err := validateFormat(format, report.FormatText, report.FormatJSON, report.FormatYAML)
			if err != nil {
				return err
			}

			e, err := flags.open(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			findings := e.session.Audit()
			out := cmd.OutOrStdout()

			if outFormat != report.FormatText {
				if findings == nil {
					findings = []dataset.Finding{}
				}

				err = report.Encode(out, outFormat, findings)
			} else {
				printFindings(cmd, findings, len(e.session.Views()))
			}

			if err != nil {
				return err
			}

			if strict && len(findings) > 0 {
				return fmt.Errorf("%w: %d", ErrAuditFindings, len(findings))
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText,
		formatFlagHelp(report.FormatText, report.FormatJSON, report.FormatYAML))
	cmd.Flags().BoolVar(&strict, "strict", false, "exit non-zero when any finding is reported")

	return cmd
}

func findingColor(kind dataset.FindingKind) *color.Color {
	switch kind {
	case dataset.FindingDuplicateSHA, dataset.FindingDuplicateShort, dataset.FindingEpochOrder:
		return color.New(color.FgRed)
	case dataset.FindingPatchStrict, dataset.FindingDateUnparseable:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

func printFindings(cmd *cobra.Command, findings []dataset.Finding, commits int) {
	out := cmd.OutOrStdout()

	if len(findings) == 0 {
		color.New(color.FgGreen).Fprintf(out, "dataset is consistent (%d commits)\n", commits)

		return
	}

	for _, f := range findings {
		findingColor(f.Kind).Fprintf(out, "%-18s", f.Kind)
		fmt.Fprintf(out, " #%d %s: %s\n", f.CommitIdx, f.Short, f.Message)
	}

	color.New(color.FgYellow).Fprintf(out, "%d findings in %d commits\n", len(findings), commits)
}
