package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/linediff"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
)

const defaultDiffContext = 3

func newCompareCommand(flags *rootFlags) *cobra.Command {
	var (
		format       string
		file         string
		contextLines int
	)

	cmd := &cobra.Command{
		Use:   "compare <from> <to>",
		Short: "Diff two commits",
		Long: `Compare two commits line by line, over the whole snapshot or one file.
When the inputs exceed the diff limit an edit distance is reported instead,
and when even that is out of bounds the comparison is refused with a
suggestion for a narrower request.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := validateFormat(format, report.FormatText, report.FormatJSON, report.FormatYAML)
			if err != nil {
				return err
			}

			e, err := flags.open(cmd, observability.ModeCLI)
			if err != nil {
				return err
			}
			defer e.close()

			cmp, err := e.session.Compare(cmd.Context(), args[0], args[1], file)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if outFormat != report.FormatText {
				return report.Encode(out, outFormat, cmp)
			}

			printComparison(out, &cmp, contextLines)

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText,
		formatFlagHelp(report.FormatText, report.FormatJSON, report.FormatYAML))
	cmd.Flags().StringVar(&file, "file", "", "compare only this file")
	cmd.Flags().IntVarP(&contextLines, "context", "U", defaultDiffContext, "unchanged lines shown around each change")

	return cmd
}

func printComparison(out io.Writer, cmp *engine.Comparison, contextLines int) {
	header := color.New(color.Bold)

	scope := "snapshot"
	if cmp.Scope != "" {
		scope = cmp.Scope
	}

	header.Fprintf(out, "%s..%s %s\n", cmp.From, cmp.To, scope)

	switch cmp.Mode {
	case engine.ModeDiff:
		printOps(out, cmp.Ops, contextLines)
		fmt.Fprintf(out, "%d added, %d deleted, %d unchanged\n", cmp.Stats.Added, cmp.Stats.Deleted, cmp.Stats.Equal)
	case engine.ModeDistance:
		fmt.Fprintf(out, "diff skipped for %d lines; edit distance %d\n", cmp.Lines, cmp.Distance.Value)
	default:
		color.New(color.FgYellow).Fprintln(out, "comparison refused")
	}

	if len(cmp.ChangedFiles) > 0 && cmp.Scope == "" {
		fmt.Fprintf(out, "changed files: %v\n", cmp.ChangedFiles)
	}

	if cmp.Suggestion != "" {
		color.New(color.FgCyan).Fprintln(out, cmp.Suggestion)
	}
}

// printOps writes a colored line diff, collapsing unchanged runs that are
// more than contextLines lines away from any change.
func printOps(out io.Writer, ops []linediff.Op, contextLines int) {
	contextLines = max(contextLines, 0)

	added := color.New(color.FgGreen)
	deleted := color.New(color.FgRed)
	skipped := color.New(color.FgCyan)

	near := make([]bool, len(ops))

	for i, op := range ops {
		if op.Kind == linediff.Equal {
			continue
		}

		for j := max(i-contextLines, 0); j <= min(i+contextLines, len(ops)-1); j++ {
			near[j] = true
		}
	}

	hidden := 0

	flush := func() {
		if hidden > 0 {
			skipped.Fprintf(out, "@@ %d unchanged lines @@\n", hidden)

			hidden = 0
		}
	}

	for i, op := range ops {
		switch {
		case op.Kind == linediff.Add:
			flush()
			added.Fprintf(out, "+%s\n", op.Text)
		case op.Kind == linediff.Del:
			flush()
			deleted.Fprintf(out, "-%s\n", op.Text)
		case near[i]:
			flush()
			fmt.Fprintf(out, " %s\n", op.Text)
		default:
			hidden++
		}
	}

	flush()
}
