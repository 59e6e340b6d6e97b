package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
	"github.com/Sumatoshi-tech/specscope/pkg/sched"
	"github.com/Sumatoshi-tech/specscope/pkg/search"
)

func newSearchCommand(flags *rootFlags) *cobra.Command {
	var (
		format string
		commit string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Find text across commits",
		Long: `Search file snapshots case-insensitively. Multi-word queries match lines
in documents containing every word. With --commit only that commit is scanned
and no index is built.`,
		Args: cobra.MinimumNArgs(1),
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

			req := engine.SearchRequest{
				Query: strings.Join(args, " "),
				Scope: engine.ScopeAll,
				Limit: limit,
			}

			if commit != "" {
				req.Scope = engine.ScopeCommit
				req.Commit = commit
			} else {
				buildErr := e.session.BuildIndex(cmd.Context(), sched.NewPaced(e.cfg.Index.Rate))
				if buildErr != nil {
					return buildErr
				}
			}

			res, err := e.session.Search(cmd.Context(), req)
			if err != nil {
				return err
			}

			e.logger().Debug("search finished",
				"query", req.Query, "scope", res.Scope, "hits", len(res.Hits), "skipped", res.Progress.Skipped)

			out := cmd.OutOrStdout()

			if outFormat != report.FormatText {
				return report.Encode(out, outFormat, res)
			}

			printHits(out, res.Hits)

			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText,
		formatFlagHelp(report.FormatText, report.FormatJSON, report.FormatYAML))
	cmd.Flags().StringVar(&commit, "commit", "", "search only this commit")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum hits (default search.default_limit)")

	return cmd
}

func printHits(out io.Writer, hits []search.Hit) {
	if len(hits) == 0 {
		fmt.Fprintln(out, "no matches")

		return
	}

	location := color.New(color.FgCyan)
	match := color.New(color.FgYellow, color.Bold)

	for _, h := range hits {
		location.Fprintf(out, "%s %s:%d", h.CommitShort, h.FilePath, h.LineNo)
		fmt.Fprint(out, "  ")

		end := min(h.MatchOffset+h.MatchLength, len(h.Snippet))
		start := min(h.MatchOffset, end)

		fmt.Fprint(out, h.Snippet[:start])
		match.Fprint(out, h.Snippet[start:end])
		fmt.Fprintln(out, h.Snippet[end:])
	}
}
