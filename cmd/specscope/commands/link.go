package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/hashstate"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
)

func newLinkCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Encode or decode a view-state fragment",
	}

	cmd.AddCommand(newLinkEncodeCommand(), newLinkDecodeCommand())

	return cmd
}

func newLinkEncodeCommand() *cobra.Command {
	var (
		state  = hashstate.Default()
		bucket int
	)

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Print the fragment for a view state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("bucket") {
				state.Bucket = &bucket
			}

			if err := state.Validate(); err != nil {
				return fmt.Errorf("invalid link state: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "#%s\n", hashstate.Encode(state))

			return nil
		},
	}

	cmd.Flags().StringVar(&state.Commit, "commit", "", "selected commit")
	cmd.Flags().StringVar(&state.Tab, "tab", state.Tab, "tab: diff, document, search, buckets, timeline")
	cmd.Flags().StringVar(&state.File, "file", "", "selected file")
	cmd.Flags().StringVar(&state.DiffMode, "diff-mode", state.DiffMode, "diff layout: unified or split")
	cmd.Flags().StringVar(&state.Query, "query", "", "search text")
	cmd.Flags().BoolVar(&state.ReviewedOnly, "reviewed-only", false, "reviewed-only filter")
	cmd.Flags().IntVar(&bucket, "bucket", 0, "bucket filter (0..10)")

	return cmd
}

func newLinkDecodeCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "decode <fragment>",
		Short: "Print the view state a fragment describes",
		Long: `Decode a fragment, with or without its leading '#'. Unknown keys are
ignored and invalid values fall back to their defaults.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outFormat, err := validateFormat(format, report.FormatJSON, report.FormatYAML)
			if err != nil {
				return err
			}

			return report.Encode(cmd.OutOrStdout(), outFormat, hashstate.Decode(args[0]))
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatJSON,
		formatFlagHelp(report.FormatJSON, report.FormatYAML))

	return cmd
}
