package commands

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/hashstate"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
)

// ErrUnknownDocument is returned for a schema name no command emits.
var ErrUnknownDocument = errors.New("unknown document")

// documents maps each structured output to the value it encodes.
var documents = map[string]any{
	"audit":    []dataset.Finding{},
	"buckets":  report.Buckets{},
	"commit":   commitInfo{},
	"compare":  engine.Comparison{},
	"inspect":  datasetInfo{},
	"link":     hashstate.State{},
	"search":   engine.SearchResult{},
	"timeline": report.Timeline{},
}

func documentNames() []string {
	names := make([]string, 0, len(documents))
	for name := range documents {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}

func newSchemaCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema [document]",
		Short: "Print the JSON schema of a command's output",
		Long: `Print the JSON schema describing the --format json output of a command.
Without an argument, list the available documents: ` + strings.Join(documentNames(), ", ") + ".",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				for _, name := range documentNames() {
					fmt.Fprintln(out, name)
				}

				return nil
			}

			v, ok := documents[args[0]]
			if !ok {
				return fmt.Errorf("%w %q: want one of %s", ErrUnknownDocument, args[0], strings.Join(documentNames(), ", "))
			}

			return report.Encode(out, report.FormatJSON, report.SchemaFor("specscope "+args[0], v))
		},
	}
}
