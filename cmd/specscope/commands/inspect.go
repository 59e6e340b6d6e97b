package commands

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/src-d/enry/v2"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/observability"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
)

const unknownLanguage = "-"

// fileInfo describes one snapshot file.
type fileInfo struct {
	Path     string `json:"path"     yaml:"path"`
	Language string `json:"language" yaml:"language"`
	Bytes    int    `json:"bytes"    yaml:"bytes"`
	Lines    int    `json:"lines"    yaml:"lines"`
	Vendored bool   `json:"vendored" yaml:"vendored"`
}

// commitInfo is the inspect view of one commit.
type commitInfo struct {
	Idx      int                   `json:"idx"                yaml:"idx"`
	SHA      string                `json:"sha"                yaml:"sha"`
	Short    string                `json:"short"              yaml:"short"`
	Date     string                `json:"date"               yaml:"date"`
	Subject  string                `json:"subject,omitempty"  yaml:"subject,omitempty"`
	Author   string                `json:"author"             yaml:"author"`
	Totals   dataset.Totals        `json:"totals"             yaml:"totals"`
	Reviewed bool                  `json:"reviewed"           yaml:"reviewed"`
	Groups   []dataset.ReviewGroup `json:"groups,omitempty"   yaml:"groups,omitempty"`
	Files    []fileInfo            `json:"files"              yaml:"files"`
}

// datasetInfo is the inspect view of the whole corpus.
type datasetInfo struct {
	GeneratedAt string     `json:"generated_at" yaml:"generated_at"`
	ScopePaths  []string   `json:"scope_paths"  yaml:"scope_paths"`
	Commits     int        `json:"commits"      yaml:"commits"`
	Reviewed    int        `json:"reviewed"     yaml:"reviewed"`
	First       string     `json:"first"        yaml:"first"`
	Last        string     `json:"last"         yaml:"last"`
	Latest      commitInfo `json:"latest"       yaml:"latest"`
}

func newInspectCommand(flags *rootFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect [commit]",
		Short: "Summarize the dataset or one commit",
		Long: `Without an argument, summarize the corpus and its latest snapshot.
With a commit sha, short sha, or unique prefix, describe that commit.`,
		Args: cobra.MaximumNArgs(1),
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

			out := cmd.OutOrStdout()

			if len(args) == 1 {
				info, infoErr := describeCommit(e.session, args[0])
				if infoErr != nil {
					return infoErr
				}

				if outFormat != report.FormatText {
					return report.Encode(out, outFormat, info)
				}

				return printCommit(out, &info)
			}

			info, err := describeDataset(e.session)
			if err != nil {
				return err
			}

			if outFormat != report.FormatText {
				return report.Encode(out, outFormat, info)
			}

			fmt.Fprintf(out, "generated:  %s\n", info.GeneratedAt)
			fmt.Fprintf(out, "scope:      %v\n", info.ScopePaths)
			fmt.Fprintf(out, "commits:    %s (%s reviewed)\n", humanize.Comma(int64(info.Commits)), humanize.Comma(int64(info.Reviewed)))
			fmt.Fprintf(out, "span:       %s .. %s\n\n", info.First, info.Last)

			return printCommit(out, &info.Latest)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", report.FormatText,
		formatFlagHelp(report.FormatText, report.FormatJSON, report.FormatYAML))

	return cmd
}

func describeDataset(s *engine.Session) (datasetInfo, error) {
	ds := s.Dataset()
	views := s.Views()

	info := datasetInfo{
		GeneratedAt: ds.GeneratedAt,
		ScopePaths:  ds.ScopePaths,
		Commits:     len(ds.Commits),
	}

	for i := range views {
		if views[i].Reviewed {
			info.Reviewed++
		}
	}

	if len(ds.Commits) == 0 {
		return info, nil
	}

	info.First = ds.Commits[0].Date
	info.Last = ds.Commits[len(ds.Commits)-1].Date

	latest, err := describeCommit(s, ds.Commits[len(ds.Commits)-1].SHA)
	if err != nil {
		return info, err
	}

	info.Latest = latest

	return info, nil
}

func describeCommit(s *engine.Session, ref string) (commitInfo, error) {
	idx, err := s.Lookup(ref)
	if err != nil {
		return commitInfo{}, err
	}

	c, err := s.Commit(ref)
	if err != nil {
		return commitInfo{}, err
	}

	info := commitInfo{
		Idx:      idx,
		SHA:      c.SHA,
		Short:    c.Short,
		Date:     c.Date,
		Subject:  c.Subject,
		Author:   c.Author.String(),
		Totals:   c.Totals,
		Reviewed: c.Reviewed(),
		Files:    make([]fileInfo, 0, len(c.Files)),
	}

	if c.Review != nil {
		info.Groups = c.Review.Groups
	}

	for _, f := range c.Files {
		info.Files = append(info.Files, describeFile(f))
	}

	return info, nil
}

func describeFile(f dataset.FileSnapshot) fileInfo {
	content := []byte(f.Content)

	lang := enry.GetLanguage(f.Path, content)
	if lang == "" {
		lang = unknownLanguage
	}

	return fileInfo{
		Path:     f.Path,
		Language: lang,
		Bytes:    len(content),
		Lines:    len(engine.SplitLines(f.Content)),
		Vendored: enry.IsVendor(f.Path),
	}
}

func printCommit(out io.Writer, info *commitInfo) error {
	status := "unreviewed"
	if info.Reviewed {
		status = strconv.Itoa(len(info.Groups)) + " review groups"
	}

	fmt.Fprintf(out, "commit %s (#%d)\n", info.SHA, info.Idx)
	fmt.Fprintf(out, "author %s\n", info.Author)
	fmt.Fprintf(out, "date   %s\n", info.Date)

	if info.Subject != "" {
		fmt.Fprintf(out, "\n    %s\n", info.Subject)
	}

	fmt.Fprintf(out, "\n+%d -%d in %d files, %s\n\n", info.Totals.Added, info.Totals.Deleted, info.Totals.Files, status)

	tbl := report.Table()
	tbl.AppendHeader(table.Row{"path", "language", "size", "lines"})

	total := 0

	for _, f := range info.Files {
		path := f.Path
		if f.Vendored {
			path += " (vendored)"
		}

		tbl.AppendRow(table.Row{path, f.Language, humanize.Bytes(uint64(f.Bytes)), f.Lines})

		total += f.Bytes
	}

	tbl.AppendFooter(table.Row{strconv.Itoa(len(info.Files)) + " files", "", humanize.Bytes(uint64(total)), ""})

	_, err := fmt.Fprintln(out, tbl.Render())
	if err != nil {
		return fmt.Errorf("write inspect: %w", err)
	}

	return nil
}
