package report

import (
	"fmt"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

const valueDigits = 2

// Table returns a borderless go-pretty writer styled like every table in
// the CLI.
func Table() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Format.Header = text.FormatDefault
	tbl.Style().Format.Footer = text.FormatDefault

	return tbl
}

// FormatValue renders a magnitude for display. Byte metrics use IEC units.
func FormatValue(metric dataset.Metric, v float64) string {
	if metric == dataset.MetricPatchBytes {
		return humanize.IBytes(uint64(max(v, 0)))
	}

	return humanize.CommafWithDigits(v, valueDigits)
}

// BucketTable renders one row per time key and one column per bucket that
// carries weight, with a totals footer.
func BucketTable(b *Buckets) string {
	active := make([]*BucketSeries, 0, len(b.Buckets))

	for i := range b.Buckets {
		if b.Buckets[i].Total != 0 {
			active = append(active, &b.Buckets[i])
		}
	}

	tbl := Table()

	header := table.Row{string(b.Resolution)}
	for _, s := range active {
		header = append(header, s.Label())
	}

	tbl.AppendHeader(header)

	for i, key := range b.Keys {
		row := table.Row{key}
		for _, s := range active {
			row = append(row, FormatValue(b.Metric, s.Values[i]))
		}

		tbl.AppendRow(row)
	}

	footer := table.Row{"total"}
	for _, s := range active {
		footer = append(footer, FormatValue(b.Metric, s.Total))
	}

	tbl.AppendFooter(footer)

	return tbl.Render()
}

// TimelineTable renders one row per commit. The selected commit, if any, is
// marked with '>'.
func TimelineTable(t *Timeline) string {
	tbl := Table()
	tbl.AppendHeader(table.Row{"", "#", "commit", "date", "value", "reviewed", "match"})

	for i := range t.Entries {
		e := &t.Entries[i]

		marker := ""
		if e.Idx == t.Selected {
			marker = ">"
		}

		tbl.AppendRow(table.Row{
			marker,
			strconv.Itoa(e.Idx),
			e.Short,
			e.Date,
			strconv.FormatFloat(e.Value, 'f', 3, 64),
			yesNo(e.Reviewed),
			yesNo(e.MatchesBucketFilter),
		})
	}

	tbl.AppendFooter(table.Row{"", "", humanize.Comma(int64(len(t.Entries))) + " commits"})

	out := tbl.Render()

	if sum := t.Summary; sum.Commits > 0 {
		out += fmt.Sprintf("\n%s over %s matching: mean %s, median %s, p95 %s, peak %s",
			t.Metric, humanize.Comma(int64(sum.Commits)),
			FormatValue(t.Metric, sum.Mean), FormatValue(t.Metric, sum.Median),
			FormatValue(t.Metric, sum.P95), FormatValue(t.Metric, sum.Peak))
	}

	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}

	return "no"
}
