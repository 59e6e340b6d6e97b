package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/Sumatoshi-tech/specscope/pkg/analytics"
)

const (
	bucketChartHeight   = "520px"
	timelineChartHeight = "360px"
	stackName           = "buckets"
	lineWidth           = 2
	matchSymbolSize     = 8
)

// BucketChart builds a stacked bar chart with one series per bucket that
// carries any weight.
func BucketChart(b *Buckets, theme Theme) *charts.Bar {
	co := chartOpts{theme: theme}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(co.init(bucketChartHeight)),
		charts.WithTooltipOpts(co.tooltip("axis")),
		charts.WithLegendOpts(co.legend()),
		charts.WithDataZoomOpts(co.dataZoom()...),
		charts.WithXAxisOpts(co.xAxis(string(b.Resolution))),
		charts.WithYAxisOpts(co.yAxis(string(b.Metric))),
		charts.WithGridOpts(co.grid()),
	)
	bar.SetXAxis(b.Keys)

	for i := range b.Buckets {
		series := &b.Buckets[i]
		if series.Total == 0 {
			continue
		}

		data := make([]opts.BarData, len(series.Values))
		for j, v := range series.Values {
			data[j] = opts.BarData{Value: v}
		}

		bar.AddSeries(series.Label(), data,
			charts.WithBarChartOpts(opts.BarChart{Stack: stackName}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: theme.Buckets[series.ID]}),
		)
	}

	return bar
}

// TimelineChart builds the normalized magnitude line. Commits passing the
// filter are drawn as markers on a second series.
func TimelineChart(t *Timeline, theme Theme) *charts.Line {
	co := chartOpts{theme: theme}

	labels := make([]string, len(t.Entries))
	values := make([]opts.LineData, len(t.Entries))
	matches := make([]opts.LineData, len(t.Entries))

	for i := range t.Entries {
		e := &t.Entries[i]
		labels[i] = e.Short
		values[i] = opts.LineData{Value: e.Value}

		if e.MatchesBucketFilter {
			matches[i] = opts.LineData{Value: e.Value, Symbol: "circle", SymbolSize: matchSymbolSize}
		} else {
			matches[i] = opts.LineData{Value: "-"}
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(co.init(timelineChartHeight)),
		charts.WithTooltipOpts(co.tooltip("axis")),
		charts.WithLegendOpts(co.legend()),
		charts.WithDataZoomOpts(co.dataZoom()...),
		charts.WithXAxisOpts(co.xAxis("commit")),
		charts.WithYAxisOpts(co.yAxis(string(t.Metric)+" (normalized)")),
		charts.WithGridOpts(co.grid()),
	)
	line.SetXAxis(labels)
	line.AddSeries("magnitude", values,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: theme.Dimmed}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Color: theme.Dimmed}),
	)
	line.AddSeries("matching", matches,
		charts.WithItemStyleOpts(opts.ItemStyle{Color: theme.Match}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: 0, Opacity: opts.Float(0)}),
	)

	return line
}

// RenderBuckets writes a standalone HTML page with the bucket chart.
func RenderBuckets(w io.Writer, b *Buckets) error {
	page := NewPage("Change buckets", fmt.Sprintf("%s by %s, %s attribution", b.Metric, b.Resolution, b.Mode))

	notes := []string{"Each bar stacks the weight of every bucket in that time window."}
	if b.Mode == analytics.ModeHard {
		notes = append(notes, "Hard mode credits a group's full magnitude to each of its buckets, so stacks can exceed the true total.")
	}

	page.Add(Section{
		Title:    "Buckets over time",
		Subtitle: fmt.Sprintf("%d time windows", len(b.Keys)),
		Notes:    notes,
		Chart:    BucketChart(b, page.Theme),
	})

	return page.Render(w)
}

// RenderTimeline writes a standalone HTML page with the timeline chart.
func RenderTimeline(w io.Writer, t *Timeline) error {
	page := NewPage("Commit timeline", fmt.Sprintf("%s per commit, scaled to the largest matching commit", t.Metric))

	page.Add(Section{
		Title:    "Timeline",
		Subtitle: fmt.Sprintf("%d commits", len(t.Entries)),
		Chart:    TimelineChart(t, page.Theme),
	})

	return page.Render(w)
}
