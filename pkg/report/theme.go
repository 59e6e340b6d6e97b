package report

import (
	"github.com/go-echarts/go-echarts/v2/opts"
)

const dataZoomEndPercent = 100

// Theme holds the page and chart colors.
type Theme struct {
	Background     string
	Surface        string
	Border         string
	TextPrimary    string
	TextMuted      string
	Accent         string
	ChartGrid      string
	ChartAxis      string
	ChartText      string
	ChartTextMuted string
	// Buckets colors series by bucket id.
	Buckets [11]string
	Match   string
	Dimmed  string
}

// DarkTheme is the default report theme.
var DarkTheme = Theme{
	Background:     "#0c0a09",
	Surface:        "#1c1917",
	Border:         "#44403c",
	TextPrimary:    "#fafaf9",
	TextMuted:      "#a8a29e",
	Accent:         "#d97706",
	ChartGrid:      "#44403c",
	ChartAxis:      "#57534e",
	ChartText:      "#d6d3d1",
	ChartTextMuted: "#a8a29e",
	Buckets: [11]string{
		"#78716c", // unreviewed.
		"#fbbf24",
		"#38bdf8",
		"#a3e635",
		"#a78bfa",
		"#f472b6",
		"#22d3ee",
		"#fb923c",
		"#818cf8",
		"#4ade80",
		"#f87171", // other.
	},
	Match:  "#fbbf24",
	Dimmed: "#57534e",
}

// chartOpts derives themed go-echarts options.
type chartOpts struct {
	theme Theme
}

func (c chartOpts) init(height string) opts.Initialization {
	return opts.Initialization{
		Width:           "100%",
		Height:          height,
		BackgroundColor: "transparent",
	}
}

func (c chartOpts) tooltip(trigger string) opts.Tooltip {
	return opts.Tooltip{Show: opts.Bool(true), Trigger: trigger}
}

func (c chartOpts) legend() opts.Legend {
	return opts.Legend{
		Show:      opts.Bool(true),
		Type:      "scroll",
		Top:       "0",
		Left:      "center",
		TextStyle: &opts.TextStyle{Color: c.theme.ChartTextMuted},
	}
}

func (c chartOpts) xAxis(name string) opts.XAxis {
	return opts.XAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: c.theme.ChartTextMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.ChartAxis}},
	}
}

func (c chartOpts) yAxis(name string) opts.YAxis {
	return opts.YAxis{
		Name:      name,
		AxisLabel: &opts.AxisLabel{Color: c.theme.ChartTextMuted},
		AxisLine:  &opts.AxisLine{LineStyle: &opts.LineStyle{Color: c.theme.ChartAxis}},
		SplitLine: &opts.SplitLine{
			Show:      opts.Bool(true),
			LineStyle: &opts.LineStyle{Color: c.theme.ChartGrid},
		},
	}
}

func (c chartOpts) grid() opts.Grid {
	return opts.Grid{
		Top:          "15%",
		Bottom:       "15%",
		Left:         "5%",
		Right:        "5%",
		ContainLabel: opts.Bool(true),
	}
}

func (c chartOpts) dataZoom() []opts.DataZoom {
	return []opts.DataZoom{
		{Type: "slider", Start: 0, End: dataZoomEndPercent},
		{Type: "inside"},
	}
}
