// Package report renders bucket and timeline analytics as HTML charts,
// terminal tables, or JSON/YAML documents.
package report

import (
	"github.com/Sumatoshi-tech/specscope/pkg/analytics"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/timeline"
)

// BucketSeries is one bucket row of a bucket report.
type BucketSeries struct {
	ID         int       `json:"id"                   yaml:"id"`
	Definition string    `json:"definition,omitempty" yaml:"definition,omitempty"`
	Values     []float64 `json:"values"               yaml:"values"`
	Total      float64   `json:"total"                yaml:"total"`
}

// Buckets is the presentation form of an analytics.Matrix.
type Buckets struct {
	Metric     dataset.Metric       `json:"metric"     yaml:"metric"`
	Mode       analytics.Mode       `json:"mode"       yaml:"mode"`
	Resolution analytics.Resolution `json:"resolution" yaml:"resolution"`
	Keys       []string             `json:"keys"       yaml:"keys"`
	Buckets    []BucketSeries       `json:"buckets"    yaml:"buckets"`
}

// NewBuckets pairs every bucket series of m with its definition from ds.
func NewBuckets(m *analytics.Matrix, ds *dataset.Dataset, o analytics.Options) Buckets {
	out := Buckets{
		Metric:     o.Metric,
		Mode:       o.Mode,
		Resolution: o.Resolution,
		Keys:       m.Keys,
		Buckets:    make([]BucketSeries, 0, dataset.NumBuckets),
	}

	for _, b := range dataset.AllBuckets() {
		series := BucketSeries{ID: int(b), Values: m.Values[b], Total: m.Total(b)}
		if ds != nil {
			series.Definition = ds.Definition(b)
		}

		out.Buckets = append(out.Buckets, series)
	}

	return out
}

// Label names a bucket series for legends and table headers.
func (s *BucketSeries) Label() string {
	if s.Definition == "" {
		return dataset.Bucket(s.ID).String()
	}

	return dataset.Bucket(s.ID).String() + " " + s.Definition
}

// TimelineEntry is one commit on the timeline.
type TimelineEntry struct {
	timeline.Point `yaml:",inline"`

	Short string `json:"short" yaml:"short"`
	Date  string `json:"date"  yaml:"date"`
}

// Timeline is the presentation form of a timeline series.
type Timeline struct {
	Metric  dataset.Metric  `json:"metric"   yaml:"metric"`
	Entries []TimelineEntry `json:"entries"  yaml:"entries"`
	// Selected is the commit index a slider position resolved to, or -1.
	Selected int              `json:"selected" yaml:"selected"`
	Summary  timeline.Summary `json:"summary"  yaml:"summary"`
}

// NewTimeline labels each point with its commit. views and points must be
// parallel, as returned by timeline.Build.
func NewTimeline(views []dataset.View, points []timeline.Point, metric dataset.Metric) Timeline {
	out := Timeline{Metric: metric, Entries: make([]TimelineEntry, len(points)), Selected: -1}

	for i, p := range points {
		out.Entries[i] = TimelineEntry{Point: p}

		if i < len(views) && views[i].Commit != nil {
			out.Entries[i].Short = views[i].Commit.Short
			out.Entries[i].Date = views[i].Commit.Date
		}
	}

	return out
}
