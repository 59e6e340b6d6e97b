// Package timeline builds the normalized per-commit magnitude series that
// drives a history sparkline, plus the scrubber and autoplay mappings.
package timeline

import (
	"math"
	"time"

	"github.com/Sumatoshi-tech/specscope/pkg/alg/stats"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

// Point is one commit's entry in the series.
type Point struct {
	Idx                 int     `json:"idx"`
	Value               float64 `json:"value"`
	Reviewed            bool    `json:"reviewed"`
	MatchesBucketFilter bool    `json:"matches_bucket_filter"`
}

// Filter narrows which commits count toward normalization.
type Filter struct {
	ReviewedOnly bool
	Bucket       *dataset.Bucket
}

// Build returns one Point per view. Values of matching commits are scaled
// to [0, 1] against the largest matching magnitude; commits outside the
// filter get 0.
func Build(views []dataset.View, metric dataset.Metric, filter Filter) []Point {
	points := make([]Point, len(views))
	peak := 0.0

	for i := range views {
		v := &views[i]
		points[i] = Point{
			Idx:                 v.Idx,
			Reviewed:            v.Reviewed,
			MatchesBucketFilter: v.MatchesFilter(filter.ReviewedOnly, filter.Bucket),
		}

		if points[i].MatchesBucketFilter {
			points[i].Value = v.Magnitude.Of(metric)
			peak = max(peak, points[i].Value)
		}
	}

	if peak <= 0 {
		for i := range points {
			points[i].Value = 0
		}

		return points
	}

	for i := range points {
		points[i].Value /= peak
	}

	return points
}

// PositionToCommitIndex maps a scrubber fraction to the nearest commit
// index in [0, n-1]. It returns 0 when n is 0.
func PositionToCommitIndex(fraction float64, n int) int {
	if n <= 1 || math.IsNaN(fraction) {
		return 0
	}

	return int(math.Round(stats.Clamp(fraction, 0, 1) * float64(n-1)))
}

// CommitIndexToPosition maps a commit index to its scrubber fraction.
func CommitIndexToPosition(idx, n int) float64 {
	if n <= 1 {
		return 0
	}

	return float64(stats.Clamp(idx, 0, n-1)) / float64(n-1)
}

// Speed is an autoplay multiplier paired with its advance interval.
type Speed struct {
	Multiplier float64       `json:"multiplier"`
	Interval   time.Duration `json:"interval"`
}

// Speeds lists the supported playback multipliers in ascending order.
var Speeds = []Speed{
	{Multiplier: 0.5, Interval: 2000 * time.Millisecond},
	{Multiplier: 1, Interval: 1000 * time.Millisecond},
	{Multiplier: 2, Interval: 500 * time.Millisecond},
	{Multiplier: 4, Interval: 250 * time.Millisecond},
	{Multiplier: 8, Interval: 125 * time.Millisecond},
}

// PlaybackInterval returns the advance interval for multiplier, snapping to
// the nearest supported speed.
func PlaybackInterval(multiplier float64) time.Duration {
	best := Speeds[1]
	if math.IsNaN(multiplier) {
		return best.Interval
	}

	bestDist := math.Inf(1)

	for _, s := range Speeds {
		if d := math.Abs(s.Multiplier - multiplier); d < bestDist {
			best, bestDist = s, d
		}
	}

	return best.Interval
}
