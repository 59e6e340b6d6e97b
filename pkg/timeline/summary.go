package timeline

import (
	"slices"

	"github.com/Sumatoshi-tech/specscope/pkg/alg/stats"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

// Summary describes the raw magnitudes of the commits passing a filter.
// Spread is the population standard deviation.
type Summary struct {
	Commits int     `json:"commits" yaml:"commits"`
	Total   float64 `json:"total"   yaml:"total"`
	Mean    float64 `json:"mean"    yaml:"mean"`
	Spread  float64 `json:"spread"  yaml:"spread"`
	Median  float64 `json:"median"  yaml:"median"`
	P95     float64 `json:"p95"     yaml:"p95"`
	Peak    float64 `json:"peak"    yaml:"peak"`
}

// Summarize aggregates the unscaled metric over the views matching filter.
// An empty selection yields the zero Summary.
func Summarize(views []dataset.View, metric dataset.Metric, filter Filter) Summary {
	values := make([]float64, 0, len(views))

	for i := range views {
		if views[i].MatchesFilter(filter.ReviewedOnly, filter.Bucket) {
			values = append(values, views[i].Magnitude.Of(metric))
		}
	}

	if len(values) == 0 {
		return Summary{}
	}

	slices.Sort(values)

	mean, spread := stats.MeanStdDev(values)

	return Summary{
		Commits: len(values),
		Total:   stats.Sum(values),
		Mean:    mean,
		Spread:  spread,
		Median:  stats.SortedQuantile(values, stats.QuantileMedian),
		P95:     stats.SortedQuantile(values, stats.QuantileP95),
		Peak:    stats.Max(values),
	}
}
