// Package analytics attributes per-commit magnitudes to taxonomy buckets and
// aggregates them into time-bucketed series.
package analytics

import (
	"errors"
	"fmt"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

// ErrUnknownMode is returned by ParseMode for an unsupported mode.
var ErrUnknownMode = errors.New("unknown weighting mode")

// Mode selects how a group's share is spread over its buckets.
type Mode string

// Weighting modes.
const (
	// ModeSoft divides a group's share evenly across its buckets.
	ModeSoft Mode = "soft"
	// ModeHard credits a group's entire share to each of its buckets, so
	// bucket totals can exceed the commit magnitude.
	ModeHard Mode = "hard"
)

// ParseMode validates a mode key.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSoft, ModeHard:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// BucketWeights maps bucket id to weight.
type BucketWeights [dataset.NumBuckets]float64

// Sum totals the weights across every bucket.
func (w *BucketWeights) Sum() float64 {
	var total float64
	for _, v := range w {
		total += v
	}

	return total
}

// Weights attributes the view's magnitude under metric to buckets. A
// reviewed commit without groups credits its whole magnitude to
// BucketOther, the same as a group without buckets.
func Weights(v *dataset.View, metric dataset.Metric, mode Mode) BucketWeights {
	var w BucketWeights

	magnitude := v.Magnitude.Of(metric)

	if !v.Reviewed {
		w[dataset.BucketUnreviewed] = magnitude

		return w
	}

	groups := v.Commit.Review.Groups
	if len(groups) == 0 {
		w[dataset.BucketOther] = magnitude

		return w
	}

	share := magnitude / float64(len(groups))
	if metric == dataset.MetricGroups {
		share = 1
	}

	for i := range groups {
		buckets := dataset.GroupBuckets(&groups[i])

		per := share
		if mode == ModeSoft {
			per = share / float64(len(buckets))
		}

		for _, b := range buckets {
			w[b] += per
		}
	}

	return w
}
