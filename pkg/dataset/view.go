package dataset

import (
	"errors"
	"fmt"
)

// ErrUnknownMetric is returned by ParseMetric for an unsupported key.
var ErrUnknownMetric = errors.New("unknown metric")

// Metric selects one per-commit magnitude.
type Metric string

// Supported metrics.
const (
	MetricGroups     Metric = "groups"
	MetricLines      Metric = "lines"
	MetricPatchBytes Metric = "patchBytes"
)

// ParseMetric validates a metric key.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricGroups, MetricLines, MetricPatchBytes:
		return Metric(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
	}
}

// Magnitude holds the per-commit sizes used by analytics.
type Magnitude struct {
	// Groups is the number of review groups, or 1 when the commit is
	// unreviewed or reviewed without groups.
	Groups int `json:"groups"`
	// Lines is totals.added + totals.deleted.
	Lines int `json:"lines"`
	// PatchBytes is the byte length of the patch text.
	PatchBytes int `json:"patchBytes"`
}

// Of returns the magnitude for metric m. Unknown metrics yield 0.
func (g Magnitude) Of(m Metric) float64 {
	switch m {
	case MetricGroups:
		return float64(g.Groups)
	case MetricLines:
		return float64(g.Lines)
	case MetricPatchBytes:
		return float64(g.PatchBytes)
	default:
		return 0
	}
}

// View is the read-only decoration of a Commit computed once at load.
type View struct {
	Idx        int        `json:"idx"`
	Commit     *Commit    `json:"-"`
	Reviewed   bool       `json:"reviewed"`
	BucketMask BucketMask `json:"bucketMask"`
	Magnitude  Magnitude  `json:"magnitude"`
}

// NewView derives the view of c at position idx.
func NewView(idx int, c *Commit) View {
	v := View{
		Idx:      idx,
		Commit:   c,
		Reviewed: c.Reviewed(),
		Magnitude: Magnitude{
			Lines:      c.Totals.Added + c.Totals.Deleted,
			PatchBytes: len(c.Patch),
		},
	}

	if !v.Reviewed {
		v.BucketMask = v.BucketMask.With(BucketUnreviewed)
		v.Magnitude.Groups = 1

		return v
	}

	if len(c.Review.Groups) == 0 {
		v.BucketMask = v.BucketMask.With(BucketOther)
		v.Magnitude.Groups = 1

		return v
	}

	v.Magnitude.Groups = len(c.Review.Groups)

	for i := range c.Review.Groups {
		for _, b := range GroupBuckets(&c.Review.Groups[i]) {
			v.BucketMask = v.BucketMask.With(b)
		}
	}

	return v
}

// BuildViews derives one View per commit in dataset order.
func BuildViews(ds *Dataset) []View {
	views := make([]View, len(ds.Commits))

	for i := range ds.Commits {
		views[i] = NewView(i, &ds.Commits[i])
	}

	return views
}

// MatchesFilter reports whether the view passes the reviewed-only and bucket
// filters. A nil bucket means no bucket filter.
func (v *View) MatchesFilter(reviewedOnly bool, bucket *Bucket) bool {
	if reviewedOnly && !v.Reviewed {
		return false
	}

	if bucket != nil && !v.BucketMask.Has(*bucket) {
		return false
	}

	return true
}
