package analytics

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

// ErrUnknownResolution is returned by ParseResolution for an unsupported key.
var ErrUnknownResolution = errors.New("unknown time resolution")

// Resolution is the width of one time bucket.
type Resolution string

// Time resolutions.
const (
	ResolutionDay   Resolution = "day"
	ResolutionHour  Resolution = "hour"
	Resolution15Min Resolution = "15m"
	Resolution5Min  Resolution = "5m"
)

const (
	minuteKeyLayout = "2006-01-02T15:04"
	hourKeyLayout   = "2006-01-02T15"
	dayKeyLayout    = "2006-01-02"
)

// ParseResolution validates a resolution key.
func ParseResolution(s string) (Resolution, error) {
	switch Resolution(s) {
	case ResolutionDay, ResolutionHour, Resolution15Min, Resolution5Min:
		return Resolution(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownResolution, s)
	}
}

// CommitTime returns the commit's wall-clock time in the offset its date
// carries, falling back to the epoch in UTC when the date does not parse.
func CommitTime(c *dataset.Commit) time.Time {
	if t, err := time.Parse(time.RFC3339, c.Date); err == nil {
		return t
	}

	return time.Unix(c.Epoch, 0).UTC()
}

// TimeKey truncates t to res and formats it so that lexicographic order is
// chronological.
func TimeKey(t time.Time, res Resolution) string {
	switch res {
	case ResolutionHour:
		return t.Format(hourKeyLayout)
	case Resolution15Min, Resolution5Min:
		step := 15
		if res == Resolution5Min {
			step = 5
		}

		floored := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute()/step*step, 0, 0, t.Location())

		return floored.Format(minuteKeyLayout)
	default:
		return t.Format(dayKeyLayout)
	}
}

// Options selects what Aggregate sums.
type Options struct {
	Metric       dataset.Metric
	Mode         Mode
	Resolution   Resolution
	ReviewedOnly bool
	// Bucket restricts input to commits touching this bucket. Nil means all.
	Bucket *dataset.Bucket
}

// Matrix holds per-bucket series over ascending time keys. Values[b][i] is
// the weight of bucket b in time bucket Keys[i].
type Matrix struct {
	Keys   []string                      `json:"keys"`
	Values [dataset.NumBuckets][]float64 `json:"values"`
}

// At returns the weight of bucket b at key, or 0.
func (m *Matrix) At(b dataset.Bucket, key string) float64 {
	i, ok := slices.BinarySearch(m.Keys, key)
	if !ok || !b.Valid() {
		return 0
	}

	return m.Values[b][i]
}

// Total sums bucket b across all keys.
func (m *Matrix) Total(b dataset.Bucket) float64 {
	if !b.Valid() {
		return 0
	}

	var total float64
	for _, v := range m.Values[b] {
		total += v
	}

	return total
}

// Aggregate sums bucket weights of every matching view into a time matrix.
func Aggregate(views []dataset.View, opts Options) Matrix {
	sums := map[string]*BucketWeights{}

	for i := range views {
		v := &views[i]
		if !v.MatchesFilter(opts.ReviewedOnly, opts.Bucket) {
			continue
		}

		key := TimeKey(CommitTime(v.Commit), opts.Resolution)

		acc, ok := sums[key]
		if !ok {
			acc = &BucketWeights{}
			sums[key] = acc
		}

		w := Weights(v, opts.Metric, opts.Mode)
		for b := range w {
			acc[b] += w[b]
		}
	}

	m := Matrix{Keys: make([]string, 0, len(sums))}
	for key := range sums {
		m.Keys = append(m.Keys, key)
	}

	slices.Sort(m.Keys)

	for b := range m.Values {
		m.Values[b] = make([]float64, len(m.Keys))

		for i, key := range m.Keys {
			m.Values[b][i] = sums[key][b]
		}
	}

	return m
}
