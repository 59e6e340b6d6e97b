// Package levenshtein computes line-level edit distance with a caller-supplied
// upper bound, giving a cheap similarity metric for snapshots too large for a
// full diff.
package levenshtein

// Default bound heuristic: most real edits are localized, so the expected
// distance grows with the length difference plus a fixed slack.
const (
	DefaultSlack  = 200
	DefaultFactor = 4
)

// Result is the outcome of a bounded distance computation.
type Result struct {
	// Value is the exact distance, or the bound itself when EarlyExit is set.
	Value int `json:"value"`
	// EarlyExit reports that the distance exceeds the bound.
	EarlyExit bool `json:"early_exit"`
}

// DefaultBound returns abs(lenB-lenA)*DefaultFactor + DefaultSlack.
func DefaultBound(lenA, lenB int) int {
	return Bound(lenA, lenB, DefaultFactor, DefaultSlack)
}

// Bound returns abs(lenB-lenA)*factor + slack.
func Bound(lenA, lenB, factor, slack int) int {
	diff := lenB - lenA
	if diff < 0 {
		diff = -diff
	}

	return diff*factor + slack
}

// Context holds reusable row buffers so repeated calls do not allocate.
// A Context must not be shared between goroutines.
type Context struct {
	prev []int
	cur  []int
}

func (ctx *Context) rows(length int) ([]int, []int) {
	if cap(ctx.prev) < length {
		ctx.prev = make([]int, length)
		ctx.cur = make([]int, length)
	}

	return ctx.prev[:length], ctx.cur[:length]
}

// Lines returns the Levenshtein distance between two line sequences where
// inserting, deleting or substituting one line costs 1.
//
// Only cells within upperBound of the main diagonal are evaluated. As soon as
// every cell of a row exceeds upperBound the computation stops and reports
// EarlyExit with Value equal to upperBound.
func (ctx *Context) Lines(a, b []string, upperBound int) Result {
	bound := max(upperBound, 0)
	lenA, lenB := len(a), len(b)

	if abs(lenA-lenB) > bound {
		return Result{Value: bound, EarlyExit: true}
	}

	if lenA == 0 || lenB == 0 {
		return Result{Value: max(lenA, lenB)}
	}

	inf := bound + 1
	prev, cur := ctx.rows(lenB + 1)

	for j := range prev {
		if j <= bound {
			prev[j] = j
		} else {
			prev[j] = inf
		}
	}

	for i := 1; i <= lenA; i++ {
		lo := max(1, i-bound)
		hi := min(lenB, i+bound)

		if i <= bound {
			cur[0] = i
		} else {
			cur[0] = inf
		}

		if lo > 1 {
			cur[lo-1] = inf
		}

		rowMin := cur[0]
		line := a[i-1]

		for j := lo; j <= hi; j++ {
			best := prev[j-1]
			if line != b[j-1] {
				best++
			}

			best = min(best, prev[j]+1, cur[j-1]+1, inf)
			cur[j] = best
			rowMin = min(rowMin, best)
		}

		if hi < lenB {
			cur[hi+1] = inf
		}

		if rowMin > bound {
			return Result{Value: bound, EarlyExit: true}
		}

		prev, cur = cur, prev
	}

	if prev[lenB] > bound {
		return Result{Value: bound, EarlyExit: true}
	}

	return Result{Value: prev[lenB]}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}

	return v
}
