// Package linediff computes minimal line-level edit scripts between two
// snapshots of a document.
package linediff

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// DefaultMaxLines is the combined line count above which Lines refuses to
// run the diff. Cost is O(N*D), so whole-corpus comparisons need a cap.
const DefaultMaxLines = 8000

// Kind classifies a diff operation.
type Kind string

// Operation kinds.
const (
	Equal Kind = "equal"
	Add   Kind = "add"
	Del   Kind = "del"
)

// Op is one line of an edit script.
type Op struct {
	Kind Kind   `json:"kind"`
	Text string `json:"text"`
}

// Result is the outcome of a guarded diff. When SizeExceeded is set Ops is
// nil and the caller should narrow the scope or fall back to a distance metric.
type Result struct {
	Ops          []Op `json:"ops,omitempty"`
	SizeExceeded bool `json:"size_exceeded,omitempty"`
	// Lines is len(a)+len(b), reported so callers can explain a refusal.
	Lines int `json:"lines"`
	Limit int `json:"limit"`
}

// Stats counts the operations of an edit script by kind.
type Stats struct {
	Equal   int `json:"equal"`
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
}

// Lines diffs a and b with the DefaultMaxLines guard.
func Lines(a, b []string) Result {
	return LinesWithLimit(a, b, DefaultMaxLines)
}

// LinesWithLimit returns the shortest edit script turning a into b, or a
// SizeExceeded result when len(a)+len(b) exceeds limit. A non-positive limit
// disables the guard.
//
// Concatenating the text of Equal and Del ops reproduces a; concatenating
// Equal and Add ops reproduces b.
func LinesWithLimit(a, b []string, limit int) Result {
	total := len(a) + len(b)
	res := Result{Lines: total, Limit: limit}

	if limit > 0 && total > limit {
		res.SizeExceeded = true

		return res
	}

	res.Ops = diff(a, b)

	return res
}

// Count tallies ops by kind.
func Count(ops []Op) Stats {
	var st Stats

	for _, op := range ops {
		switch op.Kind {
		case Equal:
			st.Equal++
		case Add:
			st.Added++
		case Del:
			st.Deleted++
		}
	}

	return st
}

// diff interns every distinct line as one rune, runs the Myers bisection on
// the rune sequences, then expands each rune back to its line.
func diff(a, b []string) []Op {
	lines, src, dst := intern(a, b)

	dmp := diffmatchpatch.New()
	// A zero timeout disables the half-match shortcut, keeping the script minimal.
	dmp.DiffTimeout = 0

	diffs := dmp.DiffMainRunes(src, dst, false)

	ops := make([]Op, 0, max(len(a), len(b)))

	for _, d := range diffs {
		kind := kindOf(d.Type)

		for _, r := range d.Text {
			ops = append(ops, Op{Kind: kind, Text: lines[runeIndex(r)]})
		}
	}

	return ops
}

// runeBase keeps interned runes clear of NUL.
const (
	runeBase         = 1
	surrogateMin     = 0xD800
	surrogateSpan    = 0x800
	maxInternedRunes = 0x10FFFF - surrogateSpan - runeBase
)

func intern(a, b []string) ([]string, []rune, []rune) {
	index := make(map[string]int, len(a)+len(b))
	lines := make([]string, 0, len(a)+len(b))

	encode := func(seq []string) []rune {
		out := make([]rune, len(seq))

		for i, line := range seq {
			id, ok := index[line]
			if !ok {
				id = len(lines)
				index[line] = id
				lines = append(lines, line)
			}

			out[i] = indexRune(id)
		}

		return out
	}

	src := encode(a)
	dst := encode(b)

	return lines, src, dst
}

// indexRune maps a line id to a valid Unicode scalar, skipping surrogates so
// the rune survives the string conversions inside diffmatchpatch.
func indexRune(id int) rune {
	if id > maxInternedRunes {
		panic("linediff: too many distinct lines")
	}

	r := rune(id + runeBase)
	if r >= surrogateMin {
		r += surrogateSpan
	}

	return r
}

func runeIndex(r rune) int {
	if r >= surrogateMin+surrogateSpan {
		r -= surrogateSpan
	}

	return int(r) - runeBase
}

func kindOf(op diffmatchpatch.Operation) Kind {
	switch op {
	case diffmatchpatch.DiffInsert:
		return Add
	case diffmatchpatch.DiffDelete:
		return Del
	default:
		return Equal
	}
}
