package engine

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/specscope/pkg/alg/levenshtein"
	"github.com/Sumatoshi-tech/specscope/pkg/linediff"
)

// CompareMode reports which strategy produced a Comparison.
type CompareMode string

// Compare modes.
const (
	// ModeDiff carries a full line edit script.
	ModeDiff CompareMode = "diff"
	// ModeDistance carries an exact edit distance because the diff guard
	// refused the request.
	ModeDistance CompareMode = "distance"
	// ModeRefused means both the diff and the bounded distance gave up.
	ModeRefused CompareMode = "refused"
)

// Comparison is the result of comparing one scope across two commits.
type Comparison struct {
	From  string      `json:"from"`
	To    string      `json:"to"`
	Scope string      `json:"scope,omitempty"`
	Mode  CompareMode `json:"mode"`

	Ops   []linediff.Op  `json:"ops,omitempty"`
	Stats linediff.Stats `json:"stats"`

	// Distance is set whenever the distance fallback ran.
	Distance *levenshtein.Result `json:"distance,omitempty"`
	// Lines is the combined line count of both sides.
	Lines int `json:"lines"`

	ChangedFiles []string `json:"changed_files,omitempty"`
	Suggestion   string   `json:"suggestion,omitempty"`
}

// Compare diffs scope between two commits. An empty scope compares all files.
// A scoped file must exist at one commit at least.
// Oversized requests degrade to a bounded edit distance and finally to a
// refusal with a narrower-scope suggestion; they are never errors.
func (s *Session) Compare(ctx context.Context, fromRef, toRef, scope string) (Comparison, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fromIdx, err := s.lookup(fromRef)
	if err != nil {
		return Comparison{}, err
	}

	toIdx, err := s.lookup(toRef)
	if err != nil {
		return Comparison{}, err
	}

	from, to := &s.ds.Commits[fromIdx], &s.ds.Commits[toIdx]

	if scope != "" {
		_, inFrom := from.File(scope)
		_, inTo := to.File(scope)

		if !inFrom && !inTo {
			return Comparison{}, fmt.Errorf("%w: %s at %s or %s", ErrUnknownFile, scope, from.Short, to.Short)
		}
	}

	cmp := Comparison{
		From:         from.Short,
		To:           to.Short,
		Scope:        scope,
		ChangedFiles: changedFiles(from, to),
	}

	a, err := s.scopeLines(ctx, fromIdx, scope)
	if err != nil {
		return Comparison{}, err
	}

	b, err := s.scopeLines(ctx, toIdx, scope)
	if err != nil {
		return Comparison{}, err
	}

	res := linediff.LinesWithLimit(a, b, s.cfg.DiffMaxLines)
	cmp.Lines = res.Lines

	if !res.SizeExceeded {
		cmp.Mode = ModeDiff
		cmp.Ops = res.Ops
		cmp.Stats = linediff.Count(res.Ops)
		s.recorder.Compared(ctx, string(cmp.Mode))

		return cmp, nil
	}

	bound := levenshtein.Bound(len(a), len(b), s.cfg.DistanceFactor, s.cfg.DistanceSlack)
	dist := s.dist.Lines(a, b, bound)
	cmp.Distance = &dist

	if dist.EarlyExit {
		cmp.Mode = ModeRefused
	} else {
		cmp.Mode = ModeDistance
	}

	cmp.Suggestion = suggest(&cmp, res)
	s.recorder.Compared(ctx, string(cmp.Mode))

	s.logger.Debug("compare degraded",
		"from", cmp.From, "to", cmp.To, "scope", scope, "mode", cmp.Mode, "lines", res.Lines)

	return cmp, nil
}

// scopeLines returns the lines of scope at a commit. A file absent on one
// side compares as empty.
func (s *Session) scopeLines(ctx context.Context, idx int, scope string) ([]string, error) {
	c := &s.ds.Commits[idx]

	if scope != "" {
		if _, ok := c.File(scope); !ok {
			return nil, nil
		}
	}

	text, err := s.document(ctx, c, scope)
	if err != nil {
		return nil, err
	}

	return SplitLines(text), nil
}

func suggest(cmp *Comparison, res linediff.Result) string {
	msg := fmt.Sprintf("%d lines exceed the %d-line diff limit", res.Lines, res.Limit)

	switch {
	case cmp.Scope == "" && len(cmp.ChangedFiles) > 0:
		return fmt.Sprintf("%s; compare a single file instead, e.g. %q (%d files changed)",
			msg, cmp.ChangedFiles[0], len(cmp.ChangedFiles))
	case cmp.Scope == "":
		return msg + "; the snapshots are identical file by file"
	default:
		return msg + "; compare adjacent commits to shrink the change"
	}
}
