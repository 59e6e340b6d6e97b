package dataset

import (
	"fmt"
	"time"

	"github.com/Sumatoshi-tech/specscope/pkg/patch"
)

// FindingKind classifies an integrity finding.
type FindingKind string

// Finding kinds reported by Audit.
const (
	FindingEpochOrder      FindingKind = "epoch-order"
	FindingDateUnparseable FindingKind = "date-unparseable"
	FindingDateMismatch    FindingKind = "date-mismatch"
	FindingDuplicateShort  FindingKind = "duplicate-short"
	FindingDuplicateSHA    FindingKind = "duplicate-sha"
	FindingTotalsMismatch  FindingKind = "totals-mismatch"
	FindingNumstatMismatch FindingKind = "numstat-mismatch"
	FindingPatchStrict     FindingKind = "patch-unparseable"
)

// Finding is one integrity problem. Findings never block loading.
type Finding struct {
	CommitIdx int         `json:"commit_idx"`
	Short     string      `json:"short"`
	Kind      FindingKind `json:"kind"`
	Message   string      `json:"message"`
}

// Audit checks the invariants the engine relies on: ascending epochs, epoch
// and date agreement, unique identifiers, totals equal to the numstat sums,
// and numstat agreeing with the patch's own line counts.
func Audit(ds *Dataset) []Finding {
	var findings []Finding

	shorts := make(map[string]int, len(ds.Commits))
	shas := make(map[string]int, len(ds.Commits))

	for i := range ds.Commits {
		c := &ds.Commits[i]
		report := func(kind FindingKind, format string, args ...any) {
			findings = append(findings, Finding{
				CommitIdx: i,
				Short:     c.Short,
				Kind:      kind,
				Message:   fmt.Sprintf(format, args...),
			})
		}

		if i > 0 && c.Epoch < ds.Commits[i-1].Epoch {
			report(FindingEpochOrder, "epoch %d precedes previous commit's %d", c.Epoch, ds.Commits[i-1].Epoch)
		}

		auditDate(c, report)

		if prev, ok := shorts[c.Short]; ok {
			report(FindingDuplicateShort, "short id %q already used by commit %d", c.Short, prev)
		} else {
			shorts[c.Short] = i
		}

		if prev, ok := shas[c.SHA]; ok {
			report(FindingDuplicateSHA, "sha already used by commit %d", prev)
		} else {
			shas[c.SHA] = i
		}

		auditTotals(c, report)
		auditPatch(c, report)
	}

	return findings
}

type reportFunc func(kind FindingKind, format string, args ...any)

func auditDate(c *Commit, report reportFunc) {
	if c.Date == "" {
		return
	}

	t, err := time.Parse(time.RFC3339, c.Date)
	if err != nil {
		report(FindingDateUnparseable, "date %q: %v", c.Date, err)

		return
	}

	if t.Unix() != c.Epoch {
		report(FindingDateMismatch, "date %s is epoch %d, commit says %d", c.Date, t.Unix(), c.Epoch)
	}
}

func auditTotals(c *Commit, report reportFunc) {
	var sum Totals

	for _, n := range c.Numstat {
		sum.Added += n.Added
		sum.Deleted += n.Deleted
	}

	sum.Files = len(c.Numstat)

	if sum != c.Totals {
		report(FindingTotalsMismatch, "totals %+v, numstat sums to %+v", c.Totals, sum)
	}
}

func auditPatch(c *Commit, report reportFunc) {
	stats, err := patch.Stat(c.Patch)
	if err != nil {
		report(FindingPatchStrict, "%v", err)

		return
	}

	fromPatch := make(map[string]patch.FileStat, len(stats))
	for _, st := range stats {
		fromPatch[st.Path] = st
	}

	for _, n := range c.Numstat {
		st, ok := fromPatch[n.Path]
		if !ok {
			if n.Added != 0 || n.Deleted != 0 {
				report(FindingNumstatMismatch, "%s: numstat +%d/-%d but absent from patch", n.Path, n.Added, n.Deleted)
			}

			continue
		}

		if st.Added != n.Added || st.Deleted != n.Deleted {
			report(FindingNumstatMismatch, "%s: numstat +%d/-%d, patch +%d/-%d",
				n.Path, n.Added, n.Deleted, st.Added, st.Deleted)
		}
	}
}
