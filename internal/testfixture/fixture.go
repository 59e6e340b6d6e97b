// Package testfixture builds a small, internally consistent commit corpus
// shared by package tests.
package testfixture

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

// Snapshot contents per revision.
const (
	CoreV1   = "# Core\nThe engine MAY cache.\n\n## Scope\n"
	CoreV2   = "# Core\nThe engine MUST cache.\n\n## Scope\n"
	CoreV3   = CoreV2 + "Results are memoized.\n"
	Glossary = "# Glossary\nZeppelin: a rigid airship term used exactly once.\n"
)

// Patches per revision.
const (
	PatchV2 = `diff --git a/spec/core.md b/spec/core.md
index 1111111..2222222 100644
--- a/spec/core.md
+++ b/spec/core.md
@@ -1,4 +1,4 @@
 # Core
-The engine MAY cache.
+The engine MUST cache.
 
 ## Scope
`
	PatchV3 = `diff --git a/spec/core.md b/spec/core.md
index 2222222..3333333 100644
--- a/spec/core.md
+++ b/spec/core.md
@@ -3,2 +3,3 @@
 
 ## Scope
+Results are memoized.
diff --git a/spec/glossary.md b/spec/glossary.md
new file mode 100644
index 0000000..4444444
--- /dev/null
+++ b/spec/glossary.md
@@ -0,0 +1,2 @@
+# Glossary
+Zeppelin: a rigid airship term used exactly once.
`
)

// Dataset returns the three-commit corpus:
//
//	0 c0ffee0  unreviewed, initial snapshot
//	1 beef001  one group in buckets 1 and 4
//	2 f00d002  groups in buckets {2,7} and {} (other)
func Dataset() *dataset.Dataset {
	return &dataset.Dataset{
		GeneratedAt: "2024-01-03T00:00:00Z",
		ScopePaths:  []string{"spec/"},
		BucketDefs: map[string]string{
			"0":  "Unreviewed",
			"1":  "Normative tightening",
			"2":  "New terminology",
			"4":  "Editorial",
			"7":  "Caching semantics",
			"10": "Other",
		},
		Commits: []dataset.Commit{
			{
				SHA:     "c0ffee0000000000000000000000000000000000",
				Short:   "c0ffee0",
				Epoch:   1704103200,
				Date:    "2024-01-01T10:00:00+00:00",
				Subject: "Initial core spec",
				Author:  dataset.Author{Name: "Ada", Email: "ada@example.com"},
				Files:   []dataset.FileSnapshot{{Path: "spec/core.md", Content: CoreV1}},
			},
			{
				SHA:     "beef001000000000000000000000000000000000",
				Short:   "beef001",
				Epoch:   1704123000,
				Date:    "2024-01-01T15:30:00+00:00",
				Subject: "Require caching",
				Author:  dataset.Author{Name: "Ada", Email: "ada@example.com"},
				Numstat: []dataset.NumstatEntry{{Path: "spec/core.md", Added: 1, Deleted: 1}},
				Totals:  dataset.Totals{Added: 1, Deleted: 1, Files: 1},
				Patch:   PatchV2,
				Files:   []dataset.FileSnapshot{{Path: "spec/core.md", Content: CoreV2}},
				Review: &dataset.Review{
					Groups: []dataset.ReviewGroup{
						{Title: "MAY to MUST", Confidence: 0.9, Buckets: []int{1, 4}},
					},
				},
			},
			{
				SHA:     "f00d002000000000000000000000000000000000",
				Short:   "f00d002",
				Epoch:   1704186300,
				Date:    "2024-01-02T09:05:00+00:00",
				Subject: "Add glossary",
				Author:  dataset.Author{Name: "Grace"},
				Numstat: []dataset.NumstatEntry{
					{Path: "spec/core.md", Added: 1},
					{Path: "spec/glossary.md", Added: 2},
				},
				Totals: dataset.Totals{Added: 3, Files: 2},
				Patch:  PatchV3,
				Files: []dataset.FileSnapshot{
					{Path: "spec/core.md", Content: CoreV3},
					{Path: "spec/glossary.md", Content: Glossary},
				},
				Review: &dataset.Review{
					Groups: []dataset.ReviewGroup{
						{Title: "Glossary", Confidence: 1, Buckets: []int{2, 7}},
						{Title: "Memoization note", Confidence: 0.5},
					},
					Notes: []string{"glossary seeded"},
				},
			},
		},
	}
}

// JSON returns the fixture in wire format.
func JSON(t testing.TB) []byte {
	t.Helper()

	data, err := json.Marshal(Dataset())
	if err != nil {
		t.Fatalf("marshal fixture: %v", err)
	}

	return data
}

// WriteFile writes the fixture JSON into a temp dir and returns its path.
func WriteFile(t testing.TB) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dataset.json")

	if err := os.WriteFile(path, JSON(t), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	return path
}
