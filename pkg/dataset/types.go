// Package dataset holds the immutable commit corpus: the JSON wire model, the
// schema-validating decoder, and the per-commit views derived at load time.
package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Dataset is one loaded corpus history. It is never mutated after Decode.
type Dataset struct {
	GeneratedAt string            `json:"generated_at"`
	ScopePaths  []string          `json:"scope_paths"`
	BucketDefs  map[string]string `json:"bucket_defs"`
	Commits     []Commit          `json:"commits"`
}

// Commit is one recorded revision with its patch against the previous commit
// and a full snapshot of every tracked file.
type Commit struct {
	SHA     string         `json:"sha"`
	Short   string         `json:"short"`
	Epoch   int64          `json:"epoch"`
	Date    string         `json:"date"`
	Subject string         `json:"subject,omitempty"`
	Author  Author         `json:"author"`
	Numstat []NumstatEntry `json:"numstat"`
	Totals  Totals         `json:"totals"`
	Patch   string         `json:"patch"`
	Files   []FileSnapshot `json:"files"`
	Review  *Review        `json:"review,omitempty"`
}

// NumstatEntry is the per-file line delta relative to the previous commit.
type NumstatEntry struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// Totals sums a commit's numstat.
type Totals struct {
	Added   int `json:"added"`
	Deleted int `json:"deleted"`
	Files   int `json:"files"`
}

// FileSnapshot is the full content of one tracked file at a commit.
type FileSnapshot struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Review is the manual analysis of a commit. A nil Review means unreviewed.
type Review struct {
	Groups []ReviewGroup `json:"groups"`
	Notes  []string      `json:"notes,omitempty"`
}

// ReviewGroup is one human-identified unit of change.
type ReviewGroup struct {
	Title      string   `json:"title,omitempty"`
	Confidence float64  `json:"confidence"`
	Rationale  string   `json:"rationale,omitempty"`
	Evidence   []string `json:"evidence,omitempty"`
	Buckets    []int    `json:"buckets"`
}

// Author accepts either a "Name <email>" string or a {name, email} object.
type Author struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// String renders the author as "Name <email>".
func (a Author) String() string {
	switch {
	case a.Email == "":
		return a.Name
	case a.Name == "":
		return "<" + a.Email + ">"
	default:
		return a.Name + " <" + a.Email + ">"
	}
}

// UnmarshalJSON implements [json.Unmarshaler].
func (a *Author) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*a = Author{}

		return nil
	}

	var raw string

	if err := json.Unmarshal(data, &raw); err == nil {
		*a = parseAuthor(raw)

		return nil
	}

	type plain Author

	var obj plain

	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("author: %w", err)
	}

	*a = Author(obj)

	return nil
}

func parseAuthor(raw string) Author {
	raw = strings.TrimSpace(raw)

	open := strings.LastIndexByte(raw, '<')
	if open < 0 || !strings.HasSuffix(raw, ">") {
		return Author{Name: raw}
	}

	return Author{
		Name:  strings.TrimSpace(raw[:open]),
		Email: raw[open+1 : len(raw)-1],
	}
}

// Definition returns the human-readable definition of bucket b, or "" when the
// dataset does not define it.
func (d *Dataset) Definition(b Bucket) string {
	return d.BucketDefs[strconv.Itoa(int(b))]
}

// Reviewed reports whether the commit carries a review.
func (c *Commit) Reviewed() bool {
	return c.Review != nil
}

// File returns the snapshot of path at this commit.
func (c *Commit) File(path string) (FileSnapshot, bool) {
	for _, f := range c.Files {
		if f.Path == path {
			return f, true
		}
	}

	return FileSnapshot{}, false
}
