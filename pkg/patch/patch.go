// Package patch parses unified-diff text into files, hunks and classified
// lines. Parsing is lossless and never fails: malformed input degrades to
// placeholder paths or fewer hunks.
package patch

import (
	"regexp"
	"strconv"
	"strings"
)

// UnknownPath is the placeholder used when a file marker cannot be parsed.
const UnknownPath = "(unknown)"

// LineKind classifies one line of a patch.
type LineKind string

// Line kinds.
const (
	Meta       LineKind = "meta"
	HunkHeader LineKind = "hunk-header"
	Context    LineKind = "context"
	Add        LineKind = "add"
	Del        LineKind = "del"
)

const (
	fileMarker = "diff --git "
	hunkMarker = "@@"
)

var (
	reFileMarker = regexp.MustCompile(`^diff --git a/(.+?) b/(.+)$`)
	reHunkHeader = regexp.MustCompile(`^@@ -(\d+)(?:,(\d+))? \+(\d+)(?:,(\d+))? @@ ?(.*)$`)
)

// Line is one raw patch line with its classification. Text keeps the leading
// marker character.
type Line struct {
	Kind LineKind `json:"kind"`
	Text string   `json:"text"`
}

// Content returns the line without its leading marker for add, del and
// context lines, and the raw text otherwise.
func (l Line) Content() string {
	switch l.Kind {
	case Add, Del, Context:
		return l.Text[1:]
	default:
		return l.Text
	}
}

// Hunk is one @@ block. Lines starts with the hunk-header line itself.
// Omitted lengths default to 1, as in unified diff.
type Hunk struct {
	OldStart int    `json:"old_start"`
	OldLines int    `json:"old_lines"`
	NewStart int    `json:"new_start"`
	NewLines int    `json:"new_lines"`
	Section  string `json:"section,omitempty"`
	Lines    []Line `json:"lines"`
}

// OldText returns the hunk's pre-image: context and deleted lines in order.
func (h *Hunk) OldText() []string {
	return h.collect(Del)
}

// NewText returns the hunk's post-image: context and added lines in order.
func (h *Hunk) NewText() []string {
	return h.collect(Add)
}

func (h *Hunk) collect(side LineKind) []string {
	out := make([]string, 0, len(h.Lines))

	for _, line := range h.Lines {
		if line.Kind == Context || line.Kind == side {
			out = append(out, line.Content())
		}
	}

	return out
}

// Counts returns the number of added and deleted lines in the hunk.
func (h *Hunk) Counts() (added, deleted int) {
	for _, line := range h.Lines {
		switch line.Kind {
		case Add:
			added++
		case Del:
			deleted++
		default:
		}
	}

	return added, deleted
}

// File is one file section of a patch. Header holds the marker line and any
// lines seen before the first hunk.
type File struct {
	OldPath string `json:"old_path"`
	NewPath string `json:"new_path"`
	Header  []Line `json:"header"`
	Hunks   []Hunk `json:"hunks"`
}

// Counts sums added and deleted lines over all hunks.
func (f *File) Counts() (added, deleted int) {
	for i := range f.Hunks {
		a, d := f.Hunks[i].Counts()
		added += a
		deleted += d
	}

	return added, deleted
}

// Parse splits patch text into files. Text before the first file marker is
// kept in a file with placeholder paths. CRLF line endings stay in Line.Text
// but never reach paths or hunk sections. Parse has no side effects and is
// safe to memoize by content key.
func Parse(text string) []File {
	if text == "" {
		return nil
	}

	rawLines := strings.Split(text, "\n")
	if rawLines[len(rawLines)-1] == "" {
		rawLines = rawLines[:len(rawLines)-1]
	}

	var (
		files []File
		cur   *File
		hunk  *Hunk
	)

	for _, raw := range rawLines {
		if strings.HasPrefix(raw, fileMarker) {
			oldPath, newPath := parseFileMarker(raw)
			files = append(files, File{
				OldPath: oldPath,
				NewPath: newPath,
				Header:  []Line{{Kind: Meta, Text: raw}},
			})
			cur = &files[len(files)-1]
			hunk = nil

			continue
		}

		if cur == nil {
			files = append(files, File{OldPath: UnknownPath, NewPath: UnknownPath})
			cur = &files[len(files)-1]
		}

		if strings.HasPrefix(raw, hunkMarker) {
			cur.Hunks = append(cur.Hunks, parseHunkHeader(raw))
			hunk = &cur.Hunks[len(cur.Hunks)-1]

			continue
		}

		line := Line{Kind: classify(raw), Text: raw}

		if hunk == nil {
			cur.Header = append(cur.Header, line)
		} else {
			hunk.Lines = append(hunk.Lines, line)
		}
	}

	return files
}

// Path returns the file's display path: the new path, or the old one when the
// file was deleted.
func (f *File) Path() string {
	if f.NewPath == "/dev/null" || f.NewPath == UnknownPath {
		return f.OldPath
	}

	return f.NewPath
}

func classify(raw string) LineKind {
	switch {
	case strings.HasPrefix(raw, "+") && !strings.HasPrefix(raw, "+++"):
		return Add
	case strings.HasPrefix(raw, "-") && !strings.HasPrefix(raw, "---"):
		return Del
	case strings.HasPrefix(raw, " "):
		return Context
	default:
		return Meta
	}
}

func parseFileMarker(raw string) (oldPath, newPath string) {
	m := reFileMarker.FindStringSubmatch(strings.TrimSuffix(raw, "\r"))
	if m == nil {
		return UnknownPath, UnknownPath
	}

	return m[1], m[2]
}

func parseHunkHeader(raw string) Hunk {
	hunk := Hunk{Lines: []Line{{Kind: HunkHeader, Text: raw}}}

	m := reHunkHeader.FindStringSubmatch(strings.TrimSuffix(raw, "\r"))
	if m == nil {
		return hunk
	}

	hunk.OldStart = atoi(m[1], 0)
	hunk.OldLines = atoi(m[2], 1)
	hunk.NewStart = atoi(m[3], 0)
	hunk.NewLines = atoi(m[4], 1)
	hunk.Section = m[5]

	return hunk
}

func atoi(s string, fallback int) int {
	if s == "" {
		return fallback
	}

	v, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}

	return v
}
