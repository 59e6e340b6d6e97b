package search

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultSnippetRadius is the number of context bytes kept on each side of a
// match.
const DefaultSnippetRadius = 40

const ellipsis = "…"

// Snippet cuts a window of radius bytes around line[start:end], aligned to
// rune boundaries, marking truncated sides with an ellipsis. It returns the
// snippet and the match's offset and length within it.
func Snippet(line string, start, end, radius int) (string, int, int) {
	line = strings.TrimRight(line, "\r")
	start = min(max(start, 0), len(line))
	end = min(max(end, start), len(line))
	radius = max(radius, 0)

	from := max(start-radius, 0)
	for from > 0 && !utf8.RuneStart(line[from]) {
		from--
	}

	to := min(end+radius, len(line))
	for to < len(line) && !utf8.RuneStart(line[to]) {
		to++
	}

	var sb strings.Builder

	offset := start - from

	if from > 0 {
		sb.WriteString(ellipsis)

		offset += len(ellipsis)
	}

	sb.WriteString(line[from:to])

	if to < len(line) {
		sb.WriteString(ellipsis)
	}

	return sb.String(), offset, end - start
}

// IndexFold returns the byte span of the first case-insensitive occurrence of
// needle in s, using Unicode simple folding. It returns -1, -1 when absent.
func IndexFold(s, needle string) (int, int) {
	if needle == "" {
		return -1, -1
	}

	for i := 0; i < len(s); {
		if end, ok := matchFoldAt(s, i, needle); ok {
			return i, end
		}

		_, size := utf8.DecodeRuneInString(s[i:])
		i += size
	}

	return -1, -1
}

func matchFoldAt(s string, i int, needle string) (int, bool) {
	for _, nr := range needle {
		if i >= len(s) {
			return 0, false
		}

		sr, size := utf8.DecodeRuneInString(s[i:])
		if !equalFoldRune(sr, nr) {
			return 0, false
		}

		i += size
	}

	return i, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}

	for r := unicode.SimpleFold(a); r != a; r = unicode.SimpleFold(r) {
		if r == b {
			return true
		}
	}

	return false
}
