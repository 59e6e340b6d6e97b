package search

import (
	"strings"
)

// SearchOne scans one document for case-insensitive substring matches of
// the trimmed query, reporting the first match per line in file and line
// order. Binary files are passed over. A limit <= 0 returns all hits.
func SearchOne(doc *Document, query string, limit, radius int) []Hit {
	needle := strings.TrimSpace(query)
	if needle == "" {
		return nil
	}

	var hits []Hit

	for _, f := range doc.Files {
		if IsBinary(f.Content) {
			continue
		}

		for lineNo, line := range splitLines(f.Content) {
			start, end := IndexFold(line, needle)
			if start < 0 {
				continue
			}

			hits = append(hits, doc.hit(f.Path, lineNo, line, start, end, radius))

			if limit > 0 && len(hits) >= limit {
				return hits
			}
		}
	}

	return hits
}
