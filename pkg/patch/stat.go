package patch

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// FileStat is the strict per-file line count of a patch.
type FileStat struct {
	Path    string `json:"path"`
	Added   int    `json:"added"`
	Deleted int    `json:"deleted"`
}

// Stat parses text strictly as a multi-file unified diff and counts added and
// deleted lines per file. Unlike Parse it fails on malformed input; it is
// meant for integrity checks, not for display.
func Stat(text string) ([]FileStat, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	fileDiffs, err := diff.ParseMultiFileDiff([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("strict patch parse: %w", err)
	}

	stats := make([]FileStat, 0, len(fileDiffs))

	for _, fd := range fileDiffs {
		st := FileStat{Path: statPath(fd)}

		for _, hunk := range fd.Hunks {
			for line := range bytes.SplitSeq(hunk.Body, []byte{'\n'}) {
				if len(line) == 0 {
					continue
				}

				switch line[0] {
				case '+':
					st.Added++
				case '-':
					st.Deleted++
				}
			}
		}

		stats = append(stats, st)
	}

	return stats, nil
}

func statPath(fd *diff.FileDiff) string {
	name := strings.TrimPrefix(fd.NewName, "b/")
	if fd.NewName == "" || fd.NewName == "/dev/null" {
		name = strings.TrimPrefix(fd.OrigName, "a/")
	}

	return name
}
