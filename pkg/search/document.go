// Package search finds text across commit snapshots, either through an
// incrementally built inverted index over the whole corpus or through a
// linear scan of a single commit.
package search

import (
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

// Document is one commit's file set, the unit of indexing.
type Document struct {
	CommitIdx   int
	CommitShort string
	CommitDate  string
	Files       []dataset.FileSnapshot
}

// Hit is one search result. MatchOffset and MatchLength are byte offsets into
// Snippet, not into the full line.
type Hit struct {
	CommitIdx   int    `json:"commit_idx"`
	CommitShort string `json:"commit_short"`
	CommitDate  string `json:"commit_date"`
	FilePath    string `json:"file_path"`
	LineNo      int    `json:"line_no"`
	Snippet     string `json:"snippet"`
	MatchOffset int    `json:"match_offset"`
	MatchLength int    `json:"match_length"`
}

// DocumentFromCommit wraps commit idx as a Document.
func DocumentFromCommit(idx int, c *dataset.Commit) Document {
	return Document{
		CommitIdx:   idx,
		CommitShort: c.Short,
		CommitDate:  c.Date,
		Files:       c.Files,
	}
}

// Documents returns one Document per commit in ascending commit order.
func Documents(ds *dataset.Dataset) []Document {
	docs := make([]Document, len(ds.Commits))

	for i := range ds.Commits {
		docs[i] = DocumentFromCommit(i, &ds.Commits[i])
	}

	return docs
}

func (d *Document) hit(path string, lineNo int, line string, start, end, radius int) Hit {
	snippet, off, length := Snippet(line, start, end, radius)

	return Hit{
		CommitIdx:   d.CommitIdx,
		CommitShort: d.CommitShort,
		CommitDate:  d.CommitDate,
		FilePath:    path,
		LineNo:      lineNo,
		Snippet:     snippet,
		MatchOffset: off,
		MatchLength: length,
	}
}
