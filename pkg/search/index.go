package search

import (
	"cmp"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/src-d/enry/v2"
)

const binarySniffBytes = 8000

// ErrInvalidEncoding marks a document whose file content is not valid UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// Progress reports how far the incremental build has advanced.
type Progress struct {
	Indexed int  `json:"indexed"`
	Total   int  `json:"total"`
	Skipped int  `json:"skipped"`
	Done    bool `json:"done"`

	// BinaryFiles counts files left out of otherwise indexed documents
	// because their content is binary.
	BinaryFiles int `json:"binary_files,omitempty"`
}

// Observer is notified once per processed document.
type Observer func(indexed bool)

// Option configures an Index.
type Option func(*Index)

// WithLogger sets the logger used for skipped documents.
func WithLogger(l *slog.Logger) Option {
	return func(ix *Index) {
		if l != nil {
			ix.logger = l
		}
	}
}

// WithSnippetRadius sets the context kept around a match.
func WithSnippetRadius(r int) Option {
	return func(ix *Index) {
		if r >= 0 {
			ix.radius = r
		}
	}
}

// WithObserver registers a per-document callback.
func WithObserver(fn Observer) Option {
	return func(ix *Index) {
		ix.observer = fn
	}
}

type location struct {
	doc    int32
	path   string
	lineNo int
	line   string
}

type posting struct {
	loc  int32
	freq uint16
}

// Index is an inverted index over commit snapshots, built in caller-driven
// batches. It is not safe for concurrent use.
type Index struct {
	logger   *slog.Logger
	observer Observer
	radius   int

	docs      []Document
	locations []location
	postings  map[string][]posting
	next      int
	skipped   int
	binary    int
}

// NewIndex creates an empty index.
func NewIndex(opts ...Option) *Index {
	ix := &Index{
		logger:   slog.Default(),
		radius:   DefaultSnippetRadius,
		postings: map[string][]posting{},
	}

	for _, opt := range opts {
		opt(ix)
	}

	return ix
}

// Init resets the index and records the documents to build from.
func (ix *Index) Init(docs []Document) {
	ix.docs = docs
	ix.locations = nil
	ix.postings = map[string][]posting{}
	ix.next = 0
	ix.skipped = 0
	ix.binary = 0
}

// Progress returns the current build state.
func (ix *Index) Progress() Progress {
	return Progress{
		Indexed: ix.next,
		Total:   len(ix.docs),
		Skipped: ix.skipped,
		Done:    ix.next >= len(ix.docs),

		BinaryFiles: ix.binary,
	}
}

// IndexBatch indexes up to n pending documents in commit order and reports
// whether more remain. A document that fails is skipped and counted.
func (ix *Index) IndexBatch(n int) bool {
	n = max(n, 1)

	for ; n > 0 && ix.next < len(ix.docs); n-- {
		doc := &ix.docs[ix.next]

		err := ix.add(int32(ix.next), doc)
		if err != nil {
			ix.skipped++
			ix.logger.Debug("search: document skipped",
				"commit", doc.CommitShort, "error", err)
		}

		if ix.observer != nil {
			ix.observer(err == nil)
		}

		ix.next++
	}

	return ix.next < len(ix.docs)
}

// add stages every posting of a document and commits them only when the
// whole document tokenized.
func (ix *Index) add(docIdx int32, doc *Document) error {
	var (
		locs   []location
		staged = map[string][]posting{}
		binary int
	)

	base := int32(len(ix.locations))

	for _, f := range doc.Files {
		if IsBinary(f.Content) {
			binary++

			continue
		}

		if !utf8.ValidString(f.Content) {
			return fmt.Errorf("%s: %w", f.Path, ErrInvalidEncoding)
		}

		for lineNo, line := range splitLines(f.Content) {
			tokens := Tokenize(line)
			if len(tokens) == 0 {
				continue
			}

			loc := base + int32(len(locs))
			locs = append(locs, location{doc: docIdx, path: f.Path, lineNo: lineNo, line: line})

			freq := make(map[string]uint16, len(tokens))
			for _, tok := range tokens {
				if freq[tok.Term] < 1<<16-1 {
					freq[tok.Term]++
				}
			}

			for term, n := range freq {
				staged[term] = append(staged[term], posting{loc: loc, freq: n})
			}
		}
	}

	ix.locations = append(ix.locations, locs...)
	ix.binary += binary

	for term, ps := range staged {
		ix.postings[term] = append(ix.postings[term], ps...)
	}

	return nil
}

// IsBinary reports whether content looks binary. Binary files are never
// searched, by the index or by SearchOne.
func IsBinary(content string) bool {
	head := content
	if len(head) > binarySniffBytes {
		head = head[:binarySniffBytes]
	}

	return enry.IsBinary([]byte(head))
}

// splitLines yields 1-based line numbers.
func splitLines(content string) func(yield func(int, string) bool) {
	return func(yield func(int, string) bool) {
		lineNo := 0

		for line := range strings.Lines(content) {
			lineNo++

			if !yield(lineNo, strings.TrimRight(line, "\r\n")) {
				return
			}
		}
	}
}

type scored struct {
	loc   int32
	score int
}

// Search returns up to limit hits whose line contains every query token,
// ranked by summed term frequency. A limit <= 0 returns all hits. Documents
// not yet indexed are not searched.
func (ix *Index) Search(query string, limit int) []Hit {
	terms := Terms(query)
	if len(terms) == 0 {
		return nil
	}

	lists := make([][]posting, 0, len(terms))

	for _, term := range terms {
		ps := ix.postings[term]
		if len(ps) == 0 {
			return nil
		}

		lists = append(lists, ps)
	}

	slices.SortFunc(lists, func(a, b []posting) int { return cmp.Compare(len(a), len(b)) })

	scores := make(map[int32]int, len(lists[0]))
	for _, p := range lists[0] {
		scores[p.loc] = int(p.freq)
	}

	for _, ps := range lists[1:] {
		next := make(map[int32]int, len(scores))

		for _, p := range ps {
			if s, ok := scores[p.loc]; ok {
				next[p.loc] = s + int(p.freq)
			}
		}

		scores = next
	}

	ranked := make([]scored, 0, len(scores))
	for loc, s := range scores {
		ranked = append(ranked, scored{loc: loc, score: s})
	}

	slices.SortFunc(ranked, func(a, b scored) int {
		if c := cmp.Compare(b.score, a.score); c != 0 {
			return c
		}

		la, lb := &ix.locations[a.loc], &ix.locations[b.loc]

		return cmp.Or(
			cmp.Compare(la.doc, lb.doc),
			strings.Compare(la.path, lb.path),
			cmp.Compare(la.lineNo, lb.lineNo),
		)
	})

	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	hits := make([]Hit, 0, len(ranked))

	for _, r := range ranked {
		loc := &ix.locations[r.loc]
		start, end := matchSpan(loc.line, query, terms)
		hits = append(hits, ix.docs[loc.doc].hit(loc.path, loc.lineNo, loc.line, start, end, ix.radius))
	}

	return hits
}

// matchSpan prefers the whole query as typed, then its first token.
func matchSpan(line, query string, terms []string) (int, int) {
	if start, end := IndexFold(line, strings.TrimSpace(query)); start >= 0 {
		return start, end
	}

	for _, term := range terms {
		for _, tok := range Tokenize(line) {
			if tok.Term == term {
				return tok.Offset, tok.Offset + tok.Length
			}
		}
	}

	return 0, 0
}
