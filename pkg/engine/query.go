package engine

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/specscope/pkg/analytics"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/search"
	"github.com/Sumatoshi-tech/specscope/pkg/timeline"
)

// SearchScope selects where Search looks.
type SearchScope string

// Search scopes.
const (
	ScopeAll    SearchScope = "all"
	ScopeCommit SearchScope = "commit"
)

// SearchRequest describes one search.
type SearchRequest struct {
	Query string
	Scope SearchScope
	// Commit is required for ScopeCommit.
	Commit string
	// Limit caps the hits; non-positive uses the configured default.
	Limit int
}

// SearchResult carries hits plus the index state they were drawn from.
type SearchResult struct {
	Scope    SearchScope     `json:"scope"`
	Hits     []search.Hit    `json:"hits"`
	Progress search.Progress `json:"progress"`
}

// Search runs a query against one commit by linear scan, or against the
// whole corpus through the index. Corpus results only cover the documents
// indexed so far; Progress tells the caller how far that is.
func (s *Session) Search(_ context.Context, req SearchRequest) (SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.SearchLimit
	}

	switch req.Scope {
	case ScopeCommit:
		idx, err := s.lookup(req.Commit)
		if err != nil {
			return SearchResult{}, err
		}

		doc := search.DocumentFromCommit(idx, &s.ds.Commits[idx])

		return SearchResult{
			Scope:    ScopeCommit,
			Hits:     search.SearchOne(&doc, req.Query, limit, s.cfg.SnippetRadius),
			Progress: search.Progress{Indexed: 1, Total: 1, Done: true},
		}, nil
	case ScopeAll, "":
		return SearchResult{
			Scope:    ScopeAll,
			Hits:     s.index.Search(req.Query, limit),
			Progress: s.index.Progress(),
		}, nil
	default:
		return SearchResult{}, fmt.Errorf("%w: %q", ErrInvalidSearchArg, req.Scope)
	}
}

// Buckets aggregates bucket weights over time.
func (s *Session) Buckets(opts analytics.Options) analytics.Matrix {
	return analytics.Aggregate(s.Views(), opts)
}

// Weights attributes one commit's magnitude to buckets.
func (s *Session) Weights(ref string, metric dataset.Metric, mode analytics.Mode) (analytics.BucketWeights, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, err := s.lookup(ref)
	if err != nil {
		return analytics.BucketWeights{}, err
	}

	return analytics.Weights(&s.views[idx], metric, mode), nil
}

// Timeline builds the normalized magnitude series.
func (s *Session) Timeline(metric dataset.Metric, filter timeline.Filter) []timeline.Point {
	return timeline.Build(s.Views(), metric, filter)
}
