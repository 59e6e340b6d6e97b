package mcp

import (
	"context"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Sumatoshi-tech/specscope/pkg/analytics"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
	"github.com/Sumatoshi-tech/specscope/pkg/engine"
	"github.com/Sumatoshi-tech/specscope/pkg/hashstate"
	"github.com/Sumatoshi-tech/specscope/pkg/patch"
	"github.com/Sumatoshi-tech/specscope/pkg/report"
	"github.com/Sumatoshi-tech/specscope/pkg/search"
	"github.com/Sumatoshi-tech/specscope/pkg/timeline"
)

// LinkResult is the corpus_link payload.
type LinkResult struct {
	Fragment string          `json:"fragment"`
	State    hashstate.State `json:"state"`
}

// CommitResult is the corpus_commit payload.
type CommitResult struct {
	Idx      int                     `json:"idx"`
	SHA      string                  `json:"sha"`
	Short    string                  `json:"short"`
	Date     string                  `json:"date"`
	Subject  string                  `json:"subject,omitempty"`
	Author   string                  `json:"author"`
	Totals   dataset.Totals          `json:"totals"`
	Reviewed bool                    `json:"reviewed"`
	Files    []patch.FileStat        `json:"files"`
	Weights  analytics.BucketWeights `json:"weights"`
}

// StatusResult is the corpus_status payload.
type StatusResult struct {
	Session  string                        `json:"session"`
	Commits  int                           `json:"commits"`
	Reviewed int                           `json:"reviewed"`
	Index    search.Progress               `json:"index"`
	Caches   map[string]engine.CacheStatus `json:"caches"`
}

func (s *Server) handleStatus(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	_ StatusInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	views := s.session.Views()

	reviewed := 0

	for i := range views {
		if views[i].Reviewed {
			reviewed++
		}
	}

	return jsonResult(StatusResult{
		Session:  s.session.ID(),
		Commits:  len(views),
		Reviewed: reviewed,
		Index:    s.session.IndexProgress(),
		Caches:   s.session.CacheStats(),
	})
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input SearchInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if err := validateQuery(input.Query); err != nil {
		return errorResult(err)
	}

	res, err := s.session.Search(ctx, engine.SearchRequest{
		Query:  input.Query,
		Scope:  engine.SearchScope(input.Scope),
		Commit: input.Commit,
		Limit:  input.Limit,
	})
	if err != nil {
		return errorResult(err)
	}

	return jsonResult(res)
}

func (s *Server) handleCompare(
	ctx context.Context,
	_ *mcpsdk.CallToolRequest,
	input CompareInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.From == "" || input.To == "" {
		return errorResult(ErrEmptyRef)
	}

	cmp, err := s.session.Compare(ctx, input.From, input.To, input.File)
	if err != nil {
		return errorResult(err)
	}

	if !input.IncludeOps {
		cmp.Ops = nil
	}

	return jsonResult(cmp)
}

func (s *Server) handleBuckets(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input BucketsInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	opts, err := bucketOptions(input)
	if err != nil {
		return errorResult(err)
	}

	matrix := s.session.Buckets(opts)

	return jsonResult(report.NewBuckets(&matrix, s.session.Dataset(), opts))
}

func (s *Server) handleTimeline(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input TimelineInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	metric, err := parseMetric(input.Metric)
	if err != nil {
		return errorResult(err)
	}

	bucket, err := toBucket(input.Bucket)
	if err != nil {
		return errorResult(err)
	}

	filter := timeline.Filter{ReviewedOnly: input.ReviewedOnly, Bucket: bucket}
	views := s.session.Views()
	points := s.session.Timeline(metric, filter)

	res := report.NewTimeline(views, points, metric)
	res.Summary = timeline.Summarize(views, metric, filter)

	if input.Position != nil {
		if *input.Position < 0 || *input.Position > 1 {
			return errorResult(fmt.Errorf("%w: %g", ErrInvalidPosition, *input.Position))
		}

		res.Selected = timeline.PositionToCommitIndex(*input.Position, len(points))
	}

	return jsonResult(res)
}

func (s *Server) handleLink(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input LinkInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Fragment != "" {
		state := hashstate.Decode(input.Fragment)

		return jsonResult(LinkResult{Fragment: hashstate.Encode(state), State: state})
	}

	state := hashstate.Default()
	state.Commit = input.Commit
	state.File = input.File
	state.Query = input.Query
	state.ReviewedOnly = input.ReviewedOnly
	state.Bucket = input.Bucket

	if input.Tab != "" {
		state.Tab = input.Tab
	}

	if input.DiffMode != "" {
		state.DiffMode = input.DiffMode
	}

	if err := state.Validate(); err != nil {
		return errorResult(fmt.Errorf("invalid link state: %w", err))
	}

	return jsonResult(LinkResult{Fragment: hashstate.Encode(state), State: state})
}

func (s *Server) handleCommit(
	_ context.Context,
	_ *mcpsdk.CallToolRequest,
	input CommitInput,
) (*mcpsdk.CallToolResult, ToolOutput, error) {
	if input.Ref == "" {
		return errorResult(ErrEmptyRef)
	}

	metric, err := parseMetric(input.Metric)
	if err != nil {
		return errorResult(err)
	}

	mode, err := parseMode(input.Mode)
	if err != nil {
		return errorResult(err)
	}

	idx, err := s.session.Lookup(input.Ref)
	if err != nil {
		return errorResult(err)
	}

	c, err := s.session.Commit(input.Ref)
	if err != nil {
		return errorResult(err)
	}

	weights, err := s.session.Weights(input.Ref, metric, mode)
	if err != nil {
		return errorResult(err)
	}

	files, err := patch.Stat(c.Patch)
	if err != nil {
		s.logger.Warn("commit patch is not a strict unified diff", "commit", c.Short, "error", err)

		files = nil
	}

	return jsonResult(CommitResult{
		Idx:      idx,
		SHA:      c.SHA,
		Short:    c.Short,
		Date:     c.Date,
		Subject:  c.Subject,
		Author:   c.Author.String(),
		Totals:   c.Totals,
		Reviewed: c.Reviewed(),
		Files:    files,
		Weights:  weights,
	})
}

func bucketOptions(input BucketsInput) (analytics.Options, error) {
	metric, err := parseMetric(input.Metric)
	if err != nil {
		return analytics.Options{}, err
	}

	mode, err := parseMode(input.Mode)
	if err != nil {
		return analytics.Options{}, err
	}

	res := analytics.ResolutionDay
	if input.Resolution != "" {
		res, err = analytics.ParseResolution(input.Resolution)
		if err != nil {
			return analytics.Options{}, err
		}
	}

	bucket, err := toBucket(input.Bucket)
	if err != nil {
		return analytics.Options{}, err
	}

	return analytics.Options{
		Metric:       metric,
		Mode:         mode,
		Resolution:   res,
		ReviewedOnly: input.ReviewedOnly,
		Bucket:       bucket,
	}, nil
}

func parseMetric(s string) (dataset.Metric, error) {
	if s == "" {
		return dataset.MetricLines, nil
	}

	return dataset.ParseMetric(s)
}

func parseMode(s string) (analytics.Mode, error) {
	if s == "" {
		return analytics.ModeSoft, nil
	}

	return analytics.ParseMode(s)
}

func toBucket(b *int) (*dataset.Bucket, error) {
	if b == nil {
		return nil, nil
	}

	if err := validateBucket(b); err != nil {
		return nil, err
	}

	bucket := dataset.Bucket(*b)

	return &bucket, nil
}
