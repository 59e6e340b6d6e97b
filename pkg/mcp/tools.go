package mcp

import (
	"encoding/json"
	"errors"
	"fmt"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool name constants.
const (
	ToolNameSearch   = "corpus_search"
	ToolNameCompare  = "corpus_compare"
	ToolNameBuckets  = "corpus_buckets"
	ToolNameTimeline = "corpus_timeline"
	ToolNameLink     = "corpus_link"
	ToolNameCommit   = "corpus_commit"
	ToolNameStatus   = "corpus_status"
)

// MaxQueryBytes caps the search query size.
const MaxQueryBytes = 512

// Sentinel errors for tool input validation.
var (
	// ErrEmptyQuery indicates the query parameter is empty.
	ErrEmptyQuery = errors.New("query parameter is required and must not be empty")
	// ErrQueryTooLarge indicates the query exceeds MaxQueryBytes.
	ErrQueryTooLarge = errors.New("query exceeds maximum size")
	// ErrEmptyRef indicates a commit reference parameter is empty.
	ErrEmptyRef = errors.New("commit reference is required and must not be empty")
	// ErrInvalidPosition indicates a timeline position outside [0, 1].
	ErrInvalidPosition = errors.New("position must be within [0, 1]")
	// ErrInvalidBucket indicates a bucket id outside 0..10.
	ErrInvalidBucket = errors.New("bucket must be within 0..10")
)

// SearchInput is the input schema for the corpus_search tool.
type SearchInput struct {
	Commit string `json:"commit,omitempty" jsonschema:"commit sha or short sha; required when scope is commit"`
	Limit  int    `json:"limit,omitempty"  jsonschema:"maximum number of hits (default from config)"`
	Query  string `json:"query"            jsonschema:"case-insensitive search text"`
	Scope  string `json:"scope,omitempty"  jsonschema:"all (default) searches the corpus index, commit scans one commit"`
}

// CompareInput is the input schema for the corpus_compare tool.
type CompareInput struct {
	File       string `json:"file,omitempty"        jsonschema:"optional file path to compare instead of the whole snapshot"`
	From       string `json:"from"                  jsonschema:"base commit sha or short sha"`
	IncludeOps bool   `json:"include_ops,omitempty" jsonschema:"include the full line edit script"`
	To         string `json:"to"                    jsonschema:"target commit sha or short sha"`
}

// BucketsInput is the input schema for the corpus_buckets tool.
type BucketsInput struct {
	Bucket       *int   `json:"bucket,omitempty"        jsonschema:"only count commits touching this bucket (0..10)"`
	Metric       string `json:"metric,omitempty"        jsonschema:"groups, lines (default) or patchBytes"`
	Mode         string `json:"mode,omitempty"          jsonschema:"soft (default) splits magnitude, hard counts it per bucket"`
	Resolution   string `json:"resolution,omitempty"    jsonschema:"day (default), hour, 15m or 5m"`
	ReviewedOnly bool   `json:"reviewed_only,omitempty" jsonschema:"skip unreviewed commits"`
}

// TimelineInput is the input schema for the corpus_timeline tool.
type TimelineInput struct {
	Bucket       *int     `json:"bucket,omitempty"        jsonschema:"mark commits touching this bucket (0..10)"`
	Metric       string   `json:"metric,omitempty"        jsonschema:"groups, lines (default) or patchBytes"`
	Position     *float64 `json:"position,omitempty"      jsonschema:"optional slider fraction in [0, 1] to resolve to a commit"`
	ReviewedOnly bool     `json:"reviewed_only,omitempty" jsonschema:"mark only reviewed commits"`
}

// LinkInput is the input schema for the corpus_link tool. A non-empty
// Fragment is decoded; otherwise the remaining fields are encoded.
type LinkInput struct {
	Bucket       *int   `json:"bucket,omitempty"        jsonschema:"bucket filter (0..10)"`
	Commit       string `json:"commit,omitempty"        jsonschema:"selected commit"`
	DiffMode     string `json:"diff_mode,omitempty"     jsonschema:"unified (default) or split"`
	File         string `json:"file,omitempty"          jsonschema:"selected file"`
	Fragment     string `json:"fragment,omitempty"      jsonschema:"URL fragment to decode"`
	Query        string `json:"query,omitempty"         jsonschema:"search text"`
	ReviewedOnly bool   `json:"reviewed_only,omitempty" jsonschema:"reviewed-only filter"`
	Tab          string `json:"tab,omitempty"           jsonschema:"diff (default), document, search, buckets or timeline"`
}

// CommitInput is the input schema for the corpus_commit tool.
type CommitInput struct {
	Metric string `json:"metric,omitempty" jsonschema:"groups, lines (default) or patchBytes"`
	Mode   string `json:"mode,omitempty"   jsonschema:"soft (default) or hard bucket attribution"`
	Ref    string `json:"ref"              jsonschema:"commit sha, short sha or unique prefix"`
}

// StatusInput is the input schema for the corpus_status tool. It takes no
// arguments.
type StatusInput struct{}

// ToolOutput is a generic wrapper for tool results.
type ToolOutput struct {
	Data any `json:"data"`
}

// errorResult builds a CallToolResult with isError set.
func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: err.Error()},
		},
		IsError: true,
	}, ToolOutput{}, nil
}

// jsonResult builds a CallToolResult with JSON-encoded content.
func jsonResult(value any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}

	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{
			&mcpsdk.TextContent{Text: string(data)},
		},
	}, ToolOutput{Data: value}, nil
}

func validateQuery(query string) error {
	if query == "" {
		return ErrEmptyQuery
	}

	if len(query) > MaxQueryBytes {
		return fmt.Errorf("%w: %d bytes (max %d)", ErrQueryTooLarge, len(query), MaxQueryBytes)
	}

	return nil
}

func validateBucket(b *int) error {
	if b != nil && (*b < 0 || *b > 10) {
		return fmt.Errorf("%w: %d", ErrInvalidBucket, *b)
	}

	return nil
}

// Tool description constants.
const (
	searchToolDescription = "Search the commit corpus for text in file snapshots. " +
		"Corpus-wide results reflect the documents indexed so far; progress reports how far indexing got."

	compareToolDescription = "Compare two commits line by line, whole snapshot or one file. " +
		"Large inputs fall back to a bounded edit distance or are refused with a suggestion."

	bucketsToolDescription = "Aggregate per-commit magnitude into the eleven review buckets over time."

	timelineToolDescription = "Build the normalized per-commit magnitude series with filter flags."

	linkToolDescription = "Encode view state into a shareable URL fragment or decode a fragment back."

	commitToolDescription = "Describe one commit: metadata, per-file patch counts and bucket weights."

	statusToolDescription = "Report the loaded session: its id, commit counts, search index progress " +
		"and cache counters with the most recently used entries."
)
