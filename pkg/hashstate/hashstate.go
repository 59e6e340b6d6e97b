// Package hashstate encodes the shareable part of a viewer's selection into
// a URL fragment and back.
package hashstate

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tabs and diff layouts a link may select.
const (
	TabDiff     = "diff"
	TabDocument = "document"
	TabSearch   = "search"
	TabBuckets  = "buckets"
	TabTimeline = "timeline"

	DiffUnified = "unified"
	DiffSplit   = "split"
)

// Fragment keys.
const (
	keyCommit       = "c"
	keyTab          = "tab"
	keyFile         = "f"
	keyDiffMode     = "d"
	keyQuery        = "q"
	keyReviewedOnly = "ro"
	keyBucket       = "b"
)

// State is the deep-linkable selection. Bucket is nil for "no bucket filter"
// and File is empty for "all files".
type State struct {
	Commit       string `json:"commit,omitempty" validate:"omitempty,max=64,alphanum"`
	Tab          string `json:"tab" validate:"oneof=diff document search buckets timeline"`
	File         string `json:"file,omitempty" validate:"omitempty,max=1024"`
	DiffMode     string `json:"diff_mode" validate:"oneof=unified split"`
	Query        string `json:"query,omitempty" validate:"omitempty,max=512"`
	ReviewedOnly bool   `json:"reviewed_only,omitempty"`
	Bucket       *int   `json:"bucket,omitempty" validate:"omitempty,min=0,max=10"`
}

var validate = validator.New()

// stringFields pairs each string key with the constraint its value must meet.
var stringFields = []struct {
	key string
	tag string
	set func(*State, string)
}{
	{keyCommit, "max=64,alphanum", func(s *State, v string) { s.Commit = v }},
	{keyTab, "oneof=diff document search buckets timeline", func(s *State, v string) { s.Tab = v }},
	{keyFile, "max=1024", func(s *State, v string) { s.File = v }},
	{keyDiffMode, "oneof=unified split", func(s *State, v string) { s.DiffMode = v }},
	{keyQuery, "max=512", func(s *State, v string) { s.Query = v }},
}

// Default returns the baseline state.
func Default() State {
	return State{Tab: TabDiff, DiffMode: DiffUnified}
}

// Validate checks every field against its constraint.
func (s *State) Validate() error {
	return validate.Struct(s)
}

// Encode renders s as a fragment query string without the leading '#',
// omitting every field that equals its default.
func Encode(s State) string {
	def := Default()
	v := url.Values{}

	if s.Commit != def.Commit {
		v.Set(keyCommit, s.Commit)
	}

	if s.Tab != def.Tab {
		v.Set(keyTab, s.Tab)
	}

	if s.File != def.File {
		v.Set(keyFile, s.File)
	}

	if s.DiffMode != def.DiffMode {
		v.Set(keyDiffMode, s.DiffMode)
	}

	if s.Query != def.Query {
		v.Set(keyQuery, s.Query)
	}

	if s.ReviewedOnly {
		v.Set(keyReviewedOnly, "1")
	}

	if s.Bucket != nil {
		v.Set(keyBucket, strconv.Itoa(*s.Bucket))
	}

	return v.Encode()
}

// Decode parses a fragment, with or without its leading '#'. Unknown keys
// are ignored and each invalid value falls back to its default; Decode never
// fails.
func Decode(hash string) State {
	s := Default()

	v, err := url.ParseQuery(strings.TrimPrefix(hash, "#"))
	if err != nil && len(v) == 0 {
		return s
	}

	for _, f := range stringFields {
		raw := v.Get(f.key)
		if raw == "" || validate.Var(raw, f.tag) != nil {
			continue
		}

		f.set(&s, raw)
	}

	s.ReviewedOnly = v.Get(keyReviewedOnly) == "1"

	if raw := v.Get(keyBucket); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && validate.Var(n, "min=0,max=10") == nil {
			s.Bucket = &n
		}
	}

	return s
}
