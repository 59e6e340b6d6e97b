package dataset

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/pierrec/lz4/v4"
	"github.com/xeipuuv/gojsonschema"
)

// Decode stages reported by ParseError.
const (
	StageRead       = "read"
	StageDecompress = "decompress"
	StageSchema     = "schema"
	StageDecode     = "decode"
)

// shortLen is the display length used when a commit has no short id.
const shortLen = 7

// lz4Magic is the little-endian LZ4 frame magic number 0x184D2204.
var lz4Magic = []byte{0x04, 0x22, 0x4D, 0x18}

//go:embed dataset.schema.json
var schemaJSON []byte

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaJSON))
})

// ErrSchemaUnavailable wraps a failure to compile the embedded schema.
var ErrSchemaUnavailable = errors.New("dataset schema unavailable")

// Issue is one schema violation.
type Issue struct {
	Field       string `json:"field"`
	Description string `json:"description"`
}

// ParseError is the structured failure of a dataset load. A session cannot
// start without a dataset, so hosts should surface it and offer a retry.
type ParseError struct {
	Stage  string  `json:"stage"`
	Issues []Issue `json:"issues,omitempty"`
	Err    error   `json:"-"`
}

// Error implements error.
func (e *ParseError) Error() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "dataset %s failed", e.Stage)

	if e.Err != nil {
		fmt.Fprintf(&sb, ": %v", e.Err)
	}

	for i, issue := range e.Issues {
		if i == 0 {
			sb.WriteString(": ")
		} else {
			sb.WriteString("; ")
		}

		fmt.Fprintf(&sb, "%s: %s", issue.Field, issue.Description)
	}

	return sb.String()
}

// Unwrap returns the underlying error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// LoadFile reads and decodes a dataset file. LZ4-framed files are
// decompressed transparently.
func LoadFile(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ParseError{Stage: StageRead, Err: err}
	}
	defer f.Close()

	return Load(f)
}

// Load reads a dataset from r, decompressing LZ4 frames when present.
func Load(r io.Reader) (*Dataset, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br

	head, _ := br.Peek(len(lz4Magic))
	if bytes.Equal(head, lz4Magic) {
		src = lz4.NewReader(br)
	}

	data, err := io.ReadAll(src)
	if err != nil {
		stage := StageRead
		if src != br {
			stage = StageDecompress
		}

		return nil, &ParseError{Stage: stage, Err: err}
	}

	return Decode(data)
}

// Decode validates data against the dataset schema and decodes it into a
// fully typed Dataset. Absent or null fields take their zero value,
// confidences are clamped to [0,1] and empty short ids fall back to the first
// seven characters of the sha.
func Decode(data []byte) (*Dataset, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSchemaUnavailable, err)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, &ParseError{Stage: StageDecode, Err: err}
	}

	if !result.Valid() {
		return nil, &ParseError{Stage: StageSchema, Issues: toIssues(result.Errors())}
	}

	var ds Dataset

	if err := json.Unmarshal(data, &ds); err != nil {
		return nil, &ParseError{Stage: StageDecode, Err: err}
	}

	normalize(&ds)

	return &ds, nil
}

func toIssues(errs []gojsonschema.ResultError) []Issue {
	issues := make([]Issue, 0, len(errs))

	for _, e := range errs {
		issues = append(issues, Issue{Field: e.Field(), Description: e.Description()})
	}

	return issues
}

func normalize(ds *Dataset) {
	if ds.BucketDefs == nil {
		ds.BucketDefs = map[string]string{}
	}

	for i := range ds.Commits {
		c := &ds.Commits[i]

		if c.Short == "" {
			c.Short = c.SHA[:min(shortLen, len(c.SHA))]
		}

		if c.Review == nil {
			continue
		}

		for j := range c.Review.Groups {
			g := &c.Review.Groups[j]
			g.Confidence = min(max(g.Confidence, 0), 1)
		}
	}
}
