package dataset_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/specscope/internal/testfixture"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

func TestDecode_Fixture(t *testing.T) {
	t.Parallel()

	ds, err := dataset.Decode(testfixture.JSON(t))
	require.NoError(t, err)

	require.Len(t, ds.Commits, 3)
	assert.Equal(t, "beef001", ds.Commits[1].Short)
	assert.Equal(t, "Ada <ada@example.com>", ds.Commits[0].Author.String())
	assert.Nil(t, ds.Commits[0].Review)
	require.NotNil(t, ds.Commits[2].Review)
	assert.Len(t, ds.Commits[2].Review.Groups, 2)
	assert.Equal(t, "Caching semantics", ds.Definition(7))
	assert.Empty(t, ds.Definition(3))
}

func TestDecode_MissingOptionalFieldsDefault(t *testing.T) {
	t.Parallel()

	raw := `{
		"commits": [{
			"sha": "0123456789abcdef",
			"epoch": null,
			"author": "Linus Example <linus@example.com>",
			"totals": {"added": 2},
			"review": {"groups": [
				{"confidence": 7.5, "buckets": [3]},
				{"confidence": -1}
			]}
		}]
	}`

	ds, err := dataset.Decode([]byte(raw))
	require.NoError(t, err)

	c := ds.Commits[0]
	assert.Equal(t, "0123456", c.Short)
	assert.Zero(t, c.Epoch)
	assert.Empty(t, c.Date)
	assert.Equal(t, dataset.Author{Name: "Linus Example", Email: "linus@example.com"}, c.Author)
	assert.Equal(t, dataset.Totals{Added: 2}, c.Totals)
	assert.InDelta(t, 1.0, c.Review.Groups[0].Confidence, 0)
	assert.InDelta(t, 0.0, c.Review.Groups[1].Confidence, 0)
	assert.NotNil(t, ds.BucketDefs)
}

func TestDecode_SchemaViolation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{"missing commits", `{"generated_at": "x"}`},
		{"bucket out of range", `{"commits": [{"sha": "a", "review": {"groups": [{"buckets": [11]}]}}]}`},
		{"bad bucket def key", `{"bucket_defs": {"12": "nope"}, "commits": []}`},
		{"string epoch", `{"commits": [{"sha": "a", "epoch": "yesterday"}]}`},
		{"missing sha", `{"commits": [{"short": "a"}]}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			_, err := dataset.Decode([]byte(tc.input))
			require.Error(t, err)

			var perr *dataset.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, dataset.StageSchema, perr.Stage)
			assert.NotEmpty(t, perr.Issues)
			assert.Contains(t, perr.Error(), "dataset schema failed")
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	t.Parallel()

	_, err := dataset.Decode([]byte(`{"commits": [`))

	var perr *dataset.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, dataset.StageDecode, perr.Stage)
}

func TestLoad_LZ4(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	zw := lz4.NewWriter(&buf)
	_, err := zw.Write(testfixture.JSON(t))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	ds, err := dataset.Load(&buf)
	require.NoError(t, err)
	assert.Len(t, ds.Commits, 3)
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	ds, err := dataset.LoadFile(testfixture.WriteFile(t))
	require.NoError(t, err)
	assert.Len(t, ds.Commits, 3)

	_, err = dataset.LoadFile(filepath.Join(t.TempDir(), "absent.json"))

	var perr *dataset.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, dataset.StageRead, perr.Stage)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
