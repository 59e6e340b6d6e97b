package hashstate_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/specscope/pkg/hashstate"
)

func intPtr(n int) *int { return &n }

func TestEncode_DefaultIsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, hashstate.Encode(hashstate.Default()))
}

func TestEncode_OmitsDefaults(t *testing.T) {
	t.Parallel()

	s := hashstate.Default()
	s.Commit = "beef001"
	s.Tab = hashstate.TabSearch
	s.Query = "must cache"

	assert.Equal(t, "c=beef001&q=must+cache&tab=search", hashstate.Encode(s))
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	s := hashstate.State{
		Commit:       "f00d002",
		Tab:          hashstate.TabDocument,
		File:         "spec/core & more.md",
		DiffMode:     hashstate.DiffSplit,
		Query:        "a=b#c",
		ReviewedOnly: true,
		Bucket:       intPtr(0),
	}
	require.NoError(t, s.Validate())

	assert.Equal(t, s, hashstate.Decode("#"+hashstate.Encode(s)))
	assert.Equal(t, s, hashstate.Decode(hashstate.Encode(s)))
}

func TestDecode_IgnoresUnknownAndInvalid(t *testing.T) {
	t.Parallel()

	got := hashstate.Decode("#c=beef001&tab=nope&d=sideways&b=11&ro=yes&zz=1")

	want := hashstate.Default()
	want.Commit = "beef001"
	assert.Equal(t, want, got)
}

func TestDecode_Garbage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, hashstate.Default(), hashstate.Decode(""))
	assert.Equal(t, hashstate.Default(), hashstate.Decode("#"))
	assert.Equal(t, hashstate.Default(), hashstate.Decode("%zz"))
	assert.Equal(t, hashstate.Default(), hashstate.Decode("b=-1&b=x&c=not%20alnum"))
}

func TestDecode_BucketBounds(t *testing.T) {
	t.Parallel()

	assert.Equal(t, intPtr(10), hashstate.Decode("b=10").Bucket)
	assert.Nil(t, hashstate.Decode("b=10.5").Bucket)
}

func TestValidate_RejectsBadState(t *testing.T) {
	t.Parallel()

	s := hashstate.Default()
	s.Tab = "graph"
	require.Error(t, s.Validate())

	s = hashstate.Default()
	s.Bucket = intPtr(12)
	require.Error(t, s.Validate())
}
