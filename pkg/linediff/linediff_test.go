package linediff_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/specscope/pkg/linediff"
)

func reconstruct(ops []linediff.Op, skip linediff.Kind) []string {
	out := []string{}

	for _, op := range ops {
		if op.Kind != skip {
			out = append(out, op.Text)
		}
	}

	return out
}

// lcsLength gives the length of the longest common subsequence; a minimal
// script has exactly len(a)+len(b)-2*lcs non-equal ops.
func lcsLength(a, b []string) int {
	dp := make([][]int, len(a)+1)
	for i := range dp {
		dp[i] = make([]int, len(b)+1)
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				dp[i][j] = dp[i-1][j-1] + 1
			} else {
				dp[i][j] = max(dp[i-1][j], dp[i][j-1])
			}
		}
	}

	return dp[len(a)][len(b)]
}

func randomLines(rng *rand.Rand, n, alphabet int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "l" + strconv.Itoa(rng.IntN(alphabet))
	}

	return lines
}

func TestLines_Simple(t *testing.T) {
	t.Parallel()

	a := []string{"title", "intro", "old rule", "outro"}
	b := []string{"title", "intro", "new rule", "extra", "outro"}

	res := linediff.Lines(a, b)
	require.False(t, res.SizeExceeded)

	assert.Equal(t, a, reconstruct(res.Ops, linediff.Add))
	assert.Equal(t, b, reconstruct(res.Ops, linediff.Del))
	assert.Equal(t, linediff.Stats{Equal: 3, Added: 2, Deleted: 1}, linediff.Count(res.Ops))
}

func TestLines_EmptySides(t *testing.T) {
	t.Parallel()

	res := linediff.Lines(nil, []string{"a", "b"})
	assert.Equal(t, []linediff.Op{{Kind: linediff.Add, Text: "a"}, {Kind: linediff.Add, Text: "b"}}, res.Ops)

	res = linediff.Lines([]string{"a"}, nil)
	assert.Equal(t, []linediff.Op{{Kind: linediff.Del, Text: "a"}}, res.Ops)

	res = linediff.Lines(nil, nil)
	assert.Empty(t, res.Ops)
	assert.False(t, res.SizeExceeded)
}

func TestLines_EmptyAndDuplicateLinesSurvive(t *testing.T) {
	t.Parallel()

	a := []string{"", "x", "", "", "y"}
	b := []string{"", "", "x", "y", ""}

	res := linediff.Lines(a, b)

	assert.Equal(t, a, reconstruct(res.Ops, linediff.Add))
	assert.Equal(t, b, reconstruct(res.Ops, linediff.Del))
}

func TestLines_ReconstructsAndIsMinimal(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(42, 99))

	for range 150 {
		a := randomLines(rng, rng.IntN(40), 5)
		b := randomLines(rng, rng.IntN(40), 5)

		res := linediff.Lines(a, b)
		require.False(t, res.SizeExceeded)

		assert.Equal(t, a, reconstruct(res.Ops, linediff.Add))
		assert.Equal(t, b, reconstruct(res.Ops, linediff.Del))

		st := linediff.Count(res.Ops)
		assert.Equal(t, len(a)+len(b)-2*lcsLength(a, b), st.Added+st.Deleted)
	}
}

func TestLines_ManyDistinctLines(t *testing.T) {
	t.Parallel()

	a := make([]string, 60000)
	for i := range a {
		a[i] = "row " + strconv.Itoa(i)
	}

	b := append([]string{"head"}, a...)

	res := linediff.LinesWithLimit(a, b, 0)
	require.False(t, res.SizeExceeded)

	st := linediff.Count(res.Ops)
	assert.Equal(t, linediff.Stats{Equal: len(a), Added: 1}, st)
	assert.Equal(t, b, reconstruct(res.Ops, linediff.Del))
}

func TestLines_SizeGuard(t *testing.T) {
	t.Parallel()

	a := make([]string, 4001)
	b := make([]string, 4000)

	res := linediff.Lines(a, b)
	assert.True(t, res.SizeExceeded)
	assert.Nil(t, res.Ops)
	assert.Equal(t, 8001, res.Lines)
	assert.Equal(t, linediff.DefaultMaxLines, res.Limit)

	res = linediff.Lines(a[:4000], b)
	assert.False(t, res.SizeExceeded)
	assert.Len(t, res.Ops, 4000)

	res = linediff.LinesWithLimit([]string{"a"}, []string{"b"}, 1)
	assert.True(t, res.SizeExceeded)
}

func BenchmarkLines(b *testing.B) {
	rng := rand.New(rand.NewPCG(5, 6))
	left := randomLines(rng, 3000, 2000)
	right := append([]string(nil), left...)

	for i := 0; i < len(right); i += 50 {
		right[i] = "changed"
	}

	b.ResetTimer()

	for range b.N {
		linediff.Lines(left, right)
	}
}
