package levenshtein_test

import (
	"math/rand/v2"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Sumatoshi-tech/specscope/pkg/alg/levenshtein"
)

// bruteForce is the textbook full-matrix line Levenshtein distance.
func bruteForce(a, b []string) int {
	dist := make([][]int, len(a)+1)
	for i := range dist {
		dist[i] = make([]int, len(b)+1)
		dist[i][0] = i
	}

	for j := range dist[0] {
		dist[0][j] = j
	}

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}

			dist[i][j] = min(dist[i-1][j]+1, dist[i][j-1]+1, dist[i-1][j-1]+cost)
		}
	}

	return dist[len(a)][len(b)]
}

func randomLines(rng *rand.Rand, n, alphabet int) []string {
	lines := make([]string, n)
	for i := range lines {
		lines[i] = "line " + strconv.Itoa(rng.IntN(alphabet))
	}

	return lines
}

func TestLines_Table(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    []string
		b    []string
		want int
	}{
		{"both empty", nil, nil, 0},
		{"insert all", nil, []string{"x", "y"}, 2},
		{"delete all", []string{"x", "y"}, nil, 2},
		{"equal", []string{"a", "b"}, []string{"a", "b"}, 0},
		{"substitute", []string{"a", "b", "c"}, []string{"a", "x", "c"}, 1},
		{"insert middle", []string{"a", "c"}, []string{"a", "b", "c"}, 1},
		{"kitten", []string{"k", "i", "t", "t", "e", "n"}, []string{"s", "i", "t", "t", "i", "n", "g"}, 3},
	}

	ctx := &levenshtein.Context{}

	for _, tc := range tests {
		got := ctx.Lines(tc.a, tc.b, 100)
		assert.False(t, got.EarlyExit, tc.name)
		assert.Equal(t, tc.want, got.Value, tc.name)
	}
}

func TestLines_MatchesBruteForce(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(7, 11))
	ctx := &levenshtein.Context{}

	for range 200 {
		a := randomLines(rng, rng.IntN(50), 6)
		b := randomLines(rng, rng.IntN(50), 6)

		want := bruteForce(a, b)
		got := ctx.Lines(a, b, len(a)+len(b))

		assert.False(t, got.EarlyExit)
		assert.Equal(t, want, got.Value)
	}
}

func TestLines_TightBoundIsExactOrEarlyExit(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(3, 5))
	ctx := &levenshtein.Context{}

	for range 200 {
		a := randomLines(rng, rng.IntN(40), 4)
		b := randomLines(rng, rng.IntN(40), 4)
		bound := rng.IntN(20)

		want := bruteForce(a, b)
		got := ctx.Lines(a, b, bound)

		if want <= bound {
			assert.False(t, got.EarlyExit, "distance %d within bound %d", want, bound)
			assert.Equal(t, want, got.Value)
		} else {
			assert.True(t, got.EarlyExit, "distance %d above bound %d", want, bound)
			assert.Equal(t, bound, got.Value)
		}
	}
}

func TestLines_LengthGapExceedsBound(t *testing.T) {
	t.Parallel()

	ctx := &levenshtein.Context{}
	got := ctx.Lines([]string{"a"}, []string{"a", "b", "c", "d"}, 2)

	assert.Equal(t, levenshtein.Result{Value: 2, EarlyExit: true}, got)
}

func TestLines_NegativeBound(t *testing.T) {
	t.Parallel()

	ctx := &levenshtein.Context{}

	assert.Equal(t, levenshtein.Result{Value: 0}, ctx.Lines([]string{"a"}, []string{"a"}, -5))
	assert.Equal(t, levenshtein.Result{Value: 0, EarlyExit: true}, ctx.Lines([]string{"a"}, []string{"b"}, -5))
}

func TestDefaultBound(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 200, levenshtein.DefaultBound(10, 10))
	assert.Equal(t, 240, levenshtein.DefaultBound(10, 20))
	assert.Equal(t, 240, levenshtein.DefaultBound(20, 10))
	assert.Equal(t, 13, levenshtein.Bound(1, 4, 3, 4))
}

func BenchmarkLines(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	left := randomLines(rng, 2000, 500)
	right := append([]string(nil), left...)

	for i := 0; i < len(right); i += 97 {
		right[i] = "edited"
	}

	ctx := &levenshtein.Context{}
	bound := levenshtein.DefaultBound(len(left), len(right))

	b.ResetTimer()

	for range b.N {
		ctx.Lines(left, right, bound)
	}
}
