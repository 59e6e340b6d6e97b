package dataset_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/specscope/internal/testfixture"
	"github.com/Sumatoshi-tech/specscope/pkg/dataset"
)

func TestBucketMask(t *testing.T) {
	t.Parallel()

	var mask dataset.BucketMask

	mask = mask.With(2).With(7).With(2).With(42)

	assert.True(t, mask.Has(2))
	assert.True(t, mask.Has(7))
	assert.False(t, mask.Has(0))
	assert.False(t, mask.Has(42))
	assert.Equal(t, 2, mask.Count())
	assert.Equal(t, []dataset.Bucket{2, 7}, mask.Buckets())
	assert.Len(t, dataset.AllBuckets(), dataset.NumBuckets)
}

func TestGroupBuckets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []dataset.Bucket{dataset.BucketOther}, dataset.GroupBuckets(&dataset.ReviewGroup{}))
	assert.Equal(t, []dataset.Bucket{4, 1}, dataset.GroupBuckets(&dataset.ReviewGroup{Buckets: []int{4, 1, 4}}))
}

func TestBuildViews(t *testing.T) {
	t.Parallel()

	views := dataset.BuildViews(testfixture.Dataset())
	require.Len(t, views, 3)

	unreviewed := views[0]
	assert.False(t, unreviewed.Reviewed)
	assert.Equal(t, dataset.BucketMask(1), unreviewed.BucketMask)
	assert.Equal(t, dataset.Magnitude{Groups: 1}, unreviewed.Magnitude)

	one := views[1]
	assert.True(t, one.Reviewed)
	assert.Equal(t, []dataset.Bucket{1, 4}, one.BucketMask.Buckets())
	assert.Equal(t, 1, one.Magnitude.Groups)
	assert.Equal(t, 2, one.Magnitude.Lines)
	assert.Equal(t, len(testfixture.PatchV2), one.Magnitude.PatchBytes)

	two := views[2]
	assert.Equal(t, []dataset.Bucket{2, 7, 10}, two.BucketMask.Buckets())
	assert.Equal(t, 2, two.Magnitude.Groups)
	assert.InDelta(t, 3.0, two.Magnitude.Of(dataset.MetricLines), 0)
	assert.Equal(t, 2, two.Idx)
}

func TestViewMatchesFilter(t *testing.T) {
	t.Parallel()

	views := dataset.BuildViews(testfixture.Dataset())
	bucket := dataset.Bucket(7)

	assert.True(t, views[0].MatchesFilter(false, nil))
	assert.False(t, views[0].MatchesFilter(true, nil))
	assert.False(t, views[1].MatchesFilter(false, &bucket))
	assert.True(t, views[2].MatchesFilter(true, &bucket))
}

func TestParseMetric(t *testing.T) {
	t.Parallel()

	m, err := dataset.ParseMetric("patchBytes")
	require.NoError(t, err)
	assert.Equal(t, dataset.MetricPatchBytes, m)

	_, err = dataset.ParseMetric("words")
	require.ErrorIs(t, err, dataset.ErrUnknownMetric)
}
