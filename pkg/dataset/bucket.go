package dataset

import (
	"math/bits"
	"strconv"
)

// Bucket is one taxonomy category id in [0, NumBuckets).
type Bucket uint8

// Reserved buckets.
const (
	BucketUnreviewed Bucket = 0
	BucketOther      Bucket = 10
	NumBuckets              = 11
)

// Valid reports whether b is a known bucket id.
func (b Bucket) Valid() bool {
	return int(b) < NumBuckets
}

// String returns the decimal id, matching the bucket_defs keys.
func (b Bucket) String() string {
	return strconv.Itoa(int(b))
}

// AllBuckets returns every bucket id in ascending order.
func AllBuckets() []Bucket {
	out := make([]Bucket, NumBuckets)
	for i := range out {
		out[i] = Bucket(i)
	}

	return out
}

// BucketMask is a fixed-width presence set over the taxonomy buckets.
type BucketMask uint16

// Has reports whether bucket b is in the mask.
func (m BucketMask) Has(b Bucket) bool {
	return b.Valid() && m&(1<<b) != 0
}

// With returns the mask with bucket b added. Invalid buckets are ignored.
func (m BucketMask) With(b Bucket) BucketMask {
	if !b.Valid() {
		return m
	}

	return m | 1<<b
}

// Count returns the number of buckets in the mask.
func (m BucketMask) Count() int {
	return bits.OnesCount16(uint16(m))
}

// Buckets lists the buckets present in ascending order.
func (m BucketMask) Buckets() []Bucket {
	out := make([]Bucket, 0, m.Count())

	for _, b := range AllBuckets() {
		if m.Has(b) {
			out = append(out, b)
		}
	}

	return out
}

// GroupBuckets returns the distinct buckets a review group is filed under, in
// first-listed order. An empty list means BucketOther.
func GroupBuckets(g *ReviewGroup) []Bucket {
	if len(g.Buckets) == 0 {
		return []Bucket{BucketOther}
	}

	var seen BucketMask

	out := make([]Bucket, 0, len(g.Buckets))

	for _, id := range g.Buckets {
		if id < 0 || id >= NumBuckets || seen.Has(Bucket(id)) {
			continue
		}

		seen = seen.With(Bucket(id))
		out = append(out, Bucket(id))
	}

	if len(out) == 0 {
		return []Bucket{BucketOther}
	}

	return out
}
