package fmhcov

import (
	"encoding/binary"

	boom "github.com/tylertreat/BoomFilters"
)

// pairFingerprints computes the two LSH fingerprints used for read-pair
// deduplication (§4.C): the canonical hash of the first k bases and of the
// k bases starting at the sequence midpoint. Two disjoint windows rather
// than one make the fingerprint robust to a single sequencing error at
// either end, while still being cheap — no suffix array, no full-read hash.
// Grounded on original_source/src/sketch.rs's pair_kmer/pair_kmer_single,
// which fingerprint a read the same way for both the single-end and
// paired-end cases; callers combine two reads' fingerprints for a pair.
func pairFingerprints(seq []byte, k int) (fp1, fp2 uint64, ok bool) {
	if len(seq) < 2*k {
		return 0, 0, false
	}
	front, err := Encode(seq[:k])
	if err != nil {
		return 0, 0, false
	}
	mid := len(seq) / 2
	midCode, err := Encode(seq[mid : mid+k])
	if err != nil {
		return 0, 0, false
	}
	return Canonical(front, k), Canonical(midCode, k), true
}

// Deduper suppresses PCR/optical duplicate k-mer occurrences. It is
// consulted once per extracted k-mer, tagged with the enclosing read's (or
// read pair's) two-window LSH fingerprint, and reports whether this
// occurrence should be dropped. currentCount is the k-mer's count so far in
// the sketch being built: a fingerprint collision is only treated as a
// genuine duplicate once the k-mer has already been counted at least once,
// which keeps a k-mer's very first occurrence from ever being suppressed by
// an approximate backend's false positive. Grounded on
// original_source/src/sketch.rs::dup_removal_lsh_full_exact, which performs
// exactly this per-(kmer, fingerprint) membership check, not one check per
// read.
type Deduper interface {
	Observe(km Kmer, fp1, fp2 uint64, currentCount int) (duplicate bool)
}

type dedupKey struct {
	km Kmer
	fp uint64
}

func dedupBytes(km Kmer, fp uint64) []byte {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[0:8], km)
	binary.LittleEndian.PutUint64(buf[8:16], fp)
	return buf[:]
}

// ExactDedup is the exact backend: an in-memory set of (k-mer, fingerprint)
// pairs. Precise, but its memory grows with the number of distinct k-mer
// occurrences seen — appropriate for smaller read sets where exactness
// matters more than footprint.
type ExactDedup struct {
	seen map[dedupKey]struct{}
}

// NewExactDedup returns an empty exact dedup set.
func NewExactDedup() *ExactDedup {
	return &ExactDedup{seen: make(map[dedupKey]struct{})}
}

// Observe implements Deduper: both (km, fp1) and (km, fp2) are checked and
// recorded, matching dup_removal_lsh_full_exact's two-fingerprint check per
// k-mer.
func (d *ExactDedup) Observe(km Kmer, fp1, fp2 uint64, currentCount int) bool {
	k1 := dedupKey{km, fp1}
	k2 := dedupKey{km, fp2}
	_, seen1 := d.seen[k1]
	_, seen2 := d.seen[k2]
	d.seen[k1] = struct{}{}
	d.seen[k2] = struct{}{}
	return currentCount > 0 && (seen1 || seen2)
}

// ScalableCuckooDedup is the probabilistic backend for large read sets: a
// chain of growing github.com/tylertreat/BoomFilters cuckoo filter
// generations, the same growth strategy boom.ScalableBloomFilter itself
// uses (grow into a fresh, larger generation once the current one nears
// capacity, and never rewrite what's already inserted).
type ScalableCuckooDedup struct {
	generations []*boom.CuckooFilter
	capacity    uint
	fpRate      float64
}

// NewScalableCuckooDedup starts a single cuckoo filter generation sized for
// initialCapacity entries at the given target false-positive rate.
func NewScalableCuckooDedup(initialCapacity uint, fpRate float64) *ScalableCuckooDedup {
	return &ScalableCuckooDedup{
		generations: []*boom.CuckooFilter{boom.NewCuckooFilter(initialCapacity, fpRate)},
		capacity:    initialCapacity,
		fpRate:      fpRate,
	}
}

// Observe implements Deduper.
func (d *ScalableCuckooDedup) Observe(km Kmer, fp1, fp2 uint64, currentCount int) bool {
	seen1 := d.testAndAdd(dedupBytes(km, fp1))
	seen2 := d.testAndAdd(dedupBytes(km, fp2))
	return currentCount > 0 && (seen1 || seen2)
}

func (d *ScalableCuckooDedup) testAndAdd(key []byte) bool {
	for _, gen := range d.generations {
		if gen.Test(key) {
			gen.Add(key)
			return true
		}
	}
	current := d.generations[len(d.generations)-1]
	if float64(current.Count()) >= 0.9*float64(d.capacity) {
		d.capacity *= 2
		current = boom.NewCuckooFilter(d.capacity, d.fpRate)
		d.generations = append(d.generations, current)
	}
	current.Add(key)
	return false
}
