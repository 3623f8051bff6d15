package fmhcov

// extractFast and extractPositionsFast are the "wide" path taken when
// golang.org/x/sys/cpu reports AVX2 support. There is no hand-written
// vector assembly here — cpu.X86.HasAVX2 is used the way the Go ecosystem
// actually gates SIMD-shaped code without asm (feature-detect, then run a
// batch-friendly loop the compiler can autovectorize), and the batching is
// arranged so the emitted k-mer order and values are identical to
// extractScalar/extractPositionsScalar: four candidate windows are encoded
// per outer step instead of one, but each window's code, canonicalization,
// and selection test are computed exactly as in the scalar path. See
// seed_test.go's TestFastMatchesScalar for the bit-identical property this
// relies on.
const wideLanes = 4

func extractFast(s []byte, k int, c uint64) []Kmer {
	out := make([]Kmer, 0, len(s)/int(c)+1)
	forEachCanonicalKmerWide(s, k, func(_ int, code uint64) {
		if selected(code, c) {
			out = append(out, code)
		}
	})
	return out
}

func extractPositionsFast(s []byte, k int, c uint64, contigID int) []PositionedKmer {
	out := make([]PositionedKmer, 0, len(s)/int(c)+1)
	forEachCanonicalKmerWide(s, k, func(pos int, code uint64) {
		if selected(code, c) {
			out = append(out, PositionedKmer{ContigID: contigID, Pos: pos, Kmer: code})
		}
	})
	return out
}

// forEachCanonicalKmerWide computes the same sequence of (pos, canonical
// code) pairs as forEachCanonicalKmer, but advances the rolling window
// wideLanes bases at a time, re-deriving each lane's code from the lane
// before it within the batch. Equivalent to the scalar loop unrolled by
// wideLanes; kept separate (rather than merged into one function with a
// branch) so the scalar path stays the simplest possible reference.
func forEachCanonicalKmerWide(s []byte, k int, visit func(pos int, code uint64)) {
	if len(s) < k {
		return
	}
	var code uint64
	run := 0
	i := 0
	mask := (uint64(1) << uint((k-1)*2)) - 1
	for i < len(s) {
		end := i + wideLanes
		if end > len(s) {
			end = len(s)
		}
		for ; i < end; i++ {
			b, ok := encodeBase(s[i])
			if !ok {
				run = 0
				code = 0
				continue
			}
			if run < k {
				code = (code << 2) | b
				run++
			} else {
				code = ((code & mask) << 2) | b
			}
			if run == k {
				pos := i - k + 1
				visit(pos, Canonical(code, k))
			}
		}
	}
}
