package fmhcov

import (
	"errors"

	"golang.org/x/sys/cpu"
)

// ErrInvalidC means a sub-sampling rate less than 1 was supplied.
var ErrInvalidC = errors.New("fmhcov: c must be >= 1")

// PositionedKmer is one FMH-selected k-mer together with its origin, emitted
// by ExtractPositions for reference sketching (§4.A).
type PositionedKmer struct {
	ContigID int
	Pos      int
	Kmer     Kmer
}

// Extractor streams FracMinHash-selected canonical k-mers out of a sequence.
// It is the seed extractor of §4.A: given a rate c and k-mer size k, it
// keeps every canonical k-mer whose mixed hash is 0 mod c.
type Extractor struct {
	K int
	C uint64
}

// NewExtractor validates k and c and returns an Extractor.
func NewExtractor(k int, c uint64) (*Extractor, error) {
	if !ValidK(k) {
		return nil, ErrInvalidK
	}
	if c < 1 {
		return nil, ErrInvalidC
	}
	return &Extractor{K: k, C: c}, nil
}

// Extract returns every FMH-selected canonical k-mer hash in S, in the order
// their windows start. Used for read sketching, where position is not
// needed. Dispatches to the AVX2-accelerated path when available; output is
// bit-identical to the scalar path either way (property tested in
// seed_test.go).
func (e *Extractor) Extract(s []byte) []Kmer {
	if cpu.X86.HasAVX2 {
		return extractFast(s, e.K, e.C)
	}
	return extractScalar(s, e.K, e.C)
}

// ExtractPositions is Extract but additionally records, for each selected
// k-mer, the contig it came from (contigID, passed through unchanged) and
// the 0-based start offset of the canonical k-mer's forward-strand window
// within S. Used for reference sketching, where the minimum-spacing filter
// needs positions.
func (e *Extractor) ExtractPositions(s []byte, contigID int) []PositionedKmer {
	if cpu.X86.HasAVX2 {
		return extractPositionsFast(s, e.K, e.C, contigID)
	}
	return extractPositionsScalar(s, e.K, e.C, contigID)
}

// extractScalar is the reference (non-vectorized) implementation: a rolling
// 2-bit encoder that resets its window whenever it meets a non-ACGT base,
// exactly as spec §4.A requires ("the next k-mer containing them is
// skipped"). Grounded on the teacher's NextKmer rolling-encode idiom in
// iterator.go, generalized to canonical-hash FMH selection instead of raw
// emission.
func extractScalar(s []byte, k int, c uint64) []Kmer {
	out := make([]Kmer, 0, len(s)/int(c)+1)
	forEachCanonicalKmer(s, k, func(_ int, code uint64) {
		if selected(code, c) {
			out = append(out, code)
		}
	})
	return out
}

func extractPositionsScalar(s []byte, k int, c uint64, contigID int) []PositionedKmer {
	out := make([]PositionedKmer, 0, len(s)/int(c)+1)
	forEachCanonicalKmer(s, k, func(pos int, code uint64) {
		if selected(code, c) {
			out = append(out, PositionedKmer{ContigID: contigID, Pos: pos, Kmer: code})
		}
	})
	return out
}

// forEachCanonicalKmer walks S computing the canonical hash of every valid
// k-mer window and calling visit(pos, canonicalCode) for each. pos is the
// 0-based start of the forward-strand window. A run of valid bases shorter
// than k simply produces no k-mers, matching "non-ACGT bases break k-mers".
func forEachCanonicalKmer(s []byte, k int, visit func(pos int, code uint64)) {
	if len(s) < k {
		return
	}
	var code uint64
	run := 0 // number of consecutive valid bases accumulated into `code`
	for i := 0; i < len(s); i++ {
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
			mask := (uint64(1) << uint((k-1)*2)) - 1
			code = ((code & mask) << 2) | b
		}
		if run == k {
			pos := i - k + 1
			canon := Canonical(code, k)
			visit(pos, canon)
		}
	}
}

// Canonical returns the canonical hash (not 2-bit code) of the k-mer whose
// forward-strand 2-bit packing is code: the smaller of code and its reverse
// complement, mixed into a 64-bit hash suitable for FMH selection.
func Canonical(code uint64, k int) uint64 {
	rc := RevComp(code, k)
	if rc < code {
		code = rc
	}
	return mixHash(code)
}
