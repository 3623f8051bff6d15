package fmhcov

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"
)

// mixHash turns a packed canonical k-mer code into the 64-bit hash used for
// FracMinHash selection (hash mod c == 0). A single 2-bit-packed uint64
// does not mix well under a plain modulo — nearby k-mers differ in only a
// couple of low bits — so, as the teacher's syncmer sketch does for s-mers
// (sketch.go's use of xxhash.Sum64), it is run through a strong hash first.
func mixHash(code uint64) uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], code)
	return xxhash.Sum64(buf[:])
}

// selected reports whether the canonical k-mer at code passes FracMinHash
// sub-sampling at rate 1/c.
func selected(code uint64, c uint64) bool {
	if c <= 1 {
		return true
	}
	return mixHash(code)%c == 0
}
