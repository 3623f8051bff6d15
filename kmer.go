// Copyright © 2018 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package fmhcov

import "errors"

// ErrIllegalBase means a base outside plain ACGT was seen while encoding a k-mer.
var ErrIllegalBase = errors.New("fmhcov: illegal base, only ACGT supported")

// ErrInvalidK means k is not one of the supported sizes.
var ErrInvalidK = errors.New("fmhcov: k must be 21 or 31")

// ValidK reports whether k is a size this package supports.
func ValidK(k int) bool {
	return k == 21 || k == 31
}

// Kmer is a 64-bit canonical k-mer hash (NOT the raw 2-bit code — see Canonical).
type Kmer = uint64

// encodeBase maps one base to its 2-bit code, or reports failure for
// anything outside plain ACGT. Degenerate IUPAC codes are treated as
// illegal: spec requires that a non-ACGT base simply break the current
// k-mer window, not be resolved to a representative base.
func encodeBase(b byte) (code uint64, ok bool) {
	switch b {
	case 'A', 'a':
		return 0, true
	case 'C', 'c':
		return 1, true
	case 'G', 'g':
		return 2, true
	case 'T', 't':
		return 3, true
	default:
		return 0, false
	}
}

// Encode packs a k-mer (len(kmer) == k) into its 2-bit representation.
func Encode(kmer []byte) (code uint64, err error) {
	k := len(kmer)
	if !ValidK(k) {
		return 0, ErrInvalidK
	}
	for i := range kmer {
		b, ok := encodeBase(kmer[k-1-i])
		if !ok {
			return 0, ErrIllegalBase
		}
		code |= b << uint(i*2)
	}
	return code, nil
}

// encodeFromFormer computes the 2-bit code of the k-mer obtained by sliding
// the window right by one base, given the new trailing base. Mirrors the
// teacher's EncodeFromFormerKmer (itself inspired by ntHash's rolling
// update), avoiding a full re-encode of the window on every step.
func encodeFromFormer(newBase byte, k int, leftCode uint64) (code uint64, ok bool) {
	b, good := encodeBase(newBase)
	if !good {
		return 0, false
	}
	mask := (uint64(1) << uint((k-1)*2)) - 1
	return ((leftCode & mask) << 2) | b, true
}

// bit2base maps a 2-bit code back to its base letter.
var bit2base = [4]byte{'A', 'C', 'G', 'T'}

// Decode converts a 2-bit k-mer code back into its byte representation.
func Decode(code uint64, k int) []byte {
	kmer := make([]byte, k)
	for i := 0; i < k; i++ {
		kmer[k-1-i] = bit2base[code&3]
		code >>= 2
	}
	return kmer
}

// Reverse returns the code of the reversed (not complemented) sequence.
func Reverse(code uint64, k int) (c uint64) {
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code & 3
		code >>= 2
	}
	return
}

// Complement returns the code of the complemented (not reversed) sequence.
func Complement(code uint64, k int) (c uint64) {
	for i := 0; i < k; i++ {
		c |= (code&3 ^ 3) << uint(i<<1)
		code >>= 2
	}
	return
}

// RevComp returns the code of the reverse complement sequence.
func RevComp(code uint64, k int) (c uint64) {
	for i := 0; i < k; i++ {
		c <<= 2
		c |= code&3 ^ 3
		code >>= 2
	}
	return
}

// KmerCode is a 2-bit-packed k-mer together with its size.
type KmerCode struct {
	Code uint64
	K    int
}

// NewKmerCode builds a KmerCode from raw bases.
func NewKmerCode(kmer []byte) (KmerCode, error) {
	code, err := Encode(kmer)
	if err != nil {
		return KmerCode{}, err
	}
	return KmerCode{code, len(kmer)}, nil
}

// Canonical returns the lexicographically smaller of kcode and its reverse
// complement — the canonical k-mer per the GLOSSARY.
func (kcode KmerCode) Canonical() KmerCode {
	rc := KmerCode{RevComp(kcode.Code, kcode.K), kcode.K}
	if rc.Code < kcode.Code {
		return rc
	}
	return kcode
}

// Bytes returns the k-mer as a byte slice.
func (kcode KmerCode) Bytes() []byte {
	return Decode(kcode.Code, kcode.K)
}

// String returns the k-mer as a string.
func (kcode KmerCode) String() string {
	return string(Decode(kcode.Code, kcode.K))
}
