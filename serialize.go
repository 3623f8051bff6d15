package fmhcov

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// bcspMagic identifies a fmhcov sample sketch file. Grounded on
// shenwei356-unikmer/serialization.go's own magic-number-prefixed binary
// format, generalized from one KmerCode per record to a whole
// SampleSketch (k-mer counts plus read-length bookkeeping).
var bcspMagic = [8]byte{'F', 'M', 'H', 'C', 'O', 'V', '1', '\n'}

// BcspMainVersion is the on-disk format's main version.
const BcspMainVersion uint8 = 1

// BcspMinorVersion is the on-disk format's minor version.
const BcspMinorVersion uint8 = 0

const bcspFlagPaired uint32 = 1 << 0

var (
	// ErrInvalidFileFormat means the magic number didn't match.
	ErrInvalidFileFormat = errors.New("fmhcov: not a fmhcov sample sketch file")
	// ErrVersionMismatch means the file's main version differs from the one
	// this reader understands.
	ErrVersionMismatch = errors.New("fmhcov: unsupported sample sketch file format version")
	// ErrSuffixMismatch means the file suffix (.bcsp vs .paired.bcsp) disagrees
	// with the sketch's actual Paired flag — the format is self-describing
	// via suffix, so a mismatch here means the file was renamed incorrectly.
	ErrSuffixMismatch = errors.New("fmhcov: filename suffix doesn't match sample sketch's paired flag")
)

var be = binary.BigEndian

// bcspSuffix and bcspPairedSuffix are the two recognized extensions.
const (
	bcspSuffix       = ".bcsp"
	bcspPairedSuffix = ".paired.bcsp"
)

// suffixForSketch returns the canonical suffix a sketch's filename must end
// with, given its Paired flag.
func suffixForSketch(paired bool) string {
	if paired {
		return bcspPairedSuffix
	}
	return bcspSuffix
}

// SaveSampleSketch writes s to path in the .bcsp binary format, gzip
// compressing the stream when compress is true. The filename's suffix must
// match s.Paired (".bcsp" for single-end, ".paired.bcsp" for paired-end) —
// this is what lets a reader tell the two apart without opening the file,
// the same self-describing-by-suffix convention spec.md documents for
// persisted sketches.
func SaveSampleSketch(path string, s *SampleSketch, compress bool) error {
	if !strings.HasSuffix(path, suffixForSketch(s.Paired)) {
		return ErrSuffixMismatch
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if !compress {
		if err := WriteSampleSketch(bw, s); err != nil {
			return err
		}
		return bw.Flush()
	}

	gw := gzip.NewWriter(bw)
	if err := WriteSampleSketch(gw, s); err != nil {
		gw.Close()
		return err
	}
	if err := gw.Close(); err != nil {
		return err
	}
	return bw.Flush()
}

// LoadSampleSketch reads a SampleSketch previously written by
// SaveSampleSketch, auto-detecting gzip compression from the stream's
// leading magic bytes rather than trusting the filename.
func LoadSampleSketch(path string) (*SampleSketch, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	br := bufio.NewReader(f)
	peek, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, err
	}
	var r io.Reader = br
	if len(peek) == 2 && peek[0] == 0x1f && peek[1] == 0x8b {
		gr, err := gzip.NewReader(br)
		if err != nil {
			return nil, err
		}
		defer gr.Close()
		r = gr
	}
	sketch, err := ReadSampleSketch(r)
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(path, suffixForSketch(sketch.Paired)) {
		return nil, ErrSuffixMismatch
	}
	return sketch, nil
}

// WriteSampleSketch writes s's header and k-mer table to w in the raw
// (uncompressed at this layer) .bcsp format:
//
//	offset  bytes  field
//	0       8      magic number
//	8       1      MainVersion
//	9       1      MinorVersion
//	10      1      K
//	11      4      Flag (bit 0: paired)
//	15      8      C (sub-sampling rate)
//	23      2      len(SampleName)
//	25      n      SampleName bytes
//	25+n    8      NumReads
//	33+n    8      MeanReadLength (float64 bits)
//	41+n    8      number of k-mer/count records
//	49+n    12×m   (k-mer uint64, count uint32) records
func WriteSampleSketch(w io.Writer, s *SampleSketch) error {
	if _, err := w.Write(bcspMagic[:]); err != nil {
		return err
	}
	flag := uint32(0)
	if s.Paired {
		flag |= bcspFlagPaired
	}
	for _, v := range []interface{}{BcspMainVersion, BcspMinorVersion, uint8(s.K), flag, s.C} {
		if err := binary.Write(w, be, v); err != nil {
			return err
		}
	}
	nameBytes := []byte(s.SampleName)
	if err := binary.Write(w, be, uint16(len(nameBytes))); err != nil {
		return err
	}
	if _, err := w.Write(nameBytes); err != nil {
		return err
	}
	if err := binary.Write(w, be, uint64(s.NumReads)); err != nil {
		return err
	}
	if err := binary.Write(w, be, math.Float64bits(s.MeanReadLength)); err != nil {
		return err
	}
	if err := binary.Write(w, be, uint64(len(s.KmerCounts))); err != nil {
		return err
	}
	for km, count := range s.KmerCounts {
		if err := binary.Write(w, be, km); err != nil {
			return err
		}
		if err := binary.Write(w, be, uint32(count)); err != nil {
			return err
		}
	}
	return nil
}

// ReadSampleSketch reads a SampleSketch back out of r, the inverse of
// WriteSampleSketch. The caller is responsible for having already
// decompressed r if the underlying file was gzipped.
func ReadSampleSketch(r io.Reader) (*SampleSketch, error) {
	var magic [8]byte
	if err := binary.Read(r, be, &magic); err != nil {
		return nil, err
	}
	if magic != bcspMagic {
		return nil, ErrInvalidFileFormat
	}

	var mainVersion, minorVersion, k uint8
	var flag uint32
	var c uint64
	if err := binary.Read(r, be, &mainVersion); err != nil {
		return nil, err
	}
	if mainVersion != BcspMainVersion {
		return nil, ErrVersionMismatch
	}
	if err := binary.Read(r, be, &minorVersion); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &k); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &flag); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &c); err != nil {
		return nil, err
	}

	var nameLen uint16
	if err := binary.Read(r, be, &nameLen); err != nil {
		return nil, err
	}
	nameBytes := make([]byte, nameLen)
	if _, err := io.ReadFull(r, nameBytes); err != nil {
		return nil, err
	}

	var numReads, numKmers uint64
	var meanBits uint64
	if err := binary.Read(r, be, &numReads); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &meanBits); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &numKmers); err != nil {
		return nil, err
	}

	counts := make(map[Kmer]int, numKmers)
	for i := uint64(0); i < numKmers; i++ {
		var km Kmer
		var count uint32
		if err := binary.Read(r, be, &km); err != nil {
			return nil, err
		}
		if err := binary.Read(r, be, &count); err != nil {
			return nil, err
		}
		counts[km] = int(count)
	}

	return &SampleSketch{
		SampleName:     string(nameBytes),
		C:              c,
		K:              int(k),
		Paired:         flag&bcspFlagPaired != 0,
		NumReads:       int(numReads),
		MeanReadLength: math.Float64frombits(meanBits),
		KmerCounts:     counts,
	}, nil
}

// CheckCompatible reports whether s can be compared against contig at all:
// same k, and s was sketched at a rate no coarser than contig's (sample.c >
// contig.c is rejected — a coarser sample sketch can't be a superset of the
// k-mers a finer contig sketch needs to check containment against). This is
// the same contract Infer enforces; exposing it separately lets a loader
// fail fast on an incompatible pair before doing any inference work.
func (s *SampleSketch) CheckCompatible(contig *ContigSketch) error {
	if s.K != contig.K {
		return ErrIncompatibleK
	}
	if s.C > contig.C {
		return ErrIncompatibleRate
	}
	return nil
}
