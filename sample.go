package fmhcov

import (
	"io"

	"github.com/shenwei356/bio/seqio/fastx"
)

// MaxDedupCount is the saturating ceiling on a single k-mer's count within
// a sample sketch (§3, §8: "every value in S.kmer_counts is <= MAX_DEDUP_COUNT").
// The original's concrete threshold was not present in the retrieved
// source (sketch.rs references MAX_DEDUP_COUNT without a literal default),
// so this is an implementation-defined choice: comfortably above any
// realistic single-sample coverage depth.
const MaxDedupCount = 1 << 20

// SampleSketch is the read-side sketch of one sample: a FracMinHash k-mer
// multiset plus enough bookkeeping (read count, running mean read length)
// to drive the coverage/ANI estimators of §4.D-F.
type SampleSketch struct {
	SampleName     string
	FileNames      []string
	C              uint64
	K              int
	Paired         bool
	NumReads       int
	MeanReadLength float64
	KmerCounts     map[Kmer]int
}

func newSampleSketch(sampleName string, fileNames []string, c uint64, k int, paired bool) *SampleSketch {
	return &SampleSketch{
		SampleName: sampleName,
		FileNames:  fileNames,
		C:          c,
		K:          k,
		Paired:     paired,
		KmerCounts: make(map[Kmer]int),
	}
}

// addReadLength updates the running mean read length with the standard
// incremental-mean update, avoiding re-summing every read seen so far.
func (s *SampleSketch) addReadLength(seq []byte) {
	s.NumReads++
	s.MeanReadLength += (float64(len(seq)) - s.MeanReadLength) / float64(s.NumReads)
}

// addKmer folds one extracted k-mer into the sketch, saturating at
// MaxDedupCount. fp1/fp2 are the enclosing read's (or read pair's) LSH
// fingerprint pair; haveFP is false when the read was too short to
// fingerprint, in which case dedup is skipped for that k-mer rather than
// guessed at. dedup, when non-nil, is consulted per k-mer — not once per
// read — per §4.C's "the k-mer increment is suppressed" wording, grounded
// on original_source/src/sketch.rs::dup_removal_lsh_full_exact.
func (s *SampleSketch) addKmer(km Kmer, fp1, fp2 uint64, haveFP bool, dedup Deduper) {
	count := s.KmerCounts[km]
	if count >= MaxDedupCount {
		return
	}
	if dedup != nil && haveFP && dedup.Observe(km, fp1, fp2, count) {
		return
	}
	s.KmerCounts[km] = count + 1
}

// addRead folds one single-end read into the sketch: updates the running
// mean read length, then folds every FMH-selected k-mer through addKmer
// against the read's own two-window fingerprint.
func (s *SampleSketch) addRead(seq []byte, extractor *Extractor, dedup Deduper) {
	s.addReadLength(seq)
	fp1, fp2, haveFP := pairFingerprints(seq, extractor.K)
	for _, km := range extractor.Extract(seq) {
		s.addKmer(km, fp1, fp2, haveFP, dedup)
	}
}

// SketchSingleEnd builds a SampleSketch from one or more single-end FASTQ/FASTA
// files. dedup may be nil to disable near-duplicate-read suppression;
// otherwise every read's two-window LSH fingerprint (pairFingerprints) tags
// each of its k-mers for the per-k-mer dedup check in addKmer. Grounded on
// original_source/src/sketch.rs::sketch_sequences_needle for the streaming
// shape, and on shenwei356-unikmer/unikmer/cmd/count.go for the
// fastx-reader-per-file loop idiom.
func SketchSingleEnd(sampleName string, fileNames []string, c uint64, k int, dedup Deduper) (*SampleSketch, error) {
	extractor, err := NewExtractor(k, c)
	if err != nil {
		return nil, err
	}
	sketch := newSampleSketch(sampleName, fileNames, c, k, false)

	for _, file := range fileNames {
		reader, err := fastx.NewDefaultReader(file)
		if err != nil {
			return nil, err
		}
		for {
			record, err := reader.Read()
			if err != nil {
				if err == io.EOF {
					break
				}
				return nil, err
			}
			sketch.addRead(record.Seq.Seq, extractor, dedup)
		}
	}
	return sketch, nil
}

// FilePair is one paired-end read file pair (mate 1, mate 2).
type FilePair struct {
	Mate1, Mate2 string
}

// SketchPairedEnd builds a SampleSketch from one or more paired-end
// FASTQ/FASTA file pairs, reading both mates of each pair in lockstep. Each
// pair is fingerprinted once as a unit (pairKmerForMates), and the two
// mates' extracted k-mer sets are unioned before counting, so a k-mer
// present in both mates of a pair is counted once rather than twice; dedup
// (when non-nil) is then consulted per unioned k-mer against that shared
// pair fingerprint, matching the granularity of
// original_source/src/sketch.rs::dup_removal_lsh_full_exact. Grounded on
// original_source/src/sketch.rs::sketch_pair_sequences.
func SketchPairedEnd(sampleName string, pairs []FilePair, c uint64, k int, dedup Deduper) (*SampleSketch, error) {
	extractor, err := NewExtractor(k, c)
	if err != nil {
		return nil, err
	}
	var fileNames []string
	for _, p := range pairs {
		fileNames = append(fileNames, p.Mate1, p.Mate2)
	}
	sketch := newSampleSketch(sampleName, fileNames, c, k, true)
	union := make(map[Kmer]struct{})

	for _, pair := range pairs {
		r1, err := fastx.NewDefaultReader(pair.Mate1)
		if err != nil {
			return nil, err
		}
		r2, err := fastx.NewDefaultReader(pair.Mate2)
		if err != nil {
			return nil, err
		}
		for {
			rec1, err1 := r1.Read()
			rec2, err2 := r2.Read()
			if err1 == io.EOF || err2 == io.EOF {
				break
			}
			if err1 != nil {
				return nil, err1
			}
			if err2 != nil {
				return nil, err2
			}
			seq1, seq2 := rec1.Seq.Seq, rec2.Seq.Seq
			sketch.addReadLength(seq1)
			sketch.addReadLength(seq2)

			fp1, fp2, haveFP := pairKmerForMates(seq1, seq2, k)
			for km := range union {
				delete(union, km)
			}
			for _, km := range extractor.Extract(seq1) {
				union[km] = struct{}{}
			}
			for _, km := range extractor.Extract(seq2) {
				union[km] = struct{}{}
			}
			for km := range union {
				sketch.addKmer(km, fp1, fp2, haveFP, dedup)
			}
		}
	}
	return sketch, nil
}

// pairKmerForMates combines each mate's own two-window fingerprint
// (pairFingerprints) into one fingerprint per mate, giving a single
// (fp1, fp2) pair that identifies the read pair as a whole for dedup
// purposes — mirroring original_source/src/sketch.rs::pair_kmer, which
// fingerprints a mate pair rather than a lone read.
func pairKmerForMates(seq1, seq2 []byte, k int) (fp1, fp2 uint64, ok bool) {
	a1, a2, ok1 := pairFingerprints(seq1, k)
	b1, b2, ok2 := pairFingerprints(seq2, k)
	if !ok1 || !ok2 {
		return 0, 0, false
	}
	return mixHash(a1) ^ mixHash(a2), mixHash(b1) ^ mixHash(b2), true
}
