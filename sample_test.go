package fmhcov

import "testing"

func TestAddReadUpdatesRunningMean(t *testing.T) {
	extractor, err := NewExtractor(21, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := newSampleSketch("sample1", nil, 1, 21, false)
	s.addRead(randomSeq(100, false), extractor, nil)
	s.addRead(randomSeq(200, false), extractor, nil)
	if s.NumReads != 2 {
		t.Fatalf("expected 2 reads, got %d", s.NumReads)
	}
	if s.MeanReadLength != 150 {
		t.Fatalf("expected mean read length 150, got %f", s.MeanReadLength)
	}
}

func TestAddReadAccumulatesKmerCounts(t *testing.T) {
	extractor, err := NewExtractor(21, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := newSampleSketch("sample1", nil, 1, 21, false)
	seq := randomSeq(500, false)
	s.addRead(seq, extractor, nil)
	total := 0
	for _, n := range s.KmerCounts {
		total += n
	}
	if total != 500-21+1 {
		t.Fatalf("expected %d total k-mer occurrences, got %d", 500-21+1, total)
	}
}

func TestPairKmerForMatesRejectsShortReads(t *testing.T) {
	if _, _, ok := pairKmerForMates(make([]byte, 5), make([]byte, 100), 21); ok {
		t.Fatalf("expected failure when one mate is too short")
	}
}

func TestAddKmerSaturatesAtMaxDedupCount(t *testing.T) {
	s := newSampleSketch("sample1", nil, 1, 21, false)
	km := Kmer(7)
	s.KmerCounts[km] = MaxDedupCount
	s.addKmer(km, 0, 0, false, nil)
	if s.KmerCounts[km] != MaxDedupCount {
		t.Fatalf("expected count to saturate at %d, got %d", MaxDedupCount, s.KmerCounts[km])
	}
}

func TestAddKmerSuppressesPerKmerNotPerRead(t *testing.T) {
	s := newSampleSketch("sample1", nil, 1, 21, false)
	d := NewExactDedup()
	km1, km2 := Kmer(1), Kmer(2)
	fp1, fp2 := uint64(10), uint64(20)

	// first read's worth of k-mers: both pass through untouched.
	s.addKmer(km1, fp1, fp2, true, d)
	s.addKmer(km2, fp1, fp2, true, d)
	// a second read sharing the same fingerprint pair should suppress both
	// of its k-mers individually, not the read as a whole.
	s.addKmer(km1, fp1, fp2, true, d)
	s.addKmer(km2, fp1, fp2, true, d)

	if s.KmerCounts[km1] != 1 || s.KmerCounts[km2] != 1 {
		t.Fatalf("expected both k-mers suppressed on the duplicate fingerprint pair, got %v", s.KmerCounts)
	}
}

func TestSketchPairedEndUnionsSharedKmersOncePerPair(t *testing.T) {
	// Runs the per-pair step of SketchPairedEnd (union both mates' k-mers,
	// then addKmer once per k-mer) directly, without reading FASTQ files.
	extractor, err := NewExtractor(21, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seq := randomSeq(200, false)
	s := newSampleSketch("sample1", nil, 1, 21, true)
	union := make(map[Kmer]struct{})
	for _, km := range extractor.Extract(seq) {
		union[km] = struct{}{}
	}
	fp1, fp2, _ := pairKmerForMates(seq, seq, 21)
	for km := range union {
		s.addKmer(km, fp1, fp2, true, nil)
	}
	for km := range union {
		if s.KmerCounts[km] != 1 {
			t.Fatalf("expected k-mer %d shared by both identical mates to count once, got %d", km, s.KmerCounts[km])
		}
	}
}
