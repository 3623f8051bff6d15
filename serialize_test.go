package fmhcov

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func sampleSketchFixture(paired bool) *SampleSketch {
	return &SampleSketch{
		SampleName:     "sample1",
		C:              1000,
		K:              21,
		Paired:         paired,
		NumReads:       42,
		MeanReadLength: 151.5,
		KmerCounts:     map[Kmer]int{1: 1, 2: 3, 12345678901234: 7},
	}
}

func TestWriteReadSampleSketchRoundTrip(t *testing.T) {
	s := sampleSketchFixture(false)
	var buf bytes.Buffer
	if err := WriteSampleSketch(&buf, s); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}
	got, err := ReadSampleSketch(&buf)
	if err != nil {
		t.Fatalf("unexpected read error: %v", err)
	}
	if got.SampleName != s.SampleName || got.C != s.C || got.K != s.K || got.Paired != s.Paired {
		t.Fatalf("round-tripped header mismatch: %+v vs %+v", got, s)
	}
	if got.NumReads != s.NumReads || got.MeanReadLength != s.MeanReadLength {
		t.Fatalf("round-tripped read bookkeeping mismatch: %+v vs %+v", got, s)
	}
	if len(got.KmerCounts) != len(s.KmerCounts) {
		t.Fatalf("expected %d k-mer counts, got %d", len(s.KmerCounts), len(got.KmerCounts))
	}
	for km, count := range s.KmerCounts {
		if got.KmerCounts[km] != count {
			t.Fatalf("count mismatch for k-mer %d: got %d want %d", km, got.KmerCounts[km], count)
		}
	}
}

func TestReadSampleSketchRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("not a fmhcov sketch file at all!!")
	if _, err := ReadSampleSketch(buf); err != ErrInvalidFileFormat {
		t.Fatalf("expected ErrInvalidFileFormat, got %v", err)
	}
}

func TestSaveLoadSampleSketchRoundTripUncompressed(t *testing.T) {
	dir := t.TempDir()
	s := sampleSketchFixture(false)
	path := filepath.Join(dir, "sample1.bcsp")
	if err := SaveSampleSketch(path, s, false); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	got, err := LoadSampleSketch(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if got.SampleName != s.SampleName || len(got.KmerCounts) != len(s.KmerCounts) {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestSaveLoadSampleSketchRoundTripCompressed(t *testing.T) {
	dir := t.TempDir()
	s := sampleSketchFixture(true)
	path := filepath.Join(dir, "sample1.paired.bcsp")
	if err := SaveSampleSketch(path, s, true); err != nil {
		t.Fatalf("unexpected save error: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("unexpected stat error: %v", err)
	}
	if info.Size() == 0 {
		t.Fatalf("expected a nonempty compressed file")
	}
	got, err := LoadSampleSketch(path)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if !got.Paired {
		t.Fatalf("expected paired flag to round-trip as true")
	}
}

func TestSaveSampleSketchRejectsSuffixMismatch(t *testing.T) {
	dir := t.TempDir()
	s := sampleSketchFixture(true) // paired, but wrong suffix below
	path := filepath.Join(dir, "sample1.bcsp")
	if err := SaveSampleSketch(path, s, false); err != ErrSuffixMismatch {
		t.Fatalf("expected ErrSuffixMismatch, got %v", err)
	}
}

func TestCheckCompatible(t *testing.T) {
	s := &SampleSketch{K: 21, C: 500}
	contig := &ContigSketch{K: 21, C: 1000}
	if err := s.CheckCompatible(contig); err != nil {
		t.Fatalf("expected compatible pair, got %v", err)
	}

	wrongK := &SampleSketch{K: 31, C: 500}
	if err := wrongK.CheckCompatible(contig); err != ErrIncompatibleK {
		t.Fatalf("expected ErrIncompatibleK, got %v", err)
	}

	coarser := &SampleSketch{K: 21, C: 2000}
	if err := coarser.CheckCompatible(contig); err != ErrIncompatibleRate {
		t.Fatalf("expected ErrIncompatibleRate, got %v", err)
	}
}
