package fmhcov

import (
	"math/rand"
	"reflect"
	"testing"
)

func randomSeq(n int, withN bool) []byte {
	bases := []byte{'A', 'C', 'G', 'T'}
	s := make([]byte, n)
	for i := range s {
		if withN && rand.Intn(50) == 0 {
			s[i] = 'N'
			continue
		}
		s[i] = bases[rand.Intn(4)]
	}
	return s
}

func TestFastMatchesScalar(t *testing.T) {
	for trial := 0; trial < 20; trial++ {
		s := randomSeq(500, trial%2 == 0)
		for _, k := range []int{21, 31} {
			gotScalar := extractScalar(s, k, 1)
			gotFast := extractFast(s, k, 1)
			if !reflect.DeepEqual(gotScalar, gotFast) {
				t.Fatalf("trial %d k=%d: fast path diverged from scalar path", trial, k)
			}
			posScalar := extractPositionsScalar(s, k, 1, 7)
			posFast := extractPositionsFast(s, k, 1, 7)
			if !reflect.DeepEqual(posScalar, posFast) {
				t.Fatalf("trial %d k=%d: fast position path diverged from scalar", trial, k)
			}
		}
	}
}

func TestExtractSkipsNonACGTWindows(t *testing.T) {
	// a single N at index 10 should kill every k=21 window that spans it
	s := randomSeq(60, false)
	s[10] = 'N'
	positions := extractPositionsScalar(s, 21, 1, 0)
	for _, p := range positions {
		if p.Pos <= 10 && p.Pos+21 > 10 {
			t.Fatalf("window at pos %d should have been broken by N at 10", p.Pos)
		}
	}
}

func TestExtractRateOneKeepsEverything(t *testing.T) {
	s := randomSeq(200, false)
	kmers := extractScalar(s, 21, 1)
	if len(kmers) != len(s)-21+1 {
		t.Fatalf("c=1 should select every window: got %d want %d", len(kmers), len(s)-21+1)
	}
}

func TestExtractTooShortSequence(t *testing.T) {
	s := []byte("ACGT")
	if got := extractScalar(s, 21, 1); len(got) != 0 {
		t.Fatalf("expected no k-mers from a sequence shorter than k, got %d", len(got))
	}
}

func TestNewExtractorValidation(t *testing.T) {
	if _, err := NewExtractor(17, 1000); err != ErrInvalidK {
		t.Fatalf("expected ErrInvalidK, got %v", err)
	}
	if _, err := NewExtractor(21, 0); err != ErrInvalidC {
		t.Fatalf("expected ErrInvalidC, got %v", err)
	}
	e, err := NewExtractor(31, 1000)
	if err != nil || e.K != 31 || e.C != 1000 {
		t.Fatalf("unexpected extractor %+v, err %v", e, err)
	}
}
