package fmhcov

import "testing"

func TestPairFingerprintsDeterministic(t *testing.T) {
	seq := randomSeq(100, false)
	fp1a, fp2a, ok := pairFingerprints(seq, 21)
	if !ok {
		t.Fatalf("expected fingerprints for a 100bp read")
	}
	fp1b, fp2b, ok := pairFingerprints(seq, 21)
	if !ok || fp1a != fp1b || fp2a != fp2b {
		t.Fatalf("fingerprinting should be deterministic")
	}
}

func TestPairFingerprintsTooShort(t *testing.T) {
	if _, _, ok := pairFingerprints(make([]byte, 10), 21); ok {
		t.Fatalf("expected failure for a read shorter than 2k")
	}
}

func TestExactDedupSuppressesOnSecondObservation(t *testing.T) {
	d := NewExactDedup()
	if d.Observe(Kmer(10), 1, 2, 0) {
		t.Fatalf("first observation must never be a duplicate")
	}
	if !d.Observe(Kmer(10), 1, 2, 1) {
		t.Fatalf("second observation of the same (k-mer, fingerprint) pair must be a duplicate")
	}
	if !d.Observe(Kmer(10), 1, 3, 1) {
		t.Fatalf("a fingerprint pair sharing either fingerprint with a seen pair must be a duplicate")
	}
	if d.Observe(Kmer(11), 1, 2, 0) {
		t.Fatalf("a different k-mer sharing a fingerprint must not be treated as a duplicate")
	}
}

func TestExactDedupRequiresNonzeroCurrentCount(t *testing.T) {
	d := NewExactDedup()
	d.Observe(Kmer(10), 1, 2, 0)
	if d.Observe(Kmer(10), 1, 2, 0) {
		t.Fatalf("a fingerprint collision with currentCount 0 must not be treated as a duplicate")
	}
}

func TestScalableCuckooDedupSuppressesOnSecondObservation(t *testing.T) {
	d := NewScalableCuckooDedup(1000, 0.01)
	if d.Observe(Kmer(42), 99, 100, 0) {
		t.Fatalf("first observation must never be a duplicate")
	}
	if !d.Observe(Kmer(42), 99, 100, 1) {
		t.Fatalf("second observation of the same (k-mer, fingerprint) pair should be reported as a duplicate")
	}
}

func TestScalableCuckooDedupGrowsGenerations(t *testing.T) {
	d := NewScalableCuckooDedup(8, 0.01)
	for i := uint64(0); i < 200; i++ {
		d.Observe(Kmer(i), i, i+1, 1)
	}
	if len(d.generations) < 2 {
		t.Fatalf("expected the filter to have grown past its first generation, got %d", len(d.generations))
	}
}
