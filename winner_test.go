package fmhcov

import "testing"

func TestWinnerTableUnclaimedKmerIsUncontested(t *testing.T) {
	w := NewWinnerTable()
	contig := &ContigSketch{FileName: "a.fna", FirstContigName: "c1"}
	if !w.owns(Kmer(42), contig) {
		t.Fatalf("an unregistered k-mer should be uncontested")
	}
}

func TestWinnerTableHigherANIWins(t *testing.T) {
	w := NewWinnerTable()
	a := &ContigSketch{FileName: "a.fna", FirstContigName: "c1", GenomeKmers: []Kmer{1, 2, 3}}
	b := &ContigSketch{FileName: "b.fna", FirstContigName: "c1", GenomeKmers: []Kmer{2, 3, 4}}

	w.Register(a, 0.90)
	w.Register(b, 0.99)

	if w.owns(Kmer(2), a) {
		t.Fatalf("k-mer 2 should have been won by b (higher ANI)")
	}
	if !w.owns(Kmer(2), b) {
		t.Fatalf("k-mer 2 should be owned by b")
	}
	if !w.owns(Kmer(1), a) {
		t.Fatalf("k-mer 1 is only in a's sketch, should stay owned by a")
	}
}

func TestWinnerTableTieGoesToFirstWriter(t *testing.T) {
	w := NewWinnerTable()
	a := &ContigSketch{FileName: "a.fna", FirstContigName: "c1", GenomeKmers: []Kmer{1}}
	b := &ContigSketch{FileName: "b.fna", FirstContigName: "c1", GenomeKmers: []Kmer{1}}

	w.Register(a, 0.95)
	w.Register(b, 0.95)

	if !w.owns(Kmer(1), a) {
		t.Fatalf("expected the first writer (a) to win a tie")
	}
	if w.owns(Kmer(1), b) {
		t.Fatalf("second writer (b) should not win a tie")
	}
}
