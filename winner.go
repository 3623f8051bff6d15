package fmhcov

// winnerEntry is one k-mer's current best claimant in a WinnerTable.
type winnerEntry struct {
	bestANI     float64
	ownerFile   string
	ownerContig string
}

// WinnerTable resolves k-mers shared by more than one contig sketch to a
// single "winning" owner, per §4.G: when the same k-mer is part of two
// genomes' sketches, only the genome with the higher estimated ANI against
// a given sample gets credit for it during the final pass, so shared
// repeats don't inflate every contender's coverage simultaneously.
// Grounded on original_source/src/contain.rs::winner_table.
type WinnerTable struct {
	entries map[Kmer]winnerEntry
}

// NewWinnerTable returns an empty table.
func NewWinnerTable() *WinnerTable {
	return &WinnerTable{entries: make(map[Kmer]winnerEntry)}
}

func contigIdentity(c *ContigSketch) (file, name string) {
	return c.FileName, c.FirstContigName
}

// Register folds one contig's pass-1 ANI result into the table: every
// k-mer in the contig's sketch (GenomeKmers ∪ TrackedExtras, per §4.G step
// 2) either claims an unclaimed slot, improves on its current claimant, or
// loses to the existing claimant. Ties keep the first writer (the order
// Register is called in), matching the single-threaded, deterministic
// population pass the spec requires before any parallel final-pass reads
// from the table.
func (w *WinnerTable) Register(contig *ContigSketch, ani float64) {
	file, name := contigIdentity(contig)
	for _, km := range contig.AllKmers() {
		existing, exists := w.entries[km]
		if !exists || ani > existing.bestANI {
			w.entries[km] = winnerEntry{bestANI: ani, ownerFile: file, ownerContig: name}
		}
	}
}

// owns reports whether contig is the current winning claimant of km. A
// k-mer with no entry at all (never registered, or registration skipped
// for a contig that didn't pass the size gate) is treated as uncontested.
func (w *WinnerTable) owns(km Kmer, contig *ContigSketch) bool {
	entry, exists := w.entries[km]
	if !exists {
		return true
	}
	file, name := contigIdentity(contig)
	return entry.ownerFile == file && entry.ownerContig == name
}
