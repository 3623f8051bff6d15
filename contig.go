package fmhcov

// FastaRecord is one named sequence read out of a FASTA file — the unit the
// reference sketcher (§4.B) consumes.
type FastaRecord struct {
	Name string
	Seq  []byte
}

// ContigSketch is the reference-side sketch of one FASTA record (one
// contig): every FracMinHash-selected k-mer on it, split by the spacing
// filter into kept and tracked k-mers, per §4.B. Repeated k-mers within the
// contig are not removed. A multi-record FASTA file yields one
// independent ContigSketch per record — FirstContigName is the matrix's
// primary key, so records are never merged into a single sketch.
type ContigSketch struct {
	FileName        string
	FirstContigName string
	GenomeSize      int
	C               uint64
	K               int
	MinSpacing      int

	// GenomeKmers holds the spacing-filtered k-mer set, in position order,
	// ready for containment/inference against sample sketches.
	GenomeKmers []Kmer

	// TrackedExtras records, for every k-mer position that the min-spacing
	// filter rejected (too close to the last kept k-mer), the position it
	// occurred at. Winner-table reassignment and per-pair inference (§4.G
	// step 2) consult genome_kmers ∪ tracked_extras, so a contig still gets
	// credit for these k-mers even though they weren't spaced far enough
	// apart to be kept in GenomeKmers itself.
	TrackedExtras map[Kmer][]int
}

// AllKmers returns every k-mer value associated with this contig sketch —
// both the spacing-filtered GenomeKmers and the extra occurrences recorded
// in TrackedExtras — the set winner-table reassignment and per-pair
// inference consult (§4.G step 2: "genome_kmers ∪ tracked_extras").
func (c *ContigSketch) AllKmers() []Kmer {
	all := make([]Kmer, len(c.GenomeKmers), len(c.GenomeKmers)+len(c.TrackedExtras))
	copy(all, c.GenomeKmers)
	for km := range c.TrackedExtras {
		all = append(all, km)
	}
	return all
}

// NewContigSketch builds a ContigSketch for one FASTA record. Grounded on
// original_source/src/sketch.rs's sketch_genome_individual: extract the
// record's positioned k-mers in position order and sweep them, keeping a
// k-mer only when it falls min_spacing bases past the last kept k-mer;
// every position the spacing filter rejects is recorded in TrackedExtras
// instead of being dropped outright (sketch.rs:416-423's
// pseudotax_track_kmers pushes exactly the rejected-branch positions).
func NewContigSketch(fileName string, record FastaRecord, c uint64, k int, minSpacing int) (*ContigSketch, error) {
	extractor, err := NewExtractor(k, c)
	if err != nil {
		return nil, err
	}

	positioned := extractor.ExtractPositions(record.Seq, 0)

	genomeKmers := make([]Kmer, 0, len(positioned))
	trackedExtras := make(map[Kmer][]int)
	lastPos := 0
	first := true
	for _, p := range positioned {
		keep := first || p.Pos-lastPos > minSpacing
		if keep {
			genomeKmers = append(genomeKmers, p.Kmer)
			lastPos = p.Pos
			first = false
		} else {
			trackedExtras[p.Kmer] = append(trackedExtras[p.Kmer], p.Pos)
		}
	}

	return &ContigSketch{
		FileName:        fileName,
		FirstContigName: record.Name,
		GenomeSize:      len(record.Seq),
		C:               c,
		K:               k,
		MinSpacing:      minSpacing,
		GenomeKmers:     genomeKmers,
		TrackedExtras:   trackedExtras,
	}, nil
}

// SketchContigsFile builds one independent ContigSketch per record of a
// FASTA file — the file-level entry point §4.B step 5 describes ("a file
// with N records yields N independent ContigSketches").
func SketchContigsFile(fileName string, records []FastaRecord, c uint64, k int, minSpacing int) ([]*ContigSketch, error) {
	sketches := make([]*ContigSketch, 0, len(records))
	for _, rec := range records {
		sketch, err := NewContigSketch(fileName, rec, c, k, minSpacing)
		if err != nil {
			return nil, err
		}
		sketches = append(sketches, sketch)
	}
	return sketches, nil
}
