package sibelia

import "testing"

func TestConstructMarksChromosomeEndsAsBifurcations(t *testing.T) {
	s := NewStore([]SequenceRecord{{ID: 0, Description: "chr0", Forward: "ACGTACGA"}})
	idx := Construct(s, 3)

	startWindow, _ := s.Start(0).Window(3)
	startVertex, ok := idx.VertexFor(fingerprintOf(startWindow))
	if !ok {
		t.Fatal("expected the first window's vertex to be registered")
	}
	if !idx.IsBifurcation(startVertex) {
		t.Fatal("the chromosome's first window should be a bifurcation (open boundary)")
	}

	endWindow, _ := s.End(0).Window(3)
	endVertex, ok := idx.VertexFor(fingerprintOf(endWindow))
	if !ok {
		t.Fatal("expected the last window's vertex to be registered")
	}
	if !idx.IsBifurcation(endVertex) {
		t.Fatal("the chromosome's last window should be a bifurcation (open boundary)")
	}
}

func TestConstructDetectsSharedBranchPoint(t *testing.T) {
	// Both chromosomes share the 3-mer "AAA" as a prefix but diverge
	// immediately after it, so "AAA" must show two distinct successors.
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "AAAGCCC"},
		{ID: 1, Description: "chr1", Forward: "AAATCCC"},
	})
	idx := Construct(s, 3)

	v, ok := idx.VertexFor(fingerprintOf([]byte("AAA")))
	if !ok {
		t.Fatal("expected AAA to be registered")
	}
	if !idx.IsBifurcation(v) {
		t.Fatal("AAA should be a bifurcation: it is followed by G in one chromosome and T in the other")
	}
}
