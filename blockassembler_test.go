package sibelia

import "testing"

func makeCursor(s *Store, chr int32, offset int, dir Direction) Cursor {
	c := s.Start(chr)
	if dir == Negative {
		c = s.End(chr)
	}
	if offset == 0 {
		return c
	}
	adv, _ := c.Advance(offset)
	return adv
}

func makeEdge(s *Store, begin, end VertexID, chr int32, offset, length int, first byte) Edge {
	bodyStart := makeCursor(s, chr, offset, Positive)
	bodyEnd := makeCursor(s, chr, offset+length-1, Positive)
	return Edge{
		Begin:      begin,
		End:        end,
		Chromosome: chr,
		Dir:        Positive,
		FirstChar:  first,
		BodyStart:  bodyStart,
		BodyEnd:    bodyEnd,
		Length:     length,
		lastChar:   bodyEnd.Char(),
	}
}

func TestAssembleBlocksGroupsAndFiltersByMinSize(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGT"},
	})
	a := makeEdge(s, 1, 2, 0, 0, 5, 'A')
	b := makeEdge(s, 1, 2, 1, 0, 5, 'A')
	singleton := makeEdge(s, 3, 4, 0, 6, 3, 'G')

	blocks := AssembleBlocks([]Edge{a, b, singleton}, AssemblyOptions{K: 2, MinBlockSize: 2})
	if len(blocks) != 2 {
		t.Fatalf("got %d instances, want 2 (the singleton edge must be dropped)", len(blocks))
	}
	if blocks[0].Block != blocks[1].Block {
		t.Fatalf("both instances of the shared edge must carry the same block id")
	}
}

func TestAssembleBlocksRespectsMinBlockSize(t *testing.T) {
	s := NewStore(testRecords())
	a := makeEdge(s, 1, 2, 0, 0, 3, 'A')
	b := makeEdge(s, 1, 2, 1, 0, 3, 'A')
	blocks := AssembleBlocks([]Edge{a, b}, AssemblyOptions{K: 2, MinBlockSize: 10})
	if len(blocks) != 0 {
		t.Fatalf("got %d instances, want 0 (below minimum block size)", len(blocks))
	}
}

func TestAssembleBlocksDropsEmptyEdges(t *testing.T) {
	s := NewStore(testRecords())
	// Both edges span 3 original bases, no more than k, so they carry no
	// interior and must be rejected before grouping.
	a := makeEdge(s, 1, 2, 0, 0, 3, 'A')
	b := makeEdge(s, 1, 2, 1, 0, 3, 'A')
	blocks := AssembleBlocks([]Edge{a, b}, AssemblyOptions{K: 3, MinBlockSize: 1})
	if len(blocks) != 0 {
		t.Fatalf("got %d instances, want 0 (edges with originalLength <= k are empty)", len(blocks))
	}
}

func TestAssembleBlocksSeparatesGroupsByFirstChar(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGT"},
	})
	a := makeEdge(s, 1, 2, 0, 0, 5, 'A')
	b := makeEdge(s, 1, 2, 1, 0, 5, 'C')
	blocks := AssembleBlocks([]Edge{a, b}, AssemblyOptions{K: 2, MinBlockSize: 2})
	if len(blocks) != 0 {
		t.Fatalf("got %d instances, want 0 (differing first bases split the group into singletons)", len(blocks))
	}
}

func TestAssembleBlocksSharedOnlyRequiresEveryChromosome(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGT"},
		{ID: 2, Description: "chr2", Forward: "ACGTACGTACGT"},
	})
	a := makeEdge(s, 1, 2, 0, 0, 5, 'A')
	b := makeEdge(s, 1, 2, 1, 0, 5, 'A')

	opts := AssemblyOptions{K: 2, MinBlockSize: 2, SharedOnly: true, Chromosomes: 3}
	if blocks := AssembleBlocks([]Edge{a, b}, opts); len(blocks) != 0 {
		t.Fatalf("got %d instances with shared-only on, want 0 (chromosome 2 has none)", len(blocks))
	}
	opts.SharedOnly = false
	if blocks := AssembleBlocks([]Edge{a, b}, opts); len(blocks) != 2 {
		t.Fatalf("got %d instances with shared-only off, want 2", len(blocks))
	}
}

func TestAssembleBlocksTrimsNotBelowTrimFloor(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGT"},
	})
	long := makeEdge(s, 1, 2, 0, 0, 8, 'A')
	short := makeEdge(s, 1, 2, 1, 0, 6, 'A')

	blocks := AssembleBlocks([]Edge{long, short}, AssemblyOptions{K: 2, MinBlockSize: 2, TrimK: 7})
	if len(blocks) != 2 {
		t.Fatalf("got %d instances, want 2", len(blocks))
	}
	lengths := []int{blocks[0].Length, blocks[1].Length}
	if lengths[0] > lengths[1] {
		lengths[0], lengths[1] = lengths[1], lengths[0]
	}
	if lengths[0] != 6 || lengths[1] != 7 {
		t.Fatalf("instance lengths = %v, want [6 7] (long edge trimmed only to the floor)", lengths)
	}
}

func TestAssembleBlocksDropThresholdIndependentOfTrimFloor(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGT"},
	})
	a := makeEdge(s, 1, 2, 0, 0, 6, 'A')
	b := makeEdge(s, 1, 2, 1, 0, 6, 'A')

	opts := AssemblyOptions{K: 2, MinBlockSize: 10, TrimK: 4}
	if blocks := AssembleBlocks([]Edge{a, b}, opts); len(blocks) != 0 {
		t.Fatalf("got %d instances, want 0 (minimum block size applies regardless of the trim floor)", len(blocks))
	}
}

func TestAssembleBlocksOrientsGroupToReference(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGT"},
	})
	// The chr0 edge's endpoints are swapped relative to the canonical
	// key, so without a reference set it would read the negative strand.
	onRef := makeEdge(s, 5, 2, 0, 0, 5, 'C')
	offRef := makeEdge(s, 2, 5, 1, 0, 5, Complement(onRef.lastChar))

	opts := AssemblyOptions{K: 2, MinBlockSize: 2, Reference: map[int32]bool{0: true}}
	blocks := AssembleBlocks([]Edge{onRef, offRef}, opts)
	if len(blocks) != 2 {
		t.Fatalf("got %d instances, want 2", len(blocks))
	}
	for _, inst := range blocks {
		switch inst.Chromosome {
		case 0:
			if inst.Strand != Positive {
				t.Fatalf("reference instance reads %v, want Positive", inst.Strand)
			}
		case 1:
			if inst.Strand != Negative {
				t.Fatalf("non-reference instance reads %v, want Negative after reorientation", inst.Strand)
			}
		}
	}
}

func TestAssembleBlocksNumbersLargestBlockFirst(t *testing.T) {
	s := NewStore([]SequenceRecord{
		{ID: 0, Description: "chr0", Forward: "ACGTACGTACGTACGT"},
		{ID: 1, Description: "chr1", Forward: "ACGTACGTACGTACGT"},
	})
	longA := makeEdge(s, 1, 2, 0, 0, 8, 'A')
	longB := makeEdge(s, 1, 2, 1, 0, 8, 'A')
	shortA := makeEdge(s, 3, 4, 0, 10, 4, 'G')
	shortB := makeEdge(s, 3, 4, 1, 10, 4, 'G')

	blocks := AssembleBlocks([]Edge{shortA, shortB, longA, longB}, AssemblyOptions{K: 2, MinBlockSize: 2})
	if len(blocks) != 4 {
		t.Fatalf("got %d instances, want 4", len(blocks))
	}
	for _, inst := range blocks {
		if inst.Block == 1 && inst.Length != 8 {
			t.Fatalf("block 1 has length %d, want 8 (ids are ordered by decreasing total length)", inst.Length)
		}
	}
}

func TestCanonicalKeyNormalizesOrientation(t *testing.T) {
	fwd := Edge{Begin: 2, End: 5, FirstChar: 'A', lastChar: 'G'}
	rev := Edge{Begin: 5, End: 2, FirstChar: 'C', lastChar: 'T'}
	k1, rev1 := canonicalKey(fwd)
	k2, rev2 := canonicalKey(rev)
	if k1 != k2 {
		t.Fatalf("canonical keys differ: %+v vs %+v", k1, k2)
	}
	if rev1 || !rev2 {
		t.Fatalf("only the swapped-endpoint edge should be marked reversed (got %v, %v)", rev1, rev2)
	}
}

func TestBlockInstanceSignedBlock(t *testing.T) {
	pos := BlockInstance{Block: 3, Strand: Positive}
	neg := BlockInstance{Block: 3, Strand: Negative}
	if pos.SignedBlock() != 3 || neg.SignedBlock() != -3 {
		t.Fatalf("signed ids = %d/%d, want 3/-3", pos.SignedBlock(), neg.SignedBlock())
	}
}

func TestTrimEdgeShortensSymmetrically(t *testing.T) {
	s := NewStore(testRecords())
	e := Edge{BodyStart: s.Start(0), BodyEnd: makeCursor(s, 0, 5, Positive), Length: 6}
	trimmed := trimEdge(e, 4)
	if trimmed.Length != 4 {
		t.Fatalf("trimmed length = %d, want 4", trimmed.Length)
	}
	lo, hi := trimmed.OriginalSpan()
	if lo != 1 || hi != 4 {
		t.Fatalf("trimmed span = [%d,%d], want [1,4] (one base off each end)", lo, hi)
	}
}
