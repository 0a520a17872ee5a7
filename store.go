package sibelia

// StableID identifies a single arena slot for the lifetime of a Store.
// IDs are assigned from a monotonically increasing counter and are never
// reused, so a handle built from one remains meaningful (or detectably
// dead) across edits, per the arena+stable-id pattern: characters live
// in a monotonically-indexed arena while a separate ordered (linked)
// view supports splicing without moving arena memory.
type StableID int64

// invalidID marks the absence of a neighbor: a chromosome boundary or a
// dead handle.
const invalidID StableID = -1

// Direction selects which strand a Cursor reads.
type Direction int8

const (
	// Positive reads the forward strand in increasing canonical order.
	Positive Direction = 1
	// Negative reads the reverse-complement strand in decreasing
	// canonical order.
	Negative Direction = -1
)

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == Positive {
		return Negative
	}
	return Positive
}

type node struct {
	ch          byte
	chromosome  int32 // -1 marks a separator node between records
	originalPos int64
	prev, next  StableID
	live        bool
}

// Store is the strand-aware sequence store (C1): a single arena of
// nucleotide characters for every input record, concatenated with
// Separator bytes, addressed through stable per-position handles that
// survive local edits.
type Store struct {
	arena      []node
	chromStart map[int32]StableID
	chromEnd   map[int32]StableID
	chromLive  map[int32]int
	numChroms  int32
}

// NewStore builds a Store from validated input records, one chromosome
// per record, separated internally so no k-mer can span two records.
func NewStore(records []SequenceRecord) *Store {
	s := &Store{
		chromStart: make(map[int32]StableID, len(records)),
		chromEnd:   make(map[int32]StableID, len(records)),
		chromLive:  make(map[int32]int, len(records)),
		numChroms:  int32(len(records)),
	}
	var prev StableID = invalidID
	for i, rec := range records {
		chr := int32(i)
		if i > 0 {
			sepID := s.appendNode(node{ch: Separator, chromosome: -1, originalPos: -1})
			s.link(prev, sepID)
			prev = sepID
		}
		start := invalidID
		for pos := 0; pos < len(rec.Forward); pos++ {
			id := s.appendNode(node{
				ch:          rec.Forward[pos],
				chromosome:  chr,
				originalPos: int64(pos),
				live:        true,
			})
			if start == invalidID {
				start = id
			}
			s.link(prev, id)
			prev = id
		}
		s.chromStart[chr] = start
		s.chromEnd[chr] = prev
		s.chromLive[chr] = len(rec.Forward)
	}
	return s
}

func (s *Store) appendNode(n node) StableID {
	n.live = n.chromosome >= 0
	n.prev, n.next = invalidID, invalidID
	id := StableID(len(s.arena))
	s.arena = append(s.arena, n)
	return id
}

func (s *Store) link(a, b StableID) {
	if a != invalidID {
		s.arena[a].next = b
	}
	if b != invalidID {
		s.arena[b].prev = a
	}
}

// NumChromosomes returns the number of input records held in the store.
func (s *Store) NumChromosomes() int32 { return s.numChroms }

// ChromosomeLength returns the current number of live bases on chr.
func (s *Store) ChromosomeLength(chr int32) int { return s.chromLive[chr] }

// Start returns a positive-direction cursor at the first live base of
// chr, or an invalid cursor if chr is empty.
func (s *Store) Start(chr int32) Cursor {
	return Cursor{store: s, id: s.chromStart[chr], dir: Positive, chromosome: chr}
}

// End returns a negative-direction cursor at the last live base of chr,
// or an invalid cursor if chr is empty.
func (s *Store) End(chr int32) Cursor {
	return Cursor{store: s, id: s.chromEnd[chr], dir: Negative, chromosome: chr}
}

// step advances id by one position in dir, returning invalidID at a
// chromosome boundary (including the separator or the end of the arena).
func (s *Store) step(id StableID, dir Direction) StableID {
	if id == invalidID {
		return invalidID
	}
	n := s.arena[id]
	var next StableID
	if dir == Positive {
		next = n.next
	} else {
		next = n.prev
	}
	if next == invalidID {
		return invalidID
	}
	if s.arena[next].chromosome != n.chromosome {
		return invalidID
	}
	return next
}

// willEmptyChromosome reports whether erasing k positions starting at c
// would remove every remaining live base of its chromosome.
func (s *Store) willEmptyChromosome(c Cursor, k int) bool {
	return k >= s.chromLive[c.chromosome]
}

// erase removes the k positions starting at c (inclusive) in c's
// direction. It returns a cursor positioned at the successor (so that
// traversal in c's original direction can resume) and the StableIDs
// removed, in canonical (increasing) order.
func (s *Store) erase(c Cursor, k int) (Cursor, []StableID, error) {
	if !c.Valid() {
		return Cursor{}, nil, newError(KindCorruption, "erase called on an invalid cursor")
	}
	if s.willEmptyChromosome(c, k) {
		return Cursor{}, nil, newError(KindCorruption,
			"erase would remove every base of chromosome %d", c.chromosome)
	}

	var low, high StableID
	if c.dir == Positive {
		low = c.id
		high = c.id
		for i := 1; i < k; i++ {
			nxt := s.step(high, Positive)
			if nxt == invalidID {
				return Cursor{}, nil, newError(KindCorruption, "erase ran past chromosome %d boundary", c.chromosome)
			}
			high = nxt
		}
	} else {
		low = c.id
		high = c.id
		for i := 1; i < k; i++ {
			prv := s.step(low, Negative)
			if prv == invalidID {
				return Cursor{}, nil, newError(KindCorruption, "erase ran past chromosome %d boundary", c.chromosome)
			}
			low = prv
		}
	}

	removed := make([]StableID, 0, k)
	for id := low; ; id = s.arena[id].next {
		removed = append(removed, id)
		s.arena[id].live = false
		if id == high {
			break
		}
	}

	before := s.arena[low].prev
	after := s.arena[high].next
	s.link(before, after)
	if low == s.chromStart[c.chromosome] {
		s.chromStart[c.chromosome] = after
	}
	if high == s.chromEnd[c.chromosome] {
		s.chromEnd[c.chromosome] = before
	}
	s.chromLive[c.chromosome] -= k

	if c.dir == Positive {
		return Cursor{store: s, id: after, dir: Positive, chromosome: c.chromosome}, removed, nil
	}
	return Cursor{store: s, id: before, dir: Negative, chromosome: c.chromosome}, removed, nil
}

// replace erases the k positions starting at c (in c's direction) and
// splices in newSeq read in that same direction. The original position
// recorded for every inserted base is the original position of the
// first erased base (c itself), per the data model's edit semantics.
// It returns a cursor at the successor and the StableIDs removed/added.
func (s *Store) replace(c Cursor, k int, newSeq []byte) (Cursor, []StableID, []StableID, error) {
	if !c.Valid() {
		return Cursor{}, nil, nil, newError(KindCorruption, "replace called on an invalid cursor")
	}
	firstOriginal := s.arena[c.id].originalPos
	chr := c.chromosome
	dir := c.dir

	succ, removed, err := s.erase(c, k)
	if err != nil {
		return Cursor{}, nil, nil, err
	}

	if len(newSeq) == 0 {
		return succ, removed, nil, nil
	}

	// Build the new chain in canonical (increasing) order. A negative
	// cursor reads complemented characters backward, so to make the
	// spliced region spell newSeq when walked in dir the stored forward
	// strand must hold the reverse complement.
	canonical := make([]byte, len(newSeq))
	if dir == Positive {
		copy(canonical, newSeq)
	} else {
		for i, b := range newSeq {
			canonical[len(newSeq)-1-i] = Complement(b)
		}
	}

	added := make([]StableID, len(canonical))
	for i, ch := range canonical {
		added[i] = s.appendNode(node{ch: ch, chromosome: chr, originalPos: firstOriginal})
	}
	for i := 1; i < len(added); i++ {
		s.link(added[i-1], added[i])
	}

	var before, after StableID
	if dir == Positive {
		after = succ.id
		if after != invalidID {
			before = s.arena[after].prev
		} else {
			before = s.chromEnd[chr]
		}
	} else {
		before = succ.id
		if before != invalidID {
			after = s.arena[before].next
		} else {
			after = s.chromStart[chr]
		}
	}

	s.link(before, added[0])
	s.link(added[len(added)-1], after)
	// A neighbour that is absent or a separator means the splice sits at
	// the chromosome's boundary.
	if before == invalidID || s.arena[before].chromosome != chr {
		s.chromStart[chr] = added[0]
	}
	if after == invalidID || s.arena[after].chromosome != chr {
		s.chromEnd[chr] = added[len(added)-1]
	}
	s.chromLive[chr] += len(added)

	if dir == Positive {
		return Cursor{store: s, id: after, dir: Positive, chromosome: chr}, removed, added, nil
	}
	return Cursor{store: s, id: before, dir: Negative, chromosome: chr}, removed, added, nil
}
