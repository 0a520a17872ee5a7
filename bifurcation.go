package sibelia

// VertexID names a distinct de Bruijn graph vertex: a k-mer equivalence
// class under reverse-complement canonicalization.
type VertexID int64

const invalidVertex VertexID = -1

type occKey struct {
	id  StableID
	dir Direction
}

// BifurcationIndex is the de Bruijn graph's vertex table (C2): it maps
// canonical k-mer fingerprints to vertex identities and records, for
// every vertex, every store position at which its window begins.
//
// Occurrences are deduplicated on the (StableID, Direction) pair that
// anchors them: re-registering the same anchor is a no-op, but the two
// strand directions of one locus are independent occurrences, since a
// consumer may legitimately reach the same genomic position walking
// either strand and both are separately meaningful to block assembly.
type BifurcationIndex struct {
	vertexOf    map[Fingerprint]VertexID
	occurrences map[VertexID][]Cursor
	ownerOf     map[occKey]VertexID
	nextVertex  VertexID

	// successors and predecessors record, per vertex, the distinct bases
	// observed immediately after and before its window across every
	// occurrence. A vertex with more than one distinct entry on either
	// side is a branch point; an extensionEnd entry marks a chromosome
	// end.
	successors   map[VertexID]map[byte]bool
	predecessors map[VertexID]map[byte]bool
}

// extensionEnd is the sentinel extension byte recorded when a window
// touches a chromosome boundary and has no neighbor on that side.
const extensionEnd = byte(0)

// NewBifurcationIndex returns an empty index.
func NewBifurcationIndex() *BifurcationIndex {
	return &BifurcationIndex{
		vertexOf:     make(map[Fingerprint]VertexID),
		occurrences:  make(map[VertexID][]Cursor),
		ownerOf:      make(map[occKey]VertexID),
		successors:   make(map[VertexID]map[byte]bool),
		predecessors: make(map[VertexID]map[byte]bool),
	}
}

// VertexFor looks up the vertex already assigned to fp, if any.
func (b *BifurcationIndex) VertexFor(fp Fingerprint) (VertexID, bool) {
	v, ok := b.vertexOf[fp]
	return v, ok
}

// GetOrCreateVertex returns the vertex for fp, assigning a fresh one the
// first time fp is seen.
func (b *BifurcationIndex) GetOrCreateVertex(fp Fingerprint) VertexID {
	if v, ok := b.vertexOf[fp]; ok {
		return v
	}
	v := b.nextVertex
	b.nextVertex++
	b.vertexOf[fp] = v
	return v
}

// VertexCount returns the number of distinct vertices registered.
func (b *BifurcationIndex) VertexCount() int { return int(b.nextVertex) }

// AddOccurrence records that v's window begins at cur, unless that exact
// anchor is already recorded.
func (b *BifurcationIndex) AddOccurrence(v VertexID, cur Cursor) {
	key := occKey{id: cur.StableID(), dir: cur.Direction()}
	if existing, ok := b.ownerOf[key]; ok && existing == v {
		return
	}
	b.ownerOf[key] = v
	b.occurrences[v] = append(b.occurrences[v], cur)
}

// Occurrences returns every recorded anchor for v.
func (b *BifurcationIndex) Occurrences(v VertexID) []Cursor {
	return b.occurrences[v]
}

// Degree returns the number of recorded occurrences of v. It plays no
// part in IsBifurcation, which looks only at the flanking-base tallies.
func (b *BifurcationIndex) Degree(v VertexID) int {
	return len(b.occurrences[v])
}

// RegisterSuccessor records that ch was observed immediately after v's
// window at one occurrence.
func (b *BifurcationIndex) RegisterSuccessor(v VertexID, ch byte) {
	registerExtension(b.successors, v, ch)
}

// RegisterPredecessor records that ch was observed immediately before
// v's window at one occurrence.
func (b *BifurcationIndex) RegisterPredecessor(v VertexID, ch byte) {
	registerExtension(b.predecessors, v, ch)
}

func registerExtension(m map[VertexID]map[byte]bool, v VertexID, ch byte) {
	set, ok := m[v]
	if !ok {
		set = make(map[byte]bool, 2)
		m[v] = set
	}
	set[ch] = true
}

// IsBifurcation reports whether v branches: it has more than one
// distinct successor or predecessor base across its occurrences, or any
// occurrence touches a chromosome boundary (recorded as extensionEnd),
// since a boundary always terminates a traversal just as a true branch
// does.
func (b *BifurcationIndex) IsBifurcation(v VertexID) bool {
	succ, pred := b.successors[v], b.predecessors[v]
	if len(succ) != 1 || len(pred) != 1 {
		return true
	}
	return succ[extensionEnd] || pred[extensionEnd]
}

// BifurcationVertices returns every vertex currently holding at least
// one occurrence and satisfying IsBifurcation, in no particular order.
func (b *BifurcationIndex) BifurcationVertices() []VertexID {
	out := make([]VertexID, 0, len(b.occurrences))
	for v := range b.occurrences {
		if b.IsBifurcation(v) {
			out = append(out, v)
		}
	}
	return out
}

// EraseOccurrencesInRange removes every occurrence anchored on one of the
// given StableIDs, in either direction. It is called after Store.erase
// or Store.replace with the StableIDs that edit made non-live, so the
// index never retains a dangling anchor.
func (b *BifurcationIndex) EraseOccurrencesInRange(removed []StableID) {
	for _, id := range removed {
		for _, dir := range [2]Direction{Positive, Negative} {
			key := occKey{id: id, dir: dir}
			v, ok := b.ownerOf[key]
			if !ok {
				continue
			}
			delete(b.ownerOf, key)
			occs := b.occurrences[v]
			for i, c := range occs {
				if c.StableID() == id && c.Direction() == dir {
					occs[i] = occs[len(occs)-1]
					occs = occs[:len(occs)-1]
					break
				}
			}
			if len(occs) == 0 {
				delete(b.occurrences, v)
			} else {
				b.occurrences[v] = occs
			}
		}
	}
}
