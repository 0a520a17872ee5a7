package sibelia

// Edge is one directed path through the simplified de Bruijn graph from
// a bifurcation vertex to the next one reached by following a single
// occurrence: the raw material ListEdges hands to block assembly (C6).
type Edge struct {
	Begin, End VertexID
	Chromosome int32
	Dir        Direction
	// FirstChar is the base immediately after Begin's window, read in
	// the edge's direction. Edges sharing (Begin, End, FirstChar)
	// represent the same synteny relationship.
	FirstChar byte
	// BodyStart and BodyEnd are the first and last consumed positions:
	// BodyStart is one position past the start of Begin's window and
	// BodyEnd is where End's window starts.
	BodyStart, BodyEnd Cursor
	// Length is the number of bases in that run (the edge's weight) in
	// current coordinates.
	Length int
	// ActualPos is the current (post-edit) offset of the leftmost body
	// base on its chromosome, filled in by ListEdges.
	ActualPos int64

	// lastChar is the base immediately before End's window, read in the
	// edge's direction, kept so the reverse-complement form of the edge
	// can be derived without re-walking the body.
	lastChar byte
}

// OriginalSpan returns the inclusive original-record coordinates covered
// by the edge's body, normalized so start <= end regardless of strand.
func (e Edge) OriginalSpan() (start, end int64) {
	start, end = e.BodyStart.OriginalPos(), e.BodyEnd.OriginalPos()
	if end < start {
		start, end = end, start
	}
	return start, end
}

// OriginalLength returns the number of original-record bases the edge's
// body spans. After bulge collapses rewrote part of the body, inserted
// bases all carry the original position of the first base they
// replaced, so this can differ from Length.
func (e Edge) OriginalLength() int {
	if !e.BodyStart.Valid() || !e.BodyEnd.Valid() {
		return e.Length
	}
	start, end := e.OriginalSpan()
	return int(end-start) + 1
}

// walkEdge follows start (an occurrence cursor at a bifurcation vertex's
// window) forward one base at a time until another bifurcation vertex
// is reached. Unlike traverseBranch it has no artificial step bound: it
// is meant to run after SimplifyGraph, when every maximal run between
// bifurcations is a legitimate, unboundedly long synteny edge.
func walkEdge(idx *BifurcationIndex, begin VertexID, start Cursor, k int) (Edge, bool) {
	cur := start
	var bodyStart, bodyEnd Cursor
	length := 0
	limit := 0
	for {
		next, ok := cur.Next()
		if !ok {
			return Edge{}, false
		}
		if length == 0 {
			bodyStart = next
		}
		bodyEnd = next
		length++
		window, ok := next.Window(k)
		if !ok {
			return Edge{}, false
		}
		v2 := idx.GetOrCreateVertex(fingerprintOf(window))
		if idx.IsBifurcation(v2) {
			var firstChar, lastChar byte
			if after, ok := start.Advance(k); ok {
				firstChar = after.Char()
			}
			if before, ok := bodyEnd.Prev(); ok {
				lastChar = before.Char()
			}
			return Edge{
				Begin:      begin,
				End:        v2,
				Chromosome: start.Chromosome(),
				Dir:        start.Direction(),
				FirstChar:  firstChar,
				BodyStart:  bodyStart,
				BodyEnd:    bodyEnd,
				Length:     length,
				lastChar:   lastChar,
			}, true
		}
		cur = next
		limit++
		if limit > maxChromosomeWalk {
			return Edge{}, false
		}
	}
}

// maxChromosomeWalk is a defensive bound against an infinite loop should
// the graph ever fail to resolve to a bifurcation (it always should,
// since chromosome ends are themselves registered as bifurcations).
const maxChromosomeWalk = 1 << 40

// ListEdges enumerates every edge of the simplified graph: one per
// occurrence of every bifurcation vertex, in both directions it was
// recorded in. Each edge carries its current chromosome offset so that
// Overlap and downstream consumers can reason in actual coordinates.
func ListEdges(store *Store, idx *BifurcationIndex, k int) []Edge {
	actual := actualOffsets(store)
	var edges []Edge
	for _, v := range idx.BifurcationVertices() {
		for _, o := range idx.Occurrences(v) {
			if e, ok := walkEdge(idx, v, o, k); ok {
				a, b := actual[e.BodyStart.StableID()], actual[e.BodyEnd.StableID()]
				if b < a {
					a = b
				}
				e.ActualPos = a
				edges = append(edges, e)
			}
		}
	}
	return edges
}

// actualOffsets walks every chromosome once and records the current
// offset of every live position, so edge listing does not need a linear
// rescan per edge.
func actualOffsets(store *Store) map[StableID]int64 {
	out := make(map[StableID]int64)
	for chr := int32(0); chr < store.NumChromosomes(); chr++ {
		var pos int64
		for c := store.Start(chr); c.Valid(); {
			out[c.StableID()] = pos
			pos++
			next, ok := c.Next()
			if !ok {
				break
			}
			c = next
		}
	}
	return out
}

// Coincide reports whether e and other represent the same synteny
// relationship: the same endpoint pair and the same first body base.
func (e Edge) Coincide(other Edge) bool {
	return e.Begin == other.Begin && e.End == other.End && e.FirstChar == other.FirstChar
}

// Overlap reports whether e and other physically share any base: the
// same chromosome with intersecting half-open actual-coordinate
// intervals.
func (e Edge) Overlap(other Edge) bool {
	if e.Chromosome != other.Chromosome {
		return false
	}
	return e.ActualPos < other.ActualPos+int64(other.Length) &&
		other.ActualPos < e.ActualPos+int64(e.Length)
}

// CompareEdgesByDirection orders edges deterministically: by chromosome,
// then by the original position their body starts at, then by
// direction. AssembleBlocks does not use it: grouping goes through
// canonicalKey, and block numbering has its own deterministic order.
func CompareEdgesByDirection(a, b Edge) bool {
	if a.Chromosome != b.Chromosome {
		return a.Chromosome < b.Chromosome
	}
	ap, bp := a.BodyStart.OriginalPos(), b.BodyStart.OriginalPos()
	if ap != bp {
		return ap < bp
	}
	return a.Dir < b.Dir
}
