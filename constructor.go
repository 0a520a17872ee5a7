package sibelia

// Construct performs the initial single pass over store that builds a
// complete BifurcationIndex (C3): every length-k window on both strands
// of every chromosome is fingerprinted, assigned a vertex, and recorded
// as an occurrence, while the distinct bases flanking each window are
// tallied so IsBifurcation can later separate branch points and
// chromosome ends from simple pass-through vertices.
func Construct(store *Store, k int) *BifurcationIndex {
	idx := NewBifurcationIndex()
	for chr := int32(0); chr < store.NumChromosomes(); chr++ {
		scanChromosomeDirection(idx, store.Start(chr), k)
		scanChromosomeDirection(idx, store.End(chr), k)
	}
	return idx
}

// scanChromosomeDirection walks every window starting at start and
// continuing in start's direction, registering it with idx.
func scanChromosomeDirection(idx *BifurcationIndex, start Cursor, k int) {
	cur := start
	for {
		window, ok := cur.Window(k)
		if !ok {
			return
		}
		v := idx.GetOrCreateVertex(fingerprintOf(window))
		idx.AddOccurrence(v, cur)

		next := extensionEnd
		if after, ok := cur.Advance(k); ok {
			next = after.Char()
		}
		prev := extensionEnd
		if before, ok := cur.Prev(); ok {
			prev = before.Char()
		}
		registerExtensions(idx, v, window, next, prev)

		nxt, ok := cur.Next()
		if !ok {
			return
		}
		cur = nxt
	}
}

// registerExtensions tallies the bases flanking one window occurrence in
// the window's canonical orientation. The two strand readings of a
// single locus then contribute the same (successor, predecessor)
// observation instead of two conflicting ones, which would otherwise
// turn every vertex into a branch point.
func registerExtensions(idx *BifurcationIndex, v VertexID, window []byte, next, prev byte) {
	if canonicalForward(window) {
		idx.RegisterSuccessor(v, upperByte(next))
		idx.RegisterPredecessor(v, upperByte(prev))
	} else {
		idx.RegisterSuccessor(v, upperByte(Complement(prev)))
		idx.RegisterPredecessor(v, upperByte(Complement(next)))
	}
}
