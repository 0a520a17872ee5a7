package sibelia

// VisitData records one bounded traversal out of a bifurcation vertex:
// the path of single bases consumed, in order, until either another
// bifurcation vertex was reached (ok) or the bound was exceeded.
type VisitData struct {
	// End is the bifurcation vertex this branch terminates at.
	End VertexID
	// FirstBody is the first consumed position, one base past the
	// source vertex's own window start; Store.replace edits begin here.
	FirstBody Cursor
	// Bases is the sequence of bases consumed along the branch, one per
	// step, in the branch's direction of travel.
	Bases []byte
	// Interior holds the vertex assigned to the window starting at each
	// consumed position before End's, used only to break length ties
	// deterministically.
	Interior []VertexID
}

// Length returns the number of bases consumed by the branch.
func (v VisitData) Length() int { return len(v.Bases) }

// traverseBranch walks forward from the occurrence cursor start (which
// must sit at the beginning of some vertex's window) one base at a time,
// re-fingerprinting the trailing window after each step, until a
// bifurcation vertex is reached or maxBranchSize steps have been taken
// without resolving. This is the bounded per-vertex traversal that
// produces a candidate bulge branch.
func traverseBranch(idx *BifurcationIndex, start Cursor, k, maxBranchSize int) (VisitData, bool) {
	cur := start
	var bases []byte
	var interior []VertexID
	var firstBody Cursor
	for step := 0; step < maxBranchSize; step++ {
		next, ok := cur.Next()
		if !ok {
			return VisitData{}, false
		}
		if step == 0 {
			firstBody = next
		}
		bases = append(bases, next.Char())
		window, ok := next.Window(k)
		if !ok {
			return VisitData{}, false
		}
		v2 := idx.GetOrCreateVertex(fingerprintOf(window))
		if idx.IsBifurcation(v2) {
			return VisitData{End: v2, FirstBody: firstBody, Bases: bases, Interior: interior}, true
		}
		interior = append(interior, v2)
		cur = next
	}
	return VisitData{}, false
}

// GraphSimplifier runs bulge-removal graph simplification (C4) against a
// Store and the BifurcationIndex built over it by Construct.
type GraphSimplifier struct {
	store *Store
	idx   *BifurcationIndex
	k     int

	// MaxBranchSize bounds how many bases traverseBranch will follow
	// before giving up on resolving a branch to another bifurcation.
	MaxBranchSize int
	// MaxDifferenceSize bounds how many bases two candidate branches of
	// one bulge may differ in length and still be considered a bulge.
	MaxDifferenceSize int
}

// NewGraphSimplifier returns a simplifier over store/idx built with
// k-mer size k.
func NewGraphSimplifier(store *Store, idx *BifurcationIndex, k, maxBranchSize, maxDifferenceSize int) *GraphSimplifier {
	return &GraphSimplifier{
		store:             store,
		idx:               idx,
		k:                 k,
		MaxBranchSize:     maxBranchSize,
		MaxDifferenceSize: maxDifferenceSize,
	}
}

// SimplifyGraph repeatedly removes bulges until a pass makes no further
// progress or maxIterations rounds have run, and returns the number of
// bulges collapsed.
func (g *GraphSimplifier) SimplifyGraph(maxIterations int) int {
	total := 0
	for iter := 0; iter < maxIterations; iter++ {
		n := g.removeBulgesOnce()
		total += n
		if n == 0 {
			break
		}
	}
	return total
}

// removeBulgesOnce makes one pass over every bifurcation vertex,
// collapsing every bulge it finds, and returns how many it collapsed.
func (g *GraphSimplifier) removeBulgesOnce() int {
	collapsed := 0
	for _, v := range g.idx.BifurcationVertices() {
		occs := append([]Cursor(nil), g.idx.Occurrences(v)...)
		if len(occs) < 2 {
			continue
		}
		var visits []VisitData
		for _, o := range occs {
			if vd, ok := traverseBranch(g.idx, o, g.k, g.MaxBranchSize); ok {
				visits = append(visits, vd)
			}
		}
		groups := make(map[VertexID][]VisitData)
		for _, vd := range visits {
			if vd.End == v {
				continue // self-loop bulges are not collapsed
			}
			groups[vd.End] = append(groups[vd.End], vd)
		}
		for _, group := range groups {
			if len(group) < 2 {
				continue
			}
			if g.collapseBulgeGreedily(group) {
				collapsed++
			}
		}
	}
	return collapsed
}

// collapseBulgeGreedily attempts to collapse one bulge: a set of branch
// candidates that share both endpoints. Branches invalidated by an
// earlier collapse in the same pass are dropped first; the group is
// then rejected as a whole if fewer than two current branches remain,
// if the branches are not within tolerance of each other's length, if
// any two physically overlap (share a StableID), or if collapsing
// would erase an entire chromosome's remaining sequence. It reports
// whether any branch was actually rewritten.
func (g *GraphSimplifier) collapseBulgeGreedily(group []VisitData) bool {
	var live []VisitData
	for _, vd := range group {
		if branchCurrent(vd) {
			live = append(live, vd)
		}
	}
	if len(live) < 2 {
		return false
	}

	minLen, maxLen := live[0].Length(), live[0].Length()
	for _, vd := range live[1:] {
		if l := vd.Length(); l < minLen {
			minLen = l
		} else if l > maxLen {
			maxLen = l
		}
	}
	if maxLen-minLen > g.MaxDifferenceSize {
		return false
	}
	if branchesOverlap(live) {
		return false
	}

	rep := pickRepresentative(live)

	for _, branch := range live {
		if sameBranch(branch, rep) || basesEqualFold(branch.Bases, rep.Bases) {
			continue
		}
		if g.store.willEmptyChromosome(branch.FirstBody, branch.Length()) {
			return false
		}
	}

	changed := false
	for _, branch := range live {
		if sameBranch(branch, rep) || basesEqualFold(branch.Bases, rep.Bases) {
			continue
		}
		_, removed, _, err := g.store.replace(branch.FirstBody, branch.Length(), rep.Bases)
		if err != nil {
			continue
		}
		changed = true
		g.idx.EraseOccurrencesInRange(removed)
		reindexChromosome(g.store, g.idx, branch.FirstBody.Chromosome(), g.k)
	}
	return changed
}

func sameBranch(a, b VisitData) bool {
	return a.FirstBody.StableID() == b.FirstBody.StableID() && a.FirstBody.Direction() == b.FirstBody.Direction()
}

// branchCurrent reports whether a branch recorded earlier in the pass
// still spells its captured bases in the store: a collapse elsewhere may
// have erased or rewritten part of it since traversal.
func branchCurrent(b VisitData) bool {
	c := b.FirstBody
	for i := 0; i < len(b.Bases); i++ {
		if !c.Valid() || c.Char() != b.Bases[i] {
			return false
		}
		if i == len(b.Bases)-1 {
			break
		}
		next, ok := c.Next()
		if !ok {
			return false
		}
		c = next
	}
	return len(b.Bases) > 0
}

// basesEqualFold compares two branch bodies case-insensitively, the same
// equivalence window comparisons use.
func basesEqualFold(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if upperByte(a[i]) != upperByte(b[i]) {
			return false
		}
	}
	return true
}

// branchesOverlap reports whether any two branches in group share a
// StableID, which would make collapsing one corrupt the other mid-edit.
func branchesOverlap(group []VisitData) bool {
	seen := make(map[StableID]bool)
	cur := make(map[StableID]bool)
	for _, vd := range group {
		for k := range cur {
			delete(cur, k)
		}
		c := vd.FirstBody
		for i := 0; i < vd.Length(); i++ {
			if seen[c.StableID()] {
				return true
			}
			cur[c.StableID()] = true
			if i == vd.Length()-1 {
				break
			}
			next, ok := c.Next()
			if !ok {
				break
			}
			c = next
		}
		for k := range cur {
			seen[k] = true
		}
	}
	return false
}

// pickRepresentative chooses the branch to keep: the longest by base
// count, breaking ties by the lexicographically smallest sequence of
// interior vertex ids, which makes the choice deterministic regardless
// of occurrence enumeration order.
func pickRepresentative(group []VisitData) VisitData {
	best := group[0]
	for _, vd := range group[1:] {
		switch {
		case vd.Length() > best.Length():
			best = vd
		case vd.Length() == best.Length() && lessInterior(vd.Interior, best.Interior):
			best = vd
		}
	}
	return best
}

func lessInterior(a, b []VertexID) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// reindexChromosome rebuilds the occurrence set and extension tallies
// for chr from scratch. A full chromosome rescan is simpler to reason
// about than incremental patching around the edit and is cheap relative
// to one traversal pass, since AddOccurrence/RegisterSuccessor/
// RegisterPredecessor are all idempotent.
func reindexChromosome(store *Store, idx *BifurcationIndex, chr int32, k int) {
	scanChromosomeDirection(idx, store.Start(chr), k)
	scanChromosomeDirection(idx, store.End(chr), k)
}
