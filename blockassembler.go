package sibelia

import "sort"

// BlockID names one synteny block: an equivalence class of edges sharing
// both endpoints and first body base under canonical orientation.
type BlockID int

// BlockInstance is one occurrence of a block in the input: the original
// coordinates of one chromosome's copy of the shared sequence.
type BlockInstance struct {
	Block      BlockID
	Chromosome int32
	Strand     Direction
	// Start and End bound the half-open original-record interval
	// [Start, End), with Start < End regardless of strand; Strand records
	// which way this instance reads relative to the block's canonical
	// orientation.
	Start, End int64
	Length     int
}

// SignedBlock returns the orientation-carrying block id: positive when
// the instance reads the block in its canonical orientation, negative
// when it reads the reverse complement.
func (b BlockInstance) SignedBlock() int {
	if b.Strand == Negative {
		return -int(b.Block)
	}
	return int(b.Block)
}

// AssemblyOptions holds the block-assembly tunables for one stage.
type AssemblyOptions struct {
	// K is the stage's k-mer size; edges whose original span is K bases
	// or fewer carry no interior and are dropped before grouping.
	K int
	// MinBlockSize drops any group whose shortest edge falls below it.
	MinBlockSize int
	// TrimK floors symmetric trimming: edges longer than the group
	// minimum are shortened toward it, but never below TrimK.
	TrimK int
	// SharedOnly, when set, retains a group only if it has at least one
	// instance on every one of the Chromosomes input records.
	SharedOnly  bool
	Chromosomes int32
	// Reference marks the chromosomes of the first input file. A group
	// with an instance on a reference chromosome is oriented so that
	// its first such instance reads the positive strand.
	Reference map[int32]bool
}

type blockKey struct {
	a, b  VertexID
	first byte
}

// canonicalKey maps e and its reverse complement to the same grouping
// key: the orientation whose begin vertex sorts first wins, and the
// reversed orientation's first base (the one after its Begin window) is
// the complement of the forward orientation's lastChar (the one before
// its End window).
func canonicalKey(e Edge) (blockKey, bool) {
	if e.Begin <= e.End {
		return blockKey{e.Begin, e.End, e.FirstChar}, false
	}
	return blockKey{e.End, e.Begin, Complement(e.lastChar)}, true
}

// AssembleBlocks turns a flat edge list into numbered synteny blocks
// (C6): empty edges are dropped, the rest are grouped by their
// orientation-normalized endpoint pair and first base, trimmed toward
// the group's shortest edge but not below TrimK, filtered by minimum
// size and occurrence count, and
// given deterministic, size-ordered identities.
func AssembleBlocks(edges []Edge, opts AssemblyOptions) []BlockInstance {
	type groupEntry struct {
		reverse []bool
		edges   []Edge
	}
	groups := make(map[blockKey]*groupEntry)
	for _, e := range edges {
		if e.OriginalLength() <= opts.K {
			continue
		}
		key, reversed := canonicalKey(e)
		g, ok := groups[key]
		if !ok {
			g = &groupEntry{}
			groups[key] = g
		}
		g.edges = append(g.edges, e)
		g.reverse = append(g.reverse, reversed)
	}

	type candidate struct {
		totalLen  int64
		instances []BlockInstance
	}
	var candidates []candidate

	for _, g := range groups {
		if len(g.edges) < 2 {
			continue
		}
		minLen := g.edges[0].Length
		for _, e := range g.edges[1:] {
			if e.Length < minLen {
				minLen = e.Length
			}
		}
		if minLen < opts.MinBlockSize {
			continue
		}
		target := minLen
		if opts.TrimK > target {
			target = opts.TrimK
		}

		var instances []BlockInstance
		var totalLen int64
		covered := make(map[int32]bool)
		for i, e := range g.edges {
			trimmed := trimEdge(e, target)
			strand := trimmed.Dir
			if g.reverse[i] {
				strand = strand.Opposite()
			}
			start, end := trimmed.OriginalSpan()
			instances = append(instances, BlockInstance{
				Chromosome: trimmed.Chromosome,
				Strand:     strand,
				Start:      start,
				End:        end + 1,
				Length:     int(end-start) + 1,
			})
			totalLen += end - start + 1
			covered[trimmed.Chromosome] = true
		}
		if opts.SharedOnly && int32(len(covered)) < opts.Chromosomes {
			continue
		}
		orientToReference(instances, opts.Reference)
		sort.Slice(instances, func(i, j int) bool {
			return lessInstance(instances[i], instances[j])
		})
		candidates = append(candidates, candidate{totalLen: totalLen, instances: instances})
	}

	// Block ids are assigned by decreasing total original length, ties
	// broken by comparing the groups' instance vectors, so numbering is
	// stable across runs regardless of map iteration order.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].totalLen != candidates[j].totalLen {
			return candidates[i].totalLen > candidates[j].totalLen
		}
		return lessInstances(candidates[i].instances, candidates[j].instances)
	})

	var out []BlockInstance
	for i, c := range candidates {
		id := BlockID(i + 1)
		for _, inst := range c.instances {
			inst.Block = id
			out = append(out, inst)
		}
	}
	return out
}

// orientToReference flips a group's strands so that its first instance
// on a reference chromosome reads positive, anchoring the sign
// convention on the first input file. Groups with no reference
// instance keep their canonical orientation.
func orientToReference(instances []BlockInstance, reference map[int32]bool) {
	ref := -1
	for i, inst := range instances {
		if !reference[inst.Chromosome] {
			continue
		}
		if ref < 0 || lessInstance(inst, instances[ref]) {
			ref = i
		}
	}
	if ref < 0 || instances[ref].Strand == Positive {
		return
	}
	for i := range instances {
		instances[i].Strand = instances[i].Strand.Opposite()
	}
}

func lessInstance(a, b BlockInstance) bool {
	if a.Chromosome != b.Chromosome {
		return a.Chromosome < b.Chromosome
	}
	if a.Start != b.Start {
		return a.Start < b.Start
	}
	if a.End != b.End {
		return a.End < b.End
	}
	return a.Strand < b.Strand
}

func lessInstances(a, b []BlockInstance) bool {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if lessInstance(a[i], b[i]) {
			return true
		}
		if lessInstance(b[i], a[i]) {
			return false
		}
	}
	return len(a) < len(b)
}

// trimEdge shortens e symmetrically to newLen bases, dropping any excess
// split as evenly as possible between its leading and trailing ends.
func trimEdge(e Edge, newLen int) Edge {
	excess := e.Length - newLen
	if excess <= 0 {
		return e
	}
	front := excess / 2
	back := excess - front

	newStart := e.BodyStart
	if front > 0 {
		if advanced, ok := newStart.Advance(front); ok {
			newStart = advanced
		}
	}
	newEnd := e.BodyEnd
	for i := 0; i < back; i++ {
		if prev, ok := newEnd.Prev(); ok {
			newEnd = prev
		} else {
			break
		}
	}

	e.BodyStart = newStart
	e.BodyEnd = newEnd
	e.Length = newLen
	return e
}
