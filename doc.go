// Package sibelia implements the de Bruijn-graph simplification and
// synteny-block extraction core of a comparative-genomics engine.
//
// The engine ingests strand-aware nucleotide sequences, builds a
// bifurcation index over the de Bruijn graph at each k-mer size of a
// coarse-to-fine stage schedule, simplifies the graph by collapsing short bulges at each
// stage, and finally enumerates the remaining non-branching edges into
// synteny blocks with coordinates mapped back onto the original inputs.
//
// FASTA parsing, command-line handling, progress rendering, and report
// generation are treated as external concerns; callers supply
// SequenceRecord values and receive BlockInstance values back.
package sibelia
