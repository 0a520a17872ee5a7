package sibelia

// MaxInputSize is the hard ceiling (in bytes, summed across all records)
// the engine will accept. Exceeding it is a KindInputTooLarge error
// reported before any work begins.
const MaxInputSize = 1 << 30 // 1 GB

// SequenceRecord is one immutable input genome handed to the engine by
// the external FASTA collaborator.
type SequenceRecord struct {
	// ID is this record's position in the concatenated id space across
	// all input files, assigned by the caller.
	ID int
	// Description is a human-readable label, usually the FASTA header.
	Description string
	// Forward is the forward-strand nucleotide string, case preserved.
	Forward string
	// Reference marks records from the first input file, the reference
	// chromosome set that anchors block orientation.
	Reference bool
}

// validateRecords checks the total input size and rejects any record
// containing the separator byte or a non-nucleotide residue.
func validateRecords(records []SequenceRecord) error {
	var total int
	for _, r := range records {
		total += len(r.Forward)
		for i := 0; i < len(r.Forward); i++ {
			b := r.Forward[i]
			if b == Separator {
				return newError(KindInvalidParameter,
					"record %d (%q) contains the reserved separator byte %q",
					r.ID, r.Description, Separator)
			}
			if !isValidResidue(b) {
				return newError(KindInvalidParameter,
					"record %d (%q) contains invalid residue %q at offset %d",
					r.ID, r.Description, b, i)
			}
		}
	}
	if total > MaxInputSize {
		return newError(KindInputTooLarge,
			"total input size %d bytes exceeds the %d byte ceiling", total, MaxInputSize)
	}
	return nil
}
