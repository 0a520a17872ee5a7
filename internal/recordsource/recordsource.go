// Package recordsource turns FASTA files on disk into the SequenceRecord
// values the engine consumes.
package recordsource

import (
	"fmt"
	"io"
	"os"

	"github.com/TuftsBCB/io/fasta"
	"github.com/TuftsBCB/seq"

	sibelia "github.com/brittanymareeott/Sibelia"
)

// ReadFiles reads every record from each FASTA file in paths, in order,
// assigning sequential record IDs across the whole set so a multi-file
// run still produces a single flat chromosome id space. The first
// file's records are marked as the reference chromosome set, which the
// engine uses to anchor block orientation.
func ReadFiles(paths []string) ([]sibelia.SequenceRecord, error) {
	var records []sibelia.SequenceRecord
	id := 0
	for fileIndex, path := range paths {
		read, err := readOneFile(path, id)
		if err != nil {
			return nil, err
		}
		for i := range read {
			read[i].Reference = fileIndex == 0
		}
		records = append(records, read...)
		id += len(read)
	}
	return records, nil
}

func readOneFile(path string, firstID int) ([]sibelia.SequenceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("recordsource: opening %s: %w", path, err)
	}
	defer f.Close()

	reader := fasta.NewReader(f)
	var out []sibelia.SequenceRecord
	id := firstID
	for {
		s, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("recordsource: reading %s: %w", path, err)
		}
		out = append(out, recordFrom(s, id))
		id++
	}
	return out, nil
}

// recordFrom flattens a parsed sequence into the engine's record type,
// byte for byte with case preserved.
func recordFrom(s seq.Sequence, id int) sibelia.SequenceRecord {
	residues := make([]byte, len(s.Residues))
	for i, r := range s.Residues {
		residues[i] = byte(r)
	}
	return sibelia.SequenceRecord{
		ID:          id,
		Description: s.Name,
		Forward:     string(residues),
	}
}
