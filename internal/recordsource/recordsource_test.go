package recordsource

import (
	"os"
	"path/filepath"
	"testing"
)

func TestReadFilesReportsMissingFile(t *testing.T) {
	if _, err := ReadFiles([]string{"/nonexistent/path/does-not-exist.fasta"}); err == nil {
		t.Fatal("expected an error for a missing input file")
	}
}

func TestReadFilesMarksFirstFileAsReference(t *testing.T) {
	dir := t.TempDir()
	ref := filepath.Join(dir, "reference.fasta")
	other := filepath.Join(dir, "other.fasta")
	if err := os.WriteFile(ref, []byte(">chrA\nACGTACGT\n>chrB\nTTTTCCCC\n"), 0o644); err != nil {
		t.Fatalf("writing reference file: %v", err)
	}
	if err := os.WriteFile(other, []byte(">chrC\nGGGGAAAA\n"), 0o644); err != nil {
		t.Fatalf("writing second file: %v", err)
	}

	records, err := ReadFiles([]string{ref, other})
	if err != nil {
		t.Fatalf("ReadFiles: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	for i, rec := range records {
		if rec.ID != i {
			t.Fatalf("record %d has ID %d, want sequential ids across files", i, rec.ID)
		}
	}
	if !records[0].Reference || !records[1].Reference {
		t.Fatal("records from the first file must be marked as reference")
	}
	if records[2].Reference {
		t.Fatal("records from later files must not be marked as reference")
	}
}
