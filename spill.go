package sibelia

import (
	"encoding/binary"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

// blockRecordSize is the width of one binary-encoded BlockInstance:
// Block(4) + Chromosome(4) + Strand(1) + Start(8) + End(8) + Length(4).
const blockRecordSize = 29

// SpillStore persists block instances to a memory-mapped scratch file as
// binary fixed-width records, backed by an mmap'd region rather than
// buffered file I/O. ReadBlockInstances decodes every stored record back
// into memory at once.
//
// Each SpillStore owns a uniquely named scratch directory so that
// multiple concurrent engine runs never collide, and carries no
// process-wide state: callers create one per Engine and Close it when
// done.
type SpillStore struct {
	dir   string
	file  *os.File
	mmap  []byte
	count int
}

// NewSpillStore creates a fresh, uniquely named scratch directory under
// baseDir and opens its backing file.
func NewSpillStore(baseDir string) (*SpillStore, error) {
	dir := filepath.Join(baseDir, "sibelia-spill-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrapError(KindIoError, err, "creating spill directory %s", dir)
	}
	f, err := os.OpenFile(filepath.Join(dir, "blocks.bin"), os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		os.RemoveAll(dir)
		return nil, wrapError(KindIoError, err, "opening spill file in %s", dir)
	}
	return &SpillStore{dir: dir, file: f}, nil
}

// WriteBlockInstances replaces the store's contents with instances,
// mapping a fresh region sized exactly to hold them.
func (s *SpillStore) WriteBlockInstances(instances []BlockInstance) error {
	if err := s.unmap(); err != nil {
		return err
	}
	size := int64(len(instances)) * blockRecordSize
	if size == 0 {
		s.count = 0
		return s.file.Truncate(0)
	}
	if err := s.file.Truncate(size); err != nil {
		return wrapError(KindIoError, err, "truncating spill file to %d bytes", size)
	}
	data, err := unix.Mmap(int(s.file.Fd()), 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return wrapError(KindIoError, err, "mmap spill file")
	}
	s.mmap = data
	s.count = len(instances)
	for i, inst := range instances {
		off := i * blockRecordSize
		rec := s.mmap[off : off+blockRecordSize]
		binary.LittleEndian.PutUint32(rec[0:], uint32(inst.Block))
		binary.LittleEndian.PutUint32(rec[4:], uint32(inst.Chromosome))
		rec[8] = encodeStrand(inst.Strand)
		binary.LittleEndian.PutUint64(rec[9:], uint64(inst.Start))
		binary.LittleEndian.PutUint64(rec[17:], uint64(inst.End))
		binary.LittleEndian.PutUint32(rec[25:], uint32(inst.Length))
	}
	return nil
}

// ReadBlockInstances decodes every record currently held in the store.
func (s *SpillStore) ReadBlockInstances() ([]BlockInstance, error) {
	out := make([]BlockInstance, s.count)
	for i := range out {
		off := i * blockRecordSize
		rec := s.mmap[off : off+blockRecordSize]
		out[i] = BlockInstance{
			Block:      BlockID(binary.LittleEndian.Uint32(rec[0:])),
			Chromosome: int32(binary.LittleEndian.Uint32(rec[4:])),
			Strand:     decodeStrand(rec[8]),
			Start:      int64(binary.LittleEndian.Uint64(rec[9:])),
			End:        int64(binary.LittleEndian.Uint64(rec[17:])),
			Length:     int(binary.LittleEndian.Uint32(rec[25:])),
		}
	}
	return out, nil
}

func encodeStrand(d Direction) byte {
	if d == Negative {
		return 0
	}
	return 1
}

func decodeStrand(b byte) Direction {
	if b == 0 {
		return Negative
	}
	return Positive
}

func (s *SpillStore) unmap() error {
	if s.mmap == nil {
		return nil
	}
	err := unix.Munmap(s.mmap)
	s.mmap = nil
	if err != nil {
		return wrapError(KindIoError, err, "munmap spill file")
	}
	return nil
}

// Close releases the mapped region, closes the backing file, and
// removes the scratch directory.
func (s *SpillStore) Close() error {
	if err := s.unmap(); err != nil {
		return err
	}
	if err := s.file.Close(); err != nil {
		return wrapError(KindIoError, err, "closing spill file")
	}
	return os.RemoveAll(s.dir)
}
