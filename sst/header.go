package sst

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"
)

// FixedHeaderSize is the timestamp/count/minKey/maxKey region at offset 0.
const FixedHeaderSize = 32

// IndexOffset is where the key index begins, after the header and filter.
const IndexOffset = FixedHeaderSize + FilterBytes

// KeyRecordSize is one key-index record: an 8-byte key, a 4-byte offset.
const KeyRecordSize = 12

// MaxSize is the hard cap on a sealed SST's size, header included.
const MaxSize = 2 * 1024 * 1024

// ErrCorrupt is returned by LoadHeader when a file's header, filter, or
// key index cannot be interpreted consistently with its own metadata.
var ErrCorrupt = fmt.Errorf("sst: corrupt file")

// Header is the in-memory representation of an SST's metadata, resident
// in the per-level cache. It never holds an open file handle: value
// reads reopen Path on demand.
type Header struct {
	Path      string
	Timestamp uint64
	Count     uint64
	MinKey    uint64
	MaxKey    uint64
	Filter    *Filter

	keys     []uint64
	offsets  []uint32
	fileSize int64
}

// PayloadBase is the file offset at which value bytes begin.
func (h *Header) PayloadBase() int64 {
	return IndexOffset + KeyRecordSize*int64(h.Count)
}

func (h *Header) lengthAt(i int) uint32 {
	if i+1 < len(h.offsets) {
		return h.offsets[i+1] - h.offsets[i]
	}
	return uint32(h.fileSize - h.PayloadBase() - int64(h.offsets[i]))
}

// KeyAt returns the i-th key in ascending order.
func (h *Header) KeyAt(i int) uint64 { return h.keys[i] }

// OffsetAt returns the i-th value's offset within the payload region.
func (h *Header) OffsetAt(i int) uint32 { return h.offsets[i] }

// LowerBound returns the index of the first key >= key, or Count if none.
func (h *Header) LowerBound(key uint64) int {
	return sort.Search(len(h.keys), func(i int) bool { return h.keys[i] >= key })
}

// SearchOffset consults the bloom filter then binary-searches the key
// index. ok is false on a definitive miss (bloom) or an index miss.
func (h *Header) SearchOffset(key uint64) (offset uint32, length uint32, ok bool) {
	if !h.Filter.MayContain(key) {
		return 0, 0, false
	}
	i := h.LowerBound(key)
	if i >= len(h.keys) || h.keys[i] != key {
		return 0, 0, false
	}
	return h.offsets[i], h.lengthAt(i), true
}

// FetchValue opens Path, seeks to the i-th value, reads it, and closes
// the file. Values are never cached.
func FetchValue(path string, h *Header, i int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	length := h.lengthAt(i)
	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	if _, err := f.ReadAt(buf, h.PayloadBase()+int64(h.offsets[i])); err != nil {
		return nil, err
	}
	return buf, nil
}

// FetchAt reads length bytes at offset from path, matching the source's
// fetchString contract.
func FetchAt(path string, offset int64, length uint32) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, length)
	if length == 0 {
		return buf, nil
	}
	if _, err := f.ReadAt(buf, offset); err != nil {
		return nil, err
	}
	return buf, nil
}

// LoadHeader reads and validates an SST's header, bloom filter, and key
// index from disk. It does not read the value payload.
func LoadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	var fixed [FixedHeaderSize]byte
	if _, err := io.ReadFull(f, fixed[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	h := &Header{
		Path:      path,
		Timestamp: binary.LittleEndian.Uint64(fixed[0:8]),
		Count:     binary.LittleEndian.Uint64(fixed[8:16]),
		MinKey:    binary.LittleEndian.Uint64(fixed[16:24]),
		MaxKey:    binary.LittleEndian.Uint64(fixed[24:32]),
		fileSize:  stat.Size(),
	}

	if h.Count == 0 {
		return nil, fmt.Errorf("%w: count is zero", ErrCorrupt)
	}

	filter, err := ReadFilter(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	h.Filter = filter

	h.keys = make([]uint64, h.Count)
	h.offsets = make([]uint32, h.Count)
	var rec [KeyRecordSize]byte
	for i := uint64(0); i < h.Count; i++ {
		if _, err := io.ReadFull(f, rec[:]); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		h.keys[i] = binary.LittleEndian.Uint64(rec[0:8])
		h.offsets[i] = binary.LittleEndian.Uint32(rec[8:12])
		if i > 0 && h.keys[i] <= h.keys[i-1] {
			return nil, fmt.Errorf("%w: key index not strictly ascending", ErrCorrupt)
		}
	}

	if h.keys[0] != h.MinKey || h.keys[h.Count-1] != h.MaxKey {
		return nil, fmt.Errorf("%w: min/max key mismatch with index", ErrCorrupt)
	}

	if h.PayloadBase() > h.fileSize {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}
	if h.PayloadBase()+int64(h.offsets[h.Count-1]) > h.fileSize {
		return nil, fmt.Errorf("%w: truncated payload", ErrCorrupt)
	}

	return h, nil
}
