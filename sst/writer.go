package sst

import (
	"encoding/binary"
	"fmt"
	"os"
)

// Builder accumulates key-ordered entries for a single SST and seals
// them into a file once full or once the source is exhausted. Callers
// must Add keys in ascending, unique order.
type Builder struct {
	timestamp   uint64
	keys        []uint64
	values      [][]byte
	filter      *Filter
	payloadSize int
}

// NewBuilder starts an empty builder stamped with timestamp.
func NewBuilder(timestamp uint64) *Builder {
	return &Builder{timestamp: timestamp, filter: NewFilter()}
}

// Len returns the number of entries added so far.
func (b *Builder) Len() int { return len(b.keys) }

// Size estimates the sealed file size if Seal were called right now.
func (b *Builder) Size() int {
	return FixedHeaderSize + FilterBytes + KeyRecordSize*len(b.keys) + b.payloadSize
}

// WouldExceed reports whether adding one more value of valueLen bytes
// would push the sealed size past MaxSize.
func (b *Builder) WouldExceed(valueLen int) bool {
	return b.Size()+KeyRecordSize+valueLen > MaxSize
}

// Add appends one entry. The caller is responsible for key ordering.
func (b *Builder) Add(key uint64, value []byte) {
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
	b.payloadSize += len(value)
	b.filter.Add(key)
}

// Seal writes the accumulated entries to path in the on-disk SST
// layout and returns the resulting in-memory header. The builder must
// be non-empty.
func (b *Builder) Seal(path string) (*Header, error) {
	if len(b.keys) == 0 {
		return nil, fmt.Errorf("sst: cannot seal an empty builder")
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("sst: failed to create file %s: %w", path, err)
	}
	defer f.Close()

	count := uint64(len(b.keys))
	var fixed [FixedHeaderSize]byte
	binary.LittleEndian.PutUint64(fixed[0:8], b.timestamp)
	binary.LittleEndian.PutUint64(fixed[8:16], count)
	binary.LittleEndian.PutUint64(fixed[16:24], b.keys[0])
	binary.LittleEndian.PutUint64(fixed[24:32], b.keys[count-1])
	if _, err := f.Write(fixed[:]); err != nil {
		return nil, fmt.Errorf("sst: failed to write header: %w", err)
	}

	if _, err := b.filter.WriteTo(f); err != nil {
		return nil, fmt.Errorf("sst: failed to write bloom filter: %w", err)
	}

	offsets := make([]uint32, count)
	var off uint32
	for i, v := range b.values {
		offsets[i] = off
		off += uint32(len(v))
	}

	var rec [KeyRecordSize]byte
	for i, k := range b.keys {
		binary.LittleEndian.PutUint64(rec[0:8], k)
		binary.LittleEndian.PutUint32(rec[8:12], offsets[i])
		if _, err := f.Write(rec[:]); err != nil {
			return nil, fmt.Errorf("sst: failed to write key index: %w", err)
		}
	}

	for _, v := range b.values {
		if len(v) == 0 {
			continue
		}
		if _, err := f.Write(v); err != nil {
			return nil, fmt.Errorf("sst: failed to write payload: %w", err)
		}
	}

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	return &Header{
		Path:      path,
		Timestamp: b.timestamp,
		Count:     count,
		MinKey:    b.keys[0],
		MaxKey:    b.keys[count-1],
		Filter:    b.filter,
		keys:      append([]uint64(nil), b.keys...),
		offsets:   offsets,
		fileSize:  stat.Size(),
	}, nil
}
