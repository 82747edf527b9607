// Package memtable provides the in-memory, ordered key-value structure that
// buffers recent writes before they are flushed to an on-disk SST.
package memtable

// Tombstone is the reserved value that marks a key as deleted. It is an
// in-band sentinel: a caller storing this exact byte string is
// indistinguishable from a deletion, matching the on-disk SST format which
// carries no separate tombstone bit.
const Tombstone = "~DELETED~"

// entryOverhead is the fixed per-entry bookkeeping cost charged against the
// memtable's byte budget, matching the 12-byte (key + offset) index record
// an entry occupies once flushed into an SST.
const entryOverhead = 12

// Record is a single ordered key-value pair as produced by Scan.
type Record struct {
	Key   uint64
	Value []byte
}

// Memtable is an ordered, unique-key collection of recent writes.
//
// Search distinguishes "not present" (ok=false) from "present" (ok=true);
// a present value equal to Tombstone means the key was deleted since the
// last flush and must not fall through to the on-disk SSTs.
type Memtable interface {
	Insert(key uint64, value []byte)
	Search(key uint64) (value []byte, ok bool)
	Del(key uint64) bool
	Scan(key1, key2 uint64, out *[]Record)
	Reset()
	Bytes() uint32
}
