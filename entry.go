package lsmkv

import "github.com/kndrad/lsmkv/memtable"

// Tombstone is the reserved value marking a deleted key. A Put using
// this exact byte string is indistinguishable from a Del, matching the
// on-disk sentinel this format has always used.
const Tombstone = memtable.Tombstone

// Entry is a single live key-value pair returned by Scan.
type Entry struct {
	Key   uint64
	Value []byte
}
