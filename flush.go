package lsmkv

import (
	"fmt"

	"github.com/kndrad/lsmkv/memtable"
	"github.com/kndrad/lsmkv/sst"
)

// flush seals the current memtable into a new level-0 SST, registers
// it, empties the memtable, and runs a compaction pass to restore
// level invariants. A memtable with nothing in it is left alone rather
// than sealed, since the on-disk format has no representation for a
// zero-entry SST.
func (st *Store) flush() error {
	if st.mem.Bytes() == 0 {
		return nil
	}

	dir, err := st.idx.EnsureLevel(0)
	if err != nil {
		return fmt.Errorf("lsmkv: failed to create level-0: %w", err)
	}

	var records []memtable.Record
	st.mem.Scan(0, ^uint64(0), &records)

	b := sst.NewBuilder(st.idx.NextTimestamp())
	for _, r := range records {
		b.Add(r.Key, r.Value)
	}

	path := dir.Alloc()
	h, err := b.Seal(path)
	if err != nil {
		return fmt.Errorf("lsmkv: failed to seal level-0 sst: %w", err)
	}
	st.idx.Add(0, h)
	st.mem.Reset()

	return st.compact()
}
