// Package lsmkv is a persistent ordered key-value store organized as a
// leveled log-structured merge tree. Keys are unsigned 64-bit integers;
// values are arbitrary byte strings. Writes land in an in-memory
// memtable and are flushed to immutable on-disk sorted tables (SSTs)
// once the memtable would grow past its byte budget; flushed SSTs are
// periodically compacted to bound per-level size and re-establish
// key-range disjointness below level 0.
package lsmkv

import (
	"fmt"

	"github.com/kndrad/lsmkv/levelindex"
	"github.com/kndrad/lsmkv/memtable"
	"github.com/kndrad/lsmkv/sst"
)

// Store is a single open LSM tree rooted at one directory. It is not
// safe for concurrent use: all operations run on the caller's thread
// and synchronously restore every level invariant before returning.
type Store struct {
	root string
	mem  memtable.Memtable
	idx  *levelindex.Index
}

// Open loads an existing store rooted at dir, or initializes a fresh
// one if dir does not yet contain any level directories. Every
// existing level-L/ directory has its SST headers loaded into the
// cache, totalLevel is set to the highest level found, and the
// timestamp counter resumes one past the maximum observed.
func Open(dir string) (*Store, error) {
	idx, err := levelindex.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("lsmkv: failed to open store at %s: %w", dir, err)
	}
	return &Store{root: dir, mem: memtable.New(), idx: idx}, nil
}

// Put inserts or updates key's value. It always succeeds logically;
// the returned error reports only I/O failures flushing or compacting
// if the write happens to cross the memtable's byte budget.
func (st *Store) Put(key uint64, value []byte) error {
	nxt := st.mem.Bytes()
	if existing, ok := st.mem.Search(key); ok {
		nxt = uint32(int64(nxt) - int64(len(existing)) + int64(len(value)))
	} else {
		nxt += 12 + uint32(len(value))
	}

	if int64(nxt)+10240+32 > sst.MaxSize {
		if err := st.flush(); err != nil {
			return err
		}
	}

	st.mem.Insert(key, value)
	return nil
}

// Get returns key's current value, or a nil slice if key is absent or
// was deleted. Consults the memtable first, then each level in
// ascending order, stopping at the first level that yields a hit.
func (st *Store) Get(key uint64) ([]byte, error) {
	if v, ok := st.mem.Search(key); ok {
		if string(v) == Tombstone {
			return nil, nil
		}
		return v, nil
	}

	for level := 0; level <= st.idx.TotalLevel(); level++ {
		var bestHeader *sst.Header
		var bestOff, bestLen uint32

		for _, h := range st.idx.Headers(level) {
			if key < h.MinKey || key > h.MaxKey {
				continue
			}
			off, length, ok := h.SearchOffset(key)
			if !ok {
				if level == 0 {
					continue
				}
				break
			}
			if bestHeader == nil || h.Timestamp > bestHeader.Timestamp {
				bestHeader, bestOff, bestLen = h, off, length
			}
		}

		if bestHeader == nil {
			continue
		}

		v, err := sst.FetchAt(bestHeader.Path, bestHeader.PayloadBase()+int64(bestOff), bestLen)
		if err != nil {
			return nil, fmt.Errorf("lsmkv: failed to read value for key %d: %w", key, err)
		}
		if string(v) == Tombstone {
			return nil, nil
		}
		return v, nil
	}

	return nil, nil
}

// Del removes key if it is currently live. Returns false without
// writing anything if the key has no current value.
func (st *Store) Del(key uint64) (bool, error) {
	v, err := st.Get(key)
	if err != nil {
		return false, err
	}
	if len(v) == 0 {
		return false, nil
	}
	if err := st.Put(key, []byte(Tombstone)); err != nil {
		return false, err
	}
	return true, nil
}

// Reset empties the memtable and unlinks every level directory,
// leaving the store equivalent to a freshly created one at the same
// root.
func (st *Store) Reset() error {
	st.mem.Reset()
	if err := st.idx.Reset(); err != nil {
		return fmt.Errorf("lsmkv: failed to reset %s: %w", st.root, err)
	}
	return nil
}

// Close flushes a non-empty memtable to a level-0 SST and runs one
// compaction pass so that nothing written is lost once the process
// exits. There is no write-ahead log: anything still sitting in the
// memtable when the process is killed outright is gone.
func (st *Store) Close() error {
	if st.mem.Bytes() == 0 {
		return nil
	}
	return st.flush()
}
