package lsmkv

import (
	"container/heap"

	"github.com/kndrad/lsmkv/levelindex"
	"github.com/kndrad/lsmkv/memtable"
	"github.com/kndrad/lsmkv/sst"
)

// cursor is one source's position within [k1,k2]: either the
// memtable's in-range slice, or a single SST's key-index range
// [idx,end). The memtable cursor carries an infinite timestamp so it
// always outranks any SST with the same key.
type cursor struct {
	key       uint64
	timestamp uint64

	records []memtable.Record // non-nil for a memtable cursor
	header  *sst.Header       // non-nil for an SST cursor

	idx int
	end int
}

func (c *cursor) value() ([]byte, error) {
	if c.header == nil {
		return c.records[c.idx].Value, nil
	}
	return sst.FetchValue(c.header.Path, c.header, c.idx)
}

func (c *cursor) advance() bool {
	c.idx++
	if c.idx >= c.end {
		return false
	}
	if c.header == nil {
		c.key = c.records[c.idx].Key
	} else {
		c.key = c.header.KeyAt(c.idx)
	}
	return true
}

// cursorHeap is a min-heap keyed by (key asc, timestamp desc): the
// smallest key wins, and among equal keys the newest source wins.
type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key < h[j].key
	}
	return h[i].timestamp > h[j].timestamp
}
func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)   { *h = append(*h, x.(*cursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	*h = old[:n-1]
	return c
}

// memTimestamp ranks the memtable above any SST, which is assigned a
// real, finite timestamp at seal time.
const memTimestamp = ^uint64(0)

// Scan appends every live (key, value) pair with k1 <= key <= k2 to
// out, ascending by key, with duplicates across sources resolved so
// only the newest surviving value for each key is emitted.
func (st *Store) Scan(key1, key2 uint64, out *[]Entry) error {
	var memRecords []memtable.Record
	st.mem.Scan(key1, key2, &memRecords)

	h := &cursorHeap{}
	heap.Init(h)

	if len(memRecords) > 0 {
		heap.Push(h, &cursor{
			key:       memRecords[0].Key,
			timestamp: memTimestamp,
			records:   memRecords,
			idx:       0,
			end:       len(memRecords),
		})
	}

	for level := 0; level <= st.idx.TotalLevel(); level++ {
		for _, hd := range levelindex.CandidatesForRange(st.idx.Headers(level), key1, key2) {
			start := hd.LowerBound(key1)
			end := hd.LowerBound(key2)
			if end < int(hd.Count) && hd.KeyAt(end) == key2 {
				end++
			}
			if start >= end {
				continue
			}
			heap.Push(h, &cursor{
				key:       hd.KeyAt(start),
				timestamp: hd.Timestamp,
				header:    hd,
				idx:       start,
				end:       end,
			})
		}
	}

	var lastKey uint64
	haveLast := false
	for h.Len() > 0 {
		cur := heap.Pop(h).(*cursor)

		if !haveLast || cur.key != lastKey {
			v, err := cur.value()
			if err != nil {
				return err
			}
			if len(v) != 0 && string(v) != Tombstone {
				*out = append(*out, Entry{Key: cur.key, Value: v})
			}
			lastKey = cur.key
			haveLast = true
		}

		if cur.advance() {
			heap.Push(h, cur)
		}
	}

	return nil
}
