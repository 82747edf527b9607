package lsmkv

import (
	"fmt"
	"sort"

	"github.com/kndrad/lsmkv/levelindex"
	"github.com/kndrad/lsmkv/sst"
	"github.com/kndrad/lsmkv/sstdir"
)

// element is one (key, value) pair pulled from a source or overlap SST
// during compaction, tagged with the level and timestamp it came from
// so the merge-sort tie-break can pick a winner per key.
type element struct {
	key       uint64
	value     []byte
	timestamp uint64
	srcLevel  int
}

// compact restores the per-level size bound starting at level 0,
// walking upward for as long as a level is over budget.
func (st *Store) compact() error {
	for level := 0; ; level++ {
		headers := st.idx.Headers(level)
		if len(headers) <= levelindex.Bound(level) {
			return nil
		}

		if level == st.idx.TotalLevel() {
			if _, err := st.idx.EnsureLevel(level + 1); err != nil {
				return fmt.Errorf("lsmkv: failed to extend to level %d: %w", level+1, err)
			}
		}

		selected := selectSources(headers, level)
		minKey, maxKey := keyRange(selected)
		overlap := levelindex.CandidatesForRange(st.idx.Headers(level+1), minKey, maxKey)

		elems, err := loadElements(selected, level, overlap, level+1)
		if err != nil {
			return err
		}

		elems = sortAndDedup(elems)
		if level+1 == st.idx.TotalLevel() {
			elems = dropTombstones(elems)
		}

		for _, h := range selected {
			if err := st.idx.Remove(level, h.Path); err != nil {
				return fmt.Errorf("lsmkv: failed to remove %s: %w", h.Path, err)
			}
		}
		for _, h := range overlap {
			if err := st.idx.Remove(level+1, h.Path); err != nil {
				return fmt.Errorf("lsmkv: failed to remove %s: %w", h.Path, err)
			}
		}

		if err := st.emit(elems, level+1); err != nil {
			return err
		}
	}
}

// selectSources picks the SSTs to compact out of level: all of them at
// level 0, or the oldest-timestamp-first (ties by smallest minKey)
// excess at level >= 1, matching the source's findMin ordering.
func selectSources(headers []*sst.Header, level int) []*sst.Header {
	if level == 0 {
		return append([]*sst.Header(nil), headers...)
	}

	sorted := append([]*sst.Header(nil), headers...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Timestamp != sorted[j].Timestamp {
			return sorted[i].Timestamp < sorted[j].Timestamp
		}
		return sorted[i].MinKey < sorted[j].MinKey
	})

	n := len(headers) - levelindex.Bound(level)
	return sorted[:n]
}

func keyRange(headers []*sst.Header) (minKey, maxKey uint64) {
	minKey = ^uint64(0)
	for _, h := range headers {
		if h.MinKey < minKey {
			minKey = h.MinKey
		}
		if h.MaxKey > maxKey {
			maxKey = h.MaxKey
		}
	}
	return minKey, maxKey
}

func loadElements(selected []*sst.Header, srcLevel int, overlap []*sst.Header, overlapLevel int) ([]element, error) {
	var elems []element
	for _, h := range selected {
		es, err := loadHeaderElements(h, srcLevel)
		if err != nil {
			return nil, err
		}
		elems = append(elems, es...)
	}
	for _, h := range overlap {
		es, err := loadHeaderElements(h, overlapLevel)
		if err != nil {
			return nil, err
		}
		elems = append(elems, es...)
	}
	return elems, nil
}

func loadHeaderElements(h *sst.Header, srcLevel int) ([]element, error) {
	out := make([]element, 0, h.Count)
	for i := 0; i < int(h.Count); i++ {
		v, err := sst.FetchValue(h.Path, h, i)
		if err != nil {
			return nil, fmt.Errorf("lsmkv: failed to read %s during compaction: %w", h.Path, err)
		}
		out = append(out, element{key: h.KeyAt(i), value: v, timestamp: h.Timestamp, srcLevel: srcLevel})
	}
	return out, nil
}

// sortAndDedup orders elems by ascending key, then ascending srcLevel,
// then descending timestamp, and keeps only the first (winning) entry
// per key.
func sortAndDedup(elems []element) []element {
	sort.Slice(elems, func(i, j int) bool {
		if elems[i].key != elems[j].key {
			return elems[i].key < elems[j].key
		}
		if elems[i].srcLevel != elems[j].srcLevel {
			return elems[i].srcLevel < elems[j].srcLevel
		}
		return elems[i].timestamp > elems[j].timestamp
	})

	out := elems[:0]
	var lastKey uint64
	haveLast := false
	for _, e := range elems {
		if haveLast && e.key == lastKey {
			continue
		}
		out = append(out, e)
		lastKey = e.key
		haveLast = true
	}
	return out
}

func dropTombstones(elems []element) []element {
	out := elems[:0]
	for _, e := range elems {
		if string(e.value) == Tombstone {
			continue
		}
		out = append(out, e)
	}
	return out
}

// emit writes elems, already sorted ascending by key, into one or more
// new SSTs at level, sealing whenever the next value would exceed the
// 2 MiB budget.
func (st *Store) emit(elems []element, level int) error {
	if len(elems) == 0 {
		return nil
	}

	dir, err := st.idx.EnsureLevel(level)
	if err != nil {
		return fmt.Errorf("lsmkv: failed to create level-%d: %w", level, err)
	}

	b := sst.NewBuilder(st.idx.NextTimestamp())
	for _, e := range elems {
		if b.Len() > 0 && b.WouldExceed(len(e.value)) {
			if err := st.sealInto(b, dir, level); err != nil {
				return err
			}
			b = sst.NewBuilder(st.idx.NextTimestamp())
		}
		b.Add(e.key, e.value)
	}
	if b.Len() > 0 {
		if err := st.sealInto(b, dir, level); err != nil {
			return err
		}
	}
	return nil
}

func (st *Store) sealInto(b *sst.Builder, dir *sstdir.Dir, level int) error {
	h, err := b.Seal(dir.Alloc())
	if err != nil {
		return fmt.Errorf("lsmkv: failed to seal sst at level %d: %w", level, err)
	}
	st.idx.Add(level, h)
	return nil
}
