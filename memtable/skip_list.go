package memtable

import "math/rand"

// maxLevel and p match the reference skip list: coin-flip growth with
// probability 0.5, capped at 18 levels.
const (
	maxLevel = 18
	p        = 0.5
)

type node struct {
	key     uint64
	value   []byte
	forward []*node
}

// SkipList is the probabilistic balanced-tree memtable backing a
// store's write buffer. It keeps entries ordered by key, unique by
// key, and tracks the byte budget the flush trigger reads from Bytes.
type SkipList struct {
	head     *node
	curLevel int
	bytes    uint32
}

var _ Memtable = (*SkipList)(nil)

// New returns an empty memtable ready for inserts.
func New() *SkipList {
	return &SkipList{
		head:     &node{forward: make([]*node, maxLevel)},
		curLevel: 1,
	}
}

func randomLevel() int {
	level := 1
	for rand.Float64() < p && level < maxLevel {
		level++
	}
	return level
}

func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Insert adds key if absent, or replaces its value and adjusts the byte
// count by the length delta if present.
func (sl *SkipList) Insert(key uint64, value []byte) {
	var update [maxLevel]*node
	cur := sl.head
	for i := sl.curLevel - 1; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
		update[i] = cur
	}

	if existing := cur.forward[0]; existing != nil && existing.key == key {
		delta := int64(len(value)) - int64(len(existing.value))
		sl.bytes = uint32(int64(sl.bytes) + delta)
		existing.value = cloneBytes(value)
		return
	}

	level := randomLevel()
	if level > sl.curLevel {
		for i := sl.curLevel; i < level; i++ {
			update[i] = sl.head
		}
		sl.curLevel = level
	}

	n := &node{key: key, value: cloneBytes(value), forward: make([]*node, level)}
	for i := 0; i < level; i++ {
		n.forward[i] = update[i].forward[i]
		update[i].forward[i] = n
	}

	sl.bytes += entryOverhead + uint32(len(value))
}

func (sl *SkipList) lowerBound(key uint64) *node {
	cur := sl.head
	for i := sl.curLevel - 1; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
	}
	return cur.forward[0]
}

// Search reports whether key is present and, if so, its current value
// (which may be Tombstone).
func (sl *SkipList) Search(key uint64) ([]byte, bool) {
	n := sl.lowerBound(key)
	if n != nil && n.key == key {
		return n.value, true
	}
	return nil, false
}

// Del physically removes the prior entry for key, if any, and replaces it
// with a tombstone entry. Returns false without modifying the memtable if
// key was not present.
func (sl *SkipList) Del(key uint64) bool {
	var update [maxLevel]*node
	cur := sl.head
	for i := sl.curLevel - 1; i >= 0; i-- {
		for cur.forward[i] != nil && cur.forward[i].key < key {
			cur = cur.forward[i]
		}
		update[i] = cur
	}

	target := cur.forward[0]
	if target == nil || target.key != key {
		return false
	}

	for i := 0; i < sl.curLevel; i++ {
		if update[i].forward[i] == target {
			update[i].forward[i] = target.forward[i]
		}
	}
	sl.bytes -= entryOverhead + uint32(len(target.value))
	for sl.curLevel > 1 && sl.head.forward[sl.curLevel-1] == nil {
		sl.curLevel--
	}

	sl.Insert(key, []byte(Tombstone))
	return true
}

// Scan appends entries with key1 <= key <= key2, ascending, to out.
func (sl *SkipList) Scan(key1, key2 uint64, out *[]Record) {
	cur := sl.lowerBound(key1)
	for cur != nil && cur.key <= key2 {
		*out = append(*out, Record{Key: cur.key, Value: cur.value})
		cur = cur.forward[0]
	}
}

// Reset empties the memtable.
func (sl *SkipList) Reset() {
	sl.head.forward = make([]*node, maxLevel)
	sl.curLevel = 1
	sl.bytes = 0
}

// Bytes returns the current byte accounting used by the flush predicate.
func (sl *SkipList) Bytes() uint32 {
	return sl.bytes
}
