package memtable

import (
	"bytes"
	"math/rand"
	"testing"
	"time"
)

// Fixed seed for the shared generator. TestRandomInsertAndSearch reseeds
// it from the clock, so tests that run after it draw time-seeded values.
func init() {
	rand.Seed(1)
}

func TestEmptySkipList(t *testing.T) {
	sl := New()

	if sl.Bytes() != 0 {
		t.Fatalf("expected 0 bytes, got %d", sl.Bytes())
	}

	if _, ok := sl.Search(1); ok {
		t.Fatalf("expected not found in empty skiplist")
	}
}

func TestInsertAndSearchSingle(t *testing.T) {
	sl := New()

	sl.Insert(10, []byte("ten"))

	val, ok := sl.Search(10)
	if !ok || !bytes.Equal(val, []byte("ten")) {
		t.Fatalf("expected (ten,true), got (%s,%v)", val, ok)
	}

	if want := uint32(12 + len("ten")); sl.Bytes() != want {
		t.Fatalf("expected %d bytes, got %d", want, sl.Bytes())
	}
}

func TestUpdateExistingKeyAdjustsBytes(t *testing.T) {
	sl := New()

	sl.Insert(1, []byte("one"))
	sl.Insert(1, []byte("uno!"))

	val, ok := sl.Search(1)
	if !ok || !bytes.Equal(val, []byte("uno!")) {
		t.Fatalf("update failed, got (%s,%v)", val, ok)
	}

	if want := uint32(12 + len("uno!")); sl.Bytes() != want {
		t.Fatalf("expected %d bytes after update, got %d", want, sl.Bytes())
	}
}

func TestSequentialInsertAndSearch(t *testing.T) {
	sl := New()

	for i := uint64(1); i <= 1000; i++ {
		sl.Insert(i, []byte{byte(i), byte(i >> 8)})
	}

	for i := uint64(1); i <= 1000; i++ {
		v, ok := sl.Search(i)
		if !ok || v[0] != byte(i) || v[1] != byte(i>>8) {
			t.Fatalf("bad value for key %d", i)
		}
	}
}

func TestRandomInsertAndSearch(t *testing.T) {
	sl := New()
	m := map[uint64][]byte{}

	rand.Seed(time.Now().UnixNano())

	for i := 0; i < 1000; i++ {
		k := uint64(rand.Intn(5000))
		v := []byte{byte(rand.Intn(256))}
		sl.Insert(k, v)
		m[k] = v
	}

	for k, v := range m {
		got, ok := sl.Search(k)
		if !ok || !bytes.Equal(got, v) {
			t.Fatalf("bad value for key %d: got %v want %v", k, got, v)
		}
	}
}

func TestDelReturnsFalseWhenAbsent(t *testing.T) {
	sl := New()
	if sl.Del(42) {
		t.Fatal("expected Del on absent key to return false")
	}
}

func TestDelMarksTombstone(t *testing.T) {
	sl := New()
	sl.Insert(5, []byte("v"))

	if !sl.Del(5) {
		t.Fatal("expected Del to return true")
	}

	v, ok := sl.Search(5)
	if !ok {
		t.Fatal("expected tombstone entry to remain present in memtable")
	}
	if string(v) != Tombstone {
		t.Fatalf("expected tombstone value, got %q", v)
	}

	// The tombstone is itself an entry, so a second Del finds it and
	// replaces it with a fresh tombstone.
	if !sl.Del(5) {
		t.Fatal("second Del of a tombstoned key should return true")
	}
}

func TestOrderedStructure(t *testing.T) {
	sl := New()

	for i := 0; i < 200; i++ {
		sl.Insert(uint64(rand.Intn(10000)), nil)
	}

	x := sl.head.forward[0]
	var prev uint64
	first := true
	for x != nil {
		if !first && x.key < prev {
			t.Fatalf("skiplist out of order")
		}
		first = false
		prev = x.key
		x = x.forward[0]
	}
}

func TestScanRange(t *testing.T) {
	sl := New()
	for i := uint64(0); i < 100; i++ {
		sl.Insert(i, []byte{byte(i)})
	}

	var out []Record
	sl.Scan(10, 20, &out)

	if len(out) != 11 {
		t.Fatalf("expected 11 entries, got %d", len(out))
	}
	for i, rec := range out {
		if rec.Key != uint64(10+i) {
			t.Fatalf("scan out of order at %d: got key %d", i, rec.Key)
		}
	}
}

func TestScanAfterDelete(t *testing.T) {
	sl := New()
	for i := uint64(0); i < 20; i++ {
		sl.Insert(i, []byte{byte(i)})
	}
	sl.Del(5)
	sl.Del(10)

	var out []Record
	sl.Scan(0, 19, &out)

	if len(out) != 20 {
		t.Fatalf("expected tombstones still present in scan output, got %d entries", len(out))
	}
	for _, rec := range out {
		if rec.Key == 5 || rec.Key == 10 {
			if string(rec.Value) != Tombstone {
				t.Fatalf("expected tombstone at key %d, got %q", rec.Key, rec.Value)
			}
		}
	}
}

func TestResetClearsState(t *testing.T) {
	sl := New()
	for i := uint64(0); i < 50; i++ {
		sl.Insert(i, []byte("x"))
	}

	sl.Reset()

	if sl.Bytes() != 0 {
		t.Fatalf("expected 0 bytes after reset, got %d", sl.Bytes())
	}
	if _, ok := sl.Search(0); ok {
		t.Fatal("expected empty memtable after reset")
	}
}
