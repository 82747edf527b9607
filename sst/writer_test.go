package sst

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func buildAndSeal(t *testing.T, timestamp uint64, entries map[uint64]string) (*Header, string) {
	t.Helper()

	keys := make([]uint64, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if keys[j] < keys[i] {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}

	b := NewBuilder(timestamp)
	for _, k := range keys {
		b.Add(k, []byte(entries[k]))
	}

	path := filepath.Join(t.TempDir(), "test.sst")
	h, err := b.Seal(path)
	if err != nil {
		t.Fatalf("Seal failed: %v", err)
	}
	return h, path
}

func TestSealAndLoadRoundTrip(t *testing.T) {
	entries := map[uint64]string{1: "a", 5: "bb", 100: "ccc", 9: ""}
	h, path := buildAndSeal(t, 7, entries)

	loaded, err := LoadHeader(path)
	if err != nil {
		t.Fatalf("LoadHeader failed: %v", err)
	}

	if loaded.Timestamp != 7 || loaded.Count != 4 || loaded.MinKey != 1 || loaded.MaxKey != 100 {
		t.Fatalf("header mismatch: %+v", loaded)
	}

	for k, v := range entries {
		off, length, ok := loaded.SearchOffset(k)
		if !ok {
			t.Fatalf("key %d not found", k)
		}
		i := loaded.LowerBound(k)
		got, err := FetchValue(path, loaded, i)
		if err != nil {
			t.Fatalf("FetchValue failed for %d: %v", k, err)
		}
		if !bytes.Equal(got, []byte(v)) {
			t.Fatalf("value mismatch for %d: got %q want %q (off=%d len=%d)", k, got, v, off, length)
		}
	}

	if _, _, ok := h.SearchOffset(9999); ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestSealRejectsEmptyBuilder(t *testing.T) {
	b := NewBuilder(1)
	if _, err := b.Seal(filepath.Join(t.TempDir(), "empty.sst")); err == nil {
		t.Fatal("expected error sealing an empty builder")
	}
}

func TestLoadHeaderRejectsTruncatedFile(t *testing.T) {
	_, path := buildAndSeal(t, 1, map[uint64]string{1: "x"})

	// Truncate below the fixed header size.
	if err := os.Truncate(path, 10); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadHeader(path); err == nil {
		t.Fatal("expected corrupt-file error for truncated header")
	}
}

func TestWouldExceedTracksBudget(t *testing.T) {
	b := NewBuilder(1)
	if b.WouldExceed(0) {
		t.Fatal("empty builder should not exceed budget for a zero-length value")
	}
	big := make([]byte, MaxSize)
	if !b.WouldExceed(len(big)) {
		t.Fatal("expected a value this large to exceed the budget")
	}
}
