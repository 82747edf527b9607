package sst

import (
	"bytes"
	"testing"
)

func TestFilterNoFalseNegatives(t *testing.T) {
	f := NewFilter()
	keys := []uint64{0, 1, 2, 1000, 1 << 40, ^uint64(0)}
	for _, k := range keys {
		f.Add(k)
	}
	for _, k := range keys {
		if !f.MayContain(k) {
			t.Fatalf("false negative for key %d", k)
		}
	}
}

func TestFilterSerializationRoundTrip(t *testing.T) {
	f := NewFilter()
	for _, k := range []uint64{3, 9, 27, 81} {
		f.Add(k)
	}

	var buf bytes.Buffer
	n, err := f.WriteTo(&buf)
	if err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}
	if n != FilterBytes {
		t.Fatalf("expected %d bytes written, got %d", FilterBytes, n)
	}

	reloaded, err := ReadFilter(&buf)
	if err != nil {
		t.Fatalf("ReadFilter failed: %v", err)
	}
	for _, k := range []uint64{3, 9, 27, 81} {
		if !reloaded.MayContain(k) {
			t.Fatalf("reloaded filter lost key %d", k)
		}
	}
}

func TestFilterProbablyRejectsUnrelatedKeys(t *testing.T) {
	f := NewFilter()
	f.Add(42)

	rejected := 0
	for k := uint64(1000); k < 1200; k++ {
		if !f.MayContain(k) {
			rejected++
		}
	}
	if rejected == 0 {
		t.Fatal("expected at least some unrelated keys to be rejected by a near-empty filter")
	}
}
