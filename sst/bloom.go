package sst

import (
	"encoding/binary"
	"io"

	"github.com/bits-and-blooms/bitset"
	"github.com/spaolacci/murmur3"
)

// FilterBits is the fixed size of the bloom filter region of an SST,
// matching the 10240-byte budget reserved for it in the file layout.
const FilterBits = 81920

// FilterBytes is FilterBits serialized as a raw bit array.
const FilterBytes = FilterBits / 8

const filterWords = FilterBits / 64

// filterSeed is the fixed MurmurHash3 seed used for every bloom insert.
const filterSeed = 1

// Filter is the per-SST membership filter. Every key gets four bits set,
// one per 32-bit word of a MurmurHash3 128-bit hash, each taken modulo
// the filter's bit width.
type Filter struct {
	bits *bitset.BitSet
}

// NewFilter returns an empty, correctly sized filter.
func NewFilter() *Filter {
	return &Filter{bits: bitset.New(FilterBits)}
}

func hashWords(key uint64) [4]uint32 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], key)
	h1, h2 := murmur3.Sum128WithSeed(buf[:], filterSeed)
	return [4]uint32{
		uint32(h1),
		uint32(h1 >> 32),
		uint32(h2),
		uint32(h2 >> 32),
	}
}

// Add records key's presence.
func (f *Filter) Add(key uint64) {
	for _, w := range hashWords(key) {
		f.bits.Set(uint(w % FilterBits))
	}
}

// MayContain reports whether key could be present. A false return is
// definitive; a true return requires confirmation against the key index.
func (f *Filter) MayContain(key uint64) bool {
	for _, w := range hashWords(key) {
		if !f.bits.Test(uint(w % FilterBits)) {
			return false
		}
	}
	return true
}

// WriteTo serializes the filter as exactly FilterBytes bytes.
func (f *Filter) WriteTo(w io.Writer) (int64, error) {
	words := f.bits.Bytes()
	buf := make([]byte, FilterBytes)
	for i := 0; i < filterWords && i < len(words); i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], words[i])
	}
	n, err := w.Write(buf)
	return int64(n), err
}

// ReadFilter reads back a filter serialized by WriteTo.
func ReadFilter(r io.Reader) (*Filter, error) {
	buf := make([]byte, FilterBytes)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	words := make([]uint64, filterWords)
	for i := range words {
		words[i] = binary.LittleEndian.Uint64(buf[i*8:])
	}
	return &Filter{bits: bitset.From(words)}, nil
}
