// Package sst implements the on-disk sorted-string-table format and the
// in-memory header a level's cache keeps resident for it.
//
//	File layout (bytes)
//
//	   1 │+------------------------------------------------------------------+
//	   2 │| HEADER (32 bytes)                                                |
//	   3 │|   timestamp (8) | count (8) | minKey (8) | maxKey (8)             |
//	   4 │+------------------------------------------------------------------+
//	   5 │| BLOOM FILTER (10240 bytes = 81920 bits)                          |
//	   6 │|   one bit set per MurmurHash3 word, four words per key           |
//	   7 │+------------------------------------------------------------------+
//	   8 │| KEY INDEX (12 * count bytes)                                     |
//	   9 │|   count records, ascending by key: key (8) | offset (4)          |
//	  10 │+------------------------------------------------------------------+
//	  11 │| VALUE PAYLOAD                                                    |
//	  12 │|   raw value bytes, concatenated in key order                     |
//	  13 │|   value i starts at payload base + offset[i]                     |
//	  14 │+------------------------------------------------------------------+
//
// A sealed file never exceeds MaxSize (2 MiB) including the header. There
// is no footer and no per-block CRC: the whole file is written once by
// Builder.Seal and never mutated again, so there is nothing to recover a
// torn write from; a file cut short before the start of its last value
// is rejected by LoadHeader as corrupt. A cut inside the last value is
// not detected, since that value's length is taken from the file size.
package sst
