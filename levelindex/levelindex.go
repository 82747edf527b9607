// Package levelindex keeps the resident per-level cache of SST headers:
// which SSTs exist at each level, their metadata, and the on-disk
// directories that back them. It does not itself
// decide what to compact or how to read a value; callers use it to
// find candidate headers and to register or remove SSTs as flush and
// compaction change the on-disk state.
package levelindex

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/kndrad/lsmkv/sst"
	"github.com/kndrad/lsmkv/sstdir"
)

// MaxLevels bounds the number of levels the index will ever track.
const MaxLevels = 15

func levelDirName(level int) string {
	return fmt.Sprintf("level-%d", level)
}

// Bound returns the maximum number of SSTs level may hold before it
// must be compacted: 2 at level 0, 4 at level 1, 8 at level 2, ...
func Bound(level int) int {
	return 1 << uint(level+1)
}

// Index is the per-level header cache plus the directory allocators
// that back each level on disk.
type Index struct {
	root       string
	levels     [MaxLevels][]*sst.Header
	dirs       [MaxLevels]*sstdir.Dir
	totalLevel int
	nextTs     uint64
}

// Open loads every existing level-L directory under root into the
// cache and recovers totalLevel and the next timestamp to assign.
func Open(root string) (*Index, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}

	idx := &Index{root: root, totalLevel: -1, nextTs: 1}

	for level := 0; level < MaxLevels; level++ {
		path := filepath.Join(root, levelDirName(level))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}

		dir, err := sstdir.Open(path)
		if err != nil {
			return nil, fmt.Errorf("levelindex: failed to open %s: %w", path, err)
		}
		idx.dirs[level] = dir

		paths, err := dir.Existing()
		if err != nil {
			return nil, err
		}

		for _, p := range paths {
			h, err := sst.LoadHeader(p)
			if err != nil {
				return nil, fmt.Errorf("levelindex: failed to load header %s: %w", p, err)
			}
			idx.levels[level] = append(idx.levels[level], h)
			if h.Timestamp+1 > idx.nextTs {
				idx.nextTs = h.Timestamp + 1
			}
		}

		idx.sortLevel(level)
		idx.totalLevel = level
	}

	return idx, nil
}

func (idx *Index) sortLevel(level int) {
	hs := idx.levels[level]
	sort.Slice(hs, func(i, j int) bool { return hs[i].MinKey < hs[j].MinKey })
}

// NextTimestamp returns a fresh, strictly increasing timestamp and
// advances the counter.
func (idx *Index) NextTimestamp() uint64 {
	ts := idx.nextTs
	idx.nextTs++
	return ts
}

// TotalLevel returns the highest level currently materialized on disk,
// or -1 if no level exists yet.
func (idx *Index) TotalLevel() int { return idx.totalLevel }

// Headers returns the cached headers at level, in ascending minKey
// order for level >= 1; level 0 has no ordering guarantee.
func (idx *Index) Headers(level int) []*sst.Header {
	return idx.levels[level]
}

// Len reports how many SSTs are cached at level.
func (idx *Index) Len(level int) int { return len(idx.levels[level]) }

// EnsureLevel creates level's directory on demand (if absent) and
// bumps totalLevel when level extends the tree. Returns the level's
// directory allocator.
func (idx *Index) EnsureLevel(level int) (*sstdir.Dir, error) {
	if idx.dirs[level] != nil {
		if level > idx.totalLevel {
			idx.totalLevel = level
		}
		return idx.dirs[level], nil
	}

	dir, err := sstdir.Open(filepath.Join(idx.root, levelDirName(level)))
	if err != nil {
		return nil, err
	}
	idx.dirs[level] = dir
	if level > idx.totalLevel {
		idx.totalLevel = level
	}
	return dir, nil
}

// Add registers a newly sealed SST's header at level, keeping the
// cache sorted.
func (idx *Index) Add(level int, h *sst.Header) {
	idx.levels[level] = append(idx.levels[level], h)
	idx.sortLevel(level)
}

// Remove unlinks the SST at path from disk and drops it from level's
// cache. If no cached header at level has that path, the cache is left
// unchanged but the file is still unlinked; a missing file is not an
// error.
func (idx *Index) Remove(level int, path string) error {
	hs := idx.levels[level]
	for i, h := range hs {
		if h.Path == path {
			idx.levels[level] = append(hs[:i], hs[i+1:]...)
			break
		}
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Reset unlinks every level directory and clears all in-memory state.
// After Reset, Open on the same root would observe an empty tree.
func (idx *Index) Reset() error {
	for level := 0; level <= idx.totalLevel && level < MaxLevels; level++ {
		if idx.dirs[level] == nil {
			continue
		}
		if err := os.RemoveAll(filepath.Join(idx.root, levelDirName(level))); err != nil {
			return err
		}
		idx.dirs[level] = nil
		idx.levels[level] = nil
	}
	idx.totalLevel = -1
	idx.nextTs = 1
	return nil
}

// CandidatesForKey returns the headers at level whose [minKey,maxKey]
// range could contain key.
func CandidatesForKey(headers []*sst.Header, key uint64) []*sst.Header {
	var out []*sst.Header
	for _, h := range headers {
		if key >= h.MinKey && key <= h.MaxKey {
			out = append(out, h)
		}
	}
	return out
}

// CandidatesForRange returns the headers at level whose range overlaps
// [k1,k2].
func CandidatesForRange(headers []*sst.Header, k1, k2 uint64) []*sst.Header {
	var out []*sst.Header
	for _, h := range headers {
		if h.MinKey <= k2 && h.MaxKey >= k1 {
			out = append(out, h)
		}
	}
	return out
}
