// Package sstdir allocates and enumerates the on-disk filenames for a
// single level's SSTs. Each level lives in its own subdirectory; this
// package never opens or interprets the files it names, it only tracks
// which sequence numbers are taken and hands out the next one.
package sstdir

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
)

const fileExt = ".sst"

var sstFileNamePattern = regexp.MustCompile(`^(\d+)\.sst$`)

type sstEntry struct {
	seq  int
	name string
}

type sstEntries []sstEntry

func (a sstEntries) Len() int           { return len(a) }
func (a sstEntries) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a sstEntries) Less(i, j int) bool { return a[i].seq < a[j].seq }

// Dir tracks the SST sequence numbers in use under a single level
// directory and allocates the next free one.
type Dir struct {
	path   string
	nextID int
}

func isDirectoryValid(path string) error {
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("sstdir: path exists but is not a directory: %s", path)
	}
	return err
}

// Open scans path for existing *.sst files and resumes numbering after
// the highest sequence number found. path is created if absent.
func Open(path string) (*Dir, error) {
	if err := isDirectoryValid(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if err := os.MkdirAll(path, 0o755); err != nil {
				return nil, err
			}
			return &Dir{path: path, nextID: 1}, nil
		}
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}

	var found sstEntries
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		matches := sstFileNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		seq, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		found = append(found, sstEntry{seq: seq, name: entry.Name()})
	}

	if len(found) == 0 {
		return &Dir{path: path, nextID: 1}, nil
	}

	sort.Sort(found)
	return &Dir{path: path, nextID: found[len(found)-1].seq + 1}, nil
}

func (d *Dir) seqToPath(seq int) string {
	return filepath.Join(d.path, fmt.Sprintf("%08d%s", seq, fileExt))
}

// Alloc reserves and returns the path for the next SST in this level.
// It does not create the file; the caller seals a Builder onto it.
func (d *Dir) Alloc() string {
	path := d.seqToPath(d.nextID)
	d.nextID++
	return path
}

// Existing returns the paths of every *.sst file currently in the
// directory, in ascending sequence order.
func (d *Dir) Existing() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return nil, err
	}

	var found sstEntries
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if filepath.Ext(entry.Name()) != fileExt {
			continue
		}
		matches := sstFileNamePattern.FindStringSubmatch(entry.Name())
		if len(matches) != 2 {
			continue
		}
		seq, err := strconv.Atoi(matches[1])
		if err != nil {
			continue
		}
		found = append(found, sstEntry{seq: seq, name: entry.Name()})
	}

	sort.Sort(found)
	paths := make([]string, len(found))
	for i, e := range found {
		paths[i] = filepath.Join(d.path, e.name)
	}
	return paths, nil
}

// Remove unlinks the SST at path.
func (d *Dir) Remove(path string) error {
	return os.Remove(path)
}

// Path returns the directory this Dir manages.
func (d *Dir) Path() string { return d.path }
