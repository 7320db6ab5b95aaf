// Package index holds the persisted snapshot of a tree: one Entry per
// tracked file, keyed by relative path, with the content digest and the
// metadata observed when the entry was recorded.
package index

import (
	"fmt"
	"sort"
)

// Entry is one tracked filesystem object.
type Entry struct {
	// Path is the slash-separated path relative to the audited root.
	Path string `json:"path"`

	// Size is the byte length at observation time.
	Size int64 `json:"size"`

	// ModTime is the modification timestamp at observation time,
	// in milliseconds since the Unix epoch.
	ModTime int64 `json:"mod_time"`

	// Digest is the lowercase hex content hash, empty until computed.
	Digest string `json:"digest,omitempty"`
}

// SameMeta reports whether size and modification time match.
func (e Entry) SameMeta(o Entry) bool {
	return e.Size == o.Size && e.ModTime == o.ModTime
}

// SameDigest reports whether the content digests match.
func (e Entry) SameDigest(o Entry) bool {
	return e.Digest == o.Digest
}

// Index is the complete prior or current state of a tree: a mapping from
// path to Entry, kept in path order for stable round-trips.
type Index struct {
	entries []Entry
	byPath  map[string]int

	// byDigest is the derived digest-to-paths grouping used for move
	// detection. It is rebuilt on demand and never persisted.
	byDigest map[string][]string
}

// New returns an empty Index.
func New() *Index {
	return &Index{byPath: make(map[string]int)}
}

// FromEntries builds an Index from entries, sorting them by path.
// Duplicate paths are an error: each path appears at most once.
func FromEntries(entries []Entry) (*Index, error) {
	idx := &Index{
		entries: make([]Entry, len(entries)),
		byPath:  make(map[string]int, len(entries)),
	}
	copy(idx.entries, entries)
	sort.Slice(idx.entries, func(i, j int) bool {
		return idx.entries[i].Path < idx.entries[j].Path
	})

	for i, e := range idx.entries {
		if _, ok := idx.byPath[e.Path]; ok {
			return nil, fmt.Errorf("duplicate index entry: %s", e.Path)
		}
		idx.byPath[e.Path] = i
	}
	return idx, nil
}

// Len returns the number of entries.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Entries returns the entries in path order. The slice is shared; callers
// must not modify it.
func (ix *Index) Entries() []Entry {
	return ix.entries
}

// Get returns the entry for path, if present.
func (ix *Index) Get(path string) (Entry, bool) {
	i, ok := ix.byPath[path]
	if !ok {
		return Entry{}, false
	}
	return ix.entries[i], true
}

// PathsByDigest returns every path whose entry carries the given digest.
// Digests are not unique: duplicate-content files are legal.
func (ix *Index) PathsByDigest(digest string) []string {
	if ix.byDigest == nil {
		ix.byDigest = make(map[string][]string)
		for _, e := range ix.entries {
			if e.Digest != "" {
				ix.byDigest[e.Digest] = append(ix.byDigest[e.Digest], e.Path)
			}
		}
	}
	return ix.byDigest[digest]
}
