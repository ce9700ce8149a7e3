package git

import (
	"sort"
	"strings"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/filemode"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// SortTreeEntries sorts entries into canonical git tree order, where
// directory names compare as if suffixed with a slash.
func SortTreeEntries(entries []object.TreeEntry) {
	sort.Slice(entries, func(i, j int) bool {
		return treeEntryKey(entries[i]) < treeEntryKey(entries[j])
	})
}

func treeEntryKey(e object.TreeEntry) string {
	if e.Mode == filemode.Dir {
		return e.Name + "/"
	}
	return e.Name
}

// PathEntry is a leaf entry of a flattened tree
type PathEntry struct {
	Mode filemode.FileMode
	Hash plumbing.Hash
}

// FlattenTree walks a tree and returns a map of slash-separated paths to
// their blob entries. Submodule entries are carried through like blobs.
func (s *Store) FlattenTree(h plumbing.Hash) (map[string]PathEntry, error) {
	result := make(map[string]PathEntry)
	if h.IsZero() {
		return result, nil
	}
	if err := s.flattenInto(h, "", result); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) flattenInto(h plumbing.Hash, prefix string, out map[string]PathEntry) error {
	tree, err := s.Tree(h)
	if err != nil {
		return err
	}
	for _, entry := range tree.Entries {
		path := entry.Name
		if prefix != "" {
			path = prefix + "/" + entry.Name
		}
		if entry.Mode == filemode.Dir {
			if err := s.flattenInto(entry.Hash, path, out); err != nil {
				return err
			}
			continue
		}
		out[path] = PathEntry{Mode: entry.Mode, Hash: entry.Hash}
	}
	return nil
}

// BuildTree writes the nested tree objects for a flat path map and returns
// the root tree hash. An empty map produces an empty tree.
func (s *Store) BuildTree(paths map[string]PathEntry) (plumbing.Hash, error) {
	leaves := make(map[string]*PathEntry)
	subtrees := make(map[string]map[string]PathEntry)

	for path, entry := range paths {
		name, rest, nested := strings.Cut(path, "/")
		if nested {
			sub := subtrees[name]
			if sub == nil {
				sub = make(map[string]PathEntry)
				subtrees[name] = sub
			}
			sub[rest] = entry
		} else {
			e := entry
			leaves[name] = &e
		}
	}

	entries := make([]object.TreeEntry, 0, len(leaves)+len(subtrees))
	for name, entry := range leaves {
		entries = append(entries, object.TreeEntry{Name: name, Mode: entry.Mode, Hash: entry.Hash})
	}
	for name, sub := range subtrees {
		h, err := s.BuildTree(sub)
		if err != nil {
			return plumbing.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Name: name, Mode: filemode.Dir, Hash: h})
	}

	return s.WriteTree(entries)
}
