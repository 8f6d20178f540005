package main

import (
	"path/filepath"
	"sort"

	"github.com/disiqueira/gotree/v3"

	"mediasort/internal/organizer"
)

type destinationTree struct {
	tree gotree.Tree
	dirs map[string]gotree.Tree
}

func newDestinationTree(rootLabel string) destinationTree {
	return destinationTree{tree: gotree.New(rootLabel), dirs: make(map[string]gotree.Tree)}
}

func (t destinationTree) dir(dirPath string) gotree.Tree {
	if dirPath == "." || dirPath == "" {
		return t.tree
	}
	if dir, ok := t.dirs[dirPath]; ok {
		return dir
	}
	parent := t.dir(filepath.Dir(dirPath))
	dir := parent.Add(filepath.Base(dirPath))
	t.dirs[dirPath] = dir
	return dir
}

func (t destinationTree) insert(relPath, marker string) {
	t.dir(filepath.Dir(relPath)).Add(marker + filepath.Base(relPath))
}

func (t destinationTree) render() string {
	return t.tree.Print()
}

// renderDestinationTree draws the YYYY/MM layout of every placed, planned,
// or skipped destination below root.
func renderDestinationTree(root string, results []organizer.Result) string {
	type entry struct {
		rel    string
		marker string
	}
	entries := make([]entry, 0, len(results))
	for _, r := range results {
		if r.Failed() || r.Destination == "" {
			continue
		}
		rel, err := filepath.Rel(root, r.Destination)
		if err != nil {
			rel = r.Destination
		}
		marker := ""
		switch {
		case r.Action == organizer.ActionDry:
			marker = "(dry) "
		case r.Action == organizer.ActionSkip:
			marker = "(exists) "
		case r.Decision == organizer.DecisionRenameConflict:
			marker = "(renamed) "
		}
		entries = append(entries, entry{rel: rel, marker: marker})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].rel < entries[j].rel })

	t := newDestinationTree(root)
	for _, e := range entries {
		t.insert(e.rel, e.marker)
	}
	return t.render()
}
