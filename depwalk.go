package pe

import (
	"path/filepath"
	"strings"
)

// DepNode is one DLL in a dependency tree: the importing binary, or a
// DLL it imports (directly or via delay-load). The three flags below
// are independent of one another, matching check-dependencies' printed
// line format "[X][D][M] <name> -> <path>": Resolved and
// ManifestSatisfied are not mutually exclusive alternatives to an
// "unresolved" state, they are what makes a node NOT unresolved.
type DepNode struct {
	Name string
	Path string

	// Delayed reports whether this DLL was reached through a delay-load
	// import descriptor rather than the regular import table.
	Delayed bool

	// Resolved reports whether the DLL was found on disk (in the
	// importing file's own directory or a search directory) and its own
	// imports were recursed into.
	Resolved bool

	// ManifestSatisfied reports whether a DLL not found on disk was
	// reported present by a caller-supplied manifest resolver (SxS/
	// WinSxS activation-context lookups, delegated entirely to the
	// caller; see DepWalk).
	ManifestSatisfied bool

	Children []*DepNode
}

// Unresolved reports whether this node could not be satisfied by either
// a file on disk or the manifest resolver.
func (n *DepNode) Unresolved() bool {
	return !n.Resolved && !n.ManifestSatisfied
}

// DepWalk recursively resolves a PE file's imports against its own
// directory and a caller-supplied search path, the way a loader would
// walk an import table to completion. resolveManifest, when non-nil, is
// consulted for any DLL name not found on disk; returning true marks
// that DLL ManifestSatisfied instead of unresolved (spec.md explicitly
// excludes activation-context/SxS loading — resolution is delegated to
// the caller, never implemented here).
func DepWalk(path string, searchDirs []string, resolveManifest func(name string) bool) (*DepNode, error) {
	visited := make(map[string]bool)
	return walkDepFile(path, filepath.Base(path), false, searchDirs, resolveManifest, visited)
}

func walkDepFile(path, name string, delayed bool, searchDirs []string,
	resolveManifest func(string) bool, visited map[string]bool) (*DepNode, error) {

	node := &DepNode{Name: name, Path: path, Delayed: delayed}

	lower := strings.ToLower(name)
	if visited[lower] {
		node.Resolved = true
		return node, nil
	}
	visited[lower] = true

	f, err := New(path, &Options{Fast: false})
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := f.Parse(); err != nil {
		return nil, err
	}
	node.Resolved = true

	for _, imp := range f.Imports {
		child, err := resolveDep(imp.Name, false, filepath.Dir(path), searchDirs, resolveManifest, visited)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
	for _, imp := range f.DelayImports {
		child, err := resolveDep(imp.Name, true, filepath.Dir(path), searchDirs, resolveManifest, visited)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	return node, nil
}

func resolveDep(name string, delayed bool, sameDir string, searchDirs []string,
	resolveManifest func(string) bool, visited map[string]bool) (*DepNode, error) {

	candidates := append([]string{sameDir}, searchDirs...)
	for _, dir := range candidates {
		full := filepath.Join(dir, name)
		if fileExists(full) {
			return walkDepFile(full, name, delayed, searchDirs, resolveManifest, visited)
		}
	}

	node := &DepNode{Name: name, Delayed: delayed}
	if resolveManifest != nil && resolveManifest(name) {
		node.ManifestSatisfied = true
	}
	return node, nil
}
