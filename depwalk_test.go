// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestDepNodeUnresolved(t *testing.T) {
	tests := []struct {
		node *DepNode
		want bool
	}{
		{&DepNode{Resolved: true}, false},
		{&DepNode{ManifestSatisfied: true}, false},
		{&DepNode{Resolved: true, ManifestSatisfied: true}, false},
		{&DepNode{}, true},
	}
	for _, tt := range tests {
		if got := tt.node.Unresolved(); got != tt.want {
			t.Errorf("Unresolved() = %v, want %v", got, tt.want)
		}
	}
}

func TestDepWalk(t *testing.T) {
	path := getAbsoluteFilePath("test/putty")

	root, err := DepWalk(path, nil, nil)
	if err != nil {
		t.Fatalf("DepWalk(%s) failed, reason: %v", path, err)
	}

	if !root.Resolved {
		t.Errorf("root.Resolved = false, want true")
	}
	if root.Path != path {
		t.Errorf("root path = %q, want %q", root.Path, path)
	}

	// None of putty's system dependencies live alongside the test
	// fixture, so every child must come back unresolved rather than
	// causing DepWalk itself to fail.
	for _, child := range root.Children {
		if child.Name == "" {
			t.Errorf("child has empty name")
		}
	}
}

func TestDepWalkResolvesManifest(t *testing.T) {
	path := getAbsoluteFilePath("test/putty")

	resolveManifest := func(name string) bool { return true }
	root, err := DepWalk(path, nil, resolveManifest)
	if err != nil {
		t.Fatalf("DepWalk(%s) failed, reason: %v", path, err)
	}

	for _, child := range root.Children {
		if child.Unresolved() {
			t.Errorf("child %s left unresolved despite resolveManifest always returning true", child.Name)
		}
		if !child.Resolved && !child.ManifestSatisfied {
			t.Errorf("child %s: expected ManifestSatisfied since it was not found on disk", child.Name)
		}
	}
}
