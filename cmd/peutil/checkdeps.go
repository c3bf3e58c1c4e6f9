// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	peutil "github.com/peutil/peutil"
)

func newCheckDependenciesCmd() *cobra.Command {
	var searchDirs []string

	cmd := &cobra.Command{
		Use:   "check-dependencies <file>",
		Short: "Recursively resolve a PE file's imported and delay-imported DLLs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := peutil.DepWalk(args[0], searchDirs, nil)
			if err != nil {
				return err
			}

			anyUnresolved := printDepNode(root)

			if anyUnresolved {
				return conditionNotMet{"one or more dependencies could not be resolved"}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&searchDirs, "search-dir", nil, "additional directory to search for dependencies (repeatable)")
	return cmd
}

// printDepNode prints one line per node as "[X][D][M] <name> -> <path>":
// X is '!' when the node is unresolved, D marks a delay-load import, M
// marks a DLL the manifest resolver reported as side-by-side satisfied.
// Returns whether this node or any of its children was unresolved.
func printDepNode(node *peutil.DepNode) bool {
	anyUnresolved := printOneDepLine(node)
	for _, child := range node.Children {
		if printDepNode(child) {
			anyUnresolved = true
		}
	}
	return anyUnresolved
}

func printOneDepLine(node *peutil.DepNode) bool {
	unresolvedChar := ' '
	if node.Unresolved() {
		unresolvedChar = '!'
	}
	delayedChar := ' '
	if node.Delayed {
		delayedChar = 'D'
	}
	manifestChar := ' '
	if node.ManifestSatisfied {
		manifestChar = 'M'
	}

	fmt.Printf("[%c][%c][%c] %s -> %s\n", unresolvedChar, delayedChar, manifestChar, node.Name, node.Path)
	return node.Unresolved()
}
