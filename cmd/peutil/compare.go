// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/peutil/peutil/block"
	"github.com/peutil/peutil/compare"
)

func newCompareCmd() *cobra.Command {
	var fast, identical, noHeuristics, verbose, tlbTimestamp bool
	var r1, r2 string

	cmd := &cobra.Command{
		Use:   "compare <file-a> <file-b>",
		Short: "Classify two PE files as identical, functionally equivalent, or different",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openAndParse(args[0])
			if err != nil {
				return err
			}
			defer a.Close()

			b, err := openAndParse(args[1])
			if err != nil {
				return err
			}
			defer b.Close()

			if r1 != "" {
				extra, err := block.Parse(r1)
				if err != nil {
					return err
				}
				a.AddIgnoredRanges(extra)
			}
			if r2 != "" {
				extra, err := block.Parse(r2)
				if err != nil {
					return err
				}
				b.AddIgnoredRanges(extra)
			}

			result, err := compare.Compare(a, b, compare.Options{
				IgnoredA:          a.Ignored,
				IgnoredB:          b.Ignored,
				PDBPathA:          a.DebugPDBPath(),
				PDBPathB:          b.DebugPDBPath(),
				DisableHeuristics: noHeuristics,
				TLBTimestamp:      tlbTimestamp,
			})
			if err != nil {
				return err
			}

			switch result.Verdict {
			case compare.Identical:
				fmt.Println("Identical.")
			case compare.Equivalent:
				fmt.Println("Functionally equivalent.")
			default:
				fmt.Println("Not equivalent.")
			}

			var totalBytes uint64
			for _, d := range result.Diffs {
				totalBytes += d.Length
				if d.Resolved() {
					fmt.Printf("- %s at offset 0x%x (%d bytes)\n", d.Heuristic, d.Offset, d.Length)
				} else if verbose {
					fmt.Printf("- unresolved at offset 0x%x (%d bytes)\n", d.Offset, d.Length)
				}
			}

			if !fast {
				fmt.Printf("Difference: %.2f%% (%d bytes)\n", result.PercentDifferent, totalBytes)
			}

			// compare's failure exit code is a plain 1 (not the generic
			// "condition not met" 2 that signature/check-dependencies use):
			// requiring --identical on a merely-equivalent pair is not a
			// missing-dependency-style condition, it is "the comparison
			// did not meet the caller's stricter bar".
			ok := result.Verdict == compare.Equivalent || result.Verdict == compare.Identical
			if identical {
				ok = result.Verdict == compare.Identical
			}
			if !ok {
				return errors.New("files are not equivalent")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&fast, "fast", false, "skip the percent-difference summary line")
	cmd.Flags().BoolVar(&identical, "identical", false, "require byte-for-byte identity, not just functional equivalence")
	cmd.Flags().BoolVar(&noHeuristics, "no-heuristics", false, "do not apply compiler-artifact heuristics when resolving diffs")
	cmd.Flags().BoolVar(&verbose, "verbose", false, "also print unresolved diff runs")
	cmd.Flags().BoolVar(&tlbTimestamp, "tlb-timestamp", false, "credit diffs that match a MIDL type-library creation stamp")
	cmd.Flags().StringVar(&r1, "r1", "", "extra ignored-range list for file A, as \"{desc:offset:size|...}\"")
	cmd.Flags().StringVar(&r2, "r2", "", "extra ignored-range list for file B, as \"{desc:offset:size|...}\"")
	return cmd
}
