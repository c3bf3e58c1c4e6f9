// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Command peutil inspects, compares, and edits the version resource of
// Windows PE binaries.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes, per action: 0 success, 1 usage/parse failure (also used
// by compare and dump-resource for an unmet caller-chosen bar), 2 the
// requested condition was not met (file unsigned, a dependency
// missing) without the run itself having failed.
const (
	exitOK        = 0
	exitFailure   = 1
	exitCondition = 2
)

// conditionNotMet lets an action's RunE report a clean non-error result
// (binary unsigned, dependency unresolved, no such section) that should
// still exit nonzero without cobra printing a usage/error banner.
type conditionNotMet struct{ reason string }

func (e conditionNotMet) Error() string { return e.reason }

func main() {
	root := &cobra.Command{
		Use:           "peutil",
		Short:         "Inspect, compare, and edit Windows PE binaries",
		Long:          "peutil reads, diffs, and edits the version resource of Windows PE binaries",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInfoCmd(),
		newPDBCmd(),
		newVersionInfoCmd(),
		newImportsCmd(),
		newSignatureCmd(),
		newDumpSectionCmd(),
		newDumpResourceCmd(),
		newCompareCmd(),
		newCheckDependenciesCmd(),
	)

	if err := root.Execute(); err != nil {
		var cond conditionNotMet
		if ok := asConditionNotMet(err, &cond); ok {
			fmt.Fprintln(os.Stderr, cond.reason)
			os.Exit(exitCondition)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailure)
	}
}

func asConditionNotMet(err error, target *conditionNotMet) bool {
	if c, ok := err.(conditionNotMet); ok {
		*target = c
		return true
	}
	return false
}
