// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSignatureCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "signature <file>...",
		Short: "Report whether each given file carries an Authenticode signature",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Exit 0 only if every file is signed: a mixed or all-unsigned
			// batch is a condition, not a success.
			allSigned := true
			for _, path := range args {
				f, err := openAndParse(path)
				if err != nil {
					return err
				}
				fmt.Printf("%s: signed=%v\n", path, f.IsSigned)
				if !f.IsSigned {
					allSigned = false
				}
				f.Close()
			}
			if !allSigned {
				return conditionNotMet{"not every file is signed"}
			}
			return nil
		},
	}
}
