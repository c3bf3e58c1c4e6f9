// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "imports <file>",
		Short: "List imported and delay-imported DLLs and functions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openAndParse(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			for _, imp := range f.Imports {
				fmt.Printf("%s\n", imp.Name)
				for _, fn := range imp.Functions {
					fmt.Printf("  %s\n", fn.Name)
				}
			}
			for _, imp := range f.DelayImports {
				fmt.Printf("%s (delayed)\n", imp.Name)
				for _, fn := range imp.Functions {
					fmt.Printf("  %s\n", fn.Name)
				}
			}
			return nil
		},
	}
}
