// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pdb <file>",
		Short: "Print the CodeView/RSDS PDB path and GUID, if present",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openAndParse(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if f.PDBPath == "" {
				fmt.Println("no PDB debug entry found")
				return nil
			}
			fmt.Printf("path: %s\n", f.PDBPath)
			fmt.Printf("guid: %s\n", f.PDBGUID)
			return nil
		},
	}
}
