// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	peutil "github.com/peutil/peutil"
)

func newVersionInfoCmd() *cobra.Command {
	var compareTo string

	cmd := &cobra.Command{
		Use:   "version-info <file>",
		Short: "Print VS_VERSIONINFO string-table values, optionally comparing FileVersion against another file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openAndParse(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			vers, err := f.ParseVersionResources()
			if err != nil {
				// A valid PE with no (or malformed) VS_VERSIONINFO is not a
				// failure of this action: exit code depends only on whether
				// the file itself parsed as a valid PE.
				fmt.Printf("no VS_VERSIONINFO resource found: %v\n", err)
				return nil
			}

			keys := make([]string, 0, len(vers))
			for k := range vers {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				fmt.Printf("%s: %s\n", k, vers[k])
			}

			if compareTo == "" {
				return nil
			}

			other, err := openAndParse(compareTo)
			if err != nil {
				return err
			}
			defer other.Close()

			otherVers, err := other.ParseVersionResources()
			if err != nil {
				fmt.Printf("comparison file has no VS_VERSIONINFO resource: %v\n", err)
				return nil
			}

			cmp := peutil.Compare(vers["FileVersion"], otherVers["FileVersion"])
			switch {
			case cmp < 0:
				fmt.Println("relation: older")
			case cmp > 0:
				fmt.Println("relation: newer")
			default:
				fmt.Println("relation: equal")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&compareTo, "compare-to", "", "compare this file's FileVersion against another file's")
	return cmd
}
