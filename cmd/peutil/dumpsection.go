// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"
)

func newDumpSectionCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dump-section <file> <section-name>",
		Short: "Write a section's raw bytes to stdout or --out",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openAndParse(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			name := args[1]
			for _, sec := range f.Sections {
				if sec.String() != name {
					continue
				}
				data := sec.Data(0, 0, f)
				if out == "" {
					fmt.Print(string(data))
					return nil
				}
				return ioutil.WriteFile(out, data, 0644)
			}
			return conditionNotMet{fmt.Sprintf("no section named %q", name)}
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write to this path instead of stdout")
	return cmd
}
