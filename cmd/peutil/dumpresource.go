// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io/ioutil"

	"github.com/spf13/cobra"
)

// errResourceNotFound matches spec.md §8 scenario 5's exact wording for
// an unknown resource path: exit 1 with "Resource not found.".
var errResourceNotFound = errors.New("Resource not found.")

func newDumpResourceCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "dump-resource <file> <resource-path>",
		Short: "Write a resource's raw bytes to stdout or --out, addressed by a slash-separated path such as 16/1/1033",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := openAndParse(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			entry, ok := f.AtPath(args[1])
			if !ok || entry.IsResourceDir {
				return errResourceNotFound
			}

			offset := f.GetOffsetFromRva(entry.Data.Struct.OffsetToData)
			size := entry.Data.Struct.Size
			data, err := f.ReadBytesAtOffset(offset, size)
			if err != nil {
				return err
			}

			if out == "" {
				fmt.Print(string(data))
				return nil
			}
			return ioutil.WriteFile(out, data, 0644)
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "write to this path instead of stdout")
	return cmd
}
