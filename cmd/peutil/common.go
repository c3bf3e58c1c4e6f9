// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"encoding/json"

	peutil "github.com/peutil/peutil"
)

func prettyPrint(v interface{}) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return err.Error()
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return string(raw)
	}
	return buf.String()
}

// openAndParse opens path read-only and fully parses it, the shared
// first step for every read-only action.
func openAndParse(path string) (*peutil.File, error) {
	f, err := peutil.New(path, &peutil.Options{})
	if err != nil {
		return nil, err
	}
	if err := f.Parse(); err != nil {
		f.Close()
		return nil, err
	}
	return f, nil
}
