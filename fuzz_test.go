// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func FuzzParse(f *testing.F) {
	f.Add([]byte("MZ"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		pf, err := NewBytes(data, &Options{Fast: false, SectionEntropy: true})
		if err != nil {
			return
		}
		defer pf.Close()
		// Parse must never panic on arbitrary bytes, whatever error it
		// reports.
		_ = pf.Parse()
	})
}
