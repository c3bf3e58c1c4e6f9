// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import "testing"

func TestParseVersionString(t *testing.T) {
	tests := []struct {
		in    string
		valid bool
		parts [4]uint32
	}{
		{"1.2.3.4", true, [4]uint32{1, 2, 3, 4}},
		{"10.0.19041.1", true, [4]uint32{10, 0, 19041, 1}},
		{"1.2.3", false, [4]uint32{}},
		{"not-a-version", false, [4]uint32{}},
		{"", false, [4]uint32{}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v := ParseVersionString(tt.in)
			if v.Valid != tt.valid {
				t.Fatalf("ParseVersionString(%q).Valid = %v, want %v", tt.in, v.Valid, tt.valid)
			}
			if tt.valid && v.Components != tt.parts {
				t.Errorf("ParseVersionString(%q).Components = %v, want %v", tt.in, v.Components, tt.parts)
			}
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0.0", "1.0.0.0", 0},
		{"1.0.0.1", "1.0.0.0", 1},
		{"1.0.0.0", "1.0.0.1", -1},
		{"2.0.0.0", "1.9.9.9", 1},
		{"1.0.0.0", "garbage", 1},
		{"garbage", "1.0.0.0", -1},
		{"abc", "abd", -1},
	}

	for _, tt := range tests {
		got := Compare(tt.a, tt.b)
		normalized := 0
		switch {
		case got < 0:
			normalized = -1
		case got > 0:
			normalized = 1
		}
		if normalized != tt.want {
			t.Errorf("Compare(%q, %q) = %d, want sign %d", tt.a, tt.b, got, tt.want)
		}
	}
}
