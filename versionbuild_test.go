// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"encoding/binary"
	"testing"
)

func TestSerializeVersionInfoLayout(t *testing.T) {
	fixed := VsFixedFileInfo{
		Signature:        0xFEEF04BD,
		FileVersionMS:    0x00010000,
		FileVersionLS:    0x00000001,
		ProductVersionMS: 0x00010000,
		ProductVersionLS: 0x00000001,
	}
	strs := map[string]string{
		"FileVersion": "1.0.0.1",
		"ProductName": "sample",
	}

	data, err := serializeVersionInfo(fixed, strs, "040904b0")
	if err != nil {
		t.Fatalf("serializeVersionInfo failed, reason: %v", err)
	}

	if len(data) < 2 || len(data)%4 != 0 {
		t.Fatalf("serialized block length %d is not DWORD-aligned", len(data))
	}

	length := binary.LittleEndian.Uint16(data[0:2])
	if int(length) != len(data) {
		t.Errorf("root Length field = %d, want %d", length, len(data))
	}

	valueLength := binary.LittleEndian.Uint16(data[2:4])
	wantFixedBytes := uint16(binary.Size(fixed))
	if valueLength != wantFixedBytes {
		t.Errorf("root ValueLength field = %d, want %d", valueLength, wantFixedBytes)
	}
}

func TestSerializeVersionInfoEmptyStrings(t *testing.T) {
	data, err := serializeVersionInfo(VsFixedFileInfo{}, map[string]string{}, "040904b0")
	if err != nil {
		t.Fatalf("serializeVersionInfo failed, reason: %v", err)
	}
	if len(data) == 0 {
		t.Errorf("serializeVersionInfo with no strings produced an empty block")
	}
}
