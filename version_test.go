/*
 * Copyright 2021-2022 by Nedim Sabic Sabic
 * https://www.fibratus.io
 * All Rights Reserved.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package pe

import (
	"io/ioutil"
	"os"
	"testing"
)

// copyForWrite copies a test fixture to a temp file so write tests never
// mutate the checked-in sample binaries.
func copyForWrite(t *testing.T, src string) string {
	t.Helper()
	data, err := ioutil.ReadFile(src)
	if err != nil {
		t.Fatalf("ReadFile(%s) failed, reason: %v", src, err)
	}
	tmp, err := ioutil.TempFile("", "pe-version-*.exe")
	if err != nil {
		t.Fatalf("TempFile failed, reason: %v", err)
	}
	defer tmp.Close()
	if _, err := tmp.Write(data); err != nil {
		t.Fatalf("Write failed, reason: %v", err)
	}
	name := tmp.Name()
	t.Cleanup(func() { os.Remove(name) })
	return name
}

var peVersionResourceTests = []struct {
	in               string
	out              error
	versionResources map[string]string
}{
	{
		getAbsoluteFilePath("test/putty.exe"),
		nil,
		map[string]string{"CompanyName": "Simon Tatham", "FileDescription": "SSH, Telnet and Rlogin client", "FileVersion": "Release 0.73 (with embedded help)", "InternalName": "PuTTY", "OriginalFilename": "PuTTY", "ProductName": "PuTTY suite", "ProductVersion": "Release 0.73"},
	},
	{
		getAbsoluteFilePath("test/brave.exe"),
		nil,
		map[string]string{"CompanyName": "Brave Software, Inc.", "FileDescription": "Brave Browser", "FileVersion": "80.1.7.92", "InternalName": "chrome_exe"},
	},
	{
		getAbsoluteFilePath("test/impbyord.exe"),
		nil,
		map[string]string{},
	},
	{
		getAbsoluteFilePath("test/WdBoot.sys"),
		nil,
		map[string]string{"CompanyName": "Microsoft Corporation", "FileDescription": "Microsoft antimalware boot driver", "FileVersion": "4.18.1906.3 (GitEnlistment(winpbld).190621-1227)", "InternalName": "WdBoot"},
	},
	{
		getAbsoluteFilePath("test/shimeng.dll"),
		nil,
		map[string]string{"CompanyName": "Microsoft Corporation", "FileDescription": "Shim Engine DLL", "FileVersion": "10.0.17763.1 (WinBuild.160101.0800)", "OriginalFilename": "Shim Engine DLL (IAT)", "LegalCopyright": "© Microsoft Corporation. All rights reserved.", "InternalName": "Shim Engine DLL (IAT)", "ProductName": "Microsoft® Windows® Operating System", "ProductVersion": "10.0.17763.1"},
	},
}

func TestParseVersionResources(t *testing.T) {
	for _, tt := range peVersionResourceTests {
		t.Run(tt.in, func(t *testing.T) {
			file, err := New(tt.in, &Options{})
			if err != nil {
				t.Fatalf("New(%s) failed, reason: %v", tt.in, err)
			}

			got := file.Parse()
			if got != nil {
				t.Errorf("Parse(%s) got %v, want %v", tt.in, got, tt.out)
			}
			vers, err := file.ParseVersionResources()
			if err != nil {
				t.Fatalf("ParseVersionResurces(%s) failed, reason: %v", tt.in, err)
			}
			for k, v := range tt.versionResources {
				val, ok := vers[k]
				if !ok {
					t.Errorf("%s: should have %s version resource", tt.in, k)
				}
				if val != v {
					t.Errorf("%s: expected: %s version resource got: %s. Available resources: %v", tt.in, v, val, vers)
				}
			}
		})
	}
}

func TestSetVersionStringInPlace(t *testing.T) {
	path := copyForWrite(t, getAbsoluteFilePath("test/putty.exe"))

	file, err := NewForWrite(path, &Options{})
	if err != nil {
		t.Fatalf("NewForWrite(%s) failed, reason: %v", path, err)
	}
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse(%s) failed, reason: %v", path, err)
	}
	if _, err := file.ParseVersionResources(); err != nil {
		t.Fatalf("ParseVersionResources(%s) failed, reason: %v", path, err)
	}

	// ProductVersion's existing slot is "Release 0.73\x00" (13 UTF-16 units
	// including the terminator); a shorter replacement always fits.
	if err := file.SetVersionString(ModifiableProductVersionString, "X"); err != nil {
		t.Fatalf("SetVersionString failed, reason: %v", err)
	}
	file.Close()

	reopened, err := New(path, &Options{})
	if err != nil {
		t.Fatalf("New(%s) failed, reason: %v", path, err)
	}
	if err := reopened.Parse(); err != nil {
		t.Fatalf("Parse(%s) failed, reason: %v", path, err)
	}
	vers, err := reopened.ParseVersionResources()
	if err != nil {
		t.Fatalf("ParseVersionResources(%s) failed, reason: %v", path, err)
	}
	if vers["ProductVersion"] != "X" {
		t.Errorf("ProductVersion = %q, want %q", vers["ProductVersion"], "X")
	}
}

func TestSetVersionStringTooLarge(t *testing.T) {
	path := copyForWrite(t, getAbsoluteFilePath("test/putty.exe"))

	file, err := NewForWrite(path, &Options{})
	if err != nil {
		t.Fatalf("NewForWrite(%s) failed, reason: %v", path, err)
	}
	defer file.Close()
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse(%s) failed, reason: %v", path, err)
	}
	if _, err := file.ParseVersionResources(); err != nil {
		t.Fatalf("ParseVersionResources(%s) failed, reason: %v", path, err)
	}

	huge := make([]byte, 4096)
	for i := range huge {
		huge[i] = 'A'
	}
	err = file.SetVersionString(ModifiableProductVersionString, string(huge))
	if err != ErrValueTooLarge {
		t.Errorf("SetVersionString with an oversized value = %v, want %v", err, ErrValueTooLarge)
	}
}

func TestEraseSignatureDirectory(t *testing.T) {
	path := copyForWrite(t, getAbsoluteFilePath("test/putty.exe"))

	file, err := NewForWrite(path, &Options{})
	if err != nil {
		t.Fatalf("NewForWrite(%s) failed, reason: %v", path, err)
	}
	defer file.Close()
	if err := file.Parse(); err != nil {
		t.Fatalf("Parse(%s) failed, reason: %v", path, err)
	}

	if err := file.EraseSignatureDirectory(); err != nil {
		t.Fatalf("EraseSignatureDirectory failed, reason: %v", err)
	}
	if file.IsSigned {
		t.Errorf("IsSigned = true after EraseSignatureDirectory")
	}
}

type fakeResourceUpdater struct {
	path string
	data []byte
}

func (u *fakeResourceUpdater) UpdateResource(path string, data []byte) (uint32, error) {
	u.path = path
	u.data = data
	return uint32(len(data)), nil
}

func TestRebuildVersionInfo(t *testing.T) {
	fixed := VsFixedFileInfo{
		FileVersionMS:    0x00010002,
		FileVersionLS:    0x00030004,
		ProductVersionMS: 0x00010002,
		ProductVersionLS: 0x00030004,
	}
	strs := map[string]string{
		"FileVersion":    "1.2.3.4",
		"ProductVersion": "1.2.3.4",
		"CompanyName":    "Example Corp",
	}

	updater := &fakeResourceUpdater{}
	file := &File{}
	if err := file.RebuildVersionInfo("16/1/1033", fixed, strs, "040904b0", updater); err != nil {
		t.Fatalf("RebuildVersionInfo failed, reason: %v", err)
	}
	if updater.path != "16/1/1033" {
		t.Errorf("updater received path %q, want %q", updater.path, "16/1/1033")
	}
	if len(updater.data) == 0 {
		t.Errorf("updater received empty data")
	}
}

func TestRebuildVersionInfoRequiresUpdater(t *testing.T) {
	file := &File{}
	err := file.RebuildVersionInfo("16/1/1033", VsFixedFileInfo{}, nil, "040904b0", nil)
	if err != ErrNoResourceUpdater {
		t.Errorf("RebuildVersionInfo with nil updater = %v, want %v", err, ErrNoResourceUpdater)
	}
}
