// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package compare

import (
	"errors"
	"testing"

	"github.com/peutil/peutil/block"
)

type bytesReader []byte

func (b bytesReader) Size() uint32 { return uint32(len(b)) }

func (b bytesReader) ReadBytesAtOffset(offset, size uint32) ([]byte, error) {
	if uint64(offset)+uint64(size) > uint64(len(b)) {
		return nil, errors.New("out of range")
	}
	return b[offset : offset+size], nil
}

func TestCompareIdentical(t *testing.T) {
	a := bytesReader([]byte("hello world"))
	b := bytesReader([]byte("hello world"))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Identical {
		t.Fatalf("expected Identical, got %v", res.Verdict)
	}
	if len(res.Diffs) != 0 {
		t.Fatalf("expected no diffs, got %d", len(res.Diffs))
	}
}

func TestCompareDifferent(t *testing.T) {
	a := bytesReader([]byte("hello world"))
	b := bytesReader([]byte("hellx worlx"))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Different {
		t.Fatalf("expected Different, got %v", res.Verdict)
	}
	if res.PercentDifferent <= 0 {
		t.Fatalf("expected nonzero percent difference, got %v", res.PercentDifferent)
	}
}

func TestCompareIgnoredRangeMakesEquivalent(t *testing.T) {
	a := bytesReader([]byte("stampAAAAdata"))
	b := bytesReader([]byte("stampBBBBdata"))

	ignored := block.List{block.New("timestamp", 5, 4)}

	res, err := Compare(a, b, Options{IgnoredA: ignored, IgnoredB: ignored})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Equivalent {
		t.Fatalf("expected Equivalent, got %v", res.Verdict)
	}
	if len(res.Diffs) != 1 || !res.Diffs[0].Resolved() {
		t.Fatalf("expected one resolved diff, got %+v", res.Diffs)
	}
	if res.PercentDifferent != 0 {
		t.Fatalf("a diff fully credited to an ignored range must not count toward "+
			"PercentDifferent, got %v", res.PercentDifferent)
	}
}

func TestCompareDateMacroHeuristic(t *testing.T) {
	a := bytesReader([]byte("built on Jan  1 2024 here"))
	b := bytesReader([]byte("built on Feb 14 2024 here"))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Equivalent {
		t.Fatalf("expected Equivalent via date-macro heuristic, got %v (%+v)",
			res.Verdict, res.Diffs)
	}
	if res.Diffs[0].Heuristic != "date-macro" {
		t.Fatalf("expected date-macro heuristic, got %q", res.Diffs[0].Heuristic)
	}
}

func TestCompareTimeMacroHeuristic(t *testing.T) {
	a := bytesReader([]byte("at 09:41:02\x00 sharp"))
	b := bytesReader([]byte("at 23:59:59\x00 sharp"))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Equivalent {
		t.Fatalf("expected Equivalent via time-macro heuristic, got %v (%+v)",
			res.Verdict, res.Diffs)
	}
}

func TestCompareSizeMismatchTailIsUnresolved(t *testing.T) {
	a := bytesReader([]byte("same-prefix"))
	b := bytesReader([]byte("same-prefix-plus-more"))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Different {
		t.Fatalf("expected Different for size mismatch, got %v", res.Verdict)
	}
}

func TestCompareFileMacroRequiresMatchingPDBPath(t *testing.T) {
	pdb := `C:\build\obj\proj.pdb`
	a := bytesReader([]byte("stuff " + pdb + "X post"))
	b := bytesReader([]byte("stuff " + pdb + "Y post"))

	res, err := Compare(a, b, Options{PDBPathA: pdb, PDBPathB: pdb})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Equivalent {
		t.Fatalf("expected Equivalent via file-macro heuristic, got %v (%+v)", res.Verdict, res.Diffs)
	}
	if res.Diffs[0].Heuristic != "file-macro" {
		t.Fatalf("expected file-macro heuristic, got %q", res.Diffs[0].Heuristic)
	}
}

func TestCompareFileMacroRejectsUnrelatedPaths(t *testing.T) {
	other := `C:\some\other\thing.pdb`
	a := bytesReader([]byte("stuff " + other + "X post"))
	b := bytesReader([]byte("stuff " + other + "Y post"))

	res, err := Compare(a, b, Options{PDBPathA: `C:\build\obj\proj.pdb`, PDBPathB: `C:\build\obj\proj.pdb`})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Different {
		t.Fatalf("expected Different: diff site is not the reader's own PDB path, got %v", res.Verdict)
	}
}

func TestCompareTimeMacroWideChar(t *testing.T) {
	wide := func(s string) []byte {
		out := make([]byte, 0, len(s)*2+2)
		for _, c := range s {
			out = append(out, byte(c), 0)
		}
		return append(out, 0, 0)
	}
	a := bytesReader(append([]byte("built "), wide("09:41:02")...))
	b := bytesReader(append([]byte("built "), wide("23:59:59")...))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Equivalent {
		t.Fatalf("expected Equivalent via wide-char time-macro heuristic, got %v (%+v)",
			res.Verdict, res.Diffs)
	}
}

func TestCompareTimeMacroRejectsOutOfRange(t *testing.T) {
	a := bytesReader([]byte("at 09:41:02\x00 sharp"))
	b := bytesReader([]byte("at 99:99:99\x00 sharp"))

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Different {
		t.Fatalf("expected Different: \"99:99:99\" is not a valid time, got %v", res.Verdict)
	}
}

// buildMIDLBuffers returns a pair of buffers that share a @TYPELIB tag and
// a "Created by MIDL version" literal with the marker bytes the heuristic
// requires at offsets 61/62, differing only in a 4-byte stamp shortly
// after the literal (well within the 65-byte window).
func buildMIDLBuffers() (a, b []byte) {
	prefix := []byte("noise-before-@TYPELIB-gap-")
	markerPos := len(prefix)

	a = append(append([]byte{}, prefix...), []byte(midlStampMarker)...)
	b = append(append([]byte{}, prefix...), []byte(midlStampMarker)...)
	a = append(a, 0xAA, 0xAA, 0xAA, 0xAA)
	b = append(b, 0xBB, 0xBB, 0xBB, 0xBB)

	for len(a) < markerPos+61 {
		a = append(a, 'Z')
		b = append(b, 'Z')
	}
	a = append(a, 0x0A, 0x13, 't', 'a', 'i', 'l')
	b = append(b, 0x0A, 0x13, 't', 'a', 'i', 'l')
	return a, b
}

func TestCompareMIDLTLBStampHeuristicRequiresFlag(t *testing.T) {
	bufA, bufB := buildMIDLBuffers()
	a := bytesReader(bufA)
	b := bytesReader(bufB)

	res, err := Compare(a, b, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Different {
		t.Fatalf("expected Different without --tlb-timestamp, got %v", res.Verdict)
	}

	res, err = Compare(a, b, Options{TLBTimestamp: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Verdict != Equivalent {
		t.Fatalf("expected Equivalent with TLBTimestamp set, got %v (%+v)", res.Verdict, res.Diffs)
	}
	if res.Diffs[0].Heuristic != "midl-tlb-stamp" {
		t.Fatalf("expected midl-tlb-stamp heuristic, got %q", res.Diffs[0].Heuristic)
	}
}
