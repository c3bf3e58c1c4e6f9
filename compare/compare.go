// Package compare classifies a pair of PE images as byte-identical,
// functionally equivalent, or different, looking past the kind of
// byte-level noise a deterministic-ish compiler toolchain still leaves
// behind: linker timestamps, embedded __FILE__/__DATE__/__TIME__ macro
// expansions, and MIDL-generated type-library stamps.
package compare

import (
	"bytes"

	"github.com/peutil/peutil/block"
)

// Reader is the subset of *pe.File the comparator needs. Kept as an
// interface so compare does not import the root pe package and tests can
// drive it off of plain byte slices.
type Reader interface {
	Size() uint32
	ReadBytesAtOffset(offset, size uint32) ([]byte, error)
}

// Verdict is the result classification.
type Verdict int

const (
	// Identical means the two images are byte-for-byte the same.
	Identical Verdict = iota
	// Equivalent means every byte-level difference was explained away by
	// an ignored range or a recognized compiler-artifact heuristic.
	Equivalent
	// Different means at least one unexplained difference remains.
	Different
)

// String names a Verdict.
func (v Verdict) String() string {
	switch v {
	case Identical:
		return "identical"
	case Equivalent:
		return "equivalent"
	case Different:
		return "different"
	default:
		return "unknown"
	}
}

// Diff describes one contiguous run of differing bytes.
type Diff struct {
	// Offset is the byte offset in the first (reference) image.
	Offset uint64
	// Length is the number of bytes in the differing run.
	Length uint64
	// Heuristic names the compiler-artifact rule that explained this
	// diff away ("file-macro", "date-macro", "time-macro", "midl-tlb-stamp"),
	// or "ignored-range" when it fell inside a caller-supplied ignored
	// range. Empty when the diff is unexplained.
	Heuristic string
}

// Resolved reports whether this diff was explained away and so does not
// count toward PercentDifferent.
func (d Diff) Resolved() bool { return d.Heuristic != "" }

// Options tunes the comparison.
type Options struct {
	// IgnoredA and IgnoredB list byte ranges in each image that should
	// never count as a real difference (linker timestamps, checksums,
	// PDB GUIDs, and the like), typically pe.File.Ignored from each side.
	IgnoredA, IgnoredB block.List

	// PDBPathA and PDBPathB are the CodeView RSDS PDB paths each reader
	// recorded, if any (pe.File.DebugPDBPath()). The __FILE__-macro
	// heuristic only claims a diff if it matches the owning image's own
	// PDB path, so a reader with no debug directory never matches one.
	PDBPathA, PDBPathB string

	// DisableHeuristics turns off the __FILE__/__DATE__/__TIME__/MIDL
	// detectors, leaving only the caller-supplied ignored ranges.
	DisableHeuristics bool

	// TLBTimestamp opts into the MIDL type-library creation-stamp
	// heuristic. Unlike the macro heuristics it is off by default: a
	// plausible-looking 4-byte timestamp is common enough by chance that
	// callers must ask for it explicitly.
	TLBTimestamp bool
}

// Result is the outcome of a Compare call.
type Result struct {
	Verdict          Verdict
	PercentDifferent float64
	Diffs            []Diff
}

// Compare classifies two images. a is treated as the reference image:
// diff offsets are reported in a's address space.
func Compare(a, b Reader, opts Options) (*Result, error) {
	sizeA := a.Size()
	sizeB := b.Size()

	dataA, err := a.ReadBytesAtOffset(0, sizeA)
	if err != nil {
		return nil, err
	}
	dataB, err := b.ReadBytesAtOffset(0, sizeB)
	if err != nil {
		return nil, err
	}

	if bytes.Equal(dataA, dataB) {
		return &Result{Verdict: Identical}, nil
	}

	minSize := sizeA
	if sizeB < minSize {
		minSize = sizeB
	}

	var diffs []Diff
	var run *Diff
	flushRun := func() {
		if run != nil {
			diffs = append(diffs, *run)
			run = nil
		}
	}
	for i := uint32(0); i < minSize; i++ {
		if dataA[i] == dataB[i] {
			flushRun()
			continue
		}
		if run == nil {
			run = &Diff{Offset: uint64(i), Length: 0}
		}
		run.Length++
	}
	flushRun()

	// Anything past the shorter image's length is an unavoidable, whole
	// tail difference: the images are structurally different lengths.
	if sizeA != sizeB {
		tailOffset := uint64(minSize)
		tailLen := uint64(sizeA) - uint64(minSize)
		if sizeB > sizeA {
			tailLen = uint64(sizeB) - uint64(minSize)
		}
		diffs = append(diffs, Diff{Offset: tailOffset, Length: tailLen})
	}

	unresolved := uint64(0)
	for i := range diffs {
		d := &diffs[i]

		if inIgnoredRange(*d, opts.IgnoredA) || inIgnoredRange(*d, opts.IgnoredB) {
			d.Heuristic = "ignored-range"
			continue
		}

		if !opts.DisableHeuristics {
			if h := matchHeuristic(dataA, dataB, *d, opts); h != "" {
				d.Heuristic = h
				continue
			}
		}

		unresolved += d.Length
	}

	largest := uint64(sizeA)
	if uint64(sizeB) > largest {
		largest = uint64(sizeB)
	}

	result := &Result{Diffs: diffs}
	if largest > 0 {
		result.PercentDifferent = float64(unresolved) / float64(largest) * 100
	}
	if unresolved == 0 {
		result.Verdict = Equivalent
	} else {
		result.Verdict = Different
	}
	return result, nil
}

func inIgnoredRange(d Diff, ignored block.List) bool {
	for _, b := range ignored {
		if b.Offset <= d.Offset && d.Offset+d.Length <= b.Offset+b.Size {
			return true
		}
	}
	return false
}
