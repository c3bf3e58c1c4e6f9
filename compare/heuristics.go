package compare

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"
)

// matchHeuristic tries each recognized compiler-artifact pattern against
// the bytes around a diff's location in both images, returning the name
// of the first one that explains the difference, or "" if none does.
//
// Each heuristic is evaluated on both files at the diff start; only an
// agreeing pair counts.
func matchHeuristic(dataA, dataB []byte, d Diff, opts Options) string {
	if matchFileMacro(dataA, dataB, d, opts.PDBPathA, opts.PDBPathB) {
		return "file-macro"
	}
	if matchTimeMacro(dataA, dataB, d) {
		return "time-macro"
	}
	if matchDateMacro(dataA, dataB, d) {
		return "date-macro"
	}
	if opts.TLBTimestamp && matchMIDLTLBStamp(dataA, dataB, d) {
		return "midl-tlb-stamp"
	}
	return ""
}

// matchFileMacro looks within PDB-path-length bytes before the diff for a
// path matching the owning reader's own PDB path, case-insensitively and
// with '/' normalized to '\'. A reader with no recorded PDB path never
// matches, since there is nothing to compare against.
func matchFileMacro(dataA, dataB []byte, d Diff, pdbPathA, pdbPathB string) bool {
	if d.Length > 5 || pdbPathA == "" || pdbPathB == "" {
		return false
	}
	normA := normalizePDBPath(pdbPathA)
	normB := normalizePDBPath(pdbPathB)

	return hasPDBPathPrefix(dataA, d, normA) && hasPDBPathPrefix(dataB, d, normB)
}

// hasPDBPathPrefix reports whether the bytes ending at the diff's start,
// within the last len(pdbPath) bytes, contain pdbPath (case-insensitive,
// with '/' normalized to '\').
func hasPDBPathPrefix(data []byte, d Diff, pdbPath string) bool {
	if pdbPath == "" {
		return false
	}
	window := int64(len(pdbPath))
	start := int64(d.Offset) - window
	if start < 0 {
		start = 0
	}
	end := int64(d.Offset)
	if end > int64(len(data)) {
		end = int64(len(data))
	}
	if end <= start {
		return false
	}
	span := normalizePDBPath(string(data[start:end]))
	return strings.Contains(span, pdbPath)
}

func normalizePDBPath(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, "/", `\`))
}

// __DATE__ expands to a fixed-width "Mmm dd yyyy" string, e.g. "Jan  1 2024".
var dateMacroRe = regexp.MustCompile(
	`(Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sep|Oct|Nov|Dec) [ 0-9][0-9] [0-9]{4}`)

// matchDateMacro requires a diff run of at most 4 bytes, then searches a
// window wide enough to hold the full 11-byte "Mmm dd yyyy" token on
// either side of the diff (the diff can land on the month, the day, or
// the year) for a placement where the pattern matches on both images and
// actually encloses the diff.
func matchDateMacro(dataA, dataB []byte, d Diff) bool {
	if d.Length > 4 {
		return false
	}
	const width = 11
	lo := int64(d.Offset) - int64(width-1)
	if lo < 0 {
		lo = 0
	}
	hi := int64(d.Offset+d.Length) + int64(width-1)
	if hi > int64(len(dataA)) {
		hi = int64(len(dataA))
	}
	if hi > int64(len(dataB)) {
		hi = int64(len(dataB))
	}
	if hi <= lo {
		return false
	}

	locA := dateMacroRe.FindIndex(dataA[lo:hi])
	if locA == nil {
		return false
	}
	locB := dateMacroRe.FindIndex(dataB[lo:hi])
	if locB == nil {
		return false
	}
	tokenStart := uint64(lo) + uint64(locA[0])
	tokenEnd := uint64(lo) + uint64(locA[1])
	if uint64(lo)+uint64(locB[0]) != tokenStart || uint64(lo)+uint64(locB[1]) != tokenEnd {
		return false
	}
	return d.Offset >= tokenStart && d.Offset+d.Length <= tokenEnd
}

// matchTimeMacro requires a diff run of at most 2 bytes, then looks for a
// ':' within {-2,-1,+1,+2} bytes of the diff and a NUL 3 or 6 bytes past
// it, verifying the enclosed "hh:mm:ss" is a wide (UTF-16) or narrow
// string with every field in range.
func matchTimeMacro(dataA, dataB []byte, d Diff) bool {
	if d.Length > 2 {
		return false
	}
	return matchTimeMacroWide(dataA, dataB, d) || matchTimeMacroNarrow(dataA, dataB, d)
}

var timeMacroRe = regexp.MustCompile(`^([0-9]{2}):([0-9]{2}):([0-9]{2})$`)

func validTimeOfDay(hh, mm, ss string) bool {
	h, err1 := strconv.Atoi(hh)
	m, err2 := strconv.Atoi(mm)
	s, err3 := strconv.Atoi(ss)
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	return h >= 0 && h <= 23 && m >= 0 && m <= 59 && s >= 0 && s <= 59
}

func isTimeMacro(b []byte) bool {
	if len(b) != 8 {
		return false
	}
	m := timeMacroRe.FindSubmatch(b)
	if m == nil {
		return false
	}
	return validTimeOfDay(string(m[1]), string(m[2]), string(m[3]))
}

// matchTimeMacroNarrow tries the narrow (single-byte-per-char) encoding of
// "hh:mm:ss\0". It looks for a ':' within {-2,-1,+1,+2} bytes of the diff,
// then tries it as either the first or the second colon of the 8-byte
// token (relative positions 2 and 5); either placement pins down where the
// token starts and therefore where its terminating NUL should land.
func matchTimeMacroNarrow(dataA, dataB []byte, d Diff) bool {
	for _, colonDelta := range []int64{-2, -1, 1, 2} {
		colon := int64(d.Offset) + colonDelta
		if !inBounds(dataA, colon) || !inBounds(dataB, colon) {
			continue
		}
		if dataA[colon] != ':' || dataB[colon] != ':' {
			continue
		}
		for _, colonRelPos := range []int64{2, 5} {
			start := colon - colonRelPos
			end := start + 8
			if start < 0 || !inBounds(dataA, end) || !inBounds(dataB, end) {
				continue
			}
			if dataA[end] != 0 || dataB[end] != 0 {
				continue
			}
			tokA := dataA[start:end]
			tokB := dataB[start:end]
			if isTimeMacro(tokA) && isTimeMacro(tokB) {
				return true
			}
		}
	}
	return false
}

// matchTimeMacroWide mirrors matchTimeMacroNarrow for the UTF-16LE
// encoding emitted when __TIME__ expands inside a wide string literal:
// every ASCII byte of "hh:mm:ss" is followed by a 0x00, so every distance
// above is doubled, and the terminator is a two-byte wide NUL.
func matchTimeMacroWide(dataA, dataB []byte, d Diff) bool {
	for _, colonDelta := range []int64{-4, -3, -2, -1, 1, 2, 3, 4} {
		colon := int64(d.Offset) + colonDelta
		if colon < 0 || !inBounds(dataA, colon+1) || !inBounds(dataB, colon+1) {
			continue
		}
		if dataA[colon] != ':' || dataA[colon+1] != 0 || dataB[colon] != ':' || dataB[colon+1] != 0 {
			continue
		}
		for _, colonRelPos := range []int64{4, 10} {
			start := colon - colonRelPos
			end := start + 16
			if start < 0 || !inBounds(dataA, end+1) || !inBounds(dataB, end+1) {
				continue
			}
			if dataA[end] != 0 || dataA[end+1] != 0 || dataB[end] != 0 || dataB[end+1] != 0 {
				continue
			}
			wideA := dataA[start:end]
			wideB := dataB[start:end]
			if isWideTimeMacro(wideA) && isWideTimeMacro(wideB) {
				return true
			}
		}
	}
	return false
}

// isWideTimeMacro narrows a UTF-16LE "hh:mm:ss" byte run back to ASCII
// (every odd byte must be 0x00) before validating it like the narrow form.
func isWideTimeMacro(b []byte) bool {
	if len(b) != 16 || len(b)%2 != 0 {
		return false
	}
	narrow := make([]byte, 0, len(b)/2)
	for i := 0; i < len(b); i += 2 {
		if b[i+1] != 0 {
			return false
		}
		narrow = append(narrow, b[i])
	}
	return isTimeMacro(narrow)
}

func inBounds(data []byte, i int64) bool {
	return i >= 0 && i < int64(len(data))
}

// A MIDL-generated type library embeds a creation stamp shortly after the
// "Created by MIDL version" literal inside the @TYPELIB resource. Bytes
// 61/62 relative to the start of that literal are a fixed marker (0x0A,
// 0x13); verifying them on both images rules out coincidental diffs
// elsewhere in the file. A diff is claimed when it lies entirely within
// the first 65 bytes from the literal's start.
const (
	midlStampMarker       = "Created by MIDL version"
	midlStampMarkerByte61 = 0x0A
	midlStampMarkerByte62 = 0x13
	midlStampMaxDistance  = 65
)

func matchMIDLTLBStamp(dataA, dataB []byte, d Diff) bool {
	for _, anchor := range typelibMarkerAnchors(dataA) {
		if anchor+63 > len(dataA) || anchor+63 > len(dataB) {
			continue
		}
		if dataA[anchor+61] != midlStampMarkerByte61 || dataA[anchor+62] != midlStampMarkerByte62 {
			continue
		}
		if dataB[anchor+61] != midlStampMarkerByte61 || dataB[anchor+62] != midlStampMarkerByte62 {
			continue
		}
		lo := uint64(anchor)
		hi := lo + midlStampMaxDistance
		if d.Offset < lo || d.Offset+d.Length > hi {
			continue
		}
		return true
	}
	return false
}

// typelibMarkerAnchors finds every "Created by MIDL version" literal that
// sits inside a @TYPELIB-tagged resource, returning the literal's start
// offset. The @TYPELIB tag is the resource's type/description string, so
// the literal is searched for within a bounded window following each tag
// occurrence rather than across the whole file.
func typelibMarkerAnchors(data []byte) []int {
	const typelibTag = "@TYPELIB"
	const searchWindow = 4096

	tag := []byte(typelibTag)
	marker := []byte(midlStampMarker)
	var anchors []int
	for i := 0; i+len(tag) <= len(data); i++ {
		if !bytes.Equal(data[i:i+len(tag)], tag) {
			continue
		}
		end := i + searchWindow
		if end > len(data) {
			end = len(data)
		}
		if idx := bytes.Index(data[i:end], marker); idx >= 0 {
			anchors = append(anchors, i+idx)
		}
	}
	return anchors
}
