package pe

import (
	"strconv"
	"strings"
)

// segment returns the path component an entry contributes: the
// decimal ID, or "@" followed by the literal name when the entry is
// named rather than numbered.
func (e *ResourceDirectoryEntry) segment() string {
	if e.Name != "" {
		return "@" + e.Name
	}
	return strconv.Itoa(int(e.ID))
}

// collectResourceBlocks walks the already-parsed resource tree and
// records one Block per leaf payload, named "Resource: <full-path>"
// with path segments joined by "/" as described in the resource path
// grammar (numeric IDs as decimal text, named entries as "@name").
func (pe *File) collectResourceBlocks() {
	pe.walkResourceDir(&pe.Resources, "")
}

func (pe *File) walkResourceDir(dir *ResourceDirectory, path string) {
	for i := range dir.Entries {
		entry := &dir.Entries[i]
		childPath := entry.segment()
		if path != "" {
			childPath = path + "/" + childPath
		}
		if entry.IsResourceDir {
			pe.walkResourceDir(&entry.Directory, childPath)
		} else {
			offset := pe.GetOffsetFromRva(entry.Data.Struct.OffsetToData)
			pe.markResourceBlock(childPath, offset, entry.Data.Struct.Size)
		}
	}
}

// AtPath resolves a slash-separated resource path such as "16/1/1033"
// (RT_VERSION, id 1, language 1033) against the parsed resource tree.
// A segment prefixed with "@" matches a named entry by its literal
// name; any other segment matches a numeric ID. Missing segments
// return ok=false. If the resolved node is a directory with exactly
// one child, AtPath transparently descends into that child, so a
// binary whose RT_VERSION has a single language can be reached with
// just "16/1".
func (pe *File) AtPath(path string) (*ResourceDirectoryEntry, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	if len(segments) == 1 && segments[0] == "" {
		return nil, false
	}

	dir := &pe.Resources
	var entry *ResourceDirectoryEntry

	for _, seg := range segments {
		found := findEntry(dir, seg)
		if found == nil {
			return nil, false
		}
		entry = found
		if entry.IsResourceDir {
			dir = &entry.Directory
		}
	}

	for entry.IsResourceDir && len(entry.Directory.Entries) == 1 {
		entry = &entry.Directory.Entries[0]
	}

	return entry, true
}

func findEntry(dir *ResourceDirectory, seg string) *ResourceDirectoryEntry {
	for i := range dir.Entries {
		e := &dir.Entries[i]
		if e.segment() == seg {
			return e
		}
	}
	return nil
}
