// Package block describes half-open byte ranges within one or two
// files, used to classify and report which parts of a PE image are
// significant and which are linker noise to be ignored on compare.
package block

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrRangeParse is returned when a serialized block list does not
// follow the `{desc:offset:size|...}` grammar.
var ErrRangeParse = errors.New("block: error parsing block list")

// Block is a half-open byte range [Offset, Offset+Size) in a single
// file, tagged with a human description and optionally a short data
// string for display purposes.
type Block struct {
	Offset      uint64
	Size        uint64
	Description string
	Data        string
}

// New builds a Block with the given description, offset and size.
func New(description string, offset, size uint64) Block {
	return Block{Description: description, Offset: offset, Size: size}
}

// End returns the first offset past the block.
func (b Block) End() uint64 {
	return b.Offset + b.Size
}

// Less reports whether b starts before other.
func (b Block) Less(other Block) bool {
	return b.Offset < other.Offset
}

// Contains reports whether other lies completely inside b.
func (b Block) Contains(other Block) bool {
	if b.Size == 0 {
		return false
	}
	if b.Offset > other.Offset {
		return false
	}
	if b.End() < other.Offset {
		return false
	}
	if b.End() < other.End() {
		return false
	}
	return true
}

// String formats a block as `desc:offset:size` in hexadecimal, the
// unit used inside a serialized BlockList.
func (b Block) String() string {
	return fmt.Sprintf("%s:%x:%x", b.Description, b.Offset, b.Size)
}

// Block2 is the two-file variant of Block: it carries a parallel
// offset into a second file for the same logical region.
type Block2 struct {
	Block
	Offset2 uint64
	Data2   string
}

// NewBlock2 builds a Block2 from a description and offsets into both files.
func NewBlock2(description string, offset1, offset2, size uint64) Block2 {
	return Block2{Block: New(description, offset1, size), Offset2: offset2}
}

// Equal reports whether two Block2 values describe the same region.
func (b Block2) Equal(other Block2) bool {
	return b.Offset == other.Offset && b.Offset2 == other.Offset2 && b.Size == other.Size
}

// Contains reports whether other lies completely inside b, compared
// on the first-file range only (the same rule the tree uses to nest
// Block2 siblings).
func (b Block2) Contains(other Block2) bool {
	return b.Block.Contains(other.Block)
}

// List is an ordered sequence of Blocks.
type List []Block

// String serializes the list as `{desc1:offset1:size1|desc2:offset2:size2|...}`,
// with `{}` for the empty list.
func (l List) String() string {
	if len(l) == 0 {
		return "{}"
	}
	parts := make([]string, len(l))
	for i, b := range l {
		parts[i] = b.String()
	}
	return "{" + strings.Join(parts, "|") + "}"
}

// Sum returns the total size of every block in the list.
func (l List) Sum() uint64 {
	var total uint64
	for _, b := range l {
		total += b.Size
	}
	return total
}

// SortByOffset sorts the list in place by ascending offset.
func (l List) SortByOffset() {
	sort.Slice(l, func(i, j int) bool { return l[i].Less(l[j]) })
}

// Contains reports whether offset falls within any block in the list.
// The list must be sorted by offset.
func (l List) Contains(offset uint64) bool {
	_, ok := l.Find(offset)
	return ok
}

// Find returns the block containing offset, if any. The list must be
// sorted by offset.
func (l List) Find(offset uint64) (Block, bool) {
	i := sort.Search(len(l), func(i int) bool { return l[i].End() > offset })
	if i < len(l) && l[i].Offset <= offset {
		return l[i], true
	}
	return Block{}, false
}

// Parse decodes a serialized block list of the form
// `{desc1:offset1:size1|desc2:offset2:size2|...}`. Offsets and sizes
// are hexadecimal. The empty list is `{}`.
func Parse(s string) (List, error) {
	s = strings.TrimSpace(s)
	if len(s) < 2 || s[0] != '{' || s[len(s)-1] != '}' {
		return nil, ErrRangeParse
	}
	inner := s[1 : len(s)-1]
	if inner == "" {
		return List{}, nil
	}

	var list List
	for _, field := range strings.Split(inner, "|") {
		parts := strings.Split(field, ":")
		if len(parts) != 3 {
			return nil, ErrRangeParse
		}
		offset, err := strconv.ParseUint(parts[1], 16, 64)
		if err != nil {
			return nil, ErrRangeParse
		}
		size, err := strconv.ParseUint(parts[2], 16, 64)
		if err != nil {
			return nil, ErrRangeParse
		}
		list = append(list, Block{Description: parts[0], Offset: offset, Size: size})
	}
	return list, nil
}
