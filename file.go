// Copyright 2018 Saferwall. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pe

import (
	"errors"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/peutil/peutil/block"
	"github.com/peutil/peutil/log"
)

// A File represents an open PE file.
type File struct {
	DOSHeader    ImageDOSHeader    `json:"dos_header,omitempty"`
	NtHeader     ImageNtHeader     `json:"nt_header,omitempty"`
	Sections     []Section        `json:"sections,omitempty"`
	Imports      []Import         `json:"imports,omitempty"`
	Export       Export           `json:"export,omitempty"`
	Debugs       []DebugEntry     `json:"debugs,omitempty"`
	Resources    ResourceDirectory `json:"resources,omitempty"`
	Certificates Certificate      `json:"certificates,omitempty"`
	DelayImports []DelayImport    `json:"delay_imports,omitempty"`
	Header       []byte
	data         mmap.MMap
	FileInfo
	size   uint32
	f      *os.File
	opts   *Options
	logger *log.Helper

	// Corrupted is set when a data directory points past end-of-file or
	// otherwise could not be read safely; the reader remains queryable
	// for whatever fields were already parsed.
	Corrupted bool

	// PDBPath and PDBGUID come from the CodeView RSDS debug record, if any.
	PDBPath string
	PDBGUID string

	// FileVersionString is the FileVersion string-table value from
	// VS_VERSIONINFO, if present.
	FileVersionString string

	// Ignored lists byte ranges that are linker-generated or otherwise
	// volatile and should not count against two builds being equivalent.
	Ignored block.List

	// Interesting lists byte ranges whose content is meaningful:
	// headers, section bodies, the section table itself.
	Interesting block.List

	// ResourceBlocks lists one entry per resource-leaf payload.
	ResourceBlocks block.List

	// SectionBlocks lists one Block per section header, parallel to Sections.
	SectionBlocks block.List

	// Modifiable maps a field kind to the Block of underlying file
	// bytes backing it, for the version editor's in-place fast path.
	Modifiable map[ModifiableKind]block.Block

	readWrite bool
}

// ModifiableKind identifies a field the version editor may rewrite
// in place without touching the rest of the file.
type ModifiableKind int

// Kinds of modifiable fields tracked while parsing.
const (
	ModifiableFileVersion ModifiableKind = iota
	ModifiableProductVersion
	ModifiableFileVersionString
	ModifiableProductVersionString
	ModifiableSignatureDirectory
)

// String names a ModifiableKind.
func (k ModifiableKind) String() string {
	switch k {
	case ModifiableFileVersion:
		return "FileVersion"
	case ModifiableProductVersion:
		return "ProductVersion"
	case ModifiableFileVersionString:
		return "FileVersionString"
	case ModifiableProductVersionString:
		return "ProductVersionString"
	case ModifiableSignatureDirectory:
		return "SignatureDirectory"
	default:
		return "Unknown"
	}
}

// markIgnored appends a range to the Ignored list.
func (pe *File) markIgnored(description string, offset, size uint32) {
	pe.Ignored = append(pe.Ignored, block.New(description, uint64(offset), uint64(size)))
}

// markInteresting appends a range to the Interesting list.
func (pe *File) markInteresting(description string, offset, size uint32) {
	pe.Interesting = append(pe.Interesting, block.New(description, uint64(offset), uint64(size)))
}

// markResourceBlock appends a leaf payload range to ResourceBlocks.
func (pe *File) markResourceBlock(path string, offset, size uint32) {
	pe.ResourceBlocks = append(pe.ResourceBlocks, block.New("Resource: "+path, uint64(offset), uint64(size)))
}

// markModifiable records the Block of bytes backing a modifiable field.
func (pe *File) markModifiable(kind ModifiableKind, offset, size uint32) {
	if pe.Modifiable == nil {
		pe.Modifiable = make(map[ModifiableKind]block.Block)
	}
	pe.Modifiable[kind] = block.New(kind.String(), uint64(offset), uint64(size))
}

// AddIgnoredRange manually marks a range as irrelevant when comparing
// binaries, merging it into the reader's ignored list.
func (pe *File) AddIgnoredRange(b block.Block) {
	pe.Ignored = append(pe.Ignored, b)
}

// AddIgnoredRanges manually marks a list of ranges as irrelevant when
// comparing binaries.
func (pe *File) AddIgnoredRanges(blocks block.List) {
	pe.Ignored = append(pe.Ignored, blocks...)
}

// Defaults that newFile applies when the matching Options field is zero.
const (
	MaxDefaultCOFFSymbolsCount  = 0x10000
	MaxDefaultRelocEntriesCount = 0x1000
)

// Options for Parsing
type Options struct {

	// Parse only the PE header and do not parse data directories, by default (false).
	Fast bool

	// Includes section entropy, by default (false).
	SectionEntropy bool

	// Maximum COFF symbols to parse, by default (MaxDefaultCOFFSymbolsCount).
	// This package does not parse the COFF symbol table, so the value is
	// only stored.
	MaxCOFFSymbolsCount uint32

	// Maximum relocations to parse, by default (MaxDefaultRelocEntriesCount).
	// This package does not parse base relocations, so the value is only
	// stored.
	MaxRelocEntriesCount uint32

	// Disable certificate validation, by default (false).
	DisableCertValidation bool

	// Disable authenticode hash verification against the signed hash,
	// by default (false).
	DisableSignatureValidation bool

	// Skip parsing the resource directory entirely, by default (false).
	OmitResourceDirectory bool

	// A custom logger.
	Logger log.Logger
}

// New instantiates a file instance with options given a file name,
// opening it read-only.
func New(name string, opts *Options) (*File, error) {
	return open(name, opts, false)
}

// NewForWrite instantiates a file instance given a file name, mapping
// it read-write so in-place edits (the version editor's fast path,
// signature-directory erasure) can be flushed back to disk on Close.
func NewForWrite(name string, opts *Options) (*File, error) {
	return open(name, opts, true)
}

func open(name string, opts *Options, readWrite bool) (*File, error) {

	if fi, err := os.Stat(name); err == nil && fi.IsDir() {
		return nil, ErrNotAFile
	}

	flag := os.O_RDONLY
	mapFlag := mmap.RDONLY
	if readWrite {
		flag = os.O_RDWR
		mapFlag = mmap.RDWR
	}

	f, err := os.OpenFile(name, flag, 0)
	if err != nil {
		return nil, err
	}

	data, err := mmap.Map(f, mapFlag, 0)
	if err != nil {
		f.Close()
		return nil, err
	}

	file := newFile(opts)
	file.data = data
	file.size = uint32(len(file.data))
	file.f = f
	file.readWrite = readWrite
	return file, nil
}

// NewBytes instantiates a file instance with options given a memory buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	file := newFile(opts)
	file.data = data
	file.size = uint32(len(file.data))
	return file, nil
}

func newFile(opts *Options) *File {
	file := &File{}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}

	if file.opts.MaxCOFFSymbolsCount == 0 {
		file.opts.MaxCOFFSymbolsCount = MaxDefaultCOFFSymbolsCount
	}
	if file.opts.MaxRelocEntriesCount == 0 {
		file.opts.MaxRelocEntriesCount = MaxDefaultRelocEntriesCount
	}

	if file.opts.Logger == nil {
		logger := log.NewStdLogger(os.Stdout)
		file.logger = log.NewHelper(log.NewFilter(logger,
			log.FilterLevel(log.LevelError)))
	} else {
		file.logger = log.NewHelper(file.opts.Logger)
	}

	return file
}

// Close releases the mapping and, if the file was opened read-write,
// flushes pending edits to disk first. Safe to call on a reader that
// failed to open fully.
func (pe *File) Close() error {
	if pe.data != nil {
		if pe.readWrite {
			if err := pe.data.Flush(); err != nil {
				pe.logger.Errorf("failed to flush mapped file: %v", err)
			}
		}
		_ = pe.data.Unmap()
	}

	if pe.f != nil {
		return pe.f.Close()
	}
	return nil
}

// IsReadWrite reports whether the reader was opened for in-place edits.
func (pe *File) IsReadWrite() bool {
	return pe.readWrite
}

// Size returns the total size of the mapped image in bytes.
func (pe *File) Size() uint32 {
	return pe.size
}

// DebugPDBPath returns the CodeView RSDS PDB path recorded for this file,
// or "" if the file carries no debug directory entry naming one. It is
// what the comparator's __FILE__-macro heuristic matches diffs against.
func (pe *File) DebugPDBPath() string {
	return pe.PDBPath
}

// Parse performs the file parsing for a PE binary.
func (pe *File) Parse() error {

	// check for the smallest PE size.
	if len(pe.data) < TinyPESize {
		return ErrInvalidPESize
	}

	// Parse the DOS header.
	err := pe.ParseDOSHeader()
	if err != nil {
		return err
	}

	// Parse the NT header.
	err = pe.ParseNTHeader()
	if err != nil {
		return err
	}

	// Parse the Section Header.
	err = pe.ParseSectionHeader()
	if err != nil {
		return err
	}

	// In fast mode, do not parse data directories.
	if pe.opts.Fast {
		return nil
	}

	// Parse the Data Directory entries.
	return pe.ParseDataDirectories()
}

// String stringify the data directory entry.
func (entry ImageDirectoryEntry) String() string {
	dataDirMap := map[ImageDirectoryEntry]string{
		ImageDirectoryEntryExport:      "Export",
		ImageDirectoryEntryImport:      "Import",
		ImageDirectoryEntryResource:    "Resource",
		ImageDirectoryEntryCertificate: "Security",
		ImageDirectoryEntryDebug:       "Debug",
		ImageDirectoryEntryDelayImport: "DelayImport",
		ImageDirectoryEntryReserved:    "Reserved",
	}

	return dataDirMap[entry]
}

// ParseDataDirectories parses the data directories. The DataDirectory is an
// array of 16 structures. Each array entry has a predefined meaning for what
// it refers to.
func (pe *File) ParseDataDirectories() error {

	foundErr := false
	oh32 := ImageOptionalHeader32{}
	oh64 := ImageOptionalHeader64{}

	switch pe.Is64 {
	case true:
		oh64 = pe.NtHeader.OptionalHeader.(ImageOptionalHeader64)
	case false:
		oh32 = pe.NtHeader.OptionalHeader.(ImageOptionalHeader32)
	}

	// Maps data directory index to function which parses that directory.
	// Only the directories named in the reader's scope (export, import,
	// resource, debug, security, delay-import) are parsed; every other
	// entry is left unparsed even when its RVA is non-zero.
	funcMaps := map[ImageDirectoryEntry](func(uint32, uint32) error){
		ImageDirectoryEntryExport:      pe.parseExportDirectory,
		ImageDirectoryEntryImport:      pe.parseImportDirectory,
		ImageDirectoryEntryResource:    pe.parseResourceDirectory,
		ImageDirectoryEntryCertificate: pe.parseSecurityDirectory,
		ImageDirectoryEntryDebug:       pe.parseDebugDirectory,
		ImageDirectoryEntryDelayImport: pe.parseDelayImportDirectory,
	}

	fileHdrSize := uint32(binary.Size(pe.NtHeader.FileHeader))
	optionalHeaderOffset := pe.DOSHeader.AddressOfNewEXEHeader + 4 + fileHdrSize
	dataDirArrayStart := optionalHeaderOffset + 96
	if pe.Is64 {
		dataDirArrayStart = optionalHeaderOffset + 112
	}

	// Iterate over data directories and call the appropriate function.
	for entryIndex := ImageDirectoryEntry(0); entryIndex < ImageNumberOfDirectoryEntries; entryIndex++ {

		var va, size uint32
		switch pe.Is64 {
		case true:
			dirEntry := oh64.DataDirectory[entryIndex]
			va = dirEntry.VirtualAddress
			size = dirEntry.Size
		case false:
			dirEntry := oh32.DataDirectory[entryIndex]
			va = dirEntry.VirtualAddress
			size = dirEntry.Size
		}

		// The Certificate Table entry in the Data Directory is itself a
		// rewrite target (a new signature can be appended and the entry
		// repointed at it), so mark its slot regardless of whether the
		// binary is currently signed.
		if entryIndex == ImageDirectoryEntryCertificate {
			entryOffset := dataDirArrayStart + uint32(entryIndex)*8
			pe.markIgnored("Security directory entry", entryOffset, 8)
			pe.markModifiable(ModifiableSignatureDirectory, entryOffset, 8)
		}

		if va != 0 {
			func() {
				// keep parsing data directories even though some entries fails.
				defer func() {
					if e := recover(); e != nil {
						pe.logger.Errorf("unhandled exception when parsing data directory %s, reason: %v",
							entryIndex.String(), e)
						foundErr = true
					}
				}()

				parse, ok := funcMaps[entryIndex]
				if !ok {
					return
				}

				err := parse(va, size)
				if err != nil {
					pe.logger.Warnf("failed to parse data directory %s, reason: %v",
						entryIndex.String(), err)
				}
			}()
		}
	}

	if foundErr {
		return errors.New("Data directory parsing failed")
	}
	return nil
}
