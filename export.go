package pe

import (
	"encoding/binary"
	"errors"
)

// ImageExportDirectory represents the IMAGE_EXPORT_DIRECTORY structure,
// which contains information exported by a DLL: the address, ordinal,
// and (optionally) name of every exported symbol.
type ImageExportDirectory struct {
	Characteristics       uint32 `json:"characteristics"`
	TimeDateStamp         uint32 `json:"time_date_stamp"`
	MajorVersion          uint16 `json:"major_version"`
	MinorVersion          uint16 `json:"minor_version"`
	Name                  uint32 `json:"name"`
	Base                  uint32 `json:"base"`
	NumberOfFunctions     uint32 `json:"number_of_functions"`
	NumberOfNames         uint32 `json:"number_of_names"`
	AddressOfFunctions    uint32 `json:"address_of_functions"`
	AddressOfNames        uint32 `json:"address_of_names"`
	AddressOfNameOrdinals uint32 `json:"address_of_name_ordinals"`
}

// ExportFunction represents a single exported symbol.
type ExportFunction struct {
	Ordinal      uint32 `json:"ordinal"`
	FunctionRVA  uint32 `json:"function_rva"`
	NameRVA      uint32 `json:"name_rva"`
	Name         string `json:"name"`
	Forwarder    string `json:"forwarder,omitempty"`
	// ForwarderRVA holds the file offset of the forwarder string.
	ForwarderRVA uint32 `json:"forwarder_rva,omitempty"`
}

// Export represents the export table of a PE image.
type Export struct {
	Struct    ImageExportDirectory `json:"struct"`
	Name      string               `json:"name"`
	Functions []ExportFunction     `json:"functions"`
}

// parseExportDirectory parses the export directory, the sole
// per-DLL-level directory carrying symbols other modules can import.
func (pe *File) parseExportDirectory(rva, size uint32) error {

	expDir := ImageExportDirectory{}
	expDirSize := uint32(binary.Size(expDir))
	offset := pe.GetOffsetFromRva(rva)
	if err := pe.structUnpack(&expDir, offset, expDirSize); err != nil {
		return errors.New("could not read the export directory")
	}

	pe.markIgnored("Export table timestamp",
		offset+4 /* Characteristics */, 4)

	export := Export{Struct: expDir}

	if expDir.Name != 0 {
		export.Name = pe.getStringAtRVA(expDir.Name, 256)
	}

	if expDir.NumberOfFunctions == 0 {
		pe.Export = export
		pe.HasExport = true
		return nil
	}
	numberOfFunctions := expDir.NumberOfFunctions
	if numberOfFunctions > maxExportFunctions {
		numberOfFunctions = maxExportFunctions
	}

	funcTableOffset := pe.GetOffsetFromRva(expDir.AddressOfFunctions)
	nameTableOffset := pe.GetOffsetFromRva(expDir.AddressOfNames)
	ordinalTableOffset := pe.GetOffsetFromRva(expDir.AddressOfNameOrdinals)

	// Build ordinal-index -> (name, nameRVA) from the (smaller) names table.
	type namedExport struct {
		name string
		rva  uint32
	}
	namesByOrdinalIndex := make(map[uint32]namedExport, expDir.NumberOfNames)
	for i := uint32(0); i < expDir.NumberOfNames; i++ {
		nameRVA, err := pe.ReadUint32(nameTableOffset + i*4)
		if err != nil {
			break
		}
		ordinalIndex, err := pe.ReadUint16(ordinalTableOffset + i*2)
		if err != nil {
			break
		}
		namesByOrdinalIndex[uint32(ordinalIndex)] = namedExport{
			name: pe.getStringAtRVA(nameRVA, 256),
			rva:  nameRVA,
		}
	}

	functions := make([]ExportFunction, 0, numberOfFunctions)
	for i := uint32(0); i < numberOfFunctions; i++ {
		funcRVA, err := pe.ReadUint32(funcTableOffset + i*4)
		if err != nil {
			break
		}

		fn := ExportFunction{
			Ordinal:     expDir.Base + i,
			FunctionRVA: funcRVA,
		}
		if named, ok := namesByOrdinalIndex[i]; ok {
			fn.Name = named.name
			fn.NameRVA = named.rva
		}

		// A function RVA inside the export directory itself is a
		// forwarder: "OtherDll.OtherFunctionName" stored as a string
		// instead of code.
		if funcRVA >= rva && funcRVA < rva+size {
			fn.Forwarder = pe.getStringAtRVA(funcRVA, 256)
			fn.ForwarderRVA = pe.GetOffsetFromRva(funcRVA)
		}

		functions = append(functions, fn)
	}
	export.Functions = functions

	pe.Export = export
	pe.HasExport = true
	return nil
}

// maxExportFunctions bounds how many export entries are walked, to
// avoid a corrupted NumberOfFunctions causing an unbounded loop.
const maxExportFunctions = 0x800000
