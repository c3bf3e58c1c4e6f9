package pe

import "encoding/binary"

// ImageDelayImportDescriptor describes one DLL a binary imports lazily:
// the DLL is only loaded and its functions resolved the first time one
// of them is actually called, via a small stub the linker generates.
type ImageDelayImportDescriptor struct {
	// Attributes is almost always 1; a value of 0 marks an old-format
	// descriptor (pre-dating the RVA-based layout) whose table fields
	// hold virtual addresses instead of RVAs.
	Attributes uint32 `json:"attributes"`

	// Name is the RVA of the DLL name string.
	Name uint32 `json:"name"`

	// ModuleHandleRVA is the RVA of the module handle (set by the delay
	// load helper the first time the DLL is loaded).
	ModuleHandleRVA uint32 `json:"module_handle_rva"`

	// ImportAddressTableRVA is the RVA of the delay-load IAT.
	ImportAddressTableRVA uint32 `json:"import_address_table_rva"`

	// ImportNameTableRVA is the RVA of the delay-load INT, parallel to
	// the IAT, holding names/ordinals rather than resolved addresses.
	ImportNameTableRVA uint32 `json:"import_name_table_rva"`

	// BoundImportAddressTableRVA is the RVA of an optional bound IAT.
	BoundImportAddressTableRVA uint32 `json:"bound_import_address_table_rva"`

	// UnloadInformationTableRVA is the RVA of an optional unload IAT,
	// a copy of the original IAT kept so the DLL can be unloaded cleanly.
	UnloadInformationTableRVA uint32 `json:"unload_information_table_rva"`

	// TimeDateStamp is zero until the image is bound.
	TimeDateStamp uint32 `json:"time_date_stamp"`
}

// DelayImport represents one delay-loaded DLL and the functions imported
// from it, mirroring Import but for the delay-load descriptor table.
type DelayImport struct {
	Offset     uint32                     `json:"offset"`
	Name       string                     `json:"name"`
	Functions  []ImportFunction           `json:"functions"`
	Descriptor ImageDelayImportDescriptor `json:"descriptor"`
}

func (pe *File) parseDelayImportDirectory(rva, size uint32) error {

	delayImportTableStart := pe.GetOffsetFromRva(rva)

	for {
		importDesc := ImageDelayImportDescriptor{}
		fileOffset := pe.GetOffsetFromRva(rva)
		importDescSize := uint32(binary.Size(importDesc))
		err := pe.structUnpack(&importDesc, fileOffset, importDescSize)
		if err != nil {
			return err
		}

		if importDesc == (ImageDelayImportDescriptor{}) {
			break
		}

		pe.markIgnored("Delay import descriptor timestamp", fileOffset+28, 4)

		rva += importDescSize

		maxLen := uint32(len(pe.data)) - fileOffset
		if rva > importDesc.ImportNameTableRVA || rva > importDesc.ImportAddressTableRVA {
			if rva < importDesc.ImportNameTableRVA {
				maxLen = rva - importDesc.ImportAddressTableRVA
			} else if rva < importDesc.ImportAddressTableRVA {
				maxLen = rva - importDesc.ImportNameTableRVA
			} else {
				maxLen = Max(rva-importDesc.ImportNameTableRVA,
					rva-importDesc.ImportAddressTableRVA)
			}
		}

		var importedFunctions []ImportFunction
		if pe.Is64 {
			importedFunctions, err = pe.parseImports64(&importDesc, maxLen)
		} else {
			importedFunctions, err = pe.parseImports32(&importDesc, maxLen)
		}
		if err != nil {
			return err
		}

		dllName := pe.getStringAtRVA(importDesc.Name, maxDllLength)
		if !IsValidDosFilename(dllName) {
			dllName = "*invalid*"
			continue
		}

		pe.DelayImports = append(pe.DelayImports, DelayImport{
			Offset:     fileOffset,
			Name:       string(dllName),
			Functions:  importedFunctions,
			Descriptor: importDesc,
		})
	}

	if len(pe.DelayImports) > 0 {
		pe.HasDelayImp = true
		pe.markInteresting("Delay import directory", delayImportTableStart,
			pe.GetOffsetFromRva(rva)-delayImportTableStart)
	}

	return nil
}
