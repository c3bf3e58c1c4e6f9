package pe

import (
	"bytes"
	"encoding/binary"
	"sort"
)

// alignBuf pads b up to a 4-byte boundary with zero bytes.
func alignBuf(b *bytes.Buffer) {
	for b.Len()%4 != 0 {
		b.WriteByte(0)
	}
}

func writeWideString(b *bytes.Buffer, s string) error {
	encoded, err := EncodeUTF16String(s)
	if err != nil {
		return err
	}
	b.Write(encoded)
	return nil
}

// serializeVersionInfo re-builds a VS_VERSIONINFO resource block from
// scratch: VS_FIXEDFILEINFO and a single-language StringFileInfo/
// StringTable, keyed by langID, holding strings. No VarFileInfo/Translation
// block is written.
func serializeVersionInfo(fixed VsFixedFileInfo, strings map[string]string, langID string) ([]byte, error) {

	fixedBuf := &bytes.Buffer{}
	if err := binary.Write(fixedBuf, binary.LittleEndian, fixed); err != nil {
		return nil, err
	}

	stringTableBody := &bytes.Buffer{}
	keys := make([]string, 0, len(strings))
	for k := range strings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := strings[k]
		entry := &bytes.Buffer{}
		if err := writeWideString(entry, k); err != nil {
			return nil, err
		}
		alignBuf(entry)
		valueStart := entry.Len()
		if err := writeWideString(entry, v); err != nil {
			return nil, err
		}
		valueLenWords := uint16((entry.Len() - valueStart) / 2)

		header := &bytes.Buffer{}
		// Length is filled in once the body is known.
		binary.Write(header, binary.LittleEndian, uint16(0))
		binary.Write(header, binary.LittleEndian, valueLenWords)
		binary.Write(header, binary.LittleEndian, uint16(1))
		header.Write(entry.Bytes())
		alignBuf(header)
		total := header.Bytes()
		binary.LittleEndian.PutUint16(total[0:2], uint16(len(total)))

		stringTableBody.Write(total)
	}

	stringTable := &bytes.Buffer{}
	binary.Write(stringTable, binary.LittleEndian, uint16(0))
	binary.Write(stringTable, binary.LittleEndian, uint16(0))
	binary.Write(stringTable, binary.LittleEndian, uint16(1))
	if err := writeWideString(stringTable, langID); err != nil {
		return nil, err
	}
	alignBuf(stringTable)
	stringTable.Write(stringTableBody.Bytes())
	stBytes := stringTable.Bytes()
	binary.LittleEndian.PutUint16(stBytes[0:2], uint16(len(stBytes)))

	stringFileInfo := &bytes.Buffer{}
	binary.Write(stringFileInfo, binary.LittleEndian, uint16(0))
	binary.Write(stringFileInfo, binary.LittleEndian, uint16(0))
	binary.Write(stringFileInfo, binary.LittleEndian, uint16(1))
	if err := writeWideString(stringFileInfo, StringFileInfoString); err != nil {
		return nil, err
	}
	alignBuf(stringFileInfo)
	stringFileInfo.Write(stBytes)
	sfiBytes := stringFileInfo.Bytes()
	binary.LittleEndian.PutUint16(sfiBytes[0:2], uint16(len(sfiBytes)))

	root := &bytes.Buffer{}
	binary.Write(root, binary.LittleEndian, uint16(0))
	binary.Write(root, binary.LittleEndian, uint16(fixedBuf.Len()))
	binary.Write(root, binary.LittleEndian, uint16(0))
	if err := writeWideString(root, VsVersionInfoString); err != nil {
		return nil, err
	}
	alignBuf(root)
	root.Write(fixedBuf.Bytes())
	alignBuf(root)
	root.Write(sfiBytes)
	alignBuf(root)
	rootBytes := root.Bytes()
	binary.LittleEndian.PutUint16(rootBytes[0:2], uint16(len(rootBytes)))

	return rootBytes, nil
}
