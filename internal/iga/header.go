// Package iga implements the IGA archive codec: header/TOC/name-table/
// block-index parsing, the hash-search lookup over sorted entry hashes, and
// per-entry variable decompression.
package iga

import (
	"bytes"

	"github.com/arklib/igcore/internal/binio"
)

// Magic is the 4-byte IGA magic, "IGA" followed by 0x1A.
var Magic = [4]byte{'I', 'G', 'A', 0x1A}

// Supported archive versions. 0x04 is present in the grammar but
// intentionally unimplemented upstream; it is rejected here too.
const (
	Version04 = 0x04
	Version08 = 0x08
	Version0A = 0x0A
	Version0B = 0x0B
	Version0C = 0x0C
	Version0D = 0x0D
)

// Header flag bits.
const (
	FlagCaseInsensitive  uint32 = 1 << 0 // hash filename case-insensitively
	FlagHashBasenameOnly uint32 = 1 << 1 // hash filename+extension only, stripping directory
)

// Header is the fixed portion of an IGA container, as described in §4.3 of
// the format spec.
type Header struct {
	Magic               [4]byte
	Version             uint32
	TOCSize             uint32
	NumFiles            uint32
	SectorSize          uint32
	HashSearchDivider    uint32
	HashSearchSlop       uint32
	NumLargeFileBlocks  uint32
	NumMediumFileBlocks uint32
	NumSmallFileBlocks  uint32
	NameTableOffset     uint64
	NameTableSize       uint32
	Flags               uint32
	Endian              binio.Endian
}

func isSupportedVersion(v uint32) bool {
	switch v {
	case Version08, Version0A, Version0B, Version0C, Version0D:
		return true
	}
	return false
}

// detectEndian reads the 4-byte magic and resolves the cursor's endianness
// by comparing both interpretations against Magic, per step 1 of §4.3.1.
func detectEndian(buf []byte) (binio.Endian, error) {
	if len(buf) < 4 {
		return binio.Unknown, errNotAnArchive
	}
	if bytes.Equal(buf[:4], Magic[:]) {
		return binio.Little, nil
	}
	var reversed [4]byte
	for i, b := range buf[:4] {
		reversed[3-i] = b
	}
	if reversed == Magic {
		return binio.Big, nil
	}
	return binio.Unknown, errNotAnArchive
}
