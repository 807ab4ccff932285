package iga

import (
	"fmt"

	"github.com/arklib/igcore/internal/binio"
	"github.com/arklib/igcore/internal/igerr"
	"github.com/arklib/igcore/internal/registry"
)

// Archive represents one opened IGA container.
type Archive struct {
	path   string
	name   string
	header Header
	// Files is sorted ascending by Hash; this ordering is an invariant the
	// hash search depends on.
	Files []FileInfo
}

// Path returns the archive's source path.
func (a *Archive) Path() string     { return a.path }
func (a *Archive) Name() string     { return a.name }
func (a *Archive) Header() Header   { return a.header }

func headerSize(version uint32) (int, error) {
	switch version {
	case Version0A, Version0B, Version0C, Version0D:
		return 0x38, nil
	case Version08:
		return 0x34, nil
	}
	return 0, fmt.Errorf("iga: unsupported version %#x", version)
}

func fileInfoSize(version uint32) (int, error) {
	switch version {
	case Version0A, Version0B, Version0C, Version0D:
		return 0x10, nil
	case Version08:
		return 0x0C, nil
	}
	return 0, fmt.Errorf("iga: unsupported version %#x", version)
}

// Open parses buf (the full content of an IGA file) into an Archive.
func Open(path string, buf []byte, reg *registry.Registry) (*Archive, error) {
	end, err := detectEndian(buf)
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "magic", err)
	}

	c, err := binio.NewCursor(buf, end)
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "magic", err)
	}
	if _, err := c.ReadBytes(4); err != nil { // consume magic
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "magic", err)
	}

	version, err := c.ReadU32()
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "version", err)
	}
	if version == Version04 {
		return nil, igerr.Wrap(igerr.UnsupportedArchiveVersion, path, "version",
			fmt.Errorf("version %#x (0x04) is present in the grammar but intentionally unimplemented", version))
	}
	if !isSupportedVersion(version) {
		return nil, igerr.Wrap(igerr.UnsupportedArchiveVersion, path, "version",
			fmt.Errorf("version %#x", version))
	}

	h := Header{Magic: Magic, Version: version, Endian: end}

	switch {
	case version >= Version0A: // 0x0A..0x0D
		h.TOCSize, _ = c.ReadU32()
		h.NumFiles, _ = c.ReadU32()
		h.SectorSize, _ = c.ReadU32()
		h.HashSearchDivider, _ = c.ReadU32()
		h.HashSearchSlop, _ = c.ReadU32()
		h.NumLargeFileBlocks, _ = c.ReadU32()
		h.NumMediumFileBlocks, _ = c.ReadU32()
		h.NumSmallFileBlocks, _ = c.ReadU32()
		h.NameTableOffset, err = c.ReadU64()
		h.NameTableSize, _ = c.ReadU32()
		h.Flags, _ = c.ReadU32()
	case version == Version08:
		h.TOCSize, _ = c.ReadU32()
		h.NumFiles, _ = c.ReadU32()
		h.SectorSize, _ = c.ReadU32()
		h.HashSearchDivider, _ = c.ReadU32()
		h.HashSearchSlop, _ = c.ReadU32()
		var nameOff uint32
		nameOff, err = c.ReadU32()
		h.NameTableOffset = uint64(nameOff)
		h.NameTableSize, _ = c.ReadU32()
		h.NumLargeFileBlocks, _ = c.ReadU32()
		h.NumMediumFileBlocks, _ = c.ReadU32()
		h.NumSmallFileBlocks, _ = c.ReadU32()
		h.Flags, _ = c.ReadU32()
	}
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "header", err)
	}

	files := make([]FileInfo, h.NumFiles)
	for i := range files {
		hash, err := c.ReadU32()
		if err != nil {
			return nil, igerr.Wrap(igerr.NotAnArchive, path, "hash-table", err)
		}
		files[i].Hash = hash
	}

	for i := range files {
		f := &files[i]
		switch {
		case version == Version0B || version == Version0D || version == Version0A || version == Version0C:
			tmp, err := c.ReadU64()
			if err != nil {
				return nil, igerr.Wrap(igerr.NotAnArchive, path, "toc", err)
			}
			f.Ordinal = uint32(tmp >> 40)
			// NOTE: the on-disk layout suggests offset should be 5 bytes;
			// this reads the low 4 bytes only, matching the reference
			// implementation's latent (and apparently load-bearing)
			// behavior. See SPEC_FULL.md §3.
			f.Offset = uint32(tmp & 0xFFFFFFFF)
			f.UncompressedLength, err = c.ReadU32()
			if err != nil {
				return nil, igerr.Wrap(igerr.NotAnArchive, path, "toc", err)
			}
			f.BlockIndex, err = c.ReadU32()
			if err != nil {
				return nil, igerr.Wrap(igerr.NotAnArchive, path, "toc", err)
			}
		case version == Version08:
			f.Offset, _ = c.ReadU32()
			f.UncompressedLength, _ = c.ReadU32()
			f.BlockIndex, err = c.ReadU32()
			if err != nil {
				return nil, igerr.Wrap(igerr.NotAnArchive, path, "toc", err)
			}
		}
	}

	if err := readNameTable(c, &h, files, reg); err != nil {
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "name-table", err)
	}

	hdrSize, err := headerSize(version)
	if err != nil {
		return nil, igerr.Wrap(igerr.UnsupportedArchiveVersion, path, "block-index", err)
	}
	fiSize, err := fileInfoSize(version)
	if err != nil {
		return nil, igerr.Wrap(igerr.UnsupportedArchiveVersion, path, "block-index", err)
	}
	blockInfoStart := hdrSize + int(h.NumFiles)*(0x04+fiSize)
	if err := c.Seek(blockInfoStart); err != nil {
		return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", err)
	}

	large := make([]uint32, h.NumLargeFileBlocks)
	for i := range large {
		large[i], err = c.ReadU32()
		if err != nil {
			return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", err)
		}
	}
	medium := make([]uint16, h.NumMediumFileBlocks)
	for i := range medium {
		medium[i], err = c.ReadU16()
		if err != nil {
			return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", err)
		}
	}
	small := make([]uint8, h.NumSmallFileBlocks)
	for i := range small {
		small[i], err = c.ReadU8()
		if err != nil {
			return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", err)
		}
	}

	for i := range files {
		f := &files[i]
		if err := c.Seek(int(f.Offset)); err != nil {
			return nil, igerr.Wrap(igerr.NotAnArchive, path, "entry-data", err)
		}
		if f.Uncompressed() {
			f.CompressedData, err = c.ReadBytes(int(f.UncompressedLength))
			if err != nil {
				return nil, igerr.Wrap(igerr.NotAnArchive, path, "entry-data", err)
			}
			continue
		}

		blockCount := f.blockCount()
		fixedBlocks := make([]uint32, blockCount)
		var sectorCount uint32
		baseIdx := f.BlockIndex & 0x0FFFFFFF

		for i := 0; i < blockCount; i++ {
			blockIdx := int(baseIdx) + i
			var block uint32
			var isCompressed bool
			switch {
			case uint32(0x7FFF)*h.SectorSize < f.UncompressedLength:
				if blockIdx+1 >= len(large) {
					return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", fmt.Errorf("large block table index %d out of range", blockIdx))
				}
				block = large[blockIdx]
				isCompressed = block>>31 == 1
				block &= 0x7FFFFFFF
				sectorCount += (large[blockIdx+1] & 0x7FFFFFFF) - block
			case uint32(0x7F)*h.SectorSize < f.UncompressedLength:
				if blockIdx+1 >= len(medium) {
					return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", fmt.Errorf("medium block table index %d out of range", blockIdx))
				}
				block = uint32(medium[blockIdx])
				isCompressed = block>>15 == 1
				block &= 0x7FFF
				sectorCount += uint32(medium[blockIdx+1])&0x7FFF - block
			default:
				if blockIdx+1 >= len(small) {
					return nil, igerr.Wrap(igerr.NotAnArchive, path, "block-index", fmt.Errorf("small block table index %d out of range", blockIdx))
				}
				block = uint32(small[blockIdx])
				isCompressed = block>>7 == 1
				block &= 0x7F
				sectorCount += uint32(small[blockIdx+1])&0x7F - block
			}
			flag := uint32(0)
			if isCompressed {
				flag = 0x80000000
			}
			fixedBlocks[i] = flag | block
		}

		f.Blocks = fixedBlocks
		f.CompressedData, err = c.ReadBytes(int(sectorCount * h.SectorSize))
		if err != nil {
			return nil, igerr.Wrap(igerr.NotAnArchive, path, "entry-data", err)
		}
	}

	a := &Archive{path: path, header: h, Files: files}
	return a, nil
}

func readNameTable(c *binio.Cursor, h *Header, files []FileInfo, reg *registry.Registry) error {
	for i := range files {
		f := &files[i]
		if err := c.Seek(int(h.NameTableOffset) + i*4); err != nil {
			return err
		}
		innerPtr, err := c.ReadU32()
		if err != nil {
			return err
		}
		if err := c.Seek(int(h.NameTableOffset) + int(innerPtr)); err != nil {
			return err
		}
		name1, err := c.ReadString()
		if err != nil {
			return err
		}
		var name2 string
		if h.Version >= Version0A {
			name2, err = c.ReadString()
			if err != nil {
				return err
			}
		}
		if h.Version >= Version08 {
			f.ModificationTime, err = c.ReadU32()
			if err != nil {
				return err
			}
		}

		alternate := reg != nil && reg.BuildTool() == registry.Alternate
		if h.Version >= Version0B || alternate {
			f.RealName = name1
			f.LogicalName = name2
		} else {
			f.LogicalName = name1
			f.RealName = name2
		}
	}
	return nil
}
