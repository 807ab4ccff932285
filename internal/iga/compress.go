package iga

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pierrec/lz4/v4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/arklib/igcore/internal/igerr"
)

const blockSize = 0x8000

// blockFlag reports whether codeword carries the compressed-data flag for
// the block it describes.
func blockFlag(codeword uint32) bool { return codeword>>31 != 0 }

// Decompress returns the uncompressed payload of entry. If the entry is
// stored uncompressed, its compressed buffer is returned as-is.
func Decompress(path string, entry *FileInfo) ([]byte, error) {
	if entry.Uncompressed() {
		return entry.CompressedData, nil
	}

	scheme := entry.Scheme()
	n := entry.blockCount()
	if len(entry.Blocks) != n {
		return nil, igerr.Wrap(igerr.UnsupportedCompression, path, "decompress",
			fmt.Errorf("entry hash %#x: have %d block codewords, want %d", entry.Hash, len(entry.Blocks), n))
	}

	out := make([]byte, entry.UncompressedLength)
	src := entry.CompressedData
	srcPos := 0
	outPos := 0

	for k := 0; k < n; k++ {
		var want int
		if k < n-1 {
			want = blockSize
		} else {
			want = int(entry.UncompressedLength & 0x7FFF)
			if want == 0 {
				want = blockSize
			}
		}

		compressed := blockFlag(entry.Blocks[k])

		if !compressed {
			if srcPos+want > len(src) {
				return nil, igerr.Wrap(igerr.UnsupportedCompression, path, "decompress",
					fmt.Errorf("entry hash %#x: truncated raw block %d", entry.Hash, k))
			}
			copy(out[outPos:outPos+want], src[srcPos:srcPos+want])
			srcPos += want
			outPos += want
			continue
		}

		if srcPos+2 > len(src) {
			return nil, igerr.Wrap(igerr.UnsupportedCompression, path, "decompress",
				fmt.Errorf("entry hash %#x: truncated block-length prefix at block %d", entry.Hash, k))
		}
		compLen := int(binary.LittleEndian.Uint16(src[srcPos:]))
		srcPos += 2
		if srcPos+compLen > len(src) {
			return nil, igerr.Wrap(igerr.UnsupportedCompression, path, "decompress",
				fmt.Errorf("entry hash %#x: truncated compressed block %d", entry.Hash, k))
		}
		block := src[srcPos : srcPos+compLen]
		srcPos += compLen

		dst := out[outPos : outPos+want]
		if err := decompressBlock(scheme, block, dst); err != nil {
			return nil, igerr.Wrap(igerr.UnsupportedCompression, path, "decompress", err)
		}
		outPos += want
	}

	return out, nil
}

func decompressBlock(scheme Scheme, block []byte, dst []byte) error {
	switch scheme {
	case SchemeDeflate:
		fr := flate.NewReader(bytes.NewReader(block))
		defer fr.Close()
		_, err := io.ReadFull(fr, dst)
		return err

	case SchemeLZMA:
		if len(block) < 5 {
			return fmt.Errorf("iga: lzma block too short for properties header")
		}
		propsByte := block[0]
		props := lzma.Properties{
			LC: int(propsByte % 9),
			LP: int((propsByte / 9) % 5),
			PB: int(propsByte / 45),
		}
		dictSize := binary.LittleEndian.Uint32(block[1:5])
		cfg := lzma.ReaderConfig{
			Properties: &props,
			DictCap:    int(dictSize),
			SizeInHeader: false,
			Size:       int64(len(dst)),
		}
		r, err := cfg.NewReader(bytes.NewReader(block[5:]))
		if err != nil {
			return fmt.Errorf("iga: lzma reader: %w", err)
		}
		_, err = io.ReadFull(r, dst)
		return err

	case SchemeLZ4:
		n, err := lz4.UncompressBlock(block, dst)
		if err != nil {
			return fmt.Errorf("iga: lz4 block: %w", err)
		}
		if n != len(dst) {
			return fmt.Errorf("iga: lz4 block: decoded %d bytes, want %d", n, len(dst))
		}
		return nil

	default:
		return fmt.Errorf("iga: unsupported compression scheme %d", scheme)
	}
}
