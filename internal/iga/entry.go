package iga

// noBlockIndex marks an entry that is stored uncompressed: it has no block
// codewords (Blocks is nil).
const noBlockIndex uint32 = 0xFFFFFFFF

// FileInfo describes one archive entry.
type FileInfo struct {
	Hash                uint32
	Offset              uint32
	Ordinal             uint32
	UncompressedLength  uint32
	BlockIndex          uint32
	RealName            string
	LogicalName         string
	ModificationTime    uint32
	Blocks              []uint32 // 32-bit codewords; absent iff BlockIndex == noBlockIndex
	CompressedData      []byte
}

// Uncompressed reports whether the entry is stored without compression.
func (f *FileInfo) Uncompressed() bool { return f.BlockIndex == noBlockIndex }

// Scheme returns the compression scheme selected by the entry's block
// index. Only meaningful when !Uncompressed().
func (f *FileInfo) Scheme() Scheme { return Scheme(f.BlockIndex >> 28) }

// blockCount is ceil(UncompressedLength / 0x8000).
func (f *FileInfo) blockCount() int {
	const blockSize = 0x8000
	return int((f.UncompressedLength + blockSize - 1) / blockSize)
}
