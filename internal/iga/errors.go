package iga

import "errors"

var errNotAnArchive = errors.New("iga: bad magic")

// Scheme is one of the four per-entry compression schemes selected by the
// high nibble of FileInfo.BlockIndex.
type Scheme int

const (
	SchemeUncompressed Scheme = iota
	SchemeDeflate
	SchemeLZMA
	SchemeLZ4
)
