package iga

import (
	"bytes"
	"fmt"
	"os"

	"github.com/google/renameio"
)

// PatchEntry replaces the uncompressed payload of the named entry in-place
// and rewrites the archive atomically. The replacement payload must be no
// larger than the existing entry's declared uncompressed length, and only
// uncompressed entries may be patched: this is a narrow "patch an existing
// asset" operation, not a packager (the codec reads and may patch; it does
// not author new archives from scratch).
func PatchEntry(diskPath string, a *Archive, name string, payload []byte) error {
	fi, ok := a.Find(name)
	if !ok {
		return fmt.Errorf("iga: patch target %q not found in %s", name, diskPath)
	}
	if !fi.Uncompressed() {
		return fmt.Errorf("iga: patch target %q is compressed; only uncompressed entries can be patched", name)
	}
	if len(payload) > int(fi.UncompressedLength) {
		return fmt.Errorf("iga: patch payload (%d bytes) exceeds entry capacity (%d bytes)", len(payload), fi.UncompressedLength)
	}

	raw, err := os.ReadFile(diskPath)
	if err != nil {
		return fmt.Errorf("iga: reading %s for patch: %w", diskPath, err)
	}

	out := bytes.NewBuffer(make([]byte, 0, len(raw)))
	out.Write(raw[:fi.Offset])
	out.Write(payload)
	pad := int(fi.UncompressedLength) - len(payload)
	if pad > 0 {
		out.Write(make([]byte, pad))
	}
	tail := int(fi.Offset) + int(fi.UncompressedLength)
	out.Write(raw[tail:])

	if out.Len() != len(raw) {
		return fmt.Errorf("iga: patch produced %d bytes, expected %d", out.Len(), len(raw))
	}

	return renameio.WriteFile(diskPath, out.Bytes(), 0o644)
}
