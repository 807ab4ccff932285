// Package igz deserializes IGZ object-graph files: a post-processed memory
// dump of reflected objects that must be relocated through a pointer table
// before any pointer inside them can be dereferenced (spec.md §4.7).
//
// Grounding note: `original_source/ig-library/src/core/load/ig_igz_loader.rs`
// only stubs the header read (magic + endian detection + the first three
// header words) before giving up; the fixup-block processing, packed-int
// codec and serialized-offset translation below have no surviving
// reference implementation in the pack and are implemented directly from
// spec.md §4.7, which fully specifies them.
package igz

import (
	"fmt"

	"github.com/arklib/igcore/internal/binio"
)

// Header is the fixed 20-byte IGZ header: magic plus four version/platform
// words.
type Header struct {
	Version           uint32
	MetaObjectVersion uint32
	PlatformIndex     uint32
	FixupCount        uint32
	Endian            binio.Endian
}

var leMagic = [4]byte{'I', 'G', 'Z', 0x01}

// detectEndian reads the first four bytes of buf under both byte orders and
// compares against the magic; exactly one must match.
func detectEndian(buf []byte) (binio.Endian, error) {
	if len(buf) < 4 {
		return binio.Unknown, fmt.Errorf("igz: buffer too short for magic")
	}
	if buf[0] == leMagic[0] && buf[1] == leMagic[1] && buf[2] == leMagic[2] && buf[3] == leMagic[3] {
		return binio.Little, nil
	}
	if buf[3] == leMagic[0] && buf[2] == leMagic[1] && buf[1] == leMagic[2] && buf[0] == leMagic[3] {
		return binio.Big, nil
	}
	return binio.Unknown, fmt.Errorf("igz: magic mismatch")
}

// readHeader reads the header at the cursor's current position (expected to
// be 0) and leaves the cursor positioned at byte 0x14, the start of the
// section table.
func readHeader(c *binio.Cursor) (Header, error) {
	var h Header
	h.Endian = c.Endian()

	if _, err := c.ReadU32(); err != nil { // magic, already validated
		return h, err
	}
	v, err := c.ReadU32()
	if err != nil {
		return h, err
	}
	h.Version = v

	mov, err := c.ReadU32()
	if err != nil {
		return h, err
	}
	h.MetaObjectVersion = mov

	plat, err := c.ReadU32()
	if err != nil {
		return h, err
	}
	h.PlatformIndex = plat

	fixups, err := c.ReadU32()
	if err != nil {
		return h, err
	}
	h.FixupCount = fixups

	return h, nil
}
