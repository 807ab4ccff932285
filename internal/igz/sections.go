package igz

import (
	"github.com/arklib/igcore/internal/binio"
)

const (
	sectionTableOffset = 0x14
	maxSections        = 32
	poolNameBase       = 0x224
)

// Section is one of the up-to-32 16-byte records following the header.
// Record 0 carries the fixup-block offset; records 1..N each declare a
// loaded memory pool and its base pointer.
type Section struct {
	PoolNamePointer uint32
	Offset          uint32
	Length          uint32
	Alignment       uint32
}

// Pool is a named memory pool declared by a non-zero-index section.
type Pool struct {
	Name   string
	Offset uint32
	Length uint32
}

// readSections reads the section table starting at sectionTableOffset,
// stopping at the first record whose Offset is zero (or after maxSections
// records). Returns the fixup-block section (record 0) and the declared
// pools (records 1..N).
func readSections(c *binio.Cursor) (fixup Section, pools []Pool, err error) {
	if err = c.Seek(sectionTableOffset); err != nil {
		return fixup, nil, err
	}

	for i := 0; i < maxSections; i++ {
		var s Section
		if s.PoolNamePointer, err = c.ReadU32(); err != nil {
			return fixup, nil, err
		}
		if s.Offset, err = c.ReadU32(); err != nil {
			return fixup, nil, err
		}
		if s.Length, err = c.ReadU32(); err != nil {
			return fixup, nil, err
		}
		if s.Alignment, err = c.ReadU32(); err != nil {
			return fixup, nil, err
		}

		if s.Offset == 0 {
			break
		}
		if i == 0 {
			fixup = s
			continue
		}

		name, nerr := readPoolName(c, s.PoolNamePointer)
		if nerr != nil {
			return fixup, nil, nerr
		}
		pools = append(pools, Pool{Name: name, Offset: s.Offset, Length: s.Length})
	}

	return fixup, pools, nil
}

// readPoolName reads the NUL-terminated pool name at poolNameBase+ptr
// without disturbing the caller's cursor position.
func readPoolName(c *binio.Cursor, ptr uint32) (string, error) {
	saved := c.Pos()
	defer c.Seek(saved)

	if err := c.Seek(poolNameBase + int(ptr)); err != nil {
		return "", err
	}
	return c.ReadString()
}
