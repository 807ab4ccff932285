package igz

import (
	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/binio"
)

// Fixup block magics (§4.7.2), stored as literal 4-byte ASCII tags.
var (
	magicTDEP = [4]byte{'T', 'D', 'E', 'P'}
	magicTMET = [4]byte{'T', 'M', 'E', 'T'}
	magicTSTR = [4]byte{'T', 'S', 'T', 'R'}
	magicEXID = [4]byte{'E', 'X', 'I', 'D'}
	magicEXNM = [4]byte{'E', 'X', 'N', 'M'}
	magicTMHN = [4]byte{'T', 'M', 'H', 'N'}
	magicRVTB = [4]byte{'R', 'V', 'T', 'B'}
	magicROOT = [4]byte{'R', 'O', 'O', 'T'}
	magicROFS = [4]byte{'R', 'O', 'F', 'S'}
	magicRPID = [4]byte{'R', 'P', 'I', 'D'}
	magicRSTT = [4]byte{'R', 'S', 'T', 'T'}
	magicRSTR = [4]byte{'R', 'S', 'T', 'R'}
	magicRMHN = [4]byte{'R', 'M', 'H', 'N'}
	magicREXT = [4]byte{'R', 'E', 'X', 'T'}
	magicRNEX = [4]byte{'R', 'N', 'E', 'X'}
	magicRHND = [4]byte{'R', 'H', 'N', 'D'}
	magicONAM = [4]byte{'O', 'N', 'A', 'M'}
)

// fixupBlock is one {magic, count, length, start} record in the fixup
// section.
type fixupBlock struct {
	Magic  [4]byte
	Count  uint32
	Length uint32
	Start  uint32
}

// Dependency is one TDEP entry: the name a dependency should be indexed
// under plus the path to load it from.
type Dependency struct {
	Name string
	Path string
}

// Hooks lets the owning directory/stream manager participate in
// cross-file fixups without igz importing that package back.
type Hooks interface {
	// LoadDependencies recursively loads every entry in deps, registering
	// each under its declared name for later name-hash lookups (EXID/EXNM).
	// A TDEP block's entries are independent of one another (spec.md §5),
	// so an implementation is free to load them concurrently. Per-entry
	// errors are logged and swallowed per §4.7.6's "transient errors"
	// policy; LoadDependencies itself never fails.
	LoadDependencies(deps []Dependency)
	// DirectoryByName looks up a previously loaded directory by its name
	// hash, for EXID resolution.
	DirectoryByName(nameHash uint32) (any, bool)
	// ResolveExternal resolves a namespace/name pair through the external
	// reference system, for EXNM resolution.
	ResolveExternal(namespace string, name string) (any, bool)
}

type noopHooks struct{}

func (noopHooks) LoadDependencies([]Dependency)              {}
func (noopHooks) DirectoryByName(uint32) (any, bool)         { return nil, false }
func (noopHooks) ResolveExternal(string, string) (any, bool) { return nil, false }

func (d *Deserializer) processFixups(section Section) error {
	if section.Offset == 0 {
		return nil
	}
	headerPos := int(section.Offset)

	for i := uint32(0); i < d.header.FixupCount; i++ {
		if err := d.cur.Seek(headerPos); err != nil {
			return xerrors.Errorf("igz: fixup block %d header: %w", i, err)
		}
		block, err := readFixupBlock(d.cur)
		if err != nil {
			return xerrors.Errorf("igz: fixup block %d: %w", i, err)
		}

		if err := d.processOneFixup(block); err != nil {
			return xerrors.Errorf("igz: processing fixup %q: %w", block.Magic, err)
		}

		headerPos += int(block.Length)
	}
	return nil
}

func readFixupBlock(c *binio.Cursor) (fixupBlock, error) {
	var b fixupBlock
	raw, err := c.ReadBytes(4)
	if err != nil {
		return b, err
	}
	copy(b.Magic[:], raw)
	if b.Count, err = c.ReadU32(); err != nil {
		return b, err
	}
	if b.Length, err = c.ReadU32(); err != nil {
		return b, err
	}
	if b.Start, err = c.ReadU32(); err != nil {
		return b, err
	}
	return b, nil
}

func (d *Deserializer) processOneFixup(b fixupBlock) error {
	switch b.Magic {
	case magicTDEP:
		return d.processTDEP(b)
	case magicTMET:
		return d.processTMET(b)
	case magicTSTR:
		return d.processTSTR(b)
	case magicEXID:
		return d.processEXID(b)
	case magicEXNM:
		return d.processEXNM(b)
	case magicTMHN:
		return nil // retained but opaque; no payload interpretation needed
	case magicRVTB:
		return d.processRVTB(b)
	case magicROOT:
		return d.processROOT(b)
	case magicROFS:
		return d.processROFS(b)
	case magicRPID:
		return d.processRPID(b)
	case magicRSTT:
		return d.processRSTT(b)
	case magicRSTR:
		return d.processRSTR(b)
	case magicRMHN, magicREXT, magicRNEX, magicRHND:
		return nil // packed, consumed on demand by readers; nothing to precompute
	case magicONAM:
		return d.processONAM(b)
	default:
		d.log.Printf("igz: %s: unknown fixup magic %q, skipping", d.path, b.Magic)
		return nil
	}
}

func (d *Deserializer) seekPayload(start uint32) error {
	return d.cur.Seek(int(start))
}

func (d *Deserializer) processTDEP(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	var deps []Dependency
	for i := uint32(0); i < b.Count; i++ {
		name, err := d.cur.ReadString()
		if err != nil {
			return err
		}
		path, err := d.cur.ReadString()
		if err != nil {
			return err
		}
		if len(path) >= 7 && path[:7] == "<build>" {
			continue
		}
		deps = append(deps, Dependency{Name: name, Path: path})
	}
	d.dependencies = append(d.dependencies, deps...)
	if len(deps) > 0 {
		d.hooks.LoadDependencies(deps)
	}
	return nil
}

func (d *Deserializer) processTMET(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	for i := uint32(0); i < b.Count; i++ {
		name, err := d.cur.ReadString()
		if err != nil {
			return err
		}
		desc, derr := d.mm.Descriptor(name)
		if derr != nil {
			// Every vtable index subsequently refers into this list; an
			// unresolved name must still reserve a slot so indices stay
			// aligned (§4.7.6).
			d.log.Printf("igz: %s: unresolved type %q in TMET, reserving sentinel slot: %v", d.path, name, derr)
			d.vtable = append(d.vtable, nil)
			continue
		}
		d.vtable = append(d.vtable, desc)
	}
	return nil
}

func (d *Deserializer) processTSTR(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	for i := uint32(0); i < b.Count; i++ {
		s, err := d.cur.ReadString()
		if err != nil {
			return err
		}
		d.strings = append(d.strings, s)
	}
	return nil
}

func (d *Deserializer) processEXID(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	for i := uint32(0); i < b.Count; i++ {
		nameHash, err := d.cur.ReadU32()
		if err != nil {
			return err
		}
		namespaceHash, err := d.cur.ReadU32()
		if err != nil {
			return err
		}
		if _, ok := d.hooks.DirectoryByName(namespaceHash); !ok {
			d.log.Printf("igz: %s: EXID namespace %#x not found for name %#x", d.path, namespaceHash, nameHash)
		}
	}
	return nil
}

func (d *Deserializer) processEXNM(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	for i := uint32(0); i < b.Count; i++ {
		word, err := d.cur.ReadU64()
		if err != nil {
			return err
		}
		nsIndex := uint32(word >> 32)
		nameIndex := uint32(word)
		isHandle := nsIndex&0x80000000 != 0
		nsIndex &^= 0x80000000

		ns, nsOK := d.stringAt(nsIndex)
		name, nameOK := d.stringAt(nameIndex)
		if !nsOK || !nameOK {
			d.log.Printf("igz: %s: EXNM entry %d has out-of-range string index", d.path, i)
			continue
		}
		if isHandle {
			if _, ok := d.hooks.ResolveExternal(ns, name); !ok {
				d.log.Printf("igz: %s: EXNM handle %s::%s unresolved", d.path, ns, name)
			}
		} else if _, ok := d.hooks.DirectoryByName(hashString(ns)); !ok {
			d.log.Printf("igz: %s: EXNM external dependency %s::%s unresolved", d.path, ns, name)
		}
	}
	return nil
}

func (d *Deserializer) stringAt(index uint32) (string, bool) {
	if int(index) >= len(d.strings) {
		return "", false
	}
	return d.strings[index], true
}

func (d *Deserializer) processRVTB(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	payload, err := d.cur.ReadBytes(int(b.Length))
	if err != nil {
		return err
	}
	offsets := DecodePackedInts(payload, int(b.Count), d.header.Version)

	width := d.platform.PointerWidth()
	for _, serialized := range offsets {
		abs, pool := d.absolute(serialized)
		saved := d.cur.Pos()
		if err := d.cur.Seek(int(abs)); err != nil {
			d.log.Printf("igz: %s: RVTB offset %#x out of range: %v", d.path, serialized, err)
			continue
		}
		vtIndex, err := d.cur.ReadPointer(width)
		if err != nil {
			d.cur.Seek(saved)
			return err
		}
		d.cur.Seek(saved)

		if int(vtIndex) >= len(d.vtable) || d.vtable[vtIndex] == nil {
			d.log.Printf("igz: %s: RVTB entry has out-of-range or sentinel vtable index %d", d.path, vtIndex)
			continue
		}
		desc := d.vtable[vtIndex]
		obj := desc.Constructor(desc, pool)
		d.byOffset[serialized] = obj
	}
	return nil
}

func (d *Deserializer) processROOT(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	payload, err := d.cur.ReadBytes(int(b.Length))
	if err != nil {
		return err
	}
	d.rootOffsets = DecodePackedInts(payload, int(b.Count), d.header.Version)
	return nil
}

func (d *Deserializer) processROFS(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	payload, err := d.cur.ReadBytes(int(b.Length))
	if err != nil {
		return err
	}
	d.runtimeOffsets = DecodePackedInts(payload, int(b.Count), d.header.Version)
	return nil
}

func (d *Deserializer) processRPID(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	payload, err := d.cur.ReadBytes(int(b.Length))
	if err != nil {
		return err
	}
	for _, off := range DecodePackedInts(payload, int(b.Count), d.header.Version) {
		d.poolIDs[uint16(off)] = true
	}
	return nil
}

func (d *Deserializer) processRSTT(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	payload, err := d.cur.ReadBytes(int(b.Length))
	if err != nil {
		return err
	}
	for _, off := range DecodePackedInts(payload, int(b.Count), d.header.Version) {
		d.stringTables[off] = true
	}
	return nil
}

func (d *Deserializer) processRSTR(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	payload, err := d.cur.ReadBytes(int(b.Length))
	if err != nil {
		return err
	}
	for _, off := range DecodePackedInts(payload, int(b.Count), d.header.Version) {
		d.stringReferences[off] = true
	}
	return nil
}

func (d *Deserializer) processONAM(b fixupBlock) error {
	if err := d.seekPayload(b.Start); err != nil {
		return err
	}
	id, err := d.cur.ReadU32()
	if err != nil {
		return err
	}
	d.hasNameList = true
	d.nameListObject = id
	return nil
}
