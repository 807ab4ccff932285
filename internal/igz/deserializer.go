package igz

import (
	"log"

	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/binio"
	"github.com/arklib/igcore/internal/fieldreader"
	"github.com/arklib/igcore/internal/hash"
	"github.com/arklib/igcore/internal/igerr"
	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/registry"
)

// Deserializer holds the full parsed state of one IGZ file: its header,
// declared pools, vtable list, string list, the fixup-derived runtime
// tables field readers consult, and the by-(serialized-offset) object map.
// It implements fieldreader.Env so the field-reader registry can read
// directly against it.
type Deserializer struct {
	path     string
	cur      *binio.Cursor
	header   Header
	pools    []Pool
	platform registry.Platform
	mm       *meta.Manager
	fr       *fieldreader.Registry
	hooks    Hooks
	log      *log.Logger

	vtable           []*meta.Descriptor
	strings          []string
	stringReferences map[uint32]bool
	stringTables     map[uint32]bool
	poolIDs          map[uint16]bool
	byOffset         map[uint32]meta.Object

	rootOffsets    []uint32
	runtimeOffsets []uint32
	dependencies   []Dependency
	hasNameList    bool
	nameListObject uint32
	nameList       []string
}

// Load parses an IGZ file fully: header, sections, every fixup block, then
// object instantiation and field population. Parse failures of the
// container itself are fatal and returned wrapped with file/stage context
// (§4.7.6); per-element failures (a missing dependency, an unresolved
// external, an unknown fixup magic) are logged and the affected slot is
// left null/empty.
func Load(path string, buf []byte, platform registry.Platform, mm *meta.Manager, fr *fieldreader.Registry, hooks Hooks, logger *log.Logger) (*Deserializer, error) {
	if hooks == nil {
		hooks = noopHooks{}
	}
	if logger == nil {
		logger = log.Default()
	}

	endian, err := detectEndian(buf)
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnIGZ, path, "header", err)
	}
	cur, err := binio.NewCursor(buf, endian)
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnIGZ, path, "header", err)
	}

	header, err := readHeader(cur)
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnIGZ, path, "header", err)
	}

	fixupSection, pools, err := readSections(cur)
	if err != nil {
		return nil, igerr.Wrap(igerr.NotAnIGZ, path, "sections", err)
	}

	d := &Deserializer{
		path:             path,
		cur:              cur,
		header:           header,
		pools:            pools,
		platform:         platform,
		mm:               mm,
		fr:               fr,
		hooks:            hooks,
		log:              logger,
		stringReferences: make(map[uint32]bool),
		stringTables:     make(map[uint32]bool),
		poolIDs:          make(map[uint16]bool),
		byOffset:         make(map[uint32]meta.Object),
	}

	if err := d.processFixups(fixupSection); err != nil {
		return nil, igerr.Wrap(igerr.NotAnIGZ, path, "fixups", err)
	}

	if err := d.populateFields(); err != nil {
		return nil, igerr.Wrap(igerr.NotAnIGZ, path, "field population", err)
	}

	d.buildNameList()

	return d, nil
}

// buildNameList resolves the ONAM-declared name-list object into a flat
// []string parallel to the object list, once field population (including
// the name list's own "_data") has run. A miss is logged and leaves
// NameList nil rather than failing the whole load (§4.7.6).
func (d *Deserializer) buildNameList() {
	if !d.hasNameList {
		return
	}
	obj, ok := d.byOffset[d.nameListObject]
	if !ok {
		d.log.Printf("igz: %s: ONAM object %#x not found", d.path, d.nameListObject)
		return
	}
	list, ok := obj.(*meta.DataList)
	if !ok {
		d.log.Printf("igz: %s: ONAM object %#x is not a name list", d.path, d.nameListObject)
		return
	}
	names := make([]string, list.Len())
	for i := 0; i < list.Len(); i++ {
		s, _ := list.At(i).(string)
		names[i] = s
	}
	d.nameList = names
}

// populateFields performs the post-fixup pass described in §4.7.5: for
// every instantiated object, seek to each field's offset in turn and
// invoke its reader, skipping fields backed by igStaticMetaField or
// igPropertyFieldMetaField (those carry their value in the catalog, not
// the wire).
func (d *Deserializer) populateFields() error {
	for serializedOffset, obj := range d.byOffset {
		desc := obj.Descriptor()
		abs, _ := d.absolute(serializedOffset)

		for _, field := range desc.Fields() {
			if field.TypeName == "igStaticMetaField" || field.TypeName == "igPropertyFieldMetaField" {
				continue
			}
			if err := d.cur.Seek(int(abs) + int(field.Offset)); err != nil {
				d.log.Printf("igz: %s: field %q of %s at %#x out of range: %v", d.path, field.Name, desc.Name, serializedOffset, err)
				continue
			}
			reader := d.fr.Lookup(field.TypeName, field)
			value, err := reader.Read(d, field)
			if err != nil {
				d.log.Printf("igz: %s: reading field %q of %s: %v", d.path, field.Name, desc.Name, err)
				continue
			}
			if field.Name != "" {
				if err := obj.SetField(field.Name, value); err != nil {
					d.log.Printf("igz: %s: setting field %q of %s: %v", d.path, field.Name, desc.Name, err)
				}
			}
		}
	}
	return nil
}

// absolute resolves a serialized offset to an absolute file offset and its
// owning pool index.
func (d *Deserializer) absolute(serialized uint32) (uint32, uint32) {
	poolOffset, poolIdx := Translate(serialized, d.header.Version)
	if int(poolIdx) >= len(d.pools) {
		return poolOffset, poolIdx
	}
	return d.pools[poolIdx].Offset + poolOffset, poolIdx
}

func hashString(s string) uint32 { return hash.String(s) }

// Objects returns every instantiated object keyed by its serialized offset.
func (d *Deserializer) Objects() map[uint32]meta.Object { return d.byOffset }

// Strings returns the IGZ's parsed string list (from TSTR).
func (d *Deserializer) Strings() []string { return d.strings }

// Roots returns the decoded ROOT offsets; entry 0 is the directory's own
// object-list offset.
func (d *Deserializer) Roots() []uint32 { return d.rootOffsets }

// Dependencies returns the file's raw TDEP entries, in declaration order,
// <build>-prefixed placeholder paths already filtered out.
func (d *Deserializer) Dependencies() []Dependency { return d.dependencies }

// UsesNameList reports whether this file carries an ONAM fixup, i.e. its
// object list has a parallel per-object name list (§4.7.2, §3's
// use_name_list flag).
func (d *Deserializer) UsesNameList() bool { return d.hasNameList }

// NameList returns the per-object name list built from the ONAM-named
// object's fields, parallel to Roots()'s object list, when UsesNameList
// reports true. It is nil otherwise.
func (d *Deserializer) NameList() []string { return d.nameList }

// --- fieldreader.Env ---

func (d *Deserializer) Cursor() *binio.Cursor { return d.cur }
func (d *Deserializer) PointerWidth() int     { return d.platform.PointerWidth() }

func (d *Deserializer) IsStringReference(pos uint32) bool { return d.stringReferences[pos] }
func (d *Deserializer) IsStringTable(pos uint32) bool     { return d.stringTables[pos] }

func (d *Deserializer) ReadStringAt(abs uint32) (string, error) {
	saved := d.cur.Pos()
	defer d.cur.Seek(saved)
	if err := d.cur.Seek(int(abs)); err != nil {
		return "", xerrors.Errorf("igz: string at %#x: %w", abs, err)
	}
	return d.cur.ReadString()
}

func (d *Deserializer) StringTableEntry(index uint32) (string, error) {
	if int(index) >= len(d.strings) {
		return "", xerrors.Errorf("igz: string table index %d out of range (%d entries)", index, len(d.strings))
	}
	return d.strings[index], nil
}

func (d *Deserializer) Translate(serialized uint32) (uint32, uint32) {
	return d.absolute(serialized)
}

func (d *Deserializer) ObjectAt(serializedOffset uint32) (meta.Object, bool) {
	o, ok := d.byOffset[serializedOffset]
	return o, ok
}

func (d *Deserializer) IsPoolID(fieldOffset uint16) bool { return d.poolIDs[fieldOffset] }
