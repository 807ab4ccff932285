package meta

// FieldInfo is the resolved, platform-sized view of one field within a
// descriptor: type name, optional field name, computed size and offset, and
// a back-reference to the raw catalog declaration it was resolved from.
type FieldInfo struct {
	TypeName string
	Name     string // empty for unnamed fields
	Size     uint16
	Offset   uint16
	Raw      *ObjectField
}

// Descriptor is a fully resolved object type: its field layout (by offset
// and, for named fields, by name) plus the constructor used to instantiate
// it. Offsets within a descriptor are unique; the field set is the parent's
// field set with any offset-matching override replaced in place, followed
// by the locally declared additions.
type Descriptor struct {
	Name        string
	Parent      *Descriptor
	ByOffset    map[uint16]*FieldInfo
	ByName      map[string]*FieldInfo
	Constructor Constructor

	catalog *ObjectCatalogEntry
}

// Fields returns the descriptor's fields in ascending offset order.
func (d *Descriptor) Fields() []*FieldInfo {
	out := make([]*FieldInfo, 0, len(d.ByOffset))
	for _, f := range d.ByOffset {
		out = append(out, f)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1].Offset > out[j].Offset; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// Field looks up a field by name. Unnamed fields (vector/bitfield/property
// inner fields) are not reachable through this lookup.
func (d *Descriptor) Field(name string) (*FieldInfo, bool) {
	f, ok := d.ByName[name]
	return f, ok
}

// FieldAt looks up a field by its byte offset within the object.
func (d *Descriptor) FieldAt(offset uint16) (*FieldInfo, bool) {
	f, ok := d.ByOffset[offset]
	return f, ok
}

// IsObjectList reports whether this descriptor (or an ancestor) declared an
// igObjectList element type.
func (d *Descriptor) IsObjectList() (elementType string, ok bool) {
	for c := d; c != nil; c = c.Parent {
		if c.catalog != nil && c.catalog.ObjectListType != "" {
			return c.catalog.ObjectListType, true
		}
	}
	return "", false
}
