// Package meta builds per-platform object descriptors from the three
// externally-parsed metadata catalogs (fields, enums, objects) and caches
// them lazily, resolving inheritance and per-platform field sizing along
// the way.
package meta

import "github.com/arklib/igcore/internal/registry"

// PlatformSize is one platform's size/alignment entry for a field type, as
// carried by the field catalog.
type PlatformSize struct {
	Platform registry.Platform
	Align    uint16
	Size     uint16
}

// FieldCatalogEntry describes one field type's per-platform sizing. The
// field catalog has one entry per distinct type name (e.g. "igIntMetaField",
// "igMemoryRefMetaField").
type FieldCatalogEntry struct {
	Name     string
	Platform []PlatformSize
}

// EnumValue is one named ordinal within an enum.
type EnumValue struct {
	Name  string
	Value int32
}

// EnumCatalogEntry is one enum type's ordered value list.
type EnumCatalogEntry struct {
	RefName string
	Values  []EnumValue
}

// HashTableInfo carries the sentinel key/value pair an igHashTable-derived
// object expects for "no entry" slots.
type HashTableInfo struct {
	InvalidKey   string
	InvalidValue string
}

// BitShiftInfo describes an igBitFieldMetaField's packed storage.
type BitShiftInfo struct {
	Shift        uint8
	Bits         uint8
	StorageField string
	Type         *ObjectField
}

// VectorInfo describes an igVectorMetaField's element type.
type VectorInfo struct {
	Field                     *ObjectField
	MemTypeAlignmentMultiple uint8
}

// ObjectField is one raw field declaration from the object catalog, prior to
// descriptor resolution. Most of the pointer-typed members are populated
// only when Type names the corresponding complex field kind.
type ObjectField struct {
	Type              string
	Offset            uint16
	Name              string // empty when unnamed (e.g. a vector's inner field)
	MetaObject        string // set when Type == "igObjectRefMetaField"
	RequiredAlignment uint8
	HasRequiredAlign  bool
	VectorInfo        *VectorInfo    // set when Type == "igVectorMetaField"
	MemoryRefInfo     *ObjectField   // set when Type == "igMemoryRefMetaField"
	BitShiftInfo      *BitShiftInfo  // set when Type == "igBitFieldMetaField"
	PropertyInfo      *ObjectField   // set when Type == "igPropertyFieldMetaField"
	MetaEnum          string         // set when Type == "igEnumMetaField"
	StaticInfo        *ObjectField   // set when Type == "igStaticMetaField"
}

// ObjectCatalogEntry is one type's raw declaration: its base type plus the
// fields it overrides, the fields it adds, and (for compound types) the
// fields it carries inline.
type ObjectCatalogEntry struct {
	Type             string
	RefName          string
	BaseType         string // empty for root types (e.g. __internalObjectBase)
	ObjectListType   string // set when this type (or its base) is an igObjectList
	HashTableInfo    *HashTableInfo
	NewFields        []*ObjectField
	OverriddenFields []*ObjectField
	CompoundFields   []*ObjectField
}
