// Package fieldreader maps a meta field's type name to a reader capable of
// decoding (and, in principle, encoding) its wire representation, per
// spec.md §4.6. Readers are parameterized over a file flavor; IGZ is the
// only flavor implemented, IGX/IGB are named but unimplemented.
package fieldreader

import (
	"github.com/arklib/igcore/internal/binio"
	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/registry"
)

// Flavor selects which container format a reader was built for. Every
// reader in this package is IGZ-only; the other constants exist so the
// registry's API shape doesn't need to change if IGX/IGB support is added
// later.
type Flavor int

const (
	IGZ Flavor = iota
	IGX
	IGB
)

// Env is the runtime context a reader needs beyond the raw cursor: the
// IGZ-specific lookup tables built during the fixup pass (string
// references/tables, the by-offset object map) and the serialized-offset
// translation rules. The igz package implements this.
type Env interface {
	Cursor() *binio.Cursor
	PointerWidth() int

	// IsStringReference reports whether pos (a cursor position) was listed
	// in the fixup-derived string_references table.
	IsStringReference(pos uint32) bool
	// IsStringTable reports whether pos was listed in the string_tables
	// table.
	IsStringTable(pos uint32) bool
	// ReadStringAt dereferences an absolute offset to a NUL-terminated
	// string.
	ReadStringAt(absOffset uint32) (string, error)
	// StringTableEntry returns the index'th string in the IGZ's parsed
	// string list.
	StringTableEntry(index uint32) (string, error)

	// Translate converts a serialized offset word into an absolute byte
	// offset and the memory pool it falls in, per §4.7.4's version-gated
	// bit split.
	Translate(serialized uint32) (absOffset uint32, pool uint32)

	// ObjectAt returns the already-instantiated object at a serialized
	// offset, if any.
	ObjectAt(serializedOffset uint32) (meta.Object, bool)

	// IsPoolID reports whether fieldOffset (the field's byte position
	// within its containing object) was listed in the fixup-derived
	// pool_ids table.
	IsPoolID(fieldOffset uint16) bool
}

// Reader is the four-operation contract every field type implements.
type Reader interface {
	Read(env Env, field *meta.FieldInfo) (any, error)
	Write(env Env, field *meta.FieldInfo, value any) error
	PlatformSize(platform registry.Platform) uint16
	PlatformAlignment(platform registry.Platform) uint16
}

// ComplexFactory builds a Reader specialized for a field's resolved inner
// type (e.g. a memory-ref's element type). It receives the owning registry
// so it can recursively look up the inner type's own reader.
type ComplexFactory func(reg *Registry, field *meta.FieldInfo) Reader
