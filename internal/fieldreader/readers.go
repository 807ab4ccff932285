package fieldreader

import (
	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/registry"
)

// integerReader implements "igIntMetaField": a 4-byte signed read honoring
// cursor endianness.
type integerReader struct{}

func (integerReader) Read(env Env, field *meta.FieldInfo) (any, error) {
	v, err := env.Cursor().ReadI32()
	if err != nil {
		return nil, xerrors.Errorf("fieldreader: integer field %q: %w", field.Name, err)
	}
	return v, nil
}

func (integerReader) Write(env Env, field *meta.FieldInfo, value any) error {
	return xerrors.Errorf("fieldreader: integer field %q: write not implemented", field.Name)
}

func (integerReader) PlatformSize(registry.Platform) uint16      { return 4 }
func (integerReader) PlatformAlignment(registry.Platform) uint16 { return 4 }

// stringReader implements "igStringMetaField". The cursor position is first
// checked against the fixup-derived string_references and string_tables
// tables (§4.6); the wire word itself is only ever pointer-width, since it
// either points at a NUL-terminated string or indexes the string list.
type stringReader struct{}

func (stringReader) Read(env Env, field *meta.FieldInfo) (any, error) {
	pos := uint32(env.Cursor().Pos())
	width := env.PointerWidth()

	switch {
	case env.IsStringReference(pos):
		word, err := env.Cursor().ReadPointer(width)
		if err != nil {
			return nil, xerrors.Errorf("fieldreader: string field %q: %w", field.Name, err)
		}
		abs, _ := env.Translate(uint32(word))
		s, err := env.ReadStringAt(abs)
		if err != nil {
			return nil, xerrors.Errorf("fieldreader: string field %q at %#x: %w", field.Name, abs, err)
		}
		return s, nil

	case env.IsStringTable(pos):
		idx, err := env.Cursor().ReadPointer(width)
		if err != nil {
			return nil, xerrors.Errorf("fieldreader: string field %q: %w", field.Name, err)
		}
		s, err := env.StringTableEntry(uint32(idx))
		if err != nil {
			return nil, xerrors.Errorf("fieldreader: string field %q index %d: %w", field.Name, idx, err)
		}
		return s, nil

	default:
		// Neither table claims this position: advance past the word and
		// report null rather than guessing at a dereference.
		if _, err := env.Cursor().ReadPointer(width); err != nil {
			return nil, xerrors.Errorf("fieldreader: string field %q: %w", field.Name, err)
		}
		return nil, nil
	}
}

func (stringReader) Write(env Env, field *meta.FieldInfo, value any) error {
	return xerrors.Errorf("fieldreader: string field %q: write not implemented", field.Name)
}

func (stringReader) PlatformSize(p registry.Platform) uint16      { return uint16(p.PointerWidth()) }
func (stringReader) PlatformAlignment(p registry.Platform) uint16 { return uint16(p.PointerWidth()) }

// objectRefReader implements "igObjectRefMetaField": the word at the cursor
// is a serialized offset into the by-offset object map; zero means null.
type objectRefReader struct{}

func (objectRefReader) Read(env Env, field *meta.FieldInfo) (any, error) {
	word, err := env.Cursor().ReadU32()
	if err != nil {
		return nil, xerrors.Errorf("fieldreader: object-ref field %q: %w", field.Name, err)
	}
	if word == 0 {
		return nil, nil
	}
	obj, ok := env.ObjectAt(word)
	if !ok {
		return nil, nil
	}
	return obj, nil
}

func (objectRefReader) Write(env Env, field *meta.FieldInfo, value any) error {
	return xerrors.Errorf("fieldreader: object-ref field %q: write not implemented", field.Name)
}

func (objectRefReader) PlatformSize(registry.Platform) uint16      { return 4 }
func (objectRefReader) PlatformAlignment(registry.Platform) uint16 { return 4 }
