package fieldreader

import (
	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/registry"
)

// newMemoryRefReader builds the complex reader for "igMemoryRefMetaField".
// field.Raw.MemoryRefInfo names the inner element type; its reader is
// resolved from the same registry so a memory-ref of objects, strings or
// raw bytes all go through their normal per-element reader.
func newMemoryRefReader(reg *Registry, field *meta.FieldInfo) Reader {
	innerType := "igUnsignedCharMetaField"
	if field.Raw != nil && field.Raw.MemoryRefInfo != nil {
		innerType = field.Raw.MemoryRefInfo.Type
	}
	return &memoryRefReader{
		innerType: innerType,
		inner:     reg.Lookup(innerType, nil),
	}
}

type memoryRefReader struct {
	innerType string
	inner     Reader
}

// flagsPoolMask is the low 24 bits of the flags word, used both to read a
// pool index directly (pool_ids case) and to read a payload element count
// (general case) -- the format reserves the high byte of flags for tag
// bits in both readings.
const flagsPoolMask = 0x00FFFFFF

func (r *memoryRefReader) Read(env Env, field *meta.FieldInfo) (any, error) {
	width := env.PointerWidth()
	flags, err := env.Cursor().ReadPointer(width)
	if err != nil {
		return nil, xerrors.Errorf("fieldreader: memory-ref field %q flags: %w", field.Name, err)
	}
	dataPointer, err := env.Cursor().ReadPointer(width)
	if err != nil {
		return nil, xerrors.Errorf("fieldreader: memory-ref field %q data pointer: %w", field.Name, err)
	}

	if env.IsPoolID(field.Offset) {
		pool := uint32(flags) & flagsPoolMask
		return pool, nil
	}

	count := int(uint32(flags) & flagsPoolMask)
	if count == 0 {
		return []any{}, nil
	}
	absOffset, _ := env.Translate(uint32(dataPointer))

	if r.innerType == "igUnsignedCharMetaField" || r.innerType == "igCharMetaField" {
		savedPos := env.Cursor().Pos()
		if err := env.Cursor().Seek(int(absOffset)); err != nil {
			return nil, xerrors.Errorf("fieldreader: memory-ref field %q: %w", field.Name, err)
		}
		bytes, err := env.Cursor().ReadBytes(count)
		env.Cursor().Seek(savedPos)
		if err != nil {
			return nil, xerrors.Errorf("fieldreader: memory-ref field %q payload: %w", field.Name, err)
		}
		return bytes, nil
	}

	savedPos := env.Cursor().Pos()
	if err := env.Cursor().Seek(int(absOffset)); err != nil {
		return nil, xerrors.Errorf("fieldreader: memory-ref field %q: %w", field.Name, err)
	}
	elems := make([]any, 0, count)
	for i := 0; i < count; i++ {
		elemField := *field
		elemField.TypeName = r.innerType
		v, err := r.inner.Read(env, &elemField)
		if err != nil {
			env.Cursor().Seek(savedPos)
			return nil, xerrors.Errorf("fieldreader: memory-ref field %q element %d: %w", field.Name, i, err)
		}
		elems = append(elems, v)
	}
	env.Cursor().Seek(savedPos)
	return elems, nil
}

func (r *memoryRefReader) Write(env Env, field *meta.FieldInfo, value any) error {
	return xerrors.Errorf("fieldreader: memory-ref field %q: write not implemented", field.Name)
}

func (r *memoryRefReader) PlatformSize(p registry.Platform) uint16 {
	return uint16(2 * p.PointerWidth())
}

func (r *memoryRefReader) PlatformAlignment(p registry.Platform) uint16 {
	return uint16(p.PointerWidth())
}
