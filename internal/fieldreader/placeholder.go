package fieldreader

import (
	"log"

	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/registry"
)

// placeholderReader backs any type name the registry has no reader for: it
// reads the field's declared size as opaque bytes and logs a warning on
// every read.
// Writing through a placeholder is a hard error, since there is no known
// wire shape to encode into.
type placeholderReader struct {
	typeName string
	log      *log.Logger
}

func (p *placeholderReader) Read(env Env, field *meta.FieldInfo) (any, error) {
	p.log.Printf("fieldreader: no reader for type %q (field %q), reading %d bytes opaque", p.typeName, field.Name, field.Size)
	b, err := env.Cursor().ReadBytes(int(field.Size))
	if err != nil {
		return nil, xerrors.Errorf("fieldreader: placeholder for %q: %w", p.typeName, err)
	}
	return b, nil
}

func (p *placeholderReader) Write(env Env, field *meta.FieldInfo, value any) error {
	return xerrors.Errorf("fieldreader: cannot write field of unknown type %q through a placeholder", p.typeName)
}

func (p *placeholderReader) PlatformSize(registry.Platform) uint16      { return 0 }
func (p *placeholderReader) PlatformAlignment(registry.Platform) uint16 { return 1 }
