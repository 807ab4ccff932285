package fieldreader

import (
	"log"
	"sync"

	"github.com/arklib/igcore/internal/meta"
)

// Registry maps a field type name to its Reader, for one file flavor.
// Lookup is safe for concurrent use; registration is expected to happen
// once at startup, before any Lookup call.
type Registry struct {
	flavor Flavor
	log    *log.Logger

	mu      sync.RWMutex
	simple  map[string]Reader
	complex map[string]ComplexFactory
}

// NewRegistry builds a Registry for flavor, pre-populated with the field
// readers spec.md §4.6 names explicitly (integer, string, object-reference,
// memory-ref) plus the built-in placeholder fallback for everything else.
func NewRegistry(flavor Flavor, logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{
		flavor:  flavor,
		log:     logger,
		simple:  make(map[string]Reader),
		complex: make(map[string]ComplexFactory),
	}
	r.RegisterSimple("igIntMetaField", integerReader{})
	r.RegisterSimple("igStringMetaField", stringReader{})
	r.RegisterSimple("igObjectRefMetaField", objectRefReader{})
	r.RegisterComplex("igMemoryRefMetaField", newMemoryRefReader)
	return r
}

// RegisterSimple installs a singleton reader for typeName.
func (r *Registry) RegisterSimple(typeName string, reader Reader) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.simple[typeName] = reader
}

// RegisterComplex installs a factory for typeName that builds a reader
// specialized to each field's resolved inner type.
func (r *Registry) RegisterComplex(typeName string, factory ComplexFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.complex[typeName] = factory
}

// Lookup resolves typeName to a Reader. field is required for complex
// types (it carries the inner-type information) and may be nil for simple
// types. Unknown type names degrade to a logged placeholder reader.
func (r *Registry) Lookup(typeName string, field *meta.FieldInfo) Reader {
	r.mu.RLock()
	if s, ok := r.simple[typeName]; ok {
		r.mu.RUnlock()
		return s
	}
	factory, ok := r.complex[typeName]
	r.mu.RUnlock()
	if ok {
		return factory(r, field)
	}
	return &placeholderReader{typeName: typeName, log: r.log}
}
