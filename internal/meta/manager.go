package meta

import (
	"log"
	"sync"

	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/registry"
)

// Manager holds the three parsed catalogs for one target platform and
// lazily builds and caches object descriptors. The descriptor cache is
// single-writer/multi-reader: Descriptor takes the write lock only while
// actually constructing an entry, then downgrades to returning a shared
// pointer so concurrent lookups of already-built descriptors never block
// each other.
type Manager struct {
	platform registry.Platform
	log      *log.Logger

	fields  map[string]*FieldCatalogEntry
	enums   map[string]*EnumCatalogEntry
	objects map[string]*ObjectCatalogEntry

	mu    sync.RWMutex
	cache map[string]*Descriptor
}

// NewManager converts the three catalog lists into name-keyed maps once, up
// front, to keep per-lookup cost to a map access (mirrors the rationale in
// the reference metadata manager: "Types here are converted into maps early
// in order to save on lookup cost later").
func NewManager(platform registry.Platform, logger *log.Logger, fieldList []FieldCatalogEntry, enumList []EnumCatalogEntry, objectList []ObjectCatalogEntry) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	m := &Manager{
		platform: platform,
		log:      logger,
		fields:   make(map[string]*FieldCatalogEntry, len(fieldList)),
		enums:    make(map[string]*EnumCatalogEntry, len(enumList)),
		objects:  make(map[string]*ObjectCatalogEntry, len(objectList)),
		cache:    make(map[string]*Descriptor),
	}
	for i := range fieldList {
		m.fields[fieldList[i].Name] = &fieldList[i]
	}
	for i := range enumList {
		m.enums[enumList[i].RefName] = &enumList[i]
	}
	for i := range objectList {
		m.objects[objectList[i].RefName] = &objectList[i]
	}
	return m
}

// EnumName returns the string name of an enum's ordinal value. The caller
// supplies a host-side parser to map the name back to a typed variant; this
// manager only knows the name table.
func (m *Manager) EnumName(enumName string, ordinal int32) (string, bool) {
	e, ok := m.enums[enumName]
	if !ok {
		return "", false
	}
	for _, v := range e.Values {
		if v.Value == ordinal {
			return v.Name, true
		}
	}
	return "", false
}

// Descriptor returns the cached descriptor for typeName, building it (and
// any ancestors) on first request.
func (m *Manager) Descriptor(typeName string) (*Descriptor, error) {
	m.mu.RLock()
	if d, ok := m.cache[typeName]; ok {
		m.mu.RUnlock()
		return d, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.buildLocked(typeName, nil)
}

// buildLocked builds typeName's descriptor while the write lock is held. It
// checks the cache again after acquiring the lock (another goroutine may
// have raced in ahead) and recurses into the parent chain, guarded against
// cycles via seen.
func (m *Manager) buildLocked(typeName string, seen map[string]bool) (*Descriptor, error) {
	if d, ok := m.cache[typeName]; ok {
		return d, nil
	}
	if seen[typeName] {
		return nil, xerrors.Errorf("meta: cycle detected building descriptor for %q", typeName)
	}

	catalog, ok := m.objects[typeName]
	if !ok {
		return nil, xerrors.Errorf("meta: unknown object type %q", typeName)
	}

	var parent *Descriptor
	if catalog.BaseType != "" {
		if seen == nil {
			seen = map[string]bool{}
		}
		seen[typeName] = true
		p, err := m.buildLocked(catalog.BaseType, seen)
		if err != nil {
			return nil, xerrors.Errorf("meta: building parent %q of %q: %w", catalog.BaseType, typeName, err)
		}
		parent = p
	}

	byOffset := make(map[uint16]*FieldInfo)
	byName := make(map[string]*FieldInfo)
	if parent != nil {
		for off, f := range parent.ByOffset {
			byOffset[off] = f
		}
		for name, f := range parent.ByName {
			byName[name] = f
		}
	}

	for _, raw := range catalog.OverriddenFields {
		fi, err := m.resolveField(raw)
		if err != nil {
			return nil, xerrors.Errorf("meta: %q override at offset %#x: %w", typeName, raw.Offset, err)
		}
		byOffset[fi.Offset] = fi
		if fi.Name != "" {
			byName[fi.Name] = fi
		}
	}

	for _, raw := range catalog.NewFields {
		fi, err := m.resolveField(raw)
		if err != nil {
			return nil, xerrors.Errorf("meta: %q new field at offset %#x: %w", typeName, raw.Offset, err)
		}
		byOffset[fi.Offset] = fi
		if fi.Name != "" {
			byName[fi.Name] = fi
		}
	}

	d := &Descriptor{
		Name:     typeName,
		Parent:   parent,
		ByOffset: byOffset,
		ByName:   byName,
		catalog:  catalog,
	}
	d.Constructor = lookupConstructor(typeName, d)
	m.cache[typeName] = d
	return d, nil
}

// resolveField computes a FieldInfo from a raw catalog declaration,
// sizing it against the manager's platform.
func (m *Manager) resolveField(raw *ObjectField) (*FieldInfo, error) {
	size, err := m.fieldSize(raw.Type)
	if err != nil {
		return nil, err
	}
	return &FieldInfo{
		TypeName: raw.Type,
		Name:     raw.Name,
		Size:     size,
		Offset:   raw.Offset,
		Raw:      raw,
	}, nil
}

// fieldSize looks up a field type's size for the manager's platform.
// Memory-ref fields (igMemoryRefMetaField) are computed directly from the
// platform's pointer width rather than read from the catalog, since their
// size is a pure function of platform (a memory-ref is two pointer-width
// words). Every other field type, pointer-carrying or not, takes its size
// from the catalog.
func (m *Manager) fieldSize(typeName string) (uint16, error) {
	if typeName == "igMemoryRefMetaField" {
		return uint16(2 * m.platform.PointerWidth()), nil
	}

	entry, ok := m.fields[typeName]
	if !ok {
		m.log.Printf("meta: no field catalog entry for %q, treating as opaque placeholder", typeName)
		return 0, nil
	}
	for _, p := range entry.Platform {
		if p.Platform == m.platform {
			return p.Size, nil
		}
	}
	return 0, xerrors.Errorf("meta: field %q has no platform-size entry for %s", typeName, m.platform)
}
