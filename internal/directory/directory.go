// Package directory implements the object directory / stream manager
// (spec.md §4.8): the top-level cache of loaded IGZ files, indexed both by
// path (so a dependency is never parsed twice) and by name (so a fixup can
// resolve a cross-file reference without carrying the full path).
package directory

import (
	"log"
	"path"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"

	"github.com/arklib/igcore/internal/extref"
	"github.com/arklib/igcore/internal/fieldreader"
	"github.com/arklib/igcore/internal/hash"
	"github.com/arklib/igcore/internal/igerr"
	"github.com/arklib/igcore/internal/igz"
	"github.com/arklib/igcore/internal/meta"
	"github.com/arklib/igcore/internal/registry"
	"github.com/arklib/igcore/internal/vfs"
)

// Loader reads a file's raw bytes given its native path. The stream manager
// doesn't open files itself; it asks the VFS dispatch chain through this
// seam so tests can substitute an in-memory source.
type Loader func(nativePath string) ([]byte, error)

// Directory is one loaded object graph plus the bookkeeping the stream
// manager needs to index and re-resolve it.
type Directory struct {
	Name     string
	Path     string
	NameHash uint32
	PathHash uint32

	// Dependencies is the ordered, deduplicated list of directories this
	// one's TDEP fixup named (spec.md §3).
	Dependencies []*Directory

	deser *igz.Deserializer
}

// UsesNameList reports whether this directory carries an ONAM fixup, i.e.
// its object list has a parallel per-object name list (spec.md §3's
// use_name_list flag).
func (d *Directory) UsesNameList() bool {
	if d.deser == nil {
		return false
	}
	return d.deser.UsesNameList()
}

// NameList returns the per-object name list parallel to Roots()'s object
// list, when UsesNameList reports true. It is nil otherwise.
func (d *Directory) NameList() []string {
	if d.deser == nil {
		return nil
	}
	return d.deser.NameList()
}

// Objects returns every object instantiated from this directory, keyed by
// its serialized offset.
func (d *Directory) Objects() map[uint32]meta.Object {
	if d.deser == nil {
		return nil
	}
	return d.deser.Objects()
}

// Roots returns the directory's decoded ROOT offsets; entry 0 is the
// directory's own object-list offset.
func (d *Directory) Roots() []uint32 {
	if d.deser == nil {
		return nil
	}
	return d.deser.Roots()
}

// Manager is the process-wide stream manager: it owns the name/path
// directory indexes and implements igz.Hooks so a loaded IGZ's TDEP/EXID/
// EXNM fixups can reach back into it without igz importing this package.
type Manager struct {
	reg   *registry.Registry
	mm    *meta.Manager
	fr    *fieldreader.Registry
	ext   *extref.Registry
	load  Loader
	log   *log.Logger

	mu      sync.RWMutex
	byName  map[uint32][]*Directory
	byPath  map[uint32]*Directory
}

// New builds a Manager. loader is consulted to fetch a normalized path's raw
// bytes; typically it is backed by the vfs dispatch chain's Open operation.
func New(reg *registry.Registry, mm *meta.Manager, fr *fieldreader.Registry, ext *extref.Registry, loader Loader, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.Default()
	}
	return &Manager{
		reg:    reg,
		mm:     mm,
		fr:     fr,
		ext:    ext,
		load:   loader,
		log:    logger,
		byName: make(map[uint32][]*Directory),
		byPath: make(map[uint32]*Directory),
	}
}

// Load normalizes rawPath, returns the already-cached Directory for it if
// one exists, else reads, parses and indexes a new one under name.
//
// name is the logical name under which the directory should be registered
// for name-hash lookups (the TDEP dependency name, or rawPath's own base
// name for a top-level load with no caller-supplied name).
func (m *Manager) Load(name, rawPath string) (*Directory, error) {
	native := normalizePath(rawPath)
	pathHash := hash.StringCaseInsensitive(native)

	m.mu.RLock()
	if d, ok := m.byPath[pathHash]; ok {
		m.mu.RUnlock()
		return d, nil
	}
	m.mu.RUnlock()

	if name == "" {
		name = baseNameNoExt(native)
	}

	buf, err := m.load(native)
	if err != nil {
		return nil, igerr.New(igerr.NotAnIGZ, native, "read", err)
	}

	d := &Directory{
		Name:     name,
		Path:     native,
		NameHash: hash.String(name),
		PathHash: pathHash,
	}

	// Register before parsing: a dependency cycle (A depends on B depends
	// on A) must see the in-progress directory rather than recurse
	// forever. An IGZ with no objects yet is a valid, if temporarily
	// incomplete, cache entry. Re-check the cache under the write lock in
	// case another goroutine raced this one to the same path.
	m.mu.Lock()
	if existing, ok := m.byPath[pathHash]; ok {
		m.mu.Unlock()
		return existing, nil
	}
	m.byPath[pathHash] = d
	m.byName[d.NameHash] = append(m.byName[d.NameHash], d)
	m.mu.Unlock()

	if err := m.populate(d, native, buf); err != nil {
		return d, err
	}
	return d, nil
}

// populate dispatches to the loader selected by extension and attaches the
// result to d.
func (m *Manager) populate(d *Directory, native string, buf []byte) error {
	ext := strings.ToLower(path.Ext(native))
	switch ext {
	case ".igz", ".bld":
		deser, err := igz.Load(native, buf, m.reg.Platform(), m.mm, m.fr, m, m.log)
		if err != nil {
			return err
		}
		d.deser = deser
		d.Dependencies = m.resolveDependencies(deser.Dependencies())
		return nil
	default:
		m.log.Printf("directory: %s: no loader for extension %q, skipping", native, ext)
		return nil
	}
}

func baseNameNoExt(p string) string {
	base := path.Base(p)
	if i := strings.LastIndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}

// normalizePath is defined in vdev.go.

// FromVFS adapts a vfs.Processor's Open operation into a Loader, so a
// Manager can be driven by the same dispatch chain every other storage
// access goes through.
func FromVFS(chain vfs.Processor) Loader {
	return func(nativePath string) ([]byte, error) {
		item := vfs.NewWorkItem(vfs.Open, nativePath)
		chain.Process(item)
		if item.Status != vfs.Complete || item.Handle == nil {
			return nil, xerrors.Errorf("directory: open %q: status %s", nativePath, item.Status)
		}
		defer func() {
			closeItem := vfs.NewWorkItem(vfs.Close, nativePath)
			closeItem.Handle = item.Handle
			chain.Process(closeItem)
		}()

		buf := make([]byte, item.Handle.Size)
		readItem := vfs.NewWorkItem(vfs.Read, nativePath)
		readItem.Handle = item.Handle
		readItem.Buffer = buf
		readItem.Offset = 0
		chain.Process(readItem)
		if readItem.Status != vfs.Complete {
			return nil, xerrors.Errorf("directory: read %q: status %s", nativePath, readItem.Status)
		}
		return readItem.Buffer, nil
	}
}

// --- igz.Hooks ---

// LoadDependencies loads every entry in deps concurrently: a TDEP block's
// entries don't depend on one another, so independent directories are
// parsed in parallel (spec.md §5). Each entry's failure is logged and
// swallowed per §4.7.6's transient-failure policy; LoadDependencies itself
// never fails.
func (m *Manager) LoadDependencies(deps []igz.Dependency) {
	var g errgroup.Group
	for _, dep := range deps {
		dep := dep
		g.Go(func() error {
			if _, err := m.Load(dep.Name, dep.Path); err != nil {
				m.log.Printf("directory: dependency %q (%s): %v", dep.Name, dep.Path, err)
			}
			return nil
		})
	}
	g.Wait()
}

// resolveDependencies turns a file's raw TDEP entries into the ordered,
// deduplicated []*Directory the data model calls for (spec.md §3).
// LoadDependencies has already populated the cache for each entry by the
// time igz.Load returns (it runs as a hook during fixup processing), so
// each m.Load call here is a cache hit, not fresh I/O.
func (m *Manager) resolveDependencies(deps []igz.Dependency) []*Directory {
	if len(deps) == 0 {
		return nil
	}
	seen := make(map[uint32]bool, len(deps))
	var out []*Directory
	for _, dep := range deps {
		pathHash := hash.StringCaseInsensitive(normalizePath(dep.Path))
		if seen[pathHash] {
			continue
		}
		seen[pathHash] = true
		dd, err := m.Load(dep.Name, dep.Path)
		if err != nil {
			m.log.Printf("directory: resolving dependency %q (%s): %v", dep.Name, dep.Path, err)
			continue
		}
		out = append(out, dd)
	}
	return out
}

// DirectoryByName returns the most recently loaded directory registered
// under nameHash, if any. Multiple directories may share a name hash (the
// engine allows same-named directories loaded from different paths); the
// most recent load wins.
func (m *Manager) DirectoryByName(nameHash uint32) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.byName[nameHash]
	if !ok || len(ds) == 0 {
		return nil, false
	}
	return ds[len(ds)-1], true
}

// ResolveExternal resolves a namespace/name handle through the external
// reference system.
func (m *Manager) ResolveExternal(namespace, name string) (any, bool) {
	if m.ext == nil {
		return nil, false
	}
	return m.ext.Resolve(&extref.Context{Meta: m.mm}, namespace, name)
}
