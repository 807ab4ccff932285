// Package extref implements the external-reference system (spec.md §4.9): a
// registry of named resolvers that turn a {namespace, name} handle into an
// object, consulted by the IGZ deserializer's EXNM fixup when the handle bit
// is set.
package extref

import (
	"log"
	"sync"

	"github.com/arklib/igcore/internal/meta"
)

// Resolver turns a {namespace, name} handle into an object. ctx carries
// whatever host state a resolver needs (today, just the metadata manager);
// it is passed through unexamined by the registry itself.
type Resolver func(ctx *Context, namespace, name string) (any, bool)

// Context bundles the host state resolvers may consult.
type Context struct {
	Meta *meta.Manager
}

// Registry maps namespace -> resolver. Lookup falls through to nil/false
// for an unregistered namespace; callers log it themselves (mirrors the
// IGZ deserializer's own transient-failure policy).
type Registry struct {
	log *log.Logger

	mu        sync.RWMutex
	resolvers map[string]Resolver
}

// New builds a Registry pre-populated with the "metaobject" built-in.
// "metafield" is reserved by spec.md §4.9 for future use and is deliberately
// left unregistered rather than stubbed.
func New(logger *log.Logger) *Registry {
	if logger == nil {
		logger = log.Default()
	}
	r := &Registry{log: logger, resolvers: make(map[string]Resolver)}
	r.Register("metaobject", resolveMetaObject)
	return r
}

// Register adds or replaces the resolver for namespace.
func (r *Registry) Register(namespace string, resolver Resolver) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resolvers[namespace] = resolver
}

// Resolve dispatches to namespace's resolver, if any.
func (r *Registry) Resolve(ctx *Context, namespace, name string) (any, bool) {
	r.mu.RLock()
	resolver, ok := r.resolvers[namespace]
	r.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return resolver(ctx, namespace, name)
}

// resolveMetaObject returns the object descriptor for name through the
// metadata manager; namespace is unused (a metaobject handle's namespace is
// always "metaobject" by construction).
func resolveMetaObject(ctx *Context, namespace, name string) (any, bool) {
	if ctx == nil || ctx.Meta == nil {
		return nil, false
	}
	desc, err := ctx.Meta.Descriptor(name)
	if err != nil {
		return nil, false
	}
	return desc, true
}
