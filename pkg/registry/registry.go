package registry

import (
	"sync"

	"github.com/google/uuid"

	meta "github.com/goliatone/go-metadata"
)

// Registry is an in-memory metadata store keyed by target. The zero value is
// not usable; construct with New. All methods are safe for concurrent use.
type Registry struct {
	mu      sync.RWMutex
	records map[meta.Target]*record
}

type record struct {
	name       string
	parent     meta.Target
	hasParent  bool
	snapshotID string
	typeScoped map[string]*meta.DecoratorOptions
	members    map[string]map[string]*meta.DecoratorOptions
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{records: make(map[meta.Target]*record)}
}

// Identify names a target. Identity is what the resolver uses to detect the
// root of an inheritance chain, so every registered type that participates in
// walks needs one.
func (r *Registry) Identify(target meta.Target, name string) {
	if target == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.recordFor(target).name = name
}

// SetParent links child to parent in the inheritance chain.
func (r *Registry) SetParent(child, parent meta.Target) {
	if child == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.recordFor(child)
	rec.parent = parent
	rec.hasParent = parent != nil
}

// Register attaches type-scoped decorator options for key on target. The
// options are cloned in.
func (r *Registry) Register(target meta.Target, key string, options *meta.DecoratorOptions) {
	if target == nil || key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.recordFor(target)
	if rec.typeScoped == nil {
		rec.typeScoped = make(map[string]*meta.DecoratorOptions)
	}
	rec.typeScoped[key] = options.Clone()
}

// RegisterMember attaches member-scoped decorator options for key on target.
func (r *Registry) RegisterMember(target meta.Target, member, key string, options *meta.DecoratorOptions) {
	if target == nil || member == "" || key == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.recordFor(target)
	if rec.members == nil {
		rec.members = make(map[string]map[string]*meta.DecoratorOptions)
	}
	keys := rec.members[member]
	if keys == nil {
		keys = make(map[string]*meta.DecoratorOptions)
		rec.members[member] = keys
	}
	keys[key] = options.Clone()
}

// Clear records key on target as explicitly cleared: lookups hit the entry
// but resolve to no options, which the resolver reports as filtered.
func (r *Registry) Clear(target meta.Target, key string) {
	r.Register(target, key, nil)
}

// SnapshotID returns the audit identifier minted when target was first
// registered, or "" for unknown targets.
func (r *Registry) SnapshotID(target meta.Target) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.records[target]; ok {
		return rec.snapshotID
	}
	return ""
}

// Get implements meta.Store.
func (r *Registry) Get(key string, target meta.Target, member string) (*meta.DecoratorOptions, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[target]
	if !ok {
		return nil, false
	}
	if member != "" {
		keys, ok := rec.members[member]
		if !ok {
			return nil, false
		}
		options, ok := keys[key]
		if !ok {
			return nil, false
		}
		return options.Clone(), true
	}
	options, ok := rec.typeScoped[key]
	if !ok {
		return nil, false
	}
	return options.Clone(), true
}

// ParentOf implements meta.Store.
func (r *Registry) ParentOf(target meta.Target) (meta.Target, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.records[target]
	if !ok || !rec.hasParent {
		return nil, false
	}
	return rec.parent, true
}

// Identity implements meta.Store.
func (r *Registry) Identity(target meta.Target) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rec, ok := r.records[target]; ok {
		return rec.name
	}
	return ""
}

// recordFor returns the record for target, creating it under the write lock.
func (r *Registry) recordFor(target meta.Target) *record {
	if r.records == nil {
		r.records = make(map[meta.Target]*record)
	}
	rec, ok := r.records[target]
	if !ok {
		rec = &record{snapshotID: uuid.NewString()}
		r.records[target] = rec
	}
	return rec
}
