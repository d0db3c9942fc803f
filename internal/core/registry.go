package core

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds collection definitions keyed by name.
type Registry struct {
	mu   sync.RWMutex
	defs map[Collection]CollectionDefinition
}

// NewRegistry returns a registry holding defs.
// Panics on duplicate names.
func NewRegistry(defs ...CollectionDefinition) *Registry {
	r := &Registry{defs: make(map[Collection]CollectionDefinition)}
	for _, def := range defs {
		r.Register(def)
	}
	return r
}

// Register adds a collection definition.
// Panics if a collection with the same name is already registered.
func (r *Registry) Register(def CollectionDefinition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if def.Name == "" {
		panic("collection name is required")
	}
	if _, exists := r.defs[def.Name]; exists {
		panic(fmt.Sprintf("collection already registered: %s", def.Name))
	}
	if def.Label == "" {
		def.Label = string(def.Name)
	}

	r.defs[def.Name] = def
}

// Get returns a collection definition by name.
func (r *Registry) Get(name Collection) (CollectionDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	return def, ok
}

// All returns every definition sorted by name.
func (r *Registry) All() []CollectionDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]CollectionDefinition, 0, len(r.defs))
	for _, def := range r.defs {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Name < result[j].Name
	})

	return result
}

// Len returns the number of registered collections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.defs)
}

// Lookup returns the definition for name or ErrUnknownCollection.
func (r *Registry) Lookup(name Collection) (CollectionDefinition, error) {
	def, ok := r.Get(name)
	if !ok {
		return CollectionDefinition{}, fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return def, nil
}

// IdentifierField resolves the identifier field of a collection.
// There is no fallback: unregistered collections yield ErrUnknownCollection
// and collections without an identifier yield ErrNoIdentifier.
func (r *Registry) IdentifierField(name Collection) (string, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	if def.IDField == "" {
		return "", fmt.Errorf("%w: %q", ErrNoIdentifier, name)
	}
	return def.IDField, nil
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide registry populated by [Register].
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds a definition to the default registry.
func Register(def CollectionDefinition) {
	defaultRegistry.Register(def)
}

// Get returns a definition from the default registry.
func Get(name Collection) (CollectionDefinition, bool) {
	return defaultRegistry.Get(name)
}

// All returns all definitions of the default registry.
func All() []CollectionDefinition {
	return defaultRegistry.All()
}

// CollectionCount returns the number of collections in the default registry.
func CollectionCount() int {
	return defaultRegistry.Len()
}
