package codegen

import (
	"sort"

	"github.com/kolkov/div/internal/ast"
)

// Registry remembers the latest prototype seen for every function name,
// across modules. Definitions and externs both register; a later entry for
// the same name overwrites the earlier one.
type Registry struct {
	protos map[string]*ast.Prototype
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{protos: make(map[string]*ast.Prototype)}
}

// Add records proto and returns the entry it replaced, if any.
func (r *Registry) Add(proto *ast.Prototype) (prev *ast.Prototype, ok bool) {
	prev, ok = r.protos[proto.Name]
	r.protos[proto.Name] = proto
	return prev, ok
}

// Lookup returns the prototype registered under name.
func (r *Registry) Lookup(name string) (*ast.Prototype, bool) {
	proto, ok := r.protos[name]
	return proto, ok
}

// Remove forgets name.
func (r *Registry) Remove(name string) {
	delete(r.protos, name)
}

// restore puts back the state Add replaced.
func (r *Registry) restore(name string, prev *ast.Prototype, ok bool) {
	if ok {
		r.protos[name] = prev
		return
	}
	delete(r.protos, name)
}

// Len returns the number of registered names.
func (r *Registry) Len() int {
	return len(r.protos)
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.protos))
	for name := range r.protos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
