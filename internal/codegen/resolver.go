package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/irutil"
)

// Source tells which tier answered a Resolve call.
type Source uint8

const (
	Unresolved Source = iota
	FromModule
	FromRegistry
)

func (s Source) String() string {
	switch s {
	case FromModule:
		return "module"
	case FromRegistry:
		return "registry"
	default:
		return "unresolved"
	}
}

// Resolver finds callees: first among the functions of the current module,
// then in the registry. A registry hit is declared in the module so the call
// has something to reference; the session links it by name later.
type Resolver struct {
	module   *ir.Module
	registry *Registry
}

// NewResolver returns a resolver over m and reg.
func NewResolver(m *ir.Module, reg *Registry) *Resolver {
	return &Resolver{module: m, registry: reg}
}

// Resolve returns the function called name.
func (r *Resolver) Resolve(name string) (*ir.Func, Source, error) {
	if f := irutil.FindFunc(r.module, name); f != nil {
		return f, FromModule, nil
	}
	if proto, ok := r.registry.Lookup(name); ok {
		return Declare(r.module, proto), FromRegistry, nil
	}
	return nil, Unresolved, &Error{Kind: UnknownFunction, Name: name}
}

// Declare adds a declaration of proto to m: double name(double, ...) with
// the default (external) linkage.
func Declare(m *ir.Module, proto *ast.Prototype) *ir.Func {
	params := make([]*ir.Param, len(proto.Params))
	names := make(namer, len(proto.Params))
	for i, p := range proto.Params {
		params[i] = ir.NewParam(names.unique(p), types.Double)
	}
	return m.NewFunc(proto.Name, types.Double, params...)
}
