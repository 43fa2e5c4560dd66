// Package jit runs generated IR in-process.
//
// A Session plays the role of a JIT: modules are added to it as they are
// generated, functions are linked by name, and symbols can be looked up and
// called. Execution is by direct interpretation of the IR over float64
// frames, which is all div's single double type needs.
package jit

import (
	"context"
	"io"
	"sort"

	"github.com/google/uuid"
	"github.com/llir/llvm/ir"
	"github.com/rs/zerolog"
)

// DefaultMaxCallDepth bounds recursion when no limit is configured.
const DefaultMaxCallDepth = 10000

// Session holds the functions linked so far. The latest definition of a
// name wins; removing its tracker uncovers the previous one.
// A Session is not safe for concurrent use.
type Session struct {
	defs     map[string][]*linked
	out      io.Writer
	maxDepth int
	log      zerolog.Logger
}

type linked struct {
	fn      *ir.Func
	tracker *ResourceTracker
}

// Option configures a Session.
type Option func(*Session)

// WithOutput sets the writer used by putchard and printd.
func WithOutput(w io.Writer) Option {
	return func(s *Session) {
		s.out = w
	}
}

// WithMaxCallDepth bounds the call stack. n <= 0 selects the default.
func WithMaxCallDepth(n int) Option {
	return func(s *Session) {
		if n > 0 {
			s.maxDepth = n
		}
	}
}

// WithLogger sets the logger that receives link and run diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Session) {
		s.log = log
	}
}

// NewSession returns an empty session.
func NewSession(opts ...Option) *Session {
	s := &Session{
		defs:     make(map[string][]*linked),
		out:      io.Discard,
		maxDepth: DefaultMaxCallDepth,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ResourceTracker owns the definitions one AddModule call linked.
type ResourceTracker struct {
	ID      uuid.UUID
	session *Session
	funcs   []*ir.Func
	removed bool
}

// Funcs returns the names of the functions the tracker linked.
func (rt *ResourceTracker) Funcs() []string {
	names := make([]string, len(rt.funcs))
	for i, f := range rt.funcs {
		names[i] = f.Name()
	}
	return names
}

// Remove unlinks the tracker's functions.
func (rt *ResourceTracker) Remove() error {
	if rt.removed {
		return newError("", ErrTrackerRemoved, "%s", rt.ID)
	}
	rt.removed = true
	for _, f := range rt.funcs {
		rt.session.unlink(f.Name(), rt)
	}
	rt.session.log.Debug().Stringer("tracker", rt.ID).Strs("funcs", rt.Funcs()).Msg("removed module")
	return nil
}

// AddModule links every function defined in m. Declarations are left
// unresolved until called. The module must not be modified afterwards.
func (s *Session) AddModule(m *ir.Module) (*ResourceTracker, error) {
	rt := &ResourceTracker{ID: uuid.New(), session: s}
	seen := make(map[string]bool)
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		if seen[f.Name()] {
			return nil, newError(f.Name(), ErrDuplicateSymbol, "")
		}
		seen[f.Name()] = true
		if err := check(f); err != nil {
			return nil, err
		}
		rt.funcs = append(rt.funcs, f)
	}

	for _, f := range rt.funcs {
		s.defs[f.Name()] = append(s.defs[f.Name()], &linked{fn: f, tracker: rt})
	}
	s.log.Debug().Stringer("tracker", rt.ID).Strs("funcs", rt.Funcs()).Msg("added module")
	return rt, nil
}

func (s *Session) unlink(name string, rt *ResourceTracker) {
	stack := s.defs[name]
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].tracker == rt {
			stack = append(stack[:i], stack[i+1:]...)
			break
		}
	}
	if len(stack) == 0 {
		delete(s.defs, name)
		return
	}
	s.defs[name] = stack
}

// definition returns the latest linked definition of name.
func (s *Session) definition(name string) *ir.Func {
	stack := s.defs[name]
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1].fn
}

// Defined returns the names with a linked definition, sorted.
func (s *Session) Defined() []string {
	names := make([]string, 0, len(s.defs))
	for name := range s.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Symbol is a callable resolved by Lookup.
type Symbol struct {
	Name    string
	Arity   int
	session *Session
	fn      *ir.Func
	native  *Native
}

// IsNative reports whether the symbol is a host intrinsic.
func (sym *Symbol) IsNative() bool {
	return sym.native != nil
}

// Lookup resolves name to the latest definition, or else to a native
// intrinsic.
func (s *Session) Lookup(name string) (*Symbol, error) {
	if f := s.definition(name); f != nil {
		return &Symbol{Name: name, Arity: len(f.Params), session: s, fn: f}, nil
	}
	if n, ok := LookupNative(name); ok {
		return &Symbol{Name: name, Arity: n.Arity, session: s, native: &n}, nil
	}
	return nil, newError(name, ErrSymbolNotFound, "")
}

// Call runs the symbol. ctx is checked on every call and branch.
func (sym *Symbol) Call(ctx context.Context, args ...float64) (float64, error) {
	if len(args) != sym.Arity {
		return 0, newError(sym.Name, ErrArity, "got %d, want %d", len(args), sym.Arity)
	}
	if sym.native != nil {
		return sym.native.Fn(sym.session.out, args), nil
	}
	m := &machine{session: sym.session, ctx: ctx}
	return m.run(sym.fn, args)
}
