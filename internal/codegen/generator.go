// Package codegen lowers div syntax trees to SSA IR built with
// github.com/llir/llvm.
//
// Every function takes and returns doubles. Comparisons produce 0.0 or 1.0.
// Control flow (if and for) is lowered to basic blocks joined by phi nodes.
//
// Function lookup is two-tier: the current module first, then a Registry
// of every prototype seen so far. The registry is what lets a function
// defined in one module be called from a later one.
package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
	"github.com/rs/zerolog"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/irutil"
	"github.com/kolkov/div/internal/token"
)

// Optimizer rewrites a verified function in place. It reports whether
// anything changed.
type Optimizer interface {
	Run(f *ir.Func) bool
}

// Generator holds the state of IR generation: the target module, the
// insertion point, the local variable table and the prototype registry.
// A Generator is not safe for concurrent use.
type Generator struct {
	module   *ir.Module
	registry *Registry
	resolver *Resolver

	fn     *ir.Func
	block  *ir.Block // Insertion point
	locals map[string]value.Value
	names  namer

	optimizer Optimizer
	loopGuard bool
	log       zerolog.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithLogger sets the logger that receives code generation diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(g *Generator) {
		g.log = log
	}
}

// WithOptimizer runs o over every function after it verifies.
func WithOptimizer(o Optimizer) Option {
	return func(g *Generator) {
		g.optimizer = o
	}
}

// WithLoopGuard makes for loops test their end condition before the first
// iteration. By default the body always runs at least once.
func WithLoopGuard(on bool) Option {
	return func(g *Generator) {
		g.loopGuard = on
	}
}

// New returns a generator that registers prototypes in reg and emits into
// a fresh module.
func New(reg *Registry, opts ...Option) *Generator {
	g := &Generator{
		registry: reg,
		locals:   make(map[string]value.Value),
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.SetModule(ir.NewModule())
	return g
}

// SetModule directs subsequent generation into m.
func (g *Generator) SetModule(m *ir.Module) {
	g.module = m
	g.resolver = NewResolver(m, g.registry)
}

// Module returns the module being generated into.
func (g *Generator) Module() *ir.Module {
	return g.module
}

// Registry returns the prototype registry.
func (g *Generator) Registry() *Registry {
	return g.registry
}

// Resolver returns the callee resolver for the current module.
func (g *Generator) Resolver() *Resolver {
	return g.resolver
}

// -----------------------------------------------------------------------------
// Top-level entries
// -----------------------------------------------------------------------------

// GenPrototype declares proto in the current module. A function of the same
// name and arity already in the module is reused.
func (g *Generator) GenPrototype(proto *ast.Prototype) (*ir.Func, error) {
	if f := irutil.FindFunc(g.module, proto.Name); f != nil {
		if len(f.Params) != len(proto.Params) {
			return nil, newError(InvalidFunction, proto.Pos(), proto.Name,
				"redeclared with %d parameters, previously %d", len(proto.Params), len(f.Params))
		}
		return f, nil
	}
	return Declare(g.module, proto), nil
}

// GenExtern declares proto and records it in the registry.
func (g *Generator) GenExtern(proto *ast.Prototype) (*ir.Func, error) {
	f, err := g.GenPrototype(proto)
	if err != nil {
		g.logError(err)
		return nil, err
	}
	g.registry.Add(proto)
	return f, nil
}

// GenFunction generates a full definition. The prototype is registered
// before the body is generated so the body can call itself. On failure the
// module and registry are left as they were before the call.
func (g *Generator) GenFunction(fn *ast.Function) (*ir.Func, error) {
	proto := fn.Proto
	prev, hadPrev := g.registry.Add(proto)

	existing := irutil.FindFunc(g.module, proto.Name)
	var saved []*ir.Block
	if existing != nil {
		saved = existing.Blocks
	}

	f, err := g.genFunction(fn, existing)
	if err != nil {
		switch {
		case existing == nil:
			if f != nil {
				irutil.RemoveFunc(g.module, f)
			}
		default:
			existing.Blocks = saved
		}
		g.registry.restore(proto.Name, prev, hadPrev)
		g.logError(err)
		return nil, err
	}

	if g.optimizer != nil {
		g.optimizer.Run(f)
	}
	g.log.Debug().Str("func", proto.Name).Int("blocks", len(f.Blocks)).Msg("generated function")
	return f, nil
}

func (g *Generator) genFunction(fn *ast.Function, existing *ir.Func) (*ir.Func, error) {
	proto := fn.Proto
	f, _, err := g.resolver.Resolve(proto.Name)
	if err != nil {
		return nil, err
	}
	if len(f.Params) != len(proto.Params) {
		err := newError(InvalidFunction, proto.Pos(), proto.Name,
			"redefined with %d parameters, previously %d", len(proto.Params), len(f.Params))
		if existing != nil {
			return nil, err
		}
		return f, err
	}

	g.fn = f
	g.names = make(namer)
	clear(g.locals)
	defer func() {
		g.fn = nil
		g.block = nil
		clear(g.locals)
	}()

	for i, param := range f.Params {
		param.SetName(g.names.unique(proto.Params[i]))
		g.locals[proto.Params[i]] = param
	}
	f.Blocks = nil
	g.block = f.NewBlock(g.names.unique("entry"))

	body, err := g.GenExpr(fn.Body)
	if err != nil {
		return f, err
	}
	g.block.NewRet(body)

	if err := Verify(f); err != nil {
		return f, newError(InvalidFunction, proto.Pos(), proto.Name, "%v", err)
	}
	return f, nil
}

func (g *Generator) logError(err error) {
	g.log.Error().Err(err).Msg("code generation failed")
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// GenExpr emits e at the insertion point and returns its value. It must be
// called while a function is being generated.
func (g *Generator) GenExpr(e ast.Expr) (value.Value, error) {
	switch e := e.(type) {
	case *ast.NumberExpr:
		return irutil.Double(e.Value), nil
	case *ast.VariableExpr:
		v, ok := g.locals[e.Name]
		if !ok {
			return nil, newError(UnknownVariable, e.Pos(), e.Name, "")
		}
		return v, nil
	case *ast.BinaryExpr:
		return g.genBinary(e)
	case *ast.CallExpr:
		return g.genCall(e)
	case *ast.IfExpr:
		return g.genIf(e)
	case *ast.ForExpr:
		return g.genFor(e)
	case nil:
		return nil, newError(InvalidFunction, token.NoPos, "", "missing expression")
	default:
		return nil, newError(InvalidFunction, e.Pos(), "", "unexpected expression %T", e)
	}
}

func (g *Generator) genBinary(e *ast.BinaryExpr) (value.Value, error) {
	l, err := g.GenExpr(e.Left)
	if err != nil {
		return nil, err
	}
	r, err := g.GenExpr(e.Right)
	if err != nil {
		return nil, err
	}

	switch e.Op {
	case '+':
		inst := g.block.NewFAdd(l, r)
		inst.SetName(g.names.unique("addtmp"))
		return inst, nil
	case '-':
		inst := g.block.NewFSub(l, r)
		inst.SetName(g.names.unique("subtmp"))
		return inst, nil
	case '*':
		inst := g.block.NewFMul(l, r)
		inst.SetName(g.names.unique("multmp"))
		return inst, nil
	case '<':
		cmp := g.block.NewFCmp(enum.FPredOLT, l, r)
		cmp.SetName(g.names.unique("cmptmp"))
		// Widen the i1 result to 0.0 or 1.0.
		inst := g.block.NewUIToFP(cmp, types.Double)
		inst.SetName(g.names.unique("booltmp"))
		return inst, nil
	default:
		return nil, newError(InvalidOperator, e.Pos(), string(e.Op), "")
	}
}

func (g *Generator) genCall(e *ast.CallExpr) (value.Value, error) {
	callee, src, err := g.resolver.Resolve(e.Callee)
	if err != nil {
		return nil, newError(UnknownFunction, e.Pos(), e.Callee, "")
	}
	if len(callee.Params) != len(e.Args) {
		return nil, newError(ArityMismatch, e.Pos(), e.Callee,
			"got %d, want %d", len(e.Args), len(callee.Params))
	}
	g.log.Trace().Str("callee", e.Callee).Stringer("from", src).Msg("resolved call")

	args := make([]value.Value, len(e.Args))
	for i, arg := range e.Args {
		v, err := g.GenExpr(arg)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	inst := g.block.NewCall(callee, args...)
	inst.SetName(g.names.unique("calltmp"))
	return inst, nil
}

// attach appends a block created with ir.NewBlock to the current function.
func (g *Generator) attach(b *ir.Block) {
	b.Parent = g.fn
	g.fn.Blocks = append(g.fn.Blocks, b)
}

// genIf lowers
//
//	entry:  condbr (cond != 0), then, else
//	then:   ...; br ifcont
//	else:   ...; br ifcont
//	ifcont: phi [then-value, then-end], [else-value, else-end]
//
// Nested control flow can move the insertion point, so the phi records the
// block each branch actually ended in.
func (g *Generator) genIf(e *ast.IfExpr) (value.Value, error) {
	cond, err := g.GenExpr(e.Cond)
	if err != nil {
		return nil, err
	}
	test := g.block.NewFCmp(enum.FPredONE, cond, irutil.Double(0))
	test.SetName(g.names.unique("ifcond"))

	thenBB := g.fn.NewBlock(g.names.unique("then"))
	elseBB := ir.NewBlock(g.names.unique("else"))
	mergeBB := ir.NewBlock(g.names.unique("ifcont"))
	g.block.NewCondBr(test, thenBB, elseBB)

	g.block = thenBB
	thenV, err := g.GenExpr(e.Then)
	if err != nil {
		return nil, err
	}
	g.block.NewBr(mergeBB)
	thenEnd := g.block

	g.attach(elseBB)
	g.block = elseBB
	elseV, err := g.GenExpr(e.Else)
	if err != nil {
		return nil, err
	}
	g.block.NewBr(mergeBB)
	elseEnd := g.block

	g.attach(mergeBB)
	g.block = mergeBB
	phi := mergeBB.NewPhi(ir.NewIncoming(thenV, thenEnd), ir.NewIncoming(elseV, elseEnd))
	phi.SetName(g.names.unique("iftmp"))
	return phi, nil
}

// genFor lowers
//
//	preheader: start; br loop         (guarded: condbr end(start), loop, afterloop)
//	loop:      var = phi [start, preheader], [next, loop-end]
//	           body; next = var + step; condbr (end != 0), loop, afterloop
//	afterloop:
//
// The loop variable shadows any local of the same name until the loop ends.
// The expression's value is always 0.0.
func (g *Generator) genFor(e *ast.ForExpr) (value.Value, error) {
	start, err := g.GenExpr(e.Start)
	if err != nil {
		return nil, err
	}

	old, shadowed := g.locals[e.Var]
	defer func() {
		if shadowed {
			g.locals[e.Var] = old
		} else {
			delete(g.locals, e.Var)
		}
	}()

	afterBB := ir.NewBlock(g.names.unique("afterloop"))
	var loopBB *ir.Block
	if g.loopGuard {
		g.locals[e.Var] = start
		first, err := g.GenExpr(e.End)
		if err != nil {
			return nil, err
		}
		guard := g.block.NewFCmp(enum.FPredONE, first, irutil.Double(0))
		guard.SetName(g.names.unique("loopguard"))
		loopBB = g.fn.NewBlock(g.names.unique("loop"))
		g.block.NewCondBr(guard, loopBB, afterBB)
	} else {
		loopBB = g.fn.NewBlock(g.names.unique("loop"))
		g.block.NewBr(loopBB)
	}
	preheader := g.block

	g.block = loopBB
	phi := loopBB.NewPhi(ir.NewIncoming(start, preheader))
	phi.SetName(g.names.unique(e.Var))
	g.locals[e.Var] = phi

	if _, err := g.GenExpr(e.Body); err != nil {
		return nil, err
	}

	var step value.Value = irutil.Double(1)
	if e.Step != nil {
		if step, err = g.GenExpr(e.Step); err != nil {
			return nil, err
		}
	}
	next := g.block.NewFAdd(phi, step)
	next.SetName(g.names.unique("nextvar"))

	end, err := g.GenExpr(e.End)
	if err != nil {
		return nil, err
	}
	test := g.block.NewFCmp(enum.FPredONE, end, irutil.Double(0))
	test.SetName(g.names.unique("loopcond"))

	loopEnd := g.block
	g.attach(afterBB)
	loopEnd.NewCondBr(test, loopBB, afterBB)
	phi.Incs = append(phi.Incs, ir.NewIncoming(next, loopEnd))

	g.block = afterBB
	return irutil.Double(0), nil
}
