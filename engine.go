package div

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/llir/llvm/ir"
	"github.com/rs/zerolog"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/codegen"
	"github.com/kolkov/div/internal/jit"
	"github.com/kolkov/div/internal/lexer"
	"github.com/kolkov/div/internal/match"
	"github.com/kolkov/div/internal/opt"
	"github.com/kolkov/div/internal/parser"
	"github.com/kolkov/div/internal/token"
)

// Version is the div version string.
const Version = "0.1.0"

// Kind classifies a top-level entry.
type Kind uint8

const (
	KindDefinition Kind = iota + 1
	KindExtern
	KindExpression
)

func (k Kind) String() string {
	switch k {
	case KindDefinition:
		return "definition"
	case KindExtern:
		return "extern"
	case KindExpression:
		return "expression"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Result is the outcome of one top-level entry.
type Result struct {
	Kind  Kind
	Name  string  // Function name; empty for expressions
	Value float64 // Value of an expression
	IR    string  // Generated IR of the function
	Err   error   // *ParseError, *CompileError or *RuntimeError
}

// Engine compiles and runs div code. Definitions accumulate across calls to
// Run, so an Engine can back a REPL. An Engine is not safe for concurrent
// use; separate engines share nothing but the native intrinsics.
type Engine struct {
	cfg      Config
	log      zerolog.Logger
	registry *codegen.Registry
	gen      *codegen.Generator
	session  *jit.Session
	ir       map[string]string
	filters  *match.Cache
}

// New returns an engine. config may be nil for defaults.
func New(config *Config) *Engine {
	var cfg Config
	if config != nil {
		cfg = *config
	}
	cfg.applyDefaults()

	e := &Engine{
		cfg:      cfg,
		log:      *cfg.Logger,
		registry: codegen.NewRegistry(),
		ir:       make(map[string]string),
		filters:  match.NewCache(0),
	}

	opts := []codegen.Option{
		codegen.WithLogger(e.log.With().Str("stage", "codegen").Logger()),
		codegen.WithLoopGuard(cfg.GuardLoops),
	}
	if *cfg.Optimize {
		pm := opt.Default()
		pm.SetLogger(e.log.With().Str("stage", "opt").Logger())
		opts = append(opts, codegen.WithOptimizer(pm))
	}
	e.gen = codegen.New(e.registry, opts...)
	e.session = jit.NewSession(
		jit.WithOutput(cfg.Output),
		jit.WithMaxCallDepth(cfg.MaxCallDepth),
		jit.WithLogger(e.log.With().Str("stage", "jit").Logger()),
	)
	return e
}

// Run reads top-level entries from r until end of input. A failed entry is
// reported in its Result and processing continues with the next one.
func (e *Engine) Run(r io.Reader) []Result {
	return e.RunContext(context.Background(), r)
}

// RunContext is like Run; ctx bounds the execution of every expression.
func (e *Engine) RunContext(ctx context.Context, r io.Reader) []Result {
	l := lexer.New(r)
	if e.cfg.Filename != "" {
		l.SetFilename(e.cfg.Filename)
	}
	p := parser.New(l, parser.WithLogger(e.log.With().Str("stage", "parse").Logger()))

	var results []Result
	for {
		tok := p.Current()
		switch {
		case tok.Type == token.EOF:
			return results
		case tok.Is(';'):
			p.Next()
		case tok.Type == token.DEF:
			results = append(results, e.handleDefinition(p))
		case tok.Type == token.EXTERN:
			results = append(results, e.handleExtern(p))
		default:
			results = append(results, e.handleExpression(ctx, p))
		}
	}
}

// Eval runs src and returns the value of its last expression. It returns
// the first error any entry produced.
func (e *Engine) Eval(src string) (float64, error) {
	return e.EvalContext(context.Background(), src)
}

// EvalContext is like Eval with a context bounding execution.
func (e *Engine) EvalContext(ctx context.Context, src string) (float64, error) {
	var v float64
	for _, res := range e.RunContext(ctx, strings.NewReader(src)) {
		if res.Err != nil {
			return 0, res.Err
		}
		if res.Kind == KindExpression {
			v = res.Value
		}
	}
	return v, nil
}

// skip recovers from a parse error by dropping one token.
func (e *Engine) skip(p *parser.Parser, kind Kind) Result {
	err := p.Err()
	p.Reset()
	p.Next()
	return Result{Kind: kind, Err: parseError(err)}
}

// beginModule gives the entry a fresh module.
func (e *Engine) beginModule() *ir.Module {
	m := ir.NewModule()
	if e.cfg.Filename != "" {
		m.SourceFilename = e.cfg.Filename
	}
	e.gen.SetModule(m)
	return m
}

func (e *Engine) dump(m *ir.Module) {
	if e.cfg.DumpIR != nil {
		fmt.Fprintln(e.cfg.DumpIR, m.String())
	}
}

func (e *Engine) handleDefinition(p *parser.Parser) Result {
	fn := p.ParseDefinition()
	if fn == nil {
		return e.skip(p, KindDefinition)
	}
	res := Result{Kind: KindDefinition, Name: fn.Proto.Name}

	m := e.beginModule()
	f, err := e.gen.GenFunction(fn)
	if err != nil {
		res.Err = compileError(err)
		return res
	}
	e.dump(m)
	if _, err := e.session.AddModule(m); err != nil {
		e.log.Error().Err(err).Str("func", res.Name).Msg("link failed")
		res.Err = runtimeError(err)
		return res
	}
	res.IR = f.LLString()
	e.ir[res.Name] = res.IR
	e.log.Info().Str("func", res.Name).Msg("read function definition")
	e.log.Debug().Str("func", res.Name).Msg(res.IR)
	return res
}

func (e *Engine) handleExtern(p *parser.Parser) Result {
	proto := p.ParseExtern()
	if proto == nil {
		return e.skip(p, KindExtern)
	}
	res := Result{Kind: KindExtern, Name: proto.Name}

	e.beginModule()
	f, err := e.gen.GenExtern(proto)
	if err != nil {
		res.Err = compileError(err)
		return res
	}
	res.IR = f.LLString()
	e.ir[res.Name] = res.IR
	e.log.Info().Str("func", res.Name).Msg("read extern")
	return res
}

func (e *Engine) handleExpression(ctx context.Context, p *parser.Parser) Result {
	fn := p.ParseTopLevelExpr()
	if fn == nil {
		return e.skip(p, KindExpression)
	}
	res := Result{Kind: KindExpression}

	m := e.beginModule()
	f, err := e.gen.GenFunction(fn)
	if err != nil {
		res.Err = compileError(err)
		return res
	}
	// The anonymous prototype is only needed while generating the wrapper.
	defer e.registry.Remove(ast.AnonName)
	res.IR = f.LLString()
	e.dump(m)

	rt, err := e.session.AddModule(m)
	if err != nil {
		e.log.Error().Err(err).Msg("link failed")
		res.Err = runtimeError(err)
		return res
	}
	defer func() {
		if err := rt.Remove(); err != nil {
			e.log.Warn().Err(err).Msg("remove expression module")
		}
	}()

	sym, err := e.session.Lookup(ast.AnonName)
	if err == nil {
		res.Value, err = sym.Call(ctx)
	}
	if err != nil {
		e.log.Error().Err(err).Msg("evaluation failed")
		res.Err = runtimeError(err)
		return res
	}
	e.log.Debug().Float64("value", res.Value).Msg("evaluated")
	return res
}

// Symbols returns the known function names (definitions and externs)
// matching the regular expression pattern, sorted. An empty pattern
// matches every name.
func (e *Engine) Symbols(pattern string) ([]string, error) {
	f, err := e.filters.Get(pattern)
	if err != nil {
		return nil, err
	}
	return f.Select(e.registry.Names()), nil
}

// IR returns the IR last generated for the function called name.
func (e *Engine) IR(name string) (string, bool) {
	s, ok := e.ir[name]
	return s, ok
}

// Natives returns the names of the host intrinsics an extern can bind to.
func Natives() []string {
	return jit.Natives()
}

// Incomplete reports whether src ends in the middle of an entry, so an
// interactive front end should read another line before running it.
func Incomplete(src string) bool {
	_, err := parser.ParseAll(src)
	return err != nil && parser.IsIncomplete(err)
}

// Eval runs src in a fresh engine and returns the value of its last
// expression. config may be nil for defaults.
//
// Example:
//
//	v, err := div.Eval("def sq(x) x*x; sq(4)", nil)
//	// v == 16
func Eval(src string, config *Config) (float64, error) {
	return New(config).Eval(src)
}
