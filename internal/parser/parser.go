package parser

import (
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/lexer"
	"github.com/kolkov/div/internal/token"
)

// binopPrecedence holds the binding strength of each binary operator.
// Higher binds tighter.
var binopPrecedence = map[rune]int{
	'<': 10,
	'+': 20,
	'-': 20,
	'*': 40,
}

// Precedence returns the precedence of tok as a binary operator,
// or -1 if tok is not a binary operator.
func Precedence(tok lexer.Token) int {
	if tok.Type != token.CHAR {
		return -1
	}
	if prec, ok := binopPrecedence[tok.Char()]; ok {
		return prec
	}
	return -1
}

// Parser is a recursive descent parser for div. It keeps one token of
// lookahead. Parse methods return nil on failure; the error is recorded,
// logged, and available from Err.
type Parser struct {
	lexer  *lexer.Lexer
	tok    lexer.Token // Current token
	log    zerolog.Logger
	errors ErrorList
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger that receives parse diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Parser) {
		p.log = log
	}
}

// New creates a parser reading tokens from l and primes the first token.
func New(l *lexer.Lexer, opts ...Option) *Parser {
	p := &Parser{
		lexer: l,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.Next()
	return p
}

// NewFromReader creates a parser over a character stream.
func NewFromReader(r io.Reader, opts ...Option) *Parser {
	return New(lexer.New(r), opts...)
}

// NewFromString creates a parser over src.
func NewFromString(src string, opts ...Option) *Parser {
	return New(lexer.NewFromString(src), opts...)
}

// ParseExpr parses a single expression (useful for testing).
func ParseExpr(src string) (ast.Expr, error) {
	p := NewFromString(src)
	expr := p.ParseExpr()
	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	if p.tok.Type != token.EOF {
		return nil, p.fail("unexpected %s after expression", p.tokenDesc())
	}
	return expr, nil
}

// ParseDefinition parses a single "def" entry (useful for testing).
func ParseDefinition(src string) (*ast.Function, error) {
	p := NewFromString(src)
	if p.tok.Type != token.DEF {
		return nil, p.fail("expected def")
	}
	fn := p.ParseDefinition()
	if err := p.errors.Err(); err != nil {
		return nil, err
	}
	if p.tok.Type != token.EOF && !p.tok.Is(';') {
		return nil, p.fail("unexpected %s after definition", p.tokenDesc())
	}
	return fn, nil
}

// ParseAll parses every top-level entry of src without recovery: it stops at
// the first error. Entries are *ast.Function for definitions and top-level
// expressions and *ast.Prototype for externs.
func ParseAll(src string) ([]ast.Node, error) {
	p := NewFromString(src)
	var nodes []ast.Node
	for {
		switch {
		case p.tok.Type == token.EOF:
			return nodes, nil
		case p.tok.Is(';'):
			p.Next()
			continue
		case p.tok.Type == token.DEF:
			if fn := p.ParseDefinition(); fn != nil {
				nodes = append(nodes, fn)
			}
		case p.tok.Type == token.EXTERN:
			if proto := p.ParseExtern(); proto != nil {
				nodes = append(nodes, proto)
			}
		default:
			if fn := p.ParseTopLevelExpr(); fn != nil {
				nodes = append(nodes, fn)
			}
		}
		if err := p.Err(); err != nil {
			return nodes, err
		}
	}
}

// -----------------------------------------------------------------------------
// Token handling
// -----------------------------------------------------------------------------

// Current returns the lookahead token.
func (p *Parser) Current() lexer.Token {
	return p.tok
}

// Next advances to the next token and returns it.
func (p *Parser) Next() lexer.Token {
	p.tok = p.lexer.Next()
	return p.tok
}

// Err returns the most recent parse error, or nil.
func (p *Parser) Err() error {
	if len(p.errors) == 0 {
		return nil
	}
	return p.errors[len(p.errors)-1]
}

// Errors returns every error recorded since the last Reset.
func (p *Parser) Errors() ErrorList {
	return p.errors
}

// Reset forgets recorded errors. The token stream is not touched.
func (p *Parser) Reset() {
	p.errors = nil
}

// tokenDesc returns a description of the current token for error messages.
func (p *Parser) tokenDesc() string {
	switch p.tok.Type {
	case token.IDENT, token.NUMBER:
		return fmt.Sprintf("%s %q", p.tok.Type, p.tok.Value)
	case token.CHAR:
		return fmt.Sprintf("'%s'", p.tok.Value)
	default:
		return p.tok.Type.String()
	}
}

// fail records and logs a parse error at the current token.
func (p *Parser) fail(format string, args ...any) *ParseError {
	err := &ParseError{
		Pos:     p.tok.Pos,
		Message: fmt.Sprintf(format, args...),
		Got:     p.tokenDesc(),
		AtEOF:   p.tok.Type == token.EOF,
	}
	p.errors = append(p.errors, err)
	p.log.Error().
		Str("pos", err.Pos.String()).
		Str("got", err.Got).
		Msg(err.Message)
	return err
}

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// ParseExpr parses a primary expression followed by any binary operators.
//
//	expr ::= primary (binop primary)*
func (p *Parser) ParseExpr() ast.Expr {
	lhs := p.ParsePrimary()
	if lhs == nil {
		return nil
	}
	return p.ParseBinOpRHS(0, lhs)
}

// ParsePrimary dispatches on the current token.
//
//	primary ::= identifierexpr | numberexpr | parenexpr | ifexpr | forexpr
func (p *Parser) ParsePrimary() ast.Expr {
	switch {
	case p.tok.Type == token.IDENT:
		return p.ParseIdentifierExpr()
	case p.tok.Type == token.NUMBER:
		return p.parseNumberExpr()
	case p.tok.Is('('):
		return p.ParseParenExpr()
	case p.tok.Type == token.IF:
		return p.ParseIf()
	case p.tok.Type == token.FOR:
		return p.ParseFor()
	default:
		p.fail("unknown token when expecting an expression")
		return nil
	}
}

func (p *Parser) parseNumberExpr() ast.Expr {
	n := &ast.NumberExpr{
		BaseExpr: ast.MakeBaseExpr(p.tok.Pos),
		Value:    p.tok.Num,
	}
	p.Next()
	return n
}

// ParseParenExpr parses a parenthesized expression.
//
//	parenexpr ::= '(' expr ')'
func (p *Parser) ParseParenExpr() ast.Expr {
	p.Next() // eat (
	expr := p.ParseExpr()
	if expr == nil {
		return nil
	}
	if !p.tok.Is(')') {
		p.fail("expected ')'")
		return nil
	}
	p.Next() // eat )
	return expr
}

// ParseIdentifierExpr parses a variable reference or a call.
//
//	identifierexpr ::= identifier | identifier '(' (expr (',' expr)*)? ')'
func (p *Parser) ParseIdentifierExpr() ast.Expr {
	pos := p.tok.Pos
	name := p.tok.Value
	p.Next() // eat identifier

	if !p.tok.Is('(') {
		return &ast.VariableExpr{BaseExpr: ast.MakeBaseExpr(pos), Name: name}
	}

	p.Next() // eat (
	var args []ast.Expr
	if !p.tok.Is(')') {
		for {
			arg := p.ParseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)

			if p.tok.Is(')') {
				break
			}
			if !p.tok.Is(',') {
				p.fail("expected ')' or ',' in argument list")
				return nil
			}
			p.Next() // eat ,
		}
	}
	p.Next() // eat )

	return &ast.CallExpr{BaseExpr: ast.MakeBaseExpr(pos), Callee: name, Args: args}
}

// ParseBinOpRHS parses the operator/operand pairs that follow lhs using
// precedence climbing. Only operators binding at least as tight as minPrec
// are consumed; equal precedence associates to the left.
//
//	binoprhs ::= (binop primary)*
func (p *Parser) ParseBinOpRHS(minPrec int, lhs ast.Expr) ast.Expr {
	for {
		prec := Precedence(p.tok)
		if prec < minPrec {
			return lhs
		}

		opTok := p.tok
		p.Next() // eat operator

		rhs := p.ParsePrimary()
		if rhs == nil {
			return nil
		}

		// If the next operator binds tighter, let it take rhs as its lhs.
		if prec < Precedence(p.tok) {
			rhs = p.ParseBinOpRHS(prec+1, rhs)
			if rhs == nil {
				return nil
			}
		}

		lhs = &ast.BinaryExpr{
			BaseExpr: ast.MakeBaseExpr(opTok.Pos),
			Op:       opTok.Char(),
			Left:     lhs,
			Right:    rhs,
		}
	}
}

// ParseIf parses a conditional expression.
//
//	ifexpr ::= 'if' expr 'then' expr 'else' expr
func (p *Parser) ParseIf() ast.Expr {
	pos := p.tok.Pos
	p.Next() // eat if

	cond := p.ParseExpr()
	if cond == nil {
		return nil
	}

	if p.tok.Type != token.THEN {
		p.fail("expected then")
		return nil
	}
	p.Next()

	then := p.ParseExpr()
	if then == nil {
		return nil
	}

	if p.tok.Type != token.ELSE {
		p.fail("expected else")
		return nil
	}
	p.Next()

	els := p.ParseExpr()
	if els == nil {
		return nil
	}

	return &ast.IfExpr{BaseExpr: ast.MakeBaseExpr(pos), Cond: cond, Then: then, Else: els}
}

// ParseFor parses a loop expression. The step is optional and stays nil
// when absent.
//
//	forexpr ::= 'for' identifier '=' expr ',' expr (',' expr)? 'in' expr
func (p *Parser) ParseFor() ast.Expr {
	pos := p.tok.Pos
	p.Next() // eat for

	if p.tok.Type != token.IDENT {
		p.fail("expected identifier after for")
		return nil
	}
	name := p.tok.Value
	p.Next()

	if !p.tok.Is('=') {
		p.fail("expected '=' after for")
		return nil
	}
	p.Next()

	start := p.ParseExpr()
	if start == nil {
		return nil
	}
	if !p.tok.Is(',') {
		p.fail("expected ',' after for start value")
		return nil
	}
	p.Next()

	end := p.ParseExpr()
	if end == nil {
		return nil
	}

	var step ast.Expr
	if p.tok.Is(',') {
		p.Next()
		step = p.ParseExpr()
		if step == nil {
			return nil
		}
	}

	if p.tok.Type != token.IN {
		p.fail("expected 'in' after for")
		return nil
	}
	p.Next()

	body := p.ParseExpr()
	if body == nil {
		return nil
	}

	return &ast.ForExpr{
		BaseExpr: ast.MakeBaseExpr(pos),
		Var:      name,
		Start:    start,
		End:      end,
		Step:     step,
		Body:     body,
	}
}

// -----------------------------------------------------------------------------
// Top-level entries
// -----------------------------------------------------------------------------

// ParsePrototype parses a function signature. Parameter names are not
// separated by commas.
//
//	prototype ::= identifier '(' identifier* ')'
func (p *Parser) ParsePrototype() *ast.Prototype {
	if p.tok.Type != token.IDENT {
		p.fail("expected function name in prototype")
		return nil
	}
	pos := p.tok.Pos
	name := p.tok.Value
	p.Next()

	if !p.tok.Is('(') {
		p.fail("expected '(' in prototype")
		return nil
	}

	var params []string
	for p.Next().Type == token.IDENT {
		params = append(params, p.tok.Value)
	}

	if !p.tok.Is(')') {
		p.fail("expected ')' in prototype")
		return nil
	}
	p.Next() // eat )

	return &ast.Prototype{StartPos: pos, Name: name, Params: params}
}

// ParseDefinition parses a function definition.
//
//	definition ::= 'def' prototype expr
func (p *Parser) ParseDefinition() *ast.Function {
	p.Next() // eat def
	proto := p.ParsePrototype()
	if proto == nil {
		return nil
	}
	body := p.ParseExpr()
	if body == nil {
		return nil
	}
	return &ast.Function{Proto: proto, Body: body}
}

// ParseExtern parses a forward declaration.
//
//	external ::= 'extern' prototype
func (p *Parser) ParseExtern() *ast.Prototype {
	p.Next() // eat extern
	return p.ParsePrototype()
}

// ParseTopLevelExpr wraps a bare expression in an anonymous zero-parameter
// function so it can be compiled and run on its own.
//
//	toplevelexpr ::= expr
func (p *Parser) ParseTopLevelExpr() *ast.Function {
	pos := p.tok.Pos
	body := p.ParseExpr()
	if body == nil {
		return nil
	}
	return &ast.Function{
		Proto: &ast.Prototype{StartPos: pos, Name: ast.AnonName},
		Body:  body,
	}
}
