package parser_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/kr/pretty"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kolkov/div/internal/ast"
	"github.com/kolkov/div/internal/parser"
	"github.com/kolkov/div/internal/token"
)

// stripPos clears source positions so trees built by hand compare equal to
// parsed ones.
func stripPos(n ast.Node) {
	switch n := n.(type) {
	case *ast.NumberExpr:
		n.StartPos = token.NoPos
	case *ast.VariableExpr:
		n.StartPos = token.NoPos
	case *ast.BinaryExpr:
		n.StartPos = token.NoPos
		stripPos(n.Left)
		stripPos(n.Right)
	case *ast.CallExpr:
		n.StartPos = token.NoPos
		for _, a := range n.Args {
			stripPos(a)
		}
	case *ast.IfExpr:
		n.StartPos = token.NoPos
		stripPos(n.Cond)
		stripPos(n.Then)
		stripPos(n.Else)
	case *ast.ForExpr:
		n.StartPos = token.NoPos
		stripPos(n.Start)
		stripPos(n.End)
		if n.Step != nil {
			stripPos(n.Step)
		}
		stripPos(n.Body)
	case *ast.Prototype:
		n.StartPos = token.NoPos
	case *ast.Function:
		stripPos(n.Proto)
		stripPos(n.Body)
	}
}

func assertTree(t *testing.T, want, got ast.Node) {
	t.Helper()
	stripPos(got)
	if diff := pretty.Diff(want, got); len(diff) > 0 {
		t.Errorf("tree mismatch:\n%s", strings.Join(diff, "\n"))
	}
}

func TestParseExprGrouping(t *testing.T) {
	tests := []struct {
		src  string
		want string
	}{
		{"1", "1"},
		{"x", "x"},
		{"1+2*3", "(1 + (2 * 3))"},
		{"1*2+3", "((1 * 2) + 3)"},
		{"10-3-2", "((10 - 3) - 2)"},
		{"a+b-c", "((a + b) - c)"},
		{"a<b+c", "(a < (b + c))"},
		{"a*b<c*d", "((a * b) < (c * d))"},
		{"a+b*c-d", "((a + (b * c)) - d)"},
		{"(1+2)*3", "((1 + 2) * 3)"},
		{"((x))", "x"},
		{"f()", "f()"},
		{"f(1, x+1, g(y))", "f(1, (x + 1), g(y))"},
		{"if x < 2 then x else 0", "(if (x < 2) then x else 0)"},
		{"for i = 1, i < n in i", "(for i = 1, (i < n) in i)"},
		{"for i = 0, i < 10, 2 in f(i)", "(for i = 0, (i < 10), 2 in f(i))"},
		{"1 + if a then b else c", "(1 + (if a then b else c))"},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			expr, err := parser.ParseExpr(tt.src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ast.String(expr))
		})
	}
}

func TestParsePrecedenceTree(t *testing.T) {
	expr, err := parser.ParseExpr("1+2*3")
	require.NoError(t, err)

	want := &ast.BinaryExpr{
		Op:   '+',
		Left: &ast.NumberExpr{Value: 1},
		Right: &ast.BinaryExpr{
			Op:    '*',
			Left:  &ast.NumberExpr{Value: 2},
			Right: &ast.NumberExpr{Value: 3},
		},
	}
	assertTree(t, want, expr)
}

func TestParseForStepIsOptional(t *testing.T) {
	expr, err := parser.ParseExpr("for i = 1, 10 in i")
	require.NoError(t, err)

	want := &ast.ForExpr{
		Var:   "i",
		Start: &ast.NumberExpr{Value: 1},
		End:   &ast.NumberExpr{Value: 10},
		Body:  &ast.VariableExpr{Name: "i"},
	}
	assertTree(t, want, expr)
}

func TestParseDefinition(t *testing.T) {
	p := parser.NewFromString("def fib(n) if n<2 then n else fib(n-1)+fib(n-2)")
	fn := p.ParseDefinition()
	require.NoError(t, p.Err())
	require.NotNil(t, fn)

	assert.Equal(t, "fib", fn.Proto.Name)
	assert.Equal(t, []string{"n"}, fn.Proto.Params)
	assert.Equal(t,
		"def fib(n) (if (n < 2) then n else (fib((n - 1)) + fib((n - 2))))",
		ast.String(fn))
	assert.Equal(t, token.EOF, p.Current().Type)
}

func TestParsePrototypeParams(t *testing.T) {
	tests := []struct {
		src    string
		name   string
		params []string
	}{
		{"f()", "f", nil},
		{"g(x)", "g", []string{"x"}},
		{"h(a b c)", "h", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			p := parser.NewFromString(tt.src)
			proto := p.ParsePrototype()
			require.NoError(t, p.Err())
			require.NotNil(t, proto)
			assert.Equal(t, tt.name, proto.Name)
			assert.Equal(t, tt.params, proto.Params)
		})
	}
}

func TestParseExtern(t *testing.T) {
	for _, src := range []string{"extern sin(x)", "ext sin(x)"} {
		p := parser.NewFromString(src)
		proto := p.ParseExtern()
		require.NoError(t, p.Err(), src)
		require.NotNil(t, proto, src)
		assert.Equal(t, "extern sin(x)", ast.String(proto))
	}
}

func TestParseTopLevelExpr(t *testing.T) {
	p := parser.NewFromString("4+5")
	fn := p.ParseTopLevelExpr()
	require.NotNil(t, fn)
	assert.Equal(t, ast.AnonName, fn.Proto.Name)
	assert.Empty(t, fn.Proto.Params)
	assert.Equal(t, "(4 + 5)", ast.String(fn.Body))
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		parse   func(p *parser.Parser) bool
		message string
		atEOF   bool
	}{
		{
			name:    "unexpected token",
			src:     ")",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "unknown token when expecting an expression",
		},
		{
			name:    "missing close paren",
			src:     "(1+2",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected ')'",
			atEOF:   true,
		},
		{
			name:    "bad argument list",
			src:     "f(1 2)",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected ')' or ',' in argument list",
		},
		{
			name:    "missing then",
			src:     "if x 1 else 2",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected then",
		},
		{
			name:    "missing else",
			src:     "if x then 1",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected else",
			atEOF:   true,
		},
		{
			name:    "for without identifier",
			src:     "for 1",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected identifier after for",
		},
		{
			name:    "for without equals",
			src:     "for i 1",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected '=' after for",
		},
		{
			name:    "for without comma",
			src:     "for i = 1 in i",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected ',' after for start value",
		},
		{
			name:    "for without in",
			src:     "for i = 1, 2 i",
			parse:   func(p *parser.Parser) bool { return p.ParseExpr() == nil },
			message: "expected 'in' after for",
		},
		{
			name:    "prototype without name",
			src:     "def (x) x",
			parse:   func(p *parser.Parser) bool { return p.ParseDefinition() == nil },
			message: "expected function name in prototype",
		},
		{
			name:    "prototype without open paren",
			src:     "def f x",
			parse:   func(p *parser.Parser) bool { return p.ParseDefinition() == nil },
			message: "expected '(' in prototype",
		},
		{
			name:    "prototype with comma",
			src:     "extern f(a, b)",
			parse:   func(p *parser.Parser) bool { return p.ParseExtern() == nil },
			message: "expected ')' in prototype",
		},
		{
			name:    "extern at end of input",
			src:     "extern",
			parse:   func(p *parser.Parser) bool { return p.ParseExtern() == nil },
			message: "expected function name in prototype",
			atEOF:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parser.NewFromString(tt.src)
			require.True(t, tt.parse(p), "parse should fail")

			err := p.Err()
			require.Error(t, err)
			var pe *parser.ParseError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.message, pe.Message)
			assert.Equal(t, tt.atEOF, parser.IsIncomplete(err))
			assert.Len(t, p.Errors(), 1)
		})
	}
}

func TestParseErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	log := zerolog.New(&buf)

	p := parser.NewFromString("if x then 1 else", parser.WithLogger(log))
	assert.Nil(t, p.ParseExpr())
	assert.Contains(t, buf.String(), `"level":"error"`)
	assert.Contains(t, buf.String(), "unknown token when expecting an expression")
	assert.Contains(t, buf.String(), `"pos":"1:17"`)
}

func TestParseRecoveryBySkippingOneToken(t *testing.T) {
	p := parser.NewFromString(") 1+1")
	assert.Nil(t, p.ParseTopLevelExpr())
	require.Error(t, p.Err())

	// The driver discards exactly one token and retries.
	p.Next()
	p.Reset()
	fn := p.ParseTopLevelExpr()
	require.NoError(t, p.Err())
	require.NotNil(t, fn)
	assert.Equal(t, "(1 + 1)", ast.String(fn.Body))
}

func TestParseErrorPosition(t *testing.T) {
	_, err := parser.ParseExpr("1 +\n  )")
	require.Error(t, err)
	assert.Equal(t, "2:3: unknown token when expecting an expression", err.Error())
}

func TestParseExprTrailingInput(t *testing.T) {
	_, err := parser.ParseExpr("1 2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unexpected number "2" after expression`)
}

func TestParseAll(t *testing.T) {
	nodes, err := parser.ParseAll(`
# fib and friends
extern sin(x);
def fib(n) if n < 2 then n else fib(n-1) + fib(n-2);
fib(10);
;;
`)
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.IsType(t, &ast.Prototype{}, nodes[0])
	assert.IsType(t, &ast.Function{}, nodes[1])
	assert.Equal(t, ast.AnonName, nodes[2].(*ast.Function).Proto.Name)

	_, err = parser.ParseAll("def f(x")
	require.Error(t, err)
	assert.True(t, parser.IsIncomplete(err))
}

func TestPrecedence(t *testing.T) {
	p := parser.NewFromString("< + - * / x")
	want := []int{10, 20, 20, 40, -1, -1}
	for i, w := range want {
		assert.Equal(t, w, parser.Precedence(p.Current()), "token %d", i)
		p.Next()
	}
}

func TestErrorList(t *testing.T) {
	var el parser.ErrorList
	assert.NoError(t, el.Err())
	assert.Equal(t, "no errors", el.Error())

	el = append(el, &parser.ParseError{Message: "a"}, &parser.ParseError{Message: "b"})
	assert.Equal(t, "a (and 1 more errors)", el.Error())
	assert.False(t, parser.IsIncomplete(el))
}
