package ast

import "github.com/kolkov/div/internal/token"

// -----------------------------------------------------------------------------
// Expressions
// -----------------------------------------------------------------------------

// NumberExpr represents a numeric literal.
// Examples: 42, 3.14
type NumberExpr struct {
	BaseExpr
	Value float64
}

// VariableExpr represents a variable reference. The name is resolved against
// the local variables of the function being generated, not at parse time.
type VariableExpr struct {
	BaseExpr
	Name string
}

// BinaryExpr represents a binary operation.
// Examples: a + b, n < 2
type BinaryExpr struct {
	BaseExpr
	Op    rune // Operator character
	Left  Expr
	Right Expr
}

// CallExpr represents a function call.
// Example: fib(n-1)
type CallExpr struct {
	BaseExpr
	Callee string
	Args   []Expr // Arguments (may be empty)
}

// IfExpr represents a conditional expression. Both branches are expressions
// and the construct evaluates to the value of the branch taken.
// Example: if n < 2 then n else fib(n-1)
type IfExpr struct {
	BaseExpr
	Cond Expr
	Then Expr
	Else Expr
}

// ForExpr represents a counting loop. It always evaluates to 0.
// Example: for i = 1, i < n, 2 in putchard(42)
type ForExpr struct {
	BaseExpr
	Var   string // Loop variable name
	Start Expr
	End   Expr
	Step  Expr // Optional; nil means a step of 1.0
	Body  Expr
}

// -----------------------------------------------------------------------------
// Declarations
// -----------------------------------------------------------------------------

// Prototype describes a callable signature: a name and ordered parameter
// names. All parameters and the result are doubles.
type Prototype struct {
	StartPos token.Position
	Name     string
	Params   []string
}

func (p *Prototype) Pos() token.Position { return p.StartPos }

// IsAnonymous reports whether p wraps a top-level expression.
func (p *Prototype) IsAnonymous() bool {
	return p.Name == AnonName
}

// Function is a named definition whose body is a single expression.
type Function struct {
	Proto *Prototype
	Body  Expr
}

func (f *Function) Pos() token.Position { return f.Proto.Pos() }

// -----------------------------------------------------------------------------
// Compile-time checks
// -----------------------------------------------------------------------------

var (
	_ Expr = (*NumberExpr)(nil)
	_ Expr = (*VariableExpr)(nil)
	_ Expr = (*BinaryExpr)(nil)
	_ Expr = (*CallExpr)(nil)
	_ Expr = (*IfExpr)(nil)
	_ Expr = (*ForExpr)(nil)
	_ Node = (*Prototype)(nil)
	_ Node = (*Function)(nil)
)
