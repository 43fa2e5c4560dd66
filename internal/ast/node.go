// Package ast defines the abstract syntax tree for div programs.
//
// Node hierarchy:
//
//	Node (interface)
//	├── Expr (interface) - expressions that produce a double
//	│   ├── NumberExpr - numeric literal
//	│   ├── VariableExpr - reference to a parameter or loop variable
//	│   ├── BinaryExpr - one of < + - *
//	│   ├── CallExpr - call of a defined or extern function
//	│   └── IfExpr, ForExpr - control flow
//	├── Prototype - a function name and its parameter names
//	└── Function - a prototype with a single-expression body
//
// The expression set is closed: Expr carries an unexported marker method, so
// a type switch over the types above is exhaustive.
package ast

import "github.com/kolkov/div/internal/token"

// AnonName is the prototype name given to top-level expressions.
const AnonName = "__anon_expr"

// Node is the interface implemented by all AST nodes.
type Node interface {
	// Pos returns the position of the first token belonging to this node.
	Pos() token.Position
}

// Expr is the interface for all expression nodes.
type Expr interface {
	Node
	exprNode() // marker method to prevent external implementations
}

// BaseExpr provides the position shared by all expression nodes.
type BaseExpr struct {
	StartPos token.Position
}

func (b *BaseExpr) Pos() token.Position { return b.StartPos }
func (b *BaseExpr) exprNode()           {}

// MakeBaseExpr creates a BaseExpr starting at pos.
func MakeBaseExpr(pos token.Position) BaseExpr {
	return BaseExpr{StartPos: pos}
}
