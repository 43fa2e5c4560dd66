package ast

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Printer writes AST nodes back out as div source. Binary operations and
// control-flow expressions are fully parenthesized, so the output shows how
// the parser grouped the input and parses back to the same tree.
type Printer struct {
	w   io.Writer
	err error
}

// NewPrinter creates a new Printer that writes to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{w: w}
}

// Print writes the node to the writer.
func (p *Printer) Print(node Node) error {
	p.printNode(node)
	return p.err
}

// String returns the printed form of node.
func String(node Node) string {
	var sb strings.Builder
	_ = NewPrinter(&sb).Print(node)
	return sb.String()
}

func (p *Printer) printf(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

func (p *Printer) printNode(node Node) {
	switch n := node.(type) {
	case nil:
		p.printf("<nil>")
	case *Function:
		p.printFunction(n)
	case *Prototype:
		p.printf("extern ")
		p.printPrototype(n)
	case Expr:
		p.printExpr(n)
	default:
		p.printf("<%T>", node)
	}
}

func (p *Printer) printFunction(f *Function) {
	if f.Proto == nil || !f.Proto.IsAnonymous() {
		p.printf("def ")
		p.printPrototype(f.Proto)
		p.printf(" ")
	}
	p.printExpr(f.Body)
}

func (p *Printer) printPrototype(proto *Prototype) {
	if proto == nil {
		p.printf("<nil>")
		return
	}
	p.printf("%s(%s)", proto.Name, strings.Join(proto.Params, " "))
}

func (p *Printer) printExpr(e Expr) {
	switch n := e.(type) {
	case nil:
		p.printf("<nil>")

	case *NumberExpr:
		p.printf("%s", strconv.FormatFloat(n.Value, 'f', -1, 64))

	case *VariableExpr:
		p.printf("%s", n.Name)

	case *BinaryExpr:
		p.printf("(")
		p.printExpr(n.Left)
		p.printf(" %c ", n.Op)
		p.printExpr(n.Right)
		p.printf(")")

	case *CallExpr:
		p.printf("%s(", n.Callee)
		for i, arg := range n.Args {
			if i > 0 {
				p.printf(", ")
			}
			p.printExpr(arg)
		}
		p.printf(")")

	case *IfExpr:
		p.printf("(if ")
		p.printExpr(n.Cond)
		p.printf(" then ")
		p.printExpr(n.Then)
		p.printf(" else ")
		p.printExpr(n.Else)
		p.printf(")")

	case *ForExpr:
		p.printf("(for %s = ", n.Var)
		p.printExpr(n.Start)
		p.printf(", ")
		p.printExpr(n.End)
		if n.Step != nil {
			p.printf(", ")
			p.printExpr(n.Step)
		}
		p.printf(" in ")
		p.printExpr(n.Body)
		p.printf(")")

	default:
		p.printf("<%T>", e)
	}
}
