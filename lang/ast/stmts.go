package ast

import (
	"fmt"

	"github.com/mna/anilang/lang/token"
)

type (
	// ExprStmt wraps any expression used in statement position. Only the
	// last ExprStmt of a Block, if any, contributes the block's value; all
	// others are evaluated for side effect and their value is popped.
	ExprStmt struct {
		X                Expr
		StartPos, EndPos uint64
	}

	// Break exits the innermost enclosing Loop.
	Break struct {
		StartPos, EndPos uint64
	}

	// Return exits the innermost enclosing function with Value (Null if
	// Value is nil).
	Return struct {
		Value            Expr
		StartPos, EndPos uint64
	}
)

func (*ExprStmt) stmt() {}
func (*Break) stmt()    {}
func (*Return) stmt()   {}

func (n *ExprStmt) Span() token.Span { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Break) Span() token.Span    { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Return) Span() token.Span   { return token.Span{Start: n.StartPos, End: n.EndPos} }

func (n *ExprStmt) Format(f fmt.State, verb rune) { format(f, verb, n, "expr stmt", nil) }
func (n *ExprStmt) Walk(v Visitor)                { Walk(v, n.X) }

func (n *Break) Format(f fmt.State, verb rune) { format(f, verb, n, "break", nil) }
func (n *Break) Walk(_ Visitor)                {}

func (n *Return) Format(f fmt.State, verb rune) {
	var exprCount int
	if n.Value != nil {
		exprCount = 1
	}
	format(f, verb, n, "return", map[string]int{"expr": exprCount})
}
func (n *Return) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
