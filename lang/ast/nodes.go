package ast

import (
	"fmt"

	"github.com/mna/anilang/lang/token"
)

// Block is a sequence of statements evaluated in order. If the last
// statement is an ExprStmt, its value is the block's value; otherwise the
// block evaluates to Null.
type Block struct {
	StartPos, EndPos uint64
	Stmts            []Stmt
}

func (n *Block) Format(f fmt.State, verb rune) {
	format(f, verb, n, "block", map[string]int{"stmts": len(n.Stmts)})
}
func (n *Block) Span() token.Span { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (*Block) expr()              {}
func (n *Block) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
