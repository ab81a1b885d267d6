// Package ast defines the types representing the abstract syntax tree (AST)
// consumed by lang/lowerer: statements and expressions, with source spans
// for diagnostics, but no comments or token-for-token source fidelity:
// producing that tree is the parser's job, external to this core.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mna/anilang/lang/token"
)

// Node represents any node in the AST.
type Node interface {
	// Every Node implements the fmt.Formatter interface so they can print a
	// description of themselves. The only supported verbs are 'v' and 's'.
	// The '#' flag can be used to print count information about children
	// nodes. A width can be set to define the number of runes to print for
	// the node description - by default, that width is padded with spaces
	// on the left if the description is shorter, otherwise it is truncated
	// to that width. The '-' flag can be used to pad with spaces on the
	// right instead, and the '+' flag can be used to prevent padding
	// altogether - it only truncates if longer.
	fmt.Formatter

	// Span reports the node's source extent.
	Span() token.Span

	// Walk enters each child node to implement the Visitor pattern.
	Walk(v Visitor)
}

// Expr represents an expression: lowering it leaves exactly one value on
// the evaluator's operand stack.
type Expr interface {
	Node
	expr()
}

// Stmt represents a statement.
type Stmt interface {
	Node
	stmt()
}

// Program is the root of a compiled unit: a single top-level block, whose
// trailing expression (if any) becomes the program's result value.
type Program struct {
	Body *Block
}

func (n *Program) Format(f fmt.State, verb rune) { format(f, verb, n, "program", nil) }
func (n *Program) Span() token.Span {
	if n.Body != nil {
		return n.Body.Span()
	}
	return token.NoSpan
}
func (n *Program) Walk(v Visitor) {
	if n.Body != nil {
		Walk(v, n.Body)
	}
}

func format(f fmt.State, verb rune, n Node, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(%T)", verb, n)
		return
	}

	label = strings.ReplaceAll(label, "\r\n", "⏎")
	label = strings.ReplaceAll(label, "\n", "⏎")
	label = strings.ReplaceAll(label, "\t", "⭾")
	label = strings.ReplaceAll(label, "\v", "⭿")

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		if len(runes) >= w {
			runes = runes[:w]
		} else if minus {
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		} else if !plus {
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}
