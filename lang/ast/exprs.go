package ast

import (
	"fmt"

	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

type (
	// Literal is a constant of one of the primitive kinds: Int, Float, Bool,
	// Null or String. Container literals (List, Object) are separate node
	// kinds since their elements are themselves expressions.
	Literal struct {
		Kind             value.Kind
		IntVal           int64
		FloatVal         float64
		BoolVal          bool
		StrVal           string
		StartPos, EndPos uint64
	}

	// Variable is a bare identifier reference, lowered to Load.
	Variable struct {
		Name             string
		StartPos, EndPos uint64
	}

	// Binary is a binary operator expression; Op is one of the arithmetic,
	// logical or comparison tokens.
	Binary struct {
		Left, Right      Expr
		Op               token.Token
		StartPos, EndPos uint64
	}

	// Unary is a unary operator expression; Op is UPLUS, UMINUS or NOT.
	Unary struct {
		Operand          Expr
		Op               token.Token
		StartPos, EndPos uint64
	}

	// Index is both bracket indexing (Container[Index]) and dotted property
	// access (Container.Name, with Index a string Literal); the lowerer
	// emits the same GetIndex/SetIndex instruction for either.
	Index struct {
		Container, Index Expr
		StartPos, EndPos uint64
	}

	// List is a list literal.
	List struct {
		Elements         []Expr
		StartPos, EndPos uint64
	}

	// ObjectField is one key/value pair of an Object literal.
	ObjectField struct {
		Key   Expr
		Value Expr
	}

	// Object is an object (mapping) literal.
	Object struct {
		Fields           []ObjectField
		StartPos, EndPos uint64
	}

	// FnCall is a function/method call: Callee(Args...).
	FnCall struct {
		Callee           Expr
		Args             []Expr
		StartPos, EndPos uint64
	}

	// FnDeclaration is a function literal. Name is empty for an anonymous
	// function; a non-empty Name additionally causes the lowerer to bind the
	// function under that name in the enclosing scope.
	FnDeclaration struct {
		Name             string
		Params           []string
		Body             *Block
		StartPos, EndPos uint64
	}

	// Interface declares a named prototype object: its Fields (initialised
	// to Null) and its Methods (bound to the object as "self" when accessed
	// via GetAttr). A "new" method is an ordinary method; nothing invokes it
	// implicitly.
	Interface struct {
		Name             string
		Fields           []string
		Methods          []*FnDeclaration
		StartPos, EndPos uint64
	}

	// Declaration is `let Name = Value`. It evaluates to Value (the
	// evaluator re-pushes after the declaring Store).
	Declaration struct {
		Name             string
		Value            Expr
		StartPos, EndPos uint64
	}

	// Assignment is `Target = Value` (Op == ILLEGAL) or a compound form like
	// `Target += Value` (Op is the arithmetic token to apply). Target is a
	// *Variable or *Index.
	Assignment struct {
		Target           Expr
		Op               token.Token
		Value            Expr
		StartPos, EndPos uint64
	}

	// If is an if/else expression; exactly one branch executes and leaves
	// one value on the stack. Else is nil for a bodyless else (pushes Null).
	If struct {
		Cond             Expr
		Then             *Block
		Else             *Block
		StartPos, EndPos uint64
	}

	// Loop is `while Cond {Body}` (Cond non-nil) or `loop {Body}` (Cond
	// nil); both evaluate to Null.
	Loop struct {
		Cond             Expr
		Body             *Block
		StartPos, EndPos uint64
	}
)

func (*Literal) expr()       {}
func (*Variable) expr()      {}
func (*Binary) expr()        {}
func (*Unary) expr()         {}
func (*Index) expr()         {}
func (*List) expr()          {}
func (*Object) expr()        {}
func (*FnCall) expr()        {}
func (*FnDeclaration) expr() {}
func (*Interface) expr()     {}
func (*Declaration) expr()   {}
func (*Assignment) expr()    {}
func (*If) expr()            {}
func (*Loop) expr()          {}

func (n *Literal) Span() token.Span       { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Variable) Span() token.Span      { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Binary) Span() token.Span        { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Unary) Span() token.Span         { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Index) Span() token.Span         { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *List) Span() token.Span          { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Object) Span() token.Span        { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *FnCall) Span() token.Span        { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *FnDeclaration) Span() token.Span { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Interface) Span() token.Span     { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Declaration) Span() token.Span   { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Assignment) Span() token.Span    { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *If) Span() token.Span            { return token.Span{Start: n.StartPos, End: n.EndPos} }
func (n *Loop) Span() token.Span          { return token.Span{Start: n.StartPos, End: n.EndPos} }

func (n *Literal) Format(f fmt.State, verb rune) {
	format(f, verb, n, fmt.Sprintf("literal %s", n.literalText()), nil)
}
func (n *Literal) literalText() string {
	switch n.Kind {
	case value.KindInt:
		return fmt.Sprintf("%d", n.IntVal)
	case value.KindFloat:
		return fmt.Sprintf("%g", n.FloatVal)
	case value.KindBool:
		return fmt.Sprintf("%t", n.BoolVal)
	case value.KindString:
		return fmt.Sprintf("%q", n.StrVal)
	default:
		return "null"
	}
}
func (n *Literal) Walk(_ Visitor) {}

func (n *Variable) Format(f fmt.State, verb rune) { format(f, verb, n, "variable "+n.Name, nil) }
func (n *Variable) Walk(_ Visitor)                {}

func (n *Binary) Format(f fmt.State, verb rune) { format(f, verb, n, "binary "+n.Op.String(), nil) }
func (n *Binary) Walk(v Visitor) {
	Walk(v, n.Left)
	Walk(v, n.Right)
}

func (n *Unary) Format(f fmt.State, verb rune) { format(f, verb, n, "unary "+n.Op.String(), nil) }
func (n *Unary) Walk(v Visitor)                { Walk(v, n.Operand) }

func (n *Index) Format(f fmt.State, verb rune) { format(f, verb, n, "index", nil) }
func (n *Index) Walk(v Visitor) {
	Walk(v, n.Container)
	Walk(v, n.Index)
}

func (n *List) Format(f fmt.State, verb rune) {
	format(f, verb, n, "list", map[string]int{"elements": len(n.Elements)})
}
func (n *List) Walk(v Visitor) {
	for _, e := range n.Elements {
		Walk(v, e)
	}
}

func (n *Object) Format(f fmt.State, verb rune) {
	format(f, verb, n, "object", map[string]int{"fields": len(n.Fields)})
}
func (n *Object) Walk(v Visitor) {
	for _, fld := range n.Fields {
		Walk(v, fld.Key)
		Walk(v, fld.Value)
	}
}

func (n *FnCall) Format(f fmt.State, verb rune) {
	format(f, verb, n, "call", map[string]int{"args": len(n.Args)})
}
func (n *FnCall) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}

func (n *FnDeclaration) Format(f fmt.State, verb rune) {
	lbl := "function"
	if n.Name != "" {
		lbl += " " + n.Name
	}
	format(f, verb, n, lbl, map[string]int{"params": len(n.Params)})
}
func (n *FnDeclaration) Walk(v Visitor) {
	if n.Body != nil {
		Walk(v, n.Body)
	}
}

func (n *Interface) Format(f fmt.State, verb rune) {
	format(f, verb, n, "interface "+n.Name, map[string]int{"methods": len(n.Methods), "fields": len(n.Fields)})
}
func (n *Interface) Walk(v Visitor) {
	for _, m := range n.Methods {
		Walk(v, m)
	}
}

func (n *Declaration) Format(f fmt.State, verb rune) {
	format(f, verb, n, "declaration "+n.Name, nil)
}
func (n *Declaration) Walk(v Visitor) { Walk(v, n.Value) }

func (n *Assignment) Format(f fmt.State, verb rune) {
	lbl := "assignment"
	if n.Op != token.ILLEGAL {
		lbl += " " + n.Op.String() + "="
	}
	format(f, verb, n, lbl, nil)
}
func (n *Assignment) Walk(v Visitor) {
	Walk(v, n.Target)
	Walk(v, n.Value)
}

func (n *If) Format(f fmt.State, verb rune) { format(f, verb, n, "if", nil) }
func (n *If) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}

func (n *Loop) Format(f fmt.State, verb rune) {
	lbl := "loop"
	if n.Cond != nil {
		lbl = "while"
	}
	format(f, verb, n, lbl, nil)
}
func (n *Loop) Walk(v Visitor) {
	if n.Cond != nil {
		Walk(v, n.Cond)
	}
	Walk(v, n.Body)
}
