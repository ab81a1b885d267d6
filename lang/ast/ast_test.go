package ast_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	. "github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

func intLit(v int64, start, end uint64) *Literal {
	return &Literal{Kind: value.KindInt, IntVal: v, StartPos: start, EndPos: end}
}

func TestProgramSpanFromBody(t *testing.T) {
	block := &Block{StartPos: 3, EndPos: 12}
	prog := &Program{Body: block}
	require.Equal(t, token.Span{Start: 3, End: 12}, prog.Span())

	empty := &Program{}
	require.Equal(t, token.NoSpan, empty.Span())
}

func TestBinaryWalkVisitsBothOperands(t *testing.T) {
	bin := &Binary{Left: intLit(1, 0, 1), Right: intLit(2, 4, 5), Op: token.ADD}

	var visited []Node
	bin.Walk(VisitorFunc(func(n Node, dir VisitDirection) Visitor {
		if dir == VisitEnter {
			visited = append(visited, n)
		}
		return nil
	}))

	require.Len(t, visited, 2)
	require.Same(t, bin.Left, visited[0])
	require.Same(t, bin.Right, visited[1])
}

func TestIfWalksCondThenAndOptionalElse(t *testing.T) {
	ifNoElse := &If{Cond: &Variable{Name: "ok"}, Then: &Block{}}
	require.Equal(t, 3, countNodes(ifNoElse)) // if, cond, then

	ifElse := &If{Cond: &Variable{Name: "ok"}, Then: &Block{}, Else: &Block{}}
	require.Equal(t, 4, countNodes(ifElse))
}

func countNodes(root Node) int {
	count := 0
	var cv VisitorFunc
	cv = func(n Node, dir VisitDirection) Visitor {
		if dir == VisitEnter {
			count++
		}
		return cv
	}
	Walk(cv, root)
	return count
}

func TestLoopFormatDistinguishesWhileFromBareLoop(t *testing.T) {
	bare := &Loop{Body: &Block{}}
	require.Equal(t, "loop", fmt.Sprintf("%v", bare))

	while := &Loop{Cond: &Variable{Name: "ok"}, Body: &Block{}}
	require.Equal(t, "while", fmt.Sprintf("%v", while))
}

func TestAssignmentFormatShowsCompoundOperator(t *testing.T) {
	plain := &Assignment{Target: &Variable{Name: "x"}, Op: token.ILLEGAL, Value: intLit(1, 0, 0)}
	require.Equal(t, "assignment", fmt.Sprintf("%v", plain))

	compound := &Assignment{Target: &Variable{Name: "x"}, Op: token.ADD, Value: intLit(1, 0, 0)}
	require.Equal(t, "assignment +=", fmt.Sprintf("%v", compound))
}

func TestFnDeclarationFormatOmitsNameWhenAnonymous(t *testing.T) {
	anon := &FnDeclaration{Params: []string{"a", "b"}, Body: &Block{}}
	require.Equal(t, "function", fmt.Sprintf("%v", anon))

	named := &FnDeclaration{Name: "add", Params: []string{"a", "b"}, Body: &Block{}}
	require.Equal(t, "function add", fmt.Sprintf("%v", named))

	require.Equal(t, "function add {params=2}", fmt.Sprintf("%#v", named))
}

func TestLiteralFormatsEachKind(t *testing.T) {
	cases := []struct {
		lit  *Literal
		want string
	}{
		{&Literal{Kind: value.KindInt, IntVal: 42}, "literal 42"},
		{&Literal{Kind: value.KindFloat, FloatVal: 1.5}, "literal 1.5"},
		{&Literal{Kind: value.KindBool, BoolVal: true}, "literal true"},
		{&Literal{Kind: value.KindString, StrVal: "hi"}, `literal "hi"`},
		{&Literal{Kind: value.KindNull}, "literal null"},
	}
	for _, c := range cases {
		require.Equal(t, c.want, fmt.Sprintf("%v", c.lit))
	}
}

func TestPrinterIndentsNestedNodes(t *testing.T) {
	prog := &Program{Body: &Block{Stmts: []Stmt{
		&ExprStmt{X: &Binary{Left: intLit(1, 0, 0), Right: intLit(2, 0, 0), Op: token.ADD}},
	}}}

	var buf strings.Builder
	p := &Printer{Output: &buf}
	require.NoError(t, p.Print(prog))

	out := buf.String()
	require.Contains(t, out, "program")
	require.Contains(t, out, ". block")
	require.Contains(t, out, ". . expr stmt")
	require.Contains(t, out, ". . . binary +")
}

func TestInterfaceWalkVisitsEachMethod(t *testing.T) {
	iface := &Interface{
		Name: "Counter",
		Methods: []*FnDeclaration{
			{Name: "new", Body: &Block{}},
			{Name: "inc", Body: &Block{}},
		},
	}

	var names []string
	var rec VisitorFunc
	rec = func(n Node, dir VisitDirection) Visitor {
		if dir == VisitEnter {
			if fd, ok := n.(*FnDeclaration); ok {
				names = append(names, fd.Name)
			}
		}
		return rec
	}
	Walk(rec, iface)

	require.Equal(t, []string{"new", "inc"}, names)
}
