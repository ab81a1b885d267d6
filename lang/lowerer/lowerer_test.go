package lowerer_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/diag"
	"github.com/mna/anilang/lang/evaluator"
	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/lowerer"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

func intLit(v int64) *ast.Literal { return &ast.Literal{Kind: value.KindInt, IntVal: v} }

func boolLit(v bool) *ast.Literal { return &ast.Literal{Kind: value.KindBool, BoolVal: v} }

func strLit(v string) *ast.Literal { return &ast.Literal{Kind: value.KindString, StrVal: v} }

func exprStmt(e ast.Expr) *ast.ExprStmt { return &ast.ExprStmt{X: e} }

func block(stmts ...ast.Stmt) *ast.Block { return &ast.Block{Stmts: stmts} }

func program(b *ast.Block) *ast.Program { return &ast.Program{Body: b} }

func ops(insns []bytecode.Instruction) []bytecode.Opcode {
	out := make([]bytecode.Opcode, len(insns))
	for i, insn := range insns {
		out[i] = insn.Op
	}
	return out
}

func lowerProgram(t *testing.T, opts lowerer.Options, prog *ast.Program) *bytecode.Bytecode {
	t.Helper()
	l := lowerer.New(gc.NewHeap(0), opts)
	bc, err := l.Lower(prog, nil)
	require.NoError(t, err)
	return bc
}

func TestDeclarationThenLoadRoundTrips(t *testing.T) {
	prog := program(block(
		exprStmt(&ast.Declaration{Name: "x", Value: intLit(1)}),
		exprStmt(&ast.Variable{Name: "x"}),
	))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{
		bytecode.PushVar,
		bytecode.Push, bytecode.Store, bytecode.Pop,
		bytecode.Load,
		bytecode.PopVar,
	}, ops(bc.Instructions))

	loadInsn := bc.Instructions[4]
	storeInsn := bc.Instructions[2]
	require.Equal(t, storeInsn.Arg, loadInsn.Arg)
	require.True(t, storeInsn.Declaration)
}

func TestReplModeOmitsTrailingPop(t *testing.T) {
	prog := program(block(exprStmt(intLit(1))))

	withRepl := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)
	require.NotEqual(t, bytecode.Pop, withRepl.Instructions[len(withRepl.Instructions)-1].Op)

	without := lowerProgram(t, lowerer.Options{}, prog)
	require.Equal(t, bytecode.Pop, without.Instructions[len(without.Instructions)-1].Op)
}

func TestConstantFoldingCollapsesArithmetic(t *testing.T) {
	expr := &ast.Binary{Left: intLit(2), Right: intLit(3), Op: token.ADD}
	prog := program(block(exprStmt(expr)))

	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)
	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))
	require.Equal(t, int64(5), bc.Instructions[1].Value.AsInt())
}

func TestConstantFoldingDisabledByDefault(t *testing.T) {
	expr := &ast.Binary{Left: intLit(2), Right: intLit(3), Op: token.ADD}
	prog := program(block(exprStmt(expr)))

	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)
	require.Equal(t, []bytecode.Opcode{
		bytecode.PushVar,
		bytecode.Push, bytecode.Push, bytecode.BinaryAdd,
		bytecode.PopVar,
	}, ops(bc.Instructions))
}

func TestOptimiseFlagDoesNotChangeEvaluatedResult(t *testing.T) {
	left := &ast.Binary{Left: intLit(2), Right: intLit(3), Op: token.ADD}
	expr := &ast.Binary{Left: left, Right: intLit(4), Op: token.MUL}
	prog := program(block(exprStmt(expr)))

	h := gc.NewHeap(0)
	folded := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)
	unfolded := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	for _, bc := range []*bytecode.Bytecode{folded, unfolded} {
		sink := &diag.Sink{}
		m := evaluator.New(h, sink, evaluator.Options{})
		got, err := m.Evaluate(context.Background(), bc, scope.New(0, nil))
		require.NoError(t, err)
		require.Equal(t, int64(20), got.AsInt())
		require.Equal(t, 0, sink.NumErrors())
	}
}

func TestConstantFoldingCollapsesIfWithLiteralCondition(t *testing.T) {
	ifExpr := &ast.If{
		Cond: boolLit(true),
		Then: block(exprStmt(intLit(1))),
		Else: block(exprStmt(intLit(2))),
	}
	prog := program(block(exprStmt(ifExpr)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))
	require.Equal(t, int64(1), bc.Instructions[1].Value.AsInt())
}

func TestConstantFoldingCollapsesBlockOfLiterals(t *testing.T) {
	ifExpr := &ast.If{
		Cond: boolLit(false),
		Then: block(exprStmt(intLit(1))),
		Else: block(exprStmt(intLit(10)), exprStmt(intLit(20))),
	}
	prog := program(block(exprStmt(ifExpr)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))
	require.Equal(t, int64(20), bc.Instructions[1].Value.AsInt())
}

func TestConstantFoldingSkipsIfWithNonLiteralCondition(t *testing.T) {
	ifExpr := &ast.If{
		Cond: &ast.Variable{Name: "ok"},
		Then: block(exprStmt(intLit(1))),
		Else: block(exprStmt(intLit(2))),
	}
	prog := program(block(exprStmt(ifExpr)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Contains(t, ops(bc.Instructions), bytecode.PopJumpIfFalse)
}

func TestConstantFoldingCollapsesList(t *testing.T) {
	list := &ast.List{Elements: []ast.Expr{intLit(1), intLit(2), intLit(3)}}
	prog := program(block(exprStmt(list)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))

	items := *bc.Instructions[1].Value.AsList()
	require.Len(t, items, 3)
	require.Equal(t, int64(1), items[0].AsInt())
	require.Equal(t, int64(2), items[1].AsInt())
	require.Equal(t, int64(3), items[2].AsInt())
}

func TestConstantFoldingCollapsesObject(t *testing.T) {
	obj := &ast.Object{Fields: []ast.ObjectField{{Key: strLit("n"), Value: intLit(5)}}}
	prog := program(block(exprStmt(obj)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))

	h := gc.NewHeap(0)
	got, err := value.GetIndex(h, bc.Instructions[1].Value, value.NewString(h, "n"))
	require.NoError(t, err)
	require.Equal(t, int64(5), got.AsInt())
}

func TestConstantFoldingCollapsesIndexOnConstList(t *testing.T) {
	index := &ast.Index{
		Container: &ast.List{Elements: []ast.Expr{intLit(10), intLit(20), intLit(30)}},
		Index:     intLit(1),
	}
	prog := program(block(exprStmt(index)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))
	require.Equal(t, int64(20), bc.Instructions[1].Value.AsInt())
}

func TestConstantFoldingCollapsesDottedIndexOnConstObject(t *testing.T) {
	index := &ast.Index{
		Container: &ast.Object{Fields: []ast.ObjectField{{Key: strLit("n"), Value: intLit(7)}}},
		Index:     strLit("n"),
	}
	prog := program(block(exprStmt(index)))
	bc := lowerProgram(t, lowerer.Options{Optimise: true, ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.PopVar}, ops(bc.Instructions))
	require.Equal(t, int64(7), bc.Instructions[1].Value.AsInt())
}

func TestIfElseConvergesOnEndLabel(t *testing.T) {
	ifExpr := &ast.If{
		Cond: &ast.Variable{Name: "ok"},
		Then: block(exprStmt(intLit(1))),
		Else: block(exprStmt(intLit(2))),
	}
	prog := program(block(exprStmt(ifExpr)))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{
		bytecode.PushVar,
		bytecode.Load, bytecode.PopJumpIfFalse,
		bytecode.PushVar, bytecode.Push, bytecode.PopVar,
		bytecode.JumpTo,
		bytecode.Label,
		bytecode.PushVar, bytecode.Push, bytecode.PopVar,
		bytecode.Label,
		bytecode.PopVar,
	}, ops(bc.Instructions))
}

func TestIfWithoutElsePushesNull(t *testing.T) {
	ifExpr := &ast.If{Cond: &ast.Variable{Name: "ok"}, Then: block()}
	prog := program(block(exprStmt(ifExpr)))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	var sawNullPush bool
	for _, insn := range bc.Instructions {
		if insn.Op == bytecode.Push && insn.Value.Kind() == value.KindNull {
			sawNullPush = true
		}
	}
	require.True(t, sawNullPush)
}

func TestLoopBreakUnwindsNestedScopes(t *testing.T) {
	loop := &ast.Loop{
		Body: block(exprStmt(&ast.If{
			Cond: &ast.Variable{Name: "done"},
			Then: block(&ast.Break{}),
		})),
	}
	prog := program(block(exprStmt(loop)))

	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	var popVarBeforeJump int
	for i, insn := range bc.Instructions {
		if insn.Op == bytecode.JumpTo {
			j := i - 1
			for j >= 0 && bc.Instructions[j].Op == bytecode.PopVar {
				popVarBeforeJump++
				j--
			}
			break
		}
	}
	// break is nested inside the loop's body block and the if's then block,
	// so it must unwind two scopes before jumping to the loop's exit label.
	require.Equal(t, 2, popVarBeforeJump)
}

func TestBreakOutsideLoopIsCompileError(t *testing.T) {
	prog := program(block(&ast.Break{}))
	l := lowerer.New(gc.NewHeap(0), lowerer.Options{})
	_, err := l.Lower(prog, nil)
	require.Error(t, err)
	require.IsType(t, lowerer.ErrBreakOutsideLoop{}, err)
}

func TestReturnOutsideFunctionIsCompileError(t *testing.T) {
	prog := program(block(&ast.Return{Value: intLit(1)}))
	l := lowerer.New(gc.NewHeap(0), lowerer.Options{})
	_, err := l.Lower(prog, nil)
	require.Error(t, err)
	require.IsType(t, lowerer.ErrReturnOutsideFunction{}, err)
}

func TestFunctionDeclarationStoresByNameAndEmbedsBody(t *testing.T) {
	fn := &ast.FnDeclaration{
		Name:   "double",
		Params: []string{"x"},
		Body: block(exprStmt(&ast.Binary{
			Left:  &ast.Variable{Name: "x"},
			Right: intLit(2),
			Op:    token.MUL,
		})),
	}
	prog := program(block(exprStmt(fn)))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{bytecode.PushVar, bytecode.Push, bytecode.Store, bytecode.PopVar}, ops(bc.Instructions))

	fnVal := bc.Instructions[1].Value
	require.Equal(t, value.KindFunction, fnVal.Kind())
	data := fnVal.AsFunction()
	require.Equal(t, []string{"x"}, data.Params)
	require.Nil(t, data.DeclScope)

	nested, ok := data.Body.(*bytecode.Bytecode)
	require.True(t, ok)
	require.Equal(t, []bytecode.Opcode{
		bytecode.PushVar, bytecode.Load, bytecode.Push, bytecode.BinaryMultiply, bytecode.PopVar, bytecode.Label,
	}, ops(nested.Instructions))
}

func TestReturnInsideFunctionJumpsToEndLabel(t *testing.T) {
	fn := &ast.FnDeclaration{
		Name: "early",
		Body: block(
			exprStmt(&ast.If{
				Cond: &ast.Variable{Name: "cond"},
				Then: block(&ast.Return{Value: intLit(1)}),
			}),
			exprStmt(intLit(0)),
		),
	}
	prog := program(block(exprStmt(fn)))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	nested := bc.Instructions[1].Value.AsFunction().Body.(*bytecode.Bytecode)
	require.Equal(t, bytecode.Label, nested.Instructions[len(nested.Instructions)-1].Op)

	var sawReturnJump bool
	for _, insn := range nested.Instructions {
		if insn.Op == bytecode.JumpTo {
			sawReturnJump = true
		}
	}
	require.True(t, sawReturnJump)
}

func TestIndexedCompoundAssignmentEvaluatesContainerTwice(t *testing.T) {
	assign := &ast.Assignment{
		Target: &ast.Index{Container: &ast.Variable{Name: "xs"}, Index: intLit(0)},
		Op:     token.ADD,
		Value:  intLit(1),
	}
	prog := program(block(exprStmt(assign)))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{
		bytecode.PushVar,
		bytecode.Load, bytecode.Push, bytecode.GetIndex,
		bytecode.Push, bytecode.BinaryAdd,
		bytecode.Load, bytecode.Push, bytecode.SetIndex,
		bytecode.PopVar,
	}, ops(bc.Instructions))
}

func TestInterfaceBuildsObjectWithFieldsAndMethods(t *testing.T) {
	iface := &ast.Interface{
		Name:   "Counter",
		Fields: []string{"n"},
		Methods: []*ast.FnDeclaration{
			{Name: "inc", Body: block(exprStmt(intLit(1)))},
		},
	}
	prog := program(block(exprStmt(iface)))
	bc := lowerProgram(t, lowerer.Options{ReplMode: true}, prog)

	require.Equal(t, []bytecode.Opcode{
		bytecode.PushVar,
		bytecode.Push, bytecode.Push, // field "n" -> null
		bytecode.Push, bytecode.Push, // method "inc" -> function
		bytecode.MakeObject,
		bytecode.Store,
		bytecode.PopVar,
	}, ops(bc.Instructions))

	makeObj := bc.Instructions[len(bc.Instructions)-3]
	require.Equal(t, uint64(2), makeObj.Arg)
}
