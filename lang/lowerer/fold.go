package lowerer

import (
	"github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/value"
)

// canConstEval reports whether e is built entirely out of literals and
// operators, containers and branches over them that always produce the
// same value with no observable side effect. Anything touching a
// variable, a call, an assignment or a loop is never foldable.
func canConstEval(e ast.Expr) bool {
	switch n := e.(type) {
	case *ast.Literal:
		return true
	case *ast.Binary:
		return canConstEval(n.Left) && canConstEval(n.Right)
	case *ast.Unary:
		return canConstEval(n.Operand)
	case *ast.If:
		if !canConstEval(n.Cond) || !canConstEvalBlock(n.Then) {
			return false
		}
		return n.Else == nil || canConstEvalBlock(n.Else)
	case *ast.List:
		for _, elem := range n.Elements {
			if !canConstEval(elem) {
				return false
			}
		}
		return true
	case *ast.Object:
		for _, fld := range n.Fields {
			if !canConstEval(fld.Key) || !canConstEval(fld.Value) {
				return false
			}
		}
		return true
	case *ast.Index:
		return canConstEval(n.Container) && canConstEval(n.Index)
	default:
		return false
	}
}

// canConstEvalBlock reports whether every statement of b is an ExprStmt
// wrapping a const-evaluable expression. A Break or Return makes the
// block's control flow, not just its trailing value, observable, so
// either one rules out folding the enclosing If entirely.
func canConstEvalBlock(b *ast.Block) bool {
	for _, s := range b.Stmts {
		es, ok := s.(*ast.ExprStmt)
		if !ok || !canConstEval(es.X) {
			return false
		}
	}
	return true
}

// foldConst evaluates e, which must satisfy canConstEval, directly at
// lowering time. It returns ok == false if evaluation fails (e.g. division
// by zero): the caller then falls back to emitting normal instructions so
// the error surfaces as a runtime diagnostic instead of a compile failure.
func (l *Lowerer) foldConst(e ast.Expr) (value.Value, bool) {
	switch n := e.(type) {
	case *ast.Literal:
		return l.literalValue(n), true

	case *ast.Binary:
		left, ok := l.foldConst(n.Left)
		if !ok {
			return value.Null, false
		}
		right, ok := l.foldConst(n.Right)
		if !ok {
			return value.Null, false
		}
		if n.Op.IsCompare() {
			b, err := value.Compare(n.Op, left, right)
			if err != nil {
				return value.Null, false
			}
			return value.NewBool(b), true
		}
		v, err := value.Binary(l.heap, n.Op, left, right)
		if err != nil {
			return value.Null, false
		}
		return v, true

	case *ast.Unary:
		operand, ok := l.foldConst(n.Operand)
		if !ok {
			return value.Null, false
		}
		v, err := value.Unary(n.Op, operand)
		if err != nil {
			return value.Null, false
		}
		return v, true

	case *ast.If:
		cond, ok := l.foldConst(n.Cond)
		if !ok {
			return value.Null, false
		}
		if cond.Truthy() {
			return l.foldConstBlock(n.Then)
		}
		if n.Else == nil {
			return value.Null, true
		}
		return l.foldConstBlock(n.Else)

	case *ast.List:
		items := make([]value.Value, len(n.Elements))
		for i, elem := range n.Elements {
			v, ok := l.foldConst(elem)
			if !ok {
				return value.Null, false
			}
			items[i] = v
		}
		return value.NewList(l.heap, items), true

	case *ast.Object:
		obj := value.NewObject(l.heap, len(n.Fields))
		for _, fld := range n.Fields {
			key, ok := l.foldConst(fld.Key)
			if !ok {
				return value.Null, false
			}
			val, ok := l.foldConst(fld.Value)
			if !ok {
				return value.Null, false
			}
			if key.Kind() != value.KindString {
				return value.Null, false
			}
			if err := value.SetIndex(obj, key, val); err != nil {
				return value.Null, false
			}
		}
		return obj, true

	case *ast.Index:
		container, ok := l.foldConst(n.Container)
		if !ok {
			return value.Null, false
		}
		index, ok := l.foldConst(n.Index)
		if !ok {
			return value.Null, false
		}
		if index.Kind() == value.KindString {
			v, err := value.GetAttr(l.heap, container, index.AsString())
			if err != nil {
				return value.Null, false
			}
			return v, true
		}
		v, err := value.GetIndex(l.heap, container, index)
		if err != nil {
			return value.Null, false
		}
		return v, true

	default:
		return value.Null, false
	}
}

// foldConstBlock folds b the same way the evaluator runs it: every
// statement but the last is dropped (canConstEvalBlock already ensures it
// carries no side effect worth keeping), and the last statement's
// expression, guaranteed present by the same check, becomes b's value.
func (l *Lowerer) foldConstBlock(b *ast.Block) (value.Value, bool) {
	if len(b.Stmts) == 0 {
		return value.Null, true
	}
	last := b.Stmts[len(b.Stmts)-1].(*ast.ExprStmt)
	return l.foldConst(last.X)
}
