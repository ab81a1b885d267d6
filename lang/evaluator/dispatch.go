package evaluator

import (
	"fmt"

	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/diag"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

// run dispatches fr's instruction stream to completion, one "pop operands,
// push result" opcode at a time. fr is pushed onto m.frames for
// the duration of the call so Heap.Collect sees its operand stack and scope
// chain as GC roots even if a nested CallFunction triggers a collection.
func (m *Machine) run(fr *frame) (value.Value, error) {
	m.frames = append(m.frames, fr)
	defer func() { m.frames = m.frames[:len(m.frames)-1] }()

	for fr.pc < len(fr.bc.Instructions) {
		if err := m.checkBudget(); err != nil {
			return value.Null, err
		}

		insn := fr.bc.Instructions[fr.pc]
		fr.pc++

		switch insn.Op {
		case bytecode.Label:
			// pseudo-instruction, occupies no operand-stack slot

		case bytecode.Push:
			fr.push(m.instantiate(fr, insn.Value))

		case bytecode.Pop:
			fr.pop()

		case bytecode.BinaryAdd, bytecode.BinarySubtract, bytecode.BinaryMultiply,
			bytecode.BinaryDivide, bytecode.BinaryMod, bytecode.BinaryPower,
			bytecode.BinaryOr, bytecode.BinaryAnd:
			r, l := fr.pop(), fr.pop()
			tok := token.ADD + token.Token(insn.Op-bytecode.BinaryAdd)
			res, err := value.Binary(m.heap, tok, l, r)
			if err != nil {
				m.recordRuntimeError(insn.Span, err)
				res = value.Null
			}
			fr.push(res)

		case bytecode.CompareLT, bytecode.CompareLE, bytecode.CompareGT,
			bytecode.CompareGE, bytecode.CompareEQ, bytecode.CompareNE:
			r, l := fr.pop(), fr.pop()
			tok := token.LT + token.Token(insn.Op-bytecode.CompareLT)
			ok, err := value.Compare(tok, l, r)
			if err != nil {
				m.recordRuntimeError(insn.Span, err)
				fr.push(value.Null)
			} else {
				fr.push(value.NewBool(ok))
			}

		case bytecode.UnaryPositive, bytecode.UnaryNegative, bytecode.UnaryNot:
			x := fr.pop()
			tok := unaryToken(insn.Op)
			res, err := value.Unary(tok, x)
			if err != nil {
				m.recordRuntimeError(insn.Span, err)
				res = value.Null
			}
			fr.push(res)

		case bytecode.Load:
			name := m.ident(insn.Arg)
			v, err := fr.scope.Get(name)
			if err != nil {
				m.sink.Errorf(diag.NotFound, insn.Span, "%s", err)
				v = value.Null
			}
			fr.push(v)

		case bytecode.Store:
			val := fr.pop()
			name := m.ident(insn.Arg)
			var err error
			if insn.Declaration {
				err = fr.scope.Declare(name, val)
			} else {
				err = fr.scope.Assign(name, val)
			}
			if err != nil {
				kind := diag.NotFound
				if insn.Declaration {
					kind = diag.AlreadyDeclared
				}
				m.sink.Errorf(kind, insn.Span, "%s", err)
			}
			fr.push(val)

		case bytecode.GetIndex:
			index, container := fr.pop(), fr.pop()
			res, err := m.getIndex(container, index)
			if err != nil {
				m.recordRuntimeError(insn.Span, err)
				res = value.Null
			}
			fr.push(res)

		case bytecode.SetIndex:
			index, container, val := fr.pop(), fr.pop(), fr.pop()
			if err := m.setIndex(container, index, val); err != nil {
				m.recordRuntimeError(insn.Span, err)
				fr.push(value.Null)
			} else {
				fr.push(val)
			}

		case bytecode.JumpTo:
			fr.pc = m.labelTarget(fr, insn.Arg)

		case bytecode.PopJumpIfTrue:
			if fr.pop().Truthy() {
				fr.pc = m.labelTarget(fr, insn.Arg)
			}

		case bytecode.PopJumpIfFalse:
			if !fr.pop().Truthy() {
				fr.pc = m.labelTarget(fr, insn.Arg)
			}

		case bytecode.CallFunction:
			res, err := m.call(fr, insn)
			if err != nil {
				return value.Null, err
			}
			fr.push(res)

		case bytecode.MakeList:
			n := int(insn.Arg)
			items := make([]value.Value, n)
			for i := n - 1; i >= 0; i-- {
				items[i] = fr.pop()
			}
			fr.push(value.NewList(m.heap, items))

		case bytecode.MakeObject:
			n := int(insn.Arg)
			obj := value.NewObject(m.heap, n)
			type pair struct {
				key value.Value
				val value.Value
			}
			pairs := make([]pair, n)
			for i := n - 1; i >= 0; i-- {
				val := fr.pop()
				key := fr.pop()
				pairs[i] = pair{key: key, val: val}
			}
			for _, p := range pairs {
				if p.key.Kind() != value.KindString {
					m.sink.Errorf(diag.TypeMismatch, insn.Span, "object key: %s", value.ErrCastFailed{From: p.key.Kind(), To: value.KindString})
					continue
				}
				if err := value.SetIndex(obj, p.key, p.val); err != nil {
					m.recordRuntimeError(insn.Span, err)
				}
			}
			fr.push(obj)

		case bytecode.MakeRange:
			end, start := fr.pop(), fr.pop()
			startI, err1 := value.TryCast(start, value.KindInt)
			endI, err2 := value.TryCast(end, value.KindInt)
			if err1 != nil || err2 != nil {
				if err1 != nil {
					m.recordRuntimeError(insn.Span, err1)
				} else {
					m.recordRuntimeError(insn.Span, err2)
				}
				fr.push(value.Null)
			} else {
				fr.push(value.NewRange(startI.AsInt(), endI.AsInt()))
			}

		case bytecode.PushVar:
			fr.scope = scope.New(int(insn.Arg), fr.scope)

		case bytecode.PopVar:
			fr.scope = fr.scope.Parent()

		default:
			panic(fmt.Sprintf("evaluator: unhandled opcode %s", insn.Op))
		}
	}

	if len(fr.stack) == 0 {
		return value.Null, nil
	}
	return fr.pop(), nil
}

// instantiate realises a Push instruction's literal Value for this
// particular execution. Every other kind is immutable and shared as-is; a
// KindFunction literal is re-materialised with a fresh heap handle and its
// DeclScope set to the scope live right now, so a function literal
// evaluated more than once (inside a loop, or on a second call to an outer
// function) produces one distinct closure per execution rather than every
// instance aliasing the template's DeclScope.
func (m *Machine) instantiate(fr *frame, v value.Value) value.Value {
	if v.Kind() != value.KindFunction {
		return v
	}
	fd := v.AsFunction()
	if fd.IsNative() {
		return v
	}
	return value.NewFunction(m.heap, fd.WithDeclScope(fr.scope))
}

// labelTarget resolves a jump's label operand against fr's own label index,
// panicking if absent: a missing label at this point means the bytecode
// stream is malformed, which lowerer correctness should have precluded.
func (m *Machine) labelTarget(fr *frame, label uint64) int {
	idx, ok := fr.labels[label]
	if !ok {
		panic(fmt.Sprintf("evaluator: jump to undefined label %d", label))
	}
	return idx
}

func unaryToken(op bytecode.Opcode) token.Token {
	switch op {
	case bytecode.UnaryPositive:
		return token.UPLUS
	case bytecode.UnaryNegative:
		return token.UMINUS
	default:
		return token.NOT
	}
}

// getIndex implements the combined `GetIndex`/dotted-property semantics:
// lang/ast.Index carries the same shape for `a[i]` and `a.b` (the lowerer
// comment on ast.Index spells this out), so the evaluator, not the lowerer,
// is where the two converge back apart. A String index is always treated
// as a property name (GetAttr),
// which is what makes a method call like `obj.method()` observe a bound
// `self` (value.GetAttr auto-binds it; value.GetIndex does not) and what
// makes `"x".len`/`xs.push`/`r.start` resolve to their synthetic readonly
// properties instead of failing the strict Int-or-Range index check
// GetIndex applies to String/List. Any other index kind (Int, Range) is
// genuine container indexing and goes through GetIndex.
func (m *Machine) getIndex(container, index value.Value) (value.Value, error) {
	if index.Kind() == value.KindString {
		return value.GetAttr(m.heap, container, index.AsString())
	}
	return value.GetIndex(m.heap, container, index)
}

func (m *Machine) setIndex(container, index, val value.Value) error {
	if index.Kind() == value.KindString {
		return value.SetAttr(container, index.AsString(), val)
	}
	return value.SetIndex(container, index, val)
}

// recordRuntimeError classifies err into the matching diag.Kind and records
// it; the caller substitutes Null and execution continues.
func (m *Machine) recordRuntimeError(span token.Span, err error) {
	kind := diag.TypeMismatch
	switch err.(type) {
	case value.ErrTypeMismatch, value.ErrCastFailed, value.ErrIncomparable:
		kind = diag.TypeMismatch
	case value.ErrDivisionByZero:
		kind = diag.DivisionByZero
	case value.ErrIndexOutOfRange:
		kind = diag.IndexOutOfRange
	case value.ErrInvalidProperty:
		kind = diag.InvalidProperty
	case value.ErrReadonlyProperty:
		kind = diag.ReadonlyProperty
	case value.ErrNotCallable:
		kind = diag.NotCallable
	case value.ErrWrongArity:
		kind = diag.WrongArity
	case scope.ErrNotFound:
		kind = diag.NotFound
	case scope.ErrAlreadyDeclared:
		kind = diag.AlreadyDeclared
	}
	m.sink.Errorf(kind, span, "%s", err)
}
