package lowerer

import (
	"fmt"

	"github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

// lowerExpr dispatches on the concrete expression node. Every branch
// leaves exactly one value on the operand stack, matching
// ast.Expr's contract.
func (l *Lowerer) lowerExpr(e ast.Expr) ([]Instruction, error) {
	if l.opts.Optimise && canConstEval(e) {
		if v, ok := l.foldConst(e); ok {
			return []Instruction{bytecode.NewPush(v, e.Span())}, nil
		}
	}

	switch n := e.(type) {
	case *ast.Literal:
		return []Instruction{bytecode.NewPush(l.literalValue(n), n.Span())}, nil

	case *ast.Variable:
		return []Instruction{bytecode.NewLoad(l.identID(n.Name), n.Span())}, nil

	case *ast.Binary:
		return l.lowerBinary(n)

	case *ast.Unary:
		operand, err := l.lowerExpr(n.Operand)
		if err != nil {
			return nil, err
		}
		return append(operand, bytecode.NewUnary(unaryOpcode(n.Op), n.Span())), nil

	case *ast.Index:
		container, err := l.lowerExpr(n.Container)
		if err != nil {
			return nil, err
		}
		index, err := l.lowerExpr(n.Index)
		if err != nil {
			return nil, err
		}
		out := append(container, index...)
		return append(out, bytecode.NewGetIndex(n.Span())), nil

	case *ast.List:
		var out []Instruction
		for _, elem := range n.Elements {
			insns, err := l.lowerExpr(elem)
			if err != nil {
				return nil, err
			}
			out = append(out, insns...)
		}
		return append(out, bytecode.NewMakeList(uint64(len(n.Elements)), n.Span())), nil

	case *ast.Object:
		var out []Instruction
		for _, fld := range n.Fields {
			key, err := l.lowerExpr(fld.Key)
			if err != nil {
				return nil, err
			}
			val, err := l.lowerExpr(fld.Value)
			if err != nil {
				return nil, err
			}
			out = append(out, key...)
			out = append(out, val...)
		}
		return append(out, bytecode.NewMakeObject(uint64(len(n.Fields)), n.Span())), nil

	case *ast.FnCall:
		callee, err := l.lowerExpr(n.Callee)
		if err != nil {
			return nil, err
		}
		out := callee
		for _, a := range n.Args {
			insns, err := l.lowerExpr(a)
			if err != nil {
				return nil, err
			}
			out = append(out, insns...)
		}
		return append(out, bytecode.NewCallFunction(uint64(len(n.Args)), n.Span())), nil

	case *ast.FnDeclaration:
		return l.lowerFnDeclaration(n)

	case *ast.Interface:
		return l.lowerInterface(n)

	case *ast.Declaration:
		val, err := l.lowerExpr(n.Value)
		if err != nil {
			return nil, err
		}
		return append(val, bytecode.NewStore(l.identID(n.Name), true, n.Span())), nil

	case *ast.Assignment:
		return l.lowerAssignment(n)

	case *ast.If:
		return l.lowerIf(n)

	case *ast.Loop:
		return l.lowerLoop(n)

	case *ast.Block:
		return l.lowerBlock(n)

	default:
		return nil, fmt.Errorf("lowerer: unhandled expression type %T", e)
	}
}

func (l *Lowerer) literalValue(n *ast.Literal) value.Value {
	switch n.Kind {
	case value.KindInt:
		return value.NewInt(n.IntVal)
	case value.KindFloat:
		return value.NewFloat(n.FloatVal)
	case value.KindBool:
		return value.NewBool(n.BoolVal)
	case value.KindString:
		return value.NewString(l.heap, n.StrVal)
	default:
		return value.Null
	}
}

// lowerBinary emits the two operands followed by the matching Binary/Compare
// opcode. token.ADD..AND and token.LT..NEQ each run in the same order as
// their Opcode counterparts (see lang/token's doc comment), so the
// mapping is a constant offset rather than a lookup table.
func (l *Lowerer) lowerBinary(n *ast.Binary) ([]Instruction, error) {
	left, err := l.lowerExpr(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := l.lowerExpr(n.Right)
	if err != nil {
		return nil, err
	}
	out := append(left, right...)
	if n.Op.IsCompare() {
		return append(out, bytecode.NewCompare(compareOpcode(n.Op), n.Span())), nil
	}
	return append(out, bytecode.NewBinary(binaryOpcode(n.Op), n.Span())), nil
}

func binaryOpcode(op token.Token) bytecode.Opcode {
	return bytecode.BinaryAdd + bytecode.Opcode(op-token.ADD)
}

func compareOpcode(op token.Token) bytecode.Opcode {
	return bytecode.CompareLT + bytecode.Opcode(op-token.LT)
}

func unaryOpcode(op token.Token) bytecode.Opcode {
	switch op {
	case token.UPLUS:
		return bytecode.UnaryPositive
	case token.UMINUS:
		return bytecode.UnaryNegative
	default:
		return bytecode.UnaryNot
	}
}

// compoundOpcode maps a compound-assignment operator token to its Binary
// opcode by the same constant offset lowerBinary uses, so every token of
// the ADD..AND run has a mapping (+=, -=, *=, /=, %=, ^=, ||=, &&=); ^ is
// exponentiation, so ^= maps to BinaryPower.
func compoundOpcode(op token.Token) bytecode.Opcode {
	return bytecode.BinaryAdd + bytecode.Opcode(op-token.ADD)
}

// lowerAssignment handles both plain (Op == ILLEGAL) and compound
// assignment, to a *ast.Variable or *ast.Index target.
func (l *Lowerer) lowerAssignment(n *ast.Assignment) ([]Instruction, error) {
	switch target := n.Target.(type) {
	case *ast.Variable:
		return l.lowerVariableAssign(target, n.Op, n.Value, n.Span())
	case *ast.Index:
		return l.lowerIndexAssign(target, n.Op, n.Value, n.Span())
	default:
		return nil, fmt.Errorf("lowerer: invalid assignment target %T", n.Target)
	}
}

func (l *Lowerer) lowerVariableAssign(target *ast.Variable, op token.Token, rhs ast.Expr, span token.Span) ([]Instruction, error) {
	id := l.identID(target.Name)
	if op == token.ILLEGAL {
		val, err := l.lowerExpr(rhs)
		if err != nil {
			return nil, err
		}
		return append(val, bytecode.NewStore(id, false, span)), nil
	}

	var out []Instruction
	out = append(out, bytecode.NewLoad(id, target.Span()))
	val, err := l.lowerExpr(rhs)
	if err != nil {
		return nil, err
	}
	out = append(out, val...)
	out = append(out, bytecode.NewBinary(compoundOpcode(op), span))
	out = append(out, bytecode.NewStore(id, false, span))
	return out, nil
}

// lowerIndexAssign implements indexed assignment (plain and compound)
// without a stack-duplication opcode: the right-hand value is always
// evaluated before the container/index sub-expressions, which lets both
// forms push operands to SetIndex in the same (value, container, index)
// order, popped by the evaluator as (index, container, value).
//
// Compound assignment evaluates container/index twice: once to read the
// current value via GetIndex, once more to write the combined result via
// SetIndex, since anilang's opcode set has no Dup. A container or index
// expression with a side effect (e.g. a call) observes that side effect
// twice; this is a known, documented trade-off of the fixed opcode set
// rather than an oversight.
func (l *Lowerer) lowerIndexAssign(target *ast.Index, op token.Token, rhs ast.Expr, span token.Span) ([]Instruction, error) {
	if op == token.ILLEGAL {
		val, err := l.lowerExpr(rhs)
		if err != nil {
			return nil, err
		}
		container, err := l.lowerExpr(target.Container)
		if err != nil {
			return nil, err
		}
		index, err := l.lowerExpr(target.Index)
		if err != nil {
			return nil, err
		}
		out := append(val, container...)
		out = append(out, index...)
		return append(out, bytecode.NewSetIndex(span)), nil
	}

	container1, err := l.lowerExpr(target.Container)
	if err != nil {
		return nil, err
	}
	index1, err := l.lowerExpr(target.Index)
	if err != nil {
		return nil, err
	}
	rhsInsns, err := l.lowerExpr(rhs)
	if err != nil {
		return nil, err
	}
	container2, err := l.lowerExpr(target.Container)
	if err != nil {
		return nil, err
	}
	index2, err := l.lowerExpr(target.Index)
	if err != nil {
		return nil, err
	}

	var out []Instruction
	out = append(out, container1...)
	out = append(out, index1...)
	out = append(out, bytecode.NewGetIndex(span))
	out = append(out, rhsInsns...)
	out = append(out, bytecode.NewBinary(compoundOpcode(op), span))
	out = append(out, container2...)
	out = append(out, index2...)
	out = append(out, bytecode.NewSetIndex(span))
	return out, nil
}

// lowerIf lowers an If: test the condition, branch past Then to a
// synthetic else label when false, and converge at a
// synthetic end label so exactly one value is left regardless of which
// branch ran.
func (l *Lowerer) lowerIf(n *ast.If) ([]Instruction, error) {
	cond, err := l.lowerExpr(n.Cond)
	if err != nil {
		return nil, err
	}
	then, err := l.lowerBlock(n.Then)
	if err != nil {
		return nil, err
	}

	elseLabel := l.newLabel()
	endLabel := l.newLabel()

	var out []Instruction
	out = append(out, cond...)
	out = append(out, bytecode.NewPopJumpIfFalse(elseLabel, n.Span()))
	out = append(out, then...)
	out = append(out, bytecode.NewJumpTo(endLabel, n.Span()))
	out = append(out, bytecode.NewLabel(elseLabel, n.Span()))
	if n.Else != nil {
		elseInsns, err := l.lowerBlock(n.Else)
		if err != nil {
			return nil, err
		}
		out = append(out, elseInsns...)
	} else {
		out = append(out, bytecode.NewPush(value.Null, n.Span()))
	}
	out = append(out, bytecode.NewLabel(endLabel, n.Span()))
	return out, nil
}

// lowerLoop lowers both While and a bare `loop`: a bare `loop` has
// Cond == nil and skips the conditional exit test entirely. Both forms
// always evaluate to Null.
func (l *Lowerer) lowerLoop(n *ast.Loop) ([]Instruction, error) {
	headLabel := l.newLabel()
	exitLabel := l.newLabel()

	l.loops.push(loopCtx{exitLabel: exitLabel, depth: len(l.scopeStack)})
	defer l.loops.pop()

	var out []Instruction
	out = append(out, bytecode.NewLabel(headLabel, n.Span()))
	if n.Cond != nil {
		cond, err := l.lowerExpr(n.Cond)
		if err != nil {
			return nil, err
		}
		out = append(out, cond...)
		out = append(out, bytecode.NewPopJumpIfFalse(exitLabel, n.Span()))
	}

	body, err := l.lowerBlock(n.Body)
	if err != nil {
		return nil, err
	}
	out = append(out, body...)
	out = append(out, bytecode.NewPop(n.Span()))
	out = append(out, bytecode.NewJumpTo(headLabel, n.Span()))
	out = append(out, bytecode.NewLabel(exitLabel, n.Span()))
	out = append(out, bytecode.NewPush(value.Null, n.Span()))
	return out, nil
}

// lowerFnDeclaration materialises a Function value whose body is the
// lowered block. DeclScope is left nil: the evaluator captures it from the
// scope live at the moment the resulting Push instruction actually
// executes, since the declaring scope is only known at function-literal
// evaluation time, which the lowerer, a purely static pass, has no access
// to.
func (l *Lowerer) lowerFnDeclaration(n *ast.FnDeclaration) ([]Instruction, error) {
	fnVal, err := l.buildFunctionValue(n)
	if err != nil {
		return nil, err
	}
	out := []Instruction{bytecode.NewPush(fnVal, n.Span())}
	if n.Name != "" {
		out = append(out, bytecode.NewStore(l.identID(n.Name), true, n.Span()))
	}
	return out, nil
}

// buildFunctionValue lowers fd's body into its own instruction stream
// (sharing this Lowerer's scope and identifier tables) and wraps it in a
// heap-allocated Function value.
func (l *Lowerer) buildFunctionValue(fd *ast.FnDeclaration) (value.Value, error) {
	endLabel := l.newLabel()
	l.fns.push(fnCtx{endLabel: endLabel, depth: len(l.scopeStack)})
	defer l.fns.pop()

	body, err := l.lowerBlock(fd.Body)
	if err != nil {
		return value.Null, err
	}
	body = append(body, bytecode.NewLabel(endLabel, fd.Span()))

	nested := &bytecode.Bytecode{Instructions: body}
	data := value.NewAnilangFunction(fd.Name, fd.Params, nested, nil)
	return value.NewFunction(l.heap, data), nil
}

// lowerInterface builds a prototype object: its declared Fields initialised
// to Null, its Methods stored unbound (dotted access auto-binds `self` via
// value.FunctionData.WithThis, see lang/value/index.go's GetAttr). There is
// no dedicated opcode for "construct an instance"; a `new` method, if
// present, is called like any other method (Counter.new(...)) rather than
// invoked implicitly, so this lowers entirely in terms of the existing
// Object/Function machinery.
func (l *Lowerer) lowerInterface(n *ast.Interface) ([]Instruction, error) {
	var out []Instruction
	for _, field := range n.Fields {
		out = append(out, bytecode.NewPush(value.NewString(l.heap, field), n.Span()))
		out = append(out, bytecode.NewPush(value.Null, n.Span()))
	}
	for _, m := range n.Methods {
		fnVal, err := l.buildFunctionValue(m)
		if err != nil {
			return nil, err
		}
		out = append(out, bytecode.NewPush(value.NewString(l.heap, m.Name), n.Span()))
		out = append(out, bytecode.NewPush(fnVal, n.Span()))
	}

	out = append(out, bytecode.NewMakeObject(uint64(len(n.Fields)+len(n.Methods)), n.Span()))
	if n.Name != "" {
		out = append(out, bytecode.NewStore(l.identID(n.Name), true, n.Span()))
	}
	return out, nil
}
