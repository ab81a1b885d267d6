package bytecode

import (
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

// Instruction is one entry of a bytecode stream: a tagged opcode plus
// whatever operand that opcode requires, and the source span it was
// lowered from.
//
// Rather than a sum type per opcode, all instructions share one struct with
// the fields relevant to their opcode populated and the rest left zero,
// matching the single-tagged-variant guidance applied to Value in
// lang/value.
type Instruction struct {
	Op Opcode

	// Arg is the generic 8-byte unsigned operand: identifier id (Store/Load),
	// label number (JumpTo/PopJumpIfTrue/PopJumpIfFalse/Label), arg/element
	// count (CallFunction/MakeList/MakeObject), or scope id (PushVar).
	Arg uint64

	// Declaration is Store's declaration flag: true means declare (fails on
	// a name already bound locally), false means assign (fails if unbound).
	Declaration bool

	// Value is Push's payload.
	Value value.Value

	Span token.Span
}

func simple(op Opcode, span token.Span) Instruction { return Instruction{Op: op, Span: span} }

// NewPush builds a Push instruction carrying v.
func NewPush(v value.Value, span token.Span) Instruction {
	return Instruction{Op: Push, Value: v, Span: span}
}

// NewStore builds a Store instruction for identifier id; declaration
// selects declare-semantics vs assign-semantics at evaluation time.
func NewStore(id uint64, declaration bool, span token.Span) Instruction {
	return Instruction{Op: Store, Arg: id, Declaration: declaration, Span: span}
}

// NewLoad builds a Load instruction for identifier id.
func NewLoad(id uint64, span token.Span) Instruction {
	return Instruction{Op: Load, Arg: id, Span: span}
}

// NewJumpTo builds an unconditional jump to label.
func NewJumpTo(label uint64, span token.Span) Instruction {
	return Instruction{Op: JumpTo, Arg: label, Span: span}
}

// NewPopJumpIfTrue builds a conditional jump taken when the popped value is
// truthy.
func NewPopJumpIfTrue(label uint64, span token.Span) Instruction {
	return Instruction{Op: PopJumpIfTrue, Arg: label, Span: span}
}

// NewPopJumpIfFalse builds a conditional jump taken when the popped value
// is falsy.
func NewPopJumpIfFalse(label uint64, span token.Span) Instruction {
	return Instruction{Op: PopJumpIfFalse, Arg: label, Span: span}
}

// NewCallFunction builds a call with numArgs positional arguments already
// on the stack below the callable.
func NewCallFunction(numArgs uint64, span token.Span) Instruction {
	return Instruction{Op: CallFunction, Arg: numArgs, Span: span}
}

// NewLabel builds a pseudo-instruction marking jump target number. Labels
// occupy no operand-stack slot at evaluation time.
func NewLabel(number uint64, span token.Span) Instruction {
	return Instruction{Op: Label, Arg: number, Span: span}
}

// NewMakeList builds a MakeList instruction consuming n stack values.
func NewMakeList(n uint64, span token.Span) Instruction {
	return Instruction{Op: MakeList, Arg: n, Span: span}
}

// NewMakeObject builds a MakeObject instruction consuming 2n stack values
// (n key/value pairs).
func NewMakeObject(n uint64, span token.Span) Instruction {
	return Instruction{Op: MakeObject, Arg: n, Span: span}
}

// NewPushVar builds a PushVar instruction entering scope id.
func NewPushVar(scopeID uint64, span token.Span) Instruction {
	return Instruction{Op: PushVar, Arg: scopeID, Span: span}
}

// NewPop, NewPopVar, NewMakeRange and the binary/unary/compare constructors
// below take no operand; they wrap simple for readability at call sites.
func NewPop(span token.Span) Instruction       { return simple(Pop, span) }
func NewPopVar(span token.Span) Instruction    { return simple(PopVar, span) }
func NewMakeRange(span token.Span) Instruction { return simple(MakeRange, span) }
func NewGetIndex(span token.Span) Instruction  { return simple(GetIndex, span) }
func NewSetIndex(span token.Span) Instruction  { return simple(SetIndex, span) }

func NewBinary(op Opcode, span token.Span) Instruction { return simple(op, span) }
func NewUnary(op Opcode, span token.Span) Instruction  { return simple(op, span) }
func NewCompare(op Opcode, span token.Span) Instruction { return simple(op, span) }
