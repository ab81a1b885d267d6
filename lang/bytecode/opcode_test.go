package bytecode

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpcodeString(t *testing.T) {
	require.Equal(t, "push", Push.String())
	require.Equal(t, "pop_var", PopVar.String())
	require.Contains(t, maxOpcode.String(), "opcode(")
}

func TestOpcodeOperandClassesAreDisjointPerOpcode(t *testing.T) {
	for op := BinaryAdd; op < maxOpcode; op++ {
		count := 0
		for _, has := range []bool{op.HasIdentOperand(), op.HasLabelOperand(), op.HasCountOperand(), op.HasScopeOperand(), op.HasValueOperand()} {
			if has {
				count++
			}
		}
		require.LessOrEqualf(t, count, 1, "opcode %s claims more than one operand class", op)
	}
}

func TestSpecificOpcodeOperandClasses(t *testing.T) {
	require.True(t, Store.HasIdentOperand())
	require.True(t, Load.HasIdentOperand())
	require.True(t, JumpTo.HasLabelOperand())
	require.True(t, PopJumpIfTrue.HasLabelOperand())
	require.True(t, PopJumpIfFalse.HasLabelOperand())
	require.True(t, Label.HasLabelOperand())
	require.True(t, CallFunction.HasCountOperand())
	require.True(t, MakeList.HasCountOperand())
	require.True(t, MakeObject.HasCountOperand())
	require.True(t, PushVar.HasScopeOperand())
	require.True(t, Push.HasValueOperand())
	require.False(t, Pop.HasIdentOperand())
}
