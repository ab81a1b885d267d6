package value

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/anilang/lang/token"
)

func TestBinaryArithSeedScenarios(t *testing.T) {
	h := newHeap()

	v, err := Binary(h, token.ADD, NewInt(1), NewInt(2))
	require.NoError(t, err)
	require.Equal(t, NewInt(3), v)

	v, err = Binary(h, token.DIV, NewFloat(22.0), NewInt(4))
	require.NoError(t, err)
	require.Equal(t, NewFloat(5.5), v)

	v, err = Binary(h, token.POW, NewInt(3), NewInt(4))
	require.NoError(t, err)
	require.Equal(t, NewInt(81), v)
}

func TestComplexExpressionSeed(t *testing.T) {
	// 12 + 23 - ((23 * 56 / 12) % 7)^3 == 27
	h := newHeap()
	mul, _ := Binary(h, token.MUL, NewInt(23), NewInt(56))
	div, _ := Binary(h, token.DIV, mul, NewInt(12))
	mod, _ := Binary(h, token.MOD, div, NewInt(7))
	pow, _ := Binary(h, token.POW, mod, NewInt(3))
	a, _ := Binary(h, token.ADD, NewInt(12), NewInt(23))
	result, err := Binary(h, token.SUB, a, pow)
	require.NoError(t, err)
	require.Equal(t, NewInt(27), result)
}

func TestDivisionByZero(t *testing.T) {
	h := newHeap()
	_, err := Binary(h, token.MOD, NewInt(1), NewInt(0))
	require.ErrorAs(t, err, &ErrDivisionByZero{})

	_, err = Binary(h, token.DIV, NewInt(1), NewInt(0))
	require.ErrorAs(t, err, &ErrDivisionByZero{})
}

func TestIntDivisionTruncatesTowardZero(t *testing.T) {
	h := newHeap()
	v, err := Binary(h, token.DIV, NewInt(-7), NewInt(2))
	require.NoError(t, err)
	require.Equal(t, NewInt(-3), v)
}

func TestShortCircuitReturnsOperandVerbatim(t *testing.T) {
	h := newHeap()
	v, err := Binary(h, token.OR, NewInt(0), NewString(h, "x"))
	require.NoError(t, err)
	require.Equal(t, KindString, v.Kind())
	require.Equal(t, "x", v.AsString())

	v, err = Binary(h, token.AND, NewInt(0), NewString(h, "x"))
	require.NoError(t, err)
	require.Equal(t, KindInt, v.Kind())
	require.Equal(t, int64(0), v.AsInt())
}

func TestUnaryOperators(t *testing.T) {
	v, err := Unary(token.UMINUS, NewInt(5))
	require.NoError(t, err)
	require.Equal(t, NewInt(-5), v)

	v, err = Unary(token.NOT, NewInt(0))
	require.NoError(t, err)
	require.True(t, v.AsBool())

	_, err = Unary(token.UMINUS, NewBool(true))
	require.ErrorAs(t, err, &ErrTypeMismatch{})
}

func TestTypeMismatch(t *testing.T) {
	h := newHeap()
	_, err := Binary(h, token.SUB, NewString(h, "a"), NewInt(1))
	require.ErrorAs(t, err, &ErrTypeMismatch{})
}
