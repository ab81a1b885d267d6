package value

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCastReflexivity(t *testing.T) {
	for k := Kind(0); k < maxKind; k++ {
		ck, eff := CastType(k, k)
		require.Equal(t, CastImplicit, ck)
		require.Equal(t, k, eff)
	}
}

func TestCastNumericPromotion(t *testing.T) {
	ck, eff := CastType(KindInt, KindFloat)
	require.Equal(t, CastImplicit, ck)
	require.Equal(t, KindFloat, eff)

	ck, eff = CastType(KindFloat, KindInt)
	require.Equal(t, CastImplicit, ck)
	require.Equal(t, KindFloat, eff)
}

func TestCastOtherPairsExplicit(t *testing.T) {
	pairs := [][2]Kind{{KindInt, KindString}, {KindBool, KindInt}, {KindString, KindList}, {KindNull, KindInt}}
	for _, p := range pairs {
		ck, _ := CastType(p[0], p[1])
		require.Equal(t, CastExplicit, ck)
	}
}

func TestTryCastNumeric(t *testing.T) {
	v, err := TryCast(NewInt(3), KindFloat)
	require.NoError(t, err)
	require.Equal(t, 3.0, v.AsFloat())

	v, err = TryCast(NewFloat(3.9), KindInt)
	require.NoError(t, err)
	require.Equal(t, int64(3), v.AsInt())
}

func TestTryCastFailsOnNonNumeric(t *testing.T) {
	_, err := TryCast(NewInt(1), KindString)
	require.Error(t, err)
	require.ErrorAs(t, err, &ErrCastFailed{})
}
