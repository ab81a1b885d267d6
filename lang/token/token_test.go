package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenString(t *testing.T) {
	for tok := ADD; tok < maxToken; tok++ {
		require.NotEqual(t, "illegal token", tok.String(), "token %d should have a name", tok)
	}
	require.Equal(t, "illegal token", ILLEGAL.String())
	require.Equal(t, "illegal token", maxToken.String())
}

func TestIsCompareIsArith(t *testing.T) {
	require.True(t, LT.IsCompare())
	require.True(t, NEQ.IsCompare())
	require.False(t, ADD.IsCompare())

	require.True(t, ADD.IsArith())
	require.True(t, AND.IsArith())
	require.False(t, LT.IsArith())
	require.False(t, NOT.IsArith())
}
