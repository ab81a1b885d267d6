package scope

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/value"
)

func newTestHeap() *gc.Heap { return gc.NewHeap(0) }

func TestDeclareGetAssign(t *testing.T) {
	root := New(0, nil)
	require.NoError(t, root.Declare("x", value.NewInt(1)))

	v, err := root.Get("x")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(1), v)

	require.NoError(t, root.Assign("x", value.NewInt(2)))
	v, err = root.Get("x")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(2), v)
}

func TestDeclareTwiceFails(t *testing.T) {
	s := New(0, nil)
	require.NoError(t, s.Declare("x", value.NewInt(1)))
	err := s.Declare("x", value.NewInt(2))
	require.ErrorAs(t, err, &ErrAlreadyDeclared{})
}

func TestGetWalksAncestors(t *testing.T) {
	root := New(0, nil)
	require.NoError(t, root.Declare("outer", value.NewInt(10)))
	child := New(1, root)
	require.NoError(t, child.Declare("inner", value.NewInt(20)))

	v, err := child.Get("outer")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(10), v)

	_, err = root.Get("inner")
	require.ErrorAs(t, err, &ErrNotFound{})
}

func TestAssignWalksAncestorsWithoutCreating(t *testing.T) {
	root := New(0, nil)
	require.NoError(t, root.Declare("x", value.NewInt(1)))
	child := New(1, root)

	require.NoError(t, child.Assign("x", value.NewInt(5)))
	v, err := root.Get("x")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(5), v)
	require.False(t, child.Has("x"))

	err = child.Assign("never-declared", value.NewInt(1))
	require.ErrorAs(t, err, &ErrNotFound{})
}

func TestShadowingDeclaresLocally(t *testing.T) {
	root := New(0, nil)
	require.NoError(t, root.Declare("x", value.NewInt(1)))
	child := New(1, root)
	require.NoError(t, child.Declare("x", value.NewInt(2)))

	v, err := child.Get("x")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(2), v)

	v, err = root.Get("x")
	require.NoError(t, err)
	require.Equal(t, value.NewInt(1), v)
}

func TestChildIDGreaterThanParent(t *testing.T) {
	root := New(0, nil)
	child := New(1, root)
	grandchild := New(2, child)
	require.Greater(t, child.ID(), root.ID())
	require.Greater(t, grandchild.ID(), child.ID())
}

func TestMarkReachesBoundValuesAndAncestors(t *testing.T) {
	root := New(0, nil)
	list := value.NewList(newTestHeap(), []value.Value{value.NewInt(1)})
	require.NoError(t, root.Declare("l", list))
	child := New(1, root)

	// Mark/UpdateReachable must not panic when walking a multi-level chain
	// with heap-backed values bound at different levels.
	child.Mark()
	child.UpdateReachable()
}
