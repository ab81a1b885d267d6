package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

func buildSample(h *gc.Heap) *Bytecode {
	root := scope.New(0, nil)
	inner := scope.New(1, root)

	return &Bytecode{
		Source: SourceMap{Offset: 0, Lines: []LineSpan{{Start: 0, End: 10}, {Start: 10, End: 20}}},
		Scopes: []*scope.Scope{root, inner},
		Idents: []IdentEntry{{ID: 7, Name: "x"}, {ID: 9, Name: "f"}},
		Instructions: []Instruction{
			NewPushVar(1, token.NoSpan),
			NewPush(value.NewInt(3), token.NoSpan),
			NewStore(7, true, token.NoSpan),
			NewLoad(7, token.NoSpan),
			NewPush(value.NewInt(4), token.NoSpan),
			NewBinary(BinaryAdd, token.NoSpan),
			NewPopVar(token.NoSpan),
			NewJumpTo(0, token.NoSpan),
			NewLabel(0, token.NoSpan),
			NewPop(token.NoSpan),
		},
	}
}

func TestSerializeDeserializeRoundTripInstructions(t *testing.T) {
	h := gc.NewHeap(0)
	orig := buildSample(h)

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, orig))

	global := scope.New(0, nil)
	ctx := NewContext(global, h)
	got, err := Deserialize(&buf, ctx)
	require.NoError(t, err)

	require.Equal(t, len(orig.Instructions), len(got.Instructions))
	for i := range orig.Instructions {
		wantOp := orig.Instructions[i].Op
		gotOp := got.Instructions[i].Op
		require.Equal(t, wantOp, gotOp, "instruction %d opcode", i)
		require.Equal(t, orig.Instructions[i].Arg, got.Instructions[i].Arg, "instruction %d arg", i)
		require.Equal(t, orig.Instructions[i].Declaration, got.Instructions[i].Declaration, "instruction %d declaration flag", i)
	}
}

func TestSerializeDeserializeRoundTripValues(t *testing.T) {
	h := gc.NewHeap(0)
	list := value.NewList(h, []value.Value{value.NewInt(1), value.NewString(h, "a")})
	obj := value.NewObject(h, 1)
	require.NoError(t, value.SetIndex(obj, value.NewString(h, "k"), value.NewInt(5)))

	orig := &Bytecode{Instructions: []Instruction{
		NewPush(value.NewInt(42), token.NoSpan),
		NewPush(value.NewFloat(1.5), token.NoSpan),
		NewPush(value.NewBool(true), token.NoSpan),
		NewPush(value.Null, token.NoSpan),
		NewPush(value.NewString(h, "hello"), token.NoSpan),
		NewPush(list, token.NoSpan),
		NewPush(obj, token.NoSpan),
		NewPush(value.NewRange(-2, 9), token.NoSpan),
	}}

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, orig))

	global := scope.New(0, nil)
	ctx := NewContext(global, h)
	got, err := Deserialize(&buf, ctx)
	require.NoError(t, err)
	require.Len(t, got.Instructions, len(orig.Instructions))

	require.Equal(t, int64(42), got.Instructions[0].Value.AsInt())
	require.Equal(t, 1.5, got.Instructions[1].Value.AsFloat())
	require.True(t, got.Instructions[2].Value.AsBool())
	require.Equal(t, value.KindNull, got.Instructions[3].Value.Kind())
	require.Equal(t, "hello", got.Instructions[4].Value.AsString())
	gotList := *got.Instructions[5].Value.AsList()
	require.Len(t, gotList, 2)
	require.Equal(t, int64(1), gotList[0].AsInt())
	require.Equal(t, "a", gotList[1].AsString())
	gotVal, err := value.GetIndex(h, got.Instructions[6].Value, value.NewString(h, "k"))
	require.NoError(t, err)
	require.Equal(t, value.NewInt(5), gotVal)
	start, end := got.Instructions[7].Value.RangeBounds()
	require.Equal(t, int64(-2), start)
	require.Equal(t, int64(9), end)
}

func TestSerializeDeserializeRoundTripScopeTable(t *testing.T) {
	h := gc.NewHeap(0)
	orig := buildSample(h)

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, orig))

	global := scope.New(0, nil)
	ctx := NewContext(global, h)
	got, err := Deserialize(&buf, ctx)
	require.NoError(t, err)

	require.Len(t, got.Scopes, 2)
	require.Same(t, global, got.Scopes[0].Parent())
	require.Same(t, got.Scopes[0], got.Scopes[1].Parent())
	require.NoError(t, got.ValidateScopeOrdering())
}

func TestSerializeDeserializeRoundTripIdentTable(t *testing.T) {
	h := gc.NewHeap(0)
	orig := buildSample(h)

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, orig))

	global := scope.New(0, nil)
	ctx := NewContext(global, h)
	got, err := Deserialize(&buf, ctx)
	require.NoError(t, err)

	table := got.IdentTable()
	require.Equal(t, "x", table[7])
	require.Equal(t, "f", table[9])
}

func TestDeserializeRejectsMissingSentinels(t *testing.T) {
	h := gc.NewHeap(0)
	_, err := Deserialize(bytes.NewReader([]byte("nope")), NewContext(scope.New(0, nil), h))
	require.Error(t, err)
}

func TestSerializeFunctionValueRoundTrip(t *testing.T) {
	h := gc.NewHeap(0)
	root := scope.New(0, nil)
	body := &Bytecode{Instructions: []Instruction{
		NewLoad(1, token.NoSpan),
		NewPop(token.NoSpan),
	}}
	fd := value.NewAnilangFunction("f", []string{"a"}, body, root)
	fn := value.NewFunction(h, fd)

	orig := &Bytecode{
		Scopes:       []*scope.Scope{root},
		Instructions: []Instruction{NewPush(fn, token.NoSpan)},
	}

	var buf bytes.Buffer
	require.NoError(t, Serialize(&buf, orig))

	global := scope.New(0, nil)
	ctx := NewContext(global, h)
	got, err := Deserialize(&buf, ctx)
	require.NoError(t, err)

	gotFn := got.Instructions[0].Value.AsFunction()
	require.Equal(t, []string{"a"}, gotFn.Params)
	gotBody, ok := gotFn.Body.(*Bytecode)
	require.True(t, ok)
	require.Len(t, gotBody.Instructions, 2)
}
