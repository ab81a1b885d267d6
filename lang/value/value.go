package value

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mna/anilang/lang/gc"
)

// Value is the tagged sum of every runtime kind. The zero Value is
// KindNull. Heap-backed kinds store a heapPtr; Int/Bool/Range store their
// payload in i/j; Float stores its payload in f.
type Value struct {
	kind Kind
	i, j int64
	f    float64
	ptr  heapPtr
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

// NewInt returns an Int value.
func NewInt(n int64) Value { return Value{kind: KindInt, i: n} }

// NewFloat returns a Float value.
func NewFloat(f float64) Value { return Value{kind: KindFloat, f: f} }

// NewBool returns a Bool value.
func NewBool(b bool) Value {
	var i int64
	if b {
		i = 1
	}
	return Value{kind: KindBool, i: i}
}

// NewRange returns a Range value with the given signed endpoints.
func NewRange(start, end int64) Value { return Value{kind: KindRange, i: start, j: end} }

// NewString allocates a new String value on h holding s.
func NewString(h *gc.Heap, s string) Value {
	p := gc.NewPtr[*stringData](h, &stringData{runes: []rune(s)})
	return Value{kind: KindString, ptr: stringPtr(p)}
}

// NewList allocates a new List value on h holding a copy of items.
func NewList(h *gc.Heap, items []Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	p := gc.NewPtr[*listData](h, &listData{items: cp})
	return Value{kind: KindList, ptr: listPtr(p)}
}

// NewObject allocates a new, empty Object value on h.
func NewObject(h *gc.Heap, sizeHint int) Value {
	p := gc.NewPtr[*objectData](h, newObjectData(sizeHint))
	return Value{kind: KindObject, ptr: objectPtr(p)}
}

// NewFunction allocates a new Function value on h.
func NewFunction(h *gc.Heap, fn *FunctionData) Value {
	p := gc.NewPtr[*FunctionData](h, fn)
	return Value{kind: KindFunction, ptr: functionPtr(p)}
}

// Kind returns the value's type tag.
func (v Value) Kind() Kind { return v.kind }

// AsInt returns the payload of an Int value. The caller must check Kind.
func (v Value) AsInt() int64 { return v.i }

// AsFloat returns the payload of a Float value. The caller must check Kind.
func (v Value) AsFloat() float64 { return v.f }

// AsBool returns the payload of a Bool value. The caller must check Kind.
func (v Value) AsBool() bool { return v.i != 0 }

// RangeBounds returns the payload of a Range value. The caller must check Kind.
func (v Value) RangeBounds() (start, end int64) { return v.i, v.j }

func (v Value) stringPtr() gc.Ptr[*stringData] { return gc.Ptr[*stringData](v.ptr.(stringPtr)) }
func (v Value) listPtr() gc.Ptr[*listData]     { return gc.Ptr[*listData](v.ptr.(listPtr)) }
func (v Value) objectPtr() gc.Ptr[*objectData] { return gc.Ptr[*objectData](v.ptr.(objectPtr)) }
func (v Value) functionPtr() gc.Ptr[*FunctionData] {
	return gc.Ptr[*FunctionData](v.ptr.(functionPtr))
}

// AsString returns the string payload. The caller must check Kind.
func (v Value) AsString() string { return string(v.stringPtr().Deref().runes) }

// AsRunes returns the decoded codepoints of a string value, for indexing.
func (v Value) AsRunes() []rune { return v.stringPtr().Deref().runes }

// AsList returns the backing slice of a list value. The slice is shared: in
// place writes through it (via SetIndex, .push, .pop) are observed by every
// Value alias of the same handle.
func (v Value) AsList() *[]Value {
	ld := v.listPtr().Deref()
	return &ld.items
}

// AsFunction returns the function payload. The caller must check Kind.
func (v Value) AsFunction() *FunctionData { return v.functionPtr().Deref() }

// KV is a single object entry, returned by ObjectEntries in deterministic
// key order so that serialisation and display are reproducible regardless
// of the backing map's iteration order.
type KV struct {
	Key   string
	Value Value
}

// ObjectEntries returns the object's entries sorted by key. The caller must
// check Kind == KindObject.
func (v Value) ObjectEntries() []KV {
	od := v.objectPtr().Deref()
	keys := od.sortedKeys()
	out := make([]KV, len(keys))
	for i, k := range keys {
		val, _ := od.m.Get(k)
		out[i] = KV{Key: k, Value: val}
	}
	return out
}

// HeapID returns the identity of a heap-backed value's handle, used for
// identity comparisons (functions) and the identity-shortcut in string
// equality. Panics for non-heap kinds.
func (v Value) HeapID() uint64 { return v.ptr.id() }

// Mark and UpdateReachable let Value itself implement gc.Mark, so that
// containers (list, object, function) and the scope chain (lang/scope) can
// all be passed as GC roots or recursed into uniformly regardless of kind.
func (v Value) Mark() {
	if v.ptr != nil {
		v.ptr.Mark()
	}
}

func (v Value) UpdateReachable() {
	if v.ptr != nil {
		v.ptr.UpdateReachable()
	}
}

// Type returns the type name used in diagnostics, matching Kind.String().
func (v Value) Type() string { return v.kind.String() }

// String renders the value's display form.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindBool:
		if v.i != 0 {
			return "true"
		}
		return "false"
	case KindRange:
		return fmt.Sprintf("%d..%d", v.i, v.j)
	case KindString:
		return v.AsString()
	case KindList:
		items := *v.AsList()
		parts := make([]string, len(items))
		for i, it := range items {
			parts[i] = it.String()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindObject:
		return v.objectPtr().Deref().String()
	case KindFunction:
		fn := v.AsFunction()
		return fmt.Sprintf("function(%s)", fn.name())
	default:
		return "<invalid>"
	}
}

// Truthy implements the total truthiness mapping: every Value has a
// defined boolean interpretation, with no kind raising an error here.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	case KindBool:
		return v.i != 0
	case KindRange:
		return true // non-empty by construction of endpoints; treated as a container-like value
	case KindString:
		return len(v.AsRunes()) > 0
	case KindList:
		return true // containers are truthy regardless of length
	case KindObject:
		return true
	case KindFunction:
		return true
	default:
		return false
	}
}
