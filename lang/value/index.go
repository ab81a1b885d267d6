package value

import (
	"github.com/mna/anilang/lang/gc"
)

// normalizeIndex maps a signed, possibly negative index into [0, length),
// negative indices counting from the end; it reports ErrIndexOutOfRange if
// the result still falls outside the sequence.
func normalizeIndex(idx int64, length int) (int, error) {
	i := idx
	if i < 0 {
		i += int64(length)
	}
	if i < 0 || i >= int64(length) {
		return 0, ErrIndexOutOfRange{Index: int(idx), Len: length}
	}
	return int(i), nil
}

// normalizeSlice maps signed range endpoints to a [start, end] pair within
// [0, length], Python-slice style: out-of-range endpoints clamp rather than
// error, and end < start yields an empty slice.
func normalizeSlice(s, e int64, length int) (int, int) {
	clamp := func(i int64) int {
		if i < 0 {
			i += int64(length)
			if i < 0 {
				i = 0
			}
		}
		if i > int64(length) {
			i = int64(length)
		}
		return int(i)
	}
	start, end := clamp(s), clamp(e)
	if end < start {
		end = start
	}
	return start, end
}

// GetIndex implements the `[]` read operator for
// String/List/Object/Range-of-string-or-list containers, allocating any new
// heap-backed substring/sublist result on h.
func GetIndex(h *gc.Heap, container, index Value) (Value, error) {
	switch container.kind {
	case KindString:
		runes := container.AsRunes()
		if index.kind == KindRange {
			s, e := index.RangeBounds()
			start, end := normalizeSlice(s, e, len(runes))
			return NewString(h, string(runes[start:end])), nil
		}
		if index.kind != KindInt {
			return Null, ErrTypeMismatch{Left: container.kind, Right: index.kind}
		}
		i, err := normalizeIndex(index.i, len(runes))
		if err != nil {
			return Null, err
		}
		return NewString(h, string(runes[i:i+1])), nil

	case KindList:
		items := *container.AsList()
		if index.kind == KindRange {
			s, e := index.RangeBounds()
			start, end := normalizeSlice(s, e, len(items))
			return NewList(h, items[start:end]), nil
		}
		if index.kind != KindInt {
			return Null, ErrTypeMismatch{Left: container.kind, Right: index.kind}
		}
		i, err := normalizeIndex(index.i, len(items))
		if err != nil {
			return Null, err
		}
		return items[i], nil

	case KindObject:
		if index.kind != KindString {
			return Null, ErrTypeMismatch{Left: container.kind, Right: index.kind}
		}
		obj := container.objectPtr().Deref()
		v, found := obj.m.Get(index.AsString())
		if !found {
			return Null, nil
		}
		return v, nil

	default:
		return Null, ErrInvalidProperty{On: container.kind, Property: "[]"}
	}
}

// SetIndex implements the `[]=` write operator, including list-splicing
// when index is a Range and val a List.
func SetIndex(container, index, val Value) error {
	switch container.kind {
	case KindList:
		itemsPtr := container.AsList()
		if index.kind == KindRange {
			s, e := index.RangeBounds()
			start, end := normalizeSlice(s, e, len(*itemsPtr))
			if val.kind != KindList {
				return ErrTypeMismatch{Left: container.kind, Right: val.kind}
			}
			repl := *val.AsList()
			out := make([]Value, 0, start+len(repl)+(len(*itemsPtr)-end))
			out = append(out, (*itemsPtr)[:start]...)
			out = append(out, repl...)
			out = append(out, (*itemsPtr)[end:]...)
			*itemsPtr = out
			return nil
		}
		if index.kind != KindInt {
			return ErrTypeMismatch{Left: container.kind, Right: index.kind}
		}
		i, err := normalizeIndex(index.i, len(*itemsPtr))
		if err != nil {
			return err
		}
		(*itemsPtr)[i] = val
		return nil

	case KindObject:
		if index.kind != KindString {
			return ErrTypeMismatch{Left: container.kind, Right: index.kind}
		}
		container.objectPtr().Deref().m.Put(index.AsString(), val)
		return nil

	default:
		return ErrInvalidProperty{On: container.kind, Property: "[]"}
	}
}

// syntheticProps lists, per kind, the read-only property names recognised
// by GetAttr before falling through to ErrInvalidProperty.
var syntheticProps = map[Kind]map[string]bool{
	KindString:   {"len": true},
	KindList:     {"len": true, "push": true, "pop": true},
	KindRange:    {"start": true, "end": true},
	KindFunction: {"call": true},
}

// GetAttr implements dotted property access, including the synthetic
// read-only properties enumerated in syntheticProps.
func GetAttr(h *gc.Heap, v Value, name string) (Value, error) {
	switch v.kind {
	case KindString:
		if name == "len" {
			return NewInt(int64(len(v.AsRunes()))), nil
		}
	case KindList:
		switch name {
		case "len":
			return NewInt(int64(len(*v.AsList()))), nil
		case "push":
			list := v
			return NewFunction(h, NewNativeFunction("push", func(args []Value) (Value, error) {
				ptr := list.AsList()
				*ptr = append(*ptr, args...)
				return Null, nil
			})), nil
		case "pop":
			list := v
			return NewFunction(h, NewNativeFunction("pop", func(args []Value) (Value, error) {
				ptr := list.AsList()
				if len(*ptr) == 0 {
					return Null, ErrIndexOutOfRange{Index: 0, Len: 0}
				}
				last := (*ptr)[len(*ptr)-1]
				*ptr = (*ptr)[:len(*ptr)-1]
				return last, nil
			})), nil
		}
	case KindRange:
		switch name {
		case "start":
			s, _ := v.RangeBounds()
			return NewInt(s), nil
		case "end":
			_, e := v.RangeBounds()
			return NewInt(e), nil
		}
	case KindObject:
		obj := v.objectPtr().Deref()
		if val, found := obj.m.Get(name); found {
			if val.kind == KindFunction {
				bound := val.AsFunction().WithThis(v)
				return NewFunction(h, bound), nil
			}
			return val, nil
		}
	case KindFunction:
		if name == "call" {
			return v, nil
		}
	}
	return Null, ErrInvalidProperty{On: v.kind, Property: name}
}

// SetAttr implements dotted property assignment. Assigning any property
// (synthetic or not) on a Function or Range is invalid.
func SetAttr(v Value, name string, val Value) error {
	if v.kind == KindFunction || v.kind == KindRange {
		return ErrInvalidProperty{On: v.kind, Property: name}
	}
	if syntheticProps[v.kind][name] {
		return ErrReadonlyProperty{On: v.kind, Property: name}
	}
	if v.kind == KindObject {
		v.objectPtr().Deref().m.Put(name, val)
		return nil
	}
	return ErrInvalidProperty{On: v.kind, Property: name}
}
