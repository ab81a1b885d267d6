package value

import (
	"strings"

	"github.com/dolthub/swiss"
	"golang.org/x/exp/slices"

	"github.com/mna/anilang/lang/gc"
)

// stringData is the payload backing a KindString value. Strings are
// immutable once allocated (anilang has no in-place string mutation), but
// they still live on the GC heap because they are variable-size and shared
// by reference like any other handle (mutation applies to List/Object, not
// String).
//
// Runes are stored pre-decoded so that indexing and .len are O(1) and
// operate on Unicode scalar values, not bytes.
type stringData struct {
	runes []rune
}

func (s *stringData) Mark()            {}
func (s *stringData) UpdateReachable() {}

// listData is the payload backing a KindList value. Lists are mutable
// through the shared handle: every Value holding the same gc.Ptr[*listData]
// observes mutations made through any of them.
type listData struct {
	items []Value
}

func (l *listData) Mark() {
	for _, v := range l.items {
		v.Mark()
	}
}

func (l *listData) UpdateReachable() {
	for _, v := range l.items {
		v.UpdateReachable()
	}
}

// objectData is the payload backing a KindObject value, a string-keyed
// mapping. Backed by github.com/dolthub/swiss rather than a builtin Go map.
type objectData struct {
	m *swiss.Map[string, Value]
}

func newObjectData(size int) *objectData {
	return &objectData{m: swiss.NewMap[string, Value](uint32(size))}
}

func (o *objectData) Mark() {
	o.m.Iter(func(_ string, v Value) bool {
		v.Mark()
		return false
	})
}

func (o *objectData) UpdateReachable() {
	o.m.Iter(func(_ string, v Value) bool {
		v.UpdateReachable()
		return false
	})
}

// sortedKeys returns the object's keys in a deterministic order, used by
// String() and ObjectEntries so that two structurally-equal objects print
// and list their entries identically regardless of the map's internal
// iteration order.
func (o *objectData) sortedKeys() []string {
	keys := make([]string, 0, o.m.Count())
	o.m.Iter(func(k string, _ Value) bool {
		keys = append(keys, k)
		return false
	})
	slices.Sort(keys)
	return keys
}

func (o *objectData) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, k := range o.sortedKeys() {
		if i > 0 {
			sb.WriteString(", ")
		}
		v, _ := o.m.Get(k)
		sb.WriteString(k)
		sb.WriteString(": ")
		sb.WriteString(v.String())
	}
	sb.WriteByte('}')
	return sb.String()
}

// heapPtr is the set of type-erased operations common to every gc.Ptr[T]
// kind held by a Value, so the Value struct can store one without knowing
// which concrete payload type it wraps.
type heapPtr interface {
	gc.Mark
	id() uint64
}

type stringPtr gc.Ptr[*stringData]

func (p stringPtr) Mark()            { gc.Ptr[*stringData](p).Mark() }
func (p stringPtr) UpdateReachable() { gc.Ptr[*stringData](p).UpdateReachable() }
func (p stringPtr) id() uint64       { return gc.Ptr[*stringData](p).ID() }

type listPtr gc.Ptr[*listData]

func (p listPtr) Mark()            { gc.Ptr[*listData](p).Mark() }
func (p listPtr) UpdateReachable() { gc.Ptr[*listData](p).UpdateReachable() }
func (p listPtr) id() uint64       { return gc.Ptr[*listData](p).ID() }

type objectPtr gc.Ptr[*objectData]

func (p objectPtr) Mark()            { gc.Ptr[*objectData](p).Mark() }
func (p objectPtr) UpdateReachable() { gc.Ptr[*objectData](p).UpdateReachable() }
func (p objectPtr) id() uint64       { return gc.Ptr[*objectData](p).ID() }

type functionPtr gc.Ptr[*FunctionData]

func (p functionPtr) Mark()            { gc.Ptr[*FunctionData](p).Mark() }
func (p functionPtr) UpdateReachable() { gc.Ptr[*FunctionData](p).UpdateReachable() }
func (p functionPtr) id() uint64       { return gc.Ptr[*FunctionData](p).ID() }
