package bytecode

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

// Value tag bytes on the wire. Int/Float/Bool/Null/String get the low tags;
// List/Object/Range/Function (the recursive kinds) take the next ones in
// sequence (6-9).
const (
	tagInt      = 1
	tagFloat    = 2
	tagBool     = 3
	tagNull     = 4
	tagString   = 5
	tagList     = 6
	tagObject   = 7
	tagRange    = 8
	tagFunction = 9
)

var srcsMarker = [4]byte{'s', 'r', 'c', 's'}
var srceMarker = [4]byte{'s', 'r', 'c', 'e'}

// Serialize writes b to w in the binary format: a srcs/srce-framed source
// header, a scope table, an identifier intern table, then the
// length-prefixed instruction stream.
func Serialize(w io.Writer, b *Bytecode) error {
	bw := bufio.NewWriter(w)
	enc := &encoder{w: bw}

	enc.bytes(srcsMarker[:])
	enc.u64(b.Source.Offset)
	enc.u64(uint64(len(b.Source.Lines)))
	for _, l := range b.Source.Lines {
		enc.u64(l.Start)
		enc.u64(l.End)
	}
	enc.bytes(srceMarker[:])

	enc.u64(uint64(len(b.Scopes)))
	for _, s := range b.Scopes {
		p := s.Parent()
		if p != nil && p.ID() < len(b.Scopes) && b.Scopes[p.ID()] == p {
			enc.u64(uint64(p.ID()))
		} else {
			enc.u64(noParentSentinel)
		}
	}

	enc.u64(uint64(len(b.Idents)))
	for _, id := range b.Idents {
		enc.u64(id.ID)
		enc.cstring(id.Name)
	}

	enc.u64(uint64(len(b.Instructions)))
	for _, insn := range b.Instructions {
		enc.instruction(insn)
	}

	if enc.err != nil {
		return enc.err
	}
	return bw.Flush()
}

type encoder struct {
	w   *bufio.Writer
	err error
}

func (e *encoder) bytes(p []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(p)
}

func (e *encoder) u8(b byte) {
	if e.err != nil {
		return
	}
	e.err = e.w.WriteByte(b)
}

func (e *encoder) u64(v uint64) {
	if e.err != nil {
		return
	}
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, e.err = e.w.Write(buf[:])
}

func (e *encoder) i64(v int64) { e.u64(uint64(v)) }

func (e *encoder) f64(f float64) { e.u64(math.Float64bits(f)) }

func (e *encoder) cstring(s string) {
	e.bytes([]byte(s))
	e.u8(0)
}

func (e *encoder) instruction(insn Instruction) {
	e.u8(byte(insn.Op))
	switch {
	case insn.Op.HasValueOperand():
		e.value(insn.Value)
	case insn.Op.HasIdentOperand():
		e.u64(insn.Arg)
		if insn.Op == Store {
			if insn.Declaration {
				e.u8(1)
			} else {
				e.u8(0)
			}
		}
	case insn.Op.HasLabelOperand(), insn.Op.HasCountOperand(), insn.Op.HasScopeOperand():
		e.u64(insn.Arg)
	}
}

func (e *encoder) value(v value.Value) {
	switch v.Kind() {
	case value.KindInt:
		e.u8(tagInt)
		e.i64(v.AsInt())
	case value.KindFloat:
		e.u8(tagFloat)
		e.f64(v.AsFloat())
	case value.KindBool:
		e.u8(tagBool)
		if v.AsBool() {
			e.u8(1)
		} else {
			e.u8(0)
		}
	case value.KindNull:
		e.u8(tagNull)
	case value.KindString:
		e.u8(tagString)
		e.cstring(v.AsString())
	case value.KindList:
		e.u8(tagList)
		items := *v.AsList()
		e.u64(uint64(len(items)))
		for _, it := range items {
			e.value(it)
		}
	case value.KindObject:
		e.u8(tagObject)
		entries := v.ObjectEntries()
		e.u64(uint64(len(entries)))
		for _, kv := range entries {
			e.cstring(kv.Key)
			e.value(kv.Value)
		}
	case value.KindRange:
		e.u8(tagRange)
		s, end := v.RangeBounds()
		e.i64(s)
		e.i64(end)
	case value.KindFunction:
		e.u8(tagFunction)
		e.function(v.AsFunction())
	default:
		if e.err == nil {
			e.err = fmt.Errorf("bytecode: cannot serialise value of kind %s", v.Kind())
		}
	}
}

func (e *encoder) function(fn *value.FunctionData) {
	if fn.IsNative() {
		if e.err == nil {
			e.err = fmt.Errorf("bytecode: cannot serialise a native function")
		}
		return
	}
	e.u64(uint64(len(fn.Params)))
	for _, p := range fn.Params {
		e.cstring(p)
	}
	declScope, _ := fn.DeclScope.(*scope.Scope)
	if declScope != nil {
		e.u64(uint64(declScope.ID()))
	} else {
		e.u64(noParentSentinel)
	}
	body, _ := fn.Body.(*Bytecode)
	if body == nil {
		if e.err == nil {
			e.err = fmt.Errorf("bytecode: function with params %v has no lowered body", fn.Params)
		}
		return
	}
	e.u64(uint64(len(body.Instructions)))
	for _, insn := range body.Instructions {
		e.instruction(insn)
	}
}

// Context accumulates the scope and identifier tables while deserialising,
// so that a Load/Store/PushVar encountered partway through the instruction
// stream can resolve against scopes and idents read earlier in the same
// single forward pass.
type Context struct {
	Global *scope.Scope
	Heap   *gc.Heap
	scopes []*scope.Scope
	idents []IdentEntry
}

// NewContext builds a deserialisation context rooted at the host's global
// scope, allocating heap-backed values (strings/lists/objects/functions) on
// heap.
func NewContext(global *scope.Scope, heap *gc.Heap) *Context {
	return &Context{Global: global, Heap: heap}
}

// Deserialize reads a Bytecode from r in the format Serialize writes,
// reconstructing the scope tree against ctx.Global and populating ctx's
// scope/ident tables as it goes.
func Deserialize(r io.Reader, ctx *Context) (*Bytecode, error) {
	dec := &decoder{r: bufio.NewReader(r), ctx: ctx}

	var marker [4]byte
	dec.bytes(marker[:])
	if dec.err == nil && marker != srcsMarker {
		dec.err = fmt.Errorf("bytecode: missing srcs marker")
	}

	b := &Bytecode{}
	b.Source.Offset = dec.u64()
	lineCount := dec.u64()
	b.Source.Lines = make([]LineSpan, 0, lineCount)
	for i := uint64(0); i < lineCount && dec.err == nil; i++ {
		start := dec.u64()
		end := dec.u64()
		b.Source.Lines = append(b.Source.Lines, LineSpan{Start: start, End: end})
	}

	dec.bytes(marker[:])
	if dec.err == nil && marker != srceMarker {
		dec.err = fmt.Errorf("bytecode: missing srce marker")
	}

	scopeCount := dec.u64()
	for i := uint64(0); i < scopeCount && dec.err == nil; i++ {
		parentID := dec.u64()
		var parent *scope.Scope
		if parentID == noParentSentinel {
			parent = ctx.Global
		} else if int(parentID) < len(ctx.scopes) {
			parent = ctx.scopes[parentID]
		} else if dec.err == nil {
			dec.err = fmt.Errorf("bytecode: scope %d references unseen parent %d", i, parentID)
		}
		s := scope.New(int(i), parent)
		ctx.scopes = append(ctx.scopes, s)
	}
	b.Scopes = ctx.scopes

	identCount := dec.u64()
	for i := uint64(0); i < identCount && dec.err == nil; i++ {
		id := dec.u64()
		name := dec.cstring()
		entry := IdentEntry{ID: id, Name: name}
		b.Idents = append(b.Idents, entry)
		ctx.idents = append(ctx.idents, entry)
	}

	insnCount := dec.u64()
	b.Instructions = make([]Instruction, 0, insnCount)
	for i := uint64(0); i < insnCount && dec.err == nil; i++ {
		b.Instructions = append(b.Instructions, dec.instruction())
	}

	return b, dec.err
}

type decoder struct {
	r   *bufio.Reader
	ctx *Context
	err error
}

func (d *decoder) bytes(p []byte) {
	if d.err != nil {
		return
	}
	_, d.err = io.ReadFull(d.r, p)
}

func (d *decoder) u8() byte {
	if d.err != nil {
		return 0
	}
	b, err := d.r.ReadByte()
	if err != nil {
		d.err = err
		return 0
	}
	return b
}

func (d *decoder) u64() uint64 {
	if d.err != nil {
		return 0
	}
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		d.err = err
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:])
}

func (d *decoder) i64() int64 { return int64(d.u64()) }

func (d *decoder) f64() float64 { return math.Float64frombits(d.u64()) }

func (d *decoder) cstring() string {
	if d.err != nil {
		return ""
	}
	var buf []byte
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			d.err = err
			return ""
		}
		if b == 0 {
			return string(buf)
		}
		buf = append(buf, b)
	}
}

func (d *decoder) instruction() Instruction {
	op := Opcode(d.u8())
	span := token.NoSpan
	switch {
	case d.err != nil:
		return Instruction{}
	case op.HasValueOperand():
		return Instruction{Op: op, Value: d.value(), Span: span}
	case op.HasIdentOperand():
		arg := d.u64()
		var decl bool
		if op == Store {
			decl = d.u8() != 0
		}
		return Instruction{Op: op, Arg: arg, Declaration: decl, Span: span}
	case op.HasLabelOperand(), op.HasCountOperand(), op.HasScopeOperand():
		return Instruction{Op: op, Arg: d.u64(), Span: span}
	default:
		return Instruction{Op: op, Span: span}
	}
}

func (d *decoder) value() value.Value {
	tag := d.u8()
	if d.err != nil {
		return value.Null
	}
	switch tag {
	case tagInt:
		return value.NewInt(d.i64())
	case tagFloat:
		return value.NewFloat(d.f64())
	case tagBool:
		return value.NewBool(d.u8() != 0)
	case tagNull:
		return value.Null
	case tagString:
		return value.NewString(d.ctx.Heap, d.cstring())
	case tagList:
		n := d.u64()
		items := make([]value.Value, 0, n)
		for i := uint64(0); i < n && d.err == nil; i++ {
			items = append(items, d.value())
		}
		return value.NewList(d.ctx.Heap, items)
	case tagObject:
		n := d.u64()
		obj := value.NewObject(d.ctx.Heap, int(n))
		for i := uint64(0); i < n && d.err == nil; i++ {
			key := d.cstring()
			val := d.value()
			_ = value.SetIndex(obj, value.NewString(d.ctx.Heap, key), val)
		}
		return obj
	case tagRange:
		start := d.i64()
		end := d.i64()
		return value.NewRange(start, end)
	case tagFunction:
		return d.function()
	default:
		if d.err == nil {
			d.err = fmt.Errorf("bytecode: unknown value tag %d", tag)
		}
		return value.Null
	}
}

func (d *decoder) function() value.Value {
	paramCount := d.u64()
	params := make([]string, 0, paramCount)
	for i := uint64(0); i < paramCount && d.err == nil; i++ {
		params = append(params, d.cstring())
	}
	declScopeID := d.u64()
	var declScope *scope.Scope
	if declScopeID == noParentSentinel {
		declScope = d.ctx.Global
	} else if int(declScopeID) < len(d.ctx.scopes) {
		declScope = d.ctx.scopes[declScopeID]
	} else if d.err == nil {
		d.err = fmt.Errorf("bytecode: function references unseen scope %d", declScopeID)
	}

	insnCount := d.u64()
	body := &Bytecode{Instructions: make([]Instruction, 0, insnCount)}
	for i := uint64(0); i < insnCount && d.err == nil; i++ {
		body.Instructions = append(body.Instructions, d.instruction())
	}
	fd := value.NewAnilangFunction("", params, body, declScope)
	return value.NewFunction(d.ctx.Heap, fd)
}
