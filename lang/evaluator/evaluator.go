// Package evaluator implements the stack virtual machine that runs
// lang/bytecode programs: one operand stack of value.Value, one instruction
// pointer, a current scope reference, and a call stack of nested
// invocations.
//
// The dispatch loop is a single switch over the opcode with an explicit
// sp-less Go slice used as a stack (append/slice-truncate instead of a
// hand-managed stack pointer, since anilang's bytecode has no separate
// locals array), with step-counting and context cancellation checked once
// per dispatched instruction. There is no defer/catch/iterator machinery:
// anilang has no exceptions or for-in loops at the bytecode level.
package evaluator

import (
	"context"
	"fmt"

	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/diag"
	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/value"
)

// Options carries the ambient resource-limiting knobs a host enforces
// cooperatively: a step budget and a call-stack depth ceiling.
type Options struct {
	// MaxSteps is the maximum number of dispatched instructions, across every
	// nested call, before the evaluation is aborted. A value <= 0 means no
	// limit.
	MaxSteps int

	// MaxCallStackDepth limits the number of nested CallFunction invocations.
	// A value <= 0 means no limit.
	MaxCallStackDepth int
}

// Machine runs one or more bytecode evaluations against a shared heap and
// diagnostics sink. It is not safe for concurrent use, matching lang/gc.Heap.
type Machine struct {
	heap *gc.Heap
	sink *diag.Sink
	opts Options

	identTable map[uint64]string

	steps  uint64
	frames []*frame // active call stack, outermost first; doubles as GC root source

	ctx context.Context
}

// New returns a Machine that allocates on h and records diagnostics to sink.
// It installs h's roots callback so that a GC triggered by allocation
// pressure mid-evaluation sees every value currently reachable from an
// active frame's operand stack or scope chain.
func New(h *gc.Heap, sink *diag.Sink, opts Options) *Machine {
	m := &Machine{heap: h, sink: sink, opts: opts}
	h.SetRootsFunc(m.roots)
	return m
}

// roots gathers the GC root set from every currently active frame: each
// frame's operand stack, its scope chain, and (for a function value sitting
// on the stack) the declaring scope it closed over.
func (m *Machine) roots() []gc.Mark {
	out := make([]gc.Mark, 0, len(m.frames)*2)
	for _, fr := range m.frames {
		if fr.scope != nil {
			out = append(out, fr.scope)
		}
		out = append(out, valueSliceMark(fr.stack))
	}
	return out
}

// valueSliceMark adapts a []value.Value operand stack to gc.Mark.
type valueSliceMark []value.Value

func (s valueSliceMark) Mark() {
	for _, v := range s {
		v.Mark()
	}
}

func (s valueSliceMark) UpdateReachable() {
	for _, v := range s {
		v.UpdateReachable()
	}
}

// fatalError aborts an evaluation entirely (as opposed to a runtime
// diagnostic, which is recorded and execution continues with Null
// substituted). It is returned, never panicked, so the host can distinguish
// "the script raised diagnostics" from "the host's own resource limit or
// cancellation fired".
type fatalError struct{ err error }

func (f fatalError) Error() string { return f.err.Error() }
func (f fatalError) Unwrap() error { return f.err }

// frame is one activation of a bytecode instruction stream: the top-level
// compiled unit, or one anilang function call.
type frame struct {
	bc     *bytecode.Bytecode
	labels map[uint64]int
	scope  *scope.Scope
	stack  []value.Value
	pc     int
}

func (fr *frame) push(v value.Value) { fr.stack = append(fr.stack, v) }

func (fr *frame) pop() value.Value {
	n := len(fr.stack)
	if n == 0 {
		panic("evaluator: pop on empty operand stack")
	}
	v := fr.stack[n-1]
	fr.stack = fr.stack[:n-1]
	return v
}

func newFrame(bc *bytecode.Bytecode, s *scope.Scope) (*frame, error) {
	labels, err := bc.LabelIndex()
	if err != nil {
		return nil, err
	}
	return &frame{bc: bc, labels: labels, scope: s}, nil
}

// Evaluate runs bc to completion starting from global (the host-supplied
// root scope, pre-populated with any native bindings) and returns whatever
// value is left on the operand stack, or Null if the stream's final
// instruction discarded it (lowerer.Options.ReplMode == false compiles a
// trailing Pop). Ordinary runtime errors (type mismatches, unbound names,
// and so on) never surface here: they are recorded on the sink and Null is
// substituted in their place. Only a host-imposed abort
// (MaxSteps, MaxCallStackDepth, ctx cancellation) or an internal invariant
// violation (a panic) stops evaluation early.
func (m *Machine) Evaluate(ctx context.Context, bc *bytecode.Bytecode, global *scope.Scope) (value.Value, error) {
	m.ctx = ctx
	m.identTable = bc.IdentTable()

	fr, err := newFrame(bc, global)
	if err != nil {
		return value.Null, err
	}

	result, err := m.run(fr)
	if err != nil {
		return value.Null, err
	}
	return result, nil
}

// ident resolves a Store/Load instruction's operand to the identifier name
// it was interned under. Every nested function body shares the enclosing
// compiled unit's intern table, so this is always looked up against the
// table built from the top-level Bytecode passed to Evaluate, never from
// the (table-less) per-function Bytecode stored in value.FunctionData.Body.
func (m *Machine) ident(id uint64) string {
	name, ok := m.identTable[id]
	if !ok {
		panic(fmt.Sprintf("evaluator: unknown identifier id %d", id))
	}
	return name
}

// checkBudget increments the global step counter and reports a fatalError
// once MaxSteps or ctx cancellation fires.
func (m *Machine) checkBudget() error {
	m.steps++
	if m.opts.MaxSteps > 0 && m.steps > uint64(m.opts.MaxSteps) {
		return fatalError{fmt.Errorf("evaluator: step limit of %d exceeded", m.opts.MaxSteps)}
	}
	if m.ctx != nil {
		select {
		case <-m.ctx.Done():
			return fatalError{fmt.Errorf("evaluator: cancelled: %w", m.ctx.Err())}
		default:
		}
	}
	return nil
}
