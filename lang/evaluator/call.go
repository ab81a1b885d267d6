package evaluator

import (
	"fmt"

	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/value"
)

// syntheticCallScopeID marks a call frame's parameter-binding scope as not
// belonging to any static Scopes table: it exists only at runtime, is never
// looked up by id, and is not subject to lang/bytecode.ValidateScopeOrdering
// (which only constrains a compiled unit's own minted scopes).
const syntheticCallScopeID = -1

// call implements CallFunction dispatch: pop n args then the callable;
// native functions run immediately, anilang functions get a fresh
// parameter-binding scope chained off their captured DeclScope and run to
// completion before the call's result value is produced.
func (m *Machine) call(fr *frame, insn bytecode.Instruction) (value.Value, error) {
	n := int(insn.Arg)
	args := make([]value.Value, n)
	for i := n - 1; i >= 0; i-- {
		args[i] = fr.pop()
	}
	callee := fr.pop()

	if callee.Kind() != value.KindFunction {
		m.recordRuntimeError(insn.Span, value.ErrNotCallable{Kind: callee.Kind()})
		return value.Null, nil
	}
	fd := callee.AsFunction()

	if m.opts.MaxCallStackDepth > 0 && len(m.frames) >= m.opts.MaxCallStackDepth {
		return value.Null, fatalError{fmt.Errorf("evaluator: call stack depth limit of %d exceeded", m.opts.MaxCallStackDepth)}
	}

	if fd.IsNative() {
		res, err := fd.Native(args)
		if err != nil {
			m.recordRuntimeError(insn.Span, err)
			return value.Null, nil
		}
		return res, nil
	}

	if len(args) != len(fd.Params) {
		m.recordRuntimeError(insn.Span, value.ErrWrongArity{Expected: len(fd.Params), Got: len(args)})
		return value.Null, nil
	}

	declScope, _ := fd.DeclScope.(*scope.Scope)
	callScope := scope.New(syntheticCallScopeID, declScope)
	if fd.This != nil {
		// Declare never fails here: callScope is freshly minted, so "self"
		// cannot already be bound locally.
		_ = callScope.Declare("self", *fd.This)
	}
	for i, p := range fd.Params {
		_ = callScope.Declare(p, args[i])
	}

	body, ok := fd.Body.(*bytecode.Bytecode)
	if !ok {
		panic("evaluator: anilang function value has no bytecode body")
	}
	callFrame, err := newFrame(body, callScope)
	if err != nil {
		return value.Null, err
	}
	return m.run(callFrame)
}
