// Package lowerer compiles an AST (lang/ast) into a bytecode.Bytecode
// (lang/bytecode): one lowerX method per node kind building a flat
// instruction list, a monotonic label allocator for control flow, and a
// scope table grown in lexical (pre-order) order so scope ids satisfy
// lang/bytecode's child-after-parent invariant.
//
// A single struct accumulates instructions and counters while walking the
// tree. There is no basic-block/CFG linearization pass: anilang's opcode
// set already has symbolic Label/JumpTo instructions, so there is no block
// graph to build and flatten.
package lowerer

import (
	"fmt"

	"github.com/mna/anilang/lang/ast"
	"github.com/mna/anilang/lang/bytecode"
	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/scope"
	"github.com/mna/anilang/lang/token"
	"github.com/mna/anilang/lang/value"
)

// Options controls lowering behaviour.
type Options struct {
	// Optimise enables constant folding of expressions built entirely from
	// literals. Expressions involving a variable, a call, an assignment or a
	// loop are never foldable.
	Optimise bool

	// ReplMode, when true, suppresses the implicit trailing Pop a compiled
	// unit otherwise emits to discard its top-level result; a REPL wants that
	// value to print it.
	ReplMode bool
}

// loopCtx is the bookkeeping kept for the innermost enclosing Loop, so Break
// knows which label to jump to and how many scopes to unwind first.
type loopCtx struct {
	exitLabel uint64
	depth     int
}

// fnCtx is the equivalent bookkeeping for the innermost enclosing function
// body, consulted by Return.
type fnCtx struct {
	endLabel uint64
	depth    int
}

// Lowerer accumulates the scope table, identifier intern table and
// instruction stream for one compiled unit. Nested function bodies share
// all three tables with their enclosing unit rather than building their
// own.
type Lowerer struct {
	opts Options
	heap *gc.Heap

	scopes     []*scope.Scope
	scopeStack []*scope.Scope // currently-open lexical scopes, innermost last

	identIDs map[string]uint64
	idents   []bytecode.IdentEntry

	nextLabel uint64

	loops funcOrLoopStack[loopCtx]
	fns   funcOrLoopStack[fnCtx]
}

// funcOrLoopStack is a tiny generic LIFO, used identically for the loop-exit
// and function-end label stacks.
type funcOrLoopStack[T any] struct{ items []T }

func (s *funcOrLoopStack[T]) push(v T)    { s.items = append(s.items, v) }
func (s *funcOrLoopStack[T]) pop()        { s.items = s.items[:len(s.items)-1] }
func (s *funcOrLoopStack[T]) top() (T, bool) {
	if len(s.items) == 0 {
		var zero T
		return zero, false
	}
	return s.items[len(s.items)-1], true
}

// New returns a Lowerer that allocates heap-backed constant values (strings,
// function payloads) on h.
func New(h *gc.Heap, opts Options) *Lowerer {
	return &Lowerer{opts: opts, heap: h, identIDs: make(map[string]uint64)}
}

// Lower compiles prog into a Bytecode whose outermost scope is a child of
// parent (the host-supplied global scope; nil is valid and means the
// compiled unit has no enclosing scope at all).
func (l *Lowerer) Lower(prog *ast.Program, parent *scope.Scope) (*bytecode.Bytecode, error) {
	var insns []Instruction
	if prog.Body == nil {
		insns = []Instruction{bytecode.NewPush(value.Null, token.NoSpan)}
	} else {
		l.scopeStack = append(l.scopeStack, parent)
		block, err := l.lowerBlock(prog.Body)
		l.scopeStack = l.scopeStack[:len(l.scopeStack)-1]
		if err != nil {
			return nil, err
		}
		insns = block
	}
	if !l.opts.ReplMode {
		insns = append(insns, bytecode.NewPop(token.NoSpan))
	}

	return &bytecode.Bytecode{
		Scopes:       l.scopes,
		Idents:       l.idents,
		Instructions: insns,
	}, nil
}

// Instruction is a type alias kept local so the rest of the package can
// write bytecode.Instruction without the qualifier everywhere; it has no
// behaviour of its own.
type Instruction = bytecode.Instruction

func (l *Lowerer) newScope(parent *scope.Scope) *scope.Scope {
	s := scope.New(len(l.scopes), parent)
	l.scopes = append(l.scopes, s)
	return s
}

func (l *Lowerer) newLabel() uint64 {
	n := l.nextLabel
	l.nextLabel++
	return n
}

// identID interns name, assigning the next sequential id the first time it
// is seen.
func (l *Lowerer) identID(name string) uint64 {
	if id, ok := l.identIDs[name]; ok {
		return id
	}
	id := uint64(len(l.identIDs))
	l.identIDs[name] = id
	l.idents = append(l.idents, bytecode.IdentEntry{ID: id, Name: name})
	return id
}

// ErrBreakOutsideLoop is a compile-time error: a Break statement with no
// enclosing Loop.
type ErrBreakOutsideLoop struct{ Span token.Span }

func (e ErrBreakOutsideLoop) Error() string { return "break outside of a loop" }

// ErrReturnOutsideFunction is a compile-time error: a Return statement with
// no enclosing function body.
type ErrReturnOutsideFunction struct{ Span token.Span }

func (e ErrReturnOutsideFunction) Error() string { return "return outside of a function" }

// lowerBlock lowers a Block: PushVar a fresh scope, lower each statement
// popping discarded intermediate values, leave the trailing
// ExprStmt's value (or a pushed Null if the block is empty or does not end
// in an expression), then PopVar.
func (l *Lowerer) lowerBlock(b *ast.Block) ([]Instruction, error) {
	// The scope's static parent is whichever lexical scope is currently open,
	// for bookkeeping purposes only: lang/bytecode.ValidateScopeOrdering
	// checks this link, but the evaluator never consults it to resolve a
	// runtime scope chain, which instead always chains off whatever scope is
	// live at evaluation time.
	var parent *scope.Scope
	if len(l.scopeStack) > 0 {
		parent = l.scopeStack[len(l.scopeStack)-1]
	}
	s := l.newScope(parent)
	l.scopeStack = append(l.scopeStack, s)
	defer func() { l.scopeStack = l.scopeStack[:len(l.scopeStack)-1] }()

	out := []Instruction{bytecode.NewPushVar(uint64(s.ID()), b.Span())}

	for i, st := range b.Stmts {
		insns, leavesValue, err := l.lowerStmt(st)
		if err != nil {
			return nil, err
		}
		out = append(out, insns...)
		if i != len(b.Stmts)-1 && leavesValue {
			out = append(out, bytecode.NewPop(st.Span()))
		}
	}

	if len(b.Stmts) == 0 {
		out = append(out, bytecode.NewPush(value.Null, b.Span()))
	} else if _, ok := b.Stmts[len(b.Stmts)-1].(*ast.ExprStmt); !ok {
		out = append(out, bytecode.NewPush(value.Null, b.Span()))
	}

	out = append(out, bytecode.NewPopVar(b.Span()))
	return out, nil
}

// lowerStmt returns the statement's instructions and whether it leaves a
// value on the operand stack (true for every ExprStmt, false for Break and
// Return, which transfer control instead).
func (l *Lowerer) lowerStmt(s ast.Stmt) ([]Instruction, bool, error) {
	switch n := s.(type) {
	case *ast.ExprStmt:
		insns, err := l.lowerExpr(n.X)
		return insns, true, err
	case *ast.Break:
		ctx, ok := l.loops.top()
		if !ok {
			return nil, false, ErrBreakOutsideLoop{Span: n.Span()}
		}
		var out []Instruction
		for i := 0; i < len(l.scopeStack)-ctx.depth; i++ {
			out = append(out, bytecode.NewPopVar(n.Span()))
		}
		out = append(out, bytecode.NewJumpTo(ctx.exitLabel, n.Span()))
		return out, false, nil
	case *ast.Return:
		ctx, ok := l.fns.top()
		if !ok {
			return nil, false, ErrReturnOutsideFunction{Span: n.Span()}
		}
		var out []Instruction
		if n.Value != nil {
			insns, err := l.lowerExpr(n.Value)
			if err != nil {
				return nil, false, err
			}
			out = append(out, insns...)
		} else {
			out = append(out, bytecode.NewPush(value.Null, n.Span()))
		}
		for i := 0; i < len(l.scopeStack)-ctx.depth; i++ {
			out = append(out, bytecode.NewPopVar(n.Span()))
		}
		out = append(out, bytecode.NewJumpTo(ctx.endLabel, n.Span()))
		return out, false, nil
	default:
		return nil, false, fmt.Errorf("lowerer: unhandled statement type %T", s)
	}
}
