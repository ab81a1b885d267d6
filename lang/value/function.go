package value

import "github.com/mna/anilang/lang/gc"

// FunctionData is the payload backing a KindFunction value: either an
// anilang-defined function closing over its declaring scope, or a native
// (host-provided) callable. This is the Go expression of the
// Function { AnilangFunction | NativeFunction } sum: a single struct with a
// nil-checked pointer field per variant rather than an interface-per-variant
// split.
type FunctionData struct {
	// Params names the formal parameters, in order. Empty for native
	// functions, whose arity is enforced by the native implementation itself.
	Params []string

	// Body is the lowered bytecode of the function, nil for native functions.
	// Declared as `any` to avoid an import cycle with lang/bytecode (which
	// does not need to know about value.Value); lang/evaluator type-asserts
	// it back to *bytecode.Bytecode.
	Body any

	// DeclScope is the scope in effect where the function was defined,
	// captured at function-literal evaluation time so that free variables
	// resolve lexically rather than dynamically. Declared as `any` for the
	// same reason as Body; lang/evaluator asserts it back to *scope.Scope.
	DeclScope any

	// Native, if non-nil, is the host-provided implementation; Body and
	// DeclScope are unused for native functions.
	Native func(args []Value) (Value, error)

	// This is populated when the function is resolved via dotted property
	// access, so that method calls observe the receiver as `self`.
	This *Value

	fnName string
}

// NewAnilangFunction builds the payload for a user-defined function.
func NewAnilangFunction(name string, params []string, body, declScope any) *FunctionData {
	return &FunctionData{fnName: name, Params: params, Body: body, DeclScope: declScope}
}

// NewNativeFunction builds the payload for a host-provided function.
func NewNativeFunction(name string, fn func(args []Value) (Value, error)) *FunctionData {
	return &FunctionData{fnName: name, Native: fn}
}

// IsNative reports whether this is a host-provided callable.
func (f *FunctionData) IsNative() bool { return f.Native != nil }

// WithThis returns a shallow copy of f bound to receiver this, used when a
// method is looked up via dotted property access (e.g. obj.method).
func (f *FunctionData) WithThis(this Value) *FunctionData {
	cp := *f
	cp.This = &this
	return &cp
}

// WithDeclScope returns a shallow copy of f with its captured declaring
// scope set to declScope. The evaluator calls this every time a function
// literal's Push instruction actually executes, so a literal evaluated
// repeatedly (e.g. inside a loop body) mints one distinct closure per
// execution rather than every instance sharing the first one's captured
// scope.
func (f *FunctionData) WithDeclScope(declScope any) *FunctionData {
	cp := *f
	cp.DeclScope = declScope
	return &cp
}

func (f *FunctionData) name() string {
	if f.fnName == "" {
		return "anonymous"
	}
	return f.fnName
}

// Mark marks the function's bound receiver, if any, and its captured
// declaring scope. DeclScope is declared as `any` to avoid lang/value
// depending on lang/scope, but scope.Scope satisfies gc.Mark, so the type
// assertion here reaches it without a direct import: a closure kept alive by
// any live Value must keep every binding it can still read alive too, not
// just the bindings that happen to still be on the active call stack.
func (f *FunctionData) Mark() {
	if f.This != nil {
		f.This.Mark()
	}
	if m, ok := f.DeclScope.(gc.Mark); ok {
		m.Mark()
	}
}

func (f *FunctionData) UpdateReachable() {
	if f.This != nil {
		f.This.UpdateReachable()
	}
	if m, ok := f.DeclScope.(gc.Mark); ok {
		m.UpdateReachable()
	}
}
