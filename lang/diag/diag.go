// Package diag implements the minimal diagnostics sink that the lowerer and
// evaluator depend on. Source-line rendering, ANSI colour and REPL
// integration are left to external collaborators; this package only
// implements the narrow contract the core requires: accumulate records,
// answer whether any errors were produced.
//
// Records are collected into a slice instead of returning on the first
// error, and warnings are accumulated alongside errors, each record
// carrying a severity.
package diag

import (
	"fmt"
	"io"

	"github.com/mna/anilang/lang/token"
)

// Severity distinguishes fatal diagnostics from advisory ones.
type Severity int

const (
	Error Severity = iota
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind identifies the category of a runtime or compile diagnostic.
type Kind string

const (
	TypeMismatch     Kind = "type_mismatch"
	DivisionByZero   Kind = "division_by_zero"
	IndexOutOfRange  Kind = "index_out_of_range"
	InvalidProperty  Kind = "invalid_property"
	ReadonlyProperty Kind = "readonly_property"
	NotFound         Kind = "not_found"
	AlreadyDeclared  Kind = "already_declared"
	WrongArity       Kind = "wrong_arity"
	NotCallable      Kind = "not_callable"
	BreakOutsideLoop Kind = "break_outside_loop"
	ReturnOutsideFn  Kind = "return_outside_function"
)

// A Diagnostic is a single record produced by the lowerer or evaluator.
type Diagnostic struct {
	Kind     Kind
	Span     token.Span
	Severity Severity
	Message  string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Kind, d.Message)
}

// A Sink collects diagnostics produced while lowering or evaluating. The zero
// value is ready to use. Setting NoPrint silences Print, which is otherwise a
// convenience the REPL and tests use; the core itself never prints.
type Sink struct {
	NoPrint bool

	records []Diagnostic
	numErr  int
	numWarn int
}

// Add appends a diagnostic to the sink.
func (s *Sink) Add(d Diagnostic) {
	s.records = append(s.records, d)
	if d.Severity == Warning {
		s.numWarn++
	} else {
		s.numErr++
	}
}

// Errorf is a convenience that builds and adds an Error-severity diagnostic.
func (s *Sink) Errorf(kind Kind, span token.Span, format string, args ...any) {
	s.Add(Diagnostic{Kind: kind, Span: span, Severity: Error, Message: fmt.Sprintf(format, args...)})
}

// Warnf is a convenience that builds and adds a Warning-severity diagnostic.
func (s *Sink) Warnf(kind Kind, span token.Span, format string, args ...any) {
	s.Add(Diagnostic{Kind: kind, Span: span, Severity: Warning, Message: fmt.Sprintf(format, args...)})
}

// Any reports whether the sink holds any diagnostic, error or warning.
func (s *Sink) Any() bool { return len(s.records) > 0 }

// NumErrors returns the count of Error-severity diagnostics added so far.
func (s *Sink) NumErrors() int { return s.numErr }

// NumWarnings returns the count of Warning-severity diagnostics added so far.
func (s *Sink) NumWarnings() int { return s.numWarn }

// Records returns the accumulated diagnostics in production order. The
// caller must not modify the returned slice.
func (s *Sink) Records() []Diagnostic { return s.records }

// Print writes every accumulated diagnostic to w, one per line, unless
// NoPrint is set (the REPL and tests use NoPrint to keep their own output
// clean while still inspecting Records/NumErrors).
func (s *Sink) Print(w io.Writer) {
	if s.NoPrint {
		return
	}
	for _, d := range s.records {
		fmt.Fprintln(w, d)
	}
}
