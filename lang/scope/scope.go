// Package scope implements the lexical variable frame tree shared by the
// lowerer and the evaluator.
//
// Scope's binding table is backed by github.com/dolthub/swiss instead of a
// builtin Go map, exercising that dependency on the (typically small)
// per-frame variable table in addition to lang/value's Object kind.
package scope

import (
	"fmt"

	"github.com/dolthub/swiss"

	"github.com/mna/anilang/lang/value"
)

// ErrAlreadyDeclared is returned by Declare when name already exists in
// this scope (not an ancestor).
type ErrAlreadyDeclared struct{ Name string }

func (e ErrAlreadyDeclared) Error() string { return fmt.Sprintf("%q is already declared", e.Name) }

// ErrNotFound is returned by Get and Assign when name is not found anywhere
// in the scope chain.
type ErrNotFound struct{ Name string }

func (e ErrNotFound) Error() string { return fmt.Sprintf("%q is not declared", e.Name) }

// A Scope is a single lexical frame: an integer id unique within one
// bytecode unit, an optional parent, and a name->Value binding table.
//
// Scope ids are assigned by the lowerer in a pre-order walk of the AST, so a
// child's id is always greater than its parent's, which is what lets the
// bytecode serialisation format reconstruct the scope tree in a single
// forward pass.
type Scope struct {
	id     int
	parent *Scope
	vars   *swiss.Map[string, value.Value]
}

// New creates a scope with the given id and optional parent (nil for the
// root/global scope, which the host supplies pre-populated with builtins).
func New(id int, parent *Scope) *Scope {
	return &Scope{id: id, parent: parent, vars: swiss.NewMap[string, value.Value](4)}
}

// ID returns the scope's identifier.
func (s *Scope) ID() int { return s.id }

// Parent returns the enclosing scope, or nil for the root.
func (s *Scope) Parent() *Scope { return s.parent }

// Declare binds name to v in this scope. It fails with ErrAlreadyDeclared if
// name already exists locally (ancestors are not consulted).
func (s *Scope) Declare(name string, v value.Value) error {
	if _, found := s.vars.Get(name); found {
		return ErrAlreadyDeclared{Name: name}
	}
	s.vars.Put(name, v)
	return nil
}

// Get walks from this scope up through its ancestors looking for name.
func (s *Scope) Get(name string) (value.Value, error) {
	for cur := s; cur != nil; cur = cur.parent {
		if v, found := cur.vars.Get(name); found {
			return v, nil
		}
	}
	return value.Null, ErrNotFound{Name: name}
}

// Assign writes v to the nearest ancestor (including this scope) where name
// already exists. It never creates a new binding; use Declare for that.
func (s *Scope) Assign(name string, v value.Value) error {
	for cur := s; cur != nil; cur = cur.parent {
		if _, found := cur.vars.Get(name); found {
			cur.vars.Put(name, v)
			return nil
		}
	}
	return ErrNotFound{Name: name}
}

// Has reports whether name is bound in this scope specifically (not
// ancestors).
func (s *Scope) Has(name string) bool {
	_, found := s.vars.Get(name)
	return found
}

// Mark implements gc.Mark so a scope (and transitively its ancestors) can be
// passed as a GC root by the evaluator: it marks every heap-backed value
// currently bound in this frame and recurses into its parent.
func (s *Scope) Mark() {
	s.vars.Iter(func(_ string, v value.Value) bool {
		v.Mark()
		return false
	})
	if s.parent != nil {
		s.parent.Mark()
	}
}

// UpdateReachable is the gc.Mark counterpart of Mark, see lang/gc for the
// two-pass contract.
func (s *Scope) UpdateReachable() {
	s.vars.Iter(func(_ string, v value.Value) bool {
		v.UpdateReachable()
		return false
	})
	if s.parent != nil {
		s.parent.UpdateReachable()
	}
}
