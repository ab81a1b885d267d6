package value

import (
	"fmt"

	"github.com/mna/anilang/lang/token"
)

// ErrTypeMismatch is returned by Binary/Unary when the operator is not
// defined for the operand kind(s).
type ErrTypeMismatch struct {
	Op          token.Token
	Left, Right Kind // Right is KindNull's zero value for unary operators
}

func (e ErrTypeMismatch) Error() string {
	if e.Op == token.UPLUS || e.Op == token.UMINUS || e.Op == token.NOT {
		return fmt.Sprintf("unary operator %s not defined for %s", e.Op, e.Left)
	}
	return fmt.Sprintf("operator %s not defined for %s and %s", e.Op, e.Left, e.Right)
}

// ErrDivisionByZero is returned by Binary for `%` (and integer `/`) with a
// zero divisor.
type ErrDivisionByZero struct{}

func (ErrDivisionByZero) Error() string { return "division by zero" }

// ErrIndexOutOfRange is returned by GetIndex/SetIndex.
type ErrIndexOutOfRange struct {
	Index, Len int
}

func (e ErrIndexOutOfRange) Error() string {
	return fmt.Sprintf("index %d out of range (len %d)", e.Index, e.Len)
}

// ErrInvalidProperty is returned by GetAttr/SetAttr for an unknown property.
type ErrInvalidProperty struct {
	On       Kind
	Property string
}

func (e ErrInvalidProperty) Error() string {
	return fmt.Sprintf("%s has no property %q", e.On, e.Property)
}

// ErrReadonlyProperty is returned by SetAttr for a synthetic property.
type ErrReadonlyProperty struct {
	On       Kind
	Property string
}

func (e ErrReadonlyProperty) Error() string {
	return fmt.Sprintf("property %q of %s is read-only", e.Property, e.On)
}

// ErrNotCallable is returned when CallFunction targets a non-function value.
type ErrNotCallable struct {
	Kind Kind
}

func (e ErrNotCallable) Error() string { return fmt.Sprintf("%s value is not callable", e.Kind) }

// ErrWrongArity is returned when a function call's argument count does not
// match its parameter count.
type ErrWrongArity struct {
	Expected, Got int
}

func (e ErrWrongArity) Error() string {
	return fmt.Sprintf("expected %d argument(s), got %d", e.Expected, e.Got)
}
