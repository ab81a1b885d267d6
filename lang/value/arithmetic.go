package value

import (
	"math"

	"github.com/mna/anilang/lang/gc"
	"github.com/mna/anilang/lang/token"
)

// Binary evaluates a binary operator over l and r, allocating any new
// heap-backed result (string/list concatenation) on h.
func Binary(h *gc.Heap, op token.Token, l, r Value) (Value, error) {
	switch op {
	case token.OR:
		if l.Truthy() {
			return l, nil
		}
		return r, nil
	case token.AND:
		if !l.Truthy() {
			return l, nil
		}
		return r, nil
	}

	if op == token.ADD {
		if l.kind == KindString && r.kind == KindString {
			return NewString(h, l.AsString()+r.AsString()), nil
		}
		if l.kind == KindList && r.kind == KindList {
			la, ra := *l.AsList(), *r.AsList()
			out := make([]Value, 0, len(la)+len(ra))
			out = append(out, la...)
			out = append(out, ra...)
			return NewList(h, out), nil
		}
	}

	if !isNumeric(l.kind) || !isNumeric(r.kind) {
		return Null, ErrTypeMismatch{Op: op, Left: l.kind, Right: r.kind}
	}

	lf, rf, li, ri, bothInt, _ := promoteNumeric(l, r)

	switch op {
	case token.ADD:
		if bothInt {
			return NewInt(li + ri), nil
		}
		return NewFloat(lf + rf), nil
	case token.SUB:
		if bothInt {
			return NewInt(li - ri), nil
		}
		return NewFloat(lf - rf), nil
	case token.MUL:
		if bothInt {
			return NewInt(li * ri), nil
		}
		return NewFloat(lf * rf), nil
	case token.DIV:
		if bothInt {
			if ri == 0 {
				return Null, ErrDivisionByZero{}
			}
			// integer division truncates toward zero
			return NewInt(li / ri), nil
		}
		return NewFloat(lf / rf), nil
	case token.MOD:
		if bothInt {
			if ri == 0 {
				return Null, ErrDivisionByZero{}
			}
			return NewInt(li % ri), nil
		}
		return NewFloat(math.Mod(lf, rf)), nil
	case token.POW:
		if bothInt {
			return NewInt(intPow(li, ri)), nil
		}
		return NewFloat(math.Pow(lf, rf)), nil
	default:
		return Null, ErrTypeMismatch{Op: op, Left: l.kind, Right: r.kind}
	}
}

// intPow computes base**exp for integer operands, truncating negative
// exponents to 0 (no fractional integer result is representable).
func intPow(base, exp int64) int64 {
	if exp < 0 {
		return 0
	}
	result := int64(1)
	for ; exp > 0; exp-- {
		result *= base
	}
	return result
}

// Unary evaluates a unary operator over x.
func Unary(op token.Token, x Value) (Value, error) {
	switch op {
	case token.UPLUS:
		if !isNumeric(x.kind) {
			return Null, ErrTypeMismatch{Op: op, Left: x.kind}
		}
		return x, nil
	case token.UMINUS:
		switch x.kind {
		case KindInt:
			return NewInt(-x.i), nil
		case KindFloat:
			return NewFloat(-x.f), nil
		default:
			return Null, ErrTypeMismatch{Op: op, Left: x.kind}
		}
	case token.NOT:
		return NewBool(!x.Truthy()), nil
	default:
		return Null, ErrTypeMismatch{Op: op, Left: x.kind}
	}
}

// Compare evaluates a comparison operator (one of the six in
// token.Token.IsCompare) over l and r.
func Compare(op token.Token, l, r Value) (bool, error) {
	if op == token.EQL {
		return Equal(l, r), nil
	}
	if op == token.NEQ {
		return !Equal(l, r), nil
	}

	c, err := Cmp(l, r)
	if err != nil {
		return false, err
	}
	switch op {
	case token.LT:
		return c < 0, nil
	case token.LE:
		return c <= 0, nil
	case token.GT:
		return c > 0, nil
	case token.GE:
		return c >= 0, nil
	default:
		return false, ErrTypeMismatch{Op: op, Left: l.kind, Right: r.kind}
	}
}
