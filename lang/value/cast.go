package value

import "fmt"

// CastKind classifies how values of kind from can be converted to kind to.
type CastKind int

const (
	// CastImplicit means the conversion is performed automatically by
	// arithmetic and comparison.
	CastImplicit CastKind = iota
	// CastExplicit means the conversion, if it succeeds at all, only happens
	// on an explicit user request (cast(value, type) builtin, not modelled by
	// this core -- TryCast still implements the underlying mechanics).
	CastExplicit
)

// CastType returns how a value of kind from would be converted to kind to,
// and the effective kind of the result: identity and the Int<->Float pair
// are Implicit, everything else is Explicit (regardless of whether TryCast
// can actually perform it).
func CastType(from, to Kind) (CastKind, Kind) {
	if from == to {
		return CastImplicit, from
	}
	if isNumeric(from) && isNumeric(to) {
		return CastImplicit, KindFloat
	}
	return CastExplicit, to
}

func isNumeric(k Kind) bool { return k == KindInt || k == KindFloat }

// ErrCastFailed is returned by TryCast for any conversion it cannot perform.
type ErrCastFailed struct {
	From, To Kind
}

func (e ErrCastFailed) Error() string {
	return fmt.Sprintf("cannot cast %s to %s", e.From, e.To)
}

// TryCast performs numeric promotion between Int and Float; any other
// request that is not the identity conversion fails with ErrCastFailed.
func TryCast(v Value, to Kind) (Value, error) {
	if v.kind == to {
		return v, nil
	}
	switch {
	case v.kind == KindInt && to == KindFloat:
		return NewFloat(float64(v.i)), nil
	case v.kind == KindFloat && to == KindInt:
		return NewInt(int64(v.f)), nil
	default:
		return Null, ErrCastFailed{From: v.kind, To: to}
	}
}

// promoteNumeric implicitly casts l and r to a common numeric kind (Float if
// either operand is Float, else both stay Int), used by arithmetic and
// comparison. ok is false if either operand is not numeric.
func promoteNumeric(l, r Value) (lf, rf float64, li, ri int64, bothInt, ok bool) {
	if !isNumeric(l.kind) || !isNumeric(r.kind) {
		return 0, 0, 0, 0, false, false
	}
	if l.kind == KindInt && r.kind == KindInt {
		return 0, 0, l.i, r.i, true, true
	}
	lf = l.f
	if l.kind == KindInt {
		lf = float64(l.i)
	}
	rf = r.f
	if r.kind == KindInt {
		rf = float64(r.i)
	}
	return lf, rf, 0, 0, false, true
}
