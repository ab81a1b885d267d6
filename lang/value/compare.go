package value

import "fmt"

// ErrIncomparable is returned by Cmp when an ordering is not defined for the
// pair of values (Function and Null have no ordering).
type ErrIncomparable struct {
	Left, Right Kind
}

func (e ErrIncomparable) Error() string {
	return fmt.Sprintf("%s and %s are not comparable", e.Left, e.Right)
}

// Equal implements the equality semantics: Null is never equal to anything,
// including another Null; otherwise both operands are cast to the
// effective kind CastType reports (Float for a mixed Int/Float pair) and,
// if that cast is not implicit, the values are unequal.
func Equal(l, r Value) bool {
	if l.kind == KindNull || r.kind == KindNull {
		return false
	}

	ck, effective := CastType(l.kind, r.kind)
	if ck != CastImplicit {
		return false
	}
	lc, err := TryCast(l, effective)
	if err != nil {
		return false
	}
	rc, err := TryCast(r, effective)
	if err != nil {
		return false
	}

	switch effective {
	case KindInt:
		return lc.i == rc.i
	case KindFloat:
		return lc.f == rc.f
	case KindBool:
		return lc.i == rc.i
	case KindRange:
		return lc.i == rc.i && lc.j == rc.j
	case KindString:
		if lc.ptr.id() == rc.ptr.id() {
			return true // pointer-identity shortcut
		}
		return string(lc.AsRunes()) == string(rc.AsRunes())
	case KindList:
		return equalList(lc, rc)
	case KindObject:
		return equalObject(lc, rc)
	case KindFunction:
		return lc.ptr.id() == rc.ptr.id() // identity-based
	default:
		return false
	}
}

func equalList(l, r Value) bool {
	if l.ptr.id() == r.ptr.id() {
		return true
	}
	la, ra := *l.AsList(), *r.AsList()
	if len(la) != len(ra) {
		return false
	}
	for i := range la {
		if !Equal(la[i], ra[i]) {
			return false
		}
	}
	return true
}

func equalObject(l, r Value) bool {
	if l.ptr.id() == r.ptr.id() {
		return true
	}
	lo, ro := l.objectPtr().Deref(), r.objectPtr().Deref()
	if lo.m.Count() != ro.m.Count() {
		return false
	}
	ok := true
	lo.m.Iter(func(k string, v Value) bool {
		rv, found := ro.m.Get(k)
		if !found || !Equal(v, rv) {
			ok = false
			return true // stop
		}
		return false
	})
	return ok
}

// Cmp implements the total-order comparison. It returns negative if l < r,
// positive if l > r, zero if equal, and ErrIncomparable
// when no ordering is defined (Null or Function operands, or mismatched
// non-numeric kinds).
func Cmp(l, r Value) (int, error) {
	if l.kind == KindFunction || r.kind == KindFunction || l.kind == KindNull || r.kind == KindNull {
		return 0, ErrIncomparable{l.kind, r.kind}
	}

	if isNumeric(l.kind) && isNumeric(r.kind) {
		lf, rf, li, ri, bothInt, _ := promoteNumeric(l, r)
		if bothInt {
			switch {
			case li < ri:
				return -1, nil
			case li > ri:
				return 1, nil
			default:
				return 0, nil
			}
		}
		switch {
		case lf < rf:
			return -1, nil
		case lf > rf:
			return 1, nil
		default:
			return 0, nil
		}
	}

	if l.kind != r.kind {
		return 0, ErrIncomparable{l.kind, r.kind}
	}

	switch l.kind {
	case KindBool:
		return int(l.i - r.i), nil
	case KindString:
		ls, rs := string(l.AsRunes()), string(r.AsRunes())
		switch {
		case ls < rs:
			return -1, nil
		case ls > rs:
			return 1, nil
		default:
			return 0, nil
		}
	case KindRange:
		if l.i != r.i {
			return int(l.i - r.i), nil
		}
		return int(l.j - r.j), nil
	default:
		return 0, ErrIncomparable{l.kind, r.kind}
	}
}
