// Package value implements the tagged value model: a single Kind-tagged
// struct rather than a per-type interface hierarchy, with per-variant
// dispatch living as switch-on-Kind match arms instead of a method table.
package value

// Kind is the tag of a Value's variant.
type Kind uint8

const (
	KindNull Kind = iota
	KindInt
	KindFloat
	KindBool
	KindRange
	KindString
	KindList
	KindObject
	KindFunction

	maxKind
)

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return "invalid"
	}
	return kindNames[k]
}

var kindNames = [...]string{
	KindNull:     "null",
	KindInt:      "int",
	KindFloat:    "float",
	KindBool:     "bool",
	KindRange:    "range",
	KindString:   "string",
	KindList:     "list",
	KindObject:   "object",
	KindFunction: "function",
}

// TypeSet is a bitflag of Kinds, used by diagnostics to describe "expected
// one of these types" without allocating a slice.
type TypeSet uint16

func SetOf(kinds ...Kind) TypeSet {
	var s TypeSet
	for _, k := range kinds {
		s |= 1 << k
	}
	return s
}

func (s TypeSet) Has(k Kind) bool { return s&(1<<k) != 0 }

func (s TypeSet) String() string {
	var out string
	for k := Kind(0); k < maxKind; k++ {
		if s.Has(k) {
			if out != "" {
				out += "|"
			}
			out += k.String()
		}
	}
	if out == "" {
		return "none"
	}
	return out
}
