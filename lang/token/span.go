package token

// A Span is a pair of byte offsets into the source text, [Start, End). It is
// the unit of position information carried by bytecode instructions (see
// lang/bytecode) and by diagnostics (see lang/diag). Instruction spans are
// not part of the binary bytecode format: every instruction decoded by
// bytecode.Deserialize carries NoSpan.
type Span struct {
	Start, End uint64
}

// NoSpan is the zero Span, used when a node carries no useful position (e.g.
// constant-folded or synthetic instructions).
var NoSpan = Span{}

// Valid reports whether the span carries real position information.
func (s Span) Valid() bool { return s.End > s.Start || s.Start > 0 }
