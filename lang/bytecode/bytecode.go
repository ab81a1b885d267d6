package bytecode

import (
	"fmt"

	"github.com/mna/anilang/lang/scope"
)

// noParentSentinel is the on-disk u64::MAX marker meaning "no parent,
// inherit host global".
const noParentSentinel = ^uint64(0)

// LineSpan is one entry of a SourceMap: the byte offsets, within the
// original source text, of a single line.
type LineSpan struct {
	Start, End uint64
}

// SourceMap is the optional source-text header framed by the srcs/srce
// sentinels: an offset into some enclosing unit plus a table of per-line
// byte spans, carried so that a token.Span recorded on an Instruction can be
// translated back to line/column for diagnostics without the bytecode file
// needing to embed the source text itself.
type SourceMap struct {
	Offset uint64
	Lines  []LineSpan
}

// Bytecode is the output of the lowerer: a flat instruction stream plus the
// scope tree it minted and the identifier intern table its Store/Load
// instructions reference.
type Bytecode struct {
	Source SourceMap

	// Scopes holds every scope materialised by this bytecode unit, indexed
	// by id: scope ids equal their index in this table. Scopes[i].Parent()
	// is either another entry of this slice with a smaller index, or an
	// external scope not part of this table (the host global, or, for a
	// nested function body sharing its outer unit's tables, a scope from
	// the enclosing unit).
	Scopes []*scope.Scope

	// Idents is the identifier intern table in insertion order, so that
	// serialising and re-serialising a freshly-lowered Bytecode is
	// byte-stable.
	Idents []IdentEntry

	Instructions []Instruction
}

// IdentEntry is one entry of the identifier intern table: an arbitrary but
// unique-within-unit id and the name it stands for.
type IdentEntry struct {
	ID   uint64
	Name string
}

// IdentTable builds a lookup from ident id to name.
func (b *Bytecode) IdentTable() map[uint64]string {
	m := make(map[uint64]string, len(b.Idents))
	for _, e := range b.Idents {
		m[e.ID] = e.Name
	}
	return m
}

// LabelIndex returns, for every Label instruction in the stream, the index
// of the instruction immediately following it: the jump target a
// JumpTo/PopJumpIf… with that label number resolves to. The evaluator
// builds it for every frame it runs, so once per call of a function body.
func (b *Bytecode) LabelIndex() (map[uint64]int, error) {
	idx := make(map[uint64]int)
	for i, insn := range b.Instructions {
		if insn.Op == Label {
			idx[insn.Arg] = i + 1
		}
	}
	return idx, nil
}

// ValidateScopeOrdering checks the invariant that every scope's parent,
// when that parent is itself part of this unit's table, has a strictly
// smaller id. A parent not present in Scopes is an external scope (the
// host global, or an enclosing unit's frame) and is not subject to the
// ordering constraint.
func (b *Bytecode) ValidateScopeOrdering() error {
	for i, s := range b.Scopes {
		p := s.Parent()
		if p == nil {
			continue
		}
		pid := p.ID()
		if pid < len(b.Scopes) && b.Scopes[pid] == p && pid >= i {
			return fmt.Errorf("scope %d: parent id %d is not less than %d", s.ID(), pid, i)
		}
	}
	return nil
}
