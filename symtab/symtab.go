// Package symtab implements the parser's scoped symbol table. Its job is
// the one piece of C99 grammar that cannot be resolved by lookahead
// alone: telling a typedef-name apart from an ordinary identifier, and
// un-declaring symbols cleanly when the parser backtracks out of a
// failed speculative parse.
//
// The table is a stack of scopes with push/pop, declare/lookup — a
// small stateful struct with explicit methods and no interfaces.
package symtab

import (
	"github.com/codeassociates/cfront/arena"
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/token"
)

// Kind distinguishes a typedef-name from an ordinary identifier.
type Kind int

const (
	KindIdentifier Kind = iota
	KindTypedef
)

// Symbol is one declared name. BirthTokenIndex is the parser's token
// index at declaration time; it is compared against a checkpoint's token
// index to decide whether a symbol survives a backtrack.
type Symbol struct {
	Kind            Kind
	Name            string
	NameToken       token.Token
	Type            *ctype.Type // declared type; for a typedef, the aliased type
	BirthTokenIndex int
}

// scope is a stack frame: parent link, name→current-symbol map, and the
// full insertion-ordered list used to trim trailing symbols on restore.
type scope struct {
	parent          *scope
	byName          map[string]*Symbol
	order           []*Symbol
	birthTokenIndex int
}

// Table is a stack of scopes over an arena of Symbols: entries are
// arena-owned, so popping a scope discards the scope but not its symbols,
// since AST edges may still reference them.
type Table struct {
	arena *arena.Arena[Symbol]
	top   *scope
}

// New creates a Table with a single global scope.
func New() *Table {
	t := &Table{arena: arena.New[Symbol]()}
	t.top = &scope{byName: make(map[string]*Symbol)}
	return t
}

// PushScope enters a new nested scope, recording the parser's current
// token index as its birth point (so a later restore knows whether the
// whole scope postdates the checkpoint).
func (t *Table) PushScope(tokenIndex int) {
	t.top = &scope{parent: t.top, byName: make(map[string]*Symbol), birthTokenIndex: tokenIndex}
}

// PopScope leaves the current scope. This discards the scope struct but
// not its symbols — they remain arena-owned and may still be referenced
// by AST nodes built while the scope was current.
func (t *Table) PopScope() {
	if t.top.parent == nil {
		return // never pop the outermost (global) scope
	}
	t.top = t.top.parent
}

// Declare adds a new Symbol to the current scope, allocated from the
// arena, and returns it. Re-declaring the same name in the same scope
// shadows the previous entry for Lookup but keeps both in order (the
// parser is responsible for reporting a redeclaration diagnostic when
// that is an error).
func (t *Table) Declare(kind Kind, name string, nameToken token.Token, typ *ctype.Type, tokenIndex int) *Symbol {
	sym, _ := t.arena.New(Symbol{Kind: kind, Name: name, NameToken: nameToken, Type: typ, BirthTokenIndex: tokenIndex})
	t.top.byName[name] = sym
	t.top.order = append(t.top.order, sym)
	return sym
}

// Lookup searches the current scope, then each enclosing scope in turn,
// returning the most recently declared same-scope symbol for the first
// scope where name is found; outer scopes are searched only on miss.
func (t *Table) Lookup(name string) (*Symbol, bool) {
	for s := t.top; s != nil; s = s.parent {
		if sym, ok := s.byName[name]; ok {
			return sym, true
		}
	}
	return nil, false
}

// IsTypedefName reports whether name currently resolves to a typedef, the
// query the parser makes at every type-name-start / declaration-specifier
// / cast-context identifier.
func (t *Table) IsTypedefName(name string) bool {
	sym, ok := t.Lookup(name)
	return ok && sym.Kind == KindTypedef
}

// Checkpoint is the symbol-table half of a parser checkpoint: which scope
// was current, so RestoreTo knows where to resume trimming.
type Checkpoint struct {
	scope *scope
}

// Mark captures the current scope for later restoration; the caller also
// needs the parser's token index (not something this package tracks) to
// pass to RestoreTo.
func (t *Table) Mark() Checkpoint {
	return Checkpoint{scope: t.top}
}

// RestoreTo undoes every scope push and every symbol declared after
// tokenIndex, starting from the scope recorded in cp: it leaves every
// scope whose birth-token-index exceeds tokenIndex, then from the
// now-current scope pops trailing symbols whose birth-token-index
// exceeds tokenIndex. Scopes and symbols removed this way must not be
// referenced again; their storage remains arena-owned and is reclaimed
// only when the arena itself is dropped.
func (t *Table) RestoreTo(cp Checkpoint, tokenIndex int) {
	t.top = cp.scope
	for t.top.parent != nil && t.top.birthTokenIndex > tokenIndex {
		t.top = t.top.parent
	}

	s := t.top
	cut := len(s.order)
	for cut > 0 && s.order[cut-1].BirthTokenIndex > tokenIndex {
		cut--
	}
	removed := s.order[cut:]
	s.order = s.order[:cut]

	for _, sym := range removed {
		if s.byName[sym.Name] == sym {
			delete(s.byName, sym.Name)
		}
	}
	// A name may have been declared more than once in this scope, with an
	// earlier (surviving) entry shadowed by one of the removed entries;
	// restore the map to the last surviving declaration of that name.
	for i := len(s.order) - 1; i >= 0; i-- {
		sym := s.order[i]
		if _, present := s.byName[sym.Name]; !present {
			s.byName[sym.Name] = sym
		}
	}
}
