// Package diag implements the closed parser-diagnostic taxonomy plus a
// one-line renderer ("path:line:column: error: <message>"). Diagnostics
// are structured values appended to a slice, never thrown, so a caller
// can accumulate and continue past any single error.
package diag

import (
	"fmt"

	"github.com/codeassociates/cfront/span"
)

// Severity classifies a Diagnostic for exit-code purposes: the driver's
// exit code is non-zero if any diagnostic is of Error severity.
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

// Kind is the closed diagnostic taxonomy: lexer-side kinds (unterminated
// literal/comment, stray character, bad include resolution, numeric
// overflow) and parser-side kinds.
type Kind int

const (
	// Lexer kinds
	UnterminatedComment Kind = iota
	UnterminatedStringOrChar
	UnexpectedCharacter
	BadIncludeResolution
	IntegerConstantOutOfRange

	// Parser kinds
	ExpectedToken
	UnexpectedEndOfInput
	IllegalDeclarationSpecifiers
	TypeSpecifierMissing
	IllegalUseOfRestrict
	ExpectedExpressionOrTypeNameAfterSizeof
	ParameterTypeMalformed
	ExpectedExpression
	RedeclarationOfSymbolAsDifferentType
	EnumSpecifierWithoutIdentifierOrEnumeratorList
)

var kindSeverity = map[Kind]Severity{
	IntegerConstantOutOfRange: Warning,
}

// Diagnostic is one reported problem: its Kind, Severity, source Position,
// and a rendered human-readable Message.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Pos      span.Position
	Message  string
}

// New builds a Diagnostic, defaulting to Error severity unless Kind is
// known to be advisory (e.g. IntegerConstantOutOfRange, a numeric
// overflow warning).
func New(kind Kind, pos span.Position, format string, args ...any) Diagnostic {
	sev := Error
	if s, ok := kindSeverity[kind]; ok {
		sev = s
	}
	return Diagnostic{Kind: kind, Severity: sev, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

// String renders the one-line "path:line:column: error: <message>" format.
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}

// Bag accumulates diagnostics across a lexer or parser run.
type Bag struct {
	diags []Diagnostic
}

// Add appends a Diagnostic to the bag.
func (b *Bag) Add(d Diagnostic) { b.diags = append(b.diags, d) }

// Addf is a convenience wrapper around New+Add.
func (b *Bag) Addf(kind Kind, pos span.Position, format string, args ...any) {
	b.Add(New(kind, pos, format, args...))
}

// All returns every accumulated diagnostic, in report order.
func (b *Bag) All() []Diagnostic { return b.diags }

// ErrorCount returns how many accumulated diagnostics are of Error
// severity. A successful parse is defined as ErrorCount() == 0 at EOF.
func (b *Bag) ErrorCount() int {
	n := 0
	for _, d := range b.diags {
		if d.Severity == Error {
			n++
		}
	}
	return n
}

// Len reports the total diagnostic count (errors and warnings).
func (b *Bag) Len() int { return len(b.diags) }

// Truncate discards every diagnostic beyond index n, used by the parser's
// checkpoint/restore to rewind the diagnostic count along with position.
func (b *Bag) Truncate(n int) {
	if n < len(b.diags) {
		b.diags = b.diags[:n]
	}
}
