// Package lexer implements the character-by-character C99 scanner with
// integrated preprocessor state: include nesting via a child lexer, an
// object-like macro table, and a pending token queue that macro
// expansion drains before the lexer resumes character-level scanning.
//
// The scanner is a struct holding input/position/line/column, a
// readChar/peekChar pair, a big switch in Scan, and a package-level
// Tokenize helper. Include resolution, circular-include detection, and
// conditional-compilation (#ifdef/#ifndef/#else/#endif) are folded into
// the same scan loop rather than kept as a standalone preprocessing pass,
// since a scan() call may need to transparently descend into and return
// from an included file mid-stream.
package lexer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeassociates/cfront/diag"
	"github.com/codeassociates/cfront/span"
	"github.com/codeassociates/cfront/token"
)

// MacroDefinition is one entry of the LexerGlobalContext's macro table.
// Params is nil for an object-like macro; a non-nil (possibly empty)
// slice marks a function-like macro, whose parameterized expansion is
// acknowledged but not implemented here.
type MacroDefinition struct {
	Name        string
	Params      []string
	Variadic    bool
	Replacement []token.Token
}

// LexerGlobalContext is the mutable state shared by a lexer and every
// nested child lexer it spawns for #include: include search paths, the macro table, the
// expansion-disable flag, and the diagnostic bag every lexer in the
// include tree appends to.
type LexerGlobalContext struct {
	UserIncludePaths    []string
	SystemIncludePaths  []string
	BuiltinIncludePaths []string

	Macros            map[string]*MacroDefinition
	ExpansionDisabled bool

	Diags *diag.Bag

	interned   map[string]string
	processing map[string]bool // absolute paths currently being included (circular-include guard)
}

// NewGlobalContext builds a LexerGlobalContext. builtinPaths is the
// driver-supplied default system search path — a configuration value
// threaded in by the caller, never baked in here, so nothing about
// include resolution is process-wide state.
func NewGlobalContext(userPaths, systemPaths, builtinPaths []string, diags *diag.Bag) *LexerGlobalContext {
	return &LexerGlobalContext{
		UserIncludePaths:    userPaths,
		SystemIncludePaths:  systemPaths,
		BuiltinIncludePaths: builtinPaths,
		Macros:              make(map[string]*MacroDefinition),
		Diags:               diags,
		interned:            make(map[string]string),
		processing:          make(map[string]bool),
	}
}

func (g *LexerGlobalContext) intern(path string) string {
	if s, ok := g.interned[path]; ok {
		return s
	}
	g.interned[path] = path
	return path
}

// condFrame is one level of #ifdef/#ifndef/#else/#endif nesting.
type condFrame struct {
	parentActive bool
	ownTrue      bool
	seenTrue     bool
}

func (f condFrame) active() bool { return f.parentActive && f.ownTrue }

// Lexer scans one source file's byte stream into tokens, delegating to a
// nested child Lexer while a #include is being processed.
type Lexer struct {
	global *LexerGlobalContext

	path    string
	input   []byte
	offset  int
	readOff int
	ch      byte
	line    int
	column  int

	child *Lexer
	onEOF func() // invoked once, when this lexer (as someone's child) reaches EOF

	pending []token.Token

	atBOL     bool
	condStack []condFrame

	eofEmitted bool
	eofPos     span.Position
}

// New creates a Lexer over already-read source bytes. Use NewFile to read
// and lex a path from disk (resolving #include against global).
func New(path string, input []byte, global *LexerGlobalContext) *Lexer {
	l := &Lexer{
		global: global,
		path:   global.intern(path),
		input:  input,
		line:   1,
		column: 0,
		atBOL:  true,
	}
	l.readChar()
	return l
}

// NewFile reads path and constructs a Lexer over its contents.
func NewFile(path string, global *LexerGlobalContext) (*Lexer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %q: %w", path, err)
	}
	return New(path, data, global), nil
}

func (l *Lexer) pos() span.Position {
	return span.Position{Path: l.path, Line: l.line, Column: l.column}
}

func (l *Lexer) readChar() {
	if l.readOff >= len(l.input) {
		l.ch = 0
	} else {
		l.ch = l.input[l.readOff]
	}
	l.offset = l.readOff
	l.readOff++
	l.column++
}

// PeekChar observes the n-th upcoming character (0 = the current char,
// 1 = the char after it) without consuming it.
func (l *Lexer) PeekChar(n int) byte {
	idx := l.readOff + n - 1
	if idx < 0 || idx >= len(l.input) {
		return 0
	}
	return l.input[idx]
}

func (l *Lexer) peekChar() byte { return l.PeekChar(1) }

// Scan advances the lexer and returns the next token → Token"). The EOF token is idempotent: once reached,
// repeated calls return it again at the same position without advancing
//.
func (l *Lexer) Scan() token.Token {
	if l.child != nil {
		tok := l.child.Scan()
		if tok.Kind != token.EOF {
			return tok
		}
		if l.child.onEOF != nil {
			l.child.onEOF()
		}
		l.child = nil // child exhausted; resume delegating parent's own stream
	}

	for {
		if len(l.pending) > 0 {
			tok := l.pending[0]
			l.pending = l.pending[1:]
			return tok
		}

		if l.eofEmitted {
			return token.Token{Kind: token.EOF, Span: span.New(l.eofPos, l.eofPos)}
		}

		if l.atBOL {
			l.atBOL = false
			l.skipHorizontalWhitespace()
			if l.ch == '#' {
				l.handleDirective()
				continue
			}
		}

		l.skipWhitespaceAndComments()

		if l.ch == '#' && l.column == 1 {
			l.handleDirective()
			continue
		}

		if l.ch == 0 {
			if len(l.condStack) > 0 {
				l.global.Diags.Addf(diag.UnterminatedComment, l.pos(), "unterminated #if/#ifdef (missing #endif)")
			}
			l.eofEmitted = true
			l.eofPos = l.pos()
			return token.Token{Kind: token.EOF, Span: span.New(l.eofPos, l.eofPos)}
		}

		tok, expanded := l.scanOne()
		if expanded {
			continue
		}
		return tok
	}
}

// scanOne recognizes a single raw token from the current character
// stream. expanded is true when the token was an object-like macro
// invocation whose replacement has been queued into l.pending, in which
// case the caller should loop and drain the queue instead of returning.
func (l *Lexer) scanOne() (token.Token, bool) {
	start := l.pos()

	switch {
	case isLetter(l.ch):
		lexeme := l.readIdentifier()
		if !l.global.ExpansionDisabled {
			if m, ok := l.global.Macros[lexeme]; ok && m.Params == nil {
				l.pending = append(l.pending, m.Replacement...)
				return token.Token{}, true
			}
		}
		kind := token.LookupIdent(lexeme)
		return token.Token{Kind: kind, Lexeme: lexeme, Span: span.New(start, l.pos())}, false
	case isDigit(l.ch):
		return l.scanNumber(start), false
	case l.ch == '.' && isDigit(l.peekChar()):
		return l.scanNumber(start), false
	case l.ch == '"':
		lit := l.readStringLiteral()
		return token.Token{Kind: token.STRING_CONST, Lexeme: lit, Span: span.New(start, l.pos())}, false
	case l.ch == '\'':
		lit := l.readCharLiteral()
		return token.Token{Kind: token.CHAR_CONST, Lexeme: lit, Span: span.New(start, l.pos())}, false
	default:
		return l.scanPunctuator(start), false
	}
}

func (l *Lexer) skipHorizontalWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
		l.readChar()
	}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		switch {
		case l.ch == ' ' || l.ch == '\t' || l.ch == '\r':
			l.readChar()
		case l.ch == '\n':
			l.line++
			l.column = 0
			l.readChar()
			l.atBOL = true
			l.skipHorizontalWhitespace()
			if l.ch != '#' {
				l.atBOL = false
				continue
			}
			return
		case l.ch == '/' && l.peekChar() == '/':
			for l.ch != '\n' && l.ch != 0 {
				l.readChar()
			}
		case l.ch == '/' && l.peekChar() == '*':
			startPos := l.pos()
			l.readChar()
			l.readChar()
			closed := false
			for l.ch != 0 {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				if l.ch == '\n' {
					l.line++
					l.column = 0
				}
				l.readChar()
			}
			if !closed {
				l.global.Diags.Addf(diag.UnterminatedComment, startPos, "unterminated /* comment")
			}
		default:
			return
		}
	}
}

func isLetter(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool { return ch >= '0' && ch <= '9' }

func isHexDigit(ch byte) bool {
	return isDigit(ch) || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

func (l *Lexer) readIdentifier() string {
	start := l.offset
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return string(l.input[start:l.offset])
}

// scanNumber reads an integer or floating constant lexeme; the caller
// (numlit) decides value/type later, the lexer only needs to recognize
// the span of digits/suffix
func (l *Lexer) scanNumber(start span.Position) token.Token {
	startOff := l.offset
	isFloat := false

	if l.ch == '0' && (l.peekChar() == 'x' || l.peekChar() == 'X') {
		l.readChar()
		l.readChar()
		for isHexDigit(l.ch) {
			l.readChar()
		}
		// Hex floating constants (hex significand + binary exponent) are
		// recognized but not common; fall through to suffix handling.
		if l.ch == '.' {
			isFloat = true
			l.readChar()
			for isHexDigit(l.ch) {
				l.readChar()
			}
		}
		if l.ch == 'p' || l.ch == 'P' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	} else {
		for isDigit(l.ch) {
			l.readChar()
		}
		if l.ch == '.' {
			isFloat = true
			l.readChar()
			for isDigit(l.ch) {
				l.readChar()
			}
		}
		if l.ch == 'e' || l.ch == 'E' {
			isFloat = true
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	if isFloat {
		if l.ch == 'f' || l.ch == 'F' || l.ch == 'l' || l.ch == 'L' {
			l.readChar()
		}
		return token.Token{Kind: token.FLOAT_CONST, Lexeme: string(l.input[startOff:l.offset]), Span: span.New(start, l.pos())}
	}

	for l.ch == 'u' || l.ch == 'U' || l.ch == 'l' || l.ch == 'L' {
		l.readChar()
	}
	return token.Token{Kind: token.INT_CONST, Lexeme: string(l.input[startOff:l.offset]), Span: span.New(start, l.pos())}
}

// readStringLiteral reads the content between double quotes, handling the
// standard escape sequences, and returns the raw (unescaped-form-kept)
// text for later decoding. Adjacent string literals are not concatenated
// here.
func (l *Lexer) readStringLiteral() string {
	start := l.offset + 1
	l.readChar() // consume opening quote
	for l.ch != '"' && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' && l.peekChar() != 0 {
			l.readChar()
		}
		l.readChar()
	}
	text := string(l.input[start:l.offset])
	if l.ch == '"' {
		l.readChar()
	} else {
		l.global.Diags.Addf(diag.UnterminatedStringOrChar, l.pos(), "unterminated string literal")
	}
	return text
}

func (l *Lexer) readCharLiteral() string {
	start := l.offset + 1
	l.readChar() // consume opening quote
	for l.ch != '\'' && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' && l.peekChar() != 0 {
			l.readChar()
		}
		l.readChar()
	}
	text := string(l.input[start:l.offset])
	if l.ch == '\'' {
		l.readChar()
	} else {
		l.global.Diags.Addf(diag.UnterminatedStringOrChar, l.pos(), "unterminated character literal")
	}
	return text
}

// scanPunctuator performs the longest-match over the closed C99
// punctuator set.
func (l *Lexer) scanPunctuator(start span.Position) token.Token {
	three := func(k token.Kind) token.Token {
		lex := string(l.input[l.offset : l.offset+3])
		l.readChar()
		l.readChar()
		l.readChar()
		return token.Token{Kind: k, Lexeme: lex, Span: span.New(start, l.pos())}
	}
	two := func(k token.Kind) token.Token {
		lex := string(l.input[l.offset : l.offset+2])
		l.readChar()
		l.readChar()
		return token.Token{Kind: k, Lexeme: lex, Span: span.New(start, l.pos())}
	}
	one := func(k token.Kind) token.Token {
		lex := string(l.ch)
		l.readChar()
		return token.Token{Kind: k, Lexeme: lex, Span: span.New(start, l.pos())}
	}

	switch l.ch {
	case '.':
		if l.peekChar() == '.' && l.PeekChar(2) == '.' {
			return three(token.ELLIPSIS)
		}
		return one(token.DOT)
	case '-':
		switch l.peekChar() {
		case '>':
			return two(token.ARROW)
		case '-':
			return two(token.DEC)
		case '=':
			return two(token.SUB_ASSIGN)
		}
		return one(token.MINUS)
	case '+':
		switch l.peekChar() {
		case '+':
			return two(token.INC)
		case '=':
			return two(token.ADD_ASSIGN)
		}
		return one(token.PLUS)
	case '*':
		if l.peekChar() == '=' {
			return two(token.MUL_ASSIGN)
		}
		return one(token.STAR)
	case '/':
		if l.peekChar() == '=' {
			return two(token.DIV_ASSIGN)
		}
		return one(token.SLASH)
	case '%':
		if l.peekChar() == '=' {
			return two(token.MOD_ASSIGN)
		}
		return one(token.PERCENT)
	case '=':
		if l.peekChar() == '=' {
			return two(token.EQ)
		}
		return one(token.ASSIGN)
	case '!':
		if l.peekChar() == '=' {
			return two(token.NE)
		}
		return one(token.NOT)
	case '<':
		switch {
		case l.peekChar() == '<' && l.PeekChar(2) == '=':
			return three(token.SHL_ASSIGN)
		case l.peekChar() == '<':
			return two(token.SHL)
		case l.peekChar() == '=':
			return two(token.LE)
		}
		return one(token.LT)
	case '>':
		switch {
		case l.peekChar() == '>' && l.PeekChar(2) == '=':
			return three(token.SHR_ASSIGN)
		case l.peekChar() == '>':
			return two(token.SHR)
		case l.peekChar() == '=':
			return two(token.GE)
		}
		return one(token.GT)
	case '&':
		switch l.peekChar() {
		case '&':
			return two(token.LAND)
		case '=':
			return two(token.AND_ASSIGN)
		}
		return one(token.AMP)
	case '|':
		switch l.peekChar() {
		case '|':
			return two(token.LOR)
		case '=':
			return two(token.OR_ASSIGN)
		}
		return one(token.PIPE)
	case '^':
		if l.peekChar() == '=' {
			return two(token.XOR_ASSIGN)
		}
		return one(token.CARET)
	case '~':
		return one(token.TILDE)
	case ';':
		return one(token.SEMI)
	case ',':
		return one(token.COMMA)
	case ':':
		return one(token.COLON)
	case '(':
		return one(token.LPAREN)
	case ')':
		return one(token.RPAREN)
	case '{':
		return one(token.LBRACE)
	case '}':
		return one(token.RBRACE)
	case '[':
		return one(token.LBRACKET)
	case ']':
		return one(token.RBRACKET)
	case '?':
		return one(token.QUESTION)
	default:
		l.global.Diags.Addf(diag.UnexpectedCharacter, start, "unexpected character %q", l.ch)
		return one(token.ILLEGAL)
	}
}

// Tokenize scans input to completion and returns every token, including
// the trailing EOF.
func Tokenize(path string, input []byte, global *LexerGlobalContext) []token.Token {
	l := New(path, input, global)
	var toks []token.Token
	for {
		tok := l.Scan()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
	}
	return toks
}

// --- preprocessor directive handling -------------------------------------

// handleDirective is entered with l.ch == '#' at the start of a logical
// line. It dispatches to #include/#define/#undef/#ifdef/#ifndef/#else/
// #endif/#line, consuming through the end of the directive's line.
func (l *Lexer) handleDirective() {
	l.readChar() // consume '#'
	l.skipHorizontalWhitespace()
	name := ""
	if isLetter(l.ch) {
		name = l.readIdentifier()
	}
	l.skipHorizontalWhitespace()

	switch name {
	case "include":
		rest := l.readRestOfLine()
		l.consumeNewlineAfterDirective()
		if l.isActive() {
			l.processInclude(rest)
		}
	case "define":
		rest := l.readRestOfLine()
		l.consumeNewlineAfterDirective()
		if l.isActive() {
			l.processDefine(rest)
		}
	case "undef":
		rest := strings.TrimSpace(l.readRestOfLine())
		l.consumeNewlineAfterDirective()
		if l.isActive() {
			delete(l.global.Macros, rest)
		}
	case "ifdef", "ifndef":
		rest := strings.TrimSpace(l.readRestOfLine())
		l.consumeNewlineAfterDirective()
		_, defined := l.global.Macros[rest]
		if name == "ifndef" {
			defined = !defined
		}
		parentActive := l.isActive()
		l.condStack = append(l.condStack, condFrame{parentActive: parentActive, ownTrue: defined, seenTrue: defined})
	case "else":
		l.readRestOfLine()
		l.consumeNewlineAfterDirective()
		if len(l.condStack) == 0 {
			l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "#else without matching #ifdef/#ifndef")
			break
		}
		top := &l.condStack[len(l.condStack)-1]
		if top.seenTrue {
			top.ownTrue = false
		} else {
			top.ownTrue = true
			top.seenTrue = true
		}
	case "endif":
		l.readRestOfLine()
		l.consumeNewlineAfterDirective()
		if len(l.condStack) == 0 {
			l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "#endif without matching #ifdef/#ifndef")
			break
		}
		l.condStack = l.condStack[:len(l.condStack)-1]
	case "line":
		rest := strings.TrimSpace(l.readRestOfLine())
		l.consumeNewlineAfterDirective()
		l.processLine(rest)
	default:
		// Unknown/unsupported directive (e.g. #pragma): consume and ignore.
		l.readRestOfLine()
		l.consumeNewlineAfterDirective()
	}

	if !l.isActive() {
		l.skipInactiveRegion()
	}
}

func (l *Lexer) isActive() bool {
	for _, f := range l.condStack {
		if !f.active() {
			return false
		}
	}
	return true
}

func (l *Lexer) readRestOfLine() string {
	start := l.offset
	for l.ch != '\n' && l.ch != 0 {
		l.readChar()
	}
	return string(l.input[start:l.offset])
}

func (l *Lexer) consumeNewlineAfterDirective() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
		l.readChar()
	}
	l.atBOL = true
}

// skipInactiveRegion is entered when the condition stack makes the
// current region inactive; it consumes raw text line-by-line (counting
// nested #ifdef/#ifndef/#endif) until control returns to handleDirective
// at a directive that ends or flips the innermost inactive frame,
// skipping by text rather than by token since nothing inside an inactive
// region is required to tokenize cleanly.
func (l *Lexer) skipInactiveRegion() {
	for !l.isActive() && l.ch != 0 {
		l.skipHorizontalWhitespace()
		if l.ch == '#' {
			l.readChar()
			l.skipHorizontalWhitespace()
			name := ""
			if isLetter(l.ch) {
				name = l.readIdentifier()
			}
			switch name {
			case "ifdef", "ifndef":
				rest := strings.TrimSpace(l.readRestOfLine())
				_, defined := l.global.Macros[rest]
				if name == "ifndef" {
					defined = !defined
				}
				parentActive := l.isActive()
				l.condStack = append(l.condStack, condFrame{parentActive: parentActive, ownTrue: defined, seenTrue: defined})
			case "else":
				l.readRestOfLine()
				if len(l.condStack) > 0 {
					top := &l.condStack[len(l.condStack)-1]
					if top.seenTrue {
						top.ownTrue = false
					} else {
						top.ownTrue = true
						top.seenTrue = true
					}
				}
			case "endif":
				l.readRestOfLine()
				if len(l.condStack) > 0 {
					l.condStack = l.condStack[:len(l.condStack)-1]
				}
			default:
				l.readRestOfLine()
			}
			l.consumeNewlineAfterDirective()
			continue
		}
		// Non-directive line inside an inactive region: skip it whole.
		for l.ch != '\n' && l.ch != 0 {
			l.readChar()
		}
		if l.ch == '\n' {
			l.line++
			l.column = 0
			l.readChar()
		}
	}
	l.atBOL = true
}

func (l *Lexer) processDefine(rest string) {
	rest = strings.TrimLeft(rest, " \t")
	nameEnd := 0
	for nameEnd < len(rest) && (isLetter(rest[nameEnd]) || isDigit(rest[nameEnd])) {
		nameEnd++
	}
	if nameEnd == 0 {
		l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "#define missing macro name")
		return
	}
	name := rest[:nameEnd]

	if nameEnd < len(rest) && rest[nameEnd] == '(' {
		// Function-like macro: parameter list is recognized but
		// parameterized expansion is not implemented (acknowledged
		// Non-goal).
		closeIdx := strings.IndexByte(rest[nameEnd:], ')')
		if closeIdx < 0 {
			l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "#define(%s) missing closing paren", name)
			return
		}
		paramsStr := rest[nameEnd+1 : nameEnd+closeIdx]
		var params []string
		variadic := false
		for _, p := range strings.Split(paramsStr, ",") {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			if p == "..." {
				variadic = true
				continue
			}
			params = append(params, p)
		}
		body := strings.TrimSpace(rest[nameEnd+closeIdx+1:])
		replacement := l.tokenizeMacroBody(body)
		l.global.Macros[name] = &MacroDefinition{Name: name, Params: params, Variadic: variadic, Replacement: replacement}
		return
	}

	body := strings.TrimSpace(rest[nameEnd:])
	replacement := l.tokenizeMacroBody(body)
	l.global.Macros[name] = &MacroDefinition{Name: name, Replacement: replacement}
}

// tokenizeMacroBody lexes a macro replacement list with expansion
// disabled, so that storing one macro's definition never eagerly expands
// another.
func (l *Lexer) tokenizeMacroBody(body string) []token.Token {
	if strings.TrimSpace(body) == "" {
		return nil
	}
	saved := l.global.ExpansionDisabled
	l.global.ExpansionDisabled = true
	defer func() { l.global.ExpansionDisabled = saved }()

	sub := New(l.path, []byte(body), l.global)
	var toks []token.Token
	for {
		tok := sub.Scan()
		if tok.Kind == token.EOF {
			break
		}
		toks = append(toks, tok)
	}
	return toks
}

func (l *Lexer) processLine(rest string) {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return
	}
	var n int
	if _, err := fmt.Sscanf(fields[0], "%d", &n); err != nil {
		return
	}
	l.line = n
	if len(fields) > 1 {
		fname := strings.Trim(fields[1], `"`)
		l.path = l.global.intern(fname)
	}
}

// processInclude resolves and delegates to a nested child Lexer for an
// #include directive, following a quoted-relative-then-user-then-system-
// then-builtin search order, and guards against circular includes via
// global.processing.
func (l *Lexer) processInclude(rest string) {
	rest = strings.TrimSpace(rest)
	var filename string
	var quoted bool
	switch {
	case len(rest) >= 2 && rest[0] == '"' && rest[len(rest)-1] == '"':
		filename = rest[1 : len(rest)-1]
		quoted = true
	case len(rest) >= 2 && rest[0] == '<' && rest[len(rest)-1] == '>':
		filename = rest[1 : len(rest)-1]
	default:
		l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "malformed #include %q", rest)
		return
	}

	resolved := l.resolveInclude(filename, quoted)
	if resolved == "" {
		l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "cannot find included file %q", filename)
		return
	}

	absPath, _ := filepath.Abs(resolved)
	if l.global.processing[absPath] {
		l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "circular #include of %q", filename)
		return
	}
	l.global.processing[absPath] = true

	child, err := NewFile(resolved, l.global)
	if err != nil {
		delete(l.global.processing, absPath)
		l.global.Diags.Addf(diag.BadIncludeResolution, l.pos(), "cannot read included file %q: %s", filename, err)
		return
	}
	child.onEOF = func() { delete(l.global.processing, absPath) }
	l.child = child
}

func (l *Lexer) resolveInclude(filename string, quoted bool) string {
	if quoted {
		if dir := filepath.Dir(l.path); dir != "" {
			candidate := filepath.Join(dir, filename)
			if _, err := os.Stat(candidate); err == nil {
				return candidate
			}
		}
	}
	for _, dir := range l.global.UserIncludePaths {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	for _, dir := range l.global.SystemIncludePaths {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	for _, dir := range l.global.BuiltinIncludePaths {
		candidate := filepath.Join(dir, filename)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
