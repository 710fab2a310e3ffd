// Package parser implements recursive-descent parsing of a C99
// translation unit into the ast package's node set. It builds each
// declarator's ctype.Type by composing small closures (one per pointer
// level, array dimension, or parameter list) rather than an intermediate
// declarator tree, and tracks typedef-names through a symtab.Table as it
// goes so a bare identifier can be told apart from a type name at the
// point it is encountered.
//
// The cursor holds the complete pre-lexed token stream plus an index
// rather than a small ring of lookahead tokens, because three places in
// the grammar are genuinely ambiguous on bounded lookahead and need to
// try one reading and backtrack to another via an explicit checkpoint:
// sizeof's type-name-vs-expression form, a parameter's declarator-vs-
// abstract-declarator form, and a parenthesized cast-vs-expression
// prefix. Diagnostics accumulate in a shared bag instead of aborting the
// parse, so one pass reports everything it can and still returns a
// best-effort tree.
package parser

import (
	"strconv"

	"github.com/codeassociates/cfront/ast"
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/diag"
	"github.com/codeassociates/cfront/numlit"
	"github.com/codeassociates/cfront/span"
	"github.com/codeassociates/cfront/symtab"
	"github.com/codeassociates/cfront/token"
)

// Parser holds the full token stream, a cursor into it, the shared
// diagnostic bag, and the symbol table consulted at every identifier
// that might be a typedef-name.
type Parser struct {
	toks  []token.Token
	pos   int
	diags *diag.Bag
	syms  *symtab.Table
}

// New creates a Parser over a complete token stream (as produced by
// lexer.Tokenize), reporting into diags so lexer and parser diagnostics
// share one ordered list.
func New(toks []token.Token, diags *diag.Bag) *Parser {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF})
	}
	return &Parser{toks: toks, diags: diags, syms: symtab.New()}
}

// Diagnostics returns every diagnostic accumulated while parsing.
func (p *Parser) Diagnostics() []diag.Diagnostic { return p.diags.All() }

// Parse consumes the entire token stream and returns the translation
// unit. A production that fails to consume anything (an unrecognised
// token at external-declaration or statement position) is skipped one
// token at a time so a malformed file still yields a complete, if
// partial, tree.
func (p *Parser) Parse() *ast.TranslationUnit {
	start := p.cur().Pos()
	var decls []ast.ExternalDecl
	for !p.at(token.EOF) {
		before := p.pos
		decls = append(decls, p.parseExternalDeclaration())
		if p.pos == before {
			p.advance()
		}
	}
	return finish(start, p, &ast.TranslationUnit{Decls: decls})
}

// --- cursor -----------------------------------------------------------------

func (p *Parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos]
}

// peekAt looks n tokens ahead of the cursor without consuming anything.
func (p *Parser) peekAt(n int) token.Token {
	i := p.pos + n
	if i >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[i]
}

func (p *Parser) at(k token.Kind) bool { return p.cur().Kind == k }

func (p *Parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *Parser) accept(k token.Kind) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	return token.Token{}, false
}

// expect consumes the current token if it matches k, otherwise reports
// ExpectedToken and returns the (unconsumed) offending token so the
// caller can still use its position.
func (p *Parser) expect(k token.Kind) token.Token {
	if t, ok := p.accept(k); ok {
		return t
	}
	t := p.cur()
	if t.Kind == token.EOF {
		p.diags.Addf(diag.UnexpectedEndOfInput, t.Pos(), "unexpected end of input, expected %s", k)
	} else {
		p.diags.Addf(diag.ExpectedToken, t.Pos(), "expected %s, found %s %q", k, t.Kind, t.Lexeme)
	}
	return t
}

// checkpoint is a (token position, diagnostic count, symbol-table scope)
// triple, the unit of speculative parsing: mark before attempting a
// reading, restore to undo both the cursor motion and any symbols or
// diagnostics it produced.
type checkpoint struct {
	pos     int
	diagLen int
	sym     symtab.Checkpoint
}

func (p *Parser) mark() checkpoint {
	return checkpoint{pos: p.pos, diagLen: p.diags.Len(), sym: p.syms.Mark()}
}

func (p *Parser) restore(cp checkpoint) {
	p.syms.RestoreTo(cp.sym, cp.pos)
	p.diags.Truncate(cp.diagLen)
	p.pos = cp.pos
}

// finish sets node's span to [start, end of the last consumed token] and
// returns it, so a production can close over its own start position once
// and let every return path share the same span bookkeeping.
func finish[T ast.Spannable](start span.Position, p *Parser, node T) T {
	end := start
	if p.pos > 0 {
		end = p.toks[p.pos-1].Span.End
	}
	node.SetSpan(span.ExtendTo(start, span.Span{End: end}))
	return node
}

// --- declaration specifiers ---------------------------------------------------

// declSpecs is the resolved result of a declaration-specifiers sequence:
// the base type plus whatever storage class and function-specifier were
// present.
type declSpecs struct {
	base       *ctype.Type
	storage    ctype.StorageClass
	hasStorage bool
	inline     bool
}

// specBuilder accumulates the type-specifier keywords of a declaration-
// specifiers sequence as they are seen; resolve turns the accumulated
// flags into one ctype.Type following the combination rules of C99
// §6.7.2 (e.g. "long long int" and "long long" are equivalent).
type specBuilder struct {
	voidSeen, boolSeen       bool
	charSeen, shortSeen      bool
	intSeen                  bool
	longCount                int
	floatSeen, doubleSeen    bool
	signedSeen, unsignedSeen bool
	aggregate                *ctype.Type
	isConst, isVolatile      bool
	storage                  ctype.StorageClass
	hasStorage               bool
	inline                   bool
}

func (b *specBuilder) hasArithmeticKeyword() bool {
	return b.voidSeen || b.boolSeen || b.charSeen || b.shortSeen || b.intSeen ||
		b.longCount > 0 || b.floatSeen || b.doubleSeen || b.signedSeen || b.unsignedSeen
}

func storageClassOf(k token.Kind) ctype.StorageClass {
	switch k {
	case token.TYPEDEF:
		return ctype.TypedefClass
	case token.EXTERN:
		return ctype.Extern
	case token.STATIC:
		return ctype.Static
	case token.REGISTER:
		return ctype.Register
	default:
		return ctype.Auto
	}
}

func (b *specBuilder) resolve(p *Parser, pos span.Position) *ctype.Type {
	var base *ctype.Type
	switch {
	case b.aggregate != nil:
		clone := *b.aggregate
		base = &clone
	case b.voidSeen:
		base = ctype.NewVoid()
	case b.boolSeen:
		base = ctype.NewInteger(false, ctype.RankBool)
	case b.floatSeen:
		base = ctype.NewFloating(ctype.RankFloat)
	case b.doubleSeen:
		rank := ctype.RankDouble
		if b.longCount > 0 {
			rank = ctype.RankLongDouble
		}
		base = ctype.NewFloating(rank)
	case b.charSeen:
		base = ctype.NewInteger(!b.unsignedSeen, ctype.RankChar)
	case b.shortSeen:
		base = ctype.NewInteger(!b.unsignedSeen, ctype.RankShort)
	case b.longCount >= 2:
		base = ctype.NewInteger(!b.unsignedSeen, ctype.RankLongLong)
	case b.longCount == 1:
		base = ctype.NewInteger(!b.unsignedSeen, ctype.RankLong)
	case b.intSeen || b.signedSeen || b.unsignedSeen:
		base = ctype.NewInteger(!b.unsignedSeen, ctype.RankInt)
	default:
		p.diags.Addf(diag.TypeSpecifierMissing, pos, "declaration has no type specifier")
		base = ctype.NewInteger(true, ctype.RankInt)
	}
	base.IsConst = b.isConst
	base.IsVolatile = b.isVolatile
	if b.hasStorage {
		base.StorageClass = b.storage
	}
	return base
}

// parseDeclarationSpecifiers parses the storage-class, type, qualifier,
// and function specifiers leading a declaration, resolving a trailing
// identifier against the symbol table to recognise a typedef-name type
// specifier.
func (p *Parser) parseDeclarationSpecifiers() declSpecs {
	start := p.cur().Pos()
	var b specBuilder
loop:
	for {
		switch p.cur().Kind {
		case token.TYPEDEF, token.EXTERN, token.STATIC, token.AUTO, token.REGISTER:
			if b.hasStorage {
				p.diags.Addf(diag.IllegalDeclarationSpecifiers, p.cur().Pos(), "more than one storage-class specifier")
			}
			b.hasStorage = true
			b.storage = storageClassOf(p.cur().Kind)
			p.advance()
		case token.INLINE:
			b.inline = true
			p.advance()
		case token.CONST:
			b.isConst = true
			p.advance()
		case token.VOLATILE:
			b.isVolatile = true
			p.advance()
		case token.RESTRICT:
			p.diags.Addf(diag.IllegalUseOfRestrict, p.cur().Pos(), "restrict may only qualify a pointer declarator")
			p.advance()
		case token.VOID:
			b.voidSeen = true
			p.advance()
		case token.BOOL:
			b.boolSeen = true
			p.advance()
		case token.COMPLEX:
			p.advance() // accepted, unused by the type model
		case token.CHAR:
			b.charSeen = true
			p.advance()
		case token.SHORT:
			b.shortSeen = true
			p.advance()
		case token.INT:
			b.intSeen = true
			p.advance()
		case token.LONG:
			b.longCount++
			p.advance()
		case token.FLOAT:
			b.floatSeen = true
			p.advance()
		case token.DOUBLE:
			b.doubleSeen = true
			p.advance()
		case token.SIGNED:
			b.signedSeen = true
			p.advance()
		case token.UNSIGNED:
			b.unsignedSeen = true
			p.advance()
		case token.STRUCT, token.UNION:
			if b.aggregate != nil {
				break loop
			}
			b.aggregate = p.parseStructOrUnionSpecifier()
		case token.ENUM:
			if b.aggregate != nil {
				break loop
			}
			b.aggregate = p.parseEnumSpecifier()
		case token.IDENT:
			if b.aggregate == nil && !b.hasArithmeticKeyword() && p.syms.IsTypedefName(p.cur().Lexeme) {
				sym, _ := p.syms.Lookup(p.cur().Lexeme)
				b.aggregate = sym.Type
				p.advance()
			} else {
				break loop
			}
		default:
			break loop
		}
	}
	base := b.resolve(p, start)
	return declSpecs{base: base, storage: b.storage, hasStorage: b.hasStorage, inline: b.inline}
}

// parseStructOrUnionSpecifier parses "struct|union [tag] [{ members }]".
func (p *Parser) parseStructOrUnionSpecifier() *ctype.Type {
	isUnion := p.at(token.UNION)
	p.advance()
	var tag string
	if t, ok := p.accept(token.IDENT); ok {
		tag = t.Lexeme
	}
	if !p.at(token.LBRACE) {
		return ctype.NewStructOrUnion(tag, isUnion, nil, false, false)
	}
	p.advance()
	var fields []ctype.Field
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		specs := p.parseDeclarationSpecifiers()
		for {
			declFn, name, _ := p.parseDeclarator()
			ft := declFn(specs.base)
			var width *int
			if _, ok := p.accept(token.COLON); ok {
				w := p.parseConstantIntExpr()
				width = &w
			}
			fname := ""
			if name.Kind == token.IDENT {
				fname = name.Lexeme
			}
			fields = append(fields, ctype.Field{Index: len(fields), Name: fname, Type: ft, BitfieldWidth: width})
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
		}
		p.expect(token.SEMI)
	}
	p.expect(token.RBRACE)
	return ctype.NewStructOrUnion(tag, isUnion, fields, true, false)
}

// parseEnumSpecifier parses "enum [tag] [{ enumerator-list }]".
func (p *Parser) parseEnumSpecifier() *ctype.Type {
	start := p.advance().Pos() // enum
	var tag string
	if t, ok := p.accept(token.IDENT); ok {
		tag = t.Lexeme
	}
	if !p.at(token.LBRACE) {
		if tag == "" {
			p.diags.Addf(diag.EnumSpecifierWithoutIdentifierOrEnumeratorList, start, "enum specifier has neither a tag nor an enumerator list")
		}
		return ctype.NewEnum(tag, nil)
	}
	p.advance()
	var enumerators []ctype.Enumerator
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		name, _ := p.accept(token.IDENT)
		var valueExpr ast.Expression
		if _, ok := p.accept(token.ASSIGN); ok {
			valueExpr = p.parseConditionalExpr()
		}
		enumerators = append(enumerators, ctype.Enumerator{Name: name.Lexeme, ValueExpr: valueExpr})
		p.syms.Declare(symtab.KindIdentifier, name.Lexeme, name, ctype.NewInteger(true, ctype.RankInt), p.pos)
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACE)
	return ctype.NewEnum(tag, enumerators)
}

// parseConstantIntExpr parses a constant-expression and reduces it to an
// int, the only form a bitfield width needs at specifier-parsing time. A
// non-literal constant expression is accepted syntactically but
// evaluates to 0.
func (p *Parser) parseConstantIntExpr() int {
	e := p.parseConditionalExpr()
	if lit, ok := e.(*ast.IntLiteral); ok {
		return int(lit.Value)
	}
	return 0
}

// --- declarators ---------------------------------------------------------

// declFn maps a declaration-specifiers' base type to the fully resolved
// type a declarator describes.
type declFn func(base *ctype.Type) *ctype.Type

func identityDecl(base *ctype.Type) *ctype.Type { return base }

type ptrQual struct{ isConst, isVolatile, isRestrict bool }

// parsePointerPrefix parses zero or more "*[qualifiers]" and returns a
// declFn applying them to whatever hole they end up wrapping, closest-
// to-declarator pointer first (so it ends up innermost).
func (p *Parser) parsePointerPrefix() declFn {
	var quals []ptrQual
	for {
		if _, ok := p.accept(token.STAR); !ok {
			break
		}
		var q ptrQual
	qualLoop:
		for {
			switch p.cur().Kind {
			case token.CONST:
				q.isConst = true
				p.advance()
			case token.VOLATILE:
				q.isVolatile = true
				p.advance()
			case token.RESTRICT:
				q.isRestrict = true
				p.advance()
			default:
				break qualLoop
			}
		}
		quals = append(quals, q)
	}
	return func(base *ctype.Type) *ctype.Type {
		acc := base
		for i := len(quals) - 1; i >= 0; i-- {
			q := quals[i]
			acc = ctype.NewPointer(acc, q.isConst, q.isVolatile, q.isRestrict)
		}
		return acc
	}
}

// funcSuffixInfo carries a function-suffix's parameter list, captured so
// the caller of parseDeclarator can recognise a function definition.
type funcSuffixInfo struct {
	params   []ctype.Param
	variadic bool
}

// parseSuffixChain parses the zero-or-more trailing "[n]"/"(params)"
// suffixes of a direct-declarator and folds them into one declFn. The
// first suffix encountered ends up outermost (`a[3][4]` is array of 3 of
// array of 4), so the fold runs from the last-parsed suffix inward.
func (p *Parser) parseSuffixChain() (declFn, *funcSuffixInfo) {
	type rawSuffix struct {
		isFunc bool
		info   *funcSuffixInfo
		apply  func(elem *ctype.Type) *ctype.Type
	}
	var raws []rawSuffix
	for {
		switch {
		case p.at(token.LBRACKET):
			p.advance()
			var sizeExpr ast.Expression
			if !p.at(token.RBRACKET) {
				sizeExpr = p.parseConditionalExpr()
			}
			p.expect(token.RBRACKET)
			se := sizeExpr
			raws = append(raws, rawSuffix{apply: func(elem *ctype.Type) *ctype.Type {
				var sz any
				if se != nil {
					sz = se
				}
				return ctype.NewArray(elem, sz)
			}})
		case p.at(token.LPAREN):
			p.advance()
			params, variadic := p.parseParameterList()
			p.expect(token.RPAREN)
			pr, va := params, variadic
			raws = append(raws, rawSuffix{
				isFunc: true,
				info:   &funcSuffixInfo{params: pr, variadic: va},
				apply: func(elem *ctype.Type) *ctype.Type {
					return ctype.NewFunction(elem, pr, va)
				},
			})
		default:
			chain := func(hole *ctype.Type) *ctype.Type {
				acc := hole
				for i := len(raws) - 1; i >= 0; i-- {
					acc = raws[i].apply(acc)
				}
				return acc
			}
			var outermost *funcSuffixInfo
			if len(raws) > 0 && raws[0].isFunc {
				outermost = raws[0].info
			}
			return chain, outermost
		}
	}
}

// atParenStartsNestedDeclarator resolves, with one token of lookahead,
// whether a "(" at declarator-core position opens a parenthesized
// sub-declarator ("(*p)") or is itself a (possibly abstract) parameter
// list applied to an empty core ("(void)", "(int)"). A plain identifier
// or another "*"/"(" means a nested declarator; a type keyword or a
// typedef-name means a parameter list.
func (p *Parser) atParenStartsNestedDeclarator() bool {
	switch p.peekAt(1).Kind {
	case token.STAR, token.LPAREN:
		return true
	case token.IDENT:
		return !p.syms.IsTypedefName(p.peekAt(1).Lexeme)
	default:
		return false
	}
}

// parseDeclarator parses one declarator: an optional pointer prefix, a
// core (an identifier, a parenthesized sub-declarator, or — in an
// abstract declarator — nothing), and trailing array/function suffixes.
// It returns a declFn mapping the eventual base type to the fully
// resolved type, the declared name (the zero Token for an abstract
// declarator), and, when the outermost suffix was a parameter list, that
// list (letting the caller tell a function definition apart from any
// other declarator without re-parsing).
func (p *Parser) parseDeclarator() (declFn, token.Token, *funcSuffixInfo) {
	pointerFn := p.parsePointerPrefix()

	var coreFn declFn = identityDecl
	var name token.Token
	switch {
	case p.at(token.LPAREN) && p.atParenStartsNestedDeclarator():
		p.advance()
		inner, innerName, _ := p.parseDeclarator()
		p.expect(token.RPAREN)
		coreFn = inner
		name = innerName
	case p.at(token.IDENT):
		name = p.advance()
	}

	suffixChain, outermost := p.parseSuffixChain()

	full := func(base *ctype.Type) *ctype.Type {
		return coreFn(suffixChain(pointerFn(base)))
	}
	return full, name, outermost
}

// parseParameterList parses a parameter-type-list: "void" (no
// parameters), empty (unspecified parameters), or a comma-separated list
// of parameter declarations optionally ending in ", ...".
func (p *Parser) parseParameterList() ([]ctype.Param, bool) {
	if p.at(token.VOID) && p.peekAt(1).Kind == token.RPAREN {
		p.advance()
		return nil, false
	}
	if p.at(token.RPAREN) {
		return nil, false
	}
	var params []ctype.Param
	for {
		if _, ok := p.accept(token.ELLIPSIS); ok {
			return params, true
		}
		specs := p.parseDeclarationSpecifiers()
		params = append(params, p.parseParameterDeclarator(specs.base))
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	return params, false
}

// parseParameterDeclarator resolves the parameter-vs-abstract-declarator
// ambiguity: a speculative parse of a full declarator either succeeds
// cleanly (a named or abstract parameter with suffixes) or raises a
// diagnostic, in which case the attempt is rolled back to a checkpoint
// and the parameter is taken to be an unnamed one of the base type alone.
func (p *Parser) parseParameterDeclarator(base *ctype.Type) ctype.Param {
	cp := p.mark()
	declFn, name, _ := p.parseDeclarator()
	if p.diags.Len() > cp.diagLen {
		p.restore(cp)
		return ctype.Param{Type: base}
	}
	pname := ""
	if name.Kind == token.IDENT {
		pname = name.Lexeme
	}
	return ctype.Param{Name: pname, Type: declFn(base)}
}

// parseTypeName parses a type-name (declaration-specifiers plus an
// optional abstract declarator), used by sizeof, casts, and compound
// literals.
func (p *Parser) parseTypeName() *ctype.Type {
	specs := p.parseDeclarationSpecifiers()
	declFn, _, _ := p.parseDeclarator()
	return declFn(specs.base)
}

// --- external declarations and block-scope declarations -----------------------

func (p *Parser) parseExternalDeclaration() ast.ExternalDecl {
	start := p.cur().Pos()
	specs := p.parseDeclarationSpecifiers()
	if _, ok := p.accept(token.SEMI); ok {
		return finish(start, p, &ast.DeclarationGroup{})
	}

	declFn, name, fi := p.parseDeclarator()
	if fi != nil && p.at(token.LBRACE) {
		return p.finishFunctionDefinition(start, specs, declFn, name, fi)
	}

	var decls []*ast.Declaration
	decls = append(decls, p.finishInitDeclarator(specs, declFn, name))
	for {
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
		d2, n2, _ := p.parseDeclarator()
		decls = append(decls, p.finishInitDeclarator(specs, d2, n2))
	}
	p.expect(token.SEMI)
	p.declareAll(specs, decls)
	return finish(start, p, &ast.DeclarationGroup{Decls: decls})
}

func (p *Parser) declareAll(specs declSpecs, decls []*ast.Declaration) {
	kind := symtab.KindIdentifier
	if specs.hasStorage && specs.storage == ctype.TypedefClass {
		kind = symtab.KindTypedef
	}
	for _, d := range decls {
		if d.Name.Kind == token.IDENT {
			p.syms.Declare(kind, d.Name.Lexeme, d.Name, d.Type, p.pos)
		}
	}
}

func (p *Parser) finishInitDeclarator(specs declSpecs, fn declFn, name token.Token) *ast.Declaration {
	start := name.Pos()
	ty := fn(specs.base)
	var init ast.Initializer
	if _, ok := p.accept(token.ASSIGN); ok {
		init = p.parseInitializer()
	}
	return finish(start, p, &ast.Declaration{Type: ty, Name: name, Initializer: init})
}

func (p *Parser) finishFunctionDefinition(start span.Position, specs declSpecs, fn declFn, name token.Token, fi *funcSuffixInfo) *ast.FunctionDefinition {
	fnType := fn(specs.base)
	if name.Kind == token.IDENT {
		p.syms.Declare(symtab.KindIdentifier, name.Lexeme, name, fnType, p.pos)
	}
	p.syms.PushScope(p.pos)
	var params []ast.ParamDecl
	for _, pr := range fi.params {
		params = append(params, ast.ParamDecl{Type: pr.Type, Name: pr.Name})
		if pr.Name != "" {
			p.syms.Declare(symtab.KindIdentifier, pr.Name, name, pr.Type, p.pos)
		}
	}
	body := p.parseCompoundStmt()
	p.syms.PopScope()
	return finish(start, p, &ast.FunctionDefinition{
		ReturnType: fnType.Return,
		Name:       name,
		Params:     params,
		Variadic:   fi.variadic,
		Body:       body,
	})
}

// startsDeclaration reports whether the current token can begin a
// declaration-specifiers sequence, the lookahead a statement needs to
// tell a block-scope declaration apart from an expression statement.
func (p *Parser) startsDeclaration() bool {
	switch p.cur().Kind {
	case token.TYPEDEF, token.EXTERN, token.STATIC, token.AUTO, token.REGISTER, token.INLINE,
		token.CONST, token.VOLATILE, token.RESTRICT,
		token.VOID, token.CHAR, token.SHORT, token.INT, token.LONG, token.FLOAT, token.DOUBLE,
		token.SIGNED, token.UNSIGNED, token.BOOL, token.COMPLEX, token.STRUCT, token.UNION, token.ENUM:
		return true
	case token.IDENT:
		return p.syms.IsTypedefName(p.cur().Lexeme)
	}
	return false
}

func (p *Parser) parseBlockDeclaration() ast.Statement {
	start := p.cur().Pos()
	specs := p.parseDeclarationSpecifiers()
	var decls []*ast.Declaration
	if !p.at(token.SEMI) {
		fn, name, _ := p.parseDeclarator()
		decls = append(decls, p.finishInitDeclarator(specs, fn, name))
		for {
			if _, ok := p.accept(token.COMMA); !ok {
				break
			}
			fn2, n2, _ := p.parseDeclarator()
			decls = append(decls, p.finishInitDeclarator(specs, fn2, n2))
		}
	}
	p.expect(token.SEMI)
	p.declareAll(specs, decls)
	return finish(start, p, &ast.DeclarationGroup{Decls: decls})
}

// --- statements ---------------------------------------------------------------

func (p *Parser) parseCompoundStmt() *ast.CompoundStmt {
	start := p.cur().Pos()
	p.expect(token.LBRACE)
	p.syms.PushScope(p.pos)
	var items []ast.Statement
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		before := p.pos
		items = append(items, p.parseStatement())
		if p.pos == before {
			p.advance()
		}
	}
	p.syms.PopScope()
	p.expect(token.RBRACE)
	return finish(start, p, &ast.CompoundStmt{Items: items})
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.cur().Kind {
	case token.LBRACE:
		return p.parseCompoundStmt()
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.DO:
		return p.parseDoWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.BREAK:
		start := p.advance().Pos()
		p.expect(token.SEMI)
		return finish(start, p, &ast.BreakStmt{})
	case token.CONTINUE:
		start := p.advance().Pos()
		p.expect(token.SEMI)
		return finish(start, p, &ast.ContinueStmt{})
	case token.GOTO:
		start := p.advance().Pos()
		label, _ := p.accept(token.IDENT)
		p.expect(token.SEMI)
		return finish(start, p, &ast.GotoStmt{Label: label.Lexeme})
	case token.SWITCH:
		return p.parseSwitchStmt()
	case token.CASE:
		start := p.advance().Pos()
		expr := p.parseConditionalExpr()
		p.expect(token.COLON)
		inner := p.parseStatement()
		return finish(start, p, &ast.CaseStmt{Expr: expr, Inner: inner})
	case token.DEFAULT:
		start := p.advance().Pos()
		p.expect(token.COLON)
		inner := p.parseStatement()
		return finish(start, p, &ast.CaseStmt{Inner: inner})
	case token.SEMI:
		start := p.advance().Pos()
		return finish(start, p, &ast.EmptyStmt{})
	case token.IDENT:
		if p.peekAt(1).Kind == token.COLON && !p.syms.IsTypedefName(p.cur().Lexeme) {
			start := p.cur().Pos()
			name := p.advance()
			p.advance() // colon
			inner := p.parseStatement()
			return finish(start, p, &ast.LabelStmt{Name: name.Lexeme, Inner: inner})
		}
		if p.syms.IsTypedefName(p.cur().Lexeme) {
			return p.parseBlockDeclaration()
		}
		return p.parseExprStmt()
	default:
		if p.startsDeclaration() {
			return p.parseBlockDeclaration()
		}
		return p.parseExprStmt()
	}
}

func (p *Parser) parseIfStmt() *ast.IfStmt {
	start := p.advance().Pos()
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseStatement()
	var els ast.Statement
	if _, ok := p.accept(token.ELSE); ok {
		els = p.parseStatement()
	}
	return finish(start, p, &ast.IfStmt{Cond: cond, Then: then, Else: els})
}

func (p *Parser) parseWhileStmt() *ast.WhileStmt {
	start := p.advance().Pos()
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return finish(start, p, &ast.WhileStmt{Cond: cond, Body: body})
}

func (p *Parser) parseDoWhileStmt() *ast.DoWhileStmt {
	start := p.advance().Pos()
	body := p.parseStatement()
	p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	p.expect(token.SEMI)
	return finish(start, p, &ast.DoWhileStmt{Body: body, Cond: cond})
}

func (p *Parser) parseForStmt() *ast.ForStmt {
	start := p.advance().Pos()
	p.expect(token.LPAREN)
	p.syms.PushScope(p.pos)
	var init ast.Statement
	switch {
	case p.at(token.SEMI):
		p.advance()
	case p.startsDeclaration():
		init = p.parseBlockDeclaration()
	default:
		init = p.parseExprStmt()
	}
	var cond ast.Expression
	if !p.at(token.SEMI) {
		cond = p.parseExpr()
	}
	p.expect(token.SEMI)
	var post ast.Expression
	if !p.at(token.RPAREN) {
		post = p.parseExpr()
	}
	p.expect(token.RPAREN)
	body := p.parseStatement()
	p.syms.PopScope()
	return finish(start, p, &ast.ForStmt{Init: init, Cond: cond, Post: post, Body: body})
}

func (p *Parser) parseReturnStmt() *ast.ReturnStmt {
	start := p.advance().Pos()
	var e ast.Expression
	if !p.at(token.SEMI) {
		e = p.parseExpr()
	}
	p.expect(token.SEMI)
	return finish(start, p, &ast.ReturnStmt{Expr: e})
}

func (p *Parser) parseSwitchStmt() *ast.SwitchStmt {
	start := p.advance().Pos()
	p.expect(token.LPAREN)
	e := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStatement()
	return finish(start, p, &ast.SwitchStmt{Expr: e, Body: body})
}

func (p *Parser) parseExprStmt() *ast.ExprStmt {
	start := p.cur().Pos()
	e := p.parseExpr()
	p.expect(token.SEMI)
	return finish(start, p, &ast.ExprStmt{Expr: e})
}

// --- initializers ---------------------------------------------------------

func (p *Parser) parseInitializer() ast.Initializer {
	if p.at(token.LBRACE) {
		return p.parseInitializerList()
	}
	start := p.cur().Pos()
	e := p.parseAssignExpr()
	return finish(start, p, &ast.ExprInitializer{Expr: e})
}

func (p *Parser) parseInitializerList() *ast.InitializerList {
	start := p.advance().Pos() // {
	var items []ast.InitializerListItem
	for !p.at(token.RBRACE) && !p.at(token.EOF) {
		var desig []ast.Designator
		for p.at(token.LBRACKET) || p.at(token.DOT) {
			if _, ok := p.accept(token.LBRACKET); ok {
				idx := p.parseConditionalExpr()
				p.expect(token.RBRACKET)
				desig = append(desig, ast.Designator{Index: idx})
			} else {
				p.advance() // dot
				field, _ := p.accept(token.IDENT)
				desig = append(desig, ast.Designator{IsField: true, Field: field.Lexeme})
			}
		}
		if len(desig) > 0 {
			p.expect(token.ASSIGN)
		}
		val := p.parseInitializer()
		items = append(items, ast.InitializerListItem{Designation: desig, Value: val})
		if _, ok := p.accept(token.COMMA); !ok {
			break
		}
	}
	p.expect(token.RBRACE)
	return finish(start, p, &ast.InitializerList{Items: items})
}

// --- expressions ------------------------------------------------------------

func (p *Parser) parseExpr() ast.Expression {
	start := p.cur().Pos()
	e := p.parseAssignExpr()
	for p.at(token.COMMA) {
		op := p.advance()
		rhs := p.parseAssignExpr()
		e = finish(start, p, &ast.BinaryExpr{Left: e, Right: rhs, OpToken: op, Op: op.Lexeme, Kind: ast.OpComma})
	}
	return e
}

var assignOps = map[token.Kind]bool{
	token.ASSIGN: true, token.MUL_ASSIGN: true, token.DIV_ASSIGN: true, token.MOD_ASSIGN: true,
	token.ADD_ASSIGN: true, token.SUB_ASSIGN: true, token.SHL_ASSIGN: true, token.SHR_ASSIGN: true,
	token.AND_ASSIGN: true, token.XOR_ASSIGN: true, token.OR_ASSIGN: true,
}

// parseAssignExpr is right-associative, unlike every other binary level.
func (p *Parser) parseAssignExpr() ast.Expression {
	start := p.cur().Pos()
	lhs := p.parseConditionalExpr()
	if assignOps[p.cur().Kind] {
		op := p.advance()
		rhs := p.parseAssignExpr()
		return finish(start, p, &ast.BinaryExpr{Left: lhs, Right: rhs, OpToken: op, Op: op.Lexeme, Kind: ast.OpAssignment})
	}
	return lhs
}

// parseConditionalExpr is right-associative (`a?b:c?d:e` groups as
// `a?b:(c?d:e)`).
func (p *Parser) parseConditionalExpr() ast.Expression {
	start := p.cur().Pos()
	cond := p.parseLogicalOrExpr()
	if _, ok := p.accept(token.QUESTION); ok {
		then := p.parseExpr()
		p.expect(token.COLON)
		els := p.parseConditionalExpr()
		return finish(start, p, &ast.TernaryExpr{Cond: cond, Then: then, Else: els})
	}
	return cond
}

// parseBinaryLevel is the shared shape for every left-associative binary
// precedence level: parse one operand at the next-higher level, then
// keep folding in (operator, operand) pairs at this level.
func (p *Parser) parseBinaryLevel(next func() ast.Expression, kind ast.BinaryOpKind, kinds ...token.Kind) ast.Expression {
	start := p.cur().Pos()
	lhs := next()
	for {
		matched := false
		for _, k := range kinds {
			if p.at(k) {
				matched = true
				break
			}
		}
		if !matched {
			return lhs
		}
		op := p.advance()
		rhs := next()
		lhs = finish(start, p, &ast.BinaryExpr{Left: lhs, Right: rhs, OpToken: op, Op: op.Lexeme, Kind: kind})
	}
}

func (p *Parser) parseLogicalOrExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseLogicalAndExpr, ast.OpLogical, token.LOR)
}
func (p *Parser) parseLogicalAndExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseBitOrExpr, ast.OpLogical, token.LAND)
}
func (p *Parser) parseBitOrExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseBitXorExpr, ast.OpBitwise, token.PIPE)
}
func (p *Parser) parseBitXorExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseBitAndExpr, ast.OpBitwise, token.CARET)
}
func (p *Parser) parseBitAndExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseEqualityExpr, ast.OpBitwise, token.AMP)
}
func (p *Parser) parseEqualityExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseRelationalExpr, ast.OpComparison, token.EQ, token.NE)
}
func (p *Parser) parseRelationalExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseShiftExpr, ast.OpComparison, token.LT, token.GT, token.LE, token.GE)
}
func (p *Parser) parseShiftExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseAdditiveExpr, ast.OpBitwise, token.SHL, token.SHR)
}
func (p *Parser) parseAdditiveExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseMultiplicativeExpr, ast.OpArith, token.PLUS, token.MINUS)
}
func (p *Parser) parseMultiplicativeExpr() ast.Expression {
	return p.parseBinaryLevel(p.parseCastExpr, ast.OpArith, token.STAR, token.SLASH, token.PERCENT)
}

// looksLikeTypeNameStart reports whether t can begin a type-name, the
// lookahead shared by the cast and sizeof ambiguities.
func (p *Parser) looksLikeTypeNameStart(t token.Token) bool {
	switch t.Kind {
	case token.VOID, token.CHAR, token.SHORT, token.INT, token.LONG, token.FLOAT, token.DOUBLE,
		token.SIGNED, token.UNSIGNED, token.BOOL, token.COMPLEX, token.STRUCT, token.UNION, token.ENUM,
		token.CONST, token.VOLATILE, token.RESTRICT:
		return true
	case token.IDENT:
		return p.syms.IsTypedefName(t.Lexeme)
	}
	return false
}

// parseCastExpr resolves the cast-vs-parenthesized-expression ambiguity:
// "(" may open a parenthesized expression or a cast's type-name. A
// checkpoint lets the parser try the type-name reading and fall back to
// an ordinary unary expression when that reading does not pan out (the
// type-name parse raised a diagnostic, or was not followed by ")").
func (p *Parser) parseCastExpr() ast.Expression {
	if p.at(token.LPAREN) && p.looksLikeTypeNameStart(p.peekAt(1)) {
		start := p.cur().Pos()
		cp := p.mark()
		p.advance() // (
		ty := p.parseTypeName()
		if p.at(token.RPAREN) && p.diags.Len() == cp.diagLen {
			p.advance()
			if p.at(token.LBRACE) {
				init := p.parseInitializerList()
				return finish(start, p, &ast.CompoundLiteral{Type: ty, Init: init})
			}
			operand := p.parseCastExpr()
			return finish(start, p, &ast.Cast{Type: ty, Expr: operand})
		}
		p.restore(cp)
	}
	return p.parseUnaryExpr()
}

func (p *Parser) parseUnaryExpr() ast.Expression {
	start := p.cur().Pos()
	switch p.cur().Kind {
	case token.AMP:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnAddr, Operand: p.parseCastExpr()})
	case token.STAR:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnDeref, Operand: p.parseCastExpr()})
	case token.PLUS:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnPlus, Operand: p.parseCastExpr()})
	case token.MINUS:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnMinus, Operand: p.parseCastExpr()})
	case token.TILDE:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnBitNot, Operand: p.parseCastExpr()})
	case token.NOT:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnLogNot, Operand: p.parseCastExpr()})
	case token.INC:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnPreInc, Operand: p.parseUnaryExpr()})
	case token.DEC:
		p.advance()
		return finish(start, p, &ast.UnaryExpr{Op: ast.UnPreDec, Operand: p.parseUnaryExpr()})
	case token.SIZEOF:
		return p.parseSizeofExpr()
	}
	return p.parsePostfixExpr()
}

// parseSizeofExpr resolves sizeof's type-name-vs-expression ambiguity:
// "sizeof (" may apply to a parenthesized expression or be sizeof's own
// type-name form. A checkpoint tries the type-name reading first and
// falls back to a plain unary operand when it fails.
func (p *Parser) parseSizeofExpr() ast.Expression {
	start := p.advance().Pos() // sizeof
	if p.at(token.LPAREN) && p.looksLikeTypeNameStart(p.peekAt(1)) {
		cp := p.mark()
		p.advance()
		ty := p.parseTypeName()
		if p.at(token.RPAREN) && p.diags.Len() == cp.diagLen {
			p.advance()
			return finish(start, p, &ast.SizeofType{Type: ty})
		}
		p.restore(cp)
	}
	operand := p.parseUnaryExpr()
	return finish(start, p, &ast.UnaryExpr{Op: ast.UnSizeofExpr, Operand: operand})
}

func (p *Parser) parsePostfixExpr() ast.Expression {
	start := p.cur().Pos()
	e := p.parsePrimaryExpr()
	for {
		switch p.cur().Kind {
		case token.LBRACKET:
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACKET)
			e = finish(start, p, &ast.ArraySubscript{Array: e, Index: idx})
		case token.LPAREN:
			p.advance()
			var args []ast.Expression
			if !p.at(token.RPAREN) {
				args = append(args, p.parseAssignExpr())
				for {
					if _, ok := p.accept(token.COMMA); !ok {
						break
					}
					args = append(args, p.parseAssignExpr())
				}
			}
			p.expect(token.RPAREN)
			e = finish(start, p, &ast.CallExpr{Callee: e, Args: args})
		case token.DOT:
			p.advance()
			m, _ := p.accept(token.IDENT)
			e = finish(start, p, &ast.MemberAccess{Object: e, Member: m.Lexeme})
		case token.ARROW:
			p.advance()
			m, _ := p.accept(token.IDENT)
			e = finish(start, p, &ast.MemberAccess{Object: e, Arrow: true, Member: m.Lexeme})
		case token.INC:
			p.advance()
			e = finish(start, p, &ast.UnaryExpr{Op: ast.UnPostInc, Operand: e})
		case token.DEC:
			p.advance()
			e = finish(start, p, &ast.UnaryExpr{Op: ast.UnPostDec, Operand: e})
		default:
			return e
		}
	}
}

func (p *Parser) parsePrimaryExpr() ast.Expression {
	start := p.cur().Pos()
	switch p.cur().Kind {
	case token.IDENT:
		t := p.advance()
		var ty *ctype.Type
		if sym, ok := p.syms.Lookup(t.Lexeme); ok {
			ty = sym.Type
		}
		return finish(start, p, &ast.Ident{Name: t.Lexeme, Type: ty})
	case token.INT_CONST:
		t := p.advance()
		res, err := numlit.DecodeInteger(t.Lexeme)
		if err != nil {
			p.diags.Addf(diag.IntegerConstantOutOfRange, t.Pos(), "%s", err)
			return finish(start, p, &ast.IntLiteral{Type: ctype.NewInteger(true, ctype.RankInt)})
		}
		return finish(start, p, &ast.IntLiteral{Value: res.Value, Type: res.Type})
	case token.FLOAT_CONST:
		t := p.advance()
		res, err := numlit.DecodeFloating(t.Lexeme)
		if err != nil {
			p.diags.Addf(diag.ExpectedExpression, t.Pos(), "%s", err)
			return finish(start, p, &ast.FloatLiteral{Type: ctype.NewFloating(ctype.RankDouble)})
		}
		return finish(start, p, &ast.FloatLiteral{Value: res.Value, Type: res.Type})
	case token.CHAR_CONST:
		t := p.advance()
		return finish(start, p, &ast.CharLiteral{Value: decodeCharConst(t.Lexeme)})
	case token.STRING_CONST:
		t := p.advance()
		return finish(start, p, &ast.StringLiteral{Value: t.Lexeme})
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	}
	t := p.cur()
	p.diags.Addf(diag.ExpectedExpression, t.Pos(), "expected expression, found %s %q", t.Kind, t.Lexeme)
	p.advance()
	return finish(start, p, &ast.Ident{Name: "<error>"})
}

// decodeCharConst decodes a character-constant lexeme's escape
// sequences, returning the single encoded byte's value. A multi-
// character constant (e.g. 'ab'), implementation-defined per C99
// §6.4.4.4p10, decodes to its last character's value.
func decodeCharConst(lexeme string) int64 {
	body := lexeme
	if len(body) >= 2 && body[0] == '\'' && body[len(body)-1] == '\'' {
		body = body[1 : len(body)-1]
	}
	var last byte
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' || i+1 >= len(body) {
			last = c
			continue
		}
		i++
		switch body[i] {
		case 'n':
			last = '\n'
		case 't':
			last = '\t'
		case 'r':
			last = '\r'
		case '\\':
			last = '\\'
		case '\'':
			last = '\''
		case '"':
			last = '"'
		case 'a':
			last = 7
		case 'b':
			last = 8
		case 'f':
			last = 12
		case 'v':
			last = 11
		case '0', '1', '2', '3', '4', '5', '6', '7':
			j := i
			for j < len(body) && j < i+3 && body[j] >= '0' && body[j] <= '7' {
				j++
			}
			if v, err := strconv.ParseUint(body[i:j], 8, 16); err == nil {
				last = byte(v)
			}
			i = j - 1
		case 'x':
			j := i + 1
			for j < len(body) && isHexDigit(body[j]) {
				j++
			}
			if v, err := strconv.ParseUint(body[i+1:j], 16, 8); err == nil {
				last = byte(v)
			}
			i = j - 1
		default:
			last = body[i]
		}
	}
	return int64(last)
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
