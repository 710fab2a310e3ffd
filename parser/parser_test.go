package parser

import (
	"testing"

	"github.com/codeassociates/cfront/ast"
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/diag"
	"github.com/codeassociates/cfront/lexer"
)

func parseSource(t *testing.T, src string) (*ast.TranslationUnit, *diag.Bag) {
	t.Helper()
	diags := &diag.Bag{}
	global := lexer.NewGlobalContext(nil, nil, nil, diags)
	toks := lexer.Tokenize("test.c", []byte(src), global)
	p := New(toks, diags)
	tu := p.Parse()
	return tu, diags
}

func firstFunc(t *testing.T, tu *ast.TranslationUnit) *ast.FunctionDefinition {
	t.Helper()
	for _, d := range tu.Decls {
		if fd, ok := d.(*ast.FunctionDefinition); ok {
			return fd
		}
	}
	t.Fatalf("no function definition found in %+v", tu.Decls)
	return nil
}

func bodyItem(t *testing.T, fn *ast.FunctionDefinition, i int) ast.Statement {
	t.Helper()
	if i >= len(fn.Body.Items) {
		t.Fatalf("function body has %d items, want index %d", len(fn.Body.Items), i)
	}
	return fn.Body.Items[i]
}

// TestTypedefVsMultiplication covers typedef-name lookup: once foo
// is a typedef-name, "foo * bar;" parses as a pointer declaration rather
// than a multiplication expression.
func TestTypedefVsMultiplication(t *testing.T) {
	tu, diags := parseSource(t, `
typedef int foo;
void f(void) {
	foo * bar;
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	fn := firstFunc(t, tu)
	decl, ok := bodyItem(t, fn, 0).(*ast.DeclarationGroup)
	if !ok {
		t.Fatalf("expected a DeclarationGroup (foo * bar as a pointer decl), got %T", bodyItem(t, fn, 0))
	}
	if len(decl.Decls) != 1 || decl.Decls[0].Name.Lexeme != "bar" {
		t.Fatalf("expected one declared name %q, got %+v", "bar", decl.Decls)
	}
	if !ctype.IsPointerType(decl.Decls[0].Type) {
		t.Fatalf("declared type = %s, want a pointer type", decl.Decls[0].Type)
	}
}

// Without the typedef, the identical token sequence is a multiplication
// expression statement instead.
func TestPlainIdentifierIsMultiplicationNotDeclaration(t *testing.T) {
	tu, diags := parseSource(t, `
void f(int foo, int bar) {
	foo * bar;
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	fn := firstFunc(t, tu)
	stmt, ok := bodyItem(t, fn, 0).(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt (foo * bar as multiplication), got %T", bodyItem(t, fn, 0))
	}
	bin, ok := stmt.Expr.(*ast.BinaryExpr)
	if !ok || bin.Op != "*" {
		t.Fatalf("expected a '*' BinaryExpr, got %+v", stmt.Expr)
	}
}

// TestTypedefShadowedByParameter covers typedef shadowing: a
// parameter named the same as an outer typedef shadows it for the rest of
// the function body, so "foo * 2" inside is multiplication again.
func TestTypedefShadowedByParameter(t *testing.T) {
	tu, diags := parseSource(t, `
typedef int foo;
void f(int foo) {
	foo * 2;
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	fn := firstFunc(t, tu)
	stmt, ok := bodyItem(t, fn, 0).(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected an ExprStmt once foo is shadowed by a parameter, got %T", bodyItem(t, fn, 0))
	}
	if _, ok := stmt.Expr.(*ast.BinaryExpr); !ok {
		t.Fatalf("expected a BinaryExpr, got %+v", stmt.Expr)
	}
}

// TestIntegerConstantTypeSelection covers integer constant typing: a
// decimal constant too large for int is typed long under this model's
// 32-bit-int/64-bit-long candidate table.
func TestIntegerConstantTypeSelection(t *testing.T) {
	tu, diags := parseSource(t, `
void f(void) {
	2147483648;
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	fn := firstFunc(t, tu)
	stmt := bodyItem(t, fn, 0).(*ast.ExprStmt)
	lit, ok := stmt.Expr.(*ast.IntLiteral)
	if !ok {
		t.Fatalf("expected an IntLiteral, got %T", stmt.Expr)
	}
	if lit.Value != 2147483648 {
		t.Errorf("Value = %d, want 2147483648", lit.Value)
	}
	if lit.Type.Kind != ctype.Integer || lit.Type.IntRank != ctype.RankLong || !lit.Type.IntSigned {
		t.Errorf("Type = %s, want signed long", lit.Type)
	}
}

// TestSizeofDisambiguation covers the sizeof ambiguity in both
// directions: sizeof applied to a parenthesized type-name vs. a
// parenthesized expression.
func TestSizeofDisambiguation(t *testing.T) {
	t.Run("type form", func(t *testing.T) {
		tu, diags := parseSource(t, `
void f(void) {
	sizeof(int);
}
`)
		if diags.ErrorCount() != 0 {
			t.Fatalf("unexpected diagnostics: %v", diags.All())
		}
		fn := firstFunc(t, tu)
		stmt := bodyItem(t, fn, 0).(*ast.ExprStmt)
		st, ok := stmt.Expr.(*ast.SizeofType)
		if !ok {
			t.Fatalf("expected SizeofType, got %T", stmt.Expr)
		}
		if st.Type.Kind != ctype.Integer || st.Type.IntRank != ctype.RankInt {
			t.Errorf("Type = %s, want int", st.Type)
		}
	})

	t.Run("expression form", func(t *testing.T) {
		tu, diags := parseSource(t, `
void f(int x) {
	sizeof(x);
}
`)
		if diags.ErrorCount() != 0 {
			t.Fatalf("unexpected diagnostics: %v", diags.All())
		}
		fn := firstFunc(t, tu)
		stmt := bodyItem(t, fn, 0).(*ast.ExprStmt)
		un, ok := stmt.Expr.(*ast.UnaryExpr)
		if !ok || un.Op != ast.UnSizeofExpr {
			t.Fatalf("expected a UnSizeofExpr UnaryExpr, got %+v", stmt.Expr)
		}
		if _, ok := un.Operand.(*ast.Ident); !ok {
			t.Errorf("sizeof operand = %T, want *ast.Ident", un.Operand)
		}
	})
}

// TestDeclaratorDecoding covers the array-of-pointer-to-function shape.
func TestDeclaratorDecoding(t *testing.T) {
	tu, diags := parseSource(t, `int (*foo[2])(void);`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	group := tu.Decls[0].(*ast.DeclarationGroup)
	decl := group.Decls[0]
	if decl.Name.Lexeme != "foo" {
		t.Fatalf("declared name = %q, want foo", decl.Name.Lexeme)
	}
	ty := decl.Type
	if ty.Kind != ctype.Array {
		t.Fatalf("outermost type = %s, want an array", ty)
	}
	if ty.Element.Kind != ctype.Pointer {
		t.Fatalf("array element type = %s, want a pointer", ty.Element)
	}
	if ty.Element.Pointee.Kind != ctype.Function {
		t.Fatalf("pointee type = %s, want a function", ty.Element.Pointee)
	}
	if ty.Element.Pointee.Return.Kind != ctype.Integer {
		t.Fatalf("function return type = %s, want int", ty.Element.Pointee.Return)
	}
}

// TestPointerToArrayIsDistinctFromArrayOfPointer contrasts "(*a)[3]" with
// "*b[3]" to check the declarator-closure composition order.
func TestPointerToArrayIsDistinctFromArrayOfPointer(t *testing.T) {
	tu, diags := parseSource(t, `int (*a)[3]; int *b[3];`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	aType := tu.Decls[0].(*ast.DeclarationGroup).Decls[0].Type
	if aType.Kind != ctype.Pointer || aType.Pointee.Kind != ctype.Array {
		t.Fatalf("a's type = %s, want pointer to array", aType)
	}
	bType := tu.Decls[1].(*ast.DeclarationGroup).Decls[0].Type
	if bType.Kind != ctype.Array || bType.Element.Kind != ctype.Pointer {
		t.Fatalf("b's type = %s, want array of pointer", bType)
	}
}

// TestFunctionPointerDeclarator covers "int *(*fp)(void)": a pointer to a
// function returning a pointer to int.
func TestFunctionPointerDeclarator(t *testing.T) {
	tu, diags := parseSource(t, `int *(*fp)(void);`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	ty := tu.Decls[0].(*ast.DeclarationGroup).Decls[0].Type
	if ty.Kind != ctype.Pointer || ty.Pointee.Kind != ctype.Function {
		t.Fatalf("fp's type = %s, want pointer to function", ty)
	}
	ret := ty.Pointee.Return
	if ret.Kind != ctype.Pointer || ret.Pointee.Kind != ctype.Integer {
		t.Fatalf("fp's return type = %s, want pointer to int", ret)
	}
}

// TestParenthesizedNonTypedefIsNotCast checks that "(notatype)(1)" is not
// read as a cast: notatype is an ordinary identifier, not a typedef-name,
// so no type-name reading is attempted and the parser yields a
// parenthesized expression followed by a call, with no diagnostics.
func TestParenthesizedNonTypedefIsNotCast(t *testing.T) {
	tu, diags := parseSource(t, `
int notatype;
void f(void) {
	(notatype)(1);
}
`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("expected no diagnostics for a parenthesized non-typedef identifier, got: %v", diags.All())
	}
	fn := firstFunc(t, tu)
	stmt := bodyItem(t, fn, 0).(*ast.ExprStmt)
	call, ok := stmt.Expr.(*ast.CallExpr)
	if !ok {
		t.Fatalf("expected a CallExpr (parenthesized callee), got %T", stmt.Expr)
	}
	if _, ok := call.Callee.(*ast.Ident); !ok {
		t.Errorf("callee = %T, want *ast.Ident", call.Callee)
	}
}

// TestParameterDeclaratorAmbiguityFallsBackToAbstract exercises
// parseParameterDeclarator with a bare type-name parameter: the
// speculative declarator parse succeeds with an empty abstract
// declarator, so no diagnostic is raised and no restore happens.
func TestParameterDeclaratorAmbiguityFallsBackToAbstract(t *testing.T) {
	tu, diags := parseSource(t, `void f(int);`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	fn, ok := tu.Decls[0].(*ast.DeclarationGroup)
	if !ok {
		t.Fatalf("expected a DeclarationGroup, got %T", tu.Decls[0])
	}
	ty := fn.Decls[0].Type
	if ty.Kind != ctype.Function || len(ty.Params) != 1 || ty.Params[0].Name != "" {
		t.Fatalf("type = %s, want a function of one unnamed int parameter", ty)
	}
}

// TestSpanCoversWholeDeclaration checks the span-union invariant: a
// DeclarationGroup's span starts at its first token and ends past its
// first-column start.
func TestSpanCoversWholeDeclaration(t *testing.T) {
	tu, diags := parseSource(t, `int x = 1;`)
	if diags.ErrorCount() != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags.All())
	}
	group := tu.Decls[0].(*ast.DeclarationGroup)
	sp := group.Pos()
	if sp.Start.Column != 1 {
		t.Errorf("span start column = %d, want 1 (the 'int' keyword)", sp.Start.Column)
	}
	if sp.End.Column <= sp.Start.Column {
		t.Errorf("span end column %d should be past the start column %d", sp.End.Column, sp.Start.Column)
	}
}

// TestMalformedExternalDeclarationRecovers checks that a single garbled
// top-level token doesn't abort the whole parse: the parser reports a
// diagnostic and still recovers enough to parse the function after it.
func TestMalformedExternalDeclarationRecovers(t *testing.T) {
	tu, diags := parseSource(t, `
);
void f(void) {}
`)
	if diags.ErrorCount() == 0 {
		t.Fatalf("expected at least one diagnostic for the stray ')'")
	}
	if firstFunc(t, tu) == nil {
		t.Fatalf("expected the function after the garbled token to still parse")
	}
}
