package lexer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/codeassociates/cfront/diag"
	"github.com/codeassociates/cfront/token"
)

func newTestGlobal() *LexerGlobalContext {
	return NewGlobalContext(nil, nil, nil, &diag.Bag{})
}

func TestBasicTokens(t *testing.T) {
	input := `int x = 5;`
	tests := []struct {
		kind   token.Kind
		lexeme string
	}{
		{token.INT, "int"},
		{token.IDENT, "x"},
		{token.ASSIGN, "="},
		{token.INT_CONST, "5"},
		{token.SEMI, ";"},
		{token.EOF, ""},
	}

	l := New("t.c", []byte(input), newTestGlobal())
	for i, tt := range tests {
		tok := l.Scan()
		if tok.Kind != tt.kind {
			t.Fatalf("tests[%d]: kind = %v, want %v (lexeme %q)", i, tok.Kind, tt.kind, tok.Lexeme)
		}
		if tok.Lexeme != tt.lexeme {
			t.Fatalf("tests[%d]: lexeme = %q, want %q", i, tok.Lexeme, tt.lexeme)
		}
	}
}

func TestKeywordVsIdentifier(t *testing.T) {
	l := New("t.c", []byte("typedef struct Foo foo;"), newTestGlobal())
	want := []token.Kind{token.TYPEDEF, token.STRUCT, token.IDENT, token.IDENT, token.SEMI, token.EOF}
	for i, w := range want {
		tok := l.Scan()
		if tok.Kind != w {
			t.Fatalf("token %d: got %v want %v", i, tok.Kind, w)
		}
	}
}

func TestPunctuatorLongestMatch(t *testing.T) {
	cases := []struct {
		src  string
		kind token.Kind
	}{
		{"<<=", token.SHL_ASSIGN},
		{">>=", token.SHR_ASSIGN},
		{"->", token.ARROW},
		{"...", token.ELLIPSIS},
		{"==", token.EQ},
		{"<=", token.LE},
		{"++", token.INC},
		{"&&", token.LAND},
	}
	for _, c := range cases {
		l := New("t.c", []byte(c.src), newTestGlobal())
		tok := l.Scan()
		if tok.Kind != c.kind || tok.Lexeme != c.src {
			t.Errorf("scanning %q: got kind=%v lexeme=%q, want kind=%v", c.src, tok.Kind, tok.Lexeme, c.kind)
		}
	}
}

func TestCommentsSkipped(t *testing.T) {
	src := "int /* block\ncomment */ x; // trailing\n"
	l := New("t.c", []byte(src), newTestGlobal())
	want := []token.Kind{token.INT, token.IDENT, token.SEMI, token.EOF}
	for i, w := range want {
		tok := l.Scan()
		if tok.Kind != w {
			t.Fatalf("token %d: got %v want %v", i, tok.Kind, w)
		}
	}
}

func TestEOFIdempotence(t *testing.T) {
	l := New("t.c", []byte("x"), newTestGlobal())
	l.Scan() // IDENT x
	first := l.Scan()
	if first.Kind != token.EOF {
		t.Fatalf("expected EOF, got %v", first.Kind)
	}
	second := l.Scan()
	if second.Kind != token.EOF || second.Span != first.Span {
		t.Fatalf("EOF not idempotent: first=%+v second=%+v", first, second)
	}
}

func TestLexerDeterminism(t *testing.T) {
	src := "int f(int a, int b) { return a + b * 2; }"
	run := func() []token.Kind {
		l := New("t.c", []byte(src), newTestGlobal())
		var kinds []token.Kind
		for {
			tok := l.Scan()
			kinds = append(kinds, tok.Kind)
			if tok.Kind == token.EOF {
				break
			}
		}
		return kinds
	}
	a, b := run(), run()
	if len(a) != len(b) {
		t.Fatalf("non-deterministic token counts: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d differs: %v vs %v", i, a[i], b[i])
		}
	}
}

func TestObjectLikeMacroExpansion(t *testing.T) {
	src := "#define SIZE 10\nint arr[SIZE];\n"
	g := newTestGlobal()
	l := New("t.c", []byte(src), g)
	want := []token.Kind{token.INT, token.IDENT, token.LBRACKET, token.INT_CONST, token.RBRACKET, token.SEMI, token.EOF}
	for i, w := range want {
		tok := l.Scan()
		if tok.Kind != w {
			t.Fatalf("token %d: got %v want %v", i, tok.Kind, w)
		}
	}
	if _, ok := g.Macros["SIZE"]; !ok {
		t.Fatal("expected SIZE to be recorded in the macro table")
	}
}

func TestIfdefExcludesInactiveRegion(t *testing.T) {
	src := "#ifdef NOT_DEFINED\nint excluded;\n#else\nint included;\n#endif\n"
	l := New("t.c", []byte(src), newTestGlobal())
	tok := l.Scan()
	if tok.Kind != token.INT {
		t.Fatalf("expected int, got %v", tok.Kind)
	}
	tok = l.Scan()
	if tok.Kind != token.IDENT || tok.Lexeme != "included" {
		t.Fatalf("expected identifier 'included', got %v %q", tok.Kind, tok.Lexeme)
	}
}

func TestIncludeNesting(t *testing.T) {
	dir := t.TempDir()
	headerPath := filepath.Join(dir, "header.h")
	if err := os.WriteFile(headerPath, []byte("int from_header;\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	mainPath := filepath.Join(dir, "main.c")
	src := "#include \"header.h\"\nint from_main;\n"
	if err := os.WriteFile(mainPath, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	g := newTestGlobal()
	l, err := NewFile(mainPath, g)
	if err != nil {
		t.Fatal(err)
	}

	var idents []string
	for {
		tok := l.Scan()
		if tok.Kind == token.EOF {
			break
		}
		if tok.Kind == token.IDENT {
			idents = append(idents, tok.Lexeme)
		}
	}
	want := []string{"from_header", "from_main"}
	if len(idents) != len(want) {
		t.Fatalf("idents = %v, want %v", idents, want)
	}
	for i := range want {
		if idents[i] != want[i] {
			t.Fatalf("idents[%d] = %q, want %q", i, idents[i], want[i])
		}
	}
}

func TestCircularIncludeDetected(t *testing.T) {
	dir := t.TempDir()
	aPath := filepath.Join(dir, "a.h")
	bPath := filepath.Join(dir, "b.h")
	os.WriteFile(aPath, []byte("#include \"b.h\"\nint a;\n"), 0o644)
	os.WriteFile(bPath, []byte("#include \"a.h\"\nint b;\n"), 0o644)

	g := newTestGlobal()
	l, err := NewFile(aPath, g)
	if err != nil {
		t.Fatal(err)
	}
	for {
		tok := l.Scan()
		if tok.Kind == token.EOF {
			break
		}
	}
	if g.Diags.Len() == 0 {
		t.Fatal("expected a circular-include diagnostic")
	}
}

func TestUnterminatedStringRecovers(t *testing.T) {
	g := newTestGlobal()
	l := New("t.c", []byte("\"abc\nint x;"), g)
	tok := l.Scan()
	if tok.Kind != token.STRING_CONST {
		t.Fatalf("expected STRING_CONST, got %v", tok.Kind)
	}
	if g.Diags.Len() == 0 {
		t.Fatal("expected unterminated-string diagnostic")
	}
	// Lexing continues after the error via best-effort recovery.
	tok = l.Scan()
	if tok.Kind != token.INT {
		t.Fatalf("expected recovery to continue with INT, got %v", tok.Kind)
	}
}
