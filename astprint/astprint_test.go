package astprint

import (
	"bytes"
	"strings"
	"testing"

	"github.com/codeassociates/cfront/ast"
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/token"
)

func TestFprintFunctionDefinition(t *testing.T) {
	it := ctype.NewInteger(true, ctype.RankInt)
	tu := &ast.TranslationUnit{
		Decls: []ast.ExternalDecl{
			&ast.FunctionDefinition{
				ReturnType: it,
				Name:       token.Token{Lexeme: "main"},
				Body: &ast.CompoundStmt{
					Items: []ast.Statement{
						&ast.ReturnStmt{Expr: &ast.IntLiteral{Value: 0, Type: it}},
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	Fprint(&buf, tu)
	out := buf.String()

	for _, want := range []string{"FunctionDefinition main", "ReturnStmt", "IntLiteral 0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q, got:\n%s", want, out)
		}
	}
}
