package demogen

import (
	"testing"

	"github.com/codeassociates/cfront/ast"
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/ir"
	"github.com/codeassociates/cfront/token"
)

func intType() *ctype.Type { return ctype.NewInteger(true, ctype.RankInt) }

func ident(name string, t *ctype.Type) *ast.Ident { return &ast.Ident{Name: name, Type: t} }

func intLit(v uint64) *ast.IntLiteral { return &ast.IntLiteral{Value: v, Type: intType()} }

// int add(int a, int b) { return a + b; }
func TestBuildSimpleReturn(t *testing.T) {
	fn := &ast.FunctionDefinition{
		ReturnType: intType(),
		Name:       token.Token{Lexeme: "add"},
		Params: []ast.ParamDecl{
			{Name: "a", Type: intType()},
			{Name: "b", Type: intType()},
		},
		Body: &ast.CompoundStmt{
			Items: []ast.Statement{
				&ast.ReturnStmt{
					Expr: &ast.BinaryExpr{
						Left: ident("a", intType()), Right: ident("b", intType()),
						Op: "+", Kind: ast.OpArith,
					},
				},
			},
		},
	}

	instrs, err := Build(fn)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if len(instrs) != 2 {
		t.Fatalf("len(instrs) = %d, want 2 (add, ret)", len(instrs))
	}
	if instrs[0].Op != ir.Add {
		t.Errorf("instrs[0].Op = %v, want Add", instrs[0].Op)
	}
	if instrs[1].Op != ir.Ret {
		t.Errorf("instrs[1].Op = %v, want Ret", instrs[1].Op)
	}
}

// int f(void) { int x = 1; if (x) { return x; } return 0; }
func TestBuildDeclareAndIf(t *testing.T) {
	fn := &ast.FunctionDefinition{
		ReturnType: intType(),
		Name:       token.Token{Lexeme: "f"},
		Body: &ast.CompoundStmt{
			Items: []ast.Statement{
				&ast.DeclarationGroup{Decls: []*ast.Declaration{
					{
						Type: intType(), Name: token.Token{Lexeme: "x"},
						Initializer: &ast.ExprInitializer{Expr: intLit(1)},
					},
				}},
				&ast.IfStmt{
					Cond: ident("x", intType()),
					Then: &ast.CompoundStmt{Items: []ast.Statement{
						&ast.ReturnStmt{Expr: ident("x", intType())},
					}},
				},
				&ast.ReturnStmt{Expr: intLit(0)},
			},
		},
	}

	instrs, err := Build(fn)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	var sawAlloca, sawStore, sawBrCond, sawRet bool
	for _, instr := range instrs {
		switch instr.Op {
		case ir.Alloca:
			sawAlloca = true
		case ir.Store:
			sawStore = true
		case ir.BrCond:
			sawBrCond = true
		case ir.Ret:
			sawRet = true
		}
	}
	if !sawAlloca || !sawStore || !sawBrCond || !sawRet {
		t.Fatalf("instrs missing expected opcodes: %+v", instrs)
	}
}

// int loop(void) { int i = 0; while (i) { i = i; } return 0; }
func TestBuildWhileLoop(t *testing.T) {
	fn := &ast.FunctionDefinition{
		ReturnType: intType(),
		Name:       token.Token{Lexeme: "loop"},
		Body: &ast.CompoundStmt{
			Items: []ast.Statement{
				&ast.DeclarationGroup{Decls: []*ast.Declaration{
					{
						Type: intType(), Name: token.Token{Lexeme: "i"},
						Initializer: &ast.ExprInitializer{Expr: intLit(0)},
					},
				}},
				&ast.WhileStmt{
					Cond: ident("i", intType()),
					Body: &ast.ExprStmt{Expr: &ast.BinaryExpr{
						Left: ident("i", intType()), Right: ident("i", intType()),
						Op: "=", Kind: ast.OpAssignment,
					}},
				},
				&ast.ReturnStmt{Expr: intLit(0)},
			},
		},
	}

	instrs, err := Build(fn)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	count := 0
	for _, instr := range instrs {
		if instr.Op == ir.Br {
			count++
		}
	}
	if count < 2 {
		t.Fatalf("expected at least 2 unconditional branches in a while loop, got %d in %+v", count, instrs)
	}
}

func TestBuildRejectsUnsupportedStatement(t *testing.T) {
	fn := &ast.FunctionDefinition{
		ReturnType: intType(),
		Name:       token.Token{Lexeme: "g"},
		Body: &ast.CompoundStmt{
			Items: []ast.Statement{
				&ast.GotoStmt{Label: "nowhere"},
			},
		},
	}
	if _, err := Build(fn); err == nil {
		t.Fatalf("Build() with a goto statement should report an error")
	}
}
