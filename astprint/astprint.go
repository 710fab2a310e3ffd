// Package astprint renders an ast.TranslationUnit as an indented tree,
// one node per line, for the --ast CLI flag; it exists purely as a
// debugging aid and makes no claim to round-trip back to C source.
package astprint

import (
	"fmt"
	"io"
	"strings"

	"github.com/codeassociates/cfront/ast"
)

// Fprint writes the AST rooted at tu to w.
func Fprint(w io.Writer, tu *ast.TranslationUnit) {
	for _, d := range tu.Decls {
		printExternalDecl(w, d, 0)
	}
}

func indent(w io.Writer, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
}

func printExternalDecl(w io.Writer, d ast.ExternalDecl, depth int) {
	switch n := d.(type) {
	case *ast.FunctionDefinition:
		indent(w, depth)
		fmt.Fprintf(w, "FunctionDefinition %s -> %s\n", n.Name.Lexeme, n.ReturnType)
		for _, p := range n.Params {
			indent(w, depth+1)
			fmt.Fprintf(w, "Param %s: %s\n", p.Name, p.Type)
		}
		if n.Body != nil {
			printStmt(w, n.Body, depth+1)
		}
	case *ast.DeclarationGroup:
		printDeclarationGroup(w, n, depth)
	default:
		indent(w, depth)
		fmt.Fprintf(w, "<unknown external decl %T>\n", d)
	}
}

func printDeclarationGroup(w io.Writer, g *ast.DeclarationGroup, depth int) {
	indent(w, depth)
	fmt.Fprintln(w, "DeclarationGroup")
	for _, decl := range g.Decls {
		indent(w, depth+1)
		fmt.Fprintf(w, "Declaration %s: %s\n", decl.Name.Lexeme, decl.Type)
		if decl.Initializer != nil {
			printInitializer(w, decl.Initializer, depth+2)
		}
	}
}

func printInitializer(w io.Writer, init ast.Initializer, depth int) {
	switch n := init.(type) {
	case *ast.ExprInitializer:
		printExpr(w, n.Expr, depth)
	case *ast.InitializerList:
		indent(w, depth)
		fmt.Fprintln(w, "InitializerList")
		for _, item := range n.Items {
			printInitializer(w, item.Value, depth+1)
		}
	default:
		indent(w, depth)
		fmt.Fprintf(w, "<unknown initializer %T>\n", init)
	}
}

func printStmt(w io.Writer, s ast.Statement, depth int) {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		indent(w, depth)
		fmt.Fprintln(w, "CompoundStmt")
		for _, item := range n.Items {
			printStmt(w, item, depth+1)
		}
	case *ast.DeclarationGroup:
		printDeclarationGroup(w, n, depth)
	case *ast.ExprStmt:
		indent(w, depth)
		fmt.Fprintln(w, "ExprStmt")
		printExpr(w, n.Expr, depth+1)
	case *ast.EmptyStmt:
		indent(w, depth)
		fmt.Fprintln(w, "EmptyStmt")
	case *ast.IfStmt:
		indent(w, depth)
		fmt.Fprintln(w, "IfStmt")
		printExpr(w, n.Cond, depth+1)
		printStmt(w, n.Then, depth+1)
		if n.Else != nil {
			printStmt(w, n.Else, depth+1)
		}
	case *ast.ReturnStmt:
		indent(w, depth)
		fmt.Fprintln(w, "ReturnStmt")
		if n.Expr != nil {
			printExpr(w, n.Expr, depth+1)
		}
	case *ast.WhileStmt:
		indent(w, depth)
		fmt.Fprintln(w, "WhileStmt")
		printExpr(w, n.Cond, depth+1)
		printStmt(w, n.Body, depth+1)
	case *ast.DoWhileStmt:
		indent(w, depth)
		fmt.Fprintln(w, "DoWhileStmt")
		printStmt(w, n.Body, depth+1)
		printExpr(w, n.Cond, depth+1)
	case *ast.ForStmt:
		indent(w, depth)
		fmt.Fprintln(w, "ForStmt")
		if n.Init != nil {
			printStmt(w, n.Init, depth+1)
		}
		if n.Cond != nil {
			printExpr(w, n.Cond, depth+1)
		}
		if n.Post != nil {
			printExpr(w, n.Post, depth+1)
		}
		printStmt(w, n.Body, depth+1)
	case *ast.BreakStmt:
		indent(w, depth)
		fmt.Fprintln(w, "BreakStmt")
	case *ast.ContinueStmt:
		indent(w, depth)
		fmt.Fprintln(w, "ContinueStmt")
	case *ast.GotoStmt:
		indent(w, depth)
		fmt.Fprintf(w, "GotoStmt %s\n", n.Label)
	case *ast.LabelStmt:
		indent(w, depth)
		fmt.Fprintf(w, "LabelStmt %s\n", n.Name)
		printStmt(w, n.Inner, depth+1)
	case *ast.SwitchStmt:
		indent(w, depth)
		fmt.Fprintln(w, "SwitchStmt")
		printExpr(w, n.Expr, depth+1)
		printStmt(w, n.Body, depth+1)
	case *ast.CaseStmt:
		indent(w, depth)
		fmt.Fprintln(w, "CaseStmt")
		if n.Expr != nil {
			printExpr(w, n.Expr, depth+1)
		}
		printStmt(w, n.Inner, depth+1)
	default:
		indent(w, depth)
		fmt.Fprintf(w, "<unknown statement %T>\n", s)
	}
}

func printExpr(w io.Writer, e ast.Expression, depth int) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *ast.Ident:
		indent(w, depth)
		fmt.Fprintf(w, "Ident %s\n", n.Name)
	case *ast.IntLiteral:
		indent(w, depth)
		fmt.Fprintf(w, "IntLiteral %d\n", n.Value)
	case *ast.FloatLiteral:
		indent(w, depth)
		fmt.Fprintf(w, "FloatLiteral %g\n", n.Value)
	case *ast.CharLiteral:
		indent(w, depth)
		fmt.Fprintf(w, "CharLiteral %d\n", n.Value)
	case *ast.StringLiteral:
		indent(w, depth)
		fmt.Fprintf(w, "StringLiteral %q\n", n.Value)
	case *ast.BinaryExpr:
		indent(w, depth)
		fmt.Fprintf(w, "BinaryExpr %s\n", n.Op)
		printExpr(w, n.Left, depth+1)
		printExpr(w, n.Right, depth+1)
	case *ast.UnaryExpr:
		indent(w, depth)
		fmt.Fprintln(w, "UnaryExpr")
		printExpr(w, n.Operand, depth+1)
	case *ast.TernaryExpr:
		indent(w, depth)
		fmt.Fprintln(w, "TernaryExpr")
		printExpr(w, n.Cond, depth+1)
		printExpr(w, n.Then, depth+1)
		printExpr(w, n.Else, depth+1)
	case *ast.CallExpr:
		indent(w, depth)
		fmt.Fprintln(w, "CallExpr")
		printExpr(w, n.Callee, depth+1)
		for _, a := range n.Args {
			printExpr(w, a, depth+1)
		}
	case *ast.ArraySubscript:
		indent(w, depth)
		fmt.Fprintln(w, "ArraySubscript")
		printExpr(w, n.Array, depth+1)
		printExpr(w, n.Index, depth+1)
	case *ast.MemberAccess:
		indent(w, depth)
		fmt.Fprintf(w, "MemberAccess .%s\n", n.Member)
		printExpr(w, n.Object, depth+1)
	case *ast.SizeofType:
		indent(w, depth)
		fmt.Fprintf(w, "SizeofType %s\n", n.Type)
	case *ast.Cast:
		indent(w, depth)
		fmt.Fprintf(w, "Cast %s\n", n.Type)
		printExpr(w, n.Expr, depth+1)
	case *ast.CompoundLiteral:
		indent(w, depth)
		fmt.Fprintf(w, "CompoundLiteral %s\n", n.Type)
		printInitializer(w, n.Init, depth+1)
	default:
		indent(w, depth)
		fmt.Fprintf(w, "<unknown expression %T>\n", e)
	}
}
