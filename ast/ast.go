// Package ast defines the C99 Abstract Syntax Tree: expression, statement,
// declaration, and external-declaration node types, each carrying a
// source Span. Node, Statement, and Expression are kept as separate
// interfaces, and each concrete type implements the marker method of
// every position it may appear in (expressionNode/statementNode/
// externalDeclNode/initializerNode; DeclarationGroup implements both
// statementNode and externalDeclNode), so the compiler enforces which
// position a node may appear in.
package ast

import (
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/span"
	"github.com/codeassociates/cfront/token"
)

// Node is the base interface for every AST node.
type Node interface {
	Pos() span.Span
}

// Expression is any node that can appear in expression position.
type Expression interface {
	Node
	expressionNode()
}

// Statement is any node that can appear in statement position.
type Statement interface {
	Node
	statementNode()
}

// Base carries the Span every node has; embedding it satisfies Pos() and
// keeps every concrete node's declaration focused on its own fields.
type Base struct {
	Span span.Span
}

func (b Base) Pos() span.Span { return b.Span }

// SetSpan lets the parser fill in a node's Span once its production is
// complete, without per-type boilerplate: every *Node embeds Base, so every
// *Node already has this method promoted.
func (b *Base) SetSpan(sp span.Span) { b.Span = sp }

// Spannable is satisfied by any *node via its embedded *Base.
type Spannable interface {
	SetSpan(span.Span)
}

// TranslationUnit is the root node: a list of external declarations.
type TranslationUnit struct {
	Base
	Decls []ExternalDecl
}

// ExternalDecl is either a FunctionDefinition or a DeclarationGroup.
type ExternalDecl interface {
	Node
	externalDeclNode()
}

// FunctionDefinition is one function's return type, name, parameters, and
// body.
type FunctionDefinition struct {
	Base
	ReturnType *ctype.Type
	Name       token.Token
	Params     []ParamDecl
	Variadic   bool
	Body       *CompoundStmt
}

func (f *FunctionDefinition) externalDeclNode() {}

// ParamDecl is one function parameter: a type and an optional name (empty
// in an abstract declarator / unnamed parameter).
type ParamDecl struct {
	Type *ctype.Type
	Name string
}

// DeclarationGroup is a list of Declarations sharing one set of
// declaration-specifiers (e.g. `int a, *b, c[3];`), the other variant of
// ExternalDecl; also used for block-scope declarations.
type DeclarationGroup struct {
	Base
	Decls []*Declaration
}

func (d *DeclarationGroup) externalDeclNode() {}
func (d *DeclarationGroup) statementNode()    {}

// Declaration is one declared name: its resolved Type, optional
// identifier token, and optional initializer.
type Declaration struct {
	Base
	Type        *ctype.Type
	Name        token.Token // zero Token when this is an abstract declarator
	Initializer Initializer // nil if absent
}

// Initializer is either an expression or a brace-enclosed, possibly
// designated, initializer list.
type Initializer interface {
	Node
	initializerNode()
}

// ExprInitializer wraps a plain expression initializer: `int x = 1;`.
type ExprInitializer struct {
	Base
	Expr Expression
}

func (e *ExprInitializer) initializerNode() {}

// Designator is one `[index]` or `.field` element of a Designation.
type Designator struct {
	IsField bool
	Field   string     // set when IsField
	Index   Expression // set when !IsField
}

// InitializerListItem is one (optional designation, initializer) pair
// inside a brace-enclosed initializer list.
type InitializerListItem struct {
	Designation []Designator // nil/empty when undesignated
	Value       Initializer
}

// InitializerList is `{ item, item, ... }`, with an optional trailing
// comma permitted before the closing brace.
type InitializerList struct {
	Base
	Items []InitializerListItem
}

func (i *InitializerList) initializerNode() {}

// --- Expressions ----------------------------------------------------------

// Ident is an identifier reference.
type Ident struct {
	Base
	Name string
	Type *ctype.Type // resolved during/after parsing when known; nil otherwise
}

func (i *Ident) expressionNode() {}

// IntLiteral is a decoded integer constant.
type IntLiteral struct {
	Base
	Value uint64
	Type  *ctype.Type
}

func (l *IntLiteral) expressionNode() {}

// FloatLiteral is a decoded floating constant.
type FloatLiteral struct {
	Base
	Value float64
	Type  *ctype.Type
}

func (l *FloatLiteral) expressionNode() {}

// CharLiteral is a decoded character constant.
type CharLiteral struct {
	Base
	Value int64
}

func (l *CharLiteral) expressionNode() {}

// StringLiteral is a string constant's raw (un-concatenated) text.
type StringLiteral struct {
	Base
	Value string
}

func (l *StringLiteral) expressionNode() {}

// BinaryOpKind is the family a BinaryExpr.Op belongs to.
type BinaryOpKind int

const (
	OpArith BinaryOpKind = iota
	OpBitwise
	OpLogical
	OpComparison
	OpAssignment
	OpComma
)

// BinaryExpr is a binary operation; associativity is encoded by how the
// parser nests Left/Right (left-associative for everything except
// assignment, which nests Right-first).
type BinaryExpr struct {
	Base
	Left, Right Expression
	OpToken     token.Token
	Op          string
	Kind        BinaryOpKind
}

func (b *BinaryExpr) expressionNode() {}

// UnaryOp enumerates the C prefix/unary operators.
type UnaryOp int

const (
	UnAddr UnaryOp = iota // &
	UnDeref
	UnPlus
	UnMinus
	UnBitNot
	UnLogNot
	UnPreInc
	UnPreDec
	UnPostInc
	UnPostDec
	UnSizeofExpr
)

type UnaryExpr struct {
	Base
	Op      UnaryOp
	Operand Expression
}

func (u *UnaryExpr) expressionNode() {}

// TernaryExpr is `cond ? then : else` (right-associative).
type TernaryExpr struct {
	Base
	Cond, Then, Else Expression
}

func (t *TernaryExpr) expressionNode() {}

// CallExpr is a function call.
type CallExpr struct {
	Base
	Callee Expression
	Args   []Expression
}

func (c *CallExpr) expressionNode() {}

// ArraySubscript is `arr[idx]`.
type ArraySubscript struct {
	Base
	Array, Index Expression
}

func (a *ArraySubscript) expressionNode() {}

// MemberAccess is `.` or `->` field access.
type MemberAccess struct {
	Base
	Object Expression
	Arrow  bool // true for "->"
	Member string
}

func (m *MemberAccess) expressionNode() {}

// SizeofType is `sizeof(type-name)`.
type SizeofType struct {
	Base
	Type *ctype.Type
}

func (s *SizeofType) expressionNode() {}

// Cast is `(type-name)expr`.
type Cast struct {
	Base
	Type *ctype.Type
	Expr Expression
}

func (c *Cast) expressionNode() {}

// CompoundLiteral is `(type-name){ initializer-list }` (C99).
type CompoundLiteral struct {
	Base
	Type *ctype.Type
	Init *InitializerList
}

func (c *CompoundLiteral) expressionNode() {}

// --- Statements -------------------------------------------------------------

type EmptyStmt struct{ Base }

func (e *EmptyStmt) statementNode() {}

// CompoundStmt is a `{ ... }` block; Items interleaves declarations and
// statements in source order.
type CompoundStmt struct {
	Base
	Items []Statement
}

func (c *CompoundStmt) statementNode() {}

type ExprStmt struct {
	Base
	Expr Expression
}

func (e *ExprStmt) statementNode() {}

type IfStmt struct {
	Base
	Cond Expression
	Then Statement
	Else Statement // nil if absent
}

func (i *IfStmt) statementNode() {}

type ReturnStmt struct {
	Base
	Expr Expression // nil for bare `return;`
}

func (r *ReturnStmt) statementNode() {}

type WhileStmt struct {
	Base
	Cond Expression
	Body Statement
}

func (w *WhileStmt) statementNode() {}

type DoWhileStmt struct {
	Base
	Body Statement
	Cond Expression
}

func (d *DoWhileStmt) statementNode() {}

// ForStmt's Init is a *DeclarationGroup, an *ExprStmt, or nil.
type ForStmt struct {
	Base
	Init Statement
	Cond Expression
	Post Expression
	Body Statement
}

func (f *ForStmt) statementNode() {}

type BreakStmt struct{ Base }

func (b *BreakStmt) statementNode() {}

type ContinueStmt struct{ Base }

func (c *ContinueStmt) statementNode() {}

type GotoStmt struct {
	Base
	Label string
}

func (g *GotoStmt) statementNode() {}

type LabelStmt struct {
	Base
	Name  string
	Inner Statement
}

func (l *LabelStmt) statementNode() {}

type SwitchStmt struct {
	Base
	Expr Expression
	Body Statement
}

func (s *SwitchStmt) statementNode() {}

type CaseStmt struct {
	Base
	Expr  Expression // nil for `default:`
	Inner Statement
}

func (c *CaseStmt) statementNode() {}
