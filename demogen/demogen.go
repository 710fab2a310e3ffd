// Package demogen is a minimal, explicitly non-exhaustive AST→IR walker.
// It exists only so irbuilder has at least one exercised, non-synthetic
// caller: a real code generator is an external collaborator and is out
// of scope here, but something inside this module still has to drive
// position_at_end/the typed opcode constructors the way that collaborator
// would. demogen covers scalar declarations, arithmetic/bitwise/
// comparison/assignment expressions, calls, and the if/while/for/return
// control-flow shapes; anything else (switch, goto, compound literals,
// struct/union member access, the logical operators &&, || and !)
// reports an error naming the unsupported construct
// rather than silently emitting nothing.
package demogen

import (
	"fmt"

	"github.com/codeassociates/cfront/ast"
	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/ir"
	"github.com/codeassociates/cfront/irbuilder"
)

// Walker threads a single function definition onto an irbuilder.Builder.
type Walker struct {
	b         *irbuilder.Builder
	vars      map[string]ir.Value // name -> current SSA-less storage pointer or value
	ptrs      map[string]ir.Value // name -> alloca'd pointer, for declarations
	tmp       int
	label     int
	breakTo   []string
	continueTo []string
}

// New creates a Walker over a fresh Builder.
func New() *Walker {
	return &Walker{
		b:    irbuilder.New(),
		vars: make(map[string]ir.Value),
		ptrs: make(map[string]ir.Value),
	}
}

func (w *Walker) newTemp(t *ctype.Type) ir.Value {
	w.tmp++
	return ir.NewVar(t, fmt.Sprintf("%%t%d", w.tmp))
}

func (w *Walker) newLabel(prefix string) string {
	w.label++
	return fmt.Sprintf("%s%d", prefix, w.label)
}

// Build walks fn's body and returns the finalized instruction list.
func Build(fn *ast.FunctionDefinition) ([]ir.Instruction, error) {
	w := New()
	w.b.PositionAtEnd()

	for _, p := range fn.Params {
		if p.Name == "" {
			continue
		}
		w.vars[p.Name] = ir.NewVar(p.Type, p.Name)
	}

	if fn.Body != nil {
		if err := w.stmt(fn.Body); err != nil {
			w.b.Destroy()
			return nil, err
		}
	}
	return w.b.Finalize(), nil
}

func (w *Walker) stmt(s ast.Statement) error {
	switch n := s.(type) {
	case *ast.CompoundStmt:
		for _, item := range n.Items {
			if err := w.stmt(item); err != nil {
				return err
			}
		}
		return nil

	case *ast.DeclarationGroup:
		for _, d := range n.Decls {
			if err := w.declare(d); err != nil {
				return err
			}
		}
		return nil

	case *ast.ExprStmt:
		_, err := w.expr(n.Expr)
		return err

	case *ast.EmptyStmt:
		return nil

	case *ast.ReturnStmt:
		if n.Expr == nil {
			w.b.Ret(nil)
			return nil
		}
		v, err := w.expr(n.Expr)
		if err != nil {
			return err
		}
		w.b.Ret(&v)
		return nil

	case *ast.IfStmt:
		return w.ifStmt(n)

	case *ast.WhileStmt:
		return w.whileStmt(n)

	case *ast.DoWhileStmt:
		return w.doWhileStmt(n)

	case *ast.ForStmt:
		return w.forStmt(n)

	case *ast.BreakStmt:
		if len(w.breakTo) == 0 {
			return fmt.Errorf("demogen: break outside a loop")
		}
		w.b.Br(w.breakTo[len(w.breakTo)-1])
		return nil

	case *ast.ContinueStmt:
		if len(w.continueTo) == 0 {
			return fmt.Errorf("demogen: continue outside a loop")
		}
		w.b.Br(w.continueTo[len(w.continueTo)-1])
		return nil

	default:
		return fmt.Errorf("demogen: unsupported statement %T", s)
	}
}

func (w *Walker) declare(d *ast.Declaration) error {
	if d.Name.Lexeme == "" {
		return nil
	}
	ptr := ir.NewVar(ctype.GetPtrType(d.Type), "%"+d.Name.Lexeme+".addr")
	w.b.Alloca(ptr)
	w.ptrs[d.Name.Lexeme] = ptr
	w.vars[d.Name.Lexeme] = ptr

	if d.Initializer == nil {
		return nil
	}
	init, ok := d.Initializer.(*ast.ExprInitializer)
	if !ok {
		return fmt.Errorf("demogen: unsupported initializer %T for %q", d.Initializer, d.Name.Lexeme)
	}
	v, err := w.expr(init.Expr)
	if err != nil {
		return err
	}
	w.b.Store(ptr, v)
	return nil
}

func (w *Walker) ifStmt(n *ast.IfStmt) error {
	cond, err := w.expr(n.Cond)
	if err != nil {
		return err
	}
	thenL, endL := w.newLabel("if.then."), w.newLabel("if.end.")
	elseL := endL
	if n.Else != nil {
		elseL = w.newLabel("if.else.")
	}
	w.b.BrCond(cond, thenL, elseL)

	w.b.Nop(thenL)
	if err := w.stmt(n.Then); err != nil {
		return err
	}
	w.b.Br(endL)

	if n.Else != nil {
		w.b.Nop(elseL)
		if err := w.stmt(n.Else); err != nil {
			return err
		}
		w.b.Br(endL)
	}

	w.b.Nop(endL)
	return nil
}

func (w *Walker) whileStmt(n *ast.WhileStmt) error {
	condL := w.newLabel("while.cond.")
	bodyL := w.newLabel("while.body.")
	endL := w.newLabel("while.end.")

	w.b.Br(condL)
	w.b.Nop(condL)
	cond, err := w.expr(n.Cond)
	if err != nil {
		return err
	}
	w.b.BrCond(cond, bodyL, endL)

	w.b.Nop(bodyL)
	w.pushLoop(endL, condL)
	err = w.stmt(n.Body)
	w.popLoop()
	if err != nil {
		return err
	}
	w.b.Br(condL)

	w.b.Nop(endL)
	return nil
}

func (w *Walker) doWhileStmt(n *ast.DoWhileStmt) error {
	bodyL := w.newLabel("do.body.")
	condL := w.newLabel("do.cond.")
	endL := w.newLabel("do.end.")

	w.b.Nop(bodyL)
	w.pushLoop(endL, condL)
	err := w.stmt(n.Body)
	w.popLoop()
	if err != nil {
		return err
	}
	w.b.Nop(condL)
	cond, err := w.expr(n.Cond)
	if err != nil {
		return err
	}
	w.b.BrCond(cond, bodyL, endL)

	w.b.Nop(endL)
	return nil
}

func (w *Walker) forStmt(n *ast.ForStmt) error {
	if n.Init != nil {
		if err := w.stmt(n.Init); err != nil {
			return err
		}
	}
	condL := w.newLabel("for.cond.")
	bodyL := w.newLabel("for.body.")
	postL := w.newLabel("for.post.")
	endL := w.newLabel("for.end.")

	w.b.Br(condL)
	w.b.Nop(condL)
	if n.Cond != nil {
		cond, err := w.expr(n.Cond)
		if err != nil {
			return err
		}
		w.b.BrCond(cond, bodyL, endL)
	} else {
		w.b.Br(bodyL)
	}

	w.b.Nop(bodyL)
	w.pushLoop(endL, postL)
	err := w.stmt(n.Body)
	w.popLoop()
	if err != nil {
		return err
	}
	w.b.Br(postL)

	w.b.Nop(postL)
	if n.Post != nil {
		if _, err := w.expr(n.Post); err != nil {
			return err
		}
	}
	w.b.Br(condL)

	w.b.Nop(endL)
	return nil
}

func (w *Walker) pushLoop(breakLabel, continueLabel string) {
	w.breakTo = append(w.breakTo, breakLabel)
	w.continueTo = append(w.continueTo, continueLabel)
}

func (w *Walker) popLoop() {
	w.breakTo = w.breakTo[:len(w.breakTo)-1]
	w.continueTo = w.continueTo[:len(w.continueTo)-1]
}

var binaryOpcodes = map[string]ir.Opcode{
	"+": ir.Add, "-": ir.Sub, "*": ir.Mul, "/": ir.Div, "%": ir.Mod,
	"&": ir.And, "|": ir.Or, "^": ir.Xor, "<<": ir.Shl, ">>": ir.Shr,
	"==": ir.Eq, "!=": ir.Ne, "<": ir.Lt, "<=": ir.Le, ">": ir.Gt, ">=": ir.Ge,
}

func (w *Walker) expr(e ast.Expression) (ir.Value, error) {
	switch n := e.(type) {
	case *ast.Ident:
		ptr, ok := w.ptrs[n.Name]
		if !ok {
			v, ok := w.vars[n.Name]
			if !ok {
				return ir.Value{}, fmt.Errorf("demogen: reference to undeclared identifier %q", n.Name)
			}
			return v, nil
		}
		dst := w.newTemp(n.Type)
		w.b.Load(ptr, dst)
		return dst, nil

	case *ast.IntLiteral:
		return ir.ConstI(n.Type, int64(n.Value)), nil

	case *ast.FloatLiteral:
		return ir.ConstF(n.Type, n.Value), nil

	case *ast.CharLiteral:
		return ir.ConstI(ctype.NewInteger(true, ctype.RankChar), n.Value), nil

	case *ast.StringLiteral:
		return ir.ConstS(ctype.GetPtrType(ctype.NewInteger(true, ctype.RankChar)), []byte(n.Value)), nil

	case *ast.BinaryExpr:
		return w.binaryExpr(n)

	case *ast.UnaryExpr:
		return w.unaryExpr(n)

	case *ast.CallExpr:
		return w.callExpr(n)

	default:
		return ir.Value{}, fmt.Errorf("demogen: unsupported expression %T", e)
	}
}

func (w *Walker) binaryExpr(n *ast.BinaryExpr) (ir.Value, error) {
	if n.Kind == ast.OpAssignment && n.Op == "=" {
		ident, ok := n.Left.(*ast.Ident)
		if !ok {
			return ir.Value{}, fmt.Errorf("demogen: unsupported assignment target %T", n.Left)
		}
		ptr, ok := w.ptrs[ident.Name]
		if !ok {
			return ir.Value{}, fmt.Errorf("demogen: assignment to undeclared identifier %q", ident.Name)
		}
		rhs, err := w.expr(n.Right)
		if err != nil {
			return ir.Value{}, err
		}
		w.b.Store(ptr, rhs)
		return rhs, nil
	}

	op, ok := binaryOpcodes[n.Op]
	if !ok {
		return ir.Value{}, fmt.Errorf("demogen: unsupported binary operator %q", n.Op)
	}
	left, err := w.expr(n.Left)
	if err != nil {
		return ir.Value{}, err
	}
	right, err := w.expr(n.Right)
	if err != nil {
		return ir.Value{}, err
	}
	resultType := ctype.UsualArithmeticConversions(left.Type, right.Type)
	dst := w.newTemp(resultType)
	switch op {
	case ir.Add:
		w.b.Add(left, right, dst)
	case ir.Sub:
		w.b.Sub(left, right, dst)
	case ir.Mul:
		w.b.Mul(left, right, dst)
	case ir.Div:
		w.b.Div(left, right, dst)
	case ir.Mod:
		w.b.Mod(left, right, dst)
	case ir.And:
		w.b.And(left, right, dst)
	case ir.Or:
		w.b.Or(left, right, dst)
	case ir.Xor:
		w.b.Xor(left, right, dst)
	case ir.Shl:
		w.b.Shl(left, right, dst)
	case ir.Shr:
		w.b.Shr(left, right, dst)
	case ir.Eq:
		w.b.Eq(left, right, dst)
	case ir.Ne:
		w.b.Ne(left, right, dst)
	case ir.Lt:
		w.b.Lt(left, right, dst)
	case ir.Le:
		w.b.Le(left, right, dst)
	case ir.Gt:
		w.b.Gt(left, right, dst)
	case ir.Ge:
		w.b.Ge(left, right, dst)
	}
	return dst, nil
}

func (w *Walker) unaryExpr(n *ast.UnaryExpr) (ir.Value, error) {
	switch n.Op {
	case ast.UnMinus:
		operand, err := w.expr(n.Operand)
		if err != nil {
			return ir.Value{}, err
		}
		zero := ir.ConstI(operand.Type, 0)
		dst := w.newTemp(operand.Type)
		w.b.Sub(zero, operand, dst)
		return dst, nil
	case ast.UnBitNot:
		operand, err := w.expr(n.Operand)
		if err != nil {
			return ir.Value{}, err
		}
		dst := w.newTemp(operand.Type)
		w.b.Not(operand, dst)
		return dst, nil
	case ast.UnPlus:
		return w.expr(n.Operand)
	default:
		return ir.Value{}, fmt.Errorf("demogen: unsupported unary operator %v", n.Op)
	}
}

func (w *Walker) callExpr(n *ast.CallExpr) (ir.Value, error) {
	callee, ok := n.Callee.(*ast.Ident)
	if !ok {
		return ir.Value{}, fmt.Errorf("demogen: unsupported call target %T", n.Callee)
	}
	args := make([]ir.Value, 0, len(n.Args))
	for _, a := range n.Args {
		v, err := w.expr(a)
		if err != nil {
			return ir.Value{}, err
		}
		args = append(args, v)
	}
	var retType *ctype.Type = ctype.NewInteger(true, ctype.RankInt)
	if callee.Type != nil && callee.Type.Kind == ctype.Function {
		retType = callee.Type.Return
	}
	dst := w.newTemp(retType)
	fn := ir.NewVar(retType, callee.Name)
	w.b.Call(fn, args, &dst)
	return dst, nil
}
