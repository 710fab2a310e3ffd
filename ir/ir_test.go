package ir

import (
	"testing"

	"github.com/codeassociates/cfront/ctype"
)

func TestConstAndVarKind(t *testing.T) {
	it := ctype.NewInteger(true, ctype.RankInt)
	c := ConstI(it, 42)
	if !c.IsConst() || c.IsVar() {
		t.Fatalf("ConstI should be a Const, got %+v", c)
	}
	if c.String() != "42" {
		t.Errorf("String() = %q, want 42", c.String())
	}

	v := NewVar(it, "x")
	if !v.IsVar() || v.IsConst() {
		t.Fatalf("NewVar should be a Var, got %+v", v)
	}
	if v.String() != "x" {
		t.Errorf("String() = %q, want x", v.String())
	}
}

func TestIsBinary(t *testing.T) {
	for _, op := range []Opcode{Add, Sub, Mul, Eq, Lt} {
		if !IsBinary(op) {
			t.Errorf("IsBinary(%s) = false, want true", op)
		}
	}
	for _, op := range []Opcode{Nop, Br, Call, Ret, Alloca, Not} {
		if IsBinary(op) {
			t.Errorf("IsBinary(%s) = true, want false", op)
		}
	}
}

func TestOpcodeString(t *testing.T) {
	if Add.String() != "add" {
		t.Errorf("Add.String() = %q, want add", Add.String())
	}
	if Opcode(999).String() != "unknown" {
		t.Errorf("out-of-range Opcode.String() = %q, want unknown", Opcode(999).String())
	}
}
