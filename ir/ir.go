// Package ir defines the IR value and instruction model that the builder
// package threads onto a doubly-linked instruction list for one function
// at a time: a small set of typed operand variants (compile-time constant
// or named variable) and a closed opcode enumeration covering arithmetic,
// comparison, control flow, memory, and conversion operations.
package ir

import (
	"fmt"

	"github.com/codeassociates/cfront/ctype"
)

// ValueKind discriminates the Value sum type.
type ValueKind int

const (
	ConstValue ValueKind = iota
	VarValue
)

// ConstPayloadKind discriminates which field of a Const is meaningful.
type ConstPayloadKind int

const (
	ConstInt ConstPayloadKind = iota
	ConstFloat
	ConstString
	ConstNull
)

// Value is an IR operand: either a compile-time Const or a named Var.
// Like ctype.Type, it is modelled as a single struct with a discriminant
// field rather than an interface, since every consumer needs to inspect
// both variants uniformly (e.g. when rendering an instruction).
type Value struct {
	Kind ValueKind
	Type *ctype.Type

	// Const
	ConstKind ConstPayloadKind
	IntVal    int64
	FloatVal  float64
	StrVal    []byte

	// Var
	Name string
}

// ConstI builds an integer Const of type t.
func ConstI(t *ctype.Type, v int64) Value {
	return Value{Kind: ConstValue, Type: t, ConstKind: ConstInt, IntVal: v}
}

// ConstF builds a floating Const of type t.
func ConstF(t *ctype.Type, v float64) Value {
	return Value{Kind: ConstValue, Type: t, ConstKind: ConstFloat, FloatVal: v}
}

// ConstS builds a byte-string Const (e.g. a decoded string literal).
func ConstS(t *ctype.Type, v []byte) Value {
	return Value{Kind: ConstValue, Type: t, ConstKind: ConstString, StrVal: v}
}

// ConstNullPtr builds the null-pointer Const of pointer type t.
func ConstNullPtr(t *ctype.Type) Value {
	return Value{Kind: ConstValue, Type: t, ConstKind: ConstNull}
}

// NewVar builds a Var operand of type t named name.
func NewVar(t *ctype.Type, name string) Value {
	return Value{Kind: VarValue, Type: t, Name: name}
}

// IsConst reports whether v is a Const.
func (v Value) IsConst() bool { return v.Kind == ConstValue }

// IsVar reports whether v is a Var.
func (v Value) IsVar() bool { return v.Kind == VarValue }

func (v Value) String() string {
	switch v.Kind {
	case ConstValue:
		switch v.ConstKind {
		case ConstInt:
			return fmt.Sprintf("%d", v.IntVal)
		case ConstFloat:
			return fmt.Sprintf("%g", v.FloatVal)
		case ConstString:
			return fmt.Sprintf("%q", string(v.StrVal))
		default:
			return "null"
		}
	case VarValue:
		return v.Name
	}
	return "<invalid value>"
}

// Opcode is the closed set of IR instruction operations.
type Opcode int

const (
	Nop Opcode = iota
	Assign
	Add
	Sub
	Mul
	Div
	Mod
	And
	Or
	Xor
	Shl
	Shr
	Not
	Eq
	Ne
	Lt
	Le
	Gt
	Ge
	Br
	BrCond
	Call
	Ret
	Switch
	Alloca
	Load
	Store
	Memcpy
	GetArrayElementPtr
	GetStructMemberPtr
	Trunc
	Ext
	Ftoi
	Itof
	Itop
	Ptoi
	Bitcast
)

var opcodeNames = [...]string{
	Nop: "nop", Assign: "assign", Add: "add", Sub: "sub", Mul: "mul",
	Div: "div", Mod: "mod", And: "and", Or: "or", Xor: "xor", Shl: "shl",
	Shr: "shr", Not: "not", Eq: "eq", Ne: "ne", Lt: "lt", Le: "le",
	Gt: "gt", Ge: "ge", Br: "br", BrCond: "br_cond", Call: "call",
	Ret: "ret", Switch: "switch", Alloca: "alloca", Load: "load",
	Store: "store", Memcpy: "memcpy",
	GetArrayElementPtr: "get_array_element_ptr",
	GetStructMemberPtr: "get_struct_member_ptr",
	Trunc: "trunc", Ext: "ext", Ftoi: "ftoi", Itof: "itof", Itop: "itop",
	Ptoi: "ptoi", Bitcast: "bitcast",
}

func (op Opcode) String() string {
	if int(op) >= 0 && int(op) < len(opcodeNames) {
		return opcodeNames[op]
	}
	return "unknown"
}

// binaryOps is the set of opcodes taking (left, right) operands and
// producing a Dst — every arithmetic, bitwise, and comparison opcode.
var binaryOps = map[Opcode]bool{
	Add: true, Sub: true, Mul: true, Div: true, Mod: true,
	And: true, Or: true, Xor: true, Shl: true, Shr: true,
	Eq: true, Ne: true, Lt: true, Le: true, Gt: true, Ge: true,
}

// IsBinary reports whether op takes a (Left, Right) operand pair.
func IsBinary(op Opcode) bool { return binaryOps[op] }

// SwitchCase is one `value -> label` arm of a Switch instruction.
type SwitchCase struct {
	Value Value
	Label string
}

// Instruction is one IR operation. Op selects which fields are
// meaningful, following the same tagged-struct idiom as ctype.Type and
// ir.Value:
//
//   - Nop: Label (optional)
//   - Assign: Src1 -> Dst
//   - binary ops (Add..Ge): Src1, Src2 -> Dst
//   - Not: Src1 -> Dst
//   - Br: Label
//   - BrCond: Src1 (cond), Label (true-branch), ElseLabel (false-branch)
//   - Call: Callee (var naming the function), Args, Dst (optional)
//   - Ret: Src1 (optional)
//   - Switch: Src1 (scrutinee), Label (default), Cases
//   - Alloca: Dst (a pointer Var; the allocated type is Dst.Type.Pointee)
//   - Load: Src1 (ptr) -> Dst
//   - Store: Src1 (ptr), Src2 (value)
//   - Memcpy: Src1 (dst ptr), Src2 (src ptr), Len
//   - GetArrayElementPtr: Src1 (ptr), Src2 (index) -> Dst
//   - GetStructMemberPtr: Src1 (ptr), Src2 (constant i32 field index) -> Dst
//   - Trunc/Ext/Ftoi/Itof/Itop/Ptoi/Bitcast: Src1 -> Dst (Dst.Type is the
//     destination type)
type Instruction struct {
	Op Opcode

	Dst  *Value
	Src1 Value
	Src2 Value

	Label     string
	ElseLabel string

	Callee Value
	Args   []Value

	Len Value

	Cases []SwitchCase
}

func (i Instruction) String() string {
	if i.Dst != nil {
		return fmt.Sprintf("%s = %s %s, %s", i.Dst, i.Op, i.Src1, i.Src2)
	}
	return fmt.Sprintf("%s %s, %s", i.Op, i.Src1, i.Src2)
}
