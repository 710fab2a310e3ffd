// Package irbuilder implements the mutable, cursor-based construction API
// over a doubly-linked instruction list for a single function. Insertion
// always happens immediately after the cursor; position_at_beginning,
// position_at_end, position_before, and position_after move the cursor
// without touching the list, so a sequence of typed opcode constructors
// produces instructions in the order issued by default, or splices into
// the middle of an already-built list when the cursor is repositioned
// first.
//
// A Builder is in one of two states, building or finalized; Finalize and
// Destroy both tear the list down; every mutating method panics if
// called afterward, since a codegen calling the builder out of sequence is a
// programmer error, not a recoverable one.
package irbuilder

import (
	"fmt"

	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/ir"
)

// Node is one doubly-linked list entry wrapping an ir.Instruction.
type Node struct {
	Instr ir.Instruction
	prev  *Node
	next  *Node
}

// Prev returns the node preceding n, or nil if n is the head.
func (n *Node) Prev() *Node { return n.prev }

// Next returns the node following n, or nil if n is the tail.
func (n *Node) Next() *Node { return n.next }

// Builder is a cursor-based instruction list under construction for one
// function. The zero value is not usable; use New.
type Builder struct {
	head   *Node
	tail   *Node
	length int
	cursor *Node // insertion occurs after cursor; nil means "at head"

	finalized bool
	destroyed bool
}

// New creates an empty Builder positioned at the beginning.
func New() *Builder {
	return &Builder{}
}

func (b *Builder) checkLive() {
	if b.finalized || b.destroyed {
		panic("irbuilder: use of builder after finalize/destroy")
	}
}

// Len reports the current instruction count.
func (b *Builder) Len() int { return b.length }

// Head returns the first node, or nil if the list is empty.
func (b *Builder) Head() *Node { return b.head }

// Tail returns the last node, or nil if the list is empty.
func (b *Builder) Tail() *Node { return b.tail }

// PositionAtBeginning sets the cursor so the next insertion becomes the
// new head.
func (b *Builder) PositionAtBeginning() {
	b.checkLive()
	b.cursor = nil
}

// PositionAtEnd sets the cursor so the next insertion becomes the new
// tail.
func (b *Builder) PositionAtEnd() {
	b.checkLive()
	b.cursor = b.tail
}

// PositionBefore sets the cursor so the next insertion lands immediately
// before node.
func (b *Builder) PositionBefore(node *Node) {
	b.checkLive()
	b.cursor = node.prev
}

// PositionAfter sets the cursor so the next insertion lands immediately
// after node.
func (b *Builder) PositionAfter(node *Node) {
	b.checkLive()
	b.cursor = node
}

// GetPosition returns the current cursor node, or nil if positioned at
// the beginning.
func (b *Builder) GetPosition() *Node {
	return b.cursor
}

// insert splices a new node holding instr immediately after the cursor,
// advances the cursor to it, and returns it.
func (b *Builder) insert(instr ir.Instruction) *Node {
	b.checkLive()
	n := &Node{Instr: instr}

	if b.cursor == nil {
		n.next = b.head
		if b.head != nil {
			b.head.prev = n
		}
		b.head = n
		if b.tail == nil {
			b.tail = n
		}
	} else {
		n.prev = b.cursor
		n.next = b.cursor.next
		if b.cursor.next != nil {
			b.cursor.next.prev = n
		} else {
			b.tail = n
		}
		b.cursor.next = n
	}

	b.length++
	b.cursor = n
	return n
}

// ClearAfter detaches and discards every successor of node, including the
// cursor if it currently points into the discarded region.
func (b *Builder) ClearAfter(node *Node) {
	b.checkLive()
	removed := 0
	cursorDiscarded := false
	for n := node.next; n != nil; {
		next := n.next
		if n == b.cursor {
			cursorDiscarded = true
		}
		n.prev = nil
		n.next = nil
		removed++
		n = next
	}
	node.next = nil
	b.tail = node
	b.length -= removed
	if cursorDiscarded {
		b.cursor = node
	}
}

// Finalize copies the linked list into a contiguous slice in order and
// discards the builder's nodes. The builder is finalized afterward; any
// further mutation panics.
func (b *Builder) Finalize() []ir.Instruction {
	b.checkLive()
	out := make([]ir.Instruction, 0, b.length)
	for n := b.head; n != nil; n = n.next {
		out = append(out, n.Instr)
	}
	b.head, b.tail, b.cursor = nil, nil, nil
	b.length = 0
	b.finalized = true
	return out
}

// Destroy discards the entire list without transferring instructions out.
func (b *Builder) Destroy() {
	if b.finalized || b.destroyed {
		return
	}
	b.head, b.tail, b.cursor = nil, nil, nil
	b.length = 0
	b.destroyed = true
}

// --- typed opcode constructors ---------------------------------------------

func mustPointer(t *ctype.Type, who string) {
	if !ctype.IsPointerType(t) {
		panic(fmt.Sprintf("irbuilder: %s requires a pointer-typed operand, got %s", who, t))
	}
}

// Nop inserts a no-op, optionally carrying a label (e.g. a branch target).
func (b *Builder) Nop(label string) *Node {
	return b.insert(ir.Instruction{Op: ir.Nop, Label: label})
}

// Assign inserts `dst = src`.
func (b *Builder) Assign(src, dst ir.Value) *Node {
	return b.insert(ir.Instruction{Op: ir.Assign, Src1: src, Dst: &dst})
}

func (b *Builder) binary(op ir.Opcode, left, right, dst ir.Value) *Node {
	return b.insert(ir.Instruction{Op: op, Src1: left, Src2: right, Dst: &dst})
}

func (b *Builder) Add(left, right, dst ir.Value) *Node { return b.binary(ir.Add, left, right, dst) }
func (b *Builder) Sub(left, right, dst ir.Value) *Node { return b.binary(ir.Sub, left, right, dst) }
func (b *Builder) Mul(left, right, dst ir.Value) *Node { return b.binary(ir.Mul, left, right, dst) }
func (b *Builder) Div(left, right, dst ir.Value) *Node { return b.binary(ir.Div, left, right, dst) }
func (b *Builder) Mod(left, right, dst ir.Value) *Node { return b.binary(ir.Mod, left, right, dst) }
func (b *Builder) And(left, right, dst ir.Value) *Node { return b.binary(ir.And, left, right, dst) }
func (b *Builder) Or(left, right, dst ir.Value) *Node  { return b.binary(ir.Or, left, right, dst) }
func (b *Builder) Xor(left, right, dst ir.Value) *Node { return b.binary(ir.Xor, left, right, dst) }
func (b *Builder) Shl(left, right, dst ir.Value) *Node { return b.binary(ir.Shl, left, right, dst) }
func (b *Builder) Shr(left, right, dst ir.Value) *Node { return b.binary(ir.Shr, left, right, dst) }
func (b *Builder) Eq(left, right, dst ir.Value) *Node  { return b.binary(ir.Eq, left, right, dst) }
func (b *Builder) Ne(left, right, dst ir.Value) *Node  { return b.binary(ir.Ne, left, right, dst) }
func (b *Builder) Lt(left, right, dst ir.Value) *Node  { return b.binary(ir.Lt, left, right, dst) }
func (b *Builder) Le(left, right, dst ir.Value) *Node  { return b.binary(ir.Le, left, right, dst) }
func (b *Builder) Gt(left, right, dst ir.Value) *Node  { return b.binary(ir.Gt, left, right, dst) }
func (b *Builder) Ge(left, right, dst ir.Value) *Node  { return b.binary(ir.Ge, left, right, dst) }

// Not inserts a unary logical/bitwise negation.
func (b *Builder) Not(src, dst ir.Value) *Node {
	return b.insert(ir.Instruction{Op: ir.Not, Src1: src, Dst: &dst})
}

// Br inserts an unconditional branch to label.
func (b *Builder) Br(label string) *Node {
	return b.insert(ir.Instruction{Op: ir.Br, Label: label})
}

// BrCond inserts a conditional branch: to trueLabel if cond is nonzero,
// falseLabel otherwise.
func (b *Builder) BrCond(cond ir.Value, trueLabel, falseLabel string) *Node {
	return b.insert(ir.Instruction{Op: ir.BrCond, Src1: cond, Label: trueLabel, ElseLabel: falseLabel})
}

// Call inserts a call to fn with args, optionally binding the result to
// dst (pass a nil dst for a call used for its side effects only).
func (b *Builder) Call(fn ir.Value, args []ir.Value, dst *ir.Value) *Node {
	return b.insert(ir.Instruction{Op: ir.Call, Callee: fn, Args: args, Dst: dst})
}

// Ret inserts a return, with no value for a bare `return;`.
func (b *Builder) Ret(value *ir.Value) *Node {
	instr := ir.Instruction{Op: ir.Ret}
	if value != nil {
		instr.Src1 = *value
	}
	return b.insert(instr)
}

// Switch inserts a multi-way branch on value, falling to defaultLabel
// when no case matches.
func (b *Builder) Switch(value ir.Value, defaultLabel string, cases []ir.SwitchCase) *Node {
	return b.insert(ir.Instruction{Op: ir.Switch, Src1: value, Label: defaultLabel, Cases: cases})
}

// Alloca reserves storage in the current activation record and binds a
// pointer to it to result. result.Type must already be a pointer type.
func (b *Builder) Alloca(result ir.Value) *Node {
	mustPointer(result.Type, "alloca")
	return b.insert(ir.Instruction{Op: ir.Alloca, Dst: &result})
}

// Load reads through ptr into dst. ptr's static type must be a pointer.
func (b *Builder) Load(ptr, dst ir.Value) *Node {
	mustPointer(ptr.Type, "load")
	return b.insert(ir.Instruction{Op: ir.Load, Src1: ptr, Dst: &dst})
}

// Store writes value through ptr. ptr's static type must be a pointer.
func (b *Builder) Store(ptr, value ir.Value) *Node {
	mustPointer(ptr.Type, "store")
	return b.insert(ir.Instruction{Op: ir.Store, Src1: ptr, Src2: value})
}

// Memcpy copies len bytes from src to dst; both operands must be
// pointer- or array-typed.
func (b *Builder) Memcpy(dst, src, length ir.Value) *Node {
	for _, v := range []ir.Value{dst, src} {
		if !ctype.IsPointerType(v.Type) && (v.Type == nil || v.Type.Kind != ctype.Array) {
			panic("irbuilder: memcpy requires pointer- or array-typed operands")
		}
	}
	return b.insert(ir.Instruction{Op: ir.Memcpy, Src1: dst, Src2: src, Len: length})
}

// GetArrayElementPtr computes a pointer to ptr[index] into dst.
func (b *Builder) GetArrayElementPtr(ptr, index, dst ir.Value) *Node {
	mustPointer(ptr.Type, "get_array_element_ptr")
	return b.insert(ir.Instruction{Op: ir.GetArrayElementPtr, Src1: ptr, Src2: index, Dst: &dst})
}

// GetStructMemberPtr computes a pointer to the field numbered index
// (encoded as a constant i32 Value) of the struct/union pointed to by
// ptr, into dst.
func (b *Builder) GetStructMemberPtr(ptr ir.Value, index ir.Value, dst ir.Value) *Node {
	mustPointer(ptr.Type, "get_struct_member_ptr")
	return b.insert(ir.Instruction{Op: ir.GetStructMemberPtr, Src1: ptr, Src2: index, Dst: &dst})
}

func (b *Builder) convert(op ir.Opcode, src, dst ir.Value) *Node {
	return b.insert(ir.Instruction{Op: op, Src1: src, Dst: &dst})
}

func (b *Builder) Trunc(src, dst ir.Value) *Node   { return b.convert(ir.Trunc, src, dst) }
func (b *Builder) Ext(src, dst ir.Value) *Node     { return b.convert(ir.Ext, src, dst) }
func (b *Builder) Ftoi(src, dst ir.Value) *Node    { return b.convert(ir.Ftoi, src, dst) }
func (b *Builder) Itof(src, dst ir.Value) *Node    { return b.convert(ir.Itof, src, dst) }
func (b *Builder) Itop(src, dst ir.Value) *Node    { return b.convert(ir.Itop, src, dst) }
func (b *Builder) Ptoi(src, dst ir.Value) *Node    { return b.convert(ir.Ptoi, src, dst) }
func (b *Builder) Bitcast(src, dst ir.Value) *Node { return b.convert(ir.Bitcast, src, dst) }
