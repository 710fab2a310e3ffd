package irbuilder

import (
	"testing"

	"github.com/codeassociates/cfront/ctype"
	"github.com/codeassociates/cfront/ir"
)

func intType() *ctype.Type { return ctype.NewInteger(true, ctype.RankInt) }

// TestOrderingAddAddRet mirrors scenario 6: position_at_end; add(a,b->t1);
// add(t1,c->t2); ret(t2) produces a three-instruction list in that order,
// and finalize yields a length-3 slice.
func TestOrderingAddAddRet(t *testing.T) {
	b := New()
	it := intType()
	a := ir.NewVar(it, "a")
	bb := ir.NewVar(it, "b")
	c := ir.NewVar(it, "c")
	t1 := ir.NewVar(it, "t1")
	t2 := ir.NewVar(it, "t2")

	b.PositionAtEnd()
	b.Add(a, bb, t1)
	b.Add(t1, c, t2)
	b.Ret(&t2)

	if b.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", b.Len())
	}

	instrs := b.Finalize()
	if len(instrs) != 3 {
		t.Fatalf("Finalize() returned %d instructions, want 3", len(instrs))
	}
	if instrs[0].Op != ir.Add || instrs[0].Dst.Name != "t1" {
		t.Errorf("instr[0] = %+v, want add -> t1", instrs[0])
	}
	if instrs[1].Op != ir.Add || instrs[1].Src1.Name != "t1" || instrs[1].Dst.Name != "t2" {
		t.Errorf("instr[1] = %+v, want add t1,c -> t2", instrs[1])
	}
	if instrs[2].Op != ir.Ret || instrs[2].Src1.Name != "t2" {
		t.Errorf("instr[2] = %+v, want ret t2", instrs[2])
	}
}

// TestCursorInsertMiddle mirrors scenario 7: given [A,B,C] with cursor at
// A, insert(X) yields [A,X,B,C] with cursor at X; then position_after(C);
// insert(Y) yields [A,X,B,C,Y].
func TestCursorInsertMiddle(t *testing.T) {
	b := New()
	it := intType()
	v := func(n string) ir.Value { return ir.NewVar(it, n) }

	nodeA := b.Nop("A")
	nodeB := b.Nop("B")
	nodeC := b.Nop("C")

	b.PositionAfter(nodeA)
	nodeX := b.Assign(v("x"), v("x"))
	if b.GetPosition() != nodeX {
		t.Fatalf("cursor after insert = %v, want nodeX", b.GetPosition())
	}
	if order := nodesInOrder(b); !sameOrder(order, []*Node{nodeA, nodeX, nodeB, nodeC}) {
		t.Fatalf("order after first insert = %v, want [A,X,B,C]", order)
	}

	b.PositionAfter(nodeC)
	nodeY := b.Assign(v("y"), v("y"))
	if order := nodesInOrder(b); !sameOrder(order, []*Node{nodeA, nodeX, nodeB, nodeC, nodeY}) {
		t.Fatalf("order after second insert = %v, want [A,X,B,C,Y]", order)
	}
}

func nodesInOrder(b *Builder) []*Node {
	var out []*Node
	for n := b.Head(); n != nil; n = n.Next() {
		out = append(out, n)
	}
	return out
}

func sameOrder(got, want []*Node) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

// TestListWellFormedness checks head=nil<=>tail=nil<=>length=0 and that
// traversal in both directions visits exactly length nodes.
func TestListWellFormedness(t *testing.T) {
	b := New()
	if b.Head() != nil || b.Tail() != nil || b.Len() != 0 {
		t.Fatalf("empty builder should have nil head/tail and zero length")
	}

	b.PositionAtEnd()
	b.Nop("1")
	b.Nop("2")
	b.Nop("3")

	count := 0
	for n := b.Head(); n != nil; n = n.Next() {
		count++
	}
	if count != b.Len() {
		t.Fatalf("forward traversal visited %d nodes, want %d", count, b.Len())
	}

	count = 0
	for n := b.Tail(); n != nil; n = n.Prev() {
		count++
	}
	if count != b.Len() {
		t.Fatalf("backward traversal visited %d nodes, want %d", count, b.Len())
	}
}

func TestClearAfterDetachesSuccessors(t *testing.T) {
	b := New()
	b.PositionAtEnd()
	first := b.Nop("1")
	b.Nop("2")
	b.Nop("3")

	b.ClearAfter(first)

	if b.Len() != 1 {
		t.Fatalf("Len() after ClearAfter = %d, want 1", b.Len())
	}
	if b.Tail() != first {
		t.Fatalf("Tail() after ClearAfter = %v, want first node", b.Tail())
	}
	if first.Next() != nil {
		t.Fatalf("first.Next() after ClearAfter = %v, want nil", first.Next())
	}
}

func TestAllocaRequiresPointerResult(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Alloca with non-pointer result should panic")
		}
	}()
	b := New()
	b.Alloca(ir.NewVar(intType(), "bad"))
}

func TestFinalizeThenMutatePanics(t *testing.T) {
	b := New()
	b.PositionAtEnd()
	b.Nop("")
	b.Finalize()

	defer func() {
		if recover() == nil {
			t.Fatalf("mutating a finalized builder should panic")
		}
	}()
	b.Nop("after finalize")
}

func TestDestroyDiscardsList(t *testing.T) {
	b := New()
	b.PositionAtEnd()
	b.Nop("1")
	b.Destroy()
	if b.Len() != 0 || b.Head() != nil {
		t.Fatalf("Destroy() should leave an empty list")
	}
}
