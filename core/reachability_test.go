package core

import "testing"

// TestReachabilityClosure is property #3: a frame can reference only nodes
// reachable via its initial owned/ref set, or a globally-addressed node; an
// arbitrary internal node it was never handed is unreachable.
func TestReachabilityClosure(t *testing.T) {
	k := NewKernel(NewMemStore(), Hash{}, DefaultLimits, nil)
	owned := k.AllocateNodeId(EntityTypeInternalVault)
	referenced := k.AllocateNodeId(EntityTypeInternalVault)
	untouched := k.AllocateNodeId(EntityTypeInternalVault)
	global := k.AllocateNodeId(EntityTypeGlobalComponent)

	update := NewCallFrameUpdate()
	update.Moved[owned] = true
	update.Refs[referenced] = true
	frame := NewChildFrame(1, Actor{Blueprint: "X", Function: "f"}, update)

	if !frame.CanReference(owned) {
		t.Fatalf("expected owned node to be reachable")
	}
	if !frame.CanReference(referenced) {
		t.Fatalf("expected referenced node to be reachable")
	}
	if !frame.CanReference(global) {
		t.Fatalf("expected globally-addressed node to be reachable unconditionally")
	}
	if frame.CanReference(untouched) {
		t.Fatalf("expected untouched internal node to be unreachable")
	}
}

// TestLockSubstateRejectsUnreachableNode asserts the kernel itself enforces
// reachability at lock time, not just CallFrame.CanReference in isolation.
func TestLockSubstateRejectsUnreachableNode(t *testing.T) {
	k := NewKernel(NewMemStore(), Hash{}, DefaultLimits, nil)
	outsider := k.AllocateNodeId(EntityTypeInternalVault)

	update := NewCallFrameUpdate()
	if _, err := k.PushFrame(Actor{Blueprint: "X", Function: "f"}, update); err != nil {
		t.Fatalf("push frame: %v", err)
	}
	defer k.PopFrame(nil)

	if _, err := k.LockSubstate(outsider, PartitionUserBase, TupleKey(0), LockFlags{ReadOnly: true}, nil, nil); err == nil {
		t.Fatalf("expected UnreachableNode error for a node never owned or referenced")
	}
}
