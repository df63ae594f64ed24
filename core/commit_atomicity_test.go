package core

import "testing"

// TestCommitAtomicityOnFailure is property #4: on CommitFailure, no
// non-force-write substate is modified in the store — only force-written
// substates (e.g. a locked fee debit) survive.
func TestCommitAtomicityOnFailure(t *testing.T) {
	store := NewMemStore()
	nodeA := NodeId{1}
	nodeB := NodeId{2}
	if err := store.CreateNode(nodeA, map[PartitionNumber]map[SubstateKey][]byte{
		PartitionUserBase: {TupleKey(0): encodeBalance(100)},
	}, nil); err != nil {
		t.Fatalf("seed nodeA: %v", err)
	}
	if err := store.CreateNode(nodeB, map[PartitionNumber]map[SubstateKey][]byte{
		PartitionUserBase: {TupleKey(0): encodeBalance(0)},
	}, nil); err != nil {
		t.Fatalf("seed nodeB: %v", err)
	}

	track := NewTrack(store)
	addrA := SubstateAddress{Node: nodeA, Partition: PartitionUserBase, Key: TupleKey(0)}
	addrB := SubstateAddress{Node: nodeB, Partition: PartitionUserBase, Key: TupleKey(0)}

	// A regular (non-force) write, as an ordinary application mutation would
	// produce.
	track.Write(addrA, encodeBalance(40), false)
	// A force-write, as a locked fee debit would produce so it survives
	// rollback.
	track.Write(addrB, encodeBalance(10), true)

	track.DiscardNonForceWrite()
	if _, err := track.Commit(nil, true); err != nil {
		t.Fatalf("commit: %v", err)
	}

	valA, found, err := store.ReadSubstate(nodeA, PartitionUserBase, TupleKey(0), nil)
	if err != nil || !found {
		t.Fatalf("read nodeA: found=%v err=%v", found, err)
	}
	if decodeBalance(valA) != 100 {
		t.Fatalf("expected nodeA untouched at 100, got %d", decodeBalance(valA))
	}

	valB, found, err := store.ReadSubstate(nodeB, PartitionUserBase, TupleKey(0), nil)
	if err != nil || !found {
		t.Fatalf("read nodeB: found=%v err=%v", found, err)
	}
	if decodeBalance(valB) != 10 {
		t.Fatalf("expected nodeB's force-written 10 to survive, got %d", decodeBalance(valB))
	}
}

// TestCommitSuccessPersistsEveryWrite is the success-path counterpart: when
// committed as a success, every tracked write (force or not) is persisted.
func TestCommitSuccessPersistsEveryWrite(t *testing.T) {
	store := NewMemStore()
	node := NodeId{3}
	if err := store.CreateNode(node, map[PartitionNumber]map[SubstateKey][]byte{
		PartitionUserBase: {TupleKey(0): encodeBalance(0)},
	}, nil); err != nil {
		t.Fatalf("seed node: %v", err)
	}

	track := NewTrack(store)
	addr := SubstateAddress{Node: node, Partition: PartitionUserBase, Key: TupleKey(0)}
	track.Write(addr, encodeBalance(77), false)

	if _, err := track.Commit(nil, false); err != nil {
		t.Fatalf("commit: %v", err)
	}

	val, found, err := store.ReadSubstate(node, PartitionUserBase, TupleKey(0), nil)
	if err != nil || !found {
		t.Fatalf("read node: found=%v err=%v", found, err)
	}
	if decodeBalance(val) != 77 {
		t.Fatalf("expected 77, got %d", decodeBalance(val))
	}
}
