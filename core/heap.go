package core

// heap.go – storage for nodes that have not (or will never) become globally
// addressed (spec §3 Node lifecycle: "allocated → created (substates
// populated in heap) → optionally globalized"). Grounded on the teacher's
// memState implementation in virtual_machine.go, which keeps an in-memory
// map guarded by a mutex as the simplest possible StateRW; the heap here is
// scoped to node/partition/key rather than flat byte keys, matching the
// substate addressing model instead of the teacher's EVM-style state.

import "fmt"

// Heap holds nodes that exist only within the current session. A node
// remains on the heap until it is globalized (moved into the Track/store
// path) or dropped.
type Heap struct {
	nodes map[NodeId]map[PartitionNumber]map[SubstateKey][]byte
}

// NewHeap constructs an empty heap.
func NewHeap() *Heap {
	return &Heap{nodes: make(map[NodeId]map[PartitionNumber]map[SubstateKey][]byte)}
}

// CreateNode inserts a new transient node. Clients must ensure id is unique.
func (h *Heap) CreateNode(id NodeId, substates map[PartitionNumber]map[SubstateKey][]byte) error {
	if _, exists := h.nodes[id]; exists {
		return fmt.Errorf("heap: CreateNode: node %s already exists", id)
	}
	copied := make(map[PartitionNumber]map[SubstateKey][]byte, len(substates))
	for p, kvs := range substates {
		m := make(map[SubstateKey][]byte, len(kvs))
		for k, v := range kvs {
			m[k] = append([]byte(nil), v...)
		}
		copied[p] = m
	}
	h.nodes[id] = copied
	return nil
}

// Exists reports whether id is currently on the heap.
func (h *Heap) Exists(id NodeId) bool {
	_, ok := h.nodes[id]
	return ok
}

// Read returns the substate value, if present.
func (h *Heap) Read(id NodeId, partition PartitionNumber, key SubstateKey) ([]byte, bool) {
	part, ok := h.nodes[id]
	if !ok {
		return nil, false
	}
	values, ok := part[partition]
	if !ok {
		return nil, false
	}
	v, ok := values[key]
	return v, ok
}

// Write inserts or overwrites a substate on an existing heap node.
func (h *Heap) Write(id NodeId, partition PartitionNumber, key SubstateKey, value []byte) error {
	part, ok := h.nodes[id]
	if !ok {
		return fmt.Errorf("heap: Write: node %s not on heap", id)
	}
	values, ok := part[partition]
	if !ok {
		values = make(map[SubstateKey][]byte)
		part[partition] = values
	}
	values[key] = append([]byte(nil), value...)
	return nil
}

// Remove deletes a substate, returning its prior value.
func (h *Heap) Remove(id NodeId, partition PartitionNumber, key SubstateKey) ([]byte, bool) {
	part, ok := h.nodes[id]
	if !ok {
		return nil, false
	}
	values, ok := part[partition]
	if !ok {
		return nil, false
	}
	v, ok := values[key]
	if ok {
		delete(values, key)
	}
	return v, ok
}

// Drop removes a node and all its substates entirely, returning them so the
// kernel can either discard them (heap-only drop) or move them into Track
// (globalize).
func (h *Heap) Drop(id NodeId) (map[PartitionNumber]map[SubstateKey][]byte, bool) {
	substates, ok := h.nodes[id]
	if !ok {
		return nil, false
	}
	delete(h.nodes, id)
	return substates, true
}

// ScanKeys returns up to count keys present in a partition of a heap node.
func (h *Heap) ScanKeys(id NodeId, partition PartitionNumber, count int) []SubstateKey {
	values := h.nodes[id][partition]
	keys := make([]SubstateKey, 0, len(values))
	for k := range values {
		keys = append(keys, k)
		if count > 0 && len(keys) >= count {
			break
		}
	}
	return keys
}

// IsEmpty reports whether the heap holds zero nodes. The end-of-session
// "no non-transient nodes remain" invariant (spec §3 Invariants) is checked
// by Kernel.SessionInvariantsHold through Nodes instead, since a node of a
// transient entity type (worktop/auth-zone-stack/bucket/proof) may remain
// on the heap; any other node left here at session end is a session
// failure.
func (h *Heap) IsEmpty() bool { return len(h.nodes) == 0 }

// Nodes returns the set of NodeIds currently on the heap, for invariant
// checks at session end.
func (h *Heap) Nodes() []NodeId {
	out := make([]NodeId, 0, len(h.nodes))
	for id := range h.nodes {
		out = append(out, id)
	}
	return out
}
