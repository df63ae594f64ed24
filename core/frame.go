package core

// frame.go – per-invocation call frame state (spec §3 Frame lifecycle, §4.1
// "Frame push algorithm", node-reference rules). Grounded on the teacher's
// TxContext struct (formerly in common_structs.go) as the shape of
// "per-invocation state bundle", generalized here from a flat EVM-style
// context into the node-reachability model the kernel actually needs.

import "fmt"

// CallFrameUpdate describes the node references and ownership transfer
// crossing a frame boundary in either direction (spec §4.1 step 1, §3 Frame
// "pushed with a computed update... pops with a result update").
type CallFrameUpdate struct {
	// Refs are node ids the frame may read but does not own.
	Refs map[NodeId]bool
	// Moved are node ids whose ownership transfers to the frame (on push)
	// or out of it (on pop).
	Moved map[NodeId]bool
}

// NewCallFrameUpdate returns an empty update.
func NewCallFrameUpdate() CallFrameUpdate {
	return CallFrameUpdate{Refs: make(map[NodeId]bool), Moved: make(map[NodeId]bool)}
}

// CallFrame is one level of the session's call stack: it owns a set of
// nodes, holds a read-only reference set, and tracks locks acquired at this
// depth (spec §3 Invariants: "a node is reachable iff...").
type CallFrame struct {
	Depth     int
	Actor     Actor
	owned     map[NodeId]bool
	refs      map[NodeId]bool
	AuthZoneID NodeId
}

// Actor identifies who/what is executing within a frame: a specific
// component method, a blueprint function, or the root transaction processor
// (spec §4.1 get_current_actor).
type Actor struct {
	IsRoot    bool
	Package   NodeId
	Blueprint string
	Function  string
	Receiver  NodeId
	HasReceiver bool
}

// NewRootFrame constructs the frame the transaction processor itself runs
// in, depth 0, owning nothing initially.
func NewRootFrame() *CallFrame {
	return &CallFrame{
		Depth: 0,
		Actor: Actor{IsRoot: true},
		owned: make(map[NodeId]bool),
		refs:  make(map[NodeId]bool),
	}
}

// NewChildFrame constructs the callee's frame from a CallFrameUpdate
// computed by the caller (spec §4.1 step 4: "Allocate the new frame with the
// moved nodes as its owned set and the references as its read-only set").
func NewChildFrame(depth int, actor Actor, update CallFrameUpdate) *CallFrame {
	f := &CallFrame{
		Depth: depth,
		Actor: actor,
		owned: make(map[NodeId]bool, len(update.Moved)),
		refs:  make(map[NodeId]bool, len(update.Refs)),
	}
	for id := range update.Moved {
		f.owned[id] = true
	}
	for id := range update.Refs {
		f.refs[id] = true
	}
	return f
}

// Owns reports whether id is in the frame's owned set.
func (f *CallFrame) Owns(id NodeId) bool { return f.owned[id] }

// CanReference reports whether id is reachable from this frame: owned
// directly, referenced directly, or globally addressed (spec §4.1
// "Node-reference rules": (a) globally addressed and handed to the callee,
// (b) owned, (c) reachable by descent — descent-by-substate-read is
// evaluated by the kernel at the point it follows a reference found inside a
// substate value, not here; this method covers the frame's own initial
// reachable set).
func (f *CallFrame) CanReference(id NodeId) bool {
	if f.owned[id] || f.refs[id] {
		return true
	}
	return id.EntityType().IsGlobal()
}

// AddOwned records a newly created or moved-in node as owned by this frame.
func (f *CallFrame) AddOwned(id NodeId) { f.owned[id] = true }

// AddRef records a reference handed into this frame.
func (f *CallFrame) AddRef(id NodeId) { f.refs[id] = true }

// ReleaseOwned removes id from the owned set, used when ownership moves out
// (drop_node, or a return update moving the node to the caller).
func (f *CallFrame) ReleaseOwned(id NodeId) error {
	if !f.owned[id] {
		return fmt.Errorf("frame: ReleaseOwned: %s not owned by this frame", id)
	}
	delete(f.owned, id)
	return nil
}

// OwnedNodes returns the frame's current owned set, used when computing the
// return CallFrameUpdate on pop.
func (f *CallFrame) OwnedNodes() []NodeId {
	out := make([]NodeId, 0, len(f.owned))
	for id := range f.owned {
		out = append(out, id)
	}
	return out
}
