package core

// kernel.go – the Kernel public contract (spec §4.1). Grounded on the
// teacher's ExecutionManager in execution_management.go as the shape of "one
// struct coordinating store + VM for a session", generalized from its
// block-oriented BeginBlock/ExecuteTx/FinalizeBlock shape (blocks/consensus
// are a spec Non-goal) down to the single-session frame-stack model the
// spec actually requires.
//
// A Kernel is constructed fresh per transaction-processor session; it is
// never a package-level singleton (spec §9 "Global state: none in the
// core").

import (
	"fmt"

	logrus "github.com/sirupsen/logrus"
)

// KernelModule is the hook interface cost/royalty/auth/limits modules
// implement to observe every invocation (spec §C.4, original_source
// execution_costing_module.rs before_invoke/after_invoke shape).
type KernelModule interface {
	BeforeInvoke(k *Kernel, actor Actor, update CallFrameUpdate) error
	AfterInvoke(k *Kernel, actor Actor, result []byte) error
}

// Limits bounds a session (spec §A Limits / §4.3 Transaction limits).
type Limits struct {
	MaxCallDepth        int
	MaxWasmMemoryPerTx  int
	MaxWasmMemoryPerCall int
	MaxSubstateReads    int
	MaxSubstateSize     int
	MaxEventSize        int
}

// DefaultLimits mirrors the teacher's DefaultGasCost convention of a
// conservative, documented constant rather than a magic number scattered
// through the code.
var DefaultLimits = Limits{
	MaxCallDepth:         64,
	MaxWasmMemoryPerTx:   64 * 1024 * 1024,
	MaxWasmMemoryPerCall: 16 * 1024 * 1024,
	MaxSubstateReads:     100_000,
	MaxSubstateSize:      1024 * 1024,
	MaxEventSize:         64 * 1024,
}

// Kernel orchestrates frame push/pop, node lifecycle, substate locking, and
// invocation dispatch for one session (spec §4.1).
type Kernel struct {
	Track     *Track
	Heap      *Heap
	Locks     *LockTable
	Allocator *NodeAllocator
	Events    *EventLog
	Logs      *LogBook
	Limits    Limits
	Modules   []KernelModule

	frames       []*CallFrame
	substateReads int

	log *logrus.Entry
}

// NewKernel constructs a session kernel over store, seeded deterministically
// from txSeed (spec §4.1 allocate_node_id: "derived from a session-unique
// counter").
func NewKernel(store SubstateStore, txSeed Hash, limits Limits, modules []KernelModule) *Kernel {
	k := &Kernel{
		Track:     NewTrack(store),
		Heap:      NewHeap(),
		Locks:     NewLockTable(),
		Allocator: NewNodeAllocator(txSeed),
		Events:    NewEventLog(),
		Logs:      NewLogBook(),
		Limits:    limits,
		Modules:   modules,
		log:       logrus.WithField("component", "kernel"),
	}
	k.frames = []*CallFrame{NewRootFrame()}
	return k
}

// CurrentFrame returns the innermost active call frame.
func (k *Kernel) CurrentFrame() *CallFrame { return k.frames[len(k.frames)-1] }

// GetCurrentDepth returns the depth of the innermost frame (spec §4.1
// get_current_depth).
func (k *Kernel) GetCurrentDepth() int { return k.CurrentFrame().Depth }

// GetCurrentActor returns the actor of the innermost frame (spec §4.1
// get_current_actor).
func (k *Kernel) GetCurrentActor() Actor { return k.CurrentFrame().Actor }

// AllocateNodeId hands out a fresh NodeId (spec §4.1 allocate_node_id).
func (k *Kernel) AllocateNodeId(et EntityType) NodeId {
	return k.Allocator.Allocate(et)
}

// CreateNode inserts a node into the heap (spec §4.1 create_node). Fails
// with *KernelError if id is already on the heap; nodes already globalized
// into Track or persisted in the store are not checked.
func (k *Kernel) CreateNode(id NodeId, substates map[PartitionNumber]map[SubstateKey][]byte) error {
	if k.Heap.Exists(id) {
		return NewKernelError("AlreadyExists: node %s already on heap", id)
	}
	if err := k.Heap.CreateNode(id, substates); err != nil {
		return NewKernelError("create_node: %v", err)
	}
	k.CurrentFrame().AddOwned(id)
	k.log.WithField("node", id.Hex()).Debug("node created")
	return nil
}

// DropNode removes a node from the heap, returning its substates (spec §4.1
// drop_node). Fails if the node is global, has outstanding locks, or is not
// reachable from the current frame.
func (k *Kernel) DropNode(id NodeId) (map[PartitionNumber]map[SubstateKey][]byte, error) {
	if id.EntityType().IsGlobal() {
		return nil, NewKernelError("NodeNotDroppable: %s is global", id)
	}
	if !k.CurrentFrame().CanReference(id) {
		return nil, NewKernelError("UnreachableNode: %s not reachable from current frame", id)
	}
	if k.Locks.OutstandingOnNode(id) {
		return nil, NewKernelError("OutstandingLocks: %s has outstanding locks", id)
	}
	substates, ok := k.Heap.Drop(id)
	if !ok {
		return nil, NewKernelError("NodeNotFound: %s not on heap", id)
	}
	_ = k.CurrentFrame().ReleaseOwned(id)
	k.log.WithField("node", id.Hex()).Debug("node dropped")
	return substates, nil
}

// Globalize moves a heap node's substates into Track, marking it reachable
// by global address from here on (spec §3 Node lifecycle "optionally
// globalized").
func (k *Kernel) Globalize(id NodeId) error {
	substates, ok := k.Heap.Drop(id)
	if !ok {
		return NewKernelError("NodeNotFound: %s not on heap, cannot globalize", id)
	}
	k.Track.CreateNode(id, substates)
	return nil
}

// LockSubstate allocates a lock, materializing the substate value from the
// heap, then Track, then the caller-supplied default (spec §4.1
// lock_substate).
func (k *Kernel) LockSubstate(id NodeId, partition PartitionNumber, key SubstateKey, flags LockFlags, onAccess OnStoreAccess, byDefault func() ([]byte, bool)) (LockHandle, error) {
	if !k.CurrentFrame().CanReference(id) {
		return 0, NewKernelError("UnreachableNode: %s not reachable from current frame", id)
	}

	if v, ok := k.Heap.Read(id, partition, key); ok {
		return k.Locks.Acquire(SubstateAddress{Node: id, Partition: partition, Key: key}, flags, k.GetCurrentDepth(), v, SubstateStatusNew)
	}

	addr := SubstateAddress{Node: id, Partition: partition, Key: key}
	k.substateReads++
	if k.Limits.MaxSubstateReads > 0 && k.substateReads > k.Limits.MaxSubstateReads {
		return 0, NewTransactionLimitsError("MaxSubstateReadsCountExceeded: %d", k.substateReads)
	}
	value, found, err := k.Track.Read(addr, onAccess)
	if err != nil {
		return 0, fmt.Errorf("lock_substate: %w", err)
	}
	if !found {
		if byDefault == nil {
			return 0, NewKernelError("SubstateNotFound: %s", key)
		}
		def, ok := byDefault()
		if !ok {
			return 0, NewKernelError("SubstateNotFound: %s", key)
		}
		if k.Limits.MaxSubstateSize > 0 && len(def) > k.Limits.MaxSubstateSize {
			return 0, NewTransactionLimitsError("MaxSubstateSizeExceeded: %d", len(def))
		}
		return k.Locks.Acquire(addr, flags, k.GetCurrentDepth(), def, SubstateStatusUnmodified)
	}
	if k.Limits.MaxSubstateSize > 0 && len(value) > k.Limits.MaxSubstateSize {
		return 0, NewTransactionLimitsError("MaxSubstateSizeExceeded: %d", len(value))
	}
	status := k.Track.GetTrackedStatus(addr)
	return k.Locks.Acquire(addr, flags, k.GetCurrentDepth(), value, status)
}

// ReadSubstate returns the value held by an outstanding lock (spec §4.1
// read_substate).
func (k *Kernel) ReadSubstate(handle LockHandle) ([]byte, error) {
	e, err := k.Locks.Get(handle)
	if err != nil {
		return nil, err
	}
	return e.value, nil
}

// WriteSubstate updates the value held by a mutable lock (spec §4.1
// write_substate); the new value is not visible outside the lock until
// DropLock flushes it into the heap or Track.
func (k *Kernel) WriteSubstate(handle LockHandle, value []byte) error {
	return k.Locks.Write(handle, value)
}

// DropLock releases a lock, flushing its current value back to the heap or
// Track depending on where it was sourced from (spec §4.1 drop_lock).
func (k *Kernel) DropLock(handle LockHandle) error {
	e, err := k.Locks.Get(handle)
	if err != nil {
		return err
	}
	if e.flags.Mutable {
		if k.Heap.Exists(e.addr.Node) {
			if err := k.Heap.Write(e.addr.Node, e.addr.Partition, e.addr.Key, e.value); err != nil {
				return err
			}
		} else {
			forceWrite := e.flags.ForceWrite
			k.Track.Write(e.addr, e.value, forceWrite)
		}
	}
	return k.Locks.Release(handle)
}

// SetSubstate inserts or overwrites a substate directly, for key-value-store
// style partitions that do not warrant a long-lived lock (spec §4.1
// set_substate).
func (k *Kernel) SetSubstate(id NodeId, partition PartitionNumber, key SubstateKey, value []byte) error {
	if !k.CurrentFrame().CanReference(id) {
		return NewKernelError("UnreachableNode: %s not reachable from current frame", id)
	}
	if k.Heap.Exists(id) {
		return k.Heap.Write(id, partition, key, value)
	}
	k.Track.Write(SubstateAddress{Node: id, Partition: partition, Key: key}, value, false)
	return nil
}

// RemoveSubstate deletes a substate directly (spec §4.1 remove_substate).
func (k *Kernel) RemoveSubstate(id NodeId, partition PartitionNumber, key SubstateKey) ([]byte, bool) {
	if k.Heap.Exists(id) {
		return k.Heap.Remove(id, partition, key)
	}
	return k.Track.Remove(SubstateAddress{Node: id, Partition: partition, Key: key})
}

// ScanKeys returns up to count keys in a partition (spec §4.1 scan_keys).
func (k *Kernel) ScanKeys(id NodeId, partition PartitionNumber, count int) []SubstateKey {
	if k.Heap.Exists(id) {
		return k.Heap.ScanKeys(id, partition, count)
	}
	keys, _ := k.Track.store.ScanKeys(id, partition, count, nil)
	return keys
}

// GetNodeVisibility reports whether id is reachable from the current frame
// (spec §4.1 get_node_visibility).
func (k *Kernel) GetNodeVisibility(id NodeId) bool {
	return k.CurrentFrame().CanReference(id)
}

// PushFrame pushes a new call frame for an invocation, running every
// module's BeforeInvoke hook and enforcing the configured call-depth limit
// (spec §4.1 Frame push algorithm, steps 2–4).
func (k *Kernel) PushFrame(actor Actor, update CallFrameUpdate) (*CallFrame, error) {
	for _, m := range k.Modules {
		if err := m.BeforeInvoke(k, actor, update); err != nil {
			return nil, err
		}
	}
	depth := k.GetCurrentDepth() + 1
	if k.Limits.MaxCallDepth > 0 && depth > k.Limits.MaxCallDepth {
		return nil, NewTransactionLimitsError("CallDepthExceeded: depth %d", depth)
	}
	for id := range update.Moved {
		if err := k.CurrentFrame().ReleaseOwned(id); err != nil {
			return nil, NewKernelError("invoke: %v", err)
		}
	}
	frame := NewChildFrame(depth, actor, update)
	k.frames = append(k.frames, frame)
	k.log.WithFields(logrus.Fields{"depth": depth, "blueprint": actor.Blueprint, "fn": actor.Function}).Debug("frame pushed")
	return frame, nil
}

// PopFrame pops the innermost frame after an invocation returns,
// force-releasing (with a warning, not an error) any locks still open at
// this depth, then merging the frame's remaining owned nodes back to the
// caller (spec §4.1 step 7).
func (k *Kernel) PopFrame(result []byte) error {
	frame := k.CurrentFrame()
	if frame.Depth == 0 {
		return NewKernelError("PopFrame: cannot pop the root frame")
	}
	released := k.Locks.ReleaseFrame(frame.Depth)
	if len(released) > 0 {
		k.log.WithField("count", len(released)).Warn("frame returned with open locks; force-released")
	}
	k.frames = k.frames[:len(k.frames)-1]
	caller := k.CurrentFrame()
	for _, id := range frame.OwnedNodes() {
		caller.AddOwned(id)
	}
	for _, m := range k.Modules {
		if err := m.AfterInvoke(k, frame.Actor, result); err != nil {
			return err
		}
	}
	k.log.WithField("depth", frame.Depth).Debug("frame popped")
	return nil
}

// SessionInvariantsHold checks the spec §3 end-of-session invariants: the
// heap contains no non-transient nodes, and (by extension) every remaining
// heap node is one of the transient entity types the worktop/auth-zone/
// bucket/proof model uses.
func (k *Kernel) SessionInvariantsHold() error {
	for _, id := range k.Heap.Nodes() {
		if !id.EntityType().IsTransient() {
			return NewKernelError("session end: non-transient node %s still on heap", id)
		}
	}
	return nil
}
