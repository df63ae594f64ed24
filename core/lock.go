package core

// lock.go – substate lock bookkeeping (spec §3 Lock lifecycle, §4.1
// lock_substate). Grounded on the teacher's GasMeter in virtual_machine.go
// for the "small counting struct with a Consume-style guarded mutation"
// shape, adapted here to track exclusivity rather than remaining gas.
//
// At most one exclusive lock may exist per (node, partition, key);
// unbounded shared (read-only) locks coexist with no exclusive lock (spec §3
// Invariants). LockHandle is an opaque token handed to callees; the table
// that owns the underlying state lives on the Kernel, one per session, never
// package-level (spec §9 "no process-wide singletons").

import "fmt"

// LockFlags describes how a substate was locked (spec §3 Lock lifecycle).
type LockFlags struct {
	ReadOnly               bool
	Mutable                bool
	UnmodifiedBaseRequired bool
	ForceWrite             bool
}

// LockHandle is an opaque reference to an outstanding lock, returned by
// lock_substate and consumed by read_substate/write_substate/drop_lock.
type LockHandle uint32

type lockEntry struct {
	addr       SubstateAddress
	flags      LockFlags
	frameDepth int
	value      []byte
	baseStatus SubstateStatus
}

// LockTable tracks outstanding locks for one session. Acquisition enforces
// the exclusivity invariant: a mutable lock conflicts with any other lock
// (shared or mutable) on the same address; shared locks never conflict with
// each other.
type LockTable struct {
	next      LockHandle
	locks     map[LockHandle]*lockEntry
	exclusive map[SubstateAddress]LockHandle
	shared    map[SubstateAddress]map[LockHandle]bool
}

// NewLockTable constructs an empty lock table.
func NewLockTable() *LockTable {
	return &LockTable{
		locks:     make(map[LockHandle]*lockEntry),
		exclusive: make(map[SubstateAddress]LockHandle),
		shared:    make(map[SubstateAddress]map[LockHandle]bool),
	}
}

// Acquire allocates a new lock on addr with the given flags, failing with
// *KernelError{SubstateLocked} on a conflicting exclusivity request.
func (lt *LockTable) Acquire(addr SubstateAddress, flags LockFlags, frameDepth int, value []byte, baseStatus SubstateStatus) (LockHandle, error) {
	if _, held := lt.exclusive[addr]; held {
		return 0, NewKernelError("SubstateLocked: %s already exclusively locked", addr.Key)
	}
	if flags.Mutable {
		if shared := lt.shared[addr]; len(shared) > 0 {
			return 0, NewKernelError("SubstateLocked: %s has outstanding shared locks", addr.Key)
		}
	}
	lt.next++
	h := lt.next
	lt.locks[h] = &lockEntry{addr: addr, flags: flags, frameDepth: frameDepth, value: value, baseStatus: baseStatus}
	if flags.Mutable {
		lt.exclusive[addr] = h
	} else {
		if lt.shared[addr] == nil {
			lt.shared[addr] = make(map[LockHandle]bool)
		}
		lt.shared[addr][h] = true
	}
	return h, nil
}

// Get returns the tracked value and flags for handle.
func (lt *LockTable) Get(h LockHandle) (*lockEntry, error) {
	e, ok := lt.locks[h]
	if !ok {
		return nil, NewKernelError("invalid lock handle %d", h)
	}
	return e, nil
}

// Write updates the value held under a mutable lock. Fails if the lock is
// read-only.
func (lt *LockTable) Write(h LockHandle, value []byte) error {
	e, ok := lt.locks[h]
	if !ok {
		return NewKernelError("invalid lock handle %d", h)
	}
	if !e.flags.Mutable {
		return NewKernelError("write_substate on read-only lock handle %d", h)
	}
	e.value = value
	return nil
}

// Release drops a lock, freeing its address for subsequent acquisition.
func (lt *LockTable) Release(h LockHandle) error {
	e, ok := lt.locks[h]
	if !ok {
		return NewKernelError("invalid lock handle %d", h)
	}
	delete(lt.locks, h)
	if e.flags.Mutable {
		delete(lt.exclusive, e.addr)
	} else if set := lt.shared[e.addr]; set != nil {
		delete(set, h)
		if len(set) == 0 {
			delete(lt.shared, e.addr)
		}
	}
	return nil
}

// ReleaseFrame releases every lock acquired at the given frame depth,
// enforcing spec §3 "on frame return, every lock the frame acquired is
// released" and returning the handles it released (callers use this to
// assert none remained open, which the spec calls a defect if it happens).
func (lt *LockTable) ReleaseFrame(frameDepth int) []LockHandle {
	var released []LockHandle
	for h, e := range lt.locks {
		if e.frameDepth == frameDepth {
			released = append(released, h)
		}
	}
	for _, h := range released {
		_ = lt.Release(h)
	}
	return released
}

// OutstandingOn reports whether any lock, exclusive or shared, is currently
// held on addr. drop_node's "fails with OutstandingLocks" check uses
// OutstandingOnNode instead.
func (lt *LockTable) OutstandingOn(addr SubstateAddress) bool {
	if _, ok := lt.exclusive[addr]; ok {
		return true
	}
	return len(lt.shared[addr]) > 0
}

// OutstandingOnNode reports whether any substate of node is currently
// locked, used by drop_node.
func (lt *LockTable) OutstandingOnNode(node NodeId) bool {
	for addr := range lt.exclusive {
		if addr.Node == node {
			return true
		}
	}
	for addr, set := range lt.shared {
		if addr.Node == node && len(set) > 0 {
			return true
		}
	}
	return false
}

func (e *lockEntry) String() string {
	return fmt.Sprintf("lock(%s, mutable=%v, depth=%d)", e.addr.Key, e.flags.Mutable, e.frameDepth)
}
