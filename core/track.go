package core

// track.go – the write-buffer overlay between the kernel and the persistent
// substate store (spec §3 "Track (write buffer)", §5 "the track overlay is
// the only shared structure"). Grounded on the Rust original's Track
// implementation shape described by the SubstateStore trait
// (original_source/radix-engine/src/track/interface.rs): reads are served
// from the overlay first, falling through to the backing store only on a
// genuine miss, and every substate carries a SubstateStatus distinguishing
// New/Updated/Unmodified so commit can produce a minimal Insert/Update/Delete
// delta and so the "unmodified-base-required" lock flag can be checked.
//
// Track is a field of the per-transaction session, never a package-level
// singleton (spec §9 "Global state: none in the core").

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// SubstateStatus classifies a tracked substate relative to the store
// snapshot this session started from (spec §C.2 / original_source
// TrackedSubstateInfo).
type SubstateStatus uint8

const (
	SubstateStatusUnmodified SubstateStatus = iota
	SubstateStatusNew
	SubstateStatusUpdated
	SubstateStatusDeleted
)

type trackedEntry struct {
	value      []byte
	status     SubstateStatus
	forceWrite bool
	loadedFromStore bool
}

// Track buffers reads and writes over a SubstateStore for the duration of one
// session. All mutation goes through the kernel, which serializes access
// (spec §5).
type Track struct {
	store   SubstateStore
	entries map[SubstateAddress]*trackedEntry
	// createdNodes records nodes created purely in this session (never
	// touched the store), so Read skips the store fallthrough for them and
	// Commit materializes them with a store CreateNode.
	createdNodes map[NodeId]bool
}

// NewTrack constructs a Track overlaying the given store.
func NewTrack(store SubstateStore) *Track {
	return &Track{
		store:        store,
		entries:      make(map[SubstateAddress]*trackedEntry),
		createdNodes: make(map[NodeId]bool),
	}
}

// CreateNode registers a brand-new node in the overlay without touching the
// store until commit.
func (t *Track) CreateNode(node NodeId, substates map[PartitionNumber]map[SubstateKey][]byte) {
	t.createdNodes[node] = true
	for partition, kvs := range substates {
		for key, value := range kvs {
			addr := SubstateAddress{Node: node, Partition: partition, Key: key}
			t.entries[addr] = &trackedEntry{value: value, status: SubstateStatusNew}
		}
	}
}

// GetTrackedStatus reports the SubstateStatus of a substate without forcing
// a store read, returning SubstateStatusUnmodified for anything not yet
// touched this session (matching the Rust original's
// get_tracked_substate_info default).
func (t *Track) GetTrackedStatus(addr SubstateAddress) SubstateStatus {
	if e, ok := t.entries[addr]; ok {
		return e.status
	}
	return SubstateStatusUnmodified
}

// Read returns the current value at addr, falling through to the backing
// store on first access and caching the result. onAccess is invoked only on
// a genuine store touch, never on a cache hit — the costing module relies on
// this to charge database-read costs precisely (spec §C.1).
func (t *Track) Read(addr SubstateAddress, onAccess OnStoreAccess) ([]byte, bool, error) {
	if e, ok := t.entries[addr]; ok {
		if e.status == SubstateStatusDeleted {
			return nil, false, nil
		}
		return e.value, true, nil
	}
	if t.createdNodes[addr.Node] {
		// the node exists only in this session; absence here means the key
		// genuinely does not exist, no store fallthrough.
		return nil, false, nil
	}
	value, found, err := t.store.ReadSubstate(addr.Node, addr.Partition, addr.Key, onAccess)
	if err != nil {
		return nil, false, err
	}
	if found {
		t.entries[addr] = &trackedEntry{value: value, status: SubstateStatusUnmodified, loadedFromStore: true}
	}
	return value, found, nil
}

// Write records a new value for addr. An entry loaded from the store, or
// deleted earlier in this session, becomes Updated; an entry that is New in
// this session stays New; an untracked address is recorded as New.
func (t *Track) Write(addr SubstateAddress, value []byte, forceWrite bool) {
	e, ok := t.entries[addr]
	if !ok {
		t.entries[addr] = &trackedEntry{value: value, status: SubstateStatusNew, forceWrite: forceWrite}
		return
	}
	if e.status == SubstateStatusUnmodified || e.status == SubstateStatusDeleted {
		e.status = SubstateStatusUpdated
	}
	e.value = value
	if forceWrite {
		e.forceWrite = true
	}
}

// Remove marks addr deleted in the overlay. A substate that was only ever
// New in this session (never persisted) is dropped from the overlay
// entirely rather than carrying a Deleted tombstone into commit.
func (t *Track) Remove(addr SubstateAddress) ([]byte, bool) {
	e, ok := t.entries[addr]
	if !ok {
		if t.createdNodes[addr.Node] {
			return nil, false
		}
		value, found, err := t.store.ReadSubstate(addr.Node, addr.Partition, addr.Key, nil)
		if err != nil || !found {
			return nil, false
		}
		t.entries[addr] = &trackedEntry{value: value, status: SubstateStatusDeleted, loadedFromStore: true}
		return value, true
	}
	if e.status == SubstateStatusNew {
		delete(t.entries, addr)
		return e.value, true
	}
	prev := e.value
	e.status = SubstateStatusDeleted
	return prev, true
}

// Delta is one entry of the commit log (spec §6.2 "state updates").
type Delta struct {
	Op      DeltaOp
	Address SubstateAddress
	Value   []byte // empty for Delete
	Size    int
}

type DeltaOp uint8

const (
	DeltaInsert DeltaOp = iota
	DeltaUpdate
	DeltaDelete
)

// compareSubstateAddress totally orders addresses by (node, partition, key),
// giving Commit a stable iteration order independent of Go's randomized map
// iteration (spec §8 property 1 "identical receipt... on every run"; §6.2
// "state updates (ordered list)").
func compareSubstateAddress(a, b SubstateAddress) int {
	if c := bytes.Compare(a.Node[:], b.Node[:]); c != 0 {
		return c
	}
	if a.Partition != b.Partition {
		if a.Partition < b.Partition {
			return -1
		}
		return 1
	}
	if a.Key.Kind != b.Key.Kind {
		if a.Key.Kind < b.Key.Kind {
			return -1
		}
		return 1
	}
	if a.Key.Tuple != b.Key.Tuple {
		if a.Key.Tuple < b.Key.Tuple {
			return -1
		}
		return 1
	}
	if a.Key.Bucket != b.Key.Bucket {
		if a.Key.Bucket < b.Key.Bucket {
			return -1
		}
		return 1
	}
	return strings.Compare(a.Key.MapKey, b.Key.MapKey)
}

// Commit flushes all tracked changes to the backing store and returns the
// ordered delta log for the receipt. If forceWriteOnly is true, only entries
// marked forceWrite are applied (the abort path, spec §5 "retains
// force-write writes"). Both passes walk a sorted address list rather than
// the raw entries map so the resulting delta order — and the commit side
// effects on the store — are the same on every run, not just on every run in
// the same process.
func (t *Track) Commit(onAccess OnStoreAccess, forceWriteOnly bool) ([]Delta, error) {
	addrs := make([]SubstateAddress, 0, len(t.entries))
	for addr := range t.entries {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return compareSubstateAddress(addrs[i], addrs[j]) < 0 })

	nodes := make([]NodeId, 0, len(t.createdNodes))
	for node := range t.createdNodes {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return bytes.Compare(nodes[i][:], nodes[j][:]) < 0 })

	var deltas []Delta

	// Nodes created this session must be materialized in the store via
	// CreateNode before any individual substate write, since the store
	// requires WriteSubstate's target node to already exist.
	committedNode := make(map[NodeId]bool)
	for _, node := range nodes {
		initial := make(map[PartitionNumber]map[SubstateKey][]byte)
		var order []SubstateAddress
		for _, addr := range addrs {
			if addr.Node != node {
				continue
			}
			e := t.entries[addr]
			if e.status != SubstateStatusNew {
				continue
			}
			if forceWriteOnly && !e.forceWrite {
				continue
			}
			if _, ok := initial[addr.Partition]; !ok {
				initial[addr.Partition] = make(map[SubstateKey][]byte)
			}
			initial[addr.Partition][addr.Key] = e.value
			order = append(order, addr)
		}
		if len(initial) == 0 {
			continue
		}
		if err := t.store.CreateNode(node, initial, onAccess); err != nil {
			return nil, fmt.Errorf("track: commit create node %s: %w", node, err)
		}
		committedNode[node] = true
		for _, addr := range order {
			e := t.entries[addr]
			deltas = append(deltas, Delta{Op: DeltaInsert, Address: addr, Value: e.value, Size: len(e.value)})
		}
	}

	for _, addr := range addrs {
		e := t.entries[addr]
		if committedNode[addr.Node] && e.status == SubstateStatusNew {
			continue
		}
		if forceWriteOnly && !e.forceWrite {
			continue
		}
		switch e.status {
		case SubstateStatusNew:
			if err := t.store.WriteSubstate(addr.Node, addr.Partition, addr.Key, e.value, onAccess); err != nil {
				return nil, fmt.Errorf("track: commit insert %s: %w", addr.Key, err)
			}
			deltas = append(deltas, Delta{Op: DeltaInsert, Address: addr, Value: e.value, Size: len(e.value)})
		case SubstateStatusUpdated:
			if err := t.store.WriteSubstate(addr.Node, addr.Partition, addr.Key, e.value, onAccess); err != nil {
				return nil, fmt.Errorf("track: commit update %s: %w", addr.Key, err)
			}
			deltas = append(deltas, Delta{Op: DeltaUpdate, Address: addr, Value: e.value, Size: len(e.value)})
		case SubstateStatusDeleted:
			if _, _, err := t.store.RemoveSubstate(addr.Node, addr.Partition, addr.Key, onAccess); err != nil {
				return nil, fmt.Errorf("track: commit delete %s: %w", addr.Key, err)
			}
			deltas = append(deltas, Delta{Op: DeltaDelete, Address: addr})
		case SubstateStatusUnmodified:
			// nothing to flush
		}
	}
	return deltas, nil
}

// DiscardNonForceWrite clears every tracked entry except force-write ones,
// used on abort (spec §5 "discards track's non-force-write writes").
func (t *Track) DiscardNonForceWrite() {
	for addr, e := range t.entries {
		if !e.forceWrite {
			delete(t.entries, addr)
		}
	}
}
