package core

// store.go – the persistent substate store boundary (spec §1 Non-goals: "the
// on-disk key-value store implementation" is out of scope; what IS in scope
// is the interface the kernel programs against, plus a reference in-memory
// implementation so the kernel is independently testable). Grounded on the
// Rust original's SubstateStore trait
// (original_source/radix-engine/src/track/interface.rs), translated from a
// generic-parameterised trait into a plain Go interface — Go has no
// associated-error-type generics idiom as clean as Rust's, so on_store_access
// becomes a concrete StoreAccess callback parameter instead of a type
// parameter, matching how the teacher's StateRW interface in the original
// common_structs.go took concrete callback-free methods throughout.
//
// store.go intentionally has no persistence, no WAL, no snapshotting: those
// belong to the out-of-scope on-disk implementation. MemStore exists purely
// as the reference double used by tests and by a standalone kernel session
// that isn't wired to a real backing store.

import (
	"fmt"
	"sync"
)

// StoreAccessKind classifies a single access to the backing store, used by
// the costing module to charge database-touch costs only for genuine store
// reads (spec §C.1 CallbackError composition / SPEC_FULL.md §C.1).
type StoreAccessKind uint8

const (
	StoreAccessReadFromDb StoreAccessKind = iota
	StoreAccessReadFromDbNotFound
	StoreAccessNewEntryInTrack
)

// StoreAccess describes one access event, reported to an OnStoreAccess hook
// so a caller (the costing module) can meter it.
type StoreAccess struct {
	Kind    StoreAccessKind
	Address SubstateAddress
	Size    int
}

// OnStoreAccess is invoked once per genuine access to the backing store (not
// per heap hit). Returning a non-nil error aborts the store operation with a
// StoreAccessError wrapping the callback error.
type OnStoreAccess func(StoreAccess) error

// SubstateStore is the interface the kernel's Track overlay programs
// against. A concrete on-disk implementation is out of scope; MemStore below
// is the reference in-memory implementation used for testing and for
// standalone kernel sessions.
type SubstateStore interface {
	// CreateNode inserts a brand-new node and its initial substates.
	// Clients must ensure node is unique; behavior is undefined otherwise.
	CreateNode(node NodeId, substates map[PartitionNumber]map[SubstateKey][]byte, onAccess OnStoreAccess) error

	// ReadSubstate returns the current value, or (nil, false) if absent.
	ReadSubstate(node NodeId, partition PartitionNumber, key SubstateKey, onAccess OnStoreAccess) ([]byte, bool, error)

	// WriteSubstate inserts or overwrites a substate. Clients must ensure the
	// node/partition already exists.
	WriteSubstate(node NodeId, partition PartitionNumber, key SubstateKey, value []byte, onAccess OnStoreAccess) error

	// RemoveSubstate deletes a substate, returning its prior value if present.
	RemoveSubstate(node NodeId, partition PartitionNumber, key SubstateKey, onAccess OnStoreAccess) ([]byte, bool, error)

	// ScanKeys returns up to count keys present in a partition, store-defined
	// order (spec §3 "ordered scan" semantics for sorted-index partitions are
	// layered by the caller over this).
	ScanKeys(node NodeId, partition PartitionNumber, count int, onAccess OnStoreAccess) ([]SubstateKey, error)

	// DrainSubstates removes and returns up to count entries from a partition.
	DrainSubstates(node NodeId, partition PartitionNumber, count int, onAccess OnStoreAccess) ([]KV, error)

	// DeletePartition removes every substate in a partition.
	DeletePartition(node NodeId, partition PartitionNumber)
}

// KV is a decoded (key, value) pair returned by DrainSubstates/ScanKeys-style
// bulk reads.
type KV struct {
	Key   SubstateKey
	Value []byte
}

// MemStore is an in-memory SubstateStore: the reference double used by tests
// and by standalone sessions that have no on-disk backing. It is safe for
// concurrent use, following the teacher's convention (ledger.go, StateRW
// implementations) of guarding a map with a sync.RWMutex rather than
// channels.
type MemStore struct {
	mu       sync.RWMutex
	nodes    map[NodeId]map[PartitionNumber]map[SubstateKey][]byte
	keyOrder map[NodeId]map[PartitionNumber][]SubstateKey
}

// NewMemStore constructs an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		nodes:    make(map[NodeId]map[PartitionNumber]map[SubstateKey][]byte),
		keyOrder: make(map[NodeId]map[PartitionNumber][]SubstateKey),
	}
}

func (s *MemStore) CreateNode(node NodeId, substates map[PartitionNumber]map[SubstateKey][]byte, onAccess OnStoreAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.nodes[node]; exists {
		return fmt.Errorf("store: CreateNode: node %s already exists", node)
	}
	partitions := make(map[PartitionNumber]map[SubstateKey][]byte, len(substates))
	order := make(map[PartitionNumber][]SubstateKey, len(substates))
	for p, kvs := range substates {
		m := make(map[SubstateKey][]byte, len(kvs))
		var keys []SubstateKey
		for k, v := range kvs {
			m[k] = append([]byte(nil), v...)
			keys = append(keys, k)
			if onAccess != nil {
				if err := onAccess(StoreAccess{Kind: StoreAccessNewEntryInTrack, Address: SubstateAddress{Node: node, Partition: p, Key: k}, Size: len(v)}); err != nil {
					return &StoreAccessError{CallbackErr: err}
				}
			}
		}
		partitions[p] = m
		order[p] = keys
	}
	s.nodes[node] = partitions
	s.keyOrder[node] = order
	return nil
}

func (s *MemStore) ReadSubstate(node NodeId, partition PartitionNumber, key SubstateKey, onAccess OnStoreAccess) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	addr := SubstateAddress{Node: node, Partition: partition, Key: key}
	part, ok := s.nodes[node]
	if !ok {
		if onAccess != nil {
			if err := onAccess(StoreAccess{Kind: StoreAccessReadFromDbNotFound, Address: addr}); err != nil {
				return nil, false, &StoreAccessError{CallbackErr: err}
			}
		}
		return nil, false, nil
	}
	values, ok := part[partition]
	if !ok {
		if onAccess != nil {
			if err := onAccess(StoreAccess{Kind: StoreAccessReadFromDbNotFound, Address: addr}); err != nil {
				return nil, false, &StoreAccessError{CallbackErr: err}
			}
		}
		return nil, false, nil
	}
	v, ok := values[key]
	if !ok {
		if onAccess != nil {
			if err := onAccess(StoreAccess{Kind: StoreAccessReadFromDbNotFound, Address: addr}); err != nil {
				return nil, false, &StoreAccessError{CallbackErr: err}
			}
		}
		return nil, false, nil
	}
	if onAccess != nil {
		if err := onAccess(StoreAccess{Kind: StoreAccessReadFromDb, Address: addr, Size: len(v)}); err != nil {
			return nil, false, &StoreAccessError{CallbackErr: err}
		}
	}
	return append([]byte(nil), v...), true, nil
}

func (s *MemStore) WriteSubstate(node NodeId, partition PartitionNumber, key SubstateKey, value []byte, onAccess OnStoreAccess) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	part, ok := s.nodes[node]
	if !ok {
		return fmt.Errorf("store: WriteSubstate: node %s does not exist", node)
	}
	values, ok := part[partition]
	if !ok {
		values = make(map[SubstateKey][]byte)
		part[partition] = values
	}
	_, existed := values[key]
	values[key] = append([]byte(nil), value...)
	if !existed {
		s.keyOrder[node][partition] = append(s.keyOrder[node][partition], key)
		if onAccess != nil {
			return wrapCB(onAccess(StoreAccess{Kind: StoreAccessNewEntryInTrack, Address: SubstateAddress{Node: node, Partition: partition, Key: key}, Size: len(value)}))
		}
	}
	return nil
}

func (s *MemStore) RemoveSubstate(node NodeId, partition PartitionNumber, key SubstateKey, onAccess OnStoreAccess) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	part, ok := s.nodes[node]
	if !ok {
		return nil, false, nil
	}
	values, ok := part[partition]
	if !ok {
		return nil, false, nil
	}
	v, ok := values[key]
	if !ok {
		return nil, false, nil
	}
	delete(values, key)
	keys := s.keyOrder[node][partition]
	for i, k := range keys {
		if k == key {
			s.keyOrder[node][partition] = append(keys[:i], keys[i+1:]...)
			break
		}
	}
	return v, true, nil
}

func (s *MemStore) ScanKeys(node NodeId, partition PartitionNumber, count int, onAccess OnStoreAccess) ([]SubstateKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := s.keyOrder[node][partition]
	if count > 0 && count < len(keys) {
		keys = keys[:count]
	}
	out := make([]SubstateKey, len(keys))
	copy(out, keys)
	return out, nil
}

func (s *MemStore) DrainSubstates(node NodeId, partition PartitionNumber, count int, onAccess OnStoreAccess) ([]KV, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keys := s.keyOrder[node][partition]
	if count > 0 && count < len(keys) {
		keys = keys[:count]
	}
	values := s.nodes[node][partition]
	out := make([]KV, 0, len(keys))
	for _, k := range keys {
		out = append(out, KV{Key: k, Value: values[k]})
		delete(values, k)
	}
	remaining := s.keyOrder[node][partition][len(keys):]
	s.keyOrder[node][partition] = append([]SubstateKey(nil), remaining...)
	return out, nil
}

func (s *MemStore) DeletePartition(node NodeId, partition PartitionNumber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if part, ok := s.nodes[node]; ok {
		delete(part, partition)
	}
	if ord, ok := s.keyOrder[node]; ok {
		delete(ord, partition)
	}
}

func wrapCB(err error) error {
	if err == nil {
		return nil
	}
	return &StoreAccessError{CallbackErr: err}
}
