package core

// node_alloc.go – deterministic NodeId allocation (spec §3 Node, §4.1
// allocate_node_id). Grounded on the teacher's DeriveContractAddress in
// contracts.go, which derives an Address from a deployer address and a
// monotonically increasing nonce via sha256; we use the same shape but
// keccak256 (github.com/ethereum/go-ethereum/crypto), matching the "hashing
// primitive" wiring recorded in SPEC_FULL.md §B.
//
// Allocation is a pure function of (transaction seed, per-session counter,
// entity type): no randomness and no wall-clock, so two kernels replaying the
// same transaction allocate identical NodeIds in identical order.

import (
	"encoding/binary"

	"github.com/ethereum/go-ethereum/crypto"
)

// NodeAllocator hands out NodeIds deterministically within one session. It is
// NOT a package-level singleton: a fresh NodeAllocator is created per
// transaction-processor session (spec §3 invariant: "no process-wide
// singletons").
type NodeAllocator struct {
	seed    Hash
	counter uint64
}

// NewNodeAllocator seeds the allocator from the transaction's intent hash so
// that replaying the same transaction produces the same NodeId sequence.
func NewNodeAllocator(txSeed Hash) *NodeAllocator {
	return &NodeAllocator{seed: txSeed}
}

// Allocate returns the next NodeId of the given EntityType.
func (a *NodeAllocator) Allocate(et EntityType) NodeId {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], a.counter)
	a.counter++

	payload := make([]byte, 0, len(a.seed)+len(buf)+1)
	payload = append(payload, a.seed[:]...)
	payload = append(payload, buf[:]...)
	payload = append(payload, byte(et))

	digest := crypto.Keccak256(payload)

	var id NodeId
	id[0] = byte(et)
	copy(id[1:], digest[:len(id)-1])
	return id
}

// Count reports how many NodeIds have been allocated so far in this session.
func (a *NodeAllocator) Count() uint64 { return a.counter }
