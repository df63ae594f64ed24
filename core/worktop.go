package core

// worktop.go – the per-transaction resource return buffer (spec §3
// Worktop, §4.2 "take or fail", §C.5). Grounded on the teacher's balance
// bookkeeping in ledger.go (a resource-keyed amount map with take/put
// primitives) and generalized to also track non-fungible id sets, since a
// worktop must merge buckets of the same resource (spec §3 "buckets
// returned by a call are automatically merged into the worktop").

// ResourceBucket is an in-flight quantity of one resource: a fungible amount
// plus, for non-fungible resources, the set of local ids it carries (spec §3
// Bucket/Proof).
type ResourceBucket struct {
	Resource ResourceRef
	Amount   uint64
	NFIds    map[NonFungibleLocalId]bool
}

func newBucket(resource ResourceRef) *ResourceBucket {
	return &ResourceBucket{Resource: resource, NFIds: make(map[NonFungibleLocalId]bool)}
}

func (b *ResourceBucket) isEmpty() bool {
	return b.Amount == 0 && len(b.NFIds) == 0
}

// Worktop merges every bucket returned by an instruction or a call into one
// per-resource pool, and lets later instructions take back out of it (spec
// §3 Worktop, §C.5 "fails the transaction, not silently no-ops, when an
// assertion is unmet").
type Worktop struct {
	pools map[NodeId]*ResourceBucket
}

// NewWorktop constructs an empty worktop, created once per transaction
// session and dropped (asserted empty) at transaction end.
func NewWorktop() *Worktop {
	return &Worktop{pools: make(map[NodeId]*ResourceBucket)}
}

// Put merges a bucket's contents into the worktop pool for its resource
// (spec §3 "buckets returned... are automatically merged into the worktop").
func (w *Worktop) Put(resource ResourceRef, amount uint64, nfIds []NonFungibleLocalId) {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok {
		pool = newBucket(resource)
		w.pools[resource.ResourceAddress] = pool
	}
	pool.Amount += amount
	for _, id := range nfIds {
		pool.NFIds[id] = true
	}
}

// TakeAmount removes exactly amount of a fungible resource, failing the
// instruction (not silently returning a short bucket) if insufficient (spec
// §C.5 take-or-fail).
func (w *Worktop) TakeAmount(resource ResourceRef, amount uint64) (*ResourceBucket, error) {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok || pool.Amount < amount {
		return nil, NewApplicationError("WorktopError: insufficient balance of resource %s to take %d", resource.ResourceAddress, amount)
	}
	pool.Amount -= amount
	if pool.isEmpty() {
		delete(w.pools, resource.ResourceAddress)
	}
	out := newBucket(resource)
	out.Amount = amount
	return out, nil
}

// TakeAll drains every unit of a resource currently on the worktop,
// including all non-fungible ids (spec §4.2 TakeAllFromWorktop).
func (w *Worktop) TakeAll(resource ResourceRef) (*ResourceBucket, error) {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok {
		return newBucket(resource), nil
	}
	delete(w.pools, resource.ResourceAddress)
	return pool, nil
}

// TakeNonFungibles removes a specific set of non-fungible ids, failing if
// any requested id is absent (spec §C.5 take-or-fail).
func (w *Worktop) TakeNonFungibles(resource ResourceRef, ids []NonFungibleLocalId) (*ResourceBucket, error) {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok {
		return nil, NewApplicationError("WorktopError: resource %s not present on worktop", resource.ResourceAddress)
	}
	for _, id := range ids {
		if !pool.NFIds[id] {
			return nil, NewApplicationError("WorktopError: non-fungible id %s of resource %s not present on worktop", id, resource.ResourceAddress)
		}
	}
	out := newBucket(resource)
	for _, id := range ids {
		delete(pool.NFIds, id)
		out.NFIds[id] = true
	}
	if pool.isEmpty() {
		delete(w.pools, resource.ResourceAddress)
	}
	return out, nil
}

// AssertContains fails unless the worktop holds at least amount of resource
// (spec §4.2 AssertWorktopContains).
func (w *Worktop) AssertContains(resource ResourceRef, amount uint64) error {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok || pool.Amount < amount {
		return NewApplicationError("WorktopError: assertion failed, worktop does not contain %d of resource %s", amount, resource.ResourceAddress)
	}
	return nil
}

// AssertContainsAny fails unless the worktop holds any non-zero quantity of
// resource (spec §4.2 AssertWorktopContainsAny).
func (w *Worktop) AssertContainsAny(resource ResourceRef) error {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok || pool.isEmpty() {
		return NewApplicationError("WorktopError: assertion failed, worktop does not contain any of resource %s", resource.ResourceAddress)
	}
	return nil
}

// AssertContainsNonFungibles fails unless every id in ids is present (spec
// §4.2 AssertWorktopContainsNonFungibles).
func (w *Worktop) AssertContainsNonFungibles(resource ResourceRef, ids []NonFungibleLocalId) error {
	pool, ok := w.pools[resource.ResourceAddress]
	if !ok {
		return NewApplicationError("WorktopError: assertion failed, resource %s not present on worktop", resource.ResourceAddress)
	}
	for _, id := range ids {
		if !pool.NFIds[id] {
			return NewApplicationError("WorktopError: assertion failed, non-fungible id %s of resource %s not present on worktop", id, resource.ResourceAddress)
		}
	}
	return nil
}

// IsEmpty reports whether every pool has been drained, required before the
// worktop node may be dropped at transaction end (spec §3 Lifecycles).
func (w *Worktop) IsEmpty() bool {
	for _, pool := range w.pools {
		if !pool.isEmpty() {
			return false
		}
	}
	return true
}

// Drain returns every remaining bucket and empties the worktop, for a caller
// that auto-deposits leftover worktop contents back to a fee-payer account
// on success. TransactionProcessor does not call it: its Finalize rejects a
// non-empty worktop instead (an implementation choice recorded in
// DESIGN.md).
func (w *Worktop) Drain() []*ResourceBucket {
	out := make([]*ResourceBucket, 0, len(w.pools))
	for _, pool := range w.pools {
		out = append(out, pool)
	}
	w.pools = make(map[NodeId]*ResourceBucket)
	return out
}
