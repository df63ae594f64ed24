package core

// txproc.go – the transaction processor: interprets a manifest of
// instructions against a worktop and auth-zone stack, producing a receipt
// (spec §4.2 Transaction Processor). Adapted from the teacher's
// execution_management.go ExecutionManager (BeginBlock/ExecuteTx/
// FinalizeBlock loop over a ledger+VM): the same begin/step/finalize shape,
// now stepping over Instructions against a Kernel instead of Transactions
// against a Ledger, and producing a Receipt instead of a Block.

import "fmt"

// TransactionProcessor runs one transaction's manifest to completion. It is
// a field of the session, never a package-level singleton (spec §9).
type TransactionProcessor struct {
	Kernel   *Kernel
	Worktop  *Worktop
	AuthZone *AuthZoneStack
	Costs    *CostReserve
	Royalty  *RoyaltyModule
	Roles    *RoleAssignmentStore
	Native   *NativeRegistry

	buckets map[string]*ResourceBucket
	proofs  map[string]Proof

	newAddresses []NodeId
}

// NewTransactionProcessor wires a processor over an already-constructed
// kernel session (spec §4.2 "State: ... references the kernel").
func NewTransactionProcessor(k *Kernel, costs *CostReserve, signatureProofs []Proof, native *NativeRegistry) *TransactionProcessor {
	return &TransactionProcessor{
		Kernel:   k,
		Worktop:  NewWorktop(),
		AuthZone: NewAuthZoneStack(signatureProofs),
		Costs:    costs,
		Royalty:  NewRoyaltyModule(),
		Roles:    NewRoleAssignmentStore(k.Track),
		Native:   native,
		buckets:  make(map[string]*ResourceBucket),
		proofs:   make(map[string]Proof),
	}
}

// BindBucket associates a manifest-local bucket name with a materialized
// bucket, used by instruction handlers that produce a named bucket (spec
// §6.3 "named bucket/proof references").
func (p *TransactionProcessor) BindBucket(name string, bucket *ResourceBucket) {
	p.buckets[name] = bucket
}

// Bucket resolves a manifest-local bucket name, failing if unbound.
func (p *TransactionProcessor) Bucket(name string) (*ResourceBucket, error) {
	b, ok := p.buckets[name]
	if !ok {
		return nil, NewApplicationError("txproc: unknown bucket %q", name)
	}
	return b, nil
}

// BindProof associates a manifest-local proof name with a materialized
// proof.
func (p *TransactionProcessor) BindProof(name string, proof Proof) {
	p.proofs[name] = proof
}

// Proof resolves a manifest-local proof name, failing if unbound.
func (p *TransactionProcessor) Proof(name string) (Proof, error) {
	pr, ok := p.proofs[name]
	if !ok {
		return Proof{}, NewApplicationError("txproc: unknown proof %q", name)
	}
	return pr, nil
}

// RecordNewAddress appends a globalized node id to the receipt's new-address
// list (spec §6.2 "new global addresses").
func (p *TransactionProcessor) RecordNewAddress(id NodeId) {
	p.newAddresses = append(p.newAddresses, id)
}

// Run executes every instruction in order, short-circuiting on the first
// error (spec §4.2 "instructions execute in order; any instruction error
// aborts the whole transaction"). The return value of each instruction is
// collected for the caller's diagnostics, mirroring the teacher's
// ExecutionManager collecting per-tx results before finalizing.
func (p *TransactionProcessor) Run(manifest []Instruction) ([][]byte, error) {
	results := make([][]byte, 0, len(manifest))
	for i, instr := range manifest {
		out, err := DispatchInstruction(p, instr)
		if err != nil {
			return results, fmt.Errorf("txproc: instruction %d (%s): %w", i, instr.Kind, err)
		}
		results = append(results, out)
	}
	return results, nil
}

// Finalize asserts the worktop is empty and assembles the receipt's
// cross-cutting fields (spec §3 Lifecycles: worktop must be empty at
// transaction end; §6.2 Receipt).
func (p *TransactionProcessor) Finalize(outcome Outcome, failureReason error) (Receipt, error) {
	if outcome == OutcomeCommitSuccess && !p.Worktop.IsEmpty() {
		return Receipt{}, NewApplicationError("txproc: worktop not empty at transaction end")
	}

	fees := p.Costs.Summary()
	fees.Royalties += p.Royalty.TotalAccrued()

	var deltas []Delta
	var err error
	switch outcome {
	case OutcomeCommitSuccess:
		deltas, err = p.Kernel.Track.Commit(nil, false)
	case OutcomeCommitFailure, OutcomeRejection:
		p.Kernel.Track.DiscardNonForceWrite()
		deltas, err = p.Kernel.Track.Commit(nil, true)
	case OutcomeAbortedDuringFeeLoan:
		p.Kernel.Track.DiscardNonForceWrite()
		deltas = nil
	}
	if err != nil {
		return Receipt{}, err
	}

	return Receipt{
		Outcome:       outcome,
		FailureReason: failureReason,
		Fees:          fees,
		StateUpdates:  deltas,
		NewAddresses:  append([]NodeId(nil), p.newAddresses...),
		Events:        p.Kernel.Events.All(),
		Logs:          p.Kernel.Logs.All(),
	}, nil
}
