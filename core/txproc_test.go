package core

import (
	"errors"
	"testing"
)

func newTestProcessor(loan uint64) *TransactionProcessor {
	k := NewKernel(NewMemStore(), Hash{}, DefaultLimits, nil)
	reserve := NewCostReserve(DefaultFeeTable, loan)
	reg := NewNativeRegistry()
	RegisterExampleVault(reg)
	return NewTransactionProcessor(k, reserve, nil, reg)
}

// TestInstructionTableCoverage asserts every InstructionKind named in
// instructions.go has a registered handler (instruction_handlers.go's
// init()), so DispatchInstruction never falls through for a real opcode.
func TestInstructionTableCoverage(t *testing.T) {
	const wantCount = 34
	if got := registeredInstructionCount(); got != wantCount {
		t.Fatalf("expected %d registered instruction handlers, got %d", wantCount, got)
	}
}

// TestWorktopDisciplineSuccess is property #6 (success path): a manifest
// that mints a resource, takes it all off the worktop, returns it, then
// takes it all again and burns it, leaves the worktop empty and finalizes as
// CommitSuccess.
func TestWorktopDisciplineSuccess(t *testing.T) {
	p := newTestProcessor(1_000_000)
	resource := ResourceRef{ResourceAddress: p.Kernel.AllocateNodeId(EntityTypeGlobalFungibleResource)}

	manifest := []Instruction{
		{Kind: InstructionMintFungible, Resource: resource, Amount: 10},
		{Kind: InstructionTakeAllFromWorktop, Resource: resource, BucketName: "b1"},
		{Kind: InstructionReturnToWorktop, BucketName: "b1"},
		{Kind: InstructionTakeAllFromWorktop, Resource: resource, BucketName: "b2"},
		{Kind: InstructionBurnResource, BucketName: "b2"},
	}
	if _, err := p.Run(manifest); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !p.Worktop.IsEmpty() {
		t.Fatalf("expected worktop empty before finalize")
	}
	receipt, err := p.Finalize(OutcomeCommitSuccess, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if receipt.Outcome != OutcomeCommitSuccess {
		t.Fatalf("expected CommitSuccess, got %s", receipt.Outcome)
	}
}

// TestWorktopNonEmptyRejectsCommitSuccess is scenario S5: a manifest that
// puts a resource on the worktop without a subsequent consumer must not be
// finalized as CommitSuccess.
func TestWorktopNonEmptyRejectsCommitSuccess(t *testing.T) {
	p := newTestProcessor(1_000_000)
	resource := ResourceRef{ResourceAddress: p.Kernel.AllocateNodeId(EntityTypeGlobalFungibleResource)}

	manifest := []Instruction{
		{Kind: InstructionMintFungible, Resource: resource, Amount: 10},
	}
	if _, err := p.Run(manifest); err != nil {
		t.Fatalf("run: %v", err)
	}

	if _, err := p.Finalize(OutcomeCommitSuccess, nil); err == nil {
		t.Fatalf("expected Finalize to reject a non-empty worktop")
	}

	receipt, err := p.Finalize(OutcomeCommitFailure, errors.New("WorktopNotEmpty"))
	if err != nil {
		t.Fatalf("finalize as failure: %v", err)
	}
	if receipt.Outcome != OutcomeCommitFailure {
		t.Fatalf("expected CommitFailure, got %s", receipt.Outcome)
	}
	if len(receipt.StateUpdates) != 0 {
		t.Fatalf("expected no non-force-write state updates on commit failure, got %d", len(receipt.StateUpdates))
	}
}

// TestWorktopAssertionFailureAbortsRun is scenario S2: an unmet
// AssertWorktopContains aborts p.Run with an error; the transaction then
// finalizes as CommitFailure with no state changes besides fee accounting.
func TestWorktopAssertionFailureAbortsRun(t *testing.T) {
	p := newTestProcessor(1_000_000)
	resource := ResourceRef{ResourceAddress: p.Kernel.AllocateNodeId(EntityTypeGlobalFungibleResource)}

	manifest := []Instruction{
		{Kind: InstructionAssertWorktopContains, Resource: resource, Amount: 1},
	}
	_, runErr := p.Run(manifest)
	if runErr == nil {
		t.Fatalf("expected assertion failure to abort Run")
	}

	receipt, err := p.Finalize(OutcomeCommitFailure, runErr)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if receipt.Outcome != OutcomeCommitFailure {
		t.Fatalf("expected CommitFailure, got %s", receipt.Outcome)
	}
	if len(receipt.StateUpdates) != 0 {
		t.Fatalf("expected no state updates on commit failure, got %d", len(receipt.StateUpdates))
	}
}

// TestFeeWithdrawDepositFlow is a variant of scenario S1 (fee + withdraw +
// deposit), adapted to ExampleVault's put/take surface since the spec's
// "account" blueprint is out of scope: lock a fee, withdraw from one vault
// through a CallMethod instruction, and deposit into another vault directly.
// Nothing is put on the worktop, so it ends empty.
func TestFeeWithdrawDepositFlow(t *testing.T) {
	p := newTestProcessor(1_000_000)
	resource := p.Kernel.AllocateNodeId(EntityTypeGlobalFungibleResource)
	faucet := p.Kernel.AllocateNodeId(EntityTypeInternalVault)

	vaultA := instantiateVault(t, p.Kernel, p.Native, resource)
	vaultCall(t, p.Kernel, p.Native, vaultA, "put", encodeBalance(50))
	vaultB := instantiateVault(t, p.Kernel, p.Native, resource)

	manifest := []Instruction{
		{Kind: InstructionLockFee, Vault: faucet, Amount: 10},
		{Kind: InstructionCallMethod, Blueprint: ExampleVaultBlueprint, Method: "take", Address: vaultA, Args: encodeBalance(5)},
	}
	if _, err := p.Run(manifest); err != nil {
		t.Fatalf("run: %v", err)
	}

	balAfterTake := decodeBalance(vaultCall(t, p.Kernel, p.Native, vaultA, "balance", nil))
	if balAfterTake != 45 {
		t.Fatalf("expected vaultA balance 45 after take, got %d", balAfterTake)
	}

	vaultCall(t, p.Kernel, p.Native, vaultB, "put", encodeBalance(5))
	balB := decodeBalance(vaultCall(t, p.Kernel, p.Native, vaultB, "balance", nil))
	if balB != 5 {
		t.Fatalf("expected vaultB balance 5, got %d", balB)
	}

	receipt, err := p.Finalize(OutcomeCommitSuccess, nil)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if receipt.Fees.TotalCost == 0 {
		t.Fatalf("expected non-zero fee cost to be recorded")
	}
}
