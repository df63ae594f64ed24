package core

import "testing"

// TestAuthZonePushProofNeverWeakens is property #7 (first half): pushing a
// proof into an auth zone never turns a satisfied rule unsatisfied.
func TestAuthZonePushProofNeverWeakens(t *testing.T) {
	resource := ResourceRef{ResourceAddress: NodeId{7}}
	rule := RequireAmount(resource, 10)

	zone := NewAuthZoneStack(nil)
	if zone.Verify(rule) {
		t.Fatalf("expected rule unsatisfied with no proofs")
	}

	zone.PushProof(Proof{Resource: resource, Amount: 3})
	if zone.Verify(rule) {
		t.Fatalf("expected rule still unsatisfied with an insufficient proof")
	}

	zone.PushProof(Proof{Resource: resource, Amount: 10})
	if !zone.Verify(rule) {
		t.Fatalf("expected rule satisfied once a sufficient proof is pushed")
	}

	// A further, irrelevant proof must not un-satisfy an already-satisfied
	// rule.
	zone.PushProof(Proof{Resource: ResourceRef{ResourceAddress: NodeId{9}}, Amount: 1})
	if !zone.Verify(rule) {
		t.Fatalf("expected rule to remain satisfied after an unrelated proof is pushed")
	}
}

// TestAuthZonePopProofNeverStrengthens is property #7 (second half): popping
// a proof never turns an unsatisfied rule satisfied.
func TestAuthZonePopProofNeverStrengthens(t *testing.T) {
	resource := ResourceRef{ResourceAddress: NodeId{7}}
	rule := RequireAmount(resource, 10)

	zone := NewAuthZoneStack(nil)
	zone.PushProof(Proof{Resource: resource, Amount: 10})
	if !zone.Verify(rule) {
		t.Fatalf("expected rule satisfied")
	}

	if _, err := zone.PopProof(); err != nil {
		t.Fatalf("pop proof: %v", err)
	}
	if zone.Verify(rule) {
		t.Fatalf("expected rule unsatisfied after popping the only satisfying proof")
	}
}

// TestAuthZoneBarrierHidesCallerProofs asserts a barrier-crossing frame does
// not inherit the caller's ordinary proofs, only signature proofs (spec §4.4
// barrier semantics, DESIGN.md's simplified model).
func TestAuthZoneBarrierHidesCallerProofs(t *testing.T) {
	resource := ResourceRef{ResourceAddress: NodeId{7}}
	rule := RequireAmount(resource, 10)
	sigResource := ResourceRef{ResourceAddress: NodeId{8}}
	sigRule := RequireAmount(sigResource, 1)

	zone := NewAuthZoneStack([]Proof{{Resource: sigResource, Amount: 1}})
	zone.PushProof(Proof{Resource: resource, Amount: 10})
	if !zone.Verify(rule) {
		t.Fatalf("expected rule satisfied in root frame")
	}

	zone.Push(true)
	if zone.Verify(rule) {
		t.Fatalf("expected ordinary proof hidden across a barrier")
	}
	if !zone.Verify(sigRule) {
		t.Fatalf("expected signature proof visible across a barrier")
	}
	if err := zone.Pop(); err != nil {
		t.Fatalf("pop: %v", err)
	}
	if !zone.Verify(rule) {
		t.Fatalf("expected rule satisfied again after returning to the caller frame")
	}
}
