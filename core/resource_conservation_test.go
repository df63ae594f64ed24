package core

import "testing"

// newVaultSession wires a Kernel + NativeRegistry with ExampleVault
// registered, the minimal setup needed to exercise native-blueprint calls
// end to end.
func newVaultSession(t *testing.T) (*Kernel, *NativeRegistry) {
	t.Helper()
	reg := NewNativeRegistry()
	RegisterExampleVault(reg)
	k := NewKernel(NewMemStore(), Hash{}, DefaultLimits, nil)
	return k, reg
}

func instantiateVault(t *testing.T, k *Kernel, reg *NativeRegistry, resource NodeId) NodeId {
	t.Helper()
	actor := Actor{Blueprint: ExampleVaultBlueprint, Function: "instantiate"}
	out, err := reg.Invoke(k, actor, NewCallFrameUpdate(), ExampleVaultBlueprint, "instantiate", resource[:])
	if err != nil {
		t.Fatalf("instantiate: %v", err)
	}
	var id NodeId
	copy(id[:], out)
	return id
}

func vaultCall(t *testing.T, k *Kernel, reg *NativeRegistry, vault NodeId, method string, args []byte) []byte {
	t.Helper()
	actor := Actor{Blueprint: ExampleVaultBlueprint, Function: method, Receiver: vault, HasReceiver: true}
	update := NewCallFrameUpdate()
	update.Refs[vault] = true
	out, err := reg.Invoke(k, actor, update, ExampleVaultBlueprint, method, args)
	if err != nil {
		t.Fatalf("%s: %v", method, err)
	}
	return out
}

// TestResourceConservationAcrossVaults is property #5: total fungible supply
// per resource is conserved as it moves between vaults (put/take never
// creates or destroys balance).
func TestResourceConservationAcrossVaults(t *testing.T) {
	k, reg := newVaultSession(t)
	resource := k.AllocateNodeId(EntityTypeGlobalFungibleResource)

	vaultA := instantiateVault(t, k, reg, resource)
	vaultB := instantiateVault(t, k, reg, resource)

	vaultCall(t, k, reg, vaultA, "put", encodeBalance(100))

	const total = uint64(100)
	moved := decodeBalance(vaultCall(t, k, reg, vaultA, "take", encodeBalance(40)))
	if moved != 40 {
		t.Fatalf("expected to take 40, took %d", moved)
	}
	vaultCall(t, k, reg, vaultB, "put", encodeBalance(moved))

	balA := decodeBalance(vaultCall(t, k, reg, vaultA, "balance", nil))
	balB := decodeBalance(vaultCall(t, k, reg, vaultB, "balance", nil))

	if balA+balB != total {
		t.Fatalf("conservation violated: balA=%d balB=%d total=%d", balA, balB, total)
	}
	if balA != 60 || balB != 40 {
		t.Fatalf("unexpected split: balA=%d balB=%d", balA, balB)
	}
}

// TestVaultTakeInsufficientBalanceFails asserts take-or-fail semantics: a
// withdrawal exceeding the balance errors rather than returning a short
// amount, so conservation can never be violated by a partial take.
func TestVaultTakeInsufficientBalanceFails(t *testing.T) {
	k, reg := newVaultSession(t)
	resource := k.AllocateNodeId(EntityTypeGlobalFungibleResource)
	vault := instantiateVault(t, k, reg, resource)
	vaultCall(t, k, reg, vault, "put", encodeBalance(10))

	actor := Actor{Blueprint: ExampleVaultBlueprint, Function: "take", Receiver: vault, HasReceiver: true}
	update := NewCallFrameUpdate()
	update.Refs[vault] = true
	if _, err := reg.Invoke(k, actor, update, ExampleVaultBlueprint, "take", encodeBalance(11)); err == nil {
		t.Fatalf("expected insufficient-balance error")
	}

	bal := decodeBalance(vaultCall(t, k, reg, vault, "balance", nil))
	if bal != 10 {
		t.Fatalf("balance should be unchanged by a failed take, got %d", bal)
	}
}
