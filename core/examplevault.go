package core

// examplevault.go – a minimal native fungible-resource vault blueprint, used
// by the resource-conservation property tests (spec §8 testable property
// "total fungible supply across all vaults and the worktop is conserved
// across a committed transaction"). Not present in the teacher repo: this is
// original grounding work, shaped the way the teacher's own native
// blueprints would be (a Go struct's methods registered into a dispatch
// table, spec §D package map), using worktop.go's ResourceBucket as the
// in-flight value it moves balances through and native_dispatch.go's
// Register/Invoke convention for its call surface.

import "encoding/binary"

// ExampleVaultBlueprint is the blueprint name under which this vault's
// functions are registered (spec §4.1 "native functions are keyed by
// blueprint, function").
const ExampleVaultBlueprint = "ExampleVault"

var balanceKey = TupleKey(0)

// RegisterExampleVault wires the blueprint's functions into reg. Called by
// whoever assembles a session's NativeRegistry (spec §9: a registry is a
// session field, never a package-level singleton, so registration happens
// at session setup rather than via a package init()).
func RegisterExampleVault(reg *NativeRegistry) {
	reg.Register(ExampleVaultBlueprint, "instantiate", exampleVaultInstantiate)
	reg.Register(ExampleVaultBlueprint, "put", exampleVaultPut)
	reg.Register(ExampleVaultBlueprint, "take", exampleVaultTake)
	reg.Register(ExampleVaultBlueprint, "balance", exampleVaultBalance)
}

func encodeBalance(amount uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, amount)
	return buf
}

func decodeBalance(raw []byte) uint64 {
	if len(raw) != 8 {
		return 0
	}
	return binary.BigEndian.Uint64(raw)
}

// exampleVaultInstantiate creates a new vault object holding zero balance of
// the resource named in args, and returns its NodeId (spec §4.1 new_object).
func exampleVaultInstantiate(k *Kernel, frame *CallFrame, args []byte) ([]byte, error) {
	if len(args) != len(NodeId{}) {
		return nil, NewApplicationError("ExampleVault.instantiate: expected a %d-byte resource address, got %d bytes", len(NodeId{}), len(args))
	}
	var resource NodeId
	copy(resource[:], args)

	id := k.AllocateNodeId(EntityTypeInternalVault)
	info := TypeInfoSubstate{Kind: TypeInfoObject, Blueprint: ExampleVaultBlueprint, PackageAddr: resource}
	infoBytes, err := EncodeValue(ValueTagTypeInfo, info)
	if err != nil {
		return nil, NewSystemError("ExampleVault.instantiate: encode TypeInfo: %v", err)
	}
	substates := map[PartitionNumber]map[SubstateKey][]byte{
		PartitionTypeInfo: {TupleKey(0): infoBytes},
		PartitionUserBase: {balanceKey: encodeBalance(0)},
	}
	if err := k.CreateNode(id, substates); err != nil {
		return nil, err
	}
	return id[:], nil
}

// exampleVaultPut deposits a bucket's worth of fungible amount into the
// vault named by the current actor's receiver (spec §4.2 "Put: deposit into
// a vault merges the bucket's contents and drops the now-empty bucket").
// args is the 8-byte big-endian amount to deposit.
func exampleVaultPut(k *Kernel, frame *CallFrame, args []byte) ([]byte, error) {
	if !frame.Actor.HasReceiver {
		return nil, NewApplicationError("ExampleVault.put: no receiver vault bound to this call")
	}
	amount := decodeBalance(args)

	handle, err := k.LockSubstate(frame.Actor.Receiver, PartitionUserBase, balanceKey, LockFlags{Mutable: true}, nil, nil)
	if err != nil {
		return nil, err
	}
	defer k.DropLock(handle)

	raw, err := k.ReadSubstate(handle)
	if err != nil {
		return nil, err
	}
	newBalance := decodeBalance(raw) + amount
	if err := k.WriteSubstate(handle, encodeBalance(newBalance)); err != nil {
		return nil, err
	}
	return nil, nil
}

// exampleVaultTake withdraws amount from the vault, failing with
// *ApplicationError rather than returning a short amount if the vault
// balance is insufficient (spec §C.5 take-or-fail semantics, carried from
// the worktop into every resource container). args is the 8-byte
// big-endian amount to withdraw; the return value is the same encoding, the
// amount actually taken.
func exampleVaultTake(k *Kernel, frame *CallFrame, args []byte) ([]byte, error) {
	if !frame.Actor.HasReceiver {
		return nil, NewApplicationError("ExampleVault.take: no receiver vault bound to this call")
	}
	amount := decodeBalance(args)

	handle, err := k.LockSubstate(frame.Actor.Receiver, PartitionUserBase, balanceKey, LockFlags{Mutable: true}, nil, nil)
	if err != nil {
		return nil, err
	}
	defer k.DropLock(handle)

	raw, err := k.ReadSubstate(handle)
	if err != nil {
		return nil, err
	}
	balance := decodeBalance(raw)
	if balance < amount {
		return nil, NewApplicationError("ExampleVault.take: insufficient balance: have %d, want %d", balance, amount)
	}
	if err := k.WriteSubstate(handle, encodeBalance(balance-amount)); err != nil {
		return nil, err
	}
	return encodeBalance(amount), nil
}

// exampleVaultBalance reads the vault's current balance without mutating it.
func exampleVaultBalance(k *Kernel, frame *CallFrame, args []byte) ([]byte, error) {
	if !frame.Actor.HasReceiver {
		return nil, NewApplicationError("ExampleVault.balance: no receiver vault bound to this call")
	}
	handle, err := k.LockSubstate(frame.Actor.Receiver, PartitionUserBase, balanceKey, LockFlags{ReadOnly: true}, nil, nil)
	if err != nil {
		return nil, err
	}
	defer k.DropLock(handle)

	raw, err := k.ReadSubstate(handle)
	if err != nil {
		return nil, err
	}
	return encodeBalance(decodeBalance(raw)), nil
}
