package core

// instructions.go – the manifest instruction set (spec §4.2, §6.3). Each
// variant has a stable binary discriminant following the same
// category-coded, fixed-width convention the teacher's opcode catalogue
// uses for its 24-bit function codes (opcode_dispatcher.go) — here a single
// byte is enough since the instruction set is small and closed, unlike the
// teacher's open-ended application opcode catalogue.

// InstructionKind is the stable discriminant of one manifest instruction
// (spec §6.3 "Each instruction has a stable binary discriminant").
type InstructionKind uint8

const (
	InstructionTakeFromWorktop InstructionKind = iota
	InstructionTakeAllFromWorktop
	InstructionTakeNonFungiblesFromWorktop
	InstructionReturnToWorktop
	InstructionAssertWorktopContains
	InstructionAssertWorktopContainsAny
	InstructionAssertWorktopContainsNonFungibles

	InstructionCreateProofFromAuthZone
	InstructionCreateProofFromAuthZoneOfAmount
	InstructionCreateProofFromAuthZoneOfNonFungibles
	InstructionCreateProofFromAuthZoneOfAll
	InstructionCreateProofFromBucket
	InstructionPushToAuthZone
	InstructionPopFromAuthZone
	InstructionCloneProof
	InstructionDropProof

	InstructionCallFunction
	InstructionCallMethod
	InstructionCallRoleAssignmentMethod
	InstructionCallRoyaltyMethod
	InstructionCallMetadataMethod
	InstructionCallDirectVaultMethod

	InstructionDropAllProofs
	InstructionDropNamedProofs
	InstructionDropAuthZoneProofs
	InstructionDropAuthZoneRegularProofs
	InstructionDropAuthZoneSignatureProofs

	InstructionAllocateGlobalAddress
	InstructionBurnResource
	InstructionMintFungible
	InstructionMintNonFungible
	InstructionMintRuidNonFungible
	InstructionCreateValidator

	InstructionLockFee
)

func (k InstructionKind) String() string {
	names := [...]string{
		"TakeFromWorktop", "TakeAllFromWorktop", "TakeNonFungiblesFromWorktop",
		"ReturnToWorktop", "AssertWorktopContains", "AssertWorktopContainsAny",
		"AssertWorktopContainsNonFungibles",
		"CreateProofFromAuthZone", "CreateProofFromAuthZoneOfAmount",
		"CreateProofFromAuthZoneOfNonFungibles", "CreateProofFromAuthZoneOfAll",
		"CreateProofFromBucket", "PushToAuthZone", "PopFromAuthZone", "CloneProof", "DropProof",
		"CallFunction", "CallMethod", "CallRoleAssignmentMethod", "CallRoyaltyMethod",
		"CallMetadataMethod", "CallDirectVaultMethod",
		"DropAllProofs", "DropNamedProofs", "DropAuthZoneProofs",
		"DropAuthZoneRegularProofs", "DropAuthZoneSignatureProofs",
		"AllocateGlobalAddress", "BurnResource", "MintFungible", "MintNonFungible",
		"MintRuidNonFungible", "CreateValidator", "LockFee",
	}
	if int(k) < len(names) {
		return names[k]
	}
	return "UnknownInstruction"
}

// ResourceRef identifies a fungible or non-fungible resource by its global
// resource-manager address.
type ResourceRef struct {
	ResourceAddress NodeId
}

// NonFungibleLocalId is the id of one entry within a non-fungible resource.
type NonFungibleLocalId string

// Instruction is a tagged union over every manifest instruction variant
// (spec §4.2 table, §6.3 minimum instruction set). Only the fields relevant
// to Kind are populated, the same "small struct instead of an interface"
// trick types.go uses for SubstateKey, chosen so a manifest can be a plain
// slice without per-instruction heap allocation via boxing.
type Instruction struct {
	Kind InstructionKind

	// Worktop / resource fields
	Resource ResourceRef
	Amount   uint64
	NFIds    []NonFungibleLocalId

	// Named bucket/proof references, resolved by the processor against its
	// bucket-name/proof-name tables (spec §4.2 "State").
	BucketName string
	ProofName  string

	// Call fields
	Package   NodeId
	Blueprint string
	Method    string
	Address   NodeId
	Args      []byte

	// LockFee
	Vault      NodeId
	Contingent bool

	// AllocateGlobalAddress
	PreallocatedAddress NodeId

	// Bulk proof drop
	Names []string
}
