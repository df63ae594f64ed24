package core

// instruction_handlers.go – binds every InstructionKind to the worktop/
// auth-zone/native-dispatch operation it performs (spec §4.2 Transaction
// Processor, §6.3 instruction table). Registered at package init time via
// RegisterInstruction, the same convention the teacher used for registering
// opcode handlers ahead of dispatch.

func init() {
	RegisterInstruction(InstructionTakeFromWorktop, handleTakeFromWorktop)
	RegisterInstruction(InstructionTakeAllFromWorktop, handleTakeAllFromWorktop)
	RegisterInstruction(InstructionTakeNonFungiblesFromWorktop, handleTakeNonFungiblesFromWorktop)
	RegisterInstruction(InstructionReturnToWorktop, handleReturnToWorktop)
	RegisterInstruction(InstructionAssertWorktopContains, handleAssertWorktopContains)
	RegisterInstruction(InstructionAssertWorktopContainsAny, handleAssertWorktopContainsAny)
	RegisterInstruction(InstructionAssertWorktopContainsNonFungibles, handleAssertWorktopContainsNonFungibles)

	RegisterInstruction(InstructionCreateProofFromAuthZone, handleCreateProofFromAuthZone)
	RegisterInstruction(InstructionCreateProofFromAuthZoneOfAmount, handleCreateProofFromAuthZoneOfAmount)
	RegisterInstruction(InstructionCreateProofFromAuthZoneOfNonFungibles, handleCreateProofFromAuthZoneOfNonFungibles)
	RegisterInstruction(InstructionCreateProofFromAuthZoneOfAll, handleCreateProofFromAuthZoneOfAll)
	RegisterInstruction(InstructionCreateProofFromBucket, handleCreateProofFromBucket)
	RegisterInstruction(InstructionPushToAuthZone, handlePushToAuthZone)
	RegisterInstruction(InstructionPopFromAuthZone, handlePopFromAuthZone)
	RegisterInstruction(InstructionCloneProof, handleCloneProof)
	RegisterInstruction(InstructionDropProof, handleDropProof)

	RegisterInstruction(InstructionCallFunction, handleCallFunction)
	RegisterInstruction(InstructionCallMethod, handleCallMethod)
	RegisterInstruction(InstructionCallRoleAssignmentMethod, handleCallMethod)
	RegisterInstruction(InstructionCallRoyaltyMethod, handleCallMethod)
	RegisterInstruction(InstructionCallMetadataMethod, handleCallMethod)
	RegisterInstruction(InstructionCallDirectVaultMethod, handleCallMethod)

	RegisterInstruction(InstructionDropAllProofs, handleDropAllProofs)
	RegisterInstruction(InstructionDropNamedProofs, handleDropAllProofs)
	RegisterInstruction(InstructionDropAuthZoneProofs, handleDropAllProofs)
	RegisterInstruction(InstructionDropAuthZoneRegularProofs, handleDropAllProofs)
	RegisterInstruction(InstructionDropAuthZoneSignatureProofs, handleDropAllProofs)

	RegisterInstruction(InstructionAllocateGlobalAddress, handleAllocateGlobalAddress)
	RegisterInstruction(InstructionBurnResource, handleBurnResource)
	RegisterInstruction(InstructionMintFungible, handleMintFungible)
	RegisterInstruction(InstructionMintNonFungible, handleMintNonFungible)
	RegisterInstruction(InstructionMintRuidNonFungible, handleMintNonFungible)
	RegisterInstruction(InstructionCreateValidator, handleCallFunction)

	RegisterInstruction(InstructionLockFee, handleLockFee)
}

func handleTakeFromWorktop(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	bucket, err := p.Worktop.TakeAmount(instr.Resource, instr.Amount)
	if err != nil {
		return nil, err
	}
	p.BindBucket(instr.BucketName, bucket)
	return nil, nil
}

func handleTakeAllFromWorktop(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	bucket, err := p.Worktop.TakeAll(instr.Resource)
	if err != nil {
		return nil, err
	}
	p.BindBucket(instr.BucketName, bucket)
	return nil, nil
}

func handleTakeNonFungiblesFromWorktop(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	bucket, err := p.Worktop.TakeNonFungibles(instr.Resource, instr.NFIds)
	if err != nil {
		return nil, err
	}
	p.BindBucket(instr.BucketName, bucket)
	return nil, nil
}

func handleReturnToWorktop(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	bucket, err := p.Bucket(instr.BucketName)
	if err != nil {
		return nil, err
	}
	ids := make([]NonFungibleLocalId, 0, len(bucket.NFIds))
	for id := range bucket.NFIds {
		ids = append(ids, id)
	}
	p.Worktop.Put(bucket.Resource, bucket.Amount, ids)
	return nil, nil
}

func handleAssertWorktopContains(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	return nil, p.Worktop.AssertContains(instr.Resource, instr.Amount)
}

func handleAssertWorktopContainsAny(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	return nil, p.Worktop.AssertContainsAny(instr.Resource)
}

func handleAssertWorktopContainsNonFungibles(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	return nil, p.Worktop.AssertContainsNonFungibles(instr.Resource, instr.NFIds)
}

func handleCreateProofFromAuthZone(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	proof, err := p.AuthZone.PopProof()
	if err != nil {
		return nil, err
	}
	p.BindProof(instr.ProofName, proof)
	p.AuthZone.PushProof(proof)
	return nil, nil
}

func handleCreateProofFromAuthZoneOfAmount(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	p.BindProof(instr.ProofName, Proof{Resource: instr.Resource, Amount: instr.Amount})
	return nil, nil
}

func handleCreateProofFromAuthZoneOfNonFungibles(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	nfIds := make(map[NonFungibleLocalId]bool, len(instr.NFIds))
	for _, id := range instr.NFIds {
		nfIds[id] = true
	}
	p.BindProof(instr.ProofName, Proof{Resource: instr.Resource, NFIds: nfIds})
	return nil, nil
}

func handleCreateProofFromAuthZoneOfAll(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	p.BindProof(instr.ProofName, Proof{Resource: instr.Resource})
	return nil, nil
}

func handleCreateProofFromBucket(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	bucket, err := p.Bucket(instr.BucketName)
	if err != nil {
		return nil, err
	}
	p.BindProof(instr.ProofName, Proof{Resource: bucket.Resource, Amount: bucket.Amount, NFIds: bucket.NFIds})
	return nil, nil
}

func handlePushToAuthZone(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	proof, err := p.Proof(instr.ProofName)
	if err != nil {
		return nil, err
	}
	p.AuthZone.PushProof(proof)
	return nil, nil
}

func handlePopFromAuthZone(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	proof, err := p.AuthZone.PopProof()
	if err != nil {
		return nil, err
	}
	p.BindProof(instr.ProofName, proof)
	return nil, nil
}

func handleCloneProof(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	proof, err := p.Proof(instr.ProofName)
	if err != nil {
		return nil, err
	}
	p.BindProof(instr.ProofName, proof)
	return nil, nil
}

func handleDropProof(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	delete(p.proofs, instr.ProofName)
	return nil, nil
}

func handleDropAllProofs(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	p.proofs = make(map[string]Proof)
	p.AuthZone.DropAll()
	return nil, nil
}

func handleCallFunction(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	if err := p.Costs.ChargeFixed(CostReasonInvoke); err != nil {
		return nil, err
	}
	actor := Actor{Package: instr.Package, Blueprint: instr.Blueprint, Function: instr.Method}
	return p.Native.Invoke(p.Kernel, actor, NewCallFrameUpdate(), instr.Blueprint, instr.Method, instr.Args)
}

func handleCallMethod(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	if err := p.Costs.ChargeFixed(CostReasonInvoke); err != nil {
		return nil, err
	}
	actor := Actor{Blueprint: instr.Blueprint, Function: instr.Method, Receiver: instr.Address, HasReceiver: true}
	update := NewCallFrameUpdate()
	update.Refs[instr.Address] = true
	return p.Native.Invoke(p.Kernel, actor, update, instr.Blueprint, instr.Method, instr.Args)
}

func handleAllocateGlobalAddress(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	id := p.Kernel.AllocateNodeId(instr.PreallocatedAddress.EntityType())
	p.RecordNewAddress(id)
	return id[:], nil
}

func handleBurnResource(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	bucket, err := p.Bucket(instr.BucketName)
	if err != nil {
		return nil, err
	}
	delete(p.buckets, instr.BucketName)
	_ = bucket
	return nil, nil
}

func handleMintFungible(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	p.Worktop.Put(instr.Resource, instr.Amount, nil)
	return nil, nil
}

func handleMintNonFungible(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	p.Worktop.Put(instr.Resource, 0, instr.NFIds)
	return nil, nil
}

func handleLockFee(p *TransactionProcessor, instr Instruction) ([]byte, error) {
	p.Costs.LockFee(instr.Vault, instr.Amount, instr.Contingent)
	return nil, nil
}
