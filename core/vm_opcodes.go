package core

// Minimal opcode constants used by the LightVM interpreter.
// These values are not final and may be adjusted as the VM evolves.

// Opcode is a single LightVM bytecode instruction, sandboxed behind the
// guest-bytecode host interface (spec §4.5); distinct from InstructionKind,
// which is the outer manifest instruction set a transaction processor
// interprets (spec §4.2).
type Opcode uint32

const (
	PUSH Opcode = iota
	ADD
	STORE
	LOAD
	LOG
	RET
)
