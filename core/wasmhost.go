package core

// wasmhost.go – the guest-bytecode host interface (spec §4.5): guest
// blueprint code runs inside a Wasmer sandbox and can only affect kernel
// state by calling back out through a small set of host functions, each a
// suspension point where the kernel may charge gas, check limits, or deny
// the call. Adapted from the teacher's HeavyVM/registerHost in the former
// virtual_machine.go: the same "hostCtx carries the live session, host
// functions are thin trampolines into it" shape survives, but host_read/
// host_write/host_log now call into the Kernel's lock-protected substate
// API instead of a flat key-value StateRW, and every suspension point except
// host_emit_event prices its LightVM opcode (vm_opcodes.go, gas_table.go)
// through chargeOpcode
// before consuming the session's CostReserve, rather than trusting a raw
// unit count supplied by the guest itself.

import (
	"github.com/wasmerio/wasmer-go/wasmer"
)

// chargeOpcode prices one LightVM opcode via the gas table (gas_table.go)
// and consumes it from the session's cost reserve. Every suspension point
// below except host_emit_event charges the opcode it corresponds to before
// performing the native operation the guest asked for; host_emit_event
// charges no opcode.
func (h *GuestHost) chargeOpcode(op Opcode) error {
	return h.Costs.Consume(GasCost(op), CostReasonWasmUnit)
}

// GuestHost wires one guest module instance to the kernel session it is
// running inside of. It is constructed per invocation, never shared (spec
// §9 "no process-wide singletons").
type GuestHost struct {
	Kernel   *Kernel
	Costs    *CostReserve
	Sandbox  *SandboxManager
	Actor    Actor
	mem      *wasmer.Memory
	trapped  error
	lastRead []byte
}

// NewGuestHost constructs a host shim for one guest invocation.
func NewGuestHost(k *Kernel, costs *CostReserve, sandbox *SandboxManager, actor Actor) *GuestHost {
	return &GuestHost{Kernel: k, Costs: costs, Sandbox: sandbox, Actor: actor}
}

// Trapped reports the first host-function failure recorded during
// execution, surfaced by Execute as a *GuestTrap.
func (h *GuestHost) Trapped() error { return h.trapped }

func (h *GuestHost) trap(err error) {
	if h.trapped == nil {
		h.trapped = err
	}
}

// Execute instantiates code in a fresh Wasmer store, wires the host import
// table, and runs its _start export (spec §4.5 "the guest module's entry
// point is invoked once per call; all further kernel interaction happens
// through suspension-point host calls").
func (h *GuestHost) Execute(code []byte, memLimit uint64) ([]byte, error) {
	if err := h.Sandbox.StartSandbox(h.Actor.Receiver, memLimit); err != nil {
		return nil, err
	}
	defer h.Sandbox.StopSandbox(h.Actor.Receiver)

	engine := wasmer.NewEngine()
	store := wasmer.NewStore(engine)
	mod, err := wasmer.NewModule(store, code)
	if err != nil {
		return nil, NewGuestTrap("module compile failed: %v", err)
	}

	imports := h.registerHostFunctions(store)

	instance, err := wasmer.NewInstance(mod, imports)
	if err != nil {
		return nil, NewGuestTrap("instantiation failed: %v", err)
	}

	mem, err := instance.Exports.GetMemory("memory")
	if err != nil {
		return nil, NewGuestTrap("wasm memory export missing")
	}
	h.mem = mem

	start, err := instance.Exports.GetFunction("_start")
	if err != nil {
		return nil, NewGuestTrap("_start function required")
	}
	if _, err := start(); err != nil {
		return nil, NewGuestTrap("trap during execution: %v", err)
	}
	if h.trapped != nil {
		return nil, h.trapped
	}
	return h.lastRead, nil
}

func (h *GuestHost) read(ptr, ln int32) []byte {
	data := h.mem.Data()[ptr : ptr+ln]
	out := make([]byte, ln)
	copy(out, data)
	return out
}

func (h *GuestHost) write(ptr int32, data []byte) { copy(h.mem.Data()[ptr:], data) }

// registerHostFunctions builds the guest import table: every suspension
// point a guest module may call (spec §4.5 minimum host surface:
// consume-cost-units, read-substate, write-substate, emit-event, log).
func (h *GuestHost) registerHostFunctions(store *wasmer.Store) *wasmer.ImportObject {
	imports := wasmer.NewImportObject()

	hostConsumeCostUnits := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			// The guest reports which LightVM opcode it just ran; the cost is
			// looked up from gasTable rather than trusted from the guest, which
			// would otherwise get to name its own price.
			op := Opcode(args[0].I32())
			if err := h.chargeOpcode(op); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	hostReadSubstate := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
			),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.chargeOpcode(LOAD); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.Costs.ChargeFixed(CostReasonReadSubstate); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			keyPtr, keyLen, dstPtr := args[0].I32(), args[1].I32(), args[3].I32()
			key := h.read(keyPtr, keyLen)
			handle, err := h.Kernel.LockSubstate(h.Actor.Receiver, PartitionUserBase, MapKey(key), LockFlags{ReadOnly: true}, nil, nil)
			if err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			value, err := h.Kernel.ReadSubstate(handle)
			_ = h.Kernel.DropLock(handle)
			if err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			h.write(dstPtr, value)
			return []wasmer.Value{wasmer.NewI32(int32(len(value)))}, nil
		},
	)

	hostWriteSubstate := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
			),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.chargeOpcode(STORE); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.Costs.ChargeFixed(CostReasonWriteSubstate); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			keyPtr, keyLen, valPtr, valLen := args[0].I32(), args[1].I32(), args[2].I32(), args[3].I32()
			key := h.read(keyPtr, keyLen)
			value := h.read(valPtr, valLen)
			handle, err := h.Kernel.LockSubstate(h.Actor.Receiver, PartitionUserBase, MapKey(key), LockFlags{Mutable: true}, nil, func() ([]byte, bool) { return nil, true })
			if err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.Kernel.WriteSubstate(handle, value); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			if err := h.Kernel.DropLock(handle); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	hostEmitEvent := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
			),
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32)),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			typePtr, typeLen, payloadPtr, payloadLen := args[0].I32(), args[1].I32(), args[2].I32(), args[3].I32()
			schemaTypeRef := string(h.read(typePtr, typeLen))
			payload := h.read(payloadPtr, payloadLen)
			if err := h.Kernel.Events.CheckSize(payload, h.Kernel.Limits.MaxEventSize); err != nil {
				h.trap(err)
				return []wasmer.Value{wasmer.NewI32(-1)}, nil
			}
			h.Kernel.Events.Emit(h.Actor.Receiver, schemaTypeRef, payload)
			return []wasmer.Value{wasmer.NewI32(0)}, nil
		},
	)

	hostSetReturn := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32)),
			wasmer.NewValueTypes(),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.chargeOpcode(RET); err != nil {
				h.trap(err)
				return []wasmer.Value{}, nil
			}
			p, l := args[0].I32(), args[1].I32()
			h.lastRead = h.read(p, l)
			return []wasmer.Value{}, nil
		},
	)

	hostLog := wasmer.NewFunction(
		store,
		wasmer.NewFunctionType(
			wasmer.NewValueTypes(
				wasmer.ValueKind(wasmer.I32), wasmer.ValueKind(wasmer.I32),
				wasmer.ValueKind(wasmer.I32),
			),
			wasmer.NewValueTypes(),
		),
		func(args []wasmer.Value) ([]wasmer.Value, error) {
			if err := h.chargeOpcode(LOG); err != nil {
				h.trap(err)
				return []wasmer.Value{}, nil
			}
			level, p, l := args[0].I32(), args[1].I32(), args[2].I32()
			h.Kernel.Logs.Append(LogLevel(level), string(h.read(p, l)))
			return []wasmer.Value{}, nil
		},
	)

	imports.Register("env", map[string]wasmer.IntoExtern{
		"host_consume_cost_units": hostConsumeCostUnits,
		"host_read_substate":      hostReadSubstate,
		"host_write_substate":     hostWriteSubstate,
		"host_emit_event":         hostEmitEvent,
		"host_set_return":         hostSetReturn,
		"host_log":                hostLog,
	})
	return imports
}
