package core

// native_dispatch.go – the native package/blueprint function registry (spec
// §4.1 "native vs guest dispatch: native blueprints run as plain Go
// functions registered ahead of time"). Adapted from the teacher's contracts.go
// ContractRegistry.Invoke (look up by address, clamp gas, route to a VM,
// return a receipt): the WASM compile pipeline and the Ricardian-contract
// JSON metadata are gone (bytecode compilation/validation is out of scope,
// spec §1 Non-goals), but the registration-by-key and call-routing shape
// survives, combined with opcode_dispatcher.go's panic-on-duplicate-register
// convention.

import (
	"fmt"
	"sync"
)

// NativeFunction is one native blueprint function: it runs as ordinary Go
// code against the current call frame rather than through the guest
// sandbox (spec §4.1 "native functions are exempted from the WASM
// suspension-point boundary").
type NativeFunction func(k *Kernel, frame *CallFrame, args []byte) ([]byte, error)

// NativeRegistry maps (blueprint, function) to its native implementation.
// Unlike the teacher's ContractRegistry, this holds code, not deployed
// instances — deployed state lives in substates, looked up via the kernel.
type NativeRegistry struct {
	mu  sync.RWMutex
	fns map[string]NativeFunction
}

// NewNativeRegistry constructs an empty registry, scoped to one
// transaction-processor session (spec §9: no process-wide singletons). Each
// native blueprint exposes a RegisterXxx(reg) function the session assembler
// calls explicitly — unlike opcode_dispatcher.go's instruction table, which
// is genuinely process-wide static data and registers at package init time.
func NewNativeRegistry() *NativeRegistry {
	return &NativeRegistry{fns: make(map[string]NativeFunction)}
}

func nativeKey(blueprint, function string) string { return blueprint + "::" + function }

// Register binds (blueprint, function) to fn, panicking on collision —
// a native blueprint clash is a packaging bug, not a runtime condition
// (mirrors RegisterInstruction).
func (r *NativeRegistry) Register(blueprint, function string, fn NativeFunction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := nativeKey(blueprint, function)
	if _, exists := r.fns[key]; exists {
		panic(fmt.Sprintf("native_dispatch: %s already registered", key))
	}
	r.fns[key] = fn
}

// Lookup returns the registered function for (blueprint, function), if any.
func (r *NativeRegistry) Lookup(blueprint, function string) (NativeFunction, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.fns[nativeKey(blueprint, function)]
	return fn, ok
}

// Invoke pushes a call frame, runs the native function, and pops the frame,
// mirroring the kernel's guest invocation path (spec §4.1 PushFrame/
// Invoke/PopFrame) so native and guest calls are symmetric to every other
// kernel module (costing, auth, events).
func (r *NativeRegistry) Invoke(k *Kernel, actor Actor, update CallFrameUpdate, blueprint, function string, args []byte) ([]byte, error) {
	fn, ok := r.Lookup(blueprint, function)
	if !ok {
		return nil, NewApplicationError("native_dispatch: no native function %s::%s", blueprint, function)
	}
	frame, err := k.PushFrame(actor, update)
	if err != nil {
		return nil, err
	}
	result, callErr := fn(k, frame, args)
	if popErr := k.PopFrame(result); popErr != nil && callErr == nil {
		callErr = popErr
	}
	return result, callErr
}
