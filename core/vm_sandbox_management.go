package core

// vm_sandbox_management.go – per-session guest sandbox bookkeeping (spec
// §4.5 guest-bytecode host interface, §A Limits MaxWasmMemoryPerTx/
// MaxWasmMemoryPerCall). Adapted from the teacher's vm_sandbox_management.go
// global sandbox registry (StartSandbox/StopSandbox/SandboxStatus backed by
// a package-level map and the ledger): the lifecycle verbs survive, but the
// package-level map and ledger persistence are gone (spec §9 "no
// process-wide singletons") — a SandboxManager is now a field of the
// transaction session, and sandbox state is never persisted since it has no
// meaning outside the session that created it.

import (
	"time"
)

// SandboxInfo tracks one guest module instance's resource usage within a
// session.
type SandboxInfo struct {
	Component   NodeId
	MemoryLimit uint64
	MemoryUsed  uint64
	Started     time.Time
	Active      bool
}

// SandboxManager tracks every guest sandbox opened during one transaction
// session, enforcing the per-call and per-transaction memory ceilings (spec
// §A Limits).
type SandboxManager struct {
	sandboxes    map[NodeId]*SandboxInfo
	totalMemory  uint64
	perTxLimit   uint64
	perCallLimit uint64
}

// NewSandboxManager constructs a manager bound to the session's configured
// memory limits.
func NewSandboxManager(perTxLimit, perCallLimit uint64) *SandboxManager {
	return &SandboxManager{
		sandboxes:    make(map[NodeId]*SandboxInfo),
		perTxLimit:   perTxLimit,
		perCallLimit: perCallLimit,
	}
}

// StartSandbox opens a sandbox for a component's guest module instance,
// failing if one is already active for that component or the requested
// memory would exceed either ceiling.
func (m *SandboxManager) StartSandbox(component NodeId, memLimit uint64) error {
	if sb, ok := m.sandboxes[component]; ok && sb.Active {
		return NewKernelError("SandboxAlreadyActive: %s", component)
	}
	if m.perCallLimit > 0 && memLimit > m.perCallLimit {
		return NewTransactionLimitsError("MaxWasmMemoryPerCallExceeded: %d", memLimit)
	}
	if m.perTxLimit > 0 && m.totalMemory+memLimit > m.perTxLimit {
		return NewTransactionLimitsError("MaxWasmMemoryPerTxExceeded: %d", m.totalMemory+memLimit)
	}
	m.sandboxes[component] = &SandboxInfo{
		Component:   component,
		MemoryLimit: memLimit,
		Started:     time.Now(),
		Active:      true,
	}
	m.totalMemory += memLimit
	return nil
}

// StopSandbox closes a sandbox, releasing its memory budget back to the
// session total.
func (m *SandboxManager) StopSandbox(component NodeId) error {
	sb, ok := m.sandboxes[component]
	if !ok {
		return NewKernelError("SandboxNotFound: %s", component)
	}
	sb.Active = false
	m.totalMemory -= sb.MemoryLimit
	return nil
}

// RecordUsage updates a sandbox's observed linear-memory high-water mark,
// failing if it would cross the per-call ceiling (spec §4.5 suspension
// point "grow_memory").
func (m *SandboxManager) RecordUsage(component NodeId, used uint64) error {
	sb, ok := m.sandboxes[component]
	if !ok {
		return NewKernelError("SandboxNotFound: %s", component)
	}
	if m.perCallLimit > 0 && used > m.perCallLimit {
		return NewTransactionLimitsError("MaxWasmMemoryPerCallExceeded: %d", used)
	}
	sb.MemoryUsed = used
	return nil
}

// Status reports the current sandbox info for a component, if any.
func (m *SandboxManager) Status(component NodeId) (SandboxInfo, bool) {
	sb, ok := m.sandboxes[component]
	if !ok {
		return SandboxInfo{}, false
	}
	return *sb, true
}

// Active lists every sandbox still open at the point of the call.
func (m *SandboxManager) Active() []SandboxInfo {
	out := make([]SandboxInfo, 0, len(m.sandboxes))
	for _, sb := range m.sandboxes {
		if sb.Active {
			out = append(out, *sb)
		}
	}
	return out
}
