package core

// sysapi.go – the System service layer above the Kernel (spec §4.1 "a
// thin System layer sits above the kernel and is what blueprint code (native
// or guest) actually calls: new_object, globalize, call_method, emit_event,
// rather than raw create_node/lock_substate"). Grounded on native_dispatch.go
// and kernel.go's own layering: System composes Kernel + NativeRegistry +
// RoyaltyModule the way TransactionProcessor composes them for the manifest
// layer, but exposes blueprint-shaped verbs instead of instruction-shaped
// ones.

// System is the API surface a native or guest blueprint function receives
// (spec §4.1). It is constructed once per invocation and is never a
// package-level singleton.
type System struct {
	Kernel  *Kernel
	Native  *NativeRegistry
	Royalty *RoyaltyModule
	Roles   *RoleAssignmentStore
	Actor   Actor
}

// NewSystem wires a System handle for one invocation.
func NewSystem(k *Kernel, native *NativeRegistry, royalty *RoyaltyModule, roles *RoleAssignmentStore, actor Actor) *System {
	return &System{Kernel: k, Native: native, Royalty: royalty, Roles: roles, Actor: actor}
}

// NewObject allocates a node, tags it with a TypeInfoSubstate identifying
// its blueprint, and populates its initial fields (spec §4.1 "new_object:
// allocate_node_id + create_node + a TypeInfo substate in partition 0").
func (s *System) NewObject(et EntityType, pkg NodeId, blueprint string, fields map[SubstateKey][]byte) (NodeId, error) {
	id := s.Kernel.AllocateNodeId(et)
	info := TypeInfoSubstate{Kind: TypeInfoObject, Blueprint: blueprint, PackageAddr: pkg}
	infoBytes, err := EncodeValue(ValueTagTypeInfo, info)
	if err != nil {
		return NodeId{}, NewSystemError("new_object: encode TypeInfo: %v", err)
	}
	substates := map[PartitionNumber]map[SubstateKey][]byte{
		PartitionTypeInfo: {TupleKey(0): infoBytes},
	}
	if len(fields) > 0 {
		substates[PartitionUserBase] = fields
	}
	if err := s.Kernel.CreateNode(id, substates); err != nil {
		return NodeId{}, err
	}
	return id, nil
}

// GlobalizeObject moves a heap object into Track, making it a globally
// addressed component (spec §4.1 globalize, §3 Node lifecycle).
func (s *System) GlobalizeObject(id NodeId) error {
	return s.Kernel.Globalize(id)
}

// TypeInfoOf reads back a node's TypeInfo substate, failing with
// *SystemError if the node was never tagged (spec §9 "every node's identity
// is recoverable from its TypeInfo substate without a side table").
func (s *System) TypeInfoOf(id NodeId) (TypeInfoSubstate, error) {
	handle, err := s.Kernel.LockSubstate(id, PartitionTypeInfo, TupleKey(0), LockFlags{ReadOnly: true}, nil, nil)
	if err != nil {
		return TypeInfoSubstate{}, NewSystemError("TypeInfoOf: %v", err)
	}
	defer s.Kernel.DropLock(handle)
	raw, err := s.Kernel.ReadSubstate(handle)
	if err != nil {
		return TypeInfoSubstate{}, NewSystemError("TypeInfoOf: %v", err)
	}
	info, err := DecodeTypeInfo(raw)
	if err != nil {
		return TypeInfoSubstate{}, NewSystemError("TypeInfoOf: decode: %v", err)
	}
	return info, nil
}

// CallMethod invokes a native blueprint method on an existing global or
// owned object, charging royalty on entry (spec §4.1 call_method, §4.3
// "on method entry, charge royalty").
func (s *System) CallMethod(receiver NodeId, blueprint, method string, args []byte) ([]byte, error) {
	info, err := s.TypeInfoOf(receiver)
	if err != nil {
		return nil, err
	}
	s.Royalty.ChargeOnMethodEntry(info.PackageAddr, info.Blueprint, method, receiver, method)

	actor := Actor{Package: info.PackageAddr, Blueprint: blueprint, Function: method, Receiver: receiver, HasReceiver: true}
	update := NewCallFrameUpdate()
	update.Refs[receiver] = true
	return s.Native.Invoke(s.Kernel, actor, update, blueprint, method, args)
}

// CallFunction invokes a blueprint's stateless function (no receiver, spec
// §4.1 call_function).
func (s *System) CallFunction(pkg NodeId, blueprint, function string, args []byte) ([]byte, error) {
	actor := Actor{Package: pkg, Blueprint: blueprint, Function: function}
	return s.Native.Invoke(s.Kernel, actor, NewCallFrameUpdate(), blueprint, function, args)
}

// EmitEvent emits an event attributed to the current actor's receiver,
// enforcing the session's max-event-size limit (spec §4.1 emit_event).
func (s *System) EmitEvent(schemaTypeRef string, payload []byte) error {
	if err := s.Kernel.Events.CheckSize(payload, s.Kernel.Limits.MaxEventSize); err != nil {
		return err
	}
	s.Kernel.Events.Emit(s.Actor.Receiver, schemaTypeRef, payload)
	return nil
}

// RequireRole fails unless the current actor's receiver holds role, used by
// native blueprint methods that gate behind role-based auth (spec §4.4).
func (s *System) RequireRole(component NodeId, role string) error {
	if !s.Roles.HasRole(component, role) {
		return NewApplicationError("RequireRole: %s lacks role %q", component, role)
	}
	return nil
}
