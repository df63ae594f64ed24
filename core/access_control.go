package core

import (
	"sync"
)

// access_control.go – role assignment persistence (spec §4.4 Authorization,
// "roles are persisted in the component's PartitionAccessRules partition").
// Adapted from the teacher's AccessController: the same mutex-guarded
// in-memory cache in front of persistent storage, but backed by a *Track
// substate address instead of a standalone Ledger key-value store, and
// keyed by (component NodeId, role name) rather than (Address, role).

// RoleAssignmentStore caches role grants over the track overlay so repeated
// HasRole checks during one session's instruction loop don't re-read the
// overlay map on every auth check.
type RoleAssignmentStore struct {
	mu    sync.Mutex
	track *Track
	cache map[NodeId]map[string]bool
}

// NewRoleAssignmentStore returns a store backed by the given track overlay.
func NewRoleAssignmentStore(track *Track) *RoleAssignmentStore {
	return &RoleAssignmentStore{track: track, cache: make(map[NodeId]map[string]bool)}
}

func roleKey(role string) SubstateKey { return MapKey([]byte(role)) }

// GrantRole assigns role to component, persisting it into
// PartitionAccessRules. Returns an error if the role is already granted.
func (s *RoleAssignmentStore) GrantRole(component NodeId, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasRoleLocked(component, role) {
		return NewApplicationError("RoleAssignmentStore: role %q already granted to %s", role, component)
	}
	addr := SubstateAddress{Node: component, Partition: PartitionAccessRules, Key: roleKey(role)}
	s.track.Write(addr, []byte{1}, false)
	s.setCache(component, role, true)
	return nil
}

// RevokeRole removes role from component. Returns an error if the role is
// not currently granted.
func (s *RoleAssignmentStore) RevokeRole(component NodeId, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.hasRoleLocked(component, role) {
		return NewApplicationError("RoleAssignmentStore: role %q not granted to %s", role, component)
	}
	addr := SubstateAddress{Node: component, Partition: PartitionAccessRules, Key: roleKey(role)}
	s.track.Remove(addr)
	s.setCache(component, role, false)
	return nil
}

// HasRole reports whether component currently holds role.
func (s *RoleAssignmentStore) HasRole(component NodeId, role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasRoleLocked(component, role)
}

func (s *RoleAssignmentStore) hasRoleLocked(component NodeId, role string) bool {
	if roles, ok := s.cache[component]; ok {
		if granted, ok := roles[role]; ok {
			return granted
		}
	}
	addr := SubstateAddress{Node: component, Partition: PartitionAccessRules, Key: roleKey(role)}
	value, found, err := s.track.Read(addr, nil)
	granted := err == nil && found && len(value) > 0
	s.setCache(component, role, granted)
	return granted
}

func (s *RoleAssignmentStore) setCache(component NodeId, role string, granted bool) {
	roles, ok := s.cache[component]
	if !ok {
		roles = make(map[string]bool)
		s.cache[component] = roles
	}
	roles[role] = granted
}
