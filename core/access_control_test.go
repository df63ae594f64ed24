package core

import (
	"sync"
	"testing"
)

func newTestTrack() *Track {
	return NewTrack(NewMemStore())
}

func TestRoleAssignmentStoreCaching(t *testing.T) {
	store := NewRoleAssignmentStore(newTestTrack())
	var component NodeId
	component[0] = byte(EntityTypeGlobalComponent)
	role := "admin"

	if err := store.GrantRole(component, role); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if !store.HasRole(component, role) {
		t.Fatalf("expected role present")
	}
	if err := store.RevokeRole(component, role); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if store.HasRole(component, role) {
		t.Fatalf("expected role removed")
	}
}

func TestRoleAssignmentStoreDuplicateGrant(t *testing.T) {
	store := NewRoleAssignmentStore(newTestTrack())
	var component NodeId
	component[0] = byte(EntityTypeGlobalComponent)

	if err := store.GrantRole(component, "admin"); err != nil {
		t.Fatalf("grant: %v", err)
	}
	if err := store.GrantRole(component, "admin"); err == nil {
		t.Fatalf("expected duplicate grant to fail")
	}
}

func TestRoleAssignmentStoreConcurrent(t *testing.T) {
	store := NewRoleAssignmentStore(newTestTrack())
	var component NodeId
	component[0] = byte(EntityTypeGlobalComponent)
	role := "worker"

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.GrantRole(component, role)
		}()
	}
	wg.Wait()
	if !store.HasRole(component, role) {
		t.Fatalf("expected role present")
	}
}
