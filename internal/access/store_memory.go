package access

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is the in-memory Store used by service tests and seeding.
// It also exposes write helpers that the SQL schema enforces with
// uniqueness constraints.
type MemoryStore struct {
	mu          sync.RWMutex
	roles       map[uuid.UUID]*Role
	permissions map[uuid.UUID]*Permission
	grants      map[uuid.UUID]map[uuid.UUID]bool // role -> permission set
	assignments map[uuid.UUID]map[uuid.UUID]bool // user -> role set
}

// NewMemoryStore creates an empty in-memory access store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		roles:       make(map[uuid.UUID]*Role),
		permissions: make(map[uuid.UUID]*Permission),
		grants:      make(map[uuid.UUID]map[uuid.UUID]bool),
		assignments: make(map[uuid.UUID]map[uuid.UUID]bool),
	}
}

// AddRole registers a role and returns it.
func (s *MemoryStore) AddRole(name, key string, active bool) *Role {
	s.mu.Lock()
	defer s.mu.Unlock()
	role := &Role{ID: uuid.New(), Name: name, Key: strings.ToLower(key), IsActive: active}
	s.roles[role.ID] = role
	return role
}

// AddPermission registers a permission and returns it. Re-adding an
// existing code returns the stored permission, mirroring the SQL schema's
// uniqueness on code and (resource, action).
func (s *MemoryStore) AddPermission(code, resource, action string) *Permission {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.permissions {
		if existing.Code == code ||
			(existing.Resource == resource && existing.Action == action) {
			return existing
		}
	}
	perm := &Permission{ID: uuid.New(), Code: code, Resource: resource, Action: action, Name: code}
	s.permissions[perm.ID] = perm
	return perm
}

// Grant links a permission to a role.
func (s *MemoryStore) Grant(roleID, permissionID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.grants[roleID] == nil {
		s.grants[roleID] = make(map[uuid.UUID]bool)
	}
	s.grants[roleID][permissionID] = true
}

// Assign links a user to a role.
func (s *MemoryStore) Assign(userID, roleID, assignedBy uuid.UUID) RoleAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.assignments[userID] == nil {
		s.assignments[userID] = make(map[uuid.UUID]bool)
	}
	s.assignments[userID][roleID] = true
	return RoleAssignment{UserID: userID, RoleID: roleID, AssignedBy: assignedBy, AssignedAt: time.Now()}
}

// Deactivate flips a role inactive, hiding its key from lookups.
func (s *MemoryStore) Deactivate(roleID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if role, ok := s.roles[roleID]; ok {
		role.IsActive = false
	}
}

func (s *MemoryStore) RoleKeysForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for roleID := range s.assignments[userID] {
		role, ok := s.roles[roleID]
		if !ok || !role.IsActive || role.Key == "" {
			continue
		}
		keys = append(keys, role.Key)
	}
	return keys, nil
}

func (s *MemoryStore) PermissionCodesForUser(ctx context.Context, userID uuid.UUID) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := map[string]bool{}
	var codes []string
	for roleID := range s.assignments[userID] {
		role, ok := s.roles[roleID]
		if !ok || !role.IsActive {
			continue
		}
		for permID := range s.grants[roleID] {
			perm, ok := s.permissions[permID]
			if !ok || seen[perm.Code] {
				continue
			}
			seen[perm.Code] = true
			codes = append(codes, perm.Code)
		}
	}
	return codes, nil
}

func (s *MemoryStore) AllPermissionCodes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	codes := make([]string, 0, len(s.permissions))
	for _, perm := range s.permissions {
		codes = append(codes, perm.Code)
	}
	return codes, nil
}
