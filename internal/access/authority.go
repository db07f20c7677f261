package access

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"casefile/internal/identity"
	derrors "casefile/pkg/domain-errors"
)

// Store resolves role keys and permission codes from assignments. Pure
// reads; implementations must only consider active roles.
type Store interface {
	// RoleKeysForUser returns the lowercase keys of every active, keyed
	// role assigned to the user.
	RoleKeysForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	// PermissionCodesForUser returns the union of codes granted to any
	// active role assigned to the user.
	PermissionCodesForUser(ctx context.Context, userID uuid.UUID) ([]string, error)
	// AllPermissionCodes returns every permission code in the system.
	AllPermissionCodes(ctx context.Context) ([]string, error)
}

// Authority answers role-key and permission-code questions for a principal.
// Side-effect free and safe to call repeatedly within a request.
type Authority struct {
	store Store
}

// NewAuthority constructs an Authority over the given store.
func NewAuthority(store Store) *Authority {
	return &Authority{store: store}
}

// RoleKeysOf returns the set of active role keys held by the user.
// An unauthenticated (nil) user holds no keys.
func (a *Authority) RoleKeysOf(ctx context.Context, user *identity.User) (map[string]bool, error) {
	if !user.IsAuthenticated() {
		return map[string]bool{}, nil
	}
	keys, err := a.store.RoleKeysForUser(ctx, user.ID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve role keys")
	}
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
			set[key] = true
		}
	}
	return set, nil
}

// HasAnyRoleKey reports whether the user holds at least one of the required
// keys. Superusers pass unconditionally; an empty requirement passes
// vacuously. Matching is case-insensitive on both sides.
func (a *Authority) HasAnyRoleKey(ctx context.Context, user *identity.User, requiredKeys ...string) (bool, error) {
	if user != nil && user.IsSuperuser {
		return true, nil
	}
	required := normalizeSet(requiredKeys)
	if len(required) == 0 {
		return true, nil
	}
	held, err := a.RoleKeysOf(ctx, user)
	if err != nil {
		return false, err
	}
	for key := range required {
		if held[key] {
			return true, nil
		}
	}
	return false, nil
}

// PermissionCodesOf returns the permission codes held by the user.
// Superusers hold every code in the system.
func (a *Authority) PermissionCodesOf(ctx context.Context, user *identity.User) (map[string]bool, error) {
	if user != nil && user.IsSuperuser {
		codes, err := a.store.AllPermissionCodes(ctx)
		if err != nil {
			return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to list permission codes")
		}
		return toSet(codes), nil
	}
	if !user.IsAuthenticated() {
		return map[string]bool{}, nil
	}
	codes, err := a.store.PermissionCodesForUser(ctx, user.ID)
	if err != nil {
		return nil, derrors.Wrap(err, derrors.CodeInternal, "failed to resolve permission codes")
	}
	return toSet(codes), nil
}

// HasPermissionCodes reports whether the user satisfies the permission
// requirement. Superusers pass; anonymous callers fail even for an empty
// requirement since permission checks demand authentication first. With
// matchAll the requirement is subset containment, otherwise any overlap.
func (a *Authority) HasPermissionCodes(ctx context.Context, user *identity.User, requiredCodes []string, matchAll bool) (bool, error) {
	if user != nil && user.IsSuperuser {
		return true, nil
	}
	if !user.IsAuthenticated() {
		return false, nil
	}
	required := map[string]bool{}
	for _, code := range requiredCodes {
		if code != "" {
			required[code] = true
		}
	}
	if len(required) == 0 {
		return true, nil
	}
	held, err := a.PermissionCodesOf(ctx, user)
	if err != nil {
		return false, err
	}
	matched := 0
	for code := range required {
		if held[code] {
			matched++
		}
	}
	if matchAll {
		return matched == len(required), nil
	}
	return matched > 0, nil
}

// RequireAnyRoleKey is HasAnyRoleKey surfaced as a coded error, for service
// call sites that reject rather than branch.
func (a *Authority) RequireAnyRoleKey(ctx context.Context, user *identity.User, message string, requiredKeys ...string) error {
	ok, err := a.HasAnyRoleKey(ctx, user, requiredKeys...)
	if err != nil {
		return err
	}
	if !ok {
		return derrors.New(derrors.CodeRolePolicy, message)
	}
	return nil
}

func normalizeSet(keys []string) map[string]bool {
	set := make(map[string]bool, len(keys))
	for _, key := range keys {
		if key = strings.ToLower(strings.TrimSpace(key)); key != "" {
			set[key] = true
		}
	}
	return set
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
