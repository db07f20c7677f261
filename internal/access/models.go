package access

import (
	"time"

	"github.com/google/uuid"
)

// Role is a named policy bucket. Key is a lowercase slug used for business
// rule gating; roles without a key (or deactivated roles) never match a
// role-key check but keep their assignment history.
type Role struct {
	ID       uuid.UUID
	Name     string
	Key      string // empty means unkeyed
	IsActive bool
}

// Permission is an atomic capability. Code is "<resource>.<action>"
// (e.g. "cases.view"); both the code and the (resource, action) pair are
// unique.
type Permission struct {
	ID       uuid.UUID
	Code     string
	Resource string
	Action   string
	Name     string
}

// StandardPermissions returns the baseline capability set seeded on a
// fresh deployment, one per guarded operation of the workflow.
func StandardPermissions() []Permission {
	pairs := []struct{ resource, action string }{
		{"complaints", "submit"},
		{"complaints", "review"},
		{"cases", "view"},
		{"cases", "create"},
		{"cases", "approve"},
		{"cases", "transition"},
		{"suspects", "mark"},
		{"assessments", "create"},
		{"assessments", "score"},
		{"orders", "issue"},
		{"orders", "update"},
		{"reasonings", "submit"},
		{"reasonings", "decide"},
		{"verdicts", "record"},
		{"wanted", "view"},
		{"tips", "submit"},
		{"tips", "review"},
		{"payments", "initiate"},
	}
	out := make([]Permission, 0, len(pairs))
	for _, pair := range pairs {
		code := pair.resource + "." + pair.action
		out = append(out, Permission{
			ID:       uuid.New(),
			Code:     code,
			Resource: pair.resource,
			Action:   pair.action,
			Name:     code,
		})
	}
	return out
}

// RoleGrant links a permission to a role. Unique per (role, permission).
type RoleGrant struct {
	RoleID       uuid.UUID
	PermissionID uuid.UUID
}

// RoleAssignment links a user to a role with audit metadata. Unique per
// (user, role); the sole source of a user's current role keys.
type RoleAssignment struct {
	UserID     uuid.UUID
	RoleID     uuid.UUID
	AssignedBy uuid.UUID
	AssignedAt time.Time
}

// Role keys of the standard rank set.
const (
	RoleKeyCadet         = "cadet"
	RoleKeyPoliceOfficer = "police_officer"
	RoleKeyPatrolOfficer = "patrol_officer"
	RoleKeyOfficer       = "officer"
	RoleKeyDetective     = "detective"
	RoleKeySergeant      = "sergeant"
	RoleKeyCaptain       = "captain"
	RoleKeyChief         = "chief"
	RoleKeyJudge         = "judge"
)

// PoliceRoleKeys is the police family: every rank that may act on cases.
// Cadet is deliberately not part of it.
var PoliceRoleKeys = []string{
	RoleKeyPoliceOfficer,
	RoleKeyPatrolOfficer,
	RoleKeyOfficer,
	RoleKeyDetective,
	RoleKeySergeant,
	RoleKeyCaptain,
	RoleKeyChief,
}
