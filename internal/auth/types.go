package auth

import (
	"fmt"
	"strings"
	"time"
)

// Role is the closed set of roles a credential can carry.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleOrgAdmin    Role = "org_admin"
	RoleEmployee    Role = "employee"
	RoleVolunteer   Role = "volunteer"
	RoleDonor       Role = "donor"
	RoleBeneficiary Role = "beneficiary"
)

// Roles lists every canonical role in display order.
var Roles = []Role{RoleAdmin, RoleOrgAdmin, RoleEmployee, RoleVolunteer, RoleDonor, RoleBeneficiary}

// ParseRole normalizes s and returns the matching canonical role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
	}
	return r, nil
}

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleOrgAdmin, RoleEmployee, RoleVolunteer, RoleDonor, RoleBeneficiary:
		return true
	}
	return false
}

// Elevated reports whether only an admin may grant r.
func (r Role) Elevated() bool {
	return r == RoleAdmin || r == RoleOrgAdmin || r == RoleEmployee
}

// RequiresOrganization reports whether credentials with role r must belong to an organization.
func (r Role) RequiresOrganization() bool {
	return r == RoleOrgAdmin || r == RoleEmployee
}

func (r Role) String() string { return string(r) }

// Credential is a persisted login record.
type Credential struct {
	ID             string    `json:"id"`
	LoginName      string    `json:"username"`
	PasswordHash   string    `json:"-"`
	Role           Role      `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Principal returns the runtime identity derived from the stored credential.
func (c Credential) Principal() Principal {
	return Principal{ID: c.ID, Role: c.Role, OrganizationID: c.OrganizationID}
}

// NewCredential carries the input for registration.
type NewCredential struct {
	LoginName      string
	Password       string
	Role           Role
	OrganizationID string
}

// CredentialUpdate describes a partial profile change. Nil fields are left untouched.
type CredentialUpdate struct {
	LoginName      *string
	PasswordHash   *string
	OrganizationID *string
}

// Principal is the authenticated identity for the duration of one request.
type Principal struct {
	ID             string `json:"id"`
	Role           Role   `json:"role"`
	OrganizationID string `json:"organization_id,omitempty"`
}

// IsAdmin reports whether the principal holds the global admin role.
func (p Principal) IsAdmin() bool { return p.Role == RoleAdmin }

// Claims are the values recovered from a verified token.
type Claims struct {
	Subject   string
	Role      Role
	IssuedAt  time.Time
	ExpiresAt time.Time
	ID        string
}
