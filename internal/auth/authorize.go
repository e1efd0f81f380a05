package auth

import "fmt"

// Rule names the predicate guarding an operation.
type Rule int

const (
	RuleAuthenticated Rule = iota
	RuleAdminOnly
	RuleAdminOrOrgOwner
	RuleSelfOrAdmin
)

func (r Rule) String() string {
	switch r {
	case RuleAuthenticated:
		return "authenticated"
	case RuleAdminOnly:
		return "admin_only"
	case RuleAdminOrOrgOwner:
		return "admin_or_org_owner"
	case RuleSelfOrAdmin:
		return "self_or_admin"
	}
	return fmt.Sprintf("rule(%d)", int(r))
}

// Resource carries the ownership facts of the addressed record.
type Resource struct {
	OrganizationID string
	OwnerID        string
}

// AdminOnly allows global admins.
func AdminOnly(p Principal) bool {
	return p.Role == RoleAdmin
}

// AdminOrOrgOwner allows global admins and the admin of the resource's organization.
func AdminOrOrgOwner(p Principal, resourceOrg string) bool {
	if p.Role == RoleAdmin {
		return true
	}
	return p.Role == RoleOrgAdmin && p.OrganizationID != "" && p.OrganizationID == resourceOrg
}

// SelfOrAdmin allows global admins and the owner of the resource.
func SelfOrAdmin(p Principal, ownerID string) bool {
	if p.Role == RoleAdmin {
		return true
	}
	return p.ID != "" && p.ID == ownerID
}

// CanAssignRole reports whether actor may create or move a credential into role.
// Non-elevated roles are self-service; a nil actor is an anonymous caller.
func CanAssignRole(actor *Principal, role Role) bool {
	if !role.Valid() {
		return false
	}
	if !role.Elevated() {
		return true
	}
	return actor != nil && actor.Role == RoleAdmin
}

// Authorize evaluates rule for p against res. Denial yields ErrForbidden.
func Authorize(p Principal, rule Rule, res Resource) error {
	var ok bool
	switch rule {
	case RuleAuthenticated:
		ok = p.ID != "" && p.Role.Valid()
	case RuleAdminOnly:
		ok = AdminOnly(p)
	case RuleAdminOrOrgOwner:
		ok = AdminOrOrgOwner(p, res.OrganizationID)
	case RuleSelfOrAdmin:
		ok = SelfOrAdmin(p, res.OwnerID)
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}
