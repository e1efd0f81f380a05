package auth

// Action is an operation on a resource collection or record.
type Action string

const (
	ActionList    Action = "list"
	ActionCreate  Action = "create"
	ActionRead    Action = "read"
	ActionUpdate  Action = "update"
	ActionDelete  Action = "delete"
	ActionSetRole Action = "set_role"
)

var crudActions = []Action{ActionList, ActionCreate, ActionRead, ActionUpdate, ActionDelete}

// Resource collection names guarded by the policy table.
const (
	ResourceUsers         = "users"
	ResourceOrganizations = "organizations"
	ResourceDonors        = "donors"
	ResourceEmployees     = "employees"
	ResourceEvents        = "events"
	ResourceBeneficiaries = "beneficiaries"
	ResourceVolunteers    = "volunteers"
	ResourceProjects      = "projects"
	ResourceReports       = "reports"
	ResourceAttendance    = "attendance"
)

// policy is the single role matrix of the service.
var policy = func() map[string]map[Action]Rule {
	m := map[string]map[Action]Rule{
		ResourceUsers: {
			ActionList:    RuleAdminOnly,
			ActionCreate:  RuleAdminOnly,
			ActionRead:    RuleSelfOrAdmin,
			ActionUpdate:  RuleSelfOrAdmin,
			ActionDelete:  RuleAdminOnly,
			ActionSetRole: RuleAdminOnly,
		},
	}
	uniform := func(rule Rule, resources ...string) {
		for _, res := range resources {
			m[res] = make(map[Action]Rule, len(crudActions))
			for _, a := range crudActions {
				m[res][a] = rule
			}
		}
	}
	uniform(RuleAdminOnly, ResourceOrganizations, ResourceDonors, ResourceEmployees, ResourceEvents)
	uniform(RuleAdminOrOrgOwner, ResourceBeneficiaries, ResourceVolunteers, ResourceProjects, ResourceReports, ResourceAttendance)
	return m
}()

// RuleFor returns the rule guarding action on resource.
// Unknown pairs resolve to RuleAdminOnly so that new routes fail closed.
func RuleFor(resource string, action Action) Rule {
	if actions, ok := policy[resource]; ok {
		if rule, ok := actions[action]; ok {
			return rule
		}
	}
	return RuleAdminOnly
}

// ScopedToOrganization reports whether non-admin access to resource is limited to the caller's organization.
func ScopedToOrganization(resource string) bool {
	return RuleFor(resource, ActionList) == RuleAdminOrOrgOwner
}
