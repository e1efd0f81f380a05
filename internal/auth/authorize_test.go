package auth

import (
	"errors"
	"testing"
)

func TestParseRole(t *testing.T) {
	for _, in := range []string{"admin", " ORG_ADMIN ", "Employee", "volunteer", "donor", "beneficiary"} {
		if _, err := ParseRole(in); err != nil {
			t.Fatalf("ParseRole(%q): %v", in, err)
		}
	}
	for _, in := range []string{"", "ngo_admin", "school_admin", "user", "superuser"} {
		_, err := ParseRole(in)
		if !errors.Is(err, ErrInvalidRole) || !errors.Is(err, ErrValidation) {
			t.Fatalf("ParseRole(%q) err = %v, want ErrInvalidRole", in, err)
		}
	}
}

func TestAdminOnly(t *testing.T) {
	for _, r := range Roles {
		got := AdminOnly(Principal{ID: "u", Role: r})
		if got != (r == RoleAdmin) {
			t.Fatalf("AdminOnly(%s) = %v", r, got)
		}
	}
}

func TestAdminOrOrgOwner(t *testing.T) {
	cases := []struct {
		name string
		p    Principal
		org  string
		want bool
	}{
		{"admin any org", Principal{ID: "a", Role: RoleAdmin}, "org-1", true},
		{"admin no org", Principal{ID: "a", Role: RoleAdmin}, "", true},
		{"org admin same org", Principal{ID: "o", Role: RoleOrgAdmin, OrganizationID: "org-1"}, "org-1", true},
		{"org admin other org", Principal{ID: "o", Role: RoleOrgAdmin, OrganizationID: "org-1"}, "org-2", false},
		{"org admin without org", Principal{ID: "o", Role: RoleOrgAdmin}, "", false},
		{"employee same org", Principal{ID: "e", Role: RoleEmployee, OrganizationID: "org-1"}, "org-1", false},
		{"volunteer same org", Principal{ID: "v", Role: RoleVolunteer, OrganizationID: "org-1"}, "org-1", false},
	}
	for _, tc := range cases {
		if got := AdminOrOrgOwner(tc.p, tc.org); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSelfOrAdmin(t *testing.T) {
	if !SelfOrAdmin(Principal{ID: "u1", Role: RoleDonor}, "u1") {
		t.Fatal("owner should be allowed")
	}
	if SelfOrAdmin(Principal{ID: "u1", Role: RoleDonor}, "u2") {
		t.Fatal("non-owner should be denied")
	}
	if SelfOrAdmin(Principal{Role: RoleDonor}, "") {
		t.Fatal("empty ids must not match")
	}
	if !SelfOrAdmin(Principal{ID: "a", Role: RoleAdmin}, "u2") {
		t.Fatal("admin should be allowed")
	}
}

func TestCanAssignRole(t *testing.T) {
	admin := &Principal{ID: "a", Role: RoleAdmin}
	orgAdmin := &Principal{ID: "o", Role: RoleOrgAdmin, OrganizationID: "org"}
	for _, r := range Roles {
		if !CanAssignRole(admin, r) {
			t.Fatalf("admin should assign %s", r)
		}
		wantAnon := !r.Elevated()
		if got := CanAssignRole(nil, r); got != wantAnon {
			t.Fatalf("anonymous assign %s = %v", r, got)
		}
		if got := CanAssignRole(orgAdmin, r); got != wantAnon {
			t.Fatalf("org admin assign %s = %v", r, got)
		}
	}
	if CanAssignRole(admin, Role("ngo_admin")) {
		t.Fatal("legacy role must not be assignable")
	}
}

func TestAuthorize(t *testing.T) {
	volunteer := Principal{ID: "v", Role: RoleVolunteer, OrganizationID: "org-1"}
	if err := Authorize(volunteer, RuleAdminOnly, Resource{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
	if err := Authorize(volunteer, RuleAuthenticated, Resource{}); err != nil {
		t.Fatalf("authenticated rule: %v", err)
	}
	if err := Authorize(volunteer, RuleSelfOrAdmin, Resource{OwnerID: "v"}); err != nil {
		t.Fatalf("self rule: %v", err)
	}
	if err := Authorize(Principal{}, RuleAuthenticated, Resource{}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("empty principal should be denied, got %v", err)
	}
}

func TestPolicyTable(t *testing.T) {
	cases := []struct {
		resource string
		action   Action
		want     Rule
	}{
		{ResourceEmployees, ActionCreate, RuleAdminOnly},
		{ResourceDonors, ActionList, RuleAdminOnly},
		{ResourceEvents, ActionDelete, RuleAdminOnly},
		{ResourceOrganizations, ActionUpdate, RuleAdminOnly},
		{ResourceReports, ActionRead, RuleAdminOrOrgOwner},
		{ResourceAttendance, ActionCreate, RuleAdminOrOrgOwner},
		{ResourceUsers, ActionRead, RuleSelfOrAdmin},
		{ResourceUsers, ActionUpdate, RuleSelfOrAdmin},
		{ResourceUsers, ActionSetRole, RuleAdminOnly},
		{ResourceUsers, ActionDelete, RuleAdminOnly},
		{"unknown", ActionRead, RuleAdminOnly},
		{ResourceReports, ActionSetRole, RuleAdminOnly},
	}
	for _, tc := range cases {
		if got := RuleFor(tc.resource, tc.action); got != tc.want {
			t.Fatalf("RuleFor(%s, %s) = %s, want %s", tc.resource, tc.action, got, tc.want)
		}
	}
	if !ScopedToOrganization(ResourceReports) || ScopedToOrganization(ResourceDonors) {
		t.Fatal("unexpected organization scoping")
	}
}
