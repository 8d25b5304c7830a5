package models

import "testing"

func TestIsValidStatus(t *testing.T) {
	for _, status := range LeadStatuses {
		if !IsValidStatus(status) {
			t.Errorf("expected %s to be valid", status)
		}
	}

	for _, status := range []string{"", "bogus", "NEW", "done"} {
		if IsValidStatus(status) {
			t.Errorf("expected %q to be invalid", status)
		}
	}
}

func TestNormalizeStatus(t *testing.T) {
	if got := NormalizeStatus(LeadStatusContracted); got != LeadStatusContracted {
		t.Errorf("expected contracted, got %s", got)
	}
	if got := NormalizeStatus("legacy-value"); got != LeadStatusNew {
		t.Errorf("expected unknown values to normalize to new, got %s", got)
	}
}

func TestNormalizeCode(t *testing.T) {
	if got := NormalizeCode("  ab12 "); got != "AB12" {
		t.Errorf("expected AB12, got %s", got)
	}
}

func TestRoleForCode(t *testing.T) {
	if got := RoleForCode("mboss", "M"); got != RoleAdministrator {
		t.Errorf("expected administrator for reserved prefix, got %s", got)
	}
	if got := RoleForCode("AB12", "M"); got != RolePartner {
		t.Errorf("expected partner, got %s", got)
	}
	if got := RoleForCode("AB12", ""); got != RolePartner {
		t.Errorf("expected partner when no prefix is reserved, got %s", got)
	}
}
