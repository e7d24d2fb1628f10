package enums

import "testing"

func TestShareRoleCapabilities(t *testing.T) {
	if !ShareRoleViewer.Allows(CapabilityRead) {
		t.Fatalf("viewer should read")
	}
	if ShareRoleViewer.Allows(CapabilityWrite) {
		t.Fatalf("viewer must not write")
	}
	if !ShareRoleEditor.Allows(CapabilityRead) || !ShareRoleEditor.Allows(CapabilityWrite) {
		t.Fatalf("editor should read and write")
	}
	if ShareRole("owner").Allows(CapabilityRead) {
		t.Fatalf("unknown roles carry no capabilities")
	}
}

func TestParseShareRole(t *testing.T) {
	role, err := ParseShareRole("editor")
	if err != nil || role != ShareRoleEditor {
		t.Fatalf("expected editor, got %q err=%v", role, err)
	}
	if _, err := ParseShareRole("Owner"); err == nil {
		t.Fatalf("expected owner to be rejected")
	}
}

func TestCategoryRankAndLabel(t *testing.T) {
	if CategoryVegetablesFruits.Rank() != 0 {
		t.Fatalf("expected vegetables first")
	}
	if CategoryOther.Rank() != len(Categories)-1 {
		t.Fatalf("expected other last")
	}
	if Category("bogus").Rank() != len(Categories) {
		t.Fatalf("unknown category should rank after all known ones")
	}
	if Category("bogus").Label() != "Other" {
		t.Fatalf("unknown category should fall back to the other label")
	}
	if _, err := ParseCategory("frozen"); err != nil {
		t.Fatalf("frozen should parse: %v", err)
	}
}

func TestParseStatuses(t *testing.T) {
	if s, err := ParseListStatus("completed"); err != nil || s != ListStatusCompleted {
		t.Fatalf("unexpected list status %q err=%v", s, err)
	}
	if _, err := ParseShareStatus("rejected"); err == nil {
		t.Fatalf("rejected is not a share status")
	}
	if m, err := ParseMealType("dinner"); err != nil || !m.IsValid() {
		t.Fatalf("unexpected meal type %q err=%v", m, err)
	}
}
