package services

import (
	"testing"
)

func TestUnitOptions(t *testing.T) {
	if len(UnitOptions) == 0 {
		t.Fatal("UnitOptions should not be empty")
	}

	// Every unit used by the rate card must be selectable.
	found := make(map[string]bool)
	for _, opt := range UnitOptions {
		if opt == "" {
			t.Error("UnitOptions contains empty string")
		}
		found[opt] = true
	}
	for pt, slots := range DefaultRules {
		for _, slot := range slots {
			if !found[slot.Unit] {
				t.Errorf("%s slot %q uses unit %q not in UnitOptions", pt, slot.Description, slot.Unit)
			}
		}
	}
}

func TestProjectTypeOptions(t *testing.T) {
	opts := ProjectTypeOptions()
	if len(opts) != 4 {
		t.Fatalf("expected 4 project types, got %d", len(opts))
	}
	if opts[0].Value != "residential" || opts[0].Label != "Residential" {
		t.Errorf("first option = %+v, want residential/Residential", opts[0])
	}
}

func TestCategoryOptions(t *testing.T) {
	opts := CategoryOptions()
	want := []string{"standard", "premium", "luxury", "custom"}
	if len(opts) != len(want) {
		t.Fatalf("expected %d categories, got %d", len(want), len(opts))
	}
	for i, v := range want {
		if opts[i].Value != v {
			t.Errorf("CategoryOptions()[%d] = %q, want %q", i, opts[i].Value, v)
		}
	}
	if opts[3].Label != "Custom Costing" {
		t.Errorf("custom label = %q", opts[3].Label)
	}
}
