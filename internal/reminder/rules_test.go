package reminder

import (
	"testing"

	"institute_app_echo/internal/models"
)

func TestTriggerFor(t *testing.T) {
	rule := models.ReminderRule{
		DaysBefore:         3,
		OnDueDate:          true,
		EveryNDaysAfterDue: 3,
		IsActive:           true,
	}

	tests := []struct {
		name      string
		deltaDays int
		rule      models.ReminderRule
		want      Trigger
		wantFire  bool
	}{
		{"fires at exactly days_before", 3, rule, TriggerBeforeDue, true},
		{"no fire one day early", 4, rule, "", false},
		{"no fire one day late", 2, rule, "", false},
		{"fires on due date", 0, rule, TriggerOnDue, true},
		{"fires 3 days overdue", -3, rule, TriggerAfterDue, true},
		{"fires 6 days overdue", -6, rule, TriggerAfterDue, true},
		{"no fire 2 days overdue", -2, rule, "", false},
		{"no fire 4 days overdue", -4, rule, "", false},
		{
			"due date disabled",
			0,
			models.ReminderRule{DaysBefore: 3, OnDueDate: false, EveryNDaysAfterDue: 3},
			"", false,
		},
		{
			"zero interval treated as daily",
			-1,
			models.ReminderRule{DaysBefore: 3, OnDueDate: true, EveryNDaysAfterDue: 0},
			TriggerAfterDue, true,
		},
		{
			"zero days_before fires before on_due check",
			0,
			models.ReminderRule{DaysBefore: 0, OnDueDate: true, EveryNDaysAfterDue: 3},
			TriggerBeforeDue, true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fired := TriggerFor(tt.deltaDays, tt.rule)
			if fired != tt.wantFire {
				t.Fatalf("TriggerFor(%d) fired = %v, want %v", tt.deltaDays, fired, tt.wantFire)
			}
			if got != tt.want {
				t.Errorf("TriggerFor(%d) = %q, want %q", tt.deltaDays, got, tt.want)
			}
		})
	}
}

func TestDefaultRule(t *testing.T) {
	rule := DefaultRule(42)
	if rule.InstituteID != 42 {
		t.Errorf("InstituteID = %d, want 42", rule.InstituteID)
	}
	if rule.DaysBefore != 3 || !rule.OnDueDate || rule.EveryNDaysAfterDue != 3 {
		t.Errorf("unexpected default rule values: %+v", rule)
	}
	if !rule.IsActive {
		t.Error("default rule should be active")
	}
	if rule.ID != 0 {
		t.Error("default rule must not look like a persisted row")
	}
}

func TestDedupKey(t *testing.T) {
	got := DedupKey(7, 12, "2026-09-01", "2026-08-29")
	want := "7:12:2026-09-01:2026-08-29"
	if got != want {
		t.Errorf("DedupKey() = %q, want %q", got, want)
	}
}
