package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestSortSchedule(t *testing.T) {
	schedule := []Installment{
		{DueDate: "2026-03-01", Amount: decimal.NewFromInt(300)},
		{DueDate: "2026-01-01", Amount: decimal.NewFromInt(100)},
		{DueDate: "2026-01-01", Amount: decimal.NewFromInt(150)},
		{DueDate: "2026-02-01", Amount: decimal.NewFromInt(200)},
	}

	SortSchedule(schedule)

	wantDates := []string{"2026-01-01", "2026-01-01", "2026-02-01", "2026-03-01"}
	for i, want := range wantDates {
		if schedule[i].DueDate != want {
			t.Errorf("schedule[%d].DueDate = %s, want %s", i, schedule[i].DueDate, want)
		}
	}
	// stable: the two same-date entries keep their input order
	if !schedule[0].Amount.Equal(decimal.NewFromInt(100)) {
		t.Errorf("schedule[0].Amount = %s, want 100", schedule[0].Amount)
	}
	if !schedule[1].Amount.Equal(decimal.NewFromInt(150)) {
		t.Errorf("schedule[1].Amount = %s, want 150", schedule[1].Amount)
	}
}

func TestInstallmentDate(t *testing.T) {
	inst := Installment{DueDate: "2026-08-30"}
	d, err := inst.Date()
	if err != nil {
		t.Fatalf("Date() error: %v", err)
	}
	if d.Format(DateLayout) != "2026-08-30" {
		t.Errorf("Date() = %s, want 2026-08-30", d.Format(DateLayout))
	}

	bad := Installment{DueDate: "30/08/2026"}
	if _, err := bad.Date(); err == nil {
		t.Error("Date() accepted a non-ISO date")
	}
}

func TestClampZero(t *testing.T) {
	if got := ClampZero(decimal.NewFromInt(-5)); !got.IsZero() {
		t.Errorf("ClampZero(-5) = %s, want 0", got)
	}
	if got := ClampZero(decimal.NewFromInt(5)); !got.Equal(decimal.NewFromInt(5)) {
		t.Errorf("ClampZero(5) = %s, want 5", got)
	}
}

func TestFormat(t *testing.T) {
	d, _ := decimal.NewFromString("1500.5")
	if got := Format(d); got != "INR 1500.50" {
		t.Errorf("Format() = %q, want %q", got, "INR 1500.50")
	}
}
