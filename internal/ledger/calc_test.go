package ledger

import (
	"testing"

	"github.com/shopspring/decimal"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/money"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func account(totalFee, discount string, schedule []money.Installment, payments ...string) *models.FeeAccount {
	acc := &models.FeeAccount{
		TotalFee:    dec(totalFee),
		Discount:    dec(discount),
		DueSchedule: schedule,
	}
	for _, p := range payments {
		acc.Payments = append(acc.Payments, models.Payment{Amount: dec(p)})
	}
	return acc
}

func TestOutstanding(t *testing.T) {
	tests := []struct {
		name     string
		account  *models.FeeAccount
		expected string
	}{
		{
			name:     "no payments",
			account:  account("6000.00", "500.00", nil),
			expected: "5500.00",
		},
		{
			name:     "partial payment",
			account:  account("6000.00", "500.00", nil, "1500.00"),
			expected: "4000.00",
		},
		{
			name:     "fully paid",
			account:  account("6000.00", "500.00", nil, "3000.00", "2500.00"),
			expected: "0.00",
		},
		{
			name:     "overpaid clamps to zero",
			account:  account("1000.00", "0.00", nil, "1500.00"),
			expected: "0.00",
		},
		{
			name:     "discount exceeds fee",
			account:  account("1000.00", "1200.00", nil),
			expected: "0.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Outstanding(tt.account)
			if got.StringFixed(2) != tt.expected {
				t.Errorf("Outstanding() = %s, want %s", got.StringFixed(2), tt.expected)
			}
		})
	}
}

func TestAllocateWaterfall(t *testing.T) {
	// a single payment of 150 against two 100 installments settles the
	// earlier one entirely and leaves 50 on the later one
	acc := account("200.00", "0.00", []money.Installment{
		{DueDate: "2026-01-01", Amount: dec("100.00")},
		{DueDate: "2026-02-01", Amount: dec("100.00")},
	}, "150.00")

	rows, err := Allocate(acc)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Allocate() returned %d rows, want 1", len(rows))
	}
	if rows[0].Index != 1 {
		t.Errorf("unpaid index = %d, want 1", rows[0].Index)
	}
	if got := rows[0].DueDate.Format(money.DateLayout); got != "2026-02-01" {
		t.Errorf("unpaid due date = %s, want 2026-02-01", got)
	}
	if got := rows[0].Amount.StringFixed(2); got != "50.00" {
		t.Errorf("unpaid amount = %s, want 50.00", got)
	}
}

func TestAllocateSortsUnorderedSchedule(t *testing.T) {
	acc := account("300.00", "0.00", []money.Installment{
		{DueDate: "2026-03-01", Amount: dec("100.00")},
		{DueDate: "2026-01-01", Amount: dec("100.00")},
		{DueDate: "2026-02-01", Amount: dec("100.00")},
	}, "100.00")

	rows, err := Allocate(acc)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Allocate() returned %d rows, want 2", len(rows))
	}
	// the January installment absorbed the payment despite its input position
	if got := rows[0].DueDate.Format(money.DateLayout); got != "2026-02-01" {
		t.Errorf("first unpaid due date = %s, want 2026-02-01", got)
	}
	if got := rows[1].DueDate.Format(money.DateLayout); got != "2026-03-01" {
		t.Errorf("second unpaid due date = %s, want 2026-03-01", got)
	}
}

func TestAllocateConcreteScenario(t *testing.T) {
	acc := account("6000.00", "500.00", []money.Installment{
		{DueDate: "2026-08-28", Amount: dec("3000.00")},
		{DueDate: "2026-09-19", Amount: dec("3000.00")},
	}, "1500.00")

	if got := Outstanding(acc).StringFixed(2); got != "4000.00" {
		t.Fatalf("Outstanding() = %s, want 4000.00", got)
	}

	rows, err := Allocate(acc)
	if err != nil {
		t.Fatalf("Allocate() error: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Allocate() returned %d rows, want 2", len(rows))
	}
	if got := rows[0].Amount.StringFixed(2); got != "1500.00" {
		t.Errorf("overdue installment unpaid = %s, want 1500.00", got)
	}
	if got := rows[1].Amount.StringFixed(2); got != "3000.00" {
		t.Errorf("future installment unpaid = %s, want 3000.00", got)
	}
}

func TestAllocateSumMatchesOutstanding(t *testing.T) {
	accounts := []*models.FeeAccount{
		account("6000.00", "500.00", []money.Installment{
			{DueDate: "2026-01-10", Amount: dec("2000.00")},
			{DueDate: "2026-02-10", Amount: dec("2000.00")},
			{DueDate: "2026-03-10", Amount: dec("2000.00")},
		}, "1500.00", "700.00"),
		account("1000.00", "0.00", []money.Installment{
			{DueDate: "2026-01-10", Amount: dec("1000.00")},
		}),
		account("500.00", "0.00", []money.Installment{
			{DueDate: "2026-01-10", Amount: dec("500.00")},
		}, "500.00"),
	}

	for i, acc := range accounts {
		rows, err := Allocate(acc)
		if err != nil {
			t.Fatalf("account %d: Allocate() error: %v", i, err)
		}
		sum := decimal.Zero
		for _, row := range rows {
			sum = sum.Add(row.Amount)
		}
		if !sum.Equal(Outstanding(acc)) {
			t.Errorf("account %d: sum of unpaid %s != outstanding %s", i, sum, Outstanding(acc))
		}
	}
}

func TestAllocateInvalidDueDate(t *testing.T) {
	acc := account("100.00", "0.00", []money.Installment{
		{DueDate: "not-a-date", Amount: dec("100.00")},
	})
	if _, err := Allocate(acc); err == nil {
		t.Error("Allocate() accepted an invalid due date")
	}
}

func TestNextDue(t *testing.T) {
	acc := account("300.00", "0.00", []money.Installment{
		{DueDate: "2026-02-01", Amount: dec("100.00")},
		{DueDate: "2026-01-01", Amount: dec("100.00")},
		{DueDate: "2026-03-01", Amount: dec("100.00")},
	}, "100.00")

	next, err := NextDue(acc)
	if err != nil {
		t.Fatalf("NextDue() error: %v", err)
	}
	if next == nil {
		t.Fatal("NextDue() = nil, want an installment")
	}
	if got := next.DueDate.Format(money.DateLayout); got != "2026-02-01" {
		t.Errorf("NextDue() due date = %s, want 2026-02-01", got)
	}

	settled := account("100.00", "0.00", []money.Installment{
		{DueDate: "2026-01-01", Amount: dec("100.00")},
	}, "100.00")
	next, err = NextDue(settled)
	if err != nil {
		t.Fatalf("NextDue() error: %v", err)
	}
	if next != nil {
		t.Errorf("NextDue() on a settled account = %+v, want nil", next)
	}
}

func TestCheckPayment(t *testing.T) {
	acc := account("1000.00", "0.00", nil, "400.00")

	tests := []struct {
		name    string
		amount  string
		wantErr bool
	}{
		{"valid partial", "100.00", false},
		{"exactly outstanding", "600.00", false},
		{"zero", "0.00", true},
		{"negative", "-50.00", true},
		{"exceeds outstanding", "600.01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPayment(acc, dec(tt.amount))
			if (err != nil) != tt.wantErr {
				t.Errorf("CheckPayment(%s) error = %v, wantErr %v", tt.amount, err, tt.wantErr)
			}
		})
	}
}
