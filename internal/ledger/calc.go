// Package ledger derives paid/due totals and installment allocation from a
// fee account snapshot. Every function here is a pure function of its
// inputs: safe to call concurrently, deterministic for identical inputs.
package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/money"
)

// Unpaid is one installment still owing after allocation
type Unpaid struct {
	Index   int             `json:"index"`
	DueDate time.Time       `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// TotalDue is the fee net of discount, floored at zero
func TotalDue(account *models.FeeAccount) decimal.Decimal {
	return money.ClampZero(account.TotalFee.Sub(account.Discount))
}

// PaidAmount sums all recorded payments on the account
func PaidAmount(account *models.FeeAccount) decimal.Decimal {
	total := decimal.Zero
	for _, payment := range account.Payments {
		total = total.Add(payment.Amount)
	}
	return total
}

// Outstanding is the amount still owed on the whole account, never negative
func Outstanding(account *models.FeeAccount) decimal.Decimal {
	return money.ClampZero(TotalDue(account).Sub(PaidAmount(account)))
}

// Allocate walks the due-date-sorted schedule applying the aggregate paid
// amount as a waterfall: each installment consumes from the pool before the
// next one sees it, so payments always satisfy the oldest unpaid
// installment first regardless of what a payer intended them for.
// Returns the installments still owing, tagged with their position in the
// sorted schedule.
func Allocate(account *models.FeeAccount) ([]Unpaid, error) {
	if len(account.DueSchedule) == 0 {
		return nil, nil
	}

	schedule := make([]money.Installment, len(account.DueSchedule))
	copy(schedule, account.DueSchedule)
	money.SortSchedule(schedule)

	pool := PaidAmount(account)
	var rows []Unpaid
	for index, installment := range schedule {
		dueDate, err := installment.Date()
		if err != nil {
			return nil, err
		}
		consumed := decimal.Min(pool, installment.Amount)
		unpaid := installment.Amount.Sub(consumed)
		pool = pool.Sub(consumed)
		if unpaid.IsPositive() {
			rows = append(rows, Unpaid{Index: index, DueDate: dueDate, Amount: unpaid})
		}
	}
	return rows, nil
}

// NextDue returns the earliest installment still owing, or nil when the
// schedule is fully covered
func NextDue(account *models.FeeAccount) (*Unpaid, error) {
	rows, err := Allocate(account)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	next := rows[0]
	return &next, nil
}

// CheckPayment validates a prospective payment against the account before
// it is inserted. Amounts are never clamped; an overpayment is rejected
// with the current outstanding figure in the error.
func CheckPayment(account *models.FeeAccount, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("payment amount must be positive, got %s", amount.StringFixed(2))
	}
	outstanding := Outstanding(account)
	if amount.GreaterThan(outstanding) {
		return fmt.Errorf("payment %s exceeds due amount %s", amount.StringFixed(2), outstanding.StringFixed(2))
	}
	return nil
}
