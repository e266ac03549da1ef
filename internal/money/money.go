package money

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for installment due dates
const DateLayout = "2006-01-02"

// Installment is one scheduled (due date, amount) slice of a total fee
type Installment struct {
	DueDate string          `json:"due_date"`
	Amount  decimal.Decimal `json:"amount"`
}

// Date parses the installment due date
func (i Installment) Date() (time.Time, error) {
	t, err := time.Parse(DateLayout, i.DueDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: %w", i.DueDate, err)
	}
	return t, nil
}

// SortSchedule sorts installments by due date ascending, in place.
// ISO dates compare correctly as strings; the sort is stable so
// installments sharing a due date keep their input order.
func SortSchedule(schedule []Installment) {
	sort.SliceStable(schedule, func(a, b int) bool {
		return schedule[a].DueDate < schedule[b].DueDate
	})
}

// ClampZero floors negative amounts at zero
func ClampZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Format renders an amount with 2-digit currency precision, e.g. "INR 1500.00"
func Format(d decimal.Decimal) string {
	return "INR " + d.StringFixed(2)
}
