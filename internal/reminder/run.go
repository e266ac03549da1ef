// Package reminder turns outstanding fee accounts into FEE_REMINDER
// notifications. A run is idempotent: each emission is keyed by
// (student, fee account, due date, run date), so repeating a run for the
// same date converges to the same notification set.
package reminder

import (
	"context"
	"fmt"
	"log"
	"time"

	"institute_app_echo/internal/ledger"
	"institute_app_echo/internal/models"
	"institute_app_echo/internal/money"
)

// Store is the persistence surface a generation run needs. The gorm
// implementation runs inside the caller's transaction so a failed run
// discards the whole notification batch.
type Store interface {
	// FeeReminderKeys returns the dedup keys of every FEE_REMINDER
	// notification already persisted, across all institutes.
	FeeReminderKeys(ctx context.Context) (map[string]struct{}, error)
	// FeeAccounts returns all fee accounts with student, batch and
	// payments loaded.
	FeeAccounts(ctx context.Context) ([]models.FeeAccount, error)
	// ActiveRules returns active rules for a batch, or institute-global
	// rules when batchID is nil.
	ActiveRules(ctx context.Context, instituteID uint, batchID *uint) ([]models.ReminderRule, error)
	// CreateNotification persists a notification. A duplicate dedup key is
	// benign: created=false, no error.
	CreateNotification(ctx context.Context, n *models.Notification) (created bool, err error)
}

// Mailer delivers a reminder over email, best effort
type Mailer interface {
	SendEmail(to []string, subject, body string) error
}

// Messenger delivers a reminder over WhatsApp, best effort
type Messenger interface {
	SendMessage(chatID, text string) error
}

// Generator produces fee reminder notifications for a run date
type Generator struct {
	store     Store
	mailer    Mailer    // optional
	messenger Messenger // optional
}

func NewGenerator(store Store, mailer Mailer, messenger Messenger) *Generator {
	return &Generator{store: store, mailer: mailer, messenger: messenger}
}

// DedupKey builds the idempotence key for one reminder occurrence
func DedupKey(studentID, feeAccountID uint, dueDate, runDate string) string {
	return fmt.Sprintf("%d:%d:%s:%s", studentID, feeAccountID, dueDate, runDate)
}

// Run generates reminders for runDate and returns how many notifications
// were created. Delivery failures never fail the run; persistence errors
// abort it so the caller can roll back the batch.
func (g *Generator) Run(ctx context.Context, runDate time.Time) (int, error) {
	runDay := truncateToDay(runDate)
	runDayStr := runDay.Format(money.DateLayout)

	seen, err := g.store.FeeReminderKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load existing reminder keys: %w", err)
	}

	accounts, err := g.store.FeeAccounts(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to load fee accounts: %w", err)
	}

	created := 0
	for i := range accounts {
		account := &accounts[i]

		outstanding := ledger.Outstanding(account)
		if !outstanding.IsPositive() {
			continue
		}

		rules, err := g.resolveRules(ctx, account.InstituteID, account.BatchID)
		if err != nil {
			return created, err
		}

		unpaidRows, err := ledger.Allocate(account)
		if err != nil {
			return created, fmt.Errorf("fee account %d: %w", account.ID, err)
		}

		for _, row := range unpaidRows {
			delta := daysBetween(runDay, truncateToDay(row.DueDate))
			dueDateStr := row.DueDate.Format(money.DateLayout)

			for _, rule := range rules {
				trigger, ok := TriggerFor(delta, rule)
				if !ok {
					continue
				}

				key := DedupKey(account.StudentID, account.ID, dueDateStr, runDayStr)
				if _, dup := seen[key]; dup {
					continue
				}

				message := fmt.Sprintf(
					"Fee reminder: %s, installment %d for batch %s is due %s. "+
						"Pending installment amount: %s. Total pending: %s.",
					account.Student.FullName, row.Index+1, account.Batch.Name,
					dueDateStr, money.Format(row.Amount), money.Format(outstanding),
				)
				template := WhatsappTemplate(
					account.Student.FullName, account.Batch.Name,
					money.Format(row.Amount), dueDateStr,
				)

				dedupKey := key
				notification := &models.Notification{
					InstituteID: account.InstituteID,
					StudentID:   &account.StudentID,
					BatchID:     &account.BatchID,
					Type:        models.NotificationTypeFeeReminder,
					Message:     message,
					DedupKey:    &dedupKey,
					Meta: map[string]interface{}{
						"student_fee_id":    account.ID,
						"batch_id":          account.BatchID,
						"due_date":          dueDateStr,
						"trigger":           string(trigger),
						"trigger_day":       runDayStr,
						"whatsapp_template": template,
					},
				}

				inserted, err := g.store.CreateNotification(ctx, notification)
				if err != nil {
					return created, fmt.Errorf("failed to create notification: %w", err)
				}
				seen[key] = struct{}{}
				if !inserted {
					// lost a race against a concurrent run; their record stands
					continue
				}
				created++

				g.deliver(account, message, template)
			}
		}
	}

	return created, nil
}

// deliver fires outbound channels without ever surfacing an error
func (g *Generator) deliver(account *models.FeeAccount, message, template string) {
	if g.mailer != nil && account.Student.Email != "" {
		if err := g.mailer.SendEmail([]string{account.Student.Email}, "Fee Reminder", message); err != nil {
			log.Printf("Failed to email fee reminder to %s: %v", account.Student.Email, err)
		}
	}
	if g.messenger != nil && account.Student.Phone != "" {
		if err := g.messenger.SendMessage(account.Student.Phone, template); err != nil {
			log.Printf("Failed to whatsapp fee reminder to %s: %v", account.Student.Phone, err)
		}
	}
}

// resolveRules applies the three-tier fallback: batch rules shadow
// institute-global rules, which shadow the built-in default
func (g *Generator) resolveRules(ctx context.Context, instituteID, batchID uint) ([]models.ReminderRule, error) {
	batchRules, err := g.store.ActiveRules(ctx, instituteID, &batchID)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch rules: %w", err)
	}
	if len(batchRules) > 0 {
		return batchRules, nil
	}

	globalRules, err := g.store.ActiveRules(ctx, instituteID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load institute rules: %w", err)
	}
	if len(globalRules) > 0 {
		return globalRules, nil
	}

	return []models.ReminderRule{DefaultRule(instituteID)}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysBetween returns due - run in whole days, signed
func daysBetween(run, due time.Time) int {
	return int(due.Sub(run).Hours() / 24)
}
