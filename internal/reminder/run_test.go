package reminder

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/money"
)

type fakeStore struct {
	accounts    []models.FeeAccount
	batchRules  map[uint][]models.ReminderRule
	globalRules map[uint][]models.ReminderRule
	keys        map[string]struct{}
	created     []models.Notification
}

func newFakeStore(accounts ...models.FeeAccount) *fakeStore {
	return &fakeStore{
		accounts:    accounts,
		batchRules:  make(map[uint][]models.ReminderRule),
		globalRules: make(map[uint][]models.ReminderRule),
		keys:        make(map[string]struct{}),
	}
}

func (s *fakeStore) FeeReminderKeys(ctx context.Context) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(s.keys))
	for k := range s.keys {
		out[k] = struct{}{}
	}
	return out, nil
}

func (s *fakeStore) FeeAccounts(ctx context.Context) ([]models.FeeAccount, error) {
	return s.accounts, nil
}

func (s *fakeStore) ActiveRules(ctx context.Context, instituteID uint, batchID *uint) ([]models.ReminderRule, error) {
	if batchID != nil {
		return s.batchRules[*batchID], nil
	}
	return s.globalRules[instituteID], nil
}

func (s *fakeStore) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	if n.DedupKey != nil {
		if _, dup := s.keys[*n.DedupKey]; dup {
			return false, nil
		}
		s.keys[*n.DedupKey] = struct{}{}
	}
	s.created = append(s.created, *n)
	return true, nil
}

type failingMailer struct{ calls int }

func (m *failingMailer) SendEmail(to []string, subject, body string) error {
	m.calls++
	return errors.New("smtp unreachable")
}

type failingMessenger struct{ calls int }

func (m *failingMessenger) SendMessage(chatID, text string) error {
	m.calls++
	return errors.New("waha unreachable")
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func testAccount(schedule []money.Installment, payments ...string) models.FeeAccount {
	total := decimal.Zero
	for _, inst := range schedule {
		total = total.Add(inst.Amount)
	}
	acc := models.FeeAccount{
		ID:          12,
		InstituteID: 1,
		StudentID:   5,
		BatchID:     9,
		TotalFee:    total,
		DueSchedule: schedule,
		Student: models.Student{
			FullName: "Asha Verma",
			Email:    "asha@example.com",
			Phone:    "9812345678",
		},
		Batch: models.Batch{Name: "Physics Morning"},
	}
	for _, p := range payments {
		acc.Payments = append(acc.Payments, models.Payment{Amount: dec(p)})
	}
	return acc
}

var runDate = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func TestRunFiresOnDueDate(t *testing.T) {
	store := newFakeStore(testAccount([]money.Installment{
		{DueDate: "2026-08-30", Amount: dec("3000.00")},
	}))

	created, err := NewGenerator(store, nil, nil).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 1 {
		t.Fatalf("Run() created %d notifications, want 1", created)
	}

	n := store.created[0]
	if n.Type != models.NotificationTypeFeeReminder {
		t.Errorf("notification type = %s, want FEE_REMINDER", n.Type)
	}
	if n.StudentID == nil || *n.StudentID != 5 {
		t.Errorf("notification student = %v, want 5", n.StudentID)
	}
	if n.Meta["trigger"] != string(TriggerOnDue) {
		t.Errorf("trigger = %v, want on_due", n.Meta["trigger"])
	}
	if n.Meta["due_date"] != "2026-08-30" {
		t.Errorf("due_date = %v, want 2026-08-30", n.Meta["due_date"])
	}
	if !strings.Contains(n.Message, "Asha Verma") || !strings.Contains(n.Message, "Physics Morning") {
		t.Errorf("message missing student or batch name: %q", n.Message)
	}
	if !strings.Contains(n.Message, "INR 3000.00") {
		t.Errorf("message missing formatted amount: %q", n.Message)
	}

	template, _ := n.Meta["whatsapp_template"].(string)
	if !strings.Contains(template, "fee reminder") || !strings.Contains(template, "2026-08-30") {
		t.Errorf("unexpected whatsapp template: %q", template)
	}
}

func TestRunIsIdempotent(t *testing.T) {
	store := newFakeStore(testAccount([]money.Installment{
		{DueDate: "2026-08-30", Amount: dec("3000.00")},
	}))
	gen := NewGenerator(store, nil, nil)

	first, err := gen.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("first Run() error: %v", err)
	}
	if first != 1 {
		t.Fatalf("first Run() created %d, want 1", first)
	}

	second, err := gen.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("second Run() error: %v", err)
	}
	if second != 0 {
		t.Errorf("second Run() created %d, want 0", second)
	}
	if len(store.created) != 1 {
		t.Errorf("store holds %d notifications, want 1", len(store.created))
	}
}

func TestRunSkipsSettledAccounts(t *testing.T) {
	store := newFakeStore(testAccount([]money.Installment{
		{DueDate: "2026-08-30", Amount: dec("3000.00")},
	}, "3000.00"))

	created, err := NewGenerator(store, nil, nil).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 0 {
		t.Errorf("Run() created %d notifications for a settled account, want 0", created)
	}
}

func TestBatchRuleShadowsGlobal(t *testing.T) {
	// batch rule wants 5 days notice, global wants 3; the installment is
	// exactly 3 days out, so nothing may fire for this batch
	account := testAccount([]money.Installment{
		{DueDate: "2026-09-02", Amount: dec("3000.00")},
	})
	store := newFakeStore(account)
	store.batchRules[9] = []models.ReminderRule{
		{InstituteID: 1, DaysBefore: 5, OnDueDate: true, EveryNDaysAfterDue: 3, IsActive: true},
	}
	store.globalRules[1] = []models.ReminderRule{
		{InstituteID: 1, DaysBefore: 3, OnDueDate: true, EveryNDaysAfterDue: 3, IsActive: true},
	}

	created, err := NewGenerator(store, nil, nil).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 0 {
		t.Errorf("Run() created %d notifications, want 0 (global rule must be shadowed)", created)
	}

	// five days out the batch rule fires
	account.DueSchedule = []money.Installment{
		{DueDate: "2026-09-04", Amount: dec("3000.00")},
	}
	account.TotalFee = dec("3000.00")
	store.accounts = []models.FeeAccount{account}

	created, err = NewGenerator(store, nil, nil).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 1 {
		t.Errorf("Run() created %d notifications, want 1", created)
	}
}

func TestDefaultRuleWhenNoneConfigured(t *testing.T) {
	// due in 3 days matches the built-in default's days_before
	store := newFakeStore(testAccount([]money.Installment{
		{DueDate: "2026-09-02", Amount: dec("3000.00")},
	}))

	created, err := NewGenerator(store, nil, nil).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 1 {
		t.Fatalf("Run() created %d notifications, want 1", created)
	}
	if store.created[0].Meta["trigger"] != string(TriggerBeforeDue) {
		t.Errorf("trigger = %v, want before_due", store.created[0].Meta["trigger"])
	}
}

func TestOneEmissionPerInstallmentPerDay(t *testing.T) {
	// two rules both match the same installment today; the dedup key
	// ignores which rule fired, so only the first emission survives
	account := testAccount([]money.Installment{
		{DueDate: "2026-08-30", Amount: dec("3000.00")},
	})
	store := newFakeStore(account)
	store.batchRules[9] = []models.ReminderRule{
		{InstituteID: 1, DaysBefore: 3, OnDueDate: true, EveryNDaysAfterDue: 3, IsActive: true},
		{InstituteID: 1, DaysBefore: 7, OnDueDate: true, EveryNDaysAfterDue: 1, IsActive: true},
	}

	created, err := NewGenerator(store, nil, nil).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 1 {
		t.Errorf("Run() created %d notifications, want 1", created)
	}
}

func TestDeliveryFailureDoesNotAbortRun(t *testing.T) {
	store := newFakeStore(testAccount([]money.Installment{
		{DueDate: "2026-08-30", Amount: dec("3000.00")},
	}))
	mailer := &failingMailer{}
	messenger := &failingMessenger{}

	created, err := NewGenerator(store, mailer, messenger).Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	if created != 1 {
		t.Errorf("Run() created %d notifications, want 1", created)
	}
	if mailer.calls != 1 || messenger.calls != 1 {
		t.Errorf("delivery attempts = %d email, %d whatsapp; want 1 each", mailer.calls, messenger.calls)
	}
}

func TestOverdueRepeatCadence(t *testing.T) {
	// default rule repeats every 3 days after due
	tests := []struct {
		dueDate string
		want    int
	}{
		{"2026-08-27", 1}, // 3 days overdue
		{"2026-08-28", 0}, // 2 days overdue
		{"2026-08-24", 1}, // 6 days overdue
	}

	for _, tt := range tests {
		store := newFakeStore(testAccount([]money.Installment{
			{DueDate: tt.dueDate, Amount: dec("3000.00")},
		}))
		created, err := NewGenerator(store, nil, nil).Run(context.Background(), runDate)
		if err != nil {
			t.Fatalf("Run() error for due %s: %v", tt.dueDate, err)
		}
		if created != tt.want {
			t.Errorf("due %s: created %d notifications, want %d", tt.dueDate, created, tt.want)
		}
	}
}
