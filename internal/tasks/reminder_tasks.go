package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"institute_app_echo/internal/models"
	"institute_app_echo/internal/reminder"
	"institute_app_echo/internal/services"
)

// reminderRunLockTTL bounds how long a crashed run can block the next one
const reminderRunLockTTL = 10 * time.Minute

// FeeReminderTaskDef generates fee reminder notifications for the current
// date. The run is idempotent, so the recurring schedule and manual
// triggers can overlap without double-emitting.
type FeeReminderTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *FeeReminderTaskDef) TaskID() string {
	return "generate_fee_reminders"
}

// EnsureScheduled seeds the standing recurring run (every 30 minutes) if
// no active one exists yet
func (t *FeeReminderTaskDef) EnsureScheduled(db *gorm.DB) error {
	var count int64
	err := db.Model(&models.ScheduledTask{}).
		Where("task_name = ? AND status = ?", t.TaskID(), models.ScheduledTaskStatusActive).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	interval := "FREQ=MINUTELY;INTERVAL=30"
	task, err := BuildScheduledTask(t.TaskID(), map[string]interface{}{}, time.Now(), &interval, models.ScheduledTaskTypeRecurring, 3)
	if err != nil {
		return err
	}
	log.Printf("Seeding recurring task %s", t.TaskID())
	return db.Create(task).Error
}

// HandleExecution runs the reminder generator inside one transaction so a
// failure discards the whole notification batch. A redis lock (when redis
// is configured) keeps concurrent runs from racing; the dedup keys make
// even an un-locked race safe.
func (t *FeeReminderTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	if Cache != nil {
		acquired, err := Cache.AcquireLock(ctx, "locks:"+t.TaskID(), reminderRunLockTTL)
		if err != nil {
			log.Printf("Reminder run lock check failed, continuing unlocked: %v", err)
		} else if !acquired {
			log.Println("Reminder run already in progress, skipping")
			return map[string]interface{}{"status": "skipped", "reason": "already running"}, nil
		} else {
			defer func() {
				if err := Cache.ReleaseLock(context.Background(), "locks:"+t.TaskID()); err != nil {
					log.Printf("Failed to release reminder run lock: %v", err)
				}
			}()
		}
	}

	created, err := GenerateFeeReminders(ctx, db, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	return map[string]interface{}{
		"status":                "success",
		"created_notifications": created,
	}, nil
}

// GenerateFeeReminders runs one reminder generation pass for runDate in a
// single transaction and returns the created-notification count. Shared by
// the scheduled task and the manual API trigger.
func GenerateFeeReminders(ctx context.Context, db *gorm.DB, runDate time.Time) (int, error) {
	var mailer reminder.Mailer
	if emailService := services.NewEmailService(); emailService.Configured() {
		mailer = emailService
	}
	var messenger reminder.Messenger
	if wahaService := services.NewWahaService(); wahaService.Configured() {
		messenger = wahaService
	}

	created := 0
	err := db.Transaction(func(tx *gorm.DB) error {
		gen := reminder.NewGenerator(reminder.NewGormStore(tx), mailer, messenger)
		var runErr error
		created, runErr = gen.Run(ctx, runDate)
		return runErr
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

// FeeReminderTask is the singleton instance of FeeReminderTaskDef
var FeeReminderTask = &FeeReminderTaskDef{}
