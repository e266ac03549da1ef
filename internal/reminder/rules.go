package reminder

import (
	"institute_app_echo/internal/models"
)

// Trigger identifies which phase of a rule fired for an installment
type Trigger string

const (
	TriggerBeforeDue Trigger = "before_due"
	TriggerOnDue     Trigger = "on_due"
	TriggerAfterDue  Trigger = "after_due"
)

// DefaultRule is the built-in fallback when an institute has configured no
// rules at all. It is a plain in-memory value, never persisted.
func DefaultRule(instituteID uint) models.ReminderRule {
	return models.ReminderRule{
		InstituteID:        instituteID,
		Name:               "Default Rule",
		DaysBefore:         3,
		OnDueDate:          true,
		EveryNDaysAfterDue: 3,
		IsActive:           true,
	}
}

// TriggerFor decides whether a rule fires for an installment given the
// signed distance deltaDays = due date - run date in days.
func TriggerFor(deltaDays int, rule models.ReminderRule) (Trigger, bool) {
	if deltaDays == rule.DaysBefore {
		return TriggerBeforeDue, true
	}
	if deltaDays == 0 && rule.OnDueDate {
		return TriggerOnDue, true
	}
	if deltaDays < 0 {
		every := rule.EveryNDaysAfterDue
		if every < 1 {
			every = 1
		}
		if (-deltaDays)%every == 0 {
			return TriggerAfterDue, true
		}
	}
	return "", false
}
