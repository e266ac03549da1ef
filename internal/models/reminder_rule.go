package models

import (
	"time"

	"gorm.io/gorm"
)

// ReminderRule configures when fee reminders fire for a batch, or for the
// whole institute when BatchID is nil. Batch rules shadow global ones.
type ReminderRule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID uint  `gorm:"index" json:"institute_id"`
	BatchID     *uint `gorm:"index" json:"batch_id"`

	Name               string `gorm:"type:varchar(150)" json:"name"`
	DaysBefore         int    `gorm:"default:3" json:"days_before"`
	OnDueDate          bool   `gorm:"default:true" json:"on_due_date"`
	EveryNDaysAfterDue int    `gorm:"default:3" json:"every_n_days_after_due"`
	IsActive           bool   `gorm:"default:true" json:"is_active"`

	// Relationships
	Batch *Batch `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}
