package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType represents the kind of notification
type NotificationType string

const (
	NotificationTypeFeeReminder  NotificationType = "FEE_REMINDER"
	NotificationTypeAnnouncement NotificationType = "ANNOUNCEMENT"
	NotificationTypeSystem       NotificationType = "SYSTEM"
)

// Notification is an in-app message for a student, a batch, or the whole
// institute when both targets are nil. Fee reminders carry a DedupKey so
// a concurrent duplicate insert fails at the database instead of
// silently doubling up.
type Notification struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID uint  `gorm:"index" json:"institute_id"`
	StudentID   *uint `gorm:"index" json:"student_id"`
	BatchID     *uint `gorm:"index" json:"batch_id"`

	Type     NotificationType       `gorm:"type:varchar(30);index" json:"type"`
	Message  string                 `gorm:"type:text" json:"message"`
	Meta     map[string]interface{} `gorm:"serializer:json" json:"meta"`
	DedupKey *string                `gorm:"type:varchar(150);uniqueIndex" json:"-"`
	ReadAt   *time.Time             `json:"read_at"`

	// Relationships
	Student *Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
