package models

import (
	"time"

	"gorm.io/gorm"
)

// StudentStatus represents the enrollment status of a student
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "ACTIVE"
	StudentStatusDisabled StudentStatus = "DISABLED"
)

// Student represents an enrolled student
type Student struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID uint `gorm:"index" json:"institute_id"`

	FullName      string        `gorm:"type:varchar(150);index" json:"full_name"`
	Phone         string        `gorm:"type:varchar(20)" json:"phone"`
	Email         string        `gorm:"type:varchar(255)" json:"email"`
	GuardianName  string        `gorm:"type:varchar(150)" json:"guardian_name"`
	GuardianPhone string        `gorm:"type:varchar(20)" json:"guardian_phone"`
	Address       string        `gorm:"type:text" json:"address"`
	JoinDate      string        `gorm:"type:varchar(30)" json:"join_date"`
	Status        StudentStatus `gorm:"type:varchar(20);default:'ACTIVE'" json:"status"`

	// Relationships
	BatchLinks  []StudentBatch `gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE" json:"batch_links,omitempty"`
	FeeAccounts []FeeAccount   `gorm:"foreignKey:StudentID" json:"fee_accounts,omitempty"`
}
