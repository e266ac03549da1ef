package models

import (
	"time"

	"gorm.io/gorm"
)

// Batch represents a class/course group students enroll into
type Batch struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID uint `gorm:"index" json:"institute_id"`

	Name      string `gorm:"type:varchar(200);index" json:"name"`
	Course    string `gorm:"type:varchar(200)" json:"course"`
	Schedule  string `gorm:"type:varchar(255)" json:"schedule"`
	TeacherID *uint  `json:"teacher_id"`
	StartDate string `gorm:"type:varchar(30)" json:"start_date"`
	EndDate   string `gorm:"type:varchar(30)" json:"end_date"`

	// Relationships
	Teacher      *User          `gorm:"foreignKey:TeacherID" json:"teacher,omitempty"`
	StudentLinks []StudentBatch `gorm:"foreignKey:BatchID;constraint:OnDelete:CASCADE" json:"student_links,omitempty"`
	FeeAccounts  []FeeAccount   `gorm:"foreignKey:BatchID" json:"fee_accounts,omitempty"`
}

// StudentBatch links a student to a batch, unique per pair
type StudentBatch struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InstituteID uint `gorm:"index" json:"institute_id"`
	StudentID   uint `gorm:"uniqueIndex:idx_student_batch" json:"student_id"`
	BatchID     uint `gorm:"uniqueIndex:idx_student_batch" json:"batch_id"`

	// Relationships
	Student Student `gorm:"foreignKey:StudentID" json:"student,omitempty"`
	Batch   Batch   `gorm:"foreignKey:BatchID" json:"batch,omitempty"`
}
