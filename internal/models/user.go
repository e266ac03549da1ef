package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole represents the role of a user within an institute
type UserRole string

const (
	UserRoleAdmin   UserRole = "ADMIN"
	UserRoleTeacher UserRole = "TEACHER"
	UserRoleStudent UserRole = "STUDENT"
)

// User represents a login account (staff or student portal access)
type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	InstituteID uint `gorm:"index" json:"institute_id"`

	FullName     string   `gorm:"type:varchar(150)" json:"full_name"`
	Email        string   `gorm:"type:varchar(255);uniqueIndex" json:"email"`
	Phone        string   `gorm:"type:varchar(20)" json:"phone"`
	PasswordHash string   `gorm:"type:varchar(255)" json:"-"`
	Role         UserRole `gorm:"type:varchar(20)" json:"role"`
	IsActive     bool     `gorm:"default:true" json:"is_active"`
	StudentID    *uint    `gorm:"uniqueIndex" json:"student_id"`

	// Relationships
	Institute Institute `gorm:"foreignKey:InstituteID" json:"institute,omitempty"`
	Student   *Student  `gorm:"foreignKey:StudentID" json:"student,omitempty"`
}
