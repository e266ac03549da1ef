package models

import (
	"time"

	"gorm.io/gorm"
)

// Institute is the tenant root; every other record carries an InstituteID
type Institute struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Name         string `gorm:"type:varchar(255)" json:"name"`
	ContactEmail string `gorm:"type:varchar(255)" json:"contact_email"`

	// Relationships
	Users    []User    `gorm:"foreignKey:InstituteID" json:"users,omitempty"`
	Students []Student `gorm:"foreignKey:InstituteID" json:"students,omitempty"`
	Batches  []Batch   `gorm:"foreignKey:InstituteID" json:"batches,omitempty"`
}
