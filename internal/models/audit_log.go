package models

import (
	"time"
)

// AuditLog records who changed what, with before/after snapshots
type AuditLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	InstituteID uint  `gorm:"index" json:"institute_id"`
	ActorUserID *uint `gorm:"index" json:"actor_user_id"`

	Action   string                 `gorm:"type:varchar(100)" json:"action"`
	Entity   string                 `gorm:"type:varchar(100)" json:"entity"`
	EntityID string                 `gorm:"type:varchar(100)" json:"entity_id"`
	Before   map[string]interface{} `gorm:"serializer:json" json:"before"`
	After    map[string]interface{} `gorm:"serializer:json" json:"after"`
}
