package audit

import (
	"gorm.io/gorm"

	"institute_app_echo/internal/models"
)

// Log writes an audit row inside the caller's transaction
func Log(db *gorm.DB, instituteID uint, actorUserID *uint, action, entity, entityID string, before, after map[string]interface{}) error {
	return db.Create(&models.AuditLog{
		InstituteID: instituteID,
		ActorUserID: actorUserID,
		Action:      action,
		Entity:      entity,
		EntityID:    entityID,
		Before:      before,
		After:       after,
	}).Error
}
