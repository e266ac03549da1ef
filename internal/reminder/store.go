package reminder

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"institute_app_echo/internal/models"
)

// GormStore adapts a *gorm.DB (typically a transaction handle) to the
// Store interface
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) FeeReminderKeys(ctx context.Context) (map[string]struct{}, error) {
	var keys []string
	err := s.db.WithContext(ctx).
		Model(&models.Notification{}).
		Where("type = ? AND dedup_key IS NOT NULL", models.NotificationTypeFeeReminder).
		Pluck("dedup_key", &keys).Error
	if err != nil {
		return nil, err
	}

	set := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		set[key] = struct{}{}
	}
	return set, nil
}

func (s *GormStore) FeeAccounts(ctx context.Context) ([]models.FeeAccount, error) {
	var accounts []models.FeeAccount
	err := s.db.WithContext(ctx).
		Preload("Student").
		Preload("Batch").
		Preload("Payments").
		Find(&accounts).Error
	return accounts, err
}

func (s *GormStore) ActiveRules(ctx context.Context, instituteID uint, batchID *uint) ([]models.ReminderRule, error) {
	query := s.db.WithContext(ctx).
		Where("institute_id = ? AND is_active = ?", instituteID, true)
	if batchID != nil {
		query = query.Where("batch_id = ?", *batchID)
	} else {
		query = query.Where("batch_id IS NULL")
	}

	var rules []models.ReminderRule
	err := query.Find(&rules).Error
	return rules, err
}

func (s *GormStore) CreateNotification(ctx context.Context, n *models.Notification) (bool, error) {
	err := s.db.WithContext(ctx).Create(n).Error
	if err != nil {
		// another run claimed this key first; not an error
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
