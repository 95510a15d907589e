package repository

import (
	"context"
	"errors"
	"time"

	"github.com/minsu/vericlip/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SettingRepository handles operator-tunable settings.
type SettingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new SettingRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SettingRepository: repository instance bound to db.
func NewSettingRepository(db *gorm.DB) *SettingRepository {
	return &SettingRepository{db: db}
}

// Get retrieves a setting value by key.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: setting key.
// Returns:
//   - string: stored value; empty when the key is absent.
//   - bool: true if the key exists.
//   - error: non-nil if the lookup fails.
func (r *SettingRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var setting domain.Setting
	if err := r.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return setting.Value, true, nil
}

// Set writes a setting value, creating the key if needed.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - key: setting key.
//   - value: value to store.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *SettingRepository) Set(ctx context.Context, key, value string) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&domain.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}).Error
}
