package repository

import (
	"context"

	"github.com/minsu/vericlip/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ChannelRepository handles channel metadata persistence.
type ChannelRepository struct {
	db *gorm.DB
}

// NewChannelRepository creates a new ChannelRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ChannelRepository: repository instance bound to db.
func NewChannelRepository(db *gorm.DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// Upsert creates or updates a channel record keyed by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - channel: channel record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *ChannelRepository) Upsert(ctx context.Context, channel *domain.Channel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
	}).Create(channel).Error
}

// GetByID retrieves a channel by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: channel ID.
// Returns:
//   - *domain.Channel: channel record if found.
//   - error: non-nil if lookup fails.
func (r *ChannelRepository) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	var channel domain.Channel
	if err := r.db.WithContext(ctx).First(&channel, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &channel, nil
}
