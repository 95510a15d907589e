package repository

import (
	"context"

	"github.com/minsu/vericlip/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VideoRepository handles video metadata persistence.
type VideoRepository struct {
	db *gorm.DB
}

// NewVideoRepository creates a new VideoRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *VideoRepository: repository instance bound to db.
func NewVideoRepository(db *gorm.DB) *VideoRepository {
	return &VideoRepository{db: db}
}

// Upsert creates or updates a video record keyed by ID.
// The incoming snapshot wins on conflict: titles and thumbnails change
// over a video's life and the most recent metadata is authoritative.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - video: video record to create or update.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *VideoRepository) Upsert(ctx context.Context, video *domain.Video) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"channel_id", "title", "category_id", "duration_seconds", "published_at", "thumbnail_url", "updated_at"}),
	}).Create(video).Error
}

// GetByID retrieves a video by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: external video ID.
// Returns:
//   - *domain.Video: video record if found.
//   - error: non-nil if lookup fails.
func (r *VideoRepository) GetByID(ctx context.Context, id string) (*domain.Video, error) {
	var video domain.Video
	if err := r.db.WithContext(ctx).First(&video, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &video, nil
}
