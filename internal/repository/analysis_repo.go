package repository

import (
	"context"
	"errors"
	"time"

	"github.com/minsu/vericlip/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrInsufficientCredit is returned when a recheck's credit decrement
// finds the balance already exhausted at commit time.
var ErrInsufficientCredit = errors.New("insufficient recheck credit")

// AnalysisRepository handles analysis record persistence. SaveResult is
// the write side of the pipeline: every durable effect of one run goes
// through a single transaction here.
type AnalysisRepository struct {
	db *gorm.DB
}

// NewAnalysisRepository creates a new AnalysisRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *AnalysisRepository: repository instance bound to db.
func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// SaveResultParams carries everything one pipeline run persists.
type SaveResultParams struct {
	Video   *domain.Video
	Channel *domain.Channel // nil when the caller supplied no channel

	// Analysis is the prepared record to insert as latest. Nil when the
	// run is a suppressed recheck, in which case only the credit charge
	// happens.
	Analysis *domain.Analysis

	// ChargeCredit decrements CreditUserID's balance by one inside the
	// same transaction. The balance guard runs at commit time so a race
	// with another recheck cannot drive the balance negative.
	ChargeCredit bool
	CreditUserID string
}

// SaveResult applies all writes for one pipeline run atomically:
// video/channel upsert, the flip-old-latest / insert-new-latest
// sequence, and the optional recheck credit decrement. Any failure
// rolls the whole transaction back.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - params: writes to apply.
// Returns:
//   - error: ErrInsufficientCredit if the balance guard fails, non-nil on any write failure.
func (r *AnalysisRepository) SaveResult(ctx context.Context, params *SaveResultParams) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if params.Video != nil {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"channel_id", "title", "category_id", "duration_seconds", "published_at", "thumbnail_url", "updated_at"}),
			}).Create(params.Video).Error; err != nil {
				return err
			}
		}

		if params.Channel != nil && params.Channel.ID != "" {
			if err := tx.Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"title", "updated_at"}),
			}).Create(params.Channel).Error; err != nil {
				return err
			}
		}

		if params.Analysis != nil {
			// Flip before insert so the one-latest-per-video invariant
			// holds at every point another transaction can observe.
			if err := tx.Model(&domain.Analysis{}).
				Where("video_id = ? AND is_latest = ?", params.Analysis.VideoID, true).
				Update("is_latest", false).Error; err != nil {
				return err
			}

			params.Analysis.IsLatest = true
			if err := tx.Create(params.Analysis).Error; err != nil {
				return err
			}
		}

		if params.ChargeCredit {
			res := tx.Model(&domain.UserCredit{}).
				Where("user_id = ? AND balance >= 1", params.CreditUserID).
				Updates(map[string]interface{}{
					"balance":    gorm.Expr("balance - 1"),
					"updated_at": time.Now(),
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrInsufficientCredit
			}
		}

		return nil
	})
}

// GetLatestByVideoID retrieves the latest analysis for a video.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: external video ID.
// Returns:
//   - *domain.Analysis: latest record if one exists.
//   - error: gorm.ErrRecordNotFound when the video has never been analyzed.
func (r *AnalysisRepository) GetLatestByVideoID(ctx context.Context, videoID string) (*domain.Analysis, error) {
	var analysis domain.Analysis
	if err := r.db.WithContext(ctx).
		Where("video_id = ? AND is_latest = ?", videoID, true).
		First(&analysis).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

// GetByID retrieves an analysis by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: analysis ID.
// Returns:
//   - *domain.Analysis: record if found.
//   - error: non-nil if lookup fails.
func (r *AnalysisRepository) GetByID(ctx context.Context, id string) (*domain.Analysis, error) {
	var analysis domain.Analysis
	if err := r.db.WithContext(ctx).First(&analysis, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &analysis, nil
}

// BumpRequestCount increments the request counter on a cache hit.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: analysis ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *AnalysisRepository) BumpRequestCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Analysis{}).
		Where("id = ?", id).
		UpdateColumn("request_count", gorm.Expr("request_count + 1")).Error
}

// BumpViewCount increments the view counter when a record is read.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: analysis ID.
// Returns:
//   - error: non-nil if the update fails.
func (r *AnalysisRepository) BumpViewCount(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&domain.Analysis{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}

// ListByVideoID retrieves the full analysis history for a video, newest first.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - videoID: external video ID.
//   - limit: maximum number of records to return.
// Returns:
//   - []domain.Analysis: matching records.
//   - error: non-nil if the query fails.
func (r *AnalysisRepository) ListByVideoID(ctx context.Context, videoID string, limit int) ([]domain.Analysis, error) {
	var analyses []domain.Analysis
	if err := r.db.WithContext(ctx).
		Where("video_id = ?", videoID).
		Order("created_at DESC").
		Limit(limit).
		Find(&analyses).Error; err != nil {
		return nil, err
	}
	return analyses, nil
}
