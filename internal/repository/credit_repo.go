package repository

import (
	"context"
	"errors"
	"time"

	"github.com/minsu/vericlip/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditRepository handles recheck credit balances. The decrement that
// accompanies a completed recheck lives in AnalysisRepository.SaveResult
// so it shares the pipeline transaction; this repository covers the
// pre-check read and administrative grants.
type CreditRepository struct {
	db *gorm.DB
}

// NewCreditRepository creates a new CreditRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *CreditRepository: repository instance bound to db.
func NewCreditRepository(db *gorm.DB) *CreditRepository {
	return &CreditRepository{db: db}
}

// GetBalance returns the credit balance for a user.
// A user with no row has a balance of zero.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: requester identity.
// Returns:
//   - int: current balance.
//   - error: non-nil if the lookup fails.
func (r *CreditRepository) GetBalance(ctx context.Context, userID string) (int, error) {
	var credit domain.UserCredit
	if err := r.db.WithContext(ctx).First(&credit, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return credit.Balance, nil
}

// SetBalance sets a user's balance to an absolute value (administrative grant).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: user to grant to.
//   - balance: new balance.
// Returns:
//   - error: non-nil if the upsert fails.
func (r *CreditRepository) SetBalance(ctx context.Context, userID string, balance int) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"balance", "updated_at"}),
	}).Create(&domain.UserCredit{
		UserID:    userID,
		Balance:   balance,
		UpdatedAt: time.Now(),
	}).Error
}
