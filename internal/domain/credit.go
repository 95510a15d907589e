package domain

import "time"

// UserCredit tracks a user's recheck credit balance.
// The pipeline decrements it by exactly one per completed recheck;
// grants come from administrative tooling only.
type UserCredit struct {
	UserID    string    `gorm:"type:text;primaryKey" json:"user_id"`
	Balance   int       `gorm:"not null;default:0" json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for UserCredit.
func (UserCredit) TableName() string {
	return "user_credits"
}
