package domain

import "time"

// Channel represents the uploader channel of an analyzed video.
type Channel struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	Title     string    `gorm:"type:text" json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Channel.
func (Channel) TableName() string {
	return "channels"
}
