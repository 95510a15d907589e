package domain

import "time"

// Video represents the durable record of an analyzed video.
// Metadata is upserted on every pipeline run; the most recent snapshot wins.
type Video struct {
	ID              string    `gorm:"type:text;primaryKey" json:"id"`
	ChannelID       string    `gorm:"type:text;index:idx_videos_channel" json:"channel_id"`
	Title           string    `gorm:"type:text;not null" json:"title"`
	CategoryID      string    `gorm:"type:text;index:idx_videos_category" json:"category_id"`
	DurationSeconds int       `json:"duration_seconds"`
	PublishedAt     time.Time `json:"published_at"`
	ThumbnailURL    string    `gorm:"type:text" json:"thumbnail_url"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// TableName returns the database table name for Video.
func (Video) TableName() string {
	return "videos"
}

// VideoRef is the immutable per-request snapshot of video metadata
// supplied by the caller. It is never mutated by the pipeline.
type VideoRef struct {
	ID              string    `json:"id" binding:"required"`
	Title           string    `json:"title" binding:"required"`
	CategoryID      string    `json:"categoryId"`
	ChannelID       string    `json:"channelId"`
	ChannelTitle    string    `json:"channelTitle"`
	DurationSeconds int       `json:"durationSeconds"`
	PublishedAt     time.Time `json:"publishedAt"`
	ThumbnailURL    string    `json:"thumbnailUrl"`
}
