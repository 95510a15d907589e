package domain

import "time"

// Tier is the human-readable trust tier derived from the reliability score.
type Tier string

const (
	TierGreen  Tier = "green"  // reliability >= 70
	TierYellow Tier = "yellow" // 40-69
	TierRed    Tier = "red"    // <= 39
)

// Analysis represents one completed evaluation of a video.
// For a given video ID at most one row has IsLatest = true; the
// flip-then-insert sequence in the repository keeps that invariant.
type Analysis struct {
	ID               string    `gorm:"type:text;primaryKey" json:"id"`
	VideoID          string    `gorm:"type:text;not null;index:idx_analyses_video" json:"video_id"`
	ChannelID        string    `gorm:"type:text;index:idx_analyses_channel" json:"channel_id"`
	UserID           *string   `gorm:"type:text" json:"user_id,omitempty"`
	Accuracy         int       `json:"accuracy"`
	Clickbait        int       `json:"clickbait"`
	Reliability      int       `json:"reliability"`
	Tier             Tier      `gorm:"type:text" json:"tier"`
	Summary          string    `gorm:"type:text" json:"summary"`
	Rationale        string    `gorm:"type:text" json:"rationale"`
	Overall          string    `gorm:"type:text" json:"overall"`
	RecommendedTitle string    `gorm:"type:text" json:"recommended_title"`
	NotEvaluable     bool      `json:"not_evaluable"`
	NotEvalReason    string    `gorm:"type:text" json:"not_eval_reason,omitempty"`
	IsLatest         bool      `gorm:"index:idx_analyses_latest" json:"is_latest"`
	IsRecheck        bool      `json:"is_recheck"`
	ParentID         *string   `gorm:"type:text" json:"parent_id,omitempty"`
	RequestCount     int64     `json:"request_count"`
	ViewCount        int64     `json:"view_count"`
	CreatedAt        time.Time `json:"created_at"`
}

// TableName returns the database table name for Analysis.
func (Analysis) TableName() string {
	return "analyses"
}
