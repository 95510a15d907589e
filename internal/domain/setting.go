package domain

import "time"

// Setting is an operator-tunable key/value pair. Tunables live here
// instead of in process state so schedulers and the API read the same
// values; updates are a plain read-modify-write through the repository.
type Setting struct {
	Key       string    `gorm:"type:text;primaryKey" json:"key"`
	Value     string    `gorm:"type:text" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the database table name for Setting.
func (Setting) TableName() string {
	return "settings"
}
