package pg

import "time"

// Timestamps is embedded by entities that track row lifecycle times.
type Timestamps struct {
	CreatedAt time.Time `db:"created_at" gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `db:"updated_at" gorm:"column:updated_at;autoUpdateTime"`
}
