package model

import "time"

// DocumentSequence is the per-day counter behind sale and purchase numbers
type DocumentSequence struct {
	Scope     string `gorm:"type:varchar(40);primaryKey"`
	Value     int    `gorm:"not null;default:0"`
	UpdatedAt time.Time
}
