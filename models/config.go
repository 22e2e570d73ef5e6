package models

import "time"

// CafeConfig holds per-restaurant role configuration.
type CafeConfig struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Restaurant string    `gorm:"type:varchar(255);unique;not null" json:"restaurant"`
	Roles      []string  `gorm:"serializer:json" json:"roles"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
