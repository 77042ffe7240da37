package models

import "time"

// Service is a catalog entry: what the workshop offers, how long it
// takes and which mechanic skill it requires.
type Service struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Name        string `gorm:"size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`

	Category    string  `gorm:"size:50;not null" json:"category"`
	DurationMin int     `json:"duration_min"`
	BasePrice   float64 `json:"base_price"`
	Active      bool    `gorm:"default:true" json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
