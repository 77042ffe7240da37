package models

import "time"

// MechanicSkill tags a mechanic as qualified for one service category.
type MechanicSkill struct {
	ID uint `gorm:"primaryKey" json:"id"`

	MechanicID uint   `gorm:"index:idx_mechanic_category,unique" json:"mechanic_id"`
	Category   string `gorm:"size:50;not null;index:idx_mechanic_category,unique" json:"category"`

	CreatedAt time.Time `json:"created_at"`
}
