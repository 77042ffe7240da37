package models

import "time"

type Vehicle struct {
	ID uint `gorm:"primaryKey" json:"id"`

	OwnerID uint `json:"owner_id"`
	Owner   User `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"owner"`

	Make         string `gorm:"size:50;not null" json:"make"`
	Model        string `gorm:"size:50;not null" json:"model"`
	Year         int    `json:"year"`
	LicensePlate string `gorm:"size:20;not null" json:"license_plate"`
	Color        string `gorm:"size:30" json:"color"`

	LastServiceDate *time.Time `json:"last_service_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
