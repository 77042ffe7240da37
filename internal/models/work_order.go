package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkOrder is a committed, schedulable unit of service work tied to one
// mechanic and one time interval. Orders are never deleted; terminal
// statuses (completed, cancelled) close them out but keep the history.
type WorkOrder struct {
	ID uint `gorm:"primaryKey" json:"id"`

	// Reference is the opaque public identifier; display formatting
	// ("WO-001" etc.) is a presentation concern.
	Reference uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"reference"`

	CustomerID uint `json:"customer_id"`
	Customer   User `gorm:"foreignKey:CustomerID;constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"customer"`

	VehicleID uint    `json:"vehicle_id"`
	Vehicle   Vehicle `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"vehicle"`

	ServiceID uint    `json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL;" json:"service"`

	MechanicID *uint `gorm:"index" json:"mechanic_id"`

	StartTime time.Time `gorm:"index" json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	Status string `gorm:"size:20;default:'pending'" json:"status"`

	Notes string   `gorm:"size:255" json:"notes"`
	Cost  *float64 `json:"cost"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
