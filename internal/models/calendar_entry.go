package models

import "time"

// CalendarEntry is the durable mirror of one reserved interval on a
// mechanic's availability calendar. The in-memory calendar is rebuilt
// from these rows at startup.
type CalendarEntry struct {
	ID uint `gorm:"primaryKey" json:"id"`

	MechanicID  uint `gorm:"index" json:"mechanic_id"`
	WorkOrderID uint `gorm:"index" json:"work_order_id"`

	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`

	CreatedAt time.Time `json:"created_at"`
}
