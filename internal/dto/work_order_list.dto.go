package dto

import (
	"time"

	"github.com/google/uuid"
)

type WorkOrderListDTO struct {
	ID           uint      `json:"id"`
	Reference    uuid.UUID `json:"reference"`
	StartTime    time.Time `json:"start_time"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	CustomerName string    `json:"customer_name"`
	VehiclePlate string    `json:"vehicle_plate"`
	ServiceName  string    `json:"service_name"`
	Cost         *float64  `json:"cost"`
}
