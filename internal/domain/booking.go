package domain

import "time"

// Booking is a scheduled appointment request directed at a specific shop.
// It shares the order state machine but replaces live geo-dispatch with a
// scheduled datetime.
type Booking struct {
	ID          string
	ShopID      string
	UserID      string
	ScheduledAt time.Time
	VehicleType string
	Complaint   string
	Status      JobStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	AcceptedAt  *time.Time
	RejectedAt  *time.Time
	CanceledAt  *time.Time
	CompletedAt *time.Time
}
