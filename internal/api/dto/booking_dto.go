package dto

import "time"

// CreateBookingRequest payload for a scheduled shop appointment.
type CreateBookingRequest struct {
	ShopID      string    `json:"shop_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	VehicleType string    `json:"vehicle_type"`
	Complaint   string    `json:"complaint"`
}

// BookingResponse is the public view of a booking.
type BookingResponse struct {
	ID          string     `json:"id"`
	ShopID      string     `json:"shop_id"`
	UserID      string     `json:"user_id"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	VehicleType string     `json:"vehicle_type"`
	Complaint   string     `json:"complaint"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
