package dto

import "time"

// CreateOrderRequest payload for a live repair request.
type CreateOrderRequest struct {
	Address     string  `json:"address"`
	Lat         float64 `json:"lat"`
	Lng         float64 `json:"lng"`
	VehicleType string  `json:"vehicle_type"`
	Complaint   string  `json:"complaint"`
}

// OrderResponse is the public view of an order.
type OrderResponse struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	RepairmanID *string    `json:"repairman_id,omitempty"`
	Address     string     `json:"address"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	VehicleType string     `json:"vehicle_type"`
	Complaint   string     `json:"complaint"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}
