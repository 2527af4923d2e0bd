package dto

import "time"

// MessageResponse is the public view of a chat message.
type MessageResponse struct {
	ID         string    `json:"id"`
	OrderID    string    `json:"order_id"`
	SenderID   string    `json:"sender_id"`
	SenderRole string    `json:"sender_role"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
