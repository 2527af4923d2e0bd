package events

import (
	"time"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated   EventType = "order_created"
	EventOrderAccepted  EventType = "order_accepted"
	EventOrderRejected  EventType = "order_rejected"
	EventOrderCanceled  EventType = "order_canceled"
	EventOrderDeparted  EventType = "order_departed"
	EventOrderCompleted EventType = "order_completed"

	EventBookingCreated   EventType = "booking_created"
	EventBookingAccepted  EventType = "booking_accepted"
	EventBookingRejected  EventType = "booking_rejected"
	EventBookingCanceled  EventType = "booking_canceled"
	EventBookingCompleted EventType = "booking_completed"

	EventMessageAdded    EventType = "message_added"
	EventLocationUpdated EventType = "location_updated"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID string            `json:"user_id"`
	Role   domain.SenderRole `json:"role"`
}

// Event represents a domain event emitted by services. RecordID is the order
// or booking the event belongs to.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RecordID  string      `json:"record_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OrderRequestPayload is the provider-facing summary of a new order.
type OrderRequestPayload struct {
	OrderID     string    `json:"orderId"`
	Address     string    `json:"address"`
	Lat         float64   `json:"locationLat"`
	Lng         float64   `json:"locationLng"`
	VehicleType string    `json:"vehicleType"`
	Complaint   string    `json:"complaint"`
	CreatedAt   time.Time `json:"createdAt"`
}

// BookingRequestPayload is the shop-facing summary of a new booking.
type BookingRequestPayload struct {
	BookingID   string    `json:"bookingId"`
	ShopID      string    `json:"shopId"`
	ScheduledAt time.Time `json:"scheduledAt"`
	VehicleType string    `json:"vehicleType"`
	Complaint   string    `json:"complaint"`
	CreatedAt   time.Time `json:"createdAt"`
}

// StatusChangedPayload describes an accept/reject/cancel/finish transition.
type StatusChangedPayload struct {
	OldStatus  domain.JobStatus `json:"old_status"`
	NewStatus  domain.JobStatus `json:"new_status"`
	ProviderID *string          `json:"provider_id,omitempty"`
}

// MessageAddedPayload carries the persisted chat message.
type MessageAddedPayload struct {
	Message       domain.Message `json:"message"`
	CorrelationID string         `json:"correlation_id,omitempty"`
}

// LocationUpdatedPayload carries a provider position inside an order room.
type LocationUpdatedPayload struct {
	OrderID string  `json:"orderId"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}
