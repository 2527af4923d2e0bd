package realtime

import (
	"encoding/json"
)

// Inbound event names (client → server).
const (
	EvtJoinRepairmanChannel = "joinRepairmanChannel"
	EvtJoinShopChannel      = "joinShopChannel"
	EvtJoinOrderRoom        = "joinOrderRoom"
	EvtLeaveOrderRoom       = "leaveOrderRoom"
	EvtAcceptOrder          = "acceptOrder"
	EvtAcceptBooking        = "acceptBooking"
	EvtRejectOrder          = "rejectOrder"
	EvtRejectBooking        = "rejectBooking"
	EvtCancelOrder          = "cancelOrder"
	EvtSendMessage          = "sendMessage"
	EvtRepairmanLocation    = "repairmanLocationUpdate"
)

// Outbound event names (server → client). Cancellation is emitted under both
// historical spellings; internally it is a single event.
const (
	EvtNewOrderRequest   = "newOrderRequest"
	EvtNewBookingRequest = "newBookingRequest"
	EvtOrderAccepted     = "orderAccepted"
	EvtBookingAccepted   = "bookingAccepted"
	EvtOrderRejected     = "orderRejected"
	EvtBookingRejected   = "bookingRejected"
	EvtOrderCancelled    = "orderCancelled"
	EvtOrderCanceled     = "orderCanceled"
	EvtBookingCanceled   = "bookingCanceled"
	EvtOrderOnTheWay     = "orderOnTheWay"
	EvtOrderCompleted    = "orderCompleted"
	EvtBookingCompleted  = "bookingCompleted"
	EvtNewMessage        = "newMessage"
	EvtLocationUpdate    = "locationUpdate"
	EvtError             = "error"
)

// Topic names. TopicRepairmen is the shared provider broadcast group; every
// connected repairman who joined it sees every new request.
const TopicRepairmen = "role:repairman"

// ShopTopic names the per-shop subscription topic.
func ShopTopic(shopID string) string {
	return "shop:" + shopID
}

// OrderRoom names the isolated channel for one order.
func OrderRoom(orderID string) string {
	return "order_" + orderID
}

// BookingRoom names the isolated channel for one booking.
func BookingRoom(bookingID string) string {
	return "booking_" + bookingID
}

// InboundFrame is a raw client frame; Data is decoded per event.
type InboundFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// OutboundFrame is a server frame ready for encoding.
type OutboundFrame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Encode marshals the frame for the wire. An encode failure returns nil; the
// caller treats nil as nothing-to-send.
func (f OutboundFrame) Encode() []byte {
	payload, err := json.Marshal(f)
	if err != nil {
		return nil
	}
	return payload
}

// Inbound payloads.

type joinShopPayload struct {
	ShopID string `json:"shopId"`
}

type orderRefPayload struct {
	OrderID string `json:"orderId"`
}

type bookingRefPayload struct {
	BookingID string `json:"bookingId"`
}

type sendMessagePayload struct {
	OrderID       string `json:"orderId"`
	SenderID      string `json:"senderId"`
	SenderRole    string `json:"senderRole"`
	Message       string `json:"message"`
	CorrelationID string `json:"correlationId,omitempty"`
}

type locationPayload struct {
	OrderID string  `json:"orderId"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// errorData is the payload of an error frame sent back to the offending
// connection.
type errorData struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

type ackData struct {
	Success bool   `json:"success"`
	ID      string `json:"id,omitempty"`
}
