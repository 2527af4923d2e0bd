package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/config"
	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/events"
	"github.com/spec-kit/repair-marketplace/internal/observability"
	"github.com/spec-kit/repair-marketplace/internal/service"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

const claimsKey = "ws_claims"

// opTimeout bounds persistence work triggered from a socket frame; the
// deadline surfaces as a retryable error frame instead of a hung
// connection.
const opTimeout = 10 * time.Second

// Gateway terminates realtime connections: it gates them through the token
// check, routes inbound frames to the services and fans dispatcher events
// out to rooms and topics.
type Gateway struct {
	hub        *Hub
	orders     *service.OrderService
	bookings   *service.BookingService
	chat       *service.ChatService
	tokens     *auth.TokenManager
	dispatcher events.Dispatcher
	cfg        config.RealtimeConfig
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// GatewayDependencies bundles gateway collaborators.
type GatewayDependencies struct {
	Hub      *Hub
	Orders   *service.OrderService
	Bookings *service.BookingService
	Chat     *service.ChatService
	Tokens   *auth.TokenManager
	Config   config.RealtimeConfig
	Logger   *zap.Logger
	Metrics  *observability.Metrics
}

// NewGateway constructs the gateway.
func NewGateway(deps GatewayDependencies) *Gateway {
	return &Gateway{
		hub:      deps.Hub,
		orders:   deps.Orders,
		bookings: deps.Bookings,
		chat:     deps.Chat,
		tokens:   deps.Tokens,
		cfg:      deps.Config,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
	}
}

// UpgradeGate authenticates the connection before the websocket upgrade.
// A missing, malformed or forged token refuses the connection outright.
func (g *Gateway) UpgradeGate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return apperrors.NewDomainError("UPGRADE_REQUIRED", "websocket upgrade required", fiber.StatusUpgradeRequired, nil)
	}

	token := bearerToken(c)
	if token == "" {
		return apperrors.NewUnauthorized("missing token")
	}
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}
	c.Locals(claimsKey, claims)
	return c.Next()
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if len(header) > 7 && (header[:7] == "Bearer " || header[:7] == "bearer ") {
		return header[7:]
	}
	return c.Query("token")
}

// Handler serves an admitted connection until it drops.
func (g *Gateway) Handler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		claims, ok := conn.Locals(claimsKey).(*auth.Claims)
		if !ok {
			_ = conn.Close()
			return
		}

		client := NewClient(uuid.NewString(), claims.UserID, claims.IsRepairman, claims.HasShop, conn, g.cfg, g.logger)
		g.hub.Register(client)
		go client.WritePump()
		client.ReadPump(g.handleFrame)
		g.hub.Unregister(client)
	})
}

// RegisterEventHandlers wires dispatcher events to hub fan-out. All status
// propagation, including HTTP-initiated transitions, flows through here.
func (g *Gateway) RegisterEventHandlers(dispatcher events.Dispatcher) {
	g.dispatcher = dispatcher
	dispatcher.Subscribe(events.EventOrderCreated, g.onOrderCreated)
	dispatcher.Subscribe(events.EventOrderAccepted, g.onOrderStatus(EvtOrderAccepted, true))
	dispatcher.Subscribe(events.EventOrderRejected, g.onOrderStatus(EvtOrderRejected, true))
	dispatcher.Subscribe(events.EventOrderCanceled, g.onOrderCanceled)
	dispatcher.Subscribe(events.EventOrderDeparted, g.onOrderStatus(EvtOrderOnTheWay, false))
	dispatcher.Subscribe(events.EventOrderCompleted, g.onOrderStatus(EvtOrderCompleted, false))
	dispatcher.Subscribe(events.EventBookingCreated, g.onBookingCreated)
	dispatcher.Subscribe(events.EventBookingAccepted, g.onBookingStatus(EvtBookingAccepted, true))
	dispatcher.Subscribe(events.EventBookingRejected, g.onBookingStatus(EvtBookingRejected, true))
	dispatcher.Subscribe(events.EventBookingCanceled, g.onBookingStatus(EvtBookingCanceled, false))
	dispatcher.Subscribe(events.EventBookingCompleted, g.onBookingStatus(EvtBookingCompleted, false))
	dispatcher.Subscribe(events.EventMessageAdded, g.onMessageAdded)
	dispatcher.Subscribe(events.EventLocationUpdated, g.onLocationUpdated)
}

func (g *Gateway) onOrderCreated(_ context.Context, event events.Event) error {
	g.hub.PublishTopic(TopicRepairmen, OutboundFrame{Event: EvtNewOrderRequest, Data: event.Payload})
	return nil
}

// onOrderStatus propagates a transition to the order room and, when other
// providers must retract their stale view, to the provider topic.
func (g *Gateway) onOrderStatus(wireEvent string, toProviders bool) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		data := statusData(event)
		frame := OutboundFrame{Event: wireEvent, Data: data}
		g.hub.PublishRoom(OrderRoom(event.RecordID), frame)
		if toProviders {
			g.hub.PublishTopic(TopicRepairmen, frame)
		}
		return nil
	}
}

// onOrderCanceled emits the cancellation under both historical spellings.
func (g *Gateway) onOrderCanceled(_ context.Context, event events.Event) error {
	data := statusData(event)
	room := OrderRoom(event.RecordID)
	for _, wireEvent := range []string{EvtOrderCancelled, EvtOrderCanceled} {
		frame := OutboundFrame{Event: wireEvent, Data: data}
		g.hub.PublishRoom(room, frame)
		g.hub.PublishTopic(TopicRepairmen, frame)
	}
	return nil
}

func (g *Gateway) onBookingCreated(_ context.Context, event events.Event) error {
	frame := OutboundFrame{Event: EvtNewBookingRequest, Data: event.Payload}
	if payload, ok := event.Payload.(events.BookingRequestPayload); ok {
		g.hub.PublishTopic(ShopTopic(payload.ShopID), frame)
	}
	// default policy: every provider sees every request
	g.hub.PublishTopic(TopicRepairmen, frame)
	return nil
}

func (g *Gateway) onBookingStatus(wireEvent string, toProviders bool) events.EventHandler {
	return func(_ context.Context, event events.Event) error {
		frame := OutboundFrame{Event: wireEvent, Data: statusData(event)}
		g.hub.PublishRoom(BookingRoom(event.RecordID), frame)
		if toProviders {
			g.hub.PublishTopic(TopicRepairmen, frame)
		}
		return nil
	}
}

func (g *Gateway) onMessageAdded(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MessageAddedPayload)
	if !ok {
		return nil
	}
	msg := payload.Message
	g.hub.PublishRoom(OrderRoom(msg.OrderID), OutboundFrame{
		Event: EvtNewMessage,
		Data: map[string]any{
			"id":            msg.ID,
			"orderId":       msg.OrderID,
			"senderId":      msg.SenderID,
			"senderRole":    msg.SenderRole,
			"message":       msg.Body,
			"createdAt":     msg.CreatedAt,
			"correlationId": payload.CorrelationID,
		},
	})
	return nil
}

func (g *Gateway) onLocationUpdated(_ context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LocationUpdatedPayload)
	if !ok {
		return nil
	}
	g.hub.PublishRoom(OrderRoom(payload.OrderID), OutboundFrame{Event: EvtLocationUpdate, Data: payload})
	return nil
}

func statusData(event events.Event) map[string]any {
	data := map[string]any{"id": event.RecordID}
	if payload, ok := event.Payload.(events.StatusChangedPayload); ok && payload.ProviderID != nil {
		data["providerId"] = *payload.ProviderID
	}
	return data
}

func (g *Gateway) handleFrame(client *Client, frame InboundFrame) {
	g.metrics.RecordEvent(frame.Event)
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var err error
	switch frame.Event {
	case EvtJoinRepairmanChannel:
		err = g.joinRepairmanChannel(client)
	case EvtJoinShopChannel:
		err = g.joinShopChannel(client, frame.Data)
	case EvtJoinOrderRoom:
		err = g.joinOrderRoom(client, frame.Data)
	case EvtLeaveOrderRoom:
		err = g.leaveOrderRoom(client, frame.Data)
	case EvtAcceptOrder:
		err = g.acceptOrder(ctx, client, frame.Data)
	case EvtAcceptBooking:
		err = g.acceptBooking(ctx, client, frame.Data)
	case EvtRejectOrder:
		err = g.rejectOrder(ctx, client, frame.Data)
	case EvtRejectBooking:
		err = g.rejectBooking(ctx, client, frame.Data)
	case EvtCancelOrder:
		err = g.cancelOrder(ctx, client, frame.Data)
	case EvtSendMessage:
		err = g.sendMessage(ctx, client, frame.Data)
	case EvtRepairmanLocation:
		err = g.locationUpdate(client, frame.Data)
	default:
		g.logger.Warn("unknown event",
			zap.String("event", frame.Event),
			zap.String("conn_id", client.ID))
		return
	}

	if err != nil {
		g.sendError(client, err)
	}
}

func (g *Gateway) joinRepairmanChannel(client *Client) error {
	if !client.IsRepairman && !client.HasShop {
		return apperrors.NewForbidden("provider role required")
	}
	g.hub.JoinTopic(client, TopicRepairmen)
	return nil
}

func (g *Gateway) joinShopChannel(client *Client, data json.RawMessage) error {
	if !client.HasShop {
		return apperrors.NewForbidden("shop owner required")
	}
	var payload joinShopPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.ShopID == "" {
		return apperrors.NewValidationError("shopId required", map[string]any{"missing": []string{"shopId"}})
	}
	g.hub.JoinTopic(client, ShopTopic(payload.ShopID))
	return nil
}

func (g *Gateway) joinOrderRoom(client *Client, data json.RawMessage) error {
	orderID, err := orderRef(data)
	if err != nil {
		return err
	}
	// rooms are join-by-id: the identity gate is the only access control
	g.hub.JoinRoom(client, OrderRoom(orderID))
	return nil
}

func (g *Gateway) leaveOrderRoom(client *Client, data json.RawMessage) error {
	orderID, err := orderRef(data)
	if err != nil {
		return err
	}
	g.hub.LeaveRoom(client, OrderRoom(orderID))
	return nil
}

func (g *Gateway) acceptOrder(ctx context.Context, client *Client, data json.RawMessage) error {
	orderID, err := orderRef(data)
	if err != nil {
		return err
	}
	if _, err := g.orders.Accept(ctx, orderID, client.UserID); err != nil {
		return err
	}
	client.Send(OutboundFrame{Event: EvtAcceptOrder, Data: ackData{Success: true, ID: orderID}})
	return nil
}

func (g *Gateway) acceptBooking(ctx context.Context, client *Client, data json.RawMessage) error {
	var payload bookingRefPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.BookingID == "" {
		return apperrors.NewValidationError("bookingId required", map[string]any{"missing": []string{"bookingId"}})
	}
	if _, err := g.bookings.Accept(ctx, payload.BookingID, client.UserID); err != nil {
		return err
	}
	client.Send(OutboundFrame{Event: EvtAcceptBooking, Data: ackData{Success: true, ID: payload.BookingID}})
	return nil
}

func (g *Gateway) rejectOrder(ctx context.Context, client *Client, data json.RawMessage) error {
	orderID, err := orderRef(data)
	if err != nil {
		return err
	}
	// socket-path rejection rebroadcasts without persisting
	return g.orders.RelayReject(ctx, orderID, client.UserID)
}

func (g *Gateway) rejectBooking(ctx context.Context, client *Client, data json.RawMessage) error {
	var payload bookingRefPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.BookingID == "" {
		return apperrors.NewValidationError("bookingId required", map[string]any{"missing": []string{"bookingId"}})
	}
	return g.bookings.Reject(ctx, payload.BookingID, client.UserID)
}

func (g *Gateway) cancelOrder(ctx context.Context, client *Client, data json.RawMessage) error {
	orderID, err := orderRef(data)
	if err != nil {
		return err
	}
	_, err = g.orders.Cancel(ctx, orderID, client.UserID)
	return err
}

func (g *Gateway) sendMessage(ctx context.Context, client *Client, data json.RawMessage) error {
	var payload sendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if payload.SenderID == "" {
		payload.SenderID = client.UserID
	}
	_, err := g.chat.Send(ctx, service.SendMessageInput{
		OrderID:       payload.OrderID,
		SenderID:      payload.SenderID,
		SenderRole:    payload.SenderRole,
		Body:          payload.Message,
		CorrelationID: payload.CorrelationID,
	})
	return err
}

func (g *Gateway) locationUpdate(client *Client, data json.RawMessage) error {
	var payload locationPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		return apperrors.NewValidationError("orderId required", map[string]any{"missing": []string{"orderId"}})
	}
	// dispatched so the room fan-out and any attached mirrors see it;
	// the subscriber keeps it room-scoped, never on the provider topic
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	return g.dispatcher.Publish(ctx, events.Event{
		Type:     events.EventLocationUpdated,
		RecordID: payload.OrderID,
		Actor:    events.Actor{UserID: client.UserID, Role: domain.RoleRepairman},
		Payload: events.LocationUpdatedPayload{
			OrderID: payload.OrderID,
			Lat:     payload.Lat,
			Lng:     payload.Lng,
		},
	})
}

func orderRef(data json.RawMessage) (string, error) {
	var payload orderRefPayload
	if err := json.Unmarshal(data, &payload); err != nil || payload.OrderID == "" {
		return "", apperrors.NewValidationError("orderId required", map[string]any{"missing": []string{"orderId"}})
	}
	return payload.OrderID, nil
}

func (g *Gateway) sendError(client *Client, err error) {
	domainErr := apperrors.ToDomainError(err)
	client.Send(OutboundFrame{Event: EvtError, Data: errorData{
		Code:    domainErr.Code,
		Message: domainErr.Message,
		Details: domainErr.Details,
	}})
	if domainErr.HTTPStatus >= 500 {
		g.logger.Error("realtime handler failed",
			zap.String("conn_id", client.ID),
			zap.Error(domainErr))
	}
}
