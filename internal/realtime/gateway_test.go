package realtime

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/config"
	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/events"
	"github.com/spec-kit/repair-marketplace/internal/observability"
)

func newFanoutFixture() (*Gateway, *Hub, events.Dispatcher) {
	hub := NewHub(zap.NewNop())
	gateway := NewGateway(GatewayDependencies{
		Hub:     hub,
		Config:  config.RealtimeConfig{SendBufferSize: 8},
		Logger:  zap.NewNop(),
		Metrics: observability.NewMetrics(),
	})
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	gateway.RegisterEventHandlers(dispatcher)
	return gateway, hub, dispatcher
}

func TestOrderCreatedReachesProviderTopic(t *testing.T) {
	_, hub, dispatcher := newFanoutFixture()

	provider := newTestClient("p", 8)
	customer := newTestClient("c", 8)
	hub.Register(provider)
	hub.Register(customer)
	hub.JoinTopic(provider, TopicRepairmen)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventOrderCreated,
		RecordID: "o1",
		Payload:  events.OrderRequestPayload{OrderID: "o1", Complaint: "flat tire"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	frame := drainFrame(t, provider)
	if frame.Event != EvtNewOrderRequest {
		t.Errorf("event = %q, want %q", frame.Event, EvtNewOrderRequest)
	}
	assertNoFrame(t, customer)
}

func TestOrderCanceledEmitsBothSpellings(t *testing.T) {
	_, hub, dispatcher := newFanoutFixture()

	member := newTestClient("m", 8)
	hub.Register(member)
	hub.JoinRoom(member, OrderRoom("o1"))

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventOrderCanceled,
		RecordID: "o1",
		Payload:  events.StatusChangedPayload{NewStatus: domain.JobStatusCanceled},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	first := drainFrame(t, member)
	second := drainFrame(t, member)
	got := map[string]bool{first.Event: true, second.Event: true}
	if !got[EvtOrderCancelled] || !got[EvtOrderCanceled] {
		t.Errorf("events = %v, want both %q and %q", got, EvtOrderCancelled, EvtOrderCanceled)
	}
	assertNoFrame(t, member)
}

func TestMessageAddedStaysInRoom(t *testing.T) {
	_, hub, dispatcher := newFanoutFixture()

	inRoom := newTestClient("a", 8)
	outside := newTestClient("b", 8)
	hub.Register(inRoom)
	hub.Register(outside)
	hub.JoinRoom(inRoom, OrderRoom("o1"))
	hub.JoinTopic(outside, TopicRepairmen)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventMessageAdded,
		RecordID: "o1",
		Payload: events.MessageAddedPayload{
			Message:       domain.Message{ID: "m1", OrderID: "o1", Body: "on my way"},
			CorrelationID: "local-7",
		},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	frame := drainFrame(t, inRoom)
	if frame.Event != EvtNewMessage {
		t.Errorf("event = %q, want %q", frame.Event, EvtNewMessage)
	}
	data, ok := frame.Data.(map[string]any)
	if !ok {
		t.Fatalf("data type = %T", frame.Data)
	}
	if data["correlationId"] != "local-7" {
		t.Errorf("correlationId = %v, want local-7", data["correlationId"])
	}
	assertNoFrame(t, outside)
}

func TestBookingCreatedReachesShopTopic(t *testing.T) {
	_, hub, dispatcher := newFanoutFixture()

	shopOwner := newTestClient("s", 8)
	otherShop := newTestClient("o", 8)
	hub.Register(shopOwner)
	hub.Register(otherShop)
	hub.JoinTopic(shopOwner, ShopTopic("shop-1"))
	hub.JoinTopic(otherShop, ShopTopic("shop-2"))

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventBookingCreated,
		RecordID: "b1",
		Payload:  events.BookingRequestPayload{BookingID: "b1", ShopID: "shop-1"},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	frame := drainFrame(t, shopOwner)
	if frame.Event != EvtNewBookingRequest {
		t.Errorf("event = %q, want %q", frame.Event, EvtNewBookingRequest)
	}
	assertNoFrame(t, otherShop)
}

func TestLocationUpdateIsRoomScoped(t *testing.T) {
	_, hub, dispatcher := newFanoutFixture()

	inRoom := newTestClient("a", 8)
	provider := newTestClient("b", 8)
	hub.Register(inRoom)
	hub.Register(provider)
	hub.JoinRoom(inRoom, OrderRoom("o1"))
	hub.JoinTopic(provider, TopicRepairmen)

	err := dispatcher.Publish(context.Background(), events.Event{
		Type:     events.EventLocationUpdated,
		RecordID: "o1",
		Payload:  events.LocationUpdatedPayload{OrderID: "o1", Lat: 35.7, Lng: 51.4},
	})
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	frame := drainFrame(t, inRoom)
	if frame.Event != EvtLocationUpdate {
		t.Errorf("event = %q, want %q", frame.Event, EvtLocationUpdate)
	}
	assertNoFrame(t, provider)
}
