package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/config"
)

func newTestClient(id string, bufferSize int) *Client {
	cfg := config.RealtimeConfig{SendBufferSize: bufferSize}
	return NewClient(id, "user-"+id, false, false, nil, cfg, zap.NewNop())
}

func drainFrame(t *testing.T, c *Client) OutboundFrame {
	t.Helper()
	select {
	case payload := <-c.send:
		var frame OutboundFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		return frame
	default:
		t.Fatal("expected a queued frame")
		return OutboundFrame{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected frame queued: %s", payload)
	default:
	}
}

func TestRoomIsolation(t *testing.T) {
	hub := NewHub(zap.NewNop())
	inRoom := newTestClient("a", 4)
	otherRoom := newTestClient("b", 4)
	hub.Register(inRoom)
	hub.Register(otherRoom)
	hub.JoinRoom(inRoom, OrderRoom("o1"))
	hub.JoinRoom(otherRoom, OrderRoom("o2"))

	hub.PublishRoom(OrderRoom("o1"), OutboundFrame{Event: EvtNewMessage, Data: "hi"})

	frame := drainFrame(t, inRoom)
	if frame.Event != EvtNewMessage {
		t.Errorf("event = %q, want %q", frame.Event, EvtNewMessage)
	}
	assertNoFrame(t, otherRoom)
}

func TestJoinRoomIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("a", 4)
	hub.Register(client)
	hub.JoinRoom(client, OrderRoom("o1"))
	hub.JoinRoom(client, OrderRoom("o1"))

	if size := hub.RoomSize(OrderRoom("o1")); size != 1 {
		t.Fatalf("room size = %d, want 1", size)
	}

	hub.PublishRoom(OrderRoom("o1"), OutboundFrame{Event: EvtNewMessage})
	drainFrame(t, client)
	assertNoFrame(t, client)
}

func TestJoinBeforeRegisterIgnored(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("a", 4)

	hub.JoinRoom(client, OrderRoom("o1"))
	hub.JoinTopic(client, TopicRepairmen)

	if hub.RoomSize(OrderRoom("o1")) != 0 || hub.TopicSize(TopicRepairmen) != 0 {
		t.Fatal("unregistered client must not gain memberships")
	}
}

func TestTopicBroadcast(t *testing.T) {
	hub := NewHub(zap.NewNop())
	first := newTestClient("a", 4)
	second := newTestClient("b", 4)
	outsider := newTestClient("c", 4)
	hub.Register(first)
	hub.Register(second)
	hub.Register(outsider)
	hub.JoinTopic(first, TopicRepairmen)
	hub.JoinTopic(second, TopicRepairmen)

	hub.PublishTopic(TopicRepairmen, OutboundFrame{Event: EvtNewOrderRequest})

	drainFrame(t, first)
	drainFrame(t, second)
	assertNoFrame(t, outsider)
}

func TestUnregisterRemovesMemberships(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("a", 4)
	hub.Register(client)
	hub.JoinRoom(client, OrderRoom("o1"))
	hub.JoinTopic(client, TopicRepairmen)

	hub.Unregister(client)

	if hub.RoomSize(OrderRoom("o1")) != 0 || hub.TopicSize(TopicRepairmen) != 0 {
		t.Fatal("unregister must clear memberships")
	}
	// second unregister must not panic on the closed channel
	hub.Unregister(client)

	if _, open := <-client.send; open {
		t.Fatal("send channel should be closed after unregister")
	}
}

func TestSlowConsumerDropped(t *testing.T) {
	hub := NewHub(zap.NewNop())
	slow := newTestClient("a", 1)
	hub.Register(slow)
	hub.JoinRoom(slow, OrderRoom("o1"))

	hub.PublishRoom(OrderRoom("o1"), OutboundFrame{Event: EvtNewMessage})
	// buffer is now full; the next publish must evict the client
	hub.PublishRoom(OrderRoom("o1"), OutboundFrame{Event: EvtNewMessage})

	if hub.RoomSize(OrderRoom("o1")) != 0 {
		t.Fatal("slow consumer should have been dropped from the room")
	}
}

func TestPublishToDisconnectedClientDoesNotPanic(t *testing.T) {
	hub := NewHub(zap.NewNop())
	client := newTestClient("a", 4)
	hub.Register(client)
	hub.JoinRoom(client, OrderRoom("o1"))

	// a publisher can hold a membership snapshot taken before the
	// disconnect; delivering to it must fail quietly, not panic
	stale := hub.snapshotRoom(OrderRoom("o1"))
	hub.Unregister(client)
	hub.publish(stale, OutboundFrame{Event: EvtNewMessage})

	if client.Send(OutboundFrame{Event: EvtNewMessage}) {
		t.Error("Send after disconnect should report failure")
	}
}

func TestConcurrentPublishAndUnregister(t *testing.T) {
	hub := NewHub(zap.NewNop())
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			hub.PublishRoom(OrderRoom("o1"), OutboundFrame{Event: EvtNewMessage})
		}
	}()
	for i := 0; i < 200; i++ {
		client := newTestClient("a", 1)
		hub.Register(client)
		hub.JoinRoom(client, OrderRoom("o1"))
		hub.Unregister(client)
	}
	<-done
}

func TestRoomNames(t *testing.T) {
	if got := OrderRoom("123"); got != "order_123" {
		t.Errorf("OrderRoom = %q, want order_123", got)
	}
	if got := BookingRoom("456"); got != "booking_456" {
		t.Errorf("BookingRoom = %q, want booking_456", got)
	}
	if got := ShopTopic("789"); got != "shop:789" {
		t.Errorf("ShopTopic = %q, want shop:789", got)
	}
}
