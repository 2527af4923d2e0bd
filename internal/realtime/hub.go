package realtime

import (
	"sync"

	"go.uber.org/zap"
)

// Hub is the connection registry: which clients are connected, which topics
// they subscribe to and which rooms they joined. Membership mutations and
// publishes are safe under concurrent connects and disconnects. Delivery is
// at-most-once fire-and-forget: a client whose send buffer is full is
// dropped, and a publish with no subscribers is a no-op.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	topics  map[string]map[*Client]struct{}
	rooms   map[string]map[*Client]struct{}
	logger  *zap.Logger
}

// NewHub creates an empty registry.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		topics:  make(map[string]map[*Client]struct{}),
		rooms:   make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

// Register admits an authenticated client.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
	h.logger.Info("client connected",
		zap.String("conn_id", client.ID),
		zap.String("user_id", client.UserID))
}

// Unregister removes the client from every topic and room and closes its
// send channel. Safe to call more than once.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, present := h.clients[client]
	delete(h.clients, client)
	for name, members := range h.topics {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, name)
		}
	}
	for name, members := range h.rooms {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, name)
		}
	}
	h.mu.Unlock()

	if present {
		client.closeSend()
		h.logger.Info("client disconnected",
			zap.String("conn_id", client.ID),
			zap.String("user_id", client.UserID))
	}
}

// JoinTopic subscribes the client to a broadcast topic. Idempotent.
func (h *Hub) JoinTopic(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.topics[topic]
	if !ok {
		members = make(map[*Client]struct{})
		h.topics[topic] = members
	}
	members[client] = struct{}{}
}

// LeaveTopic removes the subscription.
func (h *Hub) LeaveTopic(client *Client, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.topics[topic]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.topics, topic)
		}
	}
}

// JoinRoom adds the client to a room. Idempotent: joining twice does not
// duplicate deliveries.
func (h *Hub) JoinRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*Client]struct{})
		h.rooms[room] = members
	}
	members[client] = struct{}{}
}

// LeaveRoom removes the client from a room.
func (h *Hub) LeaveRoom(client *Client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, client)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}

// PublishTopic sends the frame to every topic subscriber.
func (h *Hub) PublishTopic(topic string, frame OutboundFrame) {
	h.publish(h.snapshotTopic(topic), frame)
}

// PublishRoom sends the frame to every room member.
func (h *Hub) PublishRoom(room string, frame OutboundFrame) {
	h.publish(h.snapshotRoom(room), frame)
}

func (h *Hub) snapshotTopic(topic string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.topics[topic]
	out := make([]*Client, 0, len(members))
	for client := range members {
		out = append(out, client)
	}
	return out
}

func (h *Hub) snapshotRoom(room string) []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	members := h.rooms[room]
	out := make([]*Client, 0, len(members))
	for client := range members {
		out = append(out, client)
	}
	return out
}

func (h *Hub) publish(clients []*Client, frame OutboundFrame) {
	payload := frame.Encode()
	if payload == nil {
		return
	}
	for _, client := range clients {
		if !client.trySend(payload) {
			// slow consumer: drop the connection rather than block
			h.logger.Warn("send buffer full, dropping client",
				zap.String("conn_id", client.ID),
				zap.String("user_id", client.UserID))
			h.Unregister(client)
		}
	}
}

// RoomSize reports current membership, used by tests and the health surface.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// TopicSize reports current subscriber count.
func (h *Hub) TopicSize(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}
