package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/events"
	"github.com/spec-kit/repair-marketplace/internal/repository"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// ChatService persists chat messages and republishes the authoritative row
// to the order's room. There is no room-membership precondition for sending:
// a sender who never joined the room still gets its message persisted and
// relayed.
type ChatService struct {
	messages   repository.MessageRepository
	orders     repository.OrderRepository
	dispatcher events.Dispatcher
}

// ChatDependencies bundles repositories for the chat service.
type ChatDependencies struct {
	MessageRepo repository.MessageRepository
	OrderRepo   repository.OrderRepository
	Dispatcher  events.Dispatcher
}

// SendMessageInput describes a message submission. CorrelationID is a
// client-generated id echoed back with the persisted row so the sender can
// reconcile its optimistic local copy without content matching.
type SendMessageInput struct {
	OrderID       string
	SenderID      string
	SenderRole    string
	Body          string
	CorrelationID string
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		messages:   deps.MessageRepo,
		orders:     deps.OrderRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Send validates, persists and relays one message.
func (s *ChatService) Send(ctx context.Context, input SendMessageInput) (*domain.Message, error) {
	missing := []string{}
	if input.OrderID == "" {
		missing = append(missing, "orderId")
	}
	if input.SenderID == "" {
		missing = append(missing, "senderId")
	}
	if input.SenderRole == "" {
		missing = append(missing, "senderRole")
	}
	if strings.TrimSpace(input.Body) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"missing": missing})
	}

	if _, err := s.orders.GetByID(ctx, input.OrderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": input.OrderID})
		}
		return nil, apperrors.MapError(err)
	}

	msg := &domain.Message{
		OrderID:    input.OrderID,
		SenderID:   input.SenderID,
		SenderRole: domain.SenderRole(input.SenderRole),
		Body:       input.Body,
	}
	if err := s.messages.Create(ctx, msg); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventMessageAdded,
		RecordID: msg.OrderID,
		Actor:    events.Actor{UserID: msg.SenderID, Role: msg.SenderRole},
		Payload: events.MessageAddedPayload{
			Message:       *msg,
			CorrelationID: input.CorrelationID,
		},
	})
	return msg, nil
}

// ListByOrder returns the full thread for the polling fallback.
func (s *ChatService) ListByOrder(ctx context.Context, orderID string) ([]domain.Message, error) {
	msgs, err := s.messages.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return msgs, nil
}

func (s *ChatService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
