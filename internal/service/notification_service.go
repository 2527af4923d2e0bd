package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/repair-marketplace/internal/events"
)

// NotificationService logs domain events for offline follow-up (push/SMS
// delivery is a gateway concern outside this service).
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventOrderCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventOrderAccepted, n.handleEvent)
	n.dispatcher.Subscribe(events.EventOrderRejected, n.handleEvent)
	n.dispatcher.Subscribe(events.EventOrderCanceled, n.handleEvent)
	n.dispatcher.Subscribe(events.EventOrderCompleted, n.handleEvent)
	n.dispatcher.Subscribe(events.EventBookingCreated, n.handleEvent)
	n.dispatcher.Subscribe(events.EventBookingAccepted, n.handleEvent)
	n.dispatcher.Subscribe(events.EventBookingRejected, n.handleEvent)
	n.dispatcher.Subscribe(events.EventBookingCanceled, n.handleEvent)
	n.dispatcher.Subscribe(events.EventBookingCompleted, n.handleEvent)
}

func (n *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	n.logger.Info("notification",
		zap.String("event_type", string(event.Type)),
		zap.String("record_id", event.RecordID),
		zap.String("actor_id", event.Actor.UserID))
	return nil
}
