package events

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var allEventTypes = []EventType{
	EventOrderCreated, EventOrderAccepted, EventOrderRejected,
	EventOrderCanceled, EventOrderDeparted, EventOrderCompleted,
	EventBookingCreated, EventBookingAccepted, EventBookingRejected,
	EventBookingCanceled, EventBookingCompleted,
	EventMessageAdded, EventLocationUpdated,
}

// AMQPBridge mirrors every dispatched event to a RabbitMQ topic exchange,
// routing key = event type. Publication is fire-and-forget: a broker failure
// is logged and dropped, never surfaced to the emitting request.
type AMQPBridge struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
	logger   *zap.Logger
}

// NewAMQPBridge dials the broker and declares the exchange.
func NewAMQPBridge(url, exchange string, logger *zap.Logger) (*AMQPBridge, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPBridge{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

// Attach subscribes the bridge to every event type on the dispatcher.
func (b *AMQPBridge) Attach(dispatcher Dispatcher) {
	for _, eventType := range allEventTypes {
		dispatcher.Subscribe(eventType, b.publish)
	}
}

func (b *AMQPBridge) publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = b.ch.PublishWithContext(ctx, b.exchange, string(event.Type), false, false, amqp.Publishing{
		ContentType: "application/json",
		Body:        body,
	})
	if err != nil {
		b.logger.Warn("amqp publish failed",
			zap.String("event_type", string(event.Type)),
			zap.String("record_id", event.RecordID),
			zap.Error(err))
	}
	return nil
}

// Close releases the channel and connection.
func (b *AMQPBridge) Close() error {
	if b == nil {
		return nil
	}
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}
