package repository

import (
	"context"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// MessageRepository manages order chat messages.
type MessageRepository interface {
	Create(ctx context.Context, msg *domain.Message) error
	ListByOrder(ctx context.Context, orderID string) ([]domain.Message, error)
}

type messageRepository struct {
	db DBTX
}

// NewMessageRepository builds repository.
func NewMessageRepository(db DBTX) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, msg *domain.Message) error {
	const query = `
        INSERT INTO messages (order_id, sender_id, sender_role, body)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		msg.OrderID,
		msg.SenderID,
		msg.SenderRole,
		msg.Body,
	).Scan(&msg.ID, &msg.CreatedAt)
}

func (r *messageRepository) ListByOrder(ctx context.Context, orderID string) ([]domain.Message, error) {
	const query = `
        SELECT id, order_id, sender_id, sender_role, body, created_at
        FROM messages WHERE order_id=$1 ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID,
			&msg.OrderID,
			&msg.SenderID,
			&msg.SenderRole,
			&msg.Body,
			&msg.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
