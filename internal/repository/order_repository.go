package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// OrderRepository encapsulates order persistence. The Mark* methods are
// conditional updates: they change the row only while it is still in an
// eligible status and report whether a row was actually updated, which is
// what serializes concurrent accept attempts.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ActiveByRequester(ctx context.Context, requesterID string) (*domain.Order, error)
	ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.Order, error)
	AcceptPending(ctx context.Context, id, repairmanID string) (bool, error)
	MarkRejected(ctx context.Context, id string) (bool, error)
	MarkOnTheWay(ctx context.Context, id string) (bool, error)
	MarkCanceled(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string) (bool, error)
	WithTx(tx pgx.Tx) OrderRepository
}

type orderRepository struct {
	db DBTX
}

// NewOrderRepository instantiates repository.
func NewOrderRepository(db DBTX) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) WithTx(tx pgx.Tx) OrderRepository {
	return &orderRepository{db: tx}
}

const orderSelect = `
        SELECT id, requester_id, repairman_id, address, lat, lng, vehicle_type, complaint, status,
               created_at, updated_at, accepted_at, rejected_at, canceled_at, completed_at
        FROM orders`

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	const query = `
        INSERT INTO orders (requester_id, address, lat, lng, vehicle_type, complaint, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		order.RequesterID,
		order.Address,
		order.Lat,
		order.Lng,
		order.VehicleType,
		order.Complaint,
		order.Status,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchSingle(ctx, orderSelect+` WHERE id=$1`, id)
}

func (r *orderRepository) ActiveByRequester(ctx context.Context, requesterID string) (*domain.Order, error) {
	const query = orderSelect + `
        WHERE requester_id=$1 AND status IN ('PENDING','ACCEPTED','ON_THE_WAY')
        ORDER BY created_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, requesterID)
}

func (r *orderRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Order, error) {
	var order domain.Order
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&order.ID,
		&order.RequesterID,
		&order.RepairmanID,
		&order.Address,
		&order.Lat,
		&order.Lng,
		&order.VehicleType,
		&order.Complaint,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
		&order.AcceptedAt,
		&order.RejectedAt,
		&order.CanceledAt,
		&order.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, orderSelect+` WHERE requester_id=$1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		requesterID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		var order domain.Order
		if err := rows.Scan(
			&order.ID,
			&order.RequesterID,
			&order.RepairmanID,
			&order.Address,
			&order.Lat,
			&order.Lng,
			&order.VehicleType,
			&order.Complaint,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
			&order.AcceptedAt,
			&order.RejectedAt,
			&order.CanceledAt,
			&order.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, order)
	}
	return result, rows.Err()
}

// AcceptPending assigns the repairman and moves the order to ACCEPTED only if
// it is still PENDING. Returns false when another provider won the race or
// the order left PENDING through another transition.
func (r *orderRepository) AcceptPending(ctx context.Context, id, repairmanID string) (bool, error) {
	const query = `
        UPDATE orders SET status='ACCEPTED', repairman_id=$2, accepted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='PENDING'`
	cmd, err := r.db.Exec(ctx, query, id, repairmanID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkRejected(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE orders SET status='REJECTED', rejected_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='PENDING'`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkOnTheWay(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE orders SET status='ON_THE_WAY', updated_at=NOW()
        WHERE id=$1 AND status='ACCEPTED'`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkCanceled(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE orders SET status='CANCELED', canceled_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status IN ('PENDING','ACCEPTED','ON_THE_WAY')`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *orderRepository) MarkCompleted(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE orders SET status='COMPLETED', completed_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status IN ('ACCEPTED','ON_THE_WAY')`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
