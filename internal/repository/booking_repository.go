package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// BookingRepository encapsulates booking persistence. Same conditional-update
// discipline as OrderRepository.
type BookingRepository interface {
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByShop(ctx context.Context, shopID string, limit, offset int) ([]domain.Booking, error)
	AcceptPending(ctx context.Context, id string) (bool, error)
	MarkRejected(ctx context.Context, id string) (bool, error)
	MarkCanceled(ctx context.Context, id string) (bool, error)
	MarkCompleted(ctx context.Context, id string) (bool, error)
	WithTx(tx pgx.Tx) BookingRepository
}

type bookingRepository struct {
	db DBTX
}

// NewBookingRepository instantiates repository.
func NewBookingRepository(db DBTX) BookingRepository {
	return &bookingRepository{db: db}
}

func (r *bookingRepository) WithTx(tx pgx.Tx) BookingRepository {
	return &bookingRepository{db: tx}
}

const bookingSelect = `
        SELECT id, shop_id, user_id, scheduled_at, vehicle_type, complaint, status,
               created_at, updated_at, accepted_at, rejected_at, canceled_at, completed_at
        FROM bookings`

func (r *bookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	const query = `
        INSERT INTO bookings (shop_id, user_id, scheduled_at, vehicle_type, complaint, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		booking.ShopID,
		booking.UserID,
		booking.ScheduledAt,
		booking.VehicleType,
		booking.Complaint,
		booking.Status,
	).Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
}

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var booking domain.Booking
	if err := r.db.QueryRow(ctx, bookingSelect+` WHERE id=$1`, id).Scan(
		&booking.ID,
		&booking.ShopID,
		&booking.UserID,
		&booking.ScheduledAt,
		&booking.VehicleType,
		&booking.Complaint,
		&booking.Status,
		&booking.CreatedAt,
		&booking.UpdatedAt,
		&booking.AcceptedAt,
		&booking.RejectedAt,
		&booking.CanceledAt,
		&booking.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) ListByShop(ctx context.Context, shopID string, limit, offset int) ([]domain.Booking, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, bookingSelect+` WHERE shop_id=$1 ORDER BY scheduled_at ASC LIMIT $2 OFFSET $3`,
		shopID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Booking
	for rows.Next() {
		var booking domain.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.ShopID,
			&booking.UserID,
			&booking.ScheduledAt,
			&booking.VehicleType,
			&booking.Complaint,
			&booking.Status,
			&booking.CreatedAt,
			&booking.UpdatedAt,
			&booking.AcceptedAt,
			&booking.RejectedAt,
			&booking.CanceledAt,
			&booking.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, booking)
	}
	return result, rows.Err()
}

func (r *bookingRepository) AcceptPending(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE bookings SET status='ACCEPTED', accepted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='PENDING'`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *bookingRepository) MarkRejected(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE bookings SET status='REJECTED', rejected_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='PENDING'`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *bookingRepository) MarkCanceled(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE bookings SET status='CANCELED', canceled_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status IN ('PENDING','ACCEPTED')`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *bookingRepository) MarkCompleted(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE bookings SET status='COMPLETED', completed_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND status='ACCEPTED'`
	cmd, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}
