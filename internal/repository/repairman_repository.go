package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// RepairmanRepository manages repairman provider profiles.
type RepairmanRepository interface {
	Create(ctx context.Context, repairman *domain.Repairman) error
	GetByUserID(ctx context.Context, userID string) (*domain.Repairman, error)
	Update(ctx context.Context, repairman *domain.Repairman) error
	DeleteByUserID(ctx context.Context, userID string) error
	WithTx(tx pgx.Tx) RepairmanRepository
}

type repairmanRepository struct {
	db DBTX
}

// NewRepairmanRepository builds repository.
func NewRepairmanRepository(db DBTX) RepairmanRepository {
	return &repairmanRepository{db: db}
}

func (r *repairmanRepository) WithTx(tx pgx.Tx) RepairmanRepository {
	return &repairmanRepository{db: tx}
}

func (r *repairmanRepository) Create(ctx context.Context, repairman *domain.Repairman) error {
	const query = `
        INSERT INTO repairmen (user_id, phone, skills, services, verified)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		repairman.UserID,
		repairman.Phone,
		repairman.Skills,
		repairman.Services,
		repairman.Verified,
	).Scan(&repairman.ID, &repairman.CreatedAt, &repairman.UpdatedAt)
}

func (r *repairmanRepository) GetByUserID(ctx context.Context, userID string) (*domain.Repairman, error) {
	const query = `
        SELECT id, user_id, phone, skills, services, verified, created_at, updated_at
        FROM repairmen WHERE user_id=$1`
	var repairman domain.Repairman
	if err := r.db.QueryRow(ctx, query, userID).Scan(
		&repairman.ID,
		&repairman.UserID,
		&repairman.Phone,
		&repairman.Skills,
		&repairman.Services,
		&repairman.Verified,
		&repairman.CreatedAt,
		&repairman.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &repairman, nil
}

func (r *repairmanRepository) Update(ctx context.Context, repairman *domain.Repairman) error {
	const query = `
        UPDATE repairmen SET phone=$1, skills=$2, services=$3, verified=$4, updated_at=NOW()
        WHERE user_id=$5`
	cmd, err := r.db.Exec(ctx, query,
		repairman.Phone,
		repairman.Skills,
		repairman.Services,
		repairman.Verified,
		repairman.UserID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *repairmanRepository) DeleteByUserID(ctx context.Context, userID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM repairmen WHERE user_id=$1`, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
