package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// UserRepository encapsulates user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	MarkVerified(ctx context.Context, id string) error
	SetRepairmanFlag(ctx context.Context, id string, value bool) error
	SetShopFlag(ctx context.Context, id string, value bool) error
	WithTx(tx pgx.Tx) UserRepository
}

type userRepository struct {
	db DBTX
}

// NewUserRepository instantiates repository.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) WithTx(tx pgx.Tx) UserRepository {
	return &userRepository{db: tx}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, phone, password_hash, verified, is_repairman, has_shop)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Verified,
		user.IsRepairman,
		user.HasShop,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	const query = userSelect + ` WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const query = userSelect + ` WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

const userSelect = `
        SELECT id, name, email, phone, password_hash, verified, is_repairman, has_shop, created_at, updated_at
        FROM users`

func (r *userRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.User, error) {
	var user domain.User
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Phone,
		&user.PasswordHash,
		&user.Verified,
		&user.IsRepairman,
		&user.HasShop,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, phone=$3, password_hash=$4, verified=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.db.Exec(ctx, query,
		user.Name,
		user.Email,
		user.Phone,
		user.PasswordHash,
		user.Verified,
		user.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	return r.setFlag(ctx, "verified", id, true)
}

func (r *userRepository) SetRepairmanFlag(ctx context.Context, id string, value bool) error {
	return r.setFlag(ctx, "is_repairman", id, value)
}

func (r *userRepository) SetShopFlag(ctx context.Context, id string, value bool) error {
	return r.setFlag(ctx, "has_shop", id, value)
}

func (r *userRepository) setFlag(ctx context.Context, column, id string, value bool) error {
	// column is one of the fixed flag names above, never caller input.
	cmd, err := r.db.Exec(ctx, `UPDATE users SET `+column+`=$1, updated_at=NOW() WHERE id=$2`, value, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
