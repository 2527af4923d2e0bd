package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
)

// ShopRepository manages shop provider profiles.
type ShopRepository interface {
	Create(ctx context.Context, shop *domain.Shop) error
	GetByID(ctx context.Context, id string) (*domain.Shop, error)
	GetByOwnerID(ctx context.Context, ownerID string) (*domain.Shop, error)
	List(ctx context.Context, limit, offset int) ([]domain.Shop, error)
	DeleteByOwnerID(ctx context.Context, ownerID string) error
	WithTx(tx pgx.Tx) ShopRepository
}

type shopRepository struct {
	db DBTX
}

// NewShopRepository builds repository.
func NewShopRepository(db DBTX) ShopRepository {
	return &shopRepository{db: db}
}

func (r *shopRepository) WithTx(tx pgx.Tx) ShopRepository {
	return &shopRepository{db: tx}
}

const shopSelect = `
        SELECT id, owner_id, name, phone, address, lat, lng, services, photos, created_at, updated_at
        FROM shops`

func (r *shopRepository) Create(ctx context.Context, shop *domain.Shop) error {
	const query = `
        INSERT INTO shops (owner_id, name, phone, address, lat, lng, services, photos)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		shop.OwnerID,
		shop.Name,
		shop.Phone,
		shop.Address,
		shop.Lat,
		shop.Lng,
		shop.Services,
		shop.Photos,
	).Scan(&shop.ID, &shop.CreatedAt, &shop.UpdatedAt)
}

func (r *shopRepository) GetByID(ctx context.Context, id string) (*domain.Shop, error) {
	return r.fetchSingle(ctx, shopSelect+` WHERE id=$1`, id)
}

func (r *shopRepository) GetByOwnerID(ctx context.Context, ownerID string) (*domain.Shop, error) {
	return r.fetchSingle(ctx, shopSelect+` WHERE owner_id=$1`, ownerID)
}

func (r *shopRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Shop, error) {
	var shop domain.Shop
	if err := r.db.QueryRow(ctx, query, arg).Scan(
		&shop.ID,
		&shop.OwnerID,
		&shop.Name,
		&shop.Phone,
		&shop.Address,
		&shop.Lat,
		&shop.Lng,
		&shop.Services,
		&shop.Photos,
		&shop.CreatedAt,
		&shop.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &shop, nil
}

func (r *shopRepository) List(ctx context.Context, limit, offset int) ([]domain.Shop, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := r.db.Query(ctx, shopSelect+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Shop
	for rows.Next() {
		var shop domain.Shop
		if err := rows.Scan(
			&shop.ID,
			&shop.OwnerID,
			&shop.Name,
			&shop.Phone,
			&shop.Address,
			&shop.Lat,
			&shop.Lng,
			&shop.Services,
			&shop.Photos,
			&shop.CreatedAt,
			&shop.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, shop)
	}
	return result, rows.Err()
}

func (r *shopRepository) DeleteByOwnerID(ctx context.Context, ownerID string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM shops WHERE owner_id=$1`, ownerID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
