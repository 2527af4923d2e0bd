package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/repository"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// ProfileService manages the provider extensions of a user: the repairman
// profile and the shop. Profile row and user flag always change inside one
// transaction so the "row exists implies flag is true" invariant has no
// inconsistency window.
type ProfileService struct {
	pool      repository.TxBeginner
	users     repository.UserRepository
	repairmen repository.RepairmanRepository
	shops     repository.ShopRepository
}

// ProfileDependencies bundles repositories for the profile service.
type ProfileDependencies struct {
	Pool          repository.TxBeginner
	UserRepo      repository.UserRepository
	RepairmanRepo repository.RepairmanRepository
	ShopRepo      repository.ShopRepository
}

// RepairmanInput describes the provider profile payload.
type RepairmanInput struct {
	Phone    string
	Skills   []string
	Services map[string]float64
}

// ShopInput describes the shop creation payload.
type ShopInput struct {
	Name     string
	Phone    string
	Address  string
	Lat      float64
	Lng      float64
	Services []string
	Photos   []string
}

// NewProfileService constructs the service.
func NewProfileService(deps ProfileDependencies) *ProfileService {
	return &ProfileService{
		pool:      deps.Pool,
		users:     deps.UserRepo,
		repairmen: deps.RepairmanRepo,
		shops:     deps.ShopRepo,
	}
}

// BecomeRepairman creates the repairman profile and flips the user flag in
// one transaction.
func (s *ProfileService) BecomeRepairman(ctx context.Context, userID string, input RepairmanInput) (*domain.Repairman, error) {
	if _, err := s.repairmen.GetByUserID(ctx, userID); err == nil {
		return nil, apperrors.NewConflict("already a repairman", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	repairman := &domain.Repairman{
		UserID:   userID,
		Phone:    input.Phone,
		Skills:   input.Skills,
		Services: input.Services,
	}
	err := repository.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repairmen.WithTx(tx).Create(ctx, repairman); err != nil {
			return err
		}
		return s.users.WithTx(tx).SetRepairmanFlag(ctx, userID, true)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return repairman, nil
}

// ResignRepairman removes the profile and clears the flag in one
// transaction.
func (s *ProfileService) ResignRepairman(ctx context.Context, userID string) error {
	err := repository.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.repairmen.WithTx(tx).DeleteByUserID(ctx, userID); err != nil {
			return err
		}
		return s.users.WithTx(tx).SetRepairmanFlag(ctx, userID, false)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("repairman", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ChangeRepairmanPhone updates the contact number and re-triggers
// verification.
func (s *ProfileService) ChangeRepairmanPhone(ctx context.Context, userID, phone string) (*domain.Repairman, error) {
	if phone == "" {
		return nil, apperrors.NewValidationError("phone required", map[string]any{"missing": []string{"phone"}})
	}
	repairman, err := s.repairmen.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("repairman", nil)
		}
		return nil, apperrors.MapError(err)
	}
	repairman.Phone = phone
	repairman.Verified = false
	if err := s.repairmen.Update(ctx, repairman); err != nil {
		return nil, apperrors.MapError(err)
	}
	return repairman, nil
}

// OpenShop creates the shop and flips the user flag in one transaction. At
// most one shop per owner.
func (s *ProfileService) OpenShop(ctx context.Context, ownerID string, input ShopInput) (*domain.Shop, error) {
	if input.Name == "" {
		return nil, apperrors.NewValidationError("name required", map[string]any{"missing": []string{"name"}})
	}
	if _, err := s.shops.GetByOwnerID(ctx, ownerID); err == nil {
		return nil, apperrors.NewConflict("owner already has a shop", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	shop := &domain.Shop{
		OwnerID:  ownerID,
		Name:     input.Name,
		Phone:    input.Phone,
		Address:  input.Address,
		Lat:      input.Lat,
		Lng:      input.Lng,
		Services: input.Services,
		Photos:   input.Photos,
	}
	err := repository.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.shops.WithTx(tx).Create(ctx, shop); err != nil {
			return err
		}
		return s.users.WithTx(tx).SetShopFlag(ctx, ownerID, true)
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return shop, nil
}

// CloseShop deletes the shop and clears the flag in one transaction.
func (s *ProfileService) CloseShop(ctx context.Context, ownerID string) error {
	err := repository.WithTx(ctx, s.pool, func(tx pgx.Tx) error {
		if err := s.shops.WithTx(tx).DeleteByOwnerID(ctx, ownerID); err != nil {
			return err
		}
		return s.users.WithTx(tx).SetShopFlag(ctx, ownerID, false)
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("shop", nil)
		}
		return apperrors.MapError(err)
	}
	return nil
}

// GetShopByOwner returns the caller's shop.
func (s *ProfileService) GetShopByOwner(ctx context.Context, ownerID string) (*domain.Shop, error) {
	shop, err := s.shops.GetByOwnerID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("shop", nil)
		}
		return nil, apperrors.MapError(err)
	}
	return shop, nil
}

// ListShops returns shops for customer browsing.
func (s *ProfileService) ListShops(ctx context.Context, limit, offset int) ([]domain.Shop, error) {
	shops, err := s.shops.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return shops, nil
}
