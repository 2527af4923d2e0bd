package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-marketplace/internal/api/dto"
	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/service"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// ProvidersHandler manages repairman and shop profile endpoints.
type ProvidersHandler struct {
	service *service.ProfileService
}

// NewProvidersHandler constructs handler.
func NewProvidersHandler(profileService *service.ProfileService) *ProvidersHandler {
	return &ProvidersHandler{service: profileService}
}

// BecomeRepairman POST /api/repairman.
func (h *ProvidersHandler) BecomeRepairman(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.BecomeRepairmanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Phone == "" {
		return apperrors.NewValidationError("phone required", nil)
	}

	repairman, err := h.service.BecomeRepairman(c.Context(), principal.User.ID, service.RepairmanInput{
		Phone:    req.Phone,
		Skills:   req.Skills,
		Services: req.Services,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": repairmanResponse(repairman)})
}

// ResignRepairman DELETE /api/repairman.
func (h *ProvidersHandler) ResignRepairman(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.ResignRepairman(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"resigned": true}})
}

// ChangePhone PUT /api/repairman/phone.
func (h *ProvidersHandler) ChangePhone(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.ChangePhoneRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Phone == "" {
		return apperrors.NewValidationError("phone required", nil)
	}

	repairman, err := h.service.ChangeRepairmanPhone(c.Context(), principal.User.ID, req.Phone)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": repairmanResponse(repairman)})
}

// OpenShop POST /api/shop.
func (h *ProvidersHandler) OpenShop(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.OpenShopRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Name == "" || req.Address == "" {
		return apperrors.NewValidationError("name and address required", nil)
	}

	shop, err := h.service.OpenShop(c.Context(), principal.User.ID, service.ShopInput{
		Name:     req.Name,
		Phone:    req.Phone,
		Address:  req.Address,
		Lat:      req.Lat,
		Lng:      req.Lng,
		Services: req.Services,
		Photos:   req.Photos,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": shopResponse(shop)})
}

// CloseShop DELETE /api/shop.
func (h *ProvidersHandler) CloseShop(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.CloseShop(c.Context(), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"closed": true}})
}

// MyShop GET /api/shop.
func (h *ProvidersHandler) MyShop(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	shop, err := h.service.GetShopByOwner(c.Context(), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": shopResponse(shop)})
}

// ListShops GET /api/shops.
func (h *ProvidersHandler) ListShops(c *fiber.Ctx) error {
	limit, offset := pageParams(c)
	shops, err := h.service.ListShops(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.ShopResponse, 0, len(shops))
	for i := range shops {
		items = append(items, shopResponse(&shops[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

func repairmanResponse(repairman *domain.Repairman) dto.RepairmanResponse {
	return dto.RepairmanResponse{
		ID:        repairman.ID,
		UserID:    repairman.UserID,
		Phone:     repairman.Phone,
		Skills:    repairman.Skills,
		Services:  repairman.Services,
		Verified:  repairman.Verified,
		CreatedAt: repairman.CreatedAt,
	}
}

func shopResponse(shop *domain.Shop) dto.ShopResponse {
	return dto.ShopResponse{
		ID:        shop.ID,
		OwnerID:   shop.OwnerID,
		Name:      shop.Name,
		Phone:     shop.Phone,
		Address:   shop.Address,
		Lat:       shop.Lat,
		Lng:       shop.Lng,
		Services:  shop.Services,
		Photos:    shop.Photos,
		CreatedAt: shop.CreatedAt,
	}
}
