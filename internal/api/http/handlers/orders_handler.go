package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-marketplace/internal/api/dto"
	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/service"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// OrdersHandler manages live order endpoints.
type OrdersHandler struct {
	service *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

// CreateOrder POST /order/create.
func (h *OrdersHandler) CreateOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	order, err := h.service.Create(c.Context(), principal.User.ID, service.OrderCreateInput{
		Address:     req.Address,
		Lat:         req.Lat,
		Lng:         req.Lng,
		VehicleType: req.VehicleType,
		Complaint:   req.Complaint,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": orderResponse(order)})
}

// ListOrders GET /api/orders.
func (h *OrdersHandler) ListOrders(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	limit, offset := pageParams(c)
	orders, err := h.service.ListForRequester(c.Context(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, orderResponse(&orders[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetOrder GET /api/order/:id.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	order, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if !order.InvolvesUser(principal.User.ID) && !principal.IsRepairman {
		return apperrors.NewForbidden("not a party to this order")
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// AcceptOrder POST /order/accept/:id.
func (h *OrdersHandler) AcceptOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	order, err := h.service.Accept(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// RejectOrder POST /order/reject/:id.
func (h *OrdersHandler) RejectOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Reject(c.Context(), c.Params("id"), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"rejected": true}})
}

// CancelOrder POST /order/cancel/:id.
func (h *OrdersHandler) CancelOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	order, err := h.service.Cancel(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// DepartOrder POST /order/depart/:id.
func (h *OrdersHandler) DepartOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	order, err := h.service.Depart(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

// FinishOrder POST /order/finish/:id.
func (h *OrdersHandler) FinishOrder(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	order, err := h.service.Finish(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": orderResponse(order)})
}

func pageParams(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func orderResponse(order *domain.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:          order.ID,
		RequesterID: order.RequesterID,
		RepairmanID: order.RepairmanID,
		Address:     order.Address,
		Lat:         order.Lat,
		Lng:         order.Lng,
		VehicleType: order.VehicleType,
		Complaint:   order.Complaint,
		Status:      string(order.Status),
		CreatedAt:   order.CreatedAt,
		UpdatedAt:   order.UpdatedAt,
		AcceptedAt:  order.AcceptedAt,
		CompletedAt: order.CompletedAt,
	}
}
