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

// BookingsHandler manages shop appointment endpoints.
type BookingsHandler struct {
	service *service.BookingService
}

// NewBookingsHandler constructs handler.
func NewBookingsHandler(bookingService *service.BookingService) *BookingsHandler {
	return &BookingsHandler{service: bookingService}
}

// CreateBooking POST /book/create.
func (h *BookingsHandler) CreateBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateBookingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	booking, err := h.service.Create(c.Context(), principal.User.ID, service.BookingCreateInput{
		ShopID:      req.ShopID,
		ScheduledAt: req.ScheduledAt,
		VehicleType: req.VehicleType,
		Complaint:   req.Complaint,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": bookingResponse(booking)})
}

// GetBooking GET /api/booking/:id.
func (h *BookingsHandler) GetBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	booking, err := h.service.Get(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	if booking.UserID != principal.User.ID && !principal.HasShop {
		return apperrors.NewForbidden("not a party to this booking")
	}
	return c.JSON(fiber.Map{"data": bookingResponse(booking)})
}

// ListShopBookings GET /api/shop/:id/bookings.
func (h *BookingsHandler) ListShopBookings(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	limit, offset := pageParams(c)
	bookings, err := h.service.ListForShop(c.Context(), c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	items := make([]dto.BookingResponse, 0, len(bookings))
	for i := range bookings {
		items = append(items, bookingResponse(&bookings[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AcceptBooking POST /book/accept/:id.
func (h *BookingsHandler) AcceptBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	booking, err := h.service.Accept(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bookingResponse(booking)})
}

// RejectBooking POST /book/reject/:id.
func (h *BookingsHandler) RejectBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	if err := h.service.Reject(c.Context(), c.Params("id"), principal.User.ID); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"rejected": true}})
}

// CancelBooking POST /book/cancel/:id.
func (h *BookingsHandler) CancelBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	booking, err := h.service.Cancel(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bookingResponse(booking)})
}

// FinishBooking POST /book/finish/:id.
func (h *BookingsHandler) FinishBooking(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	booking, err := h.service.Finish(c.Context(), c.Params("id"), principal.User.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": bookingResponse(booking)})
}

func bookingResponse(booking *domain.Booking) dto.BookingResponse {
	return dto.BookingResponse{
		ID:          booking.ID,
		ShopID:      booking.ShopID,
		UserID:      booking.UserID,
		ScheduledAt: booking.ScheduledAt,
		VehicleType: booking.VehicleType,
		Complaint:   booking.Complaint,
		Status:      string(booking.Status),
		CreatedAt:   booking.CreatedAt,
		UpdatedAt:   booking.UpdatedAt,
		AcceptedAt:  booking.AcceptedAt,
		CompletedAt: booking.CompletedAt,
	}
}
