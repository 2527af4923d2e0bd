package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/repair-marketplace/internal/api/dto"
	"github.com/spec-kit/repair-marketplace/internal/auth"
	"github.com/spec-kit/repair-marketplace/internal/service"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// MessagesHandler exposes chat history for order rooms.
type MessagesHandler struct {
	chat   *service.ChatService
	orders *service.OrderService
}

// NewMessagesHandler constructs handler.
func NewMessagesHandler(chatService *service.ChatService, orderService *service.OrderService) *MessagesHandler {
	return &MessagesHandler{chat: chatService, orders: orderService}
}

// ListMessages GET /api/messages/:orderId.
func (h *MessagesHandler) ListMessages(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	order, err := h.orders.Get(c.Context(), c.Params("orderId"))
	if err != nil {
		return err
	}
	if !order.InvolvesUser(principal.User.ID) {
		return apperrors.NewForbidden("not a party to this order")
	}

	messages, err := h.chat.ListByOrder(c.Context(), order.ID)
	if err != nil {
		return err
	}
	items := make([]dto.MessageResponse, 0, len(messages))
	for _, msg := range messages {
		items = append(items, dto.MessageResponse{
			ID:         msg.ID,
			OrderID:    msg.OrderID,
			SenderID:   msg.SenderID,
			SenderRole: string(msg.SenderRole),
			Message:    msg.Body,
			CreatedAt:  msg.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
