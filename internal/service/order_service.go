package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/events"
	"github.com/spec-kit/repair-marketplace/internal/repository"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// OrderService coordinates the on-demand order workflow: creation fan-out,
// the first-writer-wins acceptance race and the remaining status
// transitions.
type OrderService struct {
	orders     repository.OrderRepository
	users      repository.UserRepository
	dispatcher events.Dispatcher
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	UserRepo   repository.UserRepository
	Dispatcher events.Dispatcher
}

// OrderCreateInput describes order creation payload.
type OrderCreateInput struct {
	Address     string
	Lat         float64
	Lng         float64
	VehicleType string
	Complaint   string
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		users:      deps.UserRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create persists a pending order and broadcasts it to providers. A
// requester may have at most one non-terminal order at a time; this is
// enforced here at query time, not by a database constraint.
func (s *OrderService) Create(ctx context.Context, requesterID string, input OrderCreateInput) (*domain.Order, error) {
	if strings.TrimSpace(input.Address) == "" {
		return nil, apperrors.NewValidationError("address required", map[string]any{"missing": []string{"address"}})
	}

	if active, err := s.orders.ActiveByRequester(ctx, requesterID); err == nil && active != nil {
		return nil, apperrors.NewConflict("an active order already exists", map[string]any{"order_id": active.ID})
	} else if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	order := &domain.Order{
		RequesterID: requesterID,
		Address:     strings.TrimSpace(input.Address),
		Lat:         input.Lat,
		Lng:         input.Lng,
		VehicleType: input.VehicleType,
		Complaint:   input.Complaint,
		Status:      domain.JobStatusPending,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventOrderCreated,
		RecordID: order.ID,
		Actor:    events.Actor{UserID: requesterID, Role: domain.RoleCustomer},
		Payload: events.OrderRequestPayload{
			OrderID:     order.ID,
			Address:     order.Address,
			Lat:         order.Lat,
			Lng:         order.Lng,
			VehicleType: order.VehicleType,
			Complaint:   order.Complaint,
			CreatedAt:   order.CreatedAt,
		},
	})
	return order, nil
}

// Get fetches one order.
func (s *OrderService) Get(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

// Accept resolves the acceptance race with a conditional update: the row
// moves to ACCEPTED only if it is still PENDING, so exactly one concurrent
// attempt succeeds and the rest fail with AlreadyTaken.
func (s *OrderService) Accept(ctx context.Context, orderID, providerID string) (*domain.Order, error) {
	provider, err := s.users.GetByID(ctx, providerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewUnauthorized("unknown provider")
		}
		return nil, apperrors.MapError(err)
	}
	if !provider.IsRepairman {
		return nil, apperrors.NewForbidden("only repairmen can accept orders")
	}

	accepted, err := s.orders.AcceptPending(ctx, orderID, providerID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !accepted {
		if _, err := s.orders.GetByID(ctx, orderID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("order", map[string]any{"id": orderID})
			}
			return nil, apperrors.MapError(err)
		}
		return nil, apperrors.NewAlreadyTaken("order")
	}

	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publishStatus(ctx, events.EventOrderAccepted, order.ID, providerID, domain.RoleRepairman,
		domain.JobStatusPending, domain.JobStatusAccepted)
	return order, nil
}

// Reject persists the rejection (HTTP path): only a pending order can be
// rejected, and the event also reaches the provider topic so other
// repairmen retract the stale request.
func (s *OrderService) Reject(ctx context.Context, orderID, providerID string) error {
	rejected, err := s.orders.MarkRejected(ctx, orderID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !rejected {
		if _, err := s.orders.GetByID(ctx, orderID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.NewNotFound("order", map[string]any{"id": orderID})
			}
			return apperrors.MapError(err)
		}
		return apperrors.NewConflict("order is not pending", nil)
	}
	s.publishStatus(ctx, events.EventOrderRejected, orderID, providerID, domain.RoleRepairman,
		domain.JobStatusPending, domain.JobStatusRejected)
	return nil
}

// RelayReject is the socket-path rejection: it rebroadcasts the rejection
// event without mutating persisted status, matching the historical wire
// behavior clients depend on.
func (s *OrderService) RelayReject(ctx context.Context, orderID, providerID string) error {
	if _, err := s.orders.GetByID(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("order", map[string]any{"id": orderID})
		}
		return apperrors.MapError(err)
	}
	s.publishStatus(ctx, events.EventOrderRejected, orderID, providerID, domain.RoleRepairman,
		domain.JobStatusPending, domain.JobStatusRejected)
	return nil
}

// Depart moves an accepted order to ON_THE_WAY. Only the assigned repairman
// may depart.
func (s *OrderService) Depart(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.RepairmanID == nil || *order.RepairmanID != actorID {
		return nil, apperrors.NewForbidden("only the assigned repairman can depart")
	}
	moved, err := s.orders.MarkOnTheWay(ctx, orderID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !moved {
		return nil, apperrors.NewConflict("order is not accepted", nil)
	}
	s.publishStatus(ctx, events.EventOrderDeparted, orderID, actorID, domain.RoleRepairman,
		domain.JobStatusAccepted, domain.JobStatusOnTheWay)
	order.Status = domain.JobStatusOnTheWay
	return order, nil
}

// Cancel moves a non-terminal order to CANCELED. Only a party to the order
// may cancel.
func (s *OrderService) Cancel(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.InvolvesUser(actorID) {
		return nil, apperrors.NewForbidden("not a party to this order")
	}
	canceled, err := s.orders.MarkCanceled(ctx, orderID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !canceled {
		return nil, apperrors.NewConflict("order already terminal", nil)
	}
	role := domain.RoleCustomer
	if order.RepairmanID != nil && *order.RepairmanID == actorID {
		role = domain.RoleRepairman
	}
	s.publishStatus(ctx, events.EventOrderCanceled, orderID, actorID, role,
		order.Status, domain.JobStatusCanceled)
	order.Status = domain.JobStatusCanceled
	return order, nil
}

// Finish completes an accepted or en-route order. Only a party may finish.
func (s *OrderService) Finish(ctx context.Context, orderID, actorID string) (*domain.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.InvolvesUser(actorID) {
		return nil, apperrors.NewForbidden("not a party to this order")
	}
	completed, err := s.orders.MarkCompleted(ctx, orderID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !completed {
		return nil, apperrors.NewConflict("order cannot be finished in current status", nil)
	}
	role := domain.RoleCustomer
	if order.RepairmanID != nil && *order.RepairmanID == actorID {
		role = domain.RoleRepairman
	}
	s.publishStatus(ctx, events.EventOrderCompleted, orderID, actorID, role,
		order.Status, domain.JobStatusCompleted)
	order.Status = domain.JobStatusCompleted
	return order, nil
}

// ListForRequester returns the requester's orders for the polling fallback.
func (s *OrderService) ListForRequester(ctx context.Context, requesterID string, limit, offset int) ([]domain.Order, error) {
	orders, err := s.orders.ListByRequester(ctx, requesterID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orders, nil
}

func (s *OrderService) publishStatus(ctx context.Context, eventType events.EventType, orderID, actorID string, role domain.SenderRole, from, to domain.JobStatus) {
	providerID := actorID
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		RecordID: orderID,
		Actor:    events.Actor{UserID: actorID, Role: role},
		Payload: events.StatusChangedPayload{
			OldStatus:  from,
			NewStatus:  to,
			ProviderID: &providerID,
		},
	})
}

func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
