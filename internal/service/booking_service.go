package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/repair-marketplace/internal/domain"
	"github.com/spec-kit/repair-marketplace/internal/events"
	"github.com/spec-kit/repair-marketplace/internal/repository"
	apperrors "github.com/spec-kit/repair-marketplace/pkg/util"
)

// BookingService coordinates scheduled shop appointments. Same acceptance
// discipline as orders, with the shop owner as the accepting provider.
type BookingService struct {
	bookings   repository.BookingRepository
	shops      repository.ShopRepository
	dispatcher events.Dispatcher
}

// BookingDependencies bundles repositories for the booking service.
type BookingDependencies struct {
	BookingRepo repository.BookingRepository
	ShopRepo    repository.ShopRepository
	Dispatcher  events.Dispatcher
}

// BookingCreateInput describes booking creation payload.
type BookingCreateInput struct {
	ShopID      string
	ScheduledAt time.Time
	VehicleType string
	Complaint   string
}

// NewBookingService constructs the service.
func NewBookingService(deps BookingDependencies) *BookingService {
	return &BookingService{
		bookings:   deps.BookingRepo,
		shops:      deps.ShopRepo,
		dispatcher: deps.Dispatcher,
	}
}

// Create persists a pending booking and notifies the shop.
func (s *BookingService) Create(ctx context.Context, userID string, input BookingCreateInput) (*domain.Booking, error) {
	missing := []string{}
	if input.ShopID == "" {
		missing = append(missing, "shopId")
	}
	if input.ScheduledAt.IsZero() {
		missing = append(missing, "scheduledAt")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"missing": missing})
	}

	shop, err := s.shops.GetByID(ctx, input.ShopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("shop", map[string]any{"id": input.ShopID})
		}
		return nil, apperrors.MapError(err)
	}

	booking := &domain.Booking{
		ShopID:      shop.ID,
		UserID:      userID,
		ScheduledAt: input.ScheduledAt,
		VehicleType: input.VehicleType,
		Complaint:   input.Complaint,
		Status:      domain.JobStatusPending,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventBookingCreated,
		RecordID: booking.ID,
		Actor:    events.Actor{UserID: userID, Role: domain.RoleCustomer},
		Payload: events.BookingRequestPayload{
			BookingID:   booking.ID,
			ShopID:      booking.ShopID,
			ScheduledAt: booking.ScheduledAt,
			VehicleType: booking.VehicleType,
			Complaint:   booking.Complaint,
			CreatedAt:   booking.CreatedAt,
		},
	})
	return booking, nil
}

// Get fetches one booking.
func (s *BookingService) Get(ctx context.Context, id string) (*domain.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("booking", map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return booking, nil
}

// Accept lets the owning shop take the booking. First writer wins via the
// conditional update; a second attempt fails with AlreadyTaken.
func (s *BookingService) Accept(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireShopOwner(ctx, booking.ShopID, actorID); err != nil {
		return nil, err
	}

	accepted, err := s.bookings.AcceptPending(ctx, bookingID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !accepted {
		return nil, apperrors.NewAlreadyTaken("booking")
	}
	s.publishStatus(ctx, events.EventBookingAccepted, bookingID, actorID, domain.RoleShopOwner,
		domain.JobStatusPending, domain.JobStatusAccepted)
	booking.Status = domain.JobStatusAccepted
	return booking, nil
}

// Reject declines a pending booking. Unlike orders, booking rejection is
// persisted on both paths.
func (s *BookingService) Reject(ctx context.Context, bookingID, actorID string) error {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return err
	}
	if err := s.requireShopOwner(ctx, booking.ShopID, actorID); err != nil {
		return err
	}

	rejected, err := s.bookings.MarkRejected(ctx, bookingID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if !rejected {
		return apperrors.NewConflict("booking is not pending", nil)
	}
	s.publishStatus(ctx, events.EventBookingRejected, bookingID, actorID, domain.RoleShopOwner,
		domain.JobStatusPending, domain.JobStatusRejected)
	return nil
}

// Cancel is available to the booking customer and the shop owner.
func (s *BookingService) Cancel(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	role := domain.RoleCustomer
	if booking.UserID != actorID {
		if err := s.requireShopOwner(ctx, booking.ShopID, actorID); err != nil {
			return nil, err
		}
		role = domain.RoleShopOwner
	}

	canceled, err := s.bookings.MarkCanceled(ctx, bookingID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !canceled {
		return nil, apperrors.NewConflict("booking already terminal", nil)
	}
	s.publishStatus(ctx, events.EventBookingCanceled, bookingID, actorID, role,
		booking.Status, domain.JobStatusCanceled)
	booking.Status = domain.JobStatusCanceled
	return booking, nil
}

// Finish completes an accepted booking; shop owner only.
func (s *BookingService) Finish(ctx context.Context, bookingID, actorID string) (*domain.Booking, error) {
	booking, err := s.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := s.requireShopOwner(ctx, booking.ShopID, actorID); err != nil {
		return nil, err
	}

	completed, err := s.bookings.MarkCompleted(ctx, bookingID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if !completed {
		return nil, apperrors.NewConflict("booking cannot be finished in current status", nil)
	}
	s.publishStatus(ctx, events.EventBookingCompleted, bookingID, actorID, domain.RoleShopOwner,
		booking.Status, domain.JobStatusCompleted)
	booking.Status = domain.JobStatusCompleted
	return booking, nil
}

// ListForShop returns a shop's bookings for the polling fallback.
func (s *BookingService) ListForShop(ctx context.Context, shopID string, limit, offset int) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByShop(ctx, shopID, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return bookings, nil
}

func (s *BookingService) requireShopOwner(ctx context.Context, shopID, actorID string) error {
	shop, err := s.shops.GetByID(ctx, shopID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("shop", map[string]any{"id": shopID})
		}
		return apperrors.MapError(err)
	}
	if shop.OwnerID != actorID {
		return apperrors.NewForbidden("not the shop owner")
	}
	return nil
}

func (s *BookingService) publishStatus(ctx context.Context, eventType events.EventType, bookingID, actorID string, role domain.SenderRole, from, to domain.JobStatus) {
	providerID := actorID
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		RecordID: bookingID,
		Actor:    events.Actor{UserID: actorID, Role: role},
		Payload: events.StatusChangedPayload{
			OldStatus:  from,
			NewStatus:  to,
			ProviderID: &providerID,
		},
	})
}

func (s *BookingService) publishEvent(ctx context.Context, event events.Event) {
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
