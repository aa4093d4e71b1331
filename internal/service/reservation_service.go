package service

import (
	"context"
	"fmt"
	"time"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/repo/postgres"
	"github.com/tablevine/reservations/pkg/events"
	"github.com/tablevine/reservations/pkg/logger"
)

// ReservationService is the reservation state machine. Records are created
// pending by anyone; only the admin-gated Transition moves them to a terminal
// status. Terminal states are sticky: the only transition accepted out of one
// is a repeat of itself, which succeeds without touching the store again.
type ReservationService interface {
	Create(ctx context.Context, req *domain.CreateReservationReq) (*domain.Reservation, error)
	Transition(ctx context.Context, id string, target domain.ReservationStatus, changedBy string) (*domain.Reservation, error)
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetByCode(ctx context.Context, code string) (*domain.Reservation, error)
	List(ctx context.Context, status *domain.ReservationStatus, limit, offset int) ([]domain.Reservation, error)
}

type reservationService struct {
	reservations postgres.ReservationRepo
	restaurants  postgres.RestaurantRepo
	bus          events.Publisher
}

func NewReservationService(
	reservations postgres.ReservationRepo,
	restaurants postgres.RestaurantRepo,
	bus events.Publisher,
) ReservationService {
	return &reservationService{
		reservations: reservations,
		restaurants:  restaurants,
		bus:          bus,
	}
}

func (s *reservationService) Create(ctx context.Context, req *domain.CreateReservationReq) (*domain.Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	restaurant, err := s.restaurants.GetByID(ctx, req.RestaurantID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up restaurant: %w", err)
	}
	if restaurant == nil {
		return nil, &domain.ValidationError{Field: "restaurant_id", Reason: "unknown restaurant"}
	}

	reservation, err := s.reservations.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to create reservation: %w", err)
	}
	reservation.Restaurant = restaurant

	event := events.ReservationCreatedEvent{
		ReservationID:    reservation.ID,
		ConfirmationCode: reservation.ConfirmationCode,
		RestaurantID:     restaurant.ID,
		RestaurantName:   restaurant.Name,
		CustomerName:     reservation.CustomerName,
		CustomerEmail:    reservation.CustomerEmail,
		PartySize:        reservation.PartySize,
		ReservationDate:  reservation.ReservationDate,
		ReservationTime:  reservation.ReservationTime,
		CreatedAt:        reservation.CreatedAt,
	}
	if err := s.bus.Publish(ctx, events.ReservationCreated, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish reservation created event",
			"error", err, "reservation_id", reservation.ID)
	}

	return reservation, nil
}

func (s *reservationService) Transition(ctx context.Context, id string, target domain.ReservationStatus, changedBy string) (*domain.Reservation, error) {
	if target != domain.ReservationConfirmed && target != domain.ReservationCancelled {
		return nil, &domain.ValidationError{Field: "status", Reason: "must be confirmed or cancelled"}
	}

	existing, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if existing == nil {
		return nil, domain.ErrNotFound
	}

	// Repeating the current status is a no-op success.
	if existing.Status == target {
		return existing, nil
	}
	if existing.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{From: existing.Status, To: target}
	}

	updated, err := s.reservations.UpdateStatus(ctx, id, target)
	if err != nil {
		return nil, fmt.Errorf("failed to update reservation status: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	event := events.ReservationStatusChangedEvent{
		ReservationID:    updated.ID,
		ConfirmationCode: updated.ConfirmationCode,
		CustomerName:     updated.CustomerName,
		CustomerEmail:    updated.CustomerEmail,
		OldStatus:        string(existing.Status),
		NewStatus:        string(updated.Status),
		ChangedBy:        changedBy,
		ChangedAt:        time.Now(),
	}
	if updated.Restaurant != nil {
		event.RestaurantName = updated.Restaurant.Name
	}
	if err := s.bus.Publish(ctx, events.ReservationStatusChanged, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish status changed event",
			"error", err, "reservation_id", updated.ID)
	}

	return updated, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

func (s *reservationService) GetByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	res, err := s.reservations.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get reservation: %w", err)
	}
	if res == nil {
		return nil, domain.ErrNotFound
	}
	return res, nil
}

func (s *reservationService) List(ctx context.Context, status *domain.ReservationStatus, limit, offset int) ([]domain.Reservation, error) {
	if status != nil {
		return s.reservations.ListByStatus(ctx, *status, limit, offset)
	}
	return s.reservations.List(ctx, limit, offset)
}
