package booking_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablevine/reservations/internal/booking"
	"github.com/tablevine/reservations/internal/domain"
)

type fakeBackend struct {
	mu        sync.Mutex
	createErr error
	statuses  []domain.ReservationStatus
	polls     int
	keys      []string
}

func (f *fakeBackend) CreateReservation(_ context.Context, req *domain.CreateReservationReq, idempotencyKey string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, idempotencyKey)
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &domain.Reservation{
		ID:               "30000000-0000-4000-8000-000000000001",
		ConfirmationCode: "TESTC001",
		RestaurantID:     req.RestaurantID,
		Status:           domain.ReservationPending,
		CustomerName:     req.CustomerName,
	}, nil
}

// GetReservation walks the scripted status sequence, sticking on the last one.
func (f *fakeBackend) GetReservation(_ context.Context, id string) (*domain.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.polls
	if idx >= len(f.statuses) {
		idx = len(f.statuses) - 1
	}
	f.polls++
	return &domain.Reservation{
		ID:               id,
		ConfirmationCode: "TESTC001",
		Status:           f.statuses[idx],
	}, nil
}

func bookingReq() *domain.CreateReservationReq {
	return &domain.CreateReservationReq{
		RestaurantID:    "550e8400-e29b-41d4-a716-446655440001",
		CustomerName:    "Ayesha Khan",
		CustomerPhone:   "+923001234567",
		CustomerEmail:   "ayesha@example.com",
		PartySize:       2,
		ReservationDate: "2026-09-15",
		ReservationTime: "19:30",
	}
}

func TestSubmit(t *testing.T) {
	backend := &fakeBackend{}
	flow := booking.NewFlow(backend)
	require.Equal(t, booking.StageForm, flow.Stage())

	res, err := flow.Submit(context.Background(), bookingReq(), "attempt-1")
	require.NoError(t, err)

	assert.Equal(t, booking.StageConfirmed, flow.Stage())
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Equal(t, []string{"attempt-1"}, backend.keys, "idempotency key travels with the request")
	assert.Same(t, res, flow.Reservation())
}

func TestSubmit_FailureRevertsToForm(t *testing.T) {
	backend := &fakeBackend{createErr: errors.New("server unavailable")}
	flow := booking.NewFlow(backend)

	_, err := flow.Submit(context.Background(), bookingReq(), "attempt-1")
	require.Error(t, err)

	assert.Equal(t, booking.StageForm, flow.Stage(), "failed submit returns to the form")
	assert.ErrorContains(t, flow.Err(), "server unavailable")
	assert.Nil(t, flow.Reservation())
}

func TestSubmit_OnlyFromForm(t *testing.T) {
	backend := &fakeBackend{}
	flow := booking.NewFlow(backend)

	_, err := flow.Submit(context.Background(), bookingReq(), "attempt-1")
	require.NoError(t, err)

	_, err = flow.Submit(context.Background(), bookingReq(), "attempt-2")
	require.Error(t, err)
	assert.Len(t, backend.keys, 1, "a confirmed flow must not resubmit")
}

func TestAwaitDecision_PollsUntilDecided(t *testing.T) {
	backend := &fakeBackend{statuses: []domain.ReservationStatus{
		domain.ReservationPending,
		domain.ReservationPending,
		domain.ReservationConfirmed,
	}}
	flow := booking.NewFlow(backend)
	_, err := flow.Submit(context.Background(), bookingReq(), "attempt-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := flow.AwaitDecision(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationConfirmed, res.Status)
	assert.Equal(t, 3, backend.polls, "polling stops at the first non-pending status")
	assert.Equal(t, domain.ReservationConfirmed, flow.Reservation().Status)
}

func TestAwaitDecision_Cancellation(t *testing.T) {
	backend := &fakeBackend{statuses: []domain.ReservationStatus{
		domain.ReservationPending,
		domain.ReservationCancelled,
	}}
	flow := booking.NewFlow(backend)
	_, err := flow.Submit(context.Background(), bookingReq(), "attempt-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := flow.AwaitDecision(ctx, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, domain.ReservationCancelled, res.Status)
}

func TestAwaitDecision_ContextEnds(t *testing.T) {
	backend := &fakeBackend{statuses: []domain.ReservationStatus{domain.ReservationPending}}
	flow := booking.NewFlow(backend)
	_, err := flow.Submit(context.Background(), bookingReq(), "attempt-1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	res, err := flow.AwaitDecision(ctx, 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, res, "the last observed record is returned even on timeout")
	assert.Equal(t, domain.ReservationPending, res.Status)
}

func TestAwaitDecision_WithoutSubmit(t *testing.T) {
	flow := booking.NewFlow(&fakeBackend{})

	_, err := flow.AwaitDecision(context.Background(), time.Millisecond)
	assert.ErrorIs(t, err, booking.ErrNoReservation)
}
