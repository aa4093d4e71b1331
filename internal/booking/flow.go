// Package booking drives the visitor-side reservation flow: collect the form,
// submit it, then watch the authoritative record until the restaurant decides.
// The confirmation wait is a real poll of the server-side status; nothing
// here fabricates a transition.
package booking

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/pkg/client"
)

type Stage string

const (
	StageForm       Stage = "form"
	StageProcessing Stage = "processing"
	StageConfirmed  Stage = "confirmed"
)

var ErrNoReservation = errors.New("no reservation submitted")

// Backend is the slice of the reservation API the flow needs. In production it
// is the REST client; tests hand in the service directly.
type Backend interface {
	CreateReservation(ctx context.Context, req *domain.CreateReservationReq, idempotencyKey string) (*domain.Reservation, error)
	GetReservation(ctx context.Context, id string) (*domain.Reservation, error)
}

var _ Backend = (*client.Client)(nil)

// Flow is single-use: one flow per booking attempt. The cached reservation is
// a convenience for rendering the confirmation view; the server-side record
// stays authoritative and is re-fetched whenever status matters.
type Flow struct {
	backend Backend

	mu          sync.Mutex
	stage       Stage
	reservation *domain.Reservation
	lastErr     error
}

func NewFlow(backend Backend) *Flow {
	return &Flow{backend: backend, stage: StageForm}
}

func (f *Flow) Stage() Stage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stage
}

// Err returns the error that sent the flow back to the form stage, if any.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Reservation returns the cached copy from Submit, keyed by its identifier.
func (f *Flow) Reservation() *domain.Reservation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reservation
}

// Submit moves form → processing → confirmed. On failure the flow reverts to
// the form stage with the error retained for display.
func (f *Flow) Submit(ctx context.Context, req *domain.CreateReservationReq, idempotencyKey string) (*domain.Reservation, error) {
	f.mu.Lock()
	if f.stage != StageForm {
		f.mu.Unlock()
		return nil, fmt.Errorf("cannot submit from stage %s", f.stage)
	}
	f.stage = StageProcessing
	f.mu.Unlock()

	reservation, err := f.backend.CreateReservation(ctx, req, idempotencyKey)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.stage = StageForm
		f.lastErr = err
		return nil, err
	}

	f.stage = StageConfirmed
	f.lastErr = nil
	f.reservation = reservation
	return reservation, nil
}

// AwaitDecision polls the authoritative reservation until its status leaves
// pending, or the context ends. It returns the final record it observed.
func (f *Flow) AwaitDecision(ctx context.Context, interval time.Duration) (*domain.Reservation, error) {
	f.mu.Lock()
	cached := f.reservation
	f.mu.Unlock()
	if cached == nil {
		return nil, ErrNoReservation
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		reservation, err := f.backend.GetReservation(ctx, cached.ID)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.reservation = reservation
		f.mu.Unlock()

		if reservation.Status != domain.ReservationPending {
			return reservation, nil
		}

		select {
		case <-ctx.Done():
			return reservation, ctx.Err()
		case <-ticker.C:
		}
	}
}
