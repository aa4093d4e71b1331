package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/http/middleware"
	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/internal/service"
)

// AdminReservationsHandler lists reservations and applies status transitions.
// Every route here sits behind the admin gate; the handler itself never
// re-checks credentials.
type AdminReservationsHandler struct {
	reservations service.ReservationService
}

func NewAdminReservationsHandler(reservations service.ReservationService) *AdminReservationsHandler {
	return &AdminReservationsHandler{reservations: reservations}
}

func (h *AdminReservationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Put("/{id}/status", h.UpdateStatus)
	return r
}

func (h *AdminReservationsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)

	var statusPtr *domain.ReservationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		st, ok := domain.ParseReservationStatus(raw)
		if !ok {
			response.BadRequest(w, "Invalid status parameter")
			return
		}
		statusPtr = &st
	}

	reservations, err := h.reservations.List(r.Context(), statusPtr, limit, offset)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if reservations == nil {
		reservations = []domain.Reservation{}
	}

	writeJSON(w, http.StatusOK, reservations)
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *AdminReservationsHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(w, "Invalid reservation ID")
		return
	}

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	target, ok := domain.ParseReservationStatus(req.Status)
	if !ok {
		response.BadRequest(w, "Unknown status")
		return
	}

	updated, err := h.reservations.Transition(r.Context(), id, target, middleware.AdminEmail(r))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updated)
}
