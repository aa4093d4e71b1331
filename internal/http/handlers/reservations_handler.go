package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/internal/service"
)

// ReservationsHandler serves the public reservation surface: anyone can create
// a reservation or look one up by id or confirmation code.
type ReservationsHandler struct {
	reservations service.ReservationService
}

func NewReservationsHandler(reservations service.ReservationService) *ReservationsHandler {
	return &ReservationsHandler{reservations: reservations}
}

func (h *ReservationsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Get("/code/{code}", h.GetByCode)
	return r
}

func (h *ReservationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateReservationReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	reservation, err := h.reservations.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, reservation)
}

func (h *ReservationsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		response.BadRequest(w, "Invalid reservation ID")
		return
	}

	reservation, err := h.reservations.GetByID(r.Context(), id)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}

func (h *ReservationsHandler) GetByCode(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	reservation, err := h.reservations.GetByCode(r.Context(), code)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reservation)
}
