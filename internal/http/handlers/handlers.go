package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/pkg/slug"
)

func writeJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// writeDomainError maps service-layer errors onto the HTTP error taxonomy.
// Store failures stay opaque: the caller sees a 500 without internal detail.
func writeDomainError(w http.ResponseWriter, err error) {
	var validation *domain.ValidationError
	var transition *domain.InvalidTransitionError

	switch {
	case errors.As(err, &validation):
		response.BadRequest(w, validation.Error())
	case errors.As(err, &transition):
		response.InvalidTransition(w, transition.Error())
	case errors.Is(err, slug.ErrMalformedIdentifier):
		response.MalformedIdentifier(w, "Invalid restaurant path")
	case errors.Is(err, domain.ErrNotFound):
		response.NotFound(w, "Not found")
	case errors.Is(err, domain.ErrUnauthorized):
		response.Unauthorized(w, "Authentication required")
	case errors.Is(err, domain.ErrForbidden):
		response.Forbidden(w, "Access denied")
	default:
		response.InternalError(w, "Internal server error")
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0

	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	return limit, offset
}
