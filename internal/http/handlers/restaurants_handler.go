package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/service"
)

// RestaurantsHandler serves public restaurant browsing.
type RestaurantsHandler struct {
	restaurants service.RestaurantService
}

func NewRestaurantsHandler(restaurants service.RestaurantService) *RestaurantsHandler {
	return &RestaurantsHandler{restaurants: restaurants}
}

func (h *RestaurantsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Get("/{slugID}", h.GetBySlug)
	return r
}

func (h *RestaurantsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := domain.RestaurantFilter{
		City: r.URL.Query().Get("city"),
	}
	if raw := r.URL.Query().Get("cuisine"); raw != "" {
		filter.Cuisine = strings.Split(raw, ",")
	}
	if raw := r.URL.Query().Get("price_level"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if n, err := strconv.Atoi(p); err == nil {
				filter.PriceLevels = append(filter.PriceLevels, n)
			}
		}
	}

	restaurants, err := h.restaurants.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}

	writeJSON(w, http.StatusOK, restaurants)
}

// ListByCategory lists the restaurants under a named category. Categories are
// cuisine tags addressed by name, so this is the cuisine filter on a browsable
// path.
func (h *RestaurantsHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	name := strings.ToLower(chi.URLParam(r, "name"))

	restaurants, err := h.restaurants.List(r.Context(), domain.RestaurantFilter{
		Cuisine: []string{name},
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}

	writeJSON(w, http.StatusOK, restaurants)
}

// GetBySlug resolves a "<slug>-<uuid>" path segment. The slug half is
// informational; an outdated one still lands on the right restaurant.
func (h *RestaurantsHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	restaurant, err := h.restaurants.ResolveSlug(r.Context(), chi.URLParam(r, "slugID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}
