package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/internal/service"
)

// AdminRestaurantsHandler covers restaurant CRUD and image management. All
// routes sit behind the admin gate.
type AdminRestaurantsHandler struct {
	restaurants    service.RestaurantService
	maxUploadBytes int64
}

func NewAdminRestaurantsHandler(restaurants service.RestaurantService, maxUploadBytes int64) *AdminRestaurantsHandler {
	return &AdminRestaurantsHandler{restaurants: restaurants, maxUploadBytes: maxUploadBytes}
}

func (h *AdminRestaurantsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/{id}/images", h.UploadImage)
	r.Put("/{id}/images/{imageID}", h.UpdateImage)
	r.Delete("/{id}/images/{imageID}", h.DeleteImage)
	return r
}

func (h *AdminRestaurantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.RestaurantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	restaurant, err := h.restaurants.Create(r.Context(), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, restaurant)
}

func (h *AdminRestaurantsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.RestaurantReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	restaurant, err := h.restaurants.Update(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, restaurant)
}

func (h *AdminRestaurantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.restaurants.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminRestaurantsHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.BadRequest(w, "Invalid or oversized upload")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	img, err := h.restaurants.UploadImage(r.Context(), chi.URLParam(r, "id"), &service.ImageUpload{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		AltText:     r.FormValue("alt_text"),
		Body:        file,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, img)
}

type updateImageReq struct {
	AltText      string `json:"alt_text"`
	DisplayOrder *int   `json:"display_order"`
	IsPrimary    bool   `json:"is_primary"`
}

func (h *AdminRestaurantsHandler) UpdateImage(w http.ResponseWriter, r *http.Request) {
	restaurantID := chi.URLParam(r, "id")
	imageID := chi.URLParam(r, "imageID")

	var req updateImageReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid JSON format")
		return
	}

	if req.IsPrimary {
		if err := h.restaurants.PromotePrimary(r.Context(), restaurantID, imageID); err != nil {
			writeDomainError(w, err)
			return
		}
	}

	img, err := h.restaurants.UpdateImage(r.Context(), restaurantID, imageID, req.AltText, req.DisplayOrder)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, img)
}

func (h *AdminRestaurantsHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	err := h.restaurants.DeleteImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "imageID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
