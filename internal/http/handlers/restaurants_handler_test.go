package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/http/handlers"
	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/internal/service"
	"github.com/tablevine/reservations/pkg/slug"
)

// fakeRestaurantService serves the read-only browsing surface; the mutating
// methods are never reached by these routes.
type fakeRestaurantService struct {
	restaurants map[string]*domain.Restaurant
	lastFilter  domain.RestaurantFilter
}

func newFakeRestaurantService() *fakeRestaurantService {
	return &fakeRestaurantService{restaurants: make(map[string]*domain.Restaurant)}
}

func (f *fakeRestaurantService) List(_ context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	f.lastFilter = filter
	var out []domain.Restaurant
	for _, r := range f.restaurants {
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRestaurantService) GetByID(_ context.Context, id string) (*domain.Restaurant, error) {
	r, ok := f.restaurants[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *r
	return &out, nil
}

func (f *fakeRestaurantService) ResolveSlug(ctx context.Context, slugID string) (*domain.Restaurant, error) {
	_, id, err := slug.Decode(slugID)
	if err != nil {
		return nil, err
	}
	return f.GetByID(ctx, id)
}

func (f *fakeRestaurantService) PathFor(r *domain.Restaurant) string {
	return slug.Encode(r.Name, r.ID)
}

func (f *fakeRestaurantService) Create(context.Context, *domain.RestaurantReq) (*domain.Restaurant, error) {
	panic("not wired in these tests")
}

func (f *fakeRestaurantService) Update(context.Context, string, *domain.RestaurantReq) (*domain.Restaurant, error) {
	panic("not wired in these tests")
}

func (f *fakeRestaurantService) Delete(context.Context, string) error {
	panic("not wired in these tests")
}

func (f *fakeRestaurantService) UploadImage(context.Context, string, *service.ImageUpload) (*domain.RestaurantImage, error) {
	panic("not wired in these tests")
}

func (f *fakeRestaurantService) PromotePrimary(context.Context, string, string) error {
	panic("not wired in these tests")
}

func (f *fakeRestaurantService) UpdateImage(context.Context, string, string, string, *int) (*domain.RestaurantImage, error) {
	panic("not wired in these tests")
}

func (f *fakeRestaurantService) DeleteImage(context.Context, string, string) error {
	panic("not wired in these tests")
}

func newRestaurantsServer(t *testing.T) (*httptest.Server, *fakeRestaurantService) {
	t.Helper()
	svc := newFakeRestaurantService()
	svc.restaurants[restaurantID] = &domain.Restaurant{
		ID:      restaurantID,
		Name:    "Kolachi Seaview",
		City:    "Karachi",
		Cuisine: []string{"bbq", "pakistani"},
	}

	h := handlers.NewRestaurantsHandler(svc)
	r := chi.NewRouter()
	r.Mount("/v1/restaurants", h.Routes())
	r.Get("/v1/categories/{name}/restaurants", h.ListByCategory)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestListRestaurants_Filters(t *testing.T) {
	srv, svc := newRestaurantsServer(t)

	resp, err := http.Get(srv.URL + "/v1/restaurants?city=Karachi&cuisine=bbq,seafood&price_level=2,3")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "Karachi", svc.lastFilter.City)
	assert.Equal(t, []string{"bbq", "seafood"}, svc.lastFilter.Cuisine)
	assert.Equal(t, []int{2, 3}, svc.lastFilter.PriceLevels)

	var list []domain.Restaurant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, "Kolachi Seaview", list[0].Name)
}

func TestListRestaurantsByCategory(t *testing.T) {
	srv, svc := newRestaurantsServer(t)

	resp, err := http.Get(srv.URL + "/v1/categories/BBQ/restaurants")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"bbq"}, svc.lastFilter.Cuisine, "the category name becomes a lowercased cuisine filter")

	var list []domain.Restaurant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
}

func TestGetRestaurantBySlug(t *testing.T) {
	srv, _ := newRestaurantsServer(t)

	resp, err := http.Get(srv.URL + "/v1/restaurants/kolachi-seaview-" + restaurantID)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var r domain.Restaurant
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&r))
	assert.Equal(t, restaurantID, r.ID)
}

// A stale slug from before a rename still resolves; only the id matters.
func TestGetRestaurantBySlug_StaleSlug(t *testing.T) {
	srv, _ := newRestaurantsServer(t)

	resp, err := http.Get(srv.URL + "/v1/restaurants/old-name-" + restaurantID)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestGetRestaurantBySlug_Malformed(t *testing.T) {
	srv, _ := newRestaurantsServer(t)

	resp, err := http.Get(srv.URL + "/v1/restaurants/no-trailing-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, response.CodeMalformedIdentifier, body.Code)
}

func TestGetRestaurantBySlug_UnknownID(t *testing.T) {
	srv, _ := newRestaurantsServer(t)

	resp, err := http.Get(srv.URL + "/v1/restaurants/gone-550e8400-e29b-41d4-a716-446655449999")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
