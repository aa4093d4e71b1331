package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/http/handlers"
	"github.com/tablevine/reservations/internal/http/middleware"
	"github.com/tablevine/reservations/internal/http/response"
	"github.com/tablevine/reservations/pkg/auth"
)

const (
	jwtSecret     = "test-secret"
	adminEmail    = "ops@tablevine.io"
	customerEmail = "customer@example.com"
	restaurantID  = "550e8400-e29b-41d4-a716-446655440001"
)

var codePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// fakeReservationService keeps reservations in memory with the same transition
// rules the real service enforces.
type fakeReservationService struct {
	reservations map[string]*domain.Reservation
	nextID       int
}

func newFakeReservationService() *fakeReservationService {
	return &fakeReservationService{reservations: make(map[string]*domain.Reservation)}
}

func (f *fakeReservationService) Create(_ context.Context, req *domain.CreateReservationReq) (*domain.Reservation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.RestaurantID != restaurantID {
		return nil, &domain.ValidationError{Field: "restaurant_id", Reason: "unknown restaurant"}
	}
	f.nextID++
	now := time.Now()
	res := &domain.Reservation{
		ID:               fmt.Sprintf("30000000-0000-4000-8000-%012d", f.nextID),
		ConfirmationCode: fmt.Sprintf("TESTC0%02d", f.nextID),
		RestaurantID:     req.RestaurantID,
		Status:           domain.ReservationPending,
		CustomerName:     req.CustomerName,
		CustomerPhone:    req.CustomerPhone,
		CustomerEmail:    req.CustomerEmail,
		PartySize:        req.PartySize,
		ReservationDate:  req.ReservationDate,
		ReservationTime:  req.ReservationTime,
		SpecialRequests:  req.SpecialRequests,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	f.reservations[res.ID] = res
	out := *res
	return &out, nil
}

func (f *fakeReservationService) Transition(_ context.Context, id string, target domain.ReservationStatus, _ string) (*domain.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if res.Status == target {
		out := *res
		return &out, nil
	}
	if res.Status.IsTerminal() {
		return nil, &domain.InvalidTransitionError{From: res.Status, To: target}
	}
	res.Status = target
	res.UpdatedAt = time.Now()
	out := *res
	return &out, nil
}

func (f *fakeReservationService) GetByID(_ context.Context, id string) (*domain.Reservation, error) {
	res, ok := f.reservations[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *res
	return &out, nil
}

func (f *fakeReservationService) GetByCode(_ context.Context, code string) (*domain.Reservation, error) {
	for _, res := range f.reservations {
		if res.ConfirmationCode == code {
			out := *res
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeReservationService) List(_ context.Context, status *domain.ReservationStatus, _, _ int) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, res := range f.reservations {
		if status == nil || res.Status == *status {
			out = append(out, *res)
		}
	}
	return out, nil
}

type allowlist map[string]bool

func (a allowlist) IsAdmin(_ context.Context, email string) (bool, error) {
	return a[email], nil
}

// newTestServer wires the public and admin reservation routes the same way the
// api binary does, admin gate included.
func newTestServer(t *testing.T) (*httptest.Server, *fakeReservationService) {
	t.Helper()
	svc := newFakeReservationService()

	r := chi.NewRouter()
	r.Mount("/v1/reservations", handlers.NewReservationsHandler(svc).Routes())
	r.Route("/v1/admin", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(
				auth.NewJWTAuthenticator(jwtSecret),
				allowlist{adminEmail: true},
			))
			r.Mount("/reservations", handlers.NewAdminReservationsHandler(svc).Routes())
		})
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, svc
}

func bearerFor(t *testing.T, email string) string {
	t.Helper()
	token, err := auth.NewAccessToken(email, jwtSecret, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	return resp
}

func putStatus(t *testing.T, srv *httptest.Server, id, status, bearer string) *http.Response {
	t.Helper()
	body := bytes.NewReader([]byte(fmt.Sprintf(`{"status":%q}`, status)))
	req, err := http.NewRequest(http.MethodPut, srv.URL+"/v1/admin/reservations/"+id+"/status", body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeReservation(t *testing.T, resp *http.Response) domain.Reservation {
	t.Helper()
	defer resp.Body.Close()
	var out domain.Reservation
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func validBooking() *domain.CreateReservationReq {
	return &domain.CreateReservationReq{
		RestaurantID:    restaurantID,
		CustomerName:    "Ayesha Khan",
		CustomerPhone:   "+923001234567",
		CustomerEmail:   customerEmail,
		PartySize:       4,
		ReservationDate: "2026-09-15",
		ReservationTime: "19:30",
	}
}

func TestCreateReservation(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/reservations", validBooking())
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	res := decodeReservation(t, resp)
	assert.Equal(t, domain.ReservationPending, res.Status)
	assert.Regexp(t, codePattern, res.ConfirmationCode)
	assert.Equal(t, 4, res.PartySize)
}

func TestCreateReservation_MissingField(t *testing.T) {
	srv, svc := newTestServer(t)

	req := validBooking()
	req.CustomerEmail = ""
	resp := postJSON(t, srv.URL+"/v1/reservations", req)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, response.CodeInvalidInput, body.Code)
	assert.Contains(t, body.Error, "customer_email")
	assert.Empty(t, svc.reservations, "nothing may be persisted on validation failure")
}

func TestCreateReservation_InvalidJSON(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/v1/reservations", "application/json", bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetReservation(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))

	resp, err := http.Get(srv.URL + "/v1/reservations/" + created.ID)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byID := decodeReservation(t, resp)
	assert.Equal(t, created.ID, byID.ID)

	resp, err = http.Get(srv.URL + "/v1/reservations/code/" + created.ConfirmationCode)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	byCode := decodeReservation(t, resp)
	assert.Equal(t, created.ID, byCode.ID)
}

func TestGetReservation_BadID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/reservations/not-a-uuid")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/reservations/30000000-0000-4000-8000-000000000404")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAdminConfirmsReservation(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))

	resp := putStatus(t, srv, created.ID, "confirmed", bearerFor(t, adminEmail))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decodeReservation(t, resp)
	assert.Equal(t, domain.ReservationConfirmed, updated.Status)
}

// A customer holding a perfectly valid token must not be able to confirm their
// own reservation; the attempt leaves the record untouched.
func TestNonAdminCannotTransition(t *testing.T) {
	srv, svc := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))
	before := *svc.reservations[created.ID]

	resp := putStatus(t, srv, created.ID, "confirmed", bearerFor(t, customerEmail))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	after := svc.reservations[created.ID]
	assert.Equal(t, domain.ReservationPending, after.Status)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "a rejected attempt must not touch the record")
}

func TestTransition_BadID(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := putStatus(t, srv, "not-a-uuid", "confirmed", bearerFor(t, adminEmail))
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTransitionWithoutToken(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))

	resp := putStatus(t, srv, created.ID, "cancelled", "")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestTerminalTransitionConflicts(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))
	bearer := bearerFor(t, adminEmail)

	resp := putStatus(t, srv, created.ID, "cancelled", bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = putStatus(t, srv, created.ID, "confirmed", bearer)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var body response.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, response.CodeInvalidTransition, body.Code)
}

func TestRepeatTransitionIsNoOp(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))
	bearer := bearerFor(t, adminEmail)

	resp := putStatus(t, srv, created.ID, "confirmed", bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	resp = putStatus(t, srv, created.ID, "confirmed", bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	repeated := decodeReservation(t, resp)
	assert.Equal(t, domain.ReservationConfirmed, repeated.Status)
}

func TestAdminList(t *testing.T) {
	srv, _ := newTestServer(t)

	created := decodeReservation(t, postJSON(t, srv.URL+"/v1/reservations", validBooking()))
	bearer := bearerFor(t, adminEmail)

	resp := putStatus(t, srv, created.ID, "confirmed", bearer)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/v1/admin/reservations?status=confirmed", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", bearer)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var list []domain.Reservation
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
}
