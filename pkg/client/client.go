// Package client is a small REST client for the reservations API, used by the
// booking flow and by anything else that talks to the service out of process.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tablevine/reservations/internal/domain"
)

type APIError struct {
	StatusCode int
	Message    string `json:"error"`
	Code       string `json:"code"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d (%s): %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	baseURL string
	http    *http.Client

	// Bearer token for admin calls; public calls leave it empty.
	token string
}

type Option func(*Client)

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) CreateReservation(ctx context.Context, req *domain.CreateReservationReq, idempotencyKey string) (*domain.Reservation, error) {
	var out domain.Reservation
	headers := map[string]string{}
	if idempotencyKey != "" {
		headers["Idempotency-Key"] = idempotencyKey
	}
	if err := c.do(ctx, http.MethodPost, "/v1/reservations", req, &out, headers); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReservation(ctx context.Context, id string) (*domain.Reservation, error) {
	var out domain.Reservation
	if err := c.do(ctx, http.MethodGet, "/v1/reservations/"+url.PathEscape(id), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReservationByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	var out domain.Reservation
	if err := c.do(ctx, http.MethodGet, "/v1/reservations/code/"+url.PathEscape(code), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListRestaurants(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	q := url.Values{}
	if filter.City != "" {
		q.Set("city", filter.City)
	}
	if len(filter.Cuisine) > 0 {
		q.Set("cuisine", strings.Join(filter.Cuisine, ","))
	}
	path := "/v1/restaurants"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out []domain.Restaurant
	if err := c.do(ctx, http.MethodGet, path, nil, &out, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetRestaurantBySlug(ctx context.Context, slugID string) (*domain.Restaurant, error) {
	var out domain.Restaurant
	if err := c.do(ctx, http.MethodGet, "/v1/restaurants/"+url.PathEscape(slugID), nil, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateReservationStatus requires an admin token.
func (c *Client) UpdateReservationStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	body := map[string]string{"status": string(status)}
	var out domain.Reservation
	path := "/v1/admin/reservations/" + url.PathEscape(id) + "/status"
	if err := c.do(ctx, http.MethodPut, path, body, &out, nil); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, headers map[string]string) error {
	var body *bytes.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: res.StatusCode}
		if err := json.NewDecoder(res.Body).Decode(apiErr); err != nil {
			apiErr.Message = res.Status
		}
		return apiErr
	}

	if out != nil {
		return json.NewDecoder(res.Body).Decode(out)
	}
	return nil
}
