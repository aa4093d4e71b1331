package postgres

import (
	"context"
	"crypto/rand"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablevine/reservations/internal/domain"
)

type ReservationRepo interface {
	Create(ctx context.Context, in *domain.CreateReservationReq) (*domain.Reservation, error)
	GetByID(ctx context.Context, id string) (*domain.Reservation, error)
	GetByCode(ctx context.Context, code string) (*domain.Reservation, error)
	UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error)
	List(ctx context.Context, limit, offset int) ([]domain.Reservation, error)
	ListByStatus(ctx context.Context, status domain.ReservationStatus, limit, offset int) ([]domain.Reservation, error)
}

type ReservationRepoImpl struct{ pool *pgxpool.Pool }

func NewReservationRepo(pool *pgxpool.Pool) *ReservationRepoImpl {
	return &ReservationRepoImpl{pool: pool}
}

const reservationCols = `r.id, r.confirmation_code, r.restaurant_id, r.status,
r.customer_name, r.customer_phone, r.customer_email,
r.party_size, r.reservation_date, r.reservation_time, r.special_requests,
r.created_at, r.updated_at`

const restaurantJoinCols = `t.id, t.name, t.city, t.cuisine, t.price_level, t.rating,
t.description, t.address, t.phone, t.website, t.opening_hours, t.created_at, t.updated_at`

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// newConfirmationCode draws 8 characters uniformly from the base-36 alphabet.
// Bytes at or above the largest multiple of 36 are rejected so no character is
// favored. Uniqueness is enforced by the store; Create retries on collision.
func newConfirmationCode() (string, error) {
	const limit = 252 // 7 * 36; bytes past this would skew the draw
	code := make([]byte, 0, 8)
	buf := make([]byte, 16)
	for len(code) < 8 {
		if _, err := rand.Read(buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			code = append(code, codeAlphabet[int(b)%len(codeAlphabet)])
			if len(code) == 8 {
				break
			}
		}
	}
	return string(code), nil
}

const codeRetries = 3

func (r *ReservationRepoImpl) Create(ctx context.Context, in *domain.CreateReservationReq) (*domain.Reservation, error) {
	const q = `INSERT INTO reservations (
    confirmation_code, restaurant_id, status,
    customer_name, customer_phone, customer_email,
    party_size, reservation_date, reservation_time, special_requests
  ) VALUES ($1,$2,'pending',$3,$4,$5,$6,$7,$8,$9)
  RETURNING id, confirmation_code, restaurant_id, status,
    customer_name, customer_phone, customer_email,
    party_size, reservation_date, reservation_time, special_requests,
    created_at, updated_at`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var lastErr error
	for attempt := 0; attempt < codeRetries; attempt++ {
		code, err := newConfirmationCode()
		if err != nil {
			return nil, err
		}

		var res domain.Reservation
		err = r.pool.QueryRow(ctx, q, code, in.RestaurantID,
			in.CustomerName, in.CustomerPhone, in.CustomerEmail,
			in.PartySize, in.ReservationDate, in.ReservationTime, in.SpecialRequests,
		).Scan(
			&res.ID, &res.ConfirmationCode, &res.RestaurantID, &res.Status,
			&res.CustomerName, &res.CustomerPhone, &res.CustomerEmail,
			&res.PartySize, &res.ReservationDate, &res.ReservationTime, &res.SpecialRequests,
			&res.CreatedAt, &res.UpdatedAt,
		)
		if err == nil {
			return &res, nil
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (r *ReservationRepoImpl) GetByID(ctx context.Context, id string) (*domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + `, ` + restaurantJoinCols + `
	FROM reservations r
	JOIN restaurants t ON t.id = r.restaurant_id
	WHERE r.id = $1`
	return r.getOne(ctx, q, id)
}

func (r *ReservationRepoImpl) GetByCode(ctx context.Context, code string) (*domain.Reservation, error) {
	const q = `SELECT ` + reservationCols + `, ` + restaurantJoinCols + `
	FROM reservations r
	JOIN restaurants t ON t.id = r.restaurant_id
	WHERE r.confirmation_code = $1`
	return r.getOne(ctx, q, code)
}

func (r *ReservationRepoImpl) getOne(ctx context.Context, q string, arg any) (*domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var res domain.Reservation
	var rest domain.Restaurant
	err := r.pool.QueryRow(ctx, q, arg).Scan(
		&res.ID, &res.ConfirmationCode, &res.RestaurantID, &res.Status,
		&res.CustomerName, &res.CustomerPhone, &res.CustomerEmail,
		&res.PartySize, &res.ReservationDate, &res.ReservationTime, &res.SpecialRequests,
		&res.CreatedAt, &res.UpdatedAt,
		&rest.ID, &rest.Name, &rest.City, &rest.Cuisine, &rest.PriceLevel, &rest.Rating,
		&rest.Description, &rest.Address, &rest.Phone, &rest.Website, &rest.OpeningHours,
		&rest.CreatedAt, &rest.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	res.Restaurant = &rest
	return &res, nil
}

func (r *ReservationRepoImpl) UpdateStatus(ctx context.Context, id string, status domain.ReservationStatus) (*domain.Reservation, error) {
	const q = `UPDATE reservations SET status = $2, updated_at = now() WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id, status)
	if err != nil {
		return nil, err
	}
	if ct.RowsAffected() == 0 {
		return nil, nil
	}
	return r.GetByID(ctx, id)
}

func (r *ReservationRepoImpl) List(ctx context.Context, limit, offset int) ([]domain.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + reservationCols + `, ` + restaurantJoinCols + `
	FROM reservations r
	JOIN restaurants t ON t.id = r.restaurant_id
	ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`
	return r.listQuery(ctx, q, limit, offset)
}

func (r *ReservationRepoImpl) ListByStatus(ctx context.Context, status domain.ReservationStatus, limit, offset int) ([]domain.Reservation, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	const q = `SELECT ` + reservationCols + `, ` + restaurantJoinCols + `
	FROM reservations r
	JOIN restaurants t ON t.id = r.restaurant_id
	WHERE r.status = $3
	ORDER BY r.created_at DESC LIMIT $1 OFFSET $2`
	return r.listQuery(ctx, q, limit, offset, status)
}

func (r *ReservationRepoImpl) listQuery(ctx context.Context, q string, limit, offset int, extra ...any) ([]domain.Reservation, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	args := append([]any{limit, offset}, extra...)
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs := make([]domain.Reservation, 0, limit)
	for rows.Next() {
		var res domain.Reservation
		var rest domain.Restaurant
		if err := rows.Scan(
			&res.ID, &res.ConfirmationCode, &res.RestaurantID, &res.Status,
			&res.CustomerName, &res.CustomerPhone, &res.CustomerEmail,
			&res.PartySize, &res.ReservationDate, &res.ReservationTime, &res.SpecialRequests,
			&res.CreatedAt, &res.UpdatedAt,
			&rest.ID, &rest.Name, &rest.City, &rest.Cuisine, &rest.PriceLevel, &rest.Rating,
			&rest.Description, &rest.Address, &rest.Phone, &rest.Website, &rest.OpeningHours,
			&rest.CreatedAt, &rest.UpdatedAt,
		); err != nil {
			return nil, err
		}
		res.Restaurant = &rest
		rs = append(rs, res)
	}
	return rs, rows.Err()
}

var _ ReservationRepo = (*ReservationRepoImpl)(nil)
