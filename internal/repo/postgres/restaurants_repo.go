package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablevine/reservations/internal/domain"
)

type RestaurantRepo interface {
	List(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error)
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	Create(ctx context.Context, in *domain.RestaurantReq) (*domain.Restaurant, error)
	Update(ctx context.Context, id string, in *domain.RestaurantReq) (*domain.Restaurant, error)
	Delete(ctx context.Context, id string) (bool, error)
}

type RestaurantRepoImpl struct{ pool *pgxpool.Pool }

func NewRestaurantRepo(pool *pgxpool.Pool) *RestaurantRepoImpl {
	return &RestaurantRepoImpl{pool: pool}
}

const restaurantCols = `id, name, city, cuisine, price_level, rating,
description, address, phone, website, opening_hours, created_at, updated_at`

func (r *RestaurantRepoImpl) List(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	q := `SELECT ` + restaurantCols + ` FROM restaurants`

	var where []string
	var args []any
	if filter.City != "" {
		args = append(args, "%"+filter.City+"%")
		where = append(where, fmt.Sprintf("city ILIKE $%d", len(args)))
	}
	if len(filter.Cuisine) > 0 {
		args = append(args, filter.Cuisine)
		where = append(where, fmt.Sprintf("cuisine && $%d", len(args)))
	}
	if len(filter.PriceLevels) > 0 {
		args = append(args, filter.PriceLevels)
		where = append(where, fmt.Sprintf("price_level = ANY($%d)", len(args)))
	}
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY rating DESC"

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rs []domain.Restaurant
	for rows.Next() {
		var t domain.Restaurant
		if err := scanRestaurant(rows, &t); err != nil {
			return nil, err
		}
		rs = append(rs, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range rs {
		images, err := r.imagesFor(ctx, rs[i].ID)
		if err != nil {
			return nil, err
		}
		rs[i].Images = images
	}
	return rs, nil
}

func (r *RestaurantRepoImpl) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	const q = `SELECT ` + restaurantCols + ` FROM restaurants WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Restaurant
	err := scanRestaurant(r.pool.QueryRow(ctx, q, id), &t)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	images, err := r.imagesFor(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.Images = images
	return &t, nil
}

func (r *RestaurantRepoImpl) Create(ctx context.Context, in *domain.RestaurantReq) (*domain.Restaurant, error) {
	const q = `INSERT INTO restaurants (
    name, city, cuisine, price_level, rating,
    description, address, phone, website, opening_hours
  ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
  RETURNING ` + restaurantCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Restaurant
	err := scanRestaurant(r.pool.QueryRow(ctx, q,
		in.Name, in.City, in.Cuisine, in.PriceLevel, in.Rating,
		in.Description, in.Address, in.Phone, in.Website, in.OpeningHours,
	), &t)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RestaurantRepoImpl) Update(ctx context.Context, id string, in *domain.RestaurantReq) (*domain.Restaurant, error) {
	const q = `UPDATE restaurants SET
    name=$2, city=$3, cuisine=$4, price_level=$5, rating=$6,
    description=$7, address=$8, phone=$9, website=$10, opening_hours=$11,
    updated_at=now()
  WHERE id=$1
  RETURNING ` + restaurantCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var t domain.Restaurant
	err := scanRestaurant(r.pool.QueryRow(ctx, q, id,
		in.Name, in.City, in.Cuisine, in.PriceLevel, in.Rating,
		in.Description, in.Address, in.Phone, in.Website, in.OpeningHours,
	), &t)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *RestaurantRepoImpl) Delete(ctx context.Context, id string) (bool, error) {
	const q = `DELETE FROM restaurants WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

func (r *RestaurantRepoImpl) imagesFor(ctx context.Context, restaurantID string) ([]domain.RestaurantImage, error) {
	const q = `SELECT id, restaurant_id, blob_key, blob_url, alt_text, display_order, is_primary, file_size, created_at
	FROM restaurant_images WHERE restaurant_id = $1
	ORDER BY display_order ASC, created_at ASC`

	rows, err := r.pool.Query(ctx, q, restaurantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var images []domain.RestaurantImage
	for rows.Next() {
		var img domain.RestaurantImage
		if err := rows.Scan(
			&img.ID, &img.RestaurantID, &img.BlobKey, &img.BlobURL, &img.AltText,
			&img.DisplayOrder, &img.IsPrimary, &img.FileSize, &img.CreatedAt,
		); err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(row rowScanner, t *domain.Restaurant) error {
	return row.Scan(
		&t.ID, &t.Name, &t.City, &t.Cuisine, &t.PriceLevel, &t.Rating,
		&t.Description, &t.Address, &t.Phone, &t.Website, &t.OpeningHours,
		&t.CreatedAt, &t.UpdatedAt,
	)
}

var _ RestaurantRepo = (*RestaurantRepoImpl)(nil)
