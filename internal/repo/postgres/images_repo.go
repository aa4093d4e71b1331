package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablevine/reservations/internal/domain"
)

type ImageRepo interface {
	Insert(ctx context.Context, img *domain.RestaurantImage) (*domain.RestaurantImage, error)
	GetByID(ctx context.Context, restaurantID, imageID string) (*domain.RestaurantImage, error)
	SetPrimary(ctx context.Context, restaurantID, imageID string) (bool, error)
	UpdateMeta(ctx context.Context, restaurantID, imageID, altText string, displayOrder *int) (*domain.RestaurantImage, error)
	Delete(ctx context.Context, restaurantID, imageID string) (bool, error)
}

type ImageRepoImpl struct{ pool *pgxpool.Pool }

func NewImageRepo(pool *pgxpool.Pool) *ImageRepoImpl { return &ImageRepoImpl{pool: pool} }

const imageCols = `id, restaurant_id, blob_key, blob_url, alt_text, display_order, is_primary, file_size, created_at`

func (r *ImageRepoImpl) Insert(ctx context.Context, img *domain.RestaurantImage) (*domain.RestaurantImage, error) {
	// display_order continues from the current maximum; ties broken by insertion.
	const q = `INSERT INTO restaurant_images (
    restaurant_id, blob_key, blob_url, alt_text, display_order, is_primary, file_size
  ) VALUES ($1,$2,$3,$4,
    (SELECT COALESCE(MAX(display_order)+1, 0) FROM restaurant_images WHERE restaurant_id=$1),
    false, $5)
  RETURNING ` + imageCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.RestaurantImage
	err := r.pool.QueryRow(ctx, q,
		img.RestaurantID, img.BlobKey, img.BlobURL, img.AltText, img.FileSize,
	).Scan(
		&out.ID, &out.RestaurantID, &out.BlobKey, &out.BlobURL, &out.AltText,
		&out.DisplayOrder, &out.IsPrimary, &out.FileSize, &out.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ImageRepoImpl) GetByID(ctx context.Context, restaurantID, imageID string) (*domain.RestaurantImage, error) {
	const q = `SELECT ` + imageCols + ` FROM restaurant_images WHERE id=$1 AND restaurant_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.RestaurantImage
	err := r.pool.QueryRow(ctx, q, imageID, restaurantID).Scan(
		&out.ID, &out.RestaurantID, &out.BlobKey, &out.BlobURL, &out.AltText,
		&out.DisplayOrder, &out.IsPrimary, &out.FileSize, &out.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetPrimary clears the previous primary and promotes the new one in a single
// transaction, so at most one image per restaurant is ever primary and no
// reader observes zero primaries mid-flight.
func (r *ImageRepoImpl) SetPrimary(ctx context.Context, restaurantID, imageID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE restaurant_images SET is_primary=false WHERE restaurant_id=$1 AND is_primary=true`,
		restaurantID,
	); err != nil {
		return false, err
	}

	ct, err := tx.Exec(ctx,
		`UPDATE restaurant_images SET is_primary=true WHERE id=$1 AND restaurant_id=$2`,
		imageID, restaurantID,
	)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil
	}

	return true, tx.Commit(ctx)
}

func (r *ImageRepoImpl) UpdateMeta(ctx context.Context, restaurantID, imageID, altText string, displayOrder *int) (*domain.RestaurantImage, error) {
	const q = `UPDATE restaurant_images
	SET alt_text=$3, display_order=COALESCE($4, display_order)
	WHERE id=$1 AND restaurant_id=$2
	RETURNING ` + imageCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var out domain.RestaurantImage
	err := r.pool.QueryRow(ctx, q, imageID, restaurantID, altText, displayOrder).Scan(
		&out.ID, &out.RestaurantID, &out.BlobKey, &out.BlobURL, &out.AltText,
		&out.DisplayOrder, &out.IsPrimary, &out.FileSize, &out.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *ImageRepoImpl) Delete(ctx context.Context, restaurantID, imageID string) (bool, error) {
	const q = `DELETE FROM restaurant_images WHERE id=$1 AND restaurant_id=$2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	ct, err := r.pool.Exec(ctx, q, imageID, restaurantID)
	if err != nil {
		return false, err
	}
	return ct.RowsAffected() > 0, nil
}

var _ ImageRepo = (*ImageRepoImpl)(nil)
