package service

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/tablevine/reservations/internal/domain"
	"github.com/tablevine/reservations/internal/platform/blob"
	"github.com/tablevine/reservations/internal/repo/postgres"
	"github.com/tablevine/reservations/pkg/events"
	"github.com/tablevine/reservations/pkg/logger"
	"github.com/tablevine/reservations/pkg/slug"
)

type ImageUpload struct {
	FileName    string
	ContentType string
	Size        int64
	AltText     string
	Body        io.Reader
}

type RestaurantService interface {
	List(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error)
	GetByID(ctx context.Context, id string) (*domain.Restaurant, error)
	ResolveSlug(ctx context.Context, slugID string) (*domain.Restaurant, error)
	PathFor(r *domain.Restaurant) string

	Create(ctx context.Context, req *domain.RestaurantReq) (*domain.Restaurant, error)
	Update(ctx context.Context, id string, req *domain.RestaurantReq) (*domain.Restaurant, error)
	Delete(ctx context.Context, id string) error

	UploadImage(ctx context.Context, restaurantID string, up *ImageUpload) (*domain.RestaurantImage, error)
	PromotePrimary(ctx context.Context, restaurantID, imageID string) error
	UpdateImage(ctx context.Context, restaurantID, imageID, altText string, displayOrder *int) (*domain.RestaurantImage, error)
	DeleteImage(ctx context.Context, restaurantID, imageID string) error
}

type restaurantService struct {
	restaurants postgres.RestaurantRepo
	images      postgres.ImageRepo
	blobs       blob.Store
	bus         events.Publisher
	mediaBase   string
}

func NewRestaurantService(
	restaurants postgres.RestaurantRepo,
	images postgres.ImageRepo,
	blobs blob.Store,
	bus events.Publisher,
	mediaBase string,
) RestaurantService {
	return &restaurantService{
		restaurants: restaurants,
		images:      images,
		blobs:       blobs,
		bus:         bus,
		mediaBase:   mediaBase,
	}
}

func (s *restaurantService) List(ctx context.Context, filter domain.RestaurantFilter) ([]domain.Restaurant, error) {
	return s.restaurants.List(ctx, filter)
}

func (s *restaurantService) GetByID(ctx context.Context, id string) (*domain.Restaurant, error) {
	r, err := s.restaurants.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get restaurant: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

// ResolveSlug looks up a restaurant by its "<slug>-<uuid>" path segment. Only
// the identifier participates in resolution; a stale slug from an old URL
// still resolves to the renamed restaurant.
func (s *restaurantService) ResolveSlug(ctx context.Context, slugID string) (*domain.Restaurant, error) {
	_, id, err := slug.Decode(slugID)
	if err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *restaurantService) PathFor(r *domain.Restaurant) string {
	return slug.Encode(r.Name, r.ID)
}

func (s *restaurantService) Create(ctx context.Context, req *domain.RestaurantReq) (*domain.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return s.restaurants.Create(ctx, req)
}

func (s *restaurantService) Update(ctx context.Context, id string, req *domain.RestaurantReq) (*domain.Restaurant, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	r, err := s.restaurants.Update(ctx, id, req)
	if err != nil {
		return nil, fmt.Errorf("failed to update restaurant: %w", err)
	}
	if r == nil {
		return nil, domain.ErrNotFound
	}
	return r, nil
}

func (s *restaurantService) Delete(ctx context.Context, id string) error {
	ok, err := s.restaurants.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete restaurant: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

// UploadImage writes the blob first, then the row. If the row insert fails the
// blob is removed so the bucket does not accumulate orphans.
func (s *restaurantService) UploadImage(ctx context.Context, restaurantID string, up *ImageUpload) (*domain.RestaurantImage, error) {
	if _, err := s.GetByID(ctx, restaurantID); err != nil {
		return nil, err
	}

	ext := path.Ext(up.FileName)
	if ext == "" {
		ext = ".jpg"
	}
	key := fmt.Sprintf("restaurant-images/%s/%d%s", restaurantID, time.Now().UnixMilli(), ext)

	if err := s.blobs.Put(ctx, key, up.ContentType, up.Body); err != nil {
		return nil, fmt.Errorf("failed to store image blob: %w", err)
	}

	img, err := s.images.Insert(ctx, &domain.RestaurantImage{
		RestaurantID: restaurantID,
		BlobKey:      key,
		BlobURL:      s.mediaBase + "/" + key,
		AltText:      up.AltText,
		FileSize:     up.Size,
	})
	if err != nil {
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			logger.ErrorContext(ctx, "Failed to clean up orphaned blob", "error", delErr, "key", key)
		}
		return nil, fmt.Errorf("failed to save image: %w", err)
	}

	s.publishImageEvent(ctx, events.RestaurantImageUploaded, img)
	return img, nil
}

func (s *restaurantService) PromotePrimary(ctx context.Context, restaurantID, imageID string) error {
	ok, err := s.images.SetPrimary(ctx, restaurantID, imageID)
	if err != nil {
		return fmt.Errorf("failed to promote primary image: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return nil
}

func (s *restaurantService) UpdateImage(ctx context.Context, restaurantID, imageID, altText string, displayOrder *int) (*domain.RestaurantImage, error) {
	img, err := s.images.UpdateMeta(ctx, restaurantID, imageID, altText, displayOrder)
	if err != nil {
		return nil, fmt.Errorf("failed to update image: %w", err)
	}
	if img == nil {
		return nil, domain.ErrNotFound
	}
	return img, nil
}

// DeleteImage removes the row and purges the backing blob.
func (s *restaurantService) DeleteImage(ctx context.Context, restaurantID, imageID string) error {
	img, err := s.images.GetByID(ctx, restaurantID, imageID)
	if err != nil {
		return fmt.Errorf("failed to get image: %w", err)
	}
	if img == nil {
		return domain.ErrNotFound
	}

	ok, err := s.images.Delete(ctx, restaurantID, imageID)
	if err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}

	if err := s.blobs.Delete(ctx, img.BlobKey); err != nil && err != blob.ErrNotFound {
		logger.ErrorContext(ctx, "Failed to purge image blob", "error", err, "key", img.BlobKey)
	}

	s.publishImageEvent(ctx, events.RestaurantImageDeleted, img)
	return nil
}

func (s *restaurantService) publishImageEvent(ctx context.Context, subject string, img *domain.RestaurantImage) {
	ev := events.RestaurantImageEvent{
		RestaurantID: img.RestaurantID,
		ImageID:      img.ID,
		BlobKey:      img.BlobKey,
		OccurredAt:   time.Now(),
	}
	if err := s.bus.Publish(ctx, subject, ev); err != nil {
		logger.ErrorContext(ctx, "Failed to publish image event", "error", err, "subject", subject)
	}
}
