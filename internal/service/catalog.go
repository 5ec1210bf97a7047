package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/events"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/internal/search"
	"github.com/Skotchmaster/art_shop/internal/storage"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

type MediaStore interface {
	ResolveURL(ctx context.Context, ref string) (string, error)
	PresignUpload(ctx context.Context, contentType string) (storage.Upload, error)
}

// ProductView is a product with its media references resolved.
type ProductView struct {
	models.Product
	ImageURL *string
	VideoURL *string
}

type ProductInput struct {
	Title       string
	Description string
	Price       *int64
	ImageRef    *string
	VideoRef    *string
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Media  MediaStore
	Events events.Publisher
	Index  search.Indexer
}

func NewCatalogService(r *repo.GormRepo, media MediaStore, pub events.Publisher, idx search.Indexer) *CatalogService {
	if media == nil {
		media = storage.Disabled{}
	}
	if pub == nil {
		pub = events.Nop{}
	}
	if idx == nil {
		idx = search.Nop{}
	}
	return &CatalogService{Repo: r, Media: media, Events: pub, Index: idx}
}

func (s *CatalogService) ListProducts(ctx context.Context, status string) ([]ProductView, error) {
	var filter *models.ProductStatus
	if status != "" {
		st := models.ProductStatus(status)
		if !st.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		filter = &st
	}

	items, err := s.Repo.ListProducts(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items), nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*ProductView, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}
	v := s.view(ctx, *p)
	return &v, nil
}

// GetProducts resolves ids in input order. Unknown ids are left out.
func (s *CatalogService) GetProducts(ctx context.Context, ids []uuid.UUID) ([]ProductView, error) {
	items, err := s.Repo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, items), nil
}

func (s *CatalogService) CreateProduct(ctx context.Context, admin AdminCapability, in ProductInput) (*ProductView, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	p, err := s.Repo.CreateProduct(ctx, &models.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		ImageRef:    emptyToNil(in.ImageRef),
		VideoRef:    emptyToNil(in.VideoRef),
		Status:      models.ProductAvailable,
		CreatedBy:   admin.UserID,
	})
	if err != nil {
		return nil, err
	}

	s.afterChange(ctx, *p, events.ProductCreated)
	v := s.view(ctx, *p)
	return &v, nil
}

func (s *CatalogService) UpdateProduct(ctx context.Context, admin AdminCapability, id uuid.UUID, in ProductInput) (*ProductView, error) {
	if err := validateProduct(in); err != nil {
		return nil, err
	}

	p, err := s.Repo.UpdateProduct(ctx, id, models.Product{
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       *in.Price,
		ImageRef:    emptyToNil(in.ImageRef),
		VideoRef:    emptyToNil(in.VideoRef),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return nil, err
	}

	logging.FromContext(ctx).Info("product_updated", "product_id", id, "admin_user_id", admin.UserID)
	s.afterChange(ctx, *p, events.ProductUpdated)
	v := s.view(ctx, *p)
	return &v, nil
}

// MarkSold is idempotent: marking a sold product again succeeds.
func (s *CatalogService) MarkSold(ctx context.Context, admin AdminCapability, id uuid.UUID) error {
	changed, err := s.Repo.MarkSold(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		return err
	}
	if !changed {
		return nil
	}

	logging.FromContext(ctx).Info("product_marked_sold", "product_id", id, "admin_user_id", admin.UserID)
	if p, err := s.Repo.GetProduct(ctx, id); err == nil {
		s.afterChange(ctx, *p, events.ProductSold)
	}
	return nil
}

func (s *CatalogService) GenerateUploadURL(ctx context.Context, _ AdminCapability, contentType string) (storage.Upload, error) {
	up, err := s.Media.PresignUpload(ctx, contentType)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedContentType) {
			return storage.Upload{}, fmt.Errorf("%w: %v", ErrValidation, err)
		}
		return storage.Upload{}, fmt.Errorf("%w: %v", ErrExternalService, err)
	}
	return up, nil
}

// IndexAll pushes every product into the search index.
func (s *CatalogService) IndexAll(ctx context.Context) (int, error) {
	items, err := s.Repo.ListProducts(ctx, nil)
	if err != nil {
		return 0, err
	}
	for i, p := range items {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			return i, err
		}
	}
	return len(items), nil
}

// afterChange keeps the search index and the event stream in sync. Both are
// best effort; the database is the source of truth.
func (s *CatalogService) afterChange(ctx context.Context, p models.Product, eventType string) {
	l := logging.FromContext(ctx)

	if err := s.Index.IndexProduct(ctx, p); err != nil {
		l.Warn("product_index_error", "product_id", p.ID, "error", err)
	}

	ev := events.ProductEvent{
		Type:       eventType,
		ProductID:  p.ID,
		Title:      p.Title,
		Price:      p.Price,
		Status:     string(p.Status),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.Events.PublishEvent(ctx, events.TopicProducts, p.ID.String(), ev); err != nil {
		l.Warn("product_event_error", "product_id", p.ID, "event", eventType, "error", err)
	}
}

func (s *CatalogService) views(ctx context.Context, items []models.Product) []ProductView {
	out := make([]ProductView, 0, len(items))
	for _, p := range items {
		out = append(out, s.view(ctx, p))
	}
	return out
}

func (s *CatalogService) view(ctx context.Context, p models.Product) ProductView {
	return ProductView{
		Product:  p,
		ImageURL: s.resolve(ctx, p.ImageRef),
		VideoURL: s.resolve(ctx, p.VideoRef),
	}
}

// resolve never fails the read path. A broken reference yields no URL.
func (s *CatalogService) resolve(ctx context.Context, ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	u, err := s.Media.ResolveURL(ctx, *ref)
	if err != nil {
		logging.FromContext(ctx).Warn("media_url_error", "ref", *ref, "error", err)
		return nil
	}
	return &u
}

func validateProduct(in ProductInput) error {
	if strings.TrimSpace(in.Title) == "" {
		return fmt.Errorf("%w: title required", ErrValidation)
	}
	if strings.TrimSpace(in.Description) == "" {
		return fmt.Errorf("%w: description required", ErrValidation)
	}
	if in.Price == nil {
		return fmt.Errorf("%w: price required", ErrValidation)
	}
	if *in.Price < 0 {
		return fmt.Errorf("%w: price must be >= 0", ErrValidation)
	}
	return nil
}

func emptyToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}
