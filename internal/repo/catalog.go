package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/models"
)

func (r *GormRepo) ListProducts(ctx context.Context, status *models.ProductStatus) ([]models.Product, error) {
	q := r.DB.WithContext(ctx).Model(&models.Product{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	items := make([]models.Product, 0)
	if err := q.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs returns the products that exist, in the order of ids.
// Unknown and repeated ids are dropped.
func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	var found []models.Product
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&found).Error; err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}

	out := make([]models.Product, 0, len(found))
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) (*models.Product, error) {
	if err := r.DB.WithContext(ctx).Create(prod).Error; err != nil {
		return nil, err
	}
	return prod, nil
}

// UpdateProduct replaces the editable fields. Status is never touched here.
func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, upd models.Product) (*models.Product, error) {
	var prod models.Product
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", id).Updates(map[string]any{
			"title":       upd.Title,
			"description": upd.Description,
			"price":       upd.Price,
			"image_ref":   upd.ImageRef,
			"video_ref":   upd.VideoRef,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", id).First(&prod).Error
	})
	if err != nil {
		return nil, err
	}
	return &prod, nil
}

// MarkSold sets the product to sold. It reports whether the status changed;
// a product that is already sold is not an error.
func (r *GormRepo) MarkSold(ctx context.Context, id uuid.UUID) (bool, error) {
	var changed bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prod models.Product
		if err := tx.Select("id", "status").Where("id = ?", id).First(&prod).Error; err != nil {
			return err
		}
		if prod.Status == models.ProductSold {
			return nil
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", id).Update("status", models.ProductSold).Error; err != nil {
			return err
		}
		changed = true
		return nil
	})
	return changed, err
}
