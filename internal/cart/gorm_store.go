package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/models"
)

type GormStore struct {
	DB    *gorm.DB
	Owner string
}

func NewGormStore(db *gorm.DB, owner string) *GormStore {
	return &GormStore{DB: db, Owner: owner}
}

func (s *GormStore) Add(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("owner = ? AND product_id = ?", s.Owner, productID).
			Update("quantity", gorm.Expr("quantity + ?", quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}

		return tx.Create(&models.CartItem{
			Owner:     s.Owner,
			ProductID: productID,
			Quantity:  quantity,
		}).Error
	})
}

func (s *GormStore) Remove(ctx context.Context, productID uuid.UUID) error {
	return s.DB.WithContext(ctx).
		Where("owner = ? AND product_id = ?", s.Owner, productID).
		Delete(&models.CartItem{}).Error
}

func (s *GormStore) Clear(ctx context.Context) error {
	return s.DB.WithContext(ctx).Where("owner = ?", s.Owner).Delete(&models.CartItem{}).Error
}

func (s *GormStore) Read(ctx context.Context) ([]Item, error) {
	var rows []models.CartItem
	if err := s.DB.WithContext(ctx).
		Where("owner = ?", s.Owner).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for _, r := range rows {
		items = append(items, Item{ProductID: r.ProductID, Quantity: r.Quantity})
	}
	return items, nil
}
