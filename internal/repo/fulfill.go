package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/models"
)

type CompleteResult struct {
	// Applied is false when another delivery already completed the order.
	Applied bool
	Order   models.Order
	Sold    []uuid.UUID
	Missing []uuid.UUID
}

// CompleteOrder runs the pending to completed transition in one transaction:
// the status compare-and-set, marking purchased products sold and clearing
// the buyer's mirrored cart. Products that no longer exist are reported in
// Missing and skipped.
func (r *GormRepo) CompleteOrder(ctx context.Context, orderID uuid.UUID) (CompleteResult, error) {
	var out CompleteResult

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, models.OrderPending).
			Update("status", models.OrderCompleted)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		out.Applied = true

		if err := tx.Preload("Items").Where("id = ?", orderID).First(&out.Order).Error; err != nil {
			return err
		}

		ids := make([]uuid.UUID, 0, len(out.Order.Items))
		seen := make(map[uuid.UUID]struct{}, len(out.Order.Items))
		for _, it := range out.Order.Items {
			if _, ok := seen[it.ProductID]; ok {
				continue
			}
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}

		var existing []uuid.UUID
		if len(ids) > 0 {
			if err := tx.Model(&models.Product{}).Where("id IN ?", ids).Pluck("id", &existing).Error; err != nil {
				return err
			}
		}
		exists := make(map[uuid.UUID]struct{}, len(existing))
		for _, id := range existing {
			exists[id] = struct{}{}
		}
		for _, id := range ids {
			if _, ok := exists[id]; ok {
				out.Sold = append(out.Sold, id)
			} else {
				out.Missing = append(out.Missing, id)
			}
		}

		if len(out.Sold) > 0 {
			if err := tx.Model(&models.Product{}).
				Where("id IN ?", out.Sold).
				Update("status", models.ProductSold).Error; err != nil {
				return err
			}
		}

		return tx.Where("owner = ?", out.Order.UserID.String()).Delete(&models.CartItem{}).Error
	})
	if err != nil {
		return CompleteResult{}, err
	}
	return out, nil
}
