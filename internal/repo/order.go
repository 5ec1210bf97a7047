package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// AttachSession swaps the placeholder correlation id for the gateway session id.
// It returns gorm.ErrRecordNotFound when the order no longer carries placeholder.
func (r *GormRepo) AttachSession(ctx context.Context, orderID uuid.UUID, placeholder, sessionID string, checkoutURL *string) error {
	updates := map[string]any{"payment_session_id": sessionID}
	if checkoutURL != nil {
		updates["checkout_url"] = *checkoutURL
	}

	res := r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_session_id = ?", orderID, placeholder).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) GetOrderBySession(ctx context.Context, sessionID string) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items").Where("payment_session_id = ?", sessionID).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByIdempotencyKey returns the newest order created by the user with key after since.
func (r *GormRepo) FindByIdempotencyKey(ctx context.Context, userID uuid.UUID, key string, since time.Time) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ? AND idempotency_key = ? AND created_at > ?", userID, key, since.UTC()).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	if err := r.DB.WithContext(ctx).Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, status *models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != nil {
		q = q.Where("status = ?", *status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

// ListStalePending returns pending orders with an attached gateway session
// created between notBefore and cutoff that were not reconciled since
// checkedBefore, oldest first.
func (r *GormRepo) ListStalePending(ctx context.Context, cutoff, notBefore, checkedBefore time.Time, placeholderPrefix string, limit int) ([]models.Order, error) {
	orders := make([]models.Order, 0)
	err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at < ? AND created_at > ? AND payment_session_id NOT LIKE ?",
			models.OrderPending, cutoff.UTC(), notBefore.UTC(), placeholderPrefix+"%").
		Where("(reconciled_at IS NULL OR reconciled_at < ?)", checkedBefore.UTC()).
		Order("created_at ASC").
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) MarkReconciled(ctx context.Context, ids []uuid.UUID, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Model(&models.Order{}).
		Where("id IN ?", ids).
		Update("reconciled_at", at.UTC()).Error
}

// TransitionOrder moves an order from one status to another. It returns
// gorm.ErrRecordNotFound if the order does not exist and false if it exists
// in a different status.
func (r *GormRepo) TransitionOrder(ctx context.Context, id uuid.UUID, from, to models.OrderStatus) (bool, error) {
	var moved bool
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", id, from).
			Update("status", to)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			moved = true
			return nil
		}

		var count int64
		if err := tx.Model(&models.Order{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
	return moved, err
}
