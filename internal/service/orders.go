package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/repo"
	"github.com/Skotchmaster/art_shop/pkg/logging"
)

type OrderService struct {
	Repo *repo.GormRepo
}

func NewOrderService(r *repo.GormRepo) *OrderService {
	return &OrderService{Repo: r}
}

func (s *OrderService) ListMyOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context, _ AdminCapability, status string, offset, limit int) (int64, []models.Order, error) {
	var filter *models.OrderStatus
	if status != "" {
		st := models.OrderStatus(status)
		if !st.Valid() {
			return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
		}
		filter = &st
	}
	return s.Repo.ListOrders(ctx, filter, offset, limit)
}

// shippingTransitions lists the only moves an admin may make. pending orders
// are completed by payment alone.
var shippingTransitions = map[models.OrderStatus]models.OrderStatus{
	models.OrderToShip:    models.OrderCompleted,
	models.OrderCompleted: models.OrderToShip,
}

func (s *OrderService) UpdateStatus(ctx context.Context, admin AdminCapability, id uuid.UUID, status string) (*models.Order, error) {
	to := models.OrderStatus(status)
	from, ok := shippingTransitions[to]
	if !ok {
		return nil, fmt.Errorf("%w: status must be %q or %q", ErrValidation, models.OrderToShip, models.OrderCompleted)
	}

	moved, err := s.Repo.TransitionOrder(ctx, id, from, to)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		return nil, err
	}

	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !moved && order.Status != to {
		return nil, fmt.Errorf("%w: order is %s", ErrConflict, order.Status)
	}

	logging.FromContext(ctx).Info("order_status_updated", "order_id", id, "status", to, "admin_user_id", admin.UserID)
	return order, nil
}
