package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const (
	TopicProducts = "product_events"
	TopicOrders   = "order_events"
)

const (
	ProductCreated = "product_created"
	ProductUpdated = "product_updated"
	ProductSold    = "product_sold"
	OrderCreated   = "order_created"
	OrderCompleted = "order_completed"
)

type ProductEvent struct {
	Type       string    `json:"type"`
	ProductID  uuid.UUID `json:"product_id"`
	Title      string    `json:"title,omitempty"`
	Price      int64     `json:"price,omitempty"`
	Status     string    `json:"status,omitempty"`
	OrderID    uuid.UUID `json:"order_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type OrderEvent struct {
	Type       string      `json:"type"`
	OrderID    uuid.UUID   `json:"order_id"`
	UserID     uuid.UUID   `json:"user_id"`
	Total      int64       `json:"total"`
	ProductIDs []uuid.UUID `json:"product_ids,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Publisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
	Close() error
}

type Nop struct{}

func (Nop) PublishEvent(context.Context, string, string, any) error { return nil }

func (Nop) Close() error { return nil }
