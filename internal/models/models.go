package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductStatus string

const (
	ProductAvailable ProductStatus = "available"
	ProductSold      ProductStatus = "sold"
)

func (s ProductStatus) Valid() bool {
	return s == ProductAvailable || s == ProductSold
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderToShip    OrderStatus = "toShip"
	OrderCompleted OrderStatus = "completed"
)

func (s OrderStatus) Valid() bool {
	return s == OrderPending || s == OrderToShip || s == OrderCompleted
}

type Product struct {
	ID          uuid.UUID     `gorm:"type:uuid;primaryKey"             json:"id"`
	Title       string        `gorm:"not null"                         json:"title"`
	Description string        `gorm:"not null"                         json:"description"`
	Price       int64         `gorm:"not null;check:price >= 0"        json:"price"`
	ImageRef    *string       `                                        json:"image_id,omitempty"`
	VideoRef    *string       `                                        json:"video_id,omitempty"`
	Status      ProductStatus `gorm:"index;not null;default:available" json:"status"`
	CreatedBy   uuid.UUID     `gorm:"type:uuid;not null"               json:"created_by"`
	CreatedAt   time.Time     `gorm:"index"                            json:"created_at"`
	UpdatedAt   time.Time     `                                        json:"updated_at"`
}

type Order struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey"       json:"id"`
	UserID           uuid.UUID   `gorm:"type:uuid;index;not null"   json:"user_id"`
	Provider         string      `gorm:"not null"                   json:"provider"`
	PaymentSessionID string      `gorm:"uniqueIndex;not null"       json:"payment_session_id"`
	IdempotencyKey   *string     `gorm:"index"                      json:"-"`
	CheckoutURL      *string     `                                  json:"-"`
	Status           OrderStatus `gorm:"index;not null"             json:"status"`
	Total            int64       `gorm:"not null"                   json:"total"`
	Items            []OrderItem `gorm:"foreignKey:OrderID"         json:"items"`
	// ReconciledAt is the last time the reconciler asked the gateway about this order.
	ReconciledAt     *time.Time  `                                  json:"-"`
	CreatedAt        time.Time   `                                  json:"created_at"`
	UpdatedAt        time.Time   `                                  json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"-"`
	OrderID   uuid.UUID `gorm:"type:uuid;index;not null"      json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;not null"            json:"product_id"`
	Title     string    `gorm:"not null"                      json:"title"`
	Price     int64     `gorm:"not null"                      json:"price"`
	Quantity  int       `gorm:"not null;check:quantity > 0"   json:"quantity"`
}

type AdminUser struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"          json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	CreatedAt time.Time `                                     json:"created_at"`
}

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"  json:"email"`
	PasswordHash string    `gorm:"not null"              json:"-"`
	CreatedAt    time.Time `                             json:"created_at"`
}

// CartItem is a cart line. Owner is the user id for the server mirror and a
// fixed local key for the CLI cart file.
type CartItem struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                           json:"-"`
	Owner     string    `gorm:"uniqueIndex:idx_cart_owner_product;not null"    json:"-"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_cart_owner_product;not null" json:"product_id"`
	Quantity  int       `gorm:"not null;default:1;check:quantity > 0"          json:"quantity"`
	CreatedAt time.Time `                                                      json:"-"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type WebhookEvent struct {
	EventID     string    `gorm:"primaryKey"  json:"event_id"`
	Provider    string    `gorm:"not null"    json:"provider"`
	Type        string    `gorm:"not null"    json:"type"`
	Verified    bool      `gorm:"not null"    json:"verified"`
	ProcessedAt time.Time `gorm:"not null"    json:"processed_at"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

func (a *AdminUser) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Migrate creates or updates every table the storefront uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&AdminUser{},
		&Product{},
		&Order{},
		&OrderItem{},
		&CartItem{},
		&WebhookEvent{},
	)
}
