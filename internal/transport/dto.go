package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/art_shop/internal/cart"
	"github.com/Skotchmaster/art_shop/internal/models"
	"github.com/Skotchmaster/art_shop/internal/service"
	"github.com/Skotchmaster/art_shop/internal/util"
)

type ProductRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       *int64  `json:"price"`
	ImageID     *string `json:"image_id"`
	VideoID     *string `json:"video_id"`
}

func (r ProductRequest) Input() service.ProductInput {
	return service.ProductInput{
		Title:       r.Title,
		Description: r.Description,
		Price:       r.Price,
		ImageRef:    r.ImageID,
		VideoRef:    r.VideoID,
	}
}

type BatchRequest struct {
	IDs []uuid.UUID `json:"ids"`
}

type UploadRequest struct {
	ContentType string `json:"content_type"`
}

type ProductResponse struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Price        int64     `json:"price"`
	PriceDisplay string    `json:"price_display"`
	Currency     string    `json:"currency"`
	Status       string    `json:"status"`
	ImageID      *string   `json:"image_id,omitempty"`
	VideoID      *string   `json:"video_id,omitempty"`
	ImageURL     *string   `json:"image_url"`
	VideoURL     *string   `json:"video_url"`
	CreatedBy    uuid.UUID `json:"created_by"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewProductResponse(p service.ProductView, currency string) ProductResponse {
	return ProductResponse{
		ID:           p.ID,
		Title:        p.Title,
		Description:  p.Description,
		Price:        p.Price,
		PriceDisplay: FormatMinor(p.Price, currency),
		Currency:     currency,
		Status:       string(p.Status),
		ImageID:      p.ImageRef,
		VideoID:      p.VideoRef,
		ImageURL:     p.ImageURL,
		VideoURL:     p.VideoURL,
		CreatedBy:    p.CreatedBy,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func NewProductList(items []service.ProductView, currency string) []ProductResponse {
	out := make([]ProductResponse, 0, len(items))
	for _, p := range items {
		out = append(out, NewProductResponse(p, currency))
	}
	return out
}

type SearchResponse struct {
	Data []ProductResponse `json:"data"`
	Meta util.Meta         `json:"meta"`
}

type CheckoutItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CheckoutRequest struct {
	Items   []CheckoutItem `json:"items"`
	SiteURL string         `json:"site_url"`
}

type CheckoutResponse struct {
	URL     *string   `json:"url"`
	OrderID uuid.UUID `json:"order_id"`
}

type OrderItemResponse struct {
	ProductID    uuid.UUID `json:"product_id"`
	Title        string    `json:"title"`
	Price        int64     `json:"price"`
	PriceDisplay string    `json:"price_display"`
	Quantity     int       `json:"quantity"`
}

type OrderResponse struct {
	ID           uuid.UUID           `json:"id"`
	UserID       uuid.UUID           `json:"user_id"`
	Status       string              `json:"status"`
	Provider     string              `json:"provider"`
	Total        int64               `json:"total"`
	TotalDisplay string              `json:"total_display"`
	Currency     string              `json:"currency"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

func NewOrderResponse(o models.Order, currency string) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:    it.ProductID,
			Title:        it.Title,
			Price:        it.Price,
			PriceDisplay: FormatMinor(it.Price, currency),
			Quantity:     it.Quantity,
		})
	}
	return OrderResponse{
		ID:           o.ID,
		UserID:       o.UserID,
		Status:       string(o.Status),
		Provider:     o.Provider,
		Total:        o.Total,
		TotalDisplay: FormatMinor(o.Total, currency),
		Currency:     currency,
		Items:        items,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func NewOrderList(orders []models.Order, currency string) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, NewOrderResponse(o, currency))
	}
	return out
}

type OrderStatusRequest struct {
	Status string `json:"status"`
}

type CartAddRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

type CartResponse struct {
	Items []cart.Item `json:"items"`
}

type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	UserID      uuid.UUID `json:"user_id"`
	IsAdmin     bool      `json:"is_admin"`
}
