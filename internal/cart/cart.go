package cart

import (
	"context"

	"github.com/google/uuid"
)

// LocalOwner keys the single cart kept in a client side database file.
const LocalOwner = "local"

type Item struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// Repository stores one cart. Add merges quantities for a product already in
// the cart and treats quantities below one as one. Remove of an absent product
// is a no-op.
type Repository interface {
	Add(ctx context.Context, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, productID uuid.UUID) error
	Clear(ctx context.Context) error
	Read(ctx context.Context) ([]Item, error)
}
