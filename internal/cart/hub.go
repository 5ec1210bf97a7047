package cart

import (
	"context"
	"sync"

	"gorm.io/gorm"
)

// Hub hands out the holder for a server mirrored cart. Holders are kept only
// while somebody is subscribed to them.
type Hub struct {
	DB *gorm.DB

	mu      sync.Mutex
	holders map[string]*Holder
}

func NewHub(db *gorm.DB) *Hub {
	return &Hub{DB: db, holders: make(map[string]*Holder)}
}

func (h *Hub) For(owner string) *Holder {
	h.mu.Lock()
	defer h.mu.Unlock()
	if hl, ok := h.holders[owner]; ok {
		return hl
	}
	return NewHolder(NewGormStore(h.DB, owner))
}

func (h *Hub) Subscribe(ctx context.Context, owner string) (<-chan []Item, func(), error) {
	// Lock order is hub then holder. The holder must gain its subscriber
	// before a concurrent cancel can see it empty and drop it from the map.
	h.mu.Lock()
	hl, ok := h.holders[owner]
	if !ok {
		hl = NewHolder(NewGormStore(h.DB, owner))
		h.holders[owner] = hl
	}
	ch, cancel, err := hl.Subscribe(ctx)
	if err != nil {
		if hl.Subscribers() == 0 {
			delete(h.holders, owner)
		}
		h.mu.Unlock()
		return nil, nil, err
	}
	h.mu.Unlock()

	return ch, func() {
		cancel()
		h.mu.Lock()
		if hl.Subscribers() == 0 && h.holders[owner] == hl {
			delete(h.holders, owner)
		}
		h.mu.Unlock()
	}, nil
}

// Refresh notifies subscribers of owner after the cart rows changed elsewhere.
func (h *Hub) Refresh(ctx context.Context, owner string) error {
	h.mu.Lock()
	hl, ok := h.holders[owner]
	h.mu.Unlock()
	if !ok {
		return nil
	}
	return hl.Refresh(ctx)
}
