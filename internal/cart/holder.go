package cart

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Holder serializes changes to a cart repository and pushes the resulting
// snapshot to every subscriber. A slow subscriber only ever sees the latest
// snapshot.
type Holder struct {
	repo Repository

	mu     sync.Mutex
	subs   map[int]chan []Item
	nextID int
}

func NewHolder(repo Repository) *Holder {
	return &Holder{repo: repo, subs: make(map[int]chan []Item)}
}

func (h *Holder) Add(ctx context.Context, productID uuid.UUID, quantity int) ([]Item, error) {
	return h.mutate(ctx, func() error { return h.repo.Add(ctx, productID, quantity) })
}

func (h *Holder) Remove(ctx context.Context, productID uuid.UUID) ([]Item, error) {
	return h.mutate(ctx, func() error { return h.repo.Remove(ctx, productID) })
}

func (h *Holder) Clear(ctx context.Context) error {
	_, err := h.mutate(ctx, func() error { return h.repo.Clear(ctx) })
	return err
}

func (h *Holder) Read(ctx context.Context) ([]Item, error) {
	return h.repo.Read(ctx)
}

// Refresh rereads the repository and broadcasts it, for changes made to the
// underlying storage outside the holder.
func (h *Holder) Refresh(ctx context.Context) error {
	_, err := h.mutate(ctx, func() error { return nil })
	return err
}

// Subscribe returns a channel that receives the current snapshot and then
// every later one. The returned func unsubscribes and closes the channel.
func (h *Holder) Subscribe(ctx context.Context) (<-chan []Item, func(), error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	snap, err := h.repo.Read(ctx)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan []Item, 1)
	ch <- snap
	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel, nil
}

func (h *Holder) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (h *Holder) mutate(ctx context.Context, op func() error) ([]Item, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := op(); err != nil {
		return nil, err
	}
	snap, err := h.repo.Read(ctx)
	if err != nil {
		return nil, err
	}
	for _, ch := range h.subs {
		publish(ch, snap)
	}
	return snap, nil
}

func publish(ch chan []Item, snap []Item) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}
