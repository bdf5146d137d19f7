package cart

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
)

var (
	FreeShippingThreshold = decimal.NewFromInt(50000)
	FlatShipping          = decimal.NewFromInt(2500)
)

// Item is one cart line. Lines are keyed by (ID, Size).
type Item struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Quantity int             `json:"quantity"`
	Size     string          `json:"size,omitempty"`
	Slug     string          `json:"slug"`
}

type NoticeLevel string

const (
	NoticeSuccess NoticeLevel = "success"
	NoticeInfo    NoticeLevel = "info"
)

// Notice is a user-facing message produced by a mutation.
type Notice struct {
	Level   NoticeLevel `json:"level"`
	Message string      `json:"message"`
}

// Snapshot is the persisted form of a cart.
type Snapshot struct {
	Items  []Item `json:"items"`
	IsOpen bool   `json:"isCartOpen"`
}

// Shipping is free from FreeShippingThreshold upwards, flat otherwise.
func Shipping(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThanOrEqual(FreeShippingThreshold) {
		return decimal.Zero
	}
	return FlatShipping
}

// Store is a single visitor's cart. Every mutation writes the full snapshot
// back to the SnapshotStore.
type Store struct {
	mu        sync.Mutex
	key       string
	items     []Item
	open      bool
	notices   []Notice
	snapshots SnapshotStore
}

func newStore(key string, snap Snapshot, snapshots SnapshotStore) *Store {
	items := make([]Item, len(snap.Items))
	copy(items, snap.Items)
	return &Store{key: key, items: items, open: snap.IsOpen, snapshots: snapshots}
}

func (s *Store) Key() string { return s.key }

// Add merges item into an existing (id, size) line or appends it, and opens
// the cart panel.
func (s *Store) Add(ctx context.Context, item Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.find(item.ID, item.Size); i >= 0 {
		s.items[i].Quantity += item.Quantity
		s.notify(NoticeSuccess, fmt.Sprintf("Updated quantity of %s in cart", item.Name))
	} else {
		s.items = append(s.items, item)
		s.notify(NoticeSuccess, fmt.Sprintf("Added %s to cart", item.Name))
	}
	s.open = true
	return s.persist(ctx)
}

func (s *Store) Remove(ctx context.Context, id, size string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remove(ctx, id, size)
}

func (s *Store) remove(ctx context.Context, id, size string) error {
	i := s.find(id, size)
	if i < 0 {
		return s.persist(ctx)
	}
	name := s.items[i].Name
	s.items = append(s.items[:i], s.items[i+1:]...)
	s.notify(NoticeInfo, fmt.Sprintf("Removed %s from cart", name))
	return s.persist(ctx)
}

// UpdateQuantity replaces the quantity of a line; q <= 0 removes it.
func (s *Store) UpdateQuantity(ctx context.Context, id, size string, q int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if q <= 0 {
		return s.remove(ctx, id, size)
	}
	if i := s.find(id, size); i >= 0 {
		s.items[i].Quantity = q
	}
	return s.persist(ctx)
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = s.items[:0]
	s.notify(NoticeInfo, "Cart cleared")
	return s.persist(ctx)
}

func (s *Store) SetOpen(ctx context.Context, open bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = open
	return s.persist(ctx)
}

// Items returns a copy of the current lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Item, len(s.items))
	copy(out, s.items)
	return out
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		n += it.Quantity
	}
	return n
}

func (s *Store) Subtotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := decimal.Zero
	for _, it := range s.items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

func (s *Store) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open
}

// Notices drains the notices recorded since the last call.
func (s *Store) Notices() []Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.notices
	s.notices = nil
	if out == nil {
		out = []Notice{}
	}
	return out
}

func (s *Store) find(id, size string) int {
	for i, it := range s.items {
		if it.ID == id && it.Size == size {
			return i
		}
	}
	return -1
}

func (s *Store) notify(level NoticeLevel, msg string) {
	s.notices = append(s.notices, Notice{Level: level, Message: msg})
}

func (s *Store) persist(ctx context.Context) error {
	items := make([]Item, len(s.items))
	copy(items, s.items)
	if err := s.snapshots.Save(ctx, s.key, Snapshot{Items: items, IsOpen: s.open}); err != nil {
		return fmt.Errorf("save cart snapshot: %w", err)
	}
	return nil
}
