package cart

import (
	"context"
	"errors"
	"sync"
)

var ErrSnapshotMiss = errors.New("cart snapshot not found")

// SnapshotStore persists cart snapshots by cart id.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (Snapshot, error)
	Save(ctx context.Context, key string, snap Snapshot) error
}

// MemorySnapshots is used for tests and local runs without Redis.
type MemorySnapshots struct {
	mu    sync.RWMutex
	carts map[string]Snapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{carts: make(map[string]Snapshot)}
}

func (m *MemorySnapshots) Load(_ context.Context, key string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.carts[key]
	if !ok {
		return Snapshot{}, ErrSnapshotMiss
	}
	items := make([]Item, len(snap.Items))
	copy(items, snap.Items)
	snap.Items = items
	return snap, nil
}

func (m *MemorySnapshots) Save(_ context.Context, key string, snap Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[key] = snap
	return nil
}
