package cart

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Manager hands out cart stores, loading any saved snapshot first.
type Manager struct {
	snapshots SnapshotStore
	log       *zap.Logger
	sfg       singleflight.Group
}

func NewManager(snapshots SnapshotStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{snapshots: snapshots, log: log}
}

// Open returns the cart for key. Concurrent opens of the same key share one
// snapshot read; each caller still gets its own Store.
func (m *Manager) Open(ctx context.Context, key string) (*Store, error) {
	v, err, _ := m.sfg.Do(key, func() (interface{}, error) {
		snap, err := m.snapshots.Load(ctx, key)
		if errors.Is(err, ErrSnapshotMiss) {
			return Snapshot{Items: []Item{}}, nil
		}
		if err != nil {
			m.log.Error("cart snapshot load failed", zap.String("cart_id", key), zap.Error(err))
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return newStore(key, v.(Snapshot), m.snapshots), nil
}
