package slider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// StylingStore keeps per-slider button styling outside the database.
type StylingStore interface {
	// Get returns styling for the ids that have any; missing ids are absent.
	Get(ctx context.Context, ids ...string) (map[string]Styling, error)
	Save(ctx context.Context, id string, st Styling) error
	Delete(ctx context.Context, id string) error
}

type RedisStyling struct {
	client *redis.Client
}

func NewRedisStyling(client *redis.Client) *RedisStyling {
	return &RedisStyling{client: client}
}

func (r *RedisStyling) Get(ctx context.Context, ids ...string) (map[string]Styling, error) {
	out := make(map[string]Styling, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = stylingKey(id)
	}
	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis mget failed: %w", err)
	}
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var st Styling
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return nil, fmt.Errorf("unmarshal styling failed: %w", err)
		}
		out[ids[i]] = st
	}
	return out, nil
}

func (r *RedisStyling) Save(ctx context.Context, id string, st Styling) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal styling failed: %w", err)
	}
	if err := r.client.Set(ctx, stylingKey(id), data, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisStyling) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, stylingKey(id)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func stylingKey(id string) string {
	return fmt.Sprintf("slider-styling:%s", id)
}

type MemoryStyling struct {
	mu   sync.RWMutex
	data map[string]Styling
}

func NewMemoryStyling() *MemoryStyling {
	return &MemoryStyling{data: make(map[string]Styling)}
}

func (m *MemoryStyling) Get(_ context.Context, ids ...string) (map[string]Styling, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]Styling, len(ids))
	for _, id := range ids {
		if st, ok := m.data[id]; ok {
			out[id] = st
		}
	}
	return out, nil
}

func (m *MemoryStyling) Save(_ context.Context, id string, st Styling) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = st
	return nil
}

func (m *MemoryStyling) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}
