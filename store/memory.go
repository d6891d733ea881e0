package store

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
)

// Memory is an in-process KV. Values are stored BSON-encoded so records
// round-trip exactly as they do through MongoDB.
type Memory struct {
	mu     sync.RWMutex
	values map[string][]byte
	lists  map[string][]string
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string][]byte),
		lists:  make(map[string][]string),
	}
}

func (m *Memory) Get(_ context.Context, key string, dst any) (bool, error) {
	m.mu.RLock()
	b, ok := m.values[key]
	m.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := bson.Unmarshal(b, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, v any) error {
	b, err := bson.Marshal(v)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.values[key] = b
	m.mu.Unlock()
	return nil
}

func (m *Memory) SetNX(_ context.Context, key string, v any) (bool, error) {
	b, err := bson.Marshal(v)
	if err != nil {
		return false, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = b
	return true, nil
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	for _, k := range keys {
		delete(m.values, k)
		delete(m.lists, k)
	}
	m.mu.Unlock()
	return nil
}

func (m *Memory) LPush(_ context.Context, key string, values ...string) error {
	m.mu.Lock()
	list := make([]string, 0, len(values)+len(m.lists[key]))
	list = append(list, values...)
	m.lists[key] = append(list, m.lists[key]...)
	m.mu.Unlock()
	return nil
}

func (m *Memory) LRange(_ context.Context, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.lists[key]...), nil
}

func (m *Memory) LRem(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	list := m.lists[key][:0:0]
	for _, v := range m.lists[key] {
		if v != value {
			list = append(list, v)
		}
	}
	m.lists[key] = list
	return nil
}
