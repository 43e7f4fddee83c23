package store

import (
	"context"
	"sync"
)

// MapStore 进程内 map 存储，不支持过期，淘汰策略由调用方负责
type MapStore[K comparable, V any] struct {
	mutex sync.RWMutex
	m     map[K]V
}

func NewMapStoreWithOptions[K comparable, V any]() *MapStore[K, V] {
	return &MapStore[K, V]{
		m: make(map[K]V),
	}
}

func (s *MapStore[K, V]) Set(ctx context.Context, key K, value V, opts ...setOption) error {
	options := &setOptions{}
	for _, opt := range opts {
		opt(options)
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	if options.IfNotExist {
		if _, exists := s.m[key]; exists {
			return ErrConditionFailed
		}
	}

	s.m[key] = value
	return nil
}

func (s *MapStore[K, V]) Get(ctx context.Context, key K) (V, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	value, exists := s.m[key]
	if !exists {
		var zero V
		return zero, ErrKeyNotFound
	}
	return value, nil
}

func (s *MapStore[K, V]) Del(ctx context.Context, key K) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	delete(s.m, key)
	return nil
}

func (s *MapStore[K, V]) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.m = nil
	return nil
}
