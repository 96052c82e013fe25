package cartcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

const (
	KEY_STORAGE_USER_ID = "userId"
	KEY_STORAGE_CART    = "cart_%s"
)

var ErrKeyNotFound = errors.New("storage key not found")

// Storage is the durable key/value store holding the local cart copy, the
// analogue of browser local storage. Get returns ErrKeyNotFound for absent keys.
type Storage interface {
	Get(c context.Context, key string) (string, error)
	Set(c context.Context, key string, value string) error
	Delete(c context.Context, key string) error
}

func cartKey(userID string) string {
	return fmt.Sprintf(KEY_STORAGE_CART, userID)
}

type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (s *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return value, nil
}

func (s *MemoryStorage) Set(_ context.Context, key string, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *MemoryStorage) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
