package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrPassNotFound = errors.New("pass not found")

// Should be safe to use concurrently
type PassStorage interface {
	// Store the bundle bytes under id, replacing any previous value.
	StorePass(id string, data []byte) error

	// Retrieve the bundle bytes for id. Returns ErrPassNotFound when
	// nothing is stored under id.
	RetrievePass(id string) ([]byte, error)

	// Remove the bundle stored under id. The value not being there is
	// reported as ErrPassNotFound.
	RemovePass(id string) error
}

type InMemoryPassStorage struct {
	passes map[string][]byte
	mutex  sync.Mutex
}

func NewInMemoryPassStorage() *InMemoryPassStorage {
	return &InMemoryPassStorage{
		passes: make(map[string][]byte),
	}
}

type RedisPassStorage struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
}

func NewRedisPassStorage(client *redis.Client, namespace string, ttl time.Duration) *RedisPassStorage {
	if ttl <= 0 {
		ttl = DefaultPassTTL
	}
	return &RedisPassStorage{client: client, namespace: namespace, ttl: ttl}
}

// ------------------------------------------------------------------------------

func createKey(namespace, id string) string {
	return fmt.Sprintf("%s:pass:%s", namespace, id)
}

const DefaultPassTTL time.Duration = 24 * time.Hour

func (s *RedisPassStorage) StorePass(id string, data []byte) error {
	ctx := context.Background()
	return s.client.Set(ctx, createKey(s.namespace, id), data, s.ttl).Err()
}

func (s *RedisPassStorage) RetrievePass(id string) ([]byte, error) {
	ctx := context.Background()
	data, err := s.client.Get(ctx, createKey(s.namespace, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrPassNotFound, id)
	}
	return data, err
}

func (s *RedisPassStorage) RemovePass(id string) error {
	ctx := context.Background()
	removed, err := s.client.Del(ctx, createKey(s.namespace, id)).Result()
	if err != nil {
		return err
	}
	if removed == 0 {
		return fmt.Errorf("%w: %s", ErrPassNotFound, id)
	}
	return nil
}

// ------------------------------------------------------------------------------

func (s *InMemoryPassStorage) StorePass(id string, data []byte) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.passes[id] = append([]byte(nil), data...)
	return nil
}

func (s *InMemoryPassStorage) RetrievePass(id string) ([]byte, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if data, ok := s.passes[id]; ok {
		return append([]byte(nil), data...), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPassNotFound, id)
}

func (s *InMemoryPassStorage) RemovePass(id string) error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if _, ok := s.passes[id]; !ok {
		return fmt.Errorf("%w: failed to remove %s, because it wasn't there", ErrPassNotFound, id)
	}
	delete(s.passes, id)
	return nil
}
