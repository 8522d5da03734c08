package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrCacheMiss is returned by RedisClient.Get when the key does not exist.
var ErrCacheMiss = errors.New("cache miss")

// RedisClient is the subset of Redis the weather cache needs.
type RedisClient interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

// GoRedisClient implements RedisClient on top of go-redis.
type GoRedisClient struct {
	client *redis.Client
}

// NewGoRedisClient connects to addr and verifies the connection with a ping.
func NewGoRedisClient(ctx context.Context, addr, password string, db int) (*GoRedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &GoRedisClient{client: client}, nil
}

func (r *GoRedisClient) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis: get %s: %w", key, err)
	}
	return val, nil
}

func (r *GoRedisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

func (r *GoRedisClient) Del(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *GoRedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *GoRedisClient) Close() error {
	return r.client.Close()
}

// MockRedisClient is an in-memory RedisClient for tests and for running
// without a Redis server.
type MockRedisClient struct {
	mu      sync.RWMutex
	data    map[string]mockEntry
	now     func() time.Time
	Gets    int
	Sets    int
	FailGet error
}

type mockEntry struct {
	value   string
	expires time.Time
}

// NewMockRedisClient creates an empty MockRedisClient.
func NewMockRedisClient() *MockRedisClient {
	return &MockRedisClient{data: make(map[string]mockEntry), now: time.Now}
}

func (m *MockRedisClient) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Gets++
	if m.FailGet != nil {
		return "", m.FailGet
	}
	e, ok := m.data[key]
	if !ok {
		return "", ErrCacheMiss
	}
	if !e.expires.IsZero() && m.now().After(e.expires) {
		delete(m.data, key)
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (m *MockRedisClient) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sets++
	e := mockEntry{value: value}
	if ttl > 0 {
		e.expires = m.now().Add(ttl)
	}
	m.data[key] = e
	return nil
}

func (m *MockRedisClient) Del(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MockRedisClient) Ping(context.Context) error { return nil }

func (m *MockRedisClient) Close() error { return nil }

// Len returns the number of stored keys, expired ones included.
func (m *MockRedisClient) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}
