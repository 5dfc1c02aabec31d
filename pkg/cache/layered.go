package cache

import (
	"context"
	"errors"
	"time"
)

// LayeredCache fronts a shared L2 (redis) with a small in-process L1.
// Reads fill L1 with a short TTL so hot keys skip the network; writes
// go to both layers.
type LayeredCache struct {
	l1    *MemoryCache
	l2    Service
	l1TTL time.Duration
}

type LayeredOption func(*LayeredCache)

func WithL1TTL(ttl time.Duration) LayeredOption {
	return func(c *LayeredCache) { c.l1TTL = ttl }
}

func WithL1MaxSize(n int) LayeredOption {
	return func(c *LayeredCache) { c.l1 = NewMemoryCache(WithMemoryMaxSize(n)) }
}

func NewLayeredCache(l2 Service, opts ...LayeredOption) *LayeredCache {
	c := &LayeredCache{
		l1:    NewMemoryCache(WithMemoryMaxSize(2000)),
		l2:    l2,
		l1TTL: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *LayeredCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	l1TTL := c.l1TTL
	if ttl > 0 && ttl < l1TTL {
		l1TTL = ttl
	}
	_ = c.l1.Set(ctx, key, value, l1TTL)
	return c.l2.Set(ctx, key, value, ttl)
}

func (c *LayeredCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.l1.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := c.l2.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = c.l1.Set(ctx, key, dest, c.l1TTL)
	return nil
}

func (c *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.l1.Delete(ctx, keys...)
	return c.l2.Delete(ctx, keys...)
}

func (c *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	if ok, _ := c.l1.Exists(ctx, key); ok {
		return true, nil
	}
	return c.l2.Exists(ctx, key)
}

func (c *LayeredCache) Close() error {
	err1 := c.l1.Close()
	err2 := c.l2.Close()
	return errors.Join(err1, err2)
}
