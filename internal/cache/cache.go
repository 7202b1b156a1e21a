// Package cache provides the key-value store the Tricket client keeps its
// parsed productions in.  A Store is the raw backend (memory, Redis or a
// MySQL transient table); Cache sits on top of it, hashes caller keys into
// its own namespace, serializes values and applies a single TTL to every
// write.  Cache never reports errors to its callers: a backend or codec
// failure is logged and treated as a miss.
package cache

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"
)

// DefaultPrefix namespaces every key written by a Cache.
const DefaultPrefix = "tricket"

// ErrNilStore is returned by backends constructed without a client.
var ErrNilStore = errors.New("cache: store not configured")

// Store is the raw backend.  Get reports a miss with ok=false and a nil
// error; a ttl <= 0 on Set means the entry is already expired.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Cache stores JSON copies of values under hashed, namespaced keys.
type Cache struct {
	store  Store
	ttl    time.Duration
	prefix string
}

// Option customizes a Cache.
type Option func(*Cache)

// WithPrefix replaces DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(c *Cache) {
		if prefix != "" {
			c.prefix = prefix
		}
	}
}

// New wraps store.  ttl is applied to every Set made through this Cache;
// zero turns Set into an invalidation.
func New(store Store, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{store: store, ttl: ttl, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the lifetime applied to writes.
func (c *Cache) TTL() time.Duration { return c.ttl }

// Prefix returns the namespace of this Cache.
func (c *Cache) Prefix() string { return c.prefix }

// Key maps a caller key to the key actually used in the store.
func (c *Cache) Key(key string) string {
	sum := sha1.Sum([]byte(key))
	return fmt.Sprintf("%s:%x", c.prefix, sum[:])
}

// Get decodes the entry for key into out and reports whether it was found.
func (c *Cache) Get(ctx context.Context, key string, out any) bool {
	if c == nil || c.store == nil {
		return false
	}
	raw, ok, err := c.store.Get(ctx, c.Key(key))
	if err != nil {
		log.Printf("cache: get %q failed: %v", key, err)
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		log.Printf("cache: decode %q failed: %v", key, err)
		return false
	}
	return true
}

// Set stores a serialized copy of value under key.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	if c == nil || c.store == nil {
		return
	}
	if c.ttl <= 0 {
		c.Delete(ctx, key)
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: encode %q failed: %v", key, err)
		return
	}
	if err := c.store.Set(ctx, c.Key(key), raw, c.ttl); err != nil {
		log.Printf("cache: set %q failed: %v", key, err)
	}
}

// Delete removes the entry for key.
func (c *Cache) Delete(ctx context.Context, key string) {
	if c == nil || c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, c.Key(key)); err != nil {
		log.Printf("cache: delete %q failed: %v", key, err)
	}
}
