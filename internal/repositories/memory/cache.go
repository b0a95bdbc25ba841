package memory

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"safety-tracker/internal/repositories"
)

var _ repositories.CacheRepositoryInterface = (*Cache)(nil)

type cacheEntry struct {
	value     string
	expiresAt time.Time // нулевое значение - без срока
}

// Cache - замена Redis для одного процесса. Повторяет семантику Incr/Expire.
type Cache struct {
	mu    sync.Mutex
	items map[string]cacheEntry
	now   func() time.Time
}

func NewCache() *Cache {
	return &Cache{items: make(map[string]cacheEntry), now: time.Now}
}

// WithClock подменяет часы; используется в тестах блокировки входа.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

func (c *Cache) lookup(key string) (cacheEntry, bool) {
	e, ok := c.items[key]
	if !ok {
		return cacheEntry{}, false
	}
	if !e.expiresAt.IsZero() && !c.now().Before(e.expiresAt) {
		delete(c.items, key)
		return cacheEntry{}, false
	}
	return e, true
}

func (c *Cache) Set(_ context.Context, key string, value interface{}, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	e := cacheEntry{value: fmt.Sprint(value)}
	if expiration > 0 {
		e.expiresAt = c.now().Add(expiration)
	}
	c.items[key] = e
	return nil
}

func (c *Cache) Get(_ context.Context, key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		return "", repositories.ErrCacheMiss
	}
	return e.value, nil
}

func (c *Cache) Del(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

func (c *Cache) Incr(_ context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, _ := c.lookup(key)
	var n int64
	if e.value != "" {
		parsed, err := strconv.ParseInt(e.value, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cache: value of %q is not an integer", key)
		}
		n = parsed
	}
	n++
	e.value = strconv.FormatInt(n, 10)
	c.items[key] = e
	return n, nil
}

func (c *Cache) Expire(_ context.Context, key string, expiration time.Duration) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.lookup(key)
	if !ok {
		return false, nil
	}
	e.expiresAt = c.now().Add(expiration)
	c.items[key] = e
	return true, nil
}

func (c *Cache) Ping(context.Context) error { return nil }
