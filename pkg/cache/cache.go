package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value  string
	stored time.Time
}

// Cache holds responses for a fixed TTL.
type Cache struct {
	mu   sync.Mutex
	data map[string]entry
	ttl  time.Duration
	done chan struct{}
	once sync.Once
	now  func() time.Time
}

func New(ttl time.Duration) *Cache {
	c := &Cache{data: make(map[string]entry), ttl: ttl, done: make(chan struct{}), now: time.Now}
	go c.cleanupLoop()
	return c
}

// Key hashes parts into a stable cache key.
func Key(parts ...string) string {
	sum := sha1.Sum([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

func (c *Cache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.data[key]
	if !ok || c.now().Sub(e.stored) > c.ttl {
		return "", false
	}
	return e.value, true
}

func (c *Cache) Put(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = entry{value: value, stored: c.now()}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.ttl)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evict()
		case <-c.done:
			return
		}
	}
}

func (c *Cache) evict() {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, e := range c.data {
		if now.Sub(e.stored) > c.ttl {
			delete(c.data, k)
		}
	}
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (c *Cache) Stop() { c.once.Do(func() { close(c.done) }) }
