package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yeonjoon13/Vessel-Collision-Tracker/internal/collision"
)

const DefaultKeyPrefix = "vct:alert:"

// MemoryCooldown allows one alert per (subject, other) pair per window.
type MemoryCooldown struct {
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	last map[string]time.Time
}

func NewMemoryCooldown(window time.Duration) *MemoryCooldown {
	return &MemoryCooldown{window: window, now: time.Now, last: make(map[string]time.Time)}
}

func (c *MemoryCooldown) Allow(_ context.Context, subjectID, otherID string) (bool, error) {
	key := collision.PairID(subjectID, otherID)
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.last[key]; ok && now.Sub(last) < c.window {
		return false, nil
	}
	c.last[key] = now
	c.prune(now)
	return true, nil
}

// prune drops expired entries so the map tracks only live pairs.
func (c *MemoryCooldown) prune(now time.Time) {
	for k, t := range c.last {
		if now.Sub(t) >= c.window {
			delete(c.last, k)
		}
	}
}

// RedisCooldown shares the cooldown across detector replicas using SET NX
// with an expiry.
type RedisCooldown struct {
	client redis.UniversalClient
	window time.Duration
	prefix string
}

func NewRedisCooldown(client redis.UniversalClient, window time.Duration) *RedisCooldown {
	return &RedisCooldown{client: client, window: window, prefix: DefaultKeyPrefix}
}

func (c *RedisCooldown) Allow(ctx context.Context, subjectID, otherID string) (bool, error) {
	key := c.prefix + collision.PairID(subjectID, otherID)
	ok, err := c.client.SetNX(ctx, key, time.Now().Unix(), c.window).Result()
	if err != nil {
		return false, fmt.Errorf("alert cooldown %s: %w", key, err)
	}
	return ok, nil
}
