package points

import (
	"sync"
	"time"

	"github.com/anivartee/anivartee/model"
)

// LeaderboardCache is an explicit (data, expiry) holder for the public
// leaderboard, injected into the service so tests can construct isolated
// instances and control time. Entries beyond a requested limit are truncated
// from the cached set rather than re-queried.
type LeaderboardCache struct {
	mu     sync.Mutex
	data   []model.PointsBalance
	expiry time.Time

	ttl time.Duration
	now func() time.Time
}

func NewLeaderboardCache(ttl time.Duration) *LeaderboardCache {
	return &LeaderboardCache{ttl: ttl, now: time.Now}
}

// Get returns up to limit cached entries, or false when the cache is empty
// or past its expiry.
func (c *LeaderboardCache) Get(limit int) ([]model.PointsBalance, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.data == nil || !c.now().Before(c.expiry) {
		return nil, false
	}
	if limit > len(c.data) {
		limit = len(c.data)
	}
	out := make([]model.PointsBalance, limit)
	copy(out, c.data[:limit])
	return out, true
}

// Set replaces the cached set and restarts the TTL window.
func (c *LeaderboardCache) Set(data []model.PointsBalance) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.data = data
	c.expiry = c.now().Add(c.ttl)
}

// InvalidateUser drops the cache iff the given user appears in the cached
// set. Awards to users outside the leaderboard leave the cache intact, their
// new balance surfaces on the next natural expiry.
func (c *LeaderboardCache) InvalidateUser(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, entry := range c.data {
		if entry.UserID == userID {
			c.data = nil
			return
		}
	}
}
