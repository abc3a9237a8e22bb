package chain

import (
	"context"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
)

type balanceKey struct {
	address string
	denom   string
}

type cachedBalance struct {
	amount  sdkmath.Int
	fetched time.Time
}

// BalanceCache holds bank balances per address and denom for ttl. A zero
// ttl disables caching.
type BalanceCache struct {
	mu      sync.RWMutex
	entries map[balanceKey]cachedBalance
	ttl     time.Duration
	now     func() time.Time
}

func NewBalanceCache(ttl time.Duration) *BalanceCache {
	return &BalanceCache{
		entries: make(map[balanceKey]cachedBalance),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *BalanceCache) fresh(e cachedBalance, now time.Time) bool {
	return now.Sub(e.fetched) < c.ttl
}

// Get returns the cached amount while it is younger than the ttl.
func (c *BalanceCache) Get(address, denom string) (sdkmath.Int, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[balanceKey{address, denom}]
	if !ok || !c.fresh(e, c.now()) {
		return sdkmath.Int{}, false
	}
	return e.amount, true
}

func (c *BalanceCache) Put(address, denom string, amount sdkmath.Int) {
	if c.ttl <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[balanceKey{address, denom}] = cachedBalance{amount: amount, fetched: c.now()}
}

// Invalidate drops every denom cached for address, e.g. after a broadcast
// from it.
func (c *BalanceCache) Invalidate(address string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.address == address {
			delete(c.entries, key)
		}
	}
}

func (c *BalanceCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[balanceKey]cachedBalance)
}

// Cleanup evicts stale entries and reports how many were removed.
func (c *BalanceCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	evicted := 0
	for key, e := range c.entries {
		if !c.fresh(e, now) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}

func (c *BalanceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.entries)
}

// StartCleanupRoutine evicts stale entries every interval until ctx is done.
func (c *BalanceCache) StartCleanupRoutine(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.Cleanup()
			}
		}
	}()
}
