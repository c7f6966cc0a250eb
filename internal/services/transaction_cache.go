package services

import (
	"context"
	"sync"
	"time"

	"payment-verification-api/pkg/logging"

	"github.com/redis/go-redis/v9"
)

const transactionCacheTTL = 24 * time.Hour

// TransactionCache remembers transaction ids already consumed by a verified
// payment so a retried poll does not re-run the whole verification for them.
// It is advisory only: the persistent store remains the authority on
// duplicates, so losing this cache on restart cannot cause a double-credit.
//
// When a Redis client is supplied the cache also mirrors entries there with
// the same TTL, which lets multiple instances share the short-circuit.
type TransactionCache struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	ttl     time.Duration
	client  *redis.Client

	now func() time.Time
}

// NewTransactionCache creates a transaction cache with the default 24h TTL.
// client may be nil, in which case the cache is process-local.
func NewTransactionCache(client *redis.Client) *TransactionCache {
	return &TransactionCache{
		entries: make(map[string]time.Time),
		ttl:     transactionCacheTTL,
		client:  client,
		now:     time.Now,
	}
}

// Has reports whether the transaction id was consumed within the TTL
func (c *TransactionCache) Has(ctx context.Context, transactionID string) bool {
	if transactionID == "" {
		return false
	}

	c.mu.RLock()
	consumedAt, ok := c.entries[transactionID]
	c.mu.RUnlock()
	if ok && c.now().Sub(consumedAt) <= c.ttl {
		return true
	}

	if c.client != nil {
		exists, err := c.client.Exists(ctx, cacheKey(transactionID)).Result()
		if err != nil {
			logging.Errorf("Transaction cache redis lookup failed: %v", err)
			return false
		}
		return exists > 0
	}
	return false
}

// Mark records the transaction id as consumed
func (c *TransactionCache) Mark(ctx context.Context, transactionID string) {
	if transactionID == "" {
		return
	}

	c.mu.Lock()
	c.entries[transactionID] = c.now()
	c.mu.Unlock()

	if c.client != nil {
		if err := c.client.SetNX(ctx, cacheKey(transactionID), 1, c.ttl).Err(); err != nil {
			logging.Errorf("Transaction cache redis mirror failed: %v", err)
		}
	}
}

// Cleanup evicts entries older than the TTL. Called once per reconciliation
// batch; Redis entries expire on their own.
func (c *TransactionCache) Cleanup() {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	initial := len(c.entries)
	for transactionID, consumedAt := range c.entries {
		if now.Sub(consumedAt) > c.ttl {
			delete(c.entries, transactionID)
		}
	}

	if cleaned := initial - len(c.entries); cleaned > 0 {
		logging.Infof("Transaction cache cleanup: removed %d expired entries, remaining: %d", cleaned, len(c.entries))
	}
}

// Size returns the number of live entries, for diagnostics
func (c *TransactionCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(transactionID string) string {
	return "payment:tx:" + transactionID
}
