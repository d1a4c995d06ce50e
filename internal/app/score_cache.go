package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lendwise/credit-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ScoreHistoryCache is an optional redis-backed cache for the score-history
// view. All methods are nil-safe: a nil cache (or a nil client) behaves like a
// permanent miss, so the service runs unchanged without redis.
type ScoreHistoryCache struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewScoreHistoryCache creates a cache with the given key prefix and entry TTL.
func NewScoreHistoryCache(client redis.UniversalClient, prefix string, ttl time.Duration) *ScoreHistoryCache {
	trimmed := strings.TrimSpace(prefix)
	if trimmed == "" {
		trimmed = "credit:score_history"
	}
	trimmed = strings.TrimSuffix(trimmed, ":")
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &ScoreHistoryCache{client: client, prefix: trimmed, ttl: ttl}
}

func (c *ScoreHistoryCache) key(userID uuid.UUID) string {
	return fmt.Sprintf("%s:%s", c.prefix, userID)
}

// Get returns the cached history for a user, or ok=false on miss or any error.
func (c *ScoreHistoryCache) Get(ctx context.Context, userID uuid.UUID) ([]domain.ScoreHistoryEntry, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, c.key(userID)).Result()
	if err != nil {
		return nil, false
	}
	var entries []domain.ScoreHistoryEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false
	}
	return entries, true
}

// Set stores the history for a user. Failures are swallowed; the cache is an
// optimization, not a source of truth.
func (c *ScoreHistoryCache) Set(ctx context.Context, userID uuid.UUID, entries []domain.ScoreHistoryEntry) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.key(userID), raw, c.ttl)
}

// Invalidate drops a user's cached history after a fresh score lands.
func (c *ScoreHistoryCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || c.client == nil {
		return
	}
	c.client.Del(ctx, c.key(userID))
}
