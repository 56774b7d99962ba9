package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/authgate/authgate/internal/model"
)

const (
	// userCachePrefix is the Redis key prefix for cached user contexts.
	userCachePrefix = "user:ctx:"
	// DefaultUserCacheTTL is the time-to-live for cached user contexts.
	DefaultUserCacheTTL = time.Minute
)

// UserCache is a read-through cache of user contexts keyed by user ID.
// Entries expire after the TTL; the service deletes an entry early when the
// store no longer has the user.
type UserCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewUserCache wraps a Cache with the given entry TTL.
func NewUserCache(c *Cache, ttl time.Duration) *UserCache {
	if ttl <= 0 {
		ttl = DefaultUserCacheTTL
	}
	return &UserCache{cache: c, ttl: ttl}
}

// TTL returns the entry time-to-live.
func (u *UserCache) TTL() time.Duration {
	return u.ttl
}

// GetUserContext retrieves a cached user context.
// Returns nil if not found (cache miss).
func (u *UserCache) GetUserContext(ctx context.Context, userID int64) (*model.UserContext, error) {
	data, err := u.cache.client.Get(ctx, userContextKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user context: %w", err)
	}

	userCtx, err := decodeUserContext(data)
	if err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}
	return userCtx, nil
}

// SetUserContext caches a user context.
func (u *UserCache) SetUserContext(ctx context.Context, userID int64, userCtx *model.UserContext) error {
	data, err := json.Marshal(userCtx)
	if err != nil {
		return fmt.Errorf("marshal user context: %w", err)
	}
	return u.cache.client.Set(ctx, userContextKey(userID), data, u.ttl).Err()
}

// DeleteUserContext removes a cached user context.
func (u *UserCache) DeleteUserContext(ctx context.Context, userID int64) error {
	return u.cache.client.Del(ctx, userContextKey(userID)).Err()
}

func userContextKey(userID int64) string {
	return userCachePrefix + strconv.FormatInt(userID, 10)
}

func decodeUserContext(data []byte) (*model.UserContext, error) {
	var userCtx model.UserContext
	if err := json.Unmarshal(data, &userCtx); err != nil {
		return nil, err
	}
	if userCtx.UserID == "" {
		return nil, errors.New("cached user context missing user_id")
	}
	return &userCtx, nil
}
