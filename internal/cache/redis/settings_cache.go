package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/forkmarkets/relayd/internal/domain"
)

const (
	settingsKey = "platform:settings"
	settingsTTL = time.Minute
)

// SettingsCache implements domain.SettingsCache with a single JSON value and
// a short TTL. The fee schedule changes rarely but is read on every order, so
// a one-minute cache takes the database off the hot path while keeping the
// staleness window small.
type SettingsCache struct {
	rdb *redis.Client
}

// NewSettingsCache creates a SettingsCache backed by the given Client.
func NewSettingsCache(c *Client) *SettingsCache {
	return &SettingsCache{rdb: c.Underlying()}
}

// Get retrieves the cached fee schedule. It returns domain.ErrNotFound when
// the entry is absent or expired.
func (sc *SettingsCache) Get(ctx context.Context) (domain.Settings, error) {
	data, err := sc.rdb.Get(ctx, settingsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Settings{}, domain.ErrNotFound
		}
		return domain.Settings{}, fmt.Errorf("redis: get settings: %w", err)
	}

	var s domain.Settings
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Settings{}, fmt.Errorf("redis: unmarshal settings: %w", err)
	}
	return s, nil
}

// Set stores the fee schedule with the cache TTL.
func (sc *SettingsCache) Set(ctx context.Context, s domain.Settings) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("redis: marshal settings: %w", err)
	}
	if err := sc.rdb.Set(ctx, settingsKey, data, settingsTTL).Err(); err != nil {
		return fmt.Errorf("redis: set settings: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SettingsCache = (*SettingsCache)(nil)
