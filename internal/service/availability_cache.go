package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"psych-booking-engine/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// setIfVersionScript stores a snapshot only when no invalidation happened since
// the reader fetched the version. Otherwise a slow reader could overwrite a fresh
// invalidation with the state it read before a booking was written.
//
// KEYS[1] = snapshot key, KEYS[2] = version key
// ARGV[1] = expected version, ARGV[2] = payload, ARGV[3] = ttl in milliseconds
var setIfVersionScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2])
	if current == false then
		current = '0'
	end
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

const (
	// Redis key prefixes for availability snapshots
	RedisTakenKeyPrefix   = "availability:taken:"
	RedisVersionKeyPrefix = "availability:version:"

	// Timeout for individual Redis operations
	redisCacheTimeout = 2 * time.Second

	// Version keys outlive snapshots so a late writer still sees the bump.
	versionKeyTTL = 48 * time.Hour
)

// AvailabilityCache keeps, per (provider, date), the slot keys held by active
// bookings. It is only a fast path for reads: the unique index on bookings stays
// the source of truth, and every cache failure degrades to a database read.
//
// A nil *AvailabilityCache is valid and always misses.
type AvailabilityCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	ttl         time.Duration
}

// CachedTaken is one snapshot read. Version must be handed back to Store.
type CachedTaken struct {
	Keys    []string
	Version string
	Hit     bool
}

func NewAvailabilityCache(redisClient *redis.Client, log *logrus.Logger, ttl time.Duration) *AvailabilityCache {
	if redisClient == nil {
		return nil
	}
	return &AvailabilityCache{
		redisClient: redisClient,
		log:         log,
		ttl:         ttl,
	}
}

// Load returns the cached taken keys, if any, and the version to store against.
func (c *AvailabilityCache) Load(ctx context.Context, providerID uuid.UUID, date time.Time) (CachedTaken, error) {
	if c == nil {
		return CachedTaken{}, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	takenKey, versionKey := c.keys(providerID, date)

	pipe := c.redisClient.Pipeline()
	versionCmd := pipe.Get(ctx, versionKey)
	takenCmd := pipe.Get(ctx, takenKey)
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		c.log.Warnf("Failed to read availability cache for provider %s on %s: %+v", providerID, date.Format(entity.DateLayout), err)
		return CachedTaken{}, fmt.Errorf("read availability cache: %w", err)
	}

	version, err := versionCmd.Result()
	if err != nil {
		version = "0"
	}

	payload, err := takenCmd.Bytes()
	if errors.Is(err, redis.Nil) {
		return CachedTaken{Version: version}, nil
	}
	if err != nil {
		return CachedTaken{Version: version}, err
	}

	var keys []string
	if err := json.Unmarshal(payload, &keys); err != nil {
		c.log.Warnf("Discarding corrupt availability snapshot %s: %+v", takenKey, err)
		return CachedTaken{Version: version}, nil
	}
	return CachedTaken{Keys: keys, Version: version, Hit: true}, nil
}

// Store saves the taken keys unless the snapshot was invalidated after Load.
// Returns whether the snapshot was written.
func (c *AvailabilityCache) Store(ctx context.Context, providerID uuid.UUID, date time.Time, version string, taken []string) (bool, error) {
	if c == nil {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	if taken == nil {
		taken = []string{}
	}
	payload, err := json.Marshal(taken)
	if err != nil {
		return false, err
	}

	takenKey, versionKey := c.keys(providerID, date)
	ttl := c.calculateTTL(date)

	// Uses package-level setIfVersionScript for EVALSHA optimization
	stored, err := setIfVersionScript.Run(ctx, c.redisClient, []string{takenKey, versionKey}, version, payload, ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warnf("Failed to store availability snapshot %s: %+v", takenKey, err)
		return false, fmt.Errorf("store availability snapshot: %w", err)
	}
	return stored == 1, nil
}

// Invalidate drops the snapshots of the given dates and bumps their versions.
func (c *AvailabilityCache) Invalidate(ctx context.Context, providerID uuid.UUID, dates ...time.Time) error {
	if c == nil || len(dates) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, redisCacheTimeout)
	defer cancel()

	// Use Redis transaction for atomic operations
	pipe := c.redisClient.TxPipeline()
	for _, date := range dates {
		takenKey, versionKey := c.keys(providerID, date)
		pipe.Del(ctx, takenKey)
		pipe.Incr(ctx, versionKey)
		pipe.Expire(ctx, versionKey, versionKeyTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		c.log.Warnf("Failed to invalidate availability for provider %s: %+v", providerID, err)
		return fmt.Errorf("invalidate availability for provider %s: %w", providerID, err)
	}

	c.log.Debugf("Invalidated availability for provider %s (%d dates)", providerID, len(dates))
	return nil
}

func (c *AvailabilityCache) keys(providerID uuid.UUID, date time.Time) (string, string) {
	suffix := fmt.Sprintf("%s:%s", providerID, date.Format(entity.DateLayout))
	return RedisTakenKeyPrefix + suffix, RedisVersionKeyPrefix + suffix
}

// calculateTTL keeps snapshots for past dates short and never beyond the configured TTL.
func (c *AvailabilityCache) calculateTTL(date time.Time) time.Duration {
	ttl := c.ttl
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if entity.DateOf(date).Before(entity.DateOf(time.Now())) && ttl > 5*time.Second {
		return 5 * time.Second
	}
	return ttl
}
