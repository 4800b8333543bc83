package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheBackend is the subset of *redis.Client the session cache uses
type cacheBackend interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	URL       string
	KeyPrefix string
	TTL       time.Duration
}

// CachedProvider remembers successful session lookups in Redis so that
// every page load does not hit the auth service
type CachedProvider struct {
	next      Provider
	client    cacheBackend
	keyPrefix string
	ttl       time.Duration
	logger    *slog.Logger
	now       func() time.Time
}

// NewRedisCache connects to Redis and wraps next with a session cache
func NewRedisCache(cfg RedisConfig, next Provider, logger *slog.Logger) (*CachedProvider, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("connected to Redis",
		slog.String("addr", opts.Addr),
		slog.String("key_prefix", cfg.KeyPrefix),
	)

	return newCachedProvider(client, next, cfg.KeyPrefix, cfg.TTL, logger), nil
}

func newCachedProvider(client cacheBackend, next Provider, keyPrefix string, ttl time.Duration, logger *slog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedProvider{
		next:      next,
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger,
		now:       time.Now,
	}
}

// cacheKey never stores the raw token
func (c *CachedProvider) cacheKey(accessToken string) string {
	sum := sha256.Sum256([]byte(accessToken))
	return c.keyPrefix + hex.EncodeToString(sum[:])
}

// GetSession returns the cached session or asks the wrapped provider.
// Cache failures fall through to the provider.
func (c *CachedProvider) GetSession(ctx context.Context, accessToken string) (*Session, error) {
	if accessToken == "" {
		return c.next.GetSession(ctx, accessToken)
	}

	key := c.cacheKey(accessToken)

	data, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var session Session
		if jsonErr := json.Unmarshal(data, &session); jsonErr == nil {
			if session.ExpiresAt.IsZero() || c.now().Before(session.ExpiresAt) {
				return &session, nil
			}
		}
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("session cache read failed", slog.String("error", err.Error()))
	}

	session, err := c.next.GetSession(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	ttl := c.ttl
	if !session.ExpiresAt.IsZero() {
		if remaining := session.ExpiresAt.Sub(c.now()); remaining < ttl {
			ttl = remaining
		}
	}
	if ttl > 0 {
		payload, err := json.Marshal(session)
		if err == nil {
			err = c.client.Set(ctx, key, payload, ttl).Err()
		}
		if err != nil {
			c.logger.Warn("session cache write failed", slog.String("error", err.Error()))
		}
	}

	return session, nil
}

// SignOut evicts the cached session and signs out upstream
func (c *CachedProvider) SignOut(ctx context.Context, accessToken string) error {
	if accessToken != "" {
		if err := c.client.Del(ctx, c.cacheKey(accessToken)).Err(); err != nil {
			c.logger.Warn("session cache eviction failed", slog.String("error", err.Error()))
		}
	}
	return c.next.SignOut(ctx, accessToken)
}

// Health checks if Redis is healthy
func (c *CachedProvider) Health(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("Redis health check failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *CachedProvider) Close() error {
	c.logger.Info("closing Redis connection")
	return c.client.Close()
}
