package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RunGuard prevents the same billing run from executing more than once,
// for example when several server instances share one database.
type RunGuard interface {
	// TryAcquire claims the named run. It returns true when the caller
	// won the claim and false when another process already holds it.
	TryAcquire(ctx context.Context, runKey string) (bool, error)
	// Release gives the claim back, allowing a retry of a failed run.
	Release(ctx context.Context, runKey string) error
	Close() error
}

// RedisRunGuard implements RunGuard on top of Redis SET NX with a TTL,
// so a crashed process cannot hold a run claim forever.
type RedisRunGuard struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *zap.Logger
}

// RedisRunGuardConfig holds connection settings for the run guard.
type RedisRunGuardConfig struct {
	Addr     string
	Password string
	DB       int
	// Prefix namespaces the guard keys. Defaults to "billing:run".
	Prefix string
	// TTL bounds how long a claim is held. Defaults to 23 hours so a
	// daily run can always re-acquire the next day.
	TTL time.Duration
}

// NewRedisRunGuard connects to Redis and returns a run guard.
func NewRedisRunGuard(cfg RedisRunGuardConfig, logger *zap.Logger) (*RedisRunGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisRunGuardWithClient(client, cfg, logger), nil
}

// NewRedisRunGuardWithClient wraps an existing client, mainly for tests.
func NewRedisRunGuardWithClient(client *redis.Client, cfg RedisRunGuardConfig, logger *zap.Logger) *RedisRunGuard {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "billing:run"
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 23 * time.Hour
	}
	return &RedisRunGuard{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

func (g *RedisRunGuard) key(runKey string) string {
	return fmt.Sprintf("%s:%s", g.prefix, runKey)
}

func (g *RedisRunGuard) TryAcquire(ctx context.Context, runKey string) (bool, error) {
	ok, err := g.client.SetNX(ctx, g.key(runKey), time.Now().UTC().Format(time.RFC3339), g.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire run claim: %w", err)
	}
	if !ok {
		g.logger.Debug("Run already claimed", zap.String("run_key", runKey))
	}
	return ok, nil
}

func (g *RedisRunGuard) Release(ctx context.Context, runKey string) error {
	if err := g.client.Del(ctx, g.key(runKey)).Err(); err != nil {
		return fmt.Errorf("failed to release run claim: %w", err)
	}
	return nil
}

func (g *RedisRunGuard) Close() error {
	return g.client.Close()
}

// InMemoryRunGuard is a single-process fallback used when Redis is not
// configured. Claims expire after the TTL like the Redis variant.
type InMemoryRunGuard struct {
	mu     sync.Mutex
	claims map[string]time.Time
	ttl    time.Duration
}

// NewInMemoryRunGuard returns a process-local run guard.
func NewInMemoryRunGuard(ttl time.Duration) *InMemoryRunGuard {
	if ttl <= 0 {
		ttl = 23 * time.Hour
	}
	return &InMemoryRunGuard{
		claims: make(map[string]time.Time),
		ttl:    ttl,
	}
}

func (g *InMemoryRunGuard) TryAcquire(_ context.Context, runKey string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	if expiry, held := g.claims[runKey]; held && now.Before(expiry) {
		return false, nil
	}
	g.claims[runKey] = now.Add(g.ttl)
	return true, nil
}

func (g *InMemoryRunGuard) Release(_ context.Context, runKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.claims, runKey)
	return nil
}

func (g *InMemoryRunGuard) Close() error { return nil }
