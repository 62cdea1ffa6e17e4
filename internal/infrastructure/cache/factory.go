package cache

import (
	"go.uber.org/zap"

	"github.com/rentora/backend/internal/infrastructure/config"
)

// NewRunGuardFromConfig builds a Redis-backed run guard when Redis is
// configured and falls back to the in-memory guard otherwise.
func NewRunGuardFromConfig(cfg *config.RedisConfig, logger *zap.Logger) (RunGuard, error) {
	if cfg == nil || cfg.Host == "" {
		logger.Info("Redis not configured, using in-memory run guard")
		return NewInMemoryRunGuard(0), nil
	}

	guard, err := NewRedisRunGuard(RedisRunGuardConfig{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	}, logger)
	if err != nil {
		return nil, err
	}

	logger.Info("Using Redis run guard", zap.String("addr", cfg.Addr()))
	return guard, nil
}
