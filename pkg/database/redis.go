package database

import (
	"context"
	"time"

	"go-inventory-ledger/pkg/config"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ConnectRedis returns nil clients when Redis is not configured; callers fall back
// to the database sequence and skip cross-instance locks.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig, zl *zap.Logger) (*redis.Client, *redislock.Client) {
	if !cfg.Enabled() {
		zl.Info("Redis not configured; using database sequences and no distributed locks")
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		zl.Warn("Redis ping failed; continuing without Redis", zap.String("address", cfg.Address), zap.Error(err))
		_ = rdb.Close()
		return nil, nil
	}

	zl.Info("Redis connection established", zap.String("address", cfg.Address))
	return rdb, redislock.New(rdb)
}
