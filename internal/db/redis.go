package db

import (
	"log/slog"

	"backend-snapgraph/internal/config"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

func ConnectRedis(cfg config.Config) *redis.Client {
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := redisotel.InstrumentTracing(client); err != nil {
		slog.Warn("redis tracing disabled", "error", err)
	}
	return client
}
