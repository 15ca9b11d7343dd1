package database

import (
	"context"
	"okr-compass-go/internal/config"
	"okr-compass-go/pkg/log"
	"time"

	"github.com/go-redis/redis/v8"
)

// RDB 承载对齐树缓存、登出黑名单和事件重试计数。
var RDB *redis.Client

// InitRedis 初始化 Redis 客户端连接
func InitRedis(cfg config.RedisConfig) {
	RDB = redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := RDB.Ping(ctx).Err(); err != nil {
		log.Fatal("failed to connect to redis", err)
	}

	log.Infof("Redis client connected successfully, addr=%s db=%d", cfg.Addr, cfg.DB)
}
