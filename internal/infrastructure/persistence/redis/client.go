// Package redis Redis存储：登录会话、已撤销Token、待借清单
package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/xiebiao/library/internal/infrastructure/config"
)

// NewClient 创建Redis客户端并Ping
// 启动阶段连不上直接失败，不做重试
func NewClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rc := cfg.Redis
	client := redis.NewClient(&redis.Options{
		Addr:         rc.Addr(),
		Password:     rc.Password,
		DB:           rc.DB,
		PoolSize:     rc.PoolSize,
		MinIdleConns: rc.MinIdleConns,
		DialTimeout:  rc.DialTimeout,
		ReadTimeout:  rc.ReadTimeout,
		WriteTimeout: rc.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis %s失败: %w", rc.Addr(), err)
	}

	slog.InfoContext(ctx, "Redis已连接", "addr", rc.Addr(), "db", rc.DB, "pool_size", rc.PoolSize)
	return client, nil
}
