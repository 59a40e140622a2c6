package cache

import (
	"context"
	"time"
)

// MultiLevelCache 进程内缓存 + 远程缓存 (Redis) 两级缓存
//
// 本地层 TTL 很短：其他实例的失效不会通知到本地层，
// 跨实例读取最多落后 localTTL。
type MultiLevelCache struct {
	local    CacheService
	remote   CacheService
	localTTL time.Duration
}

// NewMultiLevelCache 创建两级缓存
func NewMultiLevelCache(local, remote CacheService, localTTL time.Duration) *MultiLevelCache {
	return &MultiLevelCache{local: local, remote: remote, localTTL: localTTL}
}

func (c *MultiLevelCache) ttl(expiration time.Duration) time.Duration {
	if expiration < c.localTTL {
		return expiration
	}
	return c.localTTL
}

// Get 先查本地，未命中再查远程并回填本地
func (c *MultiLevelCache) Get(ctx context.Context, key string, dest interface{}) error {
	if err := c.local.Get(ctx, key, dest); err == nil {
		return nil
	}
	if err := c.remote.Get(ctx, key, dest); err != nil {
		return err
	}
	_ = c.local.Set(ctx, key, dest, c.localTTL)
	return nil
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := c.remote.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	return c.local.Set(ctx, key, value, c.ttl(expiration))
}

// Delete 两级都删除，远程失败时仍清理本地
func (c *MultiLevelCache) Delete(ctx context.Context, keys ...string) error {
	_ = c.local.Delete(ctx, keys...)
	return c.remote.Delete(ctx, keys...)
}

func (c *MultiLevelCache) InvalidatePattern(ctx context.Context, pattern string) error {
	_ = c.local.InvalidatePattern(ctx, pattern)
	return c.remote.InvalidatePattern(ctx, pattern)
}
