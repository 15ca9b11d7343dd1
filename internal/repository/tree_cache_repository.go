// Package repository 提供了数据访问层的实现。
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"okr-compass-go/internal/model"
	"time"

	"github.com/go-redis/redis/v8"
)

// TreeCacheRepository 缓存按 (周期, 查看者) 解析好的对齐树。
type TreeCacheRepository interface {
	Get(ctx context.Context, cycleKey, viewerKey string) (*model.OKRTree, bool, error)
	Set(ctx context.Context, cycleKey, viewerKey string, tree *model.OKRTree, ttl time.Duration) error
	// InvalidateCycle 删除某个周期下所有查看者的缓存。
	InvalidateCycle(ctx context.Context, cycleKey string) error
	// InvalidateAll 删除所有周期的缓存。
	InvalidateAll(ctx context.Context) error
}

type redisTreeCacheRepository struct {
	redisClient *redis.Client
}

// NewTreeCacheRepository 创建一个新的 TreeCacheRepository 实例。
func NewTreeCacheRepository(redisClient *redis.Client) TreeCacheRepository {
	return &redisTreeCacheRepository{redisClient: redisClient}
}

func treeKey(cycleKey, viewerKey string) string {
	return fmt.Sprintf("okr:tree:%s:%s", cycleKey, viewerKey)
}

// 每个周期维护一个 set 记录已缓存的 key，失效时无需扫描 keyspace。
func treeIndexKey(cycleKey string) string {
	return fmt.Sprintf("okr:tree-index:%s", cycleKey)
}

// treeCyclesKey 记录出现过缓存的周期。
const treeCyclesKey = "okr:tree-cycles"

func (r *redisTreeCacheRepository) Get(ctx context.Context, cycleKey, viewerKey string) (*model.OKRTree, bool, error) {
	data, err := r.redisClient.Get(ctx, treeKey(cycleKey, viewerKey)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached tree: %w", err)
	}
	var tree model.OKRTree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal cached tree: %w", err)
	}
	return &tree, true, nil
}

func (r *redisTreeCacheRepository) Set(ctx context.Context, cycleKey, viewerKey string, tree *model.OKRTree, ttl time.Duration) error {
	data, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("failed to marshal tree: %w", err)
	}
	key := treeKey(cycleKey, viewerKey)
	pipe := r.redisClient.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	pipe.SAdd(ctx, treeIndexKey(cycleKey), key)
	pipe.Expire(ctx, treeIndexKey(cycleKey), ttl)
	pipe.SAdd(ctx, treeCyclesKey, cycleKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache tree: %w", err)
	}
	return nil
}

func (r *redisTreeCacheRepository) InvalidateCycle(ctx context.Context, cycleKey string) error {
	indexKey := treeIndexKey(cycleKey)
	keys, err := r.redisClient.SMembers(ctx, indexKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read tree index: %w", err)
	}
	keys = append(keys, indexKey)
	if err := r.redisClient.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate trees: %w", err)
	}
	return nil
}

func (r *redisTreeCacheRepository) InvalidateAll(ctx context.Context) error {
	cycles, err := r.redisClient.SMembers(ctx, treeCyclesKey).Result()
	if err != nil && err != redis.Nil {
		return fmt.Errorf("failed to read tree cycles: %w", err)
	}
	for _, cycleKey := range cycles {
		if err := r.InvalidateCycle(ctx, cycleKey); err != nil {
			return err
		}
	}
	if err := r.redisClient.Del(ctx, treeCyclesKey).Err(); err != nil {
		return fmt.Errorf("failed to reset tree cycles: %w", err)
	}
	return nil
}
