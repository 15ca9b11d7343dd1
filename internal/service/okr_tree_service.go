package service

import (
	"context"
	"okr-compass-go/internal/alignment"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/pkg/log"
	"time"
)

// OKRTreeService 对外提供按查看者解析好的对齐树，并负责树缓存。
type OKRTreeService interface {
	GetTree(ctx context.Context, viewer *model.User, cycleID *uint) (*model.OKRTree, error)
	// Invalidate 删除某个周期下所有查看者的缓存，cycleKey 与 model.CycleRef.Key 一致。
	Invalidate(ctx context.Context, cycleKey string) error
	// InvalidateAll 删除所有周期的缓存，用于部门或成员归属变化。
	InvalidateAll(ctx context.Context) error
}

type okrTreeService struct {
	cycles CycleService
	engine *alignment.Engine
	cache  repository.TreeCacheRepository
	ttl    time.Duration
	now    func() time.Time
}

// NewOKRTreeService 创建一个新的 OKRTreeService 实例。cache 为 nil 或 ttl 为 0 时不缓存。
func NewOKRTreeService(cycles CycleService, engine *alignment.Engine, cache repository.TreeCacheRepository, ttl time.Duration) OKRTreeService {
	return &okrTreeService{
		cycles: cycles,
		engine: engine,
		cache:  cache,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *okrTreeService) cacheEnabled() bool {
	return s.cache != nil && s.ttl > 0
}

func (s *okrTreeService) GetTree(ctx context.Context, viewer *model.User, cycleID *uint) (*model.OKRTree, error) {
	cycle, err := s.cycles.ResolveCurrent(ctx, cycleID, s.now())
	if err != nil {
		return nil, err
	}
	v := alignment.ViewerFromUser(viewer)

	if s.cacheEnabled() {
		tree, ok, err := s.cache.Get(ctx, cycle.Key(), v.CacheKey())
		if err != nil {
			// 缓存不可用时直接解析。
			log.Warnf("[OKRTreeService] 读取树缓存失败 cycle=%s: %v", cycle.Key(), err)
		} else if ok {
			return tree, nil
		}
	}

	tree, err := s.engine.Resolve(ctx, cycle, v)
	if err != nil {
		log.Errorf("[OKRTreeService] 解析对齐树失败 cycle=%s user=%d: %v", cycle.Key(), viewer.ID, err)
		return nil, err
	}

	if s.cacheEnabled() {
		if err := s.cache.Set(ctx, cycle.Key(), v.CacheKey(), tree, s.ttl); err != nil {
			log.Warnf("[OKRTreeService] 写入树缓存失败 cycle=%s: %v", cycle.Key(), err)
		}
	}
	return tree, nil
}

func (s *okrTreeService) Invalidate(ctx context.Context, cycleKey string) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateCycle(ctx, cycleKey)
}

func (s *okrTreeService) InvalidateAll(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.InvalidateAll(ctx)
}
