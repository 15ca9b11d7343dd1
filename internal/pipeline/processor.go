// Package pipeline 消费 OKR 写事件：刷新目标搜索索引并使对齐树缓存失效。
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/tasks"

	"gorm.io/gorm"
)

// ObjectiveIndexer 写入或删除目标的搜索文档，由 es.ObjectiveIndex 实现。
type ObjectiveIndexer interface {
	Index(ctx context.Context, doc model.ObjectiveDocument) error
	Delete(ctx context.Context, objectiveID uint) error
}

// TreeInvalidator 使对齐树缓存失效，由 service.OKRTreeService 实现。
type TreeInvalidator interface {
	Invalidate(ctx context.Context, cycleKey string) error
	InvalidateAll(ctx context.Context) error
}

// Processor 封装了事件处理的所有依赖和逻辑。
type Processor struct {
	objectiveRepo repository.ObjectiveRepository
	keyResultRepo repository.KeyResultRepository
	indexer       ObjectiveIndexer
	trees         TreeInvalidator
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(
	objectiveRepo repository.ObjectiveRepository,
	keyResultRepo repository.KeyResultRepository,
	indexer ObjectiveIndexer,
	trees TreeInvalidator,
) *Processor {
	return &Processor{
		objectiveRepo: objectiveRepo,
		keyResultRepo: keyResultRepo,
		indexer:       indexer,
		trees:         trees,
	}
}

// Process 处理一条事件。缓存失效与索引刷新互不阻塞，任一失败都返回错误以便重试。
func (p *Processor) Process(ctx context.Context, event tasks.OKREvent) error {
	log.Infof("[Processor] 开始处理事件, key: %s", event.Key())

	// 部门名称与成员归属出现在所有周期的树中，搜索文档不含这些字段
	if event.Type == tasks.DirectoryChanged {
		if err := p.trees.InvalidateAll(ctx); err != nil {
			log.Errorf("[Processor] 事件处理失败, key: %s, Error: %v", event.Key(), err)
			return fmt.Errorf("invalidate all tree caches: %w", err)
		}
		return nil
	}

	var errs []error
	if err := p.invalidate(ctx, event); err != nil {
		errs = append(errs, err)
	}
	// 对齐关系的变化不影响目标文档本身
	if event.Type != tasks.AlignmentChanged {
		if err := p.reindex(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		log.Errorf("[Processor] 事件处理失败, key: %s, Error: %v", event.Key(), err)
		return err
	}
	return nil
}

// invalidate 删除事件所在周期的树缓存。不按周期过滤的树包含所有周期的目标，同样需要失效。
func (p *Processor) invalidate(ctx context.Context, event tasks.OKREvent) error {
	keys := []string{model.CycleRef{ID: event.CycleID}.Key()}
	if event.CycleID != nil {
		keys = append(keys, model.CycleRef{}.Key())
	}
	for _, key := range keys {
		if err := p.trees.Invalidate(ctx, key); err != nil {
			return fmt.Errorf("invalidate tree cache %s: %w", key, err)
		}
	}
	return nil
}

// reindex 把目标的最新状态写入搜索索引。已删除或已归档的目标从索引中移除。
func (p *Processor) reindex(ctx context.Context, event tasks.OKREvent) error {
	if event.Type == tasks.ObjectiveDeleted {
		return p.remove(ctx, event.ObjectiveID)
	}
	obj, err := p.objectiveRepo.FindByID(ctx, event.ObjectiveID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.remove(ctx, event.ObjectiveID)
	}
	if err != nil {
		return fmt.Errorf("load objective %d: %w", event.ObjectiveID, err)
	}
	if obj.IsArchived() {
		return p.remove(ctx, obj.ID)
	}

	krs, err := p.keyResultRepo.FindByObjective(ctx, obj.ID)
	if err != nil {
		return fmt.Errorf("load key results of %d: %w", obj.ID, err)
	}
	if err := p.indexer.Index(ctx, model.NewObjectiveDocument(obj, krs)); err != nil {
		return fmt.Errorf("index objective %d: %w", obj.ID, err)
	}
	log.Infof("[Processor] 目标 %d 已写入索引", obj.ID)
	return nil
}

func (p *Processor) remove(ctx context.Context, objectiveID uint) error {
	if err := p.indexer.Delete(ctx, objectiveID); err != nil {
		return fmt.Errorf("delete objective %d from index: %w", objectiveID, err)
	}
	log.Infof("[Processor] 目标 %d 已从索引移除", objectiveID)
	return nil
}
