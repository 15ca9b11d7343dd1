package alignment

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/pkg/log"
)

// Engine 串联 Loader -> Resolver -> Tracker -> Assembler。
// 无包级可变状态，多个查看者可以并发解析。
type Engine struct {
	loader *Loader
}

// NewEngine 创建一个新的 Engine。
func NewEngine(loader *Loader) *Engine {
	return &Engine{loader: loader}
}

// Resolve 为查看者解析某个周期的对齐树。cycle.ID 为 nil 时不按周期过滤。
func (e *Engine) Resolve(ctx context.Context, cycle model.CycleRef, viewer Viewer) (*model.OKRTree, error) {
	snap, err := e.loader.Load(ctx, cycle.ID, viewer)
	if err != nil {
		return nil, err
	}
	tracker := NewTracker()
	tree := NewAssembler(snap, NewResolver(snap), tracker).Build(cycle)
	log.Debugf("[Alignment] 解析完成 cycle=%s viewer=%d objectives=%d links=%d linked=%d placed=%d",
		cycle.Key(), viewer.UserID, len(snap.Objectives), len(snap.Links), len(tracker.Linked()), len(tracker.Placed()))
	return tree, nil
}
