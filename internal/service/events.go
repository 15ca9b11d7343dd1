package service

import (
	"context"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/tasks"
	"time"
)

// EventPublisher 发布影响对齐树的写事件。
type EventPublisher interface {
	Publish(ctx context.Context, event tasks.OKREvent) error
}

// NopPublisher 丢弃所有事件。
type NopPublisher struct{}

// Publish implements EventPublisher.
func (NopPublisher) Publish(context.Context, tasks.OKREvent) error { return nil }

// publish 发布事件。写操作已经提交，发布失败只记录日志，缓存最迟在 TTL 到期后刷新。
func publish(ctx context.Context, p EventPublisher, event tasks.OKREvent) {
	if p == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now()
	}
	if err := p.Publish(ctx, event); err != nil {
		log.Warnf("[Events] 发布事件失败 key=%s: %v", event.Key(), err)
	}
}
