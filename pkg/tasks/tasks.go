// Package tasks defines the events that are sent to Kafka.
package tasks

import (
	"fmt"
	"time"
)

// 事件类型。
const (
	ObjectiveChanged = "objective.changed"
	ObjectiveDeleted = "objective.deleted"
	AlignmentChanged = "alignment.changed"
	// DirectoryChanged 部门或成员归属变化，影响所有周期的树。
	DirectoryChanged = "directory.changed"
)

// OKREvent 描述一次影响对齐树的写操作。
type OKREvent struct {
	Type        string    `json:"type"`
	ObjectiveID uint      `json:"objective_id"`
	CycleID     *uint     `json:"cycle_id"`
	LinkID      uint      `json:"link_id,omitempty"`
	Subject     string    `json:"subject,omitempty"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// Key 是事件的幂等标识，同时用作 Kafka 消息 key 与重试计数 key。
func (e OKREvent) Key() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s:%s", e.Type, e.Subject)
	}
	if e.LinkID != 0 {
		return fmt.Sprintf("%s:%d:%d", e.Type, e.ObjectiveID, e.LinkID)
	}
	return fmt.Sprintf("%s:%d", e.Type, e.ObjectiveID)
}
