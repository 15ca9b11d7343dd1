package service

import (
	"context"
	"encoding/json"
	"fmt"
	"okr-compass-go/internal/model"
	"okr-compass-go/pkg/log"
	"path"
	"time"

	"github.com/google/uuid"
)

// SnapshotStore 保存快照并生成下载链接，由 storage.ObjectStore 实现。
type SnapshotStore interface {
	PutJSON(ctx context.Context, objectName string, data []byte) error
	PresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error)
}

// Snapshot 是一次快照的结果。
type Snapshot struct {
	ObjectName string    `json:"objectName"`
	URL        string    `json:"url"`
	CycleID    *uint     `json:"cycleId"`
	CycleLabel string    `json:"cycleLabel"`
	ExpiresAt  time.Time `json:"expiresAt"`
}

// SnapshotService 把查看者看到的对齐树保存为 JSON 快照。
type SnapshotService interface {
	Create(ctx context.Context, viewer *model.User, cycleID *uint) (*Snapshot, error)
}

type snapshotService struct {
	trees  OKRTreeService
	store  SnapshotStore
	prefix string
	expiry time.Duration
}

// NewSnapshotService 创建一个新的 SnapshotService 实例。
func NewSnapshotService(trees OKRTreeService, store SnapshotStore, prefix string, expiry time.Duration) SnapshotService {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &snapshotService{trees: trees, store: store, prefix: prefix, expiry: expiry}
}

func (s *snapshotService) Create(ctx context.Context, viewer *model.User, cycleID *uint) (*Snapshot, error) {
	tree, err := s.trees.GetTree(ctx, viewer, cycleID)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tree: %w", err)
	}

	cycle := model.CycleRef{ID: tree.CycleID, Label: tree.CycleLabel}
	objectName := path.Join(s.prefix, cycle.Key(), uuid.NewString()+".json")
	if err := s.store.PutJSON(ctx, objectName, data); err != nil {
		log.Errorf("[SnapshotService] 上传快照失败, object: %s: %v", objectName, err)
		return nil, err
	}
	url, err := s.store.PresignedURL(ctx, objectName, s.expiry)
	if err != nil {
		return nil, err
	}
	log.Infof("[SnapshotService] 用户 %d 生成快照 %s", viewer.ID, objectName)
	return &Snapshot{
		ObjectName: objectName,
		URL:        url,
		CycleID:    tree.CycleID,
		CycleLabel: tree.CycleLabel,
		ExpiresAt:  time.Now().Add(s.expiry),
	}, nil
}
