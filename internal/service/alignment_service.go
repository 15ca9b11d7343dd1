package service

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

// LinkRequest 是发起对齐申请的输入，TargetObjectiveID 与 TargetKrID 必须且只能有一个。
type LinkRequest struct {
	SourceObjectiveID uint
	TargetObjectiveID *uint
	TargetKrID        *uint
	Note              string
}

// AlignmentService 管理对齐关系的生命周期。
// pending -> approved / rejected / changes_requested，任一方可以取消，取消后不可再变更。
type AlignmentService interface {
	Request(ctx context.Context, actor *model.User, req LinkRequest) (*model.AlignmentLink, error)
	Approve(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error)
	Reject(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error)
	RequestChanges(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error)
	Cancel(ctx context.Context, actor *model.User, linkID uint) (*model.AlignmentLink, error)
	ListBySource(ctx context.Context, viewer *model.User, objectiveID uint) ([]model.AlignmentLink, error)
	ListIncoming(ctx context.Context, actor *model.User) ([]model.AlignmentLink, error)
}

type alignmentService struct {
	linkRepo      repository.AlignmentLinkRepository
	objectiveRepo repository.ObjectiveRepository
	keyResultRepo repository.KeyResultRepository
	events        EventPublisher
}

// NewAlignmentService 创建一个新的 AlignmentService 实例。
func NewAlignmentService(
	linkRepo repository.AlignmentLinkRepository,
	objectiveRepo repository.ObjectiveRepository,
	keyResultRepo repository.KeyResultRepository,
	events EventPublisher,
) AlignmentService {
	return &alignmentService{
		linkRepo:      linkRepo,
		objectiveRepo: objectiveRepo,
		keyResultRepo: keyResultRepo,
		events:        events,
	}
}

func (s *alignmentService) Request(ctx context.Context, actor *model.User, req LinkRequest) (*model.AlignmentLink, error) {
	if (req.TargetObjectiveID == nil) == (req.TargetKrID == nil) {
		return nil, ErrInvalidLink
	}
	source, err := s.objectiveRepo.FindByID(ctx, req.SourceObjectiveID)
	if err != nil {
		return nil, notFound(err)
	}
	if !source.OwnedBy(actor.ID) && actor.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	if source.IsArchived() {
		return nil, ErrInvalidLink
	}

	targetOwner, err := s.targetOwner(ctx, source, req)
	if err != nil {
		return nil, err
	}

	_, err = s.linkRepo.FindOpenForTarget(ctx, source.ID, req.TargetObjectiveID, req.TargetKrID)
	if err == nil {
		return nil, ErrDuplicateLink
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	link := &model.AlignmentLink{
		SourceObjectiveID: source.ID,
		TargetObjectiveID: req.TargetObjectiveID,
		TargetKrID:        req.TargetKrID,
		Status:            model.LinkPending,
		IsActive:          true,
		RequesterID:       actor.ID,
		TargetOwnerID:     targetOwner,
		Note:              req.Note,
	}
	if err := s.linkRepo.Create(ctx, link); err != nil {
		return nil, err
	}
	log.Infof("[AlignmentService] 用户 %d 申请对齐 %d: 目标 %d -> %s", actor.ID, link.ID, source.ID, describeTarget(link))
	s.changed(ctx, source, link)
	return link, nil
}

// targetOwner 校验对齐目标并返回其负责人。指向关键结果时，负责人为关键结果所属目标的负责人。
func (s *alignmentService) targetOwner(ctx context.Context, source *model.Objective, req LinkRequest) (*uint, error) {
	targetObjectiveID := req.TargetObjectiveID
	if req.TargetKrID != nil {
		kr, err := s.keyResultRepo.FindByID(ctx, *req.TargetKrID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrInvalidLink
			}
			return nil, err
		}
		if kr.IsArchived() {
			return nil, ErrInvalidLink
		}
		targetObjectiveID = &kr.ObjectiveID
	}
	if *targetObjectiveID == source.ID {
		return nil, ErrInvalidLink
	}
	target, err := s.objectiveRepo.FindByID(ctx, *targetObjectiveID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidLink
		}
		return nil, err
	}
	if target.IsArchived() {
		return nil, ErrInvalidLink
	}
	return target.UserID, nil
}

func describeTarget(l *model.AlignmentLink) string {
	if l.TargetKrID != nil {
		return fmt.Sprintf("kr %d", *l.TargetKrID)
	}
	return fmt.Sprintf("objective %d", *l.TargetObjectiveID)
}

// decide 由目标负责人或管理员处理申请。
func (s *alignmentService) decide(ctx context.Context, actor *model.User, linkID uint, status, note string) (*model.AlignmentLink, error) {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, notFound(err)
	}
	if link.Closed() {
		return nil, ErrLinkClosed
	}
	owner := link.TargetOwnerID != nil && *link.TargetOwnerID == actor.ID
	if !owner && actor.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	link.Status = status
	if note != "" {
		link.Note = note
	}
	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}
	log.Infof("[AlignmentService] 用户 %d 将对齐 %d 设为 %s", actor.ID, link.ID, status)
	s.changedByID(ctx, link)
	return link, nil
}

func (s *alignmentService) Approve(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error) {
	return s.decide(ctx, actor, linkID, model.LinkApproved, note)
}

func (s *alignmentService) Reject(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error) {
	return s.decide(ctx, actor, linkID, model.LinkRejected, note)
}

func (s *alignmentService) RequestChanges(ctx context.Context, actor *model.User, linkID uint, note string) (*model.AlignmentLink, error) {
	return s.decide(ctx, actor, linkID, model.LinkChangesRequested, note)
}

// Cancel 由申请方或目标方取消关系，取消是终态。
func (s *alignmentService) Cancel(ctx context.Context, actor *model.User, linkID uint) (*model.AlignmentLink, error) {
	link, err := s.linkRepo.FindByID(ctx, linkID)
	if err != nil {
		return nil, notFound(err)
	}
	if link.Closed() {
		return nil, ErrLinkClosed
	}
	party := link.RequesterID == actor.ID || (link.TargetOwnerID != nil && *link.TargetOwnerID == actor.ID)
	if !party && actor.Role != model.RoleAdmin {
		return nil, ErrPermissionDenied
	}
	link.Status = model.LinkCancelled
	link.IsActive = false
	if err := s.linkRepo.Update(ctx, link); err != nil {
		return nil, err
	}
	log.Infof("[AlignmentService] 用户 %d 取消对齐 %d", actor.ID, link.ID)
	s.changedByID(ctx, link)
	return link, nil
}

func (s *alignmentService) ListBySource(ctx context.Context, viewer *model.User, objectiveID uint) ([]model.AlignmentLink, error) {
	obj, err := s.objectiveRepo.FindByID(ctx, objectiveID)
	if err != nil {
		return nil, notFound(err)
	}
	if !canViewObjective(viewer, obj) {
		return nil, ErrPermissionDenied
	}
	return s.linkRepo.FindBySource(ctx, objectiveID)
}

// ListIncoming 返回等待当前用户处理的申请。
func (s *alignmentService) ListIncoming(ctx context.Context, actor *model.User) ([]model.AlignmentLink, error) {
	return s.linkRepo.FindPendingForOwner(ctx, actor.ID)
}

func (s *alignmentService) changedByID(ctx context.Context, link *model.AlignmentLink) {
	source, err := s.objectiveRepo.FindByID(ctx, link.SourceObjectiveID)
	if err != nil {
		// 来源目标已被删除时无法确定周期，按无周期处理。
		source = &model.Objective{ID: link.SourceObjectiveID}
	}
	s.changed(ctx, source, link)
}

func (s *alignmentService) changed(ctx context.Context, source *model.Objective, link *model.AlignmentLink) {
	publish(ctx, s.events, tasks.OKREvent{
		Type:        tasks.AlignmentChanged,
		ObjectiveID: source.ID,
		CycleID:     source.CycleID,
		LinkID:      link.ID,
	})
}
