package service

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/pkg/tasks"
	"strings"
	"time"
)

// KeyResultInput 是创建或修改关键结果时的输入。ProgressPercent 为 nil 时按 current/target 推导。
type KeyResultInput struct {
	Title           string
	TargetValue     float64
	CurrentValue    float64
	Unit            string
	Status          string
	ProgressPercent *float64
	AssignedTo      *uint
}

// CheckInInput 是一次打卡的输入。Confidence 取值 0-10。
type CheckInInput struct {
	Value           float64
	ProgressPercent *float64
	Confidence      int
	Note            string
}

// KeyResultService 定义了关键结果与打卡相关的操作。
// 任何改动都会重新汇总所属目标的进度。
type KeyResultService interface {
	Create(ctx context.Context, actor *model.User, objectiveID uint, in KeyResultInput) (*model.KeyResult, error)
	Update(ctx context.Context, actor *model.User, krID uint, in KeyResultInput) (*model.KeyResult, error)
	Archive(ctx context.Context, actor *model.User, krID uint) error
	Delete(ctx context.Context, actor *model.User, krID uint) error
	CheckIn(ctx context.Context, actor *model.User, krID uint, in CheckInInput) (*model.CheckIn, error)
	ListCheckIns(ctx context.Context, viewer *model.User, krID uint, limit int) ([]model.CheckIn, error)
}

type keyResultService struct {
	objectiveRepo repository.ObjectiveRepository
	keyResultRepo repository.KeyResultRepository
	checkInRepo   repository.CheckInRepository
	events        EventPublisher
}

// NewKeyResultService 创建一个新的 KeyResultService 实例。
func NewKeyResultService(
	objectiveRepo repository.ObjectiveRepository,
	keyResultRepo repository.KeyResultRepository,
	checkInRepo repository.CheckInRepository,
	events EventPublisher,
) KeyResultService {
	return &keyResultService{
		objectiveRepo: objectiveRepo,
		keyResultRepo: keyResultRepo,
		checkInRepo:   checkInRepo,
		events:        events,
	}
}

func validUnit(unit string) bool {
	switch unit {
	case model.UnitNumber, model.UnitPercent, model.UnitCompletion:
		return true
	}
	return false
}

func normalizeKeyResult(in *KeyResultInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Unit == "" {
		in.Unit = model.UnitNumber
	}
	if in.Status == "" {
		in.Status = "active"
	}
	if in.Title == "" || !validUnit(in.Unit) || in.TargetValue < 0 {
		return ErrInvalidInput
	}
	if in.ProgressPercent != nil && (*in.ProgressPercent < 0 || *in.ProgressPercent > 100) {
		return ErrInvalidInput
	}
	return nil
}

// owningObjective 加载关键结果及其目标。
func (s *keyResultService) owningObjective(ctx context.Context, krID uint) (*model.KeyResult, *model.Objective, error) {
	kr, err := s.keyResultRepo.FindByID(ctx, krID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	obj, err := s.objectiveRepo.FindByID(ctx, kr.ObjectiveID)
	if err != nil {
		return nil, nil, notFound(err)
	}
	return kr, obj, nil
}

func (s *keyResultService) Create(ctx context.Context, actor *model.User, objectiveID uint, in KeyResultInput) (*model.KeyResult, error) {
	if err := normalizeKeyResult(&in); err != nil {
		return nil, err
	}
	obj, err := s.objectiveRepo.FindByID(ctx, objectiveID)
	if err != nil {
		return nil, notFound(err)
	}
	if !canEditObjective(actor, obj) {
		return nil, ErrPermissionDenied
	}
	kr := &model.KeyResult{
		Title:           in.Title,
		ObjectiveID:     objectiveID,
		TargetValue:     in.TargetValue,
		CurrentValue:    in.CurrentValue,
		Unit:            in.Unit,
		Status:          in.Status,
		ProgressPercent: in.ProgressPercent,
		AssignedTo:      in.AssignedTo,
	}
	if err := s.keyResultRepo.Create(ctx, kr); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, obj); err != nil {
		return nil, err
	}
	return kr, nil
}

func (s *keyResultService) Update(ctx context.Context, actor *model.User, krID uint, in KeyResultInput) (*model.KeyResult, error) {
	if err := normalizeKeyResult(&in); err != nil {
		return nil, err
	}
	kr, obj, err := s.owningObjective(ctx, krID)
	if err != nil {
		return nil, err
	}
	if !canEditObjective(actor, obj) {
		return nil, ErrPermissionDenied
	}
	kr.Title = in.Title
	kr.TargetValue = in.TargetValue
	kr.CurrentValue = in.CurrentValue
	kr.Unit = in.Unit
	kr.Status = in.Status
	kr.ProgressPercent = in.ProgressPercent
	kr.AssignedTo = in.AssignedTo
	if err := s.keyResultRepo.Update(ctx, kr); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, obj); err != nil {
		return nil, err
	}
	return kr, nil
}

func (s *keyResultService) Archive(ctx context.Context, actor *model.User, krID uint) error {
	kr, obj, err := s.owningObjective(ctx, krID)
	if err != nil {
		return err
	}
	if !canEditObjective(actor, obj) {
		return ErrPermissionDenied
	}
	if kr.IsArchived() {
		return nil
	}
	now := time.Now()
	kr.ArchivedAt = &now
	if err := s.keyResultRepo.Update(ctx, kr); err != nil {
		return err
	}
	return s.recompute(ctx, obj)
}

func (s *keyResultService) Delete(ctx context.Context, actor *model.User, krID uint) error {
	_, obj, err := s.owningObjective(ctx, krID)
	if err != nil {
		return err
	}
	if !canEditObjective(actor, obj) {
		return ErrPermissionDenied
	}
	if err := s.keyResultRepo.Delete(ctx, krID); err != nil {
		return err
	}
	return s.recompute(ctx, obj)
}

// CheckIn 记录一次打卡：更新当前值与关键结果进度，并重新汇总目标进度。
// 目标的编辑者与关键结果负责人都可以打卡。
func (s *keyResultService) CheckIn(ctx context.Context, actor *model.User, krID uint, in CheckInInput) (*model.CheckIn, error) {
	if in.Confidence < 0 || in.Confidence > 10 {
		return nil, ErrInvalidInput
	}
	if in.ProgressPercent != nil && (*in.ProgressPercent < 0 || *in.ProgressPercent > 100) {
		return nil, ErrInvalidInput
	}
	kr, obj, err := s.owningObjective(ctx, krID)
	if err != nil {
		return nil, err
	}
	assignee := kr.AssignedTo != nil && *kr.AssignedTo == actor.ID
	if !assignee && !canEditObjective(actor, obj) {
		return nil, ErrPermissionDenied
	}
	if kr.IsArchived() || obj.IsArchived() {
		return nil, ErrInvalidInput
	}

	previous := kr.CurrentValue
	kr.CurrentValue = in.Value
	kr.ProgressPercent = in.ProgressPercent
	if err := s.keyResultRepo.Update(ctx, kr); err != nil {
		return nil, err
	}
	checkIn := &model.CheckIn{
		KrID:            kr.ID,
		UserID:          actor.ID,
		PreviousValue:   previous,
		NewValue:        in.Value,
		ProgressPercent: kr.Progress(),
		Confidence:      in.Confidence,
		Note:            in.Note,
	}
	if err := s.checkInRepo.Create(ctx, checkIn); err != nil {
		return nil, err
	}
	if err := s.recompute(ctx, obj); err != nil {
		return nil, err
	}
	return checkIn, nil
}

func (s *keyResultService) ListCheckIns(ctx context.Context, viewer *model.User, krID uint, limit int) ([]model.CheckIn, error) {
	kr, obj, err := s.owningObjective(ctx, krID)
	if err != nil {
		return nil, err
	}
	assignee := kr.AssignedTo != nil && *kr.AssignedTo == viewer.ID
	if !assignee && !canViewObjective(viewer, obj) {
		return nil, ErrPermissionDenied
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.checkInRepo.FindByKR(ctx, krID, limit)
}

// recompute 重新汇总目标进度并发布变更事件。
func (s *keyResultService) recompute(ctx context.Context, obj *model.Objective) error {
	krs, err := s.keyResultRepo.FindByObjective(ctx, obj.ID)
	if err != nil {
		return err
	}
	progress := model.AggregateProgress(krs)
	if err := s.objectiveRepo.UpdateProgress(ctx, obj.ID, progress); err != nil {
		return err
	}
	obj.ProgressPercent = progress
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveChanged, ObjectiveID: obj.ID, CycleID: obj.CycleID})
	return nil
}
