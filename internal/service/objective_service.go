package service

import (
	"context"
	"errors"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/pkg/log"
	"okr-compass-go/pkg/tasks"
	"strings"
	"time"

	"gorm.io/gorm"
)

// ObjectiveInput 是创建或修改目标时的输入。
type ObjectiveInput struct {
	Title        string
	Description  string
	Level        string
	DepartmentID *uint
	OwnerID      *uint
	CycleID      *uint
	Status       string
}

// ObjectiveDetail 是单个目标的详情。
type ObjectiveDetail struct {
	Objective      *model.Objective      `json:"objective"`
	KeyResults     []model.KeyResult     `json:"keyResults"`
	DepartmentName string                `json:"departmentName"`
	Owner          *model.UserBrief      `json:"owner"`
	Links          []model.AlignmentLink `json:"links"`
}

// ObjectiveService 定义了目标的增删改查与归档操作。
type ObjectiveService interface {
	Create(ctx context.Context, actor *model.User, in ObjectiveInput) (*model.Objective, error)
	Update(ctx context.Context, actor *model.User, id uint, in ObjectiveInput) (*model.Objective, error)
	Archive(ctx context.Context, actor *model.User, id uint) error
	Unarchive(ctx context.Context, actor *model.User, id uint) error
	// Delete 只能删除已归档的目标。
	Delete(ctx context.Context, actor *model.User, id uint) error
	GetDetail(ctx context.Context, viewer *model.User, id uint) (*ObjectiveDetail, error)
	ListArchived(ctx context.Context, actor *model.User, cycleID *uint) ([]model.Objective, error)
}

type objectiveService struct {
	objectiveRepo  repository.ObjectiveRepository
	keyResultRepo  repository.KeyResultRepository
	linkRepo       repository.AlignmentLinkRepository
	userRepo       repository.UserRepository
	departmentRepo repository.DepartmentRepository
	cycleRepo      repository.CycleRepository
	events         EventPublisher
}

// NewObjectiveService 创建一个新的 ObjectiveService 实例。
func NewObjectiveService(
	objectiveRepo repository.ObjectiveRepository,
	keyResultRepo repository.KeyResultRepository,
	linkRepo repository.AlignmentLinkRepository,
	userRepo repository.UserRepository,
	departmentRepo repository.DepartmentRepository,
	cycleRepo repository.CycleRepository,
	events EventPublisher,
) ObjectiveService {
	return &objectiveService{
		objectiveRepo:  objectiveRepo,
		keyResultRepo:  keyResultRepo,
		linkRepo:       linkRepo,
		userRepo:       userRepo,
		departmentRepo: departmentRepo,
		cycleRepo:      cycleRepo,
		events:         events,
	}
}

func validStatus(status string) bool {
	switch status {
	case model.ObjectiveDraft, model.ObjectiveActive, model.ObjectiveCompleted:
		return true
	}
	return false
}

// normalize 校验输入并补全默认值：个人目标默认属于操作者，部门取负责人所在部门；公司目标不属于任何部门。
func (s *objectiveService) normalize(ctx context.Context, actor *model.User, in *ObjectiveInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || !model.ValidLevel(in.Level) {
		return ErrInvalidInput
	}
	if in.Status == "" {
		in.Status = model.ObjectiveDraft
	}
	if !validStatus(in.Status) {
		return ErrInvalidInput
	}

	switch in.Level {
	case model.LevelCompany:
		in.DepartmentID = nil
	case model.LevelPerson:
		if in.OwnerID == nil {
			id := actor.ID
			in.OwnerID = &id
		}
		owner, err := s.userRepo.FindByID(ctx, *in.OwnerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInput
			}
			return err
		}
		if in.DepartmentID == nil {
			in.DepartmentID = owner.DepartmentID
		}
	default:
		if in.DepartmentID == nil {
			return ErrInvalidInput
		}
	}

	if in.DepartmentID != nil {
		if _, err := s.departmentRepo.FindByID(ctx, *in.DepartmentID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInput
			}
			return err
		}
	}
	if in.CycleID != nil {
		if _, err := s.cycleRepo.FindByID(ctx, *in.CycleID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInput
			}
			return err
		}
	}
	if in.OwnerID == nil {
		id := actor.ID
		in.OwnerID = &id
	}
	return nil
}

func (s *objectiveService) Create(ctx context.Context, actor *model.User, in ObjectiveInput) (*model.Objective, error) {
	if err := s.normalize(ctx, actor, &in); err != nil {
		return nil, err
	}
	if !canCreateAt(actor, in.Level, in.DepartmentID, *in.OwnerID) {
		return nil, ErrPermissionDenied
	}
	obj := &model.Objective{
		Title:        in.Title,
		Description:  in.Description,
		Level:        in.Level,
		DepartmentID: in.DepartmentID,
		UserID:       in.OwnerID,
		CycleID:      in.CycleID,
		Status:       in.Status,
	}
	if err := s.objectiveRepo.Create(ctx, obj); err != nil {
		return nil, err
	}
	log.Infof("[ObjectiveService] 用户 %d 创建目标 %d (level=%s)", actor.ID, obj.ID, obj.Level)
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveChanged, ObjectiveID: obj.ID, CycleID: obj.CycleID})
	return obj, nil
}

// editable 加载目标并检查修改权限。
func (s *objectiveService) editable(ctx context.Context, actor *model.User, id uint) (*model.Objective, error) {
	obj, err := s.objectiveRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canEditObjective(actor, obj) {
		return nil, ErrPermissionDenied
	}
	return obj, nil
}

func (s *objectiveService) Update(ctx context.Context, actor *model.User, id uint, in ObjectiveInput) (*model.Objective, error) {
	obj, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if in.Level == "" {
		in.Level = obj.Level
	}
	if in.OwnerID == nil {
		in.OwnerID = obj.UserID
	}
	if in.CycleID == nil {
		in.CycleID = obj.CycleID
	}
	if in.DepartmentID == nil {
		in.DepartmentID = obj.DepartmentID
	}
	if in.Status == "" {
		in.Status = obj.Status
	}
	if err := s.normalize(ctx, actor, &in); err != nil {
		return nil, err
	}
	if in.Level != obj.Level && !canCreateAt(actor, in.Level, in.DepartmentID, *in.OwnerID) {
		return nil, ErrPermissionDenied
	}
	previousCycle := obj.CycleID

	obj.Title = in.Title
	obj.Description = in.Description
	obj.Level = in.Level
	obj.DepartmentID = in.DepartmentID
	obj.UserID = in.OwnerID
	obj.CycleID = in.CycleID
	obj.Status = in.Status
	if err := s.objectiveRepo.Update(ctx, obj); err != nil {
		return nil, err
	}
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveChanged, ObjectiveID: obj.ID, CycleID: obj.CycleID})
	if !sameCycle(previousCycle, obj.CycleID) {
		publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveChanged, ObjectiveID: obj.ID, CycleID: previousCycle})
	}
	return obj, nil
}

func sameCycle(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (s *objectiveService) Archive(ctx context.Context, actor *model.User, id uint) error {
	obj, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if obj.IsArchived() {
		return nil
	}
	now := time.Now()
	if err := s.objectiveRepo.SetArchived(ctx, id, &now); err != nil {
		return err
	}
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveChanged, ObjectiveID: id, CycleID: obj.CycleID})
	return nil
}

func (s *objectiveService) Unarchive(ctx context.Context, actor *model.User, id uint) error {
	obj, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if !obj.IsArchived() {
		return nil
	}
	if err := s.objectiveRepo.SetArchived(ctx, id, nil); err != nil {
		return err
	}
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveChanged, ObjectiveID: id, CycleID: obj.CycleID})
	return nil
}

func (s *objectiveService) Delete(ctx context.Context, actor *model.User, id uint) error {
	obj, err := s.editable(ctx, actor, id)
	if err != nil {
		return err
	}
	if !obj.IsArchived() {
		return ErrNotArchived
	}
	if err := s.objectiveRepo.Delete(ctx, id); err != nil {
		return err
	}
	log.Infof("[ObjectiveService] 用户 %d 删除目标 %d", actor.ID, id)
	publish(ctx, s.events, tasks.OKREvent{Type: tasks.ObjectiveDeleted, ObjectiveID: id, CycleID: obj.CycleID})
	return nil
}

func (s *objectiveService) GetDetail(ctx context.Context, viewer *model.User, id uint) (*ObjectiveDetail, error) {
	obj, err := s.objectiveRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	if !canViewObjective(viewer, obj) {
		return nil, ErrPermissionDenied
	}
	krs, err := s.keyResultRepo.FindByObjective(ctx, id)
	if err != nil {
		return nil, err
	}
	links, err := s.linkRepo.FindBySource(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &ObjectiveDetail{Objective: obj, KeyResults: krs, Links: links}
	if obj.DepartmentID != nil {
		if d, err := s.departmentRepo.FindByID(ctx, *obj.DepartmentID); err == nil {
			detail.DepartmentName = d.Name
		}
	}
	if obj.UserID != nil {
		if u, err := s.userRepo.FindByID(ctx, *obj.UserID); err == nil {
			detail.Owner = &model.UserBrief{UserID: u.ID, FullName: u.FullName, AvatarURL: u.AvatarURL}
		}
	}
	return detail, nil
}

// ListArchived 管理员看到全部已归档目标，其他用户只看到自己负责的。
func (s *objectiveService) ListArchived(ctx context.Context, actor *model.User, cycleID *uint) ([]model.Objective, error) {
	var owner *uint
	if actor.Role != model.RoleAdmin {
		id := actor.ID
		owner = &id
	}
	return s.objectiveRepo.ListArchived(ctx, cycleID, owner)
}
