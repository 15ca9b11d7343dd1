package service

import (
	"context"
	"errors"
	"fmt"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"strings"
	"time"

	"gorm.io/gorm"
)

// CycleService 管理周期并解析"当前周期"。
type CycleService interface {
	Create(ctx context.Context, name string, start, end time.Time) (*model.Cycle, error)
	Update(ctx context.Context, id uint, name string, start, end time.Time) (*model.Cycle, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context) ([]model.Cycle, error)
	// ResolveCurrent 依次尝试：请求的周期、包含 now 的周期、按季度名称匹配；都失败时返回只有展示标签的结果。
	ResolveCurrent(ctx context.Context, requested *uint, now time.Time) (model.CycleRef, error)
}

type cycleService struct {
	cycleRepo repository.CycleRepository
}

// NewCycleService 创建一个新的 CycleService 实例。
func NewCycleService(cycleRepo repository.CycleRepository) CycleService {
	return &cycleService{cycleRepo: cycleRepo}
}

func validCycle(name string, start, end time.Time) bool {
	return strings.TrimSpace(name) != "" && !start.IsZero() && !end.Before(start)
}

func (s *cycleService) Create(ctx context.Context, name string, start, end time.Time) (*model.Cycle, error) {
	if !validCycle(name, start, end) {
		return nil, ErrInvalidInput
	}
	cycle := &model.Cycle{Name: strings.TrimSpace(name), StartDate: start, EndDate: end}
	if err := s.cycleRepo.Create(ctx, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

func (s *cycleService) Update(ctx context.Context, id uint, name string, start, end time.Time) (*model.Cycle, error) {
	if !validCycle(name, start, end) {
		return nil, ErrInvalidInput
	}
	cycle, err := s.cycleRepo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	cycle.Name = strings.TrimSpace(name)
	cycle.StartDate = start
	cycle.EndDate = end
	if err := s.cycleRepo.Update(ctx, cycle); err != nil {
		return nil, err
	}
	return cycle, nil
}

func (s *cycleService) Delete(ctx context.Context, id uint) error {
	if _, err := s.cycleRepo.FindByID(ctx, id); err != nil {
		return notFound(err)
	}
	return s.cycleRepo.Delete(ctx, id)
}

func (s *cycleService) List(ctx context.Context) ([]model.Cycle, error) {
	return s.cycleRepo.FindAll(ctx)
}

func (s *cycleService) ResolveCurrent(ctx context.Context, requested *uint, now time.Time) (model.CycleRef, error) {
	if requested != nil {
		cycle, err := s.cycleRepo.FindByID(ctx, *requested)
		if err == nil {
			return refOf(cycle), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return model.CycleRef{}, err
		}
	}

	cycle, err := s.cycleRepo.FindContaining(ctx, now)
	if err == nil {
		return refOf(cycle), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.CycleRef{}, err
	}

	names := QuarterNames(now)
	for _, name := range names {
		cycle, err := s.cycleRepo.FindByName(ctx, name)
		if err == nil {
			return refOf(cycle), nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return model.CycleRef{}, err
		}
	}
	return model.CycleRef{Label: names[0]}, nil
}

func refOf(c *model.Cycle) model.CycleRef {
	id := c.ID
	return model.CycleRef{ID: &id, Label: c.Name}
}

// QuarterNames 返回某个时间点所在季度的候选周期名称，按匹配优先级排列。
func QuarterNames(t time.Time) []string {
	q := (int(t.Month())-1)/3 + 1
	y := t.Year()
	return []string{
		fmt.Sprintf("Quý %d năm %d", q, y),
		fmt.Sprintf("Q%d %d", q, y),
		fmt.Sprintf("Q%d - %d", q, y),
	}
}
