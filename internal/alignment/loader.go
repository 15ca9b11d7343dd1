package alignment

import (
	"context"
	"fmt"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"sort"

	"golang.org/x/sync/errgroup"
)

// Snapshot 是一次解析所需的全部数据，加载一次后只按 ID 查表，不再回源查询。
type Snapshot struct {
	// Objectives 按创建时间、ID 升序。
	Objectives []model.Objective
	Links      []model.AlignmentLink

	objectives  map[uint]*model.Objective
	keyResults  map[uint][]model.KeyResult
	krByID      map[uint]*model.KeyResult
	users       map[uint]*model.User
	departments map[uint]*model.Department
}

// Objective 按 ID 查找范围内的目标。
func (s *Snapshot) Objective(id uint) (*model.Objective, bool) {
	o, ok := s.objectives[id]
	return o, ok
}

// KeyResults 返回目标的未归档关键结果，按 ID 升序。
func (s *Snapshot) KeyResults(objectiveID uint) []model.KeyResult {
	return s.keyResults[objectiveID]
}

// KeyResult 按 ID 查找范围内目标的关键结果。
func (s *Snapshot) KeyResult(id uint) (*model.KeyResult, bool) {
	kr, ok := s.krByID[id]
	return kr, ok
}

// User 按 ID 查找用户。
func (s *Snapshot) User(id *uint) (*model.User, bool) {
	if id == nil {
		return nil, false
	}
	u, ok := s.users[*id]
	return u, ok
}

// Department 按 ID 查找部门。
func (s *Snapshot) Department(id *uint) (*model.Department, bool) {
	if id == nil {
		return nil, false
	}
	d, ok := s.departments[*id]
	return d, ok
}

// Loader 以固定次数的批量查询加载一个周期的对齐数据。
type Loader struct {
	objectives  repository.ObjectiveRepository
	keyResults  repository.KeyResultRepository
	links       repository.AlignmentLinkRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
}

// NewLoader 创建一个新的 Loader。
func NewLoader(
	objectives repository.ObjectiveRepository,
	keyResults repository.KeyResultRepository,
	links repository.AlignmentLinkRepository,
	users repository.UserRepository,
	departments repository.DepartmentRepository,
) *Loader {
	return &Loader{
		objectives:  objectives,
		keyResults:  keyResults,
		links:       links,
		users:       users,
		departments: departments,
	}
}

// Load 分三个阶段加载：范围内的目标；并发加载关键结果与对齐关系；并发加载用户与部门。
// cycleID 为 nil 时不按周期过滤。
func (l *Loader) Load(ctx context.Context, cycleID *uint, viewer Viewer) (*Snapshot, error) {
	objs, err := l.objectives.ListInScope(ctx, ScopeFor(cycleID, viewer))
	if err != nil {
		return nil, fmt.Errorf("load objectives: %w", err)
	}

	snap := &Snapshot{
		Objectives:  make([]model.Objective, 0, len(objs)),
		objectives:  make(map[uint]*model.Objective, len(objs)),
		keyResults:  make(map[uint][]model.KeyResult),
		krByID:      make(map[uint]*model.KeyResult),
		users:       make(map[uint]*model.User),
		departments: make(map[uint]*model.Department),
	}
	// 仓库已按范围过滤，这里再按同一谓词兜底一次
	for i := range objs {
		if Visible(viewer, &objs[i]) {
			snap.Objectives = append(snap.Objectives, objs[i])
		}
	}
	ids := make([]uint, 0, len(snap.Objectives))
	for i := range snap.Objectives {
		o := &snap.Objectives[i]
		snap.objectives[o.ID] = o
		ids = append(ids, o.ID)
	}
	if len(ids) == 0 {
		return snap, nil
	}

	var krs []model.KeyResult
	var links []model.AlignmentLink
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		krs, err = l.keyResults.FindByObjectiveIDs(gCtx, ids)
		if err != nil {
			return fmt.Errorf("load key results: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		links, err = l.links.FindEffectiveBySources(gCtx, ids)
		if err != nil {
			return fmt.Errorf("load alignment links: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, kr := range krs {
		if kr.IsArchived() {
			continue
		}
		if _, ok := snap.objectives[kr.ObjectiveID]; !ok {
			continue
		}
		snap.keyResults[kr.ObjectiveID] = append(snap.keyResults[kr.ObjectiveID], kr)
	}
	for objID, list := range snap.keyResults {
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		for i := range list {
			snap.krByID[list[i].ID] = &snap.keyResults[objID][i]
		}
	}
	for _, link := range links {
		if link.Effective() {
			snap.Links = append(snap.Links, link)
		}
	}
	sort.Slice(snap.Links, func(i, j int) bool { return snap.Links[i].ID < snap.Links[j].ID })

	userIDs, deptIDs := snap.references()
	var users []model.User
	var depts []model.Department
	g, gCtx = errgroup.WithContext(ctx)
	if len(userIDs) > 0 {
		g.Go(func() error {
			var err error
			users, err = l.users.FindByIDs(gCtx, userIDs)
			if err != nil {
				return fmt.Errorf("load users: %w", err)
			}
			return nil
		})
	}
	if len(deptIDs) > 0 {
		g.Go(func() error {
			var err error
			depts, err = l.departments.FindByIDs(gCtx, deptIDs)
			if err != nil {
				return fmt.Errorf("load departments: %w", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i := range users {
		snap.users[users[i].ID] = &users[i]
	}
	for i := range depts {
		snap.departments[depts[i].ID] = &depts[i]
	}
	return snap, nil
}

// references 收集目标负责人、关键结果负责人以及目标所属部门的 ID，升序去重。
func (s *Snapshot) references() (userIDs, deptIDs []uint) {
	users := map[uint]struct{}{}
	depts := map[uint]struct{}{}
	for i := range s.Objectives {
		o := &s.Objectives[i]
		if o.UserID != nil {
			users[*o.UserID] = struct{}{}
		}
		if o.DepartmentID != nil {
			depts[*o.DepartmentID] = struct{}{}
		}
	}
	for _, krs := range s.keyResults {
		for i := range krs {
			if krs[i].AssignedTo != nil {
				users[*krs[i].AssignedTo] = struct{}{}
			}
		}
	}
	return sortedIDs(users), sortedIDs(depts)
}

func sortedIDs(set map[uint]struct{}) []uint {
	ids := make([]uint, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
