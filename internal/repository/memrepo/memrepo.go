// Package memrepo 提供 repository 接口的内存实现，供单元测试使用。
// 未找到记录时与 GORM 一样返回 gorm.ErrRecordNotFound。
package memrepo

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Store 是所有内存仓库共享的数据集。
type Store struct {
	mu          sync.Mutex
	seq         uint
	users       map[uint]model.User
	departments map[uint]model.Department
	cycles      map[uint]model.Cycle
	objectives  map[uint]model.Objective
	keyResults  map[uint]model.KeyResult
	links       map[uint]model.AlignmentLink
	checkIns    map[uint]model.CheckIn

	// Calls 统计各批量查询方法的调用次数，用于断言没有逐节点查询。
	Calls map[string]int
}

// New 创建一个空的内存数据集。
func New() *Store {
	return &Store{
		users:       map[uint]model.User{},
		departments: map[uint]model.Department{},
		cycles:      map[uint]model.Cycle{},
		objectives:  map[uint]model.Objective{},
		keyResults:  map[uint]model.KeyResult{},
		links:       map[uint]model.AlignmentLink{},
		checkIns:    map[uint]model.CheckIn{},
		Calls:       map[string]int{},
	}
}

func (s *Store) nextID(id uint) uint {
	if id != 0 {
		if id > s.seq {
			s.seq = id
		}
		return id
	}
	s.seq++
	return s.seq
}

func (s *Store) count(name string) {
	s.Calls[name]++
}

// CallCount 返回某个方法被调用的次数。
func (s *Store) CallCount(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Calls[name]
}

// 按 (CreatedAt, ID) 排序，与 SQL 中的 ORDER BY created_at, id 一致。
func sortObjectives(objs []model.Objective) {
	sort.Slice(objs, func(i, j int) bool {
		if !objs[i].CreatedAt.Equal(objs[j].CreatedAt) {
			return objs[i].CreatedAt.Before(objs[j].CreatedAt)
		}
		return objs[i].ID < objs[j].ID
	})
}

func idSet(ids []uint) map[uint]bool {
	set := make(map[uint]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

// ---- users ----

type userRepo struct{ s *Store }

// Users 返回 UserRepository 的内存实现。
func (s *Store) Users() repository.UserRepository { return &userRepo{s} }

func (r *userRepo) Create(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user.ID = r.s.nextID(user.ID)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	r.s.users[user.ID] = *user
	return nil
}

func (r *userRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, u := range r.s.users {
		if u.Username == username {
			u := u
			return &u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *userRepo) FindByID(_ context.Context, id uint) (*model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *userRepo) FindByIDs(_ context.Context, ids []uint) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("Users.FindByIDs")
	want := idSet(ids)
	var out []model.User
	for id, u := range r.s.users {
		if want[id] {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) FindByDepartment(_ context.Context, departmentID uint) ([]model.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.User
	for _, u := range r.s.users {
		if u.DepartmentID != nil && *u.DepartmentID == departmentID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *userRepo) FindWithPagination(_ context.Context, offset, limit int) ([]model.User, int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var all []model.User
	for _, u := range r.s.users {
		all = append(all, u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	total := int64(len(all))
	if offset >= len(all) {
		return []model.User{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *userRepo) Update(_ context.Context, user *model.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

// ---- departments ----

type departmentRepo struct{ s *Store }

// Departments 返回 DepartmentRepository 的内存实现。
func (s *Store) Departments() repository.DepartmentRepository { return &departmentRepo{s} }

func (r *departmentRepo) Create(_ context.Context, d *model.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d.ID = r.s.nextID(d.ID)
	r.s.departments[d.ID] = *d
	return nil
}

func (r *departmentRepo) FindByID(_ context.Context, id uint) (*model.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	d, ok := r.s.departments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &d, nil
}

func (r *departmentRepo) FindAll(_ context.Context) ([]model.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Department
	for _, d := range r.s.departments {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *departmentRepo) FindByIDs(_ context.Context, ids []uint) ([]model.Department, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("Departments.FindByIDs")
	want := idSet(ids)
	var out []model.Department
	for id, d := range r.s.departments {
		if want[id] {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *departmentRepo) Update(_ context.Context, d *model.Department) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.departments[d.ID] = *d
	return nil
}

func (r *departmentRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.departments, id)
	return nil
}

// ---- cycles ----

type cycleRepo struct{ s *Store }

// Cycles 返回 CycleRepository 的内存实现。
func (s *Store) Cycles() repository.CycleRepository { return &cycleRepo{s} }

func (r *cycleRepo) Create(_ context.Context, c *model.Cycle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.nextID(c.ID)
	r.s.cycles[c.ID] = *c
	return nil
}

func (r *cycleRepo) FindByID(_ context.Context, id uint) (*model.Cycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cycles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &c, nil
}

func (r *cycleRepo) sorted() []model.Cycle {
	var out []model.Cycle
	for _, c := range r.s.cycles {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *cycleRepo) FindAll(_ context.Context) ([]model.Cycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := r.sorted()
	// 与 SQL 实现一致：开始日期倒序
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

func (r *cycleRepo) FindContaining(_ context.Context, t time.Time) (*model.Cycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, c := range r.sorted() {
		if c.Contains(t) {
			c := c
			return &c, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *cycleRepo) FindByName(_ context.Context, name string) (*model.Cycle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var found *model.Cycle
	for _, c := range r.s.cycles {
		if c.Name == name && (found == nil || c.ID < found.ID) {
			c := c
			found = &c
		}
	}
	if found == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return found, nil
}

func (r *cycleRepo) Update(_ context.Context, c *model.Cycle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.cycles[c.ID] = *c
	return nil
}

func (r *cycleRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.cycles, id)
	return nil
}

// ---- objectives ----

type objectiveRepo struct{ s *Store }

// Objectives 返回 ObjectiveRepository 的内存实现。
func (s *Store) Objectives() repository.ObjectiveRepository { return &objectiveRepo{s} }

func (r *objectiveRepo) Create(_ context.Context, o *model.Objective) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o.ID = r.s.nextID(o.ID)
	if o.CreatedAt.IsZero() {
		// 以递增的 ID 作为偏移，保证同一测试内创建顺序稳定
		o.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(o.ID) * time.Second)
	}
	stored := *o
	stored.KeyResults = nil
	r.s.objectives[o.ID] = stored
	return nil
}

func (r *objectiveRepo) FindByID(_ context.Context, id uint) (*model.Objective, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.objectives[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &o, nil
}

func (r *objectiveRepo) FindByIDs(_ context.Context, ids []uint) ([]model.Objective, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	want := idSet(ids)
	var out []model.Objective
	for id, o := range r.s.objectives {
		if want[id] {
			out = append(out, o)
		}
	}
	sortObjectives(out)
	return out, nil
}

func (r *objectiveRepo) ListInScope(_ context.Context, scope repository.ObjectiveScope) ([]model.Objective, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("Objectives.ListInScope")
	var out []model.Objective
	for _, o := range r.s.objectives {
		o := o
		if scope.Matches(&o) {
			out = append(out, o)
		}
	}
	sortObjectives(out)
	return out, nil
}

func (r *objectiveRepo) ListArchived(_ context.Context, cycleID *uint, ownerID *uint) ([]model.Objective, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.Objective
	for _, o := range r.s.objectives {
		if !o.IsArchived() {
			continue
		}
		if cycleID != nil && (o.CycleID == nil || *o.CycleID != *cycleID) {
			continue
		}
		if ownerID != nil && !o.OwnedBy(*ownerID) {
			continue
		}
		out = append(out, o)
	}
	sortObjectives(out)
	return out, nil
}

func (r *objectiveRepo) Update(_ context.Context, o *model.Objective) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored := *o
	stored.KeyResults = nil
	r.s.objectives[o.ID] = stored
	return nil
}

func (r *objectiveRepo) SetArchived(_ context.Context, id uint, at *time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.objectives[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.ArchivedAt = at
	r.s.objectives[id] = o
	return nil
}

func (r *objectiveRepo) UpdateProgress(_ context.Context, id uint, progress float64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	o, ok := r.s.objectives[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	o.ProgressPercent = progress
	r.s.objectives[id] = o
	return nil
}

func (r *objectiveRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for krID, kr := range r.s.keyResults {
		if kr.ObjectiveID == id {
			delete(r.s.keyResults, krID)
		}
	}
	delete(r.s.objectives, id)
	return nil
}

// ---- key results ----

type keyResultRepo struct{ s *Store }

// KeyResults 返回 KeyResultRepository 的内存实现。
func (s *Store) KeyResults() repository.KeyResultRepository { return &keyResultRepo{s} }

func (r *keyResultRepo) Create(_ context.Context, kr *model.KeyResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kr.ID = r.s.nextID(kr.ID)
	r.s.keyResults[kr.ID] = *kr
	return nil
}

func (r *keyResultRepo) FindByID(_ context.Context, id uint) (*model.KeyResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	kr, ok := r.s.keyResults[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &kr, nil
}

func sortKeyResults(krs []model.KeyResult) {
	sort.Slice(krs, func(i, j int) bool {
		if krs[i].ObjectiveID != krs[j].ObjectiveID {
			return krs[i].ObjectiveID < krs[j].ObjectiveID
		}
		return krs[i].ID < krs[j].ID
	})
}

func (r *keyResultRepo) FindByObjectiveIDs(_ context.Context, objectiveIDs []uint) ([]model.KeyResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("KeyResults.FindByObjectiveIDs")
	want := idSet(objectiveIDs)
	var out []model.KeyResult
	for _, kr := range r.s.keyResults {
		if want[kr.ObjectiveID] && !kr.IsArchived() {
			out = append(out, kr)
		}
	}
	sortKeyResults(out)
	return out, nil
}

func (r *keyResultRepo) FindByObjective(_ context.Context, objectiveID uint) ([]model.KeyResult, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.KeyResult
	for _, kr := range r.s.keyResults {
		if kr.ObjectiveID == objectiveID {
			out = append(out, kr)
		}
	}
	sortKeyResults(out)
	return out, nil
}

func (r *keyResultRepo) Update(_ context.Context, kr *model.KeyResult) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.keyResults[kr.ID] = *kr
	return nil
}

func (r *keyResultRepo) Delete(_ context.Context, id uint) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.keyResults, id)
	return nil
}

// ---- alignment links ----

type linkRepo struct{ s *Store }

// Links 返回 AlignmentLinkRepository 的内存实现。
func (s *Store) Links() repository.AlignmentLinkRepository { return &linkRepo{s} }

func (r *linkRepo) Create(_ context.Context, l *model.AlignmentLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l.ID = r.s.nextID(l.ID)
	r.s.links[l.ID] = *l
	return nil
}

func (r *linkRepo) FindByID(_ context.Context, id uint) (*model.AlignmentLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	l, ok := r.s.links[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &l, nil
}

func (r *linkRepo) filter(keep func(l *model.AlignmentLink) bool) []model.AlignmentLink {
	var out []model.AlignmentLink
	for _, l := range r.s.links {
		l := l
		if keep(&l) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *linkRepo) FindEffectiveBySources(_ context.Context, sourceObjectiveIDs []uint) ([]model.AlignmentLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.count("Links.FindEffectiveBySources")
	want := idSet(sourceObjectiveIDs)
	return r.filter(func(l *model.AlignmentLink) bool {
		return want[l.SourceObjectiveID] && l.Effective()
	}), nil
}

func (r *linkRepo) FindBySource(_ context.Context, sourceObjectiveID uint) ([]model.AlignmentLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(l *model.AlignmentLink) bool {
		return l.SourceObjectiveID == sourceObjectiveID
	}), nil
}

func (r *linkRepo) FindOpenForTarget(_ context.Context, sourceObjectiveID uint, targetObjectiveID, targetKrID *uint) (*model.AlignmentLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	found := r.filter(func(l *model.AlignmentLink) bool {
		if l.SourceObjectiveID != sourceObjectiveID || !l.IsActive {
			return false
		}
		switch l.Status {
		case model.LinkPending, model.LinkApproved, model.LinkChangesRequested:
		default:
			return false
		}
		if targetObjectiveID != nil {
			return l.TargetObjectiveID != nil && *l.TargetObjectiveID == *targetObjectiveID
		}
		return l.TargetKrID != nil && targetKrID != nil && *l.TargetKrID == *targetKrID
	})
	if len(found) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &found[0], nil
}

func (r *linkRepo) FindPendingForOwner(_ context.Context, ownerID uint) ([]model.AlignmentLink, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.filter(func(l *model.AlignmentLink) bool {
		return l.TargetOwnerID != nil && *l.TargetOwnerID == ownerID && l.Status == model.LinkPending && l.IsActive
	}), nil
}

func (r *linkRepo) Update(_ context.Context, l *model.AlignmentLink) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.links[l.ID] = *l
	return nil
}

// ---- check-ins ----

type checkInRepo struct{ s *Store }

// CheckIns 返回 CheckInRepository 的内存实现。
func (s *Store) CheckIns() repository.CheckInRepository { return &checkInRepo{s} }

func (r *checkInRepo) Create(_ context.Context, c *model.CheckIn) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = r.s.nextID(c.ID)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	r.s.checkIns[c.ID] = *c
	return nil
}

func (r *checkInRepo) FindByKR(_ context.Context, krID uint, limit int) ([]model.CheckIn, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []model.CheckIn
	for _, c := range r.s.checkIns {
		if c.KrID == krID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// ---- tree cache ----

// TreeCache 是 TreeCacheRepository 的内存实现，忽略 TTL。
type TreeCache struct {
	mu      sync.Mutex
	entries map[string]map[string]model.OKRTree
	Hits    int
}

// NewTreeCache 创建一个空的内存树缓存。
func NewTreeCache() *TreeCache {
	return &TreeCache{entries: map[string]map[string]model.OKRTree{}}
}

func (c *TreeCache) Get(_ context.Context, cycleKey, viewerKey string) (*model.OKRTree, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	tree, ok := c.entries[cycleKey][viewerKey]
	if !ok {
		return nil, false, nil
	}
	c.Hits++
	return &tree, true, nil
}

func (c *TreeCache) Set(_ context.Context, cycleKey, viewerKey string, tree *model.OKRTree, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries[cycleKey] == nil {
		c.entries[cycleKey] = map[string]model.OKRTree{}
	}
	c.entries[cycleKey][viewerKey] = *tree
	return nil
}

func (c *TreeCache) InvalidateCycle(_ context.Context, cycleKey string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, cycleKey)
	return nil
}

func (c *TreeCache) InvalidateAll(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]map[string]model.OKRTree{}
	return nil
}

// ---- token blacklist ----

// Blacklist 是 TokenBlacklist 的内存实现。
type Blacklist struct {
	mu     sync.Mutex
	tokens map[string]time.Duration
}

// NewBlacklist 创建一个空的内存黑名单。
func NewBlacklist() *Blacklist {
	return &Blacklist{tokens: map[string]time.Duration{}}
}

func (b *Blacklist) Add(_ context.Context, token string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ttl > 0 {
		b.tokens[token] = ttl
	}
	return nil
}

func (b *Blacklist) Contains(_ context.Context, token string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.tokens[token]
	return ok, nil
}
