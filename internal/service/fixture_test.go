package service

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository/memrepo"
	"okr-compass-go/pkg/tasks"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const (
	salesDept uint = 10
	engDept   uint = 20
	q3Cycle   uint = 100
)

// recorder 记录发布的事件。
type recorder struct {
	mu     sync.Mutex
	events []tasks.OKREvent
}

func (r *recorder) Publish(_ context.Context, e tasks.OKREvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func (r *recorder) last() tasks.OKREvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.events[len(r.events)-1]
}

type env struct {
	t     *testing.T
	ctx   context.Context
	store *memrepo.Store
	rec   *recorder

	admin, manager, alice, bob *model.User

	objectives ObjectiveService
	keyResults KeyResultService
	alignments AlignmentService
	cycles     CycleService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{t: t, ctx: context.Background(), store: memrepo.New(), rec: &recorder{}}
	ctx := e.ctx

	require.NoError(t, e.store.Departments().Create(ctx, &model.Department{ID: salesDept, Name: "Sales", CreatedBy: 1}))
	require.NoError(t, e.store.Departments().Create(ctx, &model.Department{ID: engDept, Name: "Engineering", CreatedBy: 1}))
	require.NoError(t, e.store.Cycles().Create(ctx, &model.Cycle{
		ID:        q3Cycle,
		Name:      "Q3 2026",
		StartDate: time.Date(2026, 7, 1, 0, 0, 0, 0, time.Local),
		EndDate:   time.Date(2026, 9, 30, 0, 0, 0, 0, time.Local),
	}))

	e.admin = e.user(1, "admin", model.RoleAdmin, nil)
	e.manager = e.user(2, "manager", model.RoleManager, uptr(salesDept))
	e.alice = e.user(3, "alice", model.RoleMember, uptr(salesDept))
	e.bob = e.user(4, "bob", model.RoleMember, uptr(engDept))

	e.objectives = NewObjectiveService(e.store.Objectives(), e.store.KeyResults(), e.store.Links(),
		e.store.Users(), e.store.Departments(), e.store.Cycles(), e.rec)
	e.keyResults = NewKeyResultService(e.store.Objectives(), e.store.KeyResults(), e.store.CheckIns(), e.rec)
	e.alignments = NewAlignmentService(e.store.Links(), e.store.Objectives(), e.store.KeyResults(), e.rec)
	e.cycles = NewCycleService(e.store.Cycles())
	return e
}

func (e *env) user(id uint, name, role string, dept *uint) *model.User {
	u := &model.User{ID: id, Username: name, FullName: name, Role: role, DepartmentID: dept}
	require.NoError(e.t, e.store.Users().Create(e.ctx, u))
	return u
}

func (e *env) objective(actor *model.User, title, level string, dept *uint) *model.Objective {
	e.t.Helper()
	obj, err := e.objectives.Create(e.ctx, actor, ObjectiveInput{
		Title:        title,
		Level:        level,
		DepartmentID: dept,
		CycleID:      uptr(q3Cycle),
		Status:       model.ObjectiveActive,
	})
	require.NoError(e.t, err)
	return obj
}

func (e *env) keyResult(actor *model.User, objectiveID uint, title string, current, target float64) *model.KeyResult {
	e.t.Helper()
	kr, err := e.keyResults.Create(e.ctx, actor, objectiveID, KeyResultInput{
		Title:        title,
		CurrentValue: current,
		TargetValue:  target,
	})
	require.NoError(e.t, err)
	return kr
}

func (e *env) reload(id uint) *model.Objective {
	e.t.Helper()
	obj, err := e.store.Objectives().FindByID(e.ctx, id)
	require.NoError(e.t, err)
	return obj
}

func uptr(v uint) *uint { return &v }

func fptr(v float64) *float64 { return &v }
