package alignment

import (
	"context"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository/memrepo"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	adminID   uint = 1
	managerID uint = 2
	aliceID   uint = 3
	bobID     uint = 4

	salesDept uint = 10
	engDept   uint = 20
)

func uptr(v uint) *uint { return &v }

type fixture struct {
	t     *testing.T
	store *memrepo.Store
	cycle uint
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memrepo.New()
	f := &fixture{t: t, store: store}

	require.NoError(t, store.Departments().Create(ctx, &model.Department{ID: salesDept, Name: "Sales"}))
	require.NoError(t, store.Departments().Create(ctx, &model.Department{ID: engDept, Name: "Engineering"}))
	for _, u := range []model.User{
		{ID: adminID, Username: "admin", FullName: "Admin", Role: model.RoleAdmin},
		{ID: managerID, Username: "mgr", FullName: "Manager", Role: model.RoleManager, DepartmentID: uptr(salesDept)},
		{ID: aliceID, Username: "alice", FullName: "Alice", AvatarURL: "a.png", Role: model.RoleMember, DepartmentID: uptr(salesDept)},
		{ID: bobID, Username: "bob", FullName: "Bob", Role: model.RoleMember, DepartmentID: uptr(engDept)},
	} {
		u := u
		require.NoError(t, store.Users().Create(ctx, &u))
	}
	cycle := &model.Cycle{ID: 100, Name: "Q3 2026"}
	require.NoError(t, store.Cycles().Create(ctx, cycle))
	f.cycle = cycle.ID
	return f
}

func (f *fixture) engine() *Engine {
	return NewEngine(NewLoader(
		f.store.Objectives(),
		f.store.KeyResults(),
		f.store.Links(),
		f.store.Users(),
		f.store.Departments(),
	))
}

func (f *fixture) objective(title, level string, dept, owner *uint, progress float64) *model.Objective {
	f.t.Helper()
	o := &model.Objective{
		Title:           title,
		Level:           level,
		DepartmentID:    dept,
		UserID:          owner,
		CycleID:         uptr(f.cycle),
		Status:          model.ObjectiveActive,
		ProgressPercent: progress,
	}
	require.NoError(f.t, f.store.Objectives().Create(context.Background(), o))
	return o
}

func (f *fixture) keyResult(objectiveID uint, title string, current, target float64, assignee *uint) *model.KeyResult {
	f.t.Helper()
	kr := &model.KeyResult{
		Title:        title,
		ObjectiveID:  objectiveID,
		CurrentValue: current,
		TargetValue:  target,
		Unit:         model.UnitNumber,
		Status:       "active",
		AssignedTo:   assignee,
	}
	require.NoError(f.t, f.store.KeyResults().Create(context.Background(), kr))
	return kr
}

func (f *fixture) linkToObjective(source, target uint, status string) *model.AlignmentLink {
	f.t.Helper()
	l := &model.AlignmentLink{
		SourceObjectiveID: source,
		TargetObjectiveID: uptr(target),
		Status:            status,
		IsActive:          true,
	}
	require.NoError(f.t, f.store.Links().Create(context.Background(), l))
	return l
}

func (f *fixture) linkToKR(source, targetKR uint, status string) *model.AlignmentLink {
	f.t.Helper()
	l := &model.AlignmentLink{
		SourceObjectiveID: source,
		TargetKrID:        uptr(targetKR),
		Status:            status,
		IsActive:          true,
	}
	require.NoError(f.t, f.store.Links().Create(context.Background(), l))
	return l
}

func (f *fixture) resolve(viewer Viewer) *model.OKRTree {
	f.t.Helper()
	tree, err := f.engine().Resolve(context.Background(), model.CycleRef{ID: uptr(f.cycle), Label: "Q3 2026"}, viewer)
	require.NoError(f.t, err)
	return tree
}

var (
	asAdmin   = Viewer{UserID: adminID, Role: model.RoleAdmin}
	asManager = Viewer{UserID: managerID, Role: model.RoleManager, DepartmentID: uptr(salesDept)}
	asAlice   = Viewer{UserID: aliceID, Role: model.RoleMember, DepartmentID: uptr(salesDept)}
	asBob     = Viewer{UserID: bobID, Role: model.RoleMember, DepartmentID: uptr(engDept)}
)

// placedIDs 收集树中作为独立节点出现的部门/个人目标。
func placedIDs(tree *model.OKRTree) map[uint]int {
	ids := map[uint]int{}
	for _, d := range tree.Departments {
		for _, o := range d.Objectives {
			ids[o.ObjectiveID]++
		}
	}
	// 同一部门下的用户分支会在每个部门目标下重复出现，只统计一次
	for _, d := range tree.Departments {
		if len(d.Objectives) == 0 {
			continue
		}
		for _, u := range d.Objectives[0].Users {
			for _, o := range u.Objectives {
				ids[o.ObjectiveID]++
			}
		}
	}
	return ids
}

// linkedIDs 收集所有嵌套负载中出现的目标。
func linkedIDs(tree *model.OKRTree) map[uint]bool {
	ids := map[uint]bool{}
	collect := func(krs []model.KeyResultView) {
		for _, kr := range krs {
			if kr.LinkedObjectiveData != nil {
				ids[kr.LinkedObjectiveData.ObjectiveID] = true
			}
			for _, p := range kr.LinkedObjectives {
				ids[p.ObjectiveID] = true
			}
		}
	}
	for _, c := range tree.Company {
		collect(c.KeyResults)
	}
	for _, d := range tree.Departments {
		for _, o := range d.Objectives {
			collect(o.KeyResults)
		}
	}
	return ids
}

func findKR(krs []model.KeyResultView, id model.KeyResultID) []model.KeyResultView {
	var out []model.KeyResultView
	for _, kr := range krs {
		if kr.KrID == id {
			out = append(out, kr)
		}
	}
	return out
}
