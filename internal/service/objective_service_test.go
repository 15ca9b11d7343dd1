package service

import (
	"okr-compass-go/internal/model"
	"okr-compass-go/pkg/tasks"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectiveService_CreatePermissions(t *testing.T) {
	e := newEnv(t)
	cases := []struct {
		name  string
		actor func() *model.User
		level string
		dept  *uint
		err   error
	}{
		{"admin creates company", func() *model.User { return e.admin }, model.LevelCompany, nil, nil},
		{"manager cannot create company", func() *model.User { return e.manager }, model.LevelCompany, nil, ErrPermissionDenied},
		{"manager creates unit in own department", func() *model.User { return e.manager }, model.LevelUnit, uptr(salesDept), nil},
		{"manager cannot create unit elsewhere", func() *model.User { return e.manager }, model.LevelUnit, uptr(engDept), ErrPermissionDenied},
		{"member cannot create unit", func() *model.User { return e.alice }, model.LevelUnit, uptr(salesDept), ErrPermissionDenied},
		{"unit requires department", func() *model.User { return e.admin }, model.LevelUnit, nil, ErrInvalidInput},
		{"unknown department", func() *model.User { return e.admin }, model.LevelUnit, uptr(999), ErrInvalidInput},
		{"member creates own person objective", func() *model.User { return e.alice }, model.LevelPerson, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.objectives.Create(e.ctx, tc.actor(), ObjectiveInput{Title: "goal", Level: tc.level, DepartmentID: tc.dept})
			if tc.err == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.err)
			}
		})
	}
}

func TestObjectiveService_PersonDefaults(t *testing.T) {
	e := newEnv(t)
	obj, err := e.objectives.Create(e.ctx, e.alice, ObjectiveInput{Title: "  learn Go  ", Level: model.LevelPerson})
	require.NoError(t, err)

	assert.Equal(t, "learn Go", obj.Title)
	assert.Equal(t, model.ObjectiveDraft, obj.Status)
	require.NotNil(t, obj.UserID)
	assert.Equal(t, e.alice.ID, *obj.UserID)
	require.NotNil(t, obj.DepartmentID)
	assert.Equal(t, salesDept, *obj.DepartmentID)
	assert.Equal(t, []string{tasks.ObjectiveChanged}, e.rec.types())
}

func TestObjectiveService_CompanyHasNoDepartment(t *testing.T) {
	e := newEnv(t)
	obj, err := e.objectives.Create(e.ctx, e.admin, ObjectiveInput{Title: "grow", Level: model.LevelCompany, DepartmentID: uptr(salesDept)})
	require.NoError(t, err)
	assert.Nil(t, obj.DepartmentID)
}

func TestObjectiveService_UpdateKeepsOmittedFields(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.manager, "win deals", model.LevelUnit, uptr(salesDept))

	updated, err := e.objectives.Update(e.ctx, e.manager, obj.ID, ObjectiveInput{Title: "win more deals"})
	require.NoError(t, err)
	assert.Equal(t, "win more deals", updated.Title)
	assert.Equal(t, model.ObjectiveActive, updated.Status)
	assert.Equal(t, model.LevelUnit, updated.Level)
	assert.Equal(t, salesDept, *updated.DepartmentID)
	assert.Equal(t, q3Cycle, *updated.CycleID)

	_, err = e.objectives.Update(e.ctx, e.bob, obj.ID, ObjectiveInput{Title: "hijack"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestObjectiveService_UpdateCycleNotifiesBothCycles(t *testing.T) {
	e := newEnv(t)
	next := &model.Cycle{Name: "Q4 2026"}
	require.NoError(t, e.store.Cycles().Create(e.ctx, next))
	obj := e.objective(e.admin, "grow", model.LevelCompany, nil)

	_, err := e.objectives.Update(e.ctx, e.admin, obj.ID, ObjectiveInput{Title: "grow", CycleID: &next.ID})
	require.NoError(t, err)

	events := e.rec.events[len(e.rec.events)-2:]
	assert.Equal(t, next.ID, *events[0].CycleID)
	assert.Equal(t, q3Cycle, *events[1].CycleID)
}

func TestObjectiveService_DeleteRequiresArchive(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.admin, "grow", model.LevelCompany, nil)
	kr := e.keyResult(e.admin, obj.ID, "revenue", 1, 10)

	assert.ErrorIs(t, e.objectives.Delete(e.ctx, e.admin, obj.ID), ErrNotArchived)

	require.NoError(t, e.objectives.Archive(e.ctx, e.admin, obj.ID))
	archived, err := e.objectives.ListArchived(e.ctx, e.admin, nil)
	require.NoError(t, err)
	require.Len(t, archived, 1)

	require.NoError(t, e.objectives.Delete(e.ctx, e.admin, obj.ID))
	assert.Equal(t, tasks.ObjectiveDeleted, e.rec.last().Type)

	_, err = e.objectives.GetDetail(e.ctx, e.admin, obj.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = e.store.KeyResults().FindByID(e.ctx, kr.ID)
	assert.Error(t, err, "key results are removed with their objective")
}

func TestObjectiveService_Unarchive(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.alice, "read books", model.LevelPerson, nil)
	require.NoError(t, e.objectives.Archive(e.ctx, e.alice, obj.ID))
	assert.True(t, e.reload(obj.ID).IsArchived())

	require.NoError(t, e.objectives.Unarchive(e.ctx, e.alice, obj.ID))
	assert.False(t, e.reload(obj.ID).IsArchived())
}

func TestObjectiveService_ListArchivedScopedToOwner(t *testing.T) {
	e := newEnv(t)
	mine := e.objective(e.alice, "mine", model.LevelPerson, nil)
	theirs := e.objective(e.bob, "theirs", model.LevelPerson, nil)
	require.NoError(t, e.objectives.Archive(e.ctx, e.alice, mine.ID))
	require.NoError(t, e.objectives.Archive(e.ctx, e.bob, theirs.ID))

	list, err := e.objectives.ListArchived(e.ctx, e.alice, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, mine.ID, list[0].ID)

	list, err = e.objectives.ListArchived(e.ctx, e.admin, uptr(q3Cycle))
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestObjectiveService_DetailPermission(t *testing.T) {
	e := newEnv(t)
	company := e.objective(e.admin, "grow", model.LevelCompany, nil)
	unit := e.objective(e.manager, "sell", model.LevelUnit, uptr(salesDept))
	person := e.objective(e.alice, "learn", model.LevelPerson, nil)

	cases := []struct {
		name   string
		viewer *model.User
		obj    *model.Objective
		ok     bool
	}{
		{"anyone sees company", e.bob, company, true},
		{"admin sees unit", e.admin, unit, true},
		{"manager sees own department unit", e.manager, unit, true},
		{"member of other department denied", e.bob, unit, false},
		{"member of same department denied", e.alice, unit, false},
		{"owner sees person", e.alice, person, true},
		{"manager denied on person", e.manager, person, false},
		{"admin denied on person", e.admin, person, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			detail, err := e.objectives.GetDetail(e.ctx, tc.viewer, tc.obj.ID)
			if !tc.ok {
				assert.ErrorIs(t, err, ErrPermissionDenied)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.obj.ID, detail.Objective.ID)
		})
	}
}

func TestObjectiveService_DetailIncludesOwnerAndDepartment(t *testing.T) {
	e := newEnv(t)
	unit := e.objective(e.manager, "sell", model.LevelUnit, uptr(salesDept))
	e.keyResult(e.manager, unit.ID, "deals", 5, 10)

	detail, err := e.objectives.GetDetail(e.ctx, e.manager, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, "Sales", detail.DepartmentName)
	require.NotNil(t, detail.Owner)
	assert.Equal(t, e.manager.ID, detail.Owner.UserID)
	require.Len(t, detail.KeyResults, 1)
	assert.Equal(t, 50.0, detail.Objective.ProgressPercent)
}
