package service

import (
	"okr-compass-go/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyResultService_ProgressAggregation(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.admin, "grow", model.LevelCompany, nil)

	e.keyResult(e.admin, obj.ID, "revenue", 100, 100)
	assert.Equal(t, 100.0, e.reload(obj.ID).ProgressPercent)

	second := e.keyResult(e.admin, obj.ID, "customers", 0, 100)
	assert.Equal(t, 50.0, e.reload(obj.ID).ProgressPercent)

	require.NoError(t, e.keyResults.Archive(e.ctx, e.admin, second.ID))
	assert.Equal(t, 100.0, e.reload(obj.ID).ProgressPercent, "archived key results are not aggregated")
}

func TestKeyResultService_ExplicitProgressWins(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.admin, "grow", model.LevelCompany, nil)
	kr := e.keyResult(e.admin, obj.ID, "revenue", 10, 100)

	_, err := e.keyResults.Update(e.ctx, e.admin, kr.ID, KeyResultInput{
		Title:           "revenue",
		CurrentValue:    10,
		TargetValue:     100,
		ProgressPercent: fptr(75),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, e.reload(obj.ID).ProgressPercent)
}

func TestKeyResultService_Validation(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.admin, "grow", model.LevelCompany, nil)

	_, err := e.keyResults.Create(e.ctx, e.admin, obj.ID, KeyResultInput{Title: "   "})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.keyResults.Create(e.ctx, e.admin, obj.ID, KeyResultInput{Title: "x", Unit: "miles"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.keyResults.Create(e.ctx, e.admin, obj.ID, KeyResultInput{Title: "x", ProgressPercent: fptr(101)})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = e.keyResults.Create(e.ctx, e.alice, obj.ID, KeyResultInput{Title: "x"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = e.keyResults.Create(e.ctx, e.admin, 999, KeyResultInput{Title: "x"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestKeyResultService_CheckIn(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.manager, "sell", model.LevelUnit, uptr(salesDept))
	kr, err := e.keyResults.Create(e.ctx, e.manager, obj.ID, KeyResultInput{
		Title:       "deals",
		TargetValue: 20,
		AssignedTo:  &e.alice.ID,
	})
	require.NoError(t, err)

	checkIn, err := e.keyResults.CheckIn(e.ctx, e.alice, kr.ID, CheckInInput{Value: 5, Confidence: 7, Note: "first week"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, checkIn.PreviousValue)
	assert.Equal(t, 5.0, checkIn.NewValue)
	assert.Equal(t, 25.0, checkIn.ProgressPercent)
	assert.Equal(t, 25.0, e.reload(obj.ID).ProgressPercent)

	_, err = e.keyResults.CheckIn(e.ctx, e.alice, kr.ID, CheckInInput{Value: 10, Confidence: 8})
	require.NoError(t, err)
	assert.Equal(t, 50.0, e.reload(obj.ID).ProgressPercent)

	history, err := e.keyResults.ListCheckIns(e.ctx, e.alice, kr.ID, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, 10.0, history[0].NewValue, "latest first")
	assert.Equal(t, 5.0, history[0].PreviousValue)
}

func TestKeyResultService_CheckInRejections(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.manager, "sell", model.LevelUnit, uptr(salesDept))
	kr := e.keyResult(e.manager, obj.ID, "deals", 0, 10)

	_, err := e.keyResults.CheckIn(e.ctx, e.bob, kr.ID, CheckInInput{Value: 1})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	_, err = e.keyResults.CheckIn(e.ctx, e.manager, kr.ID, CheckInInput{Value: 1, Confidence: 11})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, e.keyResults.Archive(e.ctx, e.manager, kr.ID))
	_, err = e.keyResults.CheckIn(e.ctx, e.manager, kr.ID, CheckInInput{Value: 1})
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = e.keyResults.ListCheckIns(e.ctx, e.bob, kr.ID, 10)
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestKeyResultService_Delete(t *testing.T) {
	e := newEnv(t)
	obj := e.objective(e.admin, "grow", model.LevelCompany, nil)
	done := e.keyResult(e.admin, obj.ID, "done", 1, 1)
	open := e.keyResult(e.admin, obj.ID, "open", 0, 1)
	require.Equal(t, 50.0, e.reload(obj.ID).ProgressPercent)

	require.NoError(t, e.keyResults.Delete(e.ctx, e.admin, open.ID))
	assert.Equal(t, 100.0, e.reload(obj.ID).ProgressPercent)

	require.NoError(t, e.keyResults.Delete(e.ctx, e.admin, done.ID))
	assert.Equal(t, 0.0, e.reload(obj.ID).ProgressPercent)
}
