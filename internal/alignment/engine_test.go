package alignment

import (
	"context"
	"encoding/json"
	"errors"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
	"okr-compass-go/internal/repository/memrepo"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestResolve_CompanyObjectiveAbsorbsAlignedUnit(t *testing.T) {
	f := newFixture(t)
	a := f.objective("Grow revenue", model.LevelCompany, nil, uptr(adminID), 80)
	own := f.keyResult(a.ID, "ARR 10M", 8, 10, uptr(adminID))
	b := f.objective("Close enterprise deals", model.LevelUnit, uptr(salesDept), uptr(managerID), 50)
	f.keyResult(b.ID, "20 deals", 10, 20, uptr(aliceID))
	f.linkToObjective(b.ID, a.ID, model.LinkApproved)

	tree := f.resolve(asAdmin)

	require.Len(t, tree.Company, 1)
	krs := tree.Company[0].KeyResults
	require.Len(t, krs, 2)
	assert.Equal(t, model.RealKeyResultID(own.ID), krs[0].KrID)
	assert.Equal(t, 80.0, krs[0].ProgressPercent)

	virtual := findKR(krs, model.VirtualKeyResultID(b.ID))
	require.Len(t, virtual, 1)
	v := virtual[0]
	assert.Equal(t, "Close enterprise deals", v.KrTitle)
	assert.Equal(t, 50.0, v.ProgressPercent)
	assert.True(t, v.IsLinkedObjective)
	assert.Equal(t, model.UnitNumber, v.Unit)
	assert.Zero(t, v.TargetValue)
	assert.Zero(t, v.CurrentValue)

	require.NotNil(t, v.LinkedObjectiveData)
	payload := v.LinkedObjectiveData
	assert.Equal(t, b.ID, payload.ObjectiveID)
	assert.Equal(t, "Sales", payload.DepartmentName)
	require.NotNil(t, payload.Owner)
	assert.Equal(t, "Manager", payload.Owner.FullName)
	require.Len(t, payload.KeyResults, 1)
	assert.Equal(t, "20 deals", payload.KeyResults[0].KrTitle)
	assert.Equal(t, 50.0, payload.KeyResults[0].ProgressPercent)
	require.NotNil(t, payload.KeyResults[0].AssignedUser)
	assert.Equal(t, aliceID, payload.KeyResults[0].AssignedUser.UserID)
	assert.False(t, payload.KeyResults[0].IsLinkedObjective)

	// B 已被上级吸收，不再出现在部门分支中
	assert.Empty(t, tree.Departments)
	assert.NotNil(t, tree.Company[0].LinkedObjectives)
	assert.Empty(t, tree.Company[0].LinkedObjectives)

	data, err := json.Marshal(tree)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"kr_id":"linked_obj_`)
	assert.Contains(t, string(data), `"linked_objectives":[]`)
}

func TestResolve_EveryEffectiveObjectiveLinkBecomesOneVirtualKR(t *testing.T) {
	f := newFixture(t)
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 70)
	u1 := f.objective("Sales goal", model.LevelUnit, uptr(salesDept), nil, 40)
	u2 := f.objective("Eng goal", model.LevelUnit, uptr(engDept), nil, 60)
	f.linkToObjective(u1.ID, a.ID, model.LinkApproved)
	f.linkToObjective(u2.ID, a.ID, model.LinkApproved)
	// 同一来源的重复批准关系只产生一个虚拟关键结果
	f.linkToObjective(u1.ID, a.ID, model.LinkApproved)

	tree := f.resolve(asAdmin)

	require.Len(t, tree.Company, 1)
	krs := tree.Company[0].KeyResults
	assert.Len(t, findKR(krs, model.VirtualKeyResultID(u1.ID)), 1)
	assert.Len(t, findKR(krs, model.VirtualKeyResultID(u2.ID)), 1)
	// 按关系 ID 顺序
	require.Len(t, krs, 2)
	assert.Equal(t, model.VirtualKeyResultID(u1.ID), krs[0].KrID)
	assert.Equal(t, model.VirtualKeyResultID(u2.ID), krs[1].KrID)
}

func TestResolve_OnlyApprovedActiveLinksParticipate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 80)
	b := f.objective("Unit goal", model.LevelUnit, uptr(salesDept), nil, 50)
	link := f.linkToObjective(b.ID, a.ID, model.LinkPending)

	tree := f.resolve(asAdmin)
	assert.Empty(t, findKR(tree.Company[0].KeyResults, model.VirtualKeyResultID(b.ID)))
	require.Len(t, tree.Departments, 1)
	assert.Equal(t, b.ID, tree.Departments[0].Objectives[0].ObjectiveID)

	link.Status = model.LinkApproved
	require.NoError(t, f.store.Links().Update(ctx, link))
	tree = f.resolve(asAdmin)
	assert.Len(t, findKR(tree.Company[0].KeyResults, model.VirtualKeyResultID(b.ID)), 1)
	assert.Empty(t, tree.Departments)

	link.Status = model.LinkCancelled
	link.IsActive = false
	require.NoError(t, f.store.Links().Update(ctx, link))
	tree = f.resolve(asAdmin)
	assert.Empty(t, findKR(tree.Company[0].KeyResults, model.VirtualKeyResultID(b.ID)))
	require.Len(t, tree.Departments, 1)

	// 已批准但被停用的关系同样不参与解析
	link.Status = model.LinkApproved
	link.IsActive = false
	require.NoError(t, f.store.Links().Update(ctx, link))
	tree = f.resolve(asAdmin)
	assert.Empty(t, findKR(tree.Company[0].KeyResults, model.VirtualKeyResultID(b.ID)))

	for _, status := range []string{model.LinkRejected, model.LinkChangesRequested} {
		link.Status = status
		link.IsActive = true
		require.NoError(t, f.store.Links().Update(ctx, link))
		tree = f.resolve(asAdmin)
		assert.Empty(t, findKR(tree.Company[0].KeyResults, model.VirtualKeyResultID(b.ID)), status)
	}
}

func TestResolve_PersonObjectivesVisibleOnlyToOwningMember(t *testing.T) {
	f := newFixture(t)
	f.objective("Sales goal", model.LevelUnit, uptr(salesDept), uptr(managerID), 0)
	f.objective("Eng goal", model.LevelUnit, uptr(engDept), nil, 0)
	alice := f.objective("Alice learns Go", model.LevelPerson, uptr(salesDept), uptr(aliceID), 10)
	f.keyResult(alice.ID, "Finish the tour", 1, 2, uptr(aliceID))
	bob := f.objective("Bob ships", model.LevelPerson, uptr(engDept), uptr(bobID), 20)
	f.objective("Manager's own", model.LevelPerson, uptr(salesDept), uptr(managerID), 0)
	f.objective("Team goal", model.LevelTeam, uptr(salesDept), nil, 0)

	personIDs := func(tree *model.OKRTree) []uint {
		var ids []uint
		for _, d := range tree.Departments {
			for _, u := range d.Objectives[0].Users {
				for _, o := range u.Objectives {
					assert.Equal(t, model.LevelPerson, o.Level)
					ids = append(ids, o.ObjectiveID)
				}
			}
		}
		return ids
	}

	tree := f.resolve(asAlice)
	assert.Equal(t, []uint{alice.ID}, personIDs(tree))
	users := tree.Departments[0].Objectives[0].Users
	require.Len(t, users, 1)
	assert.Equal(t, aliceID, users[0].UserID)
	assert.Equal(t, "a.png", users[0].AvatarURL)
	require.Len(t, users[0].Objectives[0].KeyResults, 1)
	assert.Equal(t, 50.0, users[0].Objectives[0].KeyResults[0].ProgressPercent)

	assert.Equal(t, []uint{bob.ID}, personIDs(f.resolve(asBob)))
	assert.Empty(t, personIDs(f.resolve(asManager)))
	assert.Empty(t, personIDs(f.resolve(asAdmin)))

	// 团队级目标不进入汇总树
	for _, d := range f.resolve(asAdmin).Departments {
		for _, o := range d.Objectives {
			assert.Equal(t, model.LevelUnit, o.Level)
		}
	}
}

func TestResolve_AuthenticKeyResultWinsOverPeerContribution(t *testing.T) {
	f := newFixture(t)
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 30)
	kr := f.keyResult(a.ID, "NPS 50", 15, 50, uptr(adminID))
	b := f.objective("Support goal", model.LevelUnit, uptr(salesDept), uptr(managerID), 45)
	f.linkToKR(b.ID, kr.ID, model.LinkApproved)

	tree := f.resolve(asAdmin)

	krs := tree.Company[0].KeyResults
	require.Len(t, krs, 1)
	matches := findKR(krs, model.RealKeyResultID(kr.ID))
	require.Len(t, matches, 1)
	got := matches[0]
	assert.Equal(t, "NPS 50", got.KrTitle)
	assert.Equal(t, 50.0, got.TargetValue)
	assert.Equal(t, 30.0, got.ProgressPercent)
	require.NotNil(t, got.AssignedUser)
	assert.True(t, got.IsLinked)
	assert.False(t, got.IsLinkedObjective)
	require.Len(t, got.LinkedObjectives, 1)
	assert.Equal(t, b.ID, got.LinkedObjectives[0].ObjectiveID)
	assert.Equal(t, "Sales", got.LinkedObjectives[0].DepartmentName)
	// 目标->关键结果 的来源不生成虚拟关键结果
	assert.Empty(t, findKR(krs, model.VirtualKeyResultID(b.ID)))
	assert.Empty(t, tree.Departments)
}

func TestResolve_NoObjectiveIsBothPlacedAndLinked(t *testing.T) {
	f := newFixture(t)
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 0)
	aKR := f.keyResult(a.ID, "Company KR", 0, 10, nil)
	u1 := f.objective("Sales 1", model.LevelUnit, uptr(salesDept), nil, 0)
	u1KR := f.keyResult(u1.ID, "Sales KR", 0, 10, nil)
	u2 := f.objective("Sales 2", model.LevelUnit, uptr(salesDept), nil, 0)
	u3 := f.objective("Eng 1", model.LevelUnit, uptr(engDept), nil, 0)
	u4 := f.objective("Eng 2", model.LevelUnit, uptr(engDept), nil, 0)
	p := f.objective("Alice personal", model.LevelPerson, uptr(salesDept), uptr(aliceID), 0)
	p2 := f.objective("Alice aligned", model.LevelPerson, uptr(salesDept), uptr(aliceID), 0)

	f.linkToObjective(u2.ID, a.ID, model.LinkApproved)
	f.linkToKR(u3.ID, aKR.ID, model.LinkApproved)
	f.linkToObjective(u4.ID, u1.ID, model.LinkApproved)
	f.linkToKR(p2.ID, u1KR.ID, model.LinkApproved)
	// u4 已被 u1 嵌入，u1 -> u4 的反向关系不会再展开
	f.linkToObjective(u1.ID, u4.ID, model.LinkApproved)
	// u2 同时对齐到 u1：u2 已被公司目标嵌入，可以再次以嵌套形式出现
	f.linkToObjective(u2.ID, u1.ID, model.LinkApproved)

	for _, viewer := range []Viewer{asAdmin, asAlice, asManager} {
		tree := f.resolve(viewer)
		placed := placedIDs(tree)
		linked := linkedIDs(tree)
		for id, n := range placed {
			assert.Equal(t, 1, n, "objective %d placed more than once", id)
			assert.False(t, linked[id], "objective %d is both placed and linked", id)
		}
		assert.Contains(t, placed, u1.ID)
		assert.True(t, linked[u2.ID])
		assert.True(t, linked[u3.ID])
		assert.True(t, linked[u4.ID])
		if viewer.UserID == aliceID {
			assert.Contains(t, placed, p.ID)
			assert.True(t, linked[p2.ID])
		}
	}
}

func TestResolve_EarlierUnitSourceEmbeddedUnderLaterTarget(t *testing.T) {
	f := newFixture(t)
	source := f.objective("Ship billing v2", model.LevelUnit, uptr(engDept), uptr(bobID), 40)
	target := f.objective("Reduce churn", model.LevelUnit, uptr(salesDept), uptr(managerID), 60)
	f.keyResult(target.ID, "Churn < 3%", 1, 3, nil)
	f.linkToObjective(source.ID, target.ID, model.LinkApproved)

	tree := f.resolve(asAdmin)

	placed := placedIDs(tree)
	assert.NotContains(t, placed, source.ID)
	assert.Equal(t, 1, placed[target.ID])
	require.Len(t, tree.Departments, 1)
	assert.Equal(t, uint(salesDept), tree.Departments[0].DepartmentID)

	krs := tree.Departments[0].Objectives[0].KeyResults
	require.Len(t, krs, 2)
	virtual := findKR(krs, model.VirtualKeyResultID(source.ID))
	require.Len(t, virtual, 1)
	require.NotNil(t, virtual[0].LinkedObjectiveData)
	assert.Equal(t, "Engineering", virtual[0].LinkedObjectiveData.DepartmentName)
}

func TestResolve_EarlierUnitSourceFoldedIntoLaterKeyResult(t *testing.T) {
	f := newFixture(t)
	source := f.objective("Ship billing v2", model.LevelUnit, uptr(engDept), uptr(bobID), 40)
	target := f.objective("Reduce churn", model.LevelUnit, uptr(salesDept), uptr(managerID), 60)
	kr := f.keyResult(target.ID, "Churn < 3%", 1, 3, nil)
	f.linkToKR(source.ID, kr.ID, model.LinkApproved)

	tree := f.resolve(asAdmin)

	assert.NotContains(t, placedIDs(tree), source.ID)
	require.Len(t, tree.Departments, 1)
	krs := tree.Departments[0].Objectives[0].KeyResults
	require.Len(t, krs, 1)
	got := krs[0]
	assert.Equal(t, model.RealKeyResultID(kr.ID), got.KrID)
	assert.True(t, got.IsLinked)
	require.Len(t, got.LinkedObjectives, 1)
	assert.Equal(t, source.ID, got.LinkedObjectives[0].ObjectiveID)
}

func TestResolve_UnitCyclesKeepEveryObjectiveOnce(t *testing.T) {
	t.Run("two units point at each other", func(t *testing.T) {
		f := newFixture(t)
		u1 := f.objective("Sales 1", model.LevelUnit, uptr(salesDept), nil, 0)
		u2 := f.objective("Eng 1", model.LevelUnit, uptr(engDept), nil, 0)
		f.linkToObjective(u2.ID, u1.ID, model.LinkApproved)
		f.linkToObjective(u1.ID, u2.ID, model.LinkApproved)

		tree := f.resolve(asAdmin)

		placed := placedIDs(tree)
		assert.Equal(t, map[uint]int{u1.ID: 1}, placed)
		assert.True(t, linkedIDs(tree)[u2.ID])
	})

	t.Run("three units form a ring", func(t *testing.T) {
		f := newFixture(t)
		a := f.objective("Sales 1", model.LevelUnit, uptr(salesDept), nil, 0)
		b := f.objective("Eng 1", model.LevelUnit, uptr(engDept), nil, 0)
		c := f.objective("Sales 2", model.LevelUnit, uptr(salesDept), nil, 0)
		f.linkToObjective(a.ID, b.ID, model.LinkApproved)
		f.linkToObjective(b.ID, c.ID, model.LinkApproved)
		f.linkToObjective(c.ID, a.ID, model.LinkApproved)

		tree := f.resolve(asAdmin)

		placed := placedIDs(tree)
		linked := linkedIDs(tree)
		for _, id := range []uint{a.ID, b.ID, c.ID} {
			_, isPlaced := placed[id]
			assert.NotEqual(t, isPlaced, linked[id], "objective %d must appear exactly once", id)
			if isPlaced {
				assert.Equal(t, 1, placed[id])
			}
		}
		assert.Contains(t, placed, a.ID)
	})
}

func TestResolve_UsersRepeatedUnderEachUnitObjective(t *testing.T) {
	f := newFixture(t)
	u1 := f.objective("Sales 1", model.LevelUnit, uptr(salesDept), nil, 0)
	u2 := f.objective("Sales 2", model.LevelUnit, uptr(salesDept), nil, 0)
	f.objective("Eng 1", model.LevelUnit, uptr(engDept), nil, 0)
	f.objective("Alice personal", model.LevelPerson, uptr(salesDept), uptr(aliceID), 0)

	tree := f.resolve(asAlice)
	require.Len(t, tree.Departments, 2)
	sales := tree.Departments[0]
	assert.Equal(t, salesDept, sales.DepartmentID)
	assert.Equal(t, "Sales", sales.DName)
	require.Len(t, sales.Objectives, 2)
	assert.Equal(t, u1.ID, sales.Objectives[0].ObjectiveID)
	assert.Equal(t, u2.ID, sales.Objectives[1].ObjectiveID)
	for _, o := range sales.Objectives {
		require.Len(t, o.Users, 1)
		assert.Equal(t, aliceID, o.Users[0].UserID)
	}
	eng := tree.Departments[1]
	assert.Equal(t, engDept, eng.DepartmentID)
	assert.NotNil(t, eng.Objectives[0].Users)
	assert.Empty(t, eng.Objectives[0].Users)
}

func TestResolve_SkipsUnresolvableSources(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 0)
	archived := f.objective("Archived", model.LevelUnit, uptr(salesDept), nil, 0)
	deleted := f.objective("Deleted", model.LevelUnit, uptr(salesDept), nil, 0)
	team := f.objective("Team", model.LevelTeam, uptr(salesDept), nil, 0)
	f.linkToObjective(archived.ID, a.ID, model.LinkApproved)
	f.linkToObjective(deleted.ID, a.ID, model.LinkApproved)
	f.linkToObjective(team.ID, a.ID, model.LinkApproved)
	f.linkToObjective(a.ID, a.ID, model.LinkApproved)
	f.linkToKR(a.ID, 9999, model.LinkApproved)

	now := time.Now()
	require.NoError(t, f.store.Objectives().SetArchived(ctx, archived.ID, &now))
	require.NoError(t, f.store.Objectives().Delete(ctx, deleted.ID))

	tree := f.resolve(asAdmin)
	require.Len(t, tree.Company, 1)
	assert.Empty(t, tree.Company[0].KeyResults)
	assert.NotNil(t, tree.Company[0].KeyResults)
	assert.Empty(t, tree.Departments)
}

func TestResolve_ArchivedKeyResultsAreHidden(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 0)
	keep := f.keyResult(a.ID, "Keep", 1, 2, nil)
	gone := f.keyResult(a.ID, "Gone", 1, 2, nil)
	b := f.objective("Unit", model.LevelUnit, uptr(salesDept), nil, 0)
	f.linkToKR(b.ID, gone.ID, model.LinkApproved)

	now := time.Now()
	gone.ArchivedAt = &now
	require.NoError(t, f.store.KeyResults().Update(ctx, gone))

	tree := f.resolve(asAdmin)
	krs := tree.Company[0].KeyResults
	require.Len(t, krs, 1)
	assert.Equal(t, model.RealKeyResultID(keep.ID), krs[0].KrID)
	// 目标关键结果已归档，关系视为不存在，B 回到部门分支
	require.Len(t, tree.Departments, 1)
	assert.Equal(t, b.ID, tree.Departments[0].Objectives[0].ObjectiveID)
}

func TestResolve_CycleScoping(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in := f.objective("This quarter", model.LevelCompany, nil, nil, 0)
	other := &model.Objective{Title: "Last quarter", Level: model.LevelCompany, CycleID: uptr(99), Status: model.ObjectiveActive}
	require.NoError(t, f.store.Objectives().Create(ctx, other))

	tree := f.resolve(asAdmin)
	require.Len(t, tree.Company, 1)
	assert.Equal(t, in.ID, tree.Company[0].ObjectiveID)
	assert.Equal(t, uptr(f.cycle), tree.CycleID)

	// 未匹配周期时不过滤，也不报错
	all, err := f.engine().Resolve(ctx, model.CycleRef{Label: "Quý 3 năm 2026"}, asAdmin)
	require.NoError(t, err)
	assert.Nil(t, all.CycleID)
	assert.Equal(t, "Quý 3 năm 2026", all.CycleLabel)
	assert.Len(t, all.Company, 2)
}

func TestResolve_IsDeterministic(t *testing.T) {
	f := newFixture(t)
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 10)
	kr := f.keyResult(a.ID, "KR", 1, 10, uptr(aliceID))
	for i := 0; i < 5; i++ {
		u := f.objective("Unit", model.LevelUnit, uptr(salesDept), nil, float64(i))
		f.keyResult(u.ID, "Unit KR", float64(i), 10, uptr(bobID))
		if i%2 == 0 {
			f.linkToObjective(u.ID, a.ID, model.LinkApproved)
		} else {
			f.linkToKR(u.ID, kr.ID, model.LinkApproved)
		}
	}
	f.objective("Alice personal", model.LevelPerson, uptr(salesDept), uptr(aliceID), 0)
	f.objective("Eng unit", model.LevelUnit, uptr(engDept), nil, 0)

	tree := f.resolve(asAlice)
	if diff := cmp.Diff(tree, f.resolve(asAlice)); diff != "" {
		t.Fatalf("second resolution differs (-first +second):\n%s", diff)
	}

	first, err := json.Marshal(tree)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := json.Marshal(f.resolve(asAlice))
		require.NoError(t, err)
		assert.Equal(t, string(first), string(again))
	}
}

func TestResolve_UsesConstantNumberOfQueries(t *testing.T) {
	f := newFixture(t)
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 0)
	for i := 0; i < 20; i++ {
		u := f.objective("Unit", model.LevelUnit, uptr(salesDept), uptr(managerID), 0)
		f.keyResult(u.ID, "KR", 0, 1, uptr(aliceID))
		f.linkToObjective(u.ID, a.ID, model.LinkApproved)
	}
	f.resolve(asAdmin)

	assert.Equal(t, 1, f.store.CallCount("Objectives.ListInScope"))
	assert.Equal(t, 1, f.store.CallCount("KeyResults.FindByObjectiveIDs"))
	assert.Equal(t, 1, f.store.CallCount("Links.FindEffectiveBySources"))
	assert.Equal(t, 1, f.store.CallCount("Users.FindByIDs"))
	assert.Equal(t, 1, f.store.CallCount("Departments.FindByIDs"))
}

func TestResolve_ConcurrentViewersDoNotInterfere(t *testing.T) {
	defer goleak.VerifyNone(t)
	f := newFixture(t)
	a := f.objective("Company goal", model.LevelCompany, nil, nil, 0)
	u := f.objective("Sales goal", model.LevelUnit, uptr(salesDept), nil, 0)
	f.objective("Eng goal", model.LevelUnit, uptr(engDept), nil, 0)
	f.linkToObjective(u.ID, a.ID, model.LinkApproved)
	f.objective("Alice personal", model.LevelPerson, uptr(salesDept), uptr(aliceID), 0)
	f.objective("Bob personal", model.LevelPerson, uptr(engDept), uptr(bobID), 0)

	viewers := []Viewer{asAdmin, asManager, asAlice, asBob}
	want := make(map[uint]string)
	for _, v := range viewers {
		data, err := json.Marshal(f.resolve(v))
		require.NoError(t, err)
		want[v.UserID] = string(data)
	}

	engine := f.engine()
	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 40; i++ {
		v := viewers[i%len(viewers)]
		wg.Add(1)
		go func() {
			defer wg.Done()
			tree, err := engine.Resolve(context.Background(), model.CycleRef{ID: uptr(f.cycle), Label: "Q3 2026"}, v)
			if err != nil {
				errs <- err
				return
			}
			data, _ := json.Marshal(tree)
			if string(data) != want[v.UserID] {
				errs <- errors.New("tree differs for concurrent viewer")
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

type failingKeyResults struct {
	repository.KeyResultRepository
}

func (failingKeyResults) FindByObjectiveIDs(context.Context, []uint) ([]model.KeyResult, error) {
	return nil, errors.New("connection refused")
}

func TestResolve_PropagatesLoadErrors(t *testing.T) {
	store := memrepo.New()
	ctx := context.Background()
	require.NoError(t, store.Objectives().Create(ctx, &model.Objective{Title: "A", Level: model.LevelCompany}))

	engine := NewEngine(NewLoader(store.Objectives(), failingKeyResults{}, store.Links(), store.Users(), store.Departments()))
	_, err := engine.Resolve(ctx, model.CycleRef{}, asAdmin)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load key results")
}

func TestResolve_EmptyCycleRendersEmptyArrays(t *testing.T) {
	f := newFixture(t)
	data, err := json.Marshal(f.resolve(asAdmin))
	require.NoError(t, err)
	assert.JSONEq(t, `{"cycle_id":100,"cycle_label":"Q3 2026","company":[],"departments":[]}`, string(data))
}
