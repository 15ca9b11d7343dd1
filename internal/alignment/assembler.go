package alignment

import (
	"okr-compass-go/internal/model"
	"sort"
)

// Assembler 按 公司 -> 部门 -> 个人 的顺序组装对齐树。
type Assembler struct {
	snap     *Snapshot
	resolver *Resolver
	tracker  *Tracker
}

// NewAssembler 创建一个 Assembler。tracker 只能用于一次组装。
func NewAssembler(snap *Snapshot, resolver *Resolver, tracker *Tracker) *Assembler {
	return &Assembler{snap: snap, resolver: resolver, tracker: tracker}
}

// Build 组装整棵树。公司级目标先合并，其次放置部门级目标，最后放置未被嵌入的个人目标。
func (a *Assembler) Build(cycle model.CycleRef) *model.OKRTree {
	tree := &model.OKRTree{
		CycleID:     cycle.ID,
		CycleLabel:  cycle.Label,
		Company:     []model.CompanyObjectiveNode{},
		Departments: []model.DepartmentBranch{},
	}

	for i := range a.snap.Objectives {
		o := &a.snap.Objectives[i]
		if o.Level != model.LevelCompany {
			continue
		}
		tree.Company = append(tree.Company, model.CompanyObjectiveNode{
			ObjectiveNode:    a.node(o, a.resolver.MergedKeyResults(o, a.tracker)),
			LinkedObjectives: []model.ObjectivePayload{},
		})
	}

	units := a.placeUnits()
	persons := a.placePersons()

	byDept := make(map[uint][]model.UnitObjectiveNode)
	for _, u := range units {
		deptID := *u.objective.DepartmentID
		byDept[deptID] = append(byDept[deptID], model.UnitObjectiveNode{
			ObjectiveNode: a.node(u.objective, u.keyResults),
		})
	}
	deptIDs := make([]uint, 0, len(byDept))
	for id := range byDept {
		deptIDs = append(deptIDs, id)
	}
	sort.Slice(deptIDs, func(i, j int) bool { return deptIDs[i] < deptIDs[j] })

	for _, deptID := range deptIDs {
		branch := model.DepartmentBranch{
			DepartmentID: deptID,
			Objectives:   byDept[deptID],
		}
		if d, ok := a.snap.departments[deptID]; ok {
			branch.DName = d.Name
		}
		users := a.usersOf(deptID, persons)
		for i := range branch.Objectives {
			branch.Objectives[i].Users = users
		}
		tree.Departments = append(tree.Departments, branch)
	}
	return tree
}

type placedUnit struct {
	objective  *model.Objective
	keyResults []model.KeyResultView
}

// placeUnits 放置部门级目标。先由 planUnits 决定哪些目标独立成节点，全部放置后再合并关键结果，
// 这样来源目标无论创建早晚都会被它的上级收走。没有部门的目标无处放置，跳过。
func (a *Assembler) placeUnits() []placedUnit {
	standalone := a.planUnits()
	var hosts []*model.Objective
	for i := range a.snap.Objectives {
		o := &a.snap.Objectives[i]
		if !standalone[o.ID] || !a.tracker.Place(o.ID) {
			continue
		}
		hosts = append(hosts, o)
	}

	units := make([]placedUnit, 0, len(hosts))
	for _, o := range hosts {
		units = append(units, placedUnit{
			objective:  o,
			keyResults: a.resolver.MergedKeyResults(o, a.tracker),
		})
	}
	return units
}

type presence uint8

const (
	presenceUnknown presence = iota
	presenceShown            // 作为独立节点呈现，会嵌入自己的来源
	presenceHidden           // 不独立呈现：已嵌入上级，或本身无法成为节点
)

// planUnits 决定每个部门级目标是否独立成节点：只要有一个对齐目标会呈现，它就被嵌入；
// 所有对齐目标都不呈现时独立成节点。公司级目标总是呈现。
// 互相对齐成环而无法推出结论时，取创建最早的目标独立成节点，再继续推导。
func (a *Assembler) planUnits() map[uint]bool {
	var units []*model.Objective
	state := make(map[uint]presence)
	for i := range a.snap.Objectives {
		o := &a.snap.Objectives[i]
		if o.Level == model.LevelUnit && o.DepartmentID != nil {
			units = append(units, o)
			state[o.ID] = presenceUnknown
		}
	}

	targetPresence := func(id uint) presence {
		o, ok := a.snap.Objective(id)
		switch {
		case !ok:
			return presenceHidden
		case o.Level == model.LevelCompany:
			return presenceShown
		}
		if s, ok := state[id]; ok {
			return s
		}
		return presenceHidden
	}

	decide := func(o *model.Objective) presence {
		result := presenceShown
		for _, targetID := range a.resolver.TargetsOf(o.ID) {
			switch targetPresence(targetID) {
			case presenceShown:
				return presenceHidden
			case presenceUnknown:
				result = presenceUnknown
			}
		}
		return result
	}

	for {
		for changed := true; changed; {
			changed = false
			for _, o := range units {
				if state[o.ID] != presenceUnknown {
					continue
				}
				if next := decide(o); next != presenceUnknown {
					state[o.ID] = next
					changed = true
				}
			}
		}

		var pick *model.Objective
		for _, o := range units {
			if state[o.ID] == presenceUnknown {
				pick = o
				break
			}
		}
		if pick == nil {
			break
		}
		state[pick.ID] = presenceShown
	}

	standalone := make(map[uint]bool, len(units))
	for id, s := range state {
		if s == presenceShown {
			standalone[id] = true
		}
	}
	return standalone
}

// placePersons 放置未被嵌入的个人目标，按负责人分组。
func (a *Assembler) placePersons() map[uint][]*model.Objective {
	persons := make(map[uint][]*model.Objective)
	for i := range a.snap.Objectives {
		o := &a.snap.Objectives[i]
		if o.Level != model.LevelPerson || o.UserID == nil {
			continue
		}
		if !a.tracker.Place(o.ID) {
			continue
		}
		persons[*o.UserID] = append(persons[*o.UserID], o)
	}
	return persons
}

// usersOf 返回部门内拥有已放置个人目标的用户，按用户 ID 升序。
func (a *Assembler) usersOf(deptID uint, persons map[uint][]*model.Objective) []model.UserBranch {
	ownerIDs := make([]uint, 0, len(persons))
	for id := range persons {
		ownerIDs = append(ownerIDs, id)
	}
	sort.Slice(ownerIDs, func(i, j int) bool { return ownerIDs[i] < ownerIDs[j] })

	branches := []model.UserBranch{}
	for _, ownerID := range ownerIDs {
		user, ok := a.snap.users[ownerID]
		if !ok || user.DepartmentID == nil || *user.DepartmentID != deptID {
			continue
		}
		branch := model.UserBranch{
			UserBrief:  model.UserBrief{UserID: user.ID, FullName: user.FullName, AvatarURL: user.AvatarURL},
			Objectives: make([]model.ObjectiveNode, 0, len(persons[ownerID])),
		}
		for _, o := range persons[ownerID] {
			branch.Objectives = append(branch.Objectives, a.node(o, a.resolver.PlainKeyResults(o.ID)))
		}
		branches = append(branches, branch)
	}
	return branches
}

func (a *Assembler) node(o *model.Objective, krs []model.KeyResultView) model.ObjectiveNode {
	if krs == nil {
		krs = []model.KeyResultView{}
	}
	return model.ObjectiveNode{
		ObjectiveID:     o.ID,
		ObjTitle:        o.Title,
		Description:     o.Description,
		Status:          o.Status,
		ProgressPercent: o.ProgressPercent,
		Level:           o.Level,
		KeyResults:      krs,
	}
}
