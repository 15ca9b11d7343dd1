package alignment

import (
	"okr-compass-go/internal/model"
)

// Resolver 把快照中的有效对齐关系按目标方建立索引，并为节点生成合并后的关键结果列表。
type Resolver struct {
	snap *Snapshot
	// byTargetObjective: 目标 ID -> 对齐到它的来源目标 ID（按关系 ID 升序，已去重）
	byTargetObjective map[uint][]uint
	// byTargetKR: 关键结果 ID -> 对齐到它的来源目标 ID
	byTargetKR map[uint][]uint
	// bySource: 来源目标 ID -> 它对齐到的目标 ID（关键结果按所属目标计）
	bySource map[uint][]uint
}

// NewResolver 为快照建立索引。来源或目标不在范围内、来源即目标本身的关系被忽略。
func NewResolver(snap *Snapshot) *Resolver {
	r := &Resolver{
		snap:              snap,
		byTargetObjective: make(map[uint][]uint),
		byTargetKR:        make(map[uint][]uint),
		bySource:          make(map[uint][]uint),
	}
	for i := range snap.Links {
		link := &snap.Links[i]
		if !link.Effective() {
			continue
		}
		if _, ok := snap.Objective(link.SourceObjectiveID); !ok {
			continue
		}
		switch {
		case link.TargetsObjective():
			target := *link.TargetObjectiveID
			if target == link.SourceObjectiveID {
				continue
			}
			if _, ok := snap.Objective(target); !ok {
				continue
			}
			r.byTargetObjective[target] = appendUnique(r.byTargetObjective[target], link.SourceObjectiveID)
			r.bySource[link.SourceObjectiveID] = appendUnique(r.bySource[link.SourceObjectiveID], target)
		case link.TargetsKeyResult():
			kr, ok := snap.KeyResult(*link.TargetKrID)
			if !ok || kr.ObjectiveID == link.SourceObjectiveID {
				continue
			}
			r.byTargetKR[kr.ID] = appendUnique(r.byTargetKR[kr.ID], link.SourceObjectiveID)
			r.bySource[link.SourceObjectiveID] = appendUnique(r.bySource[link.SourceObjectiveID], kr.ObjectiveID)
		}
	}
	return r
}

func appendUnique(ids []uint, id uint) []uint {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

// SourcesOf 返回直接对齐到目标的来源目标 ID。
func (r *Resolver) SourcesOf(objectiveID uint) []uint {
	return r.byTargetObjective[objectiveID]
}

// ContributorsOf 返回直接对齐到关键结果的来源目标 ID。
func (r *Resolver) ContributorsOf(krID uint) []uint {
	return r.byTargetKR[krID]
}

// TargetsOf 返回来源目标直接对齐到的目标 ID。对齐到关键结果时取其所属目标。
func (r *Resolver) TargetsOf(objectiveID uint) []uint {
	return r.bySource[objectiveID]
}

// MergedKeyResults 生成节点展示的关键结果列表：自有关键结果在前，目标对齐产生的虚拟关键结果在后。
// 对齐到某个关键结果的来源并入该关键结果本身（linked_objectives），不另生成条目，
// 因此同一 kr_id 只出现一次，且保留真实关键结果的字段。
// 被嵌入的来源目标会记入 tracker；已独立放置的来源目标不再嵌入。
func (r *Resolver) MergedKeyResults(o *model.Objective, t *Tracker) []model.KeyResultView {
	own := r.snap.KeyResults(o.ID)
	views := make([]model.KeyResultView, 0, len(own))

	for i := range own {
		kr := &own[i]
		view := r.plainKeyResult(kr)
		if payloads := r.payloadsFor(r.ContributorsOf(kr.ID), t); len(payloads) > 0 {
			view.IsLinked = true
			view.LinkedObjectives = payloads
		}
		views = append(views, view)
	}

	for _, sourceID := range r.SourcesOf(o.ID) {
		source, _ := r.snap.Objective(sourceID)
		if !t.Link(sourceID) {
			continue
		}
		payload := r.Payload(source)
		views = append(views, model.KeyResultView{
			KrID:                model.VirtualKeyResultID(source.ID),
			KrTitle:             source.Title,
			TargetValue:         0,
			CurrentValue:        0,
			Unit:                model.UnitNumber,
			Status:              source.Status,
			ProgressPercent:     source.ProgressPercent,
			IsLinked:            true,
			IsLinkedObjective:   true,
			LinkedObjectiveData: &payload,
		})
	}
	return views
}

// payloadsFor 为关键结果的贡献来源生成嵌套目标信息。
func (r *Resolver) payloadsFor(sourceIDs []uint, t *Tracker) []model.ObjectivePayload {
	var payloads []model.ObjectivePayload
	for _, sourceID := range sourceIDs {
		source, ok := r.snap.Objective(sourceID)
		if !ok || !t.Link(sourceID) {
			continue
		}
		payloads = append(payloads, r.Payload(source))
	}
	return payloads
}

// Payload 生成目标的完整嵌套信息。其关键结果均为普通关键结果，不再展开对齐关系。
func (r *Resolver) Payload(o *model.Objective) model.ObjectivePayload {
	payload := model.ObjectivePayload{
		ObjectiveID:     o.ID,
		ObjTitle:        o.Title,
		Description:     o.Description,
		Status:          o.Status,
		ProgressPercent: o.ProgressPercent,
		Level:           o.Level,
		DepartmentID:    o.DepartmentID,
		Owner:           r.userBrief(o.UserID),
		KeyResults:      r.PlainKeyResults(o.ID),
	}
	if d, ok := r.snap.Department(o.DepartmentID); ok {
		payload.DepartmentName = d.Name
	}
	return payload
}

// PlainKeyResults 返回目标自有的关键结果，不合并任何对齐内容。
func (r *Resolver) PlainKeyResults(objectiveID uint) []model.KeyResultView {
	own := r.snap.KeyResults(objectiveID)
	views := make([]model.KeyResultView, 0, len(own))
	for i := range own {
		views = append(views, r.plainKeyResult(&own[i]))
	}
	return views
}

func (r *Resolver) plainKeyResult(kr *model.KeyResult) model.KeyResultView {
	return model.KeyResultView{
		KrID:            model.RealKeyResultID(kr.ID),
		KrTitle:         kr.Title,
		TargetValue:     kr.TargetValue,
		CurrentValue:    kr.CurrentValue,
		Unit:            kr.Unit,
		Status:          kr.Status,
		ProgressPercent: kr.Progress(),
		AssignedUser:    r.userBrief(kr.AssignedTo),
	}
}

func (r *Resolver) userBrief(id *uint) *model.UserBrief {
	u, ok := r.snap.User(id)
	if !ok {
		return nil
	}
	return &model.UserBrief{UserID: u.ID, FullName: u.FullName, AvatarURL: u.AvatarURL}
}
