// Package alignment 把一个周期内扁平的目标、关键结果与对齐关系解析为去重后的层级对齐树。
package alignment

import (
	"fmt"
	"okr-compass-go/internal/model"
	"okr-compass-go/internal/repository"
)

// Viewer 是请求对齐树的用户身份。
type Viewer struct {
	UserID       uint
	Role         string
	DepartmentID *uint
}

// ViewerFromUser 由用户记录构造 Viewer。
func ViewerFromUser(u *model.User) Viewer {
	return Viewer{UserID: u.ID, Role: u.Role, DepartmentID: u.DepartmentID}
}

// seesPersonal 判断查看者能否看到自己的个人目标。管理员与经理在汇总树中看不到任何个人目标。
func (v Viewer) seesPersonal() bool {
	return v.Role == model.RoleMember
}

// CacheKey 返回查看者在树缓存中的分区标识。
// 公共层级对所有人一致，只有普通成员会额外看到本人的个人目标。
func (v Viewer) CacheKey() string {
	if v.seesPersonal() {
		return fmt.Sprintf("member-%d", v.UserID)
	}
	return "shared"
}

// treeLevels 是对所有查看者公开的层级。
var treeLevels = []string{model.LevelCompany, model.LevelUnit}

// ScopeFor 返回查看者在某个周期下的目标查询范围。
func ScopeFor(cycleID *uint, v Viewer) repository.ObjectiveScope {
	scope := repository.ObjectiveScope{
		CycleID: cycleID,
		Levels:  treeLevels,
	}
	if v.seesPersonal() {
		id := v.UserID
		scope.PersonOwnerID = &id
	}
	return scope
}

// Visible 判断目标是否进入查看者的汇总树。
func Visible(v Viewer, o *model.Objective) bool {
	if o.IsArchived() {
		return false
	}
	switch o.Level {
	case model.LevelCompany, model.LevelUnit:
		return true
	case model.LevelPerson:
		return v.seesPersonal() && o.OwnedBy(v.UserID)
	}
	return false
}
