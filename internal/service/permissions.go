package service

import "okr-compass-go/internal/model"

// canViewObjective 判断用户能否查看单个目标的详情：
// 负责人本人；公司级目标；管理员查看任意部门/团队目标；经理查看本部门的部门/团队目标。
func canViewObjective(u *model.User, o *model.Objective) bool {
	if o.OwnedBy(u.ID) || o.Level == model.LevelCompany {
		return true
	}
	switch o.Level {
	case model.LevelUnit, model.LevelTeam:
		if u.Role == model.RoleAdmin {
			return true
		}
		return u.Role == model.RoleManager && u.InDepartment(o.DepartmentID)
	}
	return false
}

// canCreateAt 判断用户能否在给定层级创建目标。
func canCreateAt(u *model.User, level string, departmentID *uint, ownerID uint) bool {
	switch level {
	case model.LevelCompany:
		return u.Role == model.RoleAdmin
	case model.LevelUnit, model.LevelTeam:
		if departmentID == nil {
			return false
		}
		return u.Role == model.RoleAdmin || (u.Role == model.RoleManager && u.InDepartment(departmentID))
	case model.LevelPerson:
		return ownerID == u.ID || u.Role == model.RoleAdmin
	}
	return false
}

// canEditObjective 判断用户能否修改目标及其关键结果。
func canEditObjective(u *model.User, o *model.Objective) bool {
	if u.Role == model.RoleAdmin || o.OwnedBy(u.ID) {
		return true
	}
	switch o.Level {
	case model.LevelUnit, model.LevelTeam:
		return u.Role == model.RoleManager && u.InDepartment(o.DepartmentID)
	}
	return false
}
