package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// VirtualKRPrefix 是虚拟关键结果 ID 的保留前缀，与真实关键结果的数字 ID 不会冲突。
const VirtualKRPrefix = "linked_obj_"

// KeyResultID 是对齐树中关键结果的标识。
// 真实关键结果序列化为数字，虚拟关键结果序列化为 "linked_obj_<objectiveId>" 字符串。
type KeyResultID string

// RealKeyResultID 由真实关键结果主键构造 ID。
func RealKeyResultID(id uint) KeyResultID {
	return KeyResultID(strconv.FormatUint(uint64(id), 10))
}

// VirtualKeyResultID 由被对齐目标的主键构造虚拟关键结果 ID。
func VirtualKeyResultID(objectiveID uint) KeyResultID {
	return KeyResultID(VirtualKRPrefix + strconv.FormatUint(uint64(objectiveID), 10))
}

// IsVirtual 判断是否为虚拟关键结果。
func (id KeyResultID) IsVirtual() bool {
	return strings.HasPrefix(string(id), VirtualKRPrefix)
}

// MarshalJSON implements json.Marshaler.
func (id KeyResultID) MarshalJSON() ([]byte, error) {
	if _, err := strconv.ParseUint(string(id), 10, 64); err == nil {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// UnmarshalJSON implements json.Unmarshaler，同时接受数字与字符串。
func (id *KeyResultID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = KeyResultID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = KeyResultID(n.String())
	return nil
}

// UserBrief 是对齐树中展示的用户信息。
type UserBrief struct {
	UserID    uint   `json:"user_id"`
	FullName  string `json:"full_name"`
	AvatarURL string `json:"avatar_url"`
}

// KeyResultView 是对齐树中的关键结果节点。
// 虚拟节点携带 IsLinkedObjective + LinkedObjectiveData；被贡献的关键结果携带 LinkedObjectives。
type KeyResultView struct {
	KrID                KeyResultID        `json:"kr_id"`
	KrTitle             string             `json:"kr_title"`
	TargetValue         float64            `json:"target_value"`
	CurrentValue        float64            `json:"current_value"`
	Unit                string             `json:"unit"`
	Status              string             `json:"status"`
	ProgressPercent     float64            `json:"progress_percent"`
	AssignedUser        *UserBrief         `json:"assigned_user"`
	IsLinked            bool               `json:"is_linked"`
	IsLinkedObjective   bool               `json:"is_linked_objective,omitempty"`
	LinkedObjectiveData *ObjectivePayload  `json:"linked_objective_data,omitempty"`
	LinkedObjectives    []ObjectivePayload `json:"linked_objectives,omitempty"`
}

// ObjectivePayload 是嵌套在关键结果中的被对齐目标的完整信息。
// 其 KeyResults 均为普通关键结果，不再继续展开对齐关系。
type ObjectivePayload struct {
	ObjectiveID     uint            `json:"objective_id"`
	ObjTitle        string          `json:"obj_title"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	ProgressPercent float64         `json:"progress_percent"`
	Level           string          `json:"level"`
	DepartmentID    *uint           `json:"department_id"`
	DepartmentName  string          `json:"d_name"`
	Owner           *UserBrief      `json:"owner"`
	KeyResults      []KeyResultView `json:"key_results"`
}

// ObjectiveNode 是对齐树中独立放置的目标节点。
type ObjectiveNode struct {
	ObjectiveID     uint            `json:"objective_id"`
	ObjTitle        string          `json:"obj_title"`
	Description     string          `json:"description"`
	Status          string          `json:"status"`
	ProgressPercent float64         `json:"progress_percent"`
	Level           string          `json:"level"`
	KeyResults      []KeyResultView `json:"key_results"`
}

// CompanyObjectiveNode 是公司级目标节点。跨层级的子目标已并入虚拟关键结果，LinkedObjectives 恒为空数组。
type CompanyObjectiveNode struct {
	ObjectiveNode
	LinkedObjectives []ObjectivePayload `json:"linked_objectives"`
}

// UnitObjectiveNode 是部门级目标节点。
type UnitObjectiveNode struct {
	ObjectiveNode
	Users []UserBranch `json:"users"`
}

// UserBranch 是某个部门下拥有个人目标的用户。
type UserBranch struct {
	UserBrief
	Objectives []ObjectiveNode `json:"objectives"`
}

// DepartmentBranch 是对齐树中的部门分支。
type DepartmentBranch struct {
	DepartmentID uint                `json:"department_id"`
	DName        string              `json:"d_name"`
	Objectives   []UnitObjectiveNode `json:"objectives"`
}

// OKRTree 是某个周期对齐树的完整输出。CycleID 为 nil 表示未匹配到周期。
type OKRTree struct {
	CycleID     *uint                  `json:"cycle_id"`
	CycleLabel  string                 `json:"cycle_label"`
	Company     []CompanyObjectiveNode `json:"company"`
	Departments []DepartmentBranch     `json:"departments"`
}
