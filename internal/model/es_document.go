package model

import "time"

// ObjectiveDocument 是目标在 Elasticsearch 中的索引文档。
type ObjectiveDocument struct {
	ObjectiveID     uint      `json:"objective_id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	KeyResultTitles []string  `json:"key_result_titles"`
	Level           string    `json:"level"`
	Status          string    `json:"status"`
	DepartmentID    *uint     `json:"department_id"`
	UserID          *uint     `json:"user_id"`
	CycleID         *uint     `json:"cycle_id"`
	ProgressPercent float64   `json:"progress_percent"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// NewObjectiveDocument 由目标及其关键结果构造索引文档。
func NewObjectiveDocument(o *Objective, krs []KeyResult) ObjectiveDocument {
	titles := make([]string, 0, len(krs))
	for i := range krs {
		if !krs[i].IsArchived() {
			titles = append(titles, krs[i].Title)
		}
	}
	return ObjectiveDocument{
		ObjectiveID:     o.ID,
		Title:           o.Title,
		Description:     o.Description,
		KeyResultTitles: titles,
		Level:           o.Level,
		Status:          o.Status,
		DepartmentID:    o.DepartmentID,
		UserID:          o.UserID,
		CycleID:         o.CycleID,
		ProgressPercent: o.ProgressPercent,
		UpdatedAt:       o.UpdatedAt,
	}
}

// ObjectiveSearchHit 是一条搜索结果。
type ObjectiveSearchHit struct {
	ObjectiveDocument
	Score float64 `json:"score"`
}
