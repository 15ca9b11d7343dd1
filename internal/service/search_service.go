package service

import (
	"context"
	"okr-compass-go/internal/alignment"
	"okr-compass-go/internal/model"
	"okr-compass-go/pkg/log"
	"regexp"
	"strings"
)

// ObjectiveSearcher 是目标索引的查询接口，由 es.ObjectiveIndex 实现。
type ObjectiveSearcher interface {
	Search(ctx context.Context, query map[string]interface{}) ([]model.ObjectiveSearchHit, error)
}

// SearchService 接口定义了目标搜索操作。
type SearchService interface {
	SearchObjectives(ctx context.Context, query string, cycleID *uint, topK int, user *model.User) ([]model.ObjectiveSearchHit, error)
}

type searchService struct {
	searcher ObjectiveSearcher
}

// NewSearchService 创建一个新的 SearchService 实例。
func NewSearchService(searcher ObjectiveSearcher) SearchService {
	return &searchService{searcher: searcher}
}

// SearchObjectives 全文检索目标，结果与对齐树使用同一可见性规则。
func (s *searchService) SearchObjectives(ctx context.Context, query string, cycleID *uint, topK int, user *model.User) ([]model.ObjectiveSearchHit, error) {
	normalized, phrase := normalizeQuery(query)
	if normalized == "" {
		return nil, ErrInvalidInput
	}
	if topK <= 0 || topK > 50 {
		topK = 10
	}
	if normalized != query {
		log.Infof("[SearchService] 规范化查询: '%s' -> '%s'", query, normalized)
	}

	esQuery := buildObjectiveQuery(normalized, phrase, cycleID, alignment.ViewerFromUser(user), topK)
	hits, err := s.searcher.Search(ctx, esQuery)
	if err != nil {
		log.Errorf("[SearchService] 搜索目标失败, query: '%s': %v", query, err)
		return nil, err
	}

	// 索引可能落后于数据库，按同一规则再过滤一次。
	viewer := alignment.ViewerFromUser(user)
	results := make([]model.ObjectiveSearchHit, 0, len(hits))
	for _, hit := range hits {
		obj := model.Objective{ID: hit.ObjectiveID, Level: hit.Level, UserID: hit.UserID}
		if alignment.Visible(viewer, &obj) {
			results = append(results, hit)
		}
	}
	log.Infof("[SearchService] 搜索完成, query: '%s', 命中 %d 条", query, len(results))
	return results, nil
}

// buildObjectiveQuery 构建 bool 查询：must 做多字段匹配，filter 限定周期与可见层级。
func buildObjectiveQuery(normalized, phrase string, cycleID *uint, viewer alignment.Viewer, topK int) map[string]interface{} {
	visibility := []map[string]interface{}{
		{"terms": map[string]interface{}{"level": []string{model.LevelCompany, model.LevelUnit}}},
	}
	if viewer.Role == model.RoleMember {
		visibility = append(visibility, map[string]interface{}{
			"bool": map[string]interface{}{
				"filter": []map[string]interface{}{
					{"term": map[string]interface{}{"level": model.LevelPerson}},
					{"term": map[string]interface{}{"user_id": viewer.UserID}},
				},
			},
		})
	}

	filter := []map[string]interface{}{
		{"bool": map[string]interface{}{
			"should":               visibility,
			"minimum_should_match": 1,
		}},
	}
	if cycleID != nil {
		filter = append(filter, map[string]interface{}{"term": map[string]interface{}{"cycle_id": *cycleID}})
	}

	boolQuery := map[string]interface{}{
		"must": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  normalized,
				"fields": []string{"title^3", "key_result_titles^2", "description"},
			},
		},
		"filter": filter,
	}
	if should := buildPhraseShould(phrase); should != nil {
		boolQuery["should"] = should
	}
	return map[string]interface{}{
		"query": map[string]interface{}{"bool": boolQuery},
		"size":  topK,
	}
}

var (
	reKeep  = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	reSpace = regexp.MustCompile(`\s+`)
)

// normalizeQuery 对用户查询进行轻量去噪与短语提取。
// 返回值：规范化后的查询与核心短语（用于 match_phrase 加权）。
func normalizeQuery(q string) (string, string) {
	lower := strings.ToLower(strings.TrimSpace(q))
	if lower == "" {
		return "", ""
	}
	stopPhrases := []string{"请问", "有哪些", "是什么", "吗", "呢", "？", "?"}
	for _, sp := range stopPhrases {
		lower = strings.ReplaceAll(lower, sp, " ")
	}
	kept := reKeep.ReplaceAllString(lower, " ")
	kept = strings.TrimSpace(reSpace.ReplaceAllString(kept, " "))
	if kept == "" {
		return "", ""
	}
	return kept, kept
}

// buildPhraseShould 构建 match_phrase should 子句（带 boost），为空则返回 nil
func buildPhraseShould(phrase string) []map[string]interface{} {
	if phrase == "" || !strings.Contains(phrase, " ") {
		return nil
	}
	return []map[string]interface{}{
		{
			"match_phrase": map[string]interface{}{
				"title": map[string]interface{}{
					"query": phrase,
					"boost": 3.0,
				},
			},
		},
	}
}
