package es

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"okr-compass-go/internal/config"
	"okr-compass-go/internal/model"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method, path, body string
}

// fakeES 模拟 Elasticsearch 的 HTTP 接口，按 "METHOD path" 返回预设响应。
func fakeES(t *testing.T, responses map[string]string, status map[string]int) (*ObjectiveIndex, func() []recorded) {
	t.Helper()
	var mu sync.Mutex
	var calls []recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		key := r.Method + " " + r.URL.Path
		mu.Lock()
		calls = append(calls, recorded{method: r.Method, path: r.URL.Path, body: string(body)})
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if code, ok := status[key]; ok {
			w.WriteHeader(code)
		}
		if resp, ok := responses[key]; ok {
			_, _ = w.Write([]byte(resp))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(srv.Close)

	client, err := NewClient(config.ElasticsearchConfig{Addresses: srv.URL})
	require.NoError(t, err)
	return NewObjectiveIndex(client, "okr_objectives"), func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func TestObjectiveIndex_IndexUsesObjectiveIDAsDocumentID(t *testing.T) {
	idx, calls := fakeES(t, nil, nil)
	dept := uint(4)
	err := idx.Index(context.Background(), model.ObjectiveDocument{ObjectiveID: 42, Title: "Grow", Level: model.LevelUnit, DepartmentID: &dept})
	require.NoError(t, err)

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/okr_objectives/_doc/42", got[0].path)
	var doc model.ObjectiveDocument
	require.NoError(t, json.Unmarshal([]byte(got[0].body), &doc))
	assert.Equal(t, "Grow", doc.Title)
	assert.Equal(t, &dept, doc.DepartmentID)
}

func TestObjectiveIndex_DeleteIgnoresMissingDocument(t *testing.T) {
	idx, _ := fakeES(t, nil, map[string]int{"DELETE /okr_objectives/_doc/7": http.StatusNotFound})
	require.NoError(t, idx.Delete(context.Background(), 7))
}

func TestObjectiveIndex_SearchParsesHits(t *testing.T) {
	resp := `{"hits":{"total":{"value":1},"hits":[{"_score":1.5,"_source":{"objective_id":3,"title":"Ship v2","level":"company"}}]}}`
	idx, calls := fakeES(t, map[string]string{"POST /okr_objectives/_search": resp}, nil)

	hits, err := idx.Search(context.Background(), map[string]interface{}{"query": map[string]interface{}{"match_all": map[string]interface{}{}}})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, uint(3), hits[0].ObjectiveID)
	assert.Equal(t, "Ship v2", hits[0].Title)
	assert.Equal(t, 1.5, hits[0].Score)
	assert.True(t, strings.Contains(calls()[0].body, "match_all"))
}

func TestObjectiveIndex_SearchSurfacesErrors(t *testing.T) {
	idx, _ := fakeES(t, map[string]string{"POST /okr_objectives/_search": `{"error":"boom"}`},
		map[string]int{"POST /okr_objectives/_search": http.StatusInternalServerError})
	_, err := idx.Search(context.Background(), map[string]interface{}{})
	require.Error(t, err)
}

func TestCreateIndexIfNotExists_CreatesMissingIndex(t *testing.T) {
	idx, calls := fakeES(t, nil, map[string]int{"HEAD /okr_objectives": http.StatusNotFound})
	require.NoError(t, CreateIndexIfNotExists(idx.client, "okr_objectives"))

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPut, got[1].method)
	assert.Contains(t, got[1].body, `"key_result_titles"`)
}
