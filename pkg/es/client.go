// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"okr-compass-go/internal/config"
	"okr-compass-go/internal/model"
	"okr-compass-go/pkg/log"
	"strconv"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

// objectiveMapping 是 okr_objectives 索引的结构，标题与描述使用 ik 中文分词。
const objectiveMapping = `{
	"mappings": {
		"properties": {
			"objective_id": { "type": "long" },
			"title": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"description": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"key_result_titles": {
				"type": "text",
				"analyzer": "ik_max_word",
				"search_analyzer": "ik_smart"
			},
			"level": { "type": "keyword" },
			"status": { "type": "keyword" },
			"department_id": { "type": "long" },
			"user_id": { "type": "long" },
			"cycle_id": { "type": "long" },
			"progress_percent": { "type": "float" },
			"updated_at": { "type": "date" }
		}
	}
}`

// InitES 初始化 Elasticsearch 客户端
func InitES(esCfg config.ElasticsearchConfig) error {
	client, err := NewClient(esCfg)
	if err != nil {
		return err
	}
	ESClient = client
	return CreateIndexIfNotExists(client, esCfg.IndexName)
}

// NewClient 按配置创建客户端，不做任何网络请求。
func NewClient(esCfg config.ElasticsearchConfig) (*elasticsearch.Client, error) {
	cfg := elasticsearch.Config{
		Addresses: []string{esCfg.Addresses},
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
	return elasticsearch.NewClient(cfg)
}

// CreateIndexIfNotExists 检查索引是否存在，如果不存在则创建它
func CreateIndexIfNotExists(client *elasticsearch.Client, indexName string) error {
	res, err := client.Indices.Exists([]string{indexName})
	if err != nil {
		log.Errorf("检查索引是否存在时出错: %v", err)
		return err
	}
	defer res.Body.Close()
	if !res.IsError() && res.StatusCode == http.StatusOK {
		log.Infof("索引 '%s' 已存在", indexName)
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		log.Errorf("检查索引 '%s' 是否存在时收到意外的状态码: %d", indexName, res.StatusCode)
		return fmt.Errorf("检查索引是否存在时收到意外的状态码: %d", res.StatusCode)
	}

	created, err := client.Indices.Create(
		indexName,
		client.Indices.Create.WithBody(strings.NewReader(objectiveMapping)),
	)
	if err != nil {
		log.Errorf("创建索引 '%s' 失败: %v", indexName, err)
		return err
	}
	defer created.Body.Close()
	if created.IsError() {
		log.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, created.String())
		return errors.New("创建索引时 Elasticsearch 返回错误")
	}

	log.Infof("索引 '%s' 创建成功", indexName)
	return nil
}

// ObjectiveIndex 封装对目标索引的读写。
type ObjectiveIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewObjectiveIndex 创建一个 ObjectiveIndex。
func NewObjectiveIndex(client *elasticsearch.Client, index string) *ObjectiveIndex {
	return &ObjectiveIndex{client: client, index: index}
}

// Index 写入或覆盖目标文档，文档 ID 即目标 ID。
func (i *ObjectiveIndex) Index(ctx context.Context, doc model.ObjectiveDocument) error {
	docBytes, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      i.index,
		DocumentID: strconv.FormatUint(uint64(doc.ObjectiveID), 10),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() {
		log.Errorf("索引目标到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index objective")
	}
	return nil
}

// Delete 删除目标文档。文档不存在时视为成功。
func (i *ObjectiveIndex) Delete(ctx context.Context, objectiveID uint) error {
	req := esapi.DeleteRequest{
		Index:      i.index,
		DocumentID: strconv.FormatUint(uint64(objectiveID), 10),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, i.client)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		log.Errorf("从 Elasticsearch 删除目标出错: %s", res.String())
		return errors.New("failed to delete objective")
	}
	return nil
}

// Search 执行查询并解析命中结果。
func (i *ObjectiveIndex) Search(ctx context.Context, query map[string]interface{}) ([]model.ObjectiveSearchHit, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(query); err != nil {
		return nil, fmt.Errorf("failed to encode es query: %w", err)
	}
	res, err := i.client.Search(
		i.client.Search.WithContext(ctx),
		i.client.Search.WithIndex(i.index),
		i.client.Search.WithBody(&buf),
		i.client.Search.WithTrackTotalHits(true),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search failed: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		log.Errorf("Elasticsearch 返回错误, status: %s, body: %s", res.Status(), string(bodyBytes))
		return nil, fmt.Errorf("elasticsearch returned an error: %s", res.Status())
	}

	var esResponse struct {
		Hits struct {
			Hits []struct {
				Source model.ObjectiveDocument `json:"_source"`
				Score  float64                 `json:"_score"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&esResponse); err != nil {
		return nil, fmt.Errorf("failed to decode es response: %w", err)
	}
	hits := make([]model.ObjectiveSearchHit, 0, len(esResponse.Hits.Hits))
	for _, h := range esResponse.Hits.Hits {
		hits = append(hits, model.ObjectiveSearchHit{ObjectiveDocument: h.Source, Score: h.Score})
	}
	return hits, nil
}
