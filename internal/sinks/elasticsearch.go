// internal/sinks/elasticsearch.go
package sinks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/models"
	"rsd-dataset/internal/pipeline"
	"rsd-dataset/pkg/codebook"
)

const defaultBatchSize = 500

type ElasticsearchSink struct {
	client    *elasticsearch.Client
	index     string
	batchSize int
}

func NewElasticsearchSink(client *elasticsearch.Client, index string, batchSize int) *ElasticsearchSink {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &ElasticsearchSink{client: client, index: index, batchSize: batchSize}
}

func (s *ElasticsearchSink) Name() string { return "elasticsearch" }

type indexedRecord struct {
	models.Record
	RunID string `json:"run_id"`
	Seed  int64  `json:"seed"`
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		ID     string `json:"_id"`
		Status int    `json:"status"`
		Error  struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error"`
	} `json:"items"`
}

// EnsureIndex creates the index with mappings derived from cb when it does
// not exist yet.
func (s *ElasticsearchSink) EnsureIndex(ctx context.Context, cb *codebook.Codebook) error {
	res, err := s.client.Indices.Exists([]string{s.index}, s.client.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewSinkWriteFailedError(s.Name(), fmt.Errorf("check index: %w", err))
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}
	if res.StatusCode != http.StatusNotFound {
		return errors.NewSinkWriteFailedError(s.Name(), fmt.Errorf("check index: %s", res.Status()))
	}

	body, err := json.Marshal(IndexMapping(cb))
	if err != nil {
		return errors.NewSinkWriteFailedError(s.Name(), err)
	}

	res, err = s.client.Indices.Create(s.index,
		s.client.Indices.Create.WithContext(ctx),
		s.client.Indices.Create.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return errors.NewSinkWriteFailedError(s.Name(), fmt.Errorf("create index: %w", err))
	}
	defer res.Body.Close()
	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return errors.NewSinkWriteFailedError(s.Name(), fmt.Errorf("create index: %s: %s", res.Status(), msg))
	}
	return nil
}

// IndexMapping maps codebook column types onto Elasticsearch field types.
func IndexMapping(cb *codebook.Codebook) map[string]interface{} {
	props := map[string]interface{}{
		"run_id": map[string]string{"type": "keyword"},
		"seed":   map[string]string{"type": "long"},
	}
	for _, c := range cb.Columns {
		var esType string
		switch c.Type {
		case codebook.TypeInteger:
			esType = "integer"
		case codebook.TypeNumber:
			esType = "double"
		case codebook.TypeBoolean:
			esType = "boolean"
		default:
			esType = "keyword"
		}
		props[c.Name] = map[string]string{"type": esType}
	}
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"dynamic":    "strict",
			"properties": props,
		},
	}
}

// Write bulk-indexes the records in batches. Document ids are
// <runId>-<id> so re-sending a run overwrites rather than duplicates.
func (s *ElasticsearchSink) Write(ctx context.Context, ds *pipeline.Dataset) error {
	for start := 0; start < ds.Len(); start += s.batchSize {
		end := start + s.batchSize
		if end > ds.Len() {
			end = ds.Len()
		}
		if err := s.writeBatch(ctx, ds, ds.Records[start:end]); err != nil {
			return errors.NewSinkWriteFailedError(s.Name(), err)
		}
	}
	return nil
}

func (s *ElasticsearchSink) writeBatch(ctx context.Context, ds *pipeline.Dataset, batch []models.Record) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, r := range batch {
		meta := map[string]map[string]string{
			"index": {"_index": s.index, "_id": fmt.Sprintf("%s-%d", ds.RunID, r.ID)},
		}
		if err := enc.Encode(meta); err != nil {
			return err
		}
		if err := enc.Encode(indexedRecord{Record: r, RunID: ds.RunID, Seed: ds.Seed}); err != nil {
			return err
		}
	}

	res, err := s.client.Bulk(bytes.NewReader(buf.Bytes()),
		s.client.Bulk.WithContext(ctx),
		s.client.Bulk.WithIndex(s.index),
	)
	if err != nil {
		return fmt.Errorf("bulk request: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		return fmt.Errorf("bulk request: %s: %s", res.Status(), strings.TrimSpace(string(msg)))
	}

	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("decode bulk response: %w", err)
	}
	if br.Errors {
		return fmt.Errorf("bulk request: %s", firstBulkFailure(br))
	}
	return nil
}

func firstBulkFailure(br bulkResponse) string {
	failed := 0
	first := ""
	for _, item := range br.Items {
		for _, result := range item {
			if result.Status >= 300 {
				failed++
				if first == "" {
					first = fmt.Sprintf("%s: %s: %s", result.ID, result.Error.Type, result.Error.Reason)
				}
			}
		}
	}
	return fmt.Sprintf("%d items failed, first %s", failed, first)
}
