// internal/sinks/sinks_test.go
package sinks

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsd-dataset/internal/common/database"
	apperrors "rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/pipeline"
	"rsd-dataset/pkg/codebook"
)

// ==========================
// Test Helper Functions
// ==========================

func dataset(t *testing.T, n int) *pipeline.Dataset {
	t.Helper()
	g, err := pipeline.New(pipeline.Config{Records: n, Seed: 42}, nil, pipeline.WithRunID("run-1"))
	require.NoError(t, err)
	ds, err := g.Generate(context.Background())
	require.NoError(t, err)
	return ds
}

type fakeSink struct {
	name  string
	err   error
	calls int
}

func (f *fakeSink) Name() string { return f.name }

func (f *fakeSink) Write(context.Context, *pipeline.Dataset) error {
	f.calls++
	return f.err
}

// esServer records bulk bodies and answers with the configured status and
// item results.
type esServer struct {
	mu         sync.Mutex
	bulkBodies []string
	status     int
	errors     bool
	indexExist bool
	created    string
}

func (s *esServer) handler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	w.Header().Set("X-Elastic-Product", "Elasticsearch")
	w.Header().Set("Content-Type", "application/json")

	switch {
	case strings.HasSuffix(r.URL.Path, "/_bulk"):
		body, _ := io.ReadAll(r.Body)
		s.bulkBodies = append(s.bulkBodies, string(body))
		if s.status != 0 && s.status != http.StatusOK {
			w.WriteHeader(s.status)
			_, _ = w.Write([]byte(`{"error":"unavailable"}`))
			return
		}
		resp := map[string]interface{}{"took": 1, "errors": s.errors, "items": []interface{}{}}
		if s.errors {
			resp["items"] = []interface{}{
				map[string]interface{}{"index": map[string]interface{}{
					"_id": "run-1-1", "status": 400,
					"error": map[string]string{"type": "mapper_parsing_exception", "reason": "bad field"},
				}},
			}
		}
		_ = json.NewEncoder(w).Encode(resp)
	case r.Method == http.MethodHead:
		if s.indexExist {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		s.created = string(body)
		_, _ = w.Write([]byte(`{"acknowledged":true}`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func newESClient(t *testing.T, s *esServer) *elasticsearch.Client {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(s.handler))
	t.Cleanup(server.Close)

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses:    []string{server.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)
	return client
}

// ==========================
// WriteAll
// ==========================

func TestWriteAll(t *testing.T) {
	ds := dataset(t, 5)
	ok := &fakeSink{name: "ok"}
	bad := &fakeSink{name: "bad", err: errors.New("first failure")}
	worse := &fakeSink{name: "worse", err: errors.New("second failure")}

	err := WriteAll(context.Background(), []Sink{bad, ok, worse}, ds, logger.NewTestLogger(t))
	require.Error(t, err)
	assert.Equal(t, "first failure", err.Error())
	assert.Equal(t, 1, ok.calls)
	assert.Equal(t, 1, worse.calls)

	assert.NoError(t, WriteAll(context.Background(), []Sink{ok}, ds, logger.NewTestLogger(t)))
	assert.NoError(t, WriteAll(context.Background(), nil, ds, logger.NewTestLogger(t)))
}

// ==========================
// Postgres
// ==========================

func TestPostgresSink_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rsd_runs").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rsd_records").WillReturnResult(sqlmock.NewResult(0, 0))

	sink := NewPostgresSink(&database.PostgresClient{DB: db})
	require.NoError(t, sink.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_EnsureSchemaFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS rsd_runs").WillReturnError(errors.New("permission denied"))

	err = NewPostgresSink(&database.PostgresClient{DB: db}).EnsureSchema(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSinkWriteFailed, apperrors.CodeOf(err))
}

func TestPostgresSink_Write(t *testing.T) {
	ds := dataset(t, 3)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rsd_runs").
		WithArgs("run-1", int64(42), int64(3), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare("INSERT INTO rsd_records")
	for range ds.Records {
		prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	sink := NewPostgresSink(&database.PostgresClient{DB: db})
	assert.Equal(t, "postgres", sink.Name())
	require.NoError(t, sink.Write(context.Background(), ds))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSink_WriteRollsBack(t *testing.T) {
	ds := dataset(t, 3)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO rsd_runs").WillReturnResult(sqlmock.NewResult(0, 1))
	prep := mock.ExpectPrepare("INSERT INTO rsd_records")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnError(errors.New("duplicate key"))
	mock.ExpectRollback()

	err = NewPostgresSink(&database.PostgresClient{DB: db}).Write(context.Background(), ds)
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeSinkWriteFailed, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "insert record 2")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Elasticsearch
// ==========================

func TestElasticsearchSink_WriteBatches(t *testing.T) {
	srv := &esServer{}
	sink := NewElasticsearchSink(newESClient(t, srv), "rsd-records", 4)
	ds := dataset(t, 10)

	require.NoError(t, sink.Write(context.Background(), ds))

	require.Len(t, srv.bulkBodies, 3)

	var lines []string
	for _, body := range srv.bulkBodies {
		sc := bufio.NewScanner(strings.NewReader(body))
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			lines = append(lines, sc.Text())
		}
	}
	require.Len(t, lines, 20)

	var meta map[string]map[string]string
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &meta))
	assert.Equal(t, "run-1-1", meta["index"]["_id"])
	assert.Equal(t, "rsd-records", meta["index"]["_index"])

	var doc map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "run-1", doc["run_id"])
	assert.Equal(t, float64(1), doc["id"])
	assert.Contains(t, doc, "credibility_score")
	assert.Contains(t, doc, "AI_decision")
}

func TestElasticsearchSink_Failures(t *testing.T) {
	tests := []struct {
		name    string
		server  *esServer
		errPart string
	}{
		{name: "item errors", server: &esServer{errors: true}, errPart: "mapper_parsing_exception"},
		{name: "http error", server: &esServer{status: http.StatusServiceUnavailable}, errPart: "503"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sink := NewElasticsearchSink(newESClient(t, tt.server), "rsd-records", 0)
			err := sink.Write(context.Background(), dataset(t, 2))
			require.Error(t, err)
			assert.Equal(t, apperrors.ErrCodeSinkWriteFailed, apperrors.CodeOf(err))
			assert.Contains(t, err.Error(), tt.errPart)
		})
	}
}

func TestElasticsearchSink_EnsureIndex(t *testing.T) {
	srv := &esServer{}
	sink := NewElasticsearchSink(newESClient(t, srv), "rsd-records", 0)

	require.NoError(t, sink.EnsureIndex(context.Background(), codebook.Default()))
	assert.Contains(t, srv.created, `"dynamic":"strict"`)
	assert.Contains(t, srv.created, `"credibility_score":{"type":"double"}`)

	srv.created = ""
	srv.indexExist = true
	require.NoError(t, sink.EnsureIndex(context.Background(), codebook.Default()))
	assert.Empty(t, srv.created)
}

func TestIndexMapping(t *testing.T) {
	mapping := IndexMapping(codebook.Default())
	props := mapping["mappings"].(map[string]interface{})["properties"].(map[string]interface{})

	assert.Equal(t, map[string]string{"type": "integer"}, props["age"])
	assert.Equal(t, map[string]string{"type": "boolean"}, props["appealed"])
	assert.Equal(t, map[string]string{"type": "keyword"}, props["bias_flag"])
	assert.Equal(t, map[string]string{"type": "keyword"}, props["run_id"])
	assert.Len(t, props, 28)
}
