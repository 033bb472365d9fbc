// internal/workers/dataset/generate-dataset/handler_test.go
package generatedataset

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsd-dataset/internal/common/config"
	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/export"
	"rsd-dataset/internal/pipeline"
	"rsd-dataset/internal/runner"
	"rsd-dataset/pkg/codebook"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig(t *testing.T) *Config {
	cfg := DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.DefaultRecords = 40
	cfg.MaxRecords = 1000
	return cfg
}

func createTestHandler(t *testing.T) *Handler {
	t.Helper()
	log := logger.NewTestLogger(t)
	h, err := NewHandler(HandlerOptions{
		Config: createTestConfig(t),
		Runner: runner.New(codebook.Default(), log),
		Logger: log,
	})
	require.NoError(t, err)
	return h
}

type failingSink struct {
	writes int
}

func (s *failingSink) Name() string { return "failing" }

func (s *failingSink) Write(_ context.Context, _ *pipeline.Dataset) error {
	s.writes++
	return errors.NewSinkWriteFailedError(s.Name(), stderrors.New("connection reset"))
}

func intPtr(v int) *int       { return &v }
func seedPtr(v int64) *int64 { return &v }

// ==========================
// Construction
// ==========================

func TestNewHandler(t *testing.T) {
	t.Run("requires runner", func(t *testing.T) {
		_, err := NewHandler(HandlerOptions{Config: createTestConfig(t)})
		assert.Error(t, err)
	})

	t.Run("rejects invalid config", func(t *testing.T) {
		cfg := createTestConfig(t)
		cfg.Timeout = 0
		_, err := NewHandler(HandlerOptions{Config: cfg, Runner: runner.New(nil, nil)})
		assert.Error(t, err)
	})
}

func TestLoadConfig(t *testing.T) {
	app := &config.Config{
		Generator: config.GeneratorConfig{Records: 250, Seed: 7},
		Output:    config.OutputConfig{Directory: "/data/rsd", Delimiter: ";"},
		Workers: map[string]config.WorkerConfig{
			TaskType: {Enabled: true, Timeout: 120000},
		},
	}

	cfg := LoadConfig(app)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Equal(t, "/data/rsd", cfg.OutputDir)
	assert.Equal(t, ';', cfg.Delimiter)
	assert.Equal(t, 250, cfg.DefaultRecords)
	assert.Equal(t, int64(7), cfg.DefaultSeed)
	assert.NoError(t, cfg.Validate())
}

// ==========================
// Input parsing
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name      string
		variables string
		records   *int
		seed      *int64
		wantErr   bool
	}{
		{name: "empty", variables: ""},
		{name: "no fields", variables: `{}`},
		{name: "both fields", variables: `{"records": 100, "seed": 9}`, records: intPtr(100), seed: seedPtr(9)},
		{name: "unrelated variables ignored", variables: `{"caseId": "x", "records": 5}`, records: intPtr(5)},
		{name: "malformed", variables: `{"records":`, wantErr: true},
		{name: "wrong type", variables: `{"records": "many"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.variables)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.records, input.Records)
			assert.Equal(t, tt.seed, input.Seed)
		})
	}
}

// ==========================
// Execution
// ==========================

func TestExecute_Defaults(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.execute(context.Background(), &Input{})
	require.NoError(t, err)

	assert.Equal(t, 40, out.Rows)
	assert.NotEmpty(t, out.RunID)
	assert.Equal(t, filepath.Join(h.config.OutputDir, out.RunID+".csv"), out.OutputPath)
	assert.Len(t, out.Digest, 64)
	assert.GreaterOrEqual(t, out.AIApprovalRate, 0.0)
	assert.LessOrEqual(t, out.AIApprovalRate, 1.0)

	total := 0
	for _, n := range out.BiasFlags {
		total += n
	}
	assert.Equal(t, 40, total)

	header, rows, err := export.ReadFile(out.OutputPath, ',')
	require.NoError(t, err)
	assert.Equal(t, codebook.Default().Names(), header)
	assert.Len(t, rows, 40)
}

func TestExecute_SameSeedSameDigest(t *testing.T) {
	h := createTestHandler(t)
	input := &Input{Records: intPtr(60), Seed: seedPtr(11)}

	first, err := h.execute(context.Background(), input)
	require.NoError(t, err)
	second, err := h.execute(context.Background(), input)
	require.NoError(t, err)

	assert.NotEqual(t, first.RunID, second.RunID)
	assert.NotEqual(t, first.OutputPath, second.OutputPath)
	assert.Equal(t, first.Digest, second.Digest)
}

func TestExecute_ZeroRecords(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.execute(context.Background(), &Input{Records: intPtr(0)})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Rows)
	assert.Empty(t, out.BiasFlags)
}

func TestExecute_InvalidRecords(t *testing.T) {
	tests := []struct {
		name    string
		records int
	}{
		{name: "negative", records: -1},
		{name: "over limit", records: 1001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := createTestHandler(t)
			out, err := h.execute(context.Background(), &Input{Records: intPtr(tt.records)})
			require.Error(t, err)
			assert.Nil(t, out)
			assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
		})
	}
}

func TestExecute_ExportFailureIsNotRetryable(t *testing.T) {
	h := createTestHandler(t)
	h.config.OutputDir = filepath.Join("/dev/null", "rsd")

	_, err := h.execute(context.Background(), &Input{Records: intPtr(3)})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeExportFailed, errors.CodeOf(err))
	assert.False(t, errors.IsRetryableErrorCode(errors.CodeOf(err)))
}

func TestExecute_PublishFailureCompletesWithCommittedOutput(t *testing.T) {
	log := logger.NewTestLogger(t)
	sink := &failingSink{}
	cfg := createTestConfig(t)
	h, err := NewHandler(HandlerOptions{
		Config: cfg,
		Runner: runner.New(codebook.Default(), log, runner.WithSinks(sink)),
		Logger: log,
	})
	require.NoError(t, err)

	out, err := h.execute(context.Background(), &Input{Records: intPtr(20), Seed: seedPtr(5)})
	require.NoError(t, err)
	require.NotNil(t, out)

	assert.Equal(t, 20, out.Rows)
	assert.Len(t, out.Digest, 64)
	assert.Equal(t, string(errors.ErrCodeSinkWriteFailed), out.PublishErrorCode)
	assert.Contains(t, out.PublishError, "connection reset")
	assert.Equal(t, 1, sink.writes)

	_, rows, err := export.ReadFile(out.OutputPath, ',')
	require.NoError(t, err)
	assert.Len(t, rows, 20)

	entries, err := os.ReadDir(cfg.OutputDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestExecute_SuccessHasNoPublishError(t *testing.T) {
	h := createTestHandler(t)

	out, err := h.execute(context.Background(), &Input{Records: intPtr(5)})
	require.NoError(t, err)
	assert.Empty(t, out.PublishError)
	assert.Empty(t, out.PublishErrorCode)
}
