// internal/pipeline/pipeline_test.go
package pipeline

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type recordingStageRecorder struct {
	mu     sync.Mutex
	stages []string
}

func (r *recordingStageRecorder) RecordStageDuration(_ context.Context, stage string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func generate(t *testing.T, records int, seed int64, opts ...Option) *Dataset {
	t.Helper()
	g, err := New(Config{Records: records, Seed: seed}, logger.NewTestLogger(t), opts...)
	require.NoError(t, err)
	ds, err := g.Generate(context.Background())
	require.NoError(t, err)
	return ds
}

// ==========================
// Construction
// ==========================

func TestNew_RejectsNegativeRecords(t *testing.T) {
	_, err := New(Config{Records: -1, Seed: 42}, nil)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeConfigInvalid, errors.CodeOf(err))
}

func TestGenerate_CancelledContext(t *testing.T) {
	g, err := New(Config{Records: 10, Seed: 42}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = g.Generate(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeGenerationFailed, errors.CodeOf(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_ZeroRecords(t *testing.T) {
	ds := generate(t, 0, 42)
	assert.Equal(t, 0, ds.Len())
	assert.NotEmpty(t, ds.RunID)
}

// ==========================
// Invariants
// ==========================

func TestGenerate_Invariants(t *testing.T) {
	for _, tc := range []struct {
		records int
		seed    int64
	}{
		{500, 42},
		{1, 1},
		{37, 2024},
		{2000, 7},
	} {
		ds := generate(t, tc.records, tc.seed)
		require.Equal(t, tc.records, ds.Len())

		reviewed := 0
		for i, r := range ds.Records {
			assert.Equal(t, i+1, r.ID)

			for name, v := range map[string]float64{
				"credibility":      r.CredibilityScore,
				"risk":             r.RiskScore,
				"integration":      r.IntegrationScore,
				"state_protection": r.StateProtectionScore,
			} {
				assert.GreaterOrEqual(t, v, 0.0, "%s row %d", name, r.ID)
				assert.LessOrEqual(t, v, 1.0, "%s row %d", name, r.ID)
			}
			assert.GreaterOrEqual(t, r.StateProtectionScore, stateProtectionFloor)
			assert.Equal(t, clip(r.RiskScoreUncapped, 0, 1), r.RiskScore)

			assert.GreaterOrEqual(t, r.Age, 18)
			assert.Less(t, r.Age, 65)
			assert.GreaterOrEqual(t, r.FamilySize, 1)
			assert.Less(t, r.FamilySize, 7)
			assert.GreaterOrEqual(t, r.PriorCampYears, 0)
			assert.Less(t, r.PriorCampYears, 10)

			assert.Equal(t, Decide(r), r.AIDecision)
			if r.HumanOverride {
				assert.True(t, r.HumanReviewed)
				assert.Equal(t, r.AIDecision.Flip(), r.FinalDecision)
			} else {
				assert.Equal(t, r.AIDecision, r.FinalDecision)
			}

			if r.HumanReviewed {
				reviewed++
				assert.GreaterOrEqual(t, r.ProcessingTimeDays, 50)
				assert.Less(t, r.ProcessingTimeDays, 179)
			} else {
				assert.GreaterOrEqual(t, r.ProcessingTimeDays, 30)
				assert.Less(t, r.ProcessingTimeDays, 120)
			}

			assert.Equal(t, !r.Appealed, r.AppealOutcome == models.AppealNotApplicable)
			if r.Appealed {
				assert.Equal(t, models.DecisionDeny, r.FinalDecision)
			}
			assert.Contains(t, models.BiasFlags, r.BiasFlag)
		}
		assert.Equal(t, ReviewCount(tc.records), reviewed, "records=%d", tc.records)
	}
}

func TestGenerate_ApprovalRateCalibration(t *testing.T) {
	ds := generate(t, 500, 42)

	approved := 0
	for _, r := range ds.Records {
		if r.AIDecision == models.DecisionApprove {
			approved++
		}
	}
	rate := float64(approved) / float64(ds.Len())
	assert.GreaterOrEqual(t, rate, 0.45)
	assert.LessOrEqual(t, rate, 0.70)
}

func TestGenerate_TraumaFollowsRate(t *testing.T) {
	ds := generate(t, 20000, 11)

	var hits, total int
	for _, r := range ds.Records {
		if r.CountryOfOrigin == models.CountrySyria && r.PersecutionType == models.TypeSexualViolence {
			total++
			if r.ReportedTrauma {
				hits++
			}
		}
	}
	require.Greater(t, total, 200)
	assert.InDelta(t, 0.80, float64(hits)/float64(total), 0.06)
}

// ==========================
// Determinism
// ==========================

func TestGenerate_Deterministic(t *testing.T) {
	a := generate(t, 300, 42)
	b := generate(t, 300, 42)
	assert.Equal(t, a.Records, b.Records)
	assert.NotEqual(t, a.RunID, b.RunID)

	c := generate(t, 300, 43)
	assert.NotEqual(t, a.Records, c.Records)
}

func TestGenerate_WithRunID(t *testing.T) {
	ds := generate(t, 5, 42, WithRunID("fixed-run"))
	assert.Equal(t, "fixed-run", ds.RunID)
	assert.Equal(t, int64(42), ds.Seed)
}

// ==========================
// Telemetry
// ==========================

func TestGenerate_StageSpansAndRecorder(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	rec := &recordingStageRecorder{}
	generate(t, 50, 42, WithTracer(tp.Tracer("test")), WithStageRecorder(rec))

	assert.Equal(t, Stages, rec.stages)

	var names []string
	for _, s := range sr.Ended() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{
		"rsd.stage.sample",
		"rsd.stage.score",
		"rsd.stage.decide",
		"rsd.stage.oversight",
		"rsd.stage.appeals",
		"rsd.generate",
	}, names)
}
