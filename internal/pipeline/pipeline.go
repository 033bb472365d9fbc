// internal/pipeline/pipeline.go
package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rsd-dataset/internal/common/errors"
	"rsd-dataset/internal/common/logger"
	"rsd-dataset/internal/models"
)

const tracerName = "rsd-dataset/pipeline"

// Stage names, in execution order.
const (
	StageSample    = "sample"
	StageScore     = "score"
	StageDecide    = "decide"
	StageOversight = "oversight"
	StageAppeals   = "appeals"
)

// Stages lists the pipeline stages in the order they run.
var Stages = []string{StageSample, StageScore, StageDecide, StageOversight, StageAppeals}

// Config holds the two run parameters.
type Config struct {
	Records int
	Seed    int64
}

// StageRecorder receives per-stage timings.
type StageRecorder interface {
	RecordStageDuration(ctx context.Context, stage string, d time.Duration)
}

// Dataset is the immutable output of one run.
type Dataset struct {
	RunID       string
	Seed        int64
	Records     []models.Record
	GeneratedAt time.Time
	Duration    time.Duration
}

// Len returns the number of rows.
func (d *Dataset) Len() int { return len(d.Records) }

// Generator runs the five stages over a fresh table.
type Generator struct {
	cfg      Config
	logger   logger.Logger
	tracer   trace.Tracer
	recorder StageRecorder
	newRunID func() string
}

type Option func(*Generator)

func WithTracer(t trace.Tracer) Option {
	return func(g *Generator) { g.tracer = t }
}

func WithStageRecorder(r StageRecorder) Option {
	return func(g *Generator) { g.recorder = r }
}

// WithRunID pins the run identifier instead of generating a UUID.
func WithRunID(id string) Option {
	return func(g *Generator) { g.newRunID = func() string { return id } }
}

// New validates cfg and returns a Generator.
func New(cfg Config, log logger.Logger, opts ...Option) (*Generator, error) {
	if cfg.Records < 0 {
		return nil, errors.NewConfigInvalidError(fmt.Sprintf("records must be >= 0, got %d", cfg.Records))
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	g := &Generator{
		cfg:      cfg,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
		newRunID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate runs the pipeline once. Two calls with the same Config produce
// identical records; only RunID and timestamps differ.
func (g *Generator) Generate(ctx context.Context) (*Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewGenerationFailedError("start", err)
	}

	runID := g.newRunID()
	log := g.logger.WithFields(map[string]interface{}{
		"runId":   runID,
		"seed":    g.cfg.Seed,
		"records": g.cfg.Records,
	})
	log.Info("starting dataset generation", nil)

	ctx, span := g.tracer.Start(ctx, "rsd.generate", trace.WithAttributes(
		attribute.String("rsd.run_id", runID),
		attribute.Int64("rsd.seed", g.cfg.Seed),
		attribute.Int("rsd.records", g.cfg.Records),
	))
	defer span.End()

	start := time.Now()
	rng := NewRNG(g.cfg.Seed)
	var records []models.Record

	stages := []struct {
		name string
		run  func(*rand.Rand)
	}{
		{StageSample, func(rng *rand.Rand) { records = sampleApplicants(rng, g.cfg.Records) }},
		{StageScore, func(rng *rand.Rand) { scoreRecords(rng, records) }},
		{StageDecide, func(*rand.Rand) { decideRecords(records) }},
		{StageOversight, func(rng *rand.Rand) { simulateOversight(rng, records) }},
		{StageAppeals, func(rng *rand.Rand) { simulateAppeals(rng, records) }},
	}

	for _, stage := range stages {
		stageCtx, stageSpan := g.tracer.Start(ctx, "rsd.stage."+stage.name,
			trace.WithAttributes(attribute.String("rsd.stage", stage.name)))
		stageStart := time.Now()

		stage.run(rng)

		elapsed := time.Since(stageStart)
		stageSpan.End()
		if g.recorder != nil {
			g.recorder.RecordStageDuration(stageCtx, stage.name, elapsed)
		}
		log.Debug("stage complete", map[string]interface{}{
			"stage":    stage.name,
			"rows":     len(records),
			"duration": elapsed.String(),
		})
	}

	ds := &Dataset{
		RunID:       runID,
		Seed:        g.cfg.Seed,
		Records:     records,
		GeneratedAt: time.Now().UTC(),
		Duration:    time.Since(start),
	}

	log.Info("dataset generation complete", map[string]interface{}{
		"duration": ds.Duration.String(),
	})
	return ds, nil
}
